package deps

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Group distinguishes production dependencies from development-only ones.
type Group string

const (
	GroupMain     Group = "dependencies"
	GroupDev      Group = "dev_dependencies"
	GroupOverride Group = "dependency_overrides"
)

// Dependency is one manifest entry. Constraint is empty for git/path/sdk
// dependencies, which carry no hosted version range.
type Dependency struct {
	Name       string
	Group      Group
	Constraint string
	Hosted     bool // resolvable from a package registry
}

// Manifest is the parsed declarative dependency manifest (pubspec.yaml).
type Manifest struct {
	Name string
	Deps []Dependency
}

type rawPubspec struct {
	Name         string               `yaml:"name"`
	Dependencies map[string]yaml.Node `yaml:"dependencies"`
	DevDeps      map[string]yaml.Node `yaml:"dev_dependencies"`
	Overrides    map[string]yaml.Node `yaml:"dependency_overrides"`
}

// ParseManifest decodes a pubspec without running any resolver. Entries are
// returned in name order within each group so downstream findings are
// deterministic.
func ParseManifest(data []byte) (Manifest, error) {
	var raw rawPubspec
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Manifest{}, fmt.Errorf("pubspec: %w", err)
	}
	m := Manifest{Name: raw.Name}
	m.Deps = append(m.Deps, decodeGroup(raw.Dependencies, GroupMain)...)
	m.Deps = append(m.Deps, decodeGroup(raw.DevDeps, GroupDev)...)
	m.Deps = append(m.Deps, decodeGroup(raw.Overrides, GroupOverride)...)
	return m, nil
}

func decodeGroup(entries map[string]yaml.Node, g Group) []Dependency {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Dependency, 0, len(names))
	for _, name := range names {
		node := entries[name]
		d := Dependency{Name: name, Group: g}
		switch node.Kind {
		case yaml.ScalarNode:
			// plain constraint string, or empty ("pkg:") which means any
			d.Hosted = true
			d.Constraint = strings.TrimSpace(node.Value)
		case yaml.MappingNode:
			var detail struct {
				Version string    `yaml:"version"`
				Hosted  yaml.Node `yaml:"hosted"`
				SDK     string    `yaml:"sdk"`
				Git     yaml.Node `yaml:"git"`
				Path    string    `yaml:"path"`
			}
			if err := node.Decode(&detail); err == nil {
				if detail.SDK == "" && detail.Git.Kind == 0 && detail.Path == "" {
					d.Hosted = true
					d.Constraint = strings.TrimSpace(detail.Version)
				}
			}
		default:
			// "pkg:" with no value decodes as a zero node: hosted, any version
			d.Hosted = true
		}
		out = append(out, d)
	}
	return out
}

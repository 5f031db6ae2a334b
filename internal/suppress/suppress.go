// Package suppress implements the cross-category suppression policy: one
// component, injected into every scanner, that demotes or discards signals
// matching known benign patterns. Suppression never creates a finding and
// never edits one in place.
package suppress

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/mobaudit/mobaudit/internal/types"
)

// Entry is one operator-supplied suppression. Exactly one of Pattern, Host
// or Placeholder should be set; Rules/Categories/Paths narrow its scope.
type Entry struct {
	Pattern     string   `yaml:"pattern,omitempty"`     // regexp over the matched snippet
	Host        string   `yaml:"host,omitempty"`        // glob over a host name
	Placeholder string   `yaml:"placeholder,omitempty"` // regexp over a candidate secret value
	Rules       []string `yaml:"rules,omitempty"`
	Categories  []string `yaml:"categories,omitempty"`
	Paths       []string `yaml:"paths,omitempty"`  // doublestar globs over file paths
	Action      string   `yaml:"action,omitempty"` // "drop" (default) or "downgrade"
	Rationale   string   `yaml:"rationale,omitempty"`
}

// File is the on-disk YAML allowlist shape.
type File struct {
	Placeholders []string `yaml:"placeholders,omitempty"`
	Hosts        []string `yaml:"hosts,omitempty"`
	Entries      []Entry  `yaml:"entries,omitempty"`
}

type compiledEntry struct {
	re         *regexp.Regexp
	rules      map[string]bool
	categories map[types.Category]bool
	paths      []string
	downgrade  bool
}

// Policy is the shared suppression component. It is read-only after
// construction and safe for concurrent use.
type Policy struct {
	placeholders []*regexp.Regexp
	hosts        []string
	entries      []compiledEntry
	baseline     map[string]bool
}

// Placeholder shapes that almost never denote a live credential: all-caps
// descriptive names, your-*/my-* examples, template interpolation, filler.
var builtinPlaceholders = []string{
	`^[A-Z][A-Z0-9_]{3,}$`,
	`^<[^>]+>$`,
	`^\$\{[^}]*\}$`,
	`^\{\{[^}]*\}\}$`,
	`(?i)^(your|my|sample|example|test|demo|dummy|fake|placeholder)[-_.]`,
	`(?i)(changeme|change-me|replace_this|replaceme|todo)`,
	`(?i)^(x{4,}|\*{4,}|\.{4,}|0{8,})$`,
	`(?i)^(password|passw0rd|secret|hunter2|abc123|12345+)$`,
}

// Hosts that denote local or private-network development targets.
var builtinHosts = []string{
	"localhost",
	"127.*",
	"0.0.0.0",
	"::1",
	"10.*",
	"192.168.*",
	"172.1[6-9].*",
	"172.2?.*",
	"172.3[0-1].*",
	"*.local",
	"*.test",
	"*.localhost",
	"*.internal",
}

// NewPolicy returns a policy preloaded with the built-in placeholder and
// loopback/private-host rules.
func NewPolicy() *Policy {
	p := &Policy{baseline: map[string]bool{}}
	for _, s := range builtinPlaceholders {
		p.placeholders = append(p.placeholders, regexp.MustCompile(s))
	}
	p.hosts = append(p.hosts, builtinHosts...)
	return p
}

// LoadFile merges an operator allowlist file into the policy.
func (p *Policy) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read suppression file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse suppression file %s: %w", path, err)
	}
	return p.Merge(f)
}

// Merge adds the entries of a parsed allowlist file.
func (p *Policy) Merge(f File) error {
	for _, s := range f.Placeholders {
		re, err := regexp.Compile(s)
		if err != nil {
			return fmt.Errorf("placeholder pattern %q: %w", s, err)
		}
		p.placeholders = append(p.placeholders, re)
	}
	p.hosts = append(p.hosts, f.Hosts...)
	for _, e := range f.Entries {
		src := e.Pattern
		if src == "" {
			src = e.Placeholder
		}
		if src == "" && e.Host != "" {
			p.hosts = append(p.hosts, e.Host)
			continue
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return fmt.Errorf("suppression pattern %q: %w", src, err)
		}
		ce := compiledEntry{
			re:        re,
			downgrade: e.Action == "downgrade",
			paths:     e.Paths,
		}
		if len(e.Rules) > 0 {
			ce.rules = map[string]bool{}
			for _, r := range e.Rules {
				ce.rules[r] = true
			}
		}
		if len(e.Categories) > 0 {
			ce.categories = map[types.Category]bool{}
			for _, c := range e.Categories {
				ce.categories[types.Category(c)] = true
			}
		}
		p.entries = append(p.entries, ce)
	}
	return nil
}

// IsPlaceholder reports whether a candidate secret value looks like a
// documentation placeholder rather than a live credential.
func (p *Policy) IsPlaceholder(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return true
	}
	for _, re := range p.placeholders {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// HostAllowed reports whether a host matches the loopback/private-network
// allowlist. Ports are stripped before matching.
func (p *Policy) HostAllowed(host string) bool {
	h := strings.ToLower(host)
	if i := strings.LastIndex(h, ":"); i > 0 && isDigits(h[i+1:]) {
		h = h[:i]
	}
	h = strings.Trim(h, "[]")
	for _, g := range p.hosts {
		if ok, _ := doublestar.Match(strings.ToLower(g), h); ok {
			return true
		}
	}
	return false
}

// CapDevDependency bounds a dev/test-scope dependency finding at MEDIUM.
func (p *Policy) CapDevDependency(f types.Finding) types.Finding {
	return f.WithSeverity(types.MinSeverity(f.Severity, types.SevMedium))
}

// Apply runs the operator entries and the baseline against a produced
// finding. It returns the (possibly downgraded) finding and whether it
// should be kept.
func (p *Policy) Apply(f types.Finding) (types.Finding, bool) {
	if p.baseline[baselineKey(f)] {
		return f, false
	}
	for _, e := range p.entries {
		if e.rules != nil && !e.rules[f.RuleID] {
			continue
		}
		if e.categories != nil && !e.categories[f.Category] {
			continue
		}
		if len(e.paths) > 0 && !matchAnyPath(f.FilePath, e.paths) {
			continue
		}
		if !e.re.MatchString(f.Snippet) && !e.re.MatchString(f.Message) {
			continue
		}
		if e.downgrade {
			return f.WithSeverity(types.SevLow).WithConfidence(types.ConfLow), true
		}
		return f, false
	}
	return f, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func matchAnyPath(path string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, path); ok {
			return true
		}
	}
	return false
}

// Package deps analyzes the declarative dependency manifest for risky
// version constraints, denylisted packages, and stale pins. No resolver is
// ever executed; every judgement is made from the manifest text plus
// optional operator-supplied metadata.
package deps

import (
	"fmt"
	"os"
	"strings"
	"time"

	semver "github.com/blang/semver/v4"
	"gopkg.in/yaml.v3"

	"github.com/mobaudit/mobaudit/internal/catalog"
	"github.com/mobaudit/mobaudit/internal/rules"
	"github.com/mobaudit/mobaudit/internal/suppress"
	"github.com/mobaudit/mobaudit/internal/types"
)

var manifestRoles = []catalog.Role{catalog.RoleManifest}

// DenyEntry marks a known-vulnerable package/version range.
type DenyEntry struct {
	Name       string `yaml:"name"`
	Introduced string `yaml:"introduced,omitempty"` // empty = all versions
	Fixed      string `yaml:"fixed,omitempty"`      // empty = no fix yet
	Advisory   string `yaml:"advisory,omitempty"`
	Severity   string `yaml:"severity,omitempty"` // defaults to HIGH
	Reason     string `yaml:"reason,omitempty"`
}

// Denylist is the maintained list of vulnerable packages.
type Denylist struct {
	Packages []DenyEntry `yaml:"packages"`
}

// LoadDenylist reads a denylist override file.
func LoadDenylist(path string) (Denylist, error) {
	var d Denylist
	b, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read denylist: %w", err)
	}
	if err := yaml.Unmarshal(b, &d); err != nil {
		return d, fmt.Errorf("parse denylist %s: %w", path, err)
	}
	return d, nil
}

// ReleaseInfo is operator-supplied registry metadata for staleness checks.
type ReleaseInfo struct {
	Latest   string            `yaml:"latest,omitempty"`
	Releases map[string]string `yaml:"releases,omitempty"` // version -> RFC3339 date
}

// ReleaseMeta maps package name to its release history.
type ReleaseMeta struct {
	Packages map[string]ReleaseInfo `yaml:"packages"`
}

// LoadReleaseMeta reads a release-metadata file.
func LoadReleaseMeta(path string) (ReleaseMeta, error) {
	var m ReleaseMeta
	b, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read release metadata: %w", err)
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse release metadata %s: %w", path, err)
	}
	return m, nil
}

// Options configures the dependency rule table.
type Options struct {
	Denylist   Denylist
	Releases   ReleaseMeta
	StaleAfter time.Duration // 0 = default 730 days
	Now        func() time.Time
}

const defaultStaleAfter = 730 * 24 * time.Hour

// NewRules builds the dependency rule table. The shared policy caps
// dev-group findings at MEDIUM.
func NewRules(pol *suppress.Policy, opts Options) *rules.Set {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = defaultStaleAfter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	capDev := func(f types.Finding, g Group) types.Finding {
		if g == GroupDev {
			return pol.CapDevDependency(f)
		}
		return f
	}

	return rules.NewSet(types.CatDependencies,
		&rules.FileRule{
			RuleID:    "dep-manifest-parse",
			Cat:       types.CatDependencies,
			FileRoles: manifestRoles,
			Check: func(path string, data []byte) ([]types.Finding, error) {
				if _, err := ParseManifest(data); err != nil {
					return []types.Finding{{
						RuleID:      "dep-manifest-parse",
						Category:    types.CatDependencies,
						Severity:    types.SevLow,
						Confidence:  types.ConfHigh,
						FilePath:    path,
						Message:     fmt.Sprintf("dependency manifest could not be parsed: %v", err),
						Remediation: "Fix the manifest syntax so dependency analysis can run.",
					}}, nil
				}
				return nil, nil
			},
		},
		&rules.FileRule{
			RuleID:    "dep-unconstrained-version",
			Cat:       types.CatDependencies,
			FileRoles: manifestRoles,
			Check: func(path string, data []byte) ([]types.Finding, error) {
				m, err := ParseManifest(data)
				if err != nil {
					return nil, nil // surfaced by dep-manifest-parse
				}
				var out []types.Finding
				for _, d := range m.Deps {
					if !d.Hosted {
						continue
					}
					kind, _ := classifyConstraint(d.Constraint)
					var f types.Finding
					switch kind {
					case constraintAny:
						f = types.Finding{
							RuleID:      "dep-unconstrained-version",
							Category:    types.CatDependencies,
							Severity:    types.SevHigh,
							Confidence:  types.ConfHigh,
							FilePath:    path,
							Snippet:     fmt.Sprintf("%s: %s", d.Name, displayConstraint(d.Constraint)),
							Message:     fmt.Sprintf("dependency %q accepts any future version", d.Name),
							Remediation: "Pin a version range so an upstream release cannot silently change the app.",
						}
					case constraintLowerOnly:
						f = types.Finding{
							RuleID:      "dep-unconstrained-version",
							Category:    types.CatDependencies,
							Severity:    types.SevMedium,
							Confidence:  types.ConfHigh,
							FilePath:    path,
							Snippet:     fmt.Sprintf("%s: %s", d.Name, d.Constraint),
							Message:     fmt.Sprintf("dependency %q has no upper version bound", d.Name),
							Remediation: "Add an upper bound (or use caret syntax) to avoid breaking future majors.",
						}
					default:
						continue
					}
					out = append(out, capDev(f, d.Group))
				}
				return out, nil
			},
		},
		&rules.FileRule{
			RuleID:    "dep-denylist",
			Cat:       types.CatDependencies,
			FileRoles: manifestRoles,
			Check: func(path string, data []byte) ([]types.Finding, error) {
				m, err := ParseManifest(data)
				if err != nil {
					return nil, nil
				}
				var out []types.Finding
				for _, d := range m.Deps {
					if !d.Hosted {
						continue
					}
					for _, e := range opts.Denylist.Packages {
						if e.Name != d.Name || !denyMatches(e, d.Constraint) {
							continue
						}
						sev := types.SevHigh
						if s, ok := types.ParseSeverity(e.Severity); ok {
							sev = s
						}
						msg := fmt.Sprintf("dependency %q matches known-vulnerable range", d.Name)
						if e.Advisory != "" {
							msg += " (" + e.Advisory + ")"
						}
						rem := e.Reason
						if rem == "" {
							rem = "Upgrade past the fixed version named in the advisory."
						}
						out = append(out, capDev(types.Finding{
							RuleID:      "dep-denylist",
							Category:    types.CatDependencies,
							Severity:    sev,
							Confidence:  types.ConfHigh,
							FilePath:    path,
							Snippet:     fmt.Sprintf("%s: %s", d.Name, displayConstraint(d.Constraint)),
							Message:     msg,
							Remediation: rem,
						}, d.Group))
					}
				}
				return out, nil
			},
		},
		&rules.FileRule{
			RuleID:    "dep-stale-pin",
			Cat:       types.CatDependencies,
			FileRoles: manifestRoles,
			Check: func(path string, data []byte) ([]types.Finding, error) {
				if len(opts.Releases.Packages) == 0 {
					return nil, nil
				}
				m, err := ParseManifest(data)
				if err != nil {
					return nil, nil
				}
				var out []types.Finding
				for _, d := range m.Deps {
					if !d.Hosted {
						continue
					}
					kind, pin := classifyConstraint(d.Constraint)
					if kind != constraintPinned {
						continue
					}
					info, ok := opts.Releases.Packages[d.Name]
					if !ok {
						continue
					}
					dateStr, ok := info.Releases[pin.String()]
					if !ok {
						continue
					}
					released, perr := time.Parse("2006-01-02", dateStr)
					if perr != nil {
						if released, perr = time.Parse(time.RFC3339, dateStr); perr != nil {
							continue
						}
					}
					age := opts.Now().Sub(released)
					if age < opts.StaleAfter {
						continue
					}
					msg := fmt.Sprintf("dependency %q is pinned to a release %d days old", d.Name, int(age.Hours()/24))
					if info.Latest != "" {
						msg += fmt.Sprintf(" (latest: %s)", info.Latest)
					}
					out = append(out, capDev(types.Finding{
						RuleID:      "dep-stale-pin",
						Category:    types.CatDependencies,
						Severity:    types.SevMedium,
						Confidence:  types.ConfMedium,
						FilePath:    path,
						Snippet:     fmt.Sprintf("%s: %s", d.Name, d.Constraint),
						Message:     msg,
						Remediation: "Review the changelog and move to a maintained release.",
					}, d.Group))
				}
				return out, nil
			},
		},
	)
}

type constraintKind int

const (
	constraintUnknown constraintKind = iota
	constraintAny
	constraintPinned
	constraintBounded
	constraintLowerOnly
)

// classifyConstraint inspects a pub-style constraint. For pinned
// constraints the exact version is returned.
func classifyConstraint(s string) (constraintKind, semver.Version) {
	c := strings.TrimSpace(s)
	switch {
	case c == "" || strings.EqualFold(c, "any"):
		return constraintAny, semver.Version{}
	case strings.HasPrefix(c, "^"):
		if v, err := semver.ParseTolerant(c[1:]); err == nil {
			return constraintBounded, v
		}
		return constraintUnknown, semver.Version{}
	case strings.ContainsAny(c, "<>"):
		hasLower := strings.Contains(c, ">")
		hasUpper := strings.Contains(c, "<")
		if hasLower && !hasUpper {
			v, _ := semver.ParseTolerant(strings.Trim(c, ">= "))
			return constraintLowerOnly, v
		}
		return constraintBounded, lowerBound(c)
	default:
		if v, err := semver.ParseTolerant(c); err == nil {
			return constraintPinned, v
		}
		return constraintUnknown, semver.Version{}
	}
}

func lowerBound(rangeExpr string) semver.Version {
	for _, part := range strings.Fields(rangeExpr) {
		trimmed := strings.TrimLeft(part, ">=")
		if strings.HasPrefix(part, ">") {
			if v, err := semver.ParseTolerant(trimmed); err == nil {
				return v
			}
		}
	}
	return semver.Version{}
}

// denyMatches evaluates the minimum version a constraint can resolve to
// against the [introduced, fixed) window. An unconstrained dependency is
// always considered affected while no fix exists, and affected when the
// window is open-ended.
func denyMatches(e DenyEntry, constraint string) bool {
	expr := ""
	if e.Introduced != "" {
		expr = ">=" + e.Introduced
	}
	if e.Fixed != "" {
		if expr != "" {
			expr += " "
		}
		expr += "<" + e.Fixed
	}
	if expr == "" {
		return true // every version is listed
	}
	rng, err := semver.ParseRange(expr)
	if err != nil {
		return false
	}

	kind, min := classifyConstraint(constraint)
	switch kind {
	case constraintAny:
		// may resolve to anything; affected unless the range is fully fixed
		// below every possible pick, which cannot be decided without a
		// resolver - err on reporting
		return true
	case constraintPinned, constraintBounded, constraintLowerOnly:
		return rng(min)
	default:
		return false
	}
}

func displayConstraint(c string) string {
	if strings.TrimSpace(c) == "" {
		return "any"
	}
	return c
}

// Package rules provides the data-driven rule framework shared by all scan
// categories. A rule maps a matching condition over file content to raw
// findings carrying the rule's default severity and confidence; category
// scanners collect rules into read-only Sets.
package rules

import (
	"fmt"
	"regexp"

	"github.com/mobaudit/mobaudit/internal/catalog"
	"github.com/mobaudit/mobaudit/internal/types"
)

// Rule evaluates one detection condition against a file. Implementations
// must be stateless: rules are process-wide, read-only configuration.
type Rule interface {
	ID() string
	Category() types.Category
	// Roles returns the catalog roles the rule applies to; nil means all.
	Roles() []catalog.Role
	Evaluate(path string, data []byte) ([]types.Finding, error)
}

// Set is an ordered, read-only collection of rules for one category.
type Set struct {
	category types.Category
	rules    []Rule
	byID     map[string]Rule
}

// NewSet builds a rule set. Duplicate IDs panic: rule tables are static
// configuration and a collision is a programming error.
func NewSet(cat types.Category, rs ...Rule) *Set {
	s := &Set{category: cat, byID: make(map[string]Rule, len(rs))}
	for _, r := range rs {
		if _, dup := s.byID[r.ID()]; dup {
			panic(fmt.Sprintf("duplicate rule id %q", r.ID()))
		}
		s.rules = append(s.rules, r)
		s.byID[r.ID()] = r
	}
	return s
}

func (s *Set) Category() types.Category { return s.category }
func (s *Set) Rules() []Rule            { return s.rules }

// IDs returns the rule IDs in registration order.
func (s *Set) IDs() []string {
	out := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.ID())
	}
	return out
}

// ForRole returns the subset of rules applicable to the given role.
func (s *Set) ForRole(role catalog.Role) []Rule {
	var out []Rule
	for _, r := range s.rules {
		if AppliesTo(r, role) {
			out = append(out, r)
		}
	}
	return out
}

// AppliesTo reports whether a rule should run against a file of this role.
func AppliesTo(r Rule, role catalog.Role) bool {
	roles := r.Roles()
	if len(roles) == 0 {
		return true
	}
	for _, want := range roles {
		if want == role {
			return true
		}
	}
	return false
}

// LineRule is a regexp-driven rule evaluated line by line. When Context is
// set, the line must match it before Pattern is tried (cuts false positives
// for generic value shapes). Accept, when set, gates each candidate match.
type LineRule struct {
	RuleID      string
	Cat         types.Category
	FileRoles   []catalog.Role
	Context     *regexp.Regexp
	Pattern     *regexp.Regexp
	Group       int // submatch index holding the matched value; 0 = whole match
	Severity    types.Severity
	Confidence  types.Confidence
	Message     string
	Remediation string
	Redact      bool // mask the matched value in the snippet
	Accept      func(match, line string) bool
	// Classify, when set, overrides the default severity and confidence per
	// match (or vetoes it) before the value is redacted. Suppression hooks
	// plug in here because they need the raw matched value.
	Classify func(match, line string) (types.Severity, types.Confidence, bool)
}

func (r *LineRule) ID() string               { return r.RuleID }
func (r *LineRule) Category() types.Category { return r.Cat }
func (r *LineRule) Roles() []catalog.Role    { return r.FileRoles }

func (r *LineRule) Evaluate(path string, data []byte) ([]types.Finding, error) {
	var out []types.Finding
	EachLine(data, func(n int, text string) {
		if r.Context != nil && !r.Context.MatchString(text) {
			return
		}
		for _, m := range r.Pattern.FindAllStringSubmatch(text, -1) {
			val := m[0]
			if r.Group > 0 && r.Group < len(m) {
				val = m[r.Group]
			}
			if r.Accept != nil && !r.Accept(val, text) {
				continue
			}
			sev, conf := r.Severity, r.Confidence
			if r.Classify != nil {
				var keep bool
				sev, conf, keep = r.Classify(val, text)
				if !keep {
					continue
				}
			}
			snippet := val
			if r.Redact {
				snippet = Mask(val)
			}
			out = append(out, types.Finding{
				RuleID:      r.RuleID,
				Category:    r.Cat,
				Severity:    sev,
				Confidence:  conf,
				FilePath:    path,
				Line:        n,
				Snippet:     Truncate(snippet, maxSnippet),
				Message:     r.Message,
				Remediation: r.Remediation,
			})
		}
	})
	return out, nil
}

// FileRule evaluates a whole-file predicate; used for structured formats
// (plists, manifests) where line scanning is the wrong unit.
type FileRule struct {
	RuleID    string
	Cat       types.Category
	FileRoles []catalog.Role
	Check     func(path string, data []byte) ([]types.Finding, error)
}

func (r *FileRule) ID() string               { return r.RuleID }
func (r *FileRule) Category() types.Category { return r.Cat }
func (r *FileRule) Roles() []catalog.Role    { return r.FileRoles }

func (r *FileRule) Evaluate(path string, data []byte) ([]types.Finding, error) {
	return r.Check(path, data)
}

package suppress

import (
	"encoding/json"
	"fmt"
	"os"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/mobaudit/mobaudit/internal/types"
)

// Baseline is a set of previously accepted findings. Findings present in
// the baseline are dropped by Apply, so a scan only surfaces new debt.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

// LoadBaseline reads a baseline file. A missing file yields an empty
// baseline and the error for the caller to inspect.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

// SaveBaseline writes the given findings as the new accepted set.
func SaveBaseline(path string, findings []types.Finding) error {
	b := Baseline{Items: map[string]bool{}}
	for _, f := range findings {
		b.Items[baselineKey(f)] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// UseBaseline installs a baseline into the policy.
func (p *Policy) UseBaseline(b Baseline) {
	p.baseline = b.Items
	if p.baseline == nil {
		p.baseline = map[string]bool{}
	}
}

// baselineKey is a stable fingerprint of a finding's identity. The line
// number is deliberately excluded so unrelated edits above a finding do not
// resurface it.
func baselineKey(f types.Finding) string {
	h := xxhash.New()
	_, _ = h.WriteString(f.FilePath)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(f.RuleID)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(f.Snippet)
	return fmt.Sprintf("%016x", h.Sum64())
}

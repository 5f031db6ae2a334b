package deps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobaudit/mobaudit/internal/rules"
	"github.com/mobaudit/mobaudit/internal/suppress"
	"github.com/mobaudit/mobaudit/internal/types"
)

func evalManifest(t *testing.T, set *rules.Set, data string) []types.Finding {
	t.Helper()
	var out []types.Finding
	for _, r := range set.Rules() {
		fs, err := r.Evaluate("pubspec.yaml", []byte(data))
		require.NoError(t, err, "rule %s", r.ID())
		out = append(out, fs...)
	}
	return out
}

func findRule(fs []types.Finding, id string) []types.Finding {
	var out []types.Finding
	for _, f := range fs {
		if f.RuleID == id {
			out = append(out, f)
		}
	}
	return out
}

func TestUnconstrainedVersion(t *testing.T) {
	set := NewRules(suppress.NewPolicy(), Options{})
	fs := evalManifest(t, set, `
name: demo
dependencies:
  dio: any
  http: ^1.2.0
  intl: ">=0.18.0"
`)
	got := findRule(fs, "dep-unconstrained-version")
	require.Len(t, got, 2)
	bySnippet := map[string]types.Severity{}
	for _, f := range got {
		bySnippet[f.Snippet] = f.Severity
	}
	assert.Equal(t, types.SevHigh, bySnippet["dio: any"], "any constraint is HIGH")
	assert.Equal(t, types.SevMedium, bySnippet[`intl: >=0.18.0`], "missing upper bound is MEDIUM")
}

func TestUnconstrainedVersion_DevGroupCapped(t *testing.T) {
	set := NewRules(suppress.NewPolicy(), Options{})
	fs := evalManifest(t, set, `
name: demo
dev_dependencies:
  build_runner: any
`)
	got := findRule(fs, "dep-unconstrained-version")
	require.Len(t, got, 1)
	assert.Equal(t, types.SevMedium, got[0].Severity, "dev-group findings cap at MEDIUM")
}

func TestDenylist(t *testing.T) {
	opts := Options{Denylist: Denylist{Packages: []DenyEntry{
		{Name: "old_crypto", Introduced: "1.0.0", Fixed: "2.1.0", Advisory: "GHSA-xxxx", Severity: "CRITICAL"},
		{Name: "abandoned_pkg"},
	}}}
	set := NewRules(suppress.NewPolicy(), opts)

	fs := evalManifest(t, set, `
name: demo
dependencies:
  old_crypto: 1.4.0
  abandoned_pkg: ^3.0.0
  safe_pkg: ^1.0.0
`)
	got := findRule(fs, "dep-denylist")
	require.Len(t, got, 2)
	byName := map[string]types.Finding{}
	for _, f := range got {
		byName[f.Snippet] = f
	}
	assert.Equal(t, types.SevCritical, byName["old_crypto: 1.4.0"].Severity)
	assert.Contains(t, byName["old_crypto: 1.4.0"].Message, "GHSA-xxxx")
	assert.Equal(t, types.SevHigh, byName["abandoned_pkg: ^3.0.0"].Severity, "no range means every version")
}

func TestDenylist_FixedVersionClears(t *testing.T) {
	opts := Options{Denylist: Denylist{Packages: []DenyEntry{
		{Name: "old_crypto", Introduced: "1.0.0", Fixed: "2.1.0"},
	}}}
	set := NewRules(suppress.NewPolicy(), opts)

	fs := evalManifest(t, set, `
name: demo
dependencies:
  old_crypto: 2.1.0
`)
	assert.Empty(t, findRule(fs, "dep-denylist"), "pin at the fixed version is clean")
}

func TestStalePin(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	opts := Options{
		Releases: ReleaseMeta{Packages: map[string]ReleaseInfo{
			"ancient": {Latest: "4.0.0", Releases: map[string]string{"1.0.0": "2020-01-15"}},
			"recent":  {Releases: map[string]string{"2.0.0": "2026-06-01"}},
		}},
		Now: func() time.Time { return now },
	}
	set := NewRules(suppress.NewPolicy(), opts)

	fs := evalManifest(t, set, `
name: demo
dependencies:
  ancient: 1.0.0
  recent: 2.0.0
  ranged: ^1.0.0
`)
	got := findRule(fs, "dep-stale-pin")
	require.Len(t, got, 1)
	assert.Equal(t, "ancient: 1.0.0", got[0].Snippet)
	assert.Equal(t, types.SevMedium, got[0].Severity)
	assert.Contains(t, got[0].Message, "latest: 4.0.0")
}

func TestManifestParseFinding(t *testing.T) {
	set := NewRules(suppress.NewPolicy(), Options{})
	fs := evalManifest(t, set, "dependencies: [broken\n")

	got := findRule(fs, "dep-manifest-parse")
	require.Len(t, got, 1)
	assert.Equal(t, types.SevLow, got[0].Severity)
	assert.Equal(t, types.ConfHigh, got[0].Confidence)
	// the other rules stay silent instead of failing the scan
	assert.Len(t, fs, 1)
}

func TestDenyMatches(t *testing.T) {
	window := DenyEntry{Introduced: "1.0.0", Fixed: "2.0.0"}
	assert.True(t, denyMatches(window, "1.5.0"))
	assert.False(t, denyMatches(window, "2.0.0"))
	assert.False(t, denyMatches(window, "0.9.0"))
	assert.True(t, denyMatches(window, "any"), "unconstrained may resolve anywhere")
	assert.True(t, denyMatches(window, "^1.2.0"), "range minimum falls in the window")
	assert.True(t, denyMatches(DenyEntry{}, "1.0.0"), "empty window lists every version")
}

package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobaudit/mobaudit/internal/catalog"
	"github.com/mobaudit/mobaudit/internal/engine"
	"github.com/mobaudit/mobaudit/internal/types"
)

var fixedClock Clock = func() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func sampleResult() engine.Result {
	return engine.Result{
		Category: types.CatSecrets,
		Findings: []types.Finding{
			{RuleID: "secret-bearer-token", Severity: types.SevHigh, FilePath: "lib/b.dart", Line: 9},
			{RuleID: "secret-aws-access-key", Severity: types.SevHigh, FilePath: "lib/a.dart", Line: 4},
			{RuleID: "secret-private-key-block", Severity: types.SevCritical, FilePath: "assets/key.pem", Line: 1},
			{RuleID: "secret-stripe-test-key", Severity: types.SevLow, FilePath: "lib/a.dart", Line: 2},
		},
		FilesScanned: 7,
		Fingerprint:  "00d3adb33f000000",
	}
}

func TestBuild_SortAndSummary(t *testing.T) {
	r := Build(sampleResult(), Options{ToolVersion: "0.1.0", Clock: fixedClock})

	ids := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		ids = append(ids, f.RuleID)
	}
	assert.Equal(t, []string{
		"secret-private-key-block", // CRITICAL first
		"secret-aws-access-key",    // HIGH, lib/a.dart before lib/b.dart
		"secret-bearer-token",
		"secret-stripe-test-key",
	}, ids)

	assert.Equal(t, Summary{Critical: 1, High: 2, Low: 1}, r.Summary)
	assert.Equal(t, SchemaVersion, r.SchemaVersion)
	assert.Equal(t, ToolName, r.Tool.Name)
	assert.Equal(t, 7, r.ScannedFileCount)
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	res := sampleResult()
	first := res.Findings[0].RuleID
	_ = Build(res, Options{Clock: fixedClock})
	assert.Equal(t, first, res.Findings[0].RuleID)
}

func TestBuild_ReproducibleBytes(t *testing.T) {
	res := sampleResult()
	opts := Options{ToolVersion: "0.1.0", Clock: fixedClock}

	var a, b bytes.Buffer
	require.NoError(t, WriteJSON(&a, Build(res, opts)))
	require.NoError(t, WriteJSON(&b, Build(res, opts)))
	assert.Equal(t, a.String(), b.String(), "same input must serialize byte-identically")
}

func TestReportID_TracksContent(t *testing.T) {
	a := Build(sampleResult(), Options{Clock: fixedClock})
	b := Build(sampleResult(), Options{Clock: fixedClock})
	assert.Equal(t, a.ReportID, b.ReportID)

	changed := sampleResult()
	changed.Fingerprint = "ffffffffffffffff"
	c := Build(changed, Options{Clock: fixedClock})
	assert.NotEqual(t, a.ReportID, c.ReportID)

	otherCat := sampleResult()
	otherCat.Category = types.CatStorage
	d := Build(otherCat, Options{Clock: fixedClock})
	assert.NotEqual(t, a.ReportID, d.ReportID)
}

func TestMerge(t *testing.T) {
	secrets := Build(sampleResult(), Options{Clock: fixedClock})

	netRes := engine.Result{
		Category: types.CatNetwork,
		Findings: []types.Finding{
			{RuleID: "net-insecure-url", Severity: types.SevHigh, FilePath: "lib/a.dart", Line: 1},
		},
		FilesScanned: 7,
		Skipped:      []catalog.Skip{{Path: "lib/broken.dart", Reason: "permission denied"}},
		Incomplete:   true,
		Fingerprint:  "00d3adb33f000000",
	}
	network := Build(netRes, Options{Clock: fixedClock})

	c := Merge([]ScanReport{secrets, network})
	assert.Equal(t, []types.Category{types.CatSecrets, types.CatNetwork}, c.Categories)
	assert.Len(t, c.Findings, 5)
	assert.True(t, c.Incomplete, "any incomplete category marks the merge")
	assert.Equal(t, 7, c.ScannedFileCount)
	assert.Equal(t, Summary{Critical: 1, High: 3, Low: 1}, c.Summary)

	// merged findings keep the global sort order
	for i := 1; i < len(c.Findings); i++ {
		assert.False(t, types.Less(c.Findings[i], c.Findings[i-1]), "order violated at %d", i)
	}
}

func TestMerge_DedupesSharedSkips(t *testing.T) {
	skip := catalog.Skip{Path: "x", Reason: "unreadable"}
	mk := func(cat types.Category) ScanReport {
		return Build(engine.Result{Category: cat, Skipped: []catalog.Skip{skip}}, Options{Clock: fixedClock})
	}
	c := Merge([]ScanReport{mk(types.CatSecrets), mk(types.CatNetwork), mk(types.CatStorage)})
	assert.Len(t, c.SkippedFiles, 1, "catalog-level skips appear once")
}

func TestWriteJSON_NoHTMLEscaping(t *testing.T) {
	r := Build(engine.Result{
		Category: types.CatNetwork,
		Findings: []types.Finding{{RuleID: "net-insecure-url", Severity: types.SevHigh, Snippet: "http://a.example.com/x?a=1&b=2"}},
	}, Options{Clock: fixedClock})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	assert.Contains(t, buf.String(), "a=1&b=2", "snippets must not be HTML-escaped")
	assert.Contains(t, buf.String(), `"summaryCounts"`)
}

// Package report assembles scanner results into immutable, deterministic
// scan reports and serializes them for downstream tooling (pre-commit
// gates, pull-request annotators). A report is built once per run and
// never mutated afterwards.
package report

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mobaudit/mobaudit/internal/catalog"
	"github.com/mobaudit/mobaudit/internal/engine"
	"github.com/mobaudit/mobaudit/internal/gitinfo"
	"github.com/mobaudit/mobaudit/internal/types"
)

// SchemaVersion is bumped on any breaking change to the report shape.
const SchemaVersion = "1"

// ToolName appears in report headers and SARIF output.
const ToolName = "mobaudit"

// Clock supplies the report timestamp. Injected so tests (and callers that
// need byte-identical reruns) can pin it.
type Clock func() time.Time

// Tool identifies the producing scanner build.
type Tool struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	RulesetVersion string `json:"rulesetVersion"`
}

// Summary counts findings per severity.
type Summary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// ScanReport is the serialized output of one category scanner for one run.
type ScanReport struct {
	SchemaVersion    string          `json:"schemaVersion"`
	ReportID         string          `json:"reportId"`
	Category         types.Category  `json:"category"`
	Tool             Tool            `json:"tool"`
	Timestamp        time.Time       `json:"timestamp"`
	Git              gitinfo.Meta    `json:"git"`
	ScannedFileCount int             `json:"scannedFileCount"`
	SkippedFiles     []catalog.Skip  `json:"skippedFiles,omitempty"`
	Incomplete       bool            `json:"incomplete"`
	Summary          Summary         `json:"summaryCounts"`
	Findings         []types.Finding `json:"findings"`
}

// Options carries per-run report metadata.
type Options struct {
	ToolVersion string
	Clock       Clock
	Git         gitinfo.Meta
}

// Build assembles a report from a scan result: final sort order, severity
// summary, and a reproducible report ID derived from the scanned content.
func Build(res engine.Result, opts Options) ScanReport {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	findings := make([]types.Finding, len(res.Findings))
	copy(findings, res.Findings)
	Sort(findings)

	return ScanReport{
		SchemaVersion: SchemaVersion,
		ReportID:      reportID(res.Category, res.Fingerprint),
		Category:      res.Category,
		Tool: Tool{
			Name:           ToolName,
			Version:        opts.ToolVersion,
			RulesetVersion: engine.RulesetVersion,
		},
		Timestamp:        clock().UTC(),
		Git:              opts.Git,
		ScannedFileCount: res.FilesScanned,
		SkippedFiles:     res.Skipped,
		Incomplete:       res.Incomplete,
		Summary:          summarize(findings),
		Findings:         findings,
	}
}

// Sort applies the stable total order: severity descending, then file
// path, then line, then rule ID.
func Sort(fs []types.Finding) {
	sort.SliceStable(fs, func(i, j int) bool { return types.Less(fs[i], fs[j]) })
}

func summarize(fs []types.Finding) Summary {
	var s Summary
	for _, f := range fs {
		switch f.Severity {
		case types.SevCritical:
			s.Critical++
		case types.SevHigh:
			s.High++
		case types.SevMedium:
			s.Medium++
		case types.SevLow:
			s.Low++
		}
	}
	return s
}

// reportID is a UUIDv5 over the category, ruleset version and content
// fingerprint: reruns over unchanged input produce the same ID.
func reportID(cat types.Category, fingerprint string) string {
	name := ToolName + ":" + string(cat) + ":" + engine.RulesetVersion + ":" + fingerprint
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Combined is the merged summary over several category reports. Merging is
// a pure reduction: concatenate and re-sort. Suppression has already run
// per category and findings are never deduplicated across categories.
type Combined struct {
	SchemaVersion    string           `json:"schemaVersion"`
	ReportID         string           `json:"reportId"`
	Categories       []types.Category `json:"categories"`
	Tool             Tool             `json:"tool"`
	Timestamp        time.Time        `json:"timestamp"`
	Git              gitinfo.Meta     `json:"git"`
	ScannedFileCount int              `json:"scannedFileCount"`
	SkippedFiles     []catalog.Skip   `json:"skippedFiles,omitempty"`
	Incomplete       bool             `json:"incomplete"`
	Summary          Summary          `json:"summaryCounts"`
	Findings         []types.Finding  `json:"findings"`
}

// Merge folds category reports into one combined report.
func Merge(reports []ScanReport) Combined {
	var c Combined
	c.SchemaVersion = SchemaVersion
	seed := ""
	seenSkips := map[string]bool{}
	for _, r := range reports {
		c.Categories = append(c.Categories, r.Category)
		c.Tool = r.Tool
		c.Timestamp = r.Timestamp
		c.Git = r.Git
		if r.ScannedFileCount > c.ScannedFileCount {
			c.ScannedFileCount = r.ScannedFileCount
		}
		// every category reports the same catalog-level skips once
		for _, sk := range r.SkippedFiles {
			k := sk.Path + "|" + sk.Reason
			if !seenSkips[k] {
				seenSkips[k] = true
				c.SkippedFiles = append(c.SkippedFiles, sk)
			}
		}
		c.Incomplete = c.Incomplete || r.Incomplete
		c.Findings = append(c.Findings, r.Findings...)
		seed += r.ReportID + ";"
	}
	Sort(c.Findings)
	c.Summary = summarize(c.Findings)
	c.ReportID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(ToolName+":combined:"+seed)).String()
	return c
}

// WriteJSON serializes a report with stable formatting.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

package types

// Category names one of the four scan categories. Every finding belongs to
// exactly one category.
type Category string

const (
	CatSecrets      Category = "secrets"
	CatDependencies Category = "dependencies"
	CatNetwork      Category = "network"
	CatStorage      Category = "storage"
)

// Categories lists all scan categories in canonical order.
func Categories() []Category {
	return []Category{CatSecrets, CatDependencies, CatNetwork, CatStorage}
}

// Severity is the impact ranking of a finding.
type Severity string

const (
	SevCritical Severity = "CRITICAL"
	SevHigh     Severity = "HIGH"
	SevMedium   Severity = "MEDIUM"
	SevLow      Severity = "LOW"
)

// Confidence is the certainty that a finding is a true positive,
// independent of its severity.
type Confidence string

const (
	ConfHigh   Confidence = "HIGH"
	ConfMedium Confidence = "MEDIUM"
	ConfLow    Confidence = "LOW"
)

var sevRank = map[Severity]int{
	SevLow:      1,
	SevMedium:   2,
	SevHigh:     3,
	SevCritical: 4,
}

var confRank = map[Confidence]int{
	ConfLow:    1,
	ConfMedium: 2,
	ConfHigh:   3,
}

// Rank returns the ordinal of a severity; unknown severities rank lowest.
func (s Severity) Rank() int { return sevRank[s] }

// Rank returns the ordinal of a confidence; unknown values rank lowest.
func (c Confidence) Rank() int { return confRank[c] }

// ParseSeverity maps a case-insensitive name to a Severity, or false if the
// name is not one of the closed set.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "critical", "CRITICAL":
		return SevCritical, true
	case "high", "HIGH":
		return SevHigh, true
	case "medium", "MEDIUM":
		return SevMedium, true
	case "low", "LOW":
		return SevLow, true
	}
	return "", false
}

// MinSeverity returns the lower-ranked of two severities.
func MinSeverity(a, b Severity) Severity {
	if a.Rank() < b.Rank() {
		return a
	}
	return b
}

// Finding describes a single security observation at a path and line.
// A Finding is immutable once produced; suppression replaces it or drops
// it, never edits it in place.
type Finding struct {
	RuleID      string     `json:"ruleId"`
	Category    Category   `json:"category"`
	Severity    Severity   `json:"severity"`
	Confidence  Confidence `json:"confidence"`
	FilePath    string     `json:"filePath"`
	Line        int        `json:"lineNumber,omitempty"` // 1-based, 0 when not line-scoped
	Snippet     string     `json:"matchedSnippet,omitempty"`
	Message     string     `json:"message"`
	Remediation string     `json:"remediationHint,omitempty"`
}

// WithSeverity returns a copy with the given severity.
func (f Finding) WithSeverity(s Severity) Finding {
	f.Severity = s
	return f
}

// WithConfidence returns a copy with the given confidence.
func (f Finding) WithConfidence(c Confidence) Finding {
	f.Confidence = c
	return f
}

// Less defines the stable total order used by reports: severity descending,
// then file path, then line, then rule ID.
func Less(a, b Finding) bool {
	if a.Severity.Rank() != b.Severity.Rank() {
		return a.Severity.Rank() > b.Severity.Rank()
	}
	if a.FilePath != b.FilePath {
		return a.FilePath < b.FilePath
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.RuleID < b.RuleID
}

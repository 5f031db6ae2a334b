package mobaudit

import "testing"

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }
func boolp(b bool) *bool    { return &b }

func TestPickPrecedence(t *testing.T) {
	if got := pickString("cli", strp("local"), strp("global")); got != "cli" {
		t.Errorf("CLI should win, got %q", got)
	}
	if got := pickString("", strp("local"), strp("global")); got != "local" {
		t.Errorf("local should beat global, got %q", got)
	}
	if got := pickString("", nil, strp("global")); got != "global" {
		t.Errorf("global is the fallback, got %q", got)
	}
	if got := pickString("", nil, nil); got != "" {
		t.Errorf("expected empty, got %q", got)
	}

	if got := pickInt(0, intp(4), nil); got != 4 {
		t.Errorf("pickInt = %d", got)
	}
	if got := pickInt64(9, nil, nil); got != 9 {
		t.Errorf("pickInt64 = %d", got)
	}
	if !pickBool(false, boolp(true), boolp(false)) {
		t.Error("local true should apply")
	}
	if pickBool(false, nil, nil) {
		t.Error("all unset should be false")
	}
}

func TestParseCategory(t *testing.T) {
	for _, s := range []string{"secrets", "dependencies", "deps", "network", "storage"} {
		if _, ok := parseCategory(s); !ok {
			t.Errorf("parseCategory(%q) failed", s)
		}
	}
	if _, ok := parseCategory("everything"); ok {
		t.Error("unknown category should not parse")
	}
}

package mobaudit

import "testing"

func TestCompletionArgs(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		if err := completionCmd.Args(completionCmd, []string{shell}); err != nil {
			t.Errorf("completion %s rejected: %v", shell, err)
		}
	}
	if err := completionCmd.Args(completionCmd, []string{"tcsh"}); err == nil {
		t.Error("unknown shell should be rejected")
	}
	if err := completionCmd.Args(completionCmd, nil); err == nil {
		t.Error("missing shell should be rejected")
	}
}

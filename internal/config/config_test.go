package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yml")
	data := `
include: "lib/**"
max_bytes: 2097152
threads: 8
no_cache: true
timeout: 90s
suppressions: allow.yml
stale_days: 365
fail_on: HIGH
`
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Include == nil || *cfg.Include != "lib/**" {
		t.Errorf("include = %v", cfg.Include)
	}
	if cfg.MaxBytes == nil || *cfg.MaxBytes != 2097152 {
		t.Errorf("max_bytes = %v", cfg.MaxBytes)
	}
	if cfg.Threads == nil || *cfg.Threads != 8 {
		t.Errorf("threads = %v", cfg.Threads)
	}
	if cfg.NoCache == nil || !*cfg.NoCache {
		t.Errorf("no_cache = %v", cfg.NoCache)
	}
	if cfg.Timeout == nil || *cfg.Timeout != "90s" {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
	if cfg.StaleDays == nil || *cfg.StaleDays != 365 {
		t.Errorf("stale_days = %v", cfg.StaleDays)
	}
	if cfg.FailOn == nil || *cfg.FailOn != "HIGH" {
		t.Errorf("fail_on = %v", cfg.FailOn)
	}
	if cfg.Exclude != nil {
		t.Error("unset fields must stay nil")
	}
}

func TestLoadLocal(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLocal(dir); err == nil {
		t.Fatal("expected error when no local config exists")
	}
	if err := os.WriteFile(filepath.Join(dir, ".mobaudit.yml"), []byte("threads: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Threads == nil || *cfg.Threads != 2 {
		t.Errorf("threads = %v", cfg.Threads)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yml")
	if err := os.WriteFile(p, []byte("threads: [not an int\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(p); err == nil {
		t.Fatal("expected parse error")
	}
}

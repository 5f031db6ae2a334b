package core_test

import (
	"context"
	"fmt"
	"os"

	"github.com/mobaudit/mobaudit/pkg/core"
)

// ExampleScan demonstrates a single-category scan of a project tree.
func ExampleScan() {
	cfg := core.Config{
		Root:            ".",
		Threads:         4,
		MaxBytes:        1024 * 1024,
		DefaultExcludes: true,
	}

	rep, err := core.Scan(context.Background(), cfg, core.Secrets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		return
	}

	if len(rep.Findings) == 0 {
		fmt.Println("No secrets found.")
	} else {
		fmt.Printf("Found %d secret findings.\n", len(rep.Findings))
		_ = core.MarshalReport(os.Stdout, rep)
	}
}

// ExampleScanAll runs every category over one snapshot of the tree.
func ExampleScanAll() {
	cfg := core.Config{Root: ".", DefaultExcludes: true}

	reports, err := core.ScanAll(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		return
	}
	for _, r := range reports {
		fmt.Printf("%s: %d findings\n", r.Category, len(r.Findings))
	}
}

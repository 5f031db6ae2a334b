// Package core provides a small, stable facade over mobaudit's internal
// engine for external integrations. It deliberately re-exports a narrow API
// surface so CI plugins and other tools can depend on a stable import path
// without reaching into internal implementation packages.
//
// Example:
//
//	cfg := core.Config{Root: "."}
//	reports, err := core.ScanAll(context.Background(), cfg)
//	if err != nil { /* handle */ }
//	_ = core.MarshalReport(os.Stdout, reports[0])
package core

// Package engine contains the core scanning logic for mobaudit. It snapshots
// the project tree into a catalog, runs each category's rule set over it with
// a bounded worker pool, and returns deterministic structured results. This
// package is internal; external consumers should use the stable facade in
// pkg/core.
package engine

// Package mobaudit provides the command-line interface for the mobaudit
// tool. It configures subcommands (scan, rules, baseline), parses flags,
// and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/mobaudit/mobaudit/cmd/mobaudit"
//	func main() { mobaudit.Execute() }
package mobaudit

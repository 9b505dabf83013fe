// Package keyleak provides the command-line interface for the keyleak secret
// scanner. It configures subcommands (scan, rules, test-rule, baseline,
// config, history, ignore, completion), parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/keyleak/keyleak/cmd/keyleak"
//	func main() { keyleak.Execute() }
package keyleak

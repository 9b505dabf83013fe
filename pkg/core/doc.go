// Package core provides a small, stable facade over keyleak's internal engine
// for external integrations. It re-exports a narrow API surface so tools can
// depend on a stable import path without importing internal packages.
//
// Example:
//
//	cfg := core.Config{Root: ".", Rules: core.Compile(core.DefaultRules()), ExcludeDirs: core.DefaultExcludeDirs}
//	findings, err := core.Scan(cfg)
//	if err != nil { /* handle */ }
//	_ = core.MarshalFindings(os.Stdout, findings)
package core

package core

import (
	"io"

	"github.com/keyleak/keyleak/internal/engine"
	"github.com/keyleak/keyleak/internal/rules"
	"github.com/keyleak/keyleak/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Config       = engine.Config
	Result       = engine.Result
	Filters      = engine.Filters
	ExclusionSet = engine.ExclusionSet
	Rule         = types.Rule
	CompiledRule = rules.CompiledRule
	Finding      = types.Finding
)

// DefaultExcludeDirs is the built-in directory exclusion table.
var DefaultExcludeDirs = engine.DefaultExcludeDirs

// ErrInvalidRuleFile is wrapped by rule loading errors.
var ErrInvalidRuleFile = rules.ErrInvalidRuleFile

// DefaultRules returns the rule set bundled with keyleak.
func DefaultRules() []Rule { return rules.Default() }

// ParseRules validates and decodes a JSON rule file.
func ParseRules(data []byte) ([]Rule, error) { return rules.Parse(data) }

// LoadRules reads a JSON rule file from disk.
func LoadRules(path string) ([]Rule, error) { return rules.LoadFile(path) }

// Compile prepares rules for scanning. Rules whose pattern does not compile
// are kept as inert and never match.
func Compile(rs []Rule) []CompiledRule { return rules.Compile(rs) }

// Scan is the stable entrypoint for other programs.
func Scan(cfg Config) ([]Finding, error) {
	return engine.Scan(cfg)
}

// ScanWithStats scans and returns findings with basic statistics.
func ScanWithStats(cfg Config) (Result, error) {
	return engine.ScanWithStats(cfg)
}

// ScanReader scans raw text such as stdin. Findings carry no source.
func ScanReader(r io.Reader, cfg Config) (Result, error) {
	return engine.ScanReader(r, cfg)
}

// ScanBytes scans an in-memory buffer and attributes findings to source.
func ScanBytes(source string, data []byte, rs []CompiledRule) []Finding {
	return engine.ScanContent(source, data, rs)
}

// RuleIDs returns the ids of the bundled rules.
// This is exposed for convenience to avoid importing internals directly.
func RuleIDs() []string { return rules.IDs(rules.Default()) }

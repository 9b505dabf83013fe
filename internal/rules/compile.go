package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/keyleak/keyleak/internal/types"
)

// Status tags a compiled rule as usable or not.
type Status int

const (
	// Inert rules failed to compile; they stay in the set but never match.
	Inert Status = iota
	// Active rules carry a working matcher.
	Active
)

func (s Status) String() string {
	if s == Active {
		return "active"
	}
	return "inert"
}

// ecmaMatchTimeout bounds a single backtracking match attempt.
const ecmaMatchTimeout = 250 * time.Millisecond

// CompiledRule pairs a Rule with its executable matcher.
type CompiledRule struct {
	types.Rule
	Status Status
	// Err holds the compile error for Inert rules.
	Err error
	// Keywords are the rule keywords, lowercased.
	Keywords []string

	m matcher
}

// Engine names the regex engine behind an Active rule.
func (c CompiledRule) Engine() string {
	if c.m == nil {
		return ""
	}
	return c.m.engine()
}

// Each calls fn for every non-overlapping match of the rule in line, left to
// right. start and end are character offsets. Iteration stops early when fn
// returns false. Inert rules never call fn.
func (c CompiledRule) Each(line string, fn func(start, end int, match string) bool) error {
	switch c.Status {
	case Active:
		return c.m.each(line, fn)
	default:
		return nil
	}
}

type matcher interface {
	each(line string, fn func(start, end int, match string) bool) error
	engine() string
}

// Compile turns rules into compiled rules, one for one and in order. A rule
// whose pattern cannot be compiled is returned Inert with Err set.
func Compile(rs []types.Rule) []CompiledRule {
	out := make([]CompiledRule, len(rs))
	for i, r := range rs {
		out[i] = compileOne(r)
	}
	return out
}

func compileOne(r types.Rule) CompiledRule {
	cr := CompiledRule{Rule: r}
	if len(r.Keywords) > 0 {
		cr.Keywords = make([]string, len(r.Keywords))
		for i, k := range r.Keywords {
			cr.Keywords[i] = strings.ToLower(k)
		}
	}
	// Patterns are ECMAScript source; RE2 reads some of them differently.
	re, err := regexp2.Compile(r.Regex, regexp2.ECMAScript)
	if err != nil {
		cr.Err = fmt.Errorf("rule %s: %w", r.ID, err)
		return cr
	}
	re.MatchTimeout = ecmaMatchTimeout
	cr.Status, cr.m = Active, ecmaMatcher{re: re}
	return cr
}

// ActiveCount returns how many rules in rs are Active.
func ActiveCount(rs []CompiledRule) int {
	n := 0
	for _, r := range rs {
		if r.Status == Active {
			n++
		}
	}
	return n
}

type ecmaMatcher struct{ re *regexp2.Regexp }

func (m ecmaMatcher) engine() string { return "ecmascript" }

func (m ecmaMatcher) each(line string, fn func(start, end int, match string) bool) error {
	runes := []rune(line)
	pos := 0
	for pos <= len(runes) {
		match, err := m.re.FindRunesMatchStartingAt(runes, pos)
		if err != nil {
			return err
		}
		if match == nil {
			return nil
		}
		start, end := match.Index, match.Index+match.Length
		if !fn(start, end, string(runes[start:end])) {
			return nil
		}
		if end == start {
			pos = end + 1
		} else {
			pos = end
		}
	}
	return nil
}

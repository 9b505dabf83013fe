package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyleak/keyleak/internal/types"
)

func TestCompile_MixedValidity(t *testing.T) {
	cs := Compile([]types.Rule{
		{ID: "ok", Name: "OK", Regex: `abc`, Keywords: []string{"ABC"}},
		{ID: "bad", Name: "Bad", Regex: `[z-a`},
		{ID: "lookahead", Name: "Lookahead", Regex: `foo(?=bar)`},
	})
	require.Len(t, cs, 3)

	assert.Equal(t, Active, cs[0].Status)
	assert.Equal(t, "ecmascript", cs[0].Engine())
	assert.Equal(t, []string{"abc"}, cs[0].Keywords)
	assert.NoError(t, cs[0].Err)

	assert.Equal(t, Inert, cs[1].Status)
	assert.Equal(t, "", cs[1].Engine())
	assert.Error(t, cs[1].Err)
	assert.Contains(t, cs[1].Err.Error(), "bad")

	assert.Equal(t, Active, cs[2].Status)
	assert.Equal(t, "ecmascript", cs[2].Engine())
	assert.Equal(t, 2, ActiveCount(cs))
}

func TestCompiledRule_ZeroValueIsInert(t *testing.T) {
	var c CompiledRule
	assert.Equal(t, Inert, c.Status)
	called := false
	require.NoError(t, c.Each("anything", func(int, int, string) bool {
		called = true
		return true
	}))
	assert.False(t, called)
}

type span struct {
	start, end int
	match      string
}

func collect(t *testing.T, c CompiledRule, line string) []span {
	t.Helper()
	var out []span
	require.NoError(t, c.Each(line, func(s, e int, m string) bool {
		out = append(out, span{s, e, m})
		return true
	}))
	return out
}

func TestEach_CharacterOffsets(t *testing.T) {
	line := "héllo tok_1 wörld tok_2"
	plain := Compile([]types.Rule{{ID: "t", Name: "T", Regex: `tok_[0-9]`}})[0]
	lookahead := Compile([]types.Rule{{ID: "t", Name: "T", Regex: `tok_(?=[0-9])[0-9]`}})[0]

	want := []span{{6, 11, "tok_1"}, {18, 23, "tok_2"}}
	assert.Equal(t, want, collect(t, plain, line))
	assert.Equal(t, want, collect(t, lookahead, line))
}

// Patterns are read as ECMAScript, including where RE2 would differ.
func TestEach_ECMAScriptSemantics(t *testing.T) {
	cases := []struct {
		name  string
		regex string
		line  string
		want  []span
	}{
		{"space class includes NBSP", `token\s*=\s*([A-Za-z0-9]{8})`, "token\u00a0=\u00a0ABCDEFGH", []span{{0, 16, "token\u00a0=\u00a0ABCDEFGH"}}},
		{"backreference", `(["'])[a-z]+\1`, `x='abc' "d'`, []span{{2, 7, "'abc'"}}},
		{"inline case-insensitive flag", `(?i)secret`, "SeCrEt", []span{{0, 6, "SeCrEt"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Compile([]types.Rule{{ID: "x", Name: "X", Regex: tc.regex}})[0]
			require.Equal(t, Active, c.Status, "%v", c.Err)
			assert.Equal(t, tc.want, collect(t, c, tc.line))
		})
	}
}

func TestEach_StopsWhenCallbackReturnsFalse(t *testing.T) {
	c := Compile([]types.Rule{{ID: "d", Name: "D", Regex: `\d`}})[0]
	n := 0
	require.NoError(t, c.Each("1 2 3", func(int, int, string) bool {
		n++
		return false
	}))
	assert.Equal(t, 1, n)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "inert", Inert.String())
}

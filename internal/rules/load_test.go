package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	rs, err := Parse([]byte(`[
		{"id":"aws","name":"AWS","regex":"AKIA[0-9A-Z]{16}","keywords":["aws"]},
		{"id":"hex","name":"Hex","regex":"[0-9a-f]{32}","entropy":3.5}
	]`))
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, []string{"aws"}, rs[0].Keywords)
	assert.False(t, rs[0].HasEntropy())
	require.True(t, rs[1].HasEntropy())
	assert.Equal(t, 3.5, *rs[1].Entropy)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":         `{{`,
		"not an array":     `{"id":"a","name":"a","regex":"a"}`,
		"missing regex":    `[{"id":"a","name":"a"}]`,
		"empty id":         `[{"id":"","name":"a","regex":"a"}]`,
		"mistyped keyword": `[{"id":"a","name":"a","regex":"a","keywords":[1]}]`,
		"negative entropy": `[{"id":"a","name":"a","regex":"a","entropy":-1}]`,
		"duplicate id":     `[{"id":"a","name":"a","regex":"a"},{"id":"a","name":"b","regex":"b"}]`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRuleFile), "got %v", err)
		})
	}
}

func TestParse_BadPatternIsNotAConfigError(t *testing.T) {
	rs, err := Parse([]byte(`[{"id":"bad","name":"Bad","regex":"(unclosed"}]`))
	require.NoError(t, err)
	assert.Len(t, rs, 1)
}

func TestDefault(t *testing.T) {
	rs := Default()
	require.NotEmpty(t, rs)
	compiled := Compile(rs)
	assert.Equal(t, len(rs), ActiveCount(compiled), "every bundled rule should compile")
	for _, c := range compiled {
		assert.Equal(t, "ecmascript", c.Engine(), c.ID)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(p, []byte(`[{"id":"x","name":"X","regex":"x+"}]`), 0o644))

	rs, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, IDs(rs))

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrInvalidRuleFile)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[]x`), 0o644))
	_, err = LoadFile(bad)
	require.ErrorIs(t, err, ErrInvalidRuleFile)
	assert.Contains(t, err.Error(), bad)
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()

	rs, src, err := Locate("", dir)
	require.NoError(t, err)
	assert.Empty(t, src)
	assert.Equal(t, len(Default()), len(rs))

	local := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(local, []byte(`[{"id":"local","name":"L","regex":"l"}]`), 0o644))
	rs, src, err = Locate("", dir)
	require.NoError(t, err)
	assert.Equal(t, local, src)
	assert.Equal(t, []string{"local"}, IDs(rs))

	explicit := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(explicit, []byte(`[{"id":"explicit","name":"E","regex":"e"}]`), 0o644))
	rs, src, err = Locate(explicit, dir)
	require.NoError(t, err)
	assert.Equal(t, explicit, src)
	assert.Equal(t, []string{"explicit"}, IDs(rs))
}

func TestDisable(t *testing.T) {
	rs, err := Parse([]byte(`[
		{"id":"a","name":"A","regex":"a"},
		{"id":"b","name":"B","regex":"b"},
		{"id":"c","name":"C","regex":"c"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, IDs(Disable(rs, []string{" b ", "", "zzz"})))
	assert.Equal(t, []string{"a", "b", "c"}, IDs(Disable(rs, nil)))
}

package rules

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/keyleak/keyleak/internal/types"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultFileName is the rule file looked up in the working directory when no
// explicit rule path is given.
const DefaultFileName = "keyleak.rules.json"

// ErrInvalidRuleFile is wrapped by every configuration error returned from
// Parse and LoadFile.
var ErrInvalidRuleFile = errors.New("invalid rule file")

//go:embed default_rules.json
var defaultRules []byte

const ruleSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name", "regex"],
    "properties": {
      "id":       {"type": "string", "minLength": 1},
      "name":     {"type": "string"},
      "regex":    {"type": "string"},
      "keywords": {"type": "array", "items": {"type": "string"}},
      "entropy":  {"type": "number", "minimum": 0}
    }
  }
}`

var ruleSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(ruleSchemaJSON))
})

// Parse validates data as a rule file and decodes it. Structural problems
// (not JSON, not an array, missing or mistyped fields, duplicate ids) are
// reported as ErrInvalidRuleFile. Pattern validity is not checked here.
func Parse(data []byte) ([]types.Rule, error) {
	schema, err := ruleSchema()
	if err != nil {
		return nil, fmt.Errorf("load rule schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleFile, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidRuleFile, strings.Join(msgs, "; "))
	}

	var out []types.Rule
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleFile, err)
	}
	seen := make(map[string]bool, len(out))
	for _, r := range out {
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: duplicate rule id %q", ErrInvalidRuleFile, r.ID)
		}
		seen[r.ID] = true
	}
	return out, nil
}

// LoadFile reads and parses the rule file at path.
func LoadFile(path string) ([]types.Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleFile, err)
	}
	rs, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Default returns the rule set bundled with the binary.
func Default() []types.Rule {
	rs, err := Parse(defaultRules)
	if err != nil {
		panic("bundled rules are invalid: " + err.Error())
	}
	return rs
}

// Locate resolves which rule file to use. An explicit path always wins; next
// comes DefaultFileName inside dir; otherwise the bundled rules are returned
// and source is empty.
func Locate(explicit, dir string) (rs []types.Rule, source string, err error) {
	if explicit != "" {
		rs, err = LoadFile(explicit)
		return rs, explicit, err
	}
	p := filepath.Join(dir, DefaultFileName)
	if st, statErr := os.Stat(p); statErr == nil && !st.IsDir() {
		rs, err = LoadFile(p)
		return rs, p, err
	}
	return Default(), "", nil
}

// Disable drops the rules whose id is listed in ids. Disabled rules are
// removed before compilation and are never reported as inert.
func Disable(rs []types.Rule, ids []string) []types.Rule {
	if len(ids) == 0 {
		return rs
	}
	blocked := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			blocked[id] = true
		}
	}
	out := make([]types.Rule, 0, len(rs))
	for _, r := range rs {
		if !blocked[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

// IDs lists rule ids in order.
func IDs(rs []types.Rule) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/keyleak/keyleak/internal/types"
)

// DefaultBaselineFile is written by "keyleak baseline update".
const DefaultBaselineFile = "keyleak.baseline.json"

// Baseline is a set of accepted finding fingerprints.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

// LoadBaseline reads a baseline file. A missing file yields an empty
// baseline and an error satisfying errors.Is(err, os.ErrNotExist).
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return Baseline{Items: map[string]bool{}}, fmt.Errorf("%s: %w", path, err)
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

// LoadBaselineIfExists is LoadBaseline that treats a missing file as empty.
func LoadBaselineIfExists(path string) (Baseline, error) {
	b, err := LoadBaseline(path)
	if errors.Is(err, os.ErrNotExist) {
		return b, nil
	}
	return b, err
}

func SaveBaseline(path string, findings []types.Finding) error {
	b := Baseline{Items: map[string]bool{}}
	for _, f := range findings {
		b.Items[Fingerprint(f)] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

func FilterNewFindings(findings []types.Finding, base Baseline) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if !base.Items[Fingerprint(f)] {
			out = append(out, f)
		}
	}
	return out
}

// Fingerprint identifies a finding independently of its line, so edits that
// shift a known secret up or down do not resurface it.
func Fingerprint(f types.Finding) string {
	sum := xxhash.Sum64String(f.Source + "|" + f.RuleID + "|" + f.Match)
	return strconv.FormatUint(sum, 16)
}

package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/keyleak/keyleak/internal/report"
)

// MarshalFindings writes findings in the same JSON form as `keyleak scan
// --json`. A nil slice is written as an empty array.
func MarshalFindings(w io.Writer, findings []Finding) error {
	return report.WriteJSON(w, findings)
}

// UnmarshalFindings reads the output of MarshalFindings or `keyleak scan
// --json` back into findings.
func UnmarshalFindings(r io.Reader) ([]Finding, error) {
	fs := []Finding{}
	if err := json.NewDecoder(r).Decode(&fs); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	return fs, nil
}

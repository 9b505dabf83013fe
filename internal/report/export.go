package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/keyleak/keyleak/internal/types"
)

// WriteJSON writes findings as an indented JSON array. Matches are written
// unmasked; the output is meant for machines.
func WriteJSON(w io.Writer, findings []types.Finding) error {
	if findings == nil {
		findings = []types.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}

var csvHeader = []string{"rule_id", "rule_name", "source", "line", "start", "end", "match"}

// WriteCSV writes findings as CSV with a header row. Matches are unmasked.
func WriteCSV(w io.Writer, findings []types.Finding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, f := range findings {
		rec := []string{
			f.RuleID,
			f.RuleName,
			Source(f),
			strconv.Itoa(f.Line),
			strconv.Itoa(f.Start),
			strconv.Itoa(f.End),
			f.Match,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Package audit keeps an append-only JSON Lines history of scan runs. Records
// never contain raw secret values.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/keyleak/keyleak/internal/report"
	"github.com/keyleak/keyleak/internal/types"
)

// DefaultFile is the history file name used when a directory is given.
const DefaultFile = ".keyleak_audit.jsonl"

// topN bounds the number of finding summaries kept per record.
const topN = 10

type ScanRecord struct {
	Timestamp     time.Time        `json:"timestamp"`
	ScanID        string           `json:"scan_id"`
	Root          string           `json:"root"`
	TotalFindings int              `json:"total_findings"`
	NewFindings   int              `json:"new_findings"`
	Baselined     int              `json:"baselined_count"`
	RuleCounts    map[string]int   `json:"rule_counts"`
	FilesScanned  int              `json:"files_scanned"`
	FilesSkipped  int              `json:"files_skipped"`
	InertRules    int              `json:"inert_rules,omitempty"`
	Duration      string           `json:"duration"`
	BaselineFile  string           `json:"baseline_file,omitempty"`
	TopFindings   []FindingSummary `json:"top_findings,omitempty"`
}

type FindingSummary struct {
	Source string `json:"source"`
	RuleID string `json:"rule_id"`
	Line   int    `json:"line"`
	Masked string `json:"masked"`
}

type Log struct {
	path string
}

// New returns a history log at path. When path is a directory the log lives
// in DefaultFile inside it, or inside its .git directory when one exists.
func New(path string) *Log {
	st, err := os.Stat(path)
	if err != nil || !st.IsDir() {
		return &Log{path: path}
	}
	if gst, err := os.Stat(filepath.Join(path, ".git")); err == nil && gst.IsDir() {
		return &Log{path: filepath.Join(path, ".git", "keyleak_audit.jsonl")}
	}
	return &Log{path: filepath.Join(path, DefaultFile)}
}

func (l *Log) Path() string { return l.path }

// History returns records newest first. A missing log yields no records.
func (l *Log) History() ([]ScanRecord, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	dec := json.NewDecoder(f)
	for dec.More() {
		var r ScanRecord
		if err := dec.Decode(&r); err != nil {
			reverse(records)
			return records, fmt.Errorf("decode audit log %s: %w", l.path, err)
		}
		records = append(records, r)
	}
	reverse(records)
	return records, nil
}

func reverse(rs []ScanRecord) {
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
}

// Append writes one record, assigning a scan id if it has none.
func (l *Log) Append(r ScanRecord) error {
	if r.ScanID == "" {
		r.ScanID = uuid.NewString()
	}
	// owner-only: records carry paths and rule ids
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(r); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// Stats carries the scan counters copied into a record.
type Stats struct {
	FilesScanned int
	FilesSkipped int
	InertRules   int
	Duration     time.Duration
}

// NewRecord summarizes a finished scan. all holds every finding before
// baseline filtering and reported holds what was shown to the user.
func NewRecord(root string, all, reported []types.Finding, st Stats, baselineFile string) ScanRecord {
	counts := make(map[string]int)
	for _, f := range all {
		counts[f.RuleID]++
	}
	top := make([]FindingSummary, 0, min(len(reported), topN))
	for _, f := range reported {
		if len(top) == topN {
			break
		}
		top = append(top, FindingSummary{
			Source: report.Source(f),
			RuleID: f.RuleID,
			Line:   f.Line,
			Masked: report.Mask(f.Match),
		})
	}
	return ScanRecord{
		Timestamp:     time.Now().UTC(),
		Root:          root,
		TotalFindings: len(all),
		NewFindings:   len(reported),
		Baselined:     len(all) - len(reported),
		RuleCounts:    counts,
		FilesScanned:  st.FilesScanned,
		FilesSkipped:  st.FilesSkipped,
		InertRules:    st.InertRules,
		Duration:      st.Duration.String(),
		BaselineFile:  baselineFile,
		TopFindings:   top,
	}
}

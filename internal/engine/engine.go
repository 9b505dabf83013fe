package engine

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/keyleak/keyleak/internal/detectors"
	"github.com/keyleak/keyleak/internal/ignore"
	"github.com/keyleak/keyleak/internal/metrics"
	"github.com/keyleak/keyleak/internal/rules"
	"github.com/keyleak/keyleak/internal/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// memoSize bounds the per-run cache of findings for identical file contents.
const memoSize = 512

// Config controls a scan: what to scan, with which rules, and which files
// are eligible. Everything in it is read-only once the scan starts.
type Config struct {
	// Root is a file or directory. Empty means ".".
	Root  string
	Rules []rules.CompiledRule

	Filters     Filters
	ExcludeDirs ExclusionSet
	// UseIgnoreFile honors a .keyleakignore file at Root.
	UseIgnoreFile bool

	// Threads > 1 scans files concurrently. Output order is unchanged.
	Threads int
	// DryRun lists candidates without opening them.
	DryRun bool

	Logger   *zerolog.Logger
	Metrics  *metrics.Metrics
	Progress func()
}

func (cfg Config) root() string {
	if cfg.Root == "" {
		return "."
	}
	return cfg.Root
}

func (cfg Config) log() *zerolog.Logger {
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return cfg.Logger
}

func (cfg Config) ignoreMatcher() ignore.Matcher {
	if !cfg.UseIgnoreFile {
		return ignore.None()
	}
	m, err := ignore.Load(filepath.Join(cfg.root(), ignore.FileName))
	if err != nil {
		return ignore.None()
	}
	return m
}

// Result contains findings and basic scan statistics.
type Result struct {
	Findings     []types.Finding
	FilesScanned int
	// FilesSkipped counts files dropped as unreadable, binary or oversize,
	// matching the files_skipped_total metric.
	FilesSkipped int
	InertRules   int
	Duration     time.Duration
	// Selected lists candidate paths when Config.DryRun is set.
	Selected []string
}

// Scan runs a scan and returns only findings (without stats).
func Scan(cfg Config) ([]types.Finding, error) {
	res, err := ScanWithStats(cfg)
	if err != nil {
		return nil, err
	}
	return res.Findings, nil
}

// ScanWithStats scans cfg.Root and returns findings in traversal order, each
// file's findings ordered by line then position.
func ScanWithStats(cfg Config) (Result, error) {
	started := time.Now()
	res := Result{InertRules: reportInert(cfg)}
	ign := cfg.ignoreMatcher()
	ctx := context.Background()

	var err error
	switch {
	case cfg.DryRun:
		err = Select(ctx, cfg, ign, func(c Candidate) bool {
			res.Selected = append(res.Selected, c.Path)
			return true
		})
	case cfg.Threads > 1:
		err = scanParallel(ctx, cfg, ign, &res)
	default:
		err = scanSerial(ctx, cfg, ign, &res)
	}
	if err != nil {
		return res, fmt.Errorf("scan %s: %w", cfg.root(), err)
	}
	res.Duration = time.Since(started)
	return res, nil
}

// ScanReader scans a raw text stream such as stdin. Findings carry no source.
func ScanReader(r io.Reader, cfg Config) (Result, error) {
	started := time.Now()
	res := Result{InertRules: reportInert(cfg)}
	for f, err := range detectors.ScanReader(r, cfg.Rules, "") {
		if err != nil {
			return res, fmt.Errorf("read input: %w", err)
		}
		cfg.Metrics.AddFinding(f.RuleID)
		res.Findings = append(res.Findings, f)
	}
	res.FilesScanned = 1
	cfg.Metrics.IncrementFilesScanned()
	res.Duration = time.Since(started)
	return res, nil
}

// ScanContent scans an in-memory buffer attributed to source.
func ScanContent(source string, data []byte, rs []rules.CompiledRule) []types.Finding {
	return slices.Collect(detectors.Scan(string(data), rs, source))
}

func reportInert(cfg Config) int {
	n := 0
	for _, r := range cfg.Rules {
		if r.Status == rules.Inert {
			n++
			cfg.log().Debug().Err(r.Err).Str("rule", r.ID).Msg("rule pattern did not compile; rule is inert")
		}
	}
	cfg.Metrics.SetRulesInert(n)
	return n
}

func scanSerial(ctx context.Context, cfg Config, ign ignore.Matcher, res *Result) error {
	memo := newContentMemo()
	return selectFiles(ctx, cfg, ign, func(c Candidate) bool {
		data, ok := readCandidate(cfg, c)
		if !ok {
			res.FilesSkipped++
			return true
		}
		fs := memo.scan(c.Path, data, cfg.Rules)
		collect(cfg, res, fs)
		return true
	}, func(string) { res.FilesSkipped++ })
}

func scanParallel(ctx context.Context, cfg Config, ign ignore.Matcher, res *Result) error {
	var cands []Candidate
	if err := selectFiles(ctx, cfg, ign, func(c Candidate) bool {
		cands = append(cands, c)
		return true
	}, func(string) { res.FilesSkipped++ }); err != nil {
		return err
	}

	memo := newContentMemo()
	perFile := make([][]types.Finding, len(cands))
	read := make([]bool, len(cands))
	var skipped atomic.Int64

	var g errgroup.Group
	g.SetLimit(cfg.Threads)
	for i, c := range cands {
		g.Go(func() error {
			data, ok := readCandidate(cfg, c)
			if !ok {
				skipped.Add(1)
				return nil
			}
			perFile[i] = memo.scan(c.Path, data, cfg.Rules)
			read[i] = true
			return nil
		})
	}
	_ = g.Wait()

	// Slots are flushed in traversal order so the result matches a serial run.
	for i := range cands {
		if read[i] {
			collect(cfg, res, perFile[i])
		}
	}
	res.FilesSkipped += int(skipped.Load())
	return nil
}

func collect(cfg Config, res *Result, fs []types.Finding) {
	res.FilesScanned++
	cfg.Metrics.IncrementFilesScanned()
	for _, f := range fs {
		cfg.Metrics.AddFinding(f.RuleID)
	}
	res.Findings = append(res.Findings, fs...)
	if cfg.Progress != nil {
		cfg.Progress()
	}
}

type memoKey struct {
	sum  uint64
	size int
}

// contentMemo reuses findings for files with identical content within one
// run, such as vendored copies. Entries are stored without a source.
type contentMemo struct {
	cache *lru.Cache[memoKey, []types.Finding]
}

func newContentMemo() *contentMemo {
	c, _ := lru.New[memoKey, []types.Finding](memoSize)
	return &contentMemo{cache: c}
}

func (m *contentMemo) scan(source string, data []byte, rs []rules.CompiledRule) []types.Finding {
	key := memoKey{sum: xxhash.Sum64(data), size: len(data)}
	base, ok := m.cache.Get(key)
	if !ok {
		base = ScanContent("", data, rs)
		m.cache.Add(key, base)
	}
	if len(base) == 0 {
		return nil
	}
	out := make([]types.Finding, len(base))
	for i, f := range base {
		f.Source = source
		out[i] = f
	}
	return out
}

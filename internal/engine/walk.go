package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/keyleak/keyleak/internal/ignore"
	"github.com/keyleak/keyleak/internal/metrics"
)

// Candidate is a file chosen for scanning.
type Candidate struct {
	// Path opens the file; it is cfg.Root joined with the walked entry.
	Path string
	// Rel is Path relative to the scan root, used for glob and ignore
	// matching. For a single-file scan it is the base name.
	Rel  string
	Size int64
}

// Select enumerates scan candidates under cfg.Root in lexical depth-first
// order and calls fn for each; fn returning false ends the walk early.
//
// A root that is a regular file is checked against cfg.Filters only. In a
// tree, entries whose name starts with "." or appears in cfg.ExcludeDirs are
// pruned, as are known binary extensions and paths matched by ign. Entries
// that cannot be read or listed are skipped.
func Select(ctx context.Context, cfg Config, ign ignore.Matcher, fn func(Candidate) bool) error {
	return selectFiles(ctx, cfg, ign, fn, nil)
}

// selectFiles is Select with onSkip called for every file dropped as
// unreadable, binary by extension or oversize.
func selectFiles(ctx context.Context, cfg Config, ign ignore.Matcher, fn func(Candidate) bool, onSkip func(reason string)) error {
	skip := func(reason string) {
		cfg.Metrics.IncrementFilesSkipped(reason)
		if onSkip != nil {
			onSkip(reason)
		}
	}
	root := cfg.root()
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	log := cfg.log()
	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil
		}
		if !cfg.Filters.Allow(filepath.Base(root), info.Size()) {
			log.Trace().Str("path", root).Msg("filtered")
			return nil
		}
		fn(Candidate{Path: root, Rel: filepath.Base(root), Size: info.Size()})
		return nil
	}
	if ign == nil {
		ign = ignore.None()
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return err
			}
			log.Debug().Err(err).Str("path", p).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			skip(metrics.SkipUnreadable)
			return nil
		}
		if p == root {
			return nil
		}
		name := d.Name()
		rel, _ := filepath.Rel(root, p)
		if d.IsDir() {
			if strings.HasPrefix(name, ".") || cfg.ExcludeDirs.Has(name) || ign.Match(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || cfg.ExcludeDirs.Has(name) {
			return nil
		}
		// symlinks and special files are not followed
		if !d.Type().IsRegular() {
			return nil
		}
		if ign.Match(rel) {
			log.Trace().Str("path", p).Msg("ignored by " + ignore.FileName)
			return nil
		}
		if isBinaryName(name) {
			skip(metrics.SkipBinary)
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			log.Debug().Err(err).Str("path", p).Msg("skipping vanished file")
			skip(metrics.SkipUnreadable)
			return nil
		}
		if cfg.Filters.MaxBytes > 0 && fi.Size() > cfg.Filters.MaxBytes {
			log.Trace().Str("path", p).Int64("size", fi.Size()).Msg("skipping oversize file")
			skip(metrics.SkipOversize)
			return nil
		}
		if !cfg.Filters.Allow(rel, fi.Size()) {
			log.Trace().Str("path", p).Msg("filtered")
			return nil
		}
		if !fn(Candidate{Path: p, Rel: rel, Size: fi.Size()}) {
			return filepath.SkipAll
		}
		return nil
	})
}

// readCandidate loads a candidate's content. ok is false when the file
// cannot be read or looks binary.
func readCandidate(cfg Config, c Candidate) (data []byte, ok bool) {
	b, err := os.ReadFile(c.Path)
	if err != nil {
		cfg.log().Debug().Err(err).Str("path", c.Path).Msg("skipping unreadable file")
		cfg.Metrics.IncrementFilesSkipped(metrics.SkipUnreadable)
		return nil, false
	}
	if looksBinary(b) {
		cfg.log().Debug().Str("path", c.Path).Msg("skipping binary file")
		cfg.Metrics.IncrementFilesSkipped(metrics.SkipBinary)
		return nil, false
	}
	return b, true
}

func looksBinary(b []byte) bool {
	const sniff = 800
	n := sniff
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

// CountTargets returns how many files Select would yield for cfg. Metrics
// are not updated.
func CountTargets(cfg Config) (int, error) {
	cfg.Metrics = nil
	n := 0
	err := Select(context.Background(), cfg, cfg.ignoreMatcher(), func(Candidate) bool {
		n++
		return true
	})
	return n, err
}

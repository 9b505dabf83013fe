package engine

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// ExclusionSet holds directory base names that are never descended into.
// Names are compared case-sensitively.
type ExclusionSet map[string]struct{}

// DefaultExcludeDirs is the built-in exclusion table. Callers pass it (or a
// substitute) explicitly through Config.ExcludeDirs.
var DefaultExcludeDirs = ExclusionSet{
	"node_modules":     {},
	"bower_components": {},
	"jspm_packages":    {},
	"vendor":           {},
	"target":           {},
	"dist":             {},
	"build":            {},
	"out":              {},
	"venv":             {},
	"__pycache__":      {},
	"coverage":         {},
	"bin":              {},
	"obj":              {},
}

// NewExclusionSet returns the union of base and names. base is not modified.
func NewExclusionSet(base ExclusionSet, names ...string) ExclusionSet {
	out := make(ExclusionSet, len(base)+len(names))
	for n := range base {
		out[n] = struct{}{}
	}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}

// Has reports whether name is excluded.
func (s ExclusionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// binary and media suffixes skipped during tree walks
var binaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true,
	".webp": true, ".tif": true, ".tiff": true, ".psd": true,
	".mp3": true, ".mp4": true, ".wav": true, ".ogg": true, ".flac": true, ".avi": true,
	".mov": true, ".mkv": true, ".webm": true,
	".zip": true, ".gz": true, ".tgz": true, ".tar": true, ".bz2": true, ".xz": true,
	".7z": true, ".rar": true, ".jar": true, ".war": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true, ".o": true,
	".class": true, ".pyc": true, ".wasm": true, ".bin": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".sqlite": true, ".db": true,
}

func isBinaryName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return binaryExts[ext]
}

// Filters decides whether a candidate file is scanned. Every configured
// predicate must pass.
type Filters struct {
	// MaxBytes skips larger files when > 0.
	MaxBytes int64
	// IncludeName and ExcludeName are matched against the file base name.
	IncludeName *regexp.Regexp
	ExcludeName *regexp.Regexp
	// IncludeExts and ExcludeExts are lowercase suffixes such as ".go";
	// a file passes an extension set if any entry matches.
	IncludeExts []string
	ExcludeExts []string
	// IncludeGlobs and ExcludeGlobs are doublestar patterns on the
	// slash-separated path relative to the scan root.
	IncludeGlobs []string
	ExcludeGlobs []string
}

// Allow reports whether the file at rel with the given size passes f.
func (f Filters) Allow(rel string, size int64) bool {
	if f.MaxBytes > 0 && size > f.MaxBytes {
		return false
	}
	base := filepath.Base(rel)
	if f.IncludeName != nil && !f.IncludeName.MatchString(base) {
		return false
	}
	if f.ExcludeName != nil && f.ExcludeName.MatchString(base) {
		return false
	}
	lower := strings.ToLower(base)
	if len(f.IncludeExts) > 0 && !hasAnySuffix(lower, f.IncludeExts) {
		return false
	}
	if len(f.ExcludeExts) > 0 && hasAnySuffix(lower, f.ExcludeExts) {
		return false
	}
	return f.allowedByGlobs(rel)
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, x := range suffixes {
		if strings.HasSuffix(s, x) {
			return true
		}
	}
	return false
}

// NormalizeExts lowercases extensions and adds a leading dot where missing.
func NormalizeExts(exts []string) []string {
	var out []string
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// allowedByGlobs applies include globs as a positive filter, then subtracts
// exclude globs. Each glob is tried against the full relative path and the
// base name.
func (f Filters) allowedByGlobs(relPath string) bool {
	if len(f.IncludeGlobs) == 0 && len(f.ExcludeGlobs) == 0 {
		return true
	}
	rp := filepath.ToSlash(relPath)
	if len(f.IncludeGlobs) > 0 && !matchAnyGlob(rp, expandGlobs(f.IncludeGlobs)) {
		return false
	}
	if len(f.ExcludeGlobs) > 0 && matchAnyGlob(rp, expandGlobs(f.ExcludeGlobs)) {
		return false
	}
	return true
}

// ParseGlobs splits a comma-separated glob list.
func ParseGlobs(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func expandGlobs(globs []string) []string {
	out := make([]string, 0, len(globs)*2)
	for _, g := range globs {
		out = append(out, g, trimGlobPrefix(g))
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	base := path.Base(pathToMatch)
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, base); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}

// Package ignore matches repository-relative paths against a .keyleakignore
// file using gitignore semantics.
package ignore

import (
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName is the ignore file looked up at the scan root.
const FileName = ".keyleakignore"

// Matcher reports whether a relative path is ignored.
type Matcher interface {
	Match(rel string) bool
}

type none struct{}

func (none) Match(string) bool { return false }

type gitMatcher struct{ gi *gitignore.GitIgnore }

func (m gitMatcher) Match(rel string) bool {
	return m.gi.MatchesPath(filepath.ToSlash(rel))
}

// None matches nothing.
func None() Matcher { return none{} }

// New compiles gitignore-style lines. Blank lines and comments are skipped.
func New(lines ...string) Matcher {
	var kept []string
	for _, l := range lines {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" || strings.HasPrefix(l, "#") {
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == 0 {
		return none{}
	}
	return gitMatcher{gi: gitignore.CompileIgnoreLines(kept...)}
}

// Load reads an ignore file. When the file cannot be read the returned
// matcher is still usable and matches nothing.
func Load(path string) (Matcher, error) {
	gi, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return none{}, err
	}
	return gitMatcher{gi: gi}, nil
}

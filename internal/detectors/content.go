package detectors

import (
	"bufio"
	"io"
	"iter"
	"strings"

	"github.com/keyleak/keyleak/internal/rules"
	"github.com/keyleak/keyleak/internal/types"
)

// IgnoreMarker suppresses every finding on the line that contains it.
const IgnoreMarker = "keyleak:ignore"

// Scan returns the findings for content in line order. The sequence is lazy
// and can be ranged over any number of times with identical results. source
// is copied onto every finding and may be empty for raw buffers.
func Scan(content string, rs []rules.CompiledRule, source string) iter.Seq[types.Finding] {
	return func(yield func(types.Finding) bool) {
		for n, line := range Lines(content) {
			if !scanNumbered(n, line, rs, source, yield) {
				return
			}
		}
	}
}

// ScanReader is Scan over a reader, read one line at a time. A read error is
// yielded once and ends the sequence. Unlike Scan the sequence consumes r and
// is therefore single-use.
func ScanReader(r io.Reader, rs []rules.CompiledRule, source string) iter.Seq2[types.Finding, error] {
	return func(yield func(types.Finding, error) bool) {
		br := bufio.NewReader(r)
		emit := func(f types.Finding) bool { return yield(f, nil) }
		n := 0
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				if strings.HasSuffix(line, "\n") {
					line = strings.TrimSuffix(line[:len(line)-1], "\r")
				}
				n++
				if !scanNumbered(n, line, rs, source, emit) {
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(types.Finding{}, err)
				return
			}
		}
	}
}

// Lines splits content on "\n" and "\r\n", yielding 1-based line numbers.
// A trailing fragment without a terminator is still a line; a terminator at
// the very end does not start a new one.
func Lines(content string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		rest := content
		n := 0
		for rest != "" {
			var line string
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				line = strings.TrimSuffix(rest[:i], "\r")
				rest = rest[i+1:]
			} else {
				line, rest = rest, ""
			}
			n++
			if !yield(n, line) {
				return
			}
		}
	}
}

func scanNumbered(n int, line string, rs []rules.CompiledRule, source string, yield func(types.Finding) bool) bool {
	if strings.Contains(line, IgnoreMarker) {
		return true
	}
	for _, f := range ScanLine(line, rs) {
		f.Line = n
		f.Source = source
		if !yield(f) {
			return false
		}
	}
	return true
}

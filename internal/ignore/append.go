package ignore

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Append ensures each pattern is present in the ignore file at root. The file
// is created if missing. Patterns already present are not repeated.
func Append(root string, patterns ...string) (added []string, err error) {
	path := filepath.Join(root, FileName)
	existing := map[string]bool{}
	endsWithNewline := true
	if b, err := os.ReadFile(path); err == nil {
		sc := bufio.NewScanner(strings.NewReader(string(b)))
		for sc.Scan() {
			existing[strings.TrimSpace(sc.Text())] = true
		}
		endsWithNewline = len(b) == 0 || b[len(b)-1] == '\n'
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var sb strings.Builder
	if !endsWithNewline {
		sb.WriteByte('\n')
	}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || existing[p] {
			continue
		}
		existing[p] = true
		added = append(added, p)
		sb.WriteString(p)
		sb.WriteByte('\n')
	}
	if len(added) == 0 {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	if _, err := f.WriteString(sb.String()); err != nil {
		_ = f.Close()
		return nil, err
	}
	return added, f.Close()
}

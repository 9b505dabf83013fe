package detectors

import (
	"strings"

	"github.com/keyleak/keyleak/internal/rules"
	"github.com/keyleak/keyleak/internal/types"
	"github.com/rs/zerolog/log"
)

// ScanLine applies rs to a single line of text without its terminator. The
// returned findings are ordered by rule, then by position within the line.
// Line and Source are left for the caller to fill in.
func ScanLine(line string, rs []rules.CompiledRule) []types.Finding {
	var out []types.Finding
	lower, lowered := "", false
	for _, r := range rs {
		switch r.Status {
		case rules.Inert:
			continue
		}
		if len(r.Keywords) > 0 {
			if !lowered {
				lower, lowered = strings.ToLower(line), true
			}
			if !containsAny(lower, r.Keywords) {
				continue
			}
		}
		// A match timeout ends this rule's matches for the line; earlier
		// matches are kept.
		err := r.Each(line, func(start, end int, m string) bool {
			if r.Entropy != nil && Entropy(m) < *r.Entropy {
				return true
			}
			out = append(out, types.Finding{
				RuleID:   r.ID,
				RuleName: r.Name,
				Match:    m,
				Start:    start,
				End:      end,
			})
			return true
		})
		if err != nil {
			log.Debug().Err(err).Str("rule", r.ID).Msg("rule matching stopped early on line")
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

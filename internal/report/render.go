package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/keyleak/keyleak/internal/types"
	"github.com/olekukonko/tablewriter"
)

// StdinLabel is shown in place of a source for findings from raw input.
const StdinLabel = "stdin"

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	FilesSkipped int
	InertRules   int
}

var (
	ruleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	matchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func paint(s lipgloss.Style, text string, noColor bool) string {
	if noColor {
		return text
	}
	return s.Render(text)
}

// Source returns the display name for a finding's source.
func Source(f types.Finding) string {
	if f.Source == "" {
		return StdinLabel
	}
	return f.Source
}

// Relativize returns a copy of findings with sources made relative to root
// where possible. Findings without a source are left alone.
func Relativize(findings []types.Finding, root string) []types.Finding {
	out := make([]types.Finding, len(findings))
	copy(out, findings)
	if root == "" {
		return out
	}
	base := root
	if fi, err := os.Stat(root); err == nil && !fi.IsDir() {
		base = filepath.Dir(root)
	}
	for i := range out {
		if out[i].Source == "" {
			continue
		}
		if rel, err := filepath.Rel(base, out[i].Source); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			out[i].Source = filepath.ToSlash(rel)
		}
	}
	return out
}

// PrintText writes one line per finding with the match masked, followed by
// a summary footer.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, paint(okStyle, "No secrets found ✅", opts.NoColor))
	} else {
		maxRule := 8
		for _, f := range findings {
			if l := len(f.RuleID); l > maxRule {
				maxRule = l
			}
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range findings {
			rule := fmt.Sprintf("%-*s", maxRule, f.RuleID)
			loc := fmt.Sprintf("%s:%d:%d", Source(f), f.Line, f.Start+1)
			fmt.Fprintf(w, "%s %s  %s\n",
				paint(ruleStyle, rule, opts.NoColor),
				paint(pathStyle, loc, opts.NoColor),
				paint(matchStyle, Mask(f.Match), opts.NoColor))
		}
	}
	printFooter(w, findings, opts)
}

// PrintTable renders findings as a bordered table.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, paint(okStyle, "No secrets found ✅", opts.NoColor))
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Rule", "Name", "Source", "Line", "Column", "Match")
		for _, f := range findings {
			_ = table.Append([]string{
				f.RuleID,
				f.RuleName,
				Source(f),
				strconv.Itoa(f.Line),
				strconv.Itoa(f.Start + 1),
				Mask(f.Match),
			})
		}
		_ = table.Render()
	}
	printFooter(w, findings, opts)
}

func printFooter(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return
	}
	byRule := map[string]int{}
	for _, f := range findings {
		byRule[f.RuleID]++
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d across %d rule(s)\n", len(findings), len(byRule))
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.FilesSkipped > 0 {
		fmt.Fprintf(w, "Files skipped: %d\n", opts.FilesSkipped)
	}
	if opts.InertRules > 0 {
		msg := fmt.Sprintf("Inert rules: %d (run `keyleak rules` for details)", opts.InertRules)
		fmt.Fprintln(w, paint(warnStyle, msg, opts.NoColor))
	}
}

// Mask hides the middle of a secret for display, keeping the first and last
// four characters. Short values are fully masked.
func Mask(s string) string {
	if utf8.RuneCountInString(s) <= 8 {
		return "********"
	}
	r := []rune(s)
	return string(r[:4]) + "…" + string(r[len(r)-4:])
}

package keyleak

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/keyleak/keyleak/internal/audit"
	"github.com/keyleak/keyleak/internal/config"
	"github.com/keyleak/keyleak/internal/engine"
	"github.com/keyleak/keyleak/internal/ignore"
	"github.com/keyleak/keyleak/internal/metrics"
	"github.com/keyleak/keyleak/internal/report"
	"github.com/keyleak/keyleak/internal/rules"
	"github.com/keyleak/keyleak/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const defaultMaxBytes = 1 << 20

var (
	flagPath              string
	flagStdin             bool
	flagRule              string
	flagDisable           string
	flagExcludeDirs       string
	flagNoDefaultExcludes bool
	flagMaxBytes          int64
	flagIncludeName       string
	flagExcludeName       string
	flagIncludeExt        string
	flagExcludeExt        string
	flagInclude           string
	flagExclude           string
	flagNoIgnoreFile      bool
	flagFormat            string
	flagTable             bool
	flagBaseline          string
	flagNoBaseline        bool
	flagMetricsFile       string
	flagAuditLog          string
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a file, a directory tree or stdin for secrets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", "", "path to scan (default \".\")")
	cmd.Flags().BoolVar(&flagStdin, "stdin", false, "scan standard input instead of files")
	cmd.Flags().StringVar(&flagRule, "rule", "", "rule file (default: ./"+rules.DefaultFileName+" or the bundled rules)")
	cmd.Flags().StringVar(&flagDisable, "disable", "", "disable these rules (comma-separated IDs)")
	cmd.Flags().StringVar(&flagExcludeDirs, "exclude-dirs", "", "additional directory names to skip (comma-separated)")
	cmd.Flags().BoolVar(&flagNoDefaultExcludes, "no-default-excludes", false, "do not apply the built-in directory exclusion list")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "skip files larger than this (default 1 MiB, negative = no limit)")
	cmd.Flags().StringVar(&flagIncludeName, "include-name", "", "only scan files whose base name matches this regex")
	cmd.Flags().StringVar(&flagExcludeName, "exclude-name", "", "skip files whose base name matches this regex")
	cmd.Flags().StringVar(&flagIncludeExt, "include-ext", "", "only scan these extensions (comma-separated)")
	cmd.Flags().StringVar(&flagExcludeExt, "exclude-ext", "", "skip these extensions (comma-separated)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().BoolVar(&flagNoIgnoreFile, "no-ignore-file", false, "do not read "+ignore.FileName)
	cmd.Flags().StringVar(&flagFormat, "format", "", "output format: text|table|json|csv|sarif (default text)")
	cmd.Flags().BoolVar(&flagTable, "table", false, "output in table format with borders")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "", "baseline file (default "+report.DefaultBaselineFile+")")
	cmd.Flags().BoolVar(&flagNoBaseline, "no-baseline", false, "report all findings, ignoring the baseline")
	cmd.Flags().StringVar(&flagMetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the scan")
	cmd.Flags().StringVar(&flagAuditLog, "audit-log", "", "append a scan record to this history file (a directory means "+audit.DefaultFile+" inside it)")
}

// scanSetup is everything a scan-like command needs, resolved from flags
// and config files.
type scanSetup struct {
	cfg       engine.Config
	root      string
	format    string
	noColor   bool
	baseline  string
	metrics   string
	auditLog  string
	ruleCount int
}

func loadConfigs(root string) (local, global config.FileConfig, err error) {
	if c, gerr := config.LoadGlobal(); gerr == nil {
		global = c
	} else if !errors.Is(gerr, config.ErrNotFound) {
		return local, global, gerr
	}
	dir := root
	if fi, serr := os.Stat(root); serr == nil && !fi.IsDir() {
		dir = filepath.Dir(root)
	}
	if c, lerr := config.LoadLocal(dir); lerr == nil {
		local = c
	} else if !errors.Is(lerr, config.ErrNotFound) {
		return local, global, lerr
	}
	return local, global, nil
}

// loadRules locates, filters and compiles the rule set. Inert rules are
// reported at warn level and kept.
func loadRules(rulePath, disable string) ([]rules.CompiledRule, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	rs, src, err := rules.Locate(rulePath, cwd)
	if err != nil {
		return nil, err
	}
	if src == "" {
		src = "bundled"
	}
	rs = rules.Disable(rs, splitList(disable))
	compiled := rules.Compile(rs)
	for _, r := range compiled {
		if r.Status == rules.Inert {
			log.Warn().Err(r.Err).Str("rule", r.ID).Msg("rule is inert")
		}
	}
	log.Debug().Str("source", src).Int("rules", len(compiled)).Int("active", rules.ActiveCount(compiled)).Msg("rules loaded")
	return compiled, nil
}

func resolveScan(cmd *cobra.Command, root string) (scanSetup, error) {
	lcfg, gcfg, err := loadConfigs(root)
	if err != nil {
		return scanSetup{}, err
	}
	setupLogging(logLevel(pickString("", lcfg.LogLevel, gcfg.LogLevel)))

	rs, err := loadRules(pickString(flagRule, lcfg.Rule, gcfg.Rule), pickString(flagDisable, lcfg.Disable, gcfg.Disable))
	if err != nil {
		return scanSetup{}, err
	}

	includeName, err := compileOptional("include-name", pickString(flagIncludeName, lcfg.IncludeName, gcfg.IncludeName))
	if err != nil {
		return scanSetup{}, err
	}
	excludeName, err := compileOptional("exclude-name", pickString(flagExcludeName, lcfg.ExcludeName, gcfg.ExcludeName))
	if err != nil {
		return scanSetup{}, err
	}
	maxBytes := pickInt64(flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes)
	if maxBytes == 0 {
		maxBytes = defaultMaxBytes
	}

	excl := engine.DefaultExcludeDirs
	if pickBool(flagNoDefaultExcludes, lcfg.NoDefaultExcludes, gcfg.NoDefaultExcludes) {
		excl = engine.ExclusionSet{}
	}
	excl = engine.NewExclusionSet(excl, splitList(pickString(flagExcludeDirs, lcfg.ExcludeDirs, gcfg.ExcludeDirs))...)

	threads := pickInt(flagThreads, lcfg.Threads, gcfg.Threads)
	if threads < 1 {
		threads = 1
	}

	format := strings.ToLower(pickString(flagFormat, lcfg.Format, gcfg.Format))
	switch {
	case flagSARIF:
		format = "sarif"
	case flagJSON:
		format = "json"
	case flagTable:
		format = "table"
	case format == "":
		format = "text"
	}
	switch format {
	case "text", "table", "json", "csv", "sarif":
	default:
		return scanSetup{}, fmt.Errorf("unknown format %q", format)
	}

	baseline := pickString(flagBaseline, lcfg.Baseline, gcfg.Baseline)
	if baseline == "" {
		baseline = report.DefaultBaselineFile
	}
	if flagNoBaseline {
		baseline = ""
	}

	logger := log.Logger
	s := scanSetup{
		root:      root,
		format:    format,
		noColor:   pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor) || os.Getenv("NO_COLOR") != "" || !isTerminal(cmd.OutOrStdout()),
		baseline:  baseline,
		metrics:   pickString(flagMetricsFile, lcfg.MetricsFile, gcfg.MetricsFile),
		auditLog:  pickString(flagAuditLog, lcfg.AuditLog, gcfg.AuditLog),
		ruleCount: len(rs),
		cfg: engine.Config{
			Root:  root,
			Rules: rs,
			Filters: engine.Filters{
				MaxBytes:     maxBytes,
				IncludeName:  includeName,
				ExcludeName:  excludeName,
				IncludeExts:  engine.NormalizeExts(splitList(pickString(flagIncludeExt, lcfg.IncludeExt, gcfg.IncludeExt))),
				ExcludeExts:  engine.NormalizeExts(splitList(pickString(flagExcludeExt, lcfg.ExcludeExt, gcfg.ExcludeExt))),
				IncludeGlobs: engine.ParseGlobs(pickString(flagInclude, lcfg.Include, gcfg.Include)),
				ExcludeGlobs: engine.ParseGlobs(pickString(flagExclude, lcfg.Exclude, gcfg.Exclude)),
			},
			ExcludeDirs:   excl,
			UseIgnoreFile: !pickBool(flagNoIgnoreFile, lcfg.NoIgnoreFile, gcfg.NoIgnoreFile),
			Threads:       threads,
			DryRun:        flagDryRun,
			Logger:        &logger,
		},
	}
	if s.metrics != "" {
		s.cfg.Metrics = metrics.New()
	}
	return s, nil
}

func scanTarget(cmd *cobra.Command, args []string) (root string, useStdin bool) {
	root = flagPath
	if len(args) == 1 {
		root = args[0]
	}
	if root == "-" || flagStdin {
		return "", true
	}
	if root == "" {
		if stdinPiped(cmd.InOrStdin()) {
			return "", true
		}
		root = "."
	}
	return root, false
}

func runScan(cmd *cobra.Command, args []string) error {
	root, useStdin := scanTarget(cmd, args)
	setupRoot := root
	if useStdin {
		setupRoot = "."
	}
	s, err := resolveScan(cmd, setupRoot)
	if err != nil {
		return err
	}
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	human := s.format == "text" || s.format == "table"

	var res engine.Result
	if useStdin {
		res, err = engine.ScanReader(cmd.InOrStdin(), s.cfg)
		if err != nil {
			return err
		}
	} else {
		if s.cfg.DryRun {
			res, err = engine.ScanWithStats(s.cfg)
			if err != nil {
				return err
			}
			for _, p := range res.Selected {
				fmt.Fprintln(out, displayPath(p, root))
			}
			return nil
		}
		if human {
			_, _ = fmt.Fprintf(errOut, "Scanning %s with %d rules...\n", root, s.ruleCount)
		}
		// Optional progress bar: simple textual bar
		total := 0
		if human && isTerminal(errOut) {
			total, _ = engine.CountTargets(s.cfg)
		}
		progressed := 0
		if total > 0 {
			s.cfg.Progress = func() {
				progressed++
				if progressed%10 == 0 || progressed == total {
					pct := float64(progressed) / float64(total) * 100
					_, _ = fmt.Fprintf(errOut, "\r[%d/%d] %.0f%%", progressed, total, pct)
				}
			}
		}
		res, err = engine.ScanWithStats(s.cfg)
		if err != nil {
			return fmt.Errorf("scan error: %w", err)
		}
		if total > 0 {
			_, _ = fmt.Fprintln(errOut)
		}
		res.Findings = report.Relativize(res.Findings, root)
	}

	findings := res.Findings
	if s.baseline != "" {
		base, err := report.LoadBaselineIfExists(s.baseline)
		if err != nil {
			return err
		}
		findings = report.FilterNewFindings(findings, base)
	}
	if findings == nil {
		findings = []types.Finding{}
	}

	if err := writeFindings(out, findings, res, s); err != nil {
		return err
	}
	if s.metrics != "" {
		if err := s.cfg.Metrics.WriteTextfile(s.metrics); err != nil {
			log.Warn().Err(err).Str("path", s.metrics).Msg("could not write metrics file")
		}
	}
	if s.auditLog != "" {
		recordScan(s, root, res, findings)
	}
	if len(findings) > 0 {
		return errFindings
	}
	return nil
}

func recordScan(s scanSetup, root string, res engine.Result, reported []types.Finding) {
	if root == "" {
		root = report.StdinLabel
	} else if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	rec := audit.NewRecord(root, res.Findings, reported, audit.Stats{
		FilesScanned: res.FilesScanned,
		FilesSkipped: res.FilesSkipped,
		InertRules:   res.InertRules,
		Duration:     res.Duration,
	}, s.baseline)
	l := audit.New(s.auditLog)
	if err := l.Append(rec); err != nil {
		log.Warn().Err(err).Str("path", l.Path()).Msg("could not write audit log")
	}
}

func writeFindings(w io.Writer, findings []types.Finding, res engine.Result, s scanSetup) error {
	opts := report.PrintOptions{
		NoColor:      s.noColor,
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
		FilesSkipped: res.FilesSkipped,
		InertRules:   res.InertRules,
	}
	switch s.format {
	case "sarif":
		stats := map[string]int{"filesScanned": res.FilesScanned, "filesSkipped": res.FilesSkipped, "inertRules": res.InertRules}
		if err := report.WriteSARIF(w, findings, report.SARIFOptions{Version: version, Stats: stats}); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case "json":
		return report.WriteJSON(w, findings)
	case "csv":
		return report.WriteCSV(w, findings)
	case "table":
		report.PrintTable(w, findings, opts)
	default:
		report.PrintText(w, findings, opts)
	}
	return nil
}

func displayPath(p, root string) string {
	rel := report.Relativize([]types.Finding{{Source: p}}, root)
	return rel[0].Source
}

package keyleak

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagJSON     bool
	flagSARIF    bool
	flagThreads  int
	flagNoColor  bool
	flagDryRun   bool
	flagLogLevel string
	flagDebug    bool

	version = "0.1.0"
)

// errFindings signals that the scan completed and reported findings.
var errFindings = errors.New("findings reported")

// rootCmd is the base Cobra command for the keyleak CLI.
var rootCmd = &cobra.Command{
	Use:           "keyleak",
	Short:         "Find secrets in files and directories",
	Long:          "keyleak scans files, directory trees or stdin with a declarative rule set and reports likely secrets.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging(logLevel(""))
	},
}

// Execute runs the keyleak CLI. It should be called by the main package.
// Exit status is 0 without findings, 1 when findings are reported and 2 on
// any error.
func Execute() {
	os.Exit(exitCode(rootCmd.Execute()))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFindings):
		return 1
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 or 1 = serial)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "show what would be scanned without opening files")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace|debug|info|warn|error (default warn)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "shorthand for --log-level debug")
}

// logLevel resolves the effective level: --debug, then --log-level, then the
// config value, then warn.
func logLevel(fromConfig string) string {
	switch {
	case flagDebug:
		return "debug"
	case flagLogLevel != "":
		return flagLogLevel
	case fromConfig != "":
		return fromConfig
	default:
		return "warn"
	}
}

// setupLogging configures the global logger on stderr.
func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    flagNoColor,
		TimeFormat: time.RFC3339,
	})
}

package keyleak

import (
	"fmt"
	"os"

	"github.com/keyleak/keyleak/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgOutput   string
	cfgForce    bool
	cfgDisable  string
	cfgThreads  int
	cfgMaxBytes int64
	cfgFormat   string
	cfgNoColor  bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter " + config.LocalNames[0],
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", config.LocalNames[0], "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&cfgDisable, "disable", "", "comma-separated rule IDs to disable")
	initCmd.Flags().IntVar(&cfgThreads, "threads", 0, "worker threads (0 = serial)")
	initCmd.Flags().Int64Var(&cfgMaxBytes, "max-bytes", defaultMaxBytes, "skip files larger than this")
	initCmd.Flags().StringVar(&cfgFormat, "format", "text", "default output format")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
	}
	fc := config.FileConfig{
		Disable:  optStrPtr(cfgDisable),
		MaxBytes: int64Ptr(cfgMaxBytes),
		Threads:  intPtr(cfgThreads),
		Format:   strPtr(cfgFormat),
		NoColor:  boolPtr(cfgNoColor),
	}
	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	b = append([]byte("# keyleak configuration; see `keyleak scan --help` for all keys\n"), b...)
	if err := os.WriteFile(cfgOutput, b, 0644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}

package keyleak

import (
	"fmt"

	"github.com/keyleak/keyleak/internal/engine"
	"github.com/keyleak/keyleak/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	update := &cobra.Command{
		Use:   "update [path]",
		Short: "Record current findings so later scans only report new ones",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			s, err := resolveScan(cmd, root)
			if err != nil {
				return err
			}
			s.cfg.DryRun = false
			res, err := engine.ScanWithStats(s.cfg)
			if err != nil {
				return err
			}
			path := s.baseline
			if path == "" {
				path = report.DefaultBaselineFile
			}
			if err := report.SaveBaseline(path, report.Relativize(res.Findings, root)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated: %d finding(s) recorded in %s\n", len(res.Findings), path)
			return nil
		},
	}

	update.Flags().StringVar(&flagBaseline, "baseline", "", "baseline file (default "+report.DefaultBaselineFile+")")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}

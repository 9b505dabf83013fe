package keyleak

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/keyleak/keyleak/internal/audit"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var flagHistoryLimit int

func init() {
	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Show recorded scan runs",
		Long:  "Show scan records written with --audit-log, newest first. The path is the audit log file or the directory it lives in (default \".\").",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			l := audit.New(path)
			records, err := l.History()
			if err != nil {
				return err
			}
			if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
				records = records[:flagHistoryLimit]
			}
			out := cmd.OutOrStdout()
			if flagJSON {
				if records == nil {
					records = []audit.ScanRecord{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				fmt.Fprintf(out, "No scan history in %s\n", l.Path())
				return nil
			}
			table := tablewriter.NewWriter(out)
			table.Header("Time", "Root", "Findings", "New", "Files", "Duration")
			for _, r := range records {
				_ = table.Append([]string{
					r.Timestamp.Local().Format("2006-01-02 15:04:05"),
					r.Root,
					strconv.Itoa(r.TotalFindings),
					strconv.Itoa(r.NewFindings),
					strconv.Itoa(r.FilesScanned),
					r.Duration,
				})
			}
			return table.Render()
		},
	}
	cmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "show at most this many records (0 = all)")
	rootCmd.AddCommand(cmd)
}

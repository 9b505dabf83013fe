package keyleak

import (
	"fmt"

	"github.com/keyleak/keyleak/internal/ignore"
	"github.com/spf13/cobra"
)

var flagIgnoreDir string

func init() {
	cmd := &cobra.Command{
		Use:   "ignore <pattern>...",
		Short: "Add paths or patterns to " + ignore.FileName,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			added, err := ignore.Append(flagIgnoreDir, args...)
			if err != nil {
				return fmt.Errorf("update %s: %w", ignore.FileName, err)
			}
			out := cmd.OutOrStdout()
			if len(added) == 0 {
				fmt.Fprintln(out, "Nothing to add; all patterns already present")
				return nil
			}
			for _, p := range added {
				fmt.Fprintf(out, "Added %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagIgnoreDir, "dir", ".", "directory holding "+ignore.FileName)
	rootCmd.AddCommand(cmd)
}

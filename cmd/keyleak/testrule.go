package keyleak

import (
	"fmt"
	"slices"
	"strings"

	"github.com/keyleak/keyleak/internal/engine"
	"github.com/keyleak/keyleak/internal/report"
	"github.com/keyleak/keyleak/internal/rules"
	"github.com/spf13/cobra"
)

var flagTestRuleFile string

func init() {
	cmd := &cobra.Command{
		Use:   "test-rule <id>",
		Short: "Run a single rule against provided text (stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			compiled, err := loadRules(flagTestRuleFile, "")
			if err != nil {
				return err
			}
			i := slices.IndexFunc(compiled, func(r rules.CompiledRule) bool { return r.ID == id })
			if i < 0 {
				ids := make([]string, len(compiled))
				for j, r := range compiled {
					ids[j] = r.ID
				}
				return fmt.Errorf("unknown rule id: %s (available: %s)", id, strings.Join(ids, ", "))
			}
			r := compiled[i]
			if r.Status == rules.Inert {
				return fmt.Errorf("rule %s is inert: %w", id, r.Err)
			}
			res, err := engine.ScanReader(cmd.InOrStdin(), engine.Config{Rules: compiled[i : i+1]})
			if err != nil {
				return err
			}
			report.PrintText(cmd.OutOrStdout(), res.Findings, report.PrintOptions{NoColor: true})
			if len(res.Findings) > 0 {
				return errFindings
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagTestRuleFile, "rule", "", "rule file (default: ./"+rules.DefaultFileName+" or the bundled rules)")
	rootCmd.AddCommand(cmd)
}

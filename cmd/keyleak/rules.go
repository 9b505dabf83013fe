package keyleak

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/keyleak/keyleak/internal/rules"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	flagRulesFile    string
	flagRulesDisable string
)

type ruleRow struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Engine   string   `json:"engine,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Entropy  *float64 `json:"entropy,omitempty"`
	Status   string   `json:"status"`
	Error    string   `json:"error,omitempty"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rules a scan would use",
		Long:  "List rules with their keywords, entropy threshold and status. Inert rules (patterns that failed to compile) are shown with their error.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			compiled, err := loadRules(flagRulesFile, flagRulesDisable)
			if err != nil {
				return err
			}
			rows := make([]ruleRow, len(compiled))
			for i, r := range compiled {
				rows[i] = ruleRow{
					ID:       r.ID,
					Name:     r.Name,
					Engine:   r.Engine(),
					Keywords: r.Rule.Keywords,
					Entropy:  r.Entropy,
					Status:   r.Status.String(),
				}
				if r.Err != nil {
					rows[i].Error = r.Err.Error()
				}
			}
			out := cmd.OutOrStdout()
			if flagJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			table := tablewriter.NewWriter(out)
			table.Header("ID", "Name", "Engine", "Keywords", "Entropy", "Status")
			for _, r := range rows {
				entropy := "-"
				if r.Entropy != nil {
					entropy = strconv.FormatFloat(*r.Entropy, 'f', -1, 64)
				}
				_ = table.Append([]string{r.ID, r.Name, r.Engine, strings.Join(r.Keywords, ","), entropy, r.Status})
			}
			if err := table.Render(); err != nil {
				return err
			}
			for _, r := range rows {
				if r.Error != "" {
					fmt.Fprintf(out, "inert %s: %s\n", r.ID, r.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagRulesFile, "rule", "", "rule file (default: ./"+rules.DefaultFileName+" or the bundled rules)")
	cmd.Flags().StringVar(&flagRulesDisable, "disable", "", "hide these rules (comma-separated IDs)")
	rootCmd.AddCommand(cmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phpsniff/phpsniff/internal/adapters/outbound/tui"
	"github.com/phpsniff/phpsniff/internal/domain"
)

type rulesetInfo struct {
	Name        domain.Ruleset `json:"name"`
	Description string         `json:"description"`
}

func newRulesetsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "rulesets",
		Short: "List the known WordPress rulesets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput {
				var list []rulesetInfo
				for _, r := range domain.Rulesets() {
					list = append(list, rulesetInfo{Name: r, Description: r.Describe()})
				}
				return renderJSON(cmd, map[string]any{
					"rulesets": list,
					"default":  domain.DefaultRuleset,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderRulesets(domain.DefaultRuleset))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

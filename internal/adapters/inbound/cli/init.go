package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phpsniff/phpsniff/internal/adapters/outbound/config"
	"github.com/phpsniff/phpsniff/internal/domain"
)

func newInitCmd() *cobra.Command {
	var (
		ruleset string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Generate a .phpsniff.yaml configuration file",
		Long:  "Create a .phpsniff.yaml with the default ruleset, timeouts and exclusions.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			dest := filepath.Join(absPath, config.FileName)

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
				}
			}

			rs := domain.Ruleset(ruleset)
			if ruleset != "" && !rs.Valid() {
				names := make([]string, 0, len(domain.Rulesets()))
				for _, r := range domain.Rulesets() {
					names = append(names, string(r))
				}
				return fmt.Errorf("unknown ruleset %q (valid: %s)", ruleset, strings.Join(names, ", "))
			}

			if err := os.WriteFile(dest, []byte(generateConfig(rs)), 0644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.FileName)
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleset, "ruleset", "", "Ruleset to configure (defaults to "+string(domain.DefaultRuleset)+")")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing .phpsniff.yaml")

	return cmd
}

func generateConfig(rs domain.Ruleset) string {
	if rs == "" {
		rs = domain.DefaultRuleset
	}
	cfg := domain.DefaultConfig()

	return fmt.Sprintf(`# phpsniff configuration

ruleset: %s

exclude:
  - vendor/**

scan_delay: %s
fix_timeout: %s

# Maximum concurrent fix processes. 0 or negative means unbounded.
# fix_concurrency: 4

# debug: true

# tools:
#   php: /usr/bin/php
#   phpcs: vendor/bin/phpcs
#   phpcbf: vendor/bin/phpcbf

# Run when phpcs or the WordPress standards are missing.
# install_command: [composer, global, require, wp-coding-standards/wpcs]
`, domain.NormalizeRuleset(rs), cfg.ScanDelay.Duration, cfg.FixTimeout.Duration)
}

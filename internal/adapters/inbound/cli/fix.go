package cli

import (
	"github.com/spf13/cobra"
)

func newFixCmd(d deps) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "fix [paths...]",
		Short: "Scan, then apply phpcbf to every file with fixable violations",
		Long:  "Equivalent to `scan --fix`. Each fix process is killed if it runs longer than the fix timeout; the file is then reported for manual fixing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, d, &flags, args, true)
		},
	}
	flags.register(cmd)

	return cmd
}

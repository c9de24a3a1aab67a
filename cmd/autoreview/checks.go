package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wikimedia-suomi/pendingbot/autoreview"
)

func newChecksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "checks",
		Short: "List the registered checks in evaluation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := autoreview.Registry()
			rows := make([][]string, 0, len(checks))
			for i, check := range checks {
				enabled := "no"
				if check.Enabled {
					enabled = "yes"
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					check.ID,
					check.Title,
					enabled,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Order", "Check", "Title", "Default"}, rows, 1))
			return nil
		},
	}
}

package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "Print every assessment a user has submitted, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		views, err := svc.ListByUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), views)
	},
}

package main

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <assessment-id>",
	Short: "Load an assessment from Postgres and print its normalized view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		view, err := svc.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), view)
	},
}

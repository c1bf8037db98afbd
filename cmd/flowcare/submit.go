package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"flowcare/internal/assessment/models"
	"flowcare/pkg/requestcontext"
)

var submitUser string

var submitCmd = &cobra.Command{
	Use:   "submit --user <user-id>",
	Short: "Submit an assessment payload (JSON on stdin) and print the stored view",
	Long: `Reads an assessment payload from stdin. Fields may be flattened
snake_case or camelCase nested under assessment_data.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var p models.Payload
		if err := json.NewDecoder(cmd.InOrStdin()).Decode(&p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}

		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		ctx := requestcontext.WithRequestID(cmd.Context(), uuid.NewString())
		view, err := svc.Submit(ctx, submitUser, p)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), view)
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitUser, "user", "", "owning user id")
	_ = submitCmd.MarkFlagRequired("user")
}

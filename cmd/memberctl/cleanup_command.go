package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/memberdesk/internal/app"
)

func newCleanupCINCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-cin",
		Short: "Remove empty national ID values that block the unique index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				n, err := a.Members.UnsetEmptyCIN(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d empty CIN value(s)\n", n)
				return nil
			})
		},
	}
}

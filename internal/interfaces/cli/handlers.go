package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
)

// NewHandlersCmd creates the handlers command group.
func NewHandlersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handlers",
		Short: "List or toggle grammatical handlers",
		Long: "Without a subcommand, handlers lists every handler in priority\n" +
			"order.  enable and disable change the handler set of the server\n" +
			"given by --server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHandlers(cmd, func(ctx context.Context, b Backend) (*apitypes.HandlerList, error) {
				return b.ListHandlers(ctx)
			})
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable <handler>",
			Short: "Activate a handler on the server",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runHandlers(cmd, func(ctx context.Context, b Backend) (*apitypes.HandlerList, error) {
					return b.EnableHandler(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "disable <handler>",
			Short: "Deactivate a handler on the server",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runHandlers(cmd, func(ctx context.Context, b Backend) (*apitypes.HandlerList, error) {
					return b.DisableHandler(ctx, args[0])
				})
			},
		},
	)
	return cmd
}

func runHandlers(cmd *cobra.Command, fn func(context.Context, Backend) (*apitypes.HandlerList, error)) error {
	c, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	return c.run(cmd.Context(), func(ctx context.Context, b Backend) error {
		list, err := fn(ctx, b)
		if err != nil {
			return err
		}
		c.Logger.Debug("handler set", logging.Strings("active", list.Active))
		return PrintResult(cmd, list)
	})
}

//Personal.AI order the ending

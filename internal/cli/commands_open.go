package cli

import (
	"bufio"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mekedron/clifood/internal/gateway/ifood"
)

func newOpenCommand(deps Dependencies, flags *globalFlags) *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open the iFood home page in a browser so you can sign in and pick an address.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withBrowser(ctx, deps, cmd, *flags, func(ctx context.Context, page ifood.Page) error {
				if err := deps.IFood.EnsureHome(ctx, page); err != nil {
					return emitUpstreamError(cmd, *flags, err)
				}
				if noWait {
					return nil
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Sign in to iFood and set your delivery address in the browser window.")
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Enter here when you are done.")
				if deps.Stdin != nil {
					reader := bufio.NewReader(deps.Stdin)
					_, _ = reader.ReadString('\n')
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return immediately instead of waiting for Enter. The browser closes with the command.")
	return cmd
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mekedron/clifood/internal/config"
)

func newConfigCommand(deps Dependencies, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change stored CLI configuration.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigShowCommand(deps, flags))
	cmd.AddCommand(newConfigSetCommand(deps, flags))
	return cmd
}

func newConfigShowCommand(deps Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration and where it is stored.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := deps.Config.Load(ctx)
			if err != nil {
				return emitError(cmd, *flags, "IFOOD_CONFIG_ERROR", err.Error())
			}
			lines := []string{
				"cdpUrl: " + cfg.CDPURL,
				"profileDir: " + cfg.ProfileDir,
				"headless: " + strconv.FormatBool(cfg.Headless),
				"slowMo: " + strconv.Itoa(cfg.SlowMo),
				"locale: " + cfg.Locale,
				"timeoutMs: " + strconv.Itoa(cfg.TimeoutMs),
			}
			title := "Config at " + deps.Config.Path() + ":"
			return writePlainResult(cmd, *flags, title, lines, cfg)
		},
	}
}

func newConfigSetCommand(deps Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value (cdpUrl, profileDir, headless, slowMo, locale, timeoutMs).",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := deps.Config.Load(ctx)
			if err != nil {
				return emitError(cmd, *flags, "IFOOD_CONFIG_ERROR", err.Error())
			}
			if err := config.ApplyValue(&cfg, args[0], args[1]); err != nil {
				return emitError(cmd, *flags, "IFOOD_CONFIG_ERROR", err.Error())
			}
			if err := deps.Config.Save(ctx, cfg); err != nil {
				return emitError(cmd, *flags, "IFOOD_CONFIG_ERROR", err.Error())
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", args[0], deps.Config.Path())
			return nil
		},
	}
}

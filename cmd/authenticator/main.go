// Command authenticator serves the /login, /refresh and /session endpoints.
//
// Configuration is read from authenticator.yml (or config.yml), a .env file
// and the environment; see authenticator.Config. KEY_PASSPHRASE unlocks
// encrypted signing and TLS keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/authkit/authenticator"
	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:          "authenticator",
		Short:        "Token server for username/password logins",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []config.LoaderOption
			if configFile != "" {
				opts = append(opts, config.WithConfigFile(configFile))
			}
			cfg, err := authenticator.LoadConfig(opts...)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	root.Flags().StringVar(&configFile, "config", "", "config file (default: search authenticator.yml)")
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	})
	return root
}

func serve(parent context.Context, cfg authenticator.Config) error {
	log := logger.Init(cfg.Logging, cfg.Name)
	log.Info("Starting authenticator", logger.Fields(
		"version", version.Get().Short(),
		"environment", cfg.Environment,
	))

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := authenticator.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	if err := app.Run(ctx); err != nil {
		log.Error("Authenticator stopped with error", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	log.Info("Authenticator stopped")
	return nil
}

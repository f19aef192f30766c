// Package cmd provides the CLI commands for medchat.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medchat/medchat/internal/app"
	"github.com/medchat/medchat/internal/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "medchat",
		Short: "Terminal client for a self-hosted assistant chat backend",
		Long: `Medchat is a terminal chat client for a self-hosted assistant
backend. It keeps conversations on the server, caches session history
locally, and renders assistant replies as formatted markdown.

Start it with no arguments to enter the interactive chat session.`,
		RunE:          runChat,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging to the data directory")
	cmd.PersistentFlags().String("server", "", "Override the configured server URL")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if server, _ := cmd.Flags().GetString("server"); server != "" {
		cfg.ServerURL = server
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.Auth.Authenticated() {
		return fmt.Errorf("not logged in; run 'medchat login' first")
	}

	return newREPL(a).run(cmd.Context())
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

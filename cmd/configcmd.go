package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medchat/medchat/internal/app"
	"github.com/medchat/medchat/internal/config"
	"github.com/medchat/medchat/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		RunE:  runConfigShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration field",
		Long: `Set a configuration field. The keys "theme" and "language" are
preferences stored in the local database; every other key is a field in
the configuration file, addressed with JSON path notation. Examples:

  medchat config set theme dark
  medchat config set language en
  medchat config set server_url https://chat.internal/api
  medchat config set default_model llama3
  medchat config set log_level debug`,
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore default theme and language",
		RunE:  runConfigReset,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Run: func(*cobra.Command, []string) {
			fmt.Println(config.GlobalConfigPath())
		},
	})

	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.Config

	fmt.Printf("Server:        %s\n", cfg.BaseURL())
	fmt.Printf("Timeout:       %s\n", cfg.Timeout())
	fmt.Printf("Data dir:      %s\n", cfg.DataDir)
	fmt.Printf("Log level:     %s\n", cfg.Level())
	fmt.Printf("Theme:         %s\n", a.UI.Theme())
	fmt.Printf("Language:      %s\n", a.UI.Language())
	if cfg.DefaultModel != "" {
		fmt.Printf("Default model: %s\n", cfg.DefaultModel)
	}
	if cfg.Token != "" {
		fmt.Println("Session:       saved")
	} else {
		fmt.Println("Session:       none")
	}
	return nil
}

func runConfigReset(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.UI.ResetSettings(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Theme and language restored to defaults.")
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	// Theme and language are preferences, not config-file fields.
	if key == "theme" || key == "language" {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := applyPreference(cmd.Context(), a, key, value); err != nil {
			return err
		}
		fmt.Printf("Set %s.\n", key)
		return nil
	}

	if err := config.SetConfigField(key, value); err != nil {
		return err
	}
	fmt.Printf("Set %s.\n", key)
	return nil
}

// applyPreference routes a preference key to the UI store, which persists
// it in the local database.
func applyPreference(ctx context.Context, a *app.App, key, value string) error {
	switch key {
	case "theme":
		switch ui.Theme(value) {
		case ui.ThemeLight, ui.ThemeDark:
		default:
			return fmt.Errorf("unsupported theme %q", value)
		}
		if a.UI.Theme() != ui.Theme(value) {
			if _, err := a.UI.ToggleTheme(ctx); err != nil {
				return err
			}
		}
		return nil
	case "language":
		return a.UI.SetLanguage(ctx, ui.Language(value))
	}
	return fmt.Errorf("unknown preference %q", key)
}

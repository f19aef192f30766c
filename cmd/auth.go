package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/medchat/medchat/internal/app"
	"github.com/medchat/medchat/internal/config"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [email]",
		Short: "Authenticate against the server and save the session",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLogin,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// Do not resume the previous session while replacing it.
	cfg.Token = ""

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	email := ""
	if len(args) > 0 {
		email = args[0]
	} else {
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	user, err := a.Auth.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	if err := config.SetConfigField("token", a.Auth.Token()); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	fmt.Printf("Logged in as %s (%s).\n", user.FullName, user.Email)
	return nil
}

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <email> <full name>",
		Short: "Request a new account",
		Long: `Request a new account on the server. Accounts are activated by an
operator, so registering does not log you in.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runRegister,
	}
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Token = ""

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	email := args[0]
	fullName := strings.Join(args[1:], " ")

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	result, err := a.Auth.Register(cmd.Context(), email, password, fullName)
	if err != nil {
		return err
	}

	if result.Message != "" {
		fmt.Println(result.Message)
	} else {
		fmt.Println("Account requested. An operator will activate it.")
	}
	return nil
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
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
				fmt.Println("Not logged in.")
				return nil
			}

			user, err := a.Auth.LoadProfile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\nServer: %s\n", user.FullName, user.Email, cfg.BaseURL())
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(*cobra.Command, []string) error {
			if err := config.SetConfigField("token", ""); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func promptLine(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}

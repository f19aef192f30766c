package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medchat/medchat/internal/app"
	"github.com/medchat/medchat/internal/models"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: "List or search locally saved sessions",
		Args:  cobra.ArbitraryArgs,
		RunE:  runHistory,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a saved session",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDelete,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every saved session",
		RunE:  runHistoryClear,
	})

	return cmd
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return app.New(cmd.Context(), cfg)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := a.History.Search(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}

	for _, session := range sessions {
		fmt.Printf("%s  %-32s  %d messages, updated %s\n",
			session.ID, session.Title, len(session.Messages),
			session.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.History.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("no saved session %q", args[0])
	}

	render := newRenderer(a.UI.Theme())
	fmt.Println(render.title(session.Title))
	for _, msg := range session.Messages {
		switch msg.Role {
		case models.RoleUser:
			fmt.Println(render.userLine(msg.Content))
		default:
			fmt.Println(render.markdown(msg.Content))
		}
	}
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.History.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.History.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("History cleared.")
	return nil
}

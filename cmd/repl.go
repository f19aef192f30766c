package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/medchat/medchat/internal/app"
	"github.com/medchat/medchat/internal/events"
	"github.com/medchat/medchat/internal/models"
	"github.com/medchat/medchat/internal/ui"
)

// repl is the interactive chat session. Input is read line by line; lines
// starting with a slash are commands, anything else is sent as a message.
// Input is not accepted while a send is in flight, so at most one request
// is outstanding at a time.
type repl struct {
	app    *app.App
	render *renderer

	// sessionID keys the local history snapshot for this session. A new
	// id is minted whenever the conversation changes.
	sessionID string

	// attachments queued by /attach, consumed by the next send.
	attachments []models.Attachment

	model string
}

func newREPL(a *app.App) *repl {
	return &repl{
		app:       a,
		render:    newRenderer(a.UI.Theme()),
		sessionID: uuid.NewString(),
	}
}

func (r *repl) run(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.watchHistory(watchCtx)

	user := r.app.Auth.User()
	fmt.Println(r.render.title("medchat"))
	fmt.Printf("Logged in as %s. Type /help for commands, /quit to leave.\n\n", user.Email)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		for _, line := range r.pendingNotices() {
			fmt.Println(line)
		}

		fmt.Print(r.render.prompt(r.promptLabel()))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, line)
			if err != nil {
				r.app.UI.Notify(err.Error(), ui.SeverityError)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := r.send(ctx, line); err != nil {
			r.app.UI.Notify(err.Error(), ui.SeverityError)
		}
	}
}

// watchHistory turns external history-cache changes into a visible
// notification. Local saves and deletes also flow through the broker but
// were just echoed by the command that caused them.
func (r *repl) watchHistory(ctx context.Context) {
	for event := range r.app.HistoryEvents.Subscribe(ctx) {
		if event.Payload.Type == events.HistoryEventReload {
			r.app.UI.Notify("session history changed outside this window", ui.SeverityInfo)
		}
	}
}

// pendingNotices drains the notification queue into printable lines,
// oldest first.
func (r *repl) pendingNotices() []string {
	notes := r.app.UI.Notifications()
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, r.render.noticeLine(n.Severity, n.Message))
		r.app.UI.Dismiss(n.ID)
	}
	return lines
}

func (r *repl) promptLabel() string {
	current := r.app.Chat.Current()
	label := "no conversation"
	if current != nil {
		label = current.Name
	}
	if n := len(r.attachments); n > 0 {
		label = fmt.Sprintf("%s (+%d file)", label, n)
	}
	return label
}

// command dispatches a slash command. Returns true when the session should
// end.
func (r *repl) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/quit", "/exit":
		r.snapshot(ctx)
		return true, nil
	case "/help":
		r.printHelp()
		return false, nil
	case "/new":
		return false, r.newConversation(ctx, strings.Join(args, " "))
	case "/list":
		return false, r.listConversations(ctx)
	case "/load":
		return false, r.loadConversation(ctx, args)
	case "/delete":
		return false, r.deleteConversation(ctx, args)
	case "/attach":
		return false, r.attach(args)
	case "/model":
		return false, r.chooseModel(ctx, args)
	case "/history":
		return false, r.showHistory(ctx, strings.Join(args, " "))
	case "/theme":
		return false, r.toggleTheme(ctx)
	case "/language":
		return false, r.setLanguage(ctx, args)
	case "/reset":
		r.app.Chat.Reset()
		r.attachments = nil
		r.sessionID = uuid.NewString()
		fmt.Println("Conversation closed.")
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s; try /help", name)
	}
}

func (r *repl) printHelp() {
	fmt.Print(`Commands:
  /new [name]     start a new conversation
  /list           list conversations on the server
  /load <id>      open a conversation
  /delete <id>    delete a conversation
  /attach <path>  queue a file for the next message
  /model [name]   list models, or pick one for new conversations
  /history [q]    list or search locally saved sessions
  /theme          toggle between light and dark
  /language <it|en>  switch the interface language
  /reset          close the current conversation
  /quit           save the session and leave
`)
}

func (r *repl) send(ctx context.Context, text string) error {
	current := r.app.Chat.Current()
	if current == nil {
		if err := r.newConversation(ctx, ""); err != nil {
			return err
		}
	}

	attachments := r.attachments
	r.attachments = nil

	fmt.Println(r.render.spinnerLine("waiting for the assistant"))
	reply, err := r.app.Chat.Send(ctx, text, attachments)
	if err != nil {
		// The user message stays in the conversation; only the reply
		// is missing.
		r.snapshot(ctx)
		return err
	}

	fmt.Println(r.render.markdown(reply.Content))
	r.snapshot(ctx)
	return nil
}

// snapshot saves the open conversation into the local history cache.
func (r *repl) snapshot(ctx context.Context) {
	current := r.app.Chat.Current()
	if current == nil || len(current.Messages) == 0 {
		return
	}
	if _, err := r.app.History.Upsert(ctx, r.sessionID, current.Messages); err != nil {
		r.app.Log.Warn().Err(err).Msg("saving session history")
	}
}

func (r *repl) newConversation(ctx context.Context, name string) error {
	if name == "" {
		name = "New chat"
	}
	model := r.model
	if model == "" {
		model = r.app.Config.DefaultModel
	}
	if model == "" {
		infos, err := r.app.Client.ListModels(ctx)
		if err != nil || len(infos) == 0 {
			return fmt.Errorf("no model selected; use /model to pick one")
		}
		model = infos[0].Name
	}

	conv, err := r.app.Chat.Create(ctx, name, model)
	if err != nil {
		return err
	}
	r.sessionID = uuid.NewString()
	r.attachments = nil
	fmt.Printf("Started %q with model %s.\n", conv.Name, conv.Model)
	return nil
}

func (r *repl) listConversations(ctx context.Context) error {
	summaries, err := r.app.Chat.List(ctx)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No conversations yet. Use /new to start one.")
		return nil
	}
	for _, s := range summaries {
		fmt.Println(r.render.summaryLine(s))
	}
	return nil
}

func (r *repl) loadConversation(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	r.snapshot(ctx)
	conv, err := r.app.Chat.Load(ctx, id)
	if err != nil {
		return err
	}

	r.sessionID = uuid.NewString()
	r.attachments = nil
	fmt.Printf("Loaded %q (%d messages).\n", conv.Name, len(conv.Messages))
	for _, msg := range conv.Messages {
		r.printMessage(msg)
	}
	return nil
}

func (r *repl) deleteConversation(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if err := r.app.Chat.Delete(ctx, id); err != nil {
		return err
	}
	r.app.UI.Notify(fmt.Sprintf("deleted conversation %d", id), ui.SeveritySuccess)
	return nil
}

func (r *repl) attach(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: /attach <path>")
	}
	path := strings.Join(args, " ")

	att, err := models.LoadAttachment(path)
	if err != nil {
		return err
	}
	r.attachments = append(r.attachments, att)
	fmt.Printf("Queued %s (%s, %d bytes).\n", att.FileName, att.MimeType, len(att.Data))
	return nil
}

func (r *repl) chooseModel(ctx context.Context, args []string) error {
	if len(args) > 0 {
		r.model = args[0]
		fmt.Printf("New conversations will use %s.\n", r.model)
		return nil
	}

	infos, err := r.app.Client.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("The server reports no models.")
		return nil
	}
	for _, info := range infos {
		marker := "  "
		if info.Name == r.model {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, info.Name)
	}
	return nil
}

func (r *repl) showHistory(ctx context.Context, query string) error {
	sessions, err := r.app.History.Search(ctx, query)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}
	for _, session := range sessions {
		fmt.Println(r.render.historyLine(session))
	}
	return nil
}

func (r *repl) toggleTheme(ctx context.Context) error {
	theme, err := r.app.UI.ToggleTheme(ctx)
	if err != nil {
		return err
	}
	r.render = newRenderer(theme)
	fmt.Printf("Theme set to %s.\n", theme)
	return nil
}

func (r *repl) setLanguage(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Printf("Language is %s.\n", r.app.UI.Language())
		return nil
	}
	if err := r.app.UI.SetLanguage(ctx, ui.Language(args[0])); err != nil {
		return err
	}
	fmt.Printf("Language set to %s.\n", args[0])
	return nil
}

func (r *repl) printMessage(msg models.Message) {
	switch msg.Role {
	case models.RoleUser:
		fmt.Println(r.render.userLine(msg.Content))
	case models.RoleAssistant:
		fmt.Println(r.render.markdown(msg.Content))
	}
}

func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("conversation id required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid conversation id %q", args[0])
	}
	return id, nil
}

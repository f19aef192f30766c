package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/medchat/medchat/internal/history"
	"github.com/medchat/medchat/internal/models"
	"github.com/medchat/medchat/internal/ui"
)

const wrapWidth = 100

// renderer styles terminal output for the active theme. Assistant replies
// go through a markdown renderer; everything else is plain lipgloss.
type renderer struct {
	markdownR *glamour.TermRenderer

	titleStyle  lipgloss.Style
	promptStyle lipgloss.Style
	userStyle   lipgloss.Style
	errorStyle  lipgloss.Style
	dimStyle    lipgloss.Style
}

func newRenderer(theme ui.Theme) *renderer {
	style := "light"
	if theme == ui.ThemeDark {
		style = "dark"
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		md = nil
	}

	accent := lipgloss.AdaptiveColor{Light: "25", Dark: "39"}

	return &renderer{
		markdownR:   md,
		titleStyle:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		promptStyle: lipgloss.NewStyle().Foreground(accent),
		userStyle:   lipgloss.NewStyle().Bold(true),
		errorStyle:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "124", Dark: "203"}),
		dimStyle:    lipgloss.NewStyle().Faint(true),
	}
}

func (r *renderer) title(text string) string {
	return r.titleStyle.Render(text)
}

func (r *renderer) prompt(label string) string {
	return r.promptStyle.Render(label+" >") + " "
}

func (r *renderer) userLine(content string) string {
	return r.userStyle.Render("you: ") + content
}

func (r *renderer) errorLine(message string) string {
	return r.errorStyle.Render("error: " + message)
}

// noticeLine renders a queued notification for its severity.
func (r *renderer) noticeLine(severity, message string) string {
	switch severity {
	case ui.SeverityError:
		return r.errorLine(message)
	case ui.SeverityWarning:
		return r.errorStyle.Render("warning: ") + message
	case ui.SeveritySuccess:
		return r.promptStyle.Render("ok: ") + message
	default:
		return r.dimStyle.Render(message)
	}
}

func (r *renderer) spinnerLine(message string) string {
	return r.dimStyle.Render("... " + message)
}

// markdown renders assistant content, falling back to the raw text when
// the renderer is unavailable.
func (r *renderer) markdown(content string) string {
	if r.markdownR == nil {
		return content
	}
	out, err := r.markdownR.Render(content)
	if err != nil {
		return content
	}
	return out
}

func (r *renderer) summaryLine(s models.Summary) string {
	line := fmt.Sprintf("%4d  %-30s", s.ID, s.Name)
	meta := fmt.Sprintf("%s, %d messages, updated %s",
		s.Model, s.MessageCount, s.UpdatedAt.Format("2006-01-02 15:04"))
	return line + "  " + r.dimStyle.Render(meta)
}

func (r *renderer) historyLine(s history.SavedSession) string {
	meta := fmt.Sprintf("%d messages, updated %s",
		len(s.Messages), s.UpdatedAt.Format("2006-01-02 15:04"))
	return fmt.Sprintf("%-32s  %s", s.Title, r.dimStyle.Render(meta))
}

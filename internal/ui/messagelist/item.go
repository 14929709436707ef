package messagelist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/mailshelf/internal/model"
	"github.com/nhle/mailshelf/internal/theme"
)

// MessageItem wraps a model.Message so it can be used in a bubbles/list.
type MessageItem struct {
	Message model.Message
}

// FilterValue returns the string used for fuzzy filtering.
func (i MessageItem) FilterValue() string { return i.Message.Subject }

// Title returns the subject for the list.
func (i MessageItem) Title() string { return i.Message.Subject }

// Description returns a short summary line for the list.
func (i MessageItem) Description() string {
	parts := []string{i.Message.Sender, formatDate(i.Message.Date)}
	if n := i.Message.NumAttachments(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d attachments", n))
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate renders one message per line: date, sender, subject and an
// attachment badge.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}
	msg := mi.Message

	date := theme.DateStyle.Render(fmt.Sprintf("%-16s", formatDate(msg.Date)))
	sender := theme.SenderStyle.Render(fmt.Sprintf("%-24s", truncate(msg.Sender, 24)))

	badge := ""
	if n := msg.NumAttachments(); n > 0 {
		badge = theme.AttachmentBadgeStyle.Render(
			fmt.Sprintf(" [%d, %s]", n, humanize.Bytes(uint64(msg.TotalAttachmentBytes()))),
		)
	}

	width := m.Width() - lipgloss.Width(date) - lipgloss.Width(sender) - lipgloss.Width(badge) - 6
	line := fmt.Sprintf("%s %s %s%s", date, sender, truncate(msg.Subject, max(width, 10)), badge)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// truncate shortens s to n display cells, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r)) > n-1 {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

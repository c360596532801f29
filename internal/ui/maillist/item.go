package maillist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"mailsort/internal/model"
	"mailsort/internal/theme"
	"mailsort/internal/view"
)

// senderWidth bounds the sender column so long display names cannot push
// the subject off screen.
const senderWidth = 24

// renderRow draws a single email line: mark indicator, sender, subject,
// and relative receive time.
func renderRow(email model.Email, a view.Annotation, focused bool, width int) string {
	mark := "[ ]"
	if a.Selected {
		mark = theme.MarkedItemStyle.Render("[x]")
	}

	sender := truncate(displaySender(email.Sender), senderWidth)
	sender = fmt.Sprintf("%-*s", senderWidth, sender)

	timeStr := relativeTime(email.ReceivedAt)

	subjectWidth := width - senderWidth - len(timeStr) - 12
	if subjectWidth < 10 {
		subjectWidth = 10
	}
	subject := truncate(email.Subject, subjectWidth)
	if subject == "" {
		subject = "(no subject)"
	}

	line := fmt.Sprintf("%s %s  %s  %s",
		mark,
		sender,
		subject,
		lipgloss.NewStyle().Foreground(theme.ColorGray).Render(timeStr),
	)

	if focused {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// renderSummary draws the inline summary block shown under a row when
// the user has toggled it open.
func renderSummary(email model.Email, width int) string {
	text := "no summary generated yet, mark and press S"
	if email.AISummary != nil && *email.AISummary != "" {
		text = *email.AISummary
	}
	return theme.SummaryStyle.Width(width - 4).Render(text)
}

// displaySender prefers the display name portion of a From value and
// falls back to the bare address.
func displaySender(sender string) string {
	if i := strings.Index(sender, "<"); i > 0 {
		name := strings.TrimSpace(sender[:i])
		name = strings.Trim(name, `"`)
		if name != "" {
			return name
		}
	}
	return sender
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}

package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

const toastMaxWidth = 60

type toast struct {
	kind  toastKind
	text  string
	start time.Time
	ttl   time.Duration
}

func (t *toast) remaining(now time.Time) int {
	left := t.ttl - now.Sub(t.start)
	if left < 0 {
		return 0
	}
	return int(left.Round(time.Second).Seconds())
}

func toastTTL(kind toastKind) time.Duration {
	switch kind {
	case toastError:
		return 10 * time.Second
	case toastSuccess:
		return 5 * time.Second
	default:
		return 3 * time.Second
	}
}

// showToast replaces the current toast and makes sure a tick is running.
func (m *App) showToast(kind toastKind, text string) tea.Cmd {
	m.toast = &toast{kind: kind, text: text, start: m.now(), ttl: toastTTL(kind)}
	if m.toastTicking {
		return nil
	}
	m.toastTicking = true
	return scheduleToastTick()
}

func (m *App) showError(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return m.showToast(toastError, err.Error())
}

func (m *App) handleToastTick() tea.Cmd {
	if m.toast == nil || m.now().Sub(m.toast.start) >= m.toast.ttl {
		m.toast = nil
		m.toastTicking = false
		return nil
	}
	return scheduleToastTick()
}

// renderToast renders the current toast with a right-aligned countdown.
func (m *App) renderToast() string {
	if m.toast == nil {
		return ""
	}
	text := wordwrap.String(m.toast.text, toastMaxWidth)
	if m.toast.kind == toastError {
		text = "⚠ Error\n" + text
	}
	countdown := styleStatsDim.Render(fmt.Sprintf("[%ds]", m.toast.remaining(m.now())))

	width := lipgloss.Width(text)
	if width < 30 {
		width = 30
	}
	padding := width - lipgloss.Width(countdown)
	if padding < 0 {
		padding = 0
	}
	content := text + "\n" + strings.Repeat(" ", padding) + countdown

	switch m.toast.kind {
	case toastError:
		return styleErrorToast.Render(content)
	case toastSuccess:
		return styleSuccessToast.Render(content)
	default:
		return styleInfoToast.Render(content)
	}
}

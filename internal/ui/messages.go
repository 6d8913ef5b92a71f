package ui

import (
	"time"

	"dialpad/internal/engine"
	"dialpad/internal/event"
	"dialpad/internal/update"

	tea "github.com/charmbracelet/bubbletea"
)

// updateAvailableMsg carries an update notice from the engine. ch is the
// subscription it was read from so a stale reader does not re-arm.
type updateAvailableMsg struct {
	ev *event.Event[update.Notice]
	ch <-chan *event.Event[update.Notice]
}

type uploadFinishedMsg struct {
	ev *event.Event[string]
	ch <-chan *event.Event[string]
}

type callUpdateMsg struct {
	ev *event.Event[engine.CallUpdate]
	ch <-chan *event.Event[engine.CallUpdate]
}

// waitFor blocks on a subscription and wraps the next event. A closed
// subscription yields no message.
func waitFor[T any](ch <-chan *event.Event[T], wrap func(*event.Event[T]) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(ev)
	}
}

func waitForUpdate(ch <-chan *event.Event[update.Notice]) tea.Cmd {
	return waitFor(ch, func(ev *event.Event[update.Notice]) tea.Msg {
		return updateAvailableMsg{ev: ev, ch: ch}
	})
}

func waitForUpload(ch <-chan *event.Event[string]) tea.Cmd {
	return waitFor(ch, func(ev *event.Event[string]) tea.Msg {
		return uploadFinishedMsg{ev: ev, ch: ch}
	})
}

func waitForCall(ch <-chan *event.Event[engine.CallUpdate]) tea.Cmd {
	return waitFor(ch, func(ev *event.Event[engine.CallUpdate]) tea.Msg {
		return callUpdateMsg{ev: ev, ch: ch}
	})
}

type toastTickMsg struct{}

func scheduleToastTick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return toastTickMsg{}
	})
}

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"aipm/internal/types"
)

type snapshotTickMsg time.Time

type startResultMsg struct {
	err error
}

type sendResultMsg struct {
	err error
}

type updateDraftResultMsg struct {
	err error
}

type confirmResultMsg struct {
	err error
}

type copyResultMsg struct {
	err error
}

const snapshotTickInterval = 100 * time.Millisecond

func snapshotTick() tea.Cmd {
	return tea.Tick(snapshotTickInterval, func(t time.Time) tea.Msg {
		return snapshotTickMsg(t)
	})
}

func (m *Model) startCmd() tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		return startResultMsg{err: controller.Start(context.Background(), nil)}
	}
}

func (m *Model) sendCmd(text string) tea.Cmd {
	controller := m.controller
	streaming := m.streaming
	return func() tea.Msg {
		if streaming {
			return sendResultMsg{err: controller.SendStream(context.Background(), text)}
		}
		return sendResultMsg{err: controller.Send(context.Background(), text)}
	}
}

func (m *Model) updateDraftCmd(draft types.Draft) tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		return updateDraftResultMsg{err: controller.UpdateDraft(context.Background(), draft)}
	}
}

func (m *Model) confirmCmd() tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		return confirmResultMsg{err: controller.Confirm(context.Background())}
	}
}

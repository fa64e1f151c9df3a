package app

import (
	"errors"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"aipm/internal/types"
)

var clipboardWriteAll = clipboard.WriteAll

func (m *Model) copyLastReplyCmd() tea.Cmd {
	text := lastAgentReply(m.snap.Messages)
	return func() tea.Msg {
		if text == "" {
			return copyResultMsg{err: errors.New("no agent reply to copy")}
		}
		return copyResultMsg{err: clipboardWriteAll(text)}
	}
}

func lastAgentReply(messages []types.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.MessageRoleAgent {
			return messages[i].Content
		}
	}
	return ""
}

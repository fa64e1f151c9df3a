package session

import (
	"sort"

	"aipm/internal/types"
)

// messageLog keeps the transcript ordered by turn initiation, not by channel
// arrival. Each turn owns two slots: the user message and at most one agent
// message. Entries are keyed so an agent reply that arrives after a later
// turn's reply still lands in initiation order.
type messageLog struct {
	entries []logEntry
}

type logEntry struct {
	key int
	msg types.Message
}

func newMessageLog() *messageLog {
	return &messageLog{}
}

func userKey(turn int) int  { return turn * 2 }
func agentKey(turn int) int { return turn*2 + 1 }

func (l *messageLog) insert(key int, msg types.Message) {
	at := sort.Search(len(l.entries), func(i int) bool {
		return l.entries[i].key > key
	})
	l.entries = append(l.entries, logEntry{})
	copy(l.entries[at+1:], l.entries[at:])
	l.entries[at] = logEntry{key: key, msg: msg}
}

func (l *messageLog) appendUser(turn int, msg types.Message) {
	l.insert(userKey(turn), msg)
}

// appendAgent records the turn's single agent message. It reports false when
// the turn already has one.
func (l *messageLog) appendAgent(turn int, msg types.Message) bool {
	if l.hasAgentForTurn(turn) {
		return false
	}
	l.insert(agentKey(turn), msg)
	return true
}

// removeUser drops exactly the user entry for the given turn. Used to roll
// back the optimistic append of a failed send.
func (l *messageLog) removeUser(turn int) bool {
	key := userKey(turn)
	for i, entry := range l.entries {
		if entry.key == key {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (l *messageLog) hasAgentForTurn(turn int) bool {
	key := agentKey(turn)
	for _, entry := range l.entries {
		if entry.key == key {
			return true
		}
	}
	return false
}

// hasAgentContent reports whether any agent entry carries byte-identical
// content. The push channel and the response channel share no message id, so
// duplicate suppression is content equality.
func (l *messageLog) hasAgentContent(content string) bool {
	for _, entry := range l.entries {
		if entry.msg.Role == types.MessageRoleAgent && entry.msg.Content == content {
			return true
		}
	}
	return false
}

func (l *messageLog) messages() []types.Message {
	out := make([]types.Message, 0, len(l.entries))
	for _, entry := range l.entries {
		out = append(out, cloneMessage(entry.msg))
	}
	return out
}

func (l *messageLog) len() int {
	return len(l.entries)
}

func cloneMessage(msg types.Message) types.Message {
	if len(msg.ToolsUsed) > 0 {
		msg.ToolsUsed = append([]string{}, msg.ToolsUsed...)
	}
	return msg
}

package session

import (
	"testing"

	"aipm/internal/types"
)

func userMsg(text string) types.Message {
	return types.Message{Role: types.MessageRoleUser, Content: text}
}

func agentMsg(text string) types.Message {
	return types.Message{Role: types.MessageRoleAgent, Content: text}
}

func TestMessageLogOrdersByTurnNotArrival(t *testing.T) {
	log := newMessageLog()
	log.appendUser(1, userMsg("first question"))
	log.appendUser(2, userMsg("second question"))
	// Turn 2's reply lands before turn 1's.
	if !log.appendAgent(2, agentMsg("second answer")) {
		t.Fatalf("append agent 2 failed")
	}
	if !log.appendAgent(1, agentMsg("first answer")) {
		t.Fatalf("append agent 1 failed")
	}
	got := log.messages()
	want := []string{"first question", "first answer", "second question", "second answer"}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}
	for i, content := range want {
		if got[i].Content != content {
			t.Fatalf("position %d: got %q, want %q", i, got[i].Content, content)
		}
	}
}

func TestMessageLogOneAgentPerTurn(t *testing.T) {
	log := newMessageLog()
	log.appendUser(1, userMsg("question"))
	if !log.appendAgent(1, agentMsg("answer")) {
		t.Fatalf("first append failed")
	}
	if log.appendAgent(1, agentMsg("another answer")) {
		t.Fatalf("second agent message accepted for the same turn")
	}
	if log.len() != 2 {
		t.Fatalf("expected 2 entries, got %d", log.len())
	}
}

func TestMessageLogRemoveUserExact(t *testing.T) {
	log := newMessageLog()
	log.appendUser(1, userMsg("kept"))
	log.appendAgent(1, agentMsg("kept reply"))
	log.appendUser(2, userMsg("doomed"))
	if !log.removeUser(2) {
		t.Fatalf("removeUser failed")
	}
	if log.removeUser(2) {
		t.Fatalf("removeUser removed twice")
	}
	got := log.messages()
	if len(got) != 2 || got[0].Content != "kept" || got[1].Content != "kept reply" {
		t.Fatalf("unexpected remainder: %+v", got)
	}
}

func TestMessageLogContentDedupLookup(t *testing.T) {
	log := newMessageLog()
	log.appendUser(1, userMsg("same text"))
	log.appendAgent(1, agentMsg("reply"))
	if !log.hasAgentContent("reply") {
		t.Fatalf("agent content not found")
	}
	// User content never participates in agent dedup.
	if log.hasAgentContent("same text") {
		t.Fatalf("user content matched agent dedup")
	}
}

package types

import "encoding/json"

// Push channel event names. The push socket delivers named events keyed by
// the session they belong to; handlers must discard events addressed to a
// different session.
const (
	PushEventCreating            = "creating"
	PushEventCreated             = "created"
	PushEventEnriching           = "enriching"
	PushEventItemCreatedProgress = "item-created-progress"
	PushEventAllCreated          = "all-created"
	PushEventCreationError       = "creation-error"
	PushEventAssistantMessage    = "assistant-message"
	PushEventToolStarted         = "tool-started"
	PushEventToolFinished        = "tool-finished"
)

// PushEvent is one frame off the publish/subscribe channel. Data is decoded
// lazily per event name; a frame whose payload does not match its name is
// dropped by the consumer.
type PushEvent struct {
	Name      string          `json:"name"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// CreationProgressPayload accompanies the creation-progress event family.
type CreationProgressPayload struct {
	Message string `json:"message"`
	Current int    `json:"current,omitempty"`
	Total   int    `json:"total,omitempty"`
}

// AssistantMessagePayload carries a finished agent reply pushed out-of-band.
// The same content may also arrive on the request/response channel.
type AssistantMessagePayload struct {
	Content string `json:"content"`
}

// ToolUsagePayload reports a side-effect tool the agent invoked during the
// turn currently in flight.
type ToolUsagePayload struct {
	Tool string `json:"tool"`
}

func (e PushEvent) CreationProgress() (CreationProgressPayload, bool) {
	var payload CreationProgressPayload
	if len(e.Data) == 0 {
		return payload, false
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return CreationProgressPayload{}, false
	}
	return payload, true
}

func (e PushEvent) AssistantMessage() (AssistantMessagePayload, bool) {
	var payload AssistantMessagePayload
	if len(e.Data) == 0 {
		return payload, false
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil || payload.Content == "" {
		return AssistantMessagePayload{}, false
	}
	return payload, true
}

func (e PushEvent) ToolUsage() (ToolUsagePayload, bool) {
	var payload ToolUsagePayload
	if len(e.Data) == 0 {
		return payload, false
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil || payload.Tool == "" {
		return ToolUsagePayload{}, false
	}
	return payload, true
}

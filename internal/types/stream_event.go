package types

import "encoding/json"

type StreamEventType string

const (
	StreamEventToken           StreamEventType = "token"
	StreamEventSOPsFound       StreamEventType = "sops_found"
	StreamEventPreview         StreamEventType = "preview"
	StreamEventEntityCreated   StreamEventType = "entity_created"
	StreamEventEntitiesCreated StreamEventType = "entities_created"
	StreamEventError           StreamEventType = "error"
	StreamEventDone            StreamEventType = "done"
)

// StreamEvent is one decoded frame of the send-message-stream response.
type StreamEvent struct {
	Type StreamEventType `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type StreamTokenPayload struct {
	Text string `json:"text"`
}

type StreamSOPsFoundPayload struct {
	SOPs  []SOPMatch `json:"sops"`
	Phase string     `json:"phase,omitempty"`
}

type StreamPreviewPayload struct {
	Draft            Draft             `json:"draft"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
	ShowConfirmation bool              `json:"show_confirmation"`
	Phase            string            `json:"phase,omitempty"`
}

type StreamCreatedPayload struct {
	Entity   *CreatedEntity  `json:"entity,omitempty"`
	Entities []CreatedEntity `json:"entities,omitempty"`
}

type StreamErrorPayload struct {
	Message string `json:"message"`
}

type StreamDonePayload struct {
	Phase string `json:"phase,omitempty"`
}

func (e StreamEvent) Token() (StreamTokenPayload, bool) {
	var payload StreamTokenPayload
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return StreamTokenPayload{}, false
	}
	return payload, true
}

func (e StreamEvent) SOPsFound() (StreamSOPsFoundPayload, bool) {
	var payload StreamSOPsFoundPayload
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return StreamSOPsFoundPayload{}, false
	}
	return payload, true
}

func (e StreamEvent) Preview() (StreamPreviewPayload, bool) {
	var payload StreamPreviewPayload
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return StreamPreviewPayload{}, false
	}
	return payload, true
}

func (e StreamEvent) Created() (StreamCreatedPayload, bool) {
	var payload StreamCreatedPayload
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return StreamCreatedPayload{}, false
	}
	return payload, true
}

func (e StreamEvent) ErrorMessage() string {
	var payload StreamErrorPayload
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return ""
	}
	return payload.Message
}

func (e StreamEvent) Done() StreamDonePayload {
	var payload StreamDonePayload
	_ = json.Unmarshal(e.Data, &payload)
	return payload
}

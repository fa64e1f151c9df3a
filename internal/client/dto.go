package client

import "aipm/internal/types"

type StartSessionRequest struct {
	Kind    types.EntityKind  `json:"kind"`
	Options map[string]string `json:"options,omitempty"`
}

type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
	Greeting  string `json:"greeting,omitempty"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type SendMessageResponse struct {
	Response         string                  `json:"response"`
	Phase            string                  `json:"phase"`
	Draft            types.Draft             `json:"draft"`
	ValidationErrors []types.ValidationError `json:"validation_errors,omitempty"`
	ShowConfirmation bool                    `json:"show_confirmation"`
	CreatedEntity    *types.CreatedEntity    `json:"created_entity,omitempty"`
	CreatedEntities  []types.CreatedEntity   `json:"created_entities,omitempty"`
}

type UpdateDraftRequest struct {
	Draft types.Draft `json:"draft"`
}

type UpdateDraftResponse struct {
	Draft                types.Draft             `json:"draft"`
	ValidationErrors     []types.ValidationError `json:"validation_errors,omitempty"`
	ReadyForConfirmation bool                    `json:"ready_for_confirmation"`
}

type ConfirmResponse struct {
	Entity   *types.CreatedEntity  `json:"entity,omitempty"`
	Children []types.CreatedEntity `json:"children,omitempty"`
}

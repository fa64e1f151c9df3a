package session

import (
	"context"

	"aipm/internal/client"
	"aipm/internal/types"
)

// Transport is the request/response collaborator contract. *client.Client
// satisfies it; tests substitute fakes.
type Transport interface {
	StartSession(ctx context.Context, req client.StartSessionRequest) (*client.StartSessionResponse, error)
	SendMessage(ctx context.Context, sessionID, text string) (*client.SendMessageResponse, error)
	SendMessageStream(ctx context.Context, sessionID, text string) (<-chan types.StreamEvent, func(), error)
	UpdateDraft(ctx context.Context, sessionID string, draft types.Draft) (*client.UpdateDraftResponse, error)
	ConfirmSession(ctx context.Context, sessionID string) (*client.ConfirmResponse, error)
	CancelSession(ctx context.Context, sessionID string) error
}

// Archive receives the immutable record of a session that produced entities.
type Archive interface {
	SaveRecord(ctx context.Context, record *types.SessionRecord) error
}

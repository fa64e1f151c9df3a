package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"aipm/internal/client"
	"aipm/internal/types"
)

type fakeTransport struct {
	startFn   func(ctx context.Context, req client.StartSessionRequest) (*client.StartSessionResponse, error)
	sendFn    func(ctx context.Context, sessionID, text string) (*client.SendMessageResponse, error)
	streamFn  func(ctx context.Context, sessionID, text string) (<-chan types.StreamEvent, func(), error)
	updateFn  func(ctx context.Context, sessionID string, draft types.Draft) (*client.UpdateDraftResponse, error)
	confirmFn func(ctx context.Context, sessionID string) (*client.ConfirmResponse, error)
	cancelFn  func(ctx context.Context, sessionID string) error
}

func (f *fakeTransport) StartSession(ctx context.Context, req client.StartSessionRequest) (*client.StartSessionResponse, error) {
	if f.startFn == nil {
		return &client.StartSessionResponse{SessionID: "sess-1", Phase: "greeting"}, nil
	}
	return f.startFn(ctx, req)
}

func (f *fakeTransport) SendMessage(ctx context.Context, sessionID, text string) (*client.SendMessageResponse, error) {
	if f.sendFn == nil {
		return nil, errors.New("send not configured")
	}
	return f.sendFn(ctx, sessionID, text)
}

func (f *fakeTransport) SendMessageStream(ctx context.Context, sessionID, text string) (<-chan types.StreamEvent, func(), error) {
	if f.streamFn == nil {
		return nil, nil, errors.New("stream not configured")
	}
	return f.streamFn(ctx, sessionID, text)
}

func (f *fakeTransport) UpdateDraft(ctx context.Context, sessionID string, draft types.Draft) (*client.UpdateDraftResponse, error) {
	if f.updateFn == nil {
		return nil, errors.New("update not configured")
	}
	return f.updateFn(ctx, sessionID, draft)
}

func (f *fakeTransport) ConfirmSession(ctx context.Context, sessionID string) (*client.ConfirmResponse, error) {
	if f.confirmFn == nil {
		return nil, errors.New("confirm not configured")
	}
	return f.confirmFn(ctx, sessionID)
}

func (f *fakeTransport) CancelSession(ctx context.Context, sessionID string) error {
	if f.cancelFn == nil {
		return nil
	}
	return f.cancelFn(ctx, sessionID)
}

func startedController(t *testing.T, transport *fakeTransport, kind types.EntityKind) *Controller {
	t.Helper()
	controller := NewController(transport, Options{Kind: kind})
	if err := controller.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return controller
}

func sendResponse(reply, phase string) *client.SendMessageResponse {
	return &client.SendMessageResponse{Response: reply, Phase: phase}
}

func TestStartSeedsPhaseAndGreeting(t *testing.T) {
	transport := &fakeTransport{
		startFn: func(ctx context.Context, req client.StartSessionRequest) (*client.StartSessionResponse, error) {
			if req.Kind != types.EntityKindProject {
				t.Fatalf("unexpected kind: %s", req.Kind)
			}
			return &client.StartSessionResponse{SessionID: "sess-9", Phase: "greeting", Greeting: "Hello!"}, nil
		},
	}
	controller := NewController(transport, Options{Kind: types.EntityKindProject})
	if err := controller.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap := controller.Snapshot()
	if !snap.Started || snap.SessionID != "sess-9" || snap.Phase != types.PhaseGreeting {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Role != types.MessageRoleAgent || snap.Messages[0].Content != "Hello!" {
		t.Fatalf("greeting not recorded: %+v", snap.Messages)
	}
}

func TestStartFailureLeavesNotStartedAndRetries(t *testing.T) {
	calls := 0
	transport := &fakeTransport{
		startFn: func(ctx context.Context, req client.StartSessionRequest) (*client.StartSessionResponse, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("boom")
			}
			return &client.StartSessionResponse{SessionID: "sess-2", Phase: "greeting"}, nil
		},
	}
	controller := NewController(transport, Options{Kind: types.EntityKindTicket})
	err := controller.Start(context.Background(), nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if actionErr := AsActionError(err); actionErr == nil || actionErr.Kind != ActionErrorTransport {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := controller.Snapshot()
	if snap.Started || snap.LastError == "" {
		t.Fatalf("expected not-started with error surfaced: %+v", snap)
	}
	if err := controller.Start(context.Background(), nil); err != nil {
		t.Fatalf("retry Start: %v", err)
	}
	if snap := controller.Snapshot(); !snap.Started || snap.SessionID != "sess-2" {
		t.Fatalf("retry did not start session: %+v", snap)
	}
}

func TestSendAdoptsServerResponse(t *testing.T) {
	transport := &fakeTransport{
		sendFn: func(ctx context.Context, sessionID, text string) (*client.SendMessageResponse, error) {
			resp := sendResponse("Got it. What is the deadline?", "gathering")
			resp.Draft = types.Draft{Name: "Acme Campaign"}
			return resp, nil
		},
	}
	controller := startedController(t, transport, types.EntityKindProject)
	if err := controller.Send(context.Background(), "Create a campaign for Acme"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	snap := controller.Snapshot()
	if snap.Phase != types.PhaseGathering {
		t.Fatalf("phase not adopted: %s", snap.Phase)
	}
	if snap.Draft.Name != "Acme Campaign" {
		t.Fatalf("draft not adopted: %+v", snap.Draft)
	}
	if len(snap.Messages) != 2 {
		t.Fatalf("expected user+agent, got %d messages", len(snap.Messages))
	}
	if snap.Messages[0].Role != types.MessageRoleUser || snap.Messages[1].Role != types.MessageRoleAgent {
		t.Fatalf("unexpected roles: %+v", snap.Messages)
	}
}

func TestSendNotStarted(t *testing.T) {
	controller := NewController(&fakeTransport{}, Options{Kind: types.EntityKindTicket})
	err := controller.Send(context.Background(), "hello")
	if actionErr := AsActionError(err); actionErr == nil || actionErr.Kind != ActionErrorInvalid {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSendFailureRollsBackExactlyTheOptimisticMessage(t *testing.T) {
	step := 0
	transport := &fakeTransport{
		sendFn: func(ctx context.Context, sessionID, text string) (*client.SendMessageResponse, error) {
			step++
			if step == 1 {
				resp := sendResponse("First reply", "gathering")
				resp.Draft = types.Draft{Name: "Kept"}
				resp.ValidationErrors = []types.ValidationError{{Field: "lead", Message: "unknown"}}
				return resp, nil
			}
			return nil, errors.New("network down")
		},
	}
	controller := startedController(t, transport, types.EntityKindProject)
	if err := controller.Send(context.Background(), "first"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	before := controller.Snapshot()

	err := controller.Send(context.Background(), "second")
	if actionErr := AsActionError(err); actionErr == nil || actionErr.Kind != ActionErrorTransport {
		t.Fatalf("unexpected error: %v", err)
	}
	after := controller.Snapshot()
	if len(after.Messages) != len(before.Messages) {
		t.Fatalf("rollback not exact: before %d, after %d messages", len(before.Messages), len(after.Messages))
	}
	for i := range before.Messages {
		if after.Messages[i].Content != before.Messages[i].Content {
			t.Fatalf("message %d changed: %+v", i, after.Messages[i])
		}
	}
	if after.Draft.Name != "Kept" {
		t.Fatalf("draft touched by rollback: %+v", after.Draft)
	}
	if len(after.ValidationErrors) != 1 {
		t.Fatalf("validation errors touched by rollback: %+v", after.ValidationErrors)
	}
	if after.LastFailedInput != "second" {
		t.Fatalf("failed input not kept for retry: %q", after.LastFailedInput)
	}
	if !strings.Contains(after.LastError, "network down") {
		t.Fatalf("transport cause not surfaced: %q", after.LastError)
	}
}

func TestDraftFullyReplacedBySendResponse(t *testing.T) {
	step := 0
	transport := &fakeTransport{
		sendFn: func(ctx context.Context, sessionID, text string) (*client.SendMessageResponse, error) {
			step++
			resp := sendResponse("ok", "gathering")
			if step == 1 {
				resp.Draft = types.Draft{
					Name:    "Acme Campaign",
					Lead:    types.EntityRef{ID: "u1", Label: "Sarah"},
					Tags:    []string{"marketing"},
					Tickets: []types.TicketDraft{{Title: "Kickoff"}},
				}
			} else {
				resp.Draft = types.Draft{Name: "Acme Campaign v2"}
			}
			return resp, nil
		},
	}
	controller := startedController(t, transport, types.EntityKindProject)
	if err := controller.Send(context.Background(), "one"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := controller.Send(context.Background(), "two"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	draft := controller.Snapshot().Draft
	if draft.Name != "Acme Campaign v2" {
		t.Fatalf("unexpected name: %q", draft.Name)
	}
	if !draft.Lead.Empty() || len(draft.Tags) != 0 || len(draft.Tickets) != 0 {
		t.Fatalf("fields from prior draft survived: %+v", draft)
	}
}

func TestUpdateDraftReplacesWithoutAppendingMessages(t *testing.T) {
	transport := &fakeTransport{
		updateFn: func(ctx context.Context, sessionID string, draft types.Draft) (*client.UpdateDraftResponse, error) {
			return &client.UpdateDraftResponse{
				Draft:                types.Draft{Name: draft.Name, Lead: types.EntityRef{ID: "u2", Label: "Petra"}},
				ReadyForConfirmation: true,
			}, nil
		},
	}
	controller := startedController(t, transport, types.EntityKindProject)
	before := controller.Snapshot()
	if err := controller.UpdateDraft(context.Background(), types.Draft{Name: "Edited"}); err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	snap := controller.Snapshot()
	if len(snap.Messages) != len(before.Messages) {
		t.Fatalf("update-draft appended a message")
	}
	if snap.Draft.Name != "Edited" || snap.Draft.Lead.Empty() {
		t.Fatalf("draft not replaced: %+v", snap.Draft)
	}
	if !snap.ShowConfirmation {
		t.Fatalf("confirmation flag not adopted")
	}
}

func TestConfirmRequiresOpenGate(t *testing.T) {
	transport := &fakeTransport{}
	controller := startedController(t, transport, types.EntityKindProject)
	err := controller.Confirm(context.Background())
	if actionErr := AsActionError(err); actionErr == nil || actionErr.Kind != ActionErrorInvalid {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfirmRejectedServerSideSurfacesError(t *testing.T) {
	transport := &fakeTransport{
		sendFn: func(ctx context.Context, sessionID, text string) (*client.SendMessageResponse, error) {
			resp := sendResponse("ready", "preview")
			resp.Draft = previewProjectDraft()
			resp.ShowConfirmation = true
			return resp, nil
		},
		confirmFn: func(ctx context.Context, sessionID string) (*client.ConfirmResponse, error) {
			return nil, &client.APIError{StatusCode: 409, Message: "lead was deleted"}
		},
	}
	controller := startedController(t, transport, types.EntityKindProject)
	if err := controller.Send(context.Background(), "ready?"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	err := controller.Confirm(context.Background())
	if actionErr := AsActionError(err); actionErr == nil || actionErr.Kind != ActionErrorTransport {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := controller.Snapshot()
	if snap.Phase == types.PhaseCreated || len(snap.Created) != 0 {
		t.Fatalf("rejected confirm mutated terminal state: %+v", snap)
	}
	if snap.LastError == "" {
		t.Fatalf("error not surfaced")
	}
}

func TestCancelResetsLocallyAndNotifiesServer(t *testing.T) {
	cancelled := make(chan string, 1)
	transport := &fakeTransport{
		cancelFn: func(ctx context.Context, sessionID string) error {
			cancelled <- sessionID
			return errors.New("ignored")
		},
	}
	controller := startedController(t, transport, types.EntityKindGuideline)
	controller.Cancel()
	if snap := controller.Snapshot(); snap.Started || snap.SessionID != "" {
		t.Fatalf("cancel did not reset: %+v", snap)
	}
	select {
	case id := <-cancelled:
		if id != "sess-1" {
			t.Fatalf("unexpected session id: %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancel notification not sent")
	}
}

func TestStaleResponseIgnoredAfterReset(t *testing.T) {
	release := make(chan struct{})
	transport := &fakeTransport{
		sendFn: func(ctx context.Context, sessionID, text string) (*client.SendMessageResponse, error) {
			<-release
			return sendResponse("late reply", "preview"), nil
		},
	}
	controller := startedController(t, transport, types.EntityKindTicket)
	done := make(chan error, 1)
	go func() {
		done <- controller.Send(context.Background(), "hello")
	}()
	waitUntil(t, func() bool { return controller.Snapshot().Sending })

	controller.Reset()
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("superseded send should resolve silently, got %v", err)
	}
	snap := controller.Snapshot()
	if snap.Started || len(snap.Messages) != 0 || snap.Phase != "" {
		t.Fatalf("stale response mutated state: %+v", snap)
	}
}

func TestSendConflictWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	transport := &fakeTransport{
		sendFn: func(ctx context.Context, sessionID, text string) (*client.SendMessageResponse, error) {
			<-release
			return sendResponse("ok", "gathering"), nil
		},
	}
	controller := startedController(t, transport, types.EntityKindTicket)
	done := make(chan error, 1)
	go func() {
		done <- controller.Send(context.Background(), "first")
	}()
	waitUntil(t, func() bool { return controller.Snapshot().Sending })

	err := controller.Send(context.Background(), "second")
	if actionErr := AsActionError(err); actionErr == nil || actionErr.Kind != ActionErrorConflict {
		t.Fatalf("unexpected error: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first send: %v", err)
	}
}

func previewProjectDraft() types.Draft {
	return types.Draft{
		Name:   "Acme Campaign",
		Client: types.EntityRef{ID: "c1", Label: "Acme"},
		Lead:   types.EntityRef{ID: "u1", Label: "Sarah"},
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached")
}

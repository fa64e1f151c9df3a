package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"aipm/internal/client"
	"aipm/internal/logging"
	"aipm/internal/push"
	"aipm/internal/types"
)

// Timeouts bound each network action. Zero means no deadline beyond the
// caller's context.
type Timeouts struct {
	Start   time.Duration
	Send    time.Duration
	Update  time.Duration
	Confirm time.Duration
	Cancel  time.Duration
}

type Options struct {
	Kind     types.EntityKind
	Timeouts Timeouts
	Archive  Archive
	Logger   logging.Logger
}

// Controller owns one conversational attempt to produce a domain entity. It
// is the single writer of the transcript, the draft, and the status feed;
// push-channel callbacks message into it rather than mutating shared state.
//
// Server responses drive every phase transition. A generation counter guards
// against a superseded in-flight call mutating state after a reset or a new
// start.
type Controller struct {
	api     Transport
	archive Archive
	logger  logging.Logger
	kind    types.EntityKind
	clock   func() time.Time

	timeouts Timeouts

	mu         sync.Mutex
	generation int
	started    bool
	sessionID  string
	startedAt  time.Time
	phase      types.Phase

	messages         *messageLog
	draft            types.Draft
	validationErrors []types.ValidationError
	showConfirmation bool
	feed             []types.ProgressEvent
	created          []types.CreatedEntity

	lastError       string
	lastFailedInput string

	turnSeq    int
	lastTurn   int
	toolBuffer []string
	activeTool string

	starting   bool
	sending    bool
	streaming  bool
	updating   bool
	confirming bool
}

func NewController(api Transport, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	kind := opts.Kind
	if kind == "" {
		kind = types.EntityKindAssistant
	}
	return &Controller{
		api:      api,
		archive:  opts.Archive,
		logger:   logger.With(logging.F("kind", string(kind))),
		kind:     kind,
		clock:    time.Now,
		timeouts: opts.Timeouts,
		messages: newMessageLog(),
		turnSeq:  1,
	}
}

// AttachHub subscribes the controller to the push channel. The returned
// detach func stops delivery.
func (c *Controller) AttachHub(hub *push.Hub) func() {
	ch, cancel := hub.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range ch {
			c.HandlePush(event)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Start resets all local state and issues the start request. On failure the
// controller stays in the not-started condition so the caller can retry.
func (c *Controller) Start(ctx context.Context, options map[string]string) error {
	c.mu.Lock()
	if c.starting {
		c.mu.Unlock()
		return conflictError("start already in flight", nil)
	}
	c.resetLocked()
	generation := c.generation
	c.starting = true
	c.mu.Unlock()

	ctx, cancel := c.withTimeout(ctx, c.timeouts.Start)
	defer cancel()
	resp, err := c.api.StartSession(ctx, client.StartSessionRequest{Kind: c.kind, Options: options})

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.starting = false
	if err != nil {
		c.lastError = err.Error()
		c.logger.Warn("start failed", logging.F("err", err))
		return transportError("start failed", err)
	}
	c.started = true
	c.sessionID = resp.SessionID
	c.startedAt = c.clock()
	c.phase = phaseOrDefault(resp.Phase, types.PhaseGreeting)
	if resp.Greeting != "" {
		c.messages.appendAgent(0, types.Message{
			Role:      types.MessageRoleAgent,
			Content:   resp.Greeting,
			CreatedAt: c.clock(),
		})
	}
	c.logger.Info("session started", logging.F("session_id", c.sessionID), logging.F("phase", string(c.phase)))
	return nil
}

// Send appends the outgoing message optimistically, issues the request, and
// on success adopts the server's reply wholesale. A transport failure rolls
// back exactly the optimistic message; the text is kept on the snapshot so
// the caller can restore it to the input without retyping.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return invalidError("message text is required", nil)
	}
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return invalidError("session not started", nil)
	}
	if c.sending || c.streaming {
		c.mu.Unlock()
		return conflictError("a message is already in flight", nil)
	}
	generation := c.generation
	sessionID := c.sessionID
	turn := c.beginTurnLocked(text)
	c.sending = true
	c.mu.Unlock()

	ctx, cancel := c.withTimeout(ctx, c.timeouts.Send)
	defer cancel()
	resp, err := c.api.SendMessage(ctx, sessionID, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.sending = false
	if err != nil {
		c.rollbackTurnLocked(turn, text, err)
		c.logger.Warn("send failed", logging.F("session_id", sessionID), logging.F("err", err))
		return transportError("send failed", err)
	}
	c.applyTurnResponseLocked(turn, resp)
	return nil
}

// UpdateDraft sends the caller's edits wholesale; the returned draft fully
// replaces local state. No message is appended.
func (c *Controller) UpdateDraft(ctx context.Context, draft types.Draft) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return invalidError("session not started", nil)
	}
	if c.updating {
		c.mu.Unlock()
		return conflictError("a draft update is already in flight", nil)
	}
	generation := c.generation
	sessionID := c.sessionID
	c.updating = true
	c.lastError = ""
	c.mu.Unlock()

	ctx, cancel := c.withTimeout(ctx, c.timeouts.Update)
	defer cancel()
	resp, err := c.api.UpdateDraft(ctx, sessionID, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.updating = false
	if err != nil {
		c.lastError = err.Error()
		return transportError("draft update failed", err)
	}
	c.draft = resp.Draft
	c.validationErrors = resp.ValidationErrors
	c.showConfirmation = resp.ReadyForConfirmation
	return nil
}

// Confirm is callable only while the gate is open. The status feed is
// cleared immediately before the call so a fresh run's progress is not mixed
// with a previous attempt's. A server-side rejection surfaces as an ordinary
// error; the gate is an optimization, not a guarantee.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return invalidError("session not started", nil)
	}
	if c.confirming {
		c.mu.Unlock()
		return conflictError("confirm already in flight", nil)
	}
	if !GateOpen(c.showConfirmation, c.kind, c.draft) {
		c.mu.Unlock()
		return invalidError("draft is not ready for confirmation", nil)
	}
	generation := c.generation
	sessionID := c.sessionID
	c.feed = nil
	c.confirming = true
	c.lastError = ""
	c.mu.Unlock()

	ctx, cancel := c.withTimeout(ctx, c.timeouts.Confirm)
	defer cancel()
	resp, err := c.api.ConfirmSession(ctx, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.confirming = false
	if err != nil {
		c.lastError = err.Error()
		c.logger.Warn("confirm rejected", logging.F("session_id", sessionID), logging.F("err", err))
		return transportError("confirm failed", err)
	}
	c.adoptCreatedLocked(confirmEntities(resp))
	return nil
}

// Cancel notifies the server best-effort and resets locally without waiting
// for the result.
func (c *Controller) Cancel() {
	c.mu.Lock()
	sessionID := c.sessionID
	c.resetLocked()
	c.mu.Unlock()

	if sessionID == "" {
		return
	}
	timeout := c.timeouts.Cancel
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := c.api.CancelSession(ctx, sessionID); err != nil {
			c.logger.Debug("cancel notification failed", logging.F("session_id", sessionID), logging.F("err", err))
		}
	}()
}

// Reset discards all local state without notifying the server.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Snapshot returns a deep copy of the combined read model.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Started:          c.started,
		SessionID:        c.sessionID,
		Kind:             c.kind,
		Phase:            c.phase,
		Messages:         c.messages.messages(),
		Draft:            cloneDraft(c.draft),
		ValidationErrors: cloneValidationErrors(c.validationErrors),
		ShowConfirmation: c.showConfirmation,
		ConfirmEnabled:   GateOpen(c.showConfirmation, c.kind, c.draft),
		Feed:             cloneFeed(c.feed),
		Created:          cloneEntities(c.created),
		LastError:        c.lastError,
		LastFailedInput:  c.lastFailedInput,
		ActiveTool:       c.activeTool,
		Starting:         c.starting,
		Sending:          c.sending,
		Streaming:        c.streaming,
		Updating:         c.updating,
		Confirming:       c.confirming,
	}
}

func (c *Controller) resetLocked() {
	c.generation++
	c.started = false
	c.sessionID = ""
	c.startedAt = time.Time{}
	c.phase = ""
	c.messages = newMessageLog()
	c.draft = types.Draft{}
	c.validationErrors = nil
	c.showConfirmation = false
	c.feed = nil
	c.created = nil
	c.lastError = ""
	c.lastFailedInput = ""
	c.turnSeq = 1
	c.lastTurn = 0
	c.toolBuffer = nil
	c.activeTool = ""
	c.starting = false
	c.sending = false
	c.streaming = false
	c.updating = false
	c.confirming = false
}

// beginTurnLocked assigns the next turn sequence and appends the optimistic
// user message.
func (c *Controller) beginTurnLocked(text string) int {
	turn := c.turnSeq
	c.turnSeq++
	c.lastTurn = turn
	c.lastError = ""
	c.lastFailedInput = ""
	c.messages.appendUser(turn, types.Message{
		Role:      types.MessageRoleUser,
		Content:   text,
		CreatedAt: c.clock(),
	})
	return turn
}

// rollbackTurnLocked removes exactly the optimistic user message of the
// failed turn and keeps its text around for the input box.
func (c *Controller) rollbackTurnLocked(turn int, text string, err error) {
	c.messages.removeUser(turn)
	c.lastError = err.Error()
	c.lastFailedInput = text
}

func (c *Controller) applyTurnResponseLocked(turn int, resp *client.SendMessageResponse) {
	c.appendAgentLocked(turn, resp.Response)
	c.draft = resp.Draft
	c.validationErrors = resp.ValidationErrors
	c.showConfirmation = resp.ShowConfirmation
	c.phase = phaseOrDefault(resp.Phase, c.phase)
	if resp.CreatedEntity != nil || len(resp.CreatedEntities) > 0 {
		entities := resp.CreatedEntities
		if resp.CreatedEntity != nil {
			entities = append([]types.CreatedEntity{*resp.CreatedEntity}, entities...)
		}
		c.adoptCreatedLocked(entities)
	}
}

// appendAgentLocked records the turn's agent message unless an identical
// copy already arrived on the other channel, draining the per-turn tool
// buffer into it.
func (c *Controller) appendAgentLocked(turn int, content string) bool {
	if content == "" {
		return false
	}
	if c.messages.hasAgentContent(content) {
		return false
	}
	tools := c.toolBuffer
	c.toolBuffer = nil
	c.activeTool = ""
	ok := c.messages.appendAgent(turn, types.Message{
		Role:      types.MessageRoleAgent,
		Content:   content,
		CreatedAt: c.clock(),
		ToolsUsed: tools,
	})
	if !ok {
		// Turn already has a reply; put the buffer back for the next one.
		c.toolBuffer = tools
	}
	return ok
}

func (c *Controller) adoptCreatedLocked(entities []types.CreatedEntity) {
	if len(entities) == 0 {
		return
	}
	c.created = entities
	c.phase = types.PhaseCreated
	c.logger.Info("entities created", logging.F("session_id", c.sessionID), logging.F("count", len(entities)))
	c.archiveLocked()
}

// archiveLocked hands the finished session to the archive without blocking
// the controller.
func (c *Controller) archiveLocked() {
	if c.archive == nil {
		return
	}
	record := &types.SessionRecord{
		SessionID:   c.sessionID,
		Kind:        c.kind,
		StartedAt:   c.startedAt,
		CompletedAt: c.clock(),
		Messages:    c.messages.messages(),
		Feed:        cloneFeed(c.feed),
		Entities:    cloneEntities(c.created),
	}
	archive := c.archive
	logger := c.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := archive.SaveRecord(ctx, record); err != nil {
			logger.Warn("archive write failed", logging.F("session_id", record.SessionID), logging.F("err", err))
		}
	}()
}

func (c *Controller) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func phaseOrDefault(raw string, fallback types.Phase) types.Phase {
	switch phase := types.Phase(strings.TrimSpace(raw)); phase {
	case types.PhaseGreeting, types.PhaseGathering, types.PhaseSOPsFound,
		types.PhasePreview, types.PhaseConfirming, types.PhaseCreated:
		return phase
	default:
		return fallback
	}
}

func confirmEntities(resp *client.ConfirmResponse) []types.CreatedEntity {
	if resp == nil {
		return nil
	}
	if resp.Entity == nil {
		return cloneEntities(resp.Children)
	}
	entity := *resp.Entity
	entity.Children = append(cloneEntities(entity.Children), cloneEntities(resp.Children)...)
	return []types.CreatedEntity{entity}
}

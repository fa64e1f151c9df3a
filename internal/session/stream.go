package session

import (
	"context"
	"strings"

	"aipm/internal/logging"
	"aipm/internal/types"
)

// SendStream behaves like Send but consumes the token-streaming channel.
// The accumulated token buffer becomes exactly one agent message when the
// stream finishes; a stream that dies before done or preview discards the
// partial text and surfaces an error instead.
func (c *Controller) SendStream(ctx context.Context, text string) error {
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
	c.streaming = true
	c.mu.Unlock()

	ctx, cancelCtx := c.withTimeout(ctx, c.timeouts.Send)
	defer cancelCtx()
	ch, cancelStream, err := c.api.SendMessageStream(ctx, sessionID, text)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if generation != c.generation {
			return nil
		}
		c.streaming = false
		c.rollbackTurnLocked(turn, text, err)
		return transportError("stream open failed", err)
	}
	defer cancelStream()

	var tokens strings.Builder
	errorMessage := ""
	finished := false
	terminal := false
	finalPhase := ""

	for event := range ch {
		switch event.Type {
		case types.StreamEventToken:
			if payload, ok := event.Token(); ok {
				tokens.WriteString(payload.Text)
			}
		case types.StreamEventSOPsFound:
			if payload, ok := event.SOPsFound(); ok {
				c.applySOPs(generation, payload)
			}
		case types.StreamEventPreview:
			if payload, ok := event.Preview(); ok {
				c.applyPreview(generation, payload)
			}
		case types.StreamEventEntityCreated, types.StreamEventEntitiesCreated:
			if payload, ok := event.Created(); ok {
				c.applyStreamCreated(generation, payload)
			}
			terminal = true
			finished = true
		case types.StreamEventError:
			errorMessage = event.ErrorMessage()
			if errorMessage == "" {
				errorMessage = "stream reported an error"
			}
		case types.StreamEventDone:
			finished = true
			finalPhase = event.Done().Phase
		}
		if errorMessage != "" {
			break
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.streaming = false
	if errorMessage != "" {
		// Turn was accepted server-side; the user message stays so the push
		// channel can still resolve it. Partial tokens are discarded.
		c.lastError = errorMessage
		c.logger.Warn("stream aborted", logging.F("session_id", sessionID), logging.F("err", errorMessage))
		return streamError(errorMessage, nil)
	}
	if !finished {
		c.lastError = "stream ended unexpectedly"
		c.logger.Warn("stream ended without done", logging.F("session_id", sessionID))
		return streamError("stream ended unexpectedly", nil)
	}
	if reply := tokens.String(); reply != "" {
		c.appendAgentLocked(turn, reply)
	}
	if !terminal {
		c.phase = phaseOrDefault(finalPhase, c.phase)
	}
	return nil
}

// applySOPs merges matched guidelines into the draft. This is the one
// field-level merge: the rest of the draft keeps its last server-confirmed
// value until the next full replace.
func (c *Controller) applySOPs(generation int, payload types.StreamSOPsFoundPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.draft.SOPs = payload.SOPs
	c.phase = phaseOrDefault(payload.Phase, types.PhaseSOPsFound)
}

func (c *Controller) applyPreview(generation int, payload types.StreamPreviewPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.draft = payload.Draft
	c.validationErrors = payload.ValidationErrors
	c.showConfirmation = payload.ShowConfirmation
	c.phase = phaseOrDefault(payload.Phase, types.PhasePreview)
}

func (c *Controller) applyStreamCreated(generation int, payload types.StreamCreatedPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	entities := payload.Entities
	if payload.Entity != nil {
		entities = append([]types.CreatedEntity{*payload.Entity}, entities...)
	}
	c.adoptCreatedLocked(entities)
}

package session

import (
	"aipm/internal/logging"
	"aipm/internal/types"
)

// HandlePush is the push-channel entry point. Every event is filtered by
// session identity first; a session that has been reset or replaced must not
// absorb progress from a prior run.
//
// Creation-progress events are appended 1:1 to the status feed. A pushed
// assistant message races the response channel for the same turn and is
// dropped when its content already exists in the log. Tool-usage events
// accumulate in a per-turn buffer attached to whichever channel delivers the
// turn's reply first.
func (c *Controller) HandlePush(event types.PushEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || event.SessionID == "" || event.SessionID != c.sessionID {
		return
	}
	switch event.Name {
	case types.PushEventCreating, types.PushEventCreated, types.PushEventEnriching,
		types.PushEventItemCreatedProgress, types.PushEventAllCreated, types.PushEventCreationError:
		payload, ok := event.CreationProgress()
		if !ok {
			return
		}
		c.feed = append(c.feed, types.ProgressEvent{
			SessionID: event.SessionID,
			Kind:      progressKindFor(event.Name),
			Message:   payload.Message,
			Current:   payload.Current,
			Total:     payload.Total,
			At:        c.clock(),
		})
	case types.PushEventAssistantMessage:
		payload, ok := event.AssistantMessage()
		if !ok {
			return
		}
		if !c.appendAgentLocked(c.lastTurn, payload.Content) {
			c.logger.Debug("pushed reply dropped", logging.F("session_id", event.SessionID))
		}
	case types.PushEventToolStarted:
		payload, ok := event.ToolUsage()
		if !ok {
			return
		}
		c.activeTool = payload.Tool
		for _, tool := range c.toolBuffer {
			if tool == payload.Tool {
				return
			}
		}
		c.toolBuffer = append(c.toolBuffer, payload.Tool)
	case types.PushEventToolFinished:
		c.activeTool = ""
	}
}

func progressKindFor(name string) types.ProgressKind {
	switch name {
	case types.PushEventItemCreatedProgress:
		return types.ProgressProgress
	case types.PushEventCreated, types.PushEventAllCreated:
		return types.ProgressSuccess
	case types.PushEventCreationError:
		return types.ProgressError
	default:
		return types.ProgressInfo
	}
}

package session

import "aipm/internal/types"

// Snapshot is the combined read model the UI renders from. Every slice is a
// copy; holding a snapshot never aliases controller state.
type Snapshot struct {
	Started   bool
	SessionID string
	Kind      types.EntityKind
	Phase     types.Phase

	Messages         []types.Message
	Draft            types.Draft
	ValidationErrors []types.ValidationError
	ShowConfirmation bool
	ConfirmEnabled   bool
	Feed             []types.ProgressEvent
	Created          []types.CreatedEntity

	LastError       string
	LastFailedInput string
	ActiveTool      string

	Starting   bool
	Sending    bool
	Streaming  bool
	Updating   bool
	Confirming bool
}

func (s Snapshot) Pending() bool {
	return s.Starting || s.Sending || s.Streaming || s.Updating || s.Confirming
}

func cloneDraft(draft types.Draft) types.Draft {
	out := draft
	if len(draft.Assignees) > 0 {
		out.Assignees = append([]types.EntityRef{}, draft.Assignees...)
	}
	if len(draft.Tags) > 0 {
		out.Tags = append([]string{}, draft.Tags...)
	}
	if len(draft.SOPs) > 0 {
		out.SOPs = append([]types.SOPMatch{}, draft.SOPs...)
	}
	if len(draft.Tickets) > 0 {
		out.Tickets = make([]types.TicketDraft, len(draft.Tickets))
		for i, ticket := range draft.Tickets {
			out.Tickets[i] = ticket
			if len(ticket.Tags) > 0 {
				out.Tickets[i].Tags = append([]string{}, ticket.Tags...)
			}
		}
	}
	return out
}

func cloneValidationErrors(errs []types.ValidationError) []types.ValidationError {
	if len(errs) == 0 {
		return nil
	}
	return append([]types.ValidationError{}, errs...)
}

func cloneFeed(feed []types.ProgressEvent) []types.ProgressEvent {
	if len(feed) == 0 {
		return nil
	}
	return append([]types.ProgressEvent{}, feed...)
}

func cloneEntities(entities []types.CreatedEntity) []types.CreatedEntity {
	if len(entities) == 0 {
		return nil
	}
	out := make([]types.CreatedEntity, len(entities))
	for i, entity := range entities {
		out[i] = entity
		out[i].Children = cloneEntities(entity.Children)
	}
	return out
}

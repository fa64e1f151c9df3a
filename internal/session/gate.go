package session

import "aipm/internal/types"

// GateOpen decides whether the create action is enabled. It is a pure
// function of the server's confirmation flag and the draft; the server stays
// the final authority and may still reject the confirm call.
func GateOpen(showConfirmation bool, kind types.EntityKind, draft types.Draft) bool {
	if !showConfirmation {
		return false
	}
	return len(MissingFields(kind, draft)) == 0
}

// MissingFields lists the entity-specific required fields the draft has not
// filled yet. Unresolved references stay empty in the server draft, so
// validation failures show up here as missing fields.
func MissingFields(kind types.EntityKind, draft types.Draft) []string {
	var missing []string
	switch kind {
	case types.EntityKindProject:
		if draft.Name == "" {
			missing = append(missing, "name")
		}
		if draft.Client.Empty() {
			missing = append(missing, "client")
		}
		if draft.Lead.Empty() {
			missing = append(missing, "lead")
		}
	case types.EntityKindTicket:
		if draft.Title == "" {
			missing = append(missing, "title")
		}
	case types.EntityKindGuideline:
		if draft.Content == "" {
			missing = append(missing, "content")
		}
	}
	return missing
}

package types

type EntityKind string

const (
	EntityKindProject   EntityKind = "project"
	EntityKindTicket    EntityKind = "ticket"
	EntityKindGuideline EntityKind = "guideline"
	EntityKindAssistant EntityKind = "assistant"
)

func ParseEntityKind(raw string) (EntityKind, bool) {
	switch EntityKind(raw) {
	case EntityKindProject, EntityKindTicket, EntityKindGuideline, EntityKindAssistant:
		return EntityKind(raw), true
	default:
		return "", false
	}
}

type Phase string

const (
	PhaseGreeting   Phase = "greeting"
	PhaseGathering  Phase = "gathering"
	PhaseSOPsFound  Phase = "sops_found"
	PhasePreview    Phase = "preview"
	PhaseConfirming Phase = "confirming"
	PhaseCreated    Phase = "created"
)

// Terminal reports whether the phase ends the session's useful life.
func (p Phase) Terminal() bool {
	return p == PhaseCreated
}

// CreatedEntity is produced only by a terminal transition and is immutable
// once present.
type CreatedEntity struct {
	ID       string          `json:"id"`
	Kind     EntityKind      `json:"kind"`
	Name     string          `json:"name,omitempty"`
	Children []CreatedEntity `json:"children,omitempty"`
}

package types

// EntityRef is a server-resolved reference to an existing dashboard object
// (a client, a user, an SOP guideline). Free text the server could not
// resolve stays out of the draft and surfaces as a ValidationError instead.
type EntityRef struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

func (r EntityRef) Empty() bool {
	return r.ID == ""
}

// Draft is the server-authoritative, partially-filled representation of the
// entity being created. Every successful send, stream-final, or update-draft
// response replaces it wholesale; the client never merges field by field.
type Draft struct {
	Name        string        `json:"name,omitempty"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Client      EntityRef     `json:"client,omitempty"`
	Lead        EntityRef     `json:"lead,omitempty"`
	Assignees   []EntityRef   `json:"assignees,omitempty"`
	StartDate   string        `json:"start_date,omitempty"`
	DueDate     string        `json:"due_date,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Content     string        `json:"content,omitempty"`
	Tickets     []TicketDraft `json:"tickets,omitempty"`
	SOPs        []SOPMatch    `json:"sops,omitempty"`
}

type TicketDraft struct {
	Title    string    `json:"title"`
	Assignee EntityRef `json:"assignee,omitempty"`
	DueDate  string    `json:"due_date,omitempty"`
	Tags     []string  `json:"tags,omitempty"`
}

// SOPMatch is a reusable guideline the server matched against the
// conversation so far.
type SOPMatch struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

package app

import (
	"fmt"
	"strings"

	"aipm/internal/types"
)

// applyDraftEdit parses a "/field value" input line into a direct draft
// edit. Only free-text fields are editable this way; references like client
// and lead are resolved server-side through the conversation. The returned
// draft is the full document the server revalidates.
func applyDraftEdit(draft types.Draft, input string) (types.Draft, error) {
	field, value, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	field = strings.ToLower(strings.TrimSpace(field))
	value = strings.TrimSpace(value)

	switch field {
	case "name":
		draft.Name = value
	case "title":
		draft.Title = value
	case "description", "desc":
		draft.Description = value
	case "start":
		draft.StartDate = value
	case "due":
		draft.DueDate = value
	case "tags":
		draft.Tags = splitTags(value)
	case "content":
		draft.Content = value
	case "":
		return draft, fmt.Errorf("usage: /field value (name, title, description, start, due, tags, content)")
	default:
		return draft, fmt.Errorf("cannot edit %q directly; ask the agent instead", field)
	}
	return draft, nil
}

func splitTags(value string) []string {
	if value == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(value, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

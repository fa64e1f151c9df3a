package app

import (
	"testing"

	"aipm/internal/types"
)

func TestApplyDraftEdit(t *testing.T) {
	base := types.Draft{
		Name: "Acme Campaign",
		Lead: types.EntityRef{ID: "u1", Label: "Sarah"},
	}
	cases := []struct {
		name  string
		input string
		check func(t *testing.T, draft types.Draft)
	}{
		{
			name:  "rename",
			input: "/name Acme Relaunch",
			check: func(t *testing.T, draft types.Draft) {
				if draft.Name != "Acme Relaunch" {
					t.Fatalf("name: %q", draft.Name)
				}
			},
		},
		{
			name:  "due date",
			input: "/due 2026-09-20",
			check: func(t *testing.T, draft types.Draft) {
				if draft.DueDate != "2026-09-20" {
					t.Fatalf("due: %q", draft.DueDate)
				}
			},
		},
		{
			name:  "tags split and trimmed",
			input: "/tags marketing, q3 , ",
			check: func(t *testing.T, draft types.Draft) {
				if len(draft.Tags) != 2 || draft.Tags[0] != "marketing" || draft.Tags[1] != "q3" {
					t.Fatalf("tags: %v", draft.Tags)
				}
			},
		},
		{
			name:  "clear a field",
			input: "/name",
			check: func(t *testing.T, draft types.Draft) {
				if draft.Name != "" {
					t.Fatalf("name not cleared: %q", draft.Name)
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft, err := applyDraftEdit(base, tc.input)
			if err != nil {
				t.Fatalf("applyDraftEdit: %v", err)
			}
			if draft.Lead.ID != "u1" {
				t.Fatalf("untouched field changed: %+v", draft.Lead)
			}
			tc.check(t, draft)
		})
	}
}

func TestApplyDraftEditRejectsReferences(t *testing.T) {
	if _, err := applyDraftEdit(types.Draft{}, "/lead Bob"); err == nil {
		t.Fatalf("reference edit accepted")
	}
	if _, err := applyDraftEdit(types.Draft{}, "/"); err == nil {
		t.Fatalf("empty field accepted")
	}
}

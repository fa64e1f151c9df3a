package app

import (
	"fmt"
	"strings"

	"aipm/internal/session"
	"aipm/internal/types"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "starting session..."
	}

	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteByte('\n')
	b.WriteString(m.transcript.View())
	b.WriteByte('\n')

	if panel := m.draftPanel(); panel != "" {
		b.WriteString(panel)
		b.WriteByte('\n')
	}
	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	b.WriteByte('\n')
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m *Model) headerLine() string {
	title := headerStyle.Render("aipm · new " + string(m.kind))
	phase := phaseStyle.Render(phaseLabel(m.snap.Phase))
	if phase == "" {
		return title
	}
	return title + "  " + phase
}

func (m *Model) statusLine() string {
	snap := m.snap
	switch {
	case snap.Pending():
		return statusStyle.Render(m.spin.View() + pendingLabel(snap))
	case snap.ActiveTool != "":
		return toolNoteStyle.Render("using " + snap.ActiveTool + "...")
	case snap.LastError != "":
		return errorStyle.Render(snap.LastError)
	case m.status != "":
		return statusStyle.Render(m.status)
	case snap.ConfirmEnabled:
		return confirmHintStyle.Render("ready: ctrl+y to create")
	}
	return ""
}

func pendingLabel(snap session.Snapshot) string {
	switch {
	case snap.Starting:
		return "starting session..."
	case snap.Confirming:
		return "creating..."
	case snap.Updating:
		return "updating draft..."
	case snap.Streaming:
		return "agent is replying..."
	default:
		return "waiting for the agent..."
	}
}

func (m *Model) helpLine() string {
	parts := []string{"enter send", "/field value edit draft", "ctrl+o copy reply", "ctrl+t toggle streaming", "ctrl+c quit"}
	if m.snap.ConfirmEnabled {
		parts = append([]string{"ctrl+y confirm"}, parts...)
	}
	return strings.Join(parts, " · ")
}

func (m *Model) renderTranscript() string {
	width := m.transcript.Width - 2
	if width > m.markdownWidth {
		width = m.markdownWidth
	}
	if width < minPanelWidth {
		width = minPanelWidth
	}

	var sections []string
	for _, msg := range m.snap.Messages {
		sections = append(sections, renderMessage(msg, width))
	}
	if feed := renderFeed(m.snap.Feed); feed != "" {
		sections = append(sections, feed)
	}
	if created := renderCreated(m.snap.Created); created != "" {
		sections = append(sections, created)
	}
	return strings.Join(sections, "\n\n")
}

func renderMessage(msg types.Message, width int) string {
	var b strings.Builder
	if msg.Role == types.MessageRoleUser {
		b.WriteString(userLabelStyle.Render("you"))
		b.WriteByte('\n')
		b.WriteString(msg.Content)
		return b.String()
	}
	b.WriteString(agentLabelStyle.Render("agent"))
	if len(msg.ToolsUsed) > 0 {
		b.WriteString(toolNoteStyle.Render("  (used " + strings.Join(msg.ToolsUsed, ", ") + ")"))
	}
	b.WriteByte('\n')
	b.WriteString(renderMarkdown(msg.Content, width))
	return b.String()
}

func renderFeed(feed []types.ProgressEvent) string {
	if len(feed) == 0 {
		return ""
	}
	lines := make([]string, 0, len(feed))
	for _, event := range feed {
		lines = append(lines, feedLine(event))
	}
	return strings.Join(lines, "\n")
}

func feedLine(event types.ProgressEvent) string {
	text := event.Message
	if event.Total > 0 {
		text = fmt.Sprintf("%s (%d/%d)", text, event.Current, event.Total)
	}
	switch event.Kind {
	case types.ProgressSuccess:
		return feedOKStyle.Render("✓ " + text)
	case types.ProgressError:
		return feedErrStyle.Render("✗ " + text)
	case types.ProgressProgress:
		return feedInfoStyle.Render("· " + text)
	default:
		return feedInfoStyle.Render("· " + text)
	}
}

func renderCreated(entities []types.CreatedEntity) string {
	if len(entities) == 0 {
		return ""
	}
	var lines []string
	for _, entity := range entities {
		lines = append(lines, feedOKStyle.Render(fmt.Sprintf("created %s %q (%s)", entity.Kind, entity.Name, entity.ID)))
		for _, child := range entity.Children {
			lines = append(lines, feedOKStyle.Render(fmt.Sprintf("  └ %s %q (%s)", child.Kind, child.Name, child.ID)))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) draftPanel() string {
	snap := m.snap
	lines := draftLines(snap.Kind, snap.Draft)
	if len(lines) == 0 && len(snap.ValidationErrors) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(draftTitleStyle.Render("draft " + string(snap.Kind)))
	for _, line := range lines {
		b.WriteByte('\n')
		b.WriteString(line)
	}
	for _, verr := range snap.ValidationErrors {
		b.WriteByte('\n')
		b.WriteString(validationStyle.Render("! " + verr.Field + ": " + verr.Message))
	}
	return draftPanelStyle.Render(b.String())
}

// draftLines flattens the populated draft fields into display rows.
func draftLines(kind types.EntityKind, draft types.Draft) []string {
	var lines []string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("name", draft.Name)
	add("title", draft.Title)
	add("description", draft.Description)
	add("client", refLabel(draft.Client))
	add("lead", refLabel(draft.Lead))
	if len(draft.Assignees) > 0 {
		labels := make([]string, 0, len(draft.Assignees))
		for _, ref := range draft.Assignees {
			labels = append(labels, refLabel(ref))
		}
		add("assignees", strings.Join(labels, ", "))
	}
	add("start", draft.StartDate)
	add("due", draft.DueDate)
	if len(draft.Tags) > 0 {
		add("tags", strings.Join(draft.Tags, ", "))
	}
	if kind == types.EntityKindGuideline {
		add("content", truncate(draft.Content, 120))
	}
	if len(draft.Tickets) > 0 {
		lines = append(lines, fmt.Sprintf("tickets: %d planned", len(draft.Tickets)))
		for _, ticket := range draft.Tickets {
			lines = append(lines, "  - "+ticket.Title)
		}
	}
	if len(draft.SOPs) > 0 {
		titles := make([]string, 0, len(draft.SOPs))
		for _, sop := range draft.SOPs {
			titles = append(titles, sop.Title)
		}
		add("guidelines", strings.Join(titles, ", "))
	}
	return lines
}

func refLabel(ref types.EntityRef) string {
	if ref.Empty() {
		return ""
	}
	if ref.Label != "" {
		return ref.Label
	}
	return ref.ID
}

func phaseLabel(phase types.Phase) string {
	switch phase {
	case types.PhaseGreeting:
		return "greeting"
	case types.PhaseGathering:
		return "gathering details"
	case types.PhaseSOPsFound:
		return "guidelines found"
	case types.PhasePreview:
		return "preview"
	case types.PhaseConfirming:
		return "creating"
	case types.PhaseCreated:
		return "created"
	default:
		return string(phase)
	}
}

func truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := text[:max]
	if i := strings.LastIndexByte(cut, ' '); i > max/2 {
		cut = cut[:i]
	}
	return cut + "…"
}

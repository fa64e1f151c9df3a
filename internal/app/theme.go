package app

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	userLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	agentLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114"))
	toolNoteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
	feedInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	feedOKStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	feedErrStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	draftTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("179"))
	draftPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	confirmHintStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("70"))
	validationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	phaseStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
)

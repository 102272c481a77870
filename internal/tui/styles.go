package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7D56F4")
	mutedColor   = lipgloss.Color("#767676")
	successColor = lipgloss.Color("#04B575")
	warningColor = lipgloss.Color("#F2A900")
	errorColor   = lipgloss.Color("#FF5F87")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)
	labelStyle    = lipgloss.NewStyle().Width(10).Foreground(mutedColor)
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	statusStyle   = lipgloss.NewStyle().Foreground(successColor)
	confirmStyle  = lipgloss.NewStyle().Bold(true).Foreground(warningColor)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	helpStyle     = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
)

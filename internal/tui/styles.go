package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4")).
			Padding(0, 1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	tickerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	scoreStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	riskStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	profitStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	recommendedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
	selectedRowStyle = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("236"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1).
			MarginRight(1)
	recommendedCardStyle = cardStyle.BorderForeground(lipgloss.Color("3"))
)

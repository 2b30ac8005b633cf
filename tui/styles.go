package tui

import "github.com/charmbracelet/lipgloss"

// 配色：强调色用于焦点和进度，其余按结果状态区分
var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#6C47D9", Dark: "#B197FC"}
	colorOK     = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}
	colorDanger = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#8C959F", Dark: "#6E7681"}
	colorPath   = lipgloss.AdaptiveColor{Light: "#0550AE", Dark: "#79C0FF"}
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			MarginBottom(1)

	doneHeaderStyle = headerStyle.Copy().Foreground(colorOK)
	warnHeaderStyle = headerStyle.Copy().Foreground(colorWarn)

	ruleStyle = lipgloss.NewStyle().Foreground(colorMuted)

	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	// 输入框：获得焦点时加边框，未获得焦点时用同样宽度的留白占位
	activeInputStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorAccent).
				Padding(0, 1)
	idleInputStyle = lipgloss.NewStyle().Padding(1, 2)

	promptStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	inputTextStyle = lipgloss.NewStyle()

	dryRunBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorWarn).
				Padding(0, 1)

	statsPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(colorAccent).
			PaddingLeft(2)

	pathStyle    = lipgloss.NewStyle().Foreground(colorPath)
	failureStyle = lipgloss.NewStyle().Foreground(colorDanger)
	helpStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

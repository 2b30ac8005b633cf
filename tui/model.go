package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/moyu-x/framemover/pkg/engine"
	snap "github.com/moyu-x/framemover/pkg/progress"
)

type State int

const (
	StateConfig State = iota
	StateRunning
	StateComplete
)

// 配置表单的输入框顺序
const (
	inputSource = iota
	inputDest
	inputSuffixes
	inputCount
)

type model struct {
	state       State
	focus       int
	inputs      []textinput.Model
	dryRun      bool
	precount    bool
	runner      *engine.Runner
	handle      *engine.Handle
	snapshot    snap.Snapshot
	result      *engine.Result
	cancelling  bool
	progressBar progress.Model
	spinner     spinner.Model
	err         error
}

func newModel(cfg *Config) *model {
	placeholders := [inputCount]string{
		"源目录（例如：~/Pictures/Import）",
		"目标目录（必须已存在）",
		"后缀，逗号或空格分隔（例如：7612, 7605）",
	}
	values := [inputCount]string{cfg.Params.Source, cfg.Params.Dest, cfg.Params.Suffixes}

	inputs := make([]textinput.Model, inputCount)
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Prompt = "> "
		in.PromptStyle = promptStyle
		in.TextStyle = inputTextStyle
		in.SetValue(values[i])
		inputs[i] = in
	}
	inputs[inputSource].Focus()

	progressBar := progress.New(progress.WithDefaultGradient())
	progressBar.PercentageStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Width(4)

	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	return &model{
		state:       StateConfig,
		inputs:      inputs,
		dryRun:      cfg.Params.DryRun,
		precount:    cfg.Params.Precount,
		runner:      cfg.Runner,
		progressBar: progressBar,
		spinner:     s,
	}
}

func (m *model) Init() tea.Cmd {
	if m.prefilled() {
		return m.start()
	}
	return textinput.Blink
}

func (m *model) prefilled() bool {
	for _, in := range m.inputs {
		if in.Value() == "" {
			return false
		}
	}
	return true
}

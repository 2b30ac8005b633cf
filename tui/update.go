package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/moyu-x/framemover/pkg/engine"
	"github.com/moyu-x/framemover/pkg/logger"
	snap "github.com/moyu-x/framemover/pkg/progress"
)

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case snapshotMsg:
		m.snapshot = snap.Snapshot(msg)
		return m, tea.Batch(
			m.progressBar.SetPercent(msg.Percent/100),
			waitForSnapshot(m.handle),
		)

	case runDoneMsg:
		m.state = StateComplete
		m.result = msg.result
		m.handle = nil
		if msg.result != nil {
			m.snapshot = msg.result.Final
		}
		return m, m.progressBar.SetPercent(m.snapshot.Percent / 100)

	case spinner.TickMsg:
		if m.state != StateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		model, cmd := m.progressBar.Update(msg)
		m.progressBar = model.(progress.Model)
		return m, cmd
	}

	if m.state == StateConfig {
		return m, m.updateInputs(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateRunning:
		// 取消后等待运行结束再退出，保证最后的快照被展示
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.cancelling {
				m.cancelling = true
				m.runner.Cancel()
			}
		}
		return m, nil

	case StateComplete:
		return m, tea.Quit
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "down":
		m.setFocus((m.focus + 1) % inputCount)
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus + inputCount - 1) % inputCount)
		return m, nil
	case "ctrl+d":
		m.dryRun = !m.dryRun
		return m, nil
	case "enter":
		if m.focus < inputCount-1 {
			m.setFocus(m.focus + 1)
			return m, nil
		}
		return m, m.start()
	}

	return m, m.updateInputs(msg)
}

func (m *model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *model) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m *model) params() engine.Params {
	return engine.Params{
		Source:   expandDir(m.inputs[inputSource].Value()),
		Dest:     expandDir(m.inputs[inputDest].Value()),
		Suffixes: m.inputs[inputSuffixes].Value(),
		DryRun:   m.dryRun,
		Precount: m.precount,
	}
}

// start 校验失败时留在配置界面并显示错误
func (m *model) start() tea.Cmd {
	h, err := m.runner.Start(context.Background(), m.params())
	if err != nil {
		logger.Get().Warn().Err(err).Msg("无法开始运行")
		m.err = err
		return nil
	}

	m.err = nil
	m.handle = h
	m.state = StateRunning
	m.cancelling = false
	return tea.Batch(waitForSnapshot(h), m.spinner.Tick)
}

func waitForSnapshot(h *engine.Handle) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-h.Snapshots()
		if !ok {
			return runDoneMsg{result: h.Wait()}
		}
		return snapshotMsg(s)
	}
}

func expandDir(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func (m *model) handleResize(msg tea.WindowSizeMsg) {
	for i := range m.inputs {
		m.inputs[i].Width = msg.Width - 10
	}
	m.progressBar.Width = msg.Width - 10
}

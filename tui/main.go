package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/moyu-x/framemover/pkg/engine"
	"github.com/moyu-x/framemover/pkg/logger"
)

type Config struct {
	Runner *engine.Runner
	// 预填的运行参数，Source/Dest/Suffixes 都已给出时直接开始运行
	Params engine.Params
}

// Run 启动交互界面，返回运行结果（没有开始运行时为 nil）
func Run(cfg *Config) (*engine.Result, error) {
	logger.Get().Info().Msg("启动 TUI 界面")

	m := newModel(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		logger.Get().Error().Err(err).Msg("TUI 运行错误")
		// 界面异常退出时不能留下后台运行
		cfg.Runner.Cancel()
		return nil, err
	}
	logger.Get().Info().Msg("TUI 正常退出")

	if fm, ok := final.(*model); ok {
		return fm.result, nil
	}
	return nil, nil
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/moyu-x/framemover/pkg/engine"
	snap "github.com/moyu-x/framemover/pkg/progress"
)

func (m *model) View() string {
	switch m.state {
	case StateConfig:
		return m.configView()
	case StateRunning:
		return m.runningView()
	case StateComplete:
		return m.completeView()
	default:
		return "未知状态"
	}
}

func (m *model) configView() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("📷 framemover") + "\n\n")
	b.WriteString(ruleStyle.Render(strings.Repeat("─", 60)) + "\n\n")

	labels := [inputCount]string{"1. 源目录：", "2. 目标目录：", "3. 文件名后缀："}
	for i, in := range m.inputs {
		b.WriteString(fieldLabelStyle.Render(labels[i]) + "\n")
		if i == m.focus {
			b.WriteString(activeInputStyle.Render(in.View()) + "\n\n")
		} else {
			b.WriteString(idleInputStyle.Render(in.View()) + "\n\n")
		}
	}

	mode := "实际移动"
	if m.dryRun {
		mode = dryRunBadgeStyle.Render("演练") + " 不修改任何文件"
	}
	b.WriteString(fieldLabelStyle.Render("运行模式：") + mode + "\n\n")

	if m.err != nil {
		b.WriteString(failureStyle.Render("✗ "+m.err.Error()) + "\n\n")
	}

	b.WriteString(ruleStyle.Render(strings.Repeat("─", 60)) + "\n")
	b.WriteString(helpStyle.Render("操作提示：") + "\n")
	b.WriteString("  • Tab / ↑ ↓ 切换输入框\n")
	b.WriteString("  • Enter 下一项，最后一项时开始运行\n")
	b.WriteString("  • Ctrl+D 切换演练模式\n")
	b.WriteString("  • Esc / Ctrl+C 退出程序\n")

	return lipgloss.NewStyle().
		Padding(1).
		Render(b.String())
}

func (m *model) runningView() string {
	var b strings.Builder

	title := "🔄 正在处理文件..."
	if m.cancelling {
		title = "⏹ 正在取消，等待当前文件完成..."
	}
	b.WriteString(headerStyle.Render(m.spinner.View()+" "+title) + "\n\n")

	b.WriteString(fieldLabelStyle.Render("处理进度：") + "\n")
	b.WriteString(m.progressBar.View() + "\n\n")

	b.WriteString(statsPanelStyle.Render(m.renderStats()) + "\n\n")

	b.WriteString(fieldLabelStyle.Render("当前文件：") + "\n")
	b.WriteString(pathStyle.Render(m.snapshot.CurrentFile) + "\n\n")

	b.WriteString(helpStyle.Render("按 q 取消运行") + "\n")

	return lipgloss.NewStyle().
		Padding(2).
		Render(b.String())
}

func (m *model) completeView() string {
	var b strings.Builder

	switch {
	case m.snapshot.Phase == snap.PhaseCancelled:
		b.WriteString(warnHeaderStyle.Render("⏹ 运行已取消") + "\n\n")
	case m.snapshot.Errors > 0:
		b.WriteString(warnHeaderStyle.Render("⚠ 处理完成，但有文件失败") + "\n\n")
	default:
		b.WriteString(doneHeaderStyle.Render("✅ 处理完成！") + "\n\n")
	}

	b.WriteString(statsPanelStyle.Render(m.renderStats()) + "\n\n")

	if m.result != nil {
		if failures := m.renderFailures(m.result, 10); failures != "" {
			b.WriteString(fieldLabelStyle.Render("失败的文件：") + "\n")
			b.WriteString(failures + "\n")
		}
	}

	b.WriteString(ruleStyle.Render(strings.Repeat("─", 60)) + "\n")
	b.WriteString(helpStyle.Render("按任意键退出") + "\n")

	return lipgloss.NewStyle().
		Padding(2).
		Render(b.String())
}

func (m *model) renderStats() string {
	s := m.snapshot
	var b strings.Builder
	b.WriteString("📊 统计：\n\n")
	b.WriteString(fmt.Sprintf("  已扫描：      %d 个文件\n", s.Scanned))
	b.WriteString(fmt.Sprintf("  匹配后缀：    %d 个文件\n", s.Matched))
	b.WriteString(fmt.Sprintf("  已移动：      %d 个文件\n", s.Moved))
	b.WriteString(fmt.Sprintf("  重复跳过：    %d 个文件\n", s.SkippedDuplicates))
	b.WriteString(fmt.Sprintf("  失败：        %d 个文件\n", s.Errors))
	if m.dryRun {
		b.WriteString("\n  " + dryRunBadgeStyle.Render("演练") + " 文件未被修改\n")
	}
	return b.String()
}

func (m *model) renderFailures(res *engine.Result, limit int) string {
	var b strings.Builder
	shown := 0
	for _, o := range res.Outcomes {
		if o.Kind != engine.OutcomeError {
			continue
		}
		if shown == limit {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  …… 共 %d 个失败", res.Final.Errors)) + "\n")
			break
		}
		b.WriteString("  " + pathStyle.Render(o.Source) + "\n")
		b.WriteString("    " + failureStyle.Render(o.Message) + "\n")
		shown++
	}
	return b.String()
}

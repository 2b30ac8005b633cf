package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/moyu-x/framemover/config"
	"github.com/moyu-x/framemover/pkg/database"
	"github.com/moyu-x/framemover/pkg/engine"
	"github.com/moyu-x/framemover/pkg/logger"
	"github.com/moyu-x/framemover/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "把文件名匹配后缀的图片移动到目标目录",
	Long: `扫描源目录，把文件名以指定后缀结尾的图片按相对路径移动到目标目录:
1. 递归遍历源目录中的普通文件（跳过符号链接）
2. 检查扩展名与文件名后缀
3. 计算 SHA-256 摘要，目标目录中已有相同内容时跳过
4. 同名不同内容时在扩展名前追加 -1、-2 ……
5. 移动文件，跨磁盘时复制后删除

有文件处理失败时退出码为 1。`,
	Example: `  framemover run -s ~/Pictures/Import -d ~/Pictures/Picked -x "7612, 7605"
  framemover run -s ./in -d ./out -x 7612 --dry-run --json`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	source, _ := cmd.Flags().GetString("source")
	dest, _ := cmd.Flags().GetString("dest")
	suffixes, _ := cmd.Flags().GetString("suffixes")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOut, _ := cmd.Flags().GetBool("json")
	useTUI, _ := cmd.Flags().GetBool("tui")

	journalEnabled := cfg.Journal.Enabled
	if cmd.Flags().Changed("journal") {
		journalEnabled, _ = cmd.Flags().GetBool("journal")
	}

	logLevel := cfg.Logging.Level
	if verbose {
		logLevel = "debug"
	}

	// TUI 占用终端，json 模式占用 stdout，日志都不能写到 stdout
	var console io.Writer = os.Stderr
	if useTUI {
		console = io.Discard
	}
	if err := logger.InitWriter(logLevel, cfg.Logging.File, console); err != nil {
		return err
	}
	defer logger.Close()

	params := engine.Params{
		Source:   absPath(source),
		Dest:     absPath(dest),
		Suffixes: suffixes,
		DryRun:   dryRun,
		Verbose:  verbose,
		Precount: cfg.Scanner.Precount,
	}

	runner, err := engine.NewRunner(engine.New(afero.NewOsFs()))
	if err != nil {
		return err
	}
	defer runner.Release()

	var res *engine.Result
	if useTUI {
		res, err = tui.Run(&tui.Config{Runner: runner, Params: params})
		if err != nil {
			return err
		}
		if res == nil {
			// 用户在开始运行前退出
			return nil
		}
	} else {
		h, err := runner.Start(context.Background(), params)
		if err != nil {
			return err
		}
		res = follow(cmd.OutOrStdout(), h, jsonOut, cfg.Progress.LogEvery)
	}

	if !jsonOut {
		printSummary(cmd.OutOrStdout(), res, verbose)
	}

	if journalEnabled {
		saveJournal(cfg.Journal.Path, res)
	}

	if res.ExitCode() != 0 {
		return fmt.Errorf("有 %d 个文件处理失败", res.Final.Errors)
	}
	return nil
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// follow 消费快照直到运行结束。json 模式下每个快照输出一行 JSON，
// 否则每扫描 logEvery 个文件记录一条进度日志。
func follow(out io.Writer, h *engine.Handle, jsonOut bool, logEvery int) *engine.Result {
	enc := json.NewEncoder(out)
	lastLogged := 0

	for s := range h.Snapshots() {
		if jsonOut {
			if err := enc.Encode(s); err != nil {
				logger.Get().Warn().Err(err).Msg("输出进度失败")
			}
			continue
		}
		if logEvery > 0 && s.Scanned-lastLogged >= logEvery {
			lastLogged = s.Scanned
			logger.Get().Info().Msgf("处理进度: 已扫描 %d (%.1f%%) - 匹配: %d, 移动: %d, 重复: %d, 失败: %d",
				s.Scanned, s.Percent, s.Matched, s.Moved, s.SkippedDuplicates, s.Errors)
		}
	}

	return h.Wait()
}

func printSummary(out io.Writer, res *engine.Result, verbose bool) {
	final := res.Final

	fmt.Fprintln(out, "========== 运行结束 ==========")
	if res.DryRun {
		fmt.Fprintln(out, "演练模式: 没有修改任何文件")
	}
	fmt.Fprintf(out, "状态: %s\n", final.Phase)
	fmt.Fprintf(out, "已扫描: %d\n", final.Scanned)
	fmt.Fprintf(out, "匹配后缀: %d\n", final.Matched)
	fmt.Fprintf(out, "已移动: %d\n", final.Moved)
	fmt.Fprintf(out, "重复跳过: %d\n", final.SkippedDuplicates)
	fmt.Fprintf(out, "失败: %d\n", final.Errors)
	fmt.Fprintf(out, "耗时: %v\n", res.Duration().Round(time.Millisecond))
	if verbose {
		printTypes(out, res.Outcomes)
	}

	for _, o := range res.Outcomes {
		switch o.Kind {
		case engine.OutcomeError:
			fmt.Fprintf(out, "  ✗ %s [%s]: %s\n", o.Source, o.ErrorKind, o.Message)
		case engine.OutcomeMoved:
			if verbose {
				fmt.Fprintf(out, "  → %s -> %s%s\n", o.Source, o.Path, mimeLabel(o.MIME))
			}
		case engine.OutcomeSkippedDuplicate:
			if verbose {
				fmt.Fprintf(out, "  = %s (已存在: %s)\n", o.Source, o.Path)
			}
		}
	}
}

// printTypes 按 MIME 类型统计移动的文件
func printTypes(out io.Writer, outcomes []engine.Outcome) {
	counts := make(map[string]int)
	for _, o := range outcomes {
		if o.Kind != engine.OutcomeMoved {
			continue
		}
		mime := o.MIME
		if mime == "" {
			mime = "未知类型"
		}
		counts[mime]++
	}
	if len(counts) == 0 {
		return
	}

	types := make([]string, 0, len(counts))
	for mime := range counts {
		types = append(types, mime)
	}
	sort.Strings(types)

	parts := make([]string, 0, len(types))
	for _, mime := range types {
		parts = append(parts, fmt.Sprintf("%s %d", mime, counts[mime]))
	}
	fmt.Fprintf(out, "按类型: %s\n", strings.Join(parts, ", "))
}

func mimeLabel(mime string) string {
	if mime == "" {
		return ""
	}
	return " [" + mime + "]"
}

func saveJournal(path string, res *engine.Result) {
	db, err := database.NewDatabase(path)
	if err != nil {
		logger.Get().Error().Err(err).Msg("打开运行日志失败")
		return
	}
	defer db.Close()

	if err := db.SaveRun(res); err != nil {
		return
	}
	logger.Get().Info().Msgf("运行记录已保存: %s", res.RunID)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("source", "s", "", "源目录路径 (必需)")
	runCmd.Flags().StringP("dest", "d", "", "目标目录路径，必须已存在 (必需)")
	runCmd.Flags().StringP("suffixes", "x", "", "文件名后缀，逗号、空格或换行分隔")
	runCmd.Flags().Bool("dry-run", false, "只报告结果，不修改任何文件")
	runCmd.Flags().BoolP("verbose", "v", false, "显示每个文件的处理结果和调试日志")
	runCmd.Flags().Bool("json", false, "以 JSON Lines 格式向 stdout 输出进度快照")
	runCmd.Flags().Bool("tui", false, "使用交互界面（可随时按 q 取消）")
	runCmd.Flags().Bool("journal", false, "把运行结果写入运行日志数据库")

	runCmd.MarkFlagsMutuallyExclusive("json", "tui")
}

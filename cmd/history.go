package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/moyu-x/framemover/config"
	"github.com/moyu-x/framemover/pkg/database"
	"github.com/moyu-x/framemover/pkg/logger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "查看运行日志中的历史运行",
	Long: `列出运行日志数据库中最近的运行记录。
使用 --run 查看某次运行中每个文件的处理结果。
运行日志只用于审计，不会影响后续运行。`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return err
	}
	defer logger.Close()

	path := cfg.Journal.Path
	if cmd.Flags().Changed("db") {
		path, _ = cmd.Flags().GetString("db")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run")

	db, err := database.NewDatabase(path)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if runID != "" {
		return printOutcomes(out, db, runID)
	}
	return printRuns(out, db, limit)
}

func printRuns(out io.Writer, db *database.Database, limit int) error {
	runs, err := db.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "没有运行记录")
		return nil
	}

	for _, r := range runs {
		mode := ""
		if r.DryRun {
			mode = " (演练)"
		}
		fmt.Fprintf(out, "%s  %s  %s%s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.RunID, r.Phase, mode)
		fmt.Fprintf(out, "    %s -> %s  后缀: %s\n", r.Source, r.Dest, r.Suffixes)
		fmt.Fprintf(out, "    扫描 %d, 匹配 %d, 移动 %d, 重复 %d, 失败 %d\n",
			r.Scanned, r.Matched, r.Moved, r.SkippedDuplicates, r.Errors)
	}
	return nil
}

func printOutcomes(out io.Writer, db *database.Database, runID string) error {
	outcomes, err := db.Outcomes(runID)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		fmt.Fprintf(out, "运行 %s 没有文件结果\n", runID)
		return nil
	}

	for _, o := range outcomes {
		switch o.Kind {
		case "error":
			fmt.Fprintf(out, "✗ %s [%s]: %s\n", o.Source, o.ErrorKind, o.Message)
		case "skipped_duplicate":
			fmt.Fprintf(out, "= %s (已存在: %s)%s\n", o.Source, o.Path, mimeLabel(o.MIME))
		default:
			fmt.Fprintf(out, "→ %s -> %s%s\n", o.Source, o.Path, mimeLabel(o.MIME))
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 10, "显示的运行数量")
	historyCmd.Flags().String("run", "", "显示指定运行的文件结果")
	historyCmd.Flags().String("db", config.DefaultJournalPath, "运行日志数据库路径")
}

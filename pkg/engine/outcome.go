package engine

import (
	"time"

	"github.com/moyu-x/framemover/pkg/progress"
)

// OutcomeKind 单个候选文件的处理结果
type OutcomeKind string

const (
	OutcomeMoved            OutcomeKind = "moved"
	OutcomeSkippedDuplicate OutcomeKind = "skipped_duplicate"
	OutcomeError            OutcomeKind = "error"
)

// Outcome 记录后不再修改。
// Moved 时 Path 为最终路径；SkippedDuplicate 时为已存在的相同内容文件。
type Outcome struct {
	Source    string
	RelPath   string
	Kind      OutcomeKind
	Path      string
	ErrorKind ErrorKind
	Message   string
	Digest    string
	MIME      string
	Suffix    string
	Simulated bool // dry-run 下的模拟结果
}

// Result 一次运行的最终结果
type Result struct {
	RunID      string
	Source     string
	Dest       string
	Suffixes   string
	DryRun     bool
	Final      progress.Snapshot
	Outcomes   []Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// ExitCode 错误数为 0 时返回 0，取消不影响退出码
func (r *Result) ExitCode() int {
	if r == nil || r.Final.Errors > 0 {
		return 1
	}
	return 0
}

// Count 统计某类结果的数量
func (r *Result) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

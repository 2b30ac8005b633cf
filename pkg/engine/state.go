package engine

import "github.com/moyu-x/framemover/pkg/progress"

// RunState 运行期间的可变状态，只由执行运行的 goroutine 访问，
// 对外只暴露 Snapshot 值。
type RunState struct {
	phase       progress.Phase
	currentFile string
	scanned     int
	matched     int
	moved       int
	skipped     int
	errors      int
	estimator   *progress.Estimator
}

func newRunState(total int) *RunState {
	return &RunState{
		phase:     progress.PhaseIdle,
		estimator: progress.NewEstimator(total),
	}
}

func (s *RunState) enter(phase progress.Phase) {
	s.phase = phase
}

func (s *RunState) scan(path string) {
	s.scanned++
	s.currentFile = path
	s.estimator.Update(s.scanned)
}

func (s *RunState) finish(phase progress.Phase) {
	s.phase = phase
	s.currentFile = ""
	s.estimator.Finish(phase)
}

func (s *RunState) Snapshot() progress.Snapshot {
	return progress.Snapshot{
		Phase:             s.phase,
		CurrentFile:       s.currentFile,
		Scanned:           s.scanned,
		Matched:           s.matched,
		Moved:             s.moved,
		SkippedDuplicates: s.skipped,
		Errors:            s.errors,
		Percent:           s.estimator.Percent(),
	}
}

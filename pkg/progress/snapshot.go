package progress

import "encoding/json"

// Phase 运行阶段
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseScanning  Phase = "scanning"
	PhaseMatching  Phase = "matching"
	PhaseHashing   Phase = "hashing"
	PhaseMoving    Phase = "moving"
	PhaseDone      Phase = "done"
	PhaseCancelled Phase = "cancelled"
)

// Terminal 是否为终止阶段
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseCancelled
}

// Snapshot 某一时刻的运行状态，值类型，发出后不再修改
type Snapshot struct {
	Phase             Phase
	CurrentFile       string
	Scanned           int
	Matched           int
	Moved             int
	SkippedDuplicates int
	Errors            int
	Percent           float64
}

type snapshotJSON struct {
	Phase             Phase   `json:"phase"`
	CurrentFile       *string `json:"currentFile"`
	Scanned           int     `json:"scanned"`
	Matched           int     `json:"matched"`
	Moved             int     `json:"moved"`
	SkippedDuplicates int     `json:"skippedDuplicates"`
	Errors            int     `json:"errors"`
	Percent           float64 `json:"percent"`
}

// MarshalJSON 没有当前文件时 currentFile 输出为 null
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		Phase:             s.Phase,
		Scanned:           s.Scanned,
		Matched:           s.Matched,
		Moved:             s.Moved,
		SkippedDuplicates: s.SkippedDuplicates,
		Errors:            s.Errors,
		Percent:           s.Percent,
	}
	if s.CurrentFile != "" {
		file := s.CurrentFile
		out.CurrentFile = &file
	}
	return json.Marshal(out)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var in snapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Snapshot{
		Phase:             in.Phase,
		Scanned:           in.Scanned,
		Matched:           in.Matched,
		Moved:             in.Moved,
		SkippedDuplicates: in.SkippedDuplicates,
		Errors:            in.Errors,
		Percent:           in.Percent,
	}
	if in.CurrentFile != nil {
		s.CurrentFile = *in.CurrentFile
	}
	return nil
}

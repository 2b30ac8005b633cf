package tui

import (
	"github.com/moyu-x/framemover/pkg/engine"
	"github.com/moyu-x/framemover/pkg/progress"
)

type snapshotMsg progress.Snapshot

type runDoneMsg struct {
	result *engine.Result
}

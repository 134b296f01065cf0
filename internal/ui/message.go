package ui

import (
	"github.com/desertthunder/albumsync/internal/tasks"
)

// progressUpdateMsg carries one [tasks.ProgressUpdate] from the engine.
type progressUpdateMsg tasks.ProgressUpdate

// planReadyMsg is sent when the dry run that builds the plan finishes.
type planReadyMsg struct {
	result *tasks.SyncResult
	err    error
}

// appendDoneMsg is sent when the reviewed plan has been appended.
type appendDoneMsg struct {
	result *tasks.SyncResult
	err    error
}

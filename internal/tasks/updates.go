package tasks

import (
	"fmt"

	"github.com/desertthunder/albumsync/internal/services"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchTracks Phase = iota
	BuildAlbums
	ReadSheet
	Compare
	AppendRows
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchTracks:
		return "fetch_tracks"
	case BuildAlbums:
		return "build_albums"
	case ReadSheet:
		return "read_sheet"
	case Compare:
		return "compare"
	case AppendRows:
		return "append_rows"
	case Done:
		return "done"
	default:
		return ""
	}
}

func fetchTracksUpdate(step, total int, source services.TrackSource) ProgressUpdate {
	if total == 0 && step == 0 {
		return ProgressUpdate{
			Phase:   FetchTracks,
			Message: fmt.Sprintf("Fetching playlist tracks from %s...", source.Name()),
		}
	}
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetched playlist tracks", step, total),
	}
}

func buildAlbumsUpdate(result *AggregateResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildAlbums,
		Step:    len(result.Albums),
		Total:   result.Tracks,
		Message: fmt.Sprintf("Found %d albums in %d tracks", len(result.Albums), result.Tracks),
		Data:    result,
	}
}

func readSheetUpdate(rng string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadSheet,
		Message: fmt.Sprintf("Reading existing rows (%s)...", rng),
	}
}

func compareUpdate(plan *ReconcilePlan, albums int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    len(plan.Missing),
		Total:   albums,
		Message: fmt.Sprintf("%d of %d albums missing from the sheet", len(plan.Missing), albums),
		Data:    plan,
	}
}

func appendRowsUpdate(rows int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendRows,
		Total:   rows,
		Message: fmt.Sprintf("Appending %d rows...", rows),
	}
}

func doneUpdate(result *SyncResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    result.RowsAppended,
		Total:   len(result.Plan.Rows),
		Message: fmt.Sprintf("✓ %d rows appended", result.RowsAppended),
		Data:    result,
	}
}

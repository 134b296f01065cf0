// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/albumsync/internal/models"
	"github.com/desertthunder/albumsync/internal/services"
)

// MockTrackSource is a test double for [services.TrackSource] serving Tracks in pages of PageSize.
type MockTrackSource struct {
	mu sync.Mutex

	Tracks   []models.Track
	PageSize int
	// Total overrides the declared total when non-nil.
	Total *int
	// Err is returned by request number ErrOnCall (1-based), or by every request when ErrOnCall is 0.
	Err       error
	ErrOnCall int

	Offsets []int // Offsets requested, in order
}

func (m *MockTrackSource) Name() string { return "mock" }

func (m *MockTrackSource) PlaylistTracksPage(ctx context.Context, ownerID, playlistID string, offset int) (*services.TrackPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Offsets = append(m.Offsets, offset)
	if m.Err != nil && (m.ErrOnCall == 0 || m.ErrOnCall == len(m.Offsets)) {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := m.PageSize
	if size <= 0 {
		size = 100
	}

	total := len(m.Tracks)
	if m.Total != nil {
		total = *m.Total
	}

	start := min(offset, len(m.Tracks))
	end := min(start+size, len(m.Tracks))

	items := make([]models.Track, end-start)
	copy(items, m.Tracks[start:end])
	return &services.TrackPage{Items: items, Total: total}, nil
}

// Requests returns how many pages were requested.
func (m *MockTrackSource) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Offsets)
}

// MockSheetService is a test double for [services.SheetService] backed by an in-memory row list.
//
// Appended rows are added to Rows so that a later read sees them.
type MockSheetService struct {
	mu sync.Mutex

	Rows      []models.SheetRow
	ReadErr   error
	AppendErr error

	ReadCalls       int
	AppendCalls     int
	Appended        [][]any
	LastRange       string
	LastInputOption string
}

func (m *MockSheetService) Name() string { return "mock sheets" }

func (m *MockSheetService) ReadRange(ctx context.Context, spreadsheetID, rng string) ([]models.SheetRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReadCalls++
	m.LastRange = rng
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}

	rows := make([]models.SheetRow, len(m.Rows))
	copy(rows, m.Rows)
	return rows, nil
}

func (m *MockSheetService) AppendRows(ctx context.Context, spreadsheetID, rng, inputOption string, rows [][]any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCalls++
	m.LastRange = rng
	m.LastInputOption = inputOption
	if m.AppendErr != nil {
		return 0, m.AppendErr
	}

	for _, row := range rows {
		m.Appended = append(m.Appended, row)

		cells := make(models.SheetRow, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprint(cell)
		}
		m.Rows = append(m.Rows, cells)
	}
	return len(rows), nil
}

// MustTrack builds a track on album albumID (URI "spotify:album:<albumID>") or fails the test.
func MustTrack(t *testing.T, id, albumID, albumName string, albumArtists []string, addedAt string) models.Track {
	t.Helper()
	track, err := models.NewTrack(id, "Track "+id, albumArtists, addedAt, models.TrackAlbum{
		ID:      albumID,
		Name:    albumName,
		Artists: albumArtists,
		URI:     "spotify:album:" + albumID,
	})
	if err != nil {
		t.Fatalf("failed to build track %s: %v", id, err)
	}
	return *track
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

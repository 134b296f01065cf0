package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/albumsync/internal/shared"
)

// DateFormat is the zero-padded month/day/year layout written to the spreadsheet.
const DateFormat = "01/02/2006"

var addedAtLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// TrackAlbum is the album embedded in a playlist track.
type TrackAlbum struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
	URI     string   `json:"uri"`
}

// Track is one playlist item.
type Track struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Artists []string   `json:"artists"`
	AddedAt time.Time  `json:"added_at"`
	Album   TrackAlbum `json:"album"`
}

// NewTrack validates the fields album aggregation depends on and parses addedAt.
func NewTrack(id, name string, artists []string, addedAt string, album TrackAlbum) (*Track, error) {
	if addedAt == "" {
		return nil, shared.NewDataShapeError("track", "added_at", fmt.Errorf("missing for track %q", name))
	}

	parsed, err := ParseAddedAt(addedAt)
	if err != nil {
		return nil, shared.NewDataShapeError("track", "added_at", err)
	}

	if album.ID == "" {
		return nil, shared.NewDataShapeError("track", "album.id", fmt.Errorf("missing for track %q", name))
	}
	if album.URI == "" {
		return nil, shared.NewDataShapeError("track", "album.uri", fmt.Errorf("missing for album %q", album.ID))
	}

	return &Track{
		ID:      id,
		Name:    name,
		Artists: artists,
		AddedAt: parsed,
		Album:   album,
	}, nil
}

// ParseAddedAt parses a Spotify added_at timestamp, keeping its UTC offset.
func ParseAddedAt(s string) (time.Time, error) {
	for _, layout := range addedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// String renders "Track Name - Artist1, Artist2".
func (t Track) String() string {
	return fmt.Sprintf("%s - %s", t.Name, JoinArtists(t.Artists))
}

// Album is one deduplicated album as written to the spreadsheet.
type Album struct {
	ID      string    `json:"id"`
	Date    string    `json:"date"`
	Name    string    `json:"name"`
	Artists string    `json:"artists"`
	URI     string    `json:"uri"`
	AddedAt time.Time `json:"added_at"`
}

// NewAlbum captures the album of t as first seen through t.
func NewAlbum(t Track) Album {
	return Album{
		ID:      t.Album.ID,
		Date:    t.AddedAt.Format(DateFormat),
		Name:    t.Album.Name,
		Artists: JoinArtists(t.Album.Artists),
		URI:     t.Album.URI,
		AddedAt: t.AddedAt,
	}
}

// Day returns the calendar day the album was first added, in the timestamp's own offset.
func (a Album) Day() time.Time {
	y, m, d := a.AddedAt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// JoinArtists joins artist names with a comma and a space, keeping source order.
func JoinArtists(names []string) string {
	return strings.Join(names, ", ")
}

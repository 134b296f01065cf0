package tasks

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/albumsync/internal/models"
	"github.com/desertthunder/albumsync/internal/services"
	"github.com/desertthunder/albumsync/internal/shared"
)

// PlaylistConfig identifies the source playlist and how its albums are ordered.
type PlaylistConfig struct {
	OwnerID    string
	PlaylistID string
	// Ordering is [shared.OrderChronological] (default) or [shared.OrderLexical].
	Ordering string
}

// AggregateResult is the outcome of [AggregateAlbums].
type AggregateResult struct {
	Tracks   int            // Tracks read across all pages
	Requests int            // Page requests issued
	Albums   []models.Album // Deduplicated albums, sorted by date
}

// AggregateAlbums pages through the playlist and reduces its tracks to one [models.Album] per album ID.
//
// The first track seen for an album determines its date and metadata.
func AggregateAlbums(ctx context.Context, source services.TrackSource, playlist PlaylistConfig) (*AggregateResult, error) {
	return aggregateAlbums(ctx, source, playlist, nil)
}

// aggregateAlbums calls onPage after every page with the running track count and the declared total.
func aggregateAlbums(
	ctx context.Context, source services.TrackSource, playlist PlaylistConfig, onPage func(collected, total int),
) (*AggregateResult, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: track source not initialized", shared.ErrServiceUnavailable)
	}

	result := &AggregateResult{}
	seen := make(map[string]struct{})
	var albums []models.Album

	for {
		page, err := source.PlaylistTracksPage(ctx, playlist.OwnerID, playlist.PlaylistID, result.Tracks)
		if err != nil {
			return nil, wrapRequestError(err, "failed to fetch playlist page at offset %d", result.Tracks)
		}
		result.Requests++

		for _, track := range page.Items {
			if _, ok := seen[track.Album.ID]; ok {
				continue
			}
			seen[track.Album.ID] = struct{}{}
			albums = append(albums, models.NewAlbum(track))
		}
		result.Tracks += len(page.Items)

		if onPage != nil {
			onPage(result.Tracks, page.Total)
		}

		if result.Tracks >= page.Total {
			break
		}
		if len(page.Items) == 0 {
			return nil, shared.NewDataShapeError("playlist_page", "items",
				fmt.Errorf("empty page at offset %d with %d of %d tracks collected", result.Tracks, result.Tracks, page.Total))
		}
	}

	SortAlbums(albums, playlist.Ordering)
	result.Albums = albums
	return result, nil
}

// SortAlbums orders albums by date, stably so that albums added on the same day keep playlist order.
//
// Chronological ordering compares calendar days; lexical ordering compares the MM/DD/YYYY strings,
// which groups albums by month and day before year.
func SortAlbums(albums []models.Album, ordering string) {
	if ordering == shared.OrderLexical {
		slices.SortStableFunc(albums, func(a, b models.Album) int {
			return cmp.Compare(a.Date, b.Date)
		})
		return
	}

	slices.SortStableFunc(albums, func(a, b models.Album) int {
		return a.Day().Compare(b.Day())
	})
}

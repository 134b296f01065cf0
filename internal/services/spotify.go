package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/albumsync/internal/models"
	"github.com/desertthunder/albumsync/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyServiceName = "Spotify"

	// DefaultPageSize is the Web API's maximum page size for playlist items.
	DefaultPageSize = 100

	spotifyRemediation = "API credentials not set. Set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET " +
		"(or [credentials.spotify] in config.toml) to the client ID and secret of a Spotify application."
)

// SpotifyOptions configures [NewSpotifySource].
type SpotifyOptions struct {
	ClientID     string
	ClientSecret string
	PageSize     int
	// TokenURL overrides [spotifyauth.TokenURL].
	TokenURL string
	// HTTPClient is used for token requests and as the base transport.
	HTTPClient *http.Client
	// ClientOptions are passed to [spotify.New], e.g. [spotify.WithBaseURL].
	ClientOptions []spotify.ClientOption
	Logger        *log.Logger
}

// SpotifySource implements [TrackSource] over the Spotify Web API.
type SpotifySource struct {
	client   *spotify.Client
	pageSize int
	logger   *log.Logger
}

// NewSpotifySource exchanges the application's client credentials for a token and returns a ready [SpotifySource].
//
// Missing or rejected credentials produce a [shared.AuthenticationError].
func NewSpotifySource(ctx context.Context, opts SpotifyOptions) (*SpotifySource, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, shared.NewAuthError(spotifyServiceName, spotifyRemediation, shared.ErrMissingCredentials)
	}

	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	config := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     tokenURL,
	}

	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	token, err := config.Token(ctx)
	if err != nil {
		return nil, shared.NewAuthError(spotifyServiceName, spotifyRemediation, fmt.Errorf("unable to retrieve token: %w", err))
	}

	httpClient := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, config.TokenSource(ctx)))
	client := spotify.New(httpClient, opts.ClientOptions...)

	return NewSpotifySourceFromClient(client, opts.PageSize, opts.Logger), nil
}

// NewSpotifySourceFromClient wraps an already authenticated client.
func NewSpotifySourceFromClient(client *spotify.Client, pageSize int, logger *log.Logger) *SpotifySource {
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &SpotifySource{client: client, pageSize: pageSize, logger: logger}
}

func (s *SpotifySource) Name() string {
	return spotifyServiceName
}

// PlaylistTracksPage fetches one page of playlist items starting at offset.
//
// The owner ID is informational: the Web API addresses playlists by ID alone.
func (s *SpotifySource) PlaylistTracksPage(ctx context.Context, ownerID, playlistID string, offset int) (*TrackPage, error) {
	s.logger.Debug("fetching playlist page", "owner", ownerID, "playlist", playlistID, "offset", offset, "limit", s.pageSize)

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Offset(offset), spotify.Limit(s.pageSize))
	if err != nil {
		return nil, classifySpotifyError(err)
	}

	tracks := make([]models.Track, 0, len(page.Items))
	for i, item := range page.Items {
		track, err := trackFromItem(item)
		if err != nil {
			return nil, fmt.Errorf("playlist item %d: %w", offset+i, err)
		}
		tracks = append(tracks, *track)
	}

	return &TrackPage{Items: tracks, Total: int(page.Total)}, nil
}

// trackFromItem maps a playlist item to a [models.Track]. Episodes and removed tracks have no album and are rejected.
func trackFromItem(item spotify.PlaylistItem) (*models.Track, error) {
	full := item.Track.Track
	if full == nil {
		return nil, shared.NewDataShapeError("playlist_item", "track", fmt.Errorf("item added at %q is not a track", item.AddedAt))
	}

	album := models.TrackAlbum{
		ID:      string(full.Album.ID),
		Name:    full.Album.Name,
		Artists: artistNames(full.Album.Artists),
		URI:     string(full.Album.URI),
	}

	return models.NewTrack(string(full.ID), full.Name, artistNames(full.Artists), item.AddedAt, album)
}

func artistNames(artists []spotify.SimpleArtist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return names
}

// classifySpotifyError turns 401 responses and token failures into [shared.AuthenticationError].
func classifySpotifyError(err error) error {
	var apiErr spotify.Error
	var apiErrPtr *spotify.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized,
		errors.As(err, &apiErrPtr) && apiErrPtr.Status == http.StatusUnauthorized:
		return shared.NewAuthError(spotifyServiceName, spotifyRemediation, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return shared.NewAuthError(spotifyServiceName, spotifyRemediation, err)
	}

	return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
}

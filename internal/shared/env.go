package shared

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// Environment variables that override config file values.
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvSheetID             = "GOOGLE_SHEET_ID"
	EnvGoogleAPIKey        = "GOOGLE_API_KEY"
	EnvGoogleCredentials   = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvDatabasePath        = "ALBUMSYNC_DATABASE"
)

// LookupFunc matches [os.LookupEnv].
type LookupFunc func(key string) (string, bool)

// LoadEnv loads KEY=value pairs from the given dotenv files into the process environment.
//
// Missing files are skipped; variables already set are not overwritten.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with non-empty environment variables.
func ApplyEnv(config *Config, lookup LookupFunc) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&config.Credentials.Spotify.ClientID, EnvSpotifyClientID)
	set(&config.Credentials.Spotify.ClientSecret, EnvSpotifyClientSecret)
	set(&config.Sheet.SpreadsheetID, EnvSheetID)
	set(&config.Credentials.Google.APIKey, EnvGoogleAPIKey)
	set(&config.Credentials.Google.CredentialsFile, EnvGoogleCredentials)
	set(&config.Database.Path, EnvDatabasePath)
}

package services

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/desertthunder/albumsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	googleServiceName = "Google Sheets"

	googleRemediation = "No usable Google credentials. Either run `albumsync auth google` " +
		"(the OAuth client's authorized redirect URI must match [credentials.google] redirect_uri, e.g. http://localhost:3000/callback), " +
		"set credentials_file or GOOGLE_APPLICATION_CREDENTIALS to a service account key shared on the spreadsheet, " +
		"or run `gcloud auth application-default login`."
)

// GoogleOAuthConfig builds the installed-app OAuth configuration for the Sheets scope.
func GoogleOAuthConfig(cfg shared.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// GoogleClientOptions resolves Sheets credentials from cfg, in order:
//
//  1. a token stored by `auth google`, refreshed as needed; onRefresh receives every new token
//  2. a service account or authorized user JSON file
//  3. an API key (read-only access to public sheets)
//  4. Application Default Credentials
func GoogleClientOptions(ctx context.Context, cfg shared.GoogleConfig, onRefresh func(*oauth2.Token)) ([]option.ClientOption, error) {
	switch {
	case cfg.HasToken():
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, shared.NewAuthError(googleServiceName, googleRemediation,
				fmt.Errorf("%w: stored token requires client_id and client_secret", shared.ErrMissingCredentials))
		}
		source := &refreshableTokenSource{
			source:   GoogleOAuthConfig(cfg).TokenSource(ctx, cfg.Token()),
			callback: onRefresh,
			last:     cfg.AccessToken,
		}
		return []option.ClientOption{option.WithTokenSource(oauth2.ReuseTokenSource(nil, source))}, nil
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, shared.NewAuthError(googleServiceName, googleRemediation,
				fmt.Errorf("%w: %w", shared.ErrMissingCredentials, err))
		}
		creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, shared.NewAuthError(googleServiceName, googleRemediation,
				fmt.Errorf("%w: %w", shared.ErrInvalidCredentials, err))
		}
		return []option.ClientOption{option.WithCredentials(creds)}, nil
	case cfg.APIKey != "":
		return []option.ClientOption{option.WithAPIKey(cfg.APIKey)}, nil
	default:
		creds, err := google.FindDefaultCredentials(ctx, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, shared.NewAuthError(googleServiceName, googleRemediation,
				fmt.Errorf("%w: %w", shared.ErrMissingCredentials, err))
		}
		return []option.ClientOption{option.WithCredentials(creds)}, nil
	}
}

// refreshableTokenSource reports each distinct access token to callback so refreshed tokens can be persisted.
type refreshableTokenSource struct {
	mu       sync.Mutex
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     string
}

func (s *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := token.AccessToken != s.last
	s.last = token.AccessToken
	s.mu.Unlock()

	if changed && s.callback != nil {
		s.callback(token)
	}
	return token, nil
}

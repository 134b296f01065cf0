package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	// OrderChronological sorts albums by the calendar day they were first added.
	OrderChronological = "chronological"
	// OrderLexical sorts albums by their MM/DD/YYYY date string.
	OrderLexical = "lexical"

	// DateLayout is the layout of reference_date in the config file.
	DateLayout = "2006-01-02"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Playlist    PlaylistConfig    `toml:"playlist"`
	Sheet       SheetConfig       `toml:"sheet"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// PlaylistConfig identifies the source playlist.
type PlaylistConfig struct {
	OwnerID  string `toml:"owner_id"`
	ID       string `toml:"id"`
	PageSize int    `toml:"page_size"`
	Ordering string `toml:"ordering"`
}

// SheetConfig identifies the destination spreadsheet range.
type SheetConfig struct {
	SpreadsheetID string `toml:"spreadsheet_id"`
	Range         string `toml:"range"`
	ReferenceDate string `toml:"reference_date"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Google  GoogleConfig  `toml:"google"`
}

// SpotifyConfig contains Spotify application credentials for the client credentials flow.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// GoogleConfig contains Google Sheets credentials.
//
// Resolution order is OAuth token, credentials file, API key, then application default credentials.
type GoogleConfig struct {
	CredentialsFile string `toml:"credentials_file"`
	APIKey          string `toml:"api_key"`
	ClientID        string `toml:"client_id"`
	ClientSecret    string `toml:"client_secret"`
	RedirectURI     string `toml:"redirect_uri"`
	AccessToken     string `toml:"access_token"`
	RefreshToken    string `toml:"refresh_token"`
	TokenExpiry     string `toml:"token_expiry"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// HasToken reports whether an OAuth token has been stored.
func (g GoogleConfig) HasToken() bool {
	return g.AccessToken != "" || g.RefreshToken != ""
}

// Token rebuilds the stored [oauth2.Token]. An unparsable expiry is treated as expired so the refresh token is used.
func (g GoogleConfig) Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  g.AccessToken,
		RefreshToken: g.RefreshToken,
		TokenType:    "Bearer",
	}
	if g.TokenExpiry != "" {
		if expiry, err := time.Parse(time.RFC3339, g.TokenExpiry); err == nil {
			token.Expiry = expiry
		} else {
			token.Expiry = time.Unix(1, 0)
		}
	}
	return token
}

// Update stores token in the config.
func (g *GoogleConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}
	g.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		g.RefreshToken = token.RefreshToken
	}
	g.TokenExpiry = ""
	if !token.Expiry.IsZero() {
		g.TokenExpiry = token.Expiry.UTC().Format(time.RFC3339)
	}
	return nil
}

// ParsedReferenceDate returns the offset formula's reference date.
func (s SheetConfig) ParsedReferenceDate() (time.Time, error) {
	t, err := time.Parse(DateLayout, s.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: reference_date %q: %v", ErrInvalidConfig, s.ReferenceDate, err)
	}
	return t, nil
}

// Validate checks the fields a sync run cannot do without.
func (c *Config) Validate() error {
	var problems []string
	if c.Playlist.ID == "" {
		problems = append(problems, "playlist.id is empty")
	}
	if c.Playlist.PageSize < 0 || c.Playlist.PageSize > 100 {
		problems = append(problems, fmt.Sprintf("playlist.page_size %d is outside 1..100", c.Playlist.PageSize))
	}
	switch c.Playlist.Ordering {
	case "", OrderChronological, OrderLexical:
	default:
		problems = append(problems, fmt.Sprintf("playlist.ordering %q is not %q or %q", c.Playlist.Ordering, OrderChronological, OrderLexical))
	}
	if c.Sheet.SpreadsheetID == "" {
		problems = append(problems, "sheet.spreadsheet_id is empty (set GOOGLE_SHEET_ID)")
	}
	if c.Sheet.Range == "" {
		problems = append(problems, "sheet.range is empty")
	}
	if _, err := c.Sheet.ParsedReferenceDate(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes config to path as TOML, owner-readable only since it holds tokens.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveConfig loads path when it exists and falls back to defaults otherwise, then applies environment overrides.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	ApplyEnv(config, os.LookupEnv)
	return config, nil
}

package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/albumsync/internal/server"
	"github.com/desertthunder/albumsync/internal/services"
	"github.com/desertthunder/albumsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthGoogle runs the browser OAuth flow for Google Sheets and saves the token to the config file.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	google := &r.config.Credentials.Google
	if google.ClientID == "" || google.ClientSecret == "" {
		return fmt.Errorf("%w: credentials.google client_id and client_secret must be set in %s",
			shared.ErrMissingCredentials, r.configPath)
	}
	if google.RedirectURI == "" {
		google.RedirectURI = fmt.Sprintf("http://%s%s", r.callbackAddr(), server.DefaultCallbackPath)
	}

	r.writePlain("The redirect URI %s must be listed for this OAuth client in the Google Cloud console.\n\n", google.RedirectURI)

	token, err := server.Authorize(ctx, services.GoogleOAuthConfig(*google), server.FlowOptions{
		Addr:   r.callbackAddr(),
		Open:   r.open,
		Out:    r.output,
		Logger: shared.WithLogger(r.logger, "component", "oauth"),
	})
	if err != nil {
		return err
	}

	if err := google.Update(token); err != nil {
		return fmt.Errorf("failed to update google configuration: %w", err)
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: albumsync sync\n")
	return nil
}

// AuthStatus reports which credentials each service will use, without making requests.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	spotify := r.config.Credentials.Spotify
	if spotify.ClientID != "" && spotify.ClientSecret != "" {
		r.writePlain("Spotify: ✓ client credentials configured\n")
	} else {
		r.writePlain("Spotify: ✗ set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET\n")
	}

	google := r.config.Credentials.Google
	switch {
	case google.HasToken():
		expiry := "no expiry recorded"
		if token := google.Token(); !token.Expiry.IsZero() {
			expiry = "expires " + token.Expiry.Local().Format("2006-01-02 15:04")
		}
		r.writePlain("Google Sheets: ✓ stored OAuth token (%s)\n", expiry)
	case google.CredentialsFile != "":
		r.writePlain("Google Sheets: ✓ credentials file %s\n", google.CredentialsFile)
	case google.APIKey != "":
		r.writePlain("Google Sheets: ⚠ API key (read-only, appends will fail)\n")
	default:
		r.writePlain("Google Sheets: application default credentials (run `albumsync auth google` to store a token)\n")
	}

	return nil
}

func (r *Runner) callbackAddr() string {
	return net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
}

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/albumsync/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultFlowTimeout bounds how long [Authorize] waits for the browser redirect.
const DefaultFlowTimeout = 2 * time.Minute

// FlowOptions configures [Authorize].
type FlowOptions struct {
	Addr     string             // Listen address, e.g. localhost:3000
	Listener net.Listener       // Used instead of Addr when set
	Timeout  time.Duration      // Defaults to [DefaultFlowTimeout]
	Open     func(string) error // Opens the consent page; defaults to [shared.OpenBrowser]
	Out      io.Writer          // Receives user instructions
	Logger   *log.Logger
}

// Authorize runs the authorization code flow: it serves the callback locally, sends the user to the consent page
// and waits for the redirect.
func Authorize(ctx context.Context, config *oauth2.Config, opts FlowOptions) (*oauth2.Token, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFlowTimeout
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	listener := opts.Listener
	if listener == nil {
		if listener, err = net.Listen("tcp", opts.Addr); err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", opts.Addr, err)
		}
	}

	handler := NewOAuthHandler(config, state)
	router := NewBasicRouter()
	router.Use(RequestLogger(opts.Logger))
	router.Handler(handler)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		opts.Logger.Info("starting OAuth callback server", "addr", listener.Addr().String())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			opts.Logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := AuthURL(config, state)
	fmt.Fprintln(opts.Out, "→ Opening browser for Google authorization...")
	if err := opts.Open(authURL); err != nil {
		opts.Logger.Warn("failed to open browser automatically", "error", err)
		fmt.Fprintf(opts.Out, "⚠ Could not open browser automatically.\nPlease open this URL in your browser:\n%s\n\n", authURL)
	}
	fmt.Fprintf(opts.Out, "→ Waiting for authorization (%s timeout)...\n", opts.Timeout)

	timeout := time.NewTimer(opts.Timeout)
	defer timeout.Stop()

	var result OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, opts.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

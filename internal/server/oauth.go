package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
)

// DefaultCallbackPath is used when the redirect URL has no path.
const DefaultCallbackPath = "/callback"

var (
	ErrInvalidState = errors.New("invalid state parameter")
	ErrDenied       = errors.New("authorization denied")
)

// OAuthResult is either the exchanged token or the reason the callback failed.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

// Error returns the failure, or nil when Token is set.
func (o OAuthResult) Error() error {
	return o.err
}

// OAuthHandler receives the authorization code redirect and exchanges the code for a token.
//
// Only the first callback is processed; later requests are rejected.
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	results chan OAuthResult
	once    sync.Once
	first   atomic.Bool
}

// NewOAuthHandler creates a handler for config's redirect URL. state must be unguessable.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:  config,
		state:   state,
		results: make(chan OAuthResult, 1),
	}
}

// Routes returns the path of the configured redirect URL.
func (h *OAuthHandler) Routes() []string {
	return []string{CallbackPath(h.config.RedirectURL)}
}

// CallbackPath returns the path component of redirectURL, or [DefaultCallbackPath].
func CallbackPath(redirectURL string) string {
	u, err := url.Parse(redirectURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return DefaultCallbackPath
	}
	return u.Path
}

// AuthURL returns the consent page URL. Offline access with forced consent makes Google issue a refresh token.
func AuthURL(config *oauth2.Config, state string) string {
	return config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.first.CompareAndSwap(false, true) {
		renderPage(w, http.StatusBadRequest, "Callback already processed", "This authorization link has already been used.")
		return
	}

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.Send(OAuthResult{err: ErrInvalidState})
		renderPage(w, http.StatusBadRequest, "Authorization failed", "The state parameter did not match. Run the auth command again.")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.Send(OAuthResult{err: fmt.Errorf("%w: %s", ErrDenied, query.Get("error"))})
		renderPage(w, http.StatusBadRequest, "Authorization failed", "Google did not return an authorization code.")
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.Send(OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		renderPage(w, http.StatusInternalServerError, "Token exchange failed", "Check the terminal for details.")
		return
	}

	h.Send(OAuthResult{Token: token})
	renderPage(w, http.StatusOK, "✓ Google Sheets access granted", "You can close this window and return to the terminal.")
}

// Send delivers result once; later calls are ignored.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

var page = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>albumsync</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh; color: #333;">
<h1 style="color: {{if .OK}}#0F9D58{{else}}#D93025{{end}};">{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

func renderPage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page.Execute(w, struct {
		OK             bool
		Title, Message string
	}{status == http.StatusOK, title, message})
}

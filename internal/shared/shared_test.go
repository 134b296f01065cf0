package shared

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("writes to provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "key=value") {
			t.Errorf("unexpected log output %q", buf.String())
		}
	})

	t.Run("SetLogLevel filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		child := WithLogger(NewLogger(&buf), "run", "abc")
		child.Info("step")

		if !strings.Contains(buf.String(), "run=abc") {
			t.Errorf("expected child fields, got %q", buf.String())
		}
	})
}

func TestIdentifiers(t *testing.T) {
	if a, b := GenerateID(), GenerateID(); a == b || len(a) != 36 {
		t.Errorf("expected distinct UUIDs, got %q and %q", a, b)
	}

	state, err := GenerateState()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(state) < 40 || strings.ContainsAny(state, "+/=") {
		t.Errorf("expected url-safe state, got %q", state)
	}
}

func TestErrors(t *testing.T) {
	t.Run("AuthenticationError", func(t *testing.T) {
		cause := errors.New("401 invalid client")
		err := fmt.Errorf("fetch: %w", NewAuthError("spotify", "set SPOTIFY_CLIENT_ID", cause))

		if !errors.Is(err, ErrAuthFailed) {
			t.Error("expected errors.Is ErrAuthFailed")
		}
		if !errors.Is(err, cause) {
			t.Error("expected errors.Is cause")
		}

		authErr, ok := AsAuthError(err)
		if !ok {
			t.Fatal("expected AsAuthError to find the error")
		}
		if authErr.Remediation != "set SPOTIFY_CLIENT_ID" {
			t.Errorf("unexpected remediation %q", authErr.Remediation)
		}
		if !strings.Contains(err.Error(), "spotify") {
			t.Errorf("expected service in message, got %q", err.Error())
		}
	})

	t.Run("AsAuthError on other errors", func(t *testing.T) {
		if _, ok := AsAuthError(ErrAPIRequest); ok {
			t.Error("expected no AuthenticationError")
		}
	})

	t.Run("DataShapeError", func(t *testing.T) {
		err := NewDataShapeError("track", "added_at", nil)
		if !errors.Is(err, ErrDataShape) {
			t.Error("expected errors.Is ErrDataShape")
		}
		if !strings.Contains(err.Error(), "track.added_at") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"a": 1}

	compact, err := MarshalJSON(data, false)
	if err != nil || string(compact) != `{"a":1}` {
		t.Errorf("compact = %s, %v", compact, err)
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil || !strings.Contains(string(pretty), "\n  \"a\": 1") {
		t.Errorf("pretty = %s, %v", pretty, err)
	}
}

func TestBrowserCommand(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows"} {
		cmd, err := browserCommand(goos, "https://example.com")
		if err != nil {
			t.Errorf("%s: unexpected error %v", goos, err)
			continue
		}
		if args := cmd.Args; args[len(args)-1] != "https://example.com" {
			t.Errorf("%s: url should be the last argument, got %v", goos, args)
		}
	}

	if _, err := browserCommand("plan9", "https://example.com"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}

package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spotsnap/spotsnap/internal/shared"
	"golang.org/x/oauth2"
)

func TestCallbackServer(t *testing.T) {
	exchange := func(ctx context.Context, code string) (*oauth2.Token, error) {
		if code != "good-code" {
			return nil, errors.New("bad code")
		}
		return &oauth2.Token{AccessToken: "token-123"}, nil
	}

	t.Run("delivers the token on a valid callback", func(t *testing.T) {
		cb := NewCallbackServer("state-1", exchange, nil)
		srv := httptest.NewServer(cb)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/callback?state=state-1&code=good-code")
		if err != nil {
			t.Fatalf("callback request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		token, err := cb.Wait(ctx)
		if err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
		if token.AccessToken != "token-123" {
			t.Errorf("unexpected token: %q", token.AccessToken)
		}
	})

	t.Run("rejects a state mismatch", func(t *testing.T) {
		cb := NewCallbackServer("state-1", exchange, nil)
		srv := httptest.NewServer(cb)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/callback?state=wrong&code=good-code")
		if err != nil {
			t.Fatalf("callback request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if _, err := cb.Wait(ctx); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("surfaces an authorization denial", func(t *testing.T) {
		cb := NewCallbackServer("state-1", exchange, nil)
		srv := httptest.NewServer(cb)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/callback?state=state-1&error=access_denied")
		if err != nil {
			t.Fatalf("callback request failed: %v", err)
		}
		resp.Body.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if _, err := cb.Wait(ctx); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("wait gives up when the context expires", func(t *testing.T) {
		cb := NewCallbackServer("state-1", exchange, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := cb.Wait(ctx); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}

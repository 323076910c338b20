package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spotsnap/spotsnap/internal/shared"
	"golang.org/x/oauth2"
)

// ExchangeFunc swaps an authorization code for a token.
type ExchangeFunc func(ctx context.Context, code string) (*oauth2.Token, error)

// Result is the outcome of one authorization flow.
type Result struct {
	Token *oauth2.Token
	err   error
}

func (r Result) Err() error { return r.err }

// CallbackServer receives the OAuth2 authorization callback on the loopback
// interface. Exactly one result is delivered; later hits are rejected.
type CallbackServer struct {
	state    string
	exchange ExchangeFunc
	results  chan Result
	once     sync.Once
	logger   *log.Logger
}

// NewCallbackServer creates a callback server expecting the given state
// token. State should be cryptographically random for CSRF protection.
func NewCallbackServer(state string, exchange ExchangeFunc, logger *log.Logger) *CallbackServer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CallbackServer{
		state:    state,
		exchange: exchange,
		results:  make(chan Result, 1),
		logger:   logger,
	}
}

// Listen serves the callback path on addr in the background and returns a
// shutdown function.
func (s *CallbackServer) Listen(addr, path string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(path, s)
	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("callback server stopped", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, nil
}

// Wait blocks until the callback delivers a token, the flow fails, or ctx
// expires.
func (s *CallbackServer) Wait(ctx context.Context) (*oauth2.Token, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, ctx.Err())
	case result := <-s.results:
		if result.err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.err)
		}
		return result.Token, nil
	}
}

// ServeHTTP handles the authorization callback: validates state, exchanges
// the code, and delivers the result.
func (s *CallbackServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("state") != s.state {
		s.send(Result{err: fmt.Errorf("state mismatch")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		s.send(Result{err: fmt.Errorf("authorization denied: %s %s", query.Get("error"), query.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := s.exchange(r.Context(), code)
	if err != nil {
		s.send(Result{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	s.send(Result{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// send delivers the result exactly once; extra callback hits are dropped.
func (s *CallbackServer) send(result Result) {
	s.once.Do(func() {
		s.results <- result
		close(s.results)
	})
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>spotsnap</title>
    <style>
        body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center;
               height: 100vh; margin: 0; background: #f5f5f5; }
        .card { text-align: center; background: white; padding: 2rem;
                border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
        <h1>Signed in</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`

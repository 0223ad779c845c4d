package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/shared"
)

// CallbackResult carries the full redirect URL the identity provider sent to the callback.
type CallbackResult struct {
	RedirectURL string
}

// CallbackHandler captures the first request to the OAuth redirect path.
//
// It does not validate state or exchange the code: the redirect is handed back verbatim and the
// auth controller owns both checks.
type CallbackHandler struct {
	path        string
	base        *url.URL
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler for redirectURI's path.
func NewCallbackHandler(redirectURI string) (*CallbackHandler, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: redirect uri %q", shared.ErrInvalidConfig, redirectURI)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return &CallbackHandler{
		path:       path,
		base:       u,
		resultChan: make(chan CallbackResult, 1),
	}, nil
}

func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP records the redirect and renders a completion page.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	redirect := *h.base
	redirect.RawQuery = r.URL.RawQuery
	h.Send(CallbackResult{RedirectURL: redirect.String()})

	q := r.URL.Query()
	if q.Get("code") == "" || q.Get("error") != "" {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, renderPage("Authorization Failed", "Return to the terminal for details.", "#e22134"))
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, renderPage("✓ Authorization Successful", "You can close this window and return to the terminal.", "#1DB954"))
}

// Send delivers the result (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

func renderPage(title, message, color string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>soundwave</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: %s; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>
`, color, title, message)
}

// LoopbackBrowser performs the interactive step with the system browser and a short-lived
// HTTP server listening on the redirect URI's host and port.
type LoopbackBrowser struct {
	// Open launches the browser. Defaults to [shared.OpenBrowser].
	Open func(url string) error
	// Timeout bounds the wait for the callback. Zero means wait until ctx ends.
	Timeout time.Duration
	// Addr is the address to bind. Empty binds the redirect URI's host.
	Addr string
	// Listen overrides the listener, for tests.
	Listen func(network, addr string) (net.Listener, error)
	Logger *log.Logger
	// Notice is called with the authorization URL before the browser opens.
	Notice func(authURL string)
}

// Authorize implements the auth browser contract.
func (b LoopbackBrowser) Authorize(ctx context.Context, authURL, redirectURI string) (string, error) {
	logger := b.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	open := b.Open
	if open == nil {
		open = shared.OpenBrowser
	}
	listen := b.Listen
	if listen == nil {
		listen = net.Listen
	}

	handler, err := NewCallbackHandler(redirectURI)
	if err != nil {
		return "", err
	}

	router := NewBasicRouter()
	router.Use(LoggingMiddleware(logger))
	router.Handler(handler)

	addr := b.Addr
	if addr == "" {
		addr = handler.base.Host
	}
	ln, err := listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if b.Notice != nil {
		b.Notice(authURL)
	}
	if err := open(authURL); err != nil {
		logger.Warn("could not open browser", "error", err)
	}

	var timeout <-chan time.Time
	if b.Timeout > 0 {
		timer := time.NewTimer(b.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case result := <-handler.Result():
		return result.RedirectURL, nil
	case err := <-serveErr:
		return "", fmt.Errorf("callback server failed: %w", err)
	case <-timeout:
		return "", fmt.Errorf("%w: no authorization callback after %s", shared.ErrTimeout, b.Timeout)
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", shared.ErrAuthCancelled, ctx.Err())
	}
}

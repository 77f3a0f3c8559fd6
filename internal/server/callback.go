package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// SuccessBody is the plain-text page shown in the browser once the code is captured.
const SuccessBody = "Authorization complete. You can close this window and return to tapedeck.\n"

const shutdownGrace = 2 * time.Second

// CallbackResult is what the provider's redirect carried.
type CallbackResult struct {
	Code  string
	State string
	Err   error
}

// CallbackHandler returns a handler that records the first redirect it receives and a channel
// that yields that single result. Later requests are answered with 410 Gone.
// When state is non-empty the redirect must carry the same state value.
//
// The result is delivered after the response is written, so a server shut down on receipt
// has already answered the browser.
func CallbackHandler(state string) (http.Handler, <-chan CallbackResult) {
	results := make(chan CallbackResult, 1)
	var once sync.Once

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first := false
		once.Do(func() { first = true })
		if !first {
			http.Error(w, "Callback already processed", http.StatusGone)
			return
		}

		result := parseCallback(r.URL.Query(), state)
		defer func() {
			results <- result
			close(results)
		}()

		if result.Err != nil {
			http.Error(w, "Authorization failed: "+result.Err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, SuccessBody)
	})

	return handler, results
}

func parseCallback(q url.Values, state string) CallbackResult {
	result := CallbackResult{Code: q.Get("code"), State: q.Get("state")}
	switch {
	case q.Get("error") != "":
		result.Err = fmt.Errorf("%w: provider returned %q", shared.ErrAuthorization, q.Get("error"))
	case state != "" && result.State != state:
		result.Err = fmt.Errorf("%w: state mismatch", shared.ErrAuthorization)
	case result.Code == "":
		result.Err = fmt.Errorf("%w: redirect is missing the code parameter", shared.ErrAuthorization)
	}
	return result
}

// faviconHandler answers browsers' favicon requests with 404 so they never reach the callback.
type faviconHandler struct{}

func (faviconHandler) Routes() []string { return []string{"/favicon.ico"} }

func (faviconHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}

// CallbackServer is a transient HTTP server bound to the host and port of a redirect URI.
// It accepts a single redirect on the URI's path.
type CallbackServer struct {
	listener net.Listener
	srv      *http.Server
	results  <-chan CallbackResult
	errs     chan error
	closed   sync.Once
}

// ListenAddr returns the host:port a redirect URI points at, defaulting the port from the scheme.
func ListenAddr(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return "", "", fmt.Errorf("%w: redirect uri %q", shared.ErrInvalidConfig, redirectURI)
	}

	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}

	path = u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(u.Hostname(), port), path, nil
}

// NewCallbackServer binds the redirect URI's address and starts serving in the background.
// state is checked as in [CallbackHandler]; logger may be nil.
func NewCallbackServer(redirectURI, state string, logger *log.Logger) (*CallbackServer, error) {
	addr, path, err := ListenAddr(redirectURI)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback listener on %s: %w", addr, err)
	}

	handler, results := CallbackHandler(state)
	router := NewBasicRouter()
	if logger != nil {
		router.Use(Logging(logger))
	}
	router.Handler(faviconHandler{})
	router.Handle(http.MethodGet, path, handler)

	s := &CallbackServer{
		listener: listener,
		srv:      &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		results:  results,
		errs:     make(chan error, 1),
	}

	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()

	return s, nil
}

// Addr returns the bound address.
func (s *CallbackServer) Addr() string {
	return s.listener.Addr().String()
}

// Wait blocks until the redirect arrives, the server fails, ctx is done or timeout fires.
// A nil timeout channel waits indefinitely.
func (s *CallbackServer) Wait(ctx context.Context, timeout <-chan time.Time) (CallbackResult, error) {
	select {
	case result := <-s.results:
		return result, result.Err
	case err := <-s.errs:
		return CallbackResult{}, fmt.Errorf("callback server error: %w", err)
	case <-ctx.Done():
		return CallbackResult{}, ctx.Err()
	case <-timeout:
		return CallbackResult{}, fmt.Errorf("%w: no authorization redirect received", shared.ErrTimeout)
	}
}

// Close stops the server, letting an in-flight response finish first, and releases the socket.
// It is safe to call more than once.
func (s *CallbackServer) Close() error {
	var err error
	s.closed.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err = s.srv.Shutdown(ctx); err != nil {
			err = s.srv.Close()
		}
	})
	return err
}

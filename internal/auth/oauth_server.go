package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// OAuthServer is the short-lived loopback listener that receives the
// provider's redirect. It answers every request with a static page and hands
// the first request on the redirect path over to WaitForRedirect.
type OAuthServer struct {
	// server is the underlying HTTP server instance
	server *http.Server
	// listener is the bound loopback socket
	listener net.Listener
	// host and port form the redirect URI authority
	host string
	port int
	// path is the redirect path registered with the provider
	path string
	// captured holds the raw request target of the first matching redirect
	captured chan string
	// claimed is set once a redirect has been accepted
	claimed atomic.Bool
	// mu protects server state
	mu sync.Mutex
	// running indicates whether the server is currently running
	running bool
}

// NewOAuthServer creates a listener for http://host:port/path. Port 0 binds
// an ephemeral port, see Port.
func NewOAuthServer(host string, port int, path string) *OAuthServer {
	return &OAuthServer{
		host:     host,
		port:     port,
		path:     path,
		captured: make(chan string, 1),
	}
}

// Start binds the socket and serves requests in the background.
func (s *OAuthServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return NewError(KindNetwork, fmt.Sprintf("redirect listener could not bind %s", addr), err)
	}
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           http.HandlerFunc(s.handleRequest),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	s.running = true

	go func(srv *http.Server, ln net.Listener) {
		if errServe := srv.Serve(ln); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.Errorf("redirect listener stopped: %v", errServe)
		}
	}(s.server, listener)

	log.Debugf("redirect listener waiting on %s", s.RedirectURI())
	return nil
}

// Stop shuts the listener down.
func (s *OAuthServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.server == nil {
		return nil
	}

	log.Debug("stopping redirect listener")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	s.running = false
	s.server = nil
	s.listener = nil
	return err
}

// Port returns the bound port once Start succeeded.
func (s *OAuthServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI returns the URI the provider must redirect to.
func (s *OAuthServer) RedirectURI() string {
	return "http://" + net.JoinHostPort(s.host, strconv.Itoa(s.port)) + s.path
}

// WaitForRedirect checks for a captured redirect once per interval, at most
// attempts times. It returns the raw request target of the redirect, a
// KindTimeout error when nothing arrived, or KindInterrupted when ctx ends.
func (s *OAuthServer) WaitForRedirect(ctx context.Context, interval time.Duration, attempts int) (string, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for polls := 0; polls < attempts; {
		select {
		case target := <-s.captured:
			return target, nil
		case <-ctx.Done():
			return "", NewError(KindInterrupted, "interrupted while waiting for authentication", ctx.Err())
		case <-ticker.C:
			polls++
		}
	}

	select {
	case target := <-s.captured:
		return target, nil
	default:
	}
	return "", NewError(KindTimeout, "authentication timeout", nil)
}

func (s *OAuthServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == s.path {
		s.capture(r.RequestURI)
	} else {
		log.Debugf("redirect listener answered unrelated request %s", r.URL.Path)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(LoginCompleteHtml)); err != nil {
		log.Debugf("failed to write confirmation page: %v", err)
	}
}

// capture hands target to the waiting flow. Only the first call has effect.
func (s *OAuthServer) capture(target string) {
	if !s.claimed.CompareAndSwap(false, true) {
		log.Debug("redirect already captured, ignoring repeat")
		return
	}
	s.captured <- target
	log.Debug("redirect captured")
}

// ParseRedirect extracts the authorization code from a captured request
// target. The query is split on '&' and each pair on its first '='; values
// are returned exactly as received. A missing code means the user declined
// consent and yields a KindPermissionDenied error.
func ParseRedirect(target string) (string, error) {
	_, query, _ := strings.Cut(target, "?")
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query = query[:i]
	}

	params := make(map[string]string)
	if query != "" {
		for _, pair := range strings.Split(query, "&") {
			if pair == "" {
				continue
			}
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return "", Usagef("malformed redirect query parameter %q", pair)
			}
			if _, seen := params[key]; !seen {
				params[key] = value
			}
		}
	}

	code, ok := params["code"]
	if !ok {
		msg := "user did not grant permission"
		if reason := params["error"]; reason != "" {
			msg = fmt.Sprintf("%s (%s)", msg, reason)
		}
		return "", NewError(KindPermissionDenied, msg, nil)
	}
	return code, nil
}

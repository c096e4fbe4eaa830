// Package mock provides an ephemeral HTTP server for exercising clients.
package mock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler serves a request. A returned error is rendered by the server:
// *HTTPError values use their own status, anything else goes to the
// server's error handler.
type Handler func(w http.ResponseWriter, r *http.Request) error

// ErrorHandler renders errors returned (or panics raised) by a Handler.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Server is a test HTTP server bound to a local port
type Server struct {
	handler Handler
	router  *Router
	host    string
	port    int
	delay   time.Duration
	onError ErrorHandler
	logger  zerolog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// Option is a functional option for Server
type Option func(*Server)

// WithHost sets the interface to bind. Defaults to 127.0.0.1.
func WithHost(host string) Option {
	return func(s *Server) {
		s.host = host
	}
}

// WithPort sets the server port. Zero picks a free port.
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithOnError replaces the default error handler, which replies 500 with
// the error text.
func WithOnError(h ErrorHandler) Option {
	return func(s *Server) {
		s.onError = h
	}
}

// WithLogger enables request logging
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server that falls back to handler for requests no
// route matches. handler may be nil.
func NewServer(handler Handler, opts ...Option) *Server {
	s := &Server{
		handler: handler,
		router:  NewRouter(),
		host:    "127.0.0.1",
		onError: defaultErrorHandler,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen starts a server for handler on a free local port.
func Listen(handler Handler, opts ...Option) (*Server, error) {
	s := NewServer(handler, opts...)
	if err := s.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handle registers handler for method and pattern. An empty method matches
// any method.
func (s *Server) Handle(method, pattern string, handler Handler) {
	s.router.AddRoute(&Route{
		Method:      method,
		PathPattern: normalizePath(pattern),
		PathRegex:   createPathRegex(pattern),
		Handler:     handler,
	})
}

// GetRoutes returns all registered routes
func (s *Server) GetRoutes() []*Route {
	return s.router.Routes()
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("mock server already started")
	}

	addr := net.JoinHostPort(s.host, fmt.Sprintf("%d", s.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().
		Str("url", s.urlLocked()).
		Int("routes", len(s.router.routes)).
		Msg("mock server started")

	go func(srv *http.Server, ln net.Listener) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("mock server stopped")
		}
	}(s.server, ln)

	return nil
}

// StartWithContext starts the server and shuts it down when ctx is done.
func (s *Server) StartWithContext(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	return nil
}

// URL returns the base URL of a started server, or "" before Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urlLocked()
}

func (s *Server) urlLocked() string {
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String()
}

// Close shuts the server down, waiting up to five seconds for in-flight
// requests.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w}

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	handler := s.handler
	if route, params := s.router.Match(r.Method, r.URL.Path); route != nil {
		handler = route.Handler
		r = r.WithContext(context.WithValue(r.Context(), paramsKey{}, params))
	}

	if handler == nil {
		http.NotFound(rec, r)
	} else {
		s.serve(rec, r, handler)
	}

	s.logger.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.statusCode()).
		Dur("duration", time.Since(start)).
		Msg("mock request")
}

func (s *Server) serve(w *statusRecorder, r *http.Request, handler Handler) {
	defer func() {
		if p := recover(); p != nil {
			if p == http.ErrAbortHandler {
				panic(p)
			}
			s.handleError(w, r, fmt.Errorf("handler panic: %v", p))
		}
	}()

	if err := handler(w, r); err != nil {
		s.handleError(w, r, err)
	}
}

func (s *Server) handleError(w *statusRecorder, r *http.Request, err error) {
	if w.wroteHeader {
		s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("handler failed after writing response")
		return
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		_ = Send(w, httpErr.Status, httpErr.Message)
		return
	}
	s.onError(w, r, err)
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	_ = Send(w, http.StatusInternalServerError, err.Error())
}

type paramsKey struct{}

// Param returns the value of the {{name}} path segment matched for r.
func Param(r *http.Request, name string) string {
	params, _ := r.Context().Value(paramsKey{}).(map[string]string)
	return params[name]
}

// HTTPError is a handler error with an explicit response status.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// NewHTTPError builds an HTTPError. An empty msg falls back to the status text.
func NewHTTPError(status int, msg string) *HTTPError {
	if strings.TrimSpace(msg) == "" {
		msg = http.StatusText(status)
	}
	return &HTTPError{Status: status, Message: msg}
}

// NewHTTPErrorf builds an HTTPError with a formatted message.
func NewHTTPErrorf(status int, format string, args ...any) *HTTPError {
	return NewHTTPError(status, fmt.Sprintf(format, args...))
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Package server is the HTTP and WebSocket request layer for blockduel.
//
// Every request is tied to a participant through the "participant" cookie.
// A request without a valid cookie gets a fresh random id, registered in
// the participant store. Known ids are resolved through a bounded session
// cache so that steady polling does not hit the database.
//
// Match state lives in the matchmaker; each match is a *pair.Pair that
// serialises its own access. The server never holds a lock across calls
// into a pair.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/blockduel/internal/cache"
	"github.com/roach88/blockduel/internal/config"
	"github.com/roach88/blockduel/internal/matchmaker"
	"github.com/roach88/blockduel/internal/pair"
	"github.com/roach88/blockduel/internal/tetromino"
)

// Registry is the participant store the server needs. *store.Store
// implements it.
type Registry interface {
	RegisterParticipant(ctx context.Context, id int64, at time.Time) (bool, error)
	ParticipantExists(ctx context.Context, id int64) (bool, error)
	TouchParticipant(ctx context.Context, id int64, at time.Time) (bool, error)
	CountParticipants(ctx context.Context) (int, error)
	CountActiveSince(ctx context.Context, since time.Time) (int, error)
}

// Server handles match requests.
type Server struct {
	registry Registry
	matches  *matchmaker.Matchmaker[*pair.Pair]
	sessions *cache.Cache[matchmaker.ParticipantID, session]
	upgrader websocket.Upgrader

	width       int
	height      int
	pacingSteps int
	idAttempts  int

	ids       matchmaker.IDSource
	newSource func() tetromino.Source
	now       func() time.Time
	logger    *slog.Logger
	tokens    matchmaker.TokenGenerator
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithIDSource sets the random source for new participant ids. It must be
// safe for concurrent use.
func WithIDSource(src matchmaker.IDSource) Option {
	return func(s *Server) {
		s.ids = src
	}
}

// WithPieceSources sets the constructor for each board's random source.
func WithPieceSources(fn func() tetromino.Source) Option {
	return func(s *Server) {
		s.newSource = fn
	}
}

// WithTokenGenerator sets the match token generator.
func WithTokenGenerator(g matchmaker.TokenGenerator) Option {
	return func(s *Server) {
		s.tokens = g
	}
}

// globalIDSource draws from the goroutine-safe top-level generator.
type globalIDSource struct{}

func (globalIDSource) Int64() int64 { return rand.Int64() }

func newPCGSource() tetromino.Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// New builds a Server from a validated configuration.
func New(registry Registry, cfg config.Config, opts ...Option) (*Server, error) {
	if registry == nil {
		return nil, errors.New("server: nil registry")
	}
	s := &Server{
		registry:    registry,
		width:       cfg.Board.Width,
		height:      cfg.Board.Height,
		pacingSteps: cfg.Penalties.PacingSteps,
		idAttempts:  cfg.Identity.MaxAttempts,
		ids:         globalIDSource{},
		newSource:   newPCGSource,
		now:         time.Now,
		logger:      slog.Default(),
		tokens:      matchmaker.UUIDv7Generator{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	// Bad board settings fail here rather than on the first pairing.
	if _, err := s.newPair(); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	sessions, err := cache.New[matchmaker.ParticipantID, session](cfg.Cache.Capacity,
		cache.WithEvictHook(func(id matchmaker.ParticipantID, _ session) {
			s.forfeit(id, "session evicted")
		}))
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	s.sessions = sessions

	s.matches = matchmaker.New(func(a, b matchmaker.ParticipantID) (*pair.Pair, error) {
		return s.newPair()
	},
		matchmaker.WithTokenGenerator(s.tokens),
		matchmaker.WithLogger(s.logger),
		matchmaker.WithCapacity(cfg.Cache.Capacity),
	)
	return s, nil
}

func (s *Server) newPair() (*pair.Pair, error) {
	return pair.New(s.width, s.height, s.newSource(), s.newSource(),
		pair.WithPenaltyPacing(s.pacingSteps),
		pair.WithLogger(s.logger))
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/match", s.handleJoin)
	mux.HandleFunc("GET /api/match", s.handleMatchStatus)
	mux.HandleFunc("DELETE /api/match", s.handleLeave)
	mux.HandleFunc("POST /api/step", s.handleStep)
	mux.HandleFunc("POST /api/action/{action}", s.handleAction)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/ws", s.handleWS)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// Matches exposes the matchmaker, for tests and diagnostics.
func (s *Server) Matches() *matchmaker.Matchmaker[*pair.Pair] {
	return s.matches
}

// Package server exposes stored family trees over a JSON HTTP API.
//
// The API mirrors what the editor does: list, create, rename and delete
// trees, apply the household editing operations, run auto-layout and export
// a tree in any pipeline format. Every handler works on a fresh snapshot
// read from the store; edits of one tree are serialized so concurrent
// requests never lose each other's changes.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/pipeline"
	"github.com/matzehuels/stemma/pkg/store"
)

// DefaultAddr is the address [Server.ListenAndServe] uses when none is given.
const DefaultAddr = "127.0.0.1:8080"

// maxBodyBytes limits request bodies. Trees carry inline photos, so this
// is generous.
const maxBodyBytes = 16 << 20

// Server serves the tree API.
type Server struct {
	store  store.Store
	runner *pipeline.Runner
	logger *log.Logger

	// Defaults applied to layout and export requests before query
	// parameters.
	defaults pipeline.Options

	mu    sync.Mutex
	locks map[string]*treeLock
}

// treeLock is held by every request editing one tree. refs counts the
// holders and waiters; the entry is dropped when it reaches zero.
type treeLock struct {
	sync.Mutex
	refs int
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the logger used for request and error logs.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithDefaults sets the pipeline options requests start from. Runtime
// fields such as the photo fetcher and rasterizer are used as given.
func WithDefaults(opts pipeline.Options) Option {
	return func(s *Server) { s.defaults = opts }
}

// New returns a server over st. A nil runner gets an uncached one.
func New(st store.Store, runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		store:  st,
		runner: runner,
		locks:  map[string]*treeLock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	return s
}

// Handler returns the HTTP handler with every route mounted under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", s.handleHealth)
		api.Post("/layout", s.handleLayout)

		api.Get("/trees", s.handleListTrees)
		api.Post("/trees", s.handleCreateTree)
		api.Route("/trees/{id}", func(t chi.Router) {
			t.Get("/", s.handleGetTree)
			t.Put("/", s.handlePutTree)
			t.Patch("/", s.handleRenameTree)
			t.Delete("/", s.handleDeleteTree)
			t.Post("/layout", s.handleLayoutTree)
			t.Get("/export.{format}", s.handleExport)

			t.Post("/members", s.handleAddRoot)
			t.Post("/nodes/{node}/spouses", s.handleAddSpouse)
			t.Post("/nodes/{node}/children", s.handleAddChild)
			t.Put("/nodes/{node}/members/{ref}", s.handleEditMember)
			t.Delete("/nodes/{node}/members/{ref}", s.handleDeleteMember)
			t.Post("/edges", s.handleConnect)
			t.Delete("/edges/{edge}", s.handleRemoveEdge)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// lock serializes edits of one tree. The returned func releases the lock.
func (s *Server) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &treeLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// update loads a tree, applies fn and saves the result.
func (s *Server) update(ctx context.Context, id string, fn func(family.Tree) (family.Tree, error)) (family.Tree, error) {
	defer s.lock(id)()
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return family.Tree{}, err
	}
	next, err := fn(t)
	if err != nil {
		return family.Tree{}, err
	}
	return s.store.Save(ctx, next)
}

func (s *Server) options() pipeline.Options {
	opts := s.defaults
	opts.Formats = nil
	opts.Logger = s.logger
	return opts
}

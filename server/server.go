// Package server exposes editing sessions over HTTP. Each session serves
// its own canvas whose script pushes measured heights and edits back to
// the session's endpoints; exports are downloaded from the same tree.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/core/session"
	"github.com/gaurav-prasanna/smartdoc/core/store"
	"github.com/gaurav-prasanna/smartdoc/core/theme"
)

// Options configures a Server.
type Options struct {
	// Session is the template every new or restored session is built from.
	Session session.Options
	// Store persists sessions after each change. Nil keeps them in memory.
	Store *store.Store
	// Registry receives the server metrics. Nil uses a private registry.
	Registry *prom.Registry
	Log      *zap.Logger
}

// Server is an http.Handler.
type Server struct {
	opts     Options
	log      *zap.Logger
	metrics  *Recorder
	gatherer prom.Gatherer
	router   chi.Router

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// New builds the server and its routes.
func New(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Session.Log == nil {
		opts.Session.Log = opts.Log
	}
	if opts.Session.Catalog == nil {
		opts.Session.Catalog = theme.Builtin()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prom.NewRegistry()
	}
	s := &Server{
		opts:     opts,
		log:      opts.Log.Named("server"),
		metrics:  NewRecorder(reg),
		gatherer: reg,
		sessions: make(map[string]*session.Session),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Get("/", s.handleIndex)
	r.Get("/themes", s.handleThemes)
	r.Get("/sessions", s.handleList)
	r.Post("/sessions", s.handleCreate)

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleState)
		r.Delete("/", s.handleDelete)
		r.Get("/canvas", s.handleCanvas)
		r.Put("/document", s.handleDocument)
		r.Post("/height", s.handleHeight)
		r.Post("/fields/{name}", s.handleField)
		r.Post("/focus", s.handleFocus)
		r.Put("/sections/{index}", s.handleUpdateSection)
		r.Delete("/sections/{index}", s.handleDeleteSection)
		r.Post("/images", s.handleInsertImage)
		r.Post("/format", s.handleFormat)
		r.Get("/export/{format}", s.handleExport)
		r.Post("/reset", s.handleReset)
		r.Put("/theme", s.handleTheme)
		r.Put("/background", s.handleBackground)
		r.Put("/settings", s.handleSettings)
		r.Put("/zoom", s.handleZoom)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("Listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("Shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Create starts a new session holding the default document.
func (s *Server) Create(ctx context.Context) *session.Session {
	sess := session.New(s.opts.Session)
	s.add(sess)
	s.persist(ctx, sess)
	s.log.Info("Session created", zap.String("session", sess.ID()))
	return sess
}

func (s *Server) add(sess *session.Session) {
	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetSessions(n)
}

// Session returns the session id, restoring it from the store when it is
// not in memory.
func (s *Server) Session(ctx context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}
	if s.opts.Store == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	st, err := s.opts.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	sess = session.Restore(st, s.opts.Session)
	s.add(sess)
	s.log.Info("Session restored", zap.String("session", id))
	return sess, nil
}

func (s *Server) remove(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetSessions(n)

	if s.opts.Store == nil {
		if !ok {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil
	}
	err := s.opts.Store.Delete(ctx, id)
	if ok && errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// persist saves the session; failures are logged and do not fail the
// request that caused them.
func (s *Server) persist(ctx context.Context, sess *session.Session) {
	if s.opts.Store == nil {
		return
	}
	if err := s.opts.Store.Save(ctx, sess.State()); err != nil {
		s.log.Warn("Unable to save session", zap.String("session", sess.ID()), zap.Error(err))
	}
}

type sessionKey struct{}

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Session(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.fail(w, nil, err, "")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(sessionKey{}).(*session.Session)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.IncRequest(route, r.Method, status)
		s.log.Debug("Request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// Package server exposes the document store over HTTP for the browser UI.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/oliverschmidt99/daily-doc-app/internal/doku"
	"github.com/oliverschmidt99/daily-doc-app/internal/vcs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShutdownTimeout bounds how long [Server.Shutdown] waits for in-flight
// requests when the caller's context has no deadline.
const ShutdownTimeout = 5 * time.Second

var (
	ErrListenRequired  = errors.New("listen address is required")
	ErrServiceRequired = errors.New("service is required")
)

// Options configures a [Server].
type Options struct {
	Listen  string
	Service *doku.Service
	// Syncer is optional; without it the /git routes answer 503.
	Syncer *vcs.Syncer
	Logger *zap.Logger
}

func (o Options) validate() error {
	if o.Listen == "" {
		return ErrListenRequired
	}

	if o.Service == nil {
		return ErrServiceRequired
	}

	return nil
}

// Server wraps the gin router in an [http.Server].
type Server struct {
	svc    *doku.Service
	syncer *vcs.Syncer
	log    *zap.Logger
	router *gin.Engine

	mu     sync.Mutex
	server *http.Server
	addr   string
}

// New builds the router. Nothing listens until [Server.Start].
func New(o Options) (*Server, error) {
	err := o.validate()
	if err != nil {
		return nil, fmt.Errorf("invalid server options: %w", err)
	}

	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		svc:    o.Service,
		syncer: o.Syncer,
		log:    log,
		addr:   o.Listen,
	}

	s.router = s.routes()

	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the address the server listens on. After [Server.Start] this
// is the bound address, which matters when listening on port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addr
}

// Start binds the listen address and serves in a background goroutine.
// Bind errors are returned directly; errors after that go to errorCallback.
func (s *Server) Start(errorCallback func(err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	s.addr = ln.Addr().String()
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv := s.server

	go func() {
		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorCallback(err)
		}
	}()

	s.log.Info("listening", zap.String("addr", s.addr))

	return nil
}

// Shutdown stops the server gracefully, waiting for pending requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, ShutdownTimeout)
		defer cancel()
	}

	err := srv.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.log.Info("server stopped")

	return nil
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(s.log), gin.CustomRecovery(s.recovered))

	router.GET("/", page("documentation.html"))
	router.GET("/todo", page("todo.html"))
	router.GET("/overview", page("overview.html"))

	router.GET("/contexts", s.listContexts)
	router.POST("/create_context", s.createContext)
	router.POST("/rename_context/:context", s.renameContext)

	router.GET("/load", s.load)
	router.GET("/load/:context", s.load)
	router.POST("/save", s.save)
	router.POST("/save/:context", s.save)

	router.POST("/edit_tag/:context", s.editTag)
	router.POST("/delete_tag/:context", s.deleteTag)
	router.POST("/import/:context", s.importDocument)

	router.GET("/settings", s.getSettings)
	router.POST("/settings", s.updateSettings)

	git := router.Group("/git")
	git.GET("/status", s.sync(func(ctx context.Context) vcs.Result { return s.syncer.Status(ctx) }))
	git.POST("/pull", s.sync(func(ctx context.Context) vcs.Result { return s.syncer.Pull(ctx) }))
	git.POST("/push", s.sync(func(ctx context.Context) vcs.Result { return s.syncer.Push(ctx) }))

	return router
}

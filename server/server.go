// Package server exposes the transpiler over Connect (HTTP/JSON) and the
// language server protocol.
package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/pyjs/store"
)

// PyjsServer serves the transpile service for one workspace.
type PyjsServer struct {
	worker *Worker
	mux    *http.ServeMux
	log    commonlog.Logger
}

// ServerOption configures a PyjsServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	store        *store.Store
	interceptors []connect.Interceptor
}

// WithStore serves repeated builds from st.
func WithStore(st *store.Store) ServerOption {
	return func(c *serverConfig) { c.store = st }
}

// WithInterceptors adds Connect interceptors to every procedure.
func WithInterceptors(interceptors ...connect.Interceptor) ServerOption {
	return func(c *serverConfig) { c.interceptors = append(c.interceptors, interceptors...) }
}

// New creates a PyjsServer for the given workspace.
func New(ws *Workspace, opts ...ServerOption) *PyjsServer {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &PyjsServer{
		worker: NewWorker(ws),
		mux:    http.NewServeMux(),
		log:    commonlog.GetLogger("pyjs.server"),
	}

	svc := NewTranspileService(s.worker, cfg.store)
	path, handler := NewTranspileServiceHandler(svc, connect.WithInterceptors(cfg.interceptors...))
	s.mux.Handle(path, handler)

	return s
}

// Handler returns the HTTP handler serving every procedure.
func (s *PyjsServer) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *PyjsServer) ListenAndServe(addr string) error {
	s.log.Noticef("pyjs server listening on %s", addr)
	s.log.Noticef("  Connect (HTTP/JSON): http://%s%s", addr, TranspileProcedure)
	return http.ListenAndServe(addr, s.mux)
}

// Stop shuts down the server.
func (s *PyjsServer) Stop() {
	s.worker.Stop()
}

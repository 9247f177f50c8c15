package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"connectrpc.com/connect"

	"github.com/chazu/pyjs/compiler"
	"github.com/chazu/pyjs/store"
)

const (
	// TranspileServiceName is the fully-qualified name of the service.
	TranspileServiceName = "pyjs.v1.TranspileService"

	TranspileProcedure = "/" + TranspileServiceName + "/Transpile"
	CheckProcedure     = "/" + TranspileServiceName + "/Check"
)

// Diagnostic metadata keys set on InvalidArgument errors.
const (
	DiagnosticCodeKey     = "Pyjs-Diagnostic-Code"
	DiagnosticPositionKey = "Pyjs-Diagnostic-Position"
)

// TranspileRequest asks for one module's roots as a bundle.
type TranspileRequest struct {
	File   string   `json:"file,omitempty"` // name used in diagnostics and function IDs
	Source string   `json:"source"`
	Roots  []string `json:"roots,omitempty"` // def names; the module's roots when empty
}

// TranspileResponse carries the emitted bundle.
type TranspileResponse struct {
	Code          string            `json:"code"`
	ContentHash   string            `json:"contentHash"`
	ExternalNames map[string]string `json:"externalNames"` // def name -> allocated name
	Modules       []string          `json:"modules,omitempty"`
	Cached        bool              `json:"cached,omitempty"`
}

// CheckRequest asks for the diagnostics of one document.
type CheckRequest struct {
	File   string `json:"file,omitempty"`
	Source string `json:"source"`
}

// CheckResponse lists every diagnostic of the document.
type CheckResponse struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Diagnostic is the wire form of a compile diagnostic.
type Diagnostic struct {
	Code      string `json:"code"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
	Construct string `json:"construct,omitempty"`
	Message   string `json:"message"`
}

func toDiagnostic(e *compiler.Error) Diagnostic {
	return Diagnostic{
		Code:      e.Code.String(),
		File:      e.Pos.File,
		Line:      e.Pos.Line,
		Column:    e.Pos.Column,
		Construct: e.Construct,
		Message:   e.Msg,
	}
}

// jsonCodec marshals plain Go structs; the service has no protobuf schema.
type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// CodecOption selects the JSON codec for handlers and clients of the
// service.
func CodecOption() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

// TranspileService implements the TranspileService Connect handler.
type TranspileService struct {
	worker *Worker
	store  *store.Store
}

// NewTranspileService creates a TranspileService. st may be nil to build
// every request afresh.
func NewTranspileService(worker *Worker, st *store.Store) *TranspileService {
	return &TranspileService{worker: worker, store: st}
}

// NewTranspileServiceHandler builds an HTTP handler serving svc's
// procedures, and returns the path on which to mount it.
func NewTranspileServiceHandler(svc *TranspileService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{CodecOption()}, opts...)
	transpile := connect.NewUnaryHandler(TranspileProcedure, svc.Transpile, connect.WithHandlerOptions(opts...))
	check := connect.NewUnaryHandler(CheckProcedure, svc.Check, connect.WithHandlerOptions(opts...))
	return "/" + TranspileServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case TranspileProcedure:
			transpile.ServeHTTP(w, r)
		case CheckProcedure:
			check.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// Transpile compiles the requested roots of a module into one bundle.
// Compile diagnostics fail the call with InvalidArgument.
func (s *TranspileService) Transpile(
	ctx context.Context,
	req *connect.Request[TranspileRequest],
) (*connect.Response[TranspileResponse], error) {
	if req.Msg.Source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	var resp *TranspileResponse
	var buildErr error
	_, err := s.worker.Do(func(ws *Workspace) interface{} {
		resp, buildErr = s.transpile(ctx, ws, req.Msg)
		return nil
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if buildErr != nil {
		return nil, toConnectError(buildErr)
	}
	return connect.NewResponse(resp), nil
}

// Check returns every diagnostic of a document. Diagnostics are data
// here, not a failure of the call.
func (s *TranspileService) Check(
	ctx context.Context,
	req *connect.Request[CheckRequest],
) (*connect.Response[CheckResponse], error) {
	result, err := s.worker.Do(func(ws *Workspace) interface{} {
		return ws.Check(documentPath(ws, req.Msg.File), req.Msg.Source)
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &CheckResponse{Diagnostics: []Diagnostic{}}
	for _, e := range result.([]*compiler.Error) {
		resp.Diagnostics = append(resp.Diagnostics, toDiagnostic(e))
	}
	return connect.NewResponse(resp), nil
}

// transpile runs on the worker goroutine.
func (s *TranspileService) transpile(ctx context.Context, ws *Workspace, msg *TranspileRequest) (*TranspileResponse, error) {
	path := documentPath(ws, msg.File)
	f, err := ws.Resolver.ScanSource(path, msg.Source)
	if err != nil {
		return nil, err
	}

	roots := f.Module.Roots
	if len(msg.Roots) > 0 {
		roots = nil
		for _, name := range msg.Roots {
			fn := f.Module.Function(name)
			if fn == nil {
				return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("no top-level def named %q", name))
			}
			roots = append(roots, fn)
		}
	}
	if len(roots) == 0 {
		return nil, &compiler.Error{
			Code: compiler.NoFunctionDefFound,
			Pos:  compiler.Pos{File: ws.Manifest.Relative(path)},
			Msg:  "source has no root function",
		}
	}

	build := func() (*compiler.Bundle, error) { return ws.Session().Bundle(roots...) }
	var b *compiler.Bundle
	var hit bool
	if s.store != nil {
		key, err := ws.Key(map[string]string{ws.Manifest.Relative(path): msg.Source}, roots)
		if err != nil {
			return nil, err
		}
		b, hit, err = s.store.Bundle(ctx, key, build)
		if err != nil {
			return nil, err
		}
	} else if b, err = build(); err != nil {
		return nil, err
	}

	resp := &TranspileResponse{
		Code:          b.Code,
		ContentHash:   b.ContentHash,
		ExternalNames: make(map[string]string, len(roots)),
		Modules:       b.Modules,
		Cached:        hit,
	}
	for _, fn := range roots {
		resp.ExternalNames[fn.Name] = b.ExternalNames[fn.ID]
	}
	return resp, nil
}

// documentPath resolves a request's file name against the project.
func documentPath(ws *Workspace, file string) string {
	if file == "" {
		file = "<request>.py"
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(ws.Manifest.Dir, filepath.FromSlash(file))
}

// toConnectError maps compile diagnostics to InvalidArgument with the
// diagnostic code and position in the error metadata.
func toConnectError(err error) error {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return cerr
	}
	var ce *compiler.Error
	if errors.As(err, &ce) {
		cerr = connect.NewError(connect.CodeInvalidArgument, ce)
		cerr.Meta().Set(DiagnosticCodeKey, ce.Code.String())
		if pos := ce.Pos.String(); pos != "" {
			cerr.Meta().Set(DiagnosticPositionKey, pos)
		}
		return cerr
	}
	return connect.NewError(connect.CodeInternal, err)
}

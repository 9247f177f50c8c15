package compiler

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/singleflight"
)

// ---------------------------------------------------------------------------
// Session: compiled-function memo and bundle cache
// ---------------------------------------------------------------------------

// Result is the output of compiling one function.
type Result struct {
	Code         string
	ExternalName string
	ContentHash  string
}

// Session compiles functions against one registry and caches every
// compiled function by *Function identity. A Session is safe for
// concurrent use; independent sessions share nothing.
type Session struct {
	reg  *Registry
	opts Options
	log  commonlog.Logger

	mu       sync.Mutex
	compiled map[*Function]*CompiledFunction
	ids      map[string]*Function
	bundles  map[string]*Bundle
	group    singleflight.Group
}

// Option configures a Session.
type Option func(*Session)

// WithRegistry compiles against r instead of DefaultRegistry().
func WithRegistry(r *Registry) Option {
	return func(s *Session) { s.reg = r }
}

// WithShapeInference toggles skipping of runtime shape guards on
// receivers of evident shape. It is on by default.
func WithShapeInference(on bool) Option {
	return func(s *Session) { s.opts.ShapeInference = on }
}

// WithLogger replaces the session logger.
func WithLogger(log commonlog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// NewSession creates an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		opts:     Options{ShapeInference: true},
		log:      commonlog.GetLogger("pyjs.compiler"),
		compiled: make(map[*Function]*CompiledFunction),
		ids:      make(map[string]*Function),
		bundles:  make(map[string]*Bundle),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reg == nil {
		s.reg = DefaultRegistry()
	}
	return s
}

// Registry returns the registry the session compiles against.
func (s *Session) Registry() *Registry { return s.reg }

// Compile compiles fn and everything it references into one source text
// with fn as the only root.
func (s *Session) Compile(fn *Function) (*Result, error) {
	b, err := s.Bundle(fn)
	if err != nil {
		return nil, err
	}
	return &Result{
		Code:         b.Code,
		ExternalName: b.ExternalNames[fn.key()],
		ContentHash:  b.ContentHash,
	}, nil
}

// Bundle compiles fns and emits them with every function and constant
// they reach. The output depends on the set of roots, not their order.
// Compilation is all-or-nothing: any diagnostic fails the whole bundle.
func (s *Session) Bundle(fns ...*Function) (*Bundle, error) {
	roots := uniqueFunctions(fns)
	if len(roots) == 0 {
		return nil, errors.New("compiler: no functions to bundle")
	}
	ids := make([]string, len(roots))
	for i, fn := range roots {
		ids[i] = fn.key()
	}
	sort.Strings(ids)
	key := strings.Join(ids, "\x00")

	v, err, shared := s.group.Do(key, func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.bundle(key, roots)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debugf("shared bundle result for %d root(s)", len(roots))
	}
	return v.(*Bundle), nil
}

func (s *Session) bundle(key string, roots []*Function) (*Bundle, error) {
	if b, ok := s.bundles[key]; ok && s.owns(roots) {
		s.log.Debugf("bundle cache hit: %d root(s)", len(roots))
		return b, nil
	}
	compiled := make([]*CompiledFunction, 0, len(roots))
	for _, fn := range roots {
		cf, err := s.compile(fn, nil)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cf)
	}
	b, err := assemble(compiled)
	if err != nil {
		return nil, err
	}
	s.bundles[key] = b
	s.log.Infof("bundled %d root(s): %d function(s), %d constant(s)", len(roots), len(b.Functions), len(b.Constants))
	return b, nil
}

// owns reports whether every root is the function the session compiled
// under its ID.
func (s *Session) owns(roots []*Function) bool {
	for _, fn := range roots {
		if s.ids[fn.key()] != fn {
			return false
		}
	}
	return true
}

// Lookup returns the compiled form of fn if the session has built it.
func (s *Session) Lookup(fn *Function) (*CompiledFunction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cf, ok := s.compiled[fn]
	return cf, ok
}

func uniqueFunctions(fns []*Function) []*Function {
	seen := make(map[*Function]bool, len(fns))
	out := make([]*Function, 0, len(fns))
	for _, fn := range fns {
		if fn == nil || seen[fn] {
			continue
		}
		seen[fn] = true
		out = append(out, fn)
	}
	return out
}

package server

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/pyjs/compiler"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "pyjs-lsp"

// LspServer publishes transpiler diagnostics for open Python documents
// and shows the JavaScript each function compiles to.
type LspServer struct {
	worker *Worker

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server for the given workspace.
func NewLSP(ws *Workspace) *LspServer {
	s := &LspServer{
		worker:  NewWorker(ws),
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "pyjs LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			text := whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	path := uriPath(uri)
	s.worker.Do(func(ws *Workspace) interface{} {
		ws.Resolver.Forget(path)
		return nil
	})

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Language features ---

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(ws *Workspace) interface{} {
		return s.complete(ws, uriPath(uri), text, prefix)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(ws *Workspace) interface{} {
		return s.hover(ws, uriPath(uri), text, word)
	})
	if err != nil || result == nil {
		return nil, nil
	}

	return result.(*protocol.Hover), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(ws *Workspace) interface{} {
		return s.definition(ws, uriPath(uri), text, word)
	})
	if err != nil || result == nil {
		return nil, nil
	}

	return result, nil
}

// --- Workspace-backed logic (called on worker goroutine) ---

func (s *LspServer) complete(ws *Workspace, path, text, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	add := func(label, detail string, kind protocol.CompletionItemKind) {
		if !strings.HasPrefix(label, prefix) {
			return
		}
		labelCopy, detailCopy, kindCopy := label, detail, kind
		items = append(items, protocol.CompletionItem{
			Label:      labelCopy,
			Kind:       &kindCopy,
			Detail:     &detailCopy,
			InsertText: &labelCopy,
		})
	}

	// Names bound in the document
	if f, err := ws.Scan(path, text); err == nil {
		names := make([]string, 0, len(f.Module.Globals))
		for name := range f.Module.Globals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			switch b := f.Module.Globals[name]; b.Kind {
			case compiler.BindFunction:
				add(name, "def", protocol.CompletionItemKindFunction)
			case compiler.BindConstant:
				add(name, "constant", protocol.CompletionItemKindConstant)
			case compiler.BindElement:
				add(name, "element <"+b.Tag+">", protocol.CompletionItemKindClass)
			case compiler.BindModule:
				add(name, "module "+b.JS, protocol.CompletionItemKindModule)
			}
		}
	}

	// Builtins
	for _, name := range ws.Resolver.Registry().Builtins() {
		add(name, "builtin", protocol.CompletionItemKindFunction)
	}

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return items
}

// hover shows the JavaScript a function compiles to, or the diagnostic
// that stops it compiling.
func (s *LspServer) hover(ws *Workspace, path, text, word string) *protocol.Hover {
	var b strings.Builder
	f, err := ws.Scan(path, text)
	if err != nil {
		return nil
	}

	fn := f.Module.Function(word)
	if fn == nil {
		if g, ok := f.Module.Globals[word]; ok && g.Kind == compiler.BindFunction {
			fn = g.Func
		}
	}
	switch {
	case fn != nil:
		res, err := ws.Session().Compile(fn)
		if err != nil {
			fmt.Fprintf(&b, "**%s** does not compile\n\n%s\n", word, err)
			break
		}
		fmt.Fprintf(&b, "**%s** compiles to `%s`\n\n```javascript\n%s```\n", word, res.ExternalName, res.Code)
	case ws.Resolver.Registry().HasBuiltin(word):
		fmt.Fprintf(&b, "**%s** (builtin)\n", word)
	default:
		g, ok := f.Module.Globals[word]
		if !ok {
			return nil
		}
		switch g.Kind {
		case compiler.BindConstant:
			fmt.Fprintf(&b, "**%s** (constant)\n\n`%v`\n", word, g.Value)
		case compiler.BindElement:
			fmt.Fprintf(&b, "**%s** (element `<%s>`)\n", word, g.Tag)
		case compiler.BindModule:
			fmt.Fprintf(&b, "**%s** (module `%s`)\n", word, g.JS)
		default:
			fmt.Fprintf(&b, "**%s** cannot be referenced from compiled code\n", word)
		}
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// definition locates the def a name refers to, following imports of
// sibling modules.
func (s *LspServer) definition(ws *Workspace, path, text, word string) []protocol.Location {
	f, err := ws.Scan(path, text)
	if err != nil {
		return nil
	}
	fn := f.Module.Function(word)
	target := path
	if fn == nil {
		g, ok := f.Module.Globals[word]
		if !ok || g.Kind != compiler.BindFunction {
			return nil
		}
		fn = g.Func
		target = fn.File
		if !filepath.IsAbs(target) {
			target = filepath.Join(ws.Manifest.Dir, filepath.FromSlash(target))
		}
	}

	line := defLine(fn)
	return []protocol.Location{{
		URI: pathURI(target),
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: 0},
			End:   protocol.Position{Line: line, Character: 0},
		},
	}}
}

// defLine returns the 0-based line of fn's def keyword, past any
// decorators.
func defLine(fn *compiler.Function) protocol.UInteger {
	line := fn.Line - 1
	for i, l := range strings.Split(fn.Source, "\n") {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "def ") || strings.HasPrefix(l, "async def ") {
			line += i
			break
		}
	}
	if line < 0 {
		line = 0
	}
	return protocol.UInteger(line)
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	result, err := s.worker.Do(func(ws *Workspace) interface{} {
		return ws.Check(uriPath(uri), text)
	})
	if err != nil {
		return
	}

	diagnostics := []protocol.Diagnostic{}
	for _, e := range result.([]*compiler.Error) {
		diagnostics = append(diagnostics, toLSPDiagnostic(e, text))
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// toLSPDiagnostic converts a diagnostic to a range covering the
// identifier at its position.
func toLSPDiagnostic(e *compiler.Error, text string) protocol.Diagnostic {
	var start protocol.Position
	if e.Pos.Line > 0 {
		start.Line = protocol.UInteger(e.Pos.Line - 1)
	}
	if e.Pos.Column > 0 {
		start.Character = protocol.UInteger(e.Pos.Column - 1)
	}
	end := start
	if lines := strings.Split(text, "\n"); int(start.Line) < len(lines) {
		line := lines[start.Line]
		for int(end.Character) < len(line) && isIdentByte(line[end.Character]) {
			end.Character++
		}
	}

	severity := protocol.DiagnosticSeverityError
	source := lspName
	msg := e.Msg
	if e.Func != "" {
		msg = fmt.Sprintf("%s (in %s)", msg, e.Func)
	}
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: e.Code.String()},
		Source:   &source,
		Message:  msg,
	}
}

// --- Text extraction helpers ---

// uriPath converts a file URI to a path; other URIs are used as is.
func uriPath(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}
	return filepath.FromSlash(u.Path)
}

func pathURI(path string) protocol.DocumentUri {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return protocol.DocumentUri(u.String())
}

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}

	if start == col {
		return ""
	}

	return line[start:col]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Find start
	start := col
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}

	// Find end
	end := col
	for end < len(line) && isIdentByte(line[end]) {
		end++
	}

	if start == end {
		return ""
	}

	return line[start:end]
}

func isIdentByte(b byte) bool {
	ch := rune(b)
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func boolPtr(b bool) *bool {
	return &b
}

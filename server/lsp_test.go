package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/pyjs/compiler"
)

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix_SimpleWord(t *testing.T) {
	text := "x = len"
	pos := protocol.Position{Line: 0, Character: 7}
	prefix := extractPrefix(text, pos)
	if prefix != "len" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "len")
	}
}

func TestExtractPrefix_AtStart(t *testing.T) {
	text := "abs"
	pos := protocol.Position{Line: 0, Character: 3}
	prefix := extractPrefix(text, pos)
	if prefix != "abs" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "abs")
	}
}

func TestExtractPrefix_EmptyLine(t *testing.T) {
	text := ""
	pos := protocol.Position{Line: 0, Character: 0}
	prefix := extractPrefix(text, pos)
	if prefix != "" {
		t.Errorf("extractPrefix = %q, want empty string", prefix)
	}
}

func TestExtractPrefix_MultiLine(t *testing.T) {
	text := "first line\nsecond line\nabs"
	pos := protocol.Position{Line: 2, Character: 3}
	prefix := extractPrefix(text, pos)
	if prefix != "abs" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "abs")
	}
}

func TestExtractPrefix_AfterSpace(t *testing.T) {
	text := "total = sum_of"
	pos := protocol.Position{Line: 0, Character: 14}
	prefix := extractPrefix(text, pos)
	if prefix != "sum_of" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "sum_of")
	}
}

func TestExtractPrefix_StopsAtDot(t *testing.T) {
	text := "math.flo"
	pos := protocol.Position{Line: 0, Character: 8}
	prefix := extractPrefix(text, pos)
	if prefix != "flo" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "flo")
	}
}

func TestExtractPrefix_CursorAtBeginning(t *testing.T) {
	text := "hello"
	pos := protocol.Position{Line: 0, Character: 0}
	prefix := extractPrefix(text, pos)
	if prefix != "" {
		t.Errorf("extractPrefix at position 0 = %q, want empty string", prefix)
	}
}

func TestExtractPrefix_LineBeyondDocument(t *testing.T) {
	text := "single line"
	pos := protocol.Position{Line: 5, Character: 0}
	prefix := extractPrefix(text, pos)
	if prefix != "" {
		t.Errorf("extractPrefix beyond doc = %q, want empty string", prefix)
	}
}

// ---------------------------------------------------------------------------
// extractWord
// ---------------------------------------------------------------------------

func TestExtractWord_SimpleWord(t *testing.T) {
	text := "hello world"
	pos := protocol.Position{Line: 0, Character: 3}
	word := extractWord(text, pos)
	if word != "hello" {
		t.Errorf("extractWord = %q, want %q", word, "hello")
	}
}

func TestExtractWord_AtEnd(t *testing.T) {
	text := "hello world"
	pos := protocol.Position{Line: 0, Character: 5}
	word := extractWord(text, pos)
	if word != "hello" {
		t.Errorf("extractWord = %q, want %q", word, "hello")
	}
}

func TestExtractWord_AtSpace(t *testing.T) {
	text := "hello world"
	// Position at the space between words
	pos := protocol.Position{Line: 0, Character: 5}
	word := extractWord(text, pos)
	// Cursor at end of "hello" (char 5 is the space), so it should find "hello"
	// because start walks back from col=5, and line[4]='o' is a letter
	if word != "hello" {
		t.Errorf("extractWord at space = %q, want %q", word, "hello")
	}
}

func TestExtractWord_SecondWord(t *testing.T) {
	text := "hello world"
	pos := protocol.Position{Line: 0, Character: 8}
	word := extractWord(text, pos)
	if word != "world" {
		t.Errorf("extractWord = %q, want %q", word, "world")
	}
}

func TestExtractWord_EmptyLine(t *testing.T) {
	text := ""
	pos := protocol.Position{Line: 0, Character: 0}
	word := extractWord(text, pos)
	if word != "" {
		t.Errorf("extractWord = %q, want empty string", word)
	}
}

func TestExtractWord_MultiLine(t *testing.T) {
	text := "first\nrender"
	pos := protocol.Position{Line: 1, Character: 3}
	word := extractWord(text, pos)
	if word != "render" {
		t.Errorf("extractWord = %q, want %q", word, "render")
	}
}

func TestExtractWord_WithUnderscore(t *testing.T) {
	text := "my_var"
	pos := protocol.Position{Line: 0, Character: 3}
	word := extractWord(text, pos)
	if word != "my_var" {
		t.Errorf("extractWord = %q, want %q", word, "my_var")
	}
}

func TestExtractWord_LineBeyondDocument(t *testing.T) {
	text := "single line"
	pos := protocol.Position{Line: 5, Character: 0}
	word := extractWord(text, pos)
	if word != "" {
		t.Errorf("extractWord beyond doc = %q, want empty string", word)
	}
}

// ---------------------------------------------------------------------------
// boolPtr
// ---------------------------------------------------------------------------

func TestBoolPtr(t *testing.T) {
	p := boolPtr(true)
	if p == nil {
		t.Fatal("boolPtr should not return nil")
	}
	if *p != true {
		t.Errorf("boolPtr(true) = %v, want true", *p)
	}

	p = boolPtr(false)
	if *p != false {
		t.Errorf("boolPtr(false) = %v, want false", *p)
	}
}

// ---------------------------------------------------------------------------
// Workspace-backed features
// ---------------------------------------------------------------------------

func newTestLSP(t *testing.T, ws *Workspace) *LspServer {
	s := NewLSP(ws)
	t.Cleanup(s.worker.Stop)
	return s
}

func TestLSP_Complete(t *testing.T) {
	ws := newProjectWorkspace(t)
	s := newTestLSP(t, ws)

	labels := func(items []protocol.CompletionItem) map[string]string {
		m := make(map[string]string)
		for _, it := range items {
			m[it.Label] = *it.Detail
		}
		return m
	}

	got := labels(s.complete(ws, ws.path("src/views.py"), viewsSource, "cl"))
	if got["clamp"] != "def" {
		t.Errorf("completions for cl = %v, want the imported def clamp", got)
	}
	got = labels(s.complete(ws, ws.path("src/views.py"), viewsSource, "le"))
	if got["len"] != "builtin" {
		t.Errorf("completions for le = %v, want builtin len", got)
	}
	got = labels(s.complete(ws, ws.path("src/views.py"), viewsSource, "d"))
	if got["div"] != "element <div>" {
		t.Errorf("completions for d = %v, want element div", got)
	}
}

func TestLSP_Hover_Function(t *testing.T) {
	ws := newProjectWorkspace(t)
	s := newTestLSP(t, ws)

	h := s.hover(ws, ws.path("src/views.py"), viewsSource, "ok")
	if h == nil {
		t.Fatal("hover returned nil")
	}
	content := h.Contents.(protocol.MarkupContent).Value
	for _, want := range []string{"```javascript", "function ok(n)", "function clamp(x)", "const LIMIT = 3;"} {
		if !strings.Contains(content, want) {
			t.Errorf("hover missing %q:\n%s", want, content)
		}
	}
}

func TestLSP_Hover_Diagnostic(t *testing.T) {
	ws := newProjectWorkspace(t)
	s := newTestLSP(t, ws)

	h := s.hover(ws, ws.path("src/views.py"), viewsSource, "bad")
	if h == nil {
		t.Fatal("hover returned nil")
	}
	if content := h.Contents.(protocol.MarkupContent).Value; !strings.Contains(content, "does not compile") {
		t.Errorf("hover = %s", content)
	}
}

func TestLSP_Hover_Builtin(t *testing.T) {
	ws := newProjectWorkspace(t)
	s := newTestLSP(t, ws)

	h := s.hover(ws, ws.path("src/views.py"), viewsSource, "len")
	if h == nil || !strings.Contains(h.Contents.(protocol.MarkupContent).Value, "builtin") {
		t.Errorf("hover = %+v", h)
	}
}

func TestLSP_Hover_UnknownWord(t *testing.T) {
	ws := newProjectWorkspace(t)
	s := newTestLSP(t, ws)

	if h := s.hover(ws, ws.path("src/views.py"), viewsSource, "nothing_here"); h != nil {
		t.Errorf("hover for unknown word = %+v, want nil", h)
	}
}

func TestLSP_Definition(t *testing.T) {
	ws := newProjectWorkspace(t)
	s := newTestLSP(t, ws)

	locs := s.definition(ws, ws.path("src/views.py"), viewsSource, "bad")
	if len(locs) != 1 || locs[0].URI != pathURI(ws.path("src/views.py")) || locs[0].Range.Start.Line != 9 {
		t.Errorf("definition of bad = %+v, want views.py line 9", locs)
	}

	locs = s.definition(ws, ws.path("src/views.py"), viewsSource, "clamp")
	if len(locs) != 1 || locs[0].URI != pathURI(ws.path("src/util.py")) || locs[0].Range.Start.Line != 3 {
		t.Errorf("definition of clamp = %+v, want util.py line 3", locs)
	}

	if locs := s.definition(ws, ws.path("src/views.py"), viewsSource, "LIMIT"); locs != nil {
		t.Errorf("definition of a constant = %+v, want nil", locs)
	}
}

func TestToLSPDiagnostic(t *testing.T) {
	text := "def f(n):\n    return n + missing\n"
	e := &compiler.Error{
		Code:      compiler.UnboundName,
		Pos:       compiler.Pos{File: "a.py", Line: 2, Column: 16},
		Construct: "missing",
		Msg:       `name "missing" is not defined`,
		Func:      "f",
	}
	d := toLSPDiagnostic(e, text)
	want := protocol.Range{
		Start: protocol.Position{Line: 1, Character: 15},
		End:   protocol.Position{Line: 1, Character: 22},
	}
	if d.Range != want {
		t.Errorf("range = %+v, want %+v", d.Range, want)
	}
	if d.Code == nil || d.Code.Value != "UnboundName" {
		t.Errorf("code = %+v", d.Code)
	}
	if d.Message != `name "missing" is not defined (in f)` {
		t.Errorf("message = %q", d.Message)
	}

	// Unknown positions land at the start of the file.
	d = toLSPDiagnostic(&compiler.Error{Code: compiler.SourceUnavailable, Msg: "gone"}, text)
	if d.Range.Start != (protocol.Position{}) {
		t.Errorf("range = %+v", d.Range)
	}
}

func TestURIPath(t *testing.T) {
	path := "/tmp/project/src/app.py"
	if got := uriPath(pathURI(path)); got != path {
		t.Errorf("round trip = %q, want %q", got, path)
	}
	if got := uriPath("untitled:Untitled-1"); got != "untitled:Untitled-1" {
		t.Errorf("non-file URI = %q", got)
	}
}

func TestLSP_DocumentStore(t *testing.T) {
	s := newTestLSP(t, newTestWorkspace(t, nil))

	s.mu.Lock()
	s.docs["file:///a.py"] = "def f():\n    pass\n"
	s.mu.Unlock()

	if text, ok := s.document("file:///a.py"); !ok || !strings.HasPrefix(text, "def f") {
		t.Errorf("document = %q, %v", text, ok)
	}
	if _, ok := s.document("file:///missing.py"); ok {
		t.Error("unknown document reported present")
	}
}

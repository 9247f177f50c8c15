package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/pyjs/compiler"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache", "bundles.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleBundle() *compiler.Bundle {
	return &compiler.Bundle{
		Code:          "function f() {\n  return 1;\n}\n",
		ContentHash:   "abc",
		ExternalNames: map[string]string{"a.py:1:f": "f"},
		Functions:     []string{"f"},
	}
}

func TestPutGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	key := NewKeyBuilder().Source("a.py", "def f(): return 1").Sum()

	rec, err := s.Get(ctx, key)
	if err != nil || rec != nil {
		t.Fatalf("Get on empty store = %v, %v", rec, err)
	}
	if err := s.Put(ctx, NewRecord(key, sampleBundle())); err != nil {
		t.Fatal(err)
	}
	rec, err = s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	b := rec.Bundle()
	if b.Code != sampleBundle().Code || b.ExternalNames["a.py:1:f"] != "f" || rec.CreatedAt == 0 {
		t.Errorf("record = %+v", rec)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Records != 1 || st.Hits != 1 || st.Misses != 1 || st.Bytes == 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestBundleBuildsOnce(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	key := NewKeyBuilder().Root("a.py:1:f").Sum()
	builds := 0
	build := func() (*compiler.Bundle, error) {
		builds++
		return sampleBundle(), nil
	}

	if _, hit, err := s.Bundle(ctx, key, build); err != nil || hit {
		t.Fatalf("first Bundle: hit=%v err=%v", hit, err)
	}
	b, hit, err := s.Bundle(ctx, key, build)
	if err != nil || !hit {
		t.Fatalf("second Bundle: hit=%v err=%v", hit, err)
	}
	if builds != 1 || b.ContentHash != "abc" {
		t.Errorf("builds = %d, bundle = %+v", builds, b)
	}

	failing := NewKeyBuilder().Root("other").Sum()
	want := errors.New("boom")
	if _, _, err := s.Bundle(ctx, failing, func() (*compiler.Bundle, error) { return nil, want }); !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
	if rec, _ := s.Get(ctx, failing); rec != nil {
		t.Error("failed build was stored")
	}
}

func TestPrune(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	clock := time.Unix(1000, 0)
	s.now = func() time.Time { return clock }

	var keys []Key
	for _, id := range []string{"a", "b", "c"} {
		key := NewKeyBuilder().Root(id).Sum()
		keys = append(keys, key)
		if err := s.Put(ctx, NewRecord(key, sampleBundle())); err != nil {
			t.Fatal(err)
		}
		clock = clock.Add(time.Minute)
	}
	// Using the oldest record makes it the most recent.
	if _, err := s.Get(ctx, keys[0]); err != nil {
		t.Fatal(err)
	}

	n, err := s.Prune(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if rec, _ := s.Get(ctx, keys[1]); rec != nil {
		t.Error("least recently used record survived")
	}
	if rec, _ := s.Get(ctx, keys[0]); rec == nil {
		t.Error("recently used record was pruned")
	}
}

func TestOpenInMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Put(context.Background(), NewRecord(Key{1}, sampleBundle())); err != nil {
		t.Fatal(err)
	}
}

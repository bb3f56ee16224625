package location

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prettymuchbryce/testwire/internal/fs"
	"github.com/prettymuchbryce/testwire/internal/testutil"
)

// countingStore wraps a Store and counts calls.
type countingStore struct {
	Store
	gets atomic.Int32
	puts atomic.Int32
}

func (c *countingStore) Get(typ string) (string, bool, error) {
	c.gets.Add(1)
	return c.Store.Get(typ)
}

func (c *countingStore) PutIfAbsent(typ, path string) (string, error) {
	c.puts.Add(1)
	return c.Store.PutIfAbsent(typ, path)
}

type failingStore struct{}

func (failingStore) Get(string) (string, bool, error)           { return "", false, errors.New("disk gone") }
func (failingStore) PutIfAbsent(string, string) (string, error) { return "", errors.New("disk gone") }

// stubFinder returns a fixed result and counts calls.
type stubFinder struct {
	path  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *stubFinder) Find(ctx context.Context, ident string) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.path, f.err
}

func TestResolve_StaticUnderRoot(t *testing.T) {
	store := &countingStore{Store: NewMemStore()}
	finder := &stubFinder{}
	r := NewResolver(testutil.Path("/", "app"), store, finder, 0)

	got := r.Resolve(context.Background(), "TestFoo", Static{File: testutil.Path("/", "app", "foo_test.go"), Line: 42})
	if want := testutil.Path("/", "app", "foo_test.go") + ":42"; got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
	if store.gets.Load() != 0 || finder.calls.Load() != 0 {
		t.Errorf("fast path touched cache (%d) or search (%d)", store.gets.Load(), finder.calls.Load())
	}
}

func TestResolve_NoFilesystemAccessOnFastPath(t *testing.T) {
	root := testutil.Path("/", "app")
	r := NewResolver(root, NewFileStore(fs.NewNoop(), testutil.Path("/", "cache")), NewSearcher(fs.NewNoop(), root, nil, nil), 0)

	got := r.Resolve(context.Background(), "TestFoo", Static{File: testutil.Path("/", "app", "x_test.go"), Line: 1})
	if want := testutil.Path("/", "app", "x_test.go") + ":1"; got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestResolve_Cached(t *testing.T) {
	mem := NewMemStore()
	mem.PutIfAbsent("TestFoo", "/app/cached_test.go")
	store := &countingStore{Store: mem}
	finder := &stubFinder{path: "/app/other_test.go"}
	r := NewResolver(testutil.Path("/", "app"), store, finder, 0)

	got := r.Resolve(context.Background(), "TestFoo", Static{File: "/sandbox/foo_test.go", Line: 3})
	if got != "/app/cached_test.go:" {
		t.Errorf("Resolve = %q, want %q", got, "/app/cached_test.go:")
	}
	if finder.calls.Load() != 0 {
		t.Error("cached lookup must not search")
	}
}

func TestResolve_SearchAndRecord(t *testing.T) {
	store := &countingStore{Store: NewMemStore()}
	finder := &stubFinder{path: "/app/found_test.go"}
	r := NewResolver(testutil.Path("/", "app"), store, finder, 0)

	for i := 0; i < 3; i++ {
		got := r.Resolve(context.Background(), "TestFoo", Static{})
		if got != "/app/found_test.go:" {
			t.Fatalf("Resolve #%d = %q", i, got)
		}
	}
	if finder.calls.Load() != 1 {
		t.Errorf("search ran %d times, want 1", finder.calls.Load())
	}
	if store.puts.Load() != 1 {
		t.Errorf("cache written %d times, want 1", store.puts.Load())
	}
}

func TestResolve_NothingFound(t *testing.T) {
	store := &countingStore{Store: NewMemStore()}
	r := NewResolver(testutil.Path("/", "app"), store, &stubFinder{}, 0)

	if got := r.Resolve(context.Background(), "TestFoo", Static{}); got != ":" {
		t.Errorf("Resolve = %q, want %q", got, ":")
	}
	if store.puts.Load() != 0 {
		t.Error("empty result must not be cached")
	}
}

func TestResolve_Degraded(t *testing.T) {
	tests := []struct {
		name   string
		store  Store
		finder Finder
		want   string
	}{
		{"search error", NewMemStore(), &stubFinder{err: errors.New("boom")}, ":"},
		{"cache unreadable", failingStore{}, &stubFinder{path: "/app/a_test.go"}, "/app/a_test.go:"},
		{"no cache", nil, &stubFinder{path: "/app/a_test.go"}, "/app/a_test.go:"},
		{"no finder", NewMemStore(), nil, ":"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(testutil.Path("/", "app"), tt.store, tt.finder, 0)
			if got := r.Resolve(context.Background(), "TestFoo", Static{}); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_SearchTimeout(t *testing.T) {
	finder := &stubFinder{path: "/app/slow_test.go", delay: time.Second}
	r := NewResolver(testutil.Path("/", "app"), NewMemStore(), finder, 10*time.Millisecond)

	start := time.Now()
	got := r.Resolve(context.Background(), "TestSlow", Static{})
	if got != ":" {
		t.Errorf("Resolve = %q, want %q", got, ":")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("timeout did not bound the search")
	}
}

func TestResolve_ConcurrentSameType(t *testing.T) {
	mfs := fs.NewMemTest()
	store := NewFileStore(mfs, testutil.Path("/", "cache"))
	finder := &stubFinder{path: "/app/shared_test.go", delay: 20 * time.Millisecond}
	r := NewResolver(testutil.Path("/", "app"), store, finder, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := r.Resolve(context.Background(), "TestShared", Static{}); got != "/app/shared_test.go:" {
				t.Errorf("Resolve = %q", got)
			}
		}()
	}
	wg.Wait()

	entries, _ := store.Entries()
	if len(entries) != 1 {
		t.Errorf("cache has %d entries, want 1", len(entries))
	}
}

func TestUnderRoot(t *testing.T) {
	r := NewResolver(testutil.Path("/", "app"), nil, nil, 0)

	tests := []struct {
		file string
		want bool
	}{
		{testutil.Path("/", "app", "x.go"), true},
		{testutil.Path("/", "app", "deep", "x.go"), true},
		{testutil.Path("/", "application", "x.go"), false},
		{testutil.Path("/", "other", "x.go"), false},
		{"relative/x.go", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := r.underRoot(tt.file); got != tt.want {
			t.Errorf("underRoot(%q) = %v, want %v", tt.file, got, tt.want)
		}
	}
}

package location

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prettymuchbryce/testwire/internal/fs"
	"github.com/prettymuchbryce/testwire/internal/testutil"
)

func TestFileStore_GetPut(t *testing.T) {
	mfs := fs.NewMemTest()
	path := testutil.Path("/", "cache", "bundle", "locations")
	store := NewFileStore(mfs, path)

	if _, ok, err := store.Get("TestFoo"); err != nil || ok {
		t.Fatalf("Get on missing file = (ok=%v, err=%v), want miss", ok, err)
	}

	stored, err := store.PutIfAbsent("TestFoo", "/app/foo_test.go")
	if err != nil {
		t.Fatalf("PutIfAbsent: %v", err)
	}
	if stored != "/app/foo_test.go" {
		t.Errorf("stored = %q", stored)
	}

	stored, err = store.PutIfAbsent("TestFoo", "/app/other_test.go")
	if err != nil {
		t.Fatalf("PutIfAbsent: %v", err)
	}
	if stored != "/app/foo_test.go" {
		t.Errorf("second put stored = %q, want first writer to win", stored)
	}

	got, ok, err := store.Get("TestFoo")
	if err != nil || !ok || got != "/app/foo_test.go" {
		t.Errorf("Get = (%q, %v, %v)", got, ok, err)
	}

	if content := mfs.MustReadFile(path); content != "TestFoo => /app/foo_test.go\n" {
		t.Errorf("file content = %q", content)
	}
}

func TestFileStore_FirstEntryWins(t *testing.T) {
	mfs := fs.NewMemTest()
	path := testutil.Path("/", "cache")
	mfs.MustWriteFile(path, "Foo => /a.go\nFoo => /b.go\nFooBar => /c.go\n")
	store := NewFileStore(mfs, path)

	got, ok, _ := store.Get("Foo")
	if !ok || got != "/a.go" {
		t.Errorf("Get(Foo) = %q, want /a.go", got)
	}
	got, ok, _ = store.Get("FooBar")
	if !ok || got != "/c.go" {
		t.Errorf("Get(FooBar) = %q, want /c.go", got)
	}
}

func TestFileStore_IgnoresPartialLine(t *testing.T) {
	mfs := fs.NewMemTest()
	path := testutil.Path("/", "cache")
	mfs.MustWriteFile(path, "Foo => /a.go\nBar => /app/ba")
	store := NewFileStore(mfs, path)

	if _, ok, _ := store.Get("Bar"); ok {
		t.Error("partial trailing line should not be a hit")
	}
	if _, ok, _ := store.Get("Foo"); !ok {
		t.Error("complete line should be a hit")
	}
}

func TestFileStore_EntryWrittenByAnotherProcess(t *testing.T) {
	mfs := fs.NewMemTest()
	path := testutil.Path("/", "cache")
	store := NewFileStore(mfs, path)

	mfs.MustWriteFile(path, "Foo => /elsewhere.go\n")

	stored, err := store.PutIfAbsent("Foo", "/mine.go")
	if err != nil {
		t.Fatal(err)
	}
	if stored != "/elsewhere.go" {
		t.Errorf("stored = %q, want the entry already on disk", stored)
	}
}

func TestFileStore_ConcurrentWriters(t *testing.T) {
	mfs := fs.NewMemTest()
	path := testutil.Path("/", "cache")
	store := NewFileStore(mfs, path)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored, err := store.PutIfAbsent("Shared", fmt.Sprintf("/file_%d.go", i))
			if err != nil {
				t.Errorf("PutIfAbsent: %v", err)
			}
			results[i] = stored
		}(i)
	}
	wg.Wait()

	entries, err := store.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1: %v", len(entries), entries)
	}
	for i, r := range results {
		if r != entries[0].Path {
			t.Errorf("writer %d saw %q, stored entry is %q", i, r, entries[0].Path)
		}
	}
}

func TestFileStore_RejectsMultiline(t *testing.T) {
	store := NewFileStore(fs.NewMem(), testutil.Path("/", "cache"))
	if _, err := store.PutIfAbsent("Foo", "/a\n/b"); err == nil {
		t.Error("expected error for path with newline")
	}
	if _, err := store.PutIfAbsent("", "/a"); err == nil {
		t.Error("expected error for empty type")
	}
}

func TestFileStore_Clear(t *testing.T) {
	mfs := fs.NewMemTest()
	path := testutil.Path("/", "cache")
	store := NewFileStore(mfs, path)

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear on missing file: %v", err)
	}
	store.PutIfAbsent("Foo", "/a.go")
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if entries, _ := store.Entries(); len(entries) != 0 {
		t.Errorf("entries after Clear = %v", entries)
	}
}

func TestMemStore(t *testing.T) {
	m := NewMemStore()
	m.PutIfAbsent("Foo", "/a.go")
	stored, _ := m.PutIfAbsent("Foo", "/b.go")
	if stored != "/a.go" {
		t.Errorf("stored = %q, want /a.go", stored)
	}
	if _, err := m.PutIfAbsent("Foo => x", "/c.go"); err == nil || !strings.Contains(err.Error(), "one line") {
		t.Errorf("expected separator rejection, got %v", err)
	}
}

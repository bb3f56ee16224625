// Package location resolves the source location reported for a test.
//
// Static locations supplied by the host engine are trusted only when they
// point inside the source root. Otherwise the declaring type is looked up in
// a persistent cache, and on a miss the source tree is searched and the hit
// recorded for every later lookup.
package location

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Static is the file and line the host engine reports for a test.
type Static struct {
	File string
	Line int
}

// Resolver maps a test's declaring type to a "file:line" or "file:" string.
type Resolver struct {
	root    string
	store   Store
	finder  Finder
	timeout time.Duration

	group singleflight.Group
}

// NewResolver creates a Resolver. store may be nil to disable caching; a
// zero timeout leaves the search unbounded.
func NewResolver(root string, store Store, finder Finder, timeout time.Duration) *Resolver {
	return &Resolver{
		root:    filepath.Clean(root),
		store:   store,
		finder:  finder,
		timeout: timeout,
	}
}

// Resolve returns the location for a test. It never fails: when nothing can
// be found the result is ":".
func (r *Resolver) Resolve(ctx context.Context, declaringType string, static Static) string {
	if r.underRoot(static.File) {
		return fmt.Sprintf("%s:%d", static.File, static.Line)
	}

	if r.store != nil {
		path, ok, err := r.store.Get(declaringType)
		if err != nil {
			slog.Warn("location cache unreadable, searching instead", "type", declaringType, "error", err)
		} else if ok {
			return path + ":"
		}
	}

	v, _, _ := r.group.Do(declaringType, func() (any, error) {
		return r.search(ctx, declaringType), nil
	})
	return v.(string) + ":"
}

// search finds and records the file for declaringType. Failures degrade to "".
func (r *Resolver) search(ctx context.Context, declaringType string) string {
	if r.finder == nil || declaringType == "" {
		return ""
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	path, err := r.finder.Find(ctx, declaringType)
	if err != nil {
		slog.Warn("source search failed", "type", declaringType, "error", err)
		return ""
	}
	slog.Debug("searched for declaring type", "type", declaringType, "path", path, "took", time.Since(start))
	if path == "" || r.store == nil {
		return path
	}

	stored, err := r.store.PutIfAbsent(declaringType, path)
	if err != nil {
		slog.Warn("failed to record location", "type", declaringType, "error", err)
		return path
	}
	return stored
}

func (r *Resolver) underRoot(file string) bool {
	if file == "" || !filepath.IsAbs(file) {
		return false
	}
	rel, err := filepath.Rel(r.root, filepath.Clean(file))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

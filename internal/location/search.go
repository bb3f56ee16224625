package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/prettymuchbryce/testwire/internal/fs"
	"github.com/spf13/afero"
)

// maxLineSize bounds the longest source line the searcher will scan.
const maxLineSize = 1 << 20

// errFound stops the walk at the first match. afero.Walk does not honor
// filepath.SkipAll.
var errFound = errors.New("found")

// Finder locates the file that defines an identifier.
type Finder interface {
	// Find returns the first file under the source root containing ident
	// as a whole word, or "" if there is none.
	Find(ctx context.Context, ident string) (string, error)
}

// Searcher walks the source root in lexical order and scans every file
// matching an include glob for a whole-word occurrence of the identifier.
type Searcher struct {
	fs      fs.FileSystem
	root    string
	include []string
	exclude []string
}

// NewSearcher creates a Searcher over root. include globs are matched
// against slash-separated paths relative to root; exclude globs are matched
// against directory base names and relative paths.
func NewSearcher(fsys fs.FileSystem, root string, include, exclude []string) *Searcher {
	return &Searcher{fs: fsys, root: root, include: include, exclude: exclude}
}

// Find returns the first matching file. It stops early when ctx is done.
func (s *Searcher) Find(ctx context.Context, ident string) (string, error) {
	if ident == "" {
		return "", nil
	}
	word, err := regexp.Compile(`(?:^|[^\w])` + regexp.QuoteMeta(ident) + `(?:[^\w]|$)`)
	if err != nil {
		return "", fmt.Errorf("invalid identifier %q: %w", ident, err)
	}

	var found string
	err = afero.Walk(s.fs, s.root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			slog.Debug("skipping unreadable path", "path", path, "error", err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && s.excluded(info.Name(), rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || !s.included(rel) {
			return nil
		}

		if s.fileContains(path, word) {
			found = path
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) && !errors.Is(err, filepath.SkipDir) {
		return "", err
	}
	return found, nil
}

func (s *Searcher) included(rel string) bool {
	if len(s.include) == 0 {
		return true
	}
	for _, pattern := range s.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (s *Searcher) excluded(name, rel string) bool {
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (s *Searcher) fileContains(path string, word *regexp.Regexp) bool {
	f, err := s.fs.Open(path)
	if err != nil {
		slog.Debug("skipping unreadable file", "path", path, "error", err)
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if word.Match(scanner.Bytes()) {
			return true
		}
	}
	return false
}

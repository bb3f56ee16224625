package cmd

import (
	"fmt"
	"io"

	"github.com/prettymuchbryce/testwire/internal/attachment"
	"github.com/prettymuchbryce/testwire/internal/capture"
	"github.com/prettymuchbryce/testwire/internal/config"
	"github.com/prettymuchbryce/testwire/internal/event"
	"github.com/prettymuchbryce/testwire/internal/fs"
	"github.com/prettymuchbryce/testwire/internal/location"
	"github.com/prettymuchbryce/testwire/internal/protocol"
	"github.com/prettymuchbryce/testwire/internal/report"
)

// newFileSystem returns the filesystem used for the cache, search and
// attachments.
func newFileSystem(c *config.Config) fs.FileSystem {
	if c.Cache.ReadOnly {
		return fs.NewReadOnly()
	}
	return fs.NewReal()
}

// newStore returns the location cache. With the cache disabled, lookups are
// still shared within the run. Writable caches take a file lock per append.
func newStore(c *config.Config, fsys fs.FileSystem) location.Store {
	if !c.Cache.Enabled {
		return location.NewMemStore()
	}
	store := location.NewFileStore(fsys, c.Cache.Path)
	if c.Cache.ReadOnly {
		return store
	}
	return store.WithLocker(location.NewFileLock(c.Cache.Path))
}

// newReporter builds the reporter selected by the config, writing to out.
func newReporter(c *config.Config, out io.Writer, opener capture.Opener) (report.Reporter, error) {
	format := event.Options{
		TraceFilters: c.Report.TraceFilters,
		ColorFrames:  c.Report.ColorFrames,
	}

	if !c.Report.Structured {
		return report.NewSpecWithWriter(out, report.SpecOptions{
			PrintFailureSummary: c.Report.PrintFailureSummary,
			TimeFormat:          c.Report.TimeFormat,
			Format:              format,
		}), nil
	}

	root, err := c.AbsSourceRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source root: %w", err)
	}

	fsys := newFileSystem(c)
	searcher := location.NewSearcher(fsys, root, c.Search.Include, c.Search.Exclude)
	resolver := location.NewResolver(root, newStore(c, fsys), searcher, c.Search.Timeout)

	return report.NewStructured(report.Components{
		Emitter:   protocol.NewEmitter(out),
		Resolver:  resolver,
		Extractor: attachment.NewExtractor(fsys),
		Opener:    opener,
		Format:    format,
	}), nil
}

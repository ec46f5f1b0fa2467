// Package dochandler loads DICOM standard documents from a local disk
// cache, fetching them over HTTP on first use or when forced. Two concrete
// handlers build on the shared cache-then-fetch logic: one for the XHTML
// DocBook chapters, one for PDF parts whose tables are extracted by an
// injected TableExtractor (an external collaborator).
package dochandler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dcmspec/dcmspec/dcmerr"
	"github.com/dcmspec/dcmspec/progress"
)

// Options configures a single LoadDocument call.
type Options struct {
	// URL is the source to fetch from when the cache file is absent or
	// ForceDownload is set. Required in that case, else MissingUrl.
	URL string
	// ForceDownload re-fetches even if a cached copy exists.
	ForceDownload bool
	Observer      progress.Observer
	Logger        *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) emit(p progress.Progress) {
	if o.Observer != nil {
		o.Observer(p)
	}
}

// cachePath joins cacheDir with the standard-document layout dcmspec uses
// for every cached artifact: <cacheDir>/standard/<cacheFileName>.
func cachePath(cacheDir, cacheFileName string) string {
	return filepath.Join(cacheDir, "standard", cacheFileName)
}

// ensureCached returns the bytes at cachePath(cacheDir, cacheFileName),
// fetching and persisting them first when the file is absent or
// opts.ForceDownload is set.
func ensureCached(ctx context.Context, fetcher Fetcher, accept, cacheDir, cacheFileName string, opts Options) ([]byte, error) {
	path := cachePath(cacheDir, cacheFileName)

	if !opts.ForceDownload {
		if b, err := readIfExists(path); b != nil || err != nil {
			return b, err
		}
	}

	if opts.URL == "" {
		return nil, dcmerr.New(dcmerr.MissingUrl, "dochandler.ensureCached", nil)
	}

	b, err := fetcher.Fetch(ctx, opts.URL, accept)
	if err != nil {
		return nil, err
	}
	if err := writeCache(path, b); err != nil {
		return nil, err
	}
	return b, nil
}

// readIfExists returns (nil, nil) when path is absent, signaling the caller
// should fetch instead of failing.
func readIfExists(path string) ([]byte, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, dcmerr.New(dcmerr.IoError, "dochandler.readIfExists", err)
	}
	return b, nil
}

func writeCache(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return dcmerr.New(dcmerr.IoError, "dochandler.writeCache", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return dcmerr.New(dcmerr.IoError, "dochandler.writeCache", err)
	}
	return nil
}

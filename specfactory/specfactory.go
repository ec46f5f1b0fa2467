// Package specfactory orchestrates the cache-first "one table → one model"
// pipeline: load the model from the on-disk JSON cache when possible,
// otherwise load the source document, parse the requested table, apply the
// default filters, and cache the result.
package specfactory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dcmspec/dcmspec/dochandler"
	"github.com/dcmspec/dcmspec/progress"
	"github.com/dcmspec/dcmspec/specmodel"
	"github.com/dcmspec/dcmspec/specstore"
	"github.com/dcmspec/dcmspec/tableparser"
)

// Factory builds SpecModels from a single DICOM table, caching both the
// fetched document (via Handler) and the resulting model.
type Factory struct {
	Handler  *dochandler.XHTMLHandler
	CacheDir string
	Logger   *slog.Logger
}

// New returns a Factory. A nil logger defaults to slog.Default().
func New(handler *dochandler.XHTMLHandler, cacheDir string, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{Handler: handler, CacheDir: cacheDir, Logger: logger}
}

// Options parameterises CreateModel.
type Options struct {
	URL           string
	CacheFileName string
	TableID       string
	ForceDownload bool
	ForceParse    bool
	// JSONFileName overrides the model cache file name. When empty,
	// CacheFileName's extension is replaced with ".json".
	JSONFileName string

	ColumnToAttr       *specmodel.ColumnMap
	NameAttr           string
	IncludeDepth       *int
	SkipColumns        []int
	UnformattedColumns map[int]bool

	// ExcludeTitles defaults to true; set false to keep module-title nodes.
	ExcludeTitles *bool
	// FilterRequired is off by default.
	FilterRequired bool
	FilterAttr     string
	FilterKeep     []string
	FilterRemove   []string

	Observer progress.Observer
}

func (o Options) excludeTitles() bool {
	return o.ExcludeTitles == nil || *o.ExcludeTitles
}

func (f *Factory) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

// modelCachePath computes cache_dir/model/<json_file_name or
// cache_file_name with .json>.
func (f *Factory) modelCachePath(opts Options) string {
	name := opts.JSONFileName
	if name == "" {
		ext := filepath.Ext(opts.CacheFileName)
		name = strings.TrimSuffix(opts.CacheFileName, ext) + ".json"
	}
	return filepath.Join(f.CacheDir, "model", name)
}

// CreateModel implements the factory's cache-check, load, parse, filter,
// and save orchestration.
func (f *Factory) CreateModel(ctx context.Context, opts Options) (*specmodel.SpecModel, error) {
	path := f.modelCachePath(opts)

	if !opts.ForceDownload && !opts.ForceParse {
		if _, err := os.Stat(path); err == nil {
			model, loadErr := specstore.Load(path)
			if loadErr == nil {
				return model, nil
			}
			f.logger().Warn("specfactory: cached model load failed, rebuilding", "path", path, "error", loadErr)
		}
	}

	dom, err := f.Handler.LoadDocument(ctx, opts.CacheFileName, dochandler.Options{
		URL:           opts.URL,
		ForceDownload: opts.ForceDownload,
		Observer:      opts.Observer,
		Logger:        f.logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("specfactory.CreateModel: load document %s: %w", opts.CacheFileName, err)
	}

	meta, roots, err := tableparser.ParseTable(dom, opts.TableID, tableparser.Options{
		ColumnToAttr:       opts.ColumnToAttr,
		NameAttr:           opts.NameAttr,
		IncludeDepth:       opts.IncludeDepth,
		SkipColumns:        opts.SkipColumns,
		UnformattedColumns: opts.UnformattedColumns,
		Observer:           opts.Observer,
		Logger:             f.logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("specfactory.CreateModel: parse table %s: %w", opts.TableID, err)
	}
	meta.URL = opts.URL

	content := specmodel.NewContentRoot()
	for _, r := range roots {
		content.AddChild(r)
	}
	model, err := specmodel.New(meta, content)
	if err != nil {
		return nil, fmt.Errorf("specfactory.CreateModel: %w", err)
	}

	if opts.excludeTitles() {
		model.ExcludeTitles()
	}
	if opts.FilterRequired {
		model.FilterRequired(opts.FilterAttr, opts.FilterKeep, opts.FilterRemove)
	}

	if err := specstore.Save(model, path); err != nil {
		f.logger().Warn("specfactory: could not cache model", "path", path, "error", err)
	}

	return model, nil
}

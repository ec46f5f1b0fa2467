// Package iodbuilder expands an IOD's modules index table into a full
// attribute tree: it looks up each referenced module's table, builds or
// loads its submodel, and grafts the module's rows under the referencing
// IOD node.
package iodbuilder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/net/html"

	"github.com/dcmspec/dcmspec/dcmerr"
	"github.com/dcmspec/dcmspec/dochandler"
	"github.com/dcmspec/dcmspec/domutils"
	"github.com/dcmspec/dcmspec/progress"
	"github.com/dcmspec/dcmspec/registry"
	"github.com/dcmspec/dcmspec/specmodel"
	"github.com/dcmspec/dcmspec/specstore"
	"github.com/dcmspec/dcmspec/tableparser"
)

// Builder orchestrates IOD expansion. Registry is shared across builds so
// repeated module references (e.g. "Patient Module" in many IODs) are
// parsed once per process.
type Builder struct {
	Handler  *dochandler.XHTMLHandler
	CacheDir string
	Registry *registry.ModuleRegistry
	Logger   *slog.Logger
}

// New returns a Builder. A nil registry gets a fresh one; a nil logger
// defaults to slog.Default().
func New(handler *dochandler.XHTMLHandler, cacheDir string, reg *registry.ModuleRegistry, logger *slog.Logger) *Builder {
	if reg == nil {
		reg = registry.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{Handler: handler, CacheDir: cacheDir, Registry: reg, Logger: logger}
}

// ModuleOptions parameterises how each referenced module's table is parsed.
// It is the same shape tableparser.Options exposes for a single module
// table.
type ModuleOptions struct {
	ColumnToAttr       *specmodel.ColumnMap
	NameAttr           string
	IncludeDepth       *int
	SkipColumns        []int
	UnformattedColumns map[int]bool
	// ExcludeTitles defaults to true, matching SpecFactory's default for a
	// single-table build.
	ExcludeTitles *bool
}

func (o ModuleOptions) excludeTitles() bool {
	return o.ExcludeTitles == nil || *o.ExcludeTitles
}

// Options parameterises BuildFromURL.
type Options struct {
	URL           string
	CacheFileName string
	IodTableID    string
	// JSONFileName overrides the expanded model's cache file name. Defaults
	// to "<IodTableID>_expanded.json".
	JSONFileName string
	ForceDownload bool

	IodColumnToAttr *specmodel.ColumnMap
	IodNameAttr     string
	Module          ModuleOptions

	Observer progress.Observer
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func emit(obs progress.Observer, p progress.Progress) {
	if obs != nil {
		obs(p)
	}
}

func (b *Builder) expandedCachePath(opts Options) string {
	name := opts.JSONFileName
	if name == "" {
		name = opts.IodTableID + "_expanded.json"
	}
	return filepath.Join(b.CacheDir, "model", name)
}

func (b *Builder) moduleCachePath(tableID string) string {
	return filepath.Join(b.CacheDir, "model", tableID+".json")
}

// BuildFromURL runs the four-step IOD expansion pipeline, emitting
// DownloadingIOD, ParsingIODModuleList, ParsingIODModules and
// SavingIODModel progress events.
func (b *Builder) BuildFromURL(ctx context.Context, opts Options) (*specmodel.SpecModel, error) {
	path := b.expandedCachePath(opts)

	// Step 1: cache-check the expanded IOD JSON.
	if !opts.ForceDownload {
		if _, err := os.Stat(path); err == nil {
			model, loadErr := specstore.Load(path)
			if loadErr == nil {
				return model, nil
			}
			b.logger().Warn("iodbuilder: cached expanded model load failed, rebuilding", "path", path, "error", loadErr)
		}
	}

	// Step 2: load the DOM.
	emit(opts.Observer, progress.Indeterminate(progress.DownloadingIOD, 0, 0))
	dom, err := b.Handler.LoadDocument(ctx, opts.CacheFileName, dochandler.Options{
		URL:           opts.URL,
		ForceDownload: opts.ForceDownload,
		Logger:        b.logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("iodbuilder.BuildFromURL: load document %s: %w", opts.CacheFileName, err)
	}

	// Step 3: build the IOD index model.
	emit(opts.Observer, progress.Indeterminate(progress.ParsingIODModuleList, 0, 0))
	indexMeta, indexRoots, err := tableparser.ParseTable(dom, opts.IodTableID, tableparser.Options{
		ColumnToAttr: opts.IodColumnToAttr,
		NameAttr:     opts.IodNameAttr,
		Logger:       b.logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("iodbuilder.BuildFromURL: parse IOD index %s: %w", opts.IodTableID, err)
	}
	indexContent := specmodel.NewContentRoot()
	for _, r := range indexRoots {
		indexContent.AddChild(r)
	}

	// Step 4: resolve and build/load each referenced module.
	children := indexContent.Children
	var refRows []*specmodel.Node
	for _, c := range children {
		if c.Has("ref") {
			refRows = append(refRows, c)
		}
	}

	modulesByRef := make(map[string]*specmodel.SpecModel)
	for i, row := range refRows {
		ref := row.Get("ref").String()
		emit(opts.Observer, progress.Indeterminate(progress.ParsingIODModules, i+1, len(refRows)))

		tableID, ok := domutils.SectionToTableID(dom, "sect_"+ref, b.logger())
		if !ok {
			b.logger().Warn("iodbuilder: could not resolve module section", "ref", ref)
			continue
		}

		moduleModel, err := b.resolveModule(dom, tableID, opts.Module)
		if err != nil {
			b.logger().Warn("iodbuilder: module build failed", "table_id", tableID, "ref", ref, "error", err)
			continue
		}
		// moduleModel may be the same *SpecModel stored in the registry and
		// reused by a later IOD build; grafting below empties the module's
		// content root, so a clone is mutated here instead — consumers that
		// need to mutate a shared module model must clone it first.
		modulesByRef[ref] = moduleModel.Clone()
	}

	if len(modulesByRef) == 0 {
		return nil, dcmerr.New(dcmerr.NoModules, "iodbuilder.BuildFromURL", nil)
	}

	// Step 6: assemble the expanded model.
	newContent := specmodel.NewContentRoot()
	var firstModuleMeta *specmodel.Metadata
	for _, row := range children {
		row.DetachFromParent()
		if ref := row.Get("ref"); !ref.IsNull() {
			if mod, ok := modulesByRef[ref.String()]; ok {
				for _, mc := range append([]*specmodel.Node(nil), mod.Content.Children...) {
					mc.DetachFromParent()
					row.AddChild(mc)
				}
				mod.Content.Children = nil
				if firstModuleMeta == nil {
					firstModuleMeta = mod.Metadata
				}
			}
		}
		newContent.AddChild(row)
	}

	expandedMeta := specmodel.NewMetadata()
	if firstModuleMeta != nil {
		expandedMeta = firstModuleMeta.Clone()
	}
	expandedMeta.TableID = opts.IodTableID
	expandedMeta.URL = opts.URL

	expandedModel, err := specmodel.New(expandedMeta, newContent)
	if err != nil {
		return nil, fmt.Errorf("iodbuilder.BuildFromURL: %w", err)
	}

	// Step 7: save (non-fatal on failure).
	emit(opts.Observer, progress.Indeterminate(progress.SavingIODModel, 0, 0))
	if err := specstore.Save(expandedModel, path); err != nil {
		b.logger().Warn("iodbuilder: could not cache expanded model", "path", path, "error", err)
	}

	return expandedModel, nil
}

// resolveModule checks the registry, then the on-disk module cache, and
// only parses dom as a last resort, storing the result in both places.
func (b *Builder) resolveModule(dom *html.Node, tableID string, mo ModuleOptions) (*specmodel.SpecModel, error) {
	if m, ok := b.Registry.Get(tableID); ok {
		return m, nil
	}

	cachePath := b.moduleCachePath(tableID)
	if _, err := os.Stat(cachePath); err == nil {
		if cached, loadErr := specstore.Load(cachePath); loadErr == nil {
			b.Registry.Set(tableID, cached)
			return cached, nil
		} else {
			b.logger().Warn("iodbuilder: cached module load failed, rebuilding", "table_id", tableID, "error", loadErr)
		}
	}

	model, err := b.buildModule(dom, tableID, mo)
	if err != nil {
		return nil, err
	}
	b.Registry.Set(tableID, model)
	if err := specstore.Save(model, cachePath); err != nil {
		b.logger().Warn("iodbuilder: could not cache module model", "table_id", tableID, "error", err)
	}
	return model, nil
}

func (b *Builder) buildModule(dom *html.Node, tableID string, mo ModuleOptions) (*specmodel.SpecModel, error) {
	meta, roots, err := tableparser.ParseTable(dom, tableID, tableparser.Options{
		ColumnToAttr:       mo.ColumnToAttr,
		NameAttr:           mo.NameAttr,
		IncludeDepth:       mo.IncludeDepth,
		SkipColumns:        mo.SkipColumns,
		UnformattedColumns: mo.UnformattedColumns,
		Logger:             b.logger(),
	})
	if err != nil {
		return nil, err
	}
	content := specmodel.NewContentRoot()
	for _, r := range roots {
		content.AddChild(r)
	}
	model, err := specmodel.New(meta, content)
	if err != nil {
		return nil, err
	}
	if mo.excludeTitles() {
		model.ExcludeTitles()
	}
	return model, nil
}

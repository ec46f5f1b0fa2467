// Package specmerger runs SpecModel.MergeMatchingPath/MergeMatchingNode as a
// chained, cache-validated pipeline over more than two models.
package specmerger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dcmspec/dcmspec/dcmerr"
	"github.com/dcmspec/dcmspec/specmodel"
	"github.com/dcmspec/dcmspec/specstore"
)

// Method selects which SpecModel merge primitive chains the models.
type Method string

const (
	MatchingPath Method = "matching_path"
	MatchingNode Method = "matching_node"
)

// Request parameterises MergeMany.
type Request struct {
	// Models is the chain to merge left to right; must hold at least one.
	Models  []*specmodel.SpecModel
	Method  Method
	MatchBy specmodel.MatchBy

	// AttributeNames holds one AttributeName per merge step
	// (len(Models)-1), used when MatchBy == MatchByAttribute. A single
	// entry is broadcast to every step.
	AttributeNames []string
	// MergeAttrsList holds one merge-attrs list per step (len(Models)-1),
	// broadcast the same way when it holds a single entry.
	MergeAttrsList    [][]string
	IgnoreModuleLevel bool

	// JSONFileName, if set, is both the cache read/write target
	// (cache_dir/model/<JSONFileName>) and the trigger for cache
	// validation: a cache hit that fails validation is treated as a miss.
	JSONFileName string
	ForceUpdate  bool

	CacheDir string
}

// Merger runs merge chains; it holds no state beyond its logger.
type Merger struct {
	Logger *slog.Logger
}

// New returns a Merger. A nil logger defaults to slog.Default().
func New(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{Logger: logger}
}

func (mg *Merger) logger() *slog.Logger {
	if mg.Logger != nil {
		return mg.Logger
	}
	return slog.Default()
}

func (mg *Merger) cachePath(req Request) string {
	return filepath.Join(req.CacheDir, "model", req.JSONFileName)
}

func broadcastStrings(v []string, n int) []string {
	if len(v) == 1 && n > 1 {
		out := make([]string, n)
		for i := range out {
			out[i] = v[0]
		}
		return out
	}
	return v
}

func broadcastStringSlices(v [][]string, n int) [][]string {
	if len(v) == 1 && n > 1 {
		out := make([][]string, n)
		for i := range out {
			out[i] = v[0]
		}
		return out
	}
	return v
}

// MergeMany validates req, attempts a cache hit, and otherwise performs the
// chained merges, updates merged metadata, and (non-fatally) saves the
// result.
func (mg *Merger) MergeMany(req Request) (*specmodel.SpecModel, error) {
	if len(req.Models) == 0 {
		return nil, fmt.Errorf("specmerger.MergeMany: models must be non-empty")
	}
	n := len(req.Models) - 1
	attributeNames := broadcastStrings(req.AttributeNames, n)
	mergeAttrsList := broadcastStringSlices(req.MergeAttrsList, n)
	if n > 0 && (len(attributeNames) != n || len(mergeAttrsList) != n) {
		return nil, fmt.Errorf(
			"specmerger.MergeMany: attribute_names and merge_attrs_list must each have length %d, got %d and %d",
			n, len(attributeNames), len(mergeAttrsList))
	}
	if req.Method != MatchingPath && req.Method != MatchingNode {
		return nil, dcmerr.New(dcmerr.UnknownMethod, "specmerger.MergeMany", fmt.Errorf("got %q", req.Method))
	}

	if req.JSONFileName != "" && !req.ForceUpdate {
		path := mg.cachePath(req)
		if _, err := os.Stat(path); err == nil {
			cached, loadErr := specstore.Load(path)
			if loadErr == nil && mg.validateCache(cached, req, mergeAttrsList) {
				return cached, nil
			}
			mg.logger().Info("specmerger: cached merge missed validation, rebuilding", "path", path)
		}
	}

	merged := req.Models[0]
	for i := 0; i < n; i++ {
		right := req.Models[i+1]
		opts := specmodel.MergeOptions{
			MatchBy:           req.MatchBy,
			AttributeName:     attributeNames[i],
			MergeAttrs:        mergeAttrsList[i],
			IgnoreModuleLevel: req.IgnoreModuleLevel,
		}

		var next *specmodel.SpecModel
		var err error
		switch req.Method {
		case MatchingPath:
			next, err = merged.MergeMatchingPath(right, opts)
		case MatchingNode:
			next, err = merged.MergeMatchingNode(right, opts)
		}
		if err != nil {
			return nil, fmt.Errorf("specmerger.MergeMany: step %d: %w", i, err)
		}
		merged = next

		for _, attr := range mergeAttrsList[i] {
			if merged.Metadata.ColumnToAttr.IndexOf(attr) >= 0 {
				continue
			}
			merged.Metadata.ColumnToAttr = merged.Metadata.ColumnToAttr.AppendAttr(attr)
			merged.Metadata.Header = append(merged.Metadata.Header, headerFor(right, attr))
		}
	}

	if req.JSONFileName != "" {
		path := mg.cachePath(req)
		if err := specstore.Save(merged, path); err != nil {
			mg.logger().Warn("specmerger: could not cache merged model", "path", path, "error", err)
		}
	}
	return merged, nil
}

// headerFor prefers right's own header text for attr's column, falling
// back to the attribute name itself.
func headerFor(right *specmodel.SpecModel, attr string) string {
	idx := right.Metadata.ColumnToAttr.IndexOf(attr)
	if idx >= 0 && idx < len(right.Metadata.Header) {
		return right.Metadata.Header[idx]
	}
	return attr
}

// validateCache enforces the two cache-validity rules: every requested merge
// attribute must be present, and no attribute outside (original left's
// attributes ∪ requested merge attributes) may appear.
func (mg *Merger) validateCache(cached *specmodel.SpecModel, req Request, mergeAttrsList [][]string) bool {
	if len(req.Models) == 0 {
		return false
	}
	allowed := make(map[string]bool)
	for _, a := range req.Models[0].Metadata.ColumnToAttr.Attrs() {
		allowed[a] = true
	}
	required := make(map[string]bool)
	for _, attrs := range mergeAttrsList {
		for _, a := range attrs {
			allowed[a] = true
			required[a] = true
		}
	}

	cachedAttrs := cached.Metadata.ColumnToAttr.Attrs()
	cachedSet := make(map[string]bool, len(cachedAttrs))
	for _, a := range cachedAttrs {
		cachedSet[a] = true
	}

	for a := range required {
		if !cachedSet[a] {
			return false
		}
	}
	for _, a := range cachedAttrs {
		if !allowed[a] {
			return false
		}
	}
	return true
}

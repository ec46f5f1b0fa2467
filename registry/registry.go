// Package registry holds the ModuleRegistry shared across IodSpecBuilder
// calls: a table_id→SpecModel cache used purely to deduplicate module
// builds, with no thread-safety guarantees.
package registry

import "github.com/dcmspec/dcmspec/specmodel"

// ModuleRegistry maps table_id to a built module SpecModel. It is a plain
// map with no internal locking; a caller who parallelises IOD builds must
// wrap access externally.
type ModuleRegistry struct {
	modules map[string]*specmodel.SpecModel
}

// New returns an empty ModuleRegistry.
func New() *ModuleRegistry {
	return &ModuleRegistry{modules: make(map[string]*specmodel.SpecModel)}
}

// Set stores model under tableID, replacing any prior entry.
func (r *ModuleRegistry) Set(tableID string, model *specmodel.SpecModel) {
	r.modules[tableID] = model
}

// Get returns the model stored under tableID, if any.
func (r *ModuleRegistry) Get(tableID string) (*specmodel.SpecModel, bool) {
	m, ok := r.modules[tableID]
	return m, ok
}

// Contains reports whether tableID has a stored model.
func (r *ModuleRegistry) Contains(tableID string) bool {
	_, ok := r.modules[tableID]
	return ok
}

// Keys returns every stored table_id, in no particular order.
func (r *ModuleRegistry) Keys() []string {
	keys := make([]string, 0, len(r.modules))
	for k := range r.modules {
		keys = append(keys, k)
	}
	return keys
}

// Values returns every stored model, in no particular order.
func (r *ModuleRegistry) Values() []*specmodel.SpecModel {
	values := make([]*specmodel.SpecModel, 0, len(r.modules))
	for _, v := range r.modules {
		values = append(values, v)
	}
	return values
}

// Items returns every table_id/model pair, in no particular order.
func (r *ModuleRegistry) Items() map[string]*specmodel.SpecModel {
	out := make(map[string]*specmodel.SpecModel, len(r.modules))
	for k, v := range r.modules {
		out[k] = v
	}
	return out
}

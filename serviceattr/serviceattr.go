// Package serviceattr specializes specmodel.SpecModel for DICOM service
// attribute tables: one table column per DIMSE (N-CREATE, N-SET, ...), each
// holding an SCU/SCP optionality pair. SelectDimse and SelectRole prune
// the model down to a single service and role.
package serviceattr

import (
	"log/slog"
	"strings"

	"github.com/dcmspec/dcmspec/dcmerr"
	"github.com/dcmspec/dcmspec/specmodel"
)

// AllDimseKey is the synthetic mapping entry describing every DIMSE column
// present in the table, used to compute which columns are DIMSE-specific
// versus shared (e.g. "Name").
const AllDimseKey = "ALL_DIMSE"

// Role is the selected service class side.
type Role string

const (
	SCU Role = "SCU"
	SCP Role = "SCP"
)

// Model wraps a SpecModel with DIMSE/role selection state.
type Model struct {
	*specmodel.SpecModel
	// DimseMapping maps a service name (including AllDimseKey) to its
	// column_index→attr_name layout.
	DimseMapping map[string]map[int]string

	selectedDimse string
	logger        *slog.Logger
}

// New wraps model with dimseMapping. A nil logger defaults to slog.Default().
func New(model *specmodel.SpecModel, dimseMapping map[string]map[int]string, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{SpecModel: model, DimseMapping: dimseMapping, logger: logger}
}

func valueSet(m map[int]string) map[string]bool {
	set := make(map[string]bool, len(m))
	for _, v := range m {
		set[v] = true
	}
	return set
}

func keySet(m map[int]string) map[int]bool {
	set := make(map[int]bool, len(m))
	for k := range m {
		set[k] = true
	}
	return set
}

// SelectDimse prunes the model down to the columns of one service: node
// attributes belonging to another DIMSE are dropped, and metadata.header /
// metadata.column_to_attr are reduced to the chosen service's indices plus
// any non-DIMSE columns. Unknown key: warn, no-op.
func (m *Model) SelectDimse(key string) {
	mapping, ok := m.DimseMapping[key]
	if !ok {
		m.logger.Warn("serviceattr: unknown dimse key", "key", key)
		return
	}
	all := m.DimseMapping[AllDimseKey]
	allValues := valueSet(all)
	keepValues := valueSet(mapping)

	dropAttrs := make([]string, 0)
	for v := range allValues {
		if !keepValues[v] {
			dropAttrs = append(dropAttrs, v)
		}
	}
	m.Content.Walk(func(n *specmodel.Node) {
		for _, a := range dropAttrs {
			n.Delete(a)
		}
	})

	allKeys := keySet(all)
	keepIdx := make(map[int]bool)
	for k := range mapping {
		keepIdx[k] = true
	}
	for _, k := range m.Metadata.ColumnToAttr.Keys() {
		if !allKeys[k] {
			keepIdx[k] = true
		}
	}

	var newHeader []string
	newRaw := make(map[int]string)
	for _, k := range m.Metadata.ColumnToAttr.Keys() {
		if !keepIdx[k] {
			continue
		}
		attrName, _ := m.Metadata.ColumnToAttr.Get(k)
		newRaw[len(newRaw)] = attrName
		if k < len(m.Metadata.Header) {
			newHeader = append(newHeader, m.Metadata.Header[k])
		}
	}
	m.Metadata.ColumnToAttr = specmodel.NewColumnMap(newRaw)
	m.Metadata.Header = newHeader
	m.selectedDimse = key
}

// SelectRole prunes the model down to one SCU/SCP side. Requires a prior
// SelectDimse call for a concrete service (not AllDimseKey), else
// DimseNotSelected.
func (m *Model) SelectRole(role Role) error {
	if m.selectedDimse == "" || m.selectedDimse == AllDimseKey {
		return dcmerr.New(dcmerr.DimseNotSelected, "serviceattr.SelectRole", nil)
	}
	mapping := m.DimseMapping[m.selectedDimse]
	var dimseAttrs []string
	for _, v := range mapping {
		dimseAttrs = append(dimseAttrs, v)
	}

	commentObserved := false
	m.Content.Walk(func(n *specmodel.Node) {
		for _, attrName := range dimseAttrs {
			v := n.Get(attrName)
			if v.IsNull() {
				continue
			}
			s := v.String()
			optionality := s
			if idx := strings.Index(s, "\n"); idx >= 0 {
				optionality = s[:idx]
				comment := strings.TrimSpace(s[idx+1:])
				n.Set("comment", specmodel.Text(comment))
				commentObserved = true
			}
			halves := strings.SplitN(optionality, "/", 2)
			selected := strings.TrimSpace(halves[0])
			if role == SCP && len(halves) > 1 {
				selected = strings.TrimSpace(halves[1])
			}
			n.Set(attrName, specmodel.Text(selected))
		}
	})

	if commentObserved {
		m.Metadata.ColumnToAttr = m.Metadata.ColumnToAttr.AppendAttr("comment")
		m.Metadata.Header = append(m.Metadata.Header, "Comment")
	}
	for i, h := range m.Metadata.Header {
		m.Metadata.Header[i] = strings.ReplaceAll(h, "SCU/SCP", string(role))
	}
	return nil
}

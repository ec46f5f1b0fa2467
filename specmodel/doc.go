// Package specmodel holds the in-memory specification tree: Node, Value,
// Metadata and SpecModel, plus the filtering and merge operations that act
// on them.
//
// A SpecModel pairs a Metadata struct with a content tree rooted at a node
// named "content". Every other node carries a sanitised Name and an
// insertion-ordered attribute bag (see Attrs). Models are produced by
// tableparser, combined by specmerger/iodbuilder, and persisted by
// specstore.
package specmodel

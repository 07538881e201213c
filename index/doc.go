// Package index holds the in-memory projection that search queries run against.
//
// The Index is rebuilt from stored embedding bundles; it is never the system
// of record. Its state is an immutable snapshot: a flat arena of
// SearchableSections plus key and item-slug lookups. Registration builds a
// new snapshot and swaps it in atomically, so readers never see an item
// half-replaced.
package index

// Package chunker decomposes a content document into ordered, typed chunks
// ready for embedding.
//
// A document is first flattened into a list of Sources, one per slot
// (metadata, introduction, each section, its practices and code, footer).
// Each Source renders exactly one core.ContentChunk. Chunk returns the
// rendered chunks sorted by order.
package chunker

// Package mcpserver exposes the search service as Model Context Protocol
// tools over stdio.
//
// Tools:
//   - text_search: keyword search
//   - vector_search: semantic search over embedded sections
//   - hybrid_search: fused keyword and semantic search
//   - index_status: counts of indexed items and sections
package mcpserver

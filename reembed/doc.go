// Package reembed rebuilds every stored embedding bundle with the current
// embedder, for moving a site to a new embedding model without re-reading
// its source documents.
//
// Articles are visited in stored ID order and in batches. After each batch a
// checkpoint named after the target model is saved, so an interrupted run
// resumes after the last completed article.
package reembed

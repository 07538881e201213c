// Package ingestion turns content documents into stored embedding bundles.
//
// A Generator owns the per-item workflow:
//   - decide whether stored embeddings are stale (NeedsRegeneration)
//   - chunk the document and embed every chunk in one batched provider call,
//     retried with exponential backoff
//   - check that the provider returned one vector per chunk
//   - save the bundle, replacing the previous one wholesale
//
// Generation for a single item is serialized by a per-item lock. A failed
// run never overwrites a stored bundle.
//
// The Pipeline fans generation out across many documents on a worker pool.
// One document's failure is recorded in the run statistics and does not
// stop the others.
package ingestion

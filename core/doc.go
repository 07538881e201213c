// Package core defines the domain model shared by every sitesearch package:
// content documents, chunks, embedding vectors and per-article embedding bundles.
package core

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage provides the storage abstraction layer for sitesearch.
//
// This package defines repository interfaces that decouple the durable
// embedding store from generation and serving. Two backends implement
// them: storage/badger (embedded KV store) and storage/filestore (one YAML
// document per content item).
//
// # Persistence Format
//
// Both backends store the same human-readable document per item, produced
// by MarshalArticleEmbedding:
//
//	version: 1
//	articleId: ts-generics
//	title: TypeScript Generics
//	generatedAt: "2025-03-01T10:00:00Z"
//	model: {name: embeddinggemma, provider: openai, dimension: 768}
//	metadata: {totalChunks: 7, totalTokens: 412, processingTimeMs: 830}
//	chunks:
//	  - id: metadata
//	    content: '# TypeScript Generics ...'
//	    type: metadata
//	    order: 0
//	    tokenCount: 12
//	    embedding:
//	      dimension: 768
//	      model: embeddinggemma
//	      createdAt: "2025-03-01T10:00:00Z"
//	      values: [0.012, -0.044, ...]
//
// The document is the durable contract between generation and serving.
// JSON input with the same keys is accepted on read.
//
// # Usage
//
//	repo, err := badger.NewEmbeddingRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	bundle, err := repo.LoadArticleEmbedding(ctx, "ts-generics")
//	if bundle == nil && err == nil {
//	    // never generated
//	}
package storage

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

// Package search answers text, vector, and hybrid queries over an index.
//
// Engine scores sections from the index's current snapshot:
//   - Text search keeps sections containing the query and ranks them by
//     keyword relevance
//   - Vector search ranks sections by cosine similarity to a query vector
//   - Hybrid search fuses rank-normalized text scores with raw similarities
//     under a weighted FusionPolicy
//
// Service wraps an Engine with query embedding, a query-vector cache, and
// the response envelope used by callers. Hybrid searches fall back to text
// when the query cannot be embedded.
package search

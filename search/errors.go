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

package search

import "errors"

var (
	// ErrIndexRequired is returned when an index is not provided.
	ErrIndexRequired = errors.New("search index required")

	// ErrInvalidFusion is returned for negative fusion weights.
	ErrInvalidFusion = errors.New("invalid fusion policy")

	// ErrInvalidCacheSize is returned for a negative query cache size.
	ErrInvalidCacheSize = errors.New("invalid query cache size")

	// ErrNoEmbedder is returned when a query vector is needed but no embedder is configured.
	ErrNoEmbedder = errors.New("no embedder configured")
)

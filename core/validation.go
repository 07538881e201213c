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

package core

import (
	"fmt"
	"strings"
)

const (
	// MaxPracticesPerSection keeps practice orders (N+0.1+0.01*i) below the
	// code chunk order (N+0.5).
	MaxPracticesPerSection = 39

	// MaxSections keeps section orders below the footer sentinel.
	MaxSections = 999_000
)

// ValidateDocument validates a ContentDocument at the system boundary.
//
// Validation rules:
//   - ID must not be empty or contain ':' (the section key separator)
//   - Metadata.Title must not be empty
//   - Every section needs an ID, a title and content; IDs are unique
//   - A section carries at most MaxPracticesPerSection practices
//
// NOT validated:
//   - Introduction and Footer (both optional)
//   - UpdatedAt (a zero time means "never updated")
func ValidateDocument(doc *ContentDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyID)
	}
	if strings.Contains(doc.ID, ":") {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, doc.ID, ErrInvalidID)
	}
	if doc.Metadata.Title == "" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, doc.ID, ErrEmptyTitle)
	}
	if len(doc.Sections) > MaxSections {
		return fmt.Errorf("%w: %s: %w: %d", ErrInvalidDocument, doc.ID, ErrTooManySections, len(doc.Sections))
	}

	seen := make(map[string]struct{}, len(doc.Sections))
	for i, s := range doc.Sections {
		if s.ID == "" {
			return fmt.Errorf("%w: %s: section %d: %w", ErrInvalidDocument, doc.ID, i, ErrEmptyID)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: %s: %w: %s", ErrInvalidDocument, doc.ID, ErrDuplicateSection, s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Title == "" {
			return fmt.Errorf("%w: %s: section %s: %w", ErrInvalidDocument, doc.ID, s.ID, ErrEmptyTitle)
		}
		if s.Content == "" {
			return fmt.Errorf("%w: %s: section %s: %w", ErrInvalidDocument, doc.ID, s.ID, ErrEmptyContent)
		}
		if len(s.Practices) > MaxPracticesPerSection {
			return fmt.Errorf("%w: %s: section %s: %w: %d", ErrInvalidDocument, doc.ID, s.ID, ErrTooManyPractices, len(s.Practices))
		}
	}
	return nil
}

// ValidateEmbeddingVector checks that the vector's values match its dimension.
func ValidateEmbeddingVector(v *EmbeddingVector) error {
	if v == nil {
		return fmt.Errorf("%w: vector is nil", ErrInvalidEmbedding)
	}
	if v.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidEmbedding, v.Dimension)
	}
	if len(v.Values) != v.Dimension {
		return fmt.Errorf("%w: %w: expected %d, got %d", ErrInvalidEmbedding, ErrDimensionMismatch, v.Dimension, len(v.Values))
	}
	return nil
}

// ValidateArticleEmbedding validates a bundle and every vector inside it.
func ValidateArticleEmbedding(a *ArticleEmbedding) error {
	if a == nil {
		return fmt.Errorf("%w: bundle is nil", ErrInvalidEmbedding)
	}
	if a.ArticleID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEmbedding, ErrEmptyID)
	}
	for i := range a.Chunks {
		ce := &a.Chunks[i]
		if err := ValidateEmbeddingVector(&ce.Embedding); err != nil {
			return fmt.Errorf("chunk %s: %w", ce.Chunk.ID, err)
		}
		if a.Model.Dimension > 0 && ce.Embedding.Dimension != a.Model.Dimension {
			return fmt.Errorf("%w: chunk %s: %w: expected %d, got %d",
				ErrInvalidEmbedding, ce.Chunk.ID, ErrDimensionMismatch, a.Model.Dimension, ce.Embedding.Dimension)
		}
	}
	return nil
}

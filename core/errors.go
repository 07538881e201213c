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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a ContentDocument failed validation.
	ErrInvalidDocument = errors.New("invalid content document")

	// ErrInvalidEmbedding indicates an EmbeddingVector or ArticleEmbedding failed validation.
	ErrInvalidEmbedding = errors.New("invalid embedding")

	// ErrEmptyID indicates the document or section ID is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrInvalidID indicates a document ID contains the section key separator.
	ErrInvalidID = errors.New("id cannot contain ':'")

	// ErrEmptyTitle indicates a required title is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyContent indicates a required content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrDuplicateSection indicates two sections share an ID.
	ErrDuplicateSection = errors.New("duplicate section id")

	// ErrTooManyPractices indicates a section carries more practices than fit
	// between its main chunk and its code chunk.
	ErrTooManyPractices = errors.New("too many practices in section")

	// ErrTooManySections indicates the section count collides with the footer order.
	ErrTooManySections = errors.New("too many sections")

	// ErrDimensionMismatch indicates a vector's length differs from its declared dimension.
	ErrDimensionMismatch = errors.New("vector length does not match dimension")
)

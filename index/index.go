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

package index

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/poiesic/sitesearch/core"
)

// Snapshot is an immutable view of the index. Slices returned from a
// Snapshot are shared and must not be modified.
type Snapshot struct {
	sections []SearchableSection
	byKey    map[string]int
	bySlug   map[string][]int
	items    []string // slugs in registration order
}

var emptySnapshot = &Snapshot{
	byKey:  map[string]int{},
	bySlug: map[string][]int{},
}

// Sections returns every section, grouped by item in registration order and
// by chunk order within an item.
func (s *Snapshot) Sections() []SearchableSection {
	return s.sections
}

// Section returns the section stored under key.
func (s *Snapshot) Section(key string) (*SearchableSection, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return nil, false
	}
	return &s.sections[i], true
}

// ItemSections returns the sections of one item in chunk order.
func (s *Snapshot) ItemSections(slug string) []SearchableSection {
	slots := s.bySlug[slug]
	if len(slots) == 0 {
		return nil
	}
	// An item's slots are contiguous in the arena.
	return s.sections[slots[0] : slots[len(slots)-1]+1]
}

// Items returns registered item slugs in registration order.
func (s *Snapshot) Items() []string {
	return s.items
}

// Len returns the number of sections.
func (s *Snapshot) Len() int {
	return len(s.sections)
}

// Registration is one item's input to RegisterBatch.
type Registration struct {
	Meta       core.ItemMetadata
	Chunks     []core.ContentChunk
	Embeddings []core.ChunkEmbedding
}

// RegistrationFromBundle builds a Registration from a stored bundle.
func RegistrationFromBundle(meta core.ItemMetadata, bundle *core.ArticleEmbedding) Registration {
	return Registration{
		Meta:       meta,
		Chunks:     bundle.ContentChunks(),
		Embeddings: bundle.Chunks,
	}
}

// Index is the in-memory registry of searchable sections. Reads are lock-free;
// writers are serialized and publish a new Snapshot per call.
type Index struct {
	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex
	logger  *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// New returns an empty Index.
func New(opts ...Option) *Index {
	idx := &Index{logger: slog.Default()}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = idx.logger.With("component", "search-index")
	idx.current.Store(emptySnapshot)
	return idx
}

// Snapshot returns the current immutable view.
func (idx *Index) Snapshot() *Snapshot {
	return idx.current.Load()
}

// RegisterSections replaces everything registered for meta.Slug with one
// section per chunk. embeddings may be nil.
func (idx *Index) RegisterSections(meta core.ItemMetadata, chunks []core.ContentChunk, embeddings []core.ChunkEmbedding) {
	idx.RegisterBatch([]Registration{{Meta: meta, Chunks: chunks, Embeddings: embeddings}})
}

// RegisterArticle registers a stored bundle's chunks and vectors.
func (idx *Index) RegisterArticle(meta core.ItemMetadata, bundle *core.ArticleEmbedding) {
	if bundle == nil {
		return
	}
	idx.RegisterBatch([]Registration{RegistrationFromBundle(meta, bundle)})
}

// RegisterBatch applies several registrations in one swap. A later
// registration for the same slug wins.
func (idx *Index) RegisterBatch(regs []Registration) {
	if len(regs) == 0 {
		return
	}
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	replaced := make(map[string][]SearchableSection, len(regs))
	var added []string
	old := idx.current.Load()
	for _, r := range regs {
		if _, known := old.bySlug[r.Meta.Slug]; !known {
			if _, seen := replaced[r.Meta.Slug]; !seen {
				added = append(added, r.Meta.Slug)
			}
		}
		replaced[r.Meta.Slug] = buildSections(r.Meta, r.Chunks, r.Embeddings)
	}

	items := make([]string, 0, len(old.items)+len(added))
	items = append(items, old.items...)
	items = append(items, added...)

	idx.current.Store(build(items, func(slug string) []SearchableSection {
		if s, ok := replaced[slug]; ok {
			return s
		}
		return old.ItemSections(slug)
	}))
	idx.logger.Debug("registered items", "items", len(regs), "sections", idx.current.Load().Len())
}

// Reset replaces the whole index with regs.
func (idx *Index) Reset(regs []Registration) {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	sections := make(map[string][]SearchableSection, len(regs))
	var items []string
	for _, r := range regs {
		if _, seen := sections[r.Meta.Slug]; !seen {
			items = append(items, r.Meta.Slug)
		}
		sections[r.Meta.Slug] = buildSections(r.Meta, r.Chunks, r.Embeddings)
	}
	idx.current.Store(build(items, func(slug string) []SearchableSection { return sections[slug] }))
}

// RemoveItem drops an item. It reports whether the item was registered.
func (idx *Index) RemoveItem(slug string) bool {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	old := idx.current.Load()
	if _, ok := old.bySlug[slug]; !ok {
		return false
	}
	items := make([]string, 0, len(old.items)-1)
	for _, s := range old.items {
		if s != slug {
			items = append(items, s)
		}
	}
	idx.current.Store(build(items, old.ItemSections))
	return true
}

// Clear drops all state.
func (idx *Index) Clear() {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()
	idx.current.Store(emptySnapshot)
}

// AllSections returns a copy of every section.
func (idx *Index) AllSections() []SearchableSection {
	return append([]SearchableSection(nil), idx.Snapshot().Sections()...)
}

// SectionsByItem returns a copy of one item's sections, or nil if unknown.
func (idx *Index) SectionsByItem(slug string) []SearchableSection {
	return append([]SearchableSection(nil), idx.Snapshot().ItemSections(slug)...)
}

// SectionByKey returns the section stored under "{slug}:{chunkId}".
func (idx *Index) SectionByKey(key string) (SearchableSection, bool) {
	s, ok := idx.Snapshot().Section(key)
	if !ok {
		return SearchableSection{}, false
	}
	return *s, true
}

// Items returns registered item slugs in registration order.
func (idx *Index) Items() []string {
	return append([]string(nil), idx.Snapshot().Items()...)
}

// Len returns the number of registered sections.
func (idx *Index) Len() int {
	return idx.Snapshot().Len()
}

func build(items []string, sectionsOf func(slug string) []SearchableSection) *Snapshot {
	snap := &Snapshot{
		byKey:  make(map[string]int),
		bySlug: make(map[string][]int, len(items)),
		items:  make([]string, 0, len(items)),
	}
	for _, slug := range items {
		sections := sectionsOf(slug)
		snap.items = append(snap.items, slug)
		start := len(snap.sections)
		slots := make([]int, 0, len(sections))
		for _, s := range sections {
			i := len(snap.sections)
			prev, dup := snap.byKey[s.Key]
			// Duplicate chunk IDs within an item keep the last section.
			if dup && prev >= start {
				snap.sections[prev] = s
				continue
			}
			snap.sections = append(snap.sections, s)
			slots = append(slots, i)
			// A key shared with an earlier item stays bound to that item.
			if !dup {
				snap.byKey[s.Key] = i
			}
		}
		snap.bySlug[slug] = slots
	}
	return snap
}

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

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/poiesic/sitesearch/index"
)

// Engine runs queries against the current snapshot of an index.
type Engine struct {
	index  *index.Index
	fusion FusionPolicy
	logger *slog.Logger
}

// NewEngine creates an engine over idx.
func NewEngine(idx *index.Index, opts ...Option) (*Engine, error) {
	cfg, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return newEngine(idx, cfg)
}

func newEngine(idx *index.Index, cfg *options) (*Engine, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	return &Engine{
		index:  idx,
		fusion: cfg.fusion,
		logger: cfg.logger,
	}, nil
}

// Fusion returns the engine's default fusion policy.
func (e *Engine) Fusion() FusionPolicy {
	return e.fusion
}

// TextSearch returns sections containing query, ranked by keyword relevance.
// An empty query yields no results.
func (e *Engine) TextSearch(query string, opts TextOptions) []Result {
	limit := effectiveLimit(opts.Limit)
	if limit < 0 {
		return []Result{}
	}
	return truncate(e.textCandidates(e.index.Snapshot(), query, opts.Filter), limit)
}

func (e *Engine) textCandidates(snap *index.Snapshot, query string, filter Filter) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Result{}
	}
	words := queryWords(q)

	sections := snap.Sections()
	results := make([]Result, 0)
	for i := range sections {
		s := &sections[i]
		if !filter.match(s) || !matchesQuery(s, q) {
			continue
		}
		results = append(results, Result{
			Type:    ResultTypeText,
			Section: s,
			Score:   relevance(s, words),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// VectorSearch returns embedded sections whose cosine similarity to vector
// meets the threshold, most similar first.
func (e *Engine) VectorSearch(vector []float32, opts VectorOptions) []Result {
	limit := effectiveLimit(opts.Limit)
	if limit < 0 {
		return []Result{}
	}
	threshold := opts.Threshold
	switch {
	case threshold == 0:
		threshold = DefaultVectorThreshold
	case threshold < 0:
		threshold = math.Inf(-1)
	}
	return truncate(e.vectorCandidates(e.index.Snapshot(), vector, threshold, opts.Filter), limit)
}

func (e *Engine) vectorCandidates(snap *index.Snapshot, vector []float32, threshold float64, filter Filter) []Result {
	if len(vector) == 0 {
		return []Result{}
	}

	sections := snap.Sections()
	results := make([]Result, 0)
	mismatched := 0
	for i := range sections {
		s := &sections[i]
		if !s.HasEmbedding() || !filter.match(s) {
			continue
		}
		if len(s.Embedding) != len(vector) {
			mismatched++
		}
		sim := CosineSimilarity(vector, s.Embedding)
		if sim < threshold {
			continue
		}
		results = append(results, Result{
			Type:       ResultTypeVector,
			Section:    s,
			Score:      sim,
			Similarity: sim,
		})
	}
	if mismatched > 0 {
		e.logger.Warn("query vector dimension differs from stored embeddings",
			"queryDimension", len(vector), "sections", mismatched)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	return results
}

// HybridSearch fuses a text search for query with a vector search for
// vector. A nil vector produces text-derived results only. An empty query
// yields no results even when a vector is given.
func (e *Engine) HybridSearch(query string, vector []float32, opts HybridOptions) []Result {
	limit := effectiveLimit(opts.Limit)
	if limit < 0 || strings.TrimSpace(query) == "" {
		return []Result{}
	}
	policy := e.fusion
	if opts.Fusion != nil {
		policy = *opts.Fusion
	}

	snap := e.index.Snapshot()
	textHits := truncate(e.textCandidates(snap, query, opts.Filter), limit*2)
	var vectorHits []Result
	if len(vector) > 0 {
		vectorHits = truncate(e.vectorCandidates(snap, vector, 0, opts.Filter), limit*2)
	}

	type fused struct {
		section *index.SearchableSection
		text    *Result
		vector  *Result
		ts, vs  float64
	}
	byKey := make(map[string]*fused, len(textHits)+len(vectorHits))
	order := make([]*fused, 0, len(textHits)+len(vectorHits))
	entry := func(s *index.SearchableSection) *fused {
		f, ok := byKey[s.Key]
		if !ok {
			f = &fused{section: s}
			byKey[s.Key] = f
			order = append(order, f)
		}
		return f
	}

	n := float64(len(textHits))
	for i := range textHits {
		f := entry(textHits[i].Section)
		f.text = &textHits[i]
		f.ts = max(0, 1-float64(i)/n)
	}
	for i := range vectorHits {
		f := entry(vectorHits[i].Section)
		f.vector = &vectorHits[i]
		f.vs = vectorHits[i].Similarity
	}

	results := make([]Result, 0, len(order))
	for _, f := range order {
		score := f.ts*policy.TextWeight + f.vs*policy.VectorWeight
		if score < policy.Threshold {
			continue
		}
		r := Result{Section: f.section, Score: score, Text: f.text, Vector: f.vector}
		hasText := f.text != nil && f.ts != 0
		hasVector := f.vector != nil && f.vs != 0
		if hasText {
			ts := f.ts
			r.TextScore = &ts
		}
		if hasVector {
			vs := f.vs
			r.VectorScore = &vs
			r.Similarity = vs
		}
		switch {
		case hasText && hasVector:
			r.Type = ResultTypeMerged
		case hasVector:
			r.Type = ResultTypeVector
		default:
			r.Type = ResultTypeText
		}
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return truncate(results, limit)
}

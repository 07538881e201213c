package search

import (
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/index"
)

// ResultType records which query mode produced a result.
type ResultType string

const (
	ResultTypeText   ResultType = "text"
	ResultTypeVector ResultType = "vector"
	ResultTypeMerged ResultType = "merged"
)

// Result is one ranked hit. Section points into the index snapshot the query
// ran against and must not be modified.
//
// Text results carry their keyword relevance in Score. Vector results carry
// their cosine similarity in both Score and Similarity. Hybrid results carry
// the fused score in Score, the contributing sub-scores in TextScore and
// VectorScore, and the standalone sub-results in Text and Vector.
type Result struct {
	Type       ResultType
	Section    *index.SearchableSection
	Score      float64
	Similarity float64

	TextScore   *float64
	VectorScore *float64
	Text        *Result
	Vector      *Result
}

// Filter narrows the candidate sections of a query.
type Filter struct {
	ItemSlug    string
	SectionType core.ChunkType
}

func (f Filter) match(s *index.SearchableSection) bool {
	if f.ItemSlug != "" && s.ItemSlug != f.ItemSlug {
		return false
	}
	if f.SectionType != "" && s.Type != f.SectionType {
		return false
	}
	return true
}

// TextOptions tunes a text search. A zero Limit means DefaultLimit.
type TextOptions struct {
	Filter
	Limit int
}

// VectorOptions tunes a vector search. A zero Limit means DefaultLimit and a
// zero Threshold means DefaultVectorThreshold. A negative Threshold, such as
// NoThreshold, keeps every embedded section.
type VectorOptions struct {
	Filter
	Limit     int
	Threshold float64
}

// HybridOptions tunes a hybrid search. A nil Fusion uses the engine's policy.
type HybridOptions struct {
	Filter
	Limit  int
	Fusion *FusionPolicy
}

// FusionPolicy weights the two halves of a hybrid search.
type FusionPolicy struct {
	TextWeight   float64
	VectorWeight float64
	Threshold    float64 // minimum fused score kept
}

// DefaultFusion returns equal weights and a 0.3 threshold.
func DefaultFusion() FusionPolicy {
	return FusionPolicy{TextWeight: 0.5, VectorWeight: 0.5, Threshold: 0.3}
}

// Validate rejects negative weights.
func (p FusionPolicy) Validate() error {
	if p.TextWeight < 0 || p.VectorWeight < 0 {
		return ErrInvalidFusion
	}
	return nil
}

const (
	DefaultLimit           = 10
	DefaultVectorThreshold = 0.7
	NoThreshold            = -1.0
)

func effectiveLimit(limit int) int {
	if limit == 0 {
		return DefaultLimit
	}
	return limit
}

func truncate(results []Result, limit int) []Result {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}

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
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/poiesic/sitesearch/ai"
	"github.com/poiesic/sitesearch/index"
)

// SearchType names the query mode of a Response.
type SearchType string

const (
	SearchTypeText   SearchType = "text"
	SearchTypeVector SearchType = "vector"
	SearchTypeHybrid SearchType = "hybrid"
)

// Request is a query for Service.Search. Vector is used by vector searches
// when set; otherwise Query is embedded.
type Request struct {
	Filter
	Query  string
	Vector []float32
	Type   SearchType
	Limit  int
}

// Response is the envelope returned for every query.
type Response struct {
	Query      string
	Results    []Result
	Total      int
	SearchType SearchType

	// Fallback is set when the query could not be embedded and text
	// search answered instead.
	Fallback bool
}

// Service serves queries against an index, embedding query text as needed.
type Service struct {
	engine       *Engine
	embedder     ai.Embedder
	cache        *lru.Cache[string, []float32]
	embedTimeout time.Duration
	monitor      SearchMonitor
	logger       *slog.Logger
}

// NewService creates a Service. embedder may be nil, in which case hybrid
// searches answer from text alone.
func NewService(idx *index.Index, embedder ai.Embedder, opts ...Option) (*Service, error) {
	cfg, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	engine, err := newEngine(idx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Service{
		engine:       engine,
		embedder:     embedder,
		embedTimeout: cfg.embedTimeout,
		monitor:      cfg.monitor,
		logger:       cfg.logger,
	}
	if cfg.cacheSize > 0 {
		cache, err := lru.New[string, []float32](cfg.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create query cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Engine returns the underlying engine.
func (s *Service) Engine() *Engine {
	return s.engine
}

// TextSearch runs a keyword search. A non-positive limit yields no results.
func (s *Service) TextSearch(ctx context.Context, query string, limit int) *Response {
	return s.Search(ctx, Request{Query: query, Type: SearchTypeText, Limit: limit})
}

// VectorSearch ranks sections by similarity to vector.
func (s *Service) VectorSearch(ctx context.Context, vector []float32, limit int) *Response {
	return s.Search(ctx, Request{Vector: vector, Type: SearchTypeVector, Limit: limit})
}

// HybridSearch embeds query and fuses text and vector rankings.
func (s *Service) HybridSearch(ctx context.Context, query string, limit int) *Response {
	return s.Search(ctx, Request{Query: query, Type: SearchTypeHybrid, Limit: limit})
}

// Search dispatches req to the matching query mode. It never fails; inputs
// that cannot be answered produce an empty result list.
func (s *Service) Search(ctx context.Context, req Request) *Response {
	if req.Type == "" {
		req.Type = SearchTypeHybrid
	}
	s.monitor.Start(req.Query, req.Type)
	resp := &Response{Query: req.Query, SearchType: req.Type, Results: []Result{}}

	if req.Limit > 0 {
		switch req.Type {
		case SearchTypeText:
			resp.Results = s.text(req)
		case SearchTypeVector:
			resp.Results, resp.Fallback = s.vector(ctx, req)
		case SearchTypeHybrid:
			resp.Results, resp.Fallback = s.hybrid(ctx, req)
		default:
			s.logger.Warn("unknown search type", "type", req.Type)
		}
	}

	resp.Total = len(resp.Results)
	s.monitor.Finish(resp)
	return resp
}

func (s *Service) text(req Request) []Result {
	results := s.engine.TextSearch(req.Query, TextOptions{Filter: req.Filter, Limit: req.Limit})
	s.monitor.AfterRanking(SearchTypeText, results)
	return results
}

func (s *Service) vector(ctx context.Context, req Request) ([]Result, bool) {
	vector := req.Vector
	if len(vector) == 0 {
		if strings.TrimSpace(req.Query) == "" {
			return []Result{}, false
		}
		var err error
		vector, err = s.embedQuery(ctx, req.Query)
		if err != nil {
			return s.text(req), true
		}
	}
	results := s.engine.VectorSearch(vector, VectorOptions{Filter: req.Filter, Limit: req.Limit})
	s.monitor.AfterRanking(SearchTypeVector, results)
	return results, false
}

func (s *Service) hybrid(ctx context.Context, req Request) ([]Result, bool) {
	if strings.TrimSpace(req.Query) == "" {
		return []Result{}, false
	}
	vector := req.Vector
	if len(vector) == 0 {
		var err error
		vector, err = s.embedQuery(ctx, req.Query)
		if err != nil {
			return s.text(req), true
		}
	}
	results := s.engine.HybridSearch(req.Query, vector, HybridOptions{Filter: req.Filter, Limit: req.Limit})
	s.monitor.AfterRanking(SearchTypeHybrid, results)
	return results, false
}

// embedQuery returns the query vector, from cache when possible.
func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		s.monitor.EmbeddingFailed(query, ErrNoEmbedder)
		return nil, ErrNoEmbedder
	}

	key := s.embedder.ModelName() + "\x00" + strings.TrimSpace(query)
	if s.cache != nil {
		if vector, ok := s.cache.Get(key); ok {
			s.monitor.QueryEmbedded(query, true)
			return vector, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, falling back to text search", "query", query, "err", err)
		s.monitor.EmbeddingFailed(query, err)
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(key, vector)
	}
	s.monitor.QueryEmbedded(query, false)
	return vector, nil
}

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

// Package filestore implements storage.EmbeddingRepository as one YAML
// document per content item in a directory.
//
// Writes go to a temporary file that is renamed over the target, so readers
// never observe a partial document. An exclusive flock on "<file>.lock"
// serializes writers across processes.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/storage"
)

const (
	fileExt        = ".yaml"
	lockExt        = ".lock"
	lockRetryDelay = 50 * time.Millisecond
)

// Store is a directory of embedding documents.
type Store struct {
	dir    string
	logger *slog.Logger
	closed bool
}

var _ storage.EmbeddingRepository = (*Store)(nil)

// Open creates the directory if needed and returns a Store rooted there.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &Store{
		dir:    dir,
		logger: slog.Default().With("component", "filestore", "dir", dir),
	}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// fileName escapes articleID for use as a file name. A leading dot is escaped
// too so the file is not mistaken for a hidden or temporary one.
func fileName(articleID string) string {
	name := url.PathEscape(articleID)
	if strings.HasPrefix(name, ".") {
		name = "%2E" + name[1:]
	}
	return name + fileExt
}

func (s *Store) path(articleID string) string {
	return filepath.Join(s.dir, fileName(articleID))
}

// SaveArticleEmbedding atomically replaces the document for the bundle's article.
func (s *Store) SaveArticleEmbedding(ctx context.Context, bundle *core.ArticleEmbedding) error {
	if s.closed {
		return storage.ErrStorageClosed
	}
	if err := core.ValidateArticleEmbedding(bundle); err != nil {
		return err
	}
	data, err := storage.MarshalArticleEmbedding(bundle)
	if err != nil {
		return err
	}

	target := s.path(bundle.ArticleID)
	unlock, err := s.lock(ctx, target)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*"+fileExt)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}

	s.logger.Debug("saved article embedding", "article", bundle.ArticleID, "bytes", len(data))
	return nil
}

// LoadArticleEmbedding reads the document for an article.
// Returns nil, nil if the file does not exist.
func (s *Store) LoadArticleEmbedding(ctx context.Context, articleID string) (*core.ArticleEmbedding, error) {
	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	data, err := os.ReadFile(s.path(articleID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	bundle, err := storage.UnmarshalArticleEmbedding(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", articleID, err)
	}
	return bundle, nil
}

// DeleteArticleEmbedding removes the document for an article.
func (s *Store) DeleteArticleEmbedding(ctx context.Context, articleID string) error {
	if s.closed {
		return storage.ErrStorageClosed
	}
	target := s.path(articleID)
	unlock, err := s.lock(ctx, target)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return storage.ErrNotFound
		}
		return err
	}
	return nil
}

// ListArticleIDs returns the article IDs of every document in ascending order.
func (s *Store) ListArticleIDs(ctx context.Context) ([]string, error) {
	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			s.logger.Warn("skipping undecodable file name", "file", name, "err", err)
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close marks the store closed. Files are left in place.
func (s *Store) Close() error {
	s.closed = true
	return nil
}

func (s *Store) lock(ctx context.Context, target string) (func(), error) {
	l := flock.New(target + lockExt)
	locked, err := l.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("cannot acquire lock for %s: %w", filepath.Base(target), err)
	}
	if !locked {
		return nil, fmt.Errorf("cannot acquire lock for %s", filepath.Base(target))
	}
	return func() { _ = l.Unlock() }, nil
}

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

package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/sitesearch/core"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
	ErrUnsupportedFormat = errors.New("unsupported content format")

	// ErrDuplicateDocument is returned when two files declare the same id.
	ErrDuplicateDocument = errors.New("duplicate document id")
)

// Supported reports whether path has a content file extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadFile reads and validates one document.
func LoadFile(path string) (*core.ContentDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := &core.ContentDocument{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(doc)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(doc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if doc.ID == "" {
		base := filepath.Base(path)
		doc.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = info.ModTime().UTC()
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadDir reads every content file under dir, recursively, and returns the
// documents sorted by id. Hidden files and directories are skipped.
func LoadDir(dir string) ([]*core.ContentDocument, error) {
	var docs []*core.ContentDocument
	source := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}

		doc, err := LoadFile(path)
		if err != nil {
			return err
		}
		if prev, dup := source[doc.ID]; dup {
			return fmt.Errorf("%w: %s in %s and %s", ErrDuplicateDocument, doc.ID, prev, path)
		}
		source[doc.ID] = path
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Catalog indexes loaded documents by id.
type Catalog struct {
	docs []*core.ContentDocument
	byID map[string]*core.ContentDocument
}

// NewCatalog builds a catalog. Later documents replace earlier ones with the same id.
func NewCatalog(docs []*core.ContentDocument) *Catalog {
	c := &Catalog{byID: make(map[string]*core.ContentDocument, len(docs))}
	for _, d := range docs {
		if _, dup := c.byID[d.ID]; !dup {
			c.docs = append(c.docs, d)
		} else {
			for i := range c.docs {
				if c.docs[i].ID == d.ID {
					c.docs[i] = d
				}
			}
		}
		c.byID[d.ID] = d
	}
	return c
}

// Documents returns the catalog's documents in insertion order.
func (c *Catalog) Documents() []*core.ContentDocument {
	return c.docs
}

// Get returns the document with id.
func (c *Catalog) Get(id string) (*core.ContentDocument, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Metadata resolves the display metadata for id. It has the shape of
// index.MetadataLookup.
func (c *Catalog) Metadata(id string) (core.ItemMetadata, bool) {
	d, ok := c.byID[id]
	if !ok {
		return core.ItemMetadata{}, false
	}
	return d.ItemMetadata(), true
}

// Len returns the number of documents.
func (c *Catalog) Len() int {
	return len(c.docs)
}

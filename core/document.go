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

import "time"

// Document kinds served by the site.
const (
	KindArticle = "article"
	KindDoc     = "doc"
	KindLab     = "lab"
)

// DocumentMetadata holds the descriptive header of a content document.
type DocumentMetadata struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Author      string   `yaml:"author,omitempty" json:"author,omitempty"`
}

// CodeSnippet is an optional code sample attached to a section.
type CodeSnippet struct {
	Language string `yaml:"language" json:"language"`
	Code     string `yaml:"code" json:"code"`
	Filename string `yaml:"filename,omitempty" json:"filename,omitempty"`
}

// Practice is a titled recommendation attached to a section.
type Practice struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Section is one named part of a content document.
type Section struct {
	ID          string       `yaml:"id" json:"id"`
	Title       string       `yaml:"title" json:"title"`
	Subtitle    string       `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	Content     string       `yaml:"content" json:"content"`
	CodeSnippet *CodeSnippet `yaml:"codeSnippet,omitempty" json:"codeSnippet,omitempty"`
	Practices   []Practice   `yaml:"practices,omitempty" json:"practices,omitempty"`
}

// Footer closes a content document.
type Footer struct {
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
}

// ContentDocument is the structured input to the chunker. Documents are
// checked with ValidateDocument where they enter the system.
type ContentDocument struct {
	ID           string           `yaml:"id" json:"id"`
	Kind         string           `yaml:"kind,omitempty" json:"kind,omitempty"`
	Metadata     DocumentMetadata `yaml:"metadata" json:"metadata"`
	Introduction string           `yaml:"introduction,omitempty" json:"introduction,omitempty"`
	Sections     []Section        `yaml:"sections" json:"sections"`
	Footer       *Footer          `yaml:"footer,omitempty" json:"footer,omitempty"`
	UpdatedAt    time.Time        `yaml:"updatedAt" json:"updatedAt"`
}

// ItemMetadata projects the document header into the form the search index joins
// onto sections. An empty Kind defaults to KindArticle.
func (d *ContentDocument) ItemMetadata() ItemMetadata {
	kind := d.Kind
	if kind == "" {
		kind = KindArticle
	}
	return ItemMetadata{
		Slug:   d.ID,
		Title:  d.Metadata.Title,
		Tags:   append([]string(nil), d.Metadata.Tags...),
		Author: d.Metadata.Author,
		Kind:   kind,
	}
}

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

package badger

import (
	"fmt"

	"github.com/poiesic/sitesearch/core"
)

// Key prefixes for different data types
const (
	articleEmbeddingPrefix = "artemb"
	articleIndexPrefix     = "artidx"
	checkpointPrefix       = "chkpt"
)

// makeArticleEmbeddingKey generates the key holding an article's bundle.
// The article ID is hashed so keys stay fixed-width for any slug.
func makeArticleEmbeddingKey(articleID string) []byte {
	return []byte(fmt.Sprintf("%s:%d", articleEmbeddingPrefix, core.IDFromContent(articleID)))
}

// makeArticleIndexKey generates the listing key for an article.
// Format: prefix:articleID
func makeArticleIndexKey(articleID string) []byte {
	return []byte(articleIndexPrefix + ":" + articleID)
}

// articleIndexKeyPrefix is the iteration prefix shared by all listing keys.
func articleIndexKeyPrefix() []byte {
	return []byte(articleIndexPrefix + ":")
}

// makeCheckpointKey generates a key for job checkpoints.
func makeCheckpointKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", checkpointPrefix, name))
}

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

package sitesearch

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/sitesearch/ai"
	"github.com/poiesic/sitesearch/ai/openai"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/index"
	"github.com/poiesic/sitesearch/ingestion"
	"github.com/poiesic/sitesearch/mcpserver"
	"github.com/poiesic/sitesearch/reembed"
	"github.com/poiesic/sitesearch/search"
	"github.com/poiesic/sitesearch/storage"
	"github.com/poiesic/sitesearch/storage/badger"
	"github.com/poiesic/sitesearch/storage/filestore"
)

// Database ties together the embedding store, the checkpoint store, the
// embedding provider and the in-memory search index.
type Database struct {
	backend        *badger.Backend
	embeddingRepo  storage.EmbeddingRepository
	checkpointRepo storage.CheckpointRepository
	provider       ai.AIProvider
	index          *index.Index
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig     *ai.Config
	provider     ai.AIProvider
	embeddingDir string
	inMemory     bool
	logger       *slog.Logger
}

// WithAIConfig sets the configuration for the default OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a ready-made provider. The Database takes ownership
// and closes it on Close.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithFileStore keeps embedding bundles as YAML documents under dir instead
// of inside BadgerDB. Checkpoints stay in BadgerDB.
func WithFileStore(dir string) DatabaseOption {
	return func(o *databaseOptions) {
		o.embeddingDir = dir
	}
}

// WithInMemory opens BadgerDB without touching disk. The path argument to
// NewDatabase is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger used by the Database and the components it creates.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the store at filePath and wires the provider.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	var path string
	if !options.inMemory {
		path = filePath
	}
	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		return nil, err
	}

	var embeddingRepo storage.EmbeddingRepository
	if options.embeddingDir != "" {
		embeddingRepo, err = filestore.Open(options.embeddingDir)
	} else {
		embeddingRepo, err = badger.NewEmbeddingRepository(backend)
	}
	if err != nil {
		backend.Close()
		return nil, err
	}

	checkpointRepo := badger.NewCheckpointRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			embeddingRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:        backend,
		embeddingRepo:  embeddingRepo,
		checkpointRepo: checkpointRepo,
		provider:       provider,
		index:          index.New(index.WithLogger(logger)),
		logger:         logger.With("component", "database"),
	}, nil
}

// Close releases the provider and the storage backends.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.embeddingRepo.Close(); err != nil {
		db.logger.Error("error closing embedding repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) Repository() storage.EmbeddingRepository {
	return db.embeddingRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// Index returns the search index. It is empty until LoadIndex is called.
func (db *Database) Index() *index.Index {
	return db.index
}

func (db *Database) NewGenerator(opts ...ingestion.GeneratorOption) (*ingestion.Generator, error) {
	opts = append([]ingestion.GeneratorOption{ingestion.WithGeneratorLogger(db.logger)}, opts...)
	return ingestion.NewGenerator(db.embeddingRepo, db.provider.Embedder(), opts...)
}

// NewIngestionPipeline returns a pipeline that also registers every freshly
// generated bundle with the index.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	generator, err := db.NewGenerator()
	if err != nil {
		return nil, err
	}
	opts = append([]ingestion.Option{
		ingestion.WithLogger(db.logger),
		ingestion.WithOnGenerated(func(doc *core.ContentDocument, bundle *core.ArticleEmbedding) {
			db.index.RegisterArticle(doc.ItemMetadata(), bundle)
		}),
	}, opts...)
	return ingestion.NewPipeline(generator, opts...)
}

func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.embeddingRepo, db.checkpointRepo, db.provider.Embedder(), config, progress)
}

// LoadIndex replaces the index contents with every stored bundle and
// returns the number of articles registered.
func (db *Database) LoadIndex(ctx context.Context, lookup index.MetadataLookup) (int, error) {
	loader := index.NewLoader(db.embeddingRepo, lookup, index.WithLoaderLogger(db.logger))
	return loader.Load(ctx, db.index)
}

func (db *Database) NewSearchService(opts ...search.Option) (*search.Service, error) {
	opts = append([]search.Option{search.WithLogger(db.logger)}, opts...)
	return search.NewService(db.index, db.provider.Embedder(), opts...)
}

// NewMCPServer exposes the search service over the Model Context Protocol.
func (db *Database) NewMCPServer(opts ...search.Option) (*mcpserver.Server, error) {
	service, err := db.NewSearchService(opts...)
	if err != nil {
		return nil, err
	}
	return mcpserver.NewServer(service, db.index, db.logger), nil
}

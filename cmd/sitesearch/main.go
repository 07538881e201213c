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

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/sitesearch"
	"github.com/poiesic/sitesearch/ai"
	"github.com/poiesic/sitesearch/content"
	"github.com/poiesic/sitesearch/index"
	"github.com/poiesic/sitesearch/ingestion"
	"github.com/poiesic/sitesearch/reembed"
	"github.com/poiesic/sitesearch/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "sitesearch",
		Usage: "Hybrid text and vector search over site content",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  "Chunk content documents and store their embeddings",
				Action: generateCommand,
				Flags: append(storeFlags(), append(embeddingFlags(),
					&cli.StringFlag{
						Name:     "content",
						Aliases:  []string{"c"},
						Usage:    "Directory of YAML or JSON content documents",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Regenerate embeddings even when they are up to date",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of documents embedded concurrently (0 uses half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 10,
					},
				)...),
			},
			{
				Name:   "status",
				Usage:  "Summarize the stored embeddings",
				Action: statusCommand,
				Flags:  storeFlags(),
			},
			{
				Name:      "search",
				Usage:     "Run a text, vector or hybrid query against the stored embeddings",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append(storeFlags(), append(embeddingFlags(),
					&cli.StringFlag{
						Name:    "content",
						Aliases: []string{"c"},
						Usage:   "Directory of content documents used for item metadata",
					},
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Search type (text, vector, hybrid)",
						Value:   string(search.SearchTypeHybrid),
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultLimit,
					},
				)...),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed every stored article with a new embedding model",
				Action: reembedCommand,
				Flags: append(storeFlags(), append(embeddingFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of articles to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N articles",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
					&cli.BoolFlag{
						Name:  "skip-current",
						Usage: "Skip articles already embedded with the target model",
					},
				)...),
			},
			{
				Name:   "serve",
				Usage:  "Serve search tools over MCP on stdio",
				Action: serveCommand,
				Flags: append(storeFlags(), append(embeddingFlags(),
					&cli.StringFlag{
						Name:    "content",
						Aliases: []string{"c"},
						Usage:   "Directory of content documents used for item metadata",
					},
				)...),
			},
		},
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embeddings-dir",
			Usage: "Store embeddings as YAML files in this directory instead of BadgerDB",
		},
	}
}

func embeddingFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: defaults.EmbeddingHost,
		},
		&cli.StringFlag{
			Name:     "embedding-model",
			Usage:    "Embedding model name",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding vector dimension",
			Value: defaults.Dimension,
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key for the embedding service",
			EnvVars: []string{"SITESEARCH_API_KEY"},
		},
		&cli.DurationFlag{
			Name:  "embedding-timeout",
			Usage: "Timeout for each embedding request",
			Value: defaults.Timeout,
		},
	}
}

func aiConfig(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithDimension(c.Int("dimension")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithTimeout(c.Duration("embedding-timeout")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func openDatabase(c *cli.Context, config *ai.Config) (*sitesearch.Database, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	opts := []sitesearch.DatabaseOption{sitesearch.WithLogger(slog.Default())}
	if config != nil {
		opts = append(opts, sitesearch.WithAIConfig(config))
	}
	if dir := c.String("embeddings-dir"); dir != "" {
		opts = append(opts, sitesearch.WithFileStore(dir))
	}

	db, err := sitesearch.NewDatabase(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// metadataLookup loads item metadata from dir. An empty dir yields a nil
// lookup, which makes the index fall back to the stored bundle titles.
func metadataLookup(dir string) (index.MetadataLookup, error) {
	if dir == "" {
		return nil, nil
	}
	docs, err := content.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	return content.NewCatalog(docs).Metadata, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func generateCommand(c *cli.Context) error {
	if c.Int("pool-size") < 0 {
		return fmt.Errorf("pool-size must not be negative")
	}
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	config, err := aiConfig(c)
	if err != nil {
		return err
	}

	docs, err := content.LoadDir(c.String("content"))
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	db, err := openDatabase(c, config)
	if err != nil {
		return err
	}
	defer db.Close()

	var opts []ingestion.Option
	if n := c.Int("pool-size"); n > 0 {
		opts = append(opts, ingestion.WithPoolSize(n))
	}
	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Content: %s (%d documents)\n", c.String("content"), len(docs))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", config.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", config.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	ctx, cancel := signalContext()
	defer cancel()

	stats, err := pipeline.Run(ctx, docs, ingestion.RunOptions{
		Force:          c.Bool("force"),
		Progress:       os.Stderr,
		ReportInterval: c.Int("report-interval"),
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Generated %d, skipped %d, failed %d in %v\n",
		stats.Generated, stats.Skipped, stats.Failed, stats.Duration.Round(time.Millisecond))
	for _, itemErr := range stats.Errors {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", itemErr.ArticleID, itemErr.Err)
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d documents failed", stats.Failed)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	db, err := openDatabase(c, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	return printStatus(c.Context, c.App.Writer, db)
}

func printStatus(ctx context.Context, w io.Writer, db *sitesearch.Database) error {
	ids, err := db.Repository().ListArticleIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list articles: %w", err)
	}

	models := make(map[string]int)
	chunks, tokens := 0, 0
	for _, id := range ids {
		bundle, err := db.Repository().LoadArticleEmbedding(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", id, err)
		}
		if bundle == nil {
			continue
		}
		models[fmt.Sprintf("%s/%s (%d)", bundle.Model.Provider, bundle.Model.Name, bundle.Model.Dimension)]++
		chunks += bundle.Metadata.TotalChunks
		tokens += bundle.Metadata.TotalTokens
	}

	fmt.Fprintf(w, "Articles: %d\n", len(ids))
	fmt.Fprintf(w, "Chunks: %d\n", chunks)
	fmt.Fprintf(w, "Tokens: %d\n", tokens)
	if len(models) > 0 {
		names := make([]string, 0, len(models))
		for name := range models {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(w, "Models:")
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %d\n", name, models[name])
		}
	}
	return nil
}

func parseSearchType(s string) (search.SearchType, error) {
	switch t := search.SearchType(strings.ToLower(s)); t {
	case search.SearchTypeText, search.SearchTypeVector, search.SearchTypeHybrid:
		return t, nil
	default:
		return "", fmt.Errorf("invalid search type %q: must be one of text, vector, hybrid", s)
	}
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}
	searchType, err := parseSearchType(c.String("type"))
	if err != nil {
		return err
	}
	limit := c.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	config, err := aiConfig(c)
	if err != nil {
		return err
	}
	lookup, err := metadataLookup(c.String("content"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c, config)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if _, err := db.LoadIndex(ctx, lookup); err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	service, err := db.NewSearchService()
	if err != nil {
		return fmt.Errorf("failed to create search service: %w", err)
	}

	resp := service.Search(ctx, search.Request{Query: query, Type: searchType, Limit: limit})
	printResponse(c.App.Writer, resp)
	return nil
}

func printResponse(w io.Writer, resp *search.Response) {
	if resp.Fallback {
		fmt.Fprintln(w, "(embedding unavailable, showing text matches)")
	}
	if resp.Total == 0 {
		fmt.Fprintf(w, "No results for %q\n", resp.Query)
		return
	}
	for i, r := range resp.Results {
		s := r.Section
		fmt.Fprintf(w, "%2d. %s > %s [%s] %.3f\n", i+1, s.ItemTitle, s.SectionTitle, r.Type, r.Score)
		fmt.Fprintf(w, "    %s\n", s.Key)
	}
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		SkipCurrent:    c.Bool("skip-current"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	config, err := aiConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, config)
	if err != nil {
		return err
	}
	defer db.Close()

	reembedder, err := db.NewReembedder(reembedConfig, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", config.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", config.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	ctx, cancel := signalContext()
	defer cancel()

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	config, err := aiConfig(c)
	if err != nil {
		return err
	}
	lookup, err := metadataLookup(c.String("content"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c, config)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	n, err := db.LoadIndex(ctx, lookup)
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	server, err := db.NewMCPServer()
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	slog.Info("serving search over stdio", "items", n, "sections", db.Index().Len())
	return server.Serve(ctx)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// stdout carries results and the MCP stream
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

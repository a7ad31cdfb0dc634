// Copyright 2025 The Research Platform Authors
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
	"log"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	platform "github.com/TamilselvanRaman/Research-Platform"
	"github.com/TamilselvanRaman/Research-Platform/ai"
	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/index"
	"github.com/TamilselvanRaman/Research-Platform/index/qdrant"
	"github.com/TamilselvanRaman/Research-Platform/ingestion"
)

func main() {
	app := &cli.App{
		Name:  "research-platform",
		Usage: "Document search core: async PDF ingestion and hybrid search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data directory",
				Value:   "./data",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "all-minilm",
			},
			&cli.StringFlag{
				Name:  "qdrant-url",
				Usage: "Qdrant base URL; empty keeps vectors in-process",
			},
			&cli.StringFlag{
				Name:  "qdrant-collection",
				Usage: "Qdrant collection name",
				Value: "chunks",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Upload PDF files and process them",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "company",
						Usage: "Company the documents belong to",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Document type label",
					},
					&cli.BoolFlag{
						Name:  "async",
						Usage: "Enqueue only; processing is left to a worker pool",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid search over the ingested corpus",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Skip the first N fused results",
					},
					&cli.StringFlag{
						Name:  "company",
						Usage: "Restrict to one company",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Restrict to one document type",
					},
				},
			},
			{
				Name:      "status",
				Usage:     "Show a document's processing status",
				ArgsUsage: "ID",
				Action:    statusCommand,
			},
			{
				Name:   "list",
				Usage:  "List documents, newest first",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of documents",
						Value:   20,
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and everything derived from it",
				ArgsUsage: "ID",
				Action:    deleteCommand,
			},
			{
				Name:   "workers",
				Usage:  "Run the ingestion worker pool until interrupted",
				Action: workersCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "count",
						Usage: "Number of concurrent workers",
						Value: 4,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openPlatform(c *cli.Context) (*platform.Platform, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
	)

	opts := []platform.PlatformOption{platform.WithAIConfig(aiConfig)}
	if url := c.String("qdrant-url"); url != "" {
		opts = append(opts, platform.WithQdrant(qdrant.Config{
			URL:        url,
			Collection: c.String("qdrant-collection"),
		}))
	}
	return platform.New(c.String("data"), opts...)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	p, err := openPlatform(c)
	if err != nil {
		return fmt.Errorf("opening platform: %w", err)
	}
	defer p.Close()

	ctx := context.Background()
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "application/pdf"
		}

		doc, err := p.Upload(ctx, filepath.Base(path), mimeType, data, &platform.UploadOptions{
			Company:      c.String("company"),
			DocumentType: c.String("type"),
		})
		if err != nil {
			return fmt.Errorf("uploading %s: %w", path, err)
		}
		fmt.Printf("uploaded %s as document %d\n", path, doc.Id)

		if c.Bool("async") {
			continue
		}
		if err := p.Process(ctx, doc.Id); err != nil {
			return fmt.Errorf("processing document %d: %w", doc.Id, err)
		}

		status, err := p.Status(ctx, doc.Id)
		if err != nil {
			return err
		}
		fmt.Printf("document %d: %s, %d chunks over %d pages in %dms\n",
			doc.Id, status.Status, status.ChunkCount, status.PageCount, status.ProcessingTime.Milliseconds())
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	p, err := openPlatform(c)
	if err != nil {
		return fmt.Errorf("opening platform: %w", err)
	}
	defer p.Close()

	filters := index.Filters{
		Company:      c.String("company"),
		DocumentType: c.String("type"),
	}

	resp, err := p.SearchPage(context.Background(), query, filters, c.Int("limit"), c.Int("offset"))
	if err != nil {
		return err
	}

	fmt.Printf("%d results (of %d fused) in %dms\n\n", len(resp.Results), resp.Total, resp.TookMS)
	for i, r := range resp.Results {
		title := r.DocumentTitle
		if title == "" {
			title = fmt.Sprintf("document %d", r.DocumentId)
		}
		fmt.Printf("%2d. [%.3f] %s (page %d)\n", i+1+c.Int("offset"), r.Score, title, r.PageNumber)
		fmt.Printf("    %s\n\n", snippet(r.Text, 160))
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	p, err := openPlatform(c)
	if err != nil {
		return fmt.Errorf("opening platform: %w", err)
	}
	defer p.Close()

	doc, err := p.Status(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Printf("document %d: %s\n", doc.Id, doc.OriginalFilename)
	fmt.Printf("  status:  %s\n", doc.Status)
	if doc.Status == core.StatusFailed {
		fmt.Printf("  error:   %s\n", doc.LastError)
	}
	if doc.Status == core.StatusCompleted {
		fmt.Printf("  chunks:  %d over %d pages\n", doc.ChunkCount, doc.PageCount)
		fmt.Printf("  took:    %dms\n", doc.ProcessingTime.Milliseconds())
	}
	fmt.Printf("  created: %s\n", doc.CreatedAt.Format(time.RFC3339))
	return nil
}

func listCommand(c *cli.Context) error {
	p, err := openPlatform(c)
	if err != nil {
		return fmt.Errorf("opening platform: %w", err)
	}
	defer p.Close()

	docs, err := p.List(context.Background(), c.Int("limit"), 0)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		fmt.Printf("%4d  %-10s  %s\n", doc.Id, doc.Status, doc.OriginalFilename)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	p, err := openPlatform(c)
	if err != nil {
		return fmt.Errorf("opening platform: %w", err)
	}
	defer p.Close()

	if err := p.Delete(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("deleted document %d\n", id)
	return nil
}

func workersCommand(c *cli.Context) error {
	p, err := openPlatform(c)
	if err != nil {
		return fmt.Errorf("opening platform: %w", err)
	}
	defer p.Close()

	pool, err := p.NewWorkerPool(ingestion.WithPoolSize(c.Int("count")))
	if err != nil {
		return err
	}
	defer pool.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "worker pool running with %d workers, ctrl-c to stop\n", c.Int("count"))
	return pool.Run(ctx)
}

func parseID(c *cli.Context) (core.ID, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("exactly one document ID is required")
	}
	var id int64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document ID %q", c.Args().First())
	}
	return core.ID(id), nil
}

func snippet(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

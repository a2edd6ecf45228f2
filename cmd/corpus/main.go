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
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/corpus/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "corpus",
		Usage: "Knowledge base ingestion and semantic retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   "corpus.yaml",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest files or URLs into the knowledge base",
				ArgsUsage: "[files...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "url",
						Aliases: []string{"u"},
						Usage:   "URL to ingest (repeatable)",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Search the knowledge base",
				ArgsUsage: "<query>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   5,
					},
					&cli.IntFlag{
						Name:  "context-budget",
						Usage: "Assemble results into a context bounded by this many tokens",
					},
				},
			},
			{
				Name:   "sources",
				Usage:  "List indexed sources",
				Action: sourcesCommand,
			},
			{
				Name:   "delete",
				Usage:  "Delete everything indexed for a source",
				Action: deleteCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Source identifier (filename or URL)",
						Required: true,
					},
				},
			},
			{
				Name:   "delete-all",
				Usage:  "Delete every indexed source and all stored artifacts",
				Action: deleteAllCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) error {
	// Missing .env is fine; the environment may carry the keys directly.
	_ = godotenv.Load()
	return setupLogger(c)
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

func ingestCommand(c *cli.Context) error {
	urls := c.StringSlice("url")
	files := c.Args().Slice()
	if len(urls) == 0 && len(files) == 0 {
		return fmt.Errorf("nothing to ingest: pass files as arguments or URLs with --url")
	}

	ctx := context.Background()
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	kb, err := openKnowledgeBase(ctx, cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		docs, err := kb.IngestFile(ctx, path, content)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		fmt.Printf("ingested %s (%d documents)\n", path, len(docs))
	}

	for _, url := range urls {
		docs, err := kb.IngestURL(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", url, err)
		}
		fmt.Printf("ingested %s (%d documents)\n", url, len(docs))
	}

	return nil
}

func queryCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query text is required")
	}

	ctx := context.Background()
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	kb, err := openKnowledgeBase(ctx, cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	results, err := kb.Query(ctx, query, c.Int("top-k"))
	if err != nil {
		return err
	}

	if budget := c.Int("context-budget"); budget > 0 {
		counter, err := search.NewTiktokenCounter()
		if err != nil {
			return err
		}
		builder, err := search.NewContextBuilder(counter)
		if err != nil {
			return err
		}
		contextText, err := builder.Build(results, budget)
		if err != nil {
			return err
		}
		fmt.Println(contextText)
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. [%.4f] %s (seq %d)\n%s\n\n",
			i+1, result.Score, result.Node.Source, result.Node.Seq, result.Node.Text)
	}
	return nil
}

func sourcesCommand(c *cli.Context) error {
	ctx := context.Background()
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	kb, err := openKnowledgeBase(ctx, cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	sources, err := kb.Sources(ctx)
	if err != nil {
		return err
	}
	for _, source := range sources {
		fmt.Println(source)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	ctx := context.Background()
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	kb, err := openKnowledgeBase(ctx, cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	source := c.String("source")
	deleted, err := kb.DeleteSource(ctx, source)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %s (%d nodes)\n", source, len(deleted))
	return nil
}

func deleteAllCommand(c *cli.Context) error {
	ctx := context.Background()
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	kb, err := openKnowledgeBase(ctx, cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	deleted, err := kb.DeleteAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d sources\n", len(deleted))
	return nil
}

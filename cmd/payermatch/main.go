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
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/payermatch"
	"github.com/poiesic/payermatch/api"
	"github.com/poiesic/payermatch/config"
	"github.com/poiesic/payermatch/core"
	"github.com/poiesic/payermatch/ingestion"
	"github.com/poiesic/payermatch/matching"
	"github.com/poiesic/payermatch/warmup"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "payermatch",
		Usage:  "Match transactions to the users who sent them",
		Writer: out,
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
				Name:   "serve",
				Usage:  "Serve the matching and search HTTP API",
				Action: serveCommand,
				Flags: append(serviceFlags(),
					&cli.BoolFlag{
						Name:  "warm-cache",
						Usage: "Embed every transaction description before serving",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of transactions to warm in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per embedding while warming",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff while warming",
						Value: 1 * time.Second,
					},
				),
			},
			{
				Name:      "match",
				Usage:     "Match a transaction description against users",
				ArgsUsage: "<description>",
				Action:    matchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "users",
						Aliases:  []string{"u"},
						Usage:    "Path to the users CSV file",
						Required: true,
					},
					&cli.Float64Flag{
						Name:    "threshold",
						Aliases: []string{"t"},
						Usage:   "Minimum match score (0-100)",
						Value:   matching.DefaultThreshold,
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Find transactions with descriptions similar to a query",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "transactions",
						Usage:    "Path to the transactions CSV file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Search query",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum cosine similarity (0-1)",
						Value: 0.4,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results (1-100)",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "preprocess",
						Usage: "Condense descriptions to their financial terms before embedding",
						Value: true,
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
				},
			},
			{
				Name:   "print-config",
				Usage:  "Print the effective configuration as TOML",
				Action: printConfigCommand,
				Flags:  serviceFlags(),
			},
		},
	}
}

// serviceFlags are shared by serve and print-config so both resolve the
// same configuration.
func serviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a TOML configuration file",
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Listen address",
			Value: ":8000",
		},
		&cli.StringFlag{
			Name:  "users",
			Usage: "Path to the users CSV file",
		},
		&cli.StringFlag{
			Name:  "transactions",
			Usage: "Path to the transactions CSV file",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory (in-memory when empty)",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
	}
}

// resolveConfig loads the configuration file, if any, and applies flags
// the user set explicitly.
func resolveConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("users") {
		cfg.Data.UsersPath = c.String("users")
	}
	if c.IsSet("transactions") {
		cfg.Data.TransactionsPath = c.String("transactions")
	}
	if c.IsSet("db") {
		cfg.Data.DBPath = c.String("db")
	}
	if c.IsSet("embedding-host") {
		cfg.AI.EmbeddingHost = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	if c.IsSet("warm-cache") {
		cfg.Server.WarmCache = c.Bool("warm-cache")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}

	svc, err := payermatch.Open(ctx,
		payermatch.WithAIConfig(cfg.AIConfig()),
		payermatch.WithDataFiles(cfg.Data.UsersPath, cfg.Data.TransactionsPath),
		payermatch.WithDBPath(cfg.Data.DBPath),
		payermatch.WithCacheCapacity(cfg.Search.CacheCapacity),
		payermatch.WithPoolSize(cfg.Search.PoolSize),
	)
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	if cfg.Server.WarmCache {
		warmConfig := warmup.DefaultConfig()
		warmConfig.BatchSize = c.Int("batch-size")
		warmConfig.MaxRetries = c.Int("max-retries")
		warmConfig.RetryDelay = c.Duration("retry-delay")
		if _, err := svc.WarmCache(ctx, warmConfig, os.Stderr); err != nil {
			return fmt.Errorf("cache warm-up failed: %w", err)
		}
	}

	searchDefaults := payermatch.DefaultSearchParams()
	searchDefaults.Threshold = cfg.Search.Threshold
	searchDefaults.Limit = cfg.Search.Limit

	server, err := api.NewServer(svc,
		api.WithMatchThreshold(int(cfg.Matching.Threshold)),
		api.WithSearchDefaults(searchDefaults),
	)
	if err != nil {
		return err
	}
	return server.ListenAndServe(ctx, cfg.Server.Addr)
}

func matchCommand(c *cli.Context) error {
	description := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("a transaction description is required")
	}
	threshold := c.Float64("threshold")
	if err := core.ValidateMatchThreshold(threshold); err != nil {
		return err
	}

	f, err := os.Open(c.String("users"))
	if err != nil {
		return fmt.Errorf("failed to open users file: %w", err)
	}
	defer f.Close()

	users, err := ingestion.LoadUsers(f)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	byID := make(map[string]core.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	matcher, err := matching.NewUserMatcher(byID)
	if err != nil {
		return err
	}

	matches := matcher.FindMatchingUsers(description, threshold)
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSCORE")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%s\t%.1f\n", m.ID, m.Name, m.Score)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	slog.Debug("match complete", "candidates", len(matcher.Extract(description)), "matches", len(matches))
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	params := payermatch.DefaultSearchParams()
	params.Threshold = c.Float64("threshold")
	params.Limit = c.Int("limit")
	params.Preprocess = c.Bool("preprocess")

	aiConfig := config.Default().AIConfig()
	aiConfig.EmbeddingHost = c.String("embedding-host")
	aiConfig.EmbeddingModel = c.String("embedding-model")

	svc, err := payermatch.Open(ctx,
		payermatch.WithAIConfig(aiConfig),
		payermatch.WithDataFiles("", c.String("transactions")),
	)
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	result, err := svc.SemanticSearch(ctx, c.String("query"), params)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSIMILARITY\tDESCRIPTION")
	for _, t := range result.Transactions {
		fmt.Fprintf(w, "%s\t%.4f\t%s\n", t.ID, t.Similarity, t.Description)
	}
	fmt.Fprintf(w, "\ntokens used: %d\n", result.TokensUsed)
	return w.Flush()
}

func printConfigCommand(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}
	return cfg.Write(c.App.Writer)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// Package main is the recall CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caldera-ai/recall/internal/cache"
	"github.com/caldera-ai/recall/internal/config"
	"github.com/caldera-ai/recall/internal/embedding"
	"github.com/caldera-ai/recall/internal/models"
	"github.com/caldera-ai/recall/internal/retrieval"
	"github.com/caldera-ai/recall/internal/server"
	"github.com/caldera-ai/recall/internal/store"
	"github.com/caldera-ai/recall/internal/warmer"
	"github.com/caldera-ai/recall/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/recall/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so "recall server" from the project dir picks up the project's
// config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "store":
		runStore()
	case "delete":
		runDelete()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("recall version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Registry,
		components.Store,
		components.Embedder,
		components.Warmer,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	tenant := fs.String("tenant", "default", "tenant identifier")
	limit := fs.Int("limit", 0, "max results (0 uses the configured default)")
	threshold := fs.Float64("threshold", 0, "minimum similarity (0 uses the configured default)")
	category := fs.String("category", "", "filter by category")
	sourceType := fs.String("source-type", "", "filter by source type")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Println("Usage: recall search [flags] <query>")
		os.Exit(1)
	}

	components := mustInitialize(*configPath)
	defer components.Close()

	engine, err := components.Registry.Engine(*tenant)
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		os.Exit(1)
	}
	response, err := engine.SearchKnowledge(context.Background(), &models.SearchQuery{
		Query:      query,
		Threshold:  *threshold,
		Limit:      *limit,
		Category:   *category,
		SourceType: *sourceType,
	})
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		os.Exit(1)
	}

	if *output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(response)
		return
	}
	if len(response.Items) == 0 {
		fmt.Println("No results.")
		return
	}
	fmt.Printf("%d result(s) in %dms:\n\n", response.TotalFound, response.SearchTimeMs)
	for _, item := range response.Items {
		title := item.Metadata.Title
		if title == "" {
			title = item.ID
		}
		fmt.Printf("%2d. %s  (similarity %.3f)\n", item.Rank, title, item.Similarity)
		if item.Metadata.Category != "" {
			fmt.Printf("    category: %s\n", item.Metadata.Category)
		}
		fmt.Printf("    %s\n\n", utils.Truncate(item.Metadata.Content, 160))
	}
}

func runStore() {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	tenant := fs.String("tenant", "default", "tenant identifier")
	title := fs.String("title", "", "knowledge item title")
	category := fs.String("category", "", "knowledge item category")
	sourceType := fs.String("source-type", "", "knowledge item source type")
	sourceURL := fs.String("source-url", "", "knowledge item source URL")
	_ = fs.Parse(os.Args[2:])

	var content string
	if fs.NArg() > 0 {
		data, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Printf("Failed to read file: %v\n", err)
			os.Exit(1)
		}
		content = string(data)
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Printf("Failed to read stdin: %v\n", err)
			os.Exit(1)
		}
		content = string(data)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		fmt.Println("Usage: recall store [flags] <file>  (or pipe content on stdin)")
		os.Exit(1)
	}

	components := mustInitialize(*configPath)
	defer components.Close()

	ctx := context.Background()
	vec, err := components.Embedder.Embed(ctx, content)
	if err != nil {
		fmt.Printf("Embedding failed: %v\n", err)
		os.Exit(1)
	}
	record := &models.KnowledgeRecord{
		Embedding: vec,
		Metadata: models.KnowledgeMetadata{
			Title:      *title,
			Content:    content,
			Category:   *category,
			SourceType: *sourceType,
			SourceURL:  *sourceURL,
			UpdatedAt:  time.Now(),
		},
	}
	if err := components.Store.StoreVectors(ctx, *tenant, []*models.KnowledgeRecord{record}); err != nil {
		fmt.Printf("Store failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Stored: %s\n", record.ID)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	tenant := fs.String("tenant", "default", "tenant identifier")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: recall delete [flags] <source-url>")
		os.Exit(1)
	}
	sourceURL := fs.Arg(0)

	components := mustInitialize(*configPath)
	defer components.Close()

	deleted, err := components.Store.DeleteBySource(context.Background(), *tenant, sourceURL)
	if err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted %d record(s) from source: %s\n", deleted, sourceURL)
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	tenant := fs.String("tenant", "default", "tenant identifier")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	components := mustInitialize(*configPath)
	defer components.Close()

	ctx := context.Background()
	engine, err := components.Registry.Engine(*tenant)
	if err != nil {
		fmt.Printf("Stats failed: %v\n", err)
		os.Exit(1)
	}
	if _, err := engine.Refresh(ctx); err != nil {
		fmt.Printf("Stats failed: %v\n", err)
		os.Exit(1)
	}
	stats := engine.Stats()

	if *output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(stats)
		return
	}
	fmt.Printf("Tenant:        %s\n", *tenant)
	fmt.Printf("State:         %s\n", stats.State)
	fmt.Printf("Vectors:       %d\n", stats.TotalVectors)
	fmt.Printf("Memory (KB):   %d\n", stats.MemoryUsageKB)
	fmt.Printf("Hit rate:      %.2f\n", stats.HitRate)
}

// Components holds initialized services.
type Components struct {
	Store    store.VectorStore
	Embedder embedding.Embedder
	Registry *retrieval.Registry
	Warmer   *warmer.Warmer
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func mustInitialize(configPath string) *Components {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var inner embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
	)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, using mock embedder", zap.Error(err))
		inner = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		inner = onnxEmbedder
	}
	embedder := embedding.NewCachedEmbedder(inner, cfg.Embedding.CacheSize)

	w := warmer.New(st, embedder, logger)
	registry := retrieval.NewRegistry(func(tenant string) (*retrieval.Engine, error) {
		c, err := cache.New(cache.Config{
			Dimensions:        cfg.Embedding.Dimensions,
			MaxVectors:        cfg.Cache.MaxVectors,
			MaxMemoryKB:       cfg.Cache.MaxMemoryKB,
			EvictionBatchSize: cfg.Cache.EvictionBatchSize,
		})
		if err != nil {
			return nil, err
		}
		init := cache.NewInitializer(tenant, st, c, logger)
		if cfg.Warmup.Enabled {
			go w.Warm(context.Background(), tenant)
		}
		return retrieval.NewEngine(tenant, c, init, embedder, &cfg.Search, logger), nil
	})

	return &Components{
		Store:    st,
		Embedder: embedder,
		Registry: registry,
		Warmer:   w,
	}, nil
}

func printUsage() {
	fmt.Println(`recall - per-tenant semantic knowledge retrieval

Usage:
  recall server [flags]            Start the HTTP server
  recall search [flags] <query>    Search a tenant's knowledge base
  recall store [flags] <file>      Store a knowledge item (file or stdin)
  recall delete [flags] <url>      Delete knowledge by source URL
  recall stats [flags]             Show a tenant's cache statistics
  recall version                   Show version
  recall help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/recall/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string       Config file path
  --tenant string       Tenant identifier (default: default)
  --limit int           Number of results (default from config)
  --threshold float     Minimum similarity (default from config)
  --category string     Filter by category
  --source-type string  Filter by source type
  --output string       Output format: text or json (default: text)

Store Flags:
  --config string       Config file path
  --tenant string       Tenant identifier
  --title string        Item title
  --category string     Item category
  --source-type string  Item source type
  --source-url string   Item source URL

Delete/Stats Flags:
  --config string    Config file path
  --tenant string    Tenant identifier

Examples:
  recall server
  recall search --tenant acme "how do refunds work"
  recall store --tenant acme --title "Refund policy" policy.txt
  recall delete --tenant acme https://example.com/old-page
  recall stats --tenant acme --output json`)
}

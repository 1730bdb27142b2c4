// Package main is the shirabe CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/cli"
	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/extract"
	"github.com/hyperjump/shirabe/internal/ingest"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/search"
	"github.com/hyperjump/shirabe/internal/server"
	"github.com/hyperjump/shirabe/internal/storage"
	"github.com/hyperjump/shirabe/internal/watcher"
	"github.com/hyperjump/shirabe/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shirabe/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "shirabe server" from the project dir uses the project's
// config (including debug). Returns the config and the path actually loaded.
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
	case "ingest":
		runIngest()
	case "flush":
		runFlush()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("shirabe version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging (ingestion, query evaluation, etc.)")
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

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if len(cfg.Ingest.Directories) > 0 {
		for _, dir := range cfg.Ingest.Directories {
			result, err := components.Ingester.IngestDirectory(ctx, dir,
				cfg.Ingest.Extensions, cfg.Ingest.RecursiveOrDefault())
			if err != nil {
				logger.Warn("initial ingestion failed", zap.String("dir", dir), zap.Error(err))
				continue
			}
			logger.Info("initial ingestion done",
				zap.String("dir", dir),
				zap.Int("added", result.Added),
				zap.Int("skipped", result.Skipped),
				zap.Int("failed", result.Failed),
			)
		}
		if err := components.Engine.Flush(ctx); err != nil {
			logger.Fatal("initial flush failed", zap.Error(err))
		}
	}

	var watchCancel context.CancelFunc
	if cfg.Ingest.Watch && len(cfg.Ingest.Directories) > 0 {
		ingester := components.Ingester
		engine := components.Engine
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(
			cfg.Ingest.Directories,
			cfg.Ingest.Extensions,
			cfg.Ingest.RecursiveOrDefault(),
			func(path string) {
				if _, err := ingester.IngestFile(path); err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
					return
				}
				if err := engine.Flush(context.Background()); err != nil {
					logger.Warn("watch flush failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		var watchCtx context.Context
		watchCtx, watchCancel = context.WithCancel(context.Background())
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(components.Engine, components.Ingester, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchCancel != nil {
		watchCancel()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// printSearchUsage prints search subcommand usage and query syntax hints.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: shirabe search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Two query modes are available:
  • vector (default): free text ranked by tf-idf similarity. --above filters
    low-scoring documents; --top limits how many are returned.
  • boolean: set algebra over terms with AND, OR, NOT and parentheses.

Examples:
  shirabe search information retrieval
  shirabe search "information retrieval"            # same as above
  shirabe search --mode boolean "cat AND NOT dog"
  shirabe search --above 0.5 --top 10 your query
  shirabe search --output json query                # structured JSON for other apps
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchConfigPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func searchConfigPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// searchDefaultsFromConfig loads config at path and returns the default
// similarity floor and result limit for vector queries. On load failure,
// returns 0.2 and unlimited.
func searchDefaultsFromConfig(path string) (above float64, top int) {
	above, top = 0.2, -1
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		return above, top
	}
	return cfg.Search.DefaultAbove, cfg.Search.DefaultTop
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so "shirabe search \"query\"
// -above 0.5" would otherwise leave -above unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])
	configPath := searchConfigPathFromArgs(searchArgs, defaultConfigPath)
	defaultAbove, defaultTop := searchDefaultsFromConfig(configPath)

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	mode := fs.String("mode", models.ModeVector, "query mode: vector (ranked) or boolean (set algebra)")
	above := fs.Float64("above", defaultAbove, "minimum similarity score for vector results (0 = keep all)")
	top := fs.Int("top", defaultTop, "maximum number of vector results (negative = unlimited)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	searchQuery := models.SearchQuery{
		Query: queryStr,
		Mode:  *mode,
		Above: *above,
		Top:   *top,
	}
	if err := searchQuery.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid query: %v\n", err)
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids a SQLite lock conflict).
		response, err := searchViaHTTP(*serverURL, searchQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct storage access (when server is not running).
	cfg, _, err := loadConfig(*configPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	start := time.Now()
	response := &models.SearchResponse{Query: searchQuery.Query, Mode: searchQuery.Mode}
	switch searchQuery.Mode {
	case models.ModeBoolean:
		docs, err := components.Engine.BooleanQuery(ctx, searchQuery.Query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		response.Documents = docs.Sorted()
		response.Total = len(response.Documents)
	default:
		results, err := components.Engine.VectorQuery(ctx, searchQuery.Query, searchQuery.Above, searchQuery.Top)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		response.Results = results
		response.Total = len(results)
	}
	response.QueryTime = time.Since(start).Milliseconds()

	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": query.Query,
		"mode":  query.Mode,
		"above": query.Above,
		"top":   query.Top,
	})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	noFlush := fs.Bool("no-flush", false, "accumulate only; do not write the batch to the store")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: shirabe ingest [flags] <file-directory-or-url>")
		os.Exit(1)
	}
	target := fs.Arg(0)
	isURL := strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")

	if *serverURL != "" {
		payload := map[string]interface{}{"flush": !*noFlush}
		if isURL {
			payload["url"] = target
		} else {
			abs, err := filepath.Abs(target)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
				os.Exit(1)
			}
			payload["path"] = abs
		}
		body, _ := json.Marshal(payload)
		resp, err := http.Post(*serverURL+"/api/v1/documents", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Ingestion failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var result ingest.Result
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %s: %d added, %d skipped, %d failed\n", target, result.Added, result.Skipped, result.Failed)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	var result ingest.Result
	switch {
	case isURL:
		added, err := components.Ingester.IngestURL(ctx, target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
			os.Exit(1)
		}
		if added {
			result.Added = 1
		} else {
			result.Skipped = 1
		}
	default:
		info, err := os.Stat(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
			os.Exit(1)
		}
		if info.IsDir() {
			result, err = components.Ingester.IngestDirectory(ctx, target,
				cfg.Ingest.Extensions, cfg.Ingest.RecursiveOrDefault())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
				os.Exit(1)
			}
		} else {
			added, err := components.Ingester.IngestFile(target)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
				os.Exit(1)
			}
			if added {
				result.Added = 1
			} else {
				result.Skipped = 1
			}
		}
	}
	if !*noFlush {
		if err := components.Engine.Flush(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Flush failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Ingested %s: %d added, %d skipped, %d failed\n", target, result.Added, result.Skipped, result.Failed)
}

func runFlush() {
	fs := flag.NewFlagSet("flush", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Post(*serverURL+"/api/v1/flush", "application/json", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Flush failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	fmt.Println("Flushed.")
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusView
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		engineStatus, err := components.Engine.Status(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = statusView{Status: engineStatus, DatabasePath: cfg.Storage.DatabasePath}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("flushed_documents:  %d   # documents visible to queries\n", status.FlushedDocuments)
		fmt.Printf("flushed_terms:      %d   # distinct terms in the store\n", status.FlushedTerms)
		fmt.Printf("pending_documents:  %d   # accumulated, not yet flushed\n", status.PendingDocuments)
		fmt.Printf("pending_terms:      %d\n", status.PendingTerms)
		if status.DatabasePath != "" {
			fmt.Printf("database_path:      %s\n", status.DatabasePath)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// statusView is the shape of GET /api/v1/status responses.
type statusView struct {
	search.Status
	DatabasePath string `json:"database_path,omitempty"`
}

func statusViaHTTP(serverURL string) (*statusView, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusView
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Store
	Engine   *search.Engine
	Ingester *ingest.Ingester
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath, storage.Tables{
		Postings: cfg.Storage.PostingsTable,
		Norms:    cfg.Storage.NormsTable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	engineOpts := []search.EngineOption{}
	if debug && logger != nil {
		engineOpts = append(engineOpts, search.WithLogger(logger))
	}
	engine := search.NewEngine(store, engineOpts...)

	ingestOpts := []ingest.IngesterOption{}
	if debug && logger != nil {
		ingestOpts = append(ingestOpts, ingest.WithLogger(logger))
	}
	if cfg.Ingest.Concurrency > 0 {
		ingestOpts = append(ingestOpts, ingest.WithConcurrency(cfg.Ingest.Concurrency))
	}
	ingester := ingest.NewIngester(engine, extract.NewExtractor(), ingestOpts...)

	return &Components{
		Storage:  store,
		Engine:   engine,
		Ingester: ingester,
	}, nil
}

func printUsage() {
	fmt.Println(`shirabe - Local full-text retrieval engine

Usage:
  shirabe server [flags]            Start the HTTP server
  shirabe search [flags] <query>    Search flushed documents
  shirabe ingest [flags] <path>     Ingest a file, directory, or URL
  shirabe flush [flags]             Write accumulated documents to the store
  shirabe status [flags]            Show index status
  shirabe version                   Show version
  shirabe help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/shirabe/config.yaml)
  --debug            Enable debug logging (ingestion, query evaluation, etc.)

Search Flags:
  --config string    Config file path (for direct storage mode; also used for default above/top values)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to use direct storage when server is not running.
  --mode string      Query mode: vector (ranked, default) or boolean (AND/OR/NOT set algebra)
  --above float      Minimum similarity score for vector results (default from config; 0 keeps all)
  --top int          Maximum number of vector results (negative = unlimited)
  --output string    Output format: text, compact, or json (default: text)

Ingest Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --no-flush         Accumulate only; documents stay invisible to queries until flush

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  shirabe server
  shirabe ingest ~/Documents/notes
  shirabe ingest https://example.org/article.txt
  shirabe search "information retrieval"
  shirabe search --mode boolean "cat AND NOT dog"
  shirabe search --above 0.5 --top 10 query
  shirabe status --output json`)
}

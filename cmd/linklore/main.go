// Package main is the Linklore consensus engine CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Miyazak1/linklore-sub001/internal/ai"
	"github.com/Miyazak1/linklore-sub001/internal/cache"
	"github.com/Miyazak1/linklore-sub001/internal/cli"
	"github.com/Miyazak1/linklore-sub001/internal/config"
	"github.com/Miyazak1/linklore-sub001/internal/consensus"
	"github.com/Miyazak1/linklore-sub001/internal/export"
	"github.com/Miyazak1/linklore-sub001/internal/ingest"
	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/pairs"
	"github.com/Miyazak1/linklore-sub001/internal/quality"
	"github.com/Miyazak1/linklore-sub001/internal/secrets"
	"github.com/Miyazak1/linklore-sub001/internal/server"
	"github.com/Miyazak1/linklore-sub001/internal/similarity"
	"github.com/Miyazak1/linklore-sub001/internal/storage"
	"github.com/Miyazak1/linklore-sub001/internal/watcher"
	"github.com/Miyazak1/linklore-sub001/pkg/utils"
)

var version = "dev"

const defaultConfigPath = config.DefaultConfigPath

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, so running from a project dir uses that project's config.
// A missing default file yields the built-in defaults. Returns the path actually used.
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
		cfg, err := config.LoadOrDefault(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "track":
		runTrack()
	case "history":
		runHistory()
	case "analyze":
		runAnalyze()
	case "pairs":
		runPairs()
	case "similarity":
		runSimilarity()
	case "import":
		runImport()
	case "export":
		runExport()
	case "ai-config":
		runAIConfig()
	case "status":
		runStatus()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("linklore version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// parseArgs parses fs with flags allowed before, between or after positional
// arguments and returns the positionals in their original order. The flag
// package stops at the first non-flag argument, so each positional is peeled
// off and the remainder parsed again.
func parseArgs(fs *flag.FlagSet, args []string) []string {
	var positional []string
	for {
		_ = fs.Parse(args)
		args = fs.Args()
		if len(args) == 0 {
			return positional
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// commandEnv is the shared setup for commands that work on local storage.
type commandEnv struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	components *Components
	format     cli.OutputFormat
}

func (e *commandEnv) Close() {
	e.components.Close()
	_ = e.logger.Sync()
}

// commonFlags registers the flags every local command accepts.
func commonFlags(fs *flag.FlagSet) (configPath, output *string, debug *bool) {
	configPath = fs.String("config", defaultConfigPath, "config file path")
	output = fs.String("output", "text", "output format: text or json")
	debug = fs.Bool("debug", false, "enable debug logging")
	return configPath, output, debug
}

// setup loads config, builds the logger and initializes components, exiting on failure.
func setup(configPath, output string, debug bool) *commandEnv {
	format, err := cli.ParseOutputFormat(output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return &commandEnv{cfg: cfg, configPath: resolved, logger: logger, components: components, format: format}
}

func exitOnError(what string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "%s: not found\n", what)
	} else {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", what, err)
	}
	os.Exit(1)
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

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.EnabledOrDefault() {
		if _, statErr := os.Stat(resolvedConfigPath); statErr == nil {
			watchSvc := watcher.NewWatcher(
				[]string{resolvedConfigPath},
				func(path string) { reloadQuality(path, components.Gate, logger) },
				watcher.WithLogger(logger),
				watcher.WithDebounce(cfg.Watch.Debounce),
			)
			if err := watchSvc.Start(watchCtx); err != nil {
				logger.Warn("config watcher not started", zap.Error(err))
			} else {
				defer watchSvc.Stop()
			}
		}
	}

	srv := server.NewServer(
		components.Tracker,
		components.Analyzer,
		components.Identifier,
		components.Similarity,
		components.Storage,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// reloadQuality re-reads the config file and swaps in its quality rubric.
// An invalid file keeps the current rubric.
func reloadQuality(path string, gate *quality.Gate, logger *zap.Logger) {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warn("config reload failed, keeping current quality rubric", zap.String("path", path), zap.Error(err))
		return
	}
	gate.SetConfig(&cfg.Quality)
	logger.Info("quality rubric reloaded",
		zap.String("path", path),
		zap.Float64("min_overall", cfg.Quality.Thresholds.MinOverall),
	)
}

func runTrack() {
	fs := flag.NewFlagSet("track", flag.ExitOnError)
	configPath, output, debug := commonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: linklore track [flags] <topic-id>\n\n")
		fs.PrintDefaults()
	}
	args := parseArgs(fs, os.Args[2:])
	if len(args) != 1 {
		fs.Usage()
		os.Exit(1)
	}

	env := setup(*configPath, *output, *debug)
	defer env.Close()
	snap, err := env.components.Tracker.TrackConsensus(context.Background(), args[0])
	exitOnError("Track consensus", err)
	exitOnError("Output", cli.WriteSnapshot(os.Stdout, snap, env.format))
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath, output, debug := commonFlags(fs)
	limit := fs.Int("limit", 0, "number of snapshots (0 = all retained)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: linklore history [flags] <topic-id>\n\n")
		fs.PrintDefaults()
	}
	args := parseArgs(fs, os.Args[2:])
	if len(args) != 1 {
		fs.Usage()
		os.Exit(1)
	}

	env := setup(*configPath, *output, *debug)
	defer env.Close()
	snaps, err := env.components.Tracker.SnapshotHistory(context.Background(), args[0], *limit)
	exitOnError("Load history", err)
	exitOnError("Output", cli.WriteHistory(os.Stdout, snaps, env.format))
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath, output, debug := commonFlags(fs)
	all := fs.Bool("all", false, "analyze every pair in the topic")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: linklore analyze [flags] <topic-id> <user-a> <user-b>\n")
		fmt.Fprintf(fs.Output(), "       linklore analyze --all [flags] <topic-id>\n\n")
		fs.PrintDefaults()
	}
	args := parseArgs(fs, os.Args[2:])
	if (*all && len(args) != 1) || (!*all && len(args) != 3) {
		fs.Usage()
		os.Exit(1)
	}

	env := setup(*configPath, *output, *debug)
	defer env.Close()
	ctx := context.Background()
	topicID := args[0]

	if !*all {
		res, err := env.components.Analyzer.AnalyzePair(ctx, topicID, args[1], args[2])
		exitOnError("Analyze pair", err)
		exitOnError("Output", cli.WritePairResult(os.Stdout, args[1], args[2], res, env.format))
		return
	}

	results, err := env.components.Analyzer.AnalyzeTopic(ctx, topicID)
	exitOnError("Analyze topic", err)
	if env.format == cli.OutputJSON {
		exitOnError("Output", cli.WriteJSON(os.Stdout, results))
		return
	}
	if len(results) == 0 {
		fmt.Println("No user pairs.")
		return
	}
	for _, key := range sortedKeys(results) {
		userA, userB, _ := strings.Cut(key, "|")
		exitOnError("Output", cli.WritePairResult(os.Stdout, userA, userB, results[key], env.format))
	}
}

func sortedKeys(m map[string]*models.PairResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runPairs() {
	fs := flag.NewFlagSet("pairs", flag.ExitOnError)
	configPath, output, debug := commonFlags(fs)
	stored := fs.Bool("stored", false, "list analyzed pair records instead of identifying pairs")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: linklore pairs [flags] <topic-id>\n\n")
		fs.PrintDefaults()
	}
	args := parseArgs(fs, os.Args[2:])
	if len(args) != 1 {
		fs.Usage()
		os.Exit(1)
	}

	env := setup(*configPath, *output, *debug)
	defer env.Close()
	ctx := context.Background()
	if *stored {
		records, err := env.components.Analyzer.ListPairs(ctx, args[0])
		exitOnError("List pair records", err)
		exitOnError("Output", cli.WritePairRecords(os.Stdout, records, env.format))
		return
	}
	found, err := env.components.Identifier.IdentifyPairs(ctx, args[0])
	exitOnError("Identify pairs", err)
	exitOnError("Output", cli.WritePairs(os.Stdout, found, env.format))
}

func runSimilarity() {
	fs := flag.NewFlagSet("similarity", flag.ExitOnError)
	configPath, output, debug := commonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: linklore similarity [flags] <text1> <text2>\n\n")
		fs.PrintDefaults()
	}
	args := parseArgs(fs, os.Args[2:])
	if len(args) != 2 {
		fs.Usage()
		os.Exit(1)
	}

	env := setup(*configPath, *output, *debug)
	defer env.Close()
	res, err := env.components.Similarity.Similarity(context.Background(), args[0], args[1], nil)
	exitOnError("Similarity", err)
	if env.format == cli.OutputJSON {
		exitOnError("Output", cli.WriteJSON(os.Stdout, map[string]interface{}{
			"score":    res.Score,
			"strategy": res.Strategy,
			"cached":   res.Cached,
			"measured": res.Measured(),
		}))
		return
	}
	fmt.Printf("score:     %.4f\n", res.Score)
	fmt.Printf("strategy:  %s\n", res.Strategy)
	fmt.Printf("cached:    %t\n", res.Cached)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath, output, debug := commonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: linklore import [flags] <dump.yaml|dump.json>\n\n")
		fs.PrintDefaults()
	}
	args := parseArgs(fs, os.Args[2:])
	if len(args) != 1 {
		fs.Usage()
		os.Exit(1)
	}

	env := setup(*configPath, *output, *debug)
	defer env.Close()
	res, err := env.components.Importer.ImportFile(context.Background(), args[0])
	exitOnError("Import", err)
	if env.format == cli.OutputJSON {
		exitOnError("Output", cli.WriteJSON(os.Stdout, res))
		return
	}
	fmt.Printf("Imported topic %s: %d documents, %d evaluations, %d summaries, %d disagreements\n",
		res.TopicID, res.Documents, res.Evaluations, res.Summaries, res.Disagreements)
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath, _, debug := commonFlags(fs)
	out := fs.String("out", "", "output .xlsx path (default: <topic-id>-consensus.xlsx)")
	limit := fs.Int("limit", 0, "number of snapshots (0 = all retained)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: linklore export [flags] <topic-id>\n\n")
		fs.PrintDefaults()
	}
	args := parseArgs(fs, os.Args[2:])
	if len(args) != 1 {
		fs.Usage()
		os.Exit(1)
	}
	topicID := args[0]
	path := *out
	if path == "" {
		path = topicID + "-consensus.xlsx"
	}

	env := setup(*configPath, "text", *debug)
	defer env.Close()
	snaps, err := env.components.Tracker.SnapshotHistory(context.Background(), topicID, *limit)
	exitOnError("Load history", err)
	if len(snaps) == 0 {
		fmt.Fprintf(os.Stderr, "No snapshots for topic %s; run `linklore track %s` first\n", topicID, topicID)
		os.Exit(1)
	}
	exitOnError("Export", export.SaveSnapshotHistory(path, topicID, snaps))
	fmt.Printf("Exported %d snapshots to %s\n", len(snaps), path)
}

func runAIConfig() {
	if len(os.Args) < 3 {
		printAIConfigUsage()
		os.Exit(1)
	}
	switch os.Args[2] {
	case "set":
		runAIConfigSet(os.Args[3:])
	case "show":
		runAIConfigShow(os.Args[3:])
	default:
		printAIConfigUsage()
		os.Exit(1)
	}
}

func printAIConfigUsage() {
	fmt.Println(`Usage:
  linklore ai-config set --provider <name> --api-key <key> [--model m] [--embedding-model m] [--endpoint url]
  linklore ai-config show`)
}

func runAIConfigSet(args []string) {
	fs := flag.NewFlagSet("ai-config set", flag.ExitOnError)
	configPath, _, debug := commonFlags(fs)
	provider := fs.String("provider", "openai", "provider: openai, deepseek, or qwen")
	apiKey := fs.String("api-key", "", "provider API key (stored sealed)")
	model := fs.String("model", "", "chat model (default: provider default)")
	embeddingModel := fs.String("embedding-model", "", "embedding model (default: provider default)")
	endpoint := fs.String("endpoint", "", "API base URL (default: provider default)")
	_ = fs.Parse(args)
	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "--api-key is required")
		os.Exit(1)
	}

	env := setup(*configPath, "text", *debug)
	defer env.Close()
	if env.components.Sealer == nil {
		fmt.Fprintln(os.Stderr, "ai.sealing_secret (or LINKLORE_SEALING_SECRET) must be set to store API keys")
		os.Exit(1)
	}
	sealed, err := env.components.Sealer.Seal(*apiKey)
	exitOnError("Seal API key", err)

	rec := &models.AIConfig{
		ID:              uuid.New().String(),
		Provider:        *provider,
		Model:           *model,
		EmbeddingModel:  *embeddingModel,
		EncryptedAPIKey: sealed,
		Endpoint:        *endpoint,
		UpdatedAt:       time.Now().UTC(),
	}
	exitOnError("Save AI config", env.components.Storage.SaveAIConfig(context.Background(), rec))
	fmt.Printf("AI config saved: provider=%s model=%s\n", rec.Provider, (&ai.Credentials{Provider: rec.Provider, Model: rec.Model}).ChatModel())
}

func runAIConfigShow(args []string) {
	fs := flag.NewFlagSet("ai-config show", flag.ExitOnError)
	configPath, output, debug := commonFlags(fs)
	_ = fs.Parse(args)

	env := setup(*configPath, *output, *debug)
	defer env.Close()
	ctx := context.Background()
	rec, err := env.components.Storage.LatestAIConfig(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		rec = nil
	} else {
		exitOnError("Load AI config", err)
	}
	_, resolveErr := env.components.Resolver.Resolve(ctx)
	usable := resolveErr == nil

	if env.format == cli.OutputJSON {
		exitOnError("Output", cli.WriteJSON(os.Stdout, map[string]interface{}{
			"stored":          rec,
			"stored_usable":   usable,
			"default_present": env.components.Resolver.Default() != nil,
		}))
		return
	}
	if rec == nil {
		fmt.Println("stored:           none")
	} else {
		fmt.Printf("stored:           %s (%s), updated %s\n", rec.Provider, rec.ID, rec.UpdatedAt.Format(time.RFC3339))
		fmt.Printf("stored_usable:    %t\n", usable)
	}
	fmt.Printf("default_present:  %t\n", env.components.Resolver.Default() != nil)
}

// statusResponse mirrors GET /api/v1/status.
type statusResponse struct {
	Counts         *storage.Stats        `json:"counts"`
	Config         *statusConfigResponse `json:"config,omitempty"`
	DiskUsageBytes *int64                `json:"disk_usage_bytes,omitempty"`
}

type statusConfigResponse struct {
	DatabasePath    string   `json:"database_path"`
	CacheBackend    string   `json:"cache_backend"`
	AIProvider      string   `json:"ai_provider"`
	AIDefaultCreds  bool     `json:"ai_default_creds"`
	RetainSnapshots int      `json:"retain_snapshots"`
	Rubrics         []string `json:"rubrics"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status *statusResponse
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		env := setup(*configPath, *outputFormat, false)
		defer env.Close()
		status, err = localStatus(context.Background(), env.cfg, env.components.Storage)
		exitOnError("Status", err)
	}

	if format == cli.OutputJSON {
		exitOnError("Output", cli.WriteJSON(os.Stdout, status))
		return
	}
	writeStatusText(os.Stdout, status)
}

func localStatus(ctx context.Context, cfg *config.Config, store storage.Storage) (*statusResponse, error) {
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	rubrics := make([]string, 0, len(cfg.Quality.Rubrics))
	for name := range cfg.Quality.Rubrics {
		rubrics = append(rubrics, name)
	}
	sort.Strings(rubrics)
	status := &statusResponse{
		Counts: stats,
		Config: &statusConfigResponse{
			DatabasePath:    cfg.Storage.DatabasePath,
			CacheBackend:    cfg.Cache.Backend,
			AIProvider:      cfg.AI.Provider,
			AIDefaultCreds:  cfg.AI.APIKey != "",
			RetainSnapshots: cfg.Consensus.RetainSnapshots,
			Rubrics:         rubrics,
		},
	}
	if size, err := storage.DatabaseSizeBytes(cfg.Storage.DatabasePath); err == nil {
		status.DiskUsageBytes = &size
	}
	return status, nil
}

func writeStatusText(w io.Writer, status *statusResponse) {
	if c := status.Counts; c != nil {
		fmt.Fprintf(w, "documents:          %d\n", c.Documents)
		fmt.Fprintf(w, "evaluations:        %d\n", c.Evaluations)
		fmt.Fprintf(w, "summaries:          %d\n", c.Summaries)
		fmt.Fprintf(w, "disagreements:      %d\n", c.Disagreements)
		fmt.Fprintf(w, "pairs:              %d   # analyzed pair records\n", c.Pairs)
		fmt.Fprintf(w, "snapshots:          %d   # topic consensus snapshots\n", c.Snapshots)
	}
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d\n", *status.DiskUsageBytes)
	}
	if c := status.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
		}
		fmt.Fprintf(w, "cache_backend:      %s\n", c.CacheBackend)
		fmt.Fprintf(w, "ai_provider:        %s\n", c.AIProvider)
		fmt.Fprintf(w, "ai_default_creds:   %t\n", c.AIDefaultCreds)
		fmt.Fprintf(w, "retain_snapshots:   %d\n", c.RetainSnapshots)
		if len(c.Rubrics) > 0 {
			fmt.Fprintf(w, "rubrics:            %s\n", strings.Join(c.Rubrics, ", "))
		}
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path to write")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	if _, err := os.Stat(*configPath); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "%s already exists; use --force to overwrite\n", *configPath)
		os.Exit(1)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if err := config.Save(*configPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written to %s\n", *configPath)
}

// Components holds initialized services.
type Components struct {
	Storage    *storage.SQLiteStorage
	Cache      cache.Cache
	Sealer     *secrets.Sealer
	Resolver   *ai.Resolver
	Client     *ai.Client
	Similarity *similarity.Service
	Gate       *quality.Gate
	Identifier *pairs.Identifier
	Analyzer   *consensus.PairAnalyzer
	Tracker    *consensus.TopicTracker
	Importer   *ingest.Importer
}

func (c *Components) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	simCache, err := cache.New(cfg.Cache.Backend, cfg.Cache.Capacity, cfg.Cache.RedisURL)
	if err != nil {
		// The cache only saves provider calls; run without it rather than fail.
		logger.Warn("similarity cache unavailable, continuing without cache",
			zap.String("backend", cfg.Cache.Backend),
			zap.Error(err))
		simCache = cache.NopCache{}
	}

	var sealer *secrets.Sealer
	if cfg.AI.SealingSecret != "" {
		sealer, err = secrets.NewSealer(cfg.AI.SealingSecret)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize sealer: %w", err)
		}
	}

	resolver := ai.NewResolver(store, sealer, cfg.AI.Credentials(), logger)
	client := ai.NewClient(cfg.AI.Timeout, ai.WithLogger(logger))
	simService := similarity.NewService(simCache, client, client, resolver,
		similarity.WithLogger(logger),
		similarity.WithCacheTTL(cfg.Cache.TTL),
		similarity.WithBatchSize(cfg.Similarity.BatchSize),
	)
	gate := quality.NewGate(&cfg.Quality)

	consensusOpts := []consensus.Option{
		consensus.WithLogger(logger),
		consensus.WithConfig(&cfg.Consensus),
	}

	return &Components{
		Storage:    store,
		Cache:      simCache,
		Sealer:     sealer,
		Resolver:   resolver,
		Client:     client,
		Similarity: simService,
		Gate:       gate,
		Identifier: pairs.NewIdentifier(store, logger),
		Analyzer:   consensus.NewPairAnalyzer(store, gate, simService, client, resolver, consensusOpts...),
		Tracker:    consensus.NewTopicTracker(store, gate, consensusOpts...),
		Importer:   ingest.NewImporter(store, ingest.WithLogger(logger)),
	}, nil
}

func printUsage() {
	fmt.Println(`linklore - Consensus and disagreement analysis for discussion topics

Usage:
  linklore server [flags]                         Start the HTTP server
  linklore import [flags] <file>                  Import a topic dump (yaml or json)
  linklore track [flags] <topic>                  Record a topic consensus snapshot
  linklore history [flags] <topic>                Show stored snapshots, newest first
  linklore analyze [flags] <topic> <user> <user>  Analyze one user pair
  linklore analyze --all [flags] <topic>          Analyze every user pair in a topic
  linklore pairs [flags] <topic>                  List user pairs connected by replies
  linklore similarity [flags] <text1> <text2>     Score semantic similarity of two texts
  linklore export [flags] <topic>                 Export snapshot history to .xlsx
  linklore ai-config <set|show>                   Manage stored provider credentials
  linklore status [flags]                         Show storage counts and configuration
  linklore init [flags]                           Write a default config file
  linklore version                                Show version
  linklore help                                   Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/linklore/config.yaml)
  --output string    Output format: text or json (default: text)
  --debug            Enable debug logging

Other Flags:
  analyze --all      Analyze all pairs in the topic
  pairs --stored     List analyzed pair records instead of identified pairs
  history --limit    Number of snapshots (default: all retained)
  export --out       Output path (default: <topic>-consensus.xlsx)
  status --server    Server URL; empty uses direct storage

Environment:
  LINKLORE_AI_API_KEY / OPENAI_API_KEY   Default provider API key
  LINKLORE_AI_PROVIDER                   openai, deepseek, or qwen
  LINKLORE_SEALING_SECRET                Secret for sealing stored API keys
  LINKLORE_REDIS_URL                     Use the redis similarity cache
  LINKLORE_DATABASE_PATH                 SQLite database path

Examples:
  linklore import topic.yaml
  linklore track topic-1
  linklore analyze topic-1 alice bob --output json
  linklore analyze --all topic-1
  linklore export topic-1 --out topic-1.xlsx
  linklore status --server http://localhost:8080`)
}

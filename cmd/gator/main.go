// Package main is the gator CLI entry point.
package main

import (
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

	"github.com/google/uuid"

	"github.com/gator-life/gator/internal/config"
	"github.com/gator-life/gator/internal/crawler"
	"github.com/gator-life/gator/internal/models"
	"github.com/gator-life/gator/internal/orchestrator"
	"github.com/gator-life/gator/internal/profile"
	"github.com/gator-life/gator/internal/server"
	"github.com/gator-life/gator/internal/storage"
	"github.com/gator-life/gator/internal/topicmodel"
	"github.com/gator-life/gator/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/gator/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
	}
	return config.Load(path)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "train":
		runTrain()
	case "run":
		runLoop()
	case "adduser":
		runAddUser()
	case "feedback":
		runFeedback()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("gator version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func mustLogger(cfg *config.Config, debugFlag bool) *zap.Logger {
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// runTrain trains the topic model offline from a directory of HTML or text
// files and persists the snapshot. The model is immutable afterwards; the loop
// only reads it.
func runTrain() {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	numTopics := fs.Int("topics", 0, "number of topics (default from config)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: gator train [flags] <corpus-dir>")
		os.Exit(1)
	}
	corpusDir := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := mustLogger(cfg, false)
	defer logger.Sync()

	topics := cfg.Model.NumTopics
	if *numTopics > 0 {
		topics = *numTopics
	}

	tokenizer := topicmodel.NewHTMLTokenizer()
	var tokenized [][]string
	err = filepath.WalkDir(corpusDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm", ".txt":
		default:
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read corpus file %s: %w", path, err)
		}
		tokens := tokenizer.Tokenize(string(content))
		if len(tokens) > 0 {
			tokenized = append(tokenized, tokens)
		}
		return nil
	})
	if err != nil {
		logger.Fatal("corpus read failed", zap.Error(err))
	}
	logger.Info("corpus tokenized", zap.Int("documents", len(tokenized)), zap.Int("topics", topics))

	model := topicmodel.New(tokenizer)
	if err := model.Train(tokenized, topics); err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}
	if err := model.Save(cfg.Model.Path); err != nil {
		logger.Fatal("model save failed", zap.Error(err))
	}
	logger.Info("model trained",
		zap.String("model_id", model.ModelID()),
		zap.String("path", cfg.Model.Path))
}

// runLoop starts the background service: production mode loops forever,
// --once or --replay runs exactly one cycle and returns.
func runLoop() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	once := fs.Bool("once", false, "run exactly one cycle and exit")
	replayFile := fs.String("replay", "", "recorded fetch sequence (JSON); implies --once")
	usersPrefix := fs.String("users-prefix", "", "grade only users whose email starts with this prefix")
	maxDocs := fs.Int("max-docs", 0, "cap classified documents per cycle (0 = unbounded)")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := mustLogger(cfg, *debug)
	defer logger.Sync()

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	// An unreadable model snapshot is fatal: nothing can be classified without it.
	model := topicmodel.New(topicmodel.NewHTMLTokenizer())
	if err := model.Load(cfg.Model.Path); err != nil {
		logger.Fatal("failed to load topic model", zap.String("path", cfg.Model.Path), zap.Error(err))
	}
	logger.Info("topic model loaded",
		zap.String("model_id", model.ModelID()),
		zap.Int("topics", model.NumTopics()))

	var source crawler.Source
	if *replayFile != "" {
		replay, err := crawler.NewReplaySource(*replayFile)
		if err != nil {
			logger.Fatal("failed to load replay file", zap.Error(err))
		}
		source = replay
		*once = true
	} else {
		source = crawler.NewHTTPSource(crawler.HTTPSourceConfig{
			SeedURLs:  cfg.Crawler.SeedURLs,
			RateLimit: cfg.Crawler.RateLimit,
			Timeout:   time.Duration(cfg.Crawler.TimeoutSeconds) * time.Second,
		}, crawler.WithLogger(logger))
	}

	opts := []orchestrator.Option{orchestrator.WithLogger(logger)}
	if *usersPrefix != "" {
		prefix := *usersPrefix
		opts = append(opts, orchestrator.WithSkipUser(func(u *models.User) bool {
			return !strings.HasPrefix(u.Email, prefix)
		}))
	}
	orch := orchestrator.New(store, model, source, orchestrator.Config{
		DocsChunkSize:      cfg.Pipeline.DocsChunkSize,
		UserDocsMaxSize:    cfg.Pipeline.UserDocsMaxSize,
		DedupHorizon:       time.Duration(cfg.Pipeline.DedupHorizonDays) * 24 * time.Hour,
		GradingConcurrency: cfg.Pipeline.GradingConcurrency,
		RetryAttempts:      cfg.Pipeline.RetryAttempts,
		RetryBackoff:       time.Duration(cfg.Pipeline.RetryBackoffMillis) * time.Millisecond,
		MaxDocsPerCycle:    *maxDocs,
	}, opts...)

	srv := server.NewServer(store, model.ModelID(), cfg.Storage.DatabasePath, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Warn("status server stopped", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutting down...")
		cancel()
	}()

	if *once {
		err = orch.RunOnce(ctx)
	} else {
		err = orch.Run(ctx)
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if err != nil && err != context.Canceled {
		logger.Fatal("pipeline stopped", zap.Error(err))
	}
}

// runAddUser registers a user with an empty profile bound to the current
// model generation.
func runAddUser() {
	fs := flag.NewFlagSet("adduser", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	email := fs.String("email", "", "user email (required)")
	interests := fs.String("interests", "", "comma-separated interests")
	_ = fs.Parse(os.Args[2:])

	if *email == "" {
		fmt.Println("Usage: gator adduser --email <email> [--interests a,b,c]")
		os.Exit(1)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := mustLogger(cfg, false)
	defer logger.Sync()

	model := topicmodel.New(nil)
	if err := model.Load(cfg.Model.Path); err != nil {
		logger.Fatal("failed to load topic model", zap.Error(err))
	}
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	user := &models.User{
		ID:    uuid.New().String(),
		Email: *email,
	}
	if *interests != "" {
		for _, interest := range strings.Split(*interests, ",") {
			if trimmed := strings.TrimSpace(interest); trimmed != "" {
				user.Interests = append(user.Interests, trimmed)
			}
		}
	}
	ctx := context.Background()
	if err := store.SaveUser(ctx, user); err != nil {
		logger.Fatal("failed to save user", zap.Error(err))
	}
	state := models.NewProfileState(model.ModelID(), model.NumTopics())
	if err := store.SaveProfile(ctx, user.ID, state); err != nil {
		logger.Fatal("failed to save profile", zap.Error(err))
	}
	fmt.Printf("User created: %s (%s)\n", user.Email, user.ID)
}

// runFeedback records a positive or negative feedback event for a user on an
// already-classified document.
func runFeedback() {
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	email := fs.String("email", "", "user email (required)")
	url := fs.String("url", "", "document url (required)")
	signal := fs.String("signal", "positive", "feedback signal: positive or negative")
	_ = fs.Parse(os.Args[2:])

	if *email == "" || *url == "" {
		fmt.Println("Usage: gator feedback --email <email> --url <url> [--signal positive|negative]")
		os.Exit(1)
	}
	var sig profile.Signal
	switch *signal {
	case "positive":
		sig = profile.Positive
	case "negative":
		sig = profile.Negative
	default:
		fmt.Printf("Unknown signal %q; use positive or negative\n", *signal)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := mustLogger(cfg, false)
	defer logger.Sync()

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	user, err := store.GetUserByEmail(ctx, *email)
	if err != nil {
		logger.Fatal("user lookup failed", zap.String("email", *email), zap.Error(err))
	}
	doc, err := store.GetDocument(ctx, models.URLHash(*url))
	if err != nil {
		logger.Fatal("document lookup failed", zap.String("url", *url), zap.Error(err))
	}
	state, err := store.GetProfile(ctx, user.ID)
	if err != nil {
		logger.Fatal("profile lookup failed", zap.Error(err))
	}
	next, err := profile.RecordFeedback(state, doc.FeatureVector, sig)
	if err != nil {
		logger.Fatal("feedback rejected", zap.Error(err))
	}
	if err := store.SaveProfile(ctx, user.ID, next); err != nil {
		logger.Fatal("failed to save profile", zap.Error(err))
	}
	fmt.Printf("Feedback recorded: %s %s %s\n", user.Email, *signal, doc.URLHash)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status server.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("documents:  %d\n", status.Documents)
	fmt.Printf("users:      %d\n", status.Users)
	fmt.Printf("model_id:   %s\n", status.ModelID)
	if status.DiskUsageBytes != nil {
		fmt.Printf("disk_bytes: %d\n", *status.DiskUsageBytes)
	}
}

func printUsage() {
	fmt.Println(`gator - personalized document pipeline

Usage:
  gator train [flags] <corpus-dir>   Train the topic model from a document corpus
  gator run [flags]                  Start the scrape-classify-grade loop
  gator adduser [flags]              Register a user with an empty profile
  gator feedback [flags]             Record document feedback for a user
  gator status [flags]               Show pipeline status
  gator version                      Show version
  gator help                         Show this help

Train Flags:
  --config string   Config file path (default: /usr/local/etc/gator/config.yaml)
  --topics int      Number of topics (default from config)

Run Flags:
  --config string        Config file path
  --debug                Enable debug logging (dedup drops, classification failures, etc.)
  --once                 Run exactly one cycle and exit
  --replay string        Recorded fetch sequence (JSON file); implies --once
  --users-prefix string  Grade only users whose email starts with this prefix
  --max-docs int         Cap classified documents per cycle

Examples:
  gator train ./corpus
  gator run
  gator run --once --replay fixtures/fetch.json --users-prefix test_ --max-docs 10
  gator adduser --email alice@example.com --interests go,distributed-systems
  gator feedback --email alice@example.com --url https://example.com/post --signal positive
  gator status`)
}

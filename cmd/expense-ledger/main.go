package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"expense-ledger/internal/config"
	"expense-ledger/internal/expense"
	"expense-ledger/internal/receipt"
	"expense-ledger/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	defaults := config.Default()

	fs := ff.NewFlagSet("expense-ledger")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "expense-ledger.db", "SQLite database file path")
		uploadsPath = fs.StringLong("uploads", "./uploads", "Receipt upload directory path")
		provider    = fs.StringLong("ai-provider", defaults.AIProvider, "AI provider: 'gemini', 'openai' or 'testing'")
		googleKey   = fs.StringLong("google-key", "", "Google Gemini API key (or set EXPENSE_LEDGER_GOOGLE_KEY)")
		geminiModel = fs.StringLong("gemini-model", defaults.GeminiModel, "Google Gemini model name")
		openaiKey   = fs.StringLong("openai-key", "", "OpenAI API key (or set EXPENSE_LEDGER_OPENAI_KEY)")
		openaiModel = fs.StringLong("openai-model", defaults.OpenAIModel, "OpenAI model name")
		openaiURL   = fs.StringLong("openai-base-url", defaults.OpenAIBaseURL, "OpenAI API base URL")
		categories  = fs.StringLong("categories", strings.Join(defaults.ExpenseCategories, ","), "Comma-separated expense categories")
		retention   = fs.IntLong("upload-retention-minutes", defaults.UploadRetentionMinutes, "Delete uploaded receipt images older than this many minutes")
		maxDim      = fs.IntLong("max-image-dimension", defaults.MaxImageDimension, "Maximum stored image dimension in pixels")
		jpegQuality = fs.IntLong("jpeg-quality", defaults.JPEGQuality, "JPEG re-encode quality (1-100)")
		scanWorkers = fs.IntLong("scan-workers", 0, "Concurrent provider calls (0 = default)")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_LEDGER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := defaults
	cfg.AIProvider = *provider
	cfg.GoogleAPIKey = *googleKey
	cfg.GeminiModel = *geminiModel
	cfg.OpenAIKey = *openaiKey
	cfg.OpenAIModel = *openaiModel
	cfg.OpenAIBaseURL = *openaiURL
	cfg.UploadRetentionMinutes = *retention
	cfg.MaxImageDimension = *maxDim
	cfg.JPEGQuality = *jpegQuality
	if cats := splitCategories(*categories); len(cats) > 0 {
		cfg.ExpenseCategories = cats
	}
	cell := config.NewCell(cfg)

	slog.Info("Initializing database...", "path", *dbPath)
	expenses, err := expense.NewStore(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer expenses.Close()

	slog.Info("Initializing upload storage...", "path", *uploadsPath)
	store, err := receipt.NewStore(*uploadsPath, "/uploads")
	if err != nil {
		slog.Error("Failed to initialize upload storage", "error", err)
		os.Exit(1)
	}

	normalizer := receipt.NewNormalizer(store,
		cfg.MaxImageDimension,
		cfg.JPEGQuality,
		time.Duration(cfg.UploadRetentionMinutes)*time.Minute,
	)

	// The scanner is built per scan from the current snapshot, so a
	// provider change takes effect on the next upload.
	factory := func() (scanning.Scanner, error) {
		c := cell.Load()
		return scanning.NewScanner(scanning.Config{
			Provider:      c.AIProvider,
			GoogleAPIKey:  c.GoogleAPIKey,
			GeminiModel:   c.GeminiModel,
			OpenAIKey:     c.OpenAIKey,
			OpenAIModel:   c.OpenAIModel,
			OpenAIBaseURL: c.OpenAIBaseURL,
			Categories:    c.ExpenseCategories,
		})
	}

	service := receipt.NewService(store, normalizer, factory, *scanWorkers)
	defer service.Close()

	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(service, expenses, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "provider", cfg.AIProvider)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

func splitCategories(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

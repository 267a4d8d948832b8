// Niko is a conversational agent that recommends content matching the
// user's mood.
//
// It exposes a small HTTP API and a CLI for one-shot messages.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]); when no file exists,
// built-in defaults apply.
//
// Usage:
//
//	niko serve               Start the API server
//	niko chat <message>      Send a single message (for testing)
//	niko version             Print version and build information
//	niko -o json version     Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/moodniko/niko-agent/internal/agent"
	"github.com/moodniko/niko-agent/internal/api"
	"github.com/moodniko/niko-agent/internal/archive"
	"github.com/moodniko/niko-agent/internal/buildinfo"
	"github.com/moodniko/niko-agent/internal/config"
	"github.com/moodniko/niko-agent/internal/connwatch"
	"github.com/moodniko/niko-agent/internal/content"
	"github.com/moodniko/niko-agent/internal/llm"
	"github.com/moodniko/niko-agent/internal/mood"
	"github.com/moodniko/niko-agent/internal/recommend"
	"github.com/moodniko/niko-agent/internal/session"
	"github.com/moodniko/niko-agent/internal/tools"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the niko command. All OS-level
// dependencies are injected as parameters so tests can drive the
// lifecycle. args is os.Args[1:]; arguments are parsed by hand because
// the flag package relies on package-level globals that interfere with
// parallel tests.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	// Local .env files hold API keys during development. A missing file
	// is the normal production case.
	_ = godotenv.Load()

	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "chat":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: niko chat <message>")
		}
		return runChat(ctx, stdout, configPath, cmdArgs)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runServe boots the full agent and serves the HTTP API until the
// process receives SIGINT or SIGTERM.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo)
	logger.Info("starting Niko",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"built", buildinfo.BuildTime,
	)

	cfg, cfgPath, err := loadConfig(configPath, logger)
	if err != nil {
		return err
	}

	// Reconfigure the logger now that the desired level is known. The
	// initial Info-level logger covers only the startup banner.
	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = newLogger(stdout, level)
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"model", cfg.Models.Default,
		"content_api", cfg.Moodniko.BaseURL,
	)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	// Transcript archive. Live sessions are in-memory and expire; this
	// SQLite database is the durable record.
	archivePath := filepath.Join(cfg.DataDir, "archive.db")
	archiveStore, err := archive.Open(archivePath, logger)
	if err != nil {
		return fmt.Errorf("open archive database %s: %w", archivePath, err)
	}
	defer archiveStore.Close()
	logger.Info("archive database opened", "path", archivePath)

	loop, contentClient := buildLoop(cfg, logger, archiveStore)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background health monitoring with backoff. An unreachable
	// dependency is a warning, not a startup failure: turns degrade to
	// the fallback reply until the model comes back, and the content
	// tools report their own failures.
	connMgr := connwatch.NewManager(logger)
	defer connMgr.Stop()
	connMgr.Watch(ctx, connwatch.WatcherConfig{
		Name:    "model",
		Probe:   loop.Ping,
		Backoff: connwatch.DefaultBackoffConfig(),
	})
	connMgr.Watch(ctx, connwatch.WatcherConfig{
		Name:    "content-api",
		Probe:   contentClient.Ping,
		Backoff: connwatch.DefaultBackoffConfig(),
	})

	server := api.NewServer(fmt.Sprintf("%s:%d", cfg.Listen.Address, cfg.Listen.Port), loop, logger)
	server.SetArchiveStore(archiveStore)
	server.SetWatchManager(connMgr)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runChat handles "niko chat <message>": one full conversation turn
// without the HTTP server, printing the reply to stdout. Useful for
// smoke tests and debugging.
func runChat(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	logger := newLogger(stdout, slog.LevelWarn)

	cfg, _, err := loadConfig(configPath, logger)
	if err != nil {
		return err
	}

	// One-shot turns have nothing worth archiving.
	loop, _ := buildLoop(cfg, logger, nil)

	reply, err := loop.Chat(ctx, "cli", strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	fmt.Fprintln(stdout, reply)
	return nil
}

// buildLoop wires the conversation engine from configuration. The
// content client is returned alongside the loop so the caller can
// register health probes on it.
func buildLoop(cfg *config.Config, logger *slog.Logger, archiveStore *archive.Store) (*agent.Loop, *content.Client) {
	sessions := session.NewStore(cfg.SessionTimeout(), cfg.Session.HistoryLimit)
	extractor := mood.NewExtractor(sessions, logger)
	tracker := recommend.NewTracker()

	contentClient := content.NewClient(cfg.Moodniko.BaseURL, cfg.ContentTimeout(), logger)
	registry := tools.NewRegistry(sessions, contentClient, tracker, cfg.Session.BatchSize, logger)

	llmClient := createLLMClient(cfg, logger)

	loop := agent.NewLoop(llmClient, cfg.Models.Default, sessions, extractor, registry, tracker, archiveStore, logger)
	return loop, contentClient
}

// createLLMClient builds a multi-provider LLM client. Ollama is the
// default backend; Anthropic is routed by model name prefix when an API
// key is configured.
func createLLMClient(cfg *config.Config, logger *slog.Logger) llm.Client {
	ollamaClient := llm.NewOllamaClient(cfg.Models.OllamaURL, logger)

	multi := llm.NewMultiClient(ollamaClient)
	multi.AddProvider("ollama", ollamaClient)

	if cfg.Anthropic.Configured() {
		multi.AddProvider("anthropic", llm.NewAnthropicClient(cfg.Anthropic.APIKey, logger))
		multi.AddPrefix("claude", "anthropic")
		logger.Info("Anthropic provider configured")
	}

	return multi
}

// loadConfig locates and parses the YAML configuration. An explicit
// path must exist; otherwise the default search paths are tried and a
// complete miss falls back to built-in defaults.
func loadConfig(explicit string, logger *slog.Logger) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, "", err
		}
		logger.Info("no config file found, using defaults")
		return config.Default(), "(defaults)", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Niko - Mood-Based Content Recommendation Agent")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: niko [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  chat         Send a single message (for testing)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/niko/config.yaml, /etc/niko/config.yaml")
	return nil
}

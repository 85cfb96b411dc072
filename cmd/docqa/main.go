// Package main is the docqa CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hyperjump/docqa/internal/cli"
	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/functions"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/server"
	"github.com/hyperjump/docqa/internal/tui"
	"github.com/hyperjump/docqa/internal/watcher"
	"github.com/hyperjump/docqa/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

const defaultServerURL = "http://localhost:8080"

// configCandidates lists where loadConfig looks when no path is given.
func configCandidates() []string {
	paths := []string{"config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "docqa", "config.yaml"))
	}
	return paths
}

// loadConfig loads config from path. With an empty path it tries ./config.yaml,
// then ~/.config/docqa/config.yaml, and otherwise uses the defaults with paths
// relative to the working directory. Returns the config and the path loaded
// ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	for _, candidate := range configCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			cfg, err := config.Load(candidate)
			if err != nil {
				return nil, "", err
			}
			return cfg, candidate, nil
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	config.ExpandPaths(cfg, cwd)
	return cfg, "", nil
}

func main() {
	// .env may carry API keys; a missing file is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "retrieve":
		runRetrieve()
	case "reload":
		runReload()
	case "status":
		runStatus()
	case "functions":
		runFunctions()
	case "chat":
		runChat()
	case "version", "--version", "-v":
		fmt.Printf("docqa version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go components.Scheduler.Run(ctx)
	components.Scheduler.TriggerNow()

	if cfg.Watch.EnabledOrDefault() {
		paths := make([]string, len(cfg.Corpus.Roots))
		for i, r := range cfg.Corpus.Roots {
			paths[i] = r.Path
		}
		w := watcher.New(paths, cfg.Corpus.Extensions, func(path string) {
			logger.Debug("corpus changed", zap.String("path", path))
			components.Scheduler.Notify()
		}, watcher.WithLogger(logger))
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(server.Deps{
		QA:        components.QA,
		Retriever: components.Retriever,
		Index:     components.Index.Store(),
		Rebuilds:  components.Scheduler,
		Storage:   components.Storage,
		Lister:    components.Scanner,
		Corpus:    &cfg.Corpus,
		Functions: components.Functions,
		Logger:    logger,
	}, &cfg.Server)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// joinArgs joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the
// positional text to the front so that flag.Parse() sees them.
func argsReorder(args []string) []string {
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

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseFormat(s)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return format
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	strategy := fs.String("strategy", "", "prompt strategy (default from server config)")
	topFolders := fs.Int("top-folders", 0, "number of folders to search (0 = server default)")
	topChunks := fs.Int("top-chunks", 0, "chunks per folder (0 = server default)")
	thinking := fs.Bool("thinking", false, "show the model's reasoning when present")
	output := fs.String("output", "text", "output format: text or json")
	timeout := fs.Duration("timeout", 6*time.Minute, "request timeout")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: docqa ask [flags] <question>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	question := joinArgs(fs.Args())
	if question == "" {
		fs.Usage()
		os.Exit(1)
	}
	format := parseFormat(*output)

	client := cli.NewClient(*serverURL, *timeout)
	resp, err := client.Ask(context.Background(), models.AskRequest{
		Question:   question,
		Strategy:   *strategy,
		TopFolders: *topFolders,
		TopChunks:  *topChunks,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, resp, format, *thinking); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// runRetrieve queries a running server, or with -local builds the index
// in-process and retrieves from it.
func runRetrieve() {
	fs := flag.NewFlagSet("retrieve", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (local mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL")
	local := fs.Bool("local", false, "build the index in-process instead of calling the server")
	topFolders := fs.Int("top-folders", 0, "number of folders to search (0 = default)")
	topChunks := fs.Int("top-chunks", 0, "chunks per folder (0 = default)")
	output := fs.String("output", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging (local mode)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: docqa retrieve [flags] <query>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	query := joinArgs(fs.Args())
	if query == "" {
		fs.Usage()
		os.Exit(1)
	}
	format := parseFormat(*output)
	req := models.RetrieveRequest{Query: query, TopFolders: *topFolders, TopChunks: *topChunks}

	if !*local {
		resp, err := cli.NewClient(*serverURL, time.Minute).Retrieve(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Retrieve failed: %v (use -local when no server is running)\n", err)
			os.Exit(1)
		}
		_ = cli.WriteRetrieval(os.Stdout, resp, format)
		return
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if err := components.Index.Rebuild(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Index build failed: %v\n", err)
		os.Exit(1)
	}
	if req.TopFolders == 0 {
		req.TopFolders = cfg.Retrieval.TopFolders
	}
	if req.TopChunks == 0 {
		req.TopChunks = cfg.Retrieval.TopChunksPerFolder
	}
	start := time.Now()
	results := components.Retriever.Retrieve(ctx, req.Query, req.TopFolders, req.TopChunks)
	resp := &models.RetrieveResponse{Query: query, Results: make([]models.Chunk, len(results)), Total: len(results)}
	for i, r := range results {
		resp.Results[i] = models.Chunk{Root: r.Root, Folder: r.Folder, Filename: r.Filename, Score: r.Score, Text: r.Text}
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	_ = cli.WriteRetrieval(os.Stdout, resp, format)
}

func runReload() {
	fs := flag.NewFlagSet("reload", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[2:])

	if err := cli.NewClient(*serverURL, 30*time.Second).Reload(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Reload failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Rebuild scheduled")
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := parseFormat(*output)
	st, err := cli.NewClient(*serverURL, 30*time.Second).Status(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteStatus(os.Stdout, st, format)
}

// parseCallArgs turns key=value pairs into function arguments.
func parseCallArgs(pairs []string) (map[string]interface{}, error) {
	args := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", p)
		}
		args[key] = functions.ParseValue(value)
	}
	return args, nil
}

func runFunctions() {
	fs := flag.NewFlagSet("functions", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: docqa functions [flags] [name key=value ...]\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format := parseFormat(*output)
	client := cli.NewClient(*serverURL, 30*time.Second)
	if fs.NArg() == 0 {
		list, err := client.Functions(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Listing functions failed: %v\n", err)
			os.Exit(1)
		}
		_ = cli.WriteFunctions(os.Stdout, list, format)
		return
	}

	args, err := parseCallArgs(fs.Args()[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	res, err := client.CallFunction(context.Background(), fs.Arg(0), args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Function call failed: %v\n", err)
		os.Exit(1)
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
		return
	}
	fmt.Printf("%s = %s\n", res.Function, functions.FormatResult(res.Result))
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	strategy := fs.String("strategy", "direct", "initial prompt strategy")
	timeout := fs.Duration("timeout", 6*time.Minute, "per-question timeout")
	_ = fs.Parse(os.Args[2:])

	client := cli.NewClient(*serverURL, *timeout)
	p := tea.NewProgram(tui.New(client, *strategy, *timeout), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`docqa - Question answering over local document folders

Usage:
  docqa server [flags]             Start the HTTP server, index builder and watcher
  docqa ask [flags] <question>     Ask a question via the server
  docqa retrieve [flags] <query>   Show the chunks retrieval would use
  docqa reload [flags]             Rebuild the index now
  docqa status [flags]             Show index status
  docqa functions [name k=v ...]   List helper functions, or call one
  docqa chat [flags]               Interactive chat in the terminal
  docqa version                    Show version
  docqa help                       Show this help

Server Flags:
  --config string    Config file path (default: ./config.yaml, then ~/.config/docqa/config.yaml)
  --debug            Enable debug logging

Ask Flags:
  --server string      Server URL (default: http://localhost:8080)
  --strategy string    direct, detailed, chain_of_thought, reasoning, analytical,
                       comparative, extractive or eli5
  --top-folders int    Folders to search
  --top-chunks int     Chunks per folder
  --thinking           Show the model's reasoning
  --output string      text or json

Retrieve Flags:
  --local              Build the index in-process (no server needed)
  --config string      Config file path (local mode)
  --output string      text or json

Examples:
  docqa server
  docqa ask "How many vacation days do employees get?"
  docqa ask --strategy eli5 what is our refund policy
  docqa retrieve --local --top-folders 1 bearer tokens
  docqa status --output json
  docqa functions math/add a=15 b=27
  docqa chat`)
}

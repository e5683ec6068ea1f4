// ABOUTME: Interactive terminal client for the Fluxora chat API
// ABOUTME: Wires config, auth, cache, gateway, and the sync manager into a readline loop

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/aakashjammula/fluxora-cli/internal/auth"
	"github.com/aakashjammula/fluxora-cli/internal/cache"
	"github.com/aakashjammula/fluxora-cli/internal/chat"
	"github.com/aakashjammula/fluxora-cli/internal/config"
	"github.com/aakashjammula/fluxora-cli/internal/gateway"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "Path to config file")
	server := flag.String("server", "", "API base URL (overrides config)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.API.BaseURL = *server
	}

	setupLogging(cfg, *verbose)

	tokens, err := auth.NewFileTokenStore(cfg.Auth.TokenFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	gw := gateway.New(cfg.API.BaseURL, tokens, cfg.API.RequestTimeout)

	var history chat.HistoryCache = chat.NoCache{}
	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		// The cache is a warm-start optimization; run without it.
		slog.Warn("transcript cache unavailable", "path", cfg.Cache.Path, "error", err)
	} else {
		history = store
		defer store.Close()
	}

	logout := func() {
		if err := tokens.Clear(); err != nil {
			slog.Warn("failed to clear stored token", "error", err)
		}
		color.Red("Session expired. Use /login <token> to authenticate.")
	}

	manager := chat.NewManager(gw, history, logout, slog.Default())

	fmt.Printf("fluxora connected to %s\n", cfg.API.BaseURL)
	token := tokens.Token()
	switch {
	case token == "":
		fmt.Println("Auth: none (use /login <token> or set " + auth.EnvToken + ")")
	case auth.Expired(token):
		color.Yellow("Auth: stored token is expired, expect a login prompt")
	default:
		fmt.Println("Auth: token configured")
	}
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := manager.RefreshThreads(ctx); err != nil {
		slog.Warn("initial thread refresh failed", "error", err)
	}

	if err := run(ctx, manager, tokens); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

// run is the interactive loop: slash commands or plain text to send.
func run(ctx context.Context, manager *chat.Manager, tokens *auth.FileTokenStore) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		session := manager.Session()
		if session.ActiveThreadID != "" {
			fmt.Printf("[%s]> ", shortID(session.ActiveThreadID))
		} else {
			fmt.Print("> ")
		}

		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}

		if handled := dispatch(ctx, manager, tokens, input); handled {
			fmt.Println()
			continue
		}

		// Anything else is a message for the active (or a new) conversation.
		if err := manager.Send(ctx, input, ""); err != nil {
			color.Red("[error] %v", err)
		}
		printTranscript(manager.Session())
		fmt.Println()
	}
}

// dispatch handles slash commands. Reports false for plain messages.
func dispatch(ctx context.Context, manager *chat.Manager, tokens *auth.FileTokenStore, input string) bool {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/threads":
		if err := manager.RefreshThreads(ctx); err != nil {
			color.Red("[error] %v", err)
			return true
		}
		printThreads(manager.Session())

	case "/new":
		id, err := manager.NewThread(ctx)
		if err != nil {
			color.Red("[error] %v", err)
			return true
		}
		if id == "" {
			fmt.Println("Not logged in. Use /login <token> first.")
			return true
		}
		fmt.Printf("Started thread %s\n", shortID(id))

	case "/open":
		if args == "" {
			fmt.Println("Usage: /open <thread_id>")
			return true
		}
		if err := manager.LoadHistory(ctx, args); err != nil {
			color.Red("[error] %v (showing cached transcript)", err)
		}
		printTranscript(manager.Session())

	case "/delete":
		if args == "" {
			fmt.Println("Usage: /delete <thread_id>")
			return true
		}
		if err := manager.RemoveThread(ctx, args); err != nil {
			color.Red("[error] %v", err)
			return true
		}
		fmt.Printf("Deleted thread %s\n", shortID(args))

	case "/login":
		if args == "" {
			fmt.Println("Usage: /login <token>")
			return true
		}
		if err := tokens.Save(args); err != nil {
			color.Red("[error] saving token: %v", err)
			return true
		}
		fmt.Println("Token saved.")
		if err := manager.RefreshThreads(ctx); err != nil {
			color.Red("[error] %v", err)
		}

	case "/logout":
		if err := tokens.Clear(); err != nil {
			color.Red("[error] %v", err)
			return true
		}
		fmt.Println("Logged out.")

	case "/help":
		printHelp()

	default:
		return false
	}
	return true
}

// printThreads displays the thread list, most recent first per server order.
func printThreads(session chat.Session) {
	if len(session.Threads) == 0 {
		fmt.Println("No threads")
		return
	}

	cyan := color.New(color.FgCyan)
	for _, t := range session.Threads {
		marker := "  "
		if t.ThreadID == session.ActiveThreadID {
			marker = "* "
		}
		title := t.Title
		if title == "" {
			title = "(untitled)"
		}
		cyan.Printf("%s%s", marker, shortID(t.ThreadID))
		fmt.Printf("  %s", title)
		if t.UpdatedAt != "" {
			fmt.Printf("  (%s)", t.UpdatedAt)
		}
		fmt.Println()
	}
}

// printTranscript displays the active conversation.
func printTranscript(session chat.Session) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	for _, msg := range session.Messages {
		switch msg.Type {
		case chat.MessageHuman:
			green.Println("you:")
		case chat.MessageTool:
			yellow.Println("tool:")
		default:
			color.New(color.FgCyan).Println("assistant:")
		}
		fmt.Println(msg.Content)
		fmt.Println()
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /threads         List threads")
	fmt.Println("  /new             Start a new thread")
	fmt.Println("  /open <id>       Open a thread and load its history")
	fmt.Println("  /delete <id>     Delete a thread")
	fmt.Println("  /login <token>   Store an API token")
	fmt.Println("  /logout          Clear the stored token")
	fmt.Println("  /help            Show this help")
	fmt.Println("  /quit            Exit")
}

// shortID abbreviates long server-assigned ids for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// setupLogging installs the process-wide slog handler per config.
func setupLogging(cfg *config.Config, verbose bool) {
	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// defaultConfigPath returns $XDG_CONFIG_HOME/fluxora/config.yaml, falling
// back to ~/.config/fluxora/config.yaml.
func defaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "fluxora", "config.yaml")
}

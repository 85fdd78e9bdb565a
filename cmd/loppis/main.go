package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/lwgren/loppis/internal/api"
	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/config"
	"github.com/lwgren/loppis/internal/counter"
	"github.com/lwgren/loppis/internal/feed"
	"github.com/lwgren/loppis/internal/likes"
	"github.com/lwgren/loppis/internal/log"
	"github.com/lwgren/loppis/internal/mutate"
	"github.com/lwgren/loppis/internal/purchase"
	"github.com/lwgren/loppis/internal/review"
	"github.com/lwgren/loppis/internal/search"
	"github.com/lwgren/loppis/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("loppis %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.Setup(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.Null()
	}
	slog.SetDefault(logger)

	logger.Info("starting loppis", "version", Version)

	if !cfg.IsConfigured() {
		return runSetupFlow(cfg)
	}

	client := api.NewClient(cfg.Server.URL, cfg.Server.Token, logger)

	store := cache.New(cfg.Sync.CacheCapacity, logger)
	coord := mutate.New(store, logger)
	counters := counter.New(client, logger)

	feedSvc := feed.NewService(client, store, coord, counters, logger)
	likesSvc := likes.NewService(client, store, coord, logger)
	purchaseSvc := purchase.NewService(client, store, coord, logger)
	reviewGate := review.NewGate(client, store, coord, counters, logger)
	searchSvc := search.NewService(client, store, logger)

	// Badge counters poll in the background for the life of the program.
	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	go counters.Run(pollCtx, cfg.Sync.PollInterval)

	model := tui.NewModel(tui.Services{
		Client:   client,
		Store:    store,
		Counters: counters,
		Feed:     feedSvc,
		Likes:    likesSvc,
		Purchase: purchaseSvc,
		Review:   reviewGate,
		Search:   searchSvc,
		Logger:   logger,
		PageSize: cfg.Sync.PageSize,
	})
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(cfg *config.Config) error {
	fmt.Println()
	fmt.Println("Welcome to loppis!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	var serverURL string
	for {
		fmt.Print("Enter the marketplace server URL (e.g., https://market.example.com): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL = strings.TrimSpace(input)
		if serverURL != "" {
			break
		}
		fmt.Println("Server URL cannot be empty. Please try again.")
	}

	fmt.Print("Paste your session token (input hidden): ")
	tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	cfg.Server.URL = serverURL
	cfg.Server.Token = token

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run loppis again to start the application.")

	return nil
}

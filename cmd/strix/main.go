package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/mmcdole/strix/internal/catalog"
	"github.com/mmcdole/strix/internal/config"
	"github.com/mmcdole/strix/internal/domain"
	"github.com/mmcdole/strix/internal/log"
	"github.com/mmcdole/strix/internal/player"
	"github.com/mmcdole/strix/internal/store"
	"github.com/mmcdole/strix/internal/tui"
	"github.com/mmcdole/strix/internal/xtream"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	// Handle version flag
	var showVersion bool
	var removeProfile string
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&removeProfile, "remove-profile", "", "remove a profile by name and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("strix %s\n", Version)
		return
	}

	if removeProfile != "" {
		if err := runRemoveProfile(removeProfile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runRemoveProfile deletes a profile from the config and evicts its cache
// partition.
func runRemoveProfile(name string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var target domain.Profile
	found := false
	for _, p := range cfg.Profiles {
		if p.Name == name {
			target = p
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no profile named %q", name)
	}

	logger := log.NullLogger()
	cacheStore, err := store.NewCacheStore(cfg.Cache.Dir, cfg.Cache.MaxBytes, logger)
	if err == nil {
		defer cacheStore.Close()
		svc := catalog.NewService(cacheStore, func(p domain.Profile) (domain.CatalogClient, error) {
			return xtream.NewClient(p, logger)
		}, logger)
		svc.OnProfileDeleted(target.ID)
	}

	cfg.DeleteProfile(target.ID)
	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Removed profile %q\n", name)
	return nil
}

func run() error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting strix", "version", Version)

	// First run: prompt for a panel account
	if !cfg.IsConfigured() {
		return runSetupFlow(cfg)
	}

	profile, ok := cfg.Current()
	if !ok {
		return domain.ErrNoProfile
	}

	// Open the catalog cache; an unusable cache dir degrades to a
	// memory-only session rather than blocking startup
	cacheStore, err := store.NewCacheStore(cfg.Cache.Dir, cfg.Cache.MaxBytes, logger)
	if err != nil {
		logger.Warn("cache unavailable, running without persistence", "dir", cfg.Cache.Dir, "error", err)
		cacheStore, err = store.NewCacheStore("", 0, logger)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
	}
	defer cacheStore.Close()

	// Coordinator builds a panel client per profile on demand
	svc := catalog.NewService(cacheStore, func(p domain.Profile) (domain.CatalogClient, error) {
		return xtream.NewClient(p, logger)
	}, logger)

	launcher := player.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger)

	model := tui.NewModel(svc, launcher, cfg, profile)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	// Persist profile selection made inside the TUI
	if err := config.SaveConfig(cfg); err != nil {
		logger.Warn("failed to save config", "error", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow handles the initial setup when no profile is configured
func runSetupFlow(cfg *config.Config) error {
	fmt.Println()
	fmt.Println("Welcome to Strix!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	name, err := promptLine(reader, "Profile name (e.g., Home): ")
	if err != nil {
		return err
	}
	if name == "" {
		name = "Default"
	}

	var serverURL string
	for {
		serverURL, err = promptLine(reader, "Panel URL (e.g., http://example.com:8080): ")
		if err != nil {
			return err
		}
		if serverURL != "" {
			break
		}
		fmt.Println("Panel URL cannot be empty. Please try again.")
	}

	username, err := promptLine(reader, "Username: ")
	if err != nil {
		return err
	}

	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimSpace(string(pwBytes))

	profile := cfg.AddProfile(name, serverURL, username, password)
	if !profile.IsComplete() {
		return domain.ErrProfileIncomplete
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run strix again to start the application.")

	return nil
}

func promptLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

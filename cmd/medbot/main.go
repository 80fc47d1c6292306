// Package main provides the medbot CLI entry point: the interactive chat
// TUI plus small status and sessions subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"medbot/cmd/medbot/chat"
	"medbot/cmd/medbot/ui"
	"medbot/internal/config"
	"medbot/internal/gateway"
	"medbot/internal/logging"
	"medbot/internal/state"
)

var (
	// Global flags
	verbose  bool
	baseURL  string
	stateDir string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "medbot",
	Short: "MedBot Assistant - terminal client for the triage chat backend",
	Long: `medbot is a multi-session terminal client for the MedBot triage backend.

Each tab is an independent conversation with its own history and retrieved
reference cases. Conversations persist locally across restarts.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveStateDir()
		if err != nil {
			return err
		}
		logger = logging.New(dir, verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check backend readiness and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		client := gateway.NewHTTPClient(cfg.BaseURL, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sr, err := client.Status(ctx)
		if err != nil {
			_, label := gateway.UnavailableDisplay()
			fmt.Println(label)
			return nil
		}
		_, label := sr.Display()
		fmt.Println(label)
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List persisted conversation tabs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := loadConfig()
		if err != nil {
			return err
		}
		slot, closer, err := openSlot(cfg, dir)
		if err != nil {
			return err
		}
		defer closer()

		raw, err := slot.Load()
		if err != nil {
			return err
		}
		st := state.Decode(raw, time.Now())
		if st == nil {
			fmt.Println("No sessions yet.")
			return nil
		}

		tabs := append([]*state.Session(nil), st.Tabs...)
		sort.Slice(tabs, func(i, j int) bool {
			return tabs[i].UpdatedAt > tabs[j].UpdatedAt
		})
		for _, t := range tabs {
			marker := " "
			if t.ID == st.ActiveTabID {
				marker = "*"
			}
			updated := time.UnixMilli(t.UpdatedAt).Format("2006-01-02 15:04")
			fmt.Printf("%s %-40s  %3d msgs  %s  %s\n", marker, t.Title, len(t.Messages), updated, t.ID)
		}
		return nil
	},
}

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory for config, state and logs")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func resolveStateDir() (string, error) {
	if stateDir != "" {
		return stateDir, nil
	}
	if v := os.Getenv("MEDBOT_STATE_DIR"); v != "" {
		return v, nil
	}
	return config.DefaultStateDir()
}

func loadConfig() (*config.Config, string, error) {
	dir, err := resolveStateDir()
	if err != nil {
		return nil, "", err
	}
	cfg := config.LoadOrInit(dir)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return cfg, dir, nil
}

// openSlot builds the configured persistence slot. The closer is a no-op
// for the file backend.
func openSlot(cfg *config.Config, dir string) (state.Slot, func() error, error) {
	if cfg.Storage == config.StorageSQLite {
		slot, err := state.NewSQLiteSlot(filepath.Join(dir, "state.db"))
		if err != nil {
			return nil, nil, err
		}
		return slot, slot.Close, nil
	}
	return state.NewFileSlot(dir), func() error { return nil }, nil
}

func runChat() error {
	cfg, dir, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Info("starting chat",
		zap.String("base_url", cfg.BaseURL),
		zap.String("storage", cfg.Storage),
		zap.String("state_dir", dir))

	slot, closer, err := openSlot(cfg, dir)
	if err != nil {
		return fmt.Errorf("failed to open state storage: %w", err)
	}
	defer closer()

	store := state.Open(slot, logger)
	client := gateway.NewHTTPClient(cfg.BaseURL, logger)
	styles := ui.NewStyles(ui.ThemeByName(cfg.Theme))

	m := chat.New(store, client, styles, logger,
		time.Duration(cfg.PollIntervalSeconds)*time.Second)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat interface failed: %w", err)
	}
	return nil
}

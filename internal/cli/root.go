package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"studylog/internal/config"
	"studylog/internal/store"
	"studylog/internal/tracker"
	"studylog/internal/tui"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "studylog",
	Short: "Track study sessions against tags and review daily timetables",
	Long: `studylog is a terminal study tracker: run a stopwatch against a tag,
switch tags as you go, and review where each hour of the day went.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		// Rebuild the mirror from authoritative state before any view
		// reads it.
		if err := app.Manager.RefreshAll(); err != nil {
			app.Logger.Warn().Err(err).Msg("initial refresh")
		}

		model := tui.NewApp(app.Store, app.Manager, app.History, app.Solved, app.Config)
		p := tea.NewProgram(model, tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// App bundles the wired application components shared by every command.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   *store.Store
	Manager *tracker.Manager
	History *tracker.History
	Solved  *tracker.SolvedCounter

	logFile *os.File
}

func openApp() (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, logFile, err := setupLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	s, err := store.New(cfg.Database.Path, logger)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("open database: %w", err)
	}

	mirror := tracker.NewMirrorSlot(s, logger)
	manager := tracker.NewManager(cfg.User.ID, s, s, mirror, logger)
	history := tracker.NewHistory(s, cfg.User.ID)
	solved := tracker.NewSolvedCounter(s, cfg.User.ID, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   s,
		Manager: manager,
		History: history,
		Solved:  solved,
		logFile: logFile,
	}, nil
}

func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("close database")
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// setupLogger writes to the configured log file, or discards everything
// when none is set: the TUI owns the terminal.
func setupLogger(cfg config.LoggingConfig) (zerolog.Logger, *os.File, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.WarnLevel
	}

	if cfg.File == "" {
		return zerolog.Nop(), nil, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, f, nil
}

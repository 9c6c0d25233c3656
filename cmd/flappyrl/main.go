// flappyrl trains a Double-DQN agent to play Flappy Bird in the terminal.
//
// Usage:
//
//	flappyrl train           - Train headless until the episode limit
//	flappyrl watch           - Train (or evaluate) with a live view
//	flappyrl play            - Fly the bird yourself
//	flappyrl history [run]   - Browse recorded runs and episodes
//	flappyrl plot <run>      - Render the score graph of a recorded run
//	flappyrl serve           - Let others watch the agent over SSH
//
// Global flags:
//
//	--config <path>   - Config YAML (default search: ~/.flappyrl, ./configs, embedded)
//	--preset <name>   - Config preset: train, eval
//	--seed <value>    - RNG seed for reproducible runs
//	--db <path>       - History database (overrides training.db_path)
//	--fps <rate>      - Draw rate for watch and play
//	--verbose         - Debug logging (per-step loss)
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappy-rl/internal/config"
	"github.com/vovakirdan/flappy-rl/internal/core"
	"github.com/vovakirdan/flappy-rl/internal/storage"
)

var (
	// Global flags
	flagConfig  string
	flagPreset  string
	flagSeed    int64
	flagDBPath  string
	flagFPS     int
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flappyrl",
	Short: "Flappy Bird reinforcement learning in your terminal",
	Long: `flappyrl trains a Double-DQN agent to fly through Flappy Bird pipes,
lets you watch it learn, and keeps a history of every run.

Available commands:
  train    - Train headless until the episode limit
  watch    - Train with a live view (z zone, v draw, +/- fps)
  play     - Fly the bird yourself
  history  - Browse recorded runs and episodes
  plot     - Render the score graph of a recorded run
  serve    - Start SSH server for spectators

Examples:
  flappyrl train --episodes 2000
  flappyrl watch --load Model2024Mar05-14:30:00
  flappyrl watch --load latest --eval
  flappyrl play
  flappyrl serve --ssh :2222 --model latest`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "Config preset: train, eval")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to history database")
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 0, "Draw rate for watch and play (0 = window.fps)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(serveCmd)
}

// newLogger creates the CLI logger.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "flappyrl",
	})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// newFileLogger creates a logger for full-screen commands, where stderr
// would draw over the view. An empty path discards everything.
func newFileLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Prefix:          "flappyrl",
	})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger, func() { f.Close() }, nil
}

// loadConfig loads the config and applies the global flags to it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagPreset != "" {
		preset := config.ParsePreset(flagPreset)
		if preset == "" {
			return cfg, fmt.Errorf("unknown preset %q (use train or eval)", flagPreset)
		}
		config.ApplyPreset(&cfg, preset)
	}
	if flagDBPath != "" {
		cfg.Training.DBPath = flagDBPath
	}
	return cfg, nil
}

// mustLoadConfig loads the config or exits.
func mustLoadConfig() config.Config {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// seed returns the --seed flag, or a time based seed when unset.
func seed() int64 {
	if flagSeed != 0 {
		return flagSeed
	}
	return time.Now().UnixNano()
}

// runtimeConfig describes the terminal the full-screen commands draw on.
func runtimeConfig() core.RuntimeConfig {
	width, height := terminalSize()
	return core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
		Seed:     flagSeed,
	}
}

// terminalSize returns the stdout size, 80x24 when it is not a terminal.
func terminalSize() (int, int) {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	return width, height
}

// openStore opens the history database. Failure is a warning: every
// command still works without history.
func openStore(cfg config.Config, logger *log.Logger) *storage.Store {
	store, err := storage.Open(cfg.Training.DBPath)
	if err != nil {
		logger.Warn("could not open history database", "error", err)
		return nil
	}
	return store
}

// startRun records a run in store, returning its ID or "" when history is
// unavailable.
func startRun(store *storage.Store, mode string, cfg config.Config, logger *log.Logger) string {
	if store == nil {
		return ""
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		logger.Warn("cannot encode config for history", "error", err)
	}
	run, err := store.StartRun(mode, data)
	if err != nil {
		logger.Warn("cannot record run", "error", err)
		return ""
	}
	logger.Info("run started", "id", run.ID, "mode", mode)
	return run.ID
}

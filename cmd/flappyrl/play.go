package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-rl/internal/audio"
	"github.com/vovakirdan/flappy-rl/internal/platform/tui"
)

var flagGraphDir string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Fly the bird yourself",
	Long: `Play Flappy Bird with the same rules the agent trains on.

Controls:
  Space/Up   - Flap
  P/Esc      - Pause
  R          - Restart (after game over)
  Q/Ctrl+C   - Quit

Scores above zero are saved to the history database.

Examples:
  flappyrl play
  flappyrl play --seed 7
  flappyrl play --graph ./out`,
	Run: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagGraphDir, "graph", "", "Save the score graph of this session into this folder")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs here while the game is open")
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	logger, closeLog, err := newFileLogger(flagLogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	store := openStore(cfg, newLogger())
	opts := tui.PlayOptions{
		Config:  cfg,
		Runtime: runtimeConfig(),
		Audio:   audio.NewBell(os.Stderr),
		Logger:  logger,
	}
	if store != nil {
		opts.Store = store
	}

	plotter, runErr := tui.RunPlay(opts)
	closeStore(store)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", runErr)
		os.Exit(1)
	}

	if flagGraphDir != "" && plotter != nil {
		path, err := plotter.SaveGraph(flagGraphDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error saving graph: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Graph saved to %s\n", path)
	}
}

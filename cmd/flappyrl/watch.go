package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-rl/internal/audio"
	"github.com/vovakirdan/flappy-rl/internal/platform/tui"
	"github.com/vovakirdan/flappy-rl/internal/trainer"
)

var (
	flagEval    bool
	flagLogFile string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Train with a live view",
	Long: `Run training and draw every frame in the terminal.

Controls:
  Z          - Toggle the reward zone overlay
  V          - Toggle drawing (off = train at full speed)
  +/-        - Change the frame rate by 5
  M          - Toggle sound
  Q/Ctrl+C   - Quit (saves a snapshot when training.save_model is set)

With --eval the loaded model flies greedily and never learns.

Examples:
  flappyrl watch
  flappyrl watch --load Model2024Mar05-14:30:00
  flappyrl watch --load latest --eval`,
	Run: runWatch,
}

func init() {
	addTrainingFlags(watchCmd)
	watchCmd.Flags().BoolVar(&flagEval, "eval", false, "Fly the loaded model greedily without learning")
	watchCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs here while the view is open")
}

func runWatch(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	applyTrainingFlags(&cfg)
	logger, closeLog, err := newFileLogger(flagLogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	mode := "watch"
	if flagEval {
		mode = "eval"
	}

	store := openStore(cfg, logger)
	var sink trainer.EpisodeSink
	if store != nil {
		sink = store
	}

	session, err := trainer.New(trainer.Options{
		Config: cfg,
		Seed:   seed(),
		Logger: logger,
		Audio:  audio.NewBell(os.Stderr),
		Sink:   sink,
		RunID:  startRun(store, mode, cfg, logger),
		Eval:   flagEval,
	})
	if err != nil {
		closeStore(store)
		closeLog()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	runErr := tui.RunWatch(session, tui.WatchOptions{
		Runtime: runtimeConfig(),
		Logger:  logger,
	})
	closeStore(store)

	if runErr != nil {
		closeLog()
		fmt.Fprintf(os.Stderr, "Error running watch: %v\n", runErr)
		os.Exit(1)
	}
}

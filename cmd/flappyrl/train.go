package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-rl/internal/config"
	"github.com/vovakirdan/flappy-rl/internal/storage"
	"github.com/vovakirdan/flappy-rl/internal/trainer"
)

var (
	flagEpisodes int
	flagLoad     string
	flagNoSave   bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the agent headless",
	Long: `Train the agent without drawing until training.episodes is reached.

Every finished episode is logged and recorded in the history database.
When training ends with a best score above training.save_if_score, a
snapshot folder Model<date-time> is written to training.models_dir with
the config, the score graph and the checkpoint. Ctrl+C also writes a
snapshot when training.save_model is set.

Examples:
  flappyrl train
  flappyrl train --episodes 2000 --seed 42
  flappyrl train --load Model2024Mar05-14:30:00`,
	Run: runTrain,
}

func init() {
	addTrainingFlags(trainCmd)
}

// addTrainingFlags registers the flags train and watch share.
func addTrainingFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagEpisodes, "episodes", -1, "Episode limit, 0 = unlimited (default from config)")
	cmd.Flags().StringVar(&flagLoad, "load", "", "Snapshot folder under models_dir to resume from")
	cmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Never write a snapshot")
}

// applyTrainingFlags copies the training flags into cfg.
func applyTrainingFlags(cfg *config.Config) {
	if flagEpisodes >= 0 {
		cfg.Training.Episodes = flagEpisodes
	}
	if flagLoad != "" {
		cfg.Training.LoadModel = true
		cfg.Training.ModelFolder = flagLoad
	}
	if flagNoSave {
		cfg.Training.SaveModel = false
	}
}

func runTrain(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	applyTrainingFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger()

	store := openStore(cfg, logger)
	var sink trainer.EpisodeSink
	if store != nil {
		sink = store
	}

	session, err := trainer.New(trainer.Options{
		Config: cfg,
		Seed:   seed(),
		Logger: logger,
		Sink:   sink,
		RunID:  startRun(store, "train", cfg, logger),
	})
	if err != nil {
		closeStore(store)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runErr := session.Run(ctx)
	stop()
	closeStore(store)

	switch {
	case errors.Is(runErr, context.Canceled):
		logger.Info("training interrupted", "episode", session.Agent().Episode(), "top", session.Agent().TopScore())
	case runErr != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	default:
		logger.Info("training finished", "episode", session.Agent().Episode(), "top", session.Agent().TopScore())
	}
}

func closeStore(store *storage.Store) {
	if store != nil {
		store.Close()
	}
}

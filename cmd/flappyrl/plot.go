package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-rl/internal/plot"
	"github.com/vovakirdan/flappy-rl/internal/storage"
)

var flagOutDir string

var plotCmd = &cobra.Command{
	Use:   "plot <run-id>",
	Short: "Render the score graph of a recorded run",
	Long: `Rebuild FlappyScores.png from the episodes recorded for a run.

The run is selected by any unique prefix of its ID.

Examples:
  flappyrl plot 3f2a9c
  flappyrl plot 3f2a9c --out ./graphs`,
	Args: cobra.ExactArgs(1),
	Run:  runPlot,
}

func init() {
	plotCmd.Flags().StringVar(&flagOutDir, "out", ".", "Folder to write the graph into")
}

func runPlot(_ *cobra.Command, args []string) {
	cfg := mustLoadConfig()

	store, err := storage.Open(cfg.Training.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	path, err := plotRun(store, args[0], flagOutDir)
	if err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Graph saved to %s\n", path)
}

// plotRun renders the graph of the run matching prefix into dir.
func plotRun(store *storage.Store, prefix, dir string) (string, error) {
	run, err := store.FindRun(prefix)
	if errors.Is(err, storage.ErrRunNotFound) {
		return "", fmt.Errorf("no single run matches %q", prefix)
	}
	if err != nil {
		return "", err
	}

	episodes, err := store.Episodes(run.ID)
	if err != nil {
		return "", err
	}

	p := plot.New()
	for _, e := range episodes {
		p.AddGame(e.Score, e.AverageScore)
	}
	return p.SaveGraph(dir)
}

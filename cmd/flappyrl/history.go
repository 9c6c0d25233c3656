package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappy-rl/internal/platform/tui"
	"github.com/vovakirdan/flappy-rl/internal/storage"
)

var (
	flagPlain bool
	flagLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Browse recorded runs and episodes",
	Long: `Show the training runs recorded in the history database.

On a terminal this opens an interactive browser: enter opens a run's
episodes, tab switches to human high scores, esc goes back. With --plain
(or when output is not a terminal) the runs are printed instead; pass a
run ID prefix to print that run's episodes.

Examples:
  flappyrl history
  flappyrl history --plain --limit 5
  flappyrl history 3f2a9c`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print instead of opening the browser")
	historyCmd.Flags().IntVar(&flagLimit, "limit", 20, "Runs to print")
}

func runHistory(_ *cobra.Command, args []string) {
	cfg := mustLoadConfig()

	store, err := storage.Open(cfg.Training.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if len(args) == 1 {
		if err := printEpisodes(store, args[0]); err != nil {
			store.Close()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !flagPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		width, height := terminalSize()
		if err := tui.RunHistory(store, width, height); err != nil {
			store.Close()
			fmt.Fprintf(os.Stderr, "Error running history: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := printRuns(store, flagLimit); err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printRuns(store *storage.Store, limit int) error {
	runs, err := store.Runs(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Start one with 'flappyrl train'.")
		return nil
	}

	fmt.Printf("  %-36s  %-6s  %-8s  %-5s  %s\n", "ID", "Mode", "Episodes", "Top", "Started")
	fmt.Printf("  %-36s  %-6s  %-8s  %-5s  %s\n", "--", "----", "--------", "---", "-------")
	for _, r := range runs {
		fmt.Printf("  %-36s  %-6s  %-8d  %-5d  %s\n",
			r.ID, r.Mode, r.Episodes, r.TopScore, r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func printEpisodes(store *storage.Store, prefix string) error {
	run, err := store.FindRun(prefix)
	if errors.Is(err, storage.ErrRunNotFound) {
		return fmt.Errorf("no single run matches %q", prefix)
	}
	if err != nil {
		return err
	}
	episodes, err := store.Episodes(run.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s (%s), top score %d\n\n", run.ID, run.Mode, run.TopScore)
	fmt.Printf("  %-7s  %-5s  %-5s  %-8s  %-8s  %-6s  %-9s  %s\n",
		"Episode", "Score", "Top", "Average", "Epsilon", "Memory", "LR", "Frames")
	for _, e := range episodes {
		fmt.Printf("  %-7d  %-5d  %-5d  %-8.2f  %-8.4f  %-6d  %-9.2e  %d\n",
			e.Episode, e.Score, e.TopScore, e.AverageScore, e.Epsilon, e.MemorySize, e.LearningRate, e.Frames)
	}
	return nil
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/flappy-rl/internal/config"
	"github.com/vovakirdan/flappy-rl/internal/plot"
	"github.com/vovakirdan/flappy-rl/internal/storage"
)

func TestApplyTrainingFlags(t *testing.T) {
	defer func() { flagEpisodes, flagLoad, flagNoSave = -1, "", false }()

	cfg := config.Default()
	flagEpisodes, flagLoad, flagNoSave = 0, "latest", true
	applyTrainingFlags(&cfg)

	if cfg.Training.Episodes != 0 {
		t.Errorf("episodes = %d, expected 0", cfg.Training.Episodes)
	}
	if !cfg.Training.LoadModel || cfg.Training.ModelFolder != "latest" {
		t.Errorf("load flags not applied: %+v", cfg.Training)
	}
	if cfg.Training.SaveModel {
		t.Error("--no-save should disable snapshots")
	}
}

func TestLoadConfigPreset(t *testing.T) {
	defer func() { flagConfig, flagPreset, flagDBPath = "", "", "" }()

	path := filepath.Join(t.TempDir(), "flappy.yaml")
	if err := os.WriteFile(path, []byte("agent:\n  epsilon: 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	flagConfig, flagPreset, flagDBPath = path, "eval", "/tmp/history.db"

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() failed: %v", err)
	}
	if cfg.Agent.Epsilon != 0 || cfg.Training.SaveModel {
		t.Errorf("eval preset not applied: epsilon %v save %v", cfg.Agent.Epsilon, cfg.Training.SaveModel)
	}
	if cfg.Training.DBPath != "/tmp/history.db" {
		t.Errorf("db path = %q", cfg.Training.DBPath)
	}

	flagPreset = "turbo"
	if _, err := loadConfig(); err == nil {
		t.Error("an unknown preset should fail")
	}
}

func TestPlotRun(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	run, err := store.StartRun("train", nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		if err := store.SaveEpisode(storage.EpisodeRecord{RunID: run.ID, Episode: i, Score: i, AverageScore: float64(i+1) / 2}); err != nil {
			t.Fatal(err)
		}
	}

	dir := t.TempDir()
	path, err := plotRun(store, run.ID[:8], dir)
	if err != nil {
		t.Fatalf("plotRun() failed: %v", err)
	}
	if path != filepath.Join(dir, plot.GraphFile) {
		t.Errorf("path = %q", path)
	}

	if _, err := plotRun(store, "zzzz", dir); err == nil {
		t.Error("an unknown run should fail")
	}
}

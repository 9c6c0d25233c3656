package trainer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/flappy-rl/internal/config"
	"github.com/vovakirdan/flappy-rl/internal/plot"
	"github.com/vovakirdan/flappy-rl/internal/storage"
)

type memorySink struct {
	records []storage.EpisodeRecord
}

func (m *memorySink) SaveEpisode(e storage.EpisodeRecord) error {
	m.records = append(m.records, e)
	return nil
}

type countingPlayer struct {
	calls map[string]int
}

func (c *countingPlayer) Play(sound string, enabled bool) {
	if enabled {
		c.calls[sound]++
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Agent.HiddenWidth = 8
	cfg.Agent.HiddenLayers = 2
	cfg.Agent.BatchSize = 8
	cfg.Agent.MemorySize = 200
	cfg.Training.Episodes = 4
	cfg.Training.SaveIfScore = -1
	cfg.Training.ModelsDir = t.TempDir()
	return cfg
}

func newTestSession(t *testing.T, cfg config.Config, sink EpisodeSink) *Session {
	t.Helper()
	s, err := New(Options{Config: cfg, Seed: 1, Sink: sink, RunID: "run-1"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC) }
	return s
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.BatchSize = 0
	if _, err := New(Options{Config: cfg}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("New() error = %v, expected ErrInvalid", err)
	}
}

func TestRunStopsAtEpisodeLimit(t *testing.T) {
	cfg := testConfig(t)
	sink := &memorySink{}
	s := newTestSession(t, cfg, sink)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !s.Finished() {
		t.Error("session should be finished")
	}
	// Episodes are numbered from 1 and the limit is exclusive.
	if len(sink.records) != 3 {
		t.Fatalf("expected 3 recorded episodes, got %d", len(sink.records))
	}
	for i, r := range sink.records {
		if r.Episode != i+1 || r.RunID != "run-1" {
			t.Errorf("record %d = %+v", i, r)
		}
		if r.Frames <= 0 {
			t.Errorf("record %d has no frames", i)
		}
	}
	if s.Plotter().Len() != 3 {
		t.Errorf("plotter has %d points, expected 3", s.Plotter().Len())
	}

	res, err := s.Frame()
	if err != nil || !res.Finished {
		t.Errorf("Frame() after finishing = %+v, %v", res, err)
	}
}

func TestRunSavesSnapshot(t *testing.T) {
	cfg := testConfig(t)
	s := newTestSession(t, cfg, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(cfg.Training.ModelsDir, "Model2024Mar05-14:30:00")
	for _, name := range []string{"config.yaml", plot.GraphFile, "flappy_model.ckpt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("snapshot is missing %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hidden_width: 8") {
		t.Error("snapshot config should be the effective config")
	}
}

func TestNoSnapshotBelowSaveScore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Training.SaveIfScore = 1000
	s := newTestSession(t, cfg, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(cfg.Training.ModelsDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("no snapshot expected, found %d entries", len(entries))
	}
}

func TestLoadModelOnStart(t *testing.T) {
	cfg := testConfig(t)
	first := newTestSession(t, cfg, nil)
	if err := first.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	cfg.Training.LoadModel = true
	cfg.Training.ModelFolder = "Model2024Mar05-14:30:00"
	cfg.Training.Episodes = 6
	second := newTestSession(t, cfg, nil)

	if second.Agent().Episode() != first.Agent().Episode() {
		t.Errorf("loaded episode = %d, expected %d", second.Agent().Episode(), first.Agent().Episode())
	}
	if second.Agent().Memory().Len() != first.Agent().Memory().Len() {
		t.Error("replay memory should be restored")
	}
	if second.Finished() {
		t.Error("a raised episode limit should allow more training")
	}
}

func TestLoadModelMissingIsWarning(t *testing.T) {
	cfg := testConfig(t)
	cfg.Training.LoadModel = true
	cfg.Training.ModelFolder = "does-not-exist"

	s := newTestSession(t, cfg, nil)
	if s.Agent().Episode() != 1 {
		t.Errorf("agent should keep fresh defaults, episode %d", s.Agent().Episode())
	}
	if s.LoadModel() {
		t.Error("LoadModel() should report failure")
	}
}

func TestLoadedAtLimitIsFinished(t *testing.T) {
	cfg := testConfig(t)
	first := newTestSession(t, cfg, nil)
	if err := first.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	cfg.Training.LoadModel = true
	cfg.Training.ModelFolder = "Model2024Mar05-14:30:00"
	second := newTestSession(t, cfg, nil)
	if !second.Finished() {
		t.Error("a model already at the episode limit should not train further")
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Training.Episodes = 0 // Unlimited
	s := newTestSession(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, expected context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Training.ModelsDir, "Model2024Mar05-14:30:00", "flappy_model.ckpt")); err != nil {
		t.Errorf("cancelling with save_model should snapshot: %v", err)
	}
}

func TestPeriodicCheckpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.Training.CheckpointEvery = 2
	cfg.Training.SaveModel = false
	s := newTestSession(t, cfg, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(cfg.Training.ModelsDir, LatestFolder, "flappy_model.ckpt")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("rolling checkpoint missing: %v", err)
	}
}

func TestFrameDeterministicBySeed(t *testing.T) {
	cfg := testConfig(t)
	a := newTestSession(t, cfg, nil)
	b := newTestSession(t, cfg, nil)

	for i := 0; i < 300; i++ {
		ra, err := a.Frame()
		if err != nil {
			t.Fatal(err)
		}
		rb, err := b.Frame()
		if err != nil {
			t.Fatal(err)
		}
		if ra.Action != rb.Action || ra.Reward != rb.Reward || ra.Done != rb.Done {
			t.Fatalf("frame %d diverged: %+v vs %+v", i, ra, rb)
		}
	}
}

func TestFrameEpisodeBoundary(t *testing.T) {
	cfg := testConfig(t)
	cfg.Training.Episodes = 0
	s := newTestSession(t, cfg, nil)

	for i := 0; i < 10000; i++ {
		res, err := s.Frame()
		if err != nil {
			t.Fatal(err)
		}
		if !res.Done {
			if res.Summary != nil {
				t.Fatal("summary only on the terminal frame")
			}
			continue
		}
		if res.Reward != -100 {
			t.Errorf("terminal reward = %v, expected -100", res.Reward)
		}
		if res.Summary == nil || res.Summary.Episode != 2 {
			t.Fatalf("expected a summary for episode 1, got %+v", res.Summary)
		}
		if !s.Environment().Running() || s.Environment().Frames() != 0 {
			t.Error("the environment should be reset for the next episode")
		}
		return
	}
	t.Fatal("no episode ended")
}

func TestSoundCues(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sound.Enabled = true
	cfg.Sound.Flap = true
	cfg.Agent.Epsilon = 1 // Random play flaps often
	player := &countingPlayer{calls: map[string]int{}}

	s, err := New(Options{Config: cfg, Seed: 2, Audio: player})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 200; i++ {
		if _, err := s.Frame(); err != nil {
			t.Fatal(err)
		}
	}
	if player.calls["sfx_wing"] == 0 {
		t.Error("flaps should play the wing sound")
	}

	s.SetSound(false)
	before := player.calls["sfx_wing"]
	for i := 0; i < 200; i++ {
		s.Frame() //nolint:errcheck
	}
	if player.calls["sfx_wing"] != before {
		t.Error("muted session should not play sounds")
	}
}

func TestEvalFliesLoadedModelGreedily(t *testing.T) {
	cfg := testConfig(t)
	first := newTestSession(t, cfg, nil)
	if err := first.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	cfg.Training.LoadModel = true
	cfg.Training.ModelFolder = "Model2024Mar05-14:30:00"
	s, err := New(Options{Config: cfg, Seed: 3, Eval: true})
	if err != nil {
		t.Fatal(err)
	}
	if s.Agent().Epsilon() != 0 {
		t.Errorf("eval epsilon = %v, expected 0", s.Agent().Epsilon())
	}
	if s.Agent().Learning() {
		t.Error("eval sessions should not learn")
	}
	if s.Finished() || s.Config().Training.SaveModel {
		t.Error("eval sessions run without a limit and never snapshot")
	}

	for i := 0; i < 100; i++ {
		res, err := s.Frame()
		if err != nil {
			t.Fatal(err)
		}
		if res.Trained {
			t.Fatal("eval frame trained the network")
		}
	}
}

// Package trainer runs the frame loop that connects the environment to the
// learning agent, and handles everything around it: episode bookkeeping,
// score plotting, run history, checkpoints and model snapshots.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-rl/internal/agent"
	"github.com/vovakirdan/flappy-rl/internal/audio"
	"github.com/vovakirdan/flappy-rl/internal/config"
	"github.com/vovakirdan/flappy-rl/internal/games/flappy"
	"github.com/vovakirdan/flappy-rl/internal/plot"
	"github.com/vovakirdan/flappy-rl/internal/storage"
)

// SnapshotPrefix starts every snapshot folder name.
const SnapshotPrefix = "Model"

// snapshotLayout formats the time part of a snapshot folder name.
const snapshotLayout = "2006Jan02-15:04:05"

// LatestFolder holds the rolling checkpoint written every CheckpointEvery episodes.
const LatestFolder = "latest"

// EpisodeSink receives one record per finished episode.
type EpisodeSink interface {
	SaveEpisode(storage.EpisodeRecord) error
}

// Options configure a Session.
type Options struct {
	Config config.Config
	Seed   int64
	Logger *log.Logger
	Audio  audio.Player // nil disables sound
	Sink   EpisodeSink  // nil disables history
	RunID  string

	// Eval flies the policy greedily without learning and without an
	// episode limit. It applies the eval preset on top of Config.
	Eval bool
}

// FrameResult describes one simulated frame.
type FrameResult struct {
	Action   int
	Reward   float64
	Score    int
	Loss     float64
	Trained  bool
	Done     bool                  // The episode ended on this frame
	Summary  *agent.EpisodeSummary // Set when Done
	Finished bool                  // Training reached its episode limit
}

// Session is one training (or watching) run.
type Session struct {
	cfg     config.Config
	env     *flappy.Environment
	agent   *agent.Agent
	plotter *plot.Plotter
	audio   audio.Player
	sink    EpisodeSink
	logger  *log.Logger
	runID   string

	soundOn    bool
	lastReward float64
	finished   bool
	now        func() time.Time
}

// New builds a session. With training.load_model set it restores the
// configured snapshot; a missing or unreadable one is only a warning.
func New(opts Options) (*Session, error) {
	if opts.Eval {
		config.ApplyPreset(&opts.Config, config.PresetEval)
		opts.Config.Training.Episodes = 0
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	player := opts.Audio
	if player == nil {
		player = audio.Nop{}
	}

	ag, err := agent.New(opts.Config.Agent, rand.New(rand.NewSource(opts.Seed+1)), logger)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}

	s := &Session{
		cfg:     opts.Config,
		env:     flappy.NewEnvironment(opts.Config, rand.New(rand.NewSource(opts.Seed))),
		agent:   ag,
		plotter: plot.New(),
		audio:   player,
		sink:    opts.Sink,
		logger:  logger,
		runID:   opts.RunID,
		soundOn: opts.Config.Sound.Enabled,
		now:     time.Now,
	}

	if opts.Config.Training.LoadModel {
		s.LoadModel()
	}
	if opts.Eval {
		ag.SetEpsilon(0)
	}
	s.finished = s.limitReached()
	return s, nil
}

// LoadModel restores <models_dir>/<model_folder>/<model_file>.ckpt.
// Failures are logged and leave the agent as it was.
func (s *Session) LoadModel() bool {
	path, err := s.ModelPath()
	if err != nil {
		s.logger.Warn("cannot resolve model path", "error", err)
		return false
	}
	if err := s.agent.Load(path); err != nil {
		if errors.Is(err, agent.ErrCheckpointNotFound) {
			s.logger.Warn("path does not exist", "path", path)
		} else {
			s.logger.Warn("failed to load model", "path", path, "error", err)
		}
		return false
	}
	s.logger.Info("model loaded", "path", path, "episode", s.agent.Episode(), "top", s.agent.TopScore())
	return true
}

// ModelPath returns the checkpoint file LoadModel reads.
func (s *Session) ModelPath() (string, error) {
	dir, err := config.ExpandPath(s.cfg.Training.ModelsDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, s.cfg.Training.ModelFolder, s.cfg.Training.ModelFile+".ckpt"), nil
}

// Frame simulates one frame: spawn, observe, act, step, learn. When the
// episode ends it books it and starts the next one.
func (s *Session) Frame() (FrameResult, error) {
	if s.finished {
		return FrameResult{Finished: true}, nil
	}

	s.env.SpawnPipes()
	state := s.env.Observation()
	action := s.agent.Act(state)
	if action == flappy.ActionFlap {
		s.audio.Play(audio.SoundFlap, s.soundOn && s.cfg.Sound.Flap)
	}

	step := s.env.Step(action)
	s.lastReward = step.Reward
	if step.Cleared {
		s.audio.Play(audio.SoundPoint, s.soundOn && s.cfg.Sound.Point)
	}

	next := s.env.Observation()
	loss, trained, err := s.agent.Observe(agent.Transition{
		State:     state,
		Action:    action,
		Reward:    step.Reward,
		NextState: next,
		Done:      step.Done,
	})
	if err != nil {
		return FrameResult{}, fmt.Errorf("trainer: %w", err)
	}
	if trained {
		s.logger.Debug("train step", "loss", loss, "lr", s.agent.LearningRate())
	}

	res := FrameResult{
		Action:  action,
		Reward:  step.Reward,
		Score:   s.env.Score(),
		Loss:    loss,
		Trained: trained,
		Done:    step.Done,
	}
	if step.Done {
		summary := s.endEpisode()
		res.Summary = &summary
		res.Finished = s.finished
	}
	return res, nil
}

func (s *Session) endEpisode() agent.EpisodeSummary {
	score := s.env.Score()
	frames := s.env.Frames()
	summary := s.agent.EndEpisode(score)
	s.plotter.AddGame(score, summary.AverageScore)

	s.logger.Info("episode finished",
		"episode", summary.Episode,
		"top", summary.TopScore,
		"last", summary.LastScore,
		"epsilon", fmt.Sprintf("%.6f", summary.Epsilon),
		"memory", summary.MemorySize,
	)

	if s.sink != nil && s.runID != "" {
		err := s.sink.SaveEpisode(storage.EpisodeRecord{
			RunID:        s.runID,
			Episode:      summary.Episode - 1,
			Score:        score,
			TopScore:     summary.TopScore,
			AverageScore: summary.AverageScore,
			Epsilon:      summary.Epsilon,
			MemorySize:   summary.MemorySize,
			LearningRate: summary.LearningRate,
			Frames:       frames,
		})
		if err != nil {
			s.logger.Warn("cannot record episode", "error", err)
		}
	}

	if every := s.cfg.Training.CheckpointEvery; every > 0 && (summary.Episode-1)%every == 0 {
		if path, err := s.Checkpoint(); err != nil {
			s.logger.Warn("checkpoint failed", "error", err)
		} else {
			s.logger.Debug("checkpoint written", "path", path)
		}
	}

	s.env.Reset()

	if s.limitReached() {
		s.finished = true
		if s.cfg.Training.SaveModel && s.agent.TopScore() > s.cfg.Training.SaveIfScore {
			if _, err := s.Snapshot(); err != nil {
				s.logger.Warn("cannot save model", "error", err)
			}
		}
	}
	return summary
}

func (s *Session) limitReached() bool {
	n := s.cfg.Training.Episodes
	return n > 0 && s.agent.Episode() >= n
}

// Run steps frames until the episode limit or until ctx is cancelled. On
// cancellation a snapshot is saved when training.save_model is set.
func (s *Session) Run(ctx context.Context) error {
	for !s.finished {
		select {
		case <-ctx.Done():
			if s.cfg.Training.SaveModel {
				if _, err := s.Snapshot(); err != nil {
					s.logger.Warn("cannot save model", "error", err)
				}
			}
			return ctx.Err()
		default:
		}
		if _, err := s.Frame(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot saves the config, the score graph and the agent into a new
// timestamped folder under models_dir and returns the folder.
func (s *Session) Snapshot() (string, error) {
	root, err := config.ExpandPath(s.cfg.Training.ModelsDir)
	if err != nil {
		return "", fmt.Errorf("trainer: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("trainer: cannot create models folder: %w", err)
	}

	dir := filepath.Join(root, SnapshotPrefix+s.now().Format(snapshotLayout))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("trainer: cannot create snapshot folder: %w", err)
	}

	data, err := config.Marshal(s.cfg)
	if err != nil {
		return "", fmt.Errorf("trainer: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644); err != nil {
		return "", fmt.Errorf("trainer: cannot write config: %w", err)
	}

	if _, err := s.plotter.SaveGraph(dir); err != nil {
		s.logger.Warn("can't save graph", "error", err)
	} else {
		s.logger.Info("graph saved", "dir", dir)
	}

	if err := s.agent.Save(filepath.Join(dir, s.cfg.Training.ModelFile+".ckpt")); err != nil {
		return dir, fmt.Errorf("trainer: %w", err)
	}
	s.logger.Info("model saved", "dir", dir)
	return dir, nil
}

// Checkpoint overwrites the rolling checkpoint in <models_dir>/latest.
func (s *Session) Checkpoint() (string, error) {
	root, err := config.ExpandPath(s.cfg.Training.ModelsDir)
	if err != nil {
		return "", fmt.Errorf("trainer: %w", err)
	}
	dir := filepath.Join(root, LatestFolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("trainer: cannot create checkpoint folder: %w", err)
	}
	path := filepath.Join(dir, s.cfg.Training.ModelFile+".ckpt")
	if err := s.agent.Save(path); err != nil {
		return "", fmt.Errorf("trainer: %w", err)
	}
	return path, nil
}

// Environment returns the simulation being driven.
func (s *Session) Environment() *flappy.Environment { return s.env }

// Agent returns the learner.
func (s *Session) Agent() *agent.Agent { return s.agent }

// Plotter returns the score series.
func (s *Session) Plotter() *plot.Plotter { return s.plotter }

// Config returns the effective configuration.
func (s *Session) Config() config.Config { return s.cfg }

// RunID returns the history ID episodes are recorded under.
func (s *Session) RunID() string { return s.runID }

// LastReward returns the reward of the most recent frame.
func (s *Session) LastReward() float64 { return s.lastReward }

// Finished reports whether the episode limit was reached.
func (s *Session) Finished() bool { return s.finished }

// SoundOn reports whether sound cues are enabled.
func (s *Session) SoundOn() bool { return s.soundOn }

// SetSound enables or disables sound cues.
func (s *Session) SetSound(on bool) { s.soundOn = on }

package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate rejects configurations the simulation or the agent cannot run with.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	check(c.Window.FPS > 0, "fps must be positive, got %d", c.Window.FPS)
	check(c.Physics.ScrollSpeed > 0, "scroll_speed must be positive, got %d", c.Physics.ScrollSpeed)
	check(c.Physics.MaxVelocity > 0, "max_velocity must be positive, got %v", c.Physics.MaxVelocity)
	check(c.Bird.Width > 0 && c.Bird.Height > 0, "bird size must be positive, got %dx%d", c.Bird.Width, c.Bird.Height)
	check(c.Pipes.Width > 0, "pipe width must be positive, got %d", c.Pipes.Width)
	check(c.Pipes.GapHalfHeight > 0, "gap_half_height must be positive, got %d", c.Pipes.GapHalfHeight)
	check(2*(c.Pipes.GapHalfHeight+c.Pipes.SpawnMargin) <= c.Window.Height,
		"gap (%d) plus margins (%d) does not fit a %d px window", 2*c.Pipes.GapHalfHeight, 2*c.Pipes.SpawnMargin, c.Window.Height)
	check(c.SpawnPeriodFrames() > 0, "spawn period must be positive")

	if err := c.Agent.Validate(); err != nil {
		errs = append(errs, err)
	}

	check(c.Training.Episodes >= 0, "episodes must not be negative, got %d", c.Training.Episodes)
	check(c.Training.CheckpointEvery >= 0, "checkpoint_every must not be negative, got %d", c.Training.CheckpointEvery)
	check(c.Training.ModelFile != "", "model_file must not be empty")

	return errors.Join(errs...)
}

// Validate rejects agent hyperparameters the learner cannot be built with.
func (a AgentConfig) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(a.StateSize > 0, "state_size must be positive, got %d", a.StateSize)
	check(a.ActionSize > 1, "action_size must be at least 2, got %d", a.ActionSize)
	check(a.HiddenWidth > 0, "hidden_width must be positive, got %d", a.HiddenWidth)
	check(a.HiddenLayers > 0, "hidden_layers must be positive, got %d", a.HiddenLayers)
	check(a.BatchSize > 0, "batch_size must be positive, got %d", a.BatchSize)
	check(a.MemorySize > 0, "memory_size must be positive, got %d", a.MemorySize)
	check(a.Gamma >= 0 && a.Gamma <= 1, "gamma must be in [0, 1], got %v", a.Gamma)
	check(a.Epsilon >= 0 && a.Epsilon <= 1, "epsilon must be in [0, 1], got %v", a.Epsilon)
	check(a.EpsilonMin >= 0 && a.EpsilonMin <= 1, "epsilon_min must be in [0, 1], got %v", a.EpsilonMin)
	check(a.EpsilonDecay > 0 && a.EpsilonDecay <= 1, "epsilon_decay must be in (0, 1], got %v", a.EpsilonDecay)
	check(a.LearningRate > 0, "learning_rate must be positive, got %v", a.LearningRate)
	check(a.MinLearningRate >= 0, "min_learning_rate must not be negative, got %v", a.MinLearningRate)
	check(a.LRDecayEpisodes > 0, "lr_decay_episodes must be positive, got %v", a.LRDecayEpisodes)
	check(a.TargetSyncEvery > 0, "target_sync_every must be positive, got %d", a.TargetSyncEvery)
	check(a.GradClipNorm > 0, "grad_clip_norm must be positive, got %v", a.GradClipNorm)
	check(a.RMSAlpha >= 0 && a.RMSAlpha < 1, "rms_alpha must be in [0, 1), got %v", a.RMSAlpha)
	check(a.RMSEps > 0, "rms_eps must be positive, got %v", a.RMSEps)

	return errors.Join(errs...)
}

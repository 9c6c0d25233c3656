package config

import (
	_ "embed"
)

//go:embed defaults/flappy.yaml
var defaultYAML []byte

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:  450,
			Height: 600,
			FPS:    90,
		},
		Physics: PhysicsConfig{
			Gravity:     0.5,
			ScrollSpeed: 4,
			MaxVelocity: 8,
			FlapImpulse: 16, // Twice the max velocity: a flap always saturates upward
		},
		Bird: BirdConfig{
			X:      25,
			Y:      300,
			Width:  50,
			Height: 40,
		},
		Pipes: PipeConfig{
			Width:         80,
			GapHalfHeight: 75,
			SpawnMargin:   25,
			SpawnOffset:   50,
			SpawnPeriod:   0,
		},
		Reward: RewardConfig{
			Survive:         0.5,
			ZoneBonus:       20,
			ZoneScoreScale:  0.01,
			WrongWayPenalty: 20,
			Collision:       -100,
			CenterFocus:     0.4,
			ShiftDown:       0.1,
		},
		Agent: AgentConfig{
			StateSize:              2,
			ActionSize:             2,
			HiddenWidth:            64,
			HiddenLayers:           4,
			BatchSize:              32,
			Gamma:                  0.9,
			Epsilon:                0.25,
			EpsilonMin:             0.00001,
			EpsilonDecay:           0.9,
			LearningRate:           0.01,
			MinLearningRate:        0.005,
			LRDecayEpisodes:        100,
			MemorySize:             1000,
			TargetSyncEvery:        1,
			StopLearningAfterScore: 70,
			GradClipNorm:           1.0,
			RMSAlpha:               0.99,
			RMSEps:                 1e-8,
		},
		Training: TrainingConfig{
			Episodes:        500,
			SaveIfScore:     0,
			CheckpointEvery: 0,
			LoadModel:       false,
			SaveModel:       true,
			ModelsDir:       "~/.flappyrl/models",
			ModelFolder:     "",
			ModelFile:       "flappy_model",
			DBPath:          "~/.flappyrl/history.db",
		},
		Sound: SoundConfig{
			Enabled: false,
			Flap:    false,
			Point:   true,
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}

// Package config provides YAML-based configuration for the simulation, the
// learning agent and the training loop.
package config

// Config is the full configuration surface. It is built once at start-up,
// validated, and then passed by value to the simulation and the agent.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Physics  PhysicsConfig  `yaml:"physics"`
	Bird     BirdConfig     `yaml:"bird"`
	Pipes    PipeConfig     `yaml:"pipes"`
	Reward   RewardConfig   `yaml:"reward"`
	Agent    AgentConfig    `yaml:"agent"`
	Training TrainingConfig `yaml:"training"`
	Sound    SoundConfig    `yaml:"sound"`
}

// WindowConfig defines the playfield in world pixels.
type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// PhysicsConfig defines the bird and scroll physics.
type PhysicsConfig struct {
	Gravity     float64 `yaml:"gravity"`
	ScrollSpeed int     `yaml:"scroll_speed"`
	MaxVelocity float64 `yaml:"max_velocity"`
	FlapImpulse float64 `yaml:"flap_impulse"`
}

// BirdConfig defines the bird hitbox and start position.
type BirdConfig struct {
	X      int     `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
}

// PipeConfig defines pipe geometry and spawning.
type PipeConfig struct {
	Width         int `yaml:"width"`
	GapHalfHeight int `yaml:"gap_half_height"`
	SpawnMargin   int `yaml:"spawn_margin"` // Minimum distance between gap edge and ceiling/floor
	SpawnOffset   int `yaml:"spawn_offset"` // Pipes appear this far right of the window edge
	SpawnPeriod   int `yaml:"spawn_period"` // Frames between spawns, 0 = derived from width and speed
}

// RewardConfig defines the shaped reward.
type RewardConfig struct {
	Survive         float64 `yaml:"survive"`
	ZoneBonus       float64 `yaml:"zone_bonus"`
	ZoneScoreScale  float64 `yaml:"zone_score_scale"`
	WrongWayPenalty float64 `yaml:"wrong_way_penalty"`
	Collision       float64 `yaml:"collision"`
	CenterFocus     float64 `yaml:"center_focus"` // Zone half-width as a fraction of the gap half-height
	ShiftDown       float64 `yaml:"shift_down"`   // Zone centre offset below the gap centre, same unit
}

// AgentConfig defines the Double-DQN hyperparameters.
type AgentConfig struct {
	StateSize              int     `yaml:"state_size"`
	ActionSize             int     `yaml:"action_size"`
	HiddenWidth            int     `yaml:"hidden_width"`
	HiddenLayers           int     `yaml:"hidden_layers"`
	BatchSize              int     `yaml:"batch_size"`
	Gamma                  float64 `yaml:"gamma"`
	Epsilon                float64 `yaml:"epsilon"`
	EpsilonMin             float64 `yaml:"epsilon_min"`
	EpsilonDecay           float64 `yaml:"epsilon_decay"`
	LearningRate           float64 `yaml:"learning_rate"`
	MinLearningRate        float64 `yaml:"min_learning_rate"`
	LRDecayEpisodes        float64 `yaml:"lr_decay_episodes"`
	MemorySize             int     `yaml:"memory_size"`
	TargetSyncEvery        int     `yaml:"target_sync_every"`
	StopLearningAfterScore int     `yaml:"stop_learning_after_score"`
	GradClipNorm           float64 `yaml:"grad_clip_norm"`
	RMSAlpha               float64 `yaml:"rms_alpha"`
	RMSEps                 float64 `yaml:"rms_eps"`
}

// TrainingConfig defines the outer training loop and its artifacts.
type TrainingConfig struct {
	Episodes        int    `yaml:"episodes"`         // Stop once this episode index is reached
	SaveIfScore     int    `yaml:"save_if_score"`    // Snapshot at the end only if the best score beats this
	CheckpointEvery int    `yaml:"checkpoint_every"` // Episodes between rolling checkpoints, 0 = off
	LoadModel       bool   `yaml:"load_model"`
	SaveModel       bool   `yaml:"save_model"`
	ModelsDir       string `yaml:"models_dir"`
	ModelFolder     string `yaml:"model_folder"` // Snapshot folder to load from
	ModelFile       string `yaml:"model_file"`
	DBPath          string `yaml:"db_path"`
}

// SoundConfig gates the audio collaborator.
type SoundConfig struct {
	Enabled bool `yaml:"enabled"`
	Flap    bool `yaml:"flap"`
	Point   bool `yaml:"point"`
}

// SpawnPeriodFrames returns the number of frames between pipe spawns.
// Narrow windows space pipes one window-width apart; wide ones every 100 frames.
func (c Config) SpawnPeriodFrames() int {
	if c.Pipes.SpawnPeriod > 0 {
		return c.Pipes.SpawnPeriod
	}
	if c.Window.Width < 500 && c.Physics.ScrollSpeed > 0 {
		return c.Window.Width / c.Physics.ScrollSpeed
	}
	return 100
}

// Preset is a named adjustment applied on top of a loaded config.
type Preset string

const (
	PresetTrain Preset = "train"
	PresetEval  Preset = "eval"
)

// ParsePreset maps a CLI value to a preset. Unknown values map to "".
func ParsePreset(s string) Preset {
	switch s {
	case "train":
		return PresetTrain
	case "eval":
		return PresetEval
	default:
		return ""
	}
}

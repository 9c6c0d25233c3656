package core

// RuntimeConfig describes the terminal surface and tick rate a view runs at.
// Simulation sizes come from config.Config; this only covers presentation.
type RuntimeConfig struct {
	ScreenW  int   // Screen width in characters
	ScreenH  int   // Screen height in characters
	TickRate int   // View ticks per second
	Seed     int64 // RNG seed for deterministic runs (0 = time based)
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 90,
		Seed:     0,
	}
}

package agent

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vovakirdan/flappy-rl/internal/nn"
)

// Checkpoint errors. Every Save and Load failure wraps exactly one of them.
var (
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrCheckpointSchema   = errors.New("checkpoint does not match the agent")
	ErrCheckpointIO       = errors.New("checkpoint i/o failed")
)

// checkpoint is the persisted agent state.
type checkpoint struct {
	Network    []nn.Tensor
	Optimizer  []nn.Tensor
	Memory     []Transition // Oldest first
	Episode    int
	TopScore   int
	LastScore  int
	TotalScore int
	Epsilon    float64
}

// Save writes the agent state to path. The file is replaced atomically; the
// directory must already exist.
func (a *Agent) Save(path string) error {
	rec := checkpoint{
		Network:    a.online.State(),
		Optimizer:  a.opt.State(),
		Memory:     a.memory.Transitions(),
		Episode:    a.episode,
		TopScore:   a.topScore,
		LastScore:  a.lastScore,
		TotalScore: a.totalScore,
		Epsilon:    a.epsilon,
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after a successful rename

	if err := gob.NewEncoder(tmp).Encode(&rec); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: encode: %w", ErrCheckpointIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointIO, err)
	}
	return nil
}

// Load restores agent state from path. On any error the agent is left
// exactly as it was. The target network is reset to the loaded parameters.
func (a *Agent) Load(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrCheckpointNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointIO, err)
	}
	defer f.Close()

	var rec checkpoint
	if err := gob.NewDecoder(f).Decode(&rec); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrCheckpointSchema, path, err)
	}
	if err := a.checkRecord(rec); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointSchema, err)
	}

	// Everything below is validated and cannot fail.
	_ = a.online.SetState(rec.Network)
	_ = a.opt.SetState(rec.Optimizer)
	a.SyncTarget()

	memory := NewReplayBuffer(a.cfg.MemorySize)
	// A smaller buffer keeps the newest transitions.
	for _, t := range rec.Memory[max(0, len(rec.Memory)-a.cfg.MemorySize):] {
		memory.Add(t)
	}
	a.memory = memory

	a.episode = rec.Episode
	a.topScore = rec.TopScore
	a.lastScore = rec.LastScore
	a.totalScore = rec.TotalScore
	a.epsilon = rec.Epsilon
	return nil
}

func (a *Agent) checkRecord(rec checkpoint) error {
	if err := a.online.CheckState(rec.Network); err != nil {
		return fmt.Errorf("network: %w", err)
	}
	if err := a.opt.CheckState(rec.Optimizer); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	for i, t := range rec.Memory {
		if len(t.State) != a.cfg.StateSize || len(t.NextState) != a.cfg.StateSize {
			return fmt.Errorf("transition %d has state sizes %d/%d, expected %d",
				i, len(t.State), len(t.NextState), a.cfg.StateSize)
		}
		if t.Action < 0 || t.Action >= a.cfg.ActionSize {
			return fmt.Errorf("transition %d has action %d outside [0, %d)", i, t.Action, a.cfg.ActionSize)
		}
	}
	if rec.Episode < 1 || rec.TopScore < 0 || rec.Epsilon < 0 || rec.Epsilon > 1 {
		return fmt.Errorf("bookkeeping out of range: episode %d, top score %d, epsilon %v",
			rec.Episode, rec.TopScore, rec.Epsilon)
	}
	return nil
}

// Package agent implements the Double-DQN learner: epsilon-greedy action
// selection, experience replay, target-network synchronisation and the
// episode bookkeeping that goes with them.
package agent

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/vovakirdan/flappy-rl/internal/config"
	"github.com/vovakirdan/flappy-rl/internal/nn"
)

// EpisodeSummary is emitted once per completed episode.
type EpisodeSummary struct {
	Episode      int
	TopScore     int
	LastScore    int
	Epsilon      float64
	MemorySize   int
	AverageScore float64
	LearningRate float64
}

// Agent is a Double-DQN learner. It is not safe for concurrent use.
type Agent struct {
	cfg    config.AgentConfig
	rng    *rand.Rand
	logger *log.Logger

	online *nn.Network
	target *nn.Network
	opt    *nn.RMSProp
	memory *ReplayBuffer

	epsilon    float64
	episode    int // Index of the episode in progress, starting at 1
	topScore   int
	lastScore  int
	totalScore int
	trainSteps int
}

// New builds an agent from validated hyperparameters. Network initialisation,
// exploration and replay sampling all draw from rng.
func New(cfg config.AgentConfig, rng *rand.Rand, logger *log.Logger) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	if rng == nil {
		return nil, fmt.Errorf("agent: a random source is required")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	online, err := nn.New(nn.Layout(cfg.StateSize, cfg.HiddenWidth, cfg.HiddenLayers, cfg.ActionSize), rng)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	return &Agent{
		cfg:     cfg,
		rng:     rng,
		logger:  logger,
		online:  online,
		target:  online.Clone(),
		opt:     nn.NewRMSProp(online.Params(), cfg.RMSAlpha, cfg.RMSEps),
		memory:  NewReplayBuffer(cfg.MemorySize),
		epsilon: cfg.Epsilon,
		episode: 1,
	}, nil
}

// Act picks an action for obs: a uniform random one with probability epsilon,
// the online network's best one otherwise.
func (a *Agent) Act(obs []float64) int {
	if a.rng.Float64() < a.epsilon {
		return a.rng.Intn(a.cfg.ActionSize)
	}
	return a.Greedy(obs)
}

// Greedy returns the action with the highest online Q-value. Ties go to the
// lowest action index.
func (a *Agent) Greedy(obs []float64) int {
	return floats.MaxIdx(a.online.Predict(obs))
}

// QValues returns the online network's action values for obs.
func (a *Agent) QValues(obs []float64) []float64 {
	return a.online.Predict(obs)
}

// Remember stores a transition in the replay buffer.
func (a *Agent) Remember(t Transition) {
	a.memory.Add(t)
}

// Observe records a transition and, while learning is enabled, runs one
// training step.
func (a *Agent) Observe(t Transition) (loss float64, trained bool, err error) {
	a.Remember(t)
	if !a.Learning() {
		return 0, false, nil
	}
	return a.Replay()
}

// Learning reports whether the policy is still being updated. Learning stops
// for good once the best score reaches the configured cutoff.
func (a *Agent) Learning() bool {
	return a.topScore < a.cfg.StopLearningAfterScore
}

// Replay runs one Double-DQN update on a uniformly sampled batch. It is a
// no-op until the buffer holds a full batch.
func (a *Agent) Replay() (loss float64, trained bool, err error) {
	n := a.cfg.BatchSize
	if a.memory.Len() < n {
		return 0, false, nil
	}
	batch := a.memory.Sample(a.rng, n)

	states := mat.NewDense(n, a.cfg.StateSize, nil)
	next := mat.NewDense(n, a.cfg.StateSize, nil)
	for i, t := range batch {
		if len(t.State) != a.cfg.StateSize || len(t.NextState) != a.cfg.StateSize {
			return 0, false, fmt.Errorf("agent: transition %d has state sizes %d/%d, expected %d",
				i, len(t.State), len(t.NextState), a.cfg.StateSize)
		}
		states.SetRow(i, t.State)
		next.SetRow(i, t.NextState)
	}

	q := a.online.Forward(states)
	nextOnline := a.online.Forward(next)
	nextTarget := a.target.Forward(next)

	// MSE over the taken actions; other outputs get no gradient.
	dOut := mat.NewDense(n, a.cfg.ActionSize, nil)
	for i, t := range batch {
		best := floats.MaxIdx(nextOnline.RawRowView(i))
		target := t.Reward
		if !t.Done {
			target += a.cfg.Gamma * nextTarget.At(i, best)
		}
		diff := q.At(i, t.Action) - target
		loss += diff * diff / float64(n)
		dOut.Set(i, t.Action, 2*diff/float64(n))
	}

	lr := a.LearningRate()
	grads := a.online.Gradients(states, dOut)
	nn.ClipGradNorm(grads, a.cfg.GradClipNorm)
	if err := a.opt.Step(a.online.Params(), grads, lr); err != nil {
		return 0, false, fmt.Errorf("agent: %w", err)
	}
	a.trainSteps++
	return loss, true, nil
}

// LearningRate returns the step size for the current episode:
// max(min, initial * exp(-episode / decay)).
func (a *Agent) LearningRate() float64 {
	lr := a.cfg.LearningRate * math.Exp(-float64(a.episode)/a.cfg.LRDecayEpisodes)
	return math.Max(a.cfg.MinLearningRate, lr)
}

// EndEpisode books a finished episode: scores, epsilon decay and, every
// TargetSyncEvery episodes, a hard target-network sync.
func (a *Agent) EndEpisode(score int) EpisodeSummary {
	a.lastScore = score
	a.totalScore += score
	a.topScore = max(a.topScore, score)
	a.episode++
	a.epsilon = math.Max(a.cfg.EpsilonMin, a.epsilon*a.cfg.EpsilonDecay)

	completed := a.episode - 1
	if completed%a.cfg.TargetSyncEvery == 0 {
		a.SyncTarget()
		a.logger.Debug("target network synced", "episode", completed)
	}

	return EpisodeSummary{
		Episode:      a.episode,
		TopScore:     a.topScore,
		LastScore:    a.lastScore,
		Epsilon:      a.epsilon,
		MemorySize:   a.memory.Len(),
		AverageScore: float64(a.totalScore) / float64(completed),
		LearningRate: a.LearningRate(),
	}
}

// SyncTarget copies the online parameters into the target network.
func (a *Agent) SyncTarget() {
	// Both networks share one layout, CopyFrom cannot fail here.
	_ = a.target.CopyFrom(a.online)
}

// Epsilon returns the current exploration rate.
func (a *Agent) Epsilon() float64 { return a.epsilon }

// SetEpsilon overrides the exploration rate, clamped to [0, 1]. Used to fly
// a loaded model greedily.
func (a *Agent) SetEpsilon(e float64) { a.epsilon = math.Max(0, math.Min(1, e)) }

// Episode returns the index of the episode in progress, starting at 1.
func (a *Agent) Episode() int { return a.episode }

// TopScore returns the best episode score seen so far.
func (a *Agent) TopScore() int { return a.topScore }

// LastScore returns the score of the most recent episode.
func (a *Agent) LastScore() int { return a.lastScore }

// TotalScore returns the sum of all episode scores.
func (a *Agent) TotalScore() int { return a.totalScore }

// TrainSteps returns the number of gradient updates applied since construction.
func (a *Agent) TrainSteps() int { return a.trainSteps }

// Memory returns the replay buffer.
func (a *Agent) Memory() *ReplayBuffer { return a.memory }

// Online returns the trained network.
func (a *Agent) Online() *nn.Network { return a.online }

// Target returns the target network.
func (a *Agent) Target() *nn.Network { return a.target }

// Config returns the hyperparameters the agent was built with.
func (a *Agent) Config() config.AgentConfig { return a.cfg }

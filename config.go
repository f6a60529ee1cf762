package qmps

import "runtime"

// Strategy selects how the scheduler walks the batch.
type Strategy int

const (
	// StrategyAuto picks between the sequential and parallel paths using
	// ParallelQubitLimit and MinParallelBatch.
	StrategyAuto Strategy = iota
	// StrategySequential simulates circuits one by one through a single
	// reused state buffer. Peak memory is one live/scratch pair.
	StrategySequential
	// StrategyParallel partitions (circuit, observable) cells across
	// workers, each owning its own live/scratch pair.
	StrategyParallel
)

func (s Strategy) String() string {
	switch s {
	case StrategySequential:
		return "sequential"
	case StrategyParallel:
		return "parallel"
	default:
		return "auto"
	}
}

type Config struct {
	Strategy Strategy

	// ParallelQubitLimit is the qubit count at or above which StrategyAuto
	// falls back to the sequential path, bounding peak memory to a single
	// buffer pair.
	ParallelQubitLimit int

	// MinParallelBatch is the smallest batch size StrategyAuto will
	// parallelize.
	MinParallelBatch int

	// BuildWorkers bounds the circuit normalization fan-out.
	BuildWorkers int

	// SimWorkers bounds the parallel simulation path.
	SimWorkers int
}

func NewConfig() *Config {
	return &Config{
		Strategy:           StrategyAuto,
		ParallelQubitLimit: 26,
		MinParallelBatch:   2,
		BuildWorkers:       runtime.NumCPU(),
		SimWorkers:         runtime.NumCPU(),
	}
}

func (c *Config) buildWorkers() int {
	if c != nil && c.BuildWorkers > 0 {
		return c.BuildWorkers
	}
	return runtime.NumCPU()
}

func (c *Config) simWorkers() int {
	if c != nil && c.SimWorkers > 0 {
		return c.SimWorkers
	}
	return runtime.NumCPU()
}

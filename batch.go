package qmps

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/theapemachine/errnie"
)

// EmptyCircuitSentinel is written to every observable column of a circuit
// that normalized to zero gates. It is valid output, not a failure.
const EmptyCircuitSentinel = -2.0

/*
ResultMatrix is the batch output: one row per circuit, one column per
observable, cell (i, j) holding Re<psi_i|H_ij|psi_i>.
*/
type ResultMatrix struct {
	rows, cols int
	data       []float64
}

func newResultMatrix(rows, cols int) *ResultMatrix {
	return &ResultMatrix{
		rows: rows,
		cols: cols,
		data: make([]float64, rows*cols),
	}
}

func (r *ResultMatrix) Rows() int { return r.rows }

func (r *ResultMatrix) Cols() int { return r.cols }

func (r *ResultMatrix) At(i, j int) float64 {
	return r.data[i*r.cols+j]
}

// Row returns a copy of row i.
func (r *ResultMatrix) Row(i int) []float64 {
	out := make([]float64, r.cols)
	copy(out, r.data[i*r.cols:(i+1)*r.cols])
	return out
}

func (r *ResultMatrix) set(i, j int, v float64) {
	r.data[i*r.cols+j] = v
}

/*
Simulator computes expectation values of weighted-Pauli observables for
batches of parameterized circuits through a matrix-product state
representation. The bond dimension is fixed for the simulator's lifetime;
scheduling behaviour comes from Config.
*/
type Simulator struct {
	bondDim int
	config  *Config
	metrics *Metrics
}

func NewSimulator(bondDim int, config *Config) (*Simulator, error) {
	if bondDim < 2 {
		return nil, engineErrorf("new", "bond dimension must be >= 2, got %d", bondDim)
	}
	if config == nil {
		config = NewConfig()
	}
	errnie.Info("simulator ready - bond dimension %d, strategy %v", bondDim, config.Strategy)
	return &Simulator{
		bondDim: bondDim,
		config:  config,
		metrics: NewMetrics(),
	}, nil
}

// Metrics exposes the simulator's counters.
func (s *Simulator) Metrics() *Metrics {
	return s.metrics
}

/*
ExpectationBatch normalizes B raw programs against their symbol bindings
and returns the B x O matrix of expectation values for the B observable
lists. The call is synchronous and all-or-nothing: any shape, parse,
topology or engine failure fails the whole batch with no partial output.
*/
func (s *Simulator) ExpectationBatch(programs []Program, bindings []SymbolMap, observables [][]PauliSum) (*ResultMatrix, error) {
	b := len(programs)
	if len(bindings) != b {
		return nil, shapeErrorf("%d programs but %d symbol bindings", b, len(bindings))
	}
	if len(observables) != b {
		return nil, shapeErrorf("%d programs but %d observable lists", b, len(observables))
	}
	ops := 0
	if b > 0 {
		ops = len(observables[0])
	}
	for i, row := range observables {
		if len(row) != ops {
			return nil, shapeErrorf("observable list %d has %d entries, want %d", i, len(row), ops)
		}
	}

	start := time.Now()
	defer s.metrics.recordBatch(start)

	circuits, err := buildCircuits(programs, bindings, s.config.buildWorkers())
	if err != nil {
		return nil, err
	}
	if err := checkChainLocality(circuits); err != nil {
		return nil, err
	}

	maxQubits := 0
	for _, c := range circuits {
		if c.NumQubits > maxQubits {
			maxQubits = c.NumQubits
		}
	}

	out := newResultMatrix(b, ops)
	if b == 0 || ops == 0 {
		return out, nil
	}

	strategy := s.selectStrategy(maxQubits, b)
	log.Printf("expectation batch: %d circuits x %d observables, max %d qubits, %v path",
		b, ops, maxQubits, strategy)

	switch strategy {
	case StrategyParallel:
		err = s.computeSmall(circuits, observables, out)
	default:
		err = s.computeLarge(circuits, observables, out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// selectStrategy resolves the configured policy for this batch. Auto uses
// the parallel path only when every per-worker buffer stays affordable
// (below ParallelQubitLimit) and the batch is worth splitting.
func (s *Simulator) selectStrategy(maxQubits, batch int) Strategy {
	switch s.config.Strategy {
	case StrategySequential:
		return StrategySequential
	case StrategyParallel:
		return StrategyParallel
	}
	if maxQubits >= s.config.ParallelQubitLimit || batch < s.config.MinParallelBatch {
		return StrategySequential
	}
	return StrategyParallel
}

/*
computeLarge is the reference path: strictly sequential over circuits,
one engine whose buffers grow to the largest qubit count seen so far and
never shrink. Each circuit gets a fresh all-zero state, its gates in
order, then one expectation per observable. No concurrent numeric work
happens here, so results are deterministic independent of scheduling.
*/
func (s *Simulator) computeLarge(circuits []Circuit, observables [][]PauliSum, out *ResultMatrix) error {
	eng, err := NewEngine(s.bondDim)
	if err != nil {
		return err
	}
	eng.metrics = s.metrics

	for i, c := range circuits {
		eng.Reset(c.NumQubits)
		for _, g := range c.Gates {
			if err := eng.ApplyGate(g.Qubits, g.Matrix); err != nil {
				return fmt.Errorf("circuit %d: %w", i, err)
			}
		}
		s.metrics.recordCircuit()

		for j, sum := range observables[i] {
			if len(c.Gates) == 0 {
				out.set(i, j, EmptyCircuitSentinel)
				continue
			}
			v, err := eng.Expect(sum)
			if err != nil {
				return fmt.Errorf("circuit %d: %w", i, err)
			}
			out.set(i, j, v)
		}
	}
	return nil
}

/*
computeSmall fans (circuit, observable) cells out across workers, each
owning its own engine with the same grow-never-shrink and reset-per-
circuit discipline applied locally. Contiguous cell ranges are balanced
by an exponential cost estimate per circuit, and a worker recomputes its
state only when it crosses into a new circuit. Cells are independent, so
no ordering between workers matters; the first error recorded under the
lock wins and fails the batch after all workers join.
*/
func (s *Simulator) computeSmall(circuits []Circuit, observables [][]PauliSum, out *ResultMatrix) error {
	ops := out.cols
	ranges := partitionCells(circuits, ops, s.config.simWorkers())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for _, rg := range ranges {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			eng, err := NewEngine(s.bondDim)
			if err != nil {
				record(err)
				return
			}
			eng.metrics = s.metrics

			oldBatch := -1
			for cell := start; cell < end; cell++ {
				i, j := cell/ops, cell%ops
				c := circuits[i]

				if len(c.Gates) == 0 {
					out.set(i, j, EmptyCircuitSentinel)
					continue
				}

				if i != oldBatch {
					eng.Reset(c.NumQubits)
					for _, g := range c.Gates {
						if err := eng.ApplyGate(g.Qubits, g.Matrix); err != nil {
							record(fmt.Errorf("circuit %d: %w", i, err))
							return
						}
					}
					s.metrics.recordCircuit()
					oldBatch = i
				}

				v, err := eng.Expect(observables[i][j])
				if err != nil {
					record(fmt.Errorf("circuit %d: %w", i, err))
					return
				}
				out.set(i, j, v)
			}
		}(rg[0], rg[1])
	}
	wg.Wait()

	return firstErr
}

// partitionCells splits the flattened cell index space into contiguous
// [start, end) ranges with roughly equal cost, costing each circuit's
// cells at 2^qubits.
func partitionCells(circuits []Circuit, ops, workers int) [][2]int {
	total := len(circuits) * ops
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}

	cost := func(cell int) float64 {
		nq := circuits[cell/ops].NumQubits
		if nq > 60 {
			nq = 60
		}
		return float64(uint64(1) << uint(nq))
	}

	var totalCost float64
	for cell := 0; cell < total; cell++ {
		totalCost += cost(cell)
	}
	target := totalCost / float64(workers)

	var ranges [][2]int
	start := 0
	var acc float64
	for cell := 0; cell < total; cell++ {
		acc += cost(cell)
		if acc >= target && len(ranges) < workers-1 {
			ranges = append(ranges, [2]int{start, cell + 1})
			start = cell + 1
			acc = 0
		}
	}
	if start < total {
		ranges = append(ranges, [2]int{start, total})
	}
	return ranges
}

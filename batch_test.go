package qmps

import (
	"errors"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	. "github.com/smartystreets/goconvey/convey"
)

func zObs() []PauliSum {
	return []PauliSum{{{Coefficient: 1, Ops: map[int]Pauli{0: PauliZ}}}}
}

func ladderProgram(n int, theta float64) Program {
	p := Program{NumQubits: n}
	for q := 0; q < n; q++ {
		p.Gates = append(p.Gates, GateSpec{Name: "RY", Qubits: []int{q}, Value: theta})
	}
	for q := 0; q < n-1; q++ {
		p.Gates = append(p.Gates, GateSpec{Name: "CX", Qubits: []int{q, q + 1}})
	}
	return p
}

func TestExpectationBatch(t *testing.T) {
	Convey("Given a two-row batch with one empty circuit", t, func() {
		sim, err := NewSimulator(2, nil)
		So(err, ShouldBeNil)

		programs := []Program{
			{NumQubits: 1, Gates: []GateSpec{{Name: "Z", Qubits: []int{0}}}},
			{NumQubits: 1},
		}
		bindings := []SymbolMap{{}, {}}
		observables := [][]PauliSum{zObs(), zObs()}

		out, err := sim.ExpectationBatch(programs, bindings, observables)

		Convey("The identity-like circuit should report <Z> = +1", func() {
			So(err, ShouldBeNil)
			So(out.At(0, 0), ShouldAlmostEqual, 1, 1e-12)
		})

		Convey("The empty circuit should report the sentinel", func() {
			So(err, ShouldBeNil)
			So(out.At(1, 0), ShouldEqual, EmptyCircuitSentinel)
		})

		Convey("The output shape should match the batch", func() {
			So(out.Rows(), ShouldEqual, 2)
			So(out.Cols(), ShouldEqual, 1)
		})
	})

	Convey("Given an empty circuit with several observables", t, func() {
		sim, _ := NewSimulator(2, nil)

		obs := []PauliSum{
			{{Coefficient: 1, Ops: map[int]Pauli{0: PauliZ}}},
			{{Coefficient: -3, Ops: map[int]Pauli{0: PauliX}}},
			{{Coefficient: 1}},
		}
		out, err := sim.ExpectationBatch(
			[]Program{{NumQubits: 2}},
			[]SymbolMap{nil},
			[][]PauliSum{obs},
		)

		Convey("Every column should hold the sentinel regardless of the observable", func() {
			So(err, ShouldBeNil)
			So(out.Row(0), ShouldResemble, []float64{
				EmptyCircuitSentinel, EmptyCircuitSentinel, EmptyCircuitSentinel,
			})
		})
	})

	Convey("Given malformed batch shapes", t, func() {
		sim, _ := NewSimulator(2, nil)

		Convey("A binding count mismatch should fail before simulating", func() {
			_, err := sim.ExpectationBatch(
				[]Program{{NumQubits: 1}}, nil, [][]PauliSum{zObs()},
			)
			var shape *ShapeError
			So(errors.As(err, &shape), ShouldBeTrue)
		})

		Convey("A ragged observable matrix should fail", func() {
			_, err := sim.ExpectationBatch(
				[]Program{{NumQubits: 1}, {NumQubits: 1}},
				[]SymbolMap{nil, nil},
				[][]PauliSum{zObs(), {}},
			)
			var shape *ShapeError
			So(errors.As(err, &shape), ShouldBeTrue)
		})

		Convey("A bond dimension below two should be rejected up front", func() {
			_, err := NewSimulator(1, nil)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a batch where one circuit fails to normalize", t, func() {
		sim, _ := NewSimulator(2, nil)

		programs := []Program{
			ladderProgram(2, 0.3),
			{NumQubits: 1, Gates: []GateSpec{{Name: "RX", Qubits: []int{0}, Param: "missing"}}},
			ladderProgram(2, 0.9),
		}
		bindings := []SymbolMap{nil, {}, nil}
		observables := [][]PauliSum{zObs(), zObs(), zObs()}

		out, err := sim.ExpectationBatch(programs, bindings, observables)

		Convey("The whole call should fail with the offending row", func() {
			So(out, ShouldBeNil)
			var ne *NormalizeError
			So(errors.As(err, &ne), ShouldBeTrue)
			So(ne.Circuit, ShouldEqual, 1)
		})
	})

	Convey("Given an observable with a negative qubit index", t, func() {
		sim, _ := NewSimulator(2, nil)

		bad := []PauliSum{{{Coefficient: 1, Ops: map[int]Pauli{-1: PauliZ}}}}
		out, err := sim.ExpectationBatch(
			[]Program{{NumQubits: 1, Gates: []GateSpec{{Name: "X", Qubits: []int{0}}}}},
			[]SymbolMap{nil},
			[][]PauliSum{bad},
		)

		Convey("The batch should fail with an engine error, not crash", func() {
			So(out, ShouldBeNil)
			var engErr *EngineError
			So(errors.As(err, &engErr), ShouldBeTrue)
		})
	})

	Convey("Given a wide circuit followed by a narrow one", t, func() {
		cfg := NewConfig()
		cfg.Strategy = StrategySequential
		sim, _ := NewSimulator(2, cfg)

		programs := []Program{
			ladderProgram(5, 0.4),
			ladderProgram(2, 0.4),
		}
		bindings := make([]SymbolMap, 2)
		observables := [][]PauliSum{{zOn(4)}, {zOn(4)}}

		out, err := sim.ExpectationBatch(programs, bindings, observables)

		Convey("An observable past the narrow circuit should fail despite the grown buffer", func() {
			So(out, ShouldBeNil)
			var engErr *EngineError
			So(errors.As(err, &engErr), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "circuit 1")
		})
	})

	Convey("Given a circuit that violates chain locality", t, func() {
		sim, _ := NewSimulator(2, nil)

		_, err := sim.ExpectationBatch(
			[]Program{{NumQubits: 3, Gates: []GateSpec{{Name: "CZ", Qubits: []int{0, 2}}}}},
			[]SymbolMap{nil},
			[][]PauliSum{zObs()},
		)

		Convey("The whole call should fail with a topology error", func() {
			var topo *TopologyError
			So(errors.As(err, &topo), ShouldBeTrue)
		})
	})

	Convey("Given qubit counts 2, 3, 2, 5 in order", t, func() {
		cfg := NewConfig()
		cfg.Strategy = StrategySequential
		sim, _ := NewSimulator(2, cfg)

		programs := []Program{
			ladderProgram(2, 0.4),
			ladderProgram(3, 0.4),
			ladderProgram(2, 0.4),
			ladderProgram(5, 0.4),
		}
		bindings := make([]SymbolMap, 4)
		observables := [][]PauliSum{zObs(), zObs(), zObs(), zObs()}

		out, err := sim.ExpectationBatch(programs, bindings, observables)
		So(err, ShouldBeNil)

		Convey("The shared buffer should only ever grow", func() {
			snap := sim.Metrics().Snapshot()
			// Growth events: 1 -> 2, 2 -> 3, 3 -> 5. The repeated 2 reuses.
			So(snap.BufferGrowths, ShouldEqual, 3)
			So(snap.MaxQubits, ShouldEqual, 5)
			So(snap.CircuitsSimulated, ShouldEqual, 4)
		})

		Convey("Identical circuits should agree despite buffer reuse", func() {
			So(out.At(2, 0), ShouldAlmostEqual, out.At(0, 0), 1e-10)
		})
	})

	Convey("Given the same batch run twice", t, func() {
		run := func() *ResultMatrix {
			sim, _ := NewSimulator(3, nil)
			programs := []Program{
				ladderProgram(3, 0.7),
				ladderProgram(4, 1.3),
				{NumQubits: 2},
			}
			bindings := make([]SymbolMap, 3)
			observables := [][]PauliSum{
				{zObs()[0], {{Coefficient: 0.5, Ops: map[int]Pauli{0: PauliX, 1: PauliX}}}},
				{zObs()[0], {{Coefficient: 0.5, Ops: map[int]Pauli{0: PauliX, 1: PauliX}}}},
				{zObs()[0], {{Coefficient: 0.5, Ops: map[int]Pauli{0: PauliX, 1: PauliX}}}},
			}
			out, err := sim.ExpectationBatch(programs, bindings, observables)
			So(err, ShouldBeNil)
			return out
		}

		Convey("The results should be identical", func() {
			// Dereference so the dump covers the cells, not the pointer.
			first, second := run(), run()
			So(spew.Sdump(*first), ShouldEqual, spew.Sdump(*second))
		})
	})

	Convey("Given both scheduling strategies on one batch", t, func() {
		programs := []Program{
			ladderProgram(2, 0.2),
			ladderProgram(4, 0.8),
			{NumQubits: 3},
			ladderProgram(3, 1.9),
			ladderProgram(5, 0.5),
		}
		bindings := make([]SymbolMap, len(programs))
		observables := make([][]PauliSum, len(programs))
		for i := range observables {
			observables[i] = []PauliSum{
				{{Coefficient: 1, Ops: map[int]Pauli{0: PauliZ}}},
				{{Coefficient: 2, Ops: map[int]Pauli{0: PauliZ, 1: PauliZ}}},
			}
		}

		runWith := func(strategy Strategy) *ResultMatrix {
			cfg := NewConfig()
			cfg.Strategy = strategy
			cfg.SimWorkers = 2
			sim, _ := NewSimulator(4, cfg)
			out, err := sim.ExpectationBatch(programs, bindings, observables)
			So(err, ShouldBeNil)
			return out
		}

		Convey("Cell independence should make their results agree", func() {
			seq := runWith(StrategySequential)
			par := runWith(StrategyParallel)
			So(par.Rows(), ShouldEqual, seq.Rows())
			So(par.Cols(), ShouldEqual, seq.Cols())
			for i := 0; i < seq.Rows(); i++ {
				for j := 0; j < seq.Cols(); j++ {
					So(par.At(i, j), ShouldAlmostEqual, seq.At(i, j), 1e-9)
				}
			}
		})
	})

	Convey("Given a single-qubit rotation against its closed form", t, func() {
		sim, _ := NewSimulator(2, nil)
		theta := 1.234

		out, err := sim.ExpectationBatch(
			[]Program{{NumQubits: 1, Gates: []GateSpec{{Name: "RX", Qubits: []int{0}, Param: "theta"}}}},
			[]SymbolMap{{"theta": theta}},
			[][]PauliSum{zObs()},
		)

		Convey("Bond dimension two should be exact for unentangled states", func() {
			So(err, ShouldBeNil)
			So(out.At(0, 0), ShouldAlmostEqual, math.Cos(theta), 1e-10)
		})
	})
}

func TestStrategySelection(t *testing.T) {
	Convey("Given the auto strategy policy", t, func() {
		cfg := NewConfig()
		cfg.ParallelQubitLimit = 10
		cfg.MinParallelBatch = 2
		sim, _ := NewSimulator(2, cfg)

		Convey("Large circuits should stay sequential", func() {
			So(sim.selectStrategy(10, 8), ShouldEqual, StrategySequential)
			So(sim.selectStrategy(12, 8), ShouldEqual, StrategySequential)
		})

		Convey("Tiny batches should stay sequential", func() {
			So(sim.selectStrategy(4, 1), ShouldEqual, StrategySequential)
		})

		Convey("Small circuits in real batches should parallelize", func() {
			So(sim.selectStrategy(4, 8), ShouldEqual, StrategyParallel)
		})
	})

	Convey("Given forced strategies", t, func() {
		cfg := NewConfig()
		cfg.Strategy = StrategyParallel
		sim, _ := NewSimulator(2, cfg)
		So(sim.selectStrategy(30, 1), ShouldEqual, StrategyParallel)

		cfg2 := NewConfig()
		cfg2.Strategy = StrategySequential
		sim2, _ := NewSimulator(2, cfg2)
		So(sim2.selectStrategy(2, 100), ShouldEqual, StrategySequential)
	})
}

func TestPartitionCells(t *testing.T) {
	Convey("Given a batch with uneven circuit sizes", t, func() {
		circuits := []Circuit{
			{NumQubits: 2}, {NumQubits: 8}, {NumQubits: 3}, {NumQubits: 8},
		}

		ranges := partitionCells(circuits, 3, 3)

		Convey("Ranges should be contiguous and cover every cell", func() {
			So(len(ranges), ShouldBeGreaterThan, 0)
			So(ranges[0][0], ShouldEqual, 0)
			for i := 1; i < len(ranges); i++ {
				So(ranges[i][0], ShouldEqual, ranges[i-1][1])
			}
			So(ranges[len(ranges)-1][1], ShouldEqual, len(circuits)*3)
		})

		Convey("More workers than cells should clamp", func() {
			tiny := partitionCells(circuits[:1], 1, 16)
			So(len(tiny), ShouldEqual, 1)
			So(tiny[0], ShouldResemble, [2]int{0, 1})
		})
	})
}

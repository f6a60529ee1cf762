package qmps

import "log"

/*
Engine owns one mutable approximate quantum-state buffer plus a read-only
scratch buffer of identical allocated size, both at a fixed bond dimension.
It handles buffer lifecycle and gate sequencing; Reset must precede gate
application for every new circuit, with a qubit count covering the circuit.

Allocation only ever grows: Reset with a larger qubit count reallocates
both buffers and discards their content, Reset with a smaller or equal
count reuses the existing allocation.
*/
type Engine struct {
	bondDim  int
	capacity int
	width    int
	live     *mpsState
	scratch  *mpsState
	metrics  *Metrics
}

// NewEngine creates an engine with the given bond dimension (>= 2). The
// initial allocation covers a single qubit and grows on demand.
func NewEngine(bondDim int) (*Engine, error) {
	if bondDim < 2 {
		return nil, engineErrorf("new", "bond dimension must be >= 2, got %d", bondDim)
	}
	return &Engine{
		bondDim:  bondDim,
		capacity: 1,
		width:    1,
		live:     newMPSState(1, bondDim),
		scratch:  newMPSState(1, bondDim),
	}, nil
}

// BondDim reports the configured bond dimension.
func (e *Engine) BondDim() int {
	return e.bondDim
}

// Capacity reports the number of qubits currently allocated.
func (e *Engine) Capacity() int {
	return e.capacity
}

// Reset prepares the engine for a new circuit of n qubits: the buffers are
// grown if n exceeds the current allocation, and the live state is set to
// the all-zero basis configuration.
func (e *Engine) Reset(n int) {
	if n < 1 {
		n = 1
	}
	e.width = n
	if n > e.capacity {
		e.capacity = n
		e.live = newMPSState(n, e.bondDim)
		e.scratch = newMPSState(n, e.bondDim)
		log.Printf("state buffer grown to %d qubits (bond dimension %d)", n, e.bondDim)
		e.metrics.recordGrowth(n)
	}
	e.live.setZero()
}

/*
ApplyGate updates the live state with a dense unitary over the given qubit
indices. One-qubit gates are always exact; two-qubit gates must act on
adjacent qubits and are truncated to the bond dimension when the induced
entanglement exceeds it. An index beyond the current allocation or a
malformed matrix is a contract violation that fails the whole batch.
*/
func (e *Engine) ApplyGate(qubits []int, matrix []complex128) error {
	for _, q := range qubits {
		if q < 0 || q >= e.capacity {
			return engineErrorf("apply", "qubit %d outside %d qubit allocation", q, e.capacity)
		}
	}

	switch len(qubits) {
	case 1:
		if len(matrix) != 4 {
			return engineErrorf("apply", "one-qubit gate wants a 2x2 matrix, got %d entries", len(matrix))
		}
		e.live.applyOne(qubits[0], matrix)
	case 2:
		if len(matrix) != 16 {
			return engineErrorf("apply", "two-qubit gate wants a 4x4 matrix, got %d entries", len(matrix))
		}
		q0, q1 := qubits[0], qubits[1]
		if q1 == q0-1 {
			q0, q1 = q1, q0
			matrix = swapQubitOrder(matrix)
		} else if q1 != q0+1 {
			return engineErrorf("apply", "two-qubit gate on non-adjacent qubits %d,%d", qubits[0], qubits[1])
		}
		if e.live.applyTwo(q0, matrix) {
			e.metrics.recordTruncation()
		}
	default:
		return engineErrorf("apply", "unsupported gate arity %d", len(qubits))
	}

	e.metrics.recordGate()
	return nil
}

/*
Expect contracts the live state against a weighted Pauli-term sum and its
own conjugate, returning the real part of the scalar. The live buffer is
never mutated: each term is applied to a scratch copy, which is then
contracted back against the live state.
*/
func (e *Engine) Expect(sum PauliSum) (float64, error) {
	// Validate against the width of the last Reset, not the allocation:
	// a reused larger buffer still only holds the current circuit.
	if q, out := sum.qubitOutside(e.width); out {
		return 0, engineErrorf("expect", "observable touches qubit %d outside %d qubit state", q, e.width)
	}

	total := 0.0
	for _, term := range sum {
		e.scratch.copyFrom(e.live)
		for q, p := range term.Ops {
			if p == PauliI {
				continue
			}
			m := p.matrix()
			e.scratch.applyOne(q, m[:])
		}
		total += term.Coefficient * real(innerProduct(e.live, e.scratch))
	}
	return total, nil
}

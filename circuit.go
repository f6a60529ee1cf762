package qmps

import (
	"fmt"
	"strings"
)

/*
GateSpec is one gate of a raw program description. Param names a symbol to
be bound at normalization time; when Param is empty, Value is used directly
for parameterized gates.
*/
type GateSpec struct {
	Name   string
	Qubits []int
	Param  string
	Value  float64
}

// Program is a raw circuit description, prior to symbol binding.
type Program struct {
	NumQubits int
	Gates     []GateSpec
}

// SymbolMap binds symbol names to numeric parameter values.
type SymbolMap map[string]float64

/*
Circuit is a normalized, immutable gate sequence over NumQubits qubits.
One Circuit is produced per batch row and discarded after its result row is
written.
*/
type Circuit struct {
	NumQubits int
	Gates     []GateOp
}

/*
Normalize resolves a raw program against a symbol binding into an ordered
GateOp sequence. Unknown gate names, missing symbols, wrong arities and
out-of-range qubit indices all fail normalization.
*/
func Normalize(p Program, binding SymbolMap) (Circuit, error) {
	n := p.NumQubits
	if n < 1 {
		n = 1
	}

	gates := make([]GateOp, 0, len(p.Gates))
	for gi, spec := range p.Gates {
		op, err := resolveGate(spec, binding)
		if err != nil {
			return Circuit{}, fmt.Errorf("gate %d (%s): %w", gi, spec.Name, err)
		}
		for _, q := range op.Qubits {
			if q < 0 || q >= n {
				return Circuit{}, fmt.Errorf(
					"gate %d (%s): qubit %d out of range for %d qubit program",
					gi, spec.Name, q, n,
				)
			}
		}
		if op.arity() == 2 && op.Qubits[0] == op.Qubits[1] {
			return Circuit{}, fmt.Errorf(
				"gate %d (%s): duplicate qubit %d", gi, spec.Name, op.Qubits[0],
			)
		}
		gates = append(gates, op)
	}

	return Circuit{NumQubits: n, Gates: gates}, nil
}

func resolveGate(spec GateSpec, binding SymbolMap) (GateOp, error) {
	angle := func() (float64, error) {
		if spec.Param == "" {
			return spec.Value, nil
		}
		v, ok := binding[spec.Param]
		if !ok {
			return 0, fmt.Errorf("unbound symbol %q", spec.Param)
		}
		return v, nil
	}
	qubits := func(k int) ([]int, error) {
		if len(spec.Qubits) != k {
			return nil, fmt.Errorf("wants %d qubits, got %d", k, len(spec.Qubits))
		}
		return spec.Qubits, nil
	}

	switch strings.ToUpper(spec.Name) {
	case "X":
		q, err := qubits(1)
		if err != nil {
			return GateOp{}, err
		}
		return GateX(q[0]), nil
	case "Y":
		q, err := qubits(1)
		if err != nil {
			return GateOp{}, err
		}
		return GateY(q[0]), nil
	case "Z":
		q, err := qubits(1)
		if err != nil {
			return GateOp{}, err
		}
		return GateZ(q[0]), nil
	case "H":
		q, err := qubits(1)
		if err != nil {
			return GateOp{}, err
		}
		return GateH(q[0]), nil
	case "S":
		q, err := qubits(1)
		if err != nil {
			return GateOp{}, err
		}
		return GateS(q[0]), nil
	case "T":
		q, err := qubits(1)
		if err != nil {
			return GateOp{}, err
		}
		return GateT(q[0]), nil
	case "RX":
		q, err := qubits(1)
		if err != nil {
			return GateOp{}, err
		}
		theta, err := angle()
		if err != nil {
			return GateOp{}, err
		}
		return GateRX(q[0], theta), nil
	case "RY":
		q, err := qubits(1)
		if err != nil {
			return GateOp{}, err
		}
		theta, err := angle()
		if err != nil {
			return GateOp{}, err
		}
		return GateRY(q[0], theta), nil
	case "RZ":
		q, err := qubits(1)
		if err != nil {
			return GateOp{}, err
		}
		theta, err := angle()
		if err != nil {
			return GateOp{}, err
		}
		return GateRZ(q[0], theta), nil
	case "P", "PHASE":
		q, err := qubits(1)
		if err != nil {
			return GateOp{}, err
		}
		phi, err := angle()
		if err != nil {
			return GateOp{}, err
		}
		return GatePhase(q[0], phi), nil
	case "CX", "CNOT":
		q, err := qubits(2)
		if err != nil {
			return GateOp{}, err
		}
		return GateCX(q[0], q[1]), nil
	case "CZ":
		q, err := qubits(2)
		if err != nil {
			return GateOp{}, err
		}
		return GateCZ(q[0], q[1]), nil
	case "SWAP":
		q, err := qubits(2)
		if err != nil {
			return GateOp{}, err
		}
		return GateSWAP(q[0], q[1]), nil
	case "ISWAP":
		q, err := qubits(2)
		if err != nil {
			return GateOp{}, err
		}
		return GateISWAP(q[0], q[1]), nil
	case "RZZ", "ZZ":
		q, err := qubits(2)
		if err != nil {
			return GateOp{}, err
		}
		theta, err := angle()
		if err != nil {
			return GateOp{}, err
		}
		return GateRZZ(q[0], q[1], theta), nil
	default:
		return GateOp{}, fmt.Errorf("unknown gate %q", spec.Name)
	}
}

// checkChainLocality verifies every two-qubit gate acts on neighbouring
// indices, the layout the state representation assumes. Checked once per
// batch, after normalization.
func checkChainLocality(circuits []Circuit) error {
	for ci, c := range circuits {
		for gi, g := range c.Gates {
			if g.arity() != 2 {
				continue
			}
			d := g.Qubits[0] - g.Qubits[1]
			if d != 1 && d != -1 {
				return &TopologyError{Circuit: ci, Gate: gi, Qubits: g.Qubits}
			}
		}
	}
	return nil
}

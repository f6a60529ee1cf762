package qmps

import (
	"math"
	"math/cmplx"
)

/*
GateOp is a dense unitary acting on an ordered tuple of qubit indices.
The matrix is row-major, 2^k x 2^k for k target qubits, with the first
listed qubit as the most significant bit of the basis index. GateOps are
immutable once built.
*/
type GateOp struct {
	Qubits []int
	Matrix []complex128
}

func (g GateOp) arity() int {
	return len(g.Qubits)
}

func single(q int, m [4]complex128) GateOp {
	return GateOp{Qubits: []int{q}, Matrix: m[:]}
}

func double(a, b int, m [16]complex128) GateOp {
	return GateOp{Qubits: []int{a, b}, Matrix: m[:]}
}

func GateX(q int) GateOp {
	return single(q, [4]complex128{0, 1, 1, 0})
}

func GateY(q int) GateOp {
	return single(q, [4]complex128{0, -1i, 1i, 0})
}

func GateZ(q int) GateOp {
	return single(q, [4]complex128{1, 0, 0, -1})
}

func GateH(q int) GateOp {
	// H = 1/√2 * [1  1]
	//            [1 -1]
	h := complex(1/math.Sqrt2, 0)
	return single(q, [4]complex128{h, h, h, -h})
}

func GateS(q int) GateOp {
	return single(q, [4]complex128{1, 0, 0, 1i})
}

func GateT(q int) GateOp {
	return single(q, [4]complex128{1, 0, 0, cmplx.Exp(complex(0, math.Pi/4))})
}

func GateRX(q int, theta float64) GateOp {
	c := complex(math.Cos(theta/2), 0)
	s := complex(0, -math.Sin(theta/2))
	return single(q, [4]complex128{c, s, s, c})
}

func GateRY(q int, theta float64) GateOp {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	return single(q, [4]complex128{c, -s, s, c})
}

func GateRZ(q int, theta float64) GateOp {
	return single(q, [4]complex128{
		cmplx.Exp(complex(0, -theta/2)), 0,
		0, cmplx.Exp(complex(0, theta/2)),
	})
}

func GatePhase(q int, phi float64) GateOp {
	return single(q, [4]complex128{1, 0, 0, cmplx.Exp(complex(0, phi))})
}

// GateCX flips target when control is set. Control is the first qubit.
func GateCX(control, target int) GateOp {
	return double(control, target, [16]complex128{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
		0, 0, 1, 0,
	})
}

func GateCZ(a, b int) GateOp {
	return double(a, b, [16]complex128{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, -1,
	})
}

func GateSWAP(a, b int) GateOp {
	return double(a, b, [16]complex128{
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
	})
}

func GateISWAP(a, b int) GateOp {
	return double(a, b, [16]complex128{
		1, 0, 0, 0,
		0, 0, 1i, 0,
		0, 1i, 0, 0,
		0, 0, 0, 1,
	})
}

func GateRZZ(a, b int, theta float64) GateOp {
	p := cmplx.Exp(complex(0, theta/2))
	m := cmplx.Exp(complex(0, -theta/2))
	return double(a, b, [16]complex128{
		m, 0, 0, 0,
		0, p, 0, 0,
		0, 0, p, 0,
		0, 0, 0, m,
	})
}

// swapQubitOrder reinterprets a 4x4 matrix given for qubits (a, b) as one
// for qubits (b, a) by swapping the two bits of every basis index.
func swapQubitOrder(m []complex128) []complex128 {
	sw := [4]int{0, 2, 1, 3}
	out := make([]complex128, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r*4+c] = m[sw[r]*4+sw[c]]
		}
	}
	return out
}

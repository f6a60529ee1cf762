package qmps

// Pauli is one of the four single-qubit Pauli operators.
type Pauli byte

const (
	PauliI Pauli = iota
	PauliX
	PauliY
	PauliZ
)

func (p Pauli) String() string {
	switch p {
	case PauliX:
		return "X"
	case PauliY:
		return "Y"
	case PauliZ:
		return "Z"
	default:
		return "I"
	}
}

func (p Pauli) matrix() [4]complex128 {
	switch p {
	case PauliX:
		return [4]complex128{0, 1, 1, 0}
	case PauliY:
		return [4]complex128{0, -1i, 1i, 0}
	case PauliZ:
		return [4]complex128{1, 0, 0, -1}
	default:
		return [4]complex128{1, 0, 0, 1}
	}
}

/*
PauliTerm is a tensor product of single-qubit Pauli operators with a real
coefficient. Qubits absent from Ops carry the identity.
*/
type PauliTerm struct {
	Coefficient float64
	Ops         map[int]Pauli
}

// PauliSum is a weighted sum of PauliTerms representing a Hermitian
// observable.
type PauliSum []PauliTerm

// qubitOutside returns the first non-identity index the sum places
// outside an n qubit state, negative indices included. Explicit
// identities are never touched, so any index is fine for them.
func (s PauliSum) qubitOutside(n int) (int, bool) {
	for _, term := range s {
		for q, p := range term.Ops {
			if p != PauliI && (q < 0 || q >= n) {
				return q, true
			}
		}
	}
	return 0, false
}

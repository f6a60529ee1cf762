package qmps

import "fmt"

// ShapeError reports mismatched batch dimensions, detected before any
// simulation work starts.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string {
	return "shape: " + e.Msg
}

func shapeErrorf(format string, args ...any) error {
	return &ShapeError{Msg: fmt.Sprintf(format, args...)}
}

// NormalizeError reports a circuit that failed to parse or bind during the
// build stage. The whole batch is considered failed.
type NormalizeError struct {
	Circuit int
	Err     error
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("normalize circuit %d: %v", e.Circuit, e.Err)
}

func (e *NormalizeError) Unwrap() error {
	return e.Err
}

// TopologyError reports a two-qubit gate whose targets are not adjacent on
// the chain the state representation assumes.
type TopologyError struct {
	Circuit int
	Gate    int
	Qubits  []int
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf(
		"topology: circuit %d gate %d acts on non-adjacent qubits %v",
		e.Circuit, e.Gate, e.Qubits,
	)
}

// EngineError reports a contract violation inside the state engine, such as
// a qubit index beyond the current allocation or a malformed gate matrix.
// It is fatal for the batch and never retried.
type EngineError struct {
	Op  string
	Msg string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine: %s: %s", e.Op, e.Msg)
}

func engineErrorf(op, format string, args ...any) error {
	return &EngineError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

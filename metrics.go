package qmps

import (
	"sync"
	"time"
)

// Metrics tracks simulation counters across batches. All fields are
// guarded by the mutex; a nil *Metrics is safe to record against.
type Metrics struct {
	mu sync.RWMutex

	BatchCount        int64
	CircuitsSimulated int64
	GatesApplied      int64
	Truncations       int64
	BufferGrowths     int64
	MaxQubits         int
	TotalSimTime      time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordGate() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.GatesApplied++
	m.mu.Unlock()
}

func (m *Metrics) recordTruncation() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.Truncations++
	m.mu.Unlock()
}

func (m *Metrics) recordGrowth(qubits int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.BufferGrowths++
	if qubits > m.MaxQubits {
		m.MaxQubits = qubits
	}
	m.mu.Unlock()
}

func (m *Metrics) recordCircuit() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.CircuitsSimulated++
	m.mu.Unlock()
}

func (m *Metrics) recordBatch(start time.Time) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.BatchCount++
	m.TotalSimTime += time.Since(start)
	m.mu.Unlock()
}

// MetricsSnapshot is a plain copy of the counters at one instant.
type MetricsSnapshot struct {
	BatchCount        int64
	CircuitsSimulated int64
	GatesApplied      int64
	Truncations       int64
	BufferGrowths     int64
	MaxQubits         int
	TotalSimTime      time.Duration
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		BatchCount:        m.BatchCount,
		CircuitsSimulated: m.CircuitsSimulated,
		GatesApplied:      m.GatesApplied,
		Truncations:       m.Truncations,
		BufferGrowths:     m.BufferGrowths,
		MaxQubits:         m.MaxQubits,
		TotalSimTime:      m.TotalSimTime,
	}
}

// ExportMetrics returns the counters in a loggable map form.
func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"batches":        m.BatchCount,
		"circuits":       m.CircuitsSimulated,
		"gates":          m.GatesApplied,
		"truncations":    m.Truncations,
		"buffer_growths": m.BufferGrowths,
		"max_qubits":     m.MaxQubits,
		"total_sim_ms":   m.TotalSimTime.Milliseconds(),
	}
}

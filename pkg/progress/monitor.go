package progress

import (
	"math"
	"sync"
	"sync/atomic"
)

// Monitor is a node of a progress tree. A leaf holds a value in [0,1]; a composite
// reports the mean of its children at read time. A monitor becomes a composite
// once CreateChild is called on it.
type Monitor struct {
	value atomic.Uint64 // float64 bits

	mu       sync.RWMutex
	children []*Monitor
}

func New() *Monitor {
	return &Monitor{}
}

// CreateChild attaches a new monitor to m and returns it.
func (m *Monitor) CreateChild() *Monitor {
	child := New()
	m.mu.Lock()
	m.children = append(m.children, child)
	m.mu.Unlock()
	return child
}

// SetProgress stores v clamped to [0,1]. It has no visible effect on a composite.
func (m *Monitor) SetProgress(v float64) {
	switch {
	case math.IsNaN(v), v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	m.value.Store(math.Float64bits(v))
}

// Progress returns the stored value of a leaf or the mean of a composite's children.
func (m *Monitor) Progress() float64 {
	m.mu.RLock()
	children := m.children
	m.mu.RUnlock()

	if children == nil {
		return math.Float64frombits(m.value.Load())
	}

	var sum float64
	for _, child := range children {
		sum += child.Progress()
	}
	return sum / float64(len(children))
}

// Children returns the number of direct children.
func (m *Monitor) Children() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.children)
}

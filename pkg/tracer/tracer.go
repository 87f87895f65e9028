package tracer

import (
	"sync"
	"sync/atomic"

	"github.com/aquasecurity/trivy-java-resolver/pkg/progress"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

var _ types.TransferListener = (*Tracer)(nil)

// Tracer turns byte-level transfer events into per-artifact progress and a running
// grand total. It is safe for concurrent use by many fetch workers.
type Tracer struct {
	monitors map[types.Key]*progress.Monitor // read-only once transfers start
	status   func(string)
	si       bool

	totalSize        atomic.Int64
	totalTransferred atomic.Int64

	sizes       sync.Map // types.Key -> struct{}, artifacts whose size was counted
	transferred sync.Map // types.Key -> *atomic.Int64
}

type Option struct {
	// Status receives a rendered "transferred / total" string after every event.
	Status func(string)
	// SI selects decimal units (KB, MB) instead of binary ones (KiB, MiB).
	SI bool
}

// New creates a tracer. monitors maps artifact identities to their progress leaves.
func New(monitors map[types.Key]*progress.Monitor, opt Option) *Tracer {
	return &Tracer{
		monitors: monitors,
		status:   opt.Status,
		si:       opt.SI,
	}
}

// Transferred records one transfer event.
func (t *Tracer) Transferred(ev types.TransferEvent) {
	key := ev.Artifact.Key()

	if ev.Total >= 0 {
		if _, loaded := t.sizes.LoadOrStore(key, struct{}{}); !loaded {
			t.totalSize.Add(ev.Total)
		}
	}

	v, _ := t.transferred.LoadOrStore(key, new(atomic.Int64))
	counter := v.(*atomic.Int64)
	for {
		prev := counter.Load()
		if ev.Transferred <= prev {
			break
		}
		if counter.CompareAndSwap(prev, ev.Transferred) {
			t.totalTransferred.Add(ev.Transferred - prev)
			break
		}
	}

	if mon, ok := t.monitors[key]; ok && ev.Total > 0 {
		// re-check after the store so a slower writer never leaves a stale value behind
		for {
			n := counter.Load()
			mon.SetProgress(float64(n) / float64(ev.Total))
			if counter.Load() == n {
				break
			}
		}
	}

	if t.status != nil {
		t.status(t.String())
	}
}

// TotalSize returns the sum of all known artifact sizes.
func (t *Tracer) TotalSize() int64 {
	return t.totalSize.Load()
}

// TotalTransferred returns the number of bytes transferred across all artifacts.
func (t *Tracer) TotalTransferred() int64 {
	return t.totalTransferred.Load()
}

// String renders the transferred byte count, followed by the grand total when it is known,
// e.g. "1.5 MiB / 3.0 MiB". The two values are separated by " / ".
func (t *Tracer) String() string {
	transferred, total := t.TotalTransferred(), t.TotalSize()
	s := FormatBytes(transferred, t.si)
	if total > 0 && total >= transferred {
		s += " / " + FormatBytes(total, t.si)
	}
	return s
}

package views

import "forcedeck/models"

// DefaultTracePoints is the TraceBuffer capacity used for session plots.
const DefaultTracePoints = 20000

// TraceBuffer keeps an evenly thinned copy of a metrics stream in bounded
// memory. Every stride-th sample is kept; when the buffer fills, every
// other kept sample is discarded and the stride doubles, so a session of
// any length ends with between capacity/2 and capacity points spanning
// the whole recording. Not safe for concurrent use.
type TraceBuffer struct {
	capacity int
	stride   uint64
	seen     uint64
	points   []models.Metrics
}

func NewTraceBuffer(capacity int) *TraceBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &TraceBuffer{capacity: capacity, stride: 1, points: make([]models.Metrics, 0, capacity)}
}

func (b *TraceBuffer) Add(m models.Metrics) {
	n := b.seen
	b.seen++
	if n%b.stride != 0 {
		return
	}
	if len(b.points) == b.capacity {
		kept := b.points[:0]
		for i := 0; i < len(b.points); i += 2 {
			kept = append(kept, b.points[i])
		}
		b.points = kept
		b.stride *= 2
		if n%b.stride != 0 {
			return
		}
	}
	b.points = append(b.points, m)
}

// Points returns the retained samples in arrival order. The slice is
// owned by the buffer until the next Add.
func (b *TraceBuffer) Points() []models.Metrics { return b.points }

func (b *TraceBuffer) Len() int { return len(b.points) }

// Seen counts every sample offered, kept or not.
func (b *TraceBuffer) Seen() uint64 { return b.seen }

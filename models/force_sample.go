package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSamplingRate is returned when a sample is built with a
// non-positive sampling rate.
var ErrInvalidSamplingRate = errors.New("sampling rate must be positive")

// DeckForces holds the four load-cell readings of one deck, in newtons,
// ordered like CellOffsetsM.
type DeckForces [CellsPerDeck]float64

// ForceSample is one synchronised read across both decks.
// It is a value type: fields are unexported and accessors return copies,
// so a sample cannot change after NewForceSample returns it.
type ForceSample struct {
	timestampNs  int64
	left         DeckForces
	right        DeckForces
	samplingRate float64 // Hz
	index        uint64
}

// NewForceSample builds a sample. Readings are stored as given; plausibility
// is checked separately by IsValid.
func NewForceSample(timestampNs int64, left, right DeckForces, samplingRate float64, index uint64) (ForceSample, error) {
	if !(samplingRate > 0) {
		return ForceSample{}, fmt.Errorf("%w (got %v)", ErrInvalidSamplingRate, samplingRate)
	}
	return ForceSample{
		timestampNs:  timestampNs,
		left:         left,
		right:        right,
		samplingRate: samplingRate,
		index:        index,
	}, nil
}

func (s ForceSample) TimestampNs() int64      { return s.timestampNs }
func (s ForceSample) Time() time.Time         { return time.Unix(0, s.timestampNs) }
func (s ForceSample) LeftForces() DeckForces  { return s.left }
func (s ForceSample) RightForces() DeckForces { return s.right }
func (s ForceSample) SamplingRate() float64   { return s.samplingRate }
func (s ForceSample) SampleIndex() uint64     { return s.index }

// SampleOverrides lists the fields to replace when deriving a new sample.
// Nil fields keep the original value.
type SampleOverrides struct {
	TimestampNs  *int64
	Left         *DeckForces
	Right        *DeckForces
	SamplingRate *float64
	SampleIndex  *uint64
}

// With returns a new sample with the given fields replaced. The receiver is
// left untouched.
func (s ForceSample) With(o SampleOverrides) (ForceSample, error) {
	ts, left, right, rate, idx := s.timestampNs, s.left, s.right, s.samplingRate, s.index
	if o.TimestampNs != nil {
		ts = *o.TimestampNs
	}
	if o.Left != nil {
		left = *o.Left
	}
	if o.Right != nil {
		right = *o.Right
	}
	if o.SamplingRate != nil {
		rate = *o.SamplingRate
	}
	if o.SampleIndex != nil {
		idx = *o.SampleIndex
	}
	return NewForceSample(ts, left, right, rate, idx)
}

func (s ForceSample) String() string {
	return fmt.Sprintf("sample#%d L=%v R=%v @%gHz", s.index, s.left, s.right, s.samplingRate)
}

// CSVHeader returns the ordered column names for the raw sample CSV.
func (ForceSample) CSVHeader() []string {
	return []string{
		"timestamp_ns", "sample_index", "sampling_rate_hz",
		"l0", "l1", "l2", "l3",
		"r0", "r1", "r2", "r3",
	}
}

// CSVRow serialises the raw readings of one sample.
func (s ForceSample) CSVRow() []string {
	row := []string{
		itoa64(s.timestampNs),
		utoa64(s.index),
		ftoa(s.samplingRate, 1),
	}
	for _, f := range s.left {
		row = append(row, ftoa(f, 3))
	}
	for _, f := range s.right {
		row = append(row, ftoa(f, 3))
	}
	return row
}

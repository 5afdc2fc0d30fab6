package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"forcedeck/models"
)

// ErrMalformedFrame wraps every amplifier line that cannot be decoded.
var ErrMalformedFrame = errors.New("malformed frame")

// frameFields is the sample index followed by 4 left and 4 right readings.
const frameFields = 1 + 2*models.CellsPerDeck

// ParseFrame decodes one amplifier line:
//
//	idx,l0,l1,l2,l3,r0,r1,r2,r3
//
// Readings are newtons. Range checks are left to ForceSample.IsValid, so a
// saturated cell still parses.
func ParseFrame(line string, timestampNs int64, samplingRate float64) (models.ForceSample, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != frameFields {
		return models.ForceSample{}, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedFrame, frameFields, len(parts))
	}

	idx, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return models.ForceSample{}, fmt.Errorf("%w: index: %v", ErrMalformedFrame, err)
	}

	var left, right models.DeckForces
	for i := 0; i < 2*models.CellsPerDeck; i++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64)
		if err != nil {
			return models.ForceSample{}, fmt.Errorf("%w: cell %d: %v", ErrMalformedFrame, i, err)
		}
		if i < models.CellsPerDeck {
			left[i] = f
		} else {
			right[i-models.CellsPerDeck] = f
		}
	}

	return models.NewForceSample(timestampNs, left, right, samplingRate, idx)
}

// FormatFrame is the inverse of ParseFrame.
func FormatFrame(s models.ForceSample) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(s.SampleIndex(), 10))
	for _, d := range [2]models.DeckForces{s.LeftForces(), s.RightForces()} {
		for _, f := range d {
			b.WriteByte(',')
			b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
	return b.String()
}

// maxFrameLen bounds one amplifier line. A well-formed frame is under 200
// bytes; anything longer means a lost newline or line noise.
const maxFrameLen = 4096

// readFrames splits r into lines and hands each decoded sample to emit.
// Blank lines and lines starting with '#' (amplifier status) are skipped;
// undecodable lines go to bad. A line that outgrows maxFrameLen is reported
// once and discarded up to the next newline. A final line without a
// newline is still decoded at EOF. A zero-byte read (serial timeout) just
// re-checks ctx. Returns nil on EOF or cancellation.
func readFrames(ctx context.Context, r io.Reader, now func() int64, rate float64,
	emit func(models.ForceSample), bad func(string, error)) error {

	handle := func(raw []byte) {
		line := strings.TrimSpace(string(raw))
		if line == "" || strings.HasPrefix(line, "#") {
			return
		}
		s, err := ParseFrame(line, now(), rate)
		if err != nil {
			bad(line, err)
			return
		}
		emit(s)
	}

	chunk := make([]byte, 4096)
	var pending []byte
	overflow := false

	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := r.Read(chunk)
		data := chunk[:n]
		for len(data) > 0 {
			i := bytes.IndexByte(data, '\n')
			if i < 0 {
				if !overflow {
					pending = append(pending, data...)
				}
				break
			}
			if overflow {
				overflow = false
			} else {
				pending = append(pending, data[:i]...)
				handle(pending)
			}
			pending = pending[:0]
			data = data[i+1:]
		}
		if len(pending) > maxFrameLen {
			bad(string(pending[:64])+"...",
				fmt.Errorf("%w: line exceeds %d bytes", ErrMalformedFrame, maxFrameLen))
			pending = pending[:0]
			overflow = true
		}
		if err == io.EOF {
			if !overflow {
				handle(pending)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frames: %w", err)
		}
	}
}

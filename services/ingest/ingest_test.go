package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"forcedeck/models"
	"forcedeck/utils"
)

func TestParseFrame(t *testing.T) {
	s, err := ParseFrame(" 12, 100,101,102,103, 200,201,202,5000.5\r\n", 99, 1000)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if s.SampleIndex() != 12 || s.TimestampNs() != 99 || s.SamplingRate() != 1000 {
		t.Errorf("metadata wrong: %v", s)
	}
	if s.LeftForces() != (models.DeckForces{100, 101, 102, 103}) {
		t.Errorf("left = %v", s.LeftForces())
	}
	if s.RightForces()[3] != 5000.5 {
		t.Errorf("right = %v", s.RightForces())
	}
	// out-of-range parses; validation happens downstream
	if s.IsValid() {
		t.Errorf("5000.5 N cell should make the sample invalid")
	}
}

func TestParseFrameErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"1,2,3",
		"x,1,1,1,1,1,1,1,1",
		"1,1,1,1,abc,1,1,1,1",
		"1,1,1,1,1,1,1,1,1,1",
	} {
		if _, err := ParseFrame(line, 0, 1000); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("%q: expected ErrMalformedFrame, got %v", line, err)
		}
	}
	if _, err := ParseFrame("1,1,1,1,1,1,1,1,1", 0, 0); !errors.Is(err, models.ErrInvalidSamplingRate) {
		t.Errorf("expected ErrInvalidSamplingRate, got %v", err)
	}
}

func TestFormatFrameRoundTrip(t *testing.T) {
	in, _ := models.NewForceSample(5, models.DeckForces{1.5, -2, 3.25, 4}, models.DeckForces{0, 10, 20, 30}, 1000, 77)
	out, err := ParseFrame(FormatFrame(in), 5, 1000)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if out != in {
		t.Errorf("round trip: got %v, want %v", out, in)
	}
}

func TestReadFrames(t *testing.T) {
	input := "# amp v2 ready\n" +
		"0,1,1,1,1,2,2,2,2\n" +
		"\n" +
		"garbage\n" +
		"1,1,1,1,1,2,2,2,2\r\n" +
		"2,1,1,1,1,2,2,2,2" // no trailing newline

	var got []models.ForceSample
	var bad []string
	err := readFrames(context.Background(), strings.NewReader(input), func() int64 { return 1 }, 1000,
		func(s models.ForceSample) { got = append(got, s) },
		func(line string, _ error) { bad = append(bad, line) })
	if err != nil {
		t.Fatalf("readFrames: %v", err)
	}
	if len(got) != 3 || got[0].SampleIndex() != 0 || got[2].SampleIndex() != 2 {
		t.Errorf("decoded %v", got)
	}
	if len(bad) != 1 || bad[0] != "garbage" {
		t.Errorf("bad lines = %q", bad)
	}
}

func TestReadFramesTruncatedTail(t *testing.T) {
	input := "0,1,1,1,1,2,2,2,2\n2,1,1,1,1,2,2,2"
	var got int
	var errs []error
	err := readFrames(context.Background(), strings.NewReader(input), func() int64 { return 1 }, 1000,
		func(models.ForceSample) { got++ },
		func(_ string, err error) { errs = append(errs, err) })
	if err != nil {
		t.Fatalf("readFrames: %v", err)
	}
	if got != 1 {
		t.Errorf("decoded %d samples, want 1", got)
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrMalformedFrame) {
		t.Errorf("truncated tail should be reported once as malformed, got %v", errs)
	}
}

// noiseReader yields n bytes of line noise with no newline.
type noiseReader struct{ n int }

func (r *noiseReader) Read(p []byte) (int, error) {
	if r.n <= 0 {
		return 0, io.EOF
	}
	k := min(len(p), r.n)
	for i := range p[:k] {
		p[i] = 'x'
	}
	r.n -= k
	return k, nil
}

func TestReadFramesOverlongLine(t *testing.T) {
	input := "0,1,1,1,1,2,2,2,2\n" +
		strings.Repeat("9", 3*maxFrameLen) + "\n" +
		"1,1,1,1,1,2,2,2,2\n"
	var got []uint64
	var errs []error
	err := readFrames(context.Background(), strings.NewReader(input), func() int64 { return 1 }, 1000,
		func(s models.ForceSample) { got = append(got, s.SampleIndex()) },
		func(_ string, err error) { errs = append(errs, err) })
	if err != nil {
		t.Fatalf("readFrames: %v", err)
	}
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("frames around the long line: %v", got)
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrMalformedFrame) {
		t.Errorf("long line should be reported once, got %v", errs)
	}

	// a stream that never sends a newline is dropped, not buffered
	errs = nil
	err = readFrames(context.Background(), &noiseReader{n: 1 << 20}, func() int64 { return 1 }, 1000,
		func(models.ForceSample) { t.Fatal("noise decoded as a frame") },
		func(line string, err error) {
			if len(line) > 128 {
				t.Errorf("reported line not truncated: %d bytes", len(line))
			}
			errs = append(errs, err)
		})
	if err != nil {
		t.Fatalf("readFrames: %v", err)
	}
	if len(errs) != 1 {
		t.Errorf("newline-free stream reported %d times, want 1", len(errs))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func TestReadFramesPropagatesError(t *testing.T) {
	err := readFrames(context.Background(), failingReader{}, utils.NowNano, 1000,
		func(models.ForceSample) {}, func(string, error) {})
	if err == nil || !strings.Contains(err.Error(), "device unplugged") {
		t.Errorf("expected wrapped read error, got %v", err)
	}
}

func TestPlateReaderSerial(t *testing.T) {
	utils.InitLogger(utils.ERROR, "")

	frames := "0,100,100,100,100,100,100,100,100\n" +
		"1,100,100,100,100,100,100,100,100\n" +
		"bad,line\n" +
		"2,100,100,100,100,100,100,100,100\n"

	cfg := utils.AcquisitionConfig{SamplingRateHz: 1000, ChannelBuffer: 8}
	cfg.Serial.Port = "/dev/null-plate"
	r := NewPlateReader(cfg, utils.SimulationConfig{}).WithOpener(
		func(name string, baud int, _ time.Duration) (io.ReadCloser, error) {
			if name != "/dev/null-plate" {
				t.Errorf("opened %q", name)
			}
			return io.NopCloser(strings.NewReader(frames)), nil
		})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var idx []uint64
	for s := range r.Out {
		idx = append(idx, s.SampleIndex())
	}
	if len(idx) != 3 || idx[2] != 2 {
		t.Errorf("indices = %v", idx)
	}
	p, d, m := r.Stats()
	if p != 3 || d != 0 || m != 1 {
		t.Errorf("stats produced=%d dropped=%d malformed=%d", p, d, m)
	}
}

func TestPlateReaderOpenFailure(t *testing.T) {
	utils.InitLogger(utils.ERROR, "")
	r := NewPlateReader(utils.AcquisitionConfig{SamplingRateHz: 1000}, utils.SimulationConfig{}).WithOpener(
		func(string, int, time.Duration) (io.ReadCloser, error) { return nil, errors.New("no such port") })
	if err := r.Start(context.Background()); err == nil {
		t.Fatalf("expected open error")
	}
	if _, ok := <-r.Out; ok {
		t.Errorf("Out should be closed after a failed start")
	}
}

func TestPlateReaderStepLogsIndex(t *testing.T) {
	var buf bytes.Buffer
	saved := plateLog
	plateLog = utils.NewLogger(utils.DEBUG, &buf).Named("plate")
	t.Cleanup(func() { plateLog = saved })

	r := NewPlateReader(utils.AcquisitionConfig{SamplingRateHz: 1000, ChannelBuffer: 4}, utils.SimulationConfig{})
	r.sample = func(idx uint64) (models.ForceSample, error) {
		if idx == 7 {
			return models.ForceSample{}, models.ErrInvalidSamplingRate
		}
		return models.NewForceSample(1, models.DeckForces{}, models.DeckForces{}, 1000, idx)
	}

	r.step(6)
	r.step(7)
	r.step(8)

	if out := buf.String(); !strings.Contains(out, "simulate sample 7:") || strings.Contains(out, "sample 8") {
		t.Errorf("failure logged under the wrong index: %q", out)
	}
	if p, _, _ := r.Stats(); p != 2 {
		t.Errorf("produced = %d, want 2", p)
	}
	for _, want := range []uint64{6, 8} {
		if s := <-r.Out; s.SampleIndex() != want {
			t.Errorf("got index %d, want %d", s.SampleIndex(), want)
		}
	}
}

func TestPlateReaderSimulated(t *testing.T) {
	utils.InitLogger(utils.ERROR, "")
	for _, archetype := range []string{"quiet", "jump", "generic"} {
		t.Run(archetype, func(t *testing.T) {
			sim := utils.SimulationConfig{
				Enabled: true, Archetype: archetype, BodyWeightKg: 70,
				JumpMultiplier: 2.5, JitterN: 5, Seed: 1, AsymmetryPct: 5,
			}
			r := NewPlateReader(utils.AcquisitionConfig{SamplingRateHz: 1000, ChannelBuffer: 4096}, sim)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			if err := r.Start(ctx); err != nil {
				t.Fatalf("Start: %v", err)
			}

			var n int
			var last uint64
			for s := range r.Out {
				if n > 0 && s.SampleIndex() <= last {
					t.Fatalf("index went %d -> %d", last, s.SampleIndex())
				}
				if !s.IsValid() {
					t.Fatalf("simulated sample invalid: %v", s)
				}
				last = s.SampleIndex()
				n++
			}
			if n == 0 {
				t.Errorf("no samples produced")
			}
		})
	}
}

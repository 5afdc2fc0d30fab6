package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	"forcedeck/models"
	"forcedeck/services/synth"
	"forcedeck/utils"
)

var plateLog = utils.Named("plate")

// PortOpener opens the amplifier link. The default opens a serial port;
// tests substitute an in-memory reader.
type PortOpener func(name string, baud int, readTimeout time.Duration) (io.ReadCloser, error)

// OpenSerial is the default PortOpener.
func OpenSerial(name string, baud int, readTimeout time.Duration) (io.ReadCloser, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	return port, nil
}

// ListPorts returns the serial ports visible to the host.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// PlateReader ingests synchronised dual-deck samples from the amplifier
// (or simulates them) onto Out.
type PlateReader struct {
	cfg    utils.AcquisitionConfig
	simCfg utils.SimulationConfig
	sim    bool
	gen    *synth.Generator
	sample func(idx uint64) (models.ForceSample, error)
	open   PortOpener

	Out chan models.ForceSample

	produced  uint64
	dropped   uint64
	malformed uint64
}

func NewPlateReader(cfg utils.AcquisitionConfig, simCfg utils.SimulationConfig) *PlateReader {
	buf := cfg.ChannelBuffer
	if buf <= 0 {
		buf = 2048
	}
	r := &PlateReader{
		cfg:    cfg,
		simCfg: simCfg,
		sim:    simCfg.Enabled,
		open:   OpenSerial,
		Out:    make(chan models.ForceSample, buf),
	}
	if r.sim {
		r.gen = synth.NewGenerator(simCfg.Seed).
			SetJitter(simCfg.JitterN).
			SetSamplingRate(cfg.SamplingRateHz)
		r.sample = r.simulate
	}
	return r
}

// WithOpener replaces the port opener. Call before Start.
func (r *PlateReader) WithOpener(open PortOpener) *PlateReader {
	r.open = open
	return r
}

// Start launches the reader goroutine. In hardware mode the port is opened
// synchronously so a missing device fails fast.
func (r *PlateReader) Start(ctx context.Context) error {
	if r.sim {
		go r.runSimulated(ctx)
		plateLog.Info("started   (rate=%gHz, buffer=%d, simulate=%s)",
			r.cfg.SamplingRateHz, cap(r.Out), r.simCfg.Archetype)
		return nil
	}

	sc := r.cfg.Serial
	port, err := r.open(sc.Port, sc.BaudRate, time.Duration(sc.ReadTimeoutMs)*time.Millisecond)
	if err != nil {
		close(r.Out)
		return err
	}
	go r.runSerial(ctx, port)
	plateLog.Info("started   (port=%s, baud=%d, rate=%gHz, buffer=%d)",
		sc.Port, sc.BaudRate, r.cfg.SamplingRateHz, cap(r.Out))
	return nil
}

func (r *PlateReader) runSimulated(ctx context.Context) {
	defer close(r.Out)

	ticker := time.NewTicker(utils.TickInterval(r.cfg.SamplingRateHz))
	defer ticker.Stop()

	var idx uint64
	for {
		select {
		case <-ctx.Done():
			r.logStopped()
			return
		case <-ticker.C:
			r.step(idx)
			idx++
		}
	}
}

// step produces and pushes simulated sample idx.
func (r *PlateReader) step(idx uint64) {
	s, err := r.sample(idx)
	if err != nil {
		plateLog.Error("simulate sample %d: %v", idx, err)
		return
	}
	r.push(s)
}

func (r *PlateReader) simulate(idx uint64) (models.ForceSample, error) {
	opts := []synth.Option{
		synth.WithTimestamp(utils.NowNano()),
		synth.WithIndex(idx),
		synth.WithBodyWeight(r.simCfg.BodyWeightKg),
	}
	switch strings.ToLower(r.simCfg.Archetype) {
	case "jump":
		opts = append(opts, synth.WithJumpMultiplier(r.simCfg.JumpMultiplier))
		if r.simCfg.AsymmetryPct != 0 {
			opts = append(opts, synth.WithAsymmetry(r.simCfg.AsymmetryPct))
		}
		return r.gen.Jump(opts...)
	case "generic":
		opts = append(opts, synth.WithAsymmetry(r.simCfg.AsymmetryPct))
		return r.gen.Generate(opts...)
	default:
		return r.gen.QuietStanding(opts...)
	}
}

func (r *PlateReader) runSerial(ctx context.Context, port io.ReadCloser) {
	defer close(r.Out)
	defer port.Close()

	err := readFrames(ctx, port, utils.NowNano, r.cfg.SamplingRateHz, r.push,
		func(line string, err error) {
			n := atomic.AddUint64(&r.malformed, 1)
			// first few in full, then every 1000th
			if n <= 5 || n%1000 == 0 {
				plateLog.Warn("%v (line=%q, total malformed=%d)", err, line, n)
			}
		})
	if err != nil {
		plateLog.Error("%v", err)
	}
	r.logStopped()
}

// push is a non-blocking send; a full channel counts as a drop.
func (r *PlateReader) push(s models.ForceSample) {
	select {
	case r.Out <- s:
		atomic.AddUint64(&r.produced, 1)
	default:
		atomic.AddUint64(&r.dropped, 1)
	}
}

func (r *PlateReader) logStopped() {
	p, d, m := r.Stats()
	plateLog.Info("stopped   (produced=%d, dropped=%d, malformed=%d)", p, d, m)
}

// Stats returns produced, dropped and malformed counters.
func (r *PlateReader) Stats() (uint64, uint64, uint64) {
	return atomic.LoadUint64(&r.produced), atomic.LoadUint64(&r.dropped), atomic.LoadUint64(&r.malformed)
}

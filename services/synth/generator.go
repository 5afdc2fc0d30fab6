// Package synth produces physiologically plausible force samples without
// live hardware, for calibration runs, UI preview and test fixtures.
package synth

import (
	"math/rand"
	"sync"
	"time"

	"forcedeck/models"
)

const (
	Gravity = 9.81 // m/s²

	DefaultBodyWeightKg   = 70.0
	DefaultAsymmetryPct   = 5.0
	DefaultJitterN        = 5.0
	DefaultSamplingRateHz = 1000.0

	QuietAsymmetryPct     = 2.0
	JumpAsymmetryPct      = 8.0
	DefaultJumpMultiplier = 2.5
)

// positionalOffsetN is added per cell on top of the equal share. It sums
// to zero so deck totals are unaffected.
var positionalOffsetN = [models.CellsPerDeck]float64{-1.5, -0.5, 0.5, 1.5}

// Generator draws jitter from its own seeded source, so two generators built
// with the same seed produce identical sample streams. Safe for concurrent
// use.
type Generator struct {
	mu           sync.Mutex
	rng          *rand.Rand
	jitterN      float64
	samplingRate float64
}

// NewGenerator returns a generator with default jitter and sampling rate.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng:          rand.New(rand.NewSource(seed)),
		jitterN:      DefaultJitterN,
		samplingRate: DefaultSamplingRateHz,
	}
}

// SetJitter sets the per-cell jitter amplitude (±n newtons). Zero disables
// jitter, which gives exact split totals.
func (g *Generator) SetJitter(n float64) *Generator {
	g.mu.Lock()
	g.jitterN = n
	g.mu.Unlock()
	return g
}

// SetSamplingRate sets the rate stamped on generated samples. Non-positive
// values fall back to DefaultSamplingRateHz.
func (g *Generator) SetSamplingRate(hz float64) *Generator {
	if !(hz > 0) {
		hz = DefaultSamplingRateHz
	}
	g.mu.Lock()
	g.samplingRate = hz
	g.mu.Unlock()
	return g
}

// params collects the optional inputs of one Generate call.
type params struct {
	timestampNs  int64
	hasTimestamp bool
	bodyWeightKg float64
	asymmetryPct float64
	index        uint64
	multiplier   float64
}

// Option overrides one default of a Generate call.
type Option func(*params)

// WithTimestamp stamps the sample; the default is the current wall clock.
func WithTimestamp(ns int64) Option {
	return func(p *params) { p.timestampNs, p.hasTimestamp = ns, true }
}

// WithBodyWeight sets the body mass in kilograms (default 70).
func WithBodyWeight(kg float64) Option {
	return func(p *params) { p.bodyWeightKg = kg }
}

// WithAsymmetry sets the target left/right asymmetry in percent. Positive
// values load the left deck more.
func WithAsymmetry(pct float64) Option {
	return func(p *params) { p.asymmetryPct = pct }
}

// WithIndex sets the sample index (default 0).
func WithIndex(i uint64) Option {
	return func(p *params) { p.index = i }
}

// WithJumpMultiplier scales body weight for Jump (default 2.5).
func WithJumpMultiplier(m float64) Option {
	return func(p *params) { p.multiplier = m }
}

// Generate produces one sample from body weight and asymmetry. Inputs are not
// sanity-checked: an extreme weight can push a cell past the validation
// ceiling and the result is then simply an invalid sample.
func (g *Generator) Generate(opts ...Option) (models.ForceSample, error) {
	p := params{
		bodyWeightKg: DefaultBodyWeightKg,
		asymmetryPct: DefaultAsymmetryPct,
		multiplier:   1,
	}
	return g.generate(p, opts)
}

// QuietStanding is Generate with ~2 % asymmetry.
func (g *Generator) QuietStanding(opts ...Option) (models.ForceSample, error) {
	p := params{
		bodyWeightKg: DefaultBodyWeightKg,
		asymmetryPct: QuietAsymmetryPct,
		multiplier:   1,
	}
	return g.generate(p, opts)
}

// Jump models a propulsive instant: body weight × multiplier with ~8 %
// asymmetry.
func (g *Generator) Jump(opts ...Option) (models.ForceSample, error) {
	p := params{
		bodyWeightKg: DefaultBodyWeightKg,
		asymmetryPct: JumpAsymmetryPct,
		multiplier:   DefaultJumpMultiplier,
	}
	return g.generate(p, opts)
}

func (g *Generator) generate(p params, opts []Option) (models.ForceSample, error) {
	for _, o := range opts {
		o(&p)
	}
	if !p.hasTimestamp {
		p.timestampNs = time.Now().UnixNano()
	}

	left, right := SplitWeight(p.bodyWeightKg*p.multiplier, p.asymmetryPct)

	g.mu.Lock()
	l := g.distribute(left)
	r := g.distribute(right)
	rate := g.samplingRate
	g.mu.Unlock()

	return models.NewForceSample(p.timestampNs, l, r, rate, p.index)
}

// SplitWeight converts a mass to newtons and splits it into left/right deck
// totals: W·(0.5 + r/2) and W·(0.5 − r/2) with r = pct/100.
func SplitWeight(kg, asymmetryPct float64) (left, right float64) {
	w := kg * Gravity
	r := asymmetryPct / 100
	return w * (0.5 + r/2), w * (0.5 - r/2)
}

// distribute spreads a deck total over its cells. Caller holds g.mu.
func (g *Generator) distribute(total float64) models.DeckForces {
	var d models.DeckForces
	share := total / models.CellsPerDeck
	for i := range d {
		d[i] = share + positionalOffsetN[i]
		if g.jitterN != 0 {
			d[i] += (g.rng.Float64()*2 - 1) * g.jitterN
		}
	}
	return d
}

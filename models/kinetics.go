package models

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ─── Validation ────────────────────────────────────────────────────────

// IsValid reports whether every load-cell reading is finite and within
// [MinCellForceN, MaxCellForceN]. Invalid samples are not clamped; callers
// exclude them from aggregates.
func (s ForceSample) IsValid() bool {
	return deckValid(s.left) && deckValid(s.right)
}

func deckValid(d DeckForces) bool {
	for _, f := range d {
		// NaN fails both comparisons.
		if !(f >= MinCellForceN && f <= MaxCellForceN) {
			return false
		}
	}
	return true
}

// ─── Forces ────────────────────────────────────────────────────────────

func (s ForceSample) LeftTotal() float64  { return floats.Sum(s.left[:]) }
func (s ForceSample) RightTotal() float64 { return floats.Sum(s.right[:]) }

// TotalGRF is the vertical ground-reaction force summed over both decks.
func (s ForceSample) TotalGRF() float64 { return s.LeftTotal() + s.RightTotal() }

// ForceSymmetryIndex is |L−R| / (L+R) × 100. Zero total load yields 0.
func (s ForceSample) ForceSymmetryIndex() float64 {
	l, r := s.LeftTotal(), s.RightTotal()
	total := l + r
	if total == 0 {
		return 0
	}
	return math.Abs(l-r) / total * 100
}

// LimbSymmetryIndex is L / R × 100. Zero right load yields 0.
func (s ForceSample) LimbSymmetryIndex() float64 {
	r := s.RightTotal()
	if r == 0 {
		return 0
	}
	return s.LeftTotal() / r * 100
}

// IsWithinNormalRange reports FSI at or below the 15 % normal-asymmetry line.
func (s ForceSample) IsWithinNormalRange() bool {
	return s.ForceSymmetryIndex() <= NormalAsymmetryPct
}

// IsBalanced reports FSI at or below the 50 % "usable but flagged" line.
func (s ForceSample) IsBalanced() bool {
	return s.ForceSymmetryIndex() <= BalancedAsymmetryPct
}

// ─── Centre of pressure ────────────────────────────────────────────────

// LeftCoPX is the left deck's lateral centre of pressure in metres, in the
// deck's own frame. Zero deck load yields 0.
func (s ForceSample) LeftCoPX() float64 { return deckCoP(s.left) }

// RightCoPX is the right deck's lateral centre of pressure in metres.
func (s ForceSample) RightCoPX() float64 { return deckCoP(s.right) }

func deckCoP(d DeckForces) float64 {
	total := floats.Sum(d[:])
	if total == 0 {
		return 0
	}
	offsets := CellOffsetsM()
	return floats.Dot(offsets[:], d[:]) / total
}

// CombinedCoPX places both decks on one lateral axis centred on the gap
// between them and returns the force-weighted centre of pressure.
//
// The decks are mounted mirror-image: each deck's local lateral axis
// points away from the midline, so the left deck's point maps to
// −(gap/2 + copL) and the right deck's to +(gap/2 + copR). A load that is
// identical cell for cell therefore lands exactly on 0.
//
// Consumers porting this value must not use copL − gap/2 for the left
// point: that assumes both decks share one axis direction and puts a
// symmetric stance off centre by copL.
// Zero total load yields 0.
func (s ForceSample) CombinedCoPX() float64 {
	l, r := s.LeftTotal(), s.RightTotal()
	total := l + r
	if total == 0 {
		return 0
	}
	half := PlatformSeparationM / 2
	leftX := -(half + s.LeftCoPX())
	rightX := half + s.RightCoPX()
	return (l*leftX + r*rightX) / total
}

// MedialLateralSway is |CombinedCoPX|, a single-sample balance proxy.
func (s ForceSample) MedialLateralSway() float64 { return math.Abs(s.CombinedCoPX()) }

// ─── Rate of force development ─────────────────────────────────────────

// InstantRFD is the single-sample approximation GRF / (1 / samplingRate)
// in N/s. It is not a time derivative; true RFD needs a series of samples.
func (s ForceSample) InstantRFD() float64 {
	if !(s.samplingRate > 0) {
		return 0
	}
	return s.TotalGRF() / (1 / s.samplingRate)
}

// ─── Quality ───────────────────────────────────────────────────────────

// QualityScore is a 0–100 composite: 100, minus 2 points per FSI point above
// NormalAsymmetryPct, minus a tenth of the mean per-deck population standard
// deviation. Invalid samples score 0.
func (s ForceSample) QualityScore() float64 {
	if !s.IsValid() {
		return 0
	}
	score := 100.0
	if fsi := s.ForceSymmetryIndex(); fsi > NormalAsymmetryPct {
		score -= 2 * (fsi - NormalAsymmetryPct)
	}
	spread := (deckStdDev(s.left) + deckStdDev(s.right)) / 2
	score -= spread / 10
	return math.Max(0, math.Min(100, score))
}

func deckStdDev(d DeckForces) float64 {
	return stat.PopStdDev(d[:], nil)
}

// ─── Protocol suitability ──────────────────────────────────────────────

// SuitableForJump: valid, GRF above JumpMinGRF and FSI below JumpMaxFSI.
func (s ForceSample) SuitableForJump() bool {
	return s.IsValid() && s.TotalGRF() > JumpMinGRF && s.ForceSymmetryIndex() < JumpMaxFSI
}

// SuitableForBalance: valid and GRF strictly inside (BalanceMinGRF, BalanceMaxGRF).
func (s ForceSample) SuitableForBalance() bool {
	grf := s.TotalGRF()
	return s.IsValid() && grf > BalanceMinGRF && grf < BalanceMaxGRF
}

// SuitableForIsometric: valid and GRF above IsometricMinGRF.
func (s ForceSample) SuitableForIsometric() bool {
	return s.IsValid() && s.TotalGRF() > IsometricMinGRF
}

package models

// ─── Platform geometry (dual-deck, 4 load cells per deck) ──────────────
//
// A hardware revision with different dimensions or cell count needs a new
// constant set here; none of these are runtime parameters.

const (
	PlatformWidthM      = 0.40 // metres, lateral
	PlatformLengthM     = 0.60 // metres, anterior-posterior
	PlatformSeparationM = 0.10 // gap between the two decks

	// CellsPerDeck is the number of load cells under each deck.
	CellsPerDeck = 4
)

var cellOffsetsM = [CellsPerDeck]float64{-0.15, -0.05, 0.05, 0.15}

// CellOffsetsM returns the lateral positions of the load cells relative to
// the deck centre, in the same order as the per-deck force readings.
func CellOffsetsM() [CellsPerDeck]float64 { return cellOffsetsM }

// ─── Validation bounds ─────────────────────────────────────────────────

const (
	MinCellForceN = -100.0 // tare drift / negative noise floor
	MaxCellForceN = 5000.0 // saturation ceiling
)

// ─── Classification thresholds ─────────────────────────────────────────

const (
	// NormalAsymmetryPct is the within-normal-range FSI ceiling.
	NormalAsymmetryPct = 15.0
	// BalancedAsymmetryPct is the "usable but flagged" FSI ceiling.
	BalancedAsymmetryPct = 50.0

	JumpMinGRF      = 200.0
	JumpMaxFSI      = 30.0
	BalanceMinGRF   = 100.0
	BalanceMaxGRF   = 1500.0
	IsometricMinGRF = 300.0
)

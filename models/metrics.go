package models

// Metrics is every derived quantity of one sample, side by side.
// It is produced by Derive for consumers that render or ship them together;
// the sample itself never stores derived values.
type Metrics struct {
	TimestampNs int64  `json:"timestamp_ns"`
	SampleIndex uint64 `json:"sample_index"`
	Valid       bool   `json:"valid"`

	LeftTotal  float64 `json:"left_total_n"`
	RightTotal float64 `json:"right_total_n"`
	TotalGRF   float64 `json:"total_grf_n"`

	FSI float64 `json:"fsi_pct"` // force symmetry index
	LSI float64 `json:"lsi_pct"` // limb symmetry index

	LeftCoPX  float64 `json:"left_cop_x_m"`
	RightCoPX float64 `json:"right_cop_x_m"`
	// CombinedCoPX is in the midline frame of ForceSample.CombinedCoPX:
	// negative toward the left deck, 0 for a mirror-symmetric stance.
	CombinedCoPX float64 `json:"combined_cop_x_m"`
	Sway         float64 `json:"ml_sway_m"`

	InstantRFD float64 `json:"instant_rfd_n_per_s"`
	Quality    float64 `json:"quality"`

	WithinNormal bool `json:"within_normal"`
	Balanced     bool `json:"balanced"`

	JumpOK      bool `json:"jump_ok"`
	BalanceOK   bool `json:"balance_ok"`
	IsometricOK bool `json:"isometric_ok"`
}

// Derive computes the Metrics snapshot for s.
func Derive(s ForceSample) Metrics {
	return Metrics{
		TimestampNs:  s.timestampNs,
		SampleIndex:  s.index,
		Valid:        s.IsValid(),
		LeftTotal:    s.LeftTotal(),
		RightTotal:   s.RightTotal(),
		TotalGRF:     s.TotalGRF(),
		FSI:          s.ForceSymmetryIndex(),
		LSI:          s.LimbSymmetryIndex(),
		LeftCoPX:     s.LeftCoPX(),
		RightCoPX:    s.RightCoPX(),
		CombinedCoPX: s.CombinedCoPX(),
		Sway:         s.MedialLateralSway(),
		InstantRFD:   s.InstantRFD(),
		Quality:      s.QualityScore(),
		WithinNormal: s.IsWithinNormalRange(),
		Balanced:     s.IsBalanced(),
		JumpOK:       s.SuitableForJump(),
		BalanceOK:    s.SuitableForBalance(),
		IsometricOK:  s.SuitableForIsometric(),
	}
}

// Suitable reports the precomputed flag for p.
func (m Metrics) Suitable(p Protocol) bool {
	switch p {
	case ProtocolJump:
		return m.JumpOK
	case ProtocolBalance:
		return m.BalanceOK
	case ProtocolIsometric:
		return m.IsometricOK
	}
	return false
}

func (Metrics) CSVHeader() []string {
	return []string{
		"timestamp_ns", "sample_index", "valid",
		"left_total_n", "right_total_n", "total_grf_n",
		"fsi_pct", "lsi_pct",
		"left_cop_x_m", "right_cop_x_m", "combined_cop_x_m", "ml_sway_m",
		"instant_rfd_n_per_s", "quality",
		"jump_ok", "balance_ok", "isometric_ok",
	}
}

func (m *Metrics) CSVRow() []string {
	return []string{
		itoa64(m.TimestampNs),
		utoa64(m.SampleIndex),
		btoa(m.Valid),
		ftoa(m.LeftTotal, 3), ftoa(m.RightTotal, 3), ftoa(m.TotalGRF, 3),
		ftoa(m.FSI, 3), ftoa(m.LSI, 3),
		ftoa(m.LeftCoPX, 5), ftoa(m.RightCoPX, 5), ftoa(m.CombinedCoPX, 5), ftoa(m.Sway, 5),
		ftoa(m.InstantRFD, 1), ftoa(m.Quality, 2),
		btoa(m.JumpOK), btoa(m.BalanceOK), btoa(m.IsometricOK),
	}
}

package controller

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"forcedeck/models"
)

// SessionSummary aggregates the accepted samples of one session. Rejected
// and out-of-order samples only appear in Stats.
type SessionSummary struct {
	SessionID string           `json:"session_id"`
	Protocol  string           `json:"protocol"`
	Stats     AcquisitionStats `json:"stats"`

	MeanGRF     float64 `json:"mean_grf_n"`
	StdGRF      float64 `json:"std_grf_n"`
	PeakGRF     float64 `json:"peak_grf_n"`
	MeanFSI     float64 `json:"mean_fsi_pct"`
	MeanSway    float64 `json:"mean_ml_sway_m"`
	MeanQuality float64 `json:"mean_quality"`
	MinQuality  float64 `json:"min_quality"`
}

type summaryAccumulator struct {
	grf, fsi, sway, quality []float64
}

func newSummaryAccumulator() *summaryAccumulator {
	return &summaryAccumulator{}
}

func (a *summaryAccumulator) add(m models.Metrics) {
	a.grf = append(a.grf, m.TotalGRF)
	a.fsi = append(a.fsi, m.FSI)
	a.sway = append(a.sway, m.Sway)
	a.quality = append(a.quality, m.Quality)
}

// summarize leaves every aggregate at 0 when nothing was accepted.
func (a *summaryAccumulator) summarize() SessionSummary {
	var s SessionSummary
	if len(a.grf) == 0 {
		return s
	}
	s.MeanGRF, s.StdGRF = stat.PopMeanStdDev(a.grf, nil)
	s.PeakGRF = floats.Max(a.grf)
	s.MeanFSI = stat.Mean(a.fsi, nil)
	s.MeanSway = stat.Mean(a.sway, nil)
	s.MeanQuality = stat.Mean(a.quality, nil)
	s.MinQuality = floats.Min(a.quality)
	return s
}

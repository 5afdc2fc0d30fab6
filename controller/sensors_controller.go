package controller

import (
	"context"

	"forcedeck/models"
	"forcedeck/services/ingest"
	"forcedeck/utils"
)

var sensorsLog = utils.Named("sensors")

// SensorsController owns the lifecycle of the plate reader goroutine and
// exposes its sample channel to the acquisition stage.
type SensorsController struct {
	plate *ingest.PlateReader

	SamplesCh <-chan models.ForceSample
}

// NewSensorsController creates the plate reader for cfg (simulated or
// serial, depending on cfg.Simulation.Enabled).
func NewSensorsController(cfg *utils.PlateConfig) *SensorsController {
	r := ingest.NewPlateReader(cfg.Acquisition, cfg.Simulation)
	return &SensorsController{plate: r, SamplesCh: r.Out}
}

// newSensorsControllerFrom wraps an existing reader; used by tests.
func newSensorsControllerFrom(r *ingest.PlateReader) *SensorsController {
	return &SensorsController{plate: r, SamplesCh: r.Out}
}

// Start launches the reader. A serial port that cannot be opened is
// returned as an error.
func (sc *SensorsController) Start(ctx context.Context) error {
	if err := sc.plate.Start(ctx); err != nil {
		return err
	}
	sensorsLog.Info("plate reader launched")
	return nil
}

// LogStats prints the reader's produce/drop counters.
func (sc *SensorsController) LogStats() {
	p, d, m := sc.plate.Stats()
	sensorsLog.Info("  plate    produced=%d  dropped=%d  malformed=%d", p, d, m)
}

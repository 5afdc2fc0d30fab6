package controller

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"forcedeck/models"
	"forcedeck/utils"
	"forcedeck/views"
)

var recLog = utils.Named("recording")

// RecordingController is the final pipeline stage. It writes every gated
// sample to:
//   - samples.csv  (raw load-cell readings)
//   - metrics.csv  (derived quantities and suitability flags)
//
// and on Stop optionally renders a GRF trace of the accepted samples,
// thinned as they arrive so memory stays flat over long sessions.
// Rows are buffered and flushed on a timer so the acquisition stage never
// waits on disk.
type RecordingController struct {
	storageCfg *utils.StorageConfig
	sessionDir string

	samples *views.RecordWriter
	metrics *views.RecordWriter

	plot   bool
	plotMu sync.Mutex
	trace  *views.TraceBuffer

	rowsWritten uint64
	writeFailed atomic.Bool
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewRecordingController creates the session directory and CSV writers.
func NewRecordingController(storageCfg *utils.StorageConfig, sessionID string) (*RecordingController, error) {
	st := storageCfg.Storage
	sessionDir := filepath.Join(st.BaseDir, utils.SessionName(st.SessionPrefix, sessionID))

	if !st.Overwrite {
		if _, err := os.Stat(sessionDir); err == nil {
			return nil, fmt.Errorf("session dir %s already exists (overwrite=false)", sessionDir)
		}
	}
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	bufSize := st.CSV.BufferSizeKB * 1024
	rc := &RecordingController{
		storageCfg: storageCfg,
		sessionDir: sessionDir,
		plot:       st.Plot.Enabled,
		done:       make(chan struct{}),
	}
	if rc.plot {
		rc.trace = views.NewTraceBuffer(views.DefaultTracePoints)
	}

	var err error
	header := st.CSV.WriteHeader
	rc.samples, err = views.OpenRecord(sessionDir, views.RecordSamples, models.ForceSample{}.CSVHeader(), bufSize, header)
	if err != nil {
		return nil, err
	}
	rc.metrics, err = views.OpenRecord(sessionDir, views.RecordMetrics, models.Metrics{}.CSVHeader(), bufSize, header)
	if err != nil {
		rc.samples.Close()
		return nil, err
	}

	recLog.Info("ready  session=%s", sessionDir)
	return rc, nil
}

// Start consumes gated samples until in is closed, flushing periodically.
func (rc *RecordingController) Start(in <-chan GatedSample) {
	rc.wg.Add(1)
	go func() {
		defer rc.wg.Done()
		flushMs := rc.storageCfg.Storage.CSV.FlushIntervalMs
		if flushMs <= 0 {
			flushMs = 100
		}
		ticker := time.NewTicker(time.Duration(flushMs) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-rc.done:
				return
			case <-ticker.C:
				rc.flushAll()
			}
		}
	}()

	rc.wg.Add(1)
	go func() {
		defer rc.wg.Done()
		defer close(rc.done)
		for g := range in {
			rc.writeRecord(g)
		}
	}()

	recLog.Info("started")
}

func (rc *RecordingController) writeRecord(g GatedSample) {
	err := rc.samples.Write(g.Sample.CSVRow())
	if err == nil {
		err = rc.metrics.Write(g.Metrics.CSVRow())
	}
	if err != nil {
		// sticky; report once, later rows fail the same way
		if rc.writeFailed.CompareAndSwap(false, true) {
			recLog.Error("%v", err)
		}
		return
	}

	if rc.plot && g.Verdict == Accepted {
		rc.plotMu.Lock()
		rc.trace.Add(g.Metrics)
		rc.plotMu.Unlock()
	}
	atomic.AddUint64(&rc.rowsWritten, 1)
}

func (rc *RecordingController) flushAll() {
	for _, w := range []*views.RecordWriter{rc.samples, rc.metrics} {
		if err := w.Flush(); err != nil && !rc.writeFailed.Load() {
			recLog.Error("%v", err)
		}
	}
}

// Stop waits for the input channel to drain, closes every CSV and renders
// the trace plot if enabled.
func (rc *RecordingController) Stop() {
	rc.wg.Wait()

	for _, w := range []*views.RecordWriter{rc.samples, rc.metrics} {
		if err := w.Close(); err != nil {
			recLog.Error("%v", err)
		}
	}

	if rc.plot {
		rc.plotMu.Lock()
		points := rc.trace.Points()
		rc.plotMu.Unlock()
		if len(points) > 0 {
			path := filepath.Join(rc.sessionDir, rc.storageCfg.Storage.Plot.FileName)
			if err := views.RenderTrace(path, filepath.Base(rc.sessionDir), points); err != nil {
				recLog.Error("%v", err)
			}
		}
	}

	recLog.Info("stopped  (rows_written=%d, session=%s)", rc.RowsWritten(), rc.sessionDir)
}

// WriteSummary stores the session summary as summary.json.
func (rc *RecordingController) WriteSummary(s SessionSummary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	path := filepath.Join(rc.sessionDir, "summary.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// SessionDir returns the path to the active session directory.
func (rc *RecordingController) SessionDir() string {
	return rc.sessionDir
}

// RowsWritten returns the number of samples persisted.
func (rc *RecordingController) RowsWritten() uint64 {
	return atomic.LoadUint64(&rc.rowsWritten)
}

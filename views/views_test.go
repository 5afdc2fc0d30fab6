package views

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"forcedeck/models"
)

func TestRecordWriter(t *testing.T) {
	dir := t.TempDir()
	header := models.ForceSample{}.CSVHeader()
	w, err := OpenRecord(dir, RecordSamples, header, 0, true)
	if err != nil {
		t.Fatalf("OpenRecord: %v", err)
	}
	if w.Path() != filepath.Join(dir, "samples.csv") || w.Kind() != RecordSamples {
		t.Errorf("path=%s kind=%v", w.Path(), w.Kind())
	}
	for i := 0; i < 3; i++ {
		s, _ := models.NewForceSample(int64(i), models.DeckForces{1, 2, 3, 4}, models.DeckForces{5, 6, 7, 8}, 1000, uint64(i))
		if err := w.Write(s.CSVRow()); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if w.Rows() != 3 {
		t.Errorf("Rows = %d, want 3", w.Rows())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := w.Write([]string{"late"}); !errors.Is(err, ErrRecordClosed) {
		t.Errorf("Write after Close = %v, want ErrRecordClosed", err)
	}

	f, err := os.Open(w.Path())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(recs) != 4 || recs[0][0] != "timestamp_ns" || recs[3][1] != "2" {
		t.Errorf("records = %v", recs)
	}
}

func TestOpenRecordRejectsDrift(t *testing.T) {
	dir := t.TempDir()
	if _, err := OpenRecord(dir, RecordMetrics, []string{"timestamp_ns"}, 0, true); err == nil {
		t.Fatal("expected schema drift error")
	}
	if _, err := os.Stat(filepath.Join(dir, "metrics.csv")); !os.IsNotExist(err) {
		t.Errorf("file created despite drift: %v", err)
	}
}

func TestTraceBufferBounded(t *testing.T) {
	const capacity = 100
	b := NewTraceBuffer(capacity)
	for i := 0; i < 10*capacity+7; i++ {
		b.Add(models.Metrics{SampleIndex: uint64(i)})
		if b.Len() > capacity {
			t.Fatalf("len %d exceeds capacity after %d adds", b.Len(), i+1)
		}
	}
	pts := b.Points()
	if b.Len() < capacity/2 {
		t.Errorf("len %d, want at least %d", b.Len(), capacity/2)
	}
	if pts[0].SampleIndex != 0 {
		t.Errorf("first point %d, want 0", pts[0].SampleIndex)
	}
	// evenly spaced across the whole stream
	step := pts[1].SampleIndex - pts[0].SampleIndex
	for i := 1; i < len(pts); i++ {
		if pts[i].SampleIndex-pts[i-1].SampleIndex != step {
			t.Fatalf("uneven spacing at %d: %d -> %d", i, pts[i-1].SampleIndex, pts[i].SampleIndex)
		}
	}
	if last := pts[len(pts)-1].SampleIndex; last+step < b.Seen()-1 {
		t.Errorf("last kept %d with step %d does not reach the stream end %d", last, step, b.Seen()-1)
	}
}

func TestModelHeadersMatchSchema(t *testing.T) {
	if err := CheckHeader(RecordSamples, models.ForceSample{}.CSVHeader()); err != nil {
		t.Error(err)
	}
	if err := CheckHeader(RecordMetrics, models.Metrics{}.CSVHeader()); err != nil {
		t.Error(err)
	}
	if err := CheckHeader(RecordMetrics, []string{"timestamp_ns"}); err == nil {
		t.Errorf("expected drift error")
	}
	if RecordSamples.FileName() != "samples.csv" || RecordMetrics.FileName() != "metrics.csv" {
		t.Errorf("unexpected file names")
	}
}

func TestRenderTrace(t *testing.T) {
	var ms []models.Metrics
	for i := 0; i < 500; i++ {
		s, _ := models.NewForceSample(int64(i)*1_000_000,
			models.DeckForces{100, 100, 100, float64(100 + i%50)},
			models.DeckForces{90, 90, 90, 90}, 1000, uint64(i))
		ms = append(ms, models.Derive(s))
	}
	path := filepath.Join(t.TempDir(), "trace.png")
	if err := RenderTrace(path, "test", ms); err != nil {
		t.Fatalf("RenderTrace: %v", err)
	}
	if st, err := os.Stat(path); err != nil || st.Size() == 0 {
		t.Errorf("trace not written: %v", err)
	}
	if err := RenderTrace(path, "empty", nil); err == nil {
		t.Errorf("expected error for empty metrics")
	}
}

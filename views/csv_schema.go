package views

import (
	"fmt"
	"slices"
)

// RecordKind identifies one of the per-session CSV outputs.
type RecordKind int

const (
	RecordSamples RecordKind = iota
	RecordMetrics
)

var recordFiles = map[RecordKind]string{
	RecordSamples: "samples.csv",
	RecordMetrics: "metrics.csv",
}

func (k RecordKind) String() string {
	switch k {
	case RecordSamples:
		return "samples"
	case RecordMetrics:
		return "metrics"
	}
	return "unknown"
}

// FileName returns the file a record kind is written to inside a session.
func (k RecordKind) FileName() string {
	if n, ok := recordFiles[k]; ok {
		return n
	}
	return k.String() + ".csv"
}

// SchemaColumns is the published column order for each record kind.
// Downstream tooling parses these files by header, so a model whose
// CSVHeader drifts from this list is rejected at session start.
var SchemaColumns = map[RecordKind][]string{
	RecordSamples: {
		"timestamp_ns", "sample_index", "sampling_rate_hz",
		"l0", "l1", "l2", "l3",
		"r0", "r1", "r2", "r3",
	},
	RecordMetrics: {
		"timestamp_ns", "sample_index", "valid",
		"left_total_n", "right_total_n", "total_grf_n",
		"fsi_pct", "lsi_pct",
		"left_cop_x_m", "right_cop_x_m", "combined_cop_x_m", "ml_sway_m",
		"instant_rfd_n_per_s", "quality",
		"jump_ok", "balance_ok", "isometric_ok",
	},
}

// CheckHeader verifies header against the published schema for k.
func CheckHeader(k RecordKind, header []string) error {
	want, ok := SchemaColumns[k]
	if !ok {
		return fmt.Errorf("no schema for record kind %v", k)
	}
	if !slices.Equal(want, header) {
		return fmt.Errorf("%v header drifted from schema: got %v, want %v", k, header, want)
	}
	return nil
}

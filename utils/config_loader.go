package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ─── Plate / acquisition config ─────────────────────────────────────────

// SerialConfig describes the dual-deck amplifier link.
type SerialConfig struct {
	Port          string `yaml:"port"`
	BaudRate      int    `yaml:"baud_rate"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

type AcquisitionConfig struct {
	SamplingRateHz float64      `yaml:"sampling_rate_hz"`
	ChannelBuffer  int          `yaml:"channel_buffer"`
	Serial         SerialConfig `yaml:"serial"`
}

// SimulationConfig drives the synthetic reader when no hardware is attached.
type SimulationConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Archetype       string  `yaml:"archetype"` // quiet, jump or generic
	BodyWeightKg    float64 `yaml:"body_weight_kg"`
	AsymmetryPct    float64 `yaml:"asymmetry_pct"`
	JumpMultiplier  float64 `yaml:"jump_multiplier"`
	JitterN         float64 `yaml:"jitter_n"`
	Seed            int64   `yaml:"seed"`
	DurationSeconds int     `yaml:"duration_seconds"`
}

type SessionConfig struct {
	Protocol string `yaml:"protocol"` // jump, balance or isometric
}

// LiveConfig is the websocket feed used for real-time UI feedback.
type LiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	RateHz  int    `yaml:"rate_hz"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// PlateConfig is the top-level structure for plate.yaml.
type PlateConfig struct {
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Simulation  SimulationConfig  `yaml:"simulation"`
	Session     SessionConfig     `yaml:"session"`
	Live        LiveConfig        `yaml:"live"`
	Log         LogConfig         `yaml:"log"`
}

func (c *PlateConfig) applyDefaults() {
	a := &c.Acquisition
	if a.SamplingRateHz <= 0 {
		a.SamplingRateHz = 1000
	}
	if a.ChannelBuffer <= 0 {
		a.ChannelBuffer = 2048
	}
	if a.Serial.BaudRate <= 0 {
		a.Serial.BaudRate = 921600
	}
	if a.Serial.ReadTimeoutMs <= 0 {
		a.Serial.ReadTimeoutMs = 100
	}

	s := &c.Simulation
	if s.Archetype == "" {
		s.Archetype = "quiet"
	}
	if s.BodyWeightKg <= 0 {
		s.BodyWeightKg = 70
	}
	if s.JumpMultiplier <= 0 {
		s.JumpMultiplier = 2.5
	}

	if c.Session.Protocol == "" {
		c.Session.Protocol = "balance"
	}
	if c.Live.Addr == "" {
		c.Live.Addr = ":8080"
	}
	if c.Live.RateHz <= 0 {
		c.Live.RateHz = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ─── Storage config ─────────────────────────────────────────────────────

type CSVStorageConfig struct {
	FlushIntervalMs int  `yaml:"flush_interval_ms"`
	BufferSizeKB    int  `yaml:"buffer_size_kb"`
	WriteHeader     bool `yaml:"write_header"`
}

type PlotStorageConfig struct {
	Enabled  bool   `yaml:"enabled"`
	FileName string `yaml:"file_name"`
}

type StorageConfig struct {
	Storage struct {
		BaseDir       string            `yaml:"base_dir"`
		SessionPrefix string            `yaml:"session_prefix"`
		CSV           CSVStorageConfig  `yaml:"csv"`
		Plot          PlotStorageConfig `yaml:"plot"`
		Overwrite     bool              `yaml:"overwrite"`
	} `yaml:"storage"`
}

func (c *StorageConfig) applyDefaults() {
	s := &c.Storage
	if s.BaseDir == "" {
		s.BaseDir = "sessions"
	}
	if s.SessionPrefix == "" {
		s.SessionPrefix = "session"
	}
	if s.CSV.FlushIntervalMs <= 0 {
		s.CSV.FlushIntervalMs = 100
	}
	if s.Plot.FileName == "" {
		s.Plot.FileName = "trace.png"
	}
}

// ─── Loaders ────────────────────────────────────────────────────────────

// LoadPlateConfig reads and parses plate.yaml.
func LoadPlateConfig(path string) (*PlateConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plate config: %w", err)
	}
	var cfg PlateConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse plate config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadStorageConfig reads and parses storage.yaml.
func LoadStorageConfig(path string) (*StorageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read storage config: %w", err)
	}
	var cfg StorageConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse storage config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

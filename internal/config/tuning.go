package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/stride.report/internal/stepdetect"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Stride length model names.
const (
	ModelFrequency      = "frequency"
	ModelAnthropometric = "anthropometric"
)

// Dispatch modes.
const (
	DispatchSync  = "sync"
	DispatchAsync = "async"
)

// TuningConfig represents the root configuration for the step detector.
// The schema matches the /api/config endpoint so the same JSON can be used
// for startup configuration and inspection.
type TuningConfig struct {
	// Filter params
	ShortWindowSeconds *float64 `json:"short_window_seconds,omitempty"`
	LongWindowSeconds  *float64 `json:"long_window_seconds,omitempty"`

	// Gate params
	LowPowerThreshold  *float64 `json:"low_power_threshold,omitempty"`
	HighPowerThreshold *float64 `json:"high_power_threshold,omitempty"`
	Gating             *string  `json:"gating,omitempty"` // "dual" or "low"

	// Stride timer params
	MinStrideSeconds *float64 `json:"min_stride_seconds,omitempty"`
	MaxStrideSeconds *float64 `json:"max_stride_seconds,omitempty"`

	// Stride length model params
	StrideModel           *string  `json:"stride_model,omitempty"` // "frequency" or "anthropometric"
	CalibrationFactor     *float64 `json:"calibration_factor,omitempty"`
	HeightMeters          *float64 `json:"height_meters,omitempty"`
	HeightFactor          *float64 `json:"height_factor,omitempty"`
	NoiseStdDev           *float64 `json:"noise_stddev,omitempty"`
	NoiseSeed             *uint64  `json:"noise_seed,omitempty"`
	MaxStrideLengthMeters *float64 `json:"max_stride_length_meters,omitempty"`

	// Listener dispatch params
	Dispatch          *string `json:"dispatch,omitempty"` // "sync" or "async"
	DispatchQueueSize *int    `json:"dispatch_queue_size,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the documented defaults.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		ShortWindowSeconds:    ptrFloat64(stepdetect.DefaultShortWindowSeconds),
		LongWindowSeconds:     ptrFloat64(stepdetect.DefaultLongWindowSeconds),
		LowPowerThreshold:     ptrFloat64(stepdetect.DefaultLowPowerThreshold),
		HighPowerThreshold:    ptrFloat64(stepdetect.DefaultHighPowerThreshold),
		Gating:                ptrString(stepdetect.GateDual.String()),
		MinStrideSeconds:      ptrFloat64(stepdetect.DefaultMinStrideSeconds),
		MaxStrideSeconds:      ptrFloat64(stepdetect.DefaultMaxStrideSeconds),
		StrideModel:           ptrString(ModelFrequency),
		CalibrationFactor:     ptrFloat64(1.0),
		HeightMeters:          ptrFloat64(stepdetect.DefaultHeightMeters),
		HeightFactor:          ptrFloat64(stepdetect.DefaultHeightFactor),
		NoiseStdDev:           ptrFloat64(stepdetect.DefaultNoiseStdDev),
		NoiseSeed:             ptrUint64(1),
		MaxStrideLengthMeters: ptrFloat64(stepdetect.DefaultMaxStrideLengthMeters),
		Dispatch:              ptrString(DispatchSync),
		DispatchQueueSize:     ptrInt(stepdetect.DefaultQueueSize),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to the Get* defaults, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the configuration values that can be checked without
// building a detector. Cross-field checks live in stepdetect.Config.Validate.
func (c *TuningConfig) Validate() error {
	if c.Gating != nil {
		if _, err := stepdetect.ParseGatingStrategy(*c.Gating); err != nil {
			return err
		}
	}

	if c.StrideModel != nil {
		switch strings.ToLower(*c.StrideModel) {
		case "", ModelFrequency, ModelAnthropometric:
		default:
			return fmt.Errorf("unknown stride_model %q", *c.StrideModel)
		}
	}

	if c.Dispatch != nil {
		switch strings.ToLower(*c.Dispatch) {
		case "", DispatchSync, DispatchAsync:
		default:
			return fmt.Errorf("unknown dispatch mode %q", *c.Dispatch)
		}
	}

	if c.DispatchQueueSize != nil && *c.DispatchQueueSize < 0 {
		return fmt.Errorf("dispatch_queue_size must be non-negative, got %d", *c.DispatchQueueSize)
	}

	for name, v := range map[string]*float64{
		"calibration_factor":       c.CalibrationFactor,
		"height_meters":            c.HeightMeters,
		"height_factor":            c.HeightFactor,
		"max_stride_length_meters": c.MaxStrideLengthMeters,
	} {
		if v != nil && (!(*v > 0) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%s must be positive, got %v", name, *v)
		}
	}

	if c.NoiseStdDev != nil && (*c.NoiseStdDev < 0 || math.IsNaN(*c.NoiseStdDev)) {
		return fmt.Errorf("noise_stddev must be non-negative, got %v", *c.NoiseStdDev)
	}

	if err := c.DetectorConfig().Validate(); err != nil {
		return err
	}

	return nil
}

// DetectorConfig builds the stepdetect configuration, filling unset fields
// with defaults.
func (c *TuningConfig) DetectorConfig() stepdetect.Config {
	return stepdetect.Config{
		ShortWindowSeconds: c.GetShortWindowSeconds(),
		LongWindowSeconds:  c.GetLongWindowSeconds(),
		LowPowerThreshold:  c.GetLowPowerThreshold(),
		HighPowerThreshold: c.GetHighPowerThreshold(),
		MinStrideSeconds:   c.GetMinStrideSeconds(),
		MaxStrideSeconds:   c.GetMaxStrideSeconds(),
		Gating:             c.GetGating(),
	}
}

// StrideLengthModel builds the configured stride length model.
func (c *TuningConfig) StrideLengthModel() stepdetect.StrideLengthModel {
	if c.GetStrideModel() == ModelAnthropometric {
		noise := stepdetect.NewGaussianNoise(c.GetNoiseStdDev(), c.GetNoiseSeed())
		return stepdetect.NewAnthropometricModel(c.GetHeightMeters(), c.GetHeightFactor(), c.GetMaxStrideLengthMeters(), noise)
	}
	return stepdetect.NewFrequencyModel(c.GetCalibrationFactor())
}

// NewDispatcher builds the configured listener dispatcher. An
// AsyncDispatcher must be closed by the caller.
func (c *TuningConfig) NewDispatcher() stepdetect.Dispatcher {
	if c.GetDispatch() == DispatchAsync {
		return stepdetect.NewAsyncDispatcher(c.GetDispatchQueueSize())
	}
	return &stepdetect.SyncDispatcher{}
}

// GetShortWindowSeconds returns the short_window_seconds value or the default.
func (c *TuningConfig) GetShortWindowSeconds() float64 {
	if c.ShortWindowSeconds == nil {
		return stepdetect.DefaultShortWindowSeconds
	}
	return *c.ShortWindowSeconds
}

// GetLongWindowSeconds returns the long_window_seconds value or the default.
func (c *TuningConfig) GetLongWindowSeconds() float64 {
	if c.LongWindowSeconds == nil {
		return stepdetect.DefaultLongWindowSeconds
	}
	return *c.LongWindowSeconds
}

// GetLowPowerThreshold returns the low_power_threshold value or the default.
func (c *TuningConfig) GetLowPowerThreshold() float64 {
	if c.LowPowerThreshold == nil {
		return stepdetect.DefaultLowPowerThreshold
	}
	return *c.LowPowerThreshold
}

// GetHighPowerThreshold returns the high_power_threshold value or the default.
func (c *TuningConfig) GetHighPowerThreshold() float64 {
	if c.HighPowerThreshold == nil {
		return stepdetect.DefaultHighPowerThreshold
	}
	return *c.HighPowerThreshold
}

// GetGating returns the gating strategy. Unparseable values fall back to
// dual gating; Validate reports them.
func (c *TuningConfig) GetGating() stepdetect.GatingStrategy {
	if c.Gating == nil {
		return stepdetect.GateDual
	}
	g, err := stepdetect.ParseGatingStrategy(*c.Gating)
	if err != nil {
		return stepdetect.GateDual
	}
	return g
}

// GetMinStrideSeconds returns the min_stride_seconds value or the default.
func (c *TuningConfig) GetMinStrideSeconds() float64 {
	if c.MinStrideSeconds == nil {
		return stepdetect.DefaultMinStrideSeconds
	}
	return *c.MinStrideSeconds
}

// GetMaxStrideSeconds returns the max_stride_seconds value or the default.
func (c *TuningConfig) GetMaxStrideSeconds() float64 {
	if c.MaxStrideSeconds == nil {
		return stepdetect.DefaultMaxStrideSeconds
	}
	return *c.MaxStrideSeconds
}

// GetStrideModel returns the stride model name, "frequency" by default.
func (c *TuningConfig) GetStrideModel() string {
	if c.StrideModel == nil || *c.StrideModel == "" {
		return ModelFrequency
	}
	return strings.ToLower(*c.StrideModel)
}

// GetCalibrationFactor returns the calibration_factor value or the default.
func (c *TuningConfig) GetCalibrationFactor() float64 {
	if c.CalibrationFactor == nil {
		return 1.0
	}
	return *c.CalibrationFactor
}

// GetHeightMeters returns the height_meters value or the default.
func (c *TuningConfig) GetHeightMeters() float64 {
	if c.HeightMeters == nil {
		return stepdetect.DefaultHeightMeters
	}
	return *c.HeightMeters
}

// GetHeightFactor returns the height_factor value or the default.
func (c *TuningConfig) GetHeightFactor() float64 {
	if c.HeightFactor == nil {
		return stepdetect.DefaultHeightFactor
	}
	return *c.HeightFactor
}

// GetNoiseStdDev returns the noise_stddev value or the default.
func (c *TuningConfig) GetNoiseStdDev() float64 {
	if c.NoiseStdDev == nil {
		return stepdetect.DefaultNoiseStdDev
	}
	return *c.NoiseStdDev
}

// GetNoiseSeed returns the noise_seed value or the default.
func (c *TuningConfig) GetNoiseSeed() uint64 {
	if c.NoiseSeed == nil {
		return 1
	}
	return *c.NoiseSeed
}

// GetMaxStrideLengthMeters returns the max_stride_length_meters value or the default.
func (c *TuningConfig) GetMaxStrideLengthMeters() float64 {
	if c.MaxStrideLengthMeters == nil {
		return stepdetect.DefaultMaxStrideLengthMeters
	}
	return *c.MaxStrideLengthMeters
}

// GetDispatch returns the dispatch mode, "sync" by default.
func (c *TuningConfig) GetDispatch() string {
	if c.Dispatch == nil || *c.Dispatch == "" {
		return DispatchSync
	}
	return strings.ToLower(*c.Dispatch)
}

// GetDispatchQueueSize returns the dispatch_queue_size value or the default.
func (c *TuningConfig) GetDispatchQueueSize() int {
	if c.DispatchQueueSize == nil || *c.DispatchQueueSize == 0 {
		return stepdetect.DefaultQueueSize
	}
	return *c.DispatchQueueSize
}

// Package config loads measurement-model and tracker tuning overrides from
// JSON files. Fields omitted from a file keep their compiled-in defaults,
// so partial configs are safe to ship per sensor.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CNchence/precision-tracking/internal/tracking"
)

// TuningConfig represents optional overrides for the tracking parameters.
// Every field is a pointer: nil means "keep the default". The JSON schema
// is the tuning-file format shipped alongside a deployment.
type TuningConfig struct {
	// Measurement model params
	MaxDiscountPoints         *float64 `json:"max_discount_points,omitempty"`
	MeasurementDiscountFactor *float64 `json:"measurement_discount_factor,omitempty"`
	SpilloverRadiusSigmas     *float64 `json:"spillover_radius_sigmas,omitempty"`
	SensorSigmaFactor         *float64 `json:"sensor_sigma_factor,omitempty"`
	SamplingSigmaFactor       *float64 `json:"sampling_sigma_factor,omitempty"`
	MinMeasurementStdDev      *float64 `json:"min_measurement_std_dev,omitempty"`
	SmoothingFactor           *float64 `json:"smoothing_factor,omitempty"`
	HorizontalResolutionRad   *float64 `json:"horizontal_resolution_rad,omitempty"`
	VerticalResolutionFactor  *float64 `json:"vertical_resolution_factor,omitempty"`
	MaxGridX                  *int     `json:"max_grid_x,omitempty"`
	MaxGridY                  *int     `json:"max_grid_y,omitempty"`
	MaxGridZ                  *int     `json:"max_grid_z,omitempty"`

	// Tracking loop params
	XYStepSize      *float64 `json:"xy_step_size,omitempty"`
	ZStepSize       *float64 `json:"z_step_size,omitempty"`
	MaxVelocityMps  *float64 `json:"max_velocity_mps,omitempty"`
	ProcessNoiseVel *float64 `json:"process_noise_vel,omitempty"`
	VoxelLeafSize   *float64 `json:"voxel_leaf_size,omitempty"`
	SearchZ         *bool    `json:"search_z,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields omitted
// from the file are left nil so defaults apply.
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
	const maxFileSize = 1 * 1024 * 1024
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

// Validate checks the overrides that have constraints beyond their type.
// nil fields are always valid.
func (c *TuningConfig) Validate() error {
	positive := map[string]*float64{
		"max_discount_points":        c.MaxDiscountPoints,
		"spillover_radius_sigmas":    c.SpilloverRadiusSigmas,
		"min_measurement_std_dev":    c.MinMeasurementStdDev,
		"smoothing_factor":           c.SmoothingFactor,
		"horizontal_resolution_rad":  c.HorizontalResolutionRad,
		"vertical_resolution_factor": c.VerticalResolutionFactor,
		"xy_step_size":               c.XYStepSize,
		"z_step_size":                c.ZStepSize,
		"max_velocity_mps":           c.MaxVelocityMps,
	}
	for name, v := range positive {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, *v)
		}
	}

	if c.ProcessNoiseVel != nil && *c.ProcessNoiseVel < 0 {
		return fmt.Errorf("process_noise_vel must be non-negative, got %v", *c.ProcessNoiseVel)
	}

	for name, v := range map[string]*int{
		"max_grid_x": c.MaxGridX,
		"max_grid_y": c.MaxGridY,
		"max_grid_z": c.MaxGridZ,
	} {
		if v != nil && *v < 3 {
			return fmt.Errorf("%s must be >= 3, got %d", name, *v)
		}
	}

	return nil
}

// ApplyToParams overlays the non-nil measurement-model overrides onto params.
func (c *TuningConfig) ApplyToParams(params *tracking.TrackingParams) {
	if c.MaxDiscountPoints != nil {
		params.MaxDiscountPoints = *c.MaxDiscountPoints
	}
	if c.MeasurementDiscountFactor != nil {
		params.MeasurementDiscountFactor = *c.MeasurementDiscountFactor
	}
	if c.SpilloverRadiusSigmas != nil {
		params.SpilloverRadiusSigmas = *c.SpilloverRadiusSigmas
	}
	if c.SensorSigmaFactor != nil {
		params.SensorSigmaFactor = *c.SensorSigmaFactor
	}
	if c.SamplingSigmaFactor != nil {
		params.SamplingSigmaFactor = *c.SamplingSigmaFactor
	}
	if c.MinMeasurementStdDev != nil {
		params.MinMeasurementStdDev = *c.MinMeasurementStdDev
	}
	if c.SmoothingFactor != nil {
		params.SmoothingFactor = *c.SmoothingFactor
	}
	if c.HorizontalResolutionRad != nil {
		params.HorizontalResolutionRad = *c.HorizontalResolutionRad
	}
	if c.VerticalResolutionFactor != nil {
		params.VerticalResolutionFactor = *c.VerticalResolutionFactor
	}
	if c.MaxGridX != nil {
		params.MaxGridX = *c.MaxGridX
	}
	if c.MaxGridY != nil {
		params.MaxGridY = *c.MaxGridY
	}
	if c.MaxGridZ != nil {
		params.MaxGridZ = *c.MaxGridZ
	}
}

// ApplyToTracker overlays the non-nil tracking-loop overrides onto config.
func (c *TuningConfig) ApplyToTracker(config *tracking.TrackerConfig) {
	if c.XYStepSize != nil {
		config.XYStepSize = *c.XYStepSize
	}
	if c.ZStepSize != nil {
		config.ZStepSize = *c.ZStepSize
	}
	if c.MaxVelocityMps != nil {
		config.MaxVelocityMps = *c.MaxVelocityMps
	}
	if c.ProcessNoiseVel != nil {
		config.ProcessNoiseVel = *c.ProcessNoiseVel
	}
	if c.VoxelLeafSize != nil {
		config.VoxelLeafSize = *c.VoxelLeafSize
	}
	if c.SearchZ != nil {
		config.SearchZ = *c.SearchZ
	}
}

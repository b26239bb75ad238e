package tracking

import (
	"fmt"
	"math"
)

// TrackingParams holds the measurement-model tuning parameters for the
// density-grid scorer. Values are passed in explicitly rather than read from
// package-level state so tests and per-sensor tuning can control them.
// Treat a TrackingParams value as immutable once handed to a scorer.
type TrackingParams struct {
	// MaxDiscountPoints is the number of points per object assumed to be
	// statistically independent. Beyond this many, the measurement
	// log-likelihood is discounted proportionally.
	MaxDiscountPoints float64

	// MeasurementDiscountFactor is the base factor applied to the
	// measurement log-likelihood before the independence discount.
	MeasurementDiscountFactor float64

	// SpilloverRadiusSigmas is how far density spills into neighbouring
	// grid cells, in standard deviations.
	SpilloverRadiusSigmas float64

	// SensorSigmaFactor scales the sensor angular resolution term of the
	// per-point Gaussian: sigma² includes (resolution × factor)².
	SensorSigmaFactor float64

	// SamplingSigmaFactor scales the candidate sampling resolution term:
	// sigma² includes (xyStep × factor)².
	SamplingSigmaFactor float64

	// MinMeasurementStdDev is the sensor noise floor (meters), independent
	// of range. Combined with the other terms in quadrature.
	MinMeasurementStdDev float64

	// SmoothingFactor is the background density added to the Gaussian so
	// that misaligned points never score zero probability.
	SmoothingFactor float64

	// HorizontalResolutionRad is the sensor's horizontal angular
	// resolution (radians between adjacent beams).
	HorizontalResolutionRad float64

	// VerticalResolutionFactor is the sensor's vertical resolution as a
	// multiple of the horizontal resolution.
	VerticalResolutionFactor float64

	// MaxGridX, MaxGridY, MaxGridZ are hard caps on the density grid
	// dimensions. They bound worst-case memory regardless of scan extent:
	// computed dimensions are clamped, never grown. The grid arena is
	// allocated once at these maxima.
	MaxGridX int
	MaxGridY int
	MaxGridZ int
}

// DefaultTrackingParams returns the measurement-model parameters tuned for a
// roof-mounted spinning LiDAR (0.18° horizontal beam spacing, vertical
// spacing 2.2× horizontal).
//
// The default grid maxima allow a 10 m wide, 5 m tall object at 1.2 cm
// resolution and put the arena at roughly 4 GB; reduce them for constrained
// deployments or tests.
func DefaultTrackingParams() TrackingParams {
	return TrackingParams{
		MaxDiscountPoints:         150.0,
		MeasurementDiscountFactor: 1.0,
		SpilloverRadiusSigmas:     2.0,
		SensorSigmaFactor:         0.5,
		SamplingSigmaFactor:       1.0,
		MinMeasurementStdDev:      0.03,
		SmoothingFactor:           0.8,
		HorizontalResolutionRad:   0.18 * math.Pi / 180.0,
		VerticalResolutionFactor:  2.2,
		MaxGridX:                  1000,
		MaxGridY:                  1000,
		MaxGridZ:                  500,
	}
}

// Validate reports the first structurally invalid parameter, or nil.
func (p TrackingParams) Validate() error {
	if p.MaxDiscountPoints <= 0 {
		return fmt.Errorf("MaxDiscountPoints must be positive, got %v", p.MaxDiscountPoints)
	}
	if p.SpilloverRadiusSigmas <= 0 {
		return fmt.Errorf("SpilloverRadiusSigmas must be positive, got %v", p.SpilloverRadiusSigmas)
	}
	if p.MinMeasurementStdDev <= 0 {
		return fmt.Errorf("MinMeasurementStdDev must be positive, got %v", p.MinMeasurementStdDev)
	}
	if p.SmoothingFactor <= 0 {
		return fmt.Errorf("SmoothingFactor must be positive, got %v", p.SmoothingFactor)
	}
	if p.HorizontalResolutionRad <= 0 {
		return fmt.Errorf("HorizontalResolutionRad must be positive, got %v", p.HorizontalResolutionRad)
	}
	if p.VerticalResolutionFactor <= 0 {
		return fmt.Errorf("VerticalResolutionFactor must be positive, got %v", p.VerticalResolutionFactor)
	}
	if p.MaxGridX < 3 || p.MaxGridY < 3 || p.MaxGridZ < 3 {
		return fmt.Errorf("grid maxima must each be >= 3 (border shell + interior), got %dx%dx%d",
			p.MaxGridX, p.MaxGridY, p.MaxGridZ)
	}
	return nil
}

// TrackRequest carries the per-invocation call parameters for one scoring
// pass: the candidate lattice geometry and the sensor-resolution inputs.
type TrackRequest struct {
	// XYStepSize is the candidate lattice spacing in x and y (meters).
	// Must be positive.
	XYStepSize float64

	// ZStepSize is the candidate lattice spacing in z (meters). Must be
	// positive; it also sets the grid's vertical cell size.
	ZStepSize float64

	// XRange, YRange, ZRange are the closed search intervals.
	XRange, YRange, ZRange Interval

	// SearchZ enables candidate generation along z. When false (the
	// default) every candidate carries z = 0 and the object is assumed to
	// move horizontally between frames; vertical extent is still handled
	// by the density grid itself.
	SearchZ bool

	// HorizontalDistance is the horizontal distance from the sensor to
	// the tracked object (meters), used to derive the angular resolution
	// footprint.
	HorizontalDistance float64

	// DownSampleFactor is the fraction of sensor returns retained by
	// upstream downsampling, in (0, 1]. The effective sensor resolution
	// is the actual resolution divided by this factor.
	DownSampleFactor float64
}

// Validate reports the first contract violation in the request, or nil.
func (r TrackRequest) Validate() error {
	if r.XYStepSize <= 0 {
		return fmt.Errorf("xy step size must be positive, got %v", r.XYStepSize)
	}
	if r.ZStepSize <= 0 {
		return fmt.Errorf("z step size must be positive, got %v", r.ZStepSize)
	}
	if r.DownSampleFactor <= 0 {
		return fmt.Errorf("downsample factor must be positive, got %v", r.DownSampleFactor)
	}
	return nil
}

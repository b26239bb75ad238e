package tracking

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// TrackerConfig holds the per-object tracking loop parameters. The
// measurement-model tuning lives separately in TrackingParams.
type TrackerConfig struct {
	XYStepSize      float64 // Candidate lattice spacing in x/y (meters)
	ZStepSize       float64 // Candidate lattice spacing in z (meters)
	MaxVelocityMps  float64 // Maximum plausible speed; bounds the search window
	ProcessNoiseVel float64 // Motion-model process noise (m²/s² per axis)
	VoxelLeafSize   float64 // Voxel downsampling edge (meters); 0 disables
	SearchZ         bool    // Enable candidate search along z
}

// DefaultTrackerConfig returns tracking loop defaults for road objects.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		XYStepSize:      0.1,
		ZStepSize:       0.5,
		MaxVelocityMps:  12.5, // ~45 km/h; covers urban traffic
		ProcessNoiseVel: 0.5,
		VoxelLeafSize:   0,
		SearchZ:         false,
	}
}

// Validate reports the first structurally invalid field, or nil.
func (c TrackerConfig) Validate() error {
	if c.XYStepSize <= 0 {
		return fmt.Errorf("XYStepSize must be positive, got %v", c.XYStepSize)
	}
	if c.ZStepSize <= 0 {
		return fmt.Errorf("ZStepSize must be positive, got %v", c.ZStepSize)
	}
	if c.MaxVelocityMps <= 0 {
		return fmt.Errorf("MaxVelocityMps must be positive, got %v", c.MaxVelocityMps)
	}
	if c.ProcessNoiseVel < 0 {
		return fmt.Errorf("ProcessNoiseVel must be non-negative, got %v", c.ProcessNoiseVel)
	}
	return nil
}

// VelocityEstimate is the per-frame output of a Tracker.
type VelocityEstimate struct {
	// Valid is false for the first frame, which only seeds the tracker.
	Valid bool

	// VX, VY, VZ is the estimated object velocity (m/s): the negated
	// posterior-mean alignment translation divided by the frame gap.
	VX, VY, VZ float64

	// AlignmentX, AlignmentY, AlignmentZ is the posterior-mean translation
	// that maps the current scan onto the previous one.
	AlignmentX, AlignmentY, AlignmentZ float64

	// Best is the single highest-scoring candidate.
	Best ScoredTransform

	// Entropy is the Shannon entropy (nats) of the candidate posterior; a
	// spread/confidence diagnostic.
	Entropy float64

	// Candidates is the number of transforms scored this frame.
	Candidates int
}

// Speed returns the horizontal speed of the estimate (m/s).
func (e VelocityEstimate) Speed() float64 {
	return math.Hypot(e.VX, e.VY)
}

// Heading returns the horizontal heading of the estimate in radians.
func (e VelocityEstimate) Heading() float64 {
	return math.Atan2(e.VY, e.VX)
}

// Tracker estimates one object's frame-to-frame velocity from consecutive
// scans. It owns a scorer (and its grid arena), a motion model, and the
// previous frame; each Update scores the new frame against the previous one
// and advances the motion prior.
//
// Not safe for concurrent use: the grid arena is exclusive to this tracker.
// Track several objects with one Tracker each.
type Tracker struct {
	ID string

	params TrackingParams
	config TrackerConfig

	scorer *DensityGridScorer
	motion *GaussianMotionModel
	scored *ScoredTransforms

	prev       *PointCloud
	prevFactor float64
	lastNanos  int64
}

// NewTracker allocates a tracker, including its grid arena.
func NewTracker(params TrackingParams, config TrackerConfig) (*Tracker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker config: %w", err)
	}
	scorer, err := NewDensityGridScorer(params)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		ID:     fmt.Sprintf("trk_%s", uuid.NewString()),
		params: params,
		config: config,
		scorer: scorer,
		motion: NewGaussianMotionModel(config.ProcessNoiseVel),
		scored: NewScoredTransforms(),
	}, nil
}

// Scored returns the scored-transform container for the most recent frame,
// in candidate order. Contents are overwritten by the next Update.
func (t *Tracker) Scored() *ScoredTransforms { return t.scored }

// Grid returns the tracker's density grid (read-only between updates).
func (t *Tracker) Grid() *DensityGrid { return t.scorer.Grid() }

// Update ingests one frame. The first frame seeds the tracker and returns
// an estimate with Valid == false; every later frame is scored against its
// predecessor. Timestamps must be strictly increasing.
func (t *Tracker) Update(cloud *PointCloud, timestamp time.Time) (VelocityEstimate, error) {
	if cloud.Len() == 0 {
		return VelocityEstimate{}, fmt.Errorf("tracker update requires a non-empty cloud")
	}

	sampled := cloud
	factor := 1.0
	if t.config.VoxelLeafSize > 0 {
		sampled = cloud.VoxelDownSample(t.config.VoxelLeafSize)
		factor = cloud.DownSampleFactor(sampled)
	}

	nowNanos := timestamp.UnixNano()
	if t.prev == nil {
		t.prev = sampled
		t.prevFactor = factor
		t.lastNanos = nowNanos
		return VelocityEstimate{}, nil
	}

	dt := float64(nowNanos-t.lastNanos) / 1e9
	if dt <= 0 {
		return VelocityEstimate{}, fmt.Errorf("non-increasing frame timestamp: dt=%v", dt)
	}

	t.motion.Predict(dt)

	// The search window covers every alignment reachable at the speed cap.
	reach := t.config.MaxVelocityMps * dt
	req := TrackRequest{
		XYStepSize:         t.config.XYStepSize,
		ZStepSize:          t.config.ZStepSize,
		XRange:             Interval{Min: -reach, Max: reach},
		YRange:             Interval{Min: -reach, Max: reach},
		ZRange:             Interval{Min: -reach, Max: reach},
		SearchZ:            t.config.SearchZ,
		HorizontalDistance: sampled.HorizontalDistance(),
		DownSampleFactor:   t.prevFactor,
	}

	if err := t.scorer.Track(req, sampled, t.prev, t.motion, t.scored); err != nil {
		return VelocityEstimate{}, fmt.Errorf("track %s: %w", t.ID, err)
	}

	ax, ay, az, _ := t.scored.WeightedMean()
	best, _ := t.scored.Best()

	estimate := VelocityEstimate{
		Valid:      true,
		VX:         -ax / dt,
		VY:         -ay / dt,
		VZ:         -az / dt,
		AlignmentX: ax,
		AlignmentY: ay,
		AlignmentZ: az,
		Best:       best,
		Entropy:    t.scored.Entropy(),
		Candidates: t.scored.Len(),
	}

	t.motion.Update(t.scored, dt)
	t.prev = sampled
	t.prevFactor = factor
	t.lastNanos = nowNanos
	return estimate, nil
}

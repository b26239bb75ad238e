package tracking

import (
	"fmt"
	"math"
)

// MotionModel is the prior over plausible frame-to-frame translations,
// independent of the point data.
type MotionModel interface {
	// Score returns the prior probability of the given translation, in
	// (0, 1]. A zero return is representable (the fused score becomes
	// -Inf) but means the candidate is impossible under the prior.
	Score(dx, dy, dz float64) float64
}

// DensityGridScorer evaluates candidate translations by re-projecting the
// current scan through a density grid built from the previous scan.
//
// The scorer owns one grid arena and reuses it across frames; it keeps no
// other state between calls. Not safe for concurrent use: trackers running
// in parallel must each own a scorer.
type DensityGridScorer struct {
	params TrackingParams
	grid   *DensityGrid
}

// NewDensityGridScorer allocates a scorer and its grid arena.
func NewDensityGridScorer(params TrackingParams) (*DensityGridScorer, error) {
	grid, err := NewDensityGrid(params)
	if err != nil {
		return nil, err
	}
	return &DensityGridScorer{params: params, grid: grid}, nil
}

// Grid exposes the scorer's density grid for inspection (tests, plotting).
// The grid is read-only between calls to Track.
func (s *DensityGridScorer) Grid() *DensityGrid { return s.grid }

// Track runs one full scoring pass: generate the candidate lattice, rebuild
// the density grid from the previous scan, score every candidate against the
// current scan, and emit each result to the sink in candidate order.
func (s *DensityGridScorer) Track(
	req TrackRequest,
	current, prev *PointCloud,
	motion MotionModel,
	sink TransformSink,
) error {
	transforms, err := CandidateTransforms(req)
	if err != nil {
		return fmt.Errorf("generate candidate transforms: %w", err)
	}

	if err := s.grid.Build(prev, req); err != nil {
		return fmt.Errorf("build density grid: %w", err)
	}

	s.scoreTransforms(current, transforms, motion, sink)
	return nil
}

// scoreTransforms scores each candidate against the (already built) grid and
// pushes the results to the sink in insertion order.
func (s *DensityGridScorer) scoreTransforms(
	current *PointCloud,
	transforms []CandidateTransform,
	motion MotionModel,
	sink TransformSink,
) {
	sink.Clear()
	sink.Reserve(len(transforms))
	for _, t := range transforms {
		logProb := s.logProbability(current, motion, t.X, t.Y, t.Z)
		sink.Add(ScoredTransform{CandidateTransform: t, LogProb: logProb})
	}
}

// logProbability computes the combined log-probability of one candidate
// translation: the discounted total log-density of the translated current
// scan under the grid, plus the log of the motion-model prior.
//
// The background smoothing constant keeps the total finite; a zero motion
// prior propagates as -Inf rather than an error.
func (s *DensityGridScorer) logProbability(
	current *PointCloud,
	motion MotionModel,
	x, y, z float64,
) float64 {
	g := s.grid

	// Candidate translation expressed as a (fractional) index offset.
	xOffset := (x - g.minPt.X) / g.xyStep
	yOffset := (y - g.minPt.Y) / g.xyStep
	zOffset := (z - g.minPt.Z) / g.zStep

	var totalLogDensity float64
	for _, pt := range current.Points {
		// Shift each point by the proposed alignment, then find its cell.
		// Out-of-grid points clamp to the nearest cell, which for a
		// padded grid is a border cell holding the background density.
		i := clampInt(int(math.Round(pt.X/g.xyStep+xOffset)), 0, g.xSize-1)
		j := clampInt(int(math.Round(pt.Y/g.xyStep+yOffset)), 0, g.ySize-1)
		k := clampInt(int(math.Round(pt.Z/g.zStep+zOffset)), 0, g.zSize-1)

		totalLogDensity += g.cells[g.index(i, j, k)]
	}

	return math.Log(motion.Score(x, y, z)) + g.discount*totalLogDensity
}

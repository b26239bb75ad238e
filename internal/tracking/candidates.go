package tracking

import (
	"math"
)

// CandidateTransforms enumerates the discrete translation candidates for one
// scoring pass: every (x, y) pair on the step lattice within the search
// ranges, inclusive of both bounds.
//
// By default candidates carry z = 0 (req.SearchZ re-enables the z loop).
// A z range smaller than the z step collapses to the single value 0 so the
// lattice always contains the identity-z alignment. Empty ranges yield an
// empty or single-element set, never an error; invalid step sizes are a
// caller contract violation and fail fast.
func CandidateTransforms(req TrackRequest) ([]CandidateTransform, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Make sure the z lattice hits 0 when the step is too coarse for the
	// requested range.
	zRange := req.ZRange
	if req.ZStepSize > math.Abs(zRange.Min) {
		zRange = Interval{}
	}

	numX := latticeCount(req.XRange, req.XYStepSize)
	numY := latticeCount(req.YRange, req.XYStepSize)
	numZ := 1
	if req.SearchZ {
		numZ = latticeCount(zRange, req.ZStepSize)
	}

	volume := req.XYStepSize * req.XYStepSize * req.ZStepSize

	transforms := make([]CandidateTransform, 0, numX*numY*numZ)
	for x := req.XRange.Min; x <= req.XRange.Max; x += req.XYStepSize {
		for y := req.YRange.Min; y <= req.YRange.Max; y += req.XYStepSize {
			if !req.SearchZ {
				transforms = append(transforms, CandidateTransform{
					X: x, Y: y, Z: 0, Volume: volume,
				})
				continue
			}
			for z := zRange.Min; z <= zRange.Max; z += req.ZStepSize {
				transforms = append(transforms, CandidateTransform{
					X: x, Y: y, Z: z, Volume: volume,
				})
			}
		}
	}
	return transforms, nil
}

// latticeCount returns the number of inclusive lattice positions covering
// the interval at the given step, with a floor of 0 for empty intervals.
func latticeCount(r Interval, step float64) int {
	if r.Max < r.Min {
		return 0
	}
	return int((r.Max-r.Min)/step) + 1
}

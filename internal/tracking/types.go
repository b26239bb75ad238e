package tracking

// Point represents a single sensor return in Cartesian object-frame
// coordinates (meters). Intensity is carried through untouched; the scoring
// pipeline only consumes geometry.
type Point struct {
	X, Y, Z   float64
	Intensity uint8
}

// BoundingBox is an axis-aligned bounding box over a point cloud.
type BoundingBox struct {
	Min Point
	Max Point
}

// Interval is a closed interval [Min, Max] of candidate translations along
// one axis (meters).
type Interval struct {
	Min, Max float64
}

// CandidateTransform is a hypothesised translation aligning the current scan
// to the previous scan, tagged with the physical volume of search space it
// represents at the current step size.
type CandidateTransform struct {
	X, Y, Z float64

	// Volume is xyStep² × zStep (m³); used downstream when converting
	// scores over an irregular candidate lattice into a posterior.
	Volume float64
}

// ScoredTransform is a CandidateTransform annotated with its combined
// log-probability (motion-model log-prior + discounted measurement
// log-likelihood).
type ScoredTransform struct {
	CandidateTransform

	LogProb float64
}

// TransformSink accumulates scored transforms in insertion order. The scorer
// clears the sink, reserves capacity, and then adds one entry per candidate;
// insertion order must be preserved for downstream determinism.
type TransformSink interface {
	Clear()
	Reserve(n int)
	Add(t ScoredTransform)
}

package tracking

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ScoredTransforms accumulates the scored candidates of one scoring pass in
// insertion order and converts them into a posterior over translations.
// It implements TransformSink.
type ScoredTransforms struct {
	transforms []ScoredTransform
}

// NewScoredTransforms returns an empty container.
func NewScoredTransforms() *ScoredTransforms {
	return &ScoredTransforms{}
}

// Clear drops all accumulated transforms but keeps capacity.
func (s *ScoredTransforms) Clear() {
	s.transforms = s.transforms[:0]
}

// Reserve grows capacity to hold at least n transforms without reallocation.
func (s *ScoredTransforms) Reserve(n int) {
	if cap(s.transforms) < n {
		grown := make([]ScoredTransform, len(s.transforms), n)
		copy(grown, s.transforms)
		s.transforms = grown
	}
}

// Add appends one scored transform, preserving insertion order.
func (s *ScoredTransforms) Add(t ScoredTransform) {
	s.transforms = append(s.transforms, t)
}

// Len returns the number of accumulated transforms.
func (s *ScoredTransforms) Len() int { return len(s.transforms) }

// Transforms returns the accumulated transforms in insertion order. The
// slice is owned by the container; callers must not mutate it.
func (s *ScoredTransforms) Transforms() []ScoredTransform {
	return s.transforms
}

// Best returns the transform with the highest log-probability. Ties keep
// the earliest insertion. ok is false when the container is empty.
func (s *ScoredTransforms) Best() (best ScoredTransform, ok bool) {
	if len(s.transforms) == 0 {
		return ScoredTransform{}, false
	}
	best = s.transforms[0]
	for _, t := range s.transforms[1:] {
		if t.LogProb > best.LogProb {
			best = t
		}
	}
	return best, true
}

// Probabilities returns the normalised posterior over the accumulated
// candidates, in insertion order. Each candidate's probability mass is its
// density exp(LogProb) times the volume it represents; normalisation happens
// in the log domain so large negative scores do not underflow.
//
// When every candidate is impossible (all -Inf) the posterior is uniform.
func (s *ScoredTransforms) Probabilities() []float64 {
	n := len(s.transforms)
	if n == 0 {
		return nil
	}

	logMass := make([]float64, n)
	for i, t := range s.transforms {
		logMass[i] = t.LogProb + math.Log(t.Volume)
	}

	logTotal := floats.LogSumExp(logMass)
	probs := make([]float64, n)
	if math.IsInf(logTotal, -1) {
		uniform := 1.0 / float64(n)
		for i := range probs {
			probs[i] = uniform
		}
		return probs
	}

	for i := range probs {
		probs[i] = math.Exp(logMass[i] - logTotal)
	}
	return probs
}

// WeightedMean returns the posterior-weighted expected translation.
// ok is false when the container is empty.
func (s *ScoredTransforms) WeightedMean() (x, y, z float64, ok bool) {
	probs := s.Probabilities()
	if probs == nil {
		return 0, 0, 0, false
	}
	for i, t := range s.transforms {
		x += probs[i] * t.X
		y += probs[i] * t.Y
		z += probs[i] * t.Z
	}
	return x, y, z, true
}

// Entropy returns the Shannon entropy (nats) of the posterior; a spread
// diagnostic stored alongside each frame's estimate. Zero for an empty
// container.
func (s *ScoredTransforms) Entropy() float64 {
	var h float64
	for _, p := range s.Probabilities() {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h
}

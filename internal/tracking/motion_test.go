package tracking

import (
	"math"
	"testing"
)

func TestGaussianMotionModel_UniformBeforeFirstMeasurement(t *testing.T) {
	m := NewGaussianMotionModel(0.5)

	if got := m.Score(0, 0, 0); got != 1 {
		t.Errorf("Score(0,0,0) = %v before any measurement, want 1", got)
	}
	if got := m.Score(3, -2, 1); got != 1 {
		t.Errorf("Score(3,-2,1) = %v before any measurement, want 1", got)
	}

	// Predict with no measurement must leave the prior uniform.
	m.Predict(0.1)
	if got := m.Score(5, 5, 5); got != 1 {
		t.Errorf("Score after measurement-free Predict = %v, want 1", got)
	}
}

// posteriorAround builds a scored-transform set concentrated at (x, y, z).
func posteriorAround(x, y, z float64) *ScoredTransforms {
	s := NewScoredTransforms()
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			lp := -float64(dx*dx+dy*dy) * 4.0
			s.Add(ScoredTransform{
				CandidateTransform: CandidateTransform{
					X: x + float64(dx)*0.1, Y: y + float64(dy)*0.1, Z: z, Volume: 1,
				},
				LogProb: lp,
			})
		}
	}
	return s
}

func TestGaussianMotionModel_PeaksAtPredictedTranslation(t *testing.T) {
	m := NewGaussianMotionModel(0.1)

	const dt = 0.1
	m.Update(posteriorAround(0.5, 0, 0), dt)
	m.Predict(dt)

	atMean := m.Score(0.5, 0, 0)
	if math.Abs(atMean-1) > 1e-9 {
		t.Errorf("score at predicted mean = %v, want 1", atMean)
	}

	away := m.Score(0.5+1.0, 0, 0)
	if away >= atMean {
		t.Errorf("score away from mean (%v) not below peak (%v)", away, atMean)
	}
	if away <= 0 {
		t.Errorf("score must stay strictly positive, got %v", away)
	}

	vx, vy, vz := m.MeanVelocity()
	if math.Abs(vx-5.0) > 1e-9 {
		t.Errorf("mean vx = %v, want 0.5m/%vs = 5", vx, dt)
	}
	if math.Abs(vy) > 1e-9 || math.Abs(vz) > 1e-9 {
		t.Errorf("mean vy,vz = %v,%v, want 0,0", vy, vz)
	}
}

func TestGaussianMotionModel_ScoreBounded(t *testing.T) {
	m := NewGaussianMotionModel(0.1)
	m.Update(posteriorAround(0.2, -0.1, 0), 0.1)
	m.Predict(0.1)

	for _, d := range [][3]float64{{0, 0, 0}, {0.2, -0.1, 0}, {1, 1, 1}, {-3, 2, 0.5}} {
		got := m.Score(d[0], d[1], d[2])
		if got <= 0 || got > 1+1e-12 {
			t.Errorf("Score(%v) = %v, want within (0, 1]", d, got)
		}
	}
}

func TestGaussianMotionModel_FarTranslationScoresPositive(t *testing.T) {
	// A tight posterior makes the prior covariance tiny; translations many
	// sigma out must still score a strictly positive value, not underflow
	// to zero and poison the fused score with -Inf.
	s := NewScoredTransforms()
	s.Add(ScoredTransform{CandidateTransform: CandidateTransform{X: 0.1, Volume: 1}, LogProb: -1})

	m := NewGaussianMotionModel(0)
	m.Update(s, 0.1)
	m.Predict(0.1)

	for _, d := range [][3]float64{{5, 0, 0}, {-10, 10, 0}, {100, -100, 50}} {
		got := m.Score(d[0], d[1], d[2])
		if got <= 0 {
			t.Errorf("Score(%v) = %v, want strictly positive", d, got)
		}
		if math.IsInf(math.Log(got), -1) {
			t.Errorf("log(Score(%v)) = -Inf, fused scores would be poisoned", d)
		}
	}
}

func TestGaussianMotionModel_DegeneratePosteriorStaysUsable(t *testing.T) {
	// A posterior collapsed onto a single candidate has zero sample
	// covariance; the diagonal regulariser must keep the prior positive
	// definite and usable.
	s := NewScoredTransforms()
	s.Add(ScoredTransform{CandidateTransform: CandidateTransform{X: 0.3, Volume: 1}, LogProb: -1})

	m := NewGaussianMotionModel(0)
	m.Update(s, 0.1)
	m.Predict(0.1)

	got := m.Score(0.3, 0, 0)
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("score at collapsed mean = %v, want 1", got)
	}
	if off := m.Score(0, 0, 0); off >= got || off <= 0 {
		t.Errorf("off-mean score = %v, want in (0, peak)", off)
	}
}

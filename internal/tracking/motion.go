package tracking

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Motion model numerical constants — not user-tunable.
const (
	// minVelocityVariance regularises the posterior covariance diagonal so
	// the Gaussian stays positive definite even when the posterior
	// collapses onto a single candidate.
	minVelocityVariance = 1e-4

	// minLogScore floors the peak-relative log-density so that a tight
	// prior never underflows a reachable translation to exactly zero.
	// exp(minLogScore) is approximately 1e-304, still a normal float64.
	minLogScore = -700.0
)

// GaussianMotionModel is a constant-velocity prior over frame-to-frame
// alignment translations with a full 3×3 covariance. After each frame the
// model re-estimates its velocity distribution from the scored-transform
// posterior; before each frame it is propagated forward by the elapsed time.
//
// The model works in alignment space throughout: the translation that maps
// the current scan onto the previous one, which is the negative of the
// object's displacement.
type GaussianMotionModel struct {
	// ProcessNoiseVel is the variance (m²/s²) added per axis when the
	// velocity distribution is propagated, accounting for unmodelled
	// acceleration between frames.
	ProcessNoiseVel float64

	meanVel [3]float64
	covVel  *mat.SymDense
	updated bool

	// Working distribution over translations for the upcoming frame,
	// rebuilt by Predict. nil until the first Update+Predict cycle, in
	// which case the prior is uniform.
	dist *distmv.Normal
	peak float64
}

// NewGaussianMotionModel returns a model with no velocity information: it
// scores every translation at 1 until the first Update.
func NewGaussianMotionModel(processNoiseVel float64) *GaussianMotionModel {
	return &GaussianMotionModel{
		ProcessNoiseVel: processNoiseVel,
		covVel:          mat.NewSymDense(3, nil),
	}
}

// Score returns the prior probability of the given alignment translation,
// normalised to (0, 1] by the distribution's peak density. With no velocity
// information yet the prior is uniform and every translation scores 1.
func (m *GaussianMotionModel) Score(dx, dy, dz float64) float64 {
	if m.dist == nil {
		return 1
	}
	logRatio := m.dist.LogProb([]float64{dx, dy, dz}) - m.peak
	if logRatio < minLogScore {
		logRatio = minLogScore
	}
	return math.Exp(logRatio)
}

// Update re-estimates the velocity distribution from one frame's
// scored-transform posterior. dt is the time between the frames that
// produced the posterior; it must be positive.
func (m *GaussianMotionModel) Update(scored *ScoredTransforms, dt float64) {
	if dt <= 0 || scored.Len() == 0 {
		return
	}

	probs := scored.Probabilities()
	transforms := scored.Transforms()

	var mean [3]float64
	for i, t := range transforms {
		mean[0] += probs[i] * t.X
		mean[1] += probs[i] * t.Y
		mean[2] += probs[i] * t.Z
	}

	var cov [6]float64 // xx, yy, zz, xy, xz, yz
	for i, t := range transforms {
		dx := t.X - mean[0]
		dy := t.Y - mean[1]
		dz := t.Z - mean[2]
		cov[0] += probs[i] * dx * dx
		cov[1] += probs[i] * dy * dy
		cov[2] += probs[i] * dz * dz
		cov[3] += probs[i] * dx * dy
		cov[4] += probs[i] * dx * dz
		cov[5] += probs[i] * dy * dz
	}

	invDt := 1.0 / dt
	invDt2 := invDt * invDt
	m.meanVel = [3]float64{mean[0] * invDt, mean[1] * invDt, mean[2] * invDt}

	m.covVel.SetSym(0, 0, cov[0]*invDt2+minVelocityVariance)
	m.covVel.SetSym(1, 1, cov[1]*invDt2+minVelocityVariance)
	m.covVel.SetSym(2, 2, cov[2]*invDt2+minVelocityVariance)
	m.covVel.SetSym(0, 1, cov[3]*invDt2)
	m.covVel.SetSym(0, 2, cov[4]*invDt2)
	m.covVel.SetSym(1, 2, cov[5]*invDt2)
	m.updated = true
}

// Predict propagates the velocity distribution across dt seconds and
// rebuilds the working translation prior for the next frame. Process noise
// is added in velocity space before scaling to translation space.
func (m *GaussianMotionModel) Predict(dt float64) {
	// Stay uniform until the first measurement arrives.
	if dt <= 0 || !m.updated {
		return
	}

	dt2 := dt * dt
	sigma := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			v := m.covVel.At(i, j) * dt2
			if i == j {
				v += m.ProcessNoiseVel * dt2
			}
			sigma.SetSym(i, j, v)
		}
	}

	mu := []float64{m.meanVel[0] * dt, m.meanVel[1] * dt, m.meanVel[2] * dt}
	dist, ok := distmv.NewNormal(mu, sigma, nil)
	if !ok {
		// Covariance not positive definite; keep the previous prior.
		return
	}
	m.dist = dist
	m.peak = dist.LogProb(mu)
}

// MeanVelocity returns the model's current velocity estimate in alignment
// space (m/s).
func (m *GaussianMotionModel) MeanVelocity() (vx, vy, vz float64) {
	return m.meanVel[0], m.meanVel[1], m.meanVel[2]
}

// FlatMotionModel scores every translation at 1: an uninformative prior.
// Useful for tests and for scoring a first frame pair in isolation.
type FlatMotionModel struct{}

// Score implements MotionModel.
func (FlatMotionModel) Score(dx, dy, dz float64) float64 { return 1 }

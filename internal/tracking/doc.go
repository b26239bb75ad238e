// Package tracking implements the measurement-scoring core of a real-time
// point-cloud object tracker.
//
// Given two consecutive scans of a rigid object, the package evaluates the
// relative likelihood of every candidate translation that could align the
// current scan with the previous one. The previous scan is discretised into
// a bounded 3D density grid with Gaussian spillover; each candidate is then
// scored by re-projecting the current scan through the grid and fusing the
// resulting log-likelihood with a motion-model prior.
//
// Key types: PointCloud, DensityGrid, DensityGridScorer, ScoredTransforms,
// MotionModel, Tracker.
//
// No SQL/database code is allowed in this package.
package tracking

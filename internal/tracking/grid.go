package tracking

import (
	"fmt"
	"math"
)

// DensityGrid is a bounded 3D field of log-density values built once per
// frame from the previous scan. Each cell holds the maximum plausible
// log-density contributed by any nearby previous-scan point; cells never
// touched by a point hold the background log-density, so no location scores
// zero probability.
//
// The backing array is allocated once at the configured maxima and reused
// across frames; only the logical used extent changes per build. A grid is
// owned by exactly one scorer and must not be shared across concurrent
// builds.
type DensityGrid struct {
	params TrackingParams

	// cells is the arena: a flat array with strides fixed at the grid
	// maxima so cell addresses stay stable across frames.
	cells []float64

	// background is log(SmoothingFactor), the reset value for every cell.
	background float64

	// Per-frame geometry, recomputed by Build.
	xSize, ySize, zSize int
	minPt               Point
	xyStep, zStep       float64

	// Per-frame measurement model, recomputed by Build.
	sigmaXY, sigmaZ float64
	spillXY, spillZ int
	discount        float64
	minDensity      float64
}

// NewDensityGrid allocates the grid arena at the maxima given in params.
// With the default maxima this is a multi-gigabyte allocation; size the
// maxima to the deployment.
func NewDensityGrid(params TrackingParams) (*DensityGrid, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracking params: %w", err)
	}

	g := &DensityGrid{
		params:     params,
		cells:      make([]float64, params.MaxGridX*params.MaxGridY*params.MaxGridZ),
		background: math.Log(params.SmoothingFactor),
	}
	for i := range g.cells {
		g.cells[i] = g.background
	}
	return g, nil
}

// Dims returns the used grid extent for the current frame.
func (g *DensityGrid) Dims() (x, y, z int) {
	return g.xSize, g.ySize, g.zSize
}

// MinPt returns the grid origin for the current frame.
func (g *DensityGrid) MinPt() Point { return g.minPt }

// Steps returns the per-axis cell sizes for the current frame.
func (g *DensityGrid) Steps() (xy, z float64) { return g.xyStep, g.zStep }

// DiscountFactor returns the per-frame measurement discount. It is 1 (times
// the base factor) while the previous scan's point count is below the
// independence ceiling and shrinks proportionally above it.
func (g *DensityGrid) DiscountFactor() float64 { return g.discount }

// Background returns the background log-density cells are reset to.
func (g *DensityGrid) Background() float64 { return g.background }

// At returns the log-density at cell (i, j, k). Indices must be within the
// used extent.
func (g *DensityGrid) At(i, j, k int) float64 {
	return g.cells[g.index(i, j, k)]
}

func (g *DensityGrid) index(i, j, k int) int {
	return (i*g.params.MaxGridY+j)*g.params.MaxGridZ + k
}

// Build derives the grid geometry and measurement model from the previous
// scan and repaints the used sub-region. It fails fast on an empty cloud or
// non-positive step sizes rather than producing degenerate geometry.
func (g *DensityGrid) Build(prev *PointCloud, req TrackRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if prev.Len() == 0 {
		return fmt.Errorf("density grid requires a non-empty previous scan")
	}

	g.computeSize(prev, req)
	g.paint(prev)
	return nil
}

// computeSize recomputes the grid origin, used extent, spillover sigmas and
// radii, and the discount factor, then resets the used sub-region to the
// background value.
func (g *DensityGrid) computeSize(prev *PointCloud, req TrackRequest) {
	p := g.params
	g.xyStep = req.XYStepSize
	g.zStep = req.ZStepSize

	// Downweight all points beyond the ceiling; they are not independent
	// measurements.
	if float64(prev.Len()) < p.MaxDiscountPoints {
		g.discount = p.MeasurementDiscountFactor
	} else {
		g.discount = p.MeasurementDiscountFactor * (p.MaxDiscountPoints / float64(prev.Len()))
	}

	bounds, _ := prev.Bounds()
	minPt, maxPt := bounds.Min, bounds.Max

	// Two grid steps of padding allow inexact matches; the outer cells are
	// kept empty to represent the free space around the tracked object.
	const epsilon = 0.0001
	minPt.X -= 2*g.xyStep + epsilon
	minPt.Y -= 2*g.xyStep + epsilon

	// With a z step that is large relative to the object's vertical
	// extent, centre the object within its grid cell.
	zExtent := maxPt.Z - minPt.Z
	zCentering := math.Abs(g.zStep-zExtent) / 2
	minPt.Z -= 2*g.zStep + zCentering

	maxPt.X += 2 * g.xyStep
	maxPt.Y += 2 * g.xyStep
	maxPt.Z += 2 * g.zStep

	g.minPt = minPt
	g.xSize = clampInt(int(math.Ceil((maxPt.X-minPt.X)/g.xyStep)), 1, p.MaxGridX)
	g.ySize = clampInt(int(math.Ceil((maxPt.Y-minPt.Y)/g.xyStep)), 1, p.MaxGridY)
	g.zSize = clampInt(int(math.Ceil((maxPt.Z-minPt.Z)/g.zStep)), 1, p.MaxGridZ)

	// Reset only the used sub-region; the rest of the arena is unreachable
	// this frame.
	for i := 0; i < g.xSize; i++ {
		for j := 0; j < g.ySize; j++ {
			row := g.index(i, j, 0)
			for k := 0; k < g.zSize; k++ {
				g.cells[row+k] = g.background
			}
		}
	}

	// Effective angular resolution at the object's range, after upstream
	// downsampling.
	horizontalRes := 2 * req.HorizontalDistance * math.Tan(p.HorizontalResolutionRad/2) / req.DownSampleFactor
	verticalRes := p.VerticalResolutionFactor * horizontalRes

	// Horizontal variance combines candidate sampling, sensor resolution,
	// and the range-independent noise floor (independent Gaussians).
	samplingErrXY := p.SamplingSigmaFactor * g.xyStep
	resolutionErrXY := horizontalRes * p.SensorSigmaFactor
	g.sigmaXY = math.Sqrt(samplingErrXY*samplingErrXY +
		resolutionErrXY*resolutionErrXY +
		p.MinMeasurementStdDev*p.MinMeasurementStdDev)

	// No sampling term vertically: candidates do not step in z.
	resolutionErrZ := verticalRes * p.SensorSigmaFactor
	g.sigmaZ = math.Sqrt(resolutionErrZ*resolutionErrZ +
		p.MinMeasurementStdDev*p.MinMeasurementStdDev)

	g.spillXY = int(math.Ceil(p.SpilloverRadiusSigmas*g.sigmaXY/g.xyStep - 1))
	if g.spillXY < 0 {
		g.spillXY = 0
	}
	// The painting loop requires spilling at least one cell vertically.
	g.spillZ = int(math.Ceil(p.SpilloverRadiusSigmas*g.sigmaZ/g.zStep - 1))
	if g.spillZ < 1 {
		g.spillZ = 1
	}

	g.minDensity = p.SmoothingFactor
}

// spilloverKernel precomputes log(gaussian + background) per integer cell
// offset (|Δi|, |Δj|, |Δk|) out to the spillover radii. Stored flat with
// strides (spillXY+1, spillZ+1).
func (g *DensityGrid) spilloverKernel() []float64 {
	// exp(-d² step² / 2σ²) expressed as exp(d² · factor) with d in cells.
	xyExpFactor := -(g.xyStep * g.xyStep) / (2 * g.sigmaXY * g.sigmaXY)
	zExpFactor := -(g.zStep * g.zStep) / (2 * g.sigmaZ * g.sigmaZ)

	nXY := g.spillXY + 1
	nZ := g.spillZ + 1
	kernel := make([]float64, nXY*nXY*nZ)
	for i := 0; i < nXY; i++ {
		for j := 0; j < nXY; j++ {
			logXY := float64(i*i+j*j) * xyExpFactor
			for k := 0; k < nZ; k++ {
				logZ := float64(k*k) * zExpFactor
				kernel[(i*nXY+j)*nZ+k] = math.Log(math.Exp(logXY+logZ) + g.minDensity)
			}
		}
	}
	return kernel
}

// paint spills each point's density into its interior grid neighbourhood,
// max-combining with whatever a previous point already contributed. Max
// rather than sum keeps near-duplicate points from over-counting while the
// strongest nearby match still dominates.
func (g *DensityGrid) paint(points *PointCloud) {
	xOffset := -g.minPt.X / g.xyStep
	yOffset := -g.minPt.Y / g.xyStep
	zOffset := -g.minPt.Z / g.zStep

	kernel := g.spilloverKernel()
	nXY := g.spillXY + 1
	nZ := g.spillZ + 1

	for _, pt := range points.Points {
		xIndex := int(math.Round(pt.X/g.xyStep + xOffset))
		yIndex := int(math.Round(pt.Y/g.xyStep + yOffset))
		zIndex := int(math.Round(pt.Z/g.zStep + zOffset))

		// When the used extent clamps at the grid maxima, part of the
		// scan falls outside the grid. A point whose cell is beyond
		// spillover reach of the interior contributes nothing; skipping
		// it also keeps every |Δ| within the kernel radius.
		if xIndex < 1-g.spillXY || xIndex > g.xSize-2+g.spillXY ||
			yIndex < 1-g.spillXY || yIndex > g.ySize-2+g.spillXY ||
			zIndex < 1-g.spillZ || zIndex > g.zSize-2+g.spillZ {
			continue
		}

		// Spillover targets clamp to the interior: the border shell
		// represents known empty space and never receives density.
		minX := clampInt(xIndex-g.spillXY, 1, g.xSize-2)
		maxX := clampInt(xIndex+g.spillXY, 1, g.xSize-2)
		minY := clampInt(yIndex-g.spillXY, 1, g.ySize-2)
		maxY := clampInt(yIndex+g.spillXY, 1, g.ySize-2)

		if g.spillZ > 1 {
			minZ := clampInt(zIndex-g.spillZ, 1, g.zSize-2)
			maxZ := clampInt(zIndex+g.spillZ, 1, g.zSize-2)

			for xs := minX; xs <= maxX; xs++ {
				xDiff := absInt(xIndex - xs)
				for ys := minY; ys <= maxY; ys++ {
					yDiff := absInt(yIndex - ys)
					row := (xDiff*nXY + yDiff) * nZ
					for zs := minZ; zs <= maxZ; zs++ {
						zDiff := absInt(zIndex - zs)
						cell := g.index(xs, ys, zs)
						if v := kernel[row+zDiff]; v > g.cells[cell] {
							g.cells[cell] = v
						}
					}
				}
			}
			continue
		}

		// Fast path for the common unit z-radius: the only z targets are
		// the point's own cell and its two vertical neighbours, so apply
		// the k=0 and k=1 kernel values directly instead of looping.
		// Behaviourally identical to the general path above.
		zSpill := clampInt(zIndex, 1, g.zSize-2)
		zUp := minInt(zSpill+1, g.zSize-2)
		zDown := maxInt(zSpill-1, 1)

		for xs := minX; xs <= maxX; xs++ {
			xDiff := absInt(xIndex - xs)
			for ys := minY; ys <= maxY; ys++ {
				yDiff := absInt(yIndex - ys)
				row := (xDiff*nXY + yDiff) * nZ

				if v := kernel[row]; v > g.cells[g.index(xs, ys, zSpill)] {
					g.cells[g.index(xs, ys, zSpill)] = v
				}
				up := kernel[row+1]
				if cell := g.index(xs, ys, zUp); up > g.cells[cell] {
					g.cells[cell] = up
				}
				if cell := g.index(xs, ys, zDown); up > g.cells[cell] {
					g.cells[cell] = up
				}
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

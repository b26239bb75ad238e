package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/CNchence/precision-tracking/internal/tracking"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// GridPlotter renders density grid slices as heatmap PNGs for visual
// inspection of a tracking run. Call Start before a run, SaveSlice once
// per frame of interest, and Stop when done.
type GridPlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string
	frameIdx  int
}

// NewGridPlotter creates a disabled plotter. It produces no output until
// Start is called.
func NewGridPlotter() *GridPlotter {
	return &GridPlotter{}
}

// Start initializes the plotter for a new run.
// outputDir should be a timestamped directory (e.g., "plots/20260829_101500").
func (gp *GridPlotter) Start(outputDir string) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	gp.outputDir = outputDir
	gp.enabled = true
	gp.frameIdx = 0
	return nil
}

// Stop disables the plotter. Files already written are left in place.
func (gp *GridPlotter) Stop() {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.enabled = false
}

// IsEnabled returns true if the plotter is currently recording.
func (gp *GridPlotter) IsEnabled() bool {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.enabled
}

// GetOutputDir returns the current output directory for plots.
func (gp *GridPlotter) GetOutputDir() string {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.outputDir
}

// SaveSlice renders the z-th layer of the grid as a heatmap PNG named
// after the frame counter. Calling it on a disabled plotter is a no-op.
func (gp *GridPlotter) SaveSlice(grid *tracking.DensityGrid, z int) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	if !gp.enabled || grid == nil {
		return nil
	}
	if gp.outputDir == "" {
		return fmt.Errorf("no output directory configured")
	}

	xDim, yDim, zDim := grid.Dims()
	if xDim == 0 || yDim == 0 {
		return fmt.Errorf("grid has no used extent")
	}
	if z < 0 || z >= zDim {
		return fmt.Errorf("slice %d out of range [0,%d)", z, zDim)
	}

	gp.frameIdx++
	file := filepath.Join(gp.outputDir, fmt.Sprintf("frame_%04d_z%02d.png", gp.frameIdx, z))
	return saveSlicePlot(grid, z, file)
}

func saveSlicePlot(grid *tracking.DensityGrid, z int, file string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Log Density (z slice %d)", z)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	hm := plotter.NewHeatMap(gridSlice{grid: grid, z: z}, moreland.SmoothBlueRed().Palette(255))
	p.Add(hm)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return fmt.Errorf("save grid slice plot: %w", err)
	}
	return nil
}

// gridSlice adapts one z layer of a density grid to the GridXYZ
// interface expected by plotter.NewHeatMap. Columns map to the grid x
// axis and rows to the y axis, with world coordinates at cell centres.
type gridSlice struct {
	grid *tracking.DensityGrid
	z    int
}

func (s gridSlice) Dims() (c, r int) {
	x, y, _ := s.grid.Dims()
	return x, y
}

func (s gridSlice) Z(c, r int) float64 {
	return s.grid.At(c, r, s.z)
}

func (s gridSlice) X(c int) float64 {
	xy, _ := s.grid.Steps()
	return s.grid.MinPt().X + float64(c)*xy
}

func (s gridSlice) Y(r int) float64 {
	xy, _ := s.grid.Steps()
	return s.grid.MinPt().Y + float64(r)*xy
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePlotOutputDir builds a timestamped subdirectory under baseDir for
// one run's plots.
func MakePlotOutputDir(baseDir string) string {
	return filepath.Join(baseDir, FormatTimestamp(time.Now()))
}

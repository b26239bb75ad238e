package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CNchence/precision-tracking/internal/tracking"
)

func buildTestGrid(t *testing.T) *tracking.DensityGrid {
	t.Helper()
	params := tracking.DefaultTrackingParams()
	params.MaxGridX = 60
	params.MaxGridY = 60
	params.MaxGridZ = 30

	grid, err := tracking.NewDensityGrid(params)
	if err != nil {
		t.Fatalf("NewDensityGrid: %v", err)
	}
	cloud := tracking.NewPointCloud([]tracking.Point{
		{X: 0, Y: 0, Z: 0},
		{X: 0.5, Y: 0.5, Z: 0},
		{X: 1, Y: 0, Z: 0},
	})
	req := tracking.TrackRequest{
		XYStepSize:         0.5,
		ZStepSize:          0.5,
		XRange:             tracking.Interval{Min: -1, Max: 1},
		YRange:             tracking.Interval{Min: -1, Max: 1},
		HorizontalDistance: 10,
		DownSampleFactor:   1,
	}
	if err := grid.Build(cloud, req); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return grid
}

func TestGridSliceAdapter(t *testing.T) {
	grid := buildTestGrid(t)
	s := gridSlice{grid: grid, z: 0}

	c, r := s.Dims()
	xDim, yDim, _ := grid.Dims()
	if c != xDim || r != yDim {
		t.Errorf("Dims = (%d,%d), want (%d,%d)", c, r, xDim, yDim)
	}

	xy, _ := grid.Steps()
	if got, want := s.X(1)-s.X(0), xy; got != want {
		t.Errorf("X spacing = %v, want %v", got, want)
	}
	if got, want := s.Y(0), grid.MinPt().Y; got != want {
		t.Errorf("Y(0) = %v, want grid min %v", got, want)
	}
	if got, want := s.Z(0, 0), grid.At(0, 0, 0); got != want {
		t.Errorf("Z(0,0) = %v, want %v", got, want)
	}
}

func TestGridPlotterLifecycle(t *testing.T) {
	gp := NewGridPlotter()
	if gp.IsEnabled() {
		t.Error("plotter enabled before Start")
	}

	// Disabled plotter ignores slices.
	if err := gp.SaveSlice(buildTestGrid(t), 0); err != nil {
		t.Fatalf("SaveSlice while disabled: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "plots")
	if err := gp.Start(dir); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !gp.IsEnabled() {
		t.Error("plotter not enabled after Start")
	}
	if got := gp.GetOutputDir(); got != dir {
		t.Errorf("GetOutputDir = %q, want %q", got, dir)
	}

	gp.Stop()
	if gp.IsEnabled() {
		t.Error("plotter still enabled after Stop")
	}
}

func TestSaveSliceWritesPNG(t *testing.T) {
	gp := NewGridPlotter()
	dir := t.TempDir()
	if err := gp.Start(dir); err != nil {
		t.Fatalf("Start: %v", err)
	}

	grid := buildTestGrid(t)
	if err := gp.SaveSlice(grid, 0); err != nil {
		t.Fatalf("SaveSlice: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d files, want 1", len(entries))
	}
	if got := entries[0].Name(); got != "frame_0001_z00.png" {
		t.Errorf("file name = %q, want frame_0001_z00.png", got)
	}

	_, _, zDim := grid.Dims()
	if err := gp.SaveSlice(grid, zDim); err == nil {
		t.Error("expected error for out-of-range slice")
	}
}

package tracking

import (
	"testing"
)

func unitStepRequest() TrackRequest {
	return TrackRequest{
		XYStepSize:         1.0,
		ZStepSize:          1.0,
		XRange:             Interval{Min: -1, Max: 1},
		YRange:             Interval{Min: -1, Max: 1},
		ZRange:             Interval{Min: 0, Max: 0},
		HorizontalDistance: 10.0,
		DownSampleFactor:   1.0,
	}
}

func TestCandidateTransforms_Lattice(t *testing.T) {
	transforms, err := CandidateTransforms(unitStepRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(transforms) != 9 {
		t.Fatalf("expected 3x3=9 candidates, got %d", len(transforms))
	}
	for i, tr := range transforms {
		if tr.Z != 0 {
			t.Errorf("candidate %d: expected z=0, got %v", i, tr.Z)
		}
		if tr.Volume != 1.0 {
			t.Errorf("candidate %d: expected volume=1.0, got %v", i, tr.Volume)
		}
	}

	// Inclusive bounds: both -1 and +1 must appear on each axis.
	sawCorner := false
	for _, tr := range transforms {
		if tr.X == 1 && tr.Y == 1 {
			sawCorner = true
		}
	}
	if !sawCorner {
		t.Error("expected inclusive lattice to contain (1, 1, 0)")
	}
}

func TestCandidateTransforms_EmptyRange(t *testing.T) {
	req := unitStepRequest()
	req.XRange = Interval{Min: 1, Max: -1}

	transforms, err := CandidateTransforms(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(transforms) != 0 {
		t.Errorf("expected empty candidate set for inverted range, got %d", len(transforms))
	}
}

func TestCandidateTransforms_SinglePointRange(t *testing.T) {
	req := unitStepRequest()
	req.XRange = Interval{Min: 0, Max: 0}
	req.YRange = Interval{Min: 0, Max: 0}

	transforms, err := CandidateTransforms(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(transforms) != 1 {
		t.Fatalf("expected single candidate, got %d", len(transforms))
	}
	if transforms[0].X != 0 || transforms[0].Y != 0 || transforms[0].Z != 0 {
		t.Errorf("expected identity candidate, got %+v", transforms[0])
	}
}

func TestCandidateTransforms_InvalidStep(t *testing.T) {
	req := unitStepRequest()
	req.XYStepSize = 0
	if _, err := CandidateTransforms(req); err == nil {
		t.Error("expected error for zero xy step size")
	}

	req = unitStepRequest()
	req.ZStepSize = -0.5
	if _, err := CandidateTransforms(req); err == nil {
		t.Error("expected error for negative z step size")
	}
}

func TestCandidateTransforms_ZSearch(t *testing.T) {
	req := unitStepRequest()
	req.SearchZ = true
	req.ZRange = Interval{Min: -1, Max: 1}

	transforms, err := CandidateTransforms(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(transforms) != 27 {
		t.Fatalf("expected 3x3x3=27 candidates with z search, got %d", len(transforms))
	}

	sawNonZeroZ := false
	for _, tr := range transforms {
		if tr.Z != 0 {
			sawNonZeroZ = true
			break
		}
	}
	if !sawNonZeroZ {
		t.Error("expected z search to emit non-zero z candidates")
	}
}

func TestCandidateTransforms_ZRangeCollapse(t *testing.T) {
	// A z step coarser than the z range collapses the range to {0} even
	// with z search enabled.
	req := unitStepRequest()
	req.SearchZ = true
	req.ZStepSize = 2.0
	req.ZRange = Interval{Min: -1, Max: 1}

	transforms, err := CandidateTransforms(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, tr := range transforms {
		if tr.Z != 0 {
			t.Errorf("candidate %d: expected collapsed z=0, got %v", i, tr.Z)
		}
	}
	if len(transforms) != 9 {
		t.Errorf("expected 9 candidates after z collapse, got %d", len(transforms))
	}
}

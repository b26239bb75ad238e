package monitor

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/CNchence/precision-tracking/internal/tracking"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// TrackReport accumulates per-frame velocity estimates for one track and
// renders them as a standalone HTML page of ECharts line charts.
type TrackReport struct {
	mu      sync.Mutex
	trackID string

	times     []time.Time
	estimates []tracking.VelocityEstimate
}

// NewTrackReport creates an empty report for the given track ID.
func NewTrackReport(trackID string) *TrackReport {
	return &TrackReport{trackID: trackID}
}

// Record appends one frame's estimate. Seed frames (Valid false) are
// skipped because they carry no velocity.
func (tr *TrackReport) Record(ts time.Time, est tracking.VelocityEstimate) {
	if !est.Valid {
		return
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.times = append(tr.times, ts)
	tr.estimates = append(tr.estimates, est)
}

// Len returns the number of recorded frames.
func (tr *TrackReport) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.estimates)
}

// WriteHTML renders the report to path. A report with no recorded
// frames still renders, with empty charts.
func (tr *TrackReport) WriteHTML(path string) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	labels := make([]string, len(tr.times))
	speed := make([]opts.LineData, len(tr.estimates))
	vx := make([]opts.LineData, len(tr.estimates))
	vy := make([]opts.LineData, len(tr.estimates))
	entropy := make([]opts.LineData, len(tr.estimates))
	for i, est := range tr.estimates {
		labels[i] = tr.times[i].Format("15:04:05.000")
		speed[i] = opts.LineData{Value: est.Speed()}
		vx[i] = opts.LineData{Value: est.VX}
		vy[i] = opts.LineData{Value: est.VY}
		entropy[i] = opts.LineData{Value: est.Entropy}
	}

	velocityChart := charts.NewLine()
	velocityChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Track Report", Width: "1200px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Velocity", Subtitle: fmt.Sprintf("track=%s frames=%d", tr.trackID, len(tr.estimates))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "m/s"}),
	)
	velocityChart.SetXAxis(labels).
		AddSeries("speed", speed).
		AddSeries("vx", vx).
		AddSeries("vy", vy)

	entropyChart := charts.NewLine()
	entropyChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Posterior Entropy", Subtitle: "lower is more confident"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "nats"}),
	)
	entropyChart.SetXAxis(labels).
		AddSeries("entropy", entropy)

	page := components.NewPage()
	page.AddCharts(velocityChart, entropyChart)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

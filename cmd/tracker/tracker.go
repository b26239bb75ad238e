// Command tracker replays a directory of point cloud scans through the
// density grid tracker, persists per-frame velocity estimates to sqlite,
// and optionally emits grid heatmaps and an HTML report.
//
// Scans are CSV files (x,y,z[,intensity] per line), one file per frame,
// replayed in filename order at a fixed frame interval.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/CNchence/precision-tracking/internal/config"
	"github.com/CNchence/precision-tracking/internal/monitor"
	"github.com/CNchence/precision-tracking/internal/storage/sqlite"
	"github.com/CNchence/precision-tracking/internal/tracking"
)

var (
	scanDir       = flag.String("scans", "", "Directory of CSV scan files, one per frame (required)")
	dbFile        = flag.String("db", "tracker_data.db", "Path to the SQLite database file")
	tuningFile    = flag.String("config", "", "Optional tuning config JSON file")
	sensorID      = flag.String("sensor", "default", "Sensor ID recorded with the track")
	frameInterval = flag.Duration("frame-interval", 100*time.Millisecond, "Time between consecutive scan files")
	plotDir       = flag.String("plot-dir", "", "If set, write density grid heatmaps under this directory")
	reportFile    = flag.String("report", "", "If set, write an HTML velocity report to this path")
)

func main() {
	flag.Parse()

	if *scanDir == "" {
		flag.Usage()
		log.Fatal("missing required -scans directory")
	}

	if err := run(); err != nil {
		log.Fatalf("tracker: %v", err)
	}
}

func run() error {
	params := tracking.DefaultTrackingParams()
	trackerConfig := tracking.DefaultTrackerConfig()
	if *tuningFile != "" {
		tuning, err := config.LoadTuningConfig(*tuningFile)
		if err != nil {
			return fmt.Errorf("load tuning config: %w", err)
		}
		tuning.ApplyToParams(&params)
		tuning.ApplyToTracker(&trackerConfig)
		log.Printf("applied tuning config from %s", *tuningFile)
	}

	frames, err := listScanFiles(*scanDir)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no .csv scan files in %s", *scanDir)
	}
	log.Printf("replaying %d scans from %s", len(frames), *scanDir)

	store, err := sqlite.Open(*dbFile)
	if err != nil {
		return err
	}
	defer store.Close()

	tracker, err := tracking.NewTracker(params, trackerConfig)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := store.CreateTrack(sqlite.TrackRecord{
		TrackID:          tracker.ID,
		SensorID:         *sensorID,
		CreatedUnixNanos: start.UnixNano(),
	}); err != nil {
		return err
	}
	log.Printf("created track %s", tracker.ID)

	plotter := monitor.NewGridPlotter()
	if *plotDir != "" {
		if err := plotter.Start(monitor.MakePlotOutputDir(*plotDir)); err != nil {
			return err
		}
		defer plotter.Stop()
		log.Printf("writing grid heatmaps to %s", plotter.GetOutputDir())
	}
	report := monitor.NewTrackReport(tracker.ID)

	for i, file := range frames {
		cloud, err := readScanCSV(file)
		if err != nil {
			return fmt.Errorf("scan %s: %w", file, err)
		}

		ts := start.Add(time.Duration(i) * *frameInterval)
		est, err := tracker.Update(cloud, ts)
		if err != nil {
			return fmt.Errorf("scan %s: %w", file, err)
		}

		if !est.Valid {
			log.Printf("frame %d: %d points (seed)", i, cloud.Len())
			continue
		}

		log.Printf("frame %d: %d points, speed=%.2f m/s heading=%.1f° entropy=%.3f",
			i, cloud.Len(), est.Speed(), est.Heading()*180/math.Pi, est.Entropy)

		if err := store.InsertEstimate(sqlite.EstimateRecord{
			TrackID:     tracker.ID,
			TsUnixNanos: ts.UnixNano(),
			VX:          est.VX,
			VY:          est.VY,
			VZ:          est.VZ,
			SpeedMps:    est.Speed(),
			HeadingRad:  est.Heading(),
			AlignmentX:  est.AlignmentX,
			AlignmentY:  est.AlignmentY,
			AlignmentZ:  est.AlignmentZ,
			BestLogProb: est.Best.LogProb,
			Entropy:     est.Entropy,
			Candidates:  est.Candidates,
			PointCount:  cloud.Len(),
		}); err != nil {
			return err
		}
		report.Record(ts, est)

		if plotter.IsEnabled() {
			_, _, zDim := tracker.Grid().Dims()
			if err := plotter.SaveSlice(tracker.Grid(), zDim/2); err != nil {
				log.Printf("frame %d: heatmap failed: %v", i, err)
			}
		}
	}

	if *reportFile != "" {
		if err := report.WriteHTML(*reportFile); err != nil {
			return err
		}
		log.Printf("wrote report to %s", *reportFile)
	}

	return nil
}

// listScanFiles returns the .csv files in dir sorted by name.
func listScanFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scan directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// readScanCSV parses one scan file: one point per record, columns
// x,y,z and an optional fourth intensity column (0-255). A header line
// is skipped if the first field does not parse as a number.
func readScanCSV(path string) (*tracking.PointCloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var points []tracking.Point
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if len(rec) < 3 {
			return nil, fmt.Errorf("line %d: want at least 3 columns, got %d", line, len(rec))
		}

		x, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			if line == 1 {
				// Header row
				continue
			}
			return nil, fmt.Errorf("line %d: bad x value %q", line, rec[0])
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad y value %q", line, rec[1])
		}
		z, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad z value %q", line, rec[2])
		}

		p := tracking.Point{X: x, Y: y, Z: z}
		if len(rec) >= 4 {
			v, err := strconv.ParseUint(strings.TrimSpace(rec[3]), 10, 8)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad intensity value %q", line, rec[3])
			}
			p.Intensity = uint8(v)
		}
		points = append(points, p)
	}

	return tracking.NewPointCloud(points), nil
}

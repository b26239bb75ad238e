// Package monitor produces offline diagnostics for tracking runs: PNG
// heatmaps of density grid slices and an HTML report of per-track
// velocity and confidence over time.
//
// Responsibilities:
// - Render z-slices of the log-density grid as heatmap images
// - Accumulate per-frame velocity estimates and render an HTML report
//
// No SQL/database code is allowed in this package.
package monitor

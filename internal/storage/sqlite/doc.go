// Package sqlite contains the SQLite repository for tracker output.
//
// All database read/write operations for tracks and per-frame velocity
// estimates belong here rather than in the tracking package. This keeps the
// scoring core free of SQL noise and makes it easy to swap storage backends
// for testing.
package sqlite

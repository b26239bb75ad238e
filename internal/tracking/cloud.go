package tracking

import (
	"math"
)

// PointCloud is one frame's scan: an ordered, finite collection of points.
// The zero value is an empty cloud.
type PointCloud struct {
	Points []Point
}

// NewPointCloud wraps a point slice without copying it.
func NewPointCloud(points []Point) *PointCloud {
	return &PointCloud{Points: points}
}

// Len returns the number of points in the cloud.
func (c *PointCloud) Len() int {
	return len(c.Points)
}

// At returns the point at index i.
func (c *PointCloud) At(i int) Point {
	return c.Points[i]
}

// Bounds returns the axis-aligned bounding box of the cloud.
// ok is false for an empty cloud.
func (c *PointCloud) Bounds() (bounds BoundingBox, ok bool) {
	if len(c.Points) == 0 {
		return BoundingBox{}, false
	}

	bounds.Min = c.Points[0]
	bounds.Max = c.Points[0]
	for _, p := range c.Points[1:] {
		bounds.Min.X = math.Min(bounds.Min.X, p.X)
		bounds.Min.Y = math.Min(bounds.Min.Y, p.Y)
		bounds.Min.Z = math.Min(bounds.Min.Z, p.Z)
		bounds.Max.X = math.Max(bounds.Max.X, p.X)
		bounds.Max.Y = math.Max(bounds.Max.Y, p.Y)
		bounds.Max.Z = math.Max(bounds.Max.Z, p.Z)
	}
	return bounds, true
}

// Centroid returns the mean position of the cloud. ok is false for an empty
// cloud.
func (c *PointCloud) Centroid() (centroid Point, ok bool) {
	n := len(c.Points)
	if n == 0 {
		return Point{}, false
	}

	var sx, sy, sz float64
	for _, p := range c.Points {
		sx += p.X
		sy += p.Y
		sz += p.Z
	}
	inv := 1.0 / float64(n)
	return Point{X: sx * inv, Y: sy * inv, Z: sz * inv}, true
}

// HorizontalDistance returns the horizontal (xy-plane) distance from the
// sensor origin to the cloud centroid. The sensor resolution model scales
// with this distance. Returns 0 for an empty cloud.
func (c *PointCloud) HorizontalDistance() float64 {
	centroid, ok := c.Centroid()
	if !ok {
		return 0
	}
	return math.Hypot(centroid.X, centroid.Y)
}

// VoxelDownSample reduces the cloud to at most one point per cubic voxel of
// the given edge length, keeping the first point encountered in each voxel.
// Ordering of the surviving points follows the input ordering, so the result
// is deterministic. A non-positive leaf size returns the cloud unchanged.
func (c *PointCloud) VoxelDownSample(leafSize float64) *PointCloud {
	if leafSize <= 0 || len(c.Points) == 0 {
		return c
	}

	type voxelKey struct{ i, j, k int32 }
	seen := make(map[voxelKey]struct{}, len(c.Points))
	out := make([]Point, 0, len(c.Points))

	inv := 1.0 / leafSize
	for _, p := range c.Points {
		key := voxelKey{
			i: int32(math.Floor(p.X * inv)),
			j: int32(math.Floor(p.Y * inv)),
			k: int32(math.Floor(p.Z * inv)),
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return &PointCloud{Points: out}
}

// DownSampleFactor returns the ratio of this cloud's size to the size of a
// downsampled cloud derived from it. The sensor's effective angular
// resolution is divided by this factor. Returns 1 when either cloud is
// empty.
func (c *PointCloud) DownSampleFactor(sampled *PointCloud) float64 {
	if c.Len() == 0 || sampled.Len() == 0 {
		return 1
	}
	factor := float64(sampled.Len()) / float64(c.Len())
	if factor <= 0 {
		return 1
	}
	return factor
}

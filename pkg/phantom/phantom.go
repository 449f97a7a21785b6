// Package phantom implements the planning interfaces analytically. Shapes
// are closed-form solids, images and doses are fields evaluated at voxel
// centers. It stands in for a real planning system in tests and in the
// command line tool.
package phantom

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/spatial/r3"

	"gridmask/pkg/grid"
)

// Shape is a solid that can be point-tested.
type Shape interface {
	Contains(p r3.Vec) bool
}

// Sphere is a closed ball.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// Contains implements Shape.
func (s Sphere) Contains(p r3.Vec) bool {
	return r3.Norm2(r3.Sub(p, s.Center)) <= s.Radius*s.Radius
}

// Box is a closed axis-aligned box.
type Box struct {
	Min r3.Vec
	Max r3.Vec
}

// Contains implements Shape.
func (b Box) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// HalfSpace contains every point p with Dot(p - Point, Normal) <= 0.
type HalfSpace struct {
	Point  r3.Vec
	Normal r3.Vec
}

// Contains implements Shape.
func (h HalfSpace) Contains(p r3.Vec) bool {
	return r3.Dot(r3.Sub(p, h.Point), h.Normal) <= 0
}

// Empty contains nothing.
type Empty struct{}

// Contains implements Shape.
func (Empty) Contains(r3.Vec) bool { return false }

// samplePoint returns point i of n evenly spaced points from start to stop.
func samplePoint(start, stop r3.Vec, i, n int) r3.Vec {
	if n < 2 {
		return start
	}
	t := float64(i) / float64(n-1)
	return r3.Add(start, r3.Scale(t, r3.Sub(stop, start)))
}

// Structure is a planning.Structure backed by a Shape.
type Structure struct {
	Name  string
	Shape Shape
	// NoSegment makes HasSegment report false.
	NoSegment bool
	// Fault, when set, is returned by every query.
	Fault error

	// ProfileCalls counts GetSegmentProfile invocations.
	ProfileCalls atomic.Int64
}

// ID implements planning.Structure.
func (s *Structure) ID() string { return s.Name }

// HasSegment implements planning.Structure.
func (s *Structure) HasSegment() bool { return !s.NoSegment }

// GetSegmentProfile implements planning.Structure.
func (s *Structure) GetSegmentProfile(start, stop r3.Vec, buf *bitset.BitSet) error {
	s.ProfileCalls.Add(1)
	if s.Fault != nil {
		return s.Fault
	}
	n := int(buf.Len())
	for i := 0; i < n; i++ {
		buf.SetTo(uint(i), s.Shape.Contains(samplePoint(start, stop, i, n)))
	}
	return nil
}

// IsPointInsideSegment implements planning.Structure.
func (s *Structure) IsPointInsideSegment(p r3.Vec) (bool, error) {
	if s.Fault != nil {
		return false, s.Fault
	}
	return s.Shape.Contains(p), nil
}

// Image is a planning.Image whose raw values come from a field.
type Image struct {
	Grid  grid.Grid
	Field func(p r3.Vec) int32
}

// Geometry implements planning.Image.
func (im *Image) Geometry() grid.Grid { return im.Grid }

// GetVoxels implements planning.Image.
func (im *Image) GetVoxels(z int, buf []int32) error {
	g := im.Grid
	if len(buf) != g.XSize*g.YSize {
		return fmt.Errorf("phantom: plane buffer has %d values, want %d", len(buf), g.XSize*g.YSize)
	}
	if z < 0 || z >= g.ZSize {
		return fmt.Errorf("phantom: plane %d out of range", z)
	}
	for x := 0; x < g.XSize; x++ {
		for y := 0; y < g.YSize; y++ {
			buf[x*g.YSize+y] = im.Field(g.VoxelCenter(x, y, z))
		}
	}
	return nil
}

// Gradient returns a field increasing by one per millimetre along dir.
func Gradient(origin, dir r3.Vec) func(r3.Vec) int32 {
	return func(p r3.Vec) int32 {
		return int32(math.Round(r3.Dot(r3.Sub(p, origin), dir)))
	}
}

// Dose is a planning.Dose. Physical dose comes from Field; stored raw values
// are (dose - Base) / Step rounded to the nearest integer.
type Dose struct {
	Grid  grid.Grid
	Field func(p r3.Vec) float64
	// Base is the dose of raw value 0, Step the dose increment per raw unit.
	Base float64
	Step float64
	// Calculated bounds the calculated volume. Profile samples outside it
	// are NaN. A nil Calculated means the dose grid's bounding box.
	Calculated Shape
}

// Geometry implements planning.Image.
func (d *Dose) Geometry() grid.Grid { return d.Grid }

func (d *Dose) at(p r3.Vec) float64 {
	var calculated Shape = d.Grid
	if d.Calculated != nil {
		calculated = d.Calculated
	}
	if !calculated.Contains(p) {
		return math.NaN()
	}
	return d.Field(p)
}

// GetVoxels implements planning.Image.
func (d *Dose) GetVoxels(z int, buf []int32) error {
	g := d.Grid
	if len(buf) != g.XSize*g.YSize {
		return fmt.Errorf("phantom: plane buffer has %d values, want %d", len(buf), g.XSize*g.YSize)
	}
	if d.Step == 0 {
		return fmt.Errorf("phantom: zero dose step")
	}
	for x := 0; x < g.XSize; x++ {
		for y := 0; y < g.YSize; y++ {
			v := d.at(g.VoxelCenter(x, y, z))
			if math.IsNaN(v) {
				v = d.Base
			}
			buf[x*g.YSize+y] = int32(math.Round((v - d.Base) / d.Step))
		}
	}
	return nil
}

// VoxelToDoseValue implements planning.DoseValues.
func (d *Dose) VoxelToDoseValue(raw int32) (float64, error) {
	return d.Base + d.Step*float64(raw), nil
}

// GetDoseProfile implements planning.Dose.
func (d *Dose) GetDoseProfile(start, stop r3.Vec, buf []float64) error {
	for i := range buf {
		buf[i] = d.at(samplePoint(start, stop, i, len(buf)))
	}
	return nil
}

// RadialDose returns a field falling off linearly from peak at center to zero
// at radius.
func RadialDose(center r3.Vec, peak, radius float64) func(r3.Vec) float64 {
	return func(p r3.Vec) float64 {
		r := r3.Norm(r3.Sub(p, center))
		if r >= radius {
			return 0
		}
		return peak * (1 - r/radius)
	}
}

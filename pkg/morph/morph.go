// Package morph implements binary morphology on boolean volumes with the
// 6-connected structuring element (a voxel and its face neighbours).
// Voxels outside the array count as unset for both dilation and erosion, so
// erosion clears every set voxel on the array faces.
package morph

import (
	"github.com/RoaringBitmap/roaring/v2"

	"gridmask/pkg/volume"
)

var faceNeighbours = [6][3]int{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

// Dilate grows the set voxels of a by one face neighbour per iteration.
func Dilate(a *volume.Array[bool], iterations int) *volume.Array[bool] {
	out := a.Clone()
	for it := 0; it < iterations; it++ {
		out = step(out, true)
	}
	return out
}

// Erode shrinks the set voxels of a by one face neighbour per iteration.
func Erode(a *volume.Array[bool], iterations int) *volume.Array[bool] {
	out := a.Clone()
	for it := 0; it < iterations; it++ {
		out = step(out, false)
	}
	return out
}

// step applies one dilation (grow) or erosion pass.
func step(a *volume.Array[bool], grow bool) *volume.Array[bool] {
	out := volume.New[bool](a.XSize, a.YSize, a.ZSize)
	for i, v := range a.Data {
		x, y, z := a.Coords(i)
		if grow {
			hit := v
			for _, d := range faceNeighbours {
				if hit {
					break
				}
				nx, ny, nz := x+d[0], y+d[1], z+d[2]
				hit = a.InBounds(nx, ny, nz) && a.At(nx, ny, nz)
			}
			out.Data[i] = hit
			continue
		}
		keep := v
		for _, d := range faceNeighbours {
			if !keep {
				break
			}
			nx, ny, nz := x+d[0], y+d[1], z+d[2]
			keep = a.InBounds(nx, ny, nz) && a.At(nx, ny, nz)
		}
		out.Data[i] = keep
	}
	return out
}

// Xor returns a ^ b voxelwise. The arrays must have the same shape.
func Xor(a, b *volume.Array[bool]) *volume.Array[bool] {
	if !volume.SameShape(a, b) {
		panic("morph: xor of arrays with different shapes")
	}
	out := volume.New[bool](a.XSize, a.YSize, a.ZSize)
	for i := range a.Data {
		out.Data[i] = a.Data[i] != b.Data[i]
	}
	return out
}

// Indices returns the flat indices of the set voxels of a.
func Indices(a *volume.Array[bool]) *roaring.Bitmap {
	bm := roaring.New()
	for i, v := range a.Data {
		if v {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// Boundary returns the dilated and eroded masks together with the flat
// indices of Dilate(mask, 1) ^ Erode(mask, 1): the voxels whose occupancy is
// ambiguous at voxel resolution.
func Boundary(mask *volume.Array[bool]) (dilated, eroded *volume.Array[bool], boundary *roaring.Bitmap) {
	dilated = Dilate(mask, 1)
	eroded = Erode(mask, 1)
	return dilated, eroded, Indices(Xor(dilated, eroded))
}

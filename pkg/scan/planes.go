package scan

import (
	"context"

	"gridmask/pkg/marshal"
	"gridmask/pkg/planning"
	"gridmask/pkg/volume"
)

// Planes reads the raw intensities of img one depth plane at a time. Each
// plane is fetched into a reusable row-major [x][y] buffer, marshaled and
// written to [:, :, z].
func Planes(img planning.Image, opts ...Option) (*volume.Array[int32], error) {
	o := Apply(opts...)
	g := img.Geometry()
	if err := g.Validate(); err != nil {
		return nil, err
	}

	out := volume.New[int32](g.XSize, g.YSize, g.ZSize)
	buf := make([]int32, g.XSize*g.YSize)
	for z := 0; z < g.ZSize; z++ {
		if err := img.GetVoxels(z, buf); err != nil {
			return nil, err
		}
		plane, err := marshal.Marshal[int32](marshal.Slice(buf), marshal.WithVerify(o.Verify))
		if err != nil {
			return nil, err
		}
		if err := out.SetPlane(z, plane, volume.RowMajor); err != nil {
			return nil, err
		}
	}
	o.Logger.DebugContext(context.Background(), "image planes read", "planes", g.ZSize)
	return out, nil
}

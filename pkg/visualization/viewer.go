package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gridmask/pkg/volume"
)

// Window maps the value range [Low, High] onto the full gray scale.
type Window struct {
	Low  float64
	High float64
}

// Viewer renders axis slices of a float volume such as a dose grid or a
// partial-volume mask.
type Viewer struct {
	// vol holds the data indexed [x, y, z]
	vol *volume.Array[float64]

	window Window
}

// NewViewer creates a viewer windowed to the finite range of vol.
func NewViewer(vol *volume.Array[float64]) *Viewer {
	return &Viewer{vol: vol, window: finiteRange(vol.Data)}
}

// NewWindowedViewer creates a viewer with an explicit window.
func NewWindowedViewer(vol *volume.Array[float64], w Window) *Viewer {
	return &Viewer{vol: vol, window: w}
}

// Window returns the current window.
func (v *Viewer) Window() Window { return v.window }

func finiteRange(data []float64) Window {
	w := Window{Low: math.Inf(1), High: math.Inf(-1)}
	for _, d := range data {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		w.Low = math.Min(w.Low, d)
		w.High = math.Max(w.High, d)
	}
	if w.Low > w.High {
		return Window{Low: 0, High: 1}
	}
	return w
}

func (v *Viewer) gray(d float64) color.Gray16 {
	if math.IsNaN(d) {
		return color.Gray16{}
	}
	span := v.window.High - v.window.Low
	if span <= 0 {
		if d >= v.window.High {
			return color.Gray16{Y: 65535}
		}
		return color.Gray16{}
	}
	t := (d - v.window.Low) / span
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, math.Round(t*65535))))}
}

// ExtractSlice extracts a 2D slice from the volume along the given axis.
// Slices along x are laid out (z, y), along y (x, z) and along z (x, y).
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	a := v.vol

	var img *image.Gray16
	switch axis {
	case "x", "X":
		if position >= a.XSize {
			return nil, fmt.Errorf("position %d exceeds x size %d", position, a.XSize)
		}
		img = image.NewGray16(image.Rect(0, 0, a.ZSize, a.YSize))
		for y := 0; y < a.YSize; y++ {
			for z := 0; z < a.ZSize; z++ {
				img.SetGray16(z, y, v.gray(a.At(position, y, z)))
			}
		}

	case "y", "Y":
		if position >= a.YSize {
			return nil, fmt.Errorf("position %d exceeds y size %d", position, a.YSize)
		}
		img = image.NewGray16(image.Rect(0, 0, a.XSize, a.ZSize))
		for z := 0; z < a.ZSize; z++ {
			for x := 0; x < a.XSize; x++ {
				img.SetGray16(x, z, v.gray(a.At(x, position, z)))
			}
		}

	case "z", "Z":
		if position >= a.ZSize {
			return nil, fmt.Errorf("position %d exceeds z size %d", position, a.ZSize)
		}
		img = image.NewGray16(image.Rect(0, 0, a.XSize, a.YSize))
		for y := 0; y < a.YSize; y++ {
			for x := 0; x < a.XSize; x++ {
				img.SetGray16(x, y, v.gray(a.At(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// ExtractRegion copies a box of the volume into a new array.
func (v *Viewer) ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ int) (*volume.Array[float64], error) {
	if startX < 0 || startY < 0 || startZ < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}
	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}
	a := v.vol
	if startX+sizeX > a.XSize || startY+sizeY > a.YSize || startZ+sizeZ > a.ZSize {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := volume.New[float64](sizeX, sizeY, sizeZ)
	for x := 0; x < sizeX; x++ {
		for y := 0; y < sizeY; y++ {
			copy(region.Column(x, y), a.Column(startX+x, startY+y)[startZ:startZ+sizeZ])
		}
	}
	return region, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along the given axis.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.vol.XSize
	case "y", "Y":
		maxPos = v.vol.YSize
	case "z", "Z":
		maxPos = v.vol.ZSize
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// Package bake converts floor-plan images into obstacle grids.
//
// The image is converted to grayscale, resized with a Lanczos filter to the
// grid size implied by the physical floor dimensions and the resolution, and
// thresholded: pixels darker than the threshold become obstacles.
package bake

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/grid"
)

// DefaultThreshold is the gray level below which a pixel is an obstacle.
const DefaultThreshold = 128

// Options configures a bake.
type Options struct {
	WidthM      float64 // physical floor width in meters
	HeightM     float64 // physical floor height in meters
	ResolutionM float64 // meters per cell
	Threshold   uint8   // pixels with gray < Threshold are obstacles; 0 means DefaultThreshold
}

func (o Options) validate() error {
	if err := errors.ValidatePositive("floor width", o.WidthM); err != nil {
		return err
	}
	if err := errors.ValidatePositive("floor height", o.HeightM); err != nil {
		return err
	}
	return errors.ValidatePositive("resolution", o.ResolutionM)
}

// GridSize returns the target grid size. Partial cells are truncated.
func (o Options) GridSize() (int, int) {
	return int(o.WidthM/o.ResolutionM + 1e-9), int(o.HeightM/o.ResolutionM + 1e-9)
}

// Image bakes an already decoded image.
func Image(img image.Image, opts Options) (*grid.Grid, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	w, h := opts.GridSize()
	if w == 0 || h == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "floor %gx%g m is smaller than one %g m cell", opts.WidthM, opts.HeightM, opts.ResolutionM)
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	gray := imaging.Grayscale(img)
	resized := imaging.Resize(gray, w, h, imaging.Lanczos)

	g := grid.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if resized.Pix[y*resized.Stride+x*4] < threshold {
				g.Set(x, y, false)
			}
		}
	}
	return g, nil
}

// Decode reads an image (PNG, JPEG, GIF, BMP, TIFF) from r and bakes it.
func Decode(r io.Reader, opts Options) (*grid.Grid, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode image")
	}
	return Image(img, opts)
}

// File bakes the image at path.
func File(path string, opts Options) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s not found", path)
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return Decode(f, opts)
}

// ParseDimensions parses a "WIDTHxHEIGHT" string in meters, such as "30x20".
func ParseDimensions(s string) (width, height float64, err error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid dimensions %q (expected WIDTHxHEIGHT, e.g. 30x20)", s)
	}
	width, err1 := strconv.ParseFloat(parts[0], 64)
	height, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid dimensions %q (expected WIDTHxHEIGHT, e.g. 30x20)", s)
	}
	return width, height, nil
}

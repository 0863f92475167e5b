package grid

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

// WriteCSV writes one CSV record per row, "1" for walkable and "0" for obstacle.
func WriteCSV(g *Grid, w io.Writer) error {
	cw := csv.NewWriter(w)
	record := make([]string, g.width)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.At(x, y) {
				record[x] = "1"
			} else {
				record[x] = "0"
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", y, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Image returns g as a grayscale image, white for walkable and black for obstacle.
func Image(g *Grid) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.At(x, y) {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// WritePNG encodes g as a PNG image.
func WritePNG(g *Grid, w io.Writer) error {
	if g.Size() == 0 {
		return fmt.Errorf("cannot encode empty grid as png")
	}
	return imaging.Encode(w, Image(g), imaging.PNG)
}

// Format names accepted by Export.
const (
	FormatText = "txt"
	FormatCSV  = "csv"
	FormatPNG  = "png"
)

// Export writes g in the named format.
func Export(g *Grid, format string, w io.Writer) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return Write(g, w)
	case FormatCSV:
		return WriteCSV(g, w)
	case FormatPNG:
		return WritePNG(g, w)
	}
	return fmt.Errorf("unsupported grid format %q (must be txt, csv, or png)", format)
}

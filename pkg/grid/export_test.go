package grid

import (
	"bytes"
	"testing"

	"github.com/disintegration/imaging"
)

func TestWriteCSV(t *testing.T) {
	g := New(3, 2)
	g.Set(2, 0, false)

	var buf bytes.Buffer
	if err := WriteCSV(g, &buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got, want := buf.String(), "1,1,0\n1,1,1\n"; got != want {
		t.Errorf("WriteCSV() = %q, want %q", got, want)
	}
}

func TestWritePNG(t *testing.T) {
	g := New(4, 3)
	g.Set(1, 2, false)

	var buf bytes.Buffer
	if err := WritePNG(g, &buf); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	img, err := imaging.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("bounds = %v, want 4x3", b)
	}
	if r, _, _, _ := img.At(1, 2).RGBA(); r != 0 {
		t.Errorf("obstacle pixel should be black, got r=%d", r)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0xffff {
		t.Errorf("walkable pixel should be white, got r=%d", r)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	if err := Export(New(1, 1), "bmp", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

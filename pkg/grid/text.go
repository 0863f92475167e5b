package grid

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/fleetmap/pkg/errors"
)

// Text format characters.
const (
	CharWalkable = '.'
	CharObstacle = '#'
)

func cellChar(walkable bool) byte {
	if walkable {
		return CharWalkable
	}
	return CharObstacle
}

// parseCell maps a body character to a cell value. Besides '.' and '#' the
// legacy spellings '0' and ' ' (walkable) and 'X' (obstacle) are accepted.
func parseCell(c byte) (bool, bool) {
	switch c {
	case CharWalkable, '0', ' ':
		return true, true
	case CharObstacle, 'X':
		return false, true
	}
	return false, false
}

// Write encodes g in the text format:
//
//	line 1:            "{width} {height}"
//	lines 2..height+1: exactly width characters, '.' walkable, '#' obstacle
//
// Rows are written top to bottom in increasing y.
func Write(g *Grid, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", g.width, g.height); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]byte, g.width+1)
	row[g.width] = '\n'
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			row[x] = cellChar(g.cells[y*g.width+x])
		}
		if _, err := bw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", y, err)
		}
	}
	return bw.Flush()
}

// Read decodes a grid in the text format. Any deviation from the format
// (bad header, wrong row count or width, unknown character) is reported
// as an INVALID_GRID error.
func Read(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "read header")
		}
		return nil, errors.New(errors.ErrCodeInvalidGrid, "empty grid file")
	}
	width, height, err := parseHeader(sc.Text())
	if err != nil {
		return nil, err
	}

	g := New(width, height)
	y := 0
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if y >= height {
			if strings.TrimSpace(line) == "" {
				continue
			}
			return nil, errors.New(errors.ErrCodeInvalidGrid, "more than %d rows", height)
		}
		if len(line) != width {
			return nil, errors.New(errors.ErrCodeInvalidGrid, "row %d has %d cells, want %d", y, len(line), width)
		}
		for x := 0; x < width; x++ {
			v, ok := parseCell(line[x])
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidGrid, "row %d col %d: unexpected character %q", y, x, line[x])
			}
			g.cells[y*width+x] = v
		}
		y++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "read rows")
	}
	if y != height {
		return nil, errors.New(errors.ErrCodeInvalidGrid, "got %d rows, want %d", y, height)
	}
	return g, nil
}

func parseHeader(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, errors.New(errors.ErrCodeInvalidGrid, "header must be \"width height\", got %q", line)
	}
	w, err := strconv.Atoi(fields[0])
	if err != nil || w < 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidGrid, "invalid width %q", fields[0])
	}
	h, err := strconv.Atoi(fields[1])
	if err != nil || h < 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidGrid, "invalid height %q", fields[1])
	}
	return w, h, nil
}

// Marshal returns the text encoding of g.
func Marshal(g *Grid) []byte {
	var buf bytes.Buffer
	_ = Write(g, &buf)
	return buf.Bytes()
}

// Unmarshal decodes a text-encoded grid.
func Unmarshal(data []byte) (*Grid, error) {
	return Read(bytes.NewReader(data))
}

// ReadFile loads a text grid from path. A missing file is FILE_NOT_FOUND;
// a present but unparseable file is INVALID_GRID.
func ReadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "grid file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// WriteFile saves g to path in the text format.
func WriteFile(g *Grid, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

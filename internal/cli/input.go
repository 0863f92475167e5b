package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/grid"
	"github.com/matzehuels/fleetmap/pkg/pipeline"
)

// isLayoutPath reports whether path names a JSON layout rather than a grid.
func isLayoutPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// readGrid loads a text grid file.
func readGrid(path string) (*grid.Grid, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	return grid.ReadFile(path)
}

// readInput loads either a layout (.json) or a text grid into opts.
func (c *CLI) readInput(path string, opts *pipeline.Options) error {
	if !isLayoutPath(path) {
		g, err := readGrid(path)
		if err != nil {
			return err
		}
		c.Logger.Debug("loaded grid", "path", path, "width", g.Width(), "height", g.Height())
		opts.Obstacles = g
		return nil
	}

	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "layout file %s not found", path)
		}
		return err
	}
	c.Logger.Debug("loaded layout", "path", path, "bytes", len(data))
	opts.Layout = data
	return nil
}

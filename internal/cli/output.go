package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/grid"
)

// stdoutPath selects standard output for -o.
const stdoutPath = "-"

// gridFormat resolves the output format from an explicit flag or the file
// extension, defaulting to the text format.
func gridFormat(flag, path string) (string, error) {
	format := strings.ToLower(flag)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch format {
	case "", "txt", "grid":
		return grid.FormatText, nil
	case grid.FormatCSV, grid.FormatPNG:
		return format, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported grid format %q (must be txt, csv, or png)", format)
}

// writeGrid writes g to path in format. A path of "-" writes to stdout.
func writeGrid(g *grid.Grid, path, format string) error {
	if path == stdoutPath {
		return grid.Export(g, format, os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := grid.Export(g, format, f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// redirectUIForStdout keeps human-readable output off stdout when data is
// streamed there.
func redirectUIForStdout(path string) {
	if path == stdoutPath {
		uiOut = os.Stderr
	}
}

// addGridOutputFlags registers -o and --format.
func addGridOutputFlags(cmd *cobra.Command, output, format *string, defaultOutput string) {
	cmd.Flags().StringVarP(output, "output", "o", defaultOutput, `output file ("-" for stdout)`)
	cmd.Flags().StringVarP(format, "format", "f", "", "grid format: txt (default), csv, png; inferred from the output extension")
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/fleetmap/pkg/bake"
	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/raster"
)

// bakeOpts holds the command-line flags for the bake command.
type bakeOpts struct {
	output     string
	format     string
	size       string
	resolution float64
	threshold  uint8
}

// bakeCommand creates the bake command, which converts a floor plan image
// into an obstacle grid.
func (c *CLI) bakeCommand() *cobra.Command {
	var opts bakeOpts

	cmd := &cobra.Command{
		Use:   "bake [image]",
		Short: "Convert a floor plan image into an obstacle grid",
		Long: `Bake resizes a PNG or JPEG floor plan to the grid for the given floor size
and marks every pixel darker than the threshold as an obstacle.`,
		Example: `  fleetmap bake floor.png --size 30x20 -o obstacles.txt`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBake(cmd, args[0], &opts)
		},
	}

	addGridOutputFlags(cmd, &opts.output, &opts.format, "obstacles.txt")
	cmd.Flags().StringVar(&opts.size, "size", "", "physical floor size in meters as WIDTHxHEIGHT (required)")
	cmd.Flags().Float64VarP(&opts.resolution, "resolution", "r", 0, "meters per cell (default from config, 0.1)")
	cmd.Flags().Uint8Var(&opts.threshold, "threshold", bake.DefaultThreshold, "gray level below which a pixel is an obstacle")
	_ = cmd.MarkFlagRequired("size")

	return cmd
}

func (c *CLI) runBake(cmd *cobra.Command, path string, opts *bakeOpts) error {
	format, err := gridFormat(opts.format, opts.output)
	if err != nil {
		return err
	}
	redirectUIForStdout(opts.output)

	width, height, err := bake.ParseDimensions(opts.size)
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	resolution := cfg.ResolutionM
	if cmd.Flags().Changed("resolution") {
		resolution = opts.resolution
	}
	if opts.threshold == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "threshold must be between 1 and 255")
	}
	if err := errors.ValidatePath(path); err != nil {
		return err
	}

	prog := startStage(c.Logger, "bake")
	g, err := bake.File(path, bake.Options{
		WidthM:      width,
		HeightM:     height,
		ResolutionM: resolution,
		Threshold:   opts.threshold,
	})
	if err != nil {
		return err
	}
	prog.done("baked image", "width", g.Width(), "height", g.Height())

	if err := writeGrid(g, opts.output, format); err != nil {
		return err
	}
	printSuccess("Baked %s", path)
	printGridStats(raster.Summarize(g), false)
	if opts.output != stdoutPath {
		printFile(opts.output)
	}
	return nil
}

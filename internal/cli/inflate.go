package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/fleetmap/pkg/cache"
	"github.com/matzehuels/fleetmap/pkg/grid"
	"github.com/matzehuels/fleetmap/pkg/pipeline"
)

// inflateOpts holds the command-line flags for the inflate command.
type inflateOpts struct {
	output      string
	format      string
	resolution  float64
	robotRadius float64
	margin      int
	noCache     bool
	refresh     bool
	redis       string
}

// inflateCommand creates the inflate command, which computes the cells a
// robot of the configured radius can occupy.
func (c *CLI) inflateCommand() *cobra.Command {
	var opts inflateOpts

	cmd := &cobra.Command{
		Use:   "inflate [grid.txt|layout.json]",
		Short: "Compute the accessible grid for a robot radius",
		Long: `Inflate obstacles by the robot radius and close the edge margin.

The input is either a text grid or a layout, which is rasterized first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInflate(cmd, args[0], &opts)
		},
	}

	addGridOutputFlags(cmd, &opts.output, &opts.format, "accessible.txt")
	cmd.Flags().Float64VarP(&opts.resolution, "resolution", "r", 0, "meters per cell (default from config, 0.1)")
	cmd.Flags().Float64Var(&opts.robotRadius, "robot-radius", 0, "robot radius in meters (default from config, 0.3)")
	cmd.Flags().IntVar(&opts.margin, "margin", 0, "edge margin in cells (default from config, 10)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute and overwrite cached results")
	cmd.Flags().StringVar(&opts.redis, "redis", envOr("REDIS_ADDR", ""), "redis address for a shared cache")

	return cmd
}

func (c *CLI) runInflate(cmd *cobra.Command, path string, opts *inflateOpts) error {
	ctx := cmd.Context()
	format, err := gridFormat(opts.format, opts.output)
	if err != nil {
		return err
	}
	redirectUIForStdout(opts.output)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	popts := pipeline.FromConfig(cfg)
	flags := cmd.Flags()
	if flags.Changed("resolution") {
		popts.ResolutionM = opts.resolution
	}
	if flags.Changed("robot-radius") {
		popts.RobotRadiusM = opts.robotRadius
	}
	if flags.Changed("margin") {
		popts.EdgeMarginCells = opts.margin
	}
	popts.Refresh = opts.refresh

	runner, err := c.newRunner(ctx, opts.noCache, opts.redis)
	if err != nil {
		return err
	}
	defer runner.Close()

	var obstacles *grid.Grid
	if isLayoutPath(path) {
		l, err := loadLayout(c, path)
		if err != nil {
			return err
		}
		if obstacles, err = runner.RasterizeLayout(ctx, l, popts); err != nil {
			return err
		}
	} else if obstacles, err = readGrid(path); err != nil {
		return err
	}

	prog := startStage(c.Logger, string(cache.StageInflate))
	accessible, report, hit, err := runner.InflateWithCacheInfo(ctx, obstacles, popts)
	if err != nil {
		return err
	}
	prog.done("inflated grid", "radius_cells", report.RadiusCells, "accessible", report.Accessible, "cached", hit)

	if err := writeGrid(accessible, opts.output, format); err != nil {
		return err
	}
	printSuccess("Inflated %s", path)
	printInflationStats(report, hit)
	if opts.output != stdoutPath {
		printFile(opts.output)
	}
	return nil
}

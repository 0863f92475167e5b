package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/fleetmap/pkg/cache"
	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/layout"
	"github.com/matzehuels/fleetmap/pkg/pipeline"
	"github.com/matzehuels/fleetmap/pkg/raster"
)

// rasterizeOpts holds the command-line flags for the rasterize command.
type rasterizeOpts struct {
	output     string  // grid output path
	format     string  // grid output format
	resolution float64 // meters per cell
	noCache    bool    // bypass the stage cache
	refresh    bool    // recompute and overwrite cached entries
	redis      string  // redis address for a shared cache
}

// rasterizeCommand creates the rasterize command, which turns a layout file
// into an obstacle grid.
func (c *CLI) rasterizeCommand() *cobra.Command {
	var opts rasterizeOpts

	cmd := &cobra.Command{
		Use:   "rasterize [layout.json]",
		Short: "Rasterize a warehouse layout into an obstacle grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRasterize(cmd, args[0], &opts)
		},
	}

	addGridOutputFlags(cmd, &opts.output, &opts.format, "obstacles.txt")
	cmd.Flags().Float64VarP(&opts.resolution, "resolution", "r", 0, "meters per cell (default from config, 0.1)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute and overwrite cached results")
	cmd.Flags().StringVar(&opts.redis, "redis", envOr("REDIS_ADDR", ""), "redis address for a shared cache")

	return cmd
}

func (c *CLI) runRasterize(cmd *cobra.Command, path string, opts *rasterizeOpts) error {
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
	if cmd.Flags().Changed("resolution") {
		popts.ResolutionM = opts.resolution
	}
	popts.Refresh = opts.refresh

	l, err := loadLayout(c, path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache, opts.redis)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := startStage(c.Logger, string(cache.StageRaster))
	g, hit, err := runner.RasterizeWithCacheInfo(ctx, l, popts)
	if err != nil {
		return err
	}
	prog.done("rasterized layout", "cached", hit)

	if err := writeGrid(g, opts.output, format); err != nil {
		return err
	}
	printSuccess("Rasterized %s", path)
	printGridStats(raster.Summarize(g), hit)
	if opts.output != stdoutPath {
		printFile(opts.output)
	}
	return nil
}

// loadLayout reads a layout file and reports its skipped entries.
func loadLayout(c *CLI, path string) (*layout.Layout, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	l, err := layout.Load(path)
	if err != nil {
		return nil, err
	}
	for _, msg := range l.Errors {
		c.Logger.Warn("skipped object", "detail", msg)
	}
	for _, msg := range l.Warnings {
		c.Logger.Warn("layout warning", "detail", msg)
	}
	c.Logger.Debug("loaded layout",
		"width_m", l.Width,
		"height_m", l.Height,
		"objects", len(l.Objects),
		"zones", len(l.ProhibitedZones))
	return l, nil
}

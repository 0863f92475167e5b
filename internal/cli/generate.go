package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/grid"
	"github.com/matzehuels/fleetmap/pkg/pipeline"
	"github.com/matzehuels/fleetmap/pkg/placement"
	"github.com/matzehuels/fleetmap/pkg/poi"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output       string   // POI document path
	gridOut      string   // optional accessible grid path
	obstaclesOut string   // optional obstacle grid path
	resolution   float64  // meters per cell
	robotRadius  float64  // meters
	margin       int      // edge margin in cells
	seed         uint64   // placement seed
	order        []string // category order
	budget       int      // candidate budget per scan, 0 for unlimited
	noCache      bool
	refresh      bool
	redis        string
}

// generateCommand creates the generate command, which runs the full pipeline
// and writes the POI configuration.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [layout.json|grid.txt]",
		Short: "Generate clustered charging, pickup, and dropoff points",
		Long: `Generate runs rasterize, inflate, and place, then writes a POI document.

Categories are placed in order against one shared pool, so earlier categories
constrain later ones. Falling short of the requested counts is reported as a
warning, not an error.`,
		Example: `  # Generate POIs for a layout with the default settings
  fleetmap generate warehouse.json -o poi.json

  # Reproducible run with a custom order, also saving the accessible grid
  fleetmap generate warehouse.json --seed 7 --order pickup,dropoff,charging --grid-out accessible.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, args[0], &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "poi.json", `POI output file ("-" for stdout)`)
	f.StringVar(&opts.gridOut, "grid-out", "", "also write the accessible grid (txt, csv, png by extension)")
	f.StringVar(&opts.obstaclesOut, "obstacles-out", "", "also write the obstacle grid (txt, csv, png by extension)")
	f.Float64VarP(&opts.resolution, "resolution", "r", 0, "meters per cell (default from config, 0.1)")
	f.Float64Var(&opts.robotRadius, "robot-radius", 0, "robot radius in meters (default from config, 0.3)")
	f.IntVar(&opts.margin, "margin", 0, "edge margin in cells (default from config, 10)")
	f.Uint64VarP(&opts.seed, "seed", "s", 0, "random seed (default from config, 42)")
	f.StringSliceVar(&opts.order, "order", nil, "category order, e.g. charging,pickup,dropoff")
	f.IntVar(&opts.budget, "budget", 0, "max candidates examined per scan (0 for unlimited)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	f.BoolVar(&opts.refresh, "refresh", false, "recompute and overwrite cached results")
	f.StringVar(&opts.redis, "redis", envOr("REDIS_ADDR", ""), "redis address for a shared cache")

	return cmd
}

// generateOptions resolves pipeline options from the config file and changed flags.
func (c *CLI) generateOptions(cmd *cobra.Command, opts *generateOpts) (pipeline.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return pipeline.Options{}, err
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
	if flags.Changed("seed") {
		popts.Seed = opts.seed
	}
	if flags.Changed("order") {
		order, err := placement.ParseOrder(opts.order)
		if err != nil {
			return pipeline.Options{}, err
		}
		popts.Order = order
	}
	popts.Budget = opts.budget
	popts.Refresh = opts.refresh
	popts.Logger = c.Logger
	return popts, nil
}

func (c *CLI) runGenerate(cmd *cobra.Command, path string, opts *generateOpts) error {
	ctx := cmd.Context()
	redirectUIForStdout(opts.output)

	popts, err := c.generateOptions(cmd, opts)
	if err != nil {
		return err
	}
	if err := c.readInput(path, &popts); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache, opts.redis)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinner(ctx, "Generating points of interest...")
	spinner.Start()
	result, err := runner.Execute(ctx, popts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return err
		}
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()

	if err := c.writeGenerateOutputs(result, opts); err != nil {
		return err
	}

	printSuccess("Generated %d points of interest", result.Stats.POICount)
	printGridStats(result.Raster, result.CacheInfo.RasterHit)
	printInflationStats(result.Inflation, result.CacheInfo.InflateHit)
	printPlacementTable(result.Placements)
	for _, w := range result.Warnings {
		printWarning("%s", w)
	}
	if opts.output != stdoutPath {
		printFile(opts.output)
	}
	for _, p := range []string{opts.obstaclesOut, opts.gridOut} {
		if p != "" {
			printFile(p)
		}
	}
	return nil
}

func (c *CLI) writeGenerateOutputs(result *pipeline.Result, opts *generateOpts) error {
	if opts.output == stdoutPath {
		if err := poi.Write(result.POI, os.Stdout); err != nil {
			return err
		}
	} else {
		if err := errors.ValidatePath(opts.output); err != nil {
			return err
		}
		if err := poi.WriteFile(result.POI, opts.output); err != nil {
			return err
		}
	}

	extras := []struct {
		path string
		g    *grid.Grid
	}{
		{opts.obstaclesOut, result.Obstacles},
		{opts.gridOut, result.Accessible},
	}
	for _, e := range extras {
		if e.path == "" {
			continue
		}
		format, err := gridFormat("", e.path)
		if err != nil {
			return err
		}
		if err := writeGrid(e.g, e.path, format); err != nil {
			return err
		}
		c.Logger.Debug("wrote grid", "path", e.path, "format", strings.ToUpper(format))
	}
	return nil
}

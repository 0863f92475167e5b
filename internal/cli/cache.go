package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fleetmap/pkg/cache"
	"github.com/matzehuels/fleetmap/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local pipeline cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// openFileCache opens the local cache, or returns nil when it was never
// created.
func openFileCache() (*cache.FileCache, string, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, "", fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, dir, nil
	}
	fc, err := cache.NewFileCache(dir)
	return fc, dir, err
}

// parseStages maps --stage values to cache stages.
func parseStages(names []string) ([]cache.Stage, error) {
	stages := make([]cache.Stage, 0, len(names))
	for _, n := range names {
		s, ok := cache.ParseStage(n)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown stage %q (want raster, inflate, or placement)", n)
		}
		stages = append(stages, s)
	}
	return stages, nil
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var stageNames []string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached rasterize, inflate, and placement results",
		Long: `Remove cached stage results. With --stage only that stage is cleared,
so a changed placement setup can be recomputed without redoing inflation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := parseStages(stageNames)
			if err != nil {
				return err
			}
			fc, dir, err := openFileCache()
			if err != nil {
				return err
			}
			if fc == nil {
				printInfo("Cache is empty")
				return nil
			}
			defer fc.Close()

			count, err := fc.Clear(stages...)
			if err != nil {
				return err
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&stageNames, "stage", nil, "stage to clear: raster, inflate, placement (repeatable)")
	return cmd
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached entries and disk use per stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, dir, err := openFileCache()
			if err != nil {
				return err
			}
			if fc == nil {
				printInfo("Cache is empty")
				return nil
			}
			defer fc.Close()

			stats, err := fc.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintln(uiOut, cacheStatsTable(stats).Render())
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cacheStatsTable renders one row per stage plus a total. Stages holding
// expired entries are highlighted.
func cacheStatsTable(stats []cache.StageStats) *table.Table {
	var total cache.StageStats
	expired := make(map[int]bool, len(stats))
	rows := make([][]string, 0, len(stats)+1)
	for i, s := range stats {
		expired[i] = s.Expired > 0
		total.Entries += s.Entries
		total.Bytes += s.Bytes
		total.Expired += s.Expired
		rows = append(rows, []string{string(s.Stage), strconv.Itoa(s.Entries), formatBytes(s.Bytes), strconv.Itoa(s.Expired)})
	}
	rows = append(rows, []string{"total", strconv.Itoa(total.Entries), formatBytes(total.Bytes), strconv.Itoa(total.Expired)})

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleDim).
		Headers("STAGE", "ENTRIES", "SIZE", "EXPIRED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleTableHeader
			case expired[row]:
				return styleTableShort
			}
			return styleTableCell
		})
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datadash/internal/chart"
	"github.com/KaramelBytes/datadash/internal/utils"
)

var (
	chartKind   string
	chartX      string
	chartY      string
	chartColumn string
	chartBins   int
	chartOutput string
	chartSheet  string
	chartWidth  int
	chartHeight int
)

var chartCmd = &cobra.Command{
	Use:   "chart <dataset|file>",
	Short: "Render a chart of a dataset to a PNG file",
	Long: `Render one chart to a PNG file. Kinds: scatter, line, histogram, box, heatmap, bar, pie.
Unset or unknown columns fall back to the first eligible column.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := chart.ParseKind(chartKind)
		if err != nil {
			return err
		}
		t, err := loadTable(cmd.Context(), args[0], chartSheet)
		if err != nil {
			return err
		}
		c := currentConfig()
		opt := chart.Options{Width: c.ChartWidth, Height: c.ChartHeight}
		if chartWidth > 0 {
			opt.Width = chartWidth
		}
		if chartHeight > 0 {
			opt.Height = chartHeight
		}
		bins := c.DefaultBins
		if cmd.Flags().Changed("bins") {
			bins = chartBins
		}

		img, err := chart.NewRenderer(opt).Render(t, chart.Request{
			Kind:   kind,
			X:      chartX,
			Y:      chartY,
			Column: chartColumn,
			Bins:   chart.ClampBins(bins),
		})
		if err != nil {
			return err
		}
		if err := utils.WriteOutput(chartOutput, img.PNG); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s written to %s (%dx%d)\n", img.Title, chartOutput, img.Width, img.Height)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVarP(&chartKind, "kind", "k", "scatter", "chart kind")
	chartCmd.Flags().StringVar(&chartX, "x", "", "x-axis column (scatter, line, bar)")
	chartCmd.Flags().StringVar(&chartY, "y", "", "y-axis column (scatter, line, bar)")
	chartCmd.Flags().StringVar(&chartColumn, "column", "", "column for histogram, box and pie")
	chartCmd.Flags().IntVar(&chartBins, "bins", 0, "histogram bins, clamped to [5,50] (default from config)")
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "chart.png", "output PNG path")
	chartCmd.Flags().StringVar(&chartSheet, "sheet", "", "spreadsheet sheet name (default: first sheet)")
	chartCmd.Flags().IntVar(&chartWidth, "width", 0, "image width in pixels (default from config)")
	chartCmd.Flags().IntVar(&chartHeight, "height", 0, "image height in pixels (default from config)")
}

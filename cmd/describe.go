package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datadash/internal/analysis"
	"github.com/KaramelBytes/datadash/internal/utils"
)

var (
	descOutputPath string
	descCorr       bool
	descGroupBy    string
	descSheet      string
)

var describeCmd = &cobra.Command{
	Use:   "describe <dataset|file>",
	Short: "Print summary statistics of a dataset as Markdown",
	Long: `Print the dataset summary, per-column info and numeric statistics as Markdown.
The argument is a bundled dataset (iris, titanic, penguins) or a CSV/XLSX/XLS file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd.Context(), args[0], descSheet)
		if err != nil {
			return err
		}
		md := analysis.Full(t, descCorr, descGroupBy).Markdown()

		if descOutputPath != "" {
			if err := utils.WriteOutput(descOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", descOutputPath)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "write the report to a file instead of stdout")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", false, "include the correlation matrix and top pairs")
	describeCmd.Flags().StringVar(&descGroupBy, "group-by", "", "summarize numeric columns per value of this column")
	describeCmd.Flags().StringVar(&descSheet, "sheet", "", "spreadsheet sheet name (default: first sheet)")
}

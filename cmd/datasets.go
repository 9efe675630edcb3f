package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datadash/internal/dataset"
	"github.com/KaramelBytes/datadash/internal/parser"
	"github.com/KaramelBytes/datadash/internal/table"
	"github.com/KaramelBytes/datadash/internal/utils"
)

var datasetsJSON bool

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the bundled sample datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if datasetsJSON {
			type entry struct {
				ID          string `json:"id"`
				Label       string `json:"label"`
				Description string `json:"description"`
			}
			var list []entry
			for _, b := range dataset.Builtins() {
				list = append(list, entry{ID: string(b.Selection), Label: b.Label, Description: b.Description})
			}
			b, err := utils.PrettyJSON(list)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		for _, b := range dataset.Builtins() {
			fmt.Fprintf(out, "%-10s %s\n           %s\n", b.Selection, b.Label, b.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
	datasetsCmd.Flags().BoolVar(&datasetsJSON, "json", false, "print as JSON")
}

// loadTable resolves a command argument: an existing file is parsed like an
// upload, anything else must name a bundled dataset.
func loadTable(ctx context.Context, arg, sheet string) (*table.Table, error) {
	opt := parser.DefaultOptions()
	opt.Sheet = sheet
	loader, err := dataset.NewLoader(1, opt)
	if err != nil {
		return nil, err
	}
	if st, err := os.Stat(arg); err == nil && !st.IsDir() {
		b, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", arg, err)
		}
		return loader.Load(ctx, dataset.Upload, &dataset.File{Name: filepath.Base(arg), Data: b})
	}
	if filepath.Ext(arg) != "" {
		return nil, fmt.Errorf("file not found: %s", arg)
	}
	sel, err := dataset.ParseSelection(arg)
	if err != nil {
		return nil, err
	}
	if sel == dataset.Upload {
		return nil, fmt.Errorf("pass a file path instead of %q", arg)
	}
	return loader.Load(ctx, sel, nil)
}

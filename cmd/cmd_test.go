package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Isolate config lookups and reset state that persists across invocations
	t.Setenv("HOME", t.TempDir())
	cfg, cfgFile, debug, logFormat = nil, "", false, ""
	datasetsJSON = false
	descOutputPath, descCorr, descGroupBy, descSheet = "", false, "", ""
	chartKind, chartX, chartY, chartColumn, chartBins = "scatter", "", "", "", 0
	chartOutput, chartSheet, chartWidth, chartHeight = "chart.png", "", 0, 0
	configInitForce = false
	if fl := chartCmd.Flags().Lookup("bins"); fl != nil {
		fl.Changed = false
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestDatasetsList(t *testing.T) {
	out := mustRun(t, "datasets")
	for _, want := range []string{"iris", "titanic", "penguins", "Iris Dataset 🌸"} {
		if !strings.Contains(out, want) {
			t.Fatalf("datasets output missing %q:\n%s", want, out)
		}
	}
	out = mustRun(t, "datasets", "--json")
	if !strings.Contains(out, `"id": "penguins"`) {
		t.Fatalf("json output missing penguins:\n%s", out)
	}
}

func TestDescribeBuiltin(t *testing.T) {
	out := mustRun(t, "describe", "iris", "--correlations", "--group-by", "species")
	for _, want := range []string{"[DATASET SUMMARY]", "Rows: 150", "[STATISTICS]", "| sepal_length | 150 |", "[CORRELATIONS]", "[GROUP-BY SUMMARY]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("describe output missing %q:\n%s", want, out)
		}
	}
}

func TestDescribeFileToOutput(t *testing.T) {
	in := writeFile(t, "sales.csv", "region,units,price\nnorth,10,2.5\nsouth,4,3.0\nnorth,7,2.0\n")
	outPath := filepath.Join(t.TempDir(), "reports", "sales.md")

	msg := mustRun(t, "describe", in, "-o", outPath)
	if !strings.Contains(msg, "Wrote analysis") {
		t.Fatalf("unexpected output: %s", msg)
	}
	body, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(body), "File: sales.csv") || !strings.Contains(string(body), "| units | 3 |") {
		t.Fatalf("report content:\n%s", body)
	}
}

func TestDescribeErrors(t *testing.T) {
	if _, err := runCmd(t, "describe", filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := runCmd(t, "describe", "mtcars"); err == nil {
		t.Fatalf("expected error for unknown dataset")
	}
	bad := writeFile(t, "notes.txt", "a,b\n1,2\n")
	_, err := runCmd(t, "describe", bad)
	if err == nil || !strings.Contains(err.Error(), "Unsupported file format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestChartWritesPNG(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "charts", "hist.png")
	msg := mustRun(t, "chart", "penguins", "--kind", "histogram", "--column", "body_mass_g", "--bins", "3", "-o", outPath, "--width", "320", "--height", "240")
	if !strings.Contains(msg, "Histogram of body_mass_g") {
		t.Fatalf("unexpected output: %s", msg)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("output is not a PNG")
	}
}

func TestChartErrors(t *testing.T) {
	if _, err := runCmd(t, "chart", "iris", "--kind", "radar", "-o", filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	one := writeFile(t, "one.csv", "name,score\na,1\nb,2\n")
	outPath := filepath.Join(t.TempDir(), "scatter.png")
	_, err := runCmd(t, "chart", one, "--kind", "scatter", "-o", outPath)
	if err == nil || !strings.Contains(err.Error(), "Need at least two numeric columns") {
		t.Fatalf("expected scatter warning, got %v", err)
	}
	if _, statErr := os.Stat(outPath); statErr == nil {
		t.Fatalf("no file should be written when the chart fails")
	}
}

func TestConfigInitSetShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	mustRun(t, "config", "init", "--config", path)
	if _, err := runCmd(t, "config", "init", "--config", path); err == nil {
		t.Fatalf("expected error when config exists without --force")
	}
	mustRun(t, "config", "set", "preview_rows", "25", "--config", path)
	if _, err := runCmd(t, "config", "set", "preview_rows", "0", "--config", path); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := runCmd(t, "config", "set", "nope", "1", "--config", path); err == nil {
		t.Fatalf("expected unknown key error")
	}
	out := mustRun(t, "config", "show", "--config", path)
	if !strings.Contains(out, "preview_rows: 25") || !strings.Contains(out, "chart_width: 1000") {
		t.Fatalf("config show:\n%s", out)
	}
}

func TestDisplayURL(t *testing.T) {
	if got := displayURL(":8501"); got != "http://localhost:8501" {
		t.Fatalf("displayURL = %s", got)
	}
	if got := displayURL("0.0.0.0:9000"); got != "http://0.0.0.0:9000" {
		t.Fatalf("displayURL = %s", got)
	}
}

package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/datadash/internal/table"
)

// Full builds a report with statistics, dataset info and, when requested,
// correlations and a group-by breakdown.
func Full(t *table.Table, correlations bool, groupBy string) *Report {
	rep := Describe(t)
	rep.Info = DescribeInfo(t)
	if correlations {
		if len(rep.Numeric) >= 2 {
			rep.Corr = Correlation(t)
		} else {
			rep.Notes = append(rep.Notes, "correlations need at least two numeric columns")
		}
	}
	if groupBy != "" {
		groups, ok := GroupBy(t, groupBy)
		if !ok {
			rep.Notes = append(rep.Notes, fmt.Sprintf("group-by column %q not found", groupBy))
		} else {
			rep.GroupBy, rep.Groups = groupBy, groups
		}
	}
	if len(rep.Numeric) == 0 {
		rep.Notes = append(rep.Notes, "No numeric columns found in the dataset.")
	}
	return rep
}

// Markdown renders a compact report suitable for a terminal or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", r.Cols))

	if r.Info != nil {
		b.WriteString("\n[SCHEMA]\n")
		for _, c := range r.Info.Columns {
			b.WriteString(fmt.Sprintf("- %s: %s, %s (non-null %d, missing %.1f%%)",
				safeName(c.Name), c.Kind, c.DType, c.NonNull, c.MissingPct()))
			switch c.Kind {
			case table.KindNumeric:
				if c.OutliersCount > 0 {
					b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f (max |z|≈%.2f)",
						c.OutliersCount, DefaultOutlierThreshold, c.OutliersMaxAbsZ))
				}
			case table.KindCategorical:
				if len(c.TopValues) > 0 {
					b.WriteString("; top: ")
					for i, kv := range c.TopValues {
						if i > 0 {
							b.WriteString(", ")
						}
						b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
					}
					if c.Unique > len(c.TopValues) {
						b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
					}
				}
			}
			b.WriteString("\n")
		}
	}

	if len(r.Numeric) > 0 {
		b.WriteString("\n[STATISTICS]\n")
		b.WriteString("| column | count | mean | std | min | 25% | 50% | 75% | max |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
		for _, s := range r.Numeric {
			b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s | %s | %s |\n",
				safeVal(safeName(s.Name)), s.Count, num(s.Mean), num(s.Std), num(s.Min),
				num(s.Q25), num(s.Q50), num(s.Q75), num(s.Max)))
		}
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			// print up to 6 metrics
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys[:min(len(keys), 6)] {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %s (min %s, max %s)\n", k, num(m.Mean), num(m.Min), num(m.Max)))
			}
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Corr.TopPairs(10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}

	if len(r.Notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Notes {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// num formats a statistic the way the dashboard table shows it.
func num(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

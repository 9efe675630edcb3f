// Package chart renders tables into PNG charts, one handler per chart kind.
package chart

import (
	"fmt"
	"strings"
)

// Kind enumerates the supported chart types.
type Kind int

const (
	Scatter Kind = iota
	Line
	Histogram
	Box
	Heatmap
	Bar
	Pie
	numKinds
)

var kindNames = [numKinds]string{"scatter", "line", "histogram", "box", "heatmap", "bar", "pie"}

var kindLabels = [numKinds]string{
	"Scatter Plot", "Line Plot", "Histogram", "Box Plot", "Correlation Heatmap", "Bar Plot", "Pie Chart",
}

// String returns the short name used in URLs and flags.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Label returns the display label.
func (k Kind) Label() string {
	if k < 0 || k >= numKinds {
		return k.String()
	}
	return kindLabels[k]
}

// Kinds lists every chart kind in menu order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind accepts a short name ("box") or a display label ("Box Plot"),
// case-insensitively. The empty string selects Scatter.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Scatter, nil
	}
	for i := Kind(0); i < numKinds; i++ {
		if strings.EqualFold(s, kindNames[i]) || strings.EqualFold(s, kindLabels[i]) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown chart kind %q (choose one of: %s)", s, strings.Join(kindNames[:], ", "))
}

// Package dataset resolves a dataset selection into a loaded table.
package dataset

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/KaramelBytes/datadash/internal/apperr"
	"github.com/KaramelBytes/datadash/internal/parser"
	"github.com/KaramelBytes/datadash/internal/table"
)

//go:embed data/*.csv
var builtinFS embed.FS

// Selection names one of the dashboard's data sources.
type Selection string

const (
	Iris     Selection = "iris"
	Titanic  Selection = "titanic"
	Penguins Selection = "penguins"
	Upload   Selection = "upload"
)

// Builtin describes a bundled sample dataset.
type Builtin struct {
	Selection   Selection
	Label       string
	Description string
	File        string
}

var builtins = []Builtin{
	{Iris, "Iris Dataset 🌸", "Measurements of 150 iris flowers across three species.", "data/iris.csv"},
	{Titanic, "Titanic Dataset 🚢", "Passenger records from the Titanic with survival outcome.", "data/titanic.csv"},
	{Penguins, "Penguins Dataset 🐧", "Palmer Archipelago penguin measurements.", "data/penguins.csv"},
}

// UploadLabel is the display label of the upload selection.
const UploadLabel = "Upload Custom Dataset 📤"

// Builtins returns the bundled datasets in display order.
func Builtins() []Builtin {
	out := make([]Builtin, len(builtins))
	copy(out, builtins)
	return out
}

// Selections returns every selection in display order, upload last.
func Selections() []Selection {
	out := make([]Selection, 0, len(builtins)+1)
	for _, b := range builtins {
		out = append(out, b.Selection)
	}
	return append(out, Upload)
}

// Label returns the display label of s.
func (s Selection) Label() string {
	if s == Upload {
		return UploadLabel
	}
	for _, b := range builtins {
		if b.Selection == s {
			return b.Label
		}
	}
	return string(s)
}

// ParseSelection accepts a selection id ("iris") or a display label
// ("Iris Dataset 🌸"), case-insensitively.
func ParseSelection(s string) (Selection, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Iris, nil
	}
	if f := strings.Fields(s); len(f) > 0 {
		s = f[0]
	}
	for _, sel := range Selections() {
		if s == string(sel) {
			return sel, nil
		}
	}
	return "", fmt.Errorf("unknown dataset %q (choose one of: iris, titanic, penguins, upload)", s)
}

// File is an uploaded file.
type File struct {
	Name string
	Data []byte
}

// Loader loads selections into tables and memoizes the results by content.
type Loader struct {
	opt   parser.Options
	cache *lru.Cache[string, *table.Table]
}

// NewLoader returns a Loader keeping at most entries parsed tables.
func NewLoader(entries int, opt parser.Options) (*Loader, error) {
	if entries <= 0 {
		entries = 32
	}
	c, err := lru.New[string, *table.Table](entries)
	if err != nil {
		return nil, err
	}
	return &Loader{opt: opt, cache: c}, nil
}

// Load returns the table for sel. For Upload, file must be non-nil;
// otherwise apperr.ErrNoUpload is returned and the caller should prompt for
// a file. Parse failures carry apperr kinds and never yield a table.
func (l *Loader) Load(ctx context.Context, sel Selection, file *File) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var name string
	var data []byte
	switch sel {
	case Upload:
		if file == nil || len(file.Name) == 0 {
			return nil, apperr.ErrNoUpload
		}
		name, data = file.Name, file.Data
	default:
		b, ok := lookup(sel)
		if !ok {
			return nil, fmt.Errorf("unknown dataset %q", sel)
		}
		raw, err := builtinFS.ReadFile(b.File)
		if err != nil {
			return nil, fmt.Errorf("read builtin %s: %w", sel, err)
		}
		name, data = path.Base(b.File), raw
	}

	key := Key(sel, name, data)
	if t, ok := l.cache.Get(key); ok {
		return t, nil
	}
	t, err := parser.Parse(data, name, l.opt)
	if err != nil {
		return nil, err
	}
	t = t.WithKey(key)
	l.cache.Add(key, t)
	return t, nil
}

// Len reports how many tables are memoized.
func (l *Loader) Len() int { return l.cache.Len() }

// Key derives the memo key of a selection and its content.
func Key(sel Selection, name string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(sel))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func lookup(sel Selection) (Builtin, bool) {
	for _, b := range builtins {
		if b.Selection == sel {
			return b, true
		}
	}
	return Builtin{}, false
}

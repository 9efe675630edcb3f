package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure surfaced to the dashboard user.
type Kind int

const (
	UnexpectedError     Kind = iota // catch-all
	UnsupportedFormat               // upload extension not csv/xlsx/xls
	ParseError                      // file could not be parsed
	EmptyDataset                    // parsed file has no data rows
	InsufficientColumns             // parsed file has fewer than two columns
	VisualizationError              // chart drawing failed
	Warning                         // chart precondition unmet; nothing drawn
	NoUpload                        // upload selected but no file provided yet
)

func (k Kind) String() string {
	switch k {
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case ParseError:
		return "ParseError"
	case EmptyDataset:
		return "EmptyDataset"
	case InsufficientColumns:
		return "InsufficientColumns"
	case VisualizationError:
		return "VisualizationError"
	case Warning:
		return "Warning"
	case NoUpload:
		return "NoUpload"
	default:
		return "UnexpectedError"
	}
}

// Error is a tagged, user-facing error. Msg is safe to display; Err keeps the
// underlying cause for logs and errors.Is/As chains.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match against another *Error of the same Kind, so sentinel
// values such as ErrEmptyDataset work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

// StatusCode maps the error kind to an HTTP status code.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case UnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case ParseError, EmptyDataset, InsufficientColumns:
		return http.StatusUnprocessableEntity
	case Warning, NoUpload:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnsupportedFormat   = &Error{Kind: UnsupportedFormat}
	ErrParse               = &Error{Kind: ParseError}
	ErrEmptyDataset        = &Error{Kind: EmptyDataset}
	ErrInsufficientColumns = &Error{Kind: InsufficientColumns}
	ErrVisualization       = &Error{Kind: VisualizationError}
	ErrWarning             = &Error{Kind: Warning}
	ErrNoUpload            = &Error{Kind: NoUpload}
	ErrUnexpected          = &Error{Kind: UnexpectedError}

	// ErrNoNumeric is the warning shown before any chart-specific check.
	ErrNoNumeric = &Error{Kind: Warning, Msg: "No numeric columns found in the dataset."}
)

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Warnf builds a Warning with a formatted message.
func Warnf(format string, args ...any) error {
	return &Error{Kind: Warning, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind carried by err, or UnexpectedError for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnexpectedError
}

// Message returns the user-facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return "An unexpected error occurred: " + err.Error()
}

package core

import "fmt"

// WarningKind classifies non-fatal problems found while loading or
// summarizing. The pipeline collects these and keeps going; nothing here is
// a fatal error.
type WarningKind int

const (
	WarnFileNotFound WarningKind = iota + 1
	WarnSkippedRow
	WarnUnknownDepartment
	WarnDivisionByZero
	WarnInvalidSchema
	WarnDuplicatePeriod
)

func (k WarningKind) String() string {
	switch k {
	case WarnFileNotFound:
		return "file_not_found"
	case WarnSkippedRow:
		return "skipped_row"
	case WarnUnknownDepartment:
		return "unknown_department"
	case WarnDivisionByZero:
		return "division_by_zero"
	case WarnInvalidSchema:
		return "invalid_schema"
	case WarnDuplicatePeriod:
		return "duplicate_period"
	default:
		return "unknown"
	}
}

func (k WarningKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Warning describes one non-fatal problem. File and Line are empty/zero when
// the warning is not tied to a source location.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	File    string      `json:"file,omitempty"`
	Line    int         `json:"line,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	switch {
	case w.File != "" && w.Line > 0:
		return fmt.Sprintf("%s: %s:%d: %s", w.Kind, w.File, w.Line, w.Message)
	case w.File != "":
		return fmt.Sprintf("%s: %s: %s", w.Kind, w.File, w.Message)
	default:
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
}

type Warnings []Warning

// Of returns the warnings of one kind.
func (ws Warnings) Of(kind WarningKind) Warnings {
	var out Warnings
	for _, w := range ws {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

// Count returns how many warnings of the given kind were collected.
func (ws Warnings) Count(kind WarningKind) int {
	return len(ws.Of(kind))
}

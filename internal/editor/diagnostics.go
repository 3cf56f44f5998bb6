package editor

import "sort"

// Severity ranks diagnostics. Lower values are more severe, matching LSP.
type Severity int

const (
	SeverityError   Severity = 1
	SeverityWarning Severity = 2
	SeverityInfo    Severity = 3
	SeverityHint    Severity = 4
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	case SeverityHint:
		return "HINT"
	default:
		return "UNKNOWN"
	}
}

// Actionable reports whether the severity is an error or a warning.
func (s Severity) Actionable() bool {
	return s == SeverityError || s == SeverityWarning
}

// Diagnostic is a single lint or compiler message.
type Diagnostic struct {
	Line     int
	Col      int
	Severity Severity
	Message  string
	Source   string
}

// Position returns the diagnostic start as a Position.
func (d Diagnostic) Position() Position {
	return Position{Line: d.Line, Col: d.Col}
}

// DiagnosticsProvider supplies diagnostics for a buffer.
type DiagnosticsProvider interface {
	Diagnostics(b Buffer, span LineSpan) []Diagnostic
}

// SortBySeverity orders diagnostics by severity, then line, then column.
func SortBySeverity(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Severity != diags[j].Severity {
			return diags[i].Severity < diags[j].Severity
		}
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Col < diags[j].Col
	})
}

// SortByPosition orders diagnostics by line, then column.
func SortByPosition(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Col < diags[j].Col
	})
}

// Actionable returns only the errors and warnings in diags.
func Actionable(diags []Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		if d.Severity.Actionable() {
			out = append(out, d)
		}
	}
	return out
}

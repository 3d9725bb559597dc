package compiler

import (
	"fmt"
	"strings"
)

// Severity says whether a diagnostic blocks execution.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// DiagnosticKind classifies where a diagnostic came from.
type DiagnosticKind int

const (
	KindSyntax DiagnosticKind = iota
	KindSemantic
	KindType
)

func (k DiagnosticKind) String() string {
	switch k {
	case KindSemantic:
		return "semantic"
	case KindType:
		return "type"
	default:
		return "syntax"
	}
}

// Diagnostic is a single parse or compile problem with its source location.
type Diagnostic struct {
	Severity Severity
	Kind     DiagnosticKind
	Pos      Position
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d:%d: %s %s: %s", d.Pos.Line, d.Pos.Column, d.Kind, d.Severity, d.Message)
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Err returns a *DiagnosticError when there are errors, nil otherwise.
func (ds Diagnostics) Err() error {
	errs := ds.Errors()
	if len(errs) == 0 {
		return nil
	}
	return &DiagnosticError{Diagnostics: errs}
}

func (ds Diagnostics) String() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// DiagnosticError reports a failed parse or compile.
type DiagnosticError struct {
	Diagnostics Diagnostics
}

func (e *DiagnosticError) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].String()
	}
	return fmt.Sprintf("%d errors:\n%s", len(e.Diagnostics), e.Diagnostics.String())
}

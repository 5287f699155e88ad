package errors

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
	CategoryTemplate Category = "template"
	CategoryAssets   Category = "assets"
)

// Location represents a source location, usually in a configuration file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Line == 0 {
		return l.File
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// StructuredError is an error with a code, a location and a fix hint.
type StructuredError struct {
	// Code is a unique error identifier (e.g., "E121").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is where the error occurred, if known.
	Location *Location

	// Context contains surrounding source lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows the correct approach.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *StructuredError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a location and reads the surrounding lines.
func (e *StructuredError) WithLocation(file string, line, column int) *StructuredError {
	e.Location = &Location{File: file, Line: line, Column: column}
	if line > 0 {
		e.Context = readContextLines(file, line, 5)
	}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *StructuredError) WithSuggestion(s string) *StructuredError {
	e.Suggestion = s
	return e
}

// WithExample adds an example to the error.
func (e *StructuredError) WithExample(ex string) *StructuredError {
	e.Example = ex
	return e
}

// WithDetail replaces the detailed explanation.
func (e *StructuredError) WithDetail(d string) *StructuredError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *StructuredError) Wrap(err error) *StructuredError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around targetLine from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	return lines
}

// New creates a StructuredError from a registered error code.
func New(code string) *StructuredError {
	tmpl, ok := registry[code]
	if !ok {
		return &StructuredError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &StructuredError{
		Code:       code,
		Category:   tmpl.Category,
		Message:    tmpl.Message,
		Detail:     tmpl.Detail,
		Suggestion: tmpl.Suggestion,
	}
}

// Newf creates a StructuredError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *StructuredError {
	return &StructuredError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in a StructuredError unless it already is one.
func FromError(err error, code string) *StructuredError {
	if err == nil {
		return nil
	}
	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first StructuredError in err's chain.
func Code(err error) string {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

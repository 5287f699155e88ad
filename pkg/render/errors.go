package render

import (
	"errors"
	"fmt"
	htmltemplate "html/template"
	"regexp"
	"strconv"
	texttemplate "text/template"
)

// Kind classifies a render failure.
type Kind int

const (
	// KindNotFound: no search path has the template or one of its layouts
	// or includes.
	KindNotFound Kind = iota + 1
	// KindSyntax: the template does not parse, cannot be escaped, or its
	// layout chain is circular.
	KindSyntax
	// KindRuntime: execution failed.
	KindRuntime
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "TemplateNotFound"
	case KindSyntax:
		return "TemplateSyntaxInvalid"
	case KindRuntime:
		return "TemplateRuntimeFailure"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is. Every *Error matches exactly one of them.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateSyntax   = errors.New("template syntax invalid")
	ErrTemplateRuntime  = errors.New("template runtime failure")
)

// Error describes a failed render.
type Error struct {
	Kind Kind

	// Template is the id that was requested.
	Template string

	// Name is the template the failure occurred in: the requested id, a
	// layout or an include.
	Name string

	// File and Line locate the failure when known.
	File string
	Line int

	// Message is a one-line description.
	Message string

	// Searched lists the search path directories.
	Searched []string

	// Tried lists every file path probed for a missing template.
	Tried []string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	loc := e.Template
	if e.File != "" {
		loc = e.File
		if e.Line > 0 {
			loc += ":" + strconv.Itoa(e.Line)
		}
	}
	return fmt.Sprintf("render %s: %s: %s", loc, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTemplateNotFound:
		return e.Kind == KindNotFound
	case ErrTemplateSyntax:
		return e.Kind == KindSyntax
	case ErrTemplateRuntime:
		return e.Kind == KindRuntime
	}
	return false
}

// KindOf returns the kind of a render error, or 0 for other errors.
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return 0
}

// template errors look like "template: en/about:12: ..." or
// "template: en/about:12:5: executing ...".
var lineRe = regexp.MustCompile(`template: ([^:]+):(\d+):`)

func errorLocation(err error) (name string, line int) {
	m := lineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return "", 0
	}
	line, _ = strconv.Atoi(m[2])
	return m[1], line
}

// classify converts an execution error into an *Error.
func classify(id string, err error) *Error {
	rerr := &Error{Template: id, Name: id, Message: err.Error(), Err: err}

	var escErr *htmltemplate.Error
	var execErr texttemplate.ExecError
	switch {
	case errors.As(err, &escErr):
		rerr.Kind = KindSyntax
		if escErr.Name != "" {
			rerr.Name = escErr.Name
		}
		rerr.Line = escErr.Line
		if escErr.Description != "" {
			rerr.Message = escErr.Description
		}
		return rerr
	case errors.As(err, &execErr):
		rerr.Kind = KindRuntime
		if execErr.Name != "" {
			rerr.Name = execErr.Name
		}
	default:
		rerr.Kind = KindRuntime
	}
	if name, line := errorLocation(err); line > 0 {
		rerr.Name, rerr.Line = name, line
	}
	return rerr
}

// syntaxError wraps a parse failure of the template called name.
func syntaxError(id, name string, err error) *Error {
	rerr := &Error{
		Kind:     KindSyntax,
		Template: id,
		Name:     name,
		Message:  err.Error(),
		Err:      err,
	}
	if _, line := errorLocation(err); line > 0 {
		rerr.Line = line
	}
	return rerr
}

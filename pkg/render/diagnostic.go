package render

import (
	"bytes"
	_ "embed"
	"errors"
	"html/template"
)

//go:embed diagnostic.html
var diagnosticHTML string

var diagnosticTmpl = template.Must(template.New("diagnostic").Parse(diagnosticHTML))

// Diagnostic is the content of the development error page shown when a
// request could not be resolved.
type Diagnostic struct {
	// Path and Lang identify the request.
	Path string
	Lang string

	// Kind, Message, Template, File and Line describe the last failure.
	Kind     string
	Message  string
	Template string
	File     string
	Line     int

	// Searched lists the template directories.
	Searched []string

	// Attempts lists every template tried, in order.
	Attempts []DiagnosticAttempt
}

// DiagnosticAttempt is one step of the resolution chain.
type DiagnosticAttempt struct {
	Step     string
	Template string
	Status   int
	Kind     string
	Error    string
}

// NewDiagnostic fills the failure fields of a Diagnostic from err.
func NewDiagnostic(err error) *Diagnostic {
	d := &Diagnostic{}
	if err == nil {
		return d
	}
	d.Message = err.Error()

	var rerr *Error
	if errors.As(err, &rerr) {
		d.Kind = rerr.Kind.String()
		d.Message = rerr.Message
		d.Template = rerr.Template
		d.File = rerr.File
		d.Line = rerr.Line
		d.Searched = append([]string(nil), rerr.Searched...)
	}
	return d
}

// DiagnosticPage renders the development error page.
func DiagnosticPage(d *Diagnostic) string {
	var buf bytes.Buffer
	if err := diagnosticTmpl.Execute(&buf, d); err != nil {
		return template.HTMLEscapeString(d.Message)
	}
	return buf.String()
}

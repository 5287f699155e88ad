package render

import (
	"fmt"
	"html/template"
	"regexp"
	"sort"
	"strings"
	"text/template/parse"
)

// extendsRe matches the layout directive, which must be the first action
// in the file:
//
//	{{/* extends "layouts/base" */}}
var extendsRe = regexp.MustCompile(`^\s*\{\{-?\s*/\*\s*extends\s+"([^"]+)"\s*\*/\s*-?\}\}`)

// parentOf returns the layout a template source extends, if any.
func parentOf(text string) (string, bool) {
	m := extendsRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), m[1] != ""
}

// compiled is a parsed template set ready to be cloned and executed.
type compiled struct {
	tmpl *template.Template

	// entry is the template to execute: the root-most layout.
	entry string

	// files maps template names to the file they came from.
	files map[string]string
}

// compile loads id, its layout chain and its includes into one template
// set. Layouts are parsed root first so that every {{define}} in a child
// replaces the matching {{block}} of its parent.
func (e *Engine) compile(id string) (*compiled, error) {
	chain, err := e.layoutChain(id)
	if err != nil {
		return nil, err
	}

	root := chain[len(chain)-1]
	c := &compiled{
		tmpl:  template.New("").Funcs(e.funcs(nil)),
		entry: root.name,
		files: make(map[string]string, len(chain)),
	}
	for i := len(chain) - 1; i >= 0; i-- {
		src := chain[i]
		if _, err := c.tmpl.New(src.name).Parse(src.text); err != nil {
			return nil, e.withSearch(syntaxError(id, src.name, err), src.file)
		}
		c.files[src.name] = src.file
	}

	if err := e.resolveIncludes(id, c); err != nil {
		return nil, err
	}
	return c, nil
}

// layoutChain returns id followed by its ancestors, root last. Circular
// inheritance is a syntax error.
func (e *Engine) layoutChain(id string) ([]*source, error) {
	var (
		chain   []*source
		visited = map[string]bool{}
		order   []string
	)
	name := id
	for {
		if visited[name] {
			order = append(order, name)
			return nil, &Error{
				Kind:     KindSyntax,
				Template: id,
				Name:     name,
				Message:  "circular layout inheritance: " + strings.Join(order, " -> "),
				Searched: e.loader.Dirs(),
			}
		}
		visited[name] = true
		order = append(order, name)

		load := e.loader.Load
		if name == id {
			load = e.loader.LoadPage
		}
		src, err := load(name)
		if err != nil {
			if name != id {
				if rerr, ok := err.(*Error); ok {
					rerr.Template = id
					rerr.Message = fmt.Sprintf("layout %q of %q not found", name, chain[len(chain)-1].name)
					rerr.File = chain[len(chain)-1].file
				}
			}
			return nil, err
		}
		chain = append(chain, src)

		parent, ok := parentOf(src.text)
		if !ok {
			return chain, nil
		}
		name = parent
	}
}

// resolveIncludes loads every {{template "name"}} target that the set does
// not define, until the set is closed.
func (e *Engine) resolveIncludes(id string, c *compiled) error {
	loaded := map[string]bool{}
	for {
		missing, from := undefinedTemplates(c.tmpl)
		if len(missing) == 0 {
			return nil
		}
		for _, name := range missing {
			if loaded[name] {
				return e.withSearch(&Error{
					Kind:     KindSyntax,
					Template: id,
					Name:     name,
					Message:  fmt.Sprintf("include %q does not define a template", name),
				}, c.files[name])
			}
			loaded[name] = true
			src, err := e.loader.Load(name)
			if err != nil {
				if rerr, ok := err.(*Error); ok {
					rerr.Template = id
					rerr.Message = fmt.Sprintf("include %q referenced by %q not found", name, from[name])
					rerr.File = c.files[from[name]]
				}
				return err
			}
			if _, err := c.tmpl.New(name).Parse(src.text); err != nil {
				return e.withSearch(syntaxError(id, name, err), src.file)
			}
			c.files[name] = src.file
		}
	}
}

// undefinedTemplates lists template references with no definition in the
// set, sorted, and which template referenced each.
func undefinedTemplates(t *template.Template) ([]string, map[string]string) {
	var missing []string
	from := map[string]string{}
	for _, tt := range t.Templates() {
		if tt.Tree == nil || tt.Tree.Root == nil {
			continue
		}
		walk(tt.Tree.Root, func(name string) {
			if t.Lookup(name) != nil && t.Lookup(name).Tree != nil {
				return
			}
			if _, seen := from[name]; seen {
				return
			}
			from[name] = tt.Name()
			missing = append(missing, name)
		})
	}
	sort.Strings(missing)
	return missing, from
}

// walk calls fn with the name of every {{template}} action under node.
func walk(node parse.Node, fn func(string)) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			walk(child, fn)
		}
	case *parse.TemplateNode:
		fn(n.Name)
	case *parse.IfNode:
		walk(n.List, fn)
		walk(n.ElseList, fn)
	case *parse.RangeNode:
		walk(n.List, fn)
		walk(n.ElseList, fn)
	case *parse.WithNode:
		walk(n.List, fn)
		walk(n.ElseList, fn)
	}
}

func (e *Engine) withSearch(rerr *Error, file string) *Error {
	rerr.File = file
	rerr.Searched = e.loader.Dirs()
	return rerr
}

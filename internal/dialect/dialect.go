// Package dialect describes the SQL engines the compiler can target.
//
// A Dialect is a read-only capability profile: whether the engine supports
// array aggregation, how it spells LIMIT-without-bound, the templates for
// regex, GROUP_CONCAT and local-name extraction, value casts, and the native
// rendering of SPARQL/XPath functions. Profiles are declared in CUE (see
// dialects.cue) and may be extended with user files via Load.
//
// Dialects are never mutated after Load returns, so one value may be shared
// by any number of concurrent compilations.
package dialect

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/sparqlsql/internal/valuetype"
)

// ErrUnknownFunction is returned by Registry.Lookup for URIs without a
// native rendering.
var ErrUnknownFunction = errors.New("unknown function")

// Registry resolves function URIs to native SQL renderings.
type Registry interface {
	// Supports reports whether uri may be translated natively.
	Supports(uri string) bool
	// Lookup returns the rendering for uri.
	Lookup(uri string) (*Function, error)
}

// Function is a native rendering of a function URI.
type Function struct {
	URI       string
	Returns   valuetype.ValueType
	Args      []valuetype.ValueType
	Template  string
	Variadic  bool
	Separator string
	Supported bool
}

// Accepts reports whether the function can be called with n arguments.
func (f *Function) Accepts(n int) bool {
	if f.Variadic {
		return n >= 1
	}
	return n == len(f.Args)
}

// ArgType is the value type the i-th argument is rendered as. Variadic
// functions repeat their last declared type.
func (f *Function) ArgType(i int) valuetype.ValueType {
	if len(f.Args) == 0 {
		return valuetype.String
	}
	if i >= len(f.Args) {
		return f.Args[len(f.Args)-1]
	}
	return f.Args[i]
}

// Render applies the template to already rendered argument expressions.
func (f *Function) Render(args []string) string {
	if f.Variadic {
		return fmt.Sprintf(f.Template, strings.Join(args, f.Separator))
	}
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a
	}
	return fmt.Sprintf(f.Template, vals...)
}

// Dialect is the capability profile of one SQL engine.
type Dialect struct {
	Name        string
	Driver      string
	Arrays      bool
	LimitAll    string
	Backslash   bool
	DateFormat  string
	Regex       string
	RegexNoCase string
	GroupConcat string
	LocalName   string
	Casts       map[valuetype.ValueType]string
	Functions   map[string]*Function
}

var _ Registry = (*Dialect)(nil)

// Supports reports whether uri has a native rendering marked supported.
func (d *Dialect) Supports(uri string) bool {
	f, ok := d.Functions[uri]
	return ok && f.Supported
}

// Lookup returns the native rendering of uri.
func (d *Dialect) Lookup(uri string) (*Function, error) {
	f, ok := d.Functions[uri]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", d.Name, ErrUnknownFunction, uri)
	}
	return f, nil
}

// Cast converts expr to t using the dialect's cast template; types without a
// template are returned unchanged.
func (d *Dialect) Cast(t valuetype.ValueType, expr string) string {
	if tmpl, ok := d.Casts[t]; ok {
		return fmt.Sprintf(tmpl, expr)
	}
	return expr
}

// LimitClause renders LIMIT/OFFSET; negative values are absent.
func (d *Dialect) LimitClause(limit, offset int64) string {
	switch {
	case limit >= 0 && offset > 0:
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	case limit >= 0:
		return fmt.Sprintf("LIMIT %d", limit)
	case offset > 0:
		return fmt.Sprintf("%s OFFSET %d", d.LimitAll, offset)
	}
	return ""
}

// RegexExpr renders a regex match; ok is false when the dialect has no
// template for the requested case sensitivity.
func (d *Dialect) RegexExpr(arg, pattern string, noCase bool) (string, bool) {
	tmpl := d.Regex
	if noCase {
		tmpl = d.RegexNoCase
	}
	if tmpl == "" {
		return "", false
	}
	return fmt.Sprintf(tmpl, arg, pattern), true
}

// GroupConcatExpr renders GROUP_CONCAT over arg with a rendered separator.
func (d *Dialect) GroupConcatExpr(arg, separator string) (string, bool) {
	if d.GroupConcat == "" {
		return "", false
	}
	return fmt.Sprintf(d.GroupConcat, arg, separator), true
}

// LocalNameExpr renders the local part of an IRI held in arg.
func (d *Dialect) LocalNameExpr(arg string) (string, bool) {
	if d.LocalName == "" {
		return "", false
	}
	return fmt.Sprintf(d.LocalName, arg), true
}

// Quote renders s as a SQL string literal.
func (d *Dialect) Quote(s string) string {
	if d.Backslash {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// FormatDate renders t in the layout date values are stored and compared in.
func (d *Dialect) FormatDate(t time.Time) string {
	layout := d.DateFormat
	if layout == "" {
		layout = "2006-01-02T15:04:05Z"
	}
	return t.UTC().Format(layout)
}

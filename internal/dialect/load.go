package dialect

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sparqlsql/internal/rdf"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

//go:embed dialects.cue
var builtinSource []byte

// LoadError reports an invalid dialect profile.
type LoadError struct {
	Dialect string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	if e.Dialect != "" {
		fmt.Fprintf(&b, "dialect %s: ", e.Dialect)
	}
	b.WriteString(e.Message)
	return b.String()
}

// Set is a collection of loaded dialects keyed by name.
type Set struct {
	dialects map[string]*Dialect
}

// Get returns the named dialect.
func (s *Set) Get(name string) (*Dialect, error) {
	d, ok := s.dialects[name]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %s)", name, strings.Join(s.Names(), ", "))
	}
	return d, nil
}

// Names returns the dialect names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.dialects))
	for n := range s.dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var builtin = sync.OnceValues(func() (*Set, error) { return Load() })

// Builtin returns the embedded sqlite, postgres and mysql profiles.
func Builtin() (*Set, error) {
	return builtin()
}

// Named returns a builtin dialect by name.
func Named(name string) (*Dialect, error) {
	set, err := Builtin()
	if err != nil {
		return nil, err
	}
	return set.Get(name)
}

// Load compiles the embedded profiles unified with the given CUE files.
// User files may reference #Dialect and #Function and add or refine
// entries under dialects.
func Load(files ...string) (*Set, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(builtinSource, cue.Filename("dialects.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read dialect file: %w", err)
		}
		u := ctx.CompileBytes(data, cue.Filename(path), cue.Scope(v))
		if err := u.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		v = v.Unify(u)
	}

	dv := v.LookupPath(cue.ParsePath("dialects"))
	if err := dv.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := dv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	set := &Set{dialects: map[string]*Dialect{}}
	for iter.Next() {
		d, err := decodeDialect(iter.Value())
		if err != nil {
			return nil, err
		}
		set.dialects[d.Name] = d
	}
	return set, nil
}

type rawFunction struct {
	Returns   string   `json:"returns"`
	Args      []string `json:"args"`
	Template  string   `json:"template"`
	Variadic  bool     `json:"variadic"`
	Separator string   `json:"separator"`
	Supported bool     `json:"supported"`
}

type rawDialect struct {
	Name        string                 `json:"name"`
	Driver      string                 `json:"driver"`
	Arrays      bool                   `json:"arrays"`
	LimitAll    string                 `json:"limitAll"`
	Backslash   bool                   `json:"backslashEscapes"`
	DateFormat  string                 `json:"dateFormat"`
	Regex       string                 `json:"regex"`
	RegexNoCase string                 `json:"regexNoCase"`
	GroupConcat string                 `json:"groupConcat"`
	LocalName   string                 `json:"localName"`
	Casts       map[string]string      `json:"casts"`
	Functions   map[string]rawFunction `json:"functions"`
}

func decodeDialect(v cue.Value) (*Dialect, error) {
	var raw rawDialect
	if err := v.Decode(&raw); err != nil {
		return nil, formatCUEError(err)
	}

	d := &Dialect{
		Name:        raw.Name,
		Driver:      raw.Driver,
		Arrays:      raw.Arrays,
		LimitAll:    raw.LimitAll,
		Backslash:   raw.Backslash,
		DateFormat:  raw.DateFormat,
		Regex:       raw.Regex,
		RegexNoCase: raw.RegexNoCase,
		GroupConcat: raw.GroupConcat,
		LocalName:   raw.LocalName,
		Casts:       map[valuetype.ValueType]string{},
		Functions:   map[string]*Function{},
	}

	for name, tmpl := range raw.Casts {
		t, err := valuetype.Parse(name)
		if err != nil {
			return nil, &LoadError{Dialect: d.Name, Message: err.Error(), Pos: v.Pos()}
		}
		d.Casts[t] = tmpl
	}

	for key, rf := range raw.Functions {
		uri := ExpandFunctionURI(key)
		f := &Function{
			URI:       uri,
			Template:  rf.Template,
			Variadic:  rf.Variadic,
			Separator: rf.Separator,
			Supported: rf.Supported,
		}
		var err error
		if f.Returns, err = valuetype.Parse(rf.Returns); err != nil {
			return nil, &LoadError{Dialect: d.Name, Message: fmt.Sprintf("function %s: %v", key, err), Pos: v.Pos()}
		}
		for _, a := range rf.Args {
			t, err := valuetype.Parse(a)
			if err != nil {
				return nil, &LoadError{Dialect: d.Name, Message: fmt.Sprintf("function %s: %v", key, err), Pos: v.Pos()}
			}
			f.Args = append(f.Args, t)
		}
		d.Functions[uri] = f
	}
	return d, nil
}

// ExpandFunctionURI turns a prefixed function key such as "fn:upper-case"
// into a full IRI. Full IRIs are returned unchanged.
func ExpandFunctionURI(key string) string {
	if strings.Contains(key, "://") {
		return key
	}
	if iri, ok := rdf.DefaultPrefixes.Expand(key); ok {
		return string(iri)
	}
	return key
}

func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	var pos token.Pos
	if positions := errors.Positions(first); len(positions) > 0 {
		pos = positions[0]
	}
	return &LoadError{Message: first.Error(), Pos: pos}
}

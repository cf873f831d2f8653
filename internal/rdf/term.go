package rdf

import (
	"fmt"
	"strings"
)

// Namespaces used throughout the compiler and the store.
const (
	XSD = "http://www.w3.org/2001/XMLSchema#"
	RDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	FN  = "http://www.w3.org/2005/xpath-functions#"
)

// XSD datatypes with a dedicated value column in the nodes table.
const (
	XSDString   IRI = XSD + "string"
	XSDInteger  IRI = XSD + "integer"
	XSDInt      IRI = XSD + "int"
	XSDLong     IRI = XSD + "long"
	XSDShort    IRI = XSD + "short"
	XSDByte     IRI = XSD + "byte"
	XSDDecimal  IRI = XSD + "decimal"
	XSDDouble   IRI = XSD + "double"
	XSDFloat    IRI = XSD + "float"
	XSDBoolean  IRI = XSD + "boolean"
	XSDDateTime IRI = XSD + "dateTime"
	XSDDate     IRI = XSD + "date"
	LangString  IRI = RDF + "langString"
)

// Term is an RDF term. The interface is sealed to this package.
type Term interface {
	termNode()
	// String renders the term in the syntax accepted by ParseTerm.
	String() string
}

// IRI is a named node.
type IRI string

func (IRI) termNode() {}

func (i IRI) String() string { return "<" + string(i) + ">" }

// LocalName returns the part of the IRI after the last '#', '/' or ':'.
func (i IRI) LocalName() string {
	s := string(i)
	if idx := strings.LastIndexAny(s, "#/:"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// BNode is a blank node identified by its label.
type BNode string

func (BNode) termNode() {}

func (b BNode) String() string { return "_:" + string(b) }

// Literal is an RDF literal.
type Literal struct {
	Lexical  string
	Datatype IRI
	Lang     string
}

func (Literal) termNode() {}

func (l Literal) String() string {
	quoted := `"` + escapeLexical(l.Lexical) + `"`
	switch {
	case l.Lang != "":
		return quoted + "@" + l.Lang
	case l.Datatype == "" || l.Datatype == XSDString:
		return quoted
	default:
		return quoted + "^^" + l.Datatype.String()
	}
}

// NewLiteral creates an xsd:string literal.
func NewLiteral(lexical string) Literal {
	return Literal{Lexical: lexical, Datatype: XSDString}
}

// NewLangLiteral creates a language-tagged literal with a canonical tag.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Datatype: LangString, Lang: CanonicalLang(lang)}
}

// NewTypedLiteral creates a literal of the given datatype.
func NewTypedLiteral(lexical string, datatype IRI) Literal {
	if datatype == "" {
		datatype = XSDString
	}
	return Literal{Lexical: lexical, Datatype: datatype}
}

// Equal reports whether two terms are the same RDF term.
func Equal(a, b Term) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

func escapeLexical(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}

func unescapeLexical(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("dangling escape in %q", s)
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '"', '\\', '\'':
			b.WriteByte(s[i])
		default:
			return "", fmt.Errorf("unknown escape \\%c in %q", s[i], s)
		}
	}
	return b.String(), nil
}

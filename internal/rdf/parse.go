package rdf

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Prefixes maps prefix labels to namespace IRIs.
type Prefixes map[string]string

// DefaultPrefixes are always available to ParseTerm.
var DefaultPrefixes = Prefixes{
	"xsd":  XSD,
	"rdf":  RDF,
	"fn":   FN,
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
	"foaf": "http://xmlns.com/foaf/0.1/",
}

// Expand resolves a prefixed name such as "foaf:name". The boolean is false
// when the prefix is unknown.
func (p Prefixes) Expand(name string) (IRI, bool) {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return "", false
	}
	if ns, ok := p[prefix]; ok {
		return IRI(ns + local), true
	}
	if ns, ok := DefaultPrefixes[prefix]; ok {
		return IRI(ns + local), true
	}
	return "", false
}

// IsVar reports whether s is a variable token ("?x" or "$x").
func IsVar(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) > 1 && (s[0] == '?' || s[0] == '$')
}

// ParseVar returns the variable name of a "?x" token.
func ParseVar(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !IsVar(s) {
		return "", fmt.Errorf("not a variable: %q", s)
	}
	return s[1:], nil
}

// ParseTerm parses the compact term syntax described in the package docs.
func ParseTerm(s string, prefixes Prefixes) (Term, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty term")
	}

	switch {
	case strings.HasPrefix(s, "<"):
		if !strings.HasSuffix(s, ">") {
			return nil, fmt.Errorf("unterminated IRI %q", s)
		}
		return IRI(s[1 : len(s)-1]), nil
	case strings.HasPrefix(s, "_:"):
		if len(s) == 2 {
			return nil, fmt.Errorf("empty blank node label")
		}
		return BNode(s[2:]), nil
	case strings.HasPrefix(s, `"`):
		return parseQuotedLiteral(s, prefixes)
	case s == "true" || s == "false":
		return NewTypedLiteral(s, XSDBoolean), nil
	case IsVar(s):
		return nil, fmt.Errorf("variable %q is not a term", s)
	}

	if lit, ok := parseNumber(s); ok {
		return lit, nil
	}
	if iri, ok := prefixes.Expand(s); ok {
		return iri, nil
	}
	return nil, fmt.Errorf("cannot parse term %q", s)
}

func parseQuotedLiteral(s string, prefixes Prefixes) (Term, error) {
	end := closingQuote(s)
	if end < 0 {
		return nil, fmt.Errorf("unterminated literal %q", s)
	}
	lexical, err := unescapeLexical(s[1:end])
	if err != nil {
		return nil, err
	}
	rest := s[end+1:]

	switch {
	case rest == "":
		return NewLiteral(lexical), nil
	case strings.HasPrefix(rest, "@"):
		if len(rest) == 1 {
			return nil, fmt.Errorf("empty language tag in %q", s)
		}
		return NewLangLiteral(lexical, rest[1:]), nil
	case strings.HasPrefix(rest, "^^"):
		dt, err := ParseTerm(rest[2:], prefixes)
		if err != nil {
			return nil, fmt.Errorf("datatype of %q: %w", s, err)
		}
		iri, ok := dt.(IRI)
		if !ok {
			return nil, fmt.Errorf("datatype of %q is not an IRI", s)
		}
		return NewTypedLiteral(lexical, iri), nil
	default:
		return nil, fmt.Errorf("unexpected %q after literal", rest)
	}
}

// closingQuote finds the index of the unescaped quote that ends the
// literal starting at s[0].
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func parseNumber(s string) (Literal, bool) {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewTypedLiteral(s, XSDInteger), true
	}
	if strings.ContainsAny(s, "eE") {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return NewTypedLiteral(s, XSDDouble), true
		}
		return Literal{}, false
	}
	if strings.Contains(s, ".") {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return NewTypedLiteral(s, XSDDecimal), true
		}
	}
	return Literal{}, false
}

// CanonicalLang returns the BCP 47 canonical form of a language tag. Tags
// that do not parse are lower-cased, which is what SPARQL's
// case-insensitive tag comparison needs anyway.
func CanonicalLang(tag string) string {
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	return t.String()
}

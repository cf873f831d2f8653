package rdf

import (
	"strings"
	"time"
)

// Node type tags stored in nodes.ntype.
const (
	TypeURI     = "uri"
	TypeBNode   = "bnode"
	TypeString  = "string"
	TypeInt     = "int"
	TypeDouble  = "double"
	TypeDate    = "date"
	TypeBoolean = "boolean"
)

// NodeType classifies t into the ntype tag used by the nodes table.
func NodeType(t Term) string {
	switch t := t.(type) {
	case IRI:
		return TypeURI
	case BNode:
		return TypeBNode
	case Literal:
		switch t.Datatype {
		case XSDInteger, XSDInt, XSDLong, XSDShort, XSDByte:
			return TypeInt
		case XSDDecimal, XSDDouble, XSDFloat:
			return TypeDouble
		case XSDDateTime, XSDDate:
			return TypeDate
		case XSDBoolean:
			return TypeBoolean
		}
	}
	return TypeString
}

// LiteralDatatype is the datatype stored for lit: rdf:langString for
// tagged literals, xsd:string when none is given.
func LiteralDatatype(lit Literal) IRI {
	switch {
	case lit.Lang != "":
		return LangString
	case lit.Datatype == "":
		return XSDString
	}
	return lit.Datatype
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02Z07:00",
	"2006-01-02",
}

// ParseDate parses the lexical form of an xsd:dateTime or xsd:date.
// Values without a zone are taken as UTC.
func ParseDate(lexical string) (time.Time, bool) {
	s := strings.TrimSpace(lexical)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sparqlsql/internal/rdf"
)

// nodeRow is the column encoding of one term.
type nodeRow struct {
	ntype  string
	svalue string
	ivalue sql.NullInt64
	dvalue sql.NullFloat64
	tvalue any
	bvalue sql.NullBool
	lang   sql.NullString
}

// lexical returns the NFC-normalised lexical form of t.
func lexical(t rdf.Term) string {
	switch t := t.(type) {
	case rdf.IRI:
		return norm.NFC.String(string(t))
	case rdf.BNode:
		return norm.NFC.String(string(t))
	case rdf.Literal:
		return norm.NFC.String(t.Lexical)
	}
	return ""
}

// marshalNode fills the typed value columns for t. Values that do not
// parse as their datatype are kept as svalue only.
func (s *Store) marshalNode(t rdf.Term) nodeRow {
	row := nodeRow{ntype: rdf.NodeType(t), svalue: lexical(t)}
	lit, ok := t.(rdf.Literal)
	if !ok {
		return row
	}
	if lit.Lang != "" {
		row.lang = sql.NullString{String: lit.Lang, Valid: true}
	}

	lex := strings.TrimSpace(row.svalue)
	switch row.ntype {
	case rdf.TypeInt:
		if i, err := strconv.ParseInt(lex, 10, 64); err == nil {
			row.ivalue = sql.NullInt64{Int64: i, Valid: true}
		}
		if f, err := strconv.ParseFloat(lex, 64); err == nil {
			row.dvalue = sql.NullFloat64{Float64: f, Valid: true}
		}
	case rdf.TypeDouble:
		if f, err := strconv.ParseFloat(lex, 64); err == nil {
			row.dvalue = sql.NullFloat64{Float64: f, Valid: true}
		}
	case rdf.TypeDate:
		if ts, ok := rdf.ParseDate(lex); ok {
			row.tvalue = s.dateValue(ts)
		}
	case rdf.TypeBoolean:
		switch lex {
		case "true", "1":
			row.bvalue = sql.NullBool{Bool: true, Valid: true}
		case "false", "0":
			row.bvalue = sql.NullBool{Bool: false, Valid: true}
		}
	}
	return row
}

// dateValue is how a timestamp is bound for the store's driver. SQLite
// has no date type, so dates are kept as text in the dialect's layout and
// compare lexically.
func (s *Store) dateValue(ts time.Time) any {
	if isSQLite(s.driver) {
		return s.dialect.FormatDate(ts)
	}
	return ts.UTC()
}

// unmarshalNode rebuilds a term from its stored columns. datatype is the
// already resolved ltype IRI for literals.
func unmarshalNode(ntype, svalue string, datatype rdf.IRI, lang sql.NullString) (rdf.Term, error) {
	switch ntype {
	case rdf.TypeURI:
		return rdf.IRI(svalue), nil
	case rdf.TypeBNode:
		return rdf.BNode(svalue), nil
	case rdf.TypeString, rdf.TypeInt, rdf.TypeDouble, rdf.TypeDate, rdf.TypeBoolean:
		if lang.Valid && lang.String != "" {
			return rdf.Literal{Lexical: svalue, Datatype: rdf.LangString, Lang: lang.String}, nil
		}
		return rdf.NewTypedLiteral(svalue, datatype), nil
	}
	return nil, fmt.Errorf("unknown node type %q", ntype)
}

// Package rdf defines the RDF terms stored in the triple store and
// referenced by algebra trees.
//
// Terms are immutable values:
//   - IRI: a named node
//   - BNode: a blank node label
//   - Literal: a lexical form with a datatype IRI and optional language tag
//
// Every literal carries a datatype. Simple literals are typed xsd:string and
// language-tagged literals are typed rdf:langString, as in RDF 1.1. This keeps
// the store's nodes table uniform: a literal row always references a
// datatype node.
//
// # Term Syntax
//
// ParseTerm accepts the compact syntax used by YAML algebra documents and
// data files:
//
//	?name               variable (returned by ParseVar, not ParseTerm)
//	<http://ex.org/a>   IRI
//	foaf:name           prefixed name, expanded with a Prefixes map
//	_:b0                blank node
//	"Bob"               xsd:string literal
//	"Bob"@en            language-tagged literal
//	"42"^^xsd:int       typed literal
//	42  4.5  4.5e1      xsd:integer, xsd:decimal, xsd:double
//	true  false         xsd:boolean
//
// Language tags are canonicalised with golang.org/x/text/language so that
// "EN-us" and "en-US" intern to the same node.
package rdf

// Package harness runs translation scenarios end to end.
//
// A scenario is a YAML file holding RDF data, an algebra tree and the
// expected outcome. Run loads the data into a fresh in-memory SQLite store,
// compiles the tree for the scenario's dialect, validates the SQL with
// sqlcheck and, for sqlite, executes it and compares the solutions:
//
//	name: adults
//	description: filter on a numeric literal reads dvalue
//	prefixes:
//	  ex: http://example.org/
//	data:
//	  - [ex:alice, foaf:age, 30]
//	  - [ex:bob, foaf:age, 12]
//	query:
//	  projection:
//	    vars: [p]
//	    arg:
//	      filter:
//	        condition: {gt: ["?a", 18]}
//	        arg:
//	          pattern: ["?p", "foaf:age", "?a"]
//	expect:
//	  native: true
//	  rows:
//	    - {p: "<http://example.org/alice>"}
//
// Rows render terms in rdf.ParseTerm syntax and compare as multisets unless
// ordered is set. Scenarios for postgres and mysql compile and grammar-check
// only.
package harness

// Package algebra provides the SPARQL algebra tree consumed by the SQL
// compiler.
//
// The tree is the engine-neutral logical plan of a SPARQL query: joins,
// optional joins, unions, projections, filters, grouping, ordering and
// slicing over statement patterns, plus the value expressions used by
// filters, extensions and aggregates.
//
// SEALED INTERFACES:
//
// TupleExpr and ValueExpr are sealed interfaces using the marker method
// pattern. Only types in this package implement them, so every consumer
// dispatches with an exhaustive type switch:
//
//	switch n := node.(type) {
//	case *StatementPattern:
//	    // append a pattern
//	case *LeftJoin:
//	    // open an optional fragment
//	default:
//	    // not translatable
//	}
//
// Adding a node kind is therefore a compile-time-checked change in every
// collector that needs to know about it.
//
// TREE SHAPE:
//
// A SELECT query usually arrives as
//
//	Slice(Distinct(Projection(Order(Extension(Group(<body>))))))
//
// where every modifier is optional and <body> is built from Join, LeftJoin,
// Union, Filter and StatementPattern nodes. Nested SELECTs appear as a
// Projection inside the body.
//
// Trees are read-only once built. Nothing in this module mutates a tree it
// was handed.
//
// YAML DOCUMENTS:
//
// Since SPARQL text parsing is not part of this module, trees are supplied
// as YAML documents (see DecodeYAML):
//
//	prefixes:
//	  ex: http://example.org/
//	query:
//	  projection:
//	    vars: [p, name]
//	    arg:
//	      filter:
//	        condition: {eq: ["?name", '"Bob"']}
//	        arg:
//	          pattern: ["?p", "foaf:name", "?name"]
package algebra

// Package store keeps RDF data in the relational layout the query compiler
// targets.
//
// # Tables
//
//   - nodes: one row per distinct term. ntype is one of uri, bnode, string,
//     int, double, date or boolean. svalue always holds the lexical form;
//     ivalue, dvalue, tvalue and bvalue hold the typed value where it
//     parses (every numeric literal fills dvalue). Literals always carry
//     ltype, the id of their datatype IRI, and lang for tagged strings.
//   - triples: subject, predicate, object and context reference nodes.
//     Deletes are soft: deleted is set and deletedAt stamped, and compiled
//     queries only read rows with deleted = false.
//
// Lexical forms are NFC-normalised with golang.org/x/text before they are
// stored or looked up, so canonically equivalent strings share one node.
//
// # Drivers
//
// sqlite3 (mattn/go-sqlite3), sqlite (modernc.org/sqlite), postgres
// (lib/pq) and mysql (go-sql-driver/mysql). Each has its own embedded
// schema under schema/. Queries are written with ? placeholders and
// rebound to $n for postgres.
package store

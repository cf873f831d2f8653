// Package collect holds the read-only feature collectors run over an
// algebra subtree before SQL is built.
//
// Every collector answers one structural question (what is the slice, is
// there a group, which variables need their value rather than their node
// id, ...) and never mutates the tree.
//
// SCOPE:
//
// A query scope ends at a nested Projection, a Union or an Exists. Those
// are compiled as separate subqueries, so their internal slices, groups and
// orderings belong to them and must not leak into the enclosing query. The
// scope root's own Projection is the exception: it is reached from the root
// only through Slice, Distinct, Reduced and Order nodes and is part of the
// scope.
//
// The support finder is the one collector that ignores scope: translation
// is all-or-nothing, so an unsupported construct anywhere below the root
// declines the whole tree.
package collect

// Package cst defines the read-only boundary with the external grammar
// engine. The mapper consumes concrete nodes exclusively through the Node
// interface, never through engine types, so the whole mapping layer can be
// exercised against in-memory trees.
package cst

// Node is an opaque handle on one concrete (grammar-level) syntax node. A
// concrete tree is borrowed for the duration of one mapping pass and never
// retained afterward; implementations are read-only.
type Node interface {
	// Kind returns the grammar-assigned kind tag, e.g. "class_declaration".
	Kind() string

	// ByteRange returns the [start, end) byte offsets into the source.
	ByteRange() (start, end uint)

	// NamedChildren returns the named children in source order. Anonymous
	// grammar tokens (punctuation, keywords) are not exposed; locally
	// significant token text is recovered from the source via ByteRange.
	NamedChildren() []Node

	// Field returns the named child occupying a grammar field slot, e.g.
	// the "name" of a function definition. ok is false when the production
	// has no such slot or it is empty.
	Field(name string) (node Node, ok bool)

	// IsError reports whether the engine flagged this node as an error
	// node during recovery from malformed input.
	IsError() bool

	// IsMissing reports whether the engine fabricated this node to
	// complete a truncated production.
	IsMissing() bool
}

// ErrorKind is the kind tag grammar engines assign to error nodes.
const ErrorKind = "ERROR"

package cst

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// sitterNode adapts a tree-sitter node to the Node boundary. The wrapped
// node stays valid only while the owning tree is alive; the facade keeps
// the tree for the duration of the pass.
type sitterNode struct {
	n sitter.Node
}

// FromSitter wraps a tree-sitter node for consumption by the mapper.
func FromSitter(n sitter.Node) Node {
	return sitterNode{n: n}
}

func (s sitterNode) Kind() string {
	return s.n.Type()
}

func (s sitterNode) ByteRange() (uint, uint) {
	return s.n.StartByte(), s.n.EndByte()
}

func (s sitterNode) NamedChildren() []Node {
	count := s.n.NamedChildCount()
	if count == 0 {
		return nil
	}

	children := make([]Node, 0, count)

	for idx := range count {
		children = append(children, sitterNode{n: s.n.NamedChild(idx)})
	}

	return children
}

func (s sitterNode) Field(name string) (Node, bool) {
	child := s.n.ChildByFieldName(name)
	if child.IsNull() {
		return nil, false
	}

	return sitterNode{n: child}, true
}

func (s sitterNode) IsError() bool {
	return s.n.IsError()
}

func (s sitterNode) IsMissing() bool {
	return s.n.IsMissing()
}

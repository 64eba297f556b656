// Package ast defines the typed PHP syntax tree produced by one mapping
// pass: the closed kind set, per-node fields, read-only traversal, and
// structural equality. Trees are built bottom-up and never mutated after
// the pass returns; rewrites build new trees.
package ast

import (
	"fmt"
	"strings"

	"github.com/celerrate/celerrate/pkg/phpast/pkg/span"
)

// Visibility is a member-access level. The zero value is Public, matching
// PHP's default when no modifier is written.
type Visibility int

// Access levels.
const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// Flags is a modifier bitset. Dialect-gated flags (Readonly) are only ever
// set when the active dialect permits the construct; under older dialects
// the mapper downgrades the flag and records a diagnostic instead.
type Flags uint16

// Modifier flags.
const (
	FlagReadonly Flags = 1 << iota
	FlagStatic
	FlagAbstract
	FlagFinal
	FlagPromoted
	FlagVariadic
	FlagByRef
	FlagNullsafe
	FlagSynthesized
	FlagBacked
)

// Has reports whether all bits in mask are set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

func (f Flags) String() string {
	names := []struct {
		flag Flags
		name string
	}{
		{FlagReadonly, "readonly"},
		{FlagStatic, "static"},
		{FlagAbstract, "abstract"},
		{FlagFinal, "final"},
		{FlagPromoted, "promoted"},
		{FlagVariadic, "variadic"},
		{FlagByRef, "byref"},
		{FlagNullsafe, "nullsafe"},
		{FlagSynthesized, "synthesized"},
		{FlagBacked, "backed"},
	}

	var parts []string

	for _, n := range names {
		if f.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}

	return strings.Join(parts, "|")
}

// Node is one vertex of the typed tree.
//
// Fields:
//
//	Kind: the stable node tag.
//	Span: source range, byte offsets plus 1-based line/col.
//	Name: declared or referenced identifier, when the kind has one.
//	Token: literal text, operator symbol, or raw source for leaves.
//	Operator: operator symbol for binary/unary/assignment kinds.
//	Visibility, Flags: member modifiers, meaningful for declarations.
//	Children: subtrees in source order; ordering is semantically
//	load-bearing (statement sequencing, parameter order).
type Node struct {
	Kind       Kind       `json:"kind"`
	Span       span.Span  `json:"span"`
	Name       string     `json:"name,omitempty"`
	Token      string     `json:"token,omitempty"`
	Operator   string     `json:"operator,omitempty"`
	Visibility Visibility `json:"visibility,omitempty"`
	Flags      Flags      `json:"flags,omitempty"`
	Children   []*Node    `json:"children,omitempty"`
}

// New returns a node of the given kind covering the given span.
func New(kind Kind, sp span.Span) *Node {
	return &Node{Kind: kind, Span: sp}
}

// Category returns the category of the node's kind.
func (n *Node) Category() Category {
	return CategoryOf(n.Kind)
}

// AddChild appends a child, preserving source order.
func (n *Node) AddChild(child *Node) {
	if child != nil {
		n.Children = append(n.Children, child)
	}
}

// AddChildren appends the given children in order, skipping nils.
func (n *Node) AddChildren(children ...*Node) {
	for _, child := range children {
		n.AddChild(child)
	}
}

// ChildrenOfKind returns the direct children with the given kind.
func (n *Node) ChildrenOfKind(kind Kind) []*Node {
	var out []*Node

	for _, child := range n.Children {
		if child.Kind == kind {
			out = append(out, child)
		}
	}

	return out
}

// FirstChild returns the first direct child with the given kind, or nil.
func (n *Node) FirstChild(kind Kind) *Node {
	for _, child := range n.Children {
		if child.Kind == kind {
			return child
		}
	}

	return nil
}

// Find returns every node in the subtree (including n) matching the
// predicate, in pre-order.
func (n *Node) Find(predicate func(*Node) bool) []*Node {
	if n == nil {
		return nil
	}

	var out []*Node

	n.VisitPreOrder(func(cur *Node) {
		if predicate(cur) {
			out = append(out, cur)
		}
	})

	return out
}

// VisitPreOrder visits the subtree root-first, children left to right.
// Iterative, so arbitrarily deep inputs cannot exhaust the goroutine stack.
func (n *Node) VisitPreOrder(fn func(*Node)) {
	if n == nil {
		return
	}

	stack := make([]*Node, 0, 32)
	stack = append(stack, n)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(cur)

		for idx := len(cur.Children) - 1; idx >= 0; idx-- {
			stack = append(stack, cur.Children[idx])
		}
	}
}

// PreOrder streams the subtree in pre-order. Each call starts a fresh
// traversal, so the sequence is restartable; the channel closes when the
// finite tree is exhausted.
func (n *Node) PreOrder() <-chan *Node {
	ch := make(chan *Node)

	go func() {
		defer close(ch)

		n.VisitPreOrder(func(cur *Node) {
			ch <- cur
		})
	}()

	return ch
}

// VisitPostOrder visits children left to right, then the node itself.
func (n *Node) VisitPostOrder(fn func(*Node)) {
	if n == nil {
		return
	}

	type frame struct {
		node    *Node
		visited bool
	}

	stack := make([]frame, 0, 32)
	stack = append(stack, frame{node: n})

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.visited {
			fn(top.node)

			stack = stack[:len(stack)-1]

			continue
		}

		top.visited = true

		for idx := len(top.node.Children) - 1; idx >= 0; idx-- {
			stack = append(stack, frame{node: top.node.Children[idx]})
		}
	}
}

// Ancestors returns the path from n down to the parent of target, or nil if
// target is not in the subtree. This is the upward-walk primitive: the tree
// stores no parent pointers, keeping nodes immutable and shareable.
func (n *Node) Ancestors(target *Node) []*Node {
	if n == nil || target == nil {
		return nil
	}

	type frame struct {
		node *Node
		path []*Node
	}

	stack := []frame{{node: n}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.node == target {
			return top.path
		}

		path := append(append([]*Node{}, top.path...), top.node)

		for idx := len(top.node.Children) - 1; idx >= 0; idx-- {
			stack = append(stack, frame{node: top.node.Children[idx], path: path})
		}
	}

	return nil
}

// Equal reports structural equality: kind, fields, and children must match
// recursively. Spans are excluded so formatting-only differences between
// two sources do not break comparisons.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}

	if n.Kind != other.Kind ||
		n.Name != other.Name ||
		n.Token != other.Token ||
		n.Operator != other.Operator ||
		n.Visibility != other.Visibility ||
		n.Flags != other.Flags ||
		len(n.Children) != len(other.Children) {
		return false
	}

	for idx, child := range n.Children {
		if !child.Equal(other.Children[idx]) {
			return false
		}
	}

	return true
}

// Transform returns a new tree where every node is replaced by fn applied
// to a copy with already-transformed children (post-order). The receiver is
// left untouched.
func (n *Node) Transform(fn func(*Node) *Node) *Node {
	if n == nil {
		return nil
	}

	copied := *n
	copied.Children = make([]*Node, 0, len(n.Children))

	for _, child := range n.Children {
		if next := child.Transform(fn); next != nil {
			copied.Children = append(copied.Children, next)
		}
	}

	return fn(&copied)
}

// CheckSpans verifies the span invariants over the whole subtree: every
// child span is contained in its parent's span, and sibling spans are
// non-overlapping and ordered by start offset. Zero-width synthesized
// spans are exempt from the sibling-ordering requirement since they are
// anchored at tokens that belong to a sibling. Returns the first violation
// found, or nil.
func (n *Node) CheckSpans() error {
	var err error

	n.VisitPreOrder(func(cur *Node) {
		if err != nil {
			return
		}

		err = checkNodeSpans(cur)
	})

	return err
}

func checkNodeSpans(cur *Node) error {
	var prev *Node

	for _, child := range cur.Children {
		if !cur.Span.Contains(child.Span) {
			return fmt.Errorf("ast: child span %s escapes parent %s (%s in %s)",
				child.Span, cur.Span, child.Kind, cur.Kind)
		}

		if child.Span.IsZeroWidth() {
			continue
		}

		if prev != nil {
			if child.Span.Start.Offset < prev.Span.Start.Offset {
				return fmt.Errorf("ast: sibling spans out of order (%s before %s)", child.Kind, prev.Kind)
			}

			if prev.Span.Overlaps(child.Span) {
				return fmt.Errorf("ast: sibling spans overlap (%s and %s)", prev.Kind, child.Kind)
			}
		}

		prev = child
	}

	return nil
}

// CountKind returns the number of nodes of the given kind in the subtree.
func (n *Node) CountKind(kind Kind) int {
	count := 0

	n.VisitPreOrder(func(cur *Node) {
		if cur.Kind == kind {
			count++
		}
	})

	return count
}

// String renders a compact single-line summary, mostly for test failures.
func (n *Node) String() string {
	if n == nil {
		return "nil"
	}

	var buf strings.Builder

	buf.WriteString(string(n.Kind))

	if n.Name != "" {
		fmt.Fprintf(&buf, "(%s)", n.Name)
	}

	if n.Operator != "" {
		fmt.Fprintf(&buf, "[%s]", n.Operator)
	}

	if n.Flags != 0 {
		fmt.Fprintf(&buf, "{%s}", n.Flags)
	}

	if len(n.Children) > 0 {
		fmt.Fprintf(&buf, "+%d", len(n.Children))
	}

	return buf.String()
}

// ToMap converts the subtree into a generic map form for JSON encoding.
func (n *Node) ToMap() map[string]any {
	if n == nil {
		return nil
	}

	out := map[string]any{
		"kind":     string(n.Kind),
		"category": n.Category().String(),
		"span": map[string]any{
			"start_offset": n.Span.Start.Offset,
			"start_line":   n.Span.Start.Line,
			"start_col":    n.Span.Start.Col,
			"end_offset":   n.Span.End.Offset,
			"end_line":     n.Span.End.Line,
			"end_col":      n.Span.End.Col,
		},
	}

	if n.Name != "" {
		out["name"] = n.Name
	}

	if n.Token != "" {
		out["token"] = n.Token
	}

	if n.Operator != "" {
		out["operator"] = n.Operator
	}

	if n.Category() == CategoryDeclaration {
		out["visibility"] = n.Visibility.String()
	}

	if n.Flags != 0 {
		out["flags"] = n.Flags.String()
	}

	if len(n.Children) > 0 {
		children := make([]map[string]any, len(n.Children))

		for idx, child := range n.Children {
			children[idx] = child.ToMap()
		}

		out["children"] = children
	}

	return out
}

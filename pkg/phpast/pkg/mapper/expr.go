package mapper

import (
	"strings"

	"github.com/celerrate/celerrate/pkg/phpast/pkg/ast"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/cst"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/dialect"
)

// mapInterpolated maps double-quoted and heredoc strings with embedded
// expressions. The raw text lands in Token; interpolated expressions become
// children, plain content segments do not.
func (p *pass) mapInterpolated(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	str := ast.New(ast.KindInterpolatedString, sp)
	str.Token = p.tracker.Text(sp)

	children, err := p.mapChildren(n, sc)
	if err != nil {
		return nil, err
	}

	str.AddChildren(children...)

	return one(str), nil
}

// mapArray maps array literals. list(...) destructuring canonicalizes to
// the same ArrayLit shape per the resolver, so both spellings compare equal
// structurally.
func (p *pass) mapArray(n cst.Node, sc scope) ([]*ast.Node, error) {
	if n.Kind() == "list_literal" && p.res.Resolve("list_destructuring") != dialect.CanonicalExpression {
		return p.mapUnknown(n, sc)
	}

	return p.mapSequence(n, ast.KindArrayLit, sc)
}

// mapArrayElement maps one array entry. A key => value pair becomes a
// KeyValue node; a bare value surfaces directly.
func (p *pass) mapArrayElement(n cst.Node, sc scope) ([]*ast.Node, error) {
	children, err := p.mapChildren(n, sc)
	if err != nil {
		return nil, err
	}

	if len(children) < 2 {
		return children, nil
	}

	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	pair := ast.New(ast.KindKeyValue, sp)
	pair.AddChildren(children...)

	return one(pair), nil
}

func (p *pass) mapSpread(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapSequence(n, ast.KindSpread, sc)
}

// mapVariable maps $x and $$x references. Name holds the identifier without
// the sigil; Token keeps the raw spelling.
func (p *pass) mapVariable(n cst.Node) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	variable := ast.New(ast.KindVariable, sp)
	variable.Token = p.textOf(n)
	variable.Name = strings.TrimLeft(variable.Token, "$")

	return one(variable), nil
}

func (p *pass) mapName(n cst.Node) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	name := ast.New(ast.KindName, sp)
	name.Name = p.textOf(n)

	return one(name), nil
}

// mapBinary maps an infix expression. The operator token is anonymous at
// the grammar boundary, so when the operator field is absent it is
// recovered from the source gap between the operands. Children map from the
// named-child list rather than the field slots so that error nodes the
// engine wedged between the operands still surface with their diagnostics.
func (p *pass) mapBinary(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	expr := ast.New(ast.KindBinaryExpr, sp)

	left, hasLeft := n.Field("left")
	right, hasRight := n.Field("right")
	op, hasOp := n.Field("operator")

	if hasOp {
		expr.Operator = p.textOf(op)
	} else if hasLeft && hasRight {
		expr.Operator = p.textBetween(left, right)
	}

	for _, child := range n.NamedChildren() {
		if hasOp && sameRange(child, op) {
			continue
		}

		mapped, err := p.mapNode(child, sc)
		if err != nil {
			return nil, err
		}

		expr.AddChildren(mapped...)
	}

	return one(expr), nil
}

// sameRange reports whether two concrete nodes cover the same byte range.
// The boundary exposes no node identity, so the range stands in for it.
func sameRange(a, b cst.Node) bool {
	aStart, aEnd := a.ByteRange()
	bStart, bEnd := b.ByteRange()

	return aStart == bStart && aEnd == bEnd
}

// mapUnary maps prefix and postfix single-operand expressions. The operator
// is whatever source text sits on the operand-free side of the node.
func (p *pass) mapUnary(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	expr := ast.New(ast.KindUnaryExpr, sp)

	children := n.NamedChildren()
	if len(children) == 0 {
		expr.Operator = strings.TrimSpace(p.textOf(n))

		return one(expr), nil
	}

	operand := children[0]

	nodeStart, nodeEnd := n.ByteRange()
	opStart, opEnd := operand.ByteRange()

	if prefix, err := p.tracker.SpanFor(nodeStart, opStart); err == nil {
		expr.Operator = strings.TrimSpace(p.tracker.Text(prefix))
	}

	if expr.Operator == "" {
		if suffix, err := p.tracker.SpanFor(opEnd, nodeEnd); err == nil {
			expr.Operator = strings.TrimSpace(p.tracker.Text(suffix))
		}
	}

	mapped, err := p.mapChildren(n, sc)
	if err != nil {
		return nil, err
	}

	expr.AddChildren(mapped...)

	return one(expr), nil
}

// mapAssign maps plain, by-reference, and compound assignments. Compound
// forms keep their full operator spelling ("+=", "??=") in Operator.
func (p *pass) mapAssign(n cst.Node, kind ast.Kind, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	expr := ast.New(kind, sp)

	left, hasLeft := n.Field("left")
	right, hasRight := n.Field("right")

	switch {
	case n.Kind() == "reference_assignment_expression":
		expr.Operator = "=&"
	case kind == ast.KindAssignExpr:
		expr.Operator = "="
	case hasLeft && hasRight:
		expr.Operator = p.textBetween(left, right)
	}

	// Map the named-child list, not just the field slots: a malformed
	// right-hand side can leave an error node between the operands.
	children, err := p.mapChildren(n, sc)
	if err != nil {
		return nil, err
	}

	expr.AddChildren(children...)

	return one(expr), nil
}

// mapMatch maps a match expression; arms hang directly off the MatchExpr
// since the body wrapper flattens.
func (p *pass) mapMatch(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	p.gate(dialect.ConstructMatchExpression, sp, "match expression")

	return p.mapSequence(n, ast.KindMatchExpr, sc)
}

// mapMatchArm maps one arm. A default arm has no condition children, only
// the result expression.
func (p *pass) mapMatchArm(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapSequence(n, ast.KindMatchArm, sc)
}

// mapCall maps plain, method, and static calls. An argument list holding a
// first-class-callable placeholder (f(...)) turns the whole expression into
// a CallableRefExpr instead.
func (p *pass) mapCall(n cst.Node, kind ast.Kind, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	if args, ok := n.Field("arguments"); ok && hasVariadicPlaceholder(args) {
		p.gate(dialect.ConstructFirstClassCallable, sp, "first-class callable")
		kind = ast.KindCallableRefExpr
	}

	expr := ast.New(kind, sp)

	if name, ok := n.Field("name"); ok {
		expr.Name = p.textOf(name)
	} else if callee, ok := n.Field("function"); ok {
		switch callee.Kind() {
		case "name", "qualified_name":
			expr.Name = p.textOf(callee)
		}
	}

	children, err := p.mapChildren(n, sc)
	if err != nil {
		return nil, err
	}

	expr.AddChildren(children...)

	return one(expr), nil
}

func hasVariadicPlaceholder(args cst.Node) bool {
	for _, child := range args.NamedChildren() {
		if child.Kind() == "variadic_placeholder" {
			return true
		}
	}

	return false
}

// mapNullsafe maps ?-> access and calls. The flag is only set when the
// dialect permits the construct; otherwise the expression maps plainly with
// a Warning recorded.
func (p *pass) mapNullsafe(n cst.Node, kind ast.Kind, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	var nodes []*ast.Node

	if kind == ast.KindMemberCallExpr {
		nodes, err = p.mapCall(n, kind, sc)
	} else {
		nodes, err = p.mapAccess(n, kind, sc)
	}

	if err != nil {
		return nil, err
	}

	if p.gate(dialect.ConstructNullsafeAccess, sp, "nullsafe operator") {
		first(nodes).Flags |= ast.FlagNullsafe
	}

	return nodes, nil
}

// mapAccess maps property, static-property, and class-constant access. The
// accessed member's spelling lands in Name.
func (p *pass) mapAccess(n cst.Node, kind ast.Kind, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	expr := ast.New(kind, sp)

	if name, ok := n.Field("name"); ok {
		expr.Name = strings.TrimPrefix(p.textOf(name), "$")
	}

	children, err := p.mapChildren(n, sc)
	if err != nil {
		return nil, err
	}

	expr.AddChildren(children...)

	return one(expr), nil
}

// mapArgument unwraps a call argument. Positional arguments surface as the
// inner expression; named arguments keep an Argument wrapper carrying the
// parameter name.
func (p *pass) mapArgument(n cst.Node, sc scope) ([]*ast.Node, error) {
	name, named := n.Field("name")

	if !named {
		return p.mapChildren(n, sc)
	}

	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	p.gate(dialect.ConstructNamedArgument, sp, "named argument")

	arg := ast.New(ast.KindArgument, sp)
	arg.Name = p.textOf(name)

	for _, child := range n.NamedChildren() {
		if child.Kind() == "name" {
			continue
		}

		value, err := p.mapNode(child, sc)
		if err != nil {
			return nil, err
		}

		arg.AddChildren(value...)
	}

	return one(arg), nil
}

// mapCast maps (int)$x style casts; the target type spelling lands in Name.
func (p *pass) mapCast(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	expr := ast.New(ast.KindCastExpr, sp)

	if typ, ok := n.Field("type"); ok {
		expr.Name = p.textOf(typ)
	}

	// The cast_type child is consumed above; mapChildren skips it and
	// surfaces the value plus any error nodes.
	children, err := p.mapChildren(n, sc)
	if err != nil {
		return nil, err
	}

	expr.AddChildren(children...)

	return one(expr), nil
}

// mapClosure maps anonymous functions: parameters, captured variables from
// the use clause, optional return type, body.
func (p *pass) mapClosure(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapFunctionLike(n, ast.KindClosureExpr, sc)
}

// mapArrowFn maps fn() => expr. The single-expression body surfaces as the
// last child.
func (p *pass) mapArrowFn(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	p.gate(dialect.ConstructArrowFunction, sp, "arrow function")

	return p.mapFunctionLike(n, ast.KindArrowFnExpr, sc)
}

func (p *pass) mapFunctionLike(n cst.Node, kind ast.Kind, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	expr := ast.New(kind, sp)

	for _, child := range n.NamedChildren() {
		switch child.Kind() {
		case "static_modifier":
			expr.Flags |= ast.FlagStatic
		case "reference_modifier":
			expr.Flags |= ast.FlagByRef
		default:
			mapped, err := p.mapNode(child, scope{enclosing: kind})
			if err != nil {
				return nil, err
			}

			expr.AddChildren(mapped...)
		}
	}

	return one(expr), nil
}

// mapIntrinsic maps keyword expressions (print, include, require) as calls
// with a fixed callee name.
func (p *pass) mapIntrinsic(n cst.Node, name string, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	expr := ast.New(ast.KindCallExpr, sp)
	expr.Name = name

	children, err := p.mapChildren(n, sc)
	if err != nil {
		return nil, err
	}

	expr.AddChildren(children...)

	return one(expr), nil
}

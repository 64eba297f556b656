// Package mapper transforms a concrete PHP syntax tree into the typed AST.
// The walk is depth-first and post-order: children are mapped first, then
// the current node is built from the mapped children plus locally extracted
// fields. Each grammar kind has exactly one rule; kinds the mapper does not
// recognize produce an Unknown placeholder and a diagnostic, never a
// failure, so trees from newer grammar versions degrade instead of crash.
package mapper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/celerrate/celerrate/pkg/phpast/pkg/ast"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/cst"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/diag"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/dialect"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/span"
)

// Sentinel errors. These are contract violations of the grammar engine, not
// recoverable input problems; they fail the whole pass.
var (
	ErrNilRoot        = errors.New("mapper: nil concrete root")
	ErrEngineContract = errors.New("mapper: concrete tree violates engine contract")
)

// Result is the outcome of one mapping pass.
type Result struct {
	Root        *ast.Node
	Diagnostics []diag.Diagnostic
	Dialect     dialect.Version
}

// Map runs one mapping pass over the concrete tree. The source buffer and
// concrete tree are borrowed only for the duration of the call; the
// returned AST and diagnostics are owned by the caller. Recoverable issues
// surface exclusively through Result.Diagnostics; a non-nil error means the
// concrete tree broke the engine contract and no AST was produced.
func Map(root cst.Node, src []byte, version dialect.Version) (*Result, error) {
	if root == nil {
		return nil, ErrNilRoot
	}

	p := &pass{
		src:     src,
		tracker: span.NewTracker(src),
		res:     dialect.NewResolver(version),
		sink:    diag.NewCollector(),
	}

	nodes, err := p.mapNode(root, scope{})
	if err != nil {
		return nil, err
	}

	file, err := p.intoFile(root, nodes)
	if err != nil {
		return nil, err
	}

	return &Result{
		Root:        file,
		Diagnostics: p.sink.List(),
		Dialect:     p.res.Version(),
	}, nil
}

// pass holds the per-invocation state threaded through the recursion.
// Nothing here survives the pass; concurrent passes share nothing mutable.
type pass struct {
	src     []byte
	tracker *span.Tracker
	res     *dialect.Resolver
	sink    *diag.Collector
}

// scope is the stack-local mapping context: the nearest enclosing
// declaration kind (distinguishes e.g. a class constant from a top-level
// one) and, inside class-likes, the sink receiving properties synthesized
// from promoted constructor parameters.
type scope struct {
	enclosing ast.Kind
	promoted  *[]*ast.Node
}

// inClassLike reports whether the current scope is a class, trait, or enum
// body. Interfaces cannot declare promoted constructors, so they keep a nil
// promoted sink.
func (sc scope) inClassLike() bool {
	switch sc.enclosing {
	case ast.KindClassDecl, ast.KindTraitDecl, ast.KindEnumDecl:
		return true
	default:
		return false
	}
}

// intoFile wraps the mapped top-level nodes into the File root. An empty
// source still yields a File so that map is total over valid inputs.
func (p *pass) intoFile(root cst.Node, nodes []*ast.Node) (*ast.Node, error) {
	if len(nodes) == 1 && nodes[0].Kind == ast.KindFile {
		return nodes[0], nil
	}

	sp, err := p.spanOf(root)
	if err != nil {
		return nil, err
	}

	file := ast.New(ast.KindFile, sp)
	file.AddChildren(nodes...)

	return file, nil
}

// mapNode is the dispatch point: one rule per grammar kind, an Unknown
// default arm, and error-node short-circuiting ahead of both. It returns
// zero, one, or many AST nodes for the given concrete node.
func (p *pass) mapNode(n cst.Node, sc scope) ([]*ast.Node, error) {
	if n.IsError() || n.Kind() == cst.ErrorKind {
		return p.mapBroken(n, diag.CodeSyntaxError, "syntax error")
	}

	if n.IsMissing() {
		return p.mapBroken(n, diag.CodeMissingNode, "missing %q inserted by the parser", n.Kind())
	}

	switch n.Kind() {
	case "program":
		return p.mapProgram(n, sc)
	case "php_tag", "empty_statement", "string_content", "escape_sequence", "variadic_placeholder":
		return nil, nil

	// Modifier and helper tokens consumed by the enclosing rule.
	case "visibility_modifier", "static_modifier", "abstract_modifier", "final_modifier",
		"readonly_modifier", "var_modifier", "reference_modifier", "cast_type":
		return nil, nil

	// Wrapper productions whose children surface directly.
	case "switch_block", "type_list", "match_block", "match_condition_list",
		"heredoc_body", "nowdoc_body", "declaration_list":
		return p.mapChildren(n, sc)

	case "heredoc_start", "heredoc_end":
		return nil, nil
	case "comment":
		return p.mapLeaf(n, ast.KindComment)
	case "text":
		return p.mapLeaf(n, ast.KindInlineHTML)
	case "text_interpolation":
		return p.mapChildren(n, sc)

	// Declarations.
	case "namespace_definition":
		return p.mapNamespace(n, sc)
	case "namespace_use_declaration":
		return p.mapUse(n)
	case "class_declaration":
		return p.mapClassLike(n, ast.KindClassDecl)
	case "interface_declaration":
		return p.mapClassLike(n, ast.KindInterfaceDecl)
	case "trait_declaration":
		return p.mapClassLike(n, ast.KindTraitDecl)
	case "enum_declaration":
		return p.mapEnum(n)
	case "enum_case":
		return p.mapEnumCase(n, sc)
	case "function_definition":
		return p.mapFunction(n, sc)
	case "method_declaration":
		return p.mapMethod(n, sc)
	case "property_declaration":
		return p.mapProperty(n, sc)
	case "const_declaration":
		return p.mapConst(n, sc)
	case "use_declaration":
		return p.mapTraitUse(n)
	case "formal_parameters":
		return p.mapChildren(n, sc)
	case "simple_parameter", "variadic_parameter":
		return p.mapParameter(n, sc)
	case "property_promotion_parameter":
		return p.mapPromotedParameter(n, sc)
	case "attribute_list":
		return p.mapAttributeList(n, sc)

	// Types.
	case "named_type", "primitive_type", "bottom_type":
		return p.mapTypeName(n)
	case "optional_type":
		return p.mapWrappedType(n, ast.KindNullableType, dialect.Construct(""))
	case "union_type":
		return p.mapCompositeType(n, ast.KindUnionType, dialect.ConstructUnionType)
	case "intersection_type":
		return p.mapCompositeType(n, ast.KindIntersectionType, dialect.ConstructIntersectionType)

	// Statements.
	case "compound_statement", "colon_block":
		return p.mapBlock(n, sc)
	case "if_statement":
		return p.mapIf(n, sc)
	case "else_if_clause":
		return p.mapIf(n, sc)
	case "else_clause":
		return p.mapElse(n, sc)
	case "while_statement":
		return p.mapCondLoop(n, ast.KindWhile, sc)
	case "do_statement":
		return p.mapCondLoop(n, ast.KindDoWhile, sc)
	case "for_statement":
		return p.mapSequence(n, ast.KindFor, sc)
	case "foreach_statement":
		return p.mapSequence(n, ast.KindForeach, sc)
	case "switch_statement":
		return p.mapSwitch(n, sc)
	case "case_statement", "default_statement":
		return p.mapCase(n, sc)
	case "break_statement":
		return p.mapSequence(n, ast.KindBreak, sc)
	case "continue_statement":
		return p.mapSequence(n, ast.KindContinue, sc)
	case "return_statement":
		return p.mapSequence(n, ast.KindReturn, sc)
	case "echo_statement":
		return p.mapSequence(n, ast.KindEcho, sc)
	case "global_declaration":
		return p.mapSequence(n, ast.KindGlobal, sc)
	case "function_static_declaration":
		return p.mapSequence(n, ast.KindStaticVar, sc)
	case "static_variable_declaration":
		elem, err := p.mapDeclElement(n, sc)
		if err != nil {
			return nil, err
		}

		return one(elem), nil
	case "unset_statement":
		return p.mapSequence(n, ast.KindUnset, sc)
	case "try_statement":
		return p.mapTry(n, sc)
	case "catch_clause":
		return p.mapCatch(n, sc)
	case "finally_clause":
		return p.mapFinally(n, sc)
	case "expression_statement":
		return p.mapExprStmt(n, sc)

	// Expressions.
	case "parenthesized_expression":
		return p.mapChildren(n, sc)
	case "integer":
		return p.mapLeaf(n, ast.KindIntLit)
	case "float":
		return p.mapLeaf(n, ast.KindFloatLit)
	case "string":
		return p.mapLeaf(n, ast.KindStringLit)
	case "encapsed_string", "heredoc", "nowdoc":
		return p.mapInterpolated(n, sc)
	case "boolean":
		return p.mapLeaf(n, ast.KindBoolLit)
	case "null":
		return p.mapLeaf(n, ast.KindNullLit)
	case "array_creation_expression", "list_literal":
		return p.mapArray(n, sc)
	case "array_element_initializer", "pair":
		return p.mapArrayElement(n, sc)
	case "by_ref":
		return p.mapUnary(n, sc)
	case "variadic_unpacking", "spread_element":
		return p.mapSpread(n, sc)
	case "variable_name", "dynamic_variable_name":
		return p.mapVariable(n)
	case "name", "qualified_name", "relative_scope":
		return p.mapName(n)
	case "binary_expression":
		return p.mapBinary(n, sc)
	case "unary_op_expression", "update_expression", "error_suppression_expression", "clone_expression":
		return p.mapUnary(n, sc)
	case "assignment_expression", "reference_assignment_expression":
		return p.mapAssign(n, ast.KindAssignExpr, sc)
	case "augmented_assignment_expression":
		return p.mapAssign(n, ast.KindAugAssignExpr, sc)
	case "conditional_expression":
		return p.mapSequence(n, ast.KindTernaryExpr, sc)
	case "match_expression":
		return p.mapMatch(n, sc)
	case "match_conditional_expression", "match_default_expression":
		return p.mapMatchArm(n, sc)
	case "function_call_expression":
		return p.mapCall(n, ast.KindCallExpr, sc)
	case "member_call_expression":
		return p.mapCall(n, ast.KindMemberCallExpr, sc)
	case "nullsafe_member_call_expression":
		return p.mapNullsafe(n, ast.KindMemberCallExpr, sc)
	case "scoped_call_expression":
		return p.mapCall(n, ast.KindStaticCallExpr, sc)
	case "object_creation_expression":
		return p.mapSequence(n, ast.KindNewExpr, sc)
	case "arguments":
		return p.mapChildren(n, sc)
	case "argument":
		return p.mapArgument(n, sc)
	case "member_access_expression":
		return p.mapAccess(n, ast.KindMemberAccessExpr, sc)
	case "nullsafe_member_access_expression":
		return p.mapNullsafe(n, ast.KindMemberAccessExpr, sc)
	case "scoped_property_access_expression":
		return p.mapAccess(n, ast.KindStaticPropExpr, sc)
	case "class_constant_access_expression":
		return p.mapAccess(n, ast.KindClassConstExpr, sc)
	case "subscript_expression":
		return p.mapSequence(n, ast.KindIndexExpr, sc)
	case "cast_expression":
		return p.mapCast(n, sc)
	case "anonymous_function", "anonymous_function_creation_expression":
		return p.mapClosure(n, sc)
	case "arrow_function":
		return p.mapArrowFn(n, sc)
	case "anonymous_function_use_clause":
		return p.mapChildren(n, sc)
	case "throw_expression":
		return p.mapSequence(n, ast.KindThrowExpr, sc)
	case "yield_expression":
		return p.mapSequence(n, ast.KindYieldExpr, sc)
	case "print_intrinsic":
		return p.mapIntrinsic(n, "print", sc)
	case "include_expression":
		return p.mapIntrinsic(n, "include", sc)
	case "include_once_expression":
		return p.mapIntrinsic(n, "include_once", sc)
	case "require_expression":
		return p.mapIntrinsic(n, "require", sc)
	case "require_once_expression":
		return p.mapIntrinsic(n, "require_once", sc)

	default:
		return p.mapUnknown(n, sc)
	}
}

// mapProgram maps the root production. Top-level statements become the
// children of the File node built by intoFile.
func (p *pass) mapProgram(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	file := ast.New(ast.KindFile, sp)

	children, err := p.mapChildren(n, sc)
	if err != nil {
		return nil, err
	}

	file.AddChildren(children...)

	return one(file), nil
}

// mapChildren maps every named child and concatenates the results,
// preserving source order.
func (p *pass) mapChildren(n cst.Node, sc scope) ([]*ast.Node, error) {
	var out []*ast.Node

	for _, child := range n.NamedChildren() {
		mapped, err := p.mapNode(child, sc)
		if err != nil {
			return nil, err
		}

		out = append(out, mapped...)
	}

	return out, nil
}

// mapBroken maps an engine-reported error or missing node to an Unknown
// placeholder. The span is preserved, an Error diagnostic is recorded, and
// mapping of siblings continues: one malformed statement never aborts the
// rest of the file.
func (p *pass) mapBroken(n cst.Node, code diag.Code, format string, args ...any) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	p.sink.Errorf(code, sp, format, args...)

	return one(ast.New(ast.KindUnknown, sp)), nil
}

// mapUnknown is the forward-compatibility arm: a grammar kind without a
// rule (e.g. from a newer grammar than this build) becomes an Unknown
// placeholder with its children mapped best-effort underneath.
func (p *pass) mapUnknown(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	p.sink.Warnf(diag.CodeUnknownKind, sp, "no mapping rule for grammar kind %q", n.Kind())

	unknown := ast.New(ast.KindUnknown, sp)

	children, err := p.mapChildren(n, sc)
	if err != nil {
		return nil, err
	}

	unknown.AddChildren(children...)

	return one(unknown), nil
}

// mapLeaf maps a node whose entire source text is its value.
func (p *pass) mapLeaf(n cst.Node, kind ast.Kind) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	leaf := ast.New(kind, sp)
	leaf.Token = p.tracker.Text(sp)

	return one(leaf), nil
}

// spanOf resolves a concrete node's byte range. Failures here mean the
// engine handed us offsets outside its own buffer, which fails the pass.
func (p *pass) spanOf(n cst.Node) (span.Span, error) {
	start, end := n.ByteRange()

	sp, err := p.tracker.SpanFor(start, end)
	if err != nil {
		return span.Span{}, fmt.Errorf("%w: %s node: %v", ErrEngineContract, n.Kind(), err)
	}

	return sp, nil
}

// textOf returns the raw source text of a concrete node.
func (p *pass) textOf(n cst.Node) string {
	start, end := n.ByteRange()

	sp, err := p.tracker.SpanFor(start, end)
	if err != nil {
		return ""
	}

	return p.tracker.Text(sp)
}

// textBetween returns the trimmed source text separating two concrete
// nodes. Operator symbols live in anonymous tokens the boundary does not
// expose, so they are recovered from the gap between the operands.
func (p *pass) textBetween(left, right cst.Node) string {
	_, leftEnd := left.ByteRange()
	rightStart, _ := right.ByteRange()

	if rightStart < leftEnd {
		return ""
	}

	sp, err := p.tracker.SpanFor(leftEnd, rightStart)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(p.tracker.Text(sp))
}

// one wraps a single node into the multi-node rule result shape.
func one(n *ast.Node) []*ast.Node {
	return []*ast.Node{n}
}

// first returns the only node of a rule result, or nil for empty results.
func first(nodes []*ast.Node) *ast.Node {
	if len(nodes) == 0 {
		return nil
	}

	return nodes[0]
}

// mapField maps the concrete node in a grammar field slot, returning nil
// when the slot is empty.
func (p *pass) mapField(n cst.Node, name string, sc scope) (*ast.Node, error) {
	child, ok := n.Field(name)
	if !ok {
		return nil, nil
	}

	mapped, err := p.mapNode(child, sc)
	if err != nil {
		return nil, err
	}

	return first(mapped), nil
}

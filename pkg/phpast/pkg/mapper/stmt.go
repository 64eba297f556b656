package mapper

import (
	"github.com/celerrate/celerrate/pkg/phpast/pkg/ast"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/cst"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/dialect"
)

// mapSequence is the workhorse statement rule: a node of the given kind
// whose children are the mapped named children in source order. Most
// statement productions need nothing more because their grammar children
// already appear in canonical order.
func (p *pass) mapSequence(n cst.Node, kind ast.Kind, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	node := ast.New(kind, sp)

	children, err := p.mapChildren(n, sc)
	if err != nil {
		return nil, err
	}

	node.AddChildren(children...)

	return one(node), nil
}

// mapBlock maps both body spellings to the same Block kind. The colon form
// (if/endif, foreach/endforeach) canonicalizes per the resolver so the two
// spellings produce structurally identical subtrees.
func (p *pass) mapBlock(n cst.Node, sc scope) ([]*ast.Node, error) {
	if n.Kind() == "colon_block" && p.res.Resolve("alternative_block") != dialect.CanonicalBlock {
		return p.mapUnknown(n, sc)
	}

	return p.mapSequence(n, ast.KindBlock, sc)
}

// mapIf maps if statements and elseif clauses alike: condition, body, then
// any alternative clauses, each a child in source order.
func (p *pass) mapIf(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapSequence(n, ast.KindIf, sc)
}

func (p *pass) mapElse(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapSequence(n, ast.KindElse, sc)
}

func (p *pass) mapCondLoop(n cst.Node, kind ast.Kind, sc scope) ([]*ast.Node, error) {
	return p.mapSequence(n, kind, sc)
}

// mapSwitch maps a switch statement; the switch_block wrapper flattens so
// Case nodes hang directly off the Switch.
func (p *pass) mapSwitch(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapSequence(n, ast.KindSwitch, sc)
}

// mapCase maps case and default arms. A default arm is a Case with no
// leading value expression.
func (p *pass) mapCase(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapSequence(n, ast.KindCase, sc)
}

func (p *pass) mapTry(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapSequence(n, ast.KindTry, sc)
}

// mapCatch maps a catch clause: caught types (a multi-catch flattens into
// several type children), then the optional binding variable, then the body.
func (p *pass) mapCatch(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapSequence(n, ast.KindCatch, sc)
}

func (p *pass) mapFinally(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapSequence(n, ast.KindFinally, sc)
}

func (p *pass) mapExprStmt(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapSequence(n, ast.KindExprStmt, sc)
}

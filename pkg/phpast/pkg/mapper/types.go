package mapper

import (
	"github.com/celerrate/celerrate/pkg/phpast/pkg/ast"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/cst"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/dialect"
)

// mapTypeName maps a simple type reference. "never" is the only simple
// type that is dialect-gated.
func (p *pass) mapTypeName(n cst.Node) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	name := ast.New(ast.KindTypeName, sp)
	name.Name = p.textOf(n)

	if name.Name == "never" {
		p.gate(dialect.ConstructNeverType, sp, "never return type")
	}

	return one(name), nil
}

// mapWrappedType maps a single-child type wrapper such as ?T.
func (p *pass) mapWrappedType(n cst.Node, kind ast.Kind, c dialect.Construct) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	if c != "" {
		p.gate(c, sp, string(kind))
	}

	return p.mapSequence(n, kind, scope{})
}

// mapCompositeType maps union and intersection types. A union holding an
// intersection member is the 8.2 DNF form and gates separately.
func (p *pass) mapCompositeType(n cst.Node, kind ast.Kind, c dialect.Construct) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	what := "union type"
	if kind == ast.KindIntersectionType {
		what = "intersection type"
	}

	p.gate(c, sp, what)

	if kind == ast.KindUnionType {
		for _, child := range n.NamedChildren() {
			if child.Kind() == "intersection_type" {
				p.gate(dialect.ConstructDNFType, sp, "disjunctive normal form type")

				break
			}
		}
	}

	return p.mapSequence(n, kind, scope{})
}

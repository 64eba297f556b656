package mapper

import (
	"strings"

	"github.com/celerrate/celerrate/pkg/phpast/pkg/ast"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/cst"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/diag"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/dialect"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/span"
)

// gate checks one dialect-gated construct. When the active dialect rejects
// it the mapper records a Warning and returns false; the caller then maps
// the construct without the gated behavior instead of dropping it.
func (p *pass) gate(c dialect.Construct, at span.Span, what string) bool {
	if p.res.Enabled(c) {
		return true
	}

	minv, _ := dialect.MinVersion(c)
	p.sink.Warnf(diag.CodeConstructDisabled, at,
		"%s requires PHP %s, active dialect is %s", what, minv, p.res.Version())

	return false
}

// modifiers is the scanned modifier set of one declaration. The readonly
// modifier is reported separately because its gating depends on what it
// modifies (property vs class).
type modifiers struct {
	visibility ast.Visibility
	flags      ast.Flags
	visNode    cst.Node
	roNode     cst.Node
}

// scanModifiers walks a declaration's named children and extracts the
// modifier tokens. Duplicate modifiers record a diagnostic and keep the
// first occurrence.
func (p *pass) scanModifiers(n cst.Node) (modifiers, error) {
	var (
		mods    modifiers
		seenVis bool
	)

	for _, child := range n.NamedChildren() {
		switch child.Kind() {
		case "visibility_modifier":
			if seenVis {
				sp, err := p.spanOf(child)
				if err != nil {
					return modifiers{}, err
				}

				p.sink.Warnf(diag.CodeDuplicateModifier, sp, "duplicate visibility modifier %q", p.textOf(child))

				continue
			}

			seenVis = true
			mods.visNode = child
			text := p.textOf(child)

			// 8.4 asymmetric visibility is written "private(set)"; the base
			// level still applies to reads.
			if idx := strings.IndexByte(text, '('); idx >= 0 {
				sp, err := p.spanOf(child)
				if err != nil {
					return modifiers{}, err
				}

				p.gate(dialect.ConstructAsymmetricVisibility, sp, "asymmetric visibility")
				text = text[:idx]
			}

			switch text {
			case "protected":
				mods.visibility = ast.Protected
			case "private":
				mods.visibility = ast.Private
			default:
				mods.visibility = ast.Public
			}
		case "static_modifier":
			mods.flags |= ast.FlagStatic
		case "abstract_modifier":
			mods.flags |= ast.FlagAbstract
		case "final_modifier":
			mods.flags |= ast.FlagFinal
		case "readonly_modifier":
			mods.roNode = child
		case "var_modifier":
			// Legacy "var" means public.
		}
	}

	return mods, nil
}

// mapNamespace maps a namespace definition. Both the braced and the
// file-scoped form produce a NamespaceDecl; the braced body surfaces as a
// Block child.
func (p *pass) mapNamespace(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	decl := ast.New(ast.KindNamespaceDecl, sp)

	if name, ok := n.Field("name"); ok {
		decl.Name = p.textOf(name)
	}

	body, err := p.mapField(n, "body", sc)
	if err != nil {
		return nil, err
	}

	decl.AddChild(body)

	return one(decl), nil
}

// mapUse maps a top-level use import. Each clause becomes a Name child; an
// alias, when present, lands in the child's Token.
func (p *pass) mapUse(n cst.Node) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	decl := ast.New(ast.KindUseDecl, sp)

	for _, clause := range n.NamedChildren() {
		if clause.Kind() != "namespace_use_clause" {
			continue
		}

		clauseSpan, err := p.spanOf(clause)
		if err != nil {
			return nil, err
		}

		name := ast.New(ast.KindName, clauseSpan)

		for _, part := range clause.NamedChildren() {
			switch part.Kind() {
			case "name", "qualified_name":
				name.Name = p.textOf(part)
			case "namespace_aliasing_clause":
				name.Token = strings.TrimSpace(strings.TrimPrefix(p.textOf(part), "as"))
			}
		}

		decl.AddChild(name)
	}

	if decl.Name == "" && len(decl.Children) > 0 {
		decl.Name = decl.Children[0].Name
	}

	return one(decl), nil
}

// mapClassLike maps class, interface, and trait declarations. Heritage
// clauses surface as Name children tagged extends/implements in Token;
// members follow in source order, and properties synthesized from promoted
// constructor parameters are appended last with zero-width spans.
func (p *pass) mapClassLike(n cst.Node, kind ast.Kind) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	decl := ast.New(kind, sp)

	mods, err := p.scanModifiers(n)
	if err != nil {
		return nil, err
	}

	decl.Flags = mods.flags

	if mods.roNode != nil {
		roSpan, err := p.spanOf(mods.roNode)
		if err != nil {
			return nil, err
		}

		if p.gate(dialect.ConstructReadonlyClass, roSpan, "readonly class") {
			decl.Flags |= ast.FlagReadonly
		}
	}

	if name, ok := n.Field("name"); ok {
		decl.Name = p.textOf(name)
	}

	var promoted []*ast.Node

	bodyScope := scope{enclosing: kind}
	if kind != ast.KindInterfaceDecl {
		bodyScope.promoted = &promoted
	}

	for _, child := range n.NamedChildren() {
		switch child.Kind() {
		case "attribute_list":
			attrs, err := p.mapAttributeList(child, scope{enclosing: kind})
			if err != nil {
				return nil, err
			}

			decl.AddChildren(attrs...)
		case "base_clause", "class_interface_clause":
			names, err := p.mapHeritage(child)
			if err != nil {
				return nil, err
			}

			decl.AddChildren(names...)
		case "declaration_list", "enum_declaration_list":
			members, err := p.mapChildren(child, bodyScope)
			if err != nil {
				return nil, err
			}

			decl.AddChildren(members...)
		}
	}

	decl.AddChildren(promoted...)

	return one(decl), nil
}

// mapHeritage maps an extends or implements clause into tagged Name nodes.
func (p *pass) mapHeritage(clause cst.Node) ([]*ast.Node, error) {
	tag := "extends"
	if clause.Kind() == "class_interface_clause" {
		tag = "implements"
	}

	var out []*ast.Node

	for _, child := range clause.NamedChildren() {
		switch child.Kind() {
		case "name", "qualified_name":
			sp, err := p.spanOf(child)
			if err != nil {
				return nil, err
			}

			name := ast.New(ast.KindName, sp)
			name.Name = p.textOf(child)
			name.Token = tag
			out = append(out, name)
		}
	}

	return out, nil
}

// mapEnum maps an enum declaration. Under dialects before 8.1 the enum is
// still mapped so downstream consumers see its members; the mismatch is a
// Warning, not a hole in the tree.
func (p *pass) mapEnum(n cst.Node) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	p.gate(dialect.ConstructEnum, sp, "enum declaration")

	nodes, err := p.mapClassLike(n, ast.KindEnumDecl)
	if err != nil {
		return nil, err
	}

	decl := first(nodes)

	// A backing type (": string") is a bare type child between the name and
	// the body. It slots in after any attributes and heritage names so the
	// children stay in source order.
	for _, child := range n.NamedChildren() {
		switch child.Kind() {
		case "primitive_type", "named_type":
			backing, err := p.mapNode(child, scope{enclosing: ast.KindEnumDecl})
			if err != nil {
				return nil, err
			}

			decl.Flags |= ast.FlagBacked

			at := 0
			for at < len(decl.Children) {
				k := decl.Children[at].Kind
				if k != ast.KindAttribute && k != ast.KindName {
					break
				}

				at++
			}

			rest := append([]*ast.Node{first(backing)}, decl.Children[at:]...)
			decl.Children = append(decl.Children[:at:at], rest...)
		}
	}

	return one(decl), nil
}

// mapEnumCase maps one enum case; backed cases carry their value expression
// as the sole child.
func (p *pass) mapEnumCase(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	decl := ast.New(ast.KindEnumCase, sp)

	if name, ok := n.Field("name"); ok {
		decl.Name = p.textOf(name)
	}

	value, err := p.mapField(n, "value", sc)
	if err != nil {
		return nil, err
	}

	decl.AddChild(value)

	return one(decl), nil
}

// mapFunction maps a named function definition: parameters, optional return
// type, body Block.
func (p *pass) mapFunction(n cst.Node, sc scope) ([]*ast.Node, error) {
	return p.mapCallable(n, ast.KindFunctionDecl, sc, nil)
}

// mapMethod maps a class-like member function. Constructor parameter lists
// get the enclosing class's promotion sink so promoted parameters can
// synthesize their properties.
func (p *pass) mapMethod(n cst.Node, sc scope) ([]*ast.Node, error) {
	var promoted *[]*ast.Node

	if name, ok := n.Field("name"); ok && p.textOf(name) == "__construct" {
		promoted = sc.promoted
	}

	return p.mapCallable(n, ast.KindMethodDecl, sc, promoted)
}

// mapCallable is the shared function/method rule.
func (p *pass) mapCallable(n cst.Node, kind ast.Kind, sc scope, promoted *[]*ast.Node) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	decl := ast.New(kind, sp)

	mods, err := p.scanModifiers(n)
	if err != nil {
		return nil, err
	}

	decl.Flags = mods.flags
	decl.Visibility = mods.visibility

	if name, ok := n.Field("name"); ok {
		decl.Name = p.textOf(name)
	}

	for _, child := range n.NamedChildren() {
		if child.Kind() == "reference_modifier" {
			decl.Flags |= ast.FlagByRef
		}

		if child.Kind() == "attribute_list" {
			attrs, err := p.mapAttributeList(child, sc)
			if err != nil {
				return nil, err
			}

			decl.AddChildren(attrs...)
		}
	}

	if params, ok := n.Field("parameters"); ok {
		mapped, err := p.mapChildren(params, scope{enclosing: kind, promoted: promoted})
		if err != nil {
			return nil, err
		}

		decl.AddChildren(mapped...)
	}

	ret, err := p.mapField(n, "return_type", scope{enclosing: kind})
	if err != nil {
		return nil, err
	}

	decl.AddChild(ret)

	body, err := p.mapField(n, "body", scope{enclosing: kind})
	if err != nil {
		return nil, err
	}

	decl.AddChild(body)

	return one(decl), nil
}

// mapParameter maps a plain or variadic parameter: optional type child,
// then the default-value expression when present.
func (p *pass) mapParameter(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	param := ast.New(ast.KindParam, sp)

	if n.Kind() == "variadic_parameter" {
		param.Flags |= ast.FlagVariadic
	}

	for _, child := range n.NamedChildren() {
		if child.Kind() == "reference_modifier" {
			param.Flags |= ast.FlagByRef
		}
	}

	if name, ok := n.Field("name"); ok {
		param.Name = strings.TrimPrefix(p.textOf(name), "$")
	}

	typ, err := p.mapField(n, "type", sc)
	if err != nil {
		return nil, err
	}

	param.AddChild(typ)

	def, err := p.mapField(n, "default_value", sc)
	if err != nil {
		return nil, err
	}

	param.AddChild(def)

	return one(param), nil
}

// mapPromotedParameter maps a constructor-promoted parameter. Two nodes
// come out of one grammar node: the Param in the parameter list and a
// synthesized PropertyDecl pushed to the enclosing class, anchored at the
// visibility modifier with a zero-width span. Both carry the same
// visibility and the same (possibly downgraded) readonly flag, so a
// rejected readonly modifier yields exactly one diagnostic.
func (p *pass) mapPromotedParameter(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	param := ast.New(ast.KindParam, sp)

	mods, err := p.scanModifiers(n)
	if err != nil {
		return nil, err
	}

	param.Visibility = mods.visibility

	if name, ok := n.Field("name"); ok {
		param.Name = strings.TrimPrefix(p.textOf(name), "$")
	}

	promote := p.gate(dialect.ConstructPromotedProperty, sp, "constructor property promotion")

	readonly := false

	if mods.roNode != nil {
		roSpan, err := p.spanOf(mods.roNode)
		if err != nil {
			return nil, err
		}

		readonly = p.gate(dialect.ConstructReadonlyProperty, roSpan, "readonly property")
	}

	if readonly {
		param.Flags |= ast.FlagReadonly
	}

	typ, err := p.mapField(n, "type", sc)
	if err != nil {
		return nil, err
	}

	param.AddChild(typ)

	def, err := p.mapField(n, "default_value", sc)
	if err != nil {
		return nil, err
	}

	param.AddChild(def)

	if !promote || sc.promoted == nil {
		return one(param), nil
	}

	param.Flags |= ast.FlagPromoted

	anchor := sp.Start

	if mods.visNode != nil {
		visSpan, err := p.spanOf(mods.visNode)
		if err != nil {
			return nil, err
		}

		anchor = visSpan.Start
	}

	prop := ast.New(ast.KindPropertyDecl, span.ZeroWidthAt(anchor))
	prop.Name = param.Name
	prop.Visibility = param.Visibility
	prop.Flags = ast.FlagSynthesized | ast.FlagPromoted

	if readonly {
		prop.Flags |= ast.FlagReadonly
	}

	// The type annotation is mapped a second time so the property holds an
	// independent subtree, not a pointer into the parameter's.
	propType, err := p.mapField(n, "type", sc)
	if err != nil {
		return nil, err
	}

	if propType != nil {
		propType.Span = span.ZeroWidthAt(anchor)
		prop.AddChild(propType)
	}

	*sc.promoted = append(*sc.promoted, prop)

	return one(param), nil
}

// mapProperty maps a property declaration. One PropertyDecl covers the
// whole declaration; each declared element surfaces as a Name child with
// its initializer underneath, and the node's Name is the first element's.
func (p *pass) mapProperty(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	decl := ast.New(ast.KindPropertyDecl, sp)

	mods, err := p.scanModifiers(n)
	if err != nil {
		return nil, err
	}

	decl.Flags = mods.flags
	decl.Visibility = mods.visibility

	if mods.roNode != nil {
		roSpan, err := p.spanOf(mods.roNode)
		if err != nil {
			return nil, err
		}

		if p.gate(dialect.ConstructReadonlyProperty, roSpan, "readonly property") {
			decl.Flags |= ast.FlagReadonly
		}
	}

	typ, err := p.mapField(n, "type", sc)
	if err != nil {
		return nil, err
	}

	decl.AddChild(typ)

	for _, child := range n.NamedChildren() {
		switch child.Kind() {
		case "attribute_list":
			attrs, err := p.mapAttributeList(child, sc)
			if err != nil {
				return nil, err
			}

			decl.Children = append(attrs, decl.Children...)
		case "property_element":
			elem, err := p.mapDeclElement(child, sc)
			if err != nil {
				return nil, err
			}

			if decl.Name == "" {
				decl.Name = elem.Name
			}

			decl.AddChild(elem)
		}
	}

	return one(decl), nil
}

// mapDeclElement maps one name-with-optional-initializer element of a
// property or constant declaration.
func (p *pass) mapDeclElement(n cst.Node, sc scope) (*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	elem := ast.New(ast.KindName, sp)

	for _, child := range n.NamedChildren() {
		switch child.Kind() {
		case "variable_name":
			elem.Name = strings.TrimPrefix(p.textOf(child), "$")
		case "name":
			elem.Name = p.textOf(child)
		case "property_initializer":
			init, err := p.mapChildren(child, sc)
			if err != nil {
				return nil, err
			}

			elem.AddChildren(init...)
		default:
			value, err := p.mapNode(child, sc)
			if err != nil {
				return nil, err
			}

			elem.AddChildren(value...)
		}
	}

	return elem, nil
}

// mapConst maps a constant declaration. Inside a class-like body it becomes
// a ClassConstDecl; at file or namespace scope a ConstDecl. Trait constants
// and typed class constants are dialect-gated.
func (p *pass) mapConst(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	kind := ast.KindConstDecl
	if sc.inClassLike() || sc.enclosing == ast.KindInterfaceDecl {
		kind = ast.KindClassConstDecl
	}

	if sc.enclosing == ast.KindTraitDecl {
		p.gate(dialect.ConstructTraitConstant, sp, "trait constant")
	}

	decl := ast.New(kind, sp)

	mods, err := p.scanModifiers(n)
	if err != nil {
		return nil, err
	}

	decl.Flags = mods.flags
	decl.Visibility = mods.visibility

	for _, child := range n.NamedChildren() {
		switch child.Kind() {
		case "named_type", "primitive_type", "optional_type", "union_type", "intersection_type":
			if kind == ast.KindClassConstDecl {
				typeSpan, err := p.spanOf(child)
				if err != nil {
					return nil, err
				}

				p.gate(dialect.ConstructTypedClassConstant, typeSpan, "typed class constant")
			}

			typ, err := p.mapNode(child, sc)
			if err != nil {
				return nil, err
			}

			decl.AddChildren(typ...)
		case "const_element":
			elem, err := p.mapDeclElement(child, sc)
			if err != nil {
				return nil, err
			}

			if decl.Name == "" {
				decl.Name = elem.Name
			}

			decl.AddChild(elem)
		}
	}

	return one(decl), nil
}

// mapTraitUse maps a use-trait clause inside a class body.
func (p *pass) mapTraitUse(n cst.Node) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	decl := ast.New(ast.KindTraitUse, sp)

	for _, child := range n.NamedChildren() {
		switch child.Kind() {
		case "name", "qualified_name":
			nameSpan, err := p.spanOf(child)
			if err != nil {
				return nil, err
			}

			name := ast.New(ast.KindName, nameSpan)
			name.Name = p.textOf(child)
			decl.AddChild(name)
		}
	}

	if len(decl.Children) > 0 {
		decl.Name = decl.Children[0].Name
	}

	return one(decl), nil
}

// mapAttributeList flattens #[...] attribute groups into Attribute nodes.
// Attributes parse under any dialect the grammar accepts; pre-8.0 dialects
// get a single Warning per list and the attributes are mapped regardless.
func (p *pass) mapAttributeList(n cst.Node, sc scope) ([]*ast.Node, error) {
	sp, err := p.spanOf(n)
	if err != nil {
		return nil, err
	}

	p.gate(dialect.ConstructAttribute, sp, "attribute")

	var out []*ast.Node

	for _, group := range n.NamedChildren() {
		if group.Kind() != "attribute_group" {
			continue
		}

		for _, attr := range group.NamedChildren() {
			if attr.Kind() != "attribute" {
				continue
			}

			attrSpan, err := p.spanOf(attr)
			if err != nil {
				return nil, err
			}

			node := ast.New(ast.KindAttribute, attrSpan)

			for _, part := range attr.NamedChildren() {
				switch part.Kind() {
				case "name", "qualified_name":
					node.Name = p.textOf(part)
				case "arguments":
					args, err := p.mapChildren(part, sc)
					if err != nil {
						return nil, err
					}

					node.AddChildren(args...)
				}
			}

			out = append(out, node)
		}
	}

	return out, nil
}

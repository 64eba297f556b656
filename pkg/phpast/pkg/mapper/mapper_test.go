package mapper

import (
	"errors"
	"strings"
	"testing"

	"github.com/celerrate/celerrate/pkg/phpast/pkg/ast"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/cst"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/diag"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/dialect"
)

// fakeNode is an in-memory concrete node. Building trees by hand keeps the
// rule tests independent of the grammar engine binary.
type fakeNode struct {
	kind        string
	start, end  uint
	children    []*fakeNode
	fields      map[string]*fakeNode
	errNode     bool
	missingNode bool
}

func fake(kind string, start, end uint, children ...*fakeNode) *fakeNode {
	return &fakeNode{kind: kind, start: start, end: end, children: children}
}

// field registers the child under a grammar field name and appends it to
// the named children, matching how real grammars expose field slots.
func (f *fakeNode) field(name string, child *fakeNode) *fakeNode {
	if f.fields == nil {
		f.fields = make(map[string]*fakeNode)
	}

	f.fields[name] = child
	f.children = append(f.children, child)

	return f
}

func (f *fakeNode) Kind() string            { return f.kind }
func (f *fakeNode) ByteRange() (uint, uint) { return f.start, f.end }
func (f *fakeNode) IsError() bool           { return f.errNode }
func (f *fakeNode) IsMissing() bool         { return f.missingNode }

func (f *fakeNode) NamedChildren() []cst.Node {
	out := make([]cst.Node, len(f.children))
	for i, c := range f.children {
		out[i] = c
	}

	return out
}

func (f *fakeNode) Field(name string) (cst.Node, bool) {
	child, ok := f.fields[name]
	if !ok {
		return nil, false
	}

	return child, true
}

// off returns the byte offset of the nth occurrence (1-based) of sub.
func off(t *testing.T, src, sub string, nth int) uint {
	t.Helper()

	base := 0

	for ; nth > 0; nth-- {
		idx := strings.Index(src[base:], sub)
		if idx < 0 {
			t.Fatalf("substring %q (occurrence %d) not in source", sub, nth)
		}

		base += idx + 1
	}

	return uint(base - 1)
}

// promotedCtorTree builds the concrete tree for:
//
//	<?php class C { public function __construct(public readonly int $x) {} }
func promotedCtorTree(t *testing.T) (*fakeNode, []byte) {
	t.Helper()

	src := `<?php class C { public function __construct(public readonly int $x) {} }`
	n := uint(len(src))

	nameC := fake("name", off(t, src, "C", 1), off(t, src, "C", 1)+1)
	vis1 := fake("visibility_modifier", off(t, src, "public", 1), off(t, src, "public", 1)+6)
	ctorName := fake("name", off(t, src, "__construct", 1), off(t, src, "__construct", 1)+11)

	pStart := off(t, src, "public readonly", 1)
	vis2 := fake("visibility_modifier", pStart, pStart+6)
	ro := fake("readonly_modifier", off(t, src, "readonly", 1), off(t, src, "readonly", 1)+8)
	intType := fake("primitive_type", off(t, src, "int", 1), off(t, src, "int", 1)+3)
	varX := fake("variable_name", off(t, src, "$x", 1), off(t, src, "$x", 1)+2)

	param := fake("property_promotion_parameter", pStart, off(t, src, "$x", 1)+2, vis2, ro)
	param.field("type", intType)
	param.field("name", varX)

	params := fake("formal_parameters", off(t, src, "(", 1), off(t, src, ")", 1)+1, param)
	body := fake("compound_statement", off(t, src, "{}", 1), off(t, src, "{}", 1)+2)

	method := fake("method_declaration", off(t, src, "public", 1), off(t, src, "{}", 1)+2, vis1)
	method.field("name", ctorName)
	method.field("parameters", params)
	method.field("body", body)

	declList := fake("declaration_list", off(t, src, "{ ", 1), n, method)

	class := fake("class_declaration", off(t, src, "class", 1), n)
	class.field("name", nameC)
	class.children = append(class.children, declList)

	program := fake("program", 0, n, class)

	return program, []byte(src)
}

func TestMapPromotedReadonlyParameter(t *testing.T) {
	t.Parallel()

	root, src := promotedCtorTree(t)

	res, err := Map(root, src, dialect.PHP81)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}

	class := res.Root.FirstChild(ast.KindClassDecl)
	if class == nil || class.Name != "C" {
		t.Fatalf("class not mapped: %s", res.Root)
	}

	method := class.FirstChild(ast.KindMethodDecl)
	if method == nil || method.Name != "__construct" {
		t.Fatalf("constructor not mapped: %s", class)
	}

	param := method.FirstChild(ast.KindParam)
	if param == nil {
		t.Fatalf("parameter not mapped: %s", method)
	}

	if param.Name != "x" || param.Visibility != ast.Public {
		t.Errorf("param = %s, want public x", param)
	}

	if !param.Flags.Has(ast.FlagReadonly | ast.FlagPromoted) {
		t.Errorf("param flags = %s, want readonly|promoted", param.Flags)
	}

	typ := param.FirstChild(ast.KindTypeName)
	if typ == nil || typ.Name != "int" {
		t.Errorf("param type = %v, want int", typ)
	}

	prop := class.FirstChild(ast.KindPropertyDecl)
	if prop == nil {
		t.Fatalf("no property synthesized: %s", class)
	}

	if !prop.Flags.Has(ast.FlagSynthesized|ast.FlagReadonly) || prop.Name != "x" {
		t.Errorf("synthesized property = %s, want synthesized readonly x", prop)
	}

	if !prop.Span.IsZeroWidth() {
		t.Errorf("synthesized property span %s, want zero-width", prop.Span)
	}

	if prop.Span.Start.Offset != uint(strings.Index(string(src), "public readonly")) {
		t.Errorf("synthesized property anchored at %d, want visibility modifier", prop.Span.Start.Offset)
	}

	if propType := prop.FirstChild(ast.KindTypeName); propType == nil || propType == typ {
		t.Errorf("synthesized property needs its own type subtree, got %v", propType)
	}

	if err := res.Root.CheckSpans(); err != nil {
		t.Errorf("span invariants: %v", err)
	}
}

func TestMapReadonlyDowngradedUnderOlderDialect(t *testing.T) {
	t.Parallel()

	root, src := promotedCtorTree(t)

	res, err := Map(root, src, dialect.PHP80)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if len(res.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want exactly one", res.Diagnostics)
	}

	d := res.Diagnostics[0]
	if d.Severity != diag.Warning || d.Code != diag.CodeConstructDisabled {
		t.Errorf("diagnostic = %v, want construct-disabled warning", d)
	}

	roOff := uint(strings.Index(string(src), "readonly"))
	if d.Span.Start.Offset != roOff || d.Span.End.Offset != roOff+8 {
		t.Errorf("diagnostic span %s, want the readonly modifier", d.Span)
	}

	class := res.Root.FirstChild(ast.KindClassDecl)
	param := class.FirstChild(ast.KindMethodDecl).FirstChild(ast.KindParam)

	if param.Flags.Has(ast.FlagReadonly) {
		t.Errorf("param kept readonly under 8.0: %s", param.Flags)
	}

	if !param.Flags.Has(ast.FlagPromoted) {
		t.Errorf("promotion is legal in 8.0, param = %s", param.Flags)
	}

	prop := class.FirstChild(ast.KindPropertyDecl)
	if prop == nil {
		t.Fatalf("property still synthesized under 8.0: %s", class)
	}

	if prop.Flags.Has(ast.FlagReadonly) {
		t.Errorf("synthesized property kept readonly under 8.0: %s", prop.Flags)
	}
}

func TestMapRecoversAroundSyntaxError(t *testing.T) {
	t.Parallel()

	src := `<?php $a = 1; @@@; $b = 2;`
	n := uint(len(src))

	stmt1 := fake("expression_statement", 6, 13,
		fake("assignment_expression", 6, 12).
			field("left", fake("variable_name", 6, 8)).
			field("right", fake("integer", 11, 12)))

	broken := fake("ERROR", 14, 18)
	broken.errNode = true

	stmt2 := fake("expression_statement", 19, 26,
		fake("assignment_expression", 19, 25).
			field("left", fake("variable_name", 19, 21)).
			field("right", fake("integer", 24, 25)))

	program := fake("program", 0, n, stmt1, broken, stmt2)

	res, err := Map(program, []byte(src), dialect.Latest)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if got := len(res.Root.Children); got != 3 {
		t.Fatalf("root children = %d, want 3: %s", got, res.Root)
	}

	kinds := []ast.Kind{res.Root.Children[0].Kind, res.Root.Children[1].Kind, res.Root.Children[2].Kind}
	want := []ast.Kind{ast.KindExprStmt, ast.KindUnknown, ast.KindExprStmt}

	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("child %d = %s, want %s", i, kinds[i], want[i])
		}
	}

	if len(res.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want one", res.Diagnostics)
	}

	d := res.Diagnostics[0]
	if d.Severity != diag.Error || d.Code != diag.CodeSyntaxError {
		t.Errorf("diagnostic = %v, want syntax error", d)
	}

	if d.Span.Start.Offset != 14 || d.Span.End.Offset != 18 {
		t.Errorf("diagnostic span %s, want the broken range", d.Span)
	}
}

func TestMapUnknownKindIsTotal(t *testing.T) {
	t.Parallel()

	src := `<?php quantum $x;`
	inner := fake("variable_name", 14, 16)
	exotic := fake("quantum_statement", 6, 17, inner)
	program := fake("program", 0, uint(len(src)), exotic)

	res, err := Map(program, []byte(src), dialect.Latest)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	unknown := res.Root.FirstChild(ast.KindUnknown)
	if unknown == nil {
		t.Fatalf("no Unknown placeholder: %s", res.Root)
	}

	if unknown.Span.Start.Offset != 6 || unknown.Span.End.Offset != 17 {
		t.Errorf("placeholder span %s, want raw node range", unknown.Span)
	}

	// Children survive best-effort under the placeholder.
	if unknown.FirstChild(ast.KindVariable) == nil {
		t.Errorf("children not mapped under Unknown: %s", unknown)
	}

	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != diag.CodeUnknownKind {
		t.Errorf("diagnostics = %v, want one unknown-kind warning", res.Diagnostics)
	}
}

func TestMapMissingNode(t *testing.T) {
	t.Parallel()

	src := `<?php if (true`
	missing := fake("compound_statement", 14, 14)
	missing.missingNode = true

	cond := fake("parenthesized_expression", 9, 14, fake("boolean", 10, 14))
	stmt := fake("if_statement", 6, 14, cond, missing)
	program := fake("program", 0, uint(len(src)), stmt)

	res, err := Map(program, []byte(src), dialect.Latest)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	ifNode := res.Root.FirstChild(ast.KindIf)
	if ifNode == nil {
		t.Fatalf("if not mapped: %s", res.Root)
	}

	if ifNode.FirstChild(ast.KindUnknown) == nil {
		t.Errorf("missing body should yield Unknown: %s", ifNode)
	}

	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != diag.CodeMissingNode {
		t.Errorf("diagnostics = %v, want one missing-node error", res.Diagnostics)
	}

	if res.Diagnostics[0].Severity != diag.Error {
		t.Errorf("missing node severity = %s, want error", res.Diagnostics[0].Severity)
	}
}

func TestMapNilRoot(t *testing.T) {
	t.Parallel()

	if _, err := Map(nil, nil, dialect.Latest); !errors.Is(err, ErrNilRoot) {
		t.Fatalf("err = %v, want ErrNilRoot", err)
	}
}

func TestMapEngineContractViolation(t *testing.T) {
	t.Parallel()

	src := `<?php`
	program := fake("program", 0, 99)

	_, err := Map(program, []byte(src), dialect.Latest)
	if !errors.Is(err, ErrEngineContract) {
		t.Fatalf("err = %v, want ErrEngineContract", err)
	}
}

func TestMapEmptySource(t *testing.T) {
	t.Parallel()

	res, err := Map(fake("program", 0, 0), []byte{}, dialect.Latest)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if res.Root == nil || res.Root.Kind != ast.KindFile {
		t.Fatalf("root = %v, want File", res.Root)
	}

	if len(res.Root.Children) != 0 || len(res.Diagnostics) != 0 {
		t.Errorf("empty source mapped to %s with %v", res.Root, res.Diagnostics)
	}
}

func TestMapInvalidDialectClampsToLatest(t *testing.T) {
	t.Parallel()

	res, err := Map(fake("program", 0, 0), []byte{}, dialect.Version(99))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if res.Dialect != dialect.Latest {
		t.Errorf("dialect = %s, want %s", res.Dialect, dialect.Latest)
	}
}

package phpast

import (
	"context"
	"sync"
	"testing"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/celerrate/celerrate/pkg/phpast/pkg/ast"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/diag"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/dialect"
)

const sampleClass = `<?php

namespace App;

class Greeter
{
    private string $name;

    public function __construct(string $name)
    {
        $this->name = $name;
    }

    public function greet(): string
    {
        return "Hello, " . $this->name;
    }
}
`

func TestParserMapsSimpleClass(t *testing.T) {
	t.Parallel()

	p := NewParser()

	res, err := p.Map(context.Background(), []byte(sampleClass), dialect.PHP81)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if res.Root == nil || res.Root.Kind != ast.KindFile {
		t.Fatalf("root = %v, want File", res.Root)
	}

	if res.HasErrors() {
		t.Fatalf("unexpected error diagnostics: %v", res.Diagnostics)
	}

	if got := res.Root.CountKind(ast.KindClassDecl); got != 1 {
		t.Fatalf("classes = %d, want 1", got)
	}

	class := res.Root.Find(func(n *ast.Node) bool { return n.Kind == ast.KindClassDecl })[0]
	if class.Name != "Greeter" {
		t.Errorf("class name = %q, want Greeter", class.Name)
	}

	if got := class.CountKind(ast.KindMethodDecl); got != 2 {
		t.Errorf("methods = %d, want 2", got)
	}

	if err := res.Root.CheckSpans(); err != nil {
		t.Errorf("span invariants: %v", err)
	}
}

func TestParserSurvivesSyntaxErrors(t *testing.T) {
	t.Parallel()

	p := NewParser()

	src := []byte(`<?php $a = 1; $b = ; $c = 3;`)

	res, err := p.Map(context.Background(), src, dialect.Latest)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if !res.HasErrors() {
		t.Fatalf("no error diagnostics for broken input: %v", res.Diagnostics)
	}

	// Statements around the broken one still map.
	if got := res.Root.CountKind(ast.KindAssignExpr); got < 2 {
		t.Errorf("assignments mapped = %d, want at least 2", got)
	}
}

func TestMapVersionUnknownFallsBack(t *testing.T) {
	t.Parallel()

	p := NewParser()

	res, err := p.MapVersion(context.Background(), []byte(`<?php $a = 1;`), "9.9")
	if err != nil {
		t.Fatalf("MapVersion: %v", err)
	}

	if res.Dialect != dialect.Latest {
		t.Errorf("dialect = %s, want %s", res.Dialect, dialect.Latest)
	}

	if len(res.Diagnostics) == 0 || res.Diagnostics[0].Code != diag.CodeDialectDowngraded {
		t.Errorf("diagnostics = %v, want leading dialect-downgraded warning", res.Diagnostics)
	}
}

func TestMapVersionEmptyMeansLatest(t *testing.T) {
	t.Parallel()

	p := NewParser()

	res, err := p.MapVersion(context.Background(), []byte(`<?php`), "")
	if err != nil {
		t.Fatalf("MapVersion: %v", err)
	}

	if res.Dialect != dialect.Latest || len(res.Diagnostics) != 0 {
		t.Errorf("empty version: dialect %s diagnostics %v", res.Dialect, res.Diagnostics)
	}
}

// Without Edit notifications the session must fall back to a full reparse;
// reusing the stale tree would drop the added declaration.
func TestSessionReparse(t *testing.T) {
	t.Parallel()

	p := NewParser()
	s := p.NewSession(dialect.PHP82)

	defer s.Close()

	first, err := s.Map(context.Background(), []byte(`<?php function a() {}`))
	if err != nil {
		t.Fatalf("first Map: %v", err)
	}

	second, err := s.Map(context.Background(), []byte(`<?php function a() {} function b() {}`))
	if err != nil {
		t.Fatalf("second Map: %v", err)
	}

	if got := first.Root.CountKind(ast.KindFunctionDecl); got != 1 {
		t.Errorf("first parse functions = %d, want 1", got)
	}

	if got := second.Root.CountKind(ast.KindFunctionDecl); got != 2 {
		t.Errorf("second parse functions = %d, want 2", got)
	}
}

func TestSessionEditIncremental(t *testing.T) {
	t.Parallel()

	p := NewParser()
	s := p.NewSession(dialect.PHP82)

	defer s.Close()

	before := []byte(`<?php function a() {}`)
	after := []byte(`<?php function a() {} function b() {}`)

	if _, err := s.Map(context.Background(), before); err != nil {
		t.Fatalf("first Map: %v", err)
	}

	// Appended " function b() {}" at the end of the single-line source.
	s.Edit(sitter.InputEdit{
		StartIndex:  uint(len(before)),
		OldEndIndex: uint(len(before)),
		NewEndIndex: uint(len(after)),
		StartPoint:  sitter.Point{Row: 0, Column: uint(len(before))},
		OldEndPoint: sitter.Point{Row: 0, Column: uint(len(before))},
		NewEndPoint: sitter.Point{Row: 0, Column: uint(len(after))},
	})

	res, err := s.Map(context.Background(), after)
	if err != nil {
		t.Fatalf("incremental Map: %v", err)
	}

	if got := res.Root.CountKind(ast.KindFunctionDecl); got != 2 {
		t.Errorf("functions after edit = %d, want 2", got)
	}

	if err := res.Root.CheckSpans(); err != nil {
		t.Errorf("span invariants after incremental reparse: %v", err)
	}
}

func TestParserConcurrentUse(t *testing.T) {
	t.Parallel()

	p := NewParser()

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 10 {
				res, err := p.Map(context.Background(), []byte(sampleClass), dialect.PHP81)
				if err != nil {
					t.Errorf("Map: %v", err)

					return
				}

				if res.Root.CountKind(ast.KindClassDecl) != 1 {
					t.Errorf("lost the class: %s", res.Root)

					return
				}
			}
		}()
	}

	wg.Wait()
}

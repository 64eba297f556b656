// Package phpast turns PHP source text into a typed, dialect-aware syntax
// tree. The grammar engine produces the concrete tree; the mapper lowers it
// into the ast package's model, collecting diagnostics instead of failing
// on recoverable input problems.
package phpast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alexaandru/go-sitter-forest/php"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/celerrate/celerrate/pkg/phpast/pkg/ast"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/cst"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/diag"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/dialect"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/mapper"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/span"
)

var (
	errPoolType = errors.New("phpast: unexpected type in parser pool")
	errNoRoot   = errors.New("phpast: grammar engine produced no root node")
)

// Result is one mapped source file.
type Result struct {
	Root        *ast.Node
	Diagnostics []diag.Diagnostic
	Dialect     dialect.Version
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diag.Error {
			return true
		}
	}

	return false
}

// Parser maps PHP sources. It is safe for concurrent use; the underlying
// grammar-engine parsers are pooled because they are stateful and must not
// be shared between goroutines mid-parse.
type Parser struct {
	lang *sitter.Language
	pool sync.Pool
	log  *slog.Logger
}

// NewParser returns a parser using the process-wide default logger.
func NewParser() *Parser {
	return NewParserWithLogger(slog.Default())
}

// NewParserWithLogger returns a parser that reports degraded mappings to
// the given logger.
func NewParserWithLogger(log *slog.Logger) *Parser {
	lang := sitter.NewLanguage(php.GetLanguage())

	p := &Parser{lang: lang, log: log}
	p.pool = sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}

	return p
}

// Map parses and maps one source buffer under the given dialect. Input
// problems (syntax errors, dialect mismatches) land in Result.Diagnostics;
// a non-nil error means the engine itself misbehaved.
func (p *Parser) Map(ctx context.Context, source []byte, version dialect.Version) (*Result, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("phpast: parse: %w", err)
	}
	defer tree.Close()

	return p.mapTree(tree, source, version)
}

// MapVersion is Map with a version string such as "8.1". Unknown strings
// fall back to the latest dialect and record a diagnostic so the caller
// sees the downgrade.
func (p *Parser) MapVersion(ctx context.Context, source []byte, phpVersion string) (*Result, error) {
	version, ok := dialect.Parse(phpVersion)

	res, err := p.Map(ctx, source, version)
	if err != nil {
		return nil, err
	}

	if !ok {
		p.log.Warn("unknown PHP version, using latest dialect",
			"requested", phpVersion, "dialect", version.String())

		res.Diagnostics = append([]diag.Diagnostic{{
			Severity: diag.Warning,
			Code:     diag.CodeDialectDowngraded,
			Span:     span.Span{},
			Message:  fmt.Sprintf("unknown PHP version %q, assuming %s", phpVersion, version),
		}}, res.Diagnostics...)
	}

	return res, nil
}

// mapTree lowers a parsed concrete tree. The tree must stay alive until
// this returns; the produced AST holds no references into it.
func (p *Parser) mapTree(tree *sitter.Tree, source []byte, version dialect.Version) (*Result, error) {
	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRoot
	}

	mapped, err := mapper.Map(cst.FromSitter(root), source, version)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Root:        mapped.Root,
		Diagnostics: mapped.Diagnostics,
		Dialect:     mapped.Dialect,
	}

	if res.HasErrors() {
		p.log.Debug("mapping degraded",
			"diagnostics", len(res.Diagnostics), "dialect", res.Dialect.String())
	}

	return res, nil
}

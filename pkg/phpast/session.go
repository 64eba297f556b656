package phpast

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/celerrate/celerrate/pkg/phpast/pkg/dialect"
)

// Session maps successive revisions of one file. It keeps the previous
// concrete tree so the engine can reuse unchanged subtrees on reparse,
// which matters for editor-style workloads feeding many small edits. The
// engine only reuses a tree whose edits it has been told about, so callers
// report each source change through Edit before the next Map; revisions
// mapped without edit notifications fall back to a full reparse.
type Session struct {
	parser  *Parser
	version dialect.Version

	mu     sync.Mutex
	prev   *sitter.Tree
	edited bool
}

// NewSession returns a session pinned to one dialect. Call Close when done
// to release the retained concrete tree.
func (p *Parser) NewSession(version dialect.Version) *Session {
	return &Session{parser: p, version: version}
}

// Edit records one source change against the retained concrete tree. Call
// it once per change, in order, between two Map calls; offsets and points
// refer to the source as it was before the change.
func (s *Session) Edit(edit sitter.InputEdit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prev == nil {
		return
	}

	s.prev.Edit(edit)
	s.edited = true
}

// Map parses and maps the current content of the tracked file. The previous
// tree is reused only when Edit reported the changes leading to this
// revision; a stale tree would make the engine silently drop nodes.
func (s *Session) Map(ctx context.Context, source []byte) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tsParser, ok := s.parser.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer s.parser.pool.Put(tsParser)

	prev := s.prev
	if !s.edited {
		prev = nil
	}

	tree, err := tsParser.ParseString(ctx, prev, source)
	if err != nil {
		return nil, fmt.Errorf("phpast: reparse: %w", err)
	}

	if s.prev != nil {
		s.prev.Close()
	}

	s.prev = tree
	s.edited = false

	return s.parser.mapTree(tree, source, s.version)
}

// Close releases the retained concrete tree. The session is unusable
// afterward.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prev != nil {
		s.prev.Close()
		s.prev = nil
	}
}

// Package span converts raw byte ranges reported by the grammar engine into
// stable position records with line and column information.
package span

import (
	"errors"
	"fmt"
	"sort"

	"github.com/celerrate/celerrate/pkg/safeconv"
)

// ErrOutOfBounds reports a byte offset outside the source buffer. A
// well-formed concrete tree never produces one, so callers treat it as a
// contract violation of the grammar engine, not as a recoverable issue.
var ErrOutOfBounds = errors.New("span: offset out of bounds")

// ErrInverted reports a byte range whose end precedes its start.
var ErrInverted = errors.New("span: inverted byte range")

// Position is a single point in the source buffer. Offset is zero-based;
// Line and Col are 1-based.
type Position struct {
	Offset uint `json:"offset"`
	Line   uint `json:"line"`
	Col    uint `json:"col"`
}

// Span is a half-open [Start, End) range over the source buffer.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether other lies fully within s.
func (s Span) Contains(other Span) bool {
	return s.Start.Offset <= other.Start.Offset && other.End.Offset <= s.End.Offset
}

// ContainsOffset reports whether the byte offset lies within s.
func (s Span) ContainsOffset(offset uint) bool {
	return s.Start.Offset <= offset && offset < s.End.Offset
}

// Before reports whether s ends at or before other begins.
func (s Span) Before(other Span) bool {
	return s.End.Offset <= other.Start.Offset
}

// Overlaps reports whether s and other share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start.Offset < other.End.Offset && other.Start.Offset < s.End.Offset
}

// IsZeroWidth reports whether the span covers no bytes. Synthesized nodes
// (e.g. properties emitted for promoted constructor parameters) carry
// zero-width spans anchored at the token that produced them.
func (s Span) IsZeroWidth() bool {
	return s.Start.Offset == s.End.Offset
}

// ZeroWidthAt returns a zero-width span anchored at the given position.
func ZeroWidthAt(pos Position) Span {
	return Span{Start: pos, End: pos}
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", s.Start.Line, s.Start.Col, s.End.Line, s.End.Col)
}

// Tracker derives line/column positions from byte offsets. It scans the
// source once at construction to build a line-start table; each subsequent
// lookup is a binary search with no allocation.
type Tracker struct {
	src        []byte
	lineStarts []uint
}

// NewTracker builds a tracker over the given source buffer. The buffer is
// borrowed, not copied; it must stay alive for the tracker's lifetime.
func NewTracker(src []byte) *Tracker {
	starts := make([]uint, 1, 16)
	starts[0] = 0

	for idx, b := range src {
		if b == '\n' {
			starts = append(starts, safeconv.MustIntToUint(idx)+1)
		}
	}

	return &Tracker{src: src, lineStarts: starts}
}

// Len returns the length of the tracked source buffer.
func (t *Tracker) Len() uint {
	return safeconv.MustIntToUint(len(t.src))
}

// PositionAt resolves a byte offset to a full position record. Offsets in
// [0, len(src)] are valid; the exclusive end of the buffer is a legal
// position so that end offsets of root spans resolve.
func (t *Tracker) PositionAt(offset uint) (Position, error) {
	if offset > t.Len() {
		return Position{}, fmt.Errorf("%w: %d > %d", ErrOutOfBounds, offset, len(t.src))
	}

	// Index of the last line start at or before offset.
	idx := sort.Search(len(t.lineStarts), func(i int) bool {
		return t.lineStarts[i] > offset
	}) - 1

	lineStart := t.lineStarts[idx]

	return Position{
		Offset: offset,
		Line:   safeconv.MustIntToUint(idx) + 1,
		Col:    offset - lineStart + 1,
	}, nil
}

// SpanFor resolves a raw byte range into a Span.
func (t *Tracker) SpanFor(start, end uint) (Span, error) {
	if end < start {
		return Span{}, fmt.Errorf("%w: [%d, %d)", ErrInverted, start, end)
	}

	startPos, err := t.PositionAt(start)
	if err != nil {
		return Span{}, err
	}

	endPos, err := t.PositionAt(end)
	if err != nil {
		return Span{}, err
	}

	return Span{Start: startPos, End: endPos}, nil
}

// Text returns the source bytes covered by the span as a string. Returns ""
// for spans outside the buffer.
func (t *Tracker) Text(s Span) string {
	if safeconv.MustUintToInt(s.End.Offset) > len(t.src) || s.End.Offset < s.Start.Offset {
		return ""
	}

	return string(t.src[s.Start.Offset:s.End.Offset])
}

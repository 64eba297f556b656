package span

import (
	"errors"
	"testing"
)

func TestTrackerPositions(t *testing.T) {
	t.Parallel()

	src := []byte("<?php\n$a = 1;\n$b = 2;\n")
	tr := NewTracker(src)

	cases := []struct {
		name   string
		offset uint
		line   uint
		col    uint
	}{
		{"start of buffer", 0, 1, 1},
		{"end of first line", 5, 1, 6},
		{"start of second line", 6, 2, 1},
		{"mid second line", 11, 2, 6},
		{"start of third line", 14, 3, 1},
		{"exclusive end of buffer", 22, 4, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pos, err := tr.PositionAt(tc.offset)
			if err != nil {
				t.Fatalf("PositionAt(%d): %v", tc.offset, err)
			}

			if pos.Line != tc.line || pos.Col != tc.col {
				t.Errorf("PositionAt(%d) = %d:%d, want %d:%d", tc.offset, pos.Line, pos.Col, tc.line, tc.col)
			}
		})
	}
}

func TestTrackerOutOfBounds(t *testing.T) {
	t.Parallel()

	tr := NewTracker([]byte("<?php"))

	if _, err := tr.PositionAt(6); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}

	if _, err := tr.SpanFor(0, 6); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("SpanFor end past buffer: err = %v, want ErrOutOfBounds", err)
	}
}

func TestTrackerInvertedRange(t *testing.T) {
	t.Parallel()

	tr := NewTracker([]byte("<?php echo 1;"))

	if _, err := tr.SpanFor(5, 2); !errors.Is(err, ErrInverted) {
		t.Fatalf("err = %v, want ErrInverted", err)
	}
}

func TestTrackerEmptySource(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil)

	pos, err := tr.PositionAt(0)
	if err != nil {
		t.Fatalf("PositionAt(0): %v", err)
	}

	if pos.Line != 1 || pos.Col != 1 {
		t.Errorf("empty buffer position = %d:%d, want 1:1", pos.Line, pos.Col)
	}
}

func TestTrackerText(t *testing.T) {
	t.Parallel()

	src := []byte("<?php echo 'hi';")
	tr := NewTracker(src)

	sp, err := tr.SpanFor(6, 10)
	if err != nil {
		t.Fatalf("SpanFor: %v", err)
	}

	if got := tr.Text(sp); got != "echo" {
		t.Errorf("Text = %q, want echo", got)
	}
}

func TestSpanRelations(t *testing.T) {
	t.Parallel()

	tr := NewTracker([]byte("0123456789"))

	outer, _ := tr.SpanFor(0, 10)
	inner, _ := tr.SpanFor(2, 5)
	after, _ := tr.SpanFor(5, 8)

	if !outer.Contains(inner) {
		t.Errorf("outer should contain inner")
	}

	if inner.Contains(outer) {
		t.Errorf("inner should not contain outer")
	}

	if !inner.Before(after) {
		t.Errorf("adjacent half-open spans should not overlap ordering")
	}

	if inner.Overlaps(after) {
		t.Errorf("[2,5) and [5,8) share no byte")
	}

	if !inner.ContainsOffset(2) || inner.ContainsOffset(5) {
		t.Errorf("half-open membership broken")
	}
}

func TestZeroWidthSpans(t *testing.T) {
	t.Parallel()

	tr := NewTracker([]byte("abc"))

	pos, _ := tr.PositionAt(1)
	zw := ZeroWidthAt(pos)

	if !zw.IsZeroWidth() {
		t.Fatalf("ZeroWidthAt produced %s", zw)
	}

	full, _ := tr.SpanFor(0, 3)
	if !full.Contains(zw) {
		t.Errorf("zero-width span should sit inside the covering span")
	}
}

package postgres

import (
	"errors"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Unix(1700000000, 0).UTC(), ID: "inc1"}
	s, err := EncodeCursor(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeCursor(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out == nil || !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("cursor did not round-trip: %+v", out)
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	cur, err := DecodeCursor("")
	if err != nil || cur != nil {
		t.Fatalf("empty cursor = (%+v, %v), want (nil, nil)", cur, err)
	}
}

func TestDecodeCursorInvalid(t *testing.T) {
	incomplete, err := EncodeCursor(Cursor{ID: "inc1"}) // нет created_at
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, s := range []string{"%%%", "bm90IGpzb24", "e30", incomplete} {
		if _, err := DecodeCursor(s); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("DecodeCursor(%q) = %v, want ErrInvalidCursor", s, err)
		}
	}
}

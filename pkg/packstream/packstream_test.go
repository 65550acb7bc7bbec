package packstream

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	encoded, err := Pack(v)
	if err != nil {
		t.Fatalf("Pack(%v) error: %v", v, err)
	}
	decoded, err := Unpack(encoded)
	if err != nil {
		t.Fatalf("Unpack error: %v", err)
	}
	return decoded
}

func TestRoundTripScalars(t *testing.T) {
	cases := []Value{
		Null(),
		Bool(true),
		Bool(false),
		Int(0),
		Int(-16),
		Int(127),
		Int(-129),
		Int(32767),
		Int(-2147483648),
		Int(2147483647),
		Int(1 << 40),
		Float(0),
		Float(3.14159),
		Float(-1.0),
		Str(""),
		Str("hello"),
		Str(strings.Repeat("x", 300)),
	}
	for _, v := range cases {
		got := roundTrip(t, v)
		if got.Kind() != v.Kind() {
			t.Fatalf("kind mismatch: want %v got %v", v.Kind(), got.Kind())
		}
		switch v.Kind() {
		case KindBoolean:
			wb, _ := v.Bool()
			gb, _ := got.Bool()
			if wb != gb {
				t.Errorf("bool mismatch: %v != %v", wb, gb)
			}
		case KindInteger:
			wi, _ := v.Int()
			gi, _ := got.Int()
			if wi != gi {
				t.Errorf("int mismatch: %v != %v", wi, gi)
			}
		case KindFloat:
			wf, _ := v.Float()
			gf, _ := got.Float()
			if wf != gf {
				t.Errorf("float mismatch: %v != %v (must be bit-exact)", wf, gf)
			}
		case KindString:
			ws, _ := v.Str()
			gs, _ := got.Str()
			if ws != gs {
				t.Errorf("string mismatch: %q != %q", ws, gs)
			}
		}
	}
}

func TestRoundTripListAndMap(t *testing.T) {
	list := List([]Value{Int(1), Str("two"), Bool(true), Null()})
	got := roundTrip(t, list)
	items, ok := got.List()
	if !ok || len(items) != 4 {
		t.Fatalf("expected 4-item list, got %v", got)
	}

	m := Map(map[string]Value{"a": Int(1), "b": Str("x")})
	got = roundTrip(t, m)
	out, ok := got.Map()
	if !ok || len(out) != 2 {
		t.Fatalf("expected 2-entry map, got %v", got)
	}
	if n, _ := out["a"].Int(); n != 1 {
		t.Errorf("key a = %v, want 1", n)
	}
}

func TestRoundTripLargeContainers(t *testing.T) {
	// Exercise the 32-bit list header path (70000 items > 65535).
	big := make([]Value, 70000)
	for i := range big {
		big[i] = Int(int64(i % 100))
	}
	got := roundTrip(t, List(big))
	items, ok := got.List()
	if !ok || len(items) != len(big) {
		t.Fatalf("round trip of 70000-item list lost items: got %d", len(items))
	}
}

func TestRoundTripStructure(t *testing.T) {
	s := Struct(SigSuccess, []Value{Map(map[string]Value{"fields": List([]Value{Str("n")})})})
	got := roundTrip(t, s)
	sig, fields, ok := got.Structure()
	if !ok || sig != SigSuccess || len(fields) != 1 {
		t.Fatalf("structure round trip failed: %v", got)
	}
}

func TestNarrowestFitsIntegers(t *testing.T) {
	cases := []struct {
		n      int64
		marker byte
		width  int // total encoded bytes
	}{
		{0, 0x00, 1},
		{-16, 0xF0, 1},
		{127, 0x7F, 1},
		{-17, markerInt8, 2},
		{128, markerInt16, 3},
		{-128, markerInt8, 2},
		{-129, markerInt16, 3},
		{32767, markerInt16, 3},
		{32768, markerInt32, 5},
		{-2147483648, markerInt32, 5},
		{2147483648, markerInt64, 9},
	}
	for _, c := range cases {
		encoded, err := Pack(Int(c.n))
		if err != nil {
			t.Fatalf("Pack(%d): %v", c.n, err)
		}
		if len(encoded) != c.width {
			t.Errorf("Pack(%d) = %d bytes, want %d (marker 0x%02X)", c.n, len(encoded), c.width, encoded[0])
		}
		if encoded[0] != c.marker {
			t.Errorf("Pack(%d) marker = 0x%02X, want 0x%02X", c.n, encoded[0], c.marker)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	// markerInt32 announces 4 more bytes but only 2 are present.
	_, err := Unpack([]byte{markerInt32, 0x00, 0x01})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestDecodeUnknownMarker(t *testing.T) {
	for _, marker := range []byte{0xC4, 0xC6, 0xCC, 0xD3, 0xD7, 0xDB, 0xDE, 0xDF, 0xE5} {
		_, err := Unpack([]byte{marker})
		if !errors.Is(err, ErrUnknownMarker) {
			t.Errorf("marker 0x%02X: expected ErrUnknownMarker, got %v", marker, err)
		}
	}
}

func TestDecodeNonStringMapKey(t *testing.T) {
	// TinyMap of size 1 whose key is TinyInt(1) instead of a string.
	_, err := Unpack([]byte{tinyMapBase | 1, 0x01, 0x01})
	if !errors.Is(err, ErrMapKey) {
		t.Fatalf("expected ErrMapKey, got %v", err)
	}
}

func TestPackFloatNeverNoOp(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPacker(&buf).Pack(Float(1.5)); err != nil {
		t.Fatalf("Pack float: %v", err)
	}
	if buf.Len() != 9 {
		t.Fatalf("packed float is %d bytes, want 9 (marker + 8 data bytes)", buf.Len())
	}
	if buf.Bytes()[0] != markerFloat64 {
		t.Fatalf("float marker = 0x%02X, want 0x%02X", buf.Bytes()[0], markerFloat64)
	}
}

func TestNodeAndRelationshipAccessors(t *testing.T) {
	node := Struct(SigNode, []Value{
		Int(42),
		List([]Value{Str("Person")}),
		Map(map[string]Value{"name": Str("Ada")}),
	})
	n, ok := node.AsNode()
	if !ok || n.ID != 42 || len(n.Labels) != 1 || n.Labels[0] != "Person" {
		t.Fatalf("AsNode failed: %+v ok=%v", n, ok)
	}

	rel := Struct(SigRelationship, []Value{
		Int(1), Int(42), Int(43), Str("KNOWS"), Map(map[string]Value{}),
	})
	r, ok := rel.AsRelationship()
	if !ok || r.Type != "KNOWS" || r.StartID != 42 || r.EndID != 43 {
		t.Fatalf("AsRelationship failed: %+v ok=%v", r, ok)
	}

	if _, ok := node.AsRelationship(); ok {
		t.Fatalf("node should not decode as relationship")
	}
}

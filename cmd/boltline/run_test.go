package main

import (
	"strings"
	"testing"

	"github.com/orneryd/boltwire/pkg/packstream"
)

func TestRenderValueScalars(t *testing.T) {
	cases := []struct {
		v    packstream.Value
		want string
	}{
		{packstream.Null(), "null"},
		{packstream.Bool(true), "true"},
		{packstream.Int(42), "42"},
		{packstream.Str("hi"), "hi"},
	}
	for _, c := range cases {
		if got := renderValue(c.v); got != c.want {
			t.Fatalf("renderValue(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestRenderValueList(t *testing.T) {
	v := packstream.List([]packstream.Value{packstream.Int(1), packstream.Int(2)})
	if got := renderValue(v); got != "[1, 2]" {
		t.Fatalf("renderValue(list) = %q", got)
	}
}

func TestRenderValueMapIsSorted(t *testing.T) {
	v := packstream.Map(map[string]packstream.Value{
		"z": packstream.Int(1),
		"a": packstream.Int(2),
	})
	got := renderValue(v)
	if !strings.HasPrefix(got, "{a: 2, z: 1}") {
		t.Fatalf("renderValue(map) = %q, want keys sorted", got)
	}
}

func TestFormatFieldUnstyledUsesGoSyntax(t *testing.T) {
	got := formatField("x", packstream.Int(7), false)
	if !strings.HasPrefix(got, "x=") {
		t.Fatalf("formatField unstyled = %q, want x= prefix", got)
	}
}

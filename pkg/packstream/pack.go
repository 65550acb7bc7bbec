package packstream

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// Packer serializes Values to PackStream bytes onto an io.Writer.
type Packer struct {
	w io.Writer
}

// NewPacker returns a Packer writing to w.
func NewPacker(w io.Writer) *Packer {
	return &Packer{w: w}
}

// Pack writes v in PackStream wire format.
func (p *Packer) Pack(v Value) error {
	switch v.kind {
	case KindNull:
		return p.writeByte(markerNull)
	case KindBoolean:
		if v.b {
			return p.writeByte(markerTrue)
		}
		return p.writeByte(markerFalse)
	case KindInteger:
		return p.packInt(v.i)
	case KindFloat:
		return p.packFloat(v.f)
	case KindString:
		return p.packString(v.s)
	case KindList:
		return p.packList(v.list)
	case KindMap:
		return p.packMap(v.m)
	case KindStructure:
		return p.packStructure(v.sig, v.fields)
	default:
		return unknownMarkerf(byte(v.kind))
	}
}

// packInt applies the narrowest-fits rule from spec §4.1: the ordering
// TinyInt < Int8 < Int16 < Int32 < Int64 is a wire-compatibility contract,
// not an optimization to be reordered.
func (p *Packer) packInt(n int64) error {
	switch {
	case n >= tinyIntMin && n <= tinyIntMax:
		return p.writeByte(byte(n))
	case n >= int8Min && n <= int8Max:
		return p.writeBytes([]byte{markerInt8, byte(n)})
	case n >= int16Min && n <= int16Max:
		var buf [3]byte
		buf[0] = markerInt16
		binary.BigEndian.PutUint16(buf[1:], uint16(n))
		return p.writeBytes(buf[:])
	case n >= int32Min && n <= int32Max:
		var buf [5]byte
		buf[0] = markerInt32
		binary.BigEndian.PutUint32(buf[1:], uint32(n))
		return p.writeBytes(buf[:])
	default:
		var buf [9]byte
		buf[0] = markerInt64
		binary.BigEndian.PutUint64(buf[1:], uint64(n))
		return p.writeBytes(buf[:])
	}
}

// packFloat must never be a no-op: spec §9 calls out an early revision of
// the source where pack_float silently dropped the value. Always emit the
// marker followed by the 8 big-endian bytes.
func (p *Packer) packFloat(f float64) error {
	var buf [9]byte
	buf[0] = markerFloat64
	binary.BigEndian.PutUint64(buf[1:], math.Float64bits(f))
	return p.writeBytes(buf[:])
}

func (p *Packer) packString(s string) error {
	n := len(s)
	if err := p.writeHeader(n, "string", tinyStringBase, markerString8, markerString16, markerString32); err != nil {
		return err
	}
	return p.writeBytes([]byte(s))
}

func (p *Packer) packList(items []Value) error {
	n := len(items)
	if err := p.writeHeader(n, "list", tinyListBase, markerList8, markerList16, markerList32); err != nil {
		return err
	}
	for _, item := range items {
		if err := p.Pack(item); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packer) packMap(m map[string]Value) error {
	n := len(m)
	if err := p.writeHeader(n, "map", tinyMapBase, markerMap8, markerMap16, markerMap32); err != nil {
		return err
	}
	for k, val := range m {
		if err := p.packString(k); err != nil {
			return err
		}
		if err := p.Pack(val); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packer) packStructure(sig byte, fields []Value) error {
	n := len(fields)
	switch {
	case n < 16:
		if err := p.writeBytes([]byte{tinyStructBase | byte(n), sig}); err != nil {
			return err
		}
	case n < 256:
		if err := p.writeBytes([]byte{markerStruct8, byte(n), sig}); err != nil {
			return err
		}
	case n < 65536:
		var buf [4]byte
		buf[0] = markerStruct16
		binary.BigEndian.PutUint16(buf[1:3], uint16(n))
		buf[3] = sig
		if err := p.writeBytes(buf[:]); err != nil {
			return err
		}
	default:
		return tooLargef("structure field list", n)
	}
	for _, field := range fields {
		if err := p.Pack(field); err != nil {
			return err
		}
	}
	return nil
}

// writeHeader emits the narrowest-fits size marker for strings/lists/maps,
// using tiny/8/16/32-bit length headers in that order (spec §4.1).
func (p *Packer) writeHeader(n int, what string, tinyBase, m8, m16, m32 byte) error {
	switch {
	case n < 16:
		return p.writeByte(tinyBase | byte(n))
	case n < 256:
		return p.writeBytes([]byte{m8, byte(n)})
	case n < 65536:
		var buf [3]byte
		buf[0] = m16
		binary.BigEndian.PutUint16(buf[1:], uint16(n))
		return p.writeBytes(buf[:])
	case int64(n) <= maxEncodeLength:
		var buf [5]byte
		buf[0] = m32
		binary.BigEndian.PutUint32(buf[1:], uint32(n))
		return p.writeBytes(buf[:])
	default:
		return tooLargef(what, n)
	}
}

func (p *Packer) writeByte(b byte) error {
	_, err := p.w.Write([]byte{b})
	return err
}

func (p *Packer) writeBytes(b []byte) error {
	_, err := p.w.Write(b)
	return err
}

// Pack is a convenience helper that encodes v into a freshly-returned byte
// slice using an internal buffer.
func Pack(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewPacker(&buf).Pack(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

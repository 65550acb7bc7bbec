package packstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Unpacker deserializes PackStream bytes from an io.Reader into Values.
type Unpacker struct {
	r io.Reader
}

// NewUnpacker returns an Unpacker reading from r.
func NewUnpacker(r io.Reader) *Unpacker {
	return &Unpacker{r: r}
}

// Unpack reads and decodes the next Value from the stream.
func (u *Unpacker) Unpack() (Value, error) {
	marker, err := u.readByte("marker")
	if err != nil {
		return Value{}, err
	}
	return u.unpackValue(marker)
}

func (u *Unpacker) unpackValue(marker byte) (Value, error) {
	switch {
	case marker <= tinyIntPositiveMax:
		return Int(int64(marker)), nil
	case marker >= tinyIntNegativeBase:
		return Int(int64(int8(marker))), nil
	}

	high := marker & highNibbleMask
	low := marker & lowNibbleMask

	switch high {
	case tinyStringBase:
		return u.unpackString(int(low))
	case tinyListBase:
		return u.unpackList(int(low))
	case tinyMapBase:
		return u.unpackMap(int(low))
	case tinyStructBase:
		return u.unpackStructure(int(low))
	}

	switch marker {
	case markerNull:
		return Null(), nil
	case markerFalse:
		return Bool(false), nil
	case markerTrue:
		return Bool(true), nil
	case markerFloat64:
		return u.unpackFloat64()
	case markerInt8:
		n, err := u.readInt(1)
		return Int(n), err
	case markerInt16:
		n, err := u.readInt(2)
		return Int(n), err
	case markerInt32:
		n, err := u.readInt(4)
		return Int(n), err
	case markerInt64:
		n, err := u.readInt(8)
		return Int(n), err
	case markerString8:
		return u.sizedString(1)
	case markerString16:
		return u.sizedString(2)
	case markerString32:
		return u.sizedString(4)
	case markerList8:
		return u.sizedList(1)
	case markerList16:
		return u.sizedList(2)
	case markerList32:
		return u.sizedList(4)
	case markerMap8:
		return u.sizedMap(1)
	case markerMap16:
		return u.sizedMap(2)
	case markerMap32:
		return u.sizedMap(4)
	case markerStruct8:
		return u.sizedStructure(1)
	case markerStruct16:
		return u.sizedStructure(2)
	default:
		return Value{}, unknownMarkerf(marker)
	}
}

func (u *Unpacker) sizedString(sizeBytes int) (Value, error) {
	size, err := u.readSize(sizeBytes)
	if err != nil {
		return Value{}, err
	}
	return u.unpackString(int(size))
}

func (u *Unpacker) sizedList(sizeBytes int) (Value, error) {
	size, err := u.readSize(sizeBytes)
	if err != nil {
		return Value{}, err
	}
	return u.unpackList(int(size))
}

func (u *Unpacker) sizedMap(sizeBytes int) (Value, error) {
	size, err := u.readSize(sizeBytes)
	if err != nil {
		return Value{}, err
	}
	return u.unpackMap(int(size))
}

func (u *Unpacker) sizedStructure(sizeBytes int) (Value, error) {
	size, err := u.readSize(sizeBytes)
	if err != nil {
		return Value{}, err
	}
	return u.unpackStructure(int(size))
}

func (u *Unpacker) unpackString(size int) (Value, error) {
	b, err := u.readBytes(size, "string body")
	if err != nil {
		return Value{}, err
	}
	return Str(string(b)), nil
}

func (u *Unpacker) unpackList(size int) (Value, error) {
	items := make([]Value, size)
	for i := 0; i < size; i++ {
		v, err := u.Unpack()
		if err != nil {
			return Value{}, err
		}
		items[i] = v
	}
	return List(items), nil
}

func (u *Unpacker) unpackMap(size int) (Value, error) {
	m := make(map[string]Value, size)
	for i := 0; i < size; i++ {
		keyVal, err := u.Unpack()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyVal.Str()
		if !ok {
			return Value{}, ErrMapKey
		}
		val, err := u.Unpack()
		if err != nil {
			return Value{}, err
		}
		m[key] = val
	}
	return Map(m), nil
}

func (u *Unpacker) unpackStructure(size int) (Value, error) {
	sig, err := u.readByte("structure signature")
	if err != nil {
		return Value{}, err
	}
	fields := make([]Value, size)
	for i := 0; i < size; i++ {
		v, err := u.Unpack()
		if err != nil {
			return Value{}, err
		}
		fields[i] = v
	}
	return Struct(sig, fields), nil
}

func (u *Unpacker) unpackFloat64() (Value, error) {
	b, err := u.readBytes(8, "float64")
	if err != nil {
		return Value{}, err
	}
	bits := binary.BigEndian.Uint64(b)
	return Float(math.Float64frombits(bits)), nil
}

func (u *Unpacker) readByte(what string) (byte, error) {
	b, err := u.readBytes(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readSize decodes a big-endian unsigned length header of the given byte
// width. Spec §9 notes some source revisions conflate a decimal-like
// `0x100*hi + lo` reading with the portable `(hi<<8)|lo`; only the latter,
// expressed here via encoding/binary, is used.
func (u *Unpacker) readSize(numBytes int) (uint64, error) {
	b, err := u.readBytes(numBytes, "length header")
	if err != nil {
		return 0, err
	}
	switch numBytes {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	default:
		panic("packstream: invalid size width")
	}
}

func (u *Unpacker) readInt(numBytes int) (int64, error) {
	b, err := u.readBytes(numBytes, "integer")
	if err != nil {
		return 0, err
	}
	switch numBytes {
	case 1:
		return int64(int8(b[0])), nil
	case 2:
		return int64(int16(binary.BigEndian.Uint16(b))), nil
	case 4:
		return int64(int32(binary.BigEndian.Uint32(b))), nil
	case 8:
		return int64(binary.BigEndian.Uint64(b)), nil
	default:
		panic("packstream: invalid integer width")
	}
}

func (u *Unpacker) readBytes(n int, what string) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(u.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, truncatedf(what, err)
		}
		return nil, err
	}
	return b, nil
}

// Unpack is a convenience helper decoding a single Value from a byte slice.
func Unpack(data []byte) (Value, error) {
	return NewUnpacker(bytes.NewReader(data)).Unpack()
}

package packstream

// Kind tags the variant held by a Value. Consumers are expected to switch
// exhaustively on Kind rather than type-assert a Go interface{} — there is
// no inheritance here, only a closed sum type (spec §9).
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindString
	KindList
	KindMap
	KindStructure
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindStructure:
		return "Structure"
	default:
		return "Unknown"
	}
}

// Value is the universal PackStream payload (spec §3). Zero value is Null.
type Value struct {
	kind Kind

	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value

	sig    byte
	fields []Value
}

// Null returns the Null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Int wraps a signed 64-bit integer.
func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

// Float wraps an IEEE-754 float64.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Str wraps a UTF-8 string.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// List wraps an ordered sequence of values. The slice is not copied.
func List(items []Value) Value { return Value{kind: KindList, list: items} }

// Map wraps a string-keyed mapping. The map is not copied.
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// Struct builds a Structure value with the given signature and fields.
func Struct(sig byte, fields []Value) Value {
	return Value{kind: KindStructure, sig: sig, fields: fields}
}

// Kind reports which variant this Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean value and whether the Kind matched.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBoolean {
		return false, false
	}
	return v.b, true
}

// Int returns the integer value and whether the Kind matched.
func (v Value) Int() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// Float returns the float value and whether the Kind matched.
func (v Value) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// Str returns the string value and whether the Kind matched.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// List returns the element slice and whether the Kind matched.
func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Map returns the backing map and whether the Kind matched.
func (v Value) Map() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// Structure returns the signature and fields and whether the Kind matched.
func (v Value) Structure() (sig byte, fields []Value, ok bool) {
	if v.kind != KindStructure {
		return 0, nil, false
	}
	return v.sig, v.fields, true
}

// Node is the typed view over a Structure with signature SigNode (spec §6).
type Node struct {
	ID         int64
	Labels     []string
	Properties map[string]Value
}

// Relationship is the typed view over a Structure with signature
// SigRelationship.
type Relationship struct {
	ID         int64
	StartID    int64
	EndID      int64
	Type       string
	Properties map[string]Value
}

// UnboundRelationship mirrors Relationship without start/end node ids, as
// carried inside Path structures (sig SigUnboundRelationship). This repo
// decodes it but, like Path itself, does not unpack Path structures further
// (spec §6 enumerates Node/Relationship only; see DESIGN.md).
type UnboundRelationship struct {
	ID         int64
	Type       string
	Properties map[string]Value
}

// AsNode interprets the value as a Node structure, if it is one.
func (v Value) AsNode() (Node, bool) {
	sig, fields, ok := v.Structure()
	if !ok || sig != SigNode || len(fields) != 3 {
		return Node{}, false
	}
	id, _ := fields[0].Int()
	labels, props, ok := decodeLabelsAndProps(fields[1], fields[2])
	if !ok {
		return Node{}, false
	}
	return Node{ID: id, Labels: labels, Properties: props}, true
}

// AsRelationship interprets the value as a Relationship structure, if it is
// one.
func (v Value) AsRelationship() (Relationship, bool) {
	sig, fields, ok := v.Structure()
	if !ok || sig != SigRelationship || len(fields) != 5 {
		return Relationship{}, false
	}
	id, _ := fields[0].Int()
	startID, _ := fields[1].Int()
	endID, _ := fields[2].Int()
	relType, _ := fields[3].Str()
	props, ok := decodeProps(fields[4])
	if !ok {
		return Relationship{}, false
	}
	return Relationship{ID: id, StartID: startID, EndID: endID, Type: relType, Properties: props}, true
}

// AsUnboundRelationship interprets the value as an UnboundRelationship
// structure, if it is one.
func (v Value) AsUnboundRelationship() (UnboundRelationship, bool) {
	sig, fields, ok := v.Structure()
	if !ok || sig != SigUnboundRelationship || len(fields) != 3 {
		return UnboundRelationship{}, false
	}
	id, _ := fields[0].Int()
	relType, _ := fields[1].Str()
	props, ok := decodeProps(fields[2])
	if !ok {
		return UnboundRelationship{}, false
	}
	return UnboundRelationship{ID: id, Type: relType, Properties: props}, true
}

func decodeLabelsAndProps(labelsVal, propsVal Value) ([]string, map[string]Value, bool) {
	items, ok := labelsVal.List()
	if !ok {
		return nil, nil, false
	}
	labels := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.Str()
		if !ok {
			return nil, nil, false
		}
		labels = append(labels, s)
	}
	props, ok := decodeProps(propsVal)
	if !ok {
		return nil, nil, false
	}
	return labels, props, true
}

func decodeProps(propsVal Value) (map[string]Value, bool) {
	return propsVal.Map()
}

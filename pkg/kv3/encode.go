package kv3

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Encode serializes a tree as an uncompressed binary KV3 block with the
// generic format GUID. Integers are written with their narrowest tag.
func Encode(root *Node) []byte {
	e := &encoder{ids: make(map[string]int32)}
	e.collect(root)

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, uint32(Magic))
	out.Write(EncodingUncompressed[:])
	out.Write(FormatGeneric[:])

	binary.Write(&out, binary.LittleEndian, int32(len(e.strings)))
	for _, s := range e.strings {
		out.WriteString(s)
		out.WriteByte(0)
	}
	e.writeValue(&out, root)
	return out.Bytes()
}

type encoder struct {
	strings []string
	ids     map[string]int32
}

func (e *encoder) intern(s string) {
	if _, ok := e.ids[s]; ok {
		return
	}
	e.ids[s] = int32(len(e.strings))
	e.strings = append(e.strings, s)
}

func (e *encoder) collect(n *Node) {
	switch n.kind {
	case KindString:
		if n.s != "" {
			e.intern(n.s)
		}
	case KindObject:
		for i, key := range n.keys {
			e.intern(key)
			e.collect(n.items[i])
		}
	case KindArray:
		for _, item := range n.items {
			e.collect(item)
		}
	}
}

func (e *encoder) stringID(s string) int32 {
	if s == "" {
		return -1
	}
	return e.ids[s]
}

func (e *encoder) writeValue(out *bytes.Buffer, n *Node) {
	le := binary.LittleEndian
	switch n.kind {
	case KindNull:
		out.WriteByte(typeNull)
	case KindBool:
		if n.b {
			out.WriteByte(typeTrue)
		} else {
			out.WriteByte(typeFalse)
		}
	case KindInt:
		switch {
		case n.i == 0:
			out.WriteByte(typeInt64Zero)
		case n.i == 1:
			out.WriteByte(typeInt64One)
		case n.i >= math.MinInt32 && n.i <= math.MaxInt32:
			out.WriteByte(typeInt32)
			binary.Write(out, le, int32(n.i))
		default:
			out.WriteByte(typeInt64)
			binary.Write(out, le, n.i)
		}
	case KindUint:
		if n.u <= math.MaxUint32 {
			out.WriteByte(typeUint32)
			binary.Write(out, le, uint32(n.u))
		} else {
			out.WriteByte(typeUint64)
			binary.Write(out, le, n.u)
		}
	case KindDouble:
		switch n.f {
		case 0:
			out.WriteByte(typeDoubleZero)
		case 1:
			out.WriteByte(typeDoubleOne)
		default:
			out.WriteByte(typeDouble)
			binary.Write(out, le, math.Float64bits(n.f))
		}
	case KindString:
		out.WriteByte(typeString)
		binary.Write(out, le, e.stringID(n.s))
	case KindBlob:
		out.WriteByte(typeBlob)
		binary.Write(out, le, int32(len(n.blob)))
		out.Write(n.blob)
	case KindArray:
		out.WriteByte(typeArray)
		binary.Write(out, le, int32(len(n.items)))
		for _, item := range n.items {
			e.writeValue(out, item)
		}
	case KindObject:
		out.WriteByte(typeObject)
		binary.Write(out, le, int32(len(n.items)))
		for i, key := range n.keys {
			binary.Write(out, le, e.stringID(key))
			e.writeValue(out, n.items[i])
		}
	}
}

// Package kv3 provides the KeyValues3 property tree and its binary decoder.
package kv3

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Property tree errors.
var (
	ErrMissingKey = errors.New("missing key")
	ErrWrongKind  = errors.New("wrong value kind")
	ErrOutOfRange = errors.New("value out of range")
)

// Kind identifies the type of value held by a Node.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindDouble
	KindString
	KindBlob
	KindArray
	KindObject
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Node is one value of a property tree. Objects keep their authored key order.
type Node struct {
	kind  Kind
	b     bool
	i     int64
	u     uint64
	f     float64
	s     string
	blob  []byte
	items []*Node
	keys  []string
	index map[string]int
}

// Null returns a null node.
func Null() *Node { return &Node{kind: KindNull} }

// Bool returns a boolean node.
func Bool(v bool) *Node { return &Node{kind: KindBool, b: v} }

// Int returns a signed integer node.
func Int(v int64) *Node { return &Node{kind: KindInt, i: v} }

// Uint returns an unsigned integer node.
func Uint(v uint64) *Node { return &Node{kind: KindUint, u: v} }

// Double returns a floating point node.
func Double(v float64) *Node { return &Node{kind: KindDouble, f: v} }

// String returns a string node.
func String(v string) *Node { return &Node{kind: KindString, s: v} }

// Blob returns a binary blob node.
func Blob(v []byte) *Node { return &Node{kind: KindBlob, blob: v} }

// Array returns an array node holding items.
func Array(items ...*Node) *Node { return &Node{kind: KindArray, items: items} }

// Object returns an empty object node.
func Object() *Node { return &Node{kind: KindObject, index: make(map[string]int)} }

// Set adds or replaces a key on an object node and returns the node for chaining.
func (n *Node) Set(key string, value *Node) *Node {
	if n.kind != KindObject {
		panic("kv3: Set on non-object node")
	}
	if i, ok := n.index[key]; ok {
		n.items[i] = value
		return n
	}
	n.index[key] = len(n.items)
	n.keys = append(n.keys, key)
	n.items = append(n.items, value)
	return n
}

// Append adds an item to an array node.
func (n *Node) Append(value *Node) *Node {
	if n.kind != KindArray {
		panic("kv3: Append on non-array node")
	}
	n.items = append(n.items, value)
	return n
}

// Kind returns the node kind.
func (n *Node) Kind() Kind { return n.kind }

// Len returns the number of items of an array or object, zero otherwise.
func (n *Node) Len() int {
	if n.kind == KindArray || n.kind == KindObject {
		return len(n.items)
	}
	return 0
}

// Keys returns object keys in authored order.
func (n *Node) Keys() []string { return n.keys }

// Lookup returns the child stored under key. Arrays accept decimal index keys.
func (n *Node) Lookup(key string) (*Node, bool) {
	switch n.kind {
	case KindObject:
		i, ok := n.index[key]
		if !ok {
			return nil, false
		}
		return n.items[i], true
	case KindArray:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(n.items) {
			return nil, false
		}
		return n.items[i], true
	}
	return nil, false
}

// Get returns the child under key or an error naming the missing key.
func (n *Node) Get(key string) (*Node, error) {
	child, ok := n.Lookup(key)
	if !ok {
		if n.kind != KindObject && n.kind != KindArray {
			return nil, fmt.Errorf("%w: %q on %s", ErrWrongKind, key, n.kind)
		}
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	return child, nil
}

// At returns the i-th item of an array or object.
func (n *Node) At(i int) (*Node, error) {
	if n.kind != KindArray && n.kind != KindObject {
		return nil, fmt.Errorf("%w: index %d on %s", ErrWrongKind, i, n.kind)
	}
	if i < 0 || i >= len(n.items) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrMissingKey, i, len(n.items))
	}
	return n.items[i], nil
}

// Items returns the children of an array or object in order.
func (n *Node) Items() []*Node { return n.items }

// AsString returns the string value.
func (n *Node) AsString() (string, error) {
	if n.kind != KindString {
		return "", fmt.Errorf("%w: want string, got %s", ErrWrongKind, n.kind)
	}
	return n.s, nil
}

// AsBool returns the boolean value. Integers are accepted as 0/1 flags.
func (n *Node) AsBool() (bool, error) {
	switch n.kind {
	case KindBool:
		return n.b, nil
	case KindInt:
		return n.i != 0, nil
	case KindUint:
		return n.u != 0, nil
	}
	return false, fmt.Errorf("%w: want bool, got %s", ErrWrongKind, n.kind)
}

// AsUint32 normalizes any numeric kind to uint32. Negative, fractional and
// overflowing values are rejected.
func (n *Node) AsUint32() (uint32, error) {
	switch n.kind {
	case KindInt:
		if n.i < 0 || n.i > math.MaxUint32 {
			return 0, fmt.Errorf("%w: %d", ErrOutOfRange, n.i)
		}
		return uint32(n.i), nil
	case KindUint:
		if n.u > math.MaxUint32 {
			return 0, fmt.Errorf("%w: %d", ErrOutOfRange, n.u)
		}
		return uint32(n.u), nil
	case KindDouble:
		if n.f < 0 || n.f > math.MaxUint32 || n.f != math.Trunc(n.f) {
			return 0, fmt.Errorf("%w: %g", ErrOutOfRange, n.f)
		}
		return uint32(n.f), nil
	}
	return 0, fmt.Errorf("%w: want number, got %s", ErrWrongKind, n.kind)
}

// AsInt64 returns any integral numeric kind as int64.
func (n *Node) AsInt64() (int64, error) {
	switch n.kind {
	case KindInt:
		return n.i, nil
	case KindUint:
		if n.u > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d", ErrOutOfRange, n.u)
		}
		return int64(n.u), nil
	case KindDouble:
		if n.f != math.Trunc(n.f) {
			return 0, fmt.Errorf("%w: %g", ErrOutOfRange, n.f)
		}
		return int64(n.f), nil
	case KindBool:
		if n.b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: want number, got %s", ErrWrongKind, n.kind)
}

// AsFloat64 returns any numeric kind as float64.
func (n *Node) AsFloat64() (float64, error) {
	switch n.kind {
	case KindInt:
		return float64(n.i), nil
	case KindUint:
		return float64(n.u), nil
	case KindDouble:
		return n.f, nil
	}
	return 0, fmt.Errorf("%w: want number, got %s", ErrWrongKind, n.kind)
}

// AsBlob returns the blob bytes.
func (n *Node) AsBlob() ([]byte, error) {
	if n.kind != KindBlob {
		return nil, fmt.Errorf("%w: want blob, got %s", ErrWrongKind, n.kind)
	}
	return n.blob, nil
}

// Path walks keys from n and returns the final node.
func (n *Node) Path(keys ...string) (*Node, error) {
	cur := n
	for i, key := range keys {
		next, err := cur.Get(key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pathString(keys[:i+1]), err)
		}
		cur = next
	}
	return cur, nil
}

func pathString(keys []string) string {
	return strings.Join(keys, ".")
}

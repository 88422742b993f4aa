package resource

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	bufferDescSize    = 24
	attributeDescSize = 56
	semanticNameSize  = 32
)

// BufferKind distinguishes vertex buffers from index buffers.
type BufferKind uint8

const (
	VertexBuffer BufferKind = iota
	IndexBuffer
)

// String returns the buffer kind name.
func (k BufferKind) String() string {
	if k == IndexBuffer {
		return "index"
	}
	return "vertex"
}

// Attribute describes one named, encoded field within a vertex.
type Attribute struct {
	SemanticName     string
	SemanticIndex    int32
	Format           Format
	Offset           uint32
	Slot             int32
	SlotType         int32
	InstanceStepRate int32
}

// Buffer is an immutable block of vertex or index data.
type Buffer struct {
	Kind         BufferKind
	ElementCount uint32
	ElementSize  uint32 // stride in bytes
	Attributes   []Attribute
	Data         []byte
}

// VBIB holds the vertex and index buffers of a resource.
type VBIB struct {
	VertexBuffers []Buffer
	IndexBuffers  []Buffer
}

// ParseVBIB parses a VBIB block.
func ParseVBIB(block []byte) (*VBIB, error) {
	if len(block) < 16 {
		return nil, fmt.Errorf("%w: VBIB header truncated", ErrResourceIO)
	}

	le := binary.LittleEndian
	vbOffset := le.Uint32(block[0:])
	vbCount := le.Uint32(block[4:])
	ibOffset := le.Uint32(block[8:])
	ibCount := le.Uint32(block[12:])

	vbib := &VBIB{}
	var err error
	vbib.VertexBuffers, err = parseBuffers(block, int64(vbOffset), vbCount, VertexBuffer)
	if err != nil {
		return nil, err
	}
	vbib.IndexBuffers, err = parseBuffers(block, 8+int64(ibOffset), ibCount, IndexBuffer)
	if err != nil {
		return nil, err
	}
	return vbib, nil
}

func parseBuffers(block []byte, start int64, count uint32, kind BufferKind) ([]Buffer, error) {
	if start+int64(count)*bufferDescSize > int64(len(block)) {
		return nil, fmt.Errorf("%w: %d %s buffer descriptors exceed block", ErrResourceIO, count, kind)
	}

	buffers := make([]Buffer, count)
	for i := range buffers {
		desc := start + int64(i)*bufferDescSize
		buf, err := parseBuffer(block, desc, kind)
		if err != nil {
			return nil, fmt.Errorf("%s buffer %d: %w", kind, i, err)
		}
		buffers[i] = *buf
	}
	return buffers, nil
}

// parseBuffer reads one 24-byte descriptor. Its attribute and data offsets are
// relative to the position of the field that holds them.
func parseBuffer(block []byte, desc int64, kind BufferKind) (*Buffer, error) {
	le := binary.LittleEndian
	buf := &Buffer{
		Kind:         kind,
		ElementCount: le.Uint32(block[desc:]),
		ElementSize:  le.Uint32(block[desc+4:]),
	}
	attrOffset := desc + 8 + int64(le.Uint32(block[desc+8:]))
	attrCount := le.Uint32(block[desc+12:])
	dataOffset := desc + 16 + int64(le.Uint32(block[desc+16:]))
	dataSize := le.Uint32(block[desc+20:])

	if attrOffset+int64(attrCount)*attributeDescSize > int64(len(block)) {
		return nil, fmt.Errorf("%w: %d attributes exceed block", ErrResourceIO, attrCount)
	}
	if dataOffset+int64(dataSize) > int64(len(block)) {
		return nil, fmt.Errorf("%w: %d data bytes exceed block", ErrResourceIO, dataSize)
	}

	expected := uint64(buf.ElementCount) * uint64(buf.ElementSize)
	if uint64(dataSize) != expected {
		return nil, fmt.Errorf("%w: compressed buffer data (%d bytes, expected %d)", ErrUnsupportedFormat, dataSize, expected)
	}

	r := bytes.NewReader(block[attrOffset : attrOffset+int64(attrCount)*attributeDescSize])
	buf.Attributes = make([]Attribute, attrCount)
	for i := range buf.Attributes {
		attr := &buf.Attributes[i]
		name := make([]byte, semanticNameSize)
		r.Read(name)
		attr.SemanticName = cString(name)
		binary.Read(r, le, &attr.SemanticIndex)
		binary.Read(r, le, &attr.Format)
		binary.Read(r, le, &attr.Offset)
		binary.Read(r, le, &attr.Slot)
		binary.Read(r, le, &attr.SlotType)
		binary.Read(r, le, &attr.InstanceStepRate)
	}

	buf.Data = block[dataOffset : dataOffset+int64(dataSize)]
	return buf, nil
}

// cString trims a fixed-length field at its NUL terminator.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

package resource

import (
	"encoding/binary"

	"github.com/Faultbox/vmdlview/pkg/kv3"
)

// Build assembles a resource container from a DATA tree and an optional VBIB.
// It produces the layout Parse expects and is used to create fixtures.
func Build(data *kv3.Node, vbib *VBIB) []byte {
	type block struct {
		typ  string
		body []byte
	}
	var blocks []block
	if data != nil {
		blocks = append(blocks, block{BlockData, kv3.Encode(data)})
	}
	if vbib != nil {
		blocks = append(blocks, block{BlockVBIB, EncodeVBIB(vbib)})
	}

	le := binary.LittleEndian
	headerSize := 16
	tableSize := len(blocks) * 12
	out := make([]byte, headerSize+tableSize)
	le.PutUint16(out[4:], HeaderVersion)
	le.PutUint32(out[8:], 8)
	le.PutUint32(out[12:], uint32(len(blocks)))

	for i, b := range blocks {
		entry := headerSize + i*12
		copy(out[entry:], b.typ)
		le.PutUint32(out[entry+4:], uint32(len(out)-(entry+4)))
		le.PutUint32(out[entry+8:], uint32(len(b.body)))
		out = append(out, b.body...)
	}
	le.PutUint32(out[0:], uint32(len(out)))
	return out
}

// EncodeVBIB serializes vertex and index buffers as a VBIB block.
func EncodeVBIB(vbib *VBIB) []byte {
	le := binary.LittleEndian
	all := append(append([]Buffer{}, vbib.VertexBuffers...), vbib.IndexBuffers...)

	descStart := 16
	attrStart := descStart + len(all)*bufferDescSize
	attrTotal := 0
	for _, b := range all {
		attrTotal += len(b.Attributes) * attributeDescSize
	}
	dataStart := attrStart + attrTotal
	dataTotal := 0
	for _, b := range all {
		dataTotal += len(b.Data)
	}

	out := make([]byte, dataStart+dataTotal)
	le.PutUint32(out[0:], uint32(descStart))
	le.PutUint32(out[4:], uint32(len(vbib.VertexBuffers)))
	le.PutUint32(out[8:], uint32(descStart+len(vbib.VertexBuffers)*bufferDescSize-8))
	le.PutUint32(out[12:], uint32(len(vbib.IndexBuffers)))

	attrPos, dataPos := attrStart, dataStart
	for i, b := range all {
		desc := descStart + i*bufferDescSize
		le.PutUint32(out[desc:], b.ElementCount)
		le.PutUint32(out[desc+4:], b.ElementSize)
		le.PutUint32(out[desc+8:], uint32(attrPos-(desc+8)))
		le.PutUint32(out[desc+12:], uint32(len(b.Attributes)))
		le.PutUint32(out[desc+16:], uint32(dataPos-(desc+16)))
		le.PutUint32(out[desc+20:], uint32(len(b.Data)))

		for _, a := range b.Attributes {
			copy(out[attrPos:attrPos+semanticNameSize], a.SemanticName)
			p := attrPos + semanticNameSize
			le.PutUint32(out[p:], uint32(a.SemanticIndex))
			le.PutUint32(out[p+4:], uint32(a.Format))
			le.PutUint32(out[p+8:], a.Offset)
			le.PutUint32(out[p+12:], uint32(a.Slot))
			le.PutUint32(out[p+16:], uint32(a.SlotType))
			le.PutUint32(out[p+20:], uint32(a.InstanceStepRate))
			attrPos += attributeDescSize
		}

		copy(out[dataPos:], b.Data)
		dataPos += len(b.Data)
	}
	return out
}

// Package resource reads compiled game resource containers (*_c files): the
// header, the block table, the KV3 DATA block and the VBIB vertex/index buffer block.
package resource

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/vmdlview/pkg/kv3"
)

// HeaderVersion is the only supported container header version.
const HeaderVersion = 12

// Block types this package understands.
const (
	BlockData = "DATA"
	BlockVBIB = "VBIB"
)

// Magic values of files that are not resource containers.
const (
	magicVPK    = 0x55AA1234
	magicShader = 0x32736376 // "vcs2"
)

// Block is one entry of the container block table.
type Block struct {
	Type   string
	Offset uint32 // absolute offset in the file
	Size   uint32
}

// Resource is a parsed resource container.
type Resource struct {
	FileSize      uint32
	HeaderVersion uint16
	Version       uint16
	Blocks        []Block

	raw  []byte
	data *kv3.Node
	vbib *VBIB
}

// Open reads and parses a resource file from disk.
func Open(path string) (*Resource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceIO, err)
	}
	return Parse(raw)
}

// Read parses a resource of the given size from r.
func Read(r io.ReaderAt, size int64) (*Resource, error) {
	raw := make([]byte, size)
	if _, err := r.ReadAt(raw, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", ErrResourceIO, err)
	}
	return Parse(raw)
}

// Parse parses a resource container held in memory. The DATA block is decoded
// as KV3 and the VBIB block, when present, into vertex and index buffers.
func Parse(raw []byte) (*Resource, error) {
	if len(raw) < 16 {
		return nil, fmt.Errorf("%w: file too short (%d bytes)", ErrResourceIO, len(raw))
	}

	r := bytes.NewReader(raw)
	res := &Resource{raw: raw}

	binary.Read(r, binary.LittleEndian, &res.FileSize)
	switch res.FileSize {
	case magicVPK:
		return nil, fmt.Errorf("%w: file is a VPK archive, not a resource", ErrUnsupportedFormat)
	case magicShader:
		return nil, fmt.Errorf("%w: file is a compiled shader, not a resource", ErrUnsupportedFormat)
	}

	binary.Read(r, binary.LittleEndian, &res.HeaderVersion)
	binary.Read(r, binary.LittleEndian, &res.Version)
	if res.HeaderVersion != HeaderVersion {
		return nil, fmt.Errorf("%w: header version %d", ErrUnsupportedFormat, res.HeaderVersion)
	}

	var blockOffset, blockCount uint32
	binary.Read(r, binary.LittleEndian, &blockOffset)
	binary.Read(r, binary.LittleEndian, &blockCount)

	// The block offset is relative to its own field at byte 8.
	tableStart := int64(8) + int64(blockOffset)
	if tableStart+int64(blockCount)*12 > int64(len(raw)) {
		return nil, fmt.Errorf("%w: block table of %d entries exceeds file", ErrResourceIO, blockCount)
	}

	for i := uint32(0); i < blockCount; i++ {
		entry := tableStart + int64(i)*12
		typ := string(raw[entry : entry+4])
		rel := binary.LittleEndian.Uint32(raw[entry+4:])
		size := binary.LittleEndian.Uint32(raw[entry+8:])

		offset := entry + 4 + int64(rel)
		if offset+int64(size) > int64(len(raw)) {
			return nil, fmt.Errorf("%w: block %s [%d+%d] exceeds file size %d", ErrResourceIO, typ, offset, size, len(raw))
		}
		res.Blocks = append(res.Blocks, Block{Type: typ, Offset: uint32(offset), Size: size})
	}

	if block, ok := res.Block(BlockData); ok {
		doc, err := kv3.Decode(block)
		if errors.Is(err, kv3.ErrTruncated) {
			return nil, fmt.Errorf("%w: DATA block: %w", ErrResourceIO, err)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: DATA block: %w", ErrUnsupportedFormat, err)
		}
		res.data = doc.Root
	}

	if block, ok := res.Block(BlockVBIB); ok {
		vbib, err := ParseVBIB(block)
		if err != nil {
			return nil, fmt.Errorf("VBIB block: %w", err)
		}
		res.vbib = vbib
	}

	return res, nil
}

// Block returns the bytes of the first block of the given type.
func (r *Resource) Block(typ string) ([]byte, bool) {
	for _, b := range r.Blocks {
		if b.Type == typ {
			return r.raw[b.Offset : b.Offset+b.Size], true
		}
	}
	return nil, false
}

// Data returns the decoded DATA property tree.
func (r *Resource) Data() (*kv3.Node, error) {
	if r.data == nil {
		return nil, fmt.Errorf("%w: resource has no KV3 DATA block", ErrSchema)
	}
	return r.data, nil
}

// VBIB returns the vertex/index buffer block.
func (r *Resource) VBIB() (*VBIB, error) {
	if r.vbib == nil {
		return nil, fmt.Errorf("%w: resource has no VBIB block", ErrSchema)
	}
	return r.vbib, nil
}

package kv3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/pierrec/lz4/v4"
)

// Decoder errors.
var (
	ErrInvalidMagic        = errors.New("invalid KV3 magic: expected 'VKV\\x03'")
	ErrUnsupportedEncoding = errors.New("unsupported KV3 encoding")
	ErrTruncated           = errors.New("truncated KV3 data")
	ErrUnknownType         = errors.New("unknown KV3 value type")
)

// Magic is the little-endian signature of a binary KV3 block.
const Magic = 0x03564B56

// GUID identifies a KV3 encoding or format.
type GUID [16]byte

// Known encodings and formats.
var (
	EncodingBlockCompressed = GUID{0x46, 0x1A, 0x79, 0x95, 0xBC, 0x95, 0x6C, 0x4F, 0xA7, 0x0B, 0x05, 0xBC, 0xA1, 0xB7, 0xDF, 0xD2}
	EncodingUncompressed    = GUID{0x00, 0x05, 0x86, 0x1B, 0xD8, 0xF7, 0xC1, 0x40, 0xAD, 0x82, 0x75, 0xA4, 0x82, 0x67, 0xE7, 0x14}
	EncodingLZ4             = GUID{0x8A, 0x34, 0x47, 0x68, 0xA1, 0x63, 0x5C, 0x4F, 0xA1, 0x97, 0x53, 0x80, 0x6F, 0xD9, 0xB1, 0x19}
	FormatGeneric           = GUID{0x7C, 0x16, 0x12, 0x74, 0xE9, 0x06, 0x98, 0x46, 0xAF, 0xF2, 0xE6, 0x3E, 0xB5, 0x90, 0x37, 0xE7}
)

// Binary value type tags.
const (
	typeNull        = 1
	typeBool        = 2
	typeInt64       = 3
	typeUint64      = 4
	typeDouble      = 5
	typeString      = 6
	typeBlob        = 7
	typeArray       = 8
	typeObject      = 9
	typeTypedArray  = 10
	typeInt32       = 11
	typeUint32      = 12
	typeTrue        = 13
	typeFalse       = 14
	typeInt64Zero   = 15
	typeInt64One    = 16
	typeDoubleZero  = 17
	typeDoubleOne   = 18
	typeFlagPresent = 0x80
)

// maxDepth bounds nesting so malformed input cannot exhaust the stack.
const maxDepth = 512

// Document is a decoded KV3 block.
type Document struct {
	Encoding GUID
	Format   GUID
	Root     *Node
}

// Decode parses a binary KV3 block.
func Decode(data []byte) (*Document, error) {
	if len(data) < 4+16+16 {
		return nil, ErrTruncated
	}
	if binary.LittleEndian.Uint32(data) != Magic {
		return nil, ErrInvalidMagic
	}

	doc := &Document{}
	copy(doc.Encoding[:], data[4:20])
	copy(doc.Format[:], data[20:36])
	body := data[36:]

	var err error
	switch doc.Encoding {
	case EncodingUncompressed:
	case EncodingBlockCompressed:
		body, err = blockDecompress(body)
	case EncodingLZ4:
		body, err = lz4Decompress(body)
	default:
		return nil, fmt.Errorf("%w: %x", ErrUnsupportedEncoding, doc.Encoding[:])
	}
	if err != nil {
		return nil, err
	}

	p := &parser{r: bytes.NewReader(body)}
	if err := p.readStrings(); err != nil {
		return nil, err
	}
	root, err := p.readValue(0)
	if err != nil {
		return nil, err
	}
	doc.Root = root
	return doc, nil
}

// blockDecompress expands the 16-bit mask LZ77 variant used by older KV3 blocks.
func blockDecompress(src []byte) ([]byte, error) {
	if len(src) < 4 {
		return nil, ErrTruncated
	}
	flags := src[:4]
	src = src[4:]
	if flags[3]&0x80 != 0 {
		return src, nil
	}

	size := int(flags[2])<<16 | int(flags[1])<<8 | int(flags[0])
	out := make([]byte, 0, size)
	pos := 0

	for pos < len(src) && len(out) < size {
		if pos+2 > len(src) {
			return nil, ErrTruncated
		}
		mask := binary.LittleEndian.Uint16(src[pos:])
		pos += 2

		for i := 0; i < 16 && len(out) < size; i++ {
			if mask&(1<<i) == 0 {
				if pos >= len(src) {
					return nil, ErrTruncated
				}
				out = append(out, src[pos])
				pos++
				continue
			}

			if pos+2 > len(src) {
				return nil, ErrTruncated
			}
			token := binary.LittleEndian.Uint16(src[pos:])
			pos += 2
			offset := int(token>>4) + 1
			length := int(token&0x0F) + 3
			if offset > len(out) {
				return nil, fmt.Errorf("%w: back reference %d beyond %d bytes", ErrTruncated, offset, len(out))
			}
			start := len(out) - offset
			for j := 0; j < length; j++ {
				out = append(out, out[start+j])
			}
		}
	}

	if len(out) != size {
		return nil, fmt.Errorf("%w: decompressed %d of %d bytes", ErrTruncated, len(out), size)
	}
	return out, nil
}

func lz4Decompress(src []byte) ([]byte, error) {
	if len(src) < 4 {
		return nil, ErrTruncated
	}
	size := binary.LittleEndian.Uint32(src)
	// LZ4 cannot expand a block by more than 255 times.
	if uint64(size) > 255*uint64(len(src)-4) {
		return nil, fmt.Errorf("%w: lz4 size %d from %d compressed bytes", ErrTruncated, size, len(src)-4)
	}
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(src[4:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if uint32(n) != size {
		return nil, fmt.Errorf("%w: lz4 produced %d of %d bytes", ErrTruncated, n, size)
	}
	return out, nil
}

type parser struct {
	r       *bytes.Reader
	strings []string
}

func (p *parser) read(v any) error {
	if err := binary.Read(p.r, binary.LittleEndian, v); err != nil {
		return ErrTruncated
	}
	return nil
}

func (p *parser) readStrings() error {
	var count int32
	if err := p.read(&count); err != nil {
		return err
	}
	if count < 0 || int(count) > p.r.Len() {
		return fmt.Errorf("%w: string count %d", ErrTruncated, count)
	}

	p.strings = make([]string, count)
	for i := range p.strings {
		s, err := p.readCString()
		if err != nil {
			return err
		}
		p.strings[i] = s
	}
	return nil
}

func (p *parser) readCString() (string, error) {
	var buf []byte
	for {
		b, err := p.r.ReadByte()
		if err != nil {
			return "", ErrTruncated
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

func (p *parser) lookupString(id int32) (string, error) {
	if id == -1 {
		return "", nil
	}
	if id < 0 || int(id) >= len(p.strings) {
		return "", fmt.Errorf("%w: string id %d of %d", ErrTruncated, id, len(p.strings))
	}
	return p.strings[id], nil
}

func (p *parser) readType() (byte, error) {
	t, err := p.r.ReadByte()
	if err != nil {
		return 0, ErrTruncated
	}
	if t&typeFlagPresent != 0 {
		t &^= typeFlagPresent
		if _, err := p.r.ReadByte(); err != nil {
			return 0, ErrTruncated
		}
	}
	return t, nil
}

func (p *parser) readValue(depth int) (*Node, error) {
	t, err := p.readType()
	if err != nil {
		return nil, err
	}
	return p.readTyped(t, depth)
}

func (p *parser) readCount() (int, error) {
	var count int32
	if err := p.read(&count); err != nil {
		return 0, err
	}
	if count < 0 || int(count) > p.r.Len() {
		return 0, fmt.Errorf("%w: element count %d", ErrTruncated, count)
	}
	return int(count), nil
}

func (p *parser) readTyped(t byte, depth int) (*Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrTruncated, maxDepth)
	}

	switch t {
	case typeNull:
		return Null(), nil
	case typeBool:
		b, err := p.r.ReadByte()
		if err != nil {
			return nil, ErrTruncated
		}
		return Bool(b != 0), nil
	case typeTrue:
		return Bool(true), nil
	case typeFalse:
		return Bool(false), nil
	case typeInt64:
		var v int64
		if err := p.read(&v); err != nil {
			return nil, err
		}
		return Int(v), nil
	case typeInt32:
		var v int32
		if err := p.read(&v); err != nil {
			return nil, err
		}
		return Int(int64(v)), nil
	case typeInt64Zero:
		return Int(0), nil
	case typeInt64One:
		return Int(1), nil
	case typeUint64:
		var v uint64
		if err := p.read(&v); err != nil {
			return nil, err
		}
		return Uint(v), nil
	case typeUint32:
		var v uint32
		if err := p.read(&v); err != nil {
			return nil, err
		}
		return Uint(uint64(v)), nil
	case typeDouble:
		var bits uint64
		if err := p.read(&bits); err != nil {
			return nil, err
		}
		return Double(math.Float64frombits(bits)), nil
	case typeDoubleZero:
		return Double(0), nil
	case typeDoubleOne:
		return Double(1), nil
	case typeString:
		var id int32
		if err := p.read(&id); err != nil {
			return nil, err
		}
		s, err := p.lookupString(id)
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case typeBlob:
		n, err := p.readCount()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(p.r, buf); err != nil {
			return nil, ErrTruncated
		}
		return Blob(buf), nil
	case typeArray:
		n, err := p.readCount()
		if err != nil {
			return nil, err
		}
		arr := Array()
		for i := 0; i < n; i++ {
			item, err := p.readValue(depth + 1)
			if err != nil {
				return nil, fmt.Errorf("array item %d: %w", i, err)
			}
			arr.Append(item)
		}
		return arr, nil
	case typeTypedArray:
		itemType, err := p.readType()
		if err != nil {
			return nil, err
		}
		n, err := p.readCount()
		if err != nil {
			return nil, err
		}
		arr := Array()
		for i := 0; i < n; i++ {
			item, err := p.readTyped(itemType, depth+1)
			if err != nil {
				return nil, fmt.Errorf("typed array item %d: %w", i, err)
			}
			arr.Append(item)
		}
		return arr, nil
	case typeObject:
		n, err := p.readCount()
		if err != nil {
			return nil, err
		}
		obj := Object()
		for i := 0; i < n; i++ {
			var id int32
			if err := p.read(&id); err != nil {
				return nil, err
			}
			name, err := p.lookupString(id)
			if err != nil {
				return nil, err
			}
			value, err := p.readValue(depth + 1)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			obj.Set(name, value)
		}
		return obj, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
}

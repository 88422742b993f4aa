package resource

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/vmdlview/pkg/kv3"
)

func makeVBIB() *VBIB {
	return &VBIB{
		VertexBuffers: []Buffer{{
			Kind:         VertexBuffer,
			ElementCount: 3,
			ElementSize:  20,
			Attributes: []Attribute{
				{SemanticName: "POSITION", Format: FormatR32G32B32Float, Offset: 0},
				{SemanticName: "TEXCOORD", Format: FormatR32G32Float, Offset: 12},
			},
			Data: make([]byte, 60),
		}},
		IndexBuffers: []Buffer{{
			Kind:         IndexBuffer,
			ElementCount: 3,
			ElementSize:  2,
			Data:         []byte{0, 0, 1, 0, 2, 0},
		}},
	}
}

func TestParseRoundTrip(t *testing.T) {
	tree := kv3.Object().Set("m_name", kv3.String("crate"))
	raw := Build(tree, makeVBIB())

	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if res.HeaderVersion != HeaderVersion {
		t.Errorf("header version = %d", res.HeaderVersion)
	}
	if int(res.FileSize) != len(raw) {
		t.Errorf("file size = %d, want %d", res.FileSize, len(raw))
	}
	if len(res.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(res.Blocks))
	}

	data, err := res.Data()
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}
	name, _ := data.Lookup("m_name")
	if s, _ := name.AsString(); s != "crate" {
		t.Errorf("m_name = %q", s)
	}

	vbib, err := res.VBIB()
	if err != nil {
		t.Fatalf("VBIB failed: %v", err)
	}
	if len(vbib.VertexBuffers) != 1 || len(vbib.IndexBuffers) != 1 {
		t.Fatalf("got %d vertex / %d index buffers", len(vbib.VertexBuffers), len(vbib.IndexBuffers))
	}

	vb := vbib.VertexBuffers[0]
	if vb.ElementCount != 3 || vb.ElementSize != 20 || len(vb.Data) != 60 {
		t.Errorf("vertex buffer = %d x %d (%d bytes)", vb.ElementCount, vb.ElementSize, len(vb.Data))
	}
	if len(vb.Attributes) != 2 {
		t.Fatalf("got %d attributes", len(vb.Attributes))
	}
	if vb.Attributes[1].SemanticName != "TEXCOORD" || vb.Attributes[1].Format != FormatR32G32Float || vb.Attributes[1].Offset != 12 {
		t.Errorf("texcoord attribute = %+v", vb.Attributes[1])
	}

	ib := vbib.IndexBuffers[0]
	if ib.Kind != IndexBuffer || ib.ElementSize != 2 || ib.Data[2] != 1 {
		t.Errorf("index buffer = %+v", ib)
	}
}

func TestParseErrors(t *testing.T) {
	valid := Build(kv3.Object(), makeVBIB())

	badHeader := append([]byte{}, valid...)
	binary.LittleEndian.PutUint16(badHeader[4:], 11)

	vpk := append([]byte{}, valid...)
	binary.LittleEndian.PutUint32(vpk[0:], magicVPK)

	badBlocks := append([]byte{}, valid...)
	binary.LittleEndian.PutUint32(badBlocks[12:], 1000)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrResourceIO},
		{"header version", badHeader, ErrUnsupportedFormat},
		{"vpk archive", vpk, ErrUnsupportedFormat},
		{"block table overflow", badBlocks, ErrResourceIO},
		{"truncated", valid[:len(valid)-10], ErrResourceIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDataBlockErrors(t *testing.T) {
	valid := Build(kv3.Object().Set("m_name", kv3.String("crate")), nil)
	const body = 16 + 12 // header and one block table entry

	truncated := append([]byte{}, valid...)
	binary.LittleEndian.PutUint32(truncated[body+36:], 0x7FFFFFFF)

	badMagic := append([]byte{}, valid...)
	badMagic[body] ^= 0xFF

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"truncated kv3", truncated, ErrResourceIO},
		{"bad kv3 magic", badMagic, ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseVBIBCompressedBuffer(t *testing.T) {
	vbib := makeVBIB()
	vbib.VertexBuffers[0].Data = vbib.VertexBuffers[0].Data[:40]

	_, err := ParseVBIB(EncodeVBIB(vbib))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestMissingBlocks(t *testing.T) {
	res, err := Parse(Build(nil, nil))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := res.Data(); !errors.Is(err, ErrSchema) {
		t.Errorf("Data: got %v, want ErrSchema", err)
	}
	if _, err := res.VBIB(); !errors.Is(err, ErrSchema) {
		t.Errorf("VBIB: got %v, want ErrSchema", err)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crate.vmesh_c")
	if err := os.WriteFile(path, Build(kv3.Object(), makeVBIB()), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err != nil {
		t.Errorf("Open failed: %v", err)
	}
	if _, err := Open(path + ".missing"); !errors.Is(err, ErrResourceIO) {
		t.Errorf("got %v, want ErrResourceIO", err)
	}
}

func TestFormatInfo(t *testing.T) {
	tests := []struct {
		format Format
		name   string
		size   int
	}{
		{FormatR32G32B32Float, "R32G32B32_FLOAT", 12},
		{FormatR16G16Float, "R16G16_FLOAT", 4},
		{FormatR8G8B8A8Unorm, "R8G8B8A8_UNORM", 4},
		{FormatR16G16B16A16Sint, "R16G16B16A16_SINT", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := tt.format.Info()
			if !ok {
				t.Fatal("format not known")
			}
			if info.Size() != tt.size {
				t.Errorf("size = %d, want %d", info.Size(), tt.size)
			}
			if tt.format.String() != tt.name {
				t.Errorf("String() = %q", tt.format.String())
			}
		})
	}
	if Format(999).String() != "DXGI_FORMAT(999)" {
		t.Errorf("unknown format string = %q", Format(999).String())
	}
}

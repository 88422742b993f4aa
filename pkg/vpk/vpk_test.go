package vpk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testFile struct {
	path    string
	data    []byte
	preload int
	archive uint16 // dirArchiveIndex keeps data in the directory file
}

// writeTestVPK writes a version 2 directory file plus any numbered data archives.
func writeTestVPK(t *testing.T, dir string, files []testFile) string {
	t.Helper()

	le := binary.LittleEndian
	var tree bytes.Buffer
	dirData := map[uint16]*bytes.Buffer{}

	// Group by extension then directory, matching the on-disk tree.
	type leaf struct {
		name string
		f    testFile
	}
	byExt := map[string]map[string][]leaf{}
	var extOrder []string
	for _, f := range files {
		d, base := filepath.Split(f.path)
		d = strings.TrimSuffix(d, "/")
		if d == "" {
			d = " "
		}
		ext := filepath.Ext(base)
		name := strings.TrimSuffix(base, ext)
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" {
			ext = " "
		}
		if byExt[ext] == nil {
			byExt[ext] = map[string][]leaf{}
			extOrder = append(extOrder, ext)
		}
		byExt[ext][d] = append(byExt[ext][d], leaf{name, f})
	}

	for _, ext := range extOrder {
		tree.WriteString(ext + "\x00")
		for d, leaves := range byExt[ext] {
			tree.WriteString(d + "\x00")
			for _, l := range leaves {
				tree.WriteString(l.name + "\x00")

				buf := dirData[l.f.archive]
				if buf == nil {
					buf = &bytes.Buffer{}
					dirData[l.f.archive] = buf
				}
				rest := l.f.data[l.f.preload:]

				var entry [18]byte
				le.PutUint32(entry[0:], crc32.ChecksumIEEE(l.f.data))
				le.PutUint16(entry[4:], uint16(l.f.preload))
				le.PutUint16(entry[6:], l.f.archive)
				le.PutUint32(entry[8:], uint32(buf.Len()))
				le.PutUint32(entry[12:], uint32(len(rest)))
				le.PutUint16(entry[16:], entryTerminator)
				tree.Write(entry[:])
				tree.Write(l.f.data[:l.f.preload])
				buf.Write(rest)
			}
			tree.WriteByte(0)
		}
		tree.WriteByte(0)
	}
	tree.WriteByte(0)

	var out bytes.Buffer
	header := make([]byte, 28)
	le.PutUint32(header[0:], Signature)
	le.PutUint32(header[4:], 2)
	le.PutUint32(header[8:], uint32(tree.Len()))
	if inDir := dirData[dirArchiveIndex]; inDir != nil {
		le.PutUint32(header[12:], uint32(inDir.Len()))
	}
	out.Write(header)
	out.Write(tree.Bytes())
	if inDir := dirData[dirArchiveIndex]; inDir != nil {
		out.Write(inDir.Bytes())
	}

	path := filepath.Join(dir, "pak01_dir.vpk")
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	for idx, buf := range dirData {
		if idx == dirArchiveIndex {
			continue
		}
		if err := os.WriteFile(ArchivePath(path, idx), buf.Bytes(), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func testArchive(t *testing.T) *Archive {
	t.Helper()
	path := writeTestVPK(t, t.TempDir(), []testFile{
		{path: "models/props/crate.vmdl_c", data: []byte("model bytes"), archive: dirArchiveIndex},
		{path: "materials/props/crate.vmat_c", data: []byte("material bytes"), preload: 4, archive: 0},
		{path: "materials/props/crate_color.tga", data: []byte("texture"), archive: 1},
		{path: "readme", data: []byte("hello"), preload: 5, archive: dirArchiveIndex},
	})

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open VPK: %v", err)
	}
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestOpen(t *testing.T) {
	archive := testArchive(t)

	if archive.Header().Version != 2 {
		t.Errorf("version = %d, want 2", archive.Header().Version)
	}
	if len(archive.fileList) != 4 {
		t.Errorf("file count = %d, want 4", len(archive.fileList))
	}
}

func TestList(t *testing.T) {
	archive := testArchive(t)

	want := []string{
		"materials/props/crate.vmat_c",
		"materials/props/crate_color.tga",
		"models/props/crate.vmdl_c",
		"readme",
	}
	got := archive.List()
	if len(got) != len(want) {
		t.Fatalf("List() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestContains(t *testing.T) {
	archive := testArchive(t)

	tests := []struct {
		path string
		want bool
	}{
		{"models/props/crate.vmdl_c", true},
		{"MODELS/Props/Crate.VMDL_C", true},
		{"models\\props\\crate.vmdl_c", true},
		{"models/props/barrel.vmdl_c", false},
	}
	for _, tt := range tests {
		if got := archive.Contains(tt.path); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRead(t *testing.T) {
	archive := testArchive(t)

	tests := []struct {
		path string
		want string
	}{
		{"models/props/crate.vmdl_c", "model bytes"},
		{"materials/props/crate.vmat_c", "material bytes"},
		{"materials/props/crate_color.tga", "texture"},
		{"readme", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			data, err := archive.Read(tt.path)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("got %q, want %q", data, tt.want)
			}
		})
	}

	if _, err := archive.Read("missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestReadChecksumMismatch(t *testing.T) {
	archive := testArchive(t)

	entry, _ := archive.Stat("readme")
	entry.CRC ^= 1
	if _, err := archive.Read("readme"); !errors.Is(err, ErrChecksum) {
		t.Errorf("got %v, want ErrChecksum", err)
	}
}

func TestOpenInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad_dir.vpk")
	os.WriteFile(path, []byte("not a vpk archive at all"), 0644)

	if _, err := Open(path); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("got %v, want ErrInvalidSignature", err)
	}
}

func TestOpenTreeSizeBeyondFile(t *testing.T) {
	path := writeTestVPK(t, t.TempDir(), []testFile{
		{path: "readme", data: []byte("hello"), archive: dirArchiveIndex},
	})
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	binary.LittleEndian.PutUint32(data[8:], 0xFFFFFFF0)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}

func TestArchivePath(t *testing.T) {
	tests := []struct {
		dir   string
		index uint16
		want  string
	}{
		{"game/pak01_dir.vpk", 0, "game/pak01_000.vpk"},
		{"game/pak01_dir.vpk", 12, "game/pak01_012.vpk"},
		{"shaders_dir.vpk", 1, "shaders_001.vpk"},
	}
	for _, tt := range tests {
		if got := ArchivePath(tt.dir, tt.index); got != tt.want {
			t.Errorf("ArchivePath(%q, %d) = %q, want %q", tt.dir, tt.index, got, tt.want)
		}
	}
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out_dir.vpk")
	files := map[string][]byte{
		"models/crate.vmdl_c":       []byte("model"),
		"materials/crate.vmat_c":    []byte("material"),
		"materials/crate_color.tga": []byte("texture"),
		"LICENSE":                   []byte("text"),
	}
	if err := Create(path, files); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open created archive: %v", err)
	}
	defer archive.Close()

	if len(archive.List()) != len(files) {
		t.Fatalf("List() = %v", archive.List())
	}
	for name, want := range files {
		got, err := archive.Read(name)
		if err != nil {
			t.Errorf("Read(%s) failed: %v", name, err)
			continue
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Read(%s) = %q, want %q", name, got, want)
		}
	}
}

package vpk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path"
	"sort"
	"strings"
)

// Create writes a single-file version 2 archive holding files, keyed by
// archive path. All data is stored after the tree in the directory file.
func Create(dest string, files map[string][]byte) error {
	data, err := Build(files)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

// Build encodes files as a single-file version 2 archive.
func Build(files map[string][]byte) ([]byte, error) {
	// extension -> directory -> names
	tree := map[string]map[string][]string{}
	byName := map[string][]byte{}
	for p, data := range files {
		p = strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "/")
		if p == "" {
			return nil, fmt.Errorf("empty file path")
		}
		dir, base := path.Split(p)
		dir = strings.TrimSuffix(dir, "/")
		ext := path.Ext(base)
		name := strings.TrimSuffix(base, ext)
		ext = strings.TrimPrefix(ext, ".")
		if dir == "" {
			dir = " "
		}
		if ext == "" {
			ext = " "
		}
		if tree[ext] == nil {
			tree[ext] = map[string][]string{}
		}
		tree[ext][dir] = append(tree[ext][dir], name)
		byName[ext+"\x00"+dir+"\x00"+name] = data
	}

	le := binary.LittleEndian
	var dirTree, body bytes.Buffer
	for _, ext := range sortedKeys(tree) {
		dirTree.WriteString(ext + "\x00")
		for _, dir := range sortedKeys(tree[ext]) {
			dirTree.WriteString(dir + "\x00")
			names := tree[ext][dir]
			sort.Strings(names)
			for _, name := range names {
				data := byName[ext+"\x00"+dir+"\x00"+name]
				dirTree.WriteString(name + "\x00")

				var entry [18]byte
				le.PutUint32(entry[0:], crc32.ChecksumIEEE(data))
				le.PutUint16(entry[6:], dirArchiveIndex)
				le.PutUint32(entry[8:], uint32(body.Len()))
				le.PutUint32(entry[12:], uint32(len(data)))
				le.PutUint16(entry[16:], entryTerminator)
				dirTree.Write(entry[:])
				body.Write(data)
			}
			dirTree.WriteByte(0)
		}
		dirTree.WriteByte(0)
	}
	dirTree.WriteByte(0)

	var out bytes.Buffer
	binary.Write(&out, le, Header{
		Signature:           Signature,
		Version:             2,
		TreeSize:            uint32(dirTree.Len()),
		FileDataSectionSize: uint32(body.Len()),
	})
	out.Write(dirTree.Bytes())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package vpk provides reading functionality for VPK package archives.
package vpk

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

// Signature is the little-endian magic at the start of every directory file.
const Signature = 0x55AA1234

// dirArchiveIndex marks entries whose data follows the tree in the directory file.
const dirArchiveIndex = 0x7FFF

const entryTerminator = 0xFFFF

var (
	ErrInvalidSignature   = errors.New("vpk: invalid signature")
	ErrUnsupportedVersion = errors.New("vpk: unsupported version")
	ErrNotFound           = errors.New("vpk: file not found")
	ErrChecksum           = errors.New("vpk: checksum mismatch")
	ErrTruncated          = errors.New("vpk: truncated directory")
)

// Header contains VPK directory header information.
type Header struct {
	Signature uint32
	Version   uint32
	TreeSize  uint32

	// Version 2 only.
	FileDataSectionSize   uint32
	ArchiveMD5SectionSize uint32
	OtherMD5SectionSize   uint32
	SignatureSectionSize  uint32
}

// Size returns the header length in bytes for the header's version.
func (h Header) Size() int64 {
	if h.Version == 2 {
		return 28
	}
	return 12
}

// Entry represents a file entry in the archive.
type Entry struct {
	Path         string
	CRC          uint32
	Preload      []byte
	ArchiveIndex uint16
	Offset       uint32
	Length       uint32
}

// Size returns the full uncompressed size of the entry.
func (e *Entry) Size() int {
	return len(e.Preload) + int(e.Length)
}

// Archive represents an opened VPK archive.
type Archive struct {
	path     string
	file     *os.File
	header   Header
	fileList map[string]*Entry

	mu       sync.Mutex
	archives map[uint16]*os.File
}

// Open opens a VPK directory file (usually *_dir.vpk) for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	archive := &Archive{
		path:     path,
		file:     file,
		fileList: make(map[string]*Entry),
		archives: make(map[uint16]*os.File),
	}

	if err := archive.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if err := archive.readTree(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading directory tree: %w", err)
	}

	return archive, nil
}

// Close closes the directory file and any opened data archives.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for idx, f := range a.archives {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(a.archives, idx)
	}
	if a.file != nil {
		if err := a.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.file = nil
	}
	return firstErr
}

// Header returns the parsed directory header.
func (a *Archive) Header() Header {
	return a.header
}

// Path returns the path of the directory file.
func (a *Archive) Path() string {
	return a.path
}

func (a *Archive) readHeader() error {
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	r := a.file
	binary.Read(r, binary.LittleEndian, &a.header.Signature)
	if a.header.Signature != Signature {
		return ErrInvalidSignature
	}
	binary.Read(r, binary.LittleEndian, &a.header.Version)
	if err := binary.Read(r, binary.LittleEndian, &a.header.TreeSize); err != nil {
		return err
	}

	switch a.header.Version {
	case 1:
	case 2:
		binary.Read(r, binary.LittleEndian, &a.header.FileDataSectionSize)
		binary.Read(r, binary.LittleEndian, &a.header.ArchiveMD5SectionSize)
		binary.Read(r, binary.LittleEndian, &a.header.OtherMD5SectionSize)
		if err := binary.Read(r, binary.LittleEndian, &a.header.SignatureSectionSize); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, a.header.Version)
	}

	return nil
}

// readTree walks the three-level extension/path/name tree.
func (a *Archive) readTree() error {
	info, err := a.file.Stat()
	if err != nil {
		return err
	}
	if end := a.header.Size() + int64(a.header.TreeSize); end > info.Size() {
		return fmt.Errorf("%w: tree ends at byte %d of %d", ErrTruncated, end, info.Size())
	}
	tree := make([]byte, a.header.TreeSize)
	if _, err := io.ReadFull(a.file, tree); err != nil {
		return err
	}
	r := bufio.NewReader(bytes.NewReader(tree))

	for {
		ext, err := readString(r)
		if err != nil {
			return err
		}
		if ext == "" {
			break
		}
		for {
			dir, err := readString(r)
			if err != nil {
				return err
			}
			if dir == "" {
				break
			}
			for {
				name, err := readString(r)
				if err != nil {
					return err
				}
				if name == "" {
					break
				}
				entry, err := readEntry(r)
				if err != nil {
					return fmt.Errorf("entry %s: %w", name, err)
				}
				entry.Path = joinPath(dir, name, ext)
				a.fileList[normalizePath(entry.Path)] = entry
			}
		}
	}

	return nil
}

func readEntry(r io.Reader) (*Entry, error) {
	var raw struct {
		CRC          uint32
		PreloadBytes uint16
		ArchiveIndex uint16
		Offset       uint32
		Length       uint32
		Terminator   uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return nil, err
	}
	if raw.Terminator != entryTerminator {
		return nil, fmt.Errorf("bad entry terminator 0x%x", raw.Terminator)
	}

	entry := &Entry{
		CRC:          raw.CRC,
		ArchiveIndex: raw.ArchiveIndex,
		Offset:       raw.Offset,
		Length:       raw.Length,
	}
	if raw.PreloadBytes > 0 {
		entry.Preload = make([]byte, raw.PreloadBytes)
		if _, err := io.ReadFull(r, entry.Preload); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

func readString(r *bufio.Reader) (string, error) {
	s, err := r.ReadString(0)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

// joinPath builds the entry path. A single space stands for an empty path or extension.
func joinPath(dir, name, ext string) string {
	p := name
	if ext != " " {
		p += "." + ext
	}
	if dir != " " {
		p = dir + "/" + p
	}
	return p
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.fileList))
	for _, e := range a.fileList {
		result = append(result, e.Path)
	}
	sort.Strings(result)
	return result
}

// Contains checks if a file exists.
func (a *Archive) Contains(path string) bool {
	_, ok := a.fileList[normalizePath(path)]
	return ok
}

// Stat returns the entry for a path.
func (a *Archive) Stat(path string) (*Entry, bool) {
	e, ok := a.fileList[normalizePath(path)]
	return e, ok
}

// Read reads a file from the archive and verifies its checksum.
func (a *Archive) Read(path string) ([]byte, error) {
	entry, ok := a.fileList[normalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	result := make([]byte, entry.Size())
	copy(result, entry.Preload)

	if entry.Length > 0 {
		f, base, err := a.dataFile(entry.ArchiveIndex)
		if err != nil {
			return nil, err
		}
		if _, err := f.ReadAt(result[len(entry.Preload):], base+int64(entry.Offset)); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if crc32.ChecksumIEEE(result) != entry.CRC {
		return nil, fmt.Errorf("%w: %s", ErrChecksum, path)
	}
	return result, nil
}

// dataFile returns the file holding an entry's data and the base offset within it.
func (a *Archive) dataFile(index uint16) (*os.File, int64, error) {
	if index == dirArchiveIndex {
		return a.file, a.header.Size() + int64(a.header.TreeSize), nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if f, ok := a.archives[index]; ok {
		return f, 0, nil
	}
	name := ArchivePath(a.path, index)
	f, err := os.Open(name)
	if err != nil {
		return nil, 0, fmt.Errorf("opening data archive: %w", err)
	}
	a.archives[index] = f
	return f, 0, nil
}

// ArchivePath returns the path of numbered data archive index for a
// directory file, e.g. pak01_dir.vpk -> pak01_003.vpk.
func ArchivePath(dirPath string, index uint16) string {
	base := strings.TrimSuffix(dirPath, ".vpk")
	base = strings.TrimSuffix(base, "_dir")
	return fmt.Sprintf("%s_%03d.vpk", base, index)
}

func normalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.ToLower(path)
}

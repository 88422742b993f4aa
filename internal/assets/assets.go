// Package assets handles resource file loading and caching.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/vmdlview/internal/logger"
	"github.com/Faultbox/vmdlview/pkg/vpk"
)

// ErrNotFound is returned when no archive or search directory holds a file.
var ErrNotFound = errors.New("assets: file not found")

// Manager handles file loading from VPK archives and loose directories.
type Manager struct {
	archives   []*vpk.Archive
	searchDirs []string
	cache      *Cache
	mu         sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddArchive adds a VPK archive to the manager.
// Archives are searched in reverse order (last added = highest priority).
func (m *Manager) AddArchive(path string) error {
	archive, err := vpk.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}

	m.mu.Lock()
	m.archives = append(m.archives, archive)
	m.mu.Unlock()

	logger.Debug("archive added", zap.String("path", path), zap.Int("files", len(archive.List())))
	return nil
}

// AddSearchDir adds a directory of loose files. Directories are searched
// after all archives, in the order they were added.
func (m *Manager) AddSearchDir(dir string) {
	m.mu.Lock()
	m.searchDirs = append(m.searchDirs, dir)
	m.mu.Unlock()
}

// Load loads a file from the archives or search directories.
func (m *Manager) Load(path string) ([]byte, error) {
	key := normalizePath(path)

	// Check cache first
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Search archives in reverse order
	for i := len(m.archives) - 1; i >= 0; i-- {
		if !m.archives[i].Contains(key) {
			continue
		}
		data, err := m.archives[i].Read(key)
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", path, m.archives[i].Path(), err)
		}
		m.cache.Set(key, data)
		return data, nil
	}

	loose := loosePath(path)
	for _, dir := range m.searchDirs {
		data, err := os.ReadFile(filepath.Join(dir, loose))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		m.cache.Set(key, data)
		return data, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Exists reports whether a file can be loaded without reading it.
func (m *Manager) Exists(path string) bool {
	key := normalizePath(path)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.archives {
		if a.Contains(key) {
			return true
		}
	}
	loose := loosePath(path)
	for _, dir := range m.searchDirs {
		if _, err := os.Stat(filepath.Join(dir, loose)); err == nil {
			return true
		}
	}
	return false
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close closes all archives.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, archive := range m.archives {
		archive.Close()
	}
	m.archives = nil
	m.cache.Clear()
}

// normalizePath lower-cases a path and uses forward slashes, matching VPK entry names.
func normalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(strings.ToLower(path), "/")
}

// loosePath converts an archive-style path to a relative OS path, keeping its case.
func loosePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return filepath.FromSlash(strings.TrimPrefix(path, "/"))
}

// Cache is a simple in-memory cache for loaded files.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Package material resolves material names to cached render parameters.
package material

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/vmdlview/internal/engine/gpu"
	"github.com/Faultbox/vmdlview/internal/logger"
)

// ErrLoad is wrapped by every error a Loader returns. It never aborts a scene
// load; the draw falls back to the missing material.
var ErrLoad = errors.New("material load failed")

// Well-known parameter names.
const (
	FlagTranslucent     = "F_TRANSLUCENT"
	FlagAlphaTest       = "F_ALPHA_TEST"
	ParamAlphaTestRef   = "g_flAlphaTestReference"
	TextureColor        = "g_tColor"
	DefaultAlphaTestRef = 0.5
)

// Material is a loaded material. It is shared by every draw that references
// its name and is never modified after loading.
type Material struct {
	Name          string
	IntParams     map[string]int64
	FloatParams   map[string]float32
	TextureParams map[string]string
	Texture       gpu.Texture

	missing bool
}

// IsMissing reports whether m stands in for a material that failed to load.
func (m *Material) IsMissing() bool {
	return m.missing
}

// Flag reports whether the integer parameter name is set to a nonzero value.
func (m *Material) Flag(name string) bool {
	return m.IntParams[name] != 0
}

// Float returns the float parameter name, or def when it is absent.
func (m *Material) Float(name string, def float32) float32 {
	if v, ok := m.FloatParams[name]; ok {
		return v
	}
	return def
}

// Loader loads a material definition and its texture.
type Loader interface {
	Load(name string) (*Material, error)
}

// State is the per-draw render state derived from a material.
type State struct {
	Blend     bool
	AlphaTest bool
	AlphaRef  float32
}

// Cache maps material names to loaded materials. Failed loads map to the
// cache's missing material and are not retried.
type Cache struct {
	loader    Loader
	missing   *Material
	mu        sync.Mutex
	materials map[string]*Material
}

// NewCache creates a cache backed by loader. Materials that fail to load are
// drawn with errorTexture. A nil loader leaves the cache unbound until Bind.
func NewCache(loader Loader, errorTexture gpu.Texture) *Cache {
	return &Cache{
		loader:    loader,
		missing:   &Material{Name: "<missing>", Texture: errorTexture, missing: true},
		materials: make(map[string]*Material),
	}
}

// Bind attaches the loader and error texture of a device. Materials already
// cached are kept.
func (c *Cache) Bind(loader Loader, errorTexture gpu.Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loader = loader
	c.missing.Texture = errorTexture
}

// Missing returns the sentinel material used for failed loads.
func (c *Cache) Missing() *Material {
	return c.missing
}

// Resolve returns the material for name, loading it on first use.
func (c *Cache) Resolve(name string) *Material {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.materials[name]; ok {
		return m
	}

	// Nothing is cached before Bind.
	if c.loader == nil {
		return c.missing
	}

	m, err := c.loader.Load(name)
	if err != nil {
		logger.Named("material").Warn("using error material", zap.String("material", name), zap.Error(err))
		m = c.missing
	} else {
		logger.Named("material").Debug("material loaded", zap.String("material", name))
	}
	c.materials[name] = m
	return m
}

// Len returns the number of cached names, including failed ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.materials)
}

// Release deletes every texture referenced by cached materials, empties the
// cache and unbinds it.
func (c *Cache) Release(dev gpu.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[gpu.Texture]bool)
	release := func(t gpu.Texture) {
		if t != 0 && !seen[t] {
			seen[t] = true
			dev.DeleteTexture(t)
		}
	}
	for _, m := range c.materials {
		release(m.Texture)
	}
	release(c.missing.Texture)
	c.materials = make(map[string]*Material)
	c.loader = nil
	c.missing.Texture = 0
}

// StateFor derives the render state of a draw from its material. Blend takes
// precedence over alpha test; the missing material is always opaque.
func StateFor(m *Material) State {
	switch {
	case m == nil || m.missing:
		return State{}
	case m.Flag(FlagTranslucent):
		return State{Blend: true}
	case m.Flag(FlagAlphaTest):
		return State{AlphaTest: true, AlphaRef: m.Float(ParamAlphaTestRef, DefaultAlphaTestRef)}
	}
	return State{}
}

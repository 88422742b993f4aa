package material

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/vmdlview/internal/engine/gpu"
	"github.com/Faultbox/vmdlview/internal/engine/texture"
	"github.com/Faultbox/vmdlview/internal/logger"
	"github.com/Faultbox/vmdlview/pkg/kv3"
	"github.com/Faultbox/vmdlview/pkg/resource"
)

// Source loads raw files by game path. *assets.Manager implements it.
type Source interface {
	Load(path string) ([]byte, error)
}

// FileLoader loads compiled materials and their color textures from a Source.
// It must be used on the goroutine that owns the graphics context.
type FileLoader struct {
	src        Source
	dev        gpu.Device
	anisotropy float32

	mu           sync.Mutex
	textures     map[string]gpu.Texture
	errorTexture gpu.Texture
}

// NewFileLoader creates a loader that uploads textures to dev.
func NewFileLoader(src Source, dev gpu.Device, anisotropy float32) *FileLoader {
	return &FileLoader{
		src:        src,
		dev:        dev,
		anisotropy: anisotropy,
		textures:   make(map[string]gpu.Texture),
	}
}

// ErrorTexture returns the checkerboard texture, uploading it on first use.
func (l *FileLoader) ErrorTexture() (gpu.Texture, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errorTextureLocked()
}

func (l *FileLoader) errorTextureLocked() (gpu.Texture, error) {
	if l.errorTexture != 0 {
		return l.errorTexture, nil
	}
	tex, err := texture.Upload(l.dev, texture.ErrorImage(), l.anisotropy)
	if err != nil {
		return 0, err
	}
	l.errorTexture = tex
	return tex, nil
}

// Load reads "<name>_c", extracts its parameters and uploads its color
// texture. A material whose texture cannot be found is drawn with the error
// texture.
func (l *FileLoader) Load(name string) (*Material, error) {
	file := name
	if !strings.HasSuffix(file, "_c") {
		file += "_c"
	}

	raw, err := l.src.Load(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	}
	res, err := resource.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	}
	data, err := res.Data()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	}

	m, err := Parse(name, data)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	m.Texture, err = l.colorTexture(m.TextureParams[TextureColor])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	}
	return m, nil
}

// Parse extracts parameters from a material's DATA tree. Absent parameter
// lists are treated as empty.
func Parse(name string, data *kv3.Node) (*Material, error) {
	m := &Material{
		Name:          name,
		IntParams:     make(map[string]int64),
		FloatParams:   make(map[string]float32),
		TextureParams: make(map[string]string),
	}

	err := eachParam(data, "m_intParams", "m_nValue", func(key string, v *kv3.Node) error {
		n, err := v.AsInt64()
		m.IntParams[key] = n
		return err
	})
	if err == nil {
		err = eachParam(data, "m_floatParams", "m_flValue", func(key string, v *kv3.Node) error {
			f, err := v.AsFloat64()
			m.FloatParams[key] = float32(f)
			return err
		})
	}
	if err == nil {
		err = eachParam(data, "m_textureParams", "m_pValue", func(key string, v *kv3.Node) error {
			s, err := v.AsString()
			m.TextureParams[key] = s
			return err
		})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	}
	return m, nil
}

func eachParam(data *kv3.Node, list, valueKey string, fn func(key string, v *kv3.Node) error) error {
	params, ok := data.Lookup(list)
	if !ok {
		return nil
	}
	for i, p := range params.Items() {
		key, err := p.Path("m_name")
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", list, i, err)
		}
		name, err := key.AsString()
		if err != nil {
			return fmt.Errorf("%s[%d].m_name: %w", list, i, err)
		}
		v, err := p.Path(valueKey)
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", list, i, err)
		}
		if err := fn(name, v); err != nil {
			return fmt.Errorf("%s[%d].%s: %w", list, i, valueKey, err)
		}
	}
	return nil
}

// colorTexture uploads the loose image behind a compiled texture path, or
// returns the error texture when none is found.
func (l *FileLoader) colorTexture(ref string) (gpu.Texture, error) {
	if ref == "" {
		return l.errorTextureLocked()
	}
	if tex, ok := l.textures[ref]; ok {
		return tex, nil
	}

	base := strings.TrimSuffix(ref, "_c")
	base = strings.TrimSuffix(base, path.Ext(base))
	for _, ext := range texture.Extensions {
		raw, err := l.src.Load(base + ext)
		if err != nil {
			continue
		}
		img, err := texture.Decode(base+ext, raw)
		if err != nil {
			logger.Named("material").Warn("texture decode failed", zap.String("texture", base+ext), zap.Error(err))
			break
		}
		tex, err := texture.Upload(l.dev, img, l.anisotropy)
		if err != nil {
			return 0, err
		}
		l.textures[ref] = tex
		return tex, nil
	}

	logger.Named("material").Debug("texture not found", zap.String("texture", ref))
	return l.errorTextureLocked()
}

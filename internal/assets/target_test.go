package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/vmdlview/pkg/kv3"
	"github.com/Faultbox/vmdlview/pkg/resource"
	"github.com/Faultbox/vmdlview/pkg/vpk"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		arg  string
		want Target
	}{
		{"models/crate.vmdl_c", Target{Path: "models/crate.vmdl_c"}},
		{"pak01_dir.vpk:models/crate.vmdl_c", Target{Archive: "pak01_dir.vpk", Path: "models/crate.vmdl_c"}},
		{`C:\game\PAK01_DIR.VPK:models/crate.vmdl_c`, Target{Archive: `C:\game\PAK01_DIR.VPK`, Path: "models/crate.vmdl_c"}},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got := ParseTarget(tt.arg)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.arg, got.String())
		})
	}
}

func testResource() []byte {
	data := kv3.Object().Set("m_sceneObjects", kv3.Array())
	return resource.Build(data, &resource.VBIB{})
}

func TestOpenResourceFromArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "pak01_dir.vpk")
	require.NoError(t, vpk.Create(archive, map[string][]byte{
		"models/crate.vmdl_c": testResource(),
	}))

	m := NewManager()
	defer m.Close()

	res, err := m.OpenResource(ParseTarget(archive + ":models/crate.vmdl_c"))
	require.NoError(t, err)
	data, err := res.Data()
	require.NoError(t, err)
	assert.NotNil(t, data)

	// The archive stays registered for material lookups.
	assert.True(t, m.Exists("models/crate.vmdl_c"))

	_, err = m.OpenResource(ParseTarget(archive + ":models/missing.vmdl_c"))
	assert.True(t, errors.Is(err, resource.ErrResourceIO))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = m.OpenResource(ParseTarget(filepath.Join(dir, "none_dir.vpk") + ":models/crate.vmdl_c"))
	assert.True(t, errors.Is(err, resource.ErrResourceIO))
}

func TestOpenResourceLoose(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "materials"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "models", "props"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "materials", "crate_color.png"), []byte("texture"), 0644))
	model := filepath.Join(root, "models", "props", "crate.vmdl_c")
	require.NoError(t, os.WriteFile(model, testResource(), 0644))

	m := NewManager()
	defer m.Close()

	_, err := m.OpenResource(ParseTarget(model))
	require.NoError(t, err)

	got, err := m.Load("materials/crate_color.png")
	require.NoError(t, err)
	assert.Equal(t, "texture", string(got))

	_, err = m.OpenResource(ParseTarget(filepath.Join(root, "missing.vmdl_c")))
	assert.True(t, errors.Is(err, resource.ErrResourceIO))
}

func TestGameRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "materials"), 0755))
	nested := filepath.Join(root, "models", "props")
	require.NoError(t, os.MkdirAll(nested, 0755))

	got, ok := GameRoot(filepath.Join(nested, "crate.vmdl_c"))
	require.True(t, ok)
	want, _ := filepath.Abs(root)
	assert.Equal(t, want, got)
}

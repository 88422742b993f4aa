package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/vmdlview/internal/logger"
	"github.com/Faultbox/vmdlview/pkg/resource"
)

// Target names a resource to open: a loose file, or a path inside a VPK
// archive written as "<archive.vpk>:<inner path>".
type Target struct {
	Archive string
	Path    string
}

// ParseTarget splits a command-line argument into a Target.
func ParseTarget(arg string) Target {
	lower := strings.ToLower(arg)
	if i := strings.Index(lower, ".vpk:"); i >= 0 {
		return Target{Archive: arg[:i+4], Path: arg[i+5:]}
	}
	return Target{Path: arg}
}

// String returns the target in command-line form.
func (t Target) String() string {
	if t.Archive == "" {
		return t.Path
	}
	return t.Archive + ":" + t.Path
}

// OpenResource reads and parses the target resource. The target's archive,
// or the game directory of a loose file, is added to the manager so that
// materials can be found next to it.
func (m *Manager) OpenResource(t Target) (*resource.Resource, error) {
	if t.Archive != "" {
		if err := m.AddArchive(t.Archive); err != nil {
			return nil, fmt.Errorf("%w: %w", resource.ErrResourceIO, err)
		}
		raw, err := m.Load(t.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", resource.ErrResourceIO, err)
		}
		return resource.Parse(raw)
	}

	if root, ok := GameRoot(t.Path); ok {
		logger.Debug("using game root", zap.String("dir", root))
		m.AddSearchDir(root)
	}
	return resource.Open(t.Path)
}

// GameRoot walks up from a loose resource file to the first directory that
// holds a "materials" folder.
func GameRoot(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	for dir := filepath.Dir(abs); ; {
		if info, err := os.Stat(filepath.Join(dir, "materials")); err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

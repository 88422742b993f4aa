// Package library discovers installed game archives from Steam library folders.
package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/vmdlview/internal/logger"
	"github.com/Faultbox/vmdlview/pkg/keyvalues"
)

// RecentAppID groups the recently opened files.
const RecentAppID = -1

// maxDepth limits how deep a game directory is walked for archives.
const maxDepth = 5

// ErrSteamNotFound is returned when no Steam installation can be located.
var ErrSteamNotFound = errors.New("library: steam installation not found")

// Apps whose archives use an incompatible VPK variant.
var skippedApps = map[int]bool{
	1237970: true,
	1454890: true,
	1172470: true,
}

var numberedArchive = regexp.MustCompile(`_[0-9]{3}\.vpk$`)

// Kind classifies a discovered file.
type Kind int

const (
	KindArchive Kind = iota
	KindShaders
	KindMap
	KindWorkshop
	KindRecent
)

// File is a discovered archive or recent file.
type File struct {
	Name string // display name, slash separated
	Path string // absolute path on disk
	Kind Kind
}

// App is one installed game with its archives.
type App struct {
	ID    int
	Name  string
	Dir   string
	Files []File
}

// Title returns the display title of the app group.
func (a App) Title() string {
	if a.ID == RecentAppID {
		return "Recent files"
	}
	return fmt.Sprintf("[%d] %s - %s", a.ID, a.Name, filepath.ToSlash(a.Dir))
}

// Library is the result of a scan, sorted by app id.
type Library struct {
	Apps []App
}

// SteamPath locates the Steam installation directory in the usual places.
func SteamPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	candidates := []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam"),
	}
	switch runtime.GOOS {
	case "darwin":
		candidates = append(candidates, filepath.Join(home, "Library", "Application Support", "Steam"))
	case "windows":
		candidates = append(candidates, `C:\Program Files (x86)\Steam`, `C:\Program Files\Steam`)
	}

	for _, c := range candidates {
		if st, err := os.Stat(filepath.Join(c, "steamapps")); err == nil && st.IsDir() {
			return c, nil
		}
	}
	return "", ErrSteamNotFound
}

// Roots returns the steamapps directories of a Steam installation: its own
// plus every folder listed in libraryfolders.vdf, plus extra library roots.
func Roots(steamPath string, extra []string) ([]string, error) {
	steamapps := filepath.Join(steamPath, "steamapps")
	roots := []string{steamapps}
	seen := map[string]bool{strings.ToLower(filepath.Clean(steamapps)): true}

	add := func(root string) {
		dir := filepath.Clean(filepath.Join(root, "steamapps"))
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		if key := strings.ToLower(dir); !seen[key] {
			seen[key] = true
			roots = append(roots, dir)
		}
	}

	folders, err := keyvalues.ParseFile(filepath.Join(steamapps, "libraryfolders.vdf"))
	if errors.Is(err, fs.ErrNotExist) {
		folders = &keyvalues.Node{}
	} else if err != nil {
		return nil, fmt.Errorf("reading library folders: %w", err)
	}
	for _, child := range folders.Children {
		if p := child.String("path"); p != "" {
			add(p)
		} else if !child.IsSection() && filepath.IsAbs(child.Value) {
			// Older files list paths directly under numeric keys.
			add(child.Value)
		}
	}
	for _, root := range extra {
		add(root)
	}
	return roots, nil
}

// Scan walks every steamapps root in parallel and collects the archives of
// each installed app. Recent files are added as a group with RecentAppID.
func Scan(ctx context.Context, roots []string, recent []string) (*Library, error) {
	log := logger.Named("library")

	var (
		mu   sync.Mutex
		apps []App
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, root := range roots {
		g.Go(func() error {
			found, err := scanRoot(ctx, root)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("skipping library root", zap.String("root", root), zap.Error(err))
				return nil
			}
			mu.Lock()
			apps = append(apps, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	apps = append(apps, recentApp(recent))
	sort.SliceStable(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })

	log.Info("library scanned", zap.Int("roots", len(roots)), zap.Int("apps", len(apps)-1))
	return &Library{Apps: apps}, nil
}

func scanRoot(ctx context.Context, steamapps string) ([]App, error) {
	if _, err := os.Stat(steamapps); err != nil {
		return nil, err
	}
	manifests, err := filepath.Glob(filepath.Join(steamapps, "appmanifest_*.acf"))
	if err != nil {
		return nil, err
	}

	var apps []App
	for _, manifest := range manifests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		kv, err := keyvalues.ParseFile(manifest)
		if err != nil {
			logger.Debug("unreadable app manifest", zap.String("path", manifest), zap.Error(err))
			continue
		}
		id, err := strconv.Atoi(kv.String("appid"))
		if err != nil || skippedApps[id] {
			continue
		}

		app := App{
			ID:   id,
			Name: kv.String("name"),
			Dir:  filepath.Join(steamapps, "common", kv.String("installdir")),
		}
		if st, err := os.Stat(app.Dir); err != nil || !st.IsDir() {
			continue
		}

		app.Files, err = findArchives(ctx, app.Dir)
		if err != nil {
			return nil, err
		}
		if len(app.Files) == 0 {
			continue
		}
		app.Files = append(app.Files, workshopFiles(steamapps, id)...)
		sortFiles(app.Files)
		apps = append(apps, app)
	}
	return apps, nil
}

// findArchives returns the directory files of every VPK below gameDir,
// skipping numbered data chunks.
func findArchives(ctx context.Context, gameDir string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(gameDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, _ := filepath.Rel(gameDir, path)
		if d.IsDir() {
			if rel != "." && strings.Count(rel, string(filepath.Separator))+1 > maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".vpk" || numberedArchive.MatchString(path) {
			return nil
		}

		name := filepath.ToSlash(rel)
		kind := KindArchive
		switch {
		case strings.HasPrefix(filepath.Base(name), "shaders_"):
			kind = KindShaders
		case strings.Contains("/"+name, "/maps/"):
			kind = KindMap
		}
		files = append(files, File{Name: name, Path: path, Kind: kind})
		return nil
	})
	return files, err
}

// workshopFiles lists installed workshop addons that ship a VPK.
func workshopFiles(steamapps string, appID int) []File {
	id := strconv.Itoa(appID)
	manifest, err := keyvalues.ParseFile(filepath.Join(steamapps, "workshop", "appworkshop_"+id+".acf"))
	if err != nil {
		return nil
	}

	installed := manifest.Child("WorkshopItemsInstalled")
	if installed == nil {
		return nil
	}

	var files []File
	for _, item := range installed.Children {
		addonDir := filepath.Join(steamapps, "workshop", "content", id, item.Key)
		vpk := filepath.Join(addonDir, item.Key+".vpk")
		if _, err := os.Stat(vpk); err != nil {
			continue
		}
		title := item.Key
		if publish, err := keyvalues.ParseFile(filepath.Join(addonDir, "publish_data.txt")); err == nil {
			if t := publish.String("title"); t != "" {
				title = t
			}
		}
		files = append(files, File{
			Name: fmt.Sprintf("[Workshop %s] %s", item.Key, title),
			Path: vpk,
			Kind: KindWorkshop,
		})
	}
	return files
}

func recentApp(recent []string) App {
	app := App{ID: RecentAppID, Name: "Recent files"}
	for _, p := range recent {
		app.Files = append(app.Files, File{Name: filepath.ToSlash(p), Path: p, Kind: KindRecent})
	}
	return app
}

func sortFiles(files []File) {
	sort.SliceStable(files, func(i, j int) bool {
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	})
}

// Filter returns the apps that have files whose name contains substr
// (case-insensitive), each holding only the matching files.
func (l *Library) Filter(substr string) []App {
	needle := strings.ToLower(substr)

	var result []App
	for _, app := range l.Apps {
		var matched []File
		for _, f := range app.Files {
			if strings.Contains(strings.ToLower(f.Name), needle) {
				matched = append(matched, f)
			}
		}
		if len(matched) > 0 {
			app.Files = matched
			result = append(result, app)
		}
	}
	return result
}

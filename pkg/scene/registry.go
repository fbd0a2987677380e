package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-tile-pathtracer/pkg/geometry"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Name accepted by Load
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath,omitempty"`
}

type builtinScene struct {
	info  SceneInfo
	build func(cameraOverrides ...geometry.CameraConfig) *Scene
}

var builtinScenes = []builtinScene{
	{
		info:  SceneInfo{ID: "default", Description: "Triangle standing on a large ground sphere"},
		build: NewDefaultScene,
	},
	{
		info:  SceneInfo{ID: "materials", Description: "Diffuse, metal and hollow glass spheres"},
		build: NewMaterialsScene,
	},
	{
		info:  SceneInfo{ID: "spheregrid", Description: "Field of small random spheres around three large ones"},
		build: NewSphereGridScene,
	},
	{
		info:  SceneInfo{ID: "pyramid", Description: "Glass and copper pyramids built from triangle meshes"},
		build: NewPyramidScene,
	},
}

// BuiltinScenes returns the scenes compiled into the program
func BuiltinScenes() []SceneInfo {
	infos := make([]SceneInfo, len(builtinScenes))
	for i, b := range builtinScenes {
		infos[i] = b.info
		infos[i].DisplayName = titleCase(b.info.ID)
		infos[i].Type = "builtin"
	}
	return infos
}

// ListScenes returns the built-in scenes followed by the description files found in dir.
// A missing or empty dir yields only the built-in scenes.
func ListScenes(dir string) ([]SceneInfo, error) {
	scenes := BuiltinScenes()
	if dir == "" {
		return scenes, nil
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return scenes, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	var files []SceneInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsDescriptionFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := describeFile(path)
		if err != nil {
			// Skip broken files but keep listing the rest
			slog.Warn("skipping scene file", "path", path, "error", err)
			continue
		}
		files = append(files, info)
	}

	// Sort scenes by display name
	sort.Slice(files, func(i, j int) bool {
		return files[i].DisplayName < files[j].DisplayName
	})

	return append(scenes, files...), nil
}

// describeFile extracts metadata from a description file without loading its meshes
func describeFile(path string) (SceneInfo, error) {
	filename := filepath.Base(path)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	data, err := os.ReadFile(path)
	if err != nil {
		return SceneInfo{}, err
	}
	desc, err := ParseDescription(data, filepath.Ext(path))
	if err != nil {
		return SceneInfo{}, err
	}

	info := SceneInfo{
		ID:          path,
		DisplayName: titleCase(nameWithoutExt),
		Description: desc.Description,
		Type:        "file",
		FilePath:    path,
	}
	if desc.Name != "" {
		info.DisplayName = desc.Name
	}
	return info, nil
}

// Load resolves a built-in scene name or a description file path.
// Camera overrides are merged over the scene's own camera.
func Load(nameOrPath string, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	for _, b := range builtinScenes {
		if strings.EqualFold(b.info.ID, nameOrPath) {
			return b.build(cameraOverrides...), nil
		}
	}

	if !IsDescriptionFile(nameOrPath) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, nameOrPath)
	}
	if _, err := os.Stat(nameOrPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownScene, err)
	}

	s, err := LoadDescription(nameOrPath)
	if err != nil {
		return nil, err
	}
	if len(cameraOverrides) > 0 {
		s.CameraConfig = geometry.MergeCameraConfig(s.CameraConfig, cameraOverrides[0])
		if err := s.Build(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// titleCase converts a filename-style string to title case
// e.g., "sphere-grid" -> "Sphere Grid"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}

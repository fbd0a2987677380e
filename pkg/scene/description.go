package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/geometry"
	"github.com/df07/go-tile-pathtracer/pkg/loaders"
	"github.com/df07/go-tile-pathtracer/pkg/material"
)

// Description is the file form of a scene. Vectors are written as [x, y, z];
// colors are [r, g, b] in 0-1 or an SVG color name such as "steelblue".
type Description struct {
	Name        string                         `toml:"name" yaml:"name" json:"name"`
	Description string                         `toml:"description" yaml:"description" json:"description"`
	Camera      CameraDescription              `toml:"camera" yaml:"camera" json:"camera"`
	Background  *BackgroundDescription         `toml:"background" yaml:"background" json:"background"`
	Sampling    SamplingConfig                 `toml:"sampling" yaml:"sampling" json:"sampling"`
	Materials   map[string]MaterialDescription `toml:"materials" yaml:"materials" json:"materials"`
	Objects     []ObjectDescription            `toml:"objects" yaml:"objects" json:"objects"`
}

// CameraDescription mirrors geometry.CameraConfig with untyped vectors
type CameraDescription struct {
	LookFrom      any     `toml:"look_from" yaml:"look_from" json:"look_from"`
	LookAt        any     `toml:"look_at" yaml:"look_at" json:"look_at"`
	Up            any     `toml:"up" yaml:"up" json:"up"`
	VFov          float64 `toml:"vfov" yaml:"vfov" json:"vfov"`
	AspectRatio   float64 `toml:"aspect_ratio" yaml:"aspect_ratio" json:"aspect_ratio"`
	Aperture      float64 `toml:"aperture" yaml:"aperture" json:"aperture"`
	FocusDistance float64 `toml:"focus_distance" yaml:"focus_distance" json:"focus_distance"`
}

// BackgroundDescription sets the sky gradient colors
type BackgroundDescription struct {
	Top    any `toml:"top" yaml:"top" json:"top"`
	Bottom any `toml:"bottom" yaml:"bottom" json:"bottom"`
}

// MaterialDescription is one named material: lambertian, metal or dielectric
type MaterialDescription struct {
	Type   string  `toml:"type" yaml:"type" json:"type"`
	Albedo any     `toml:"albedo" yaml:"albedo" json:"albedo"`
	Fuzz   float64 `toml:"fuzz" yaml:"fuzz" json:"fuzz"`
	IOR    float64 `toml:"ior" yaml:"ior" json:"ior"`
}

// ObjectDescription is one object: sphere, triangle or mesh
type ObjectDescription struct {
	Type     string `toml:"type" yaml:"type" json:"type"`
	Material string `toml:"material" yaml:"material" json:"material"`

	// sphere
	Center any     `toml:"center" yaml:"center" json:"center"`
	Radius float64 `toml:"radius" yaml:"radius" json:"radius"`

	// triangle
	Vertices []any `toml:"vertices" yaml:"vertices" json:"vertices"`

	// mesh, a PLY file relative to the description file
	Path   string  `toml:"path" yaml:"path" json:"path"`
	Scale  float64 `toml:"scale" yaml:"scale" json:"scale"`
	Offset any     `toml:"offset" yaml:"offset" json:"offset"`
}

// DescriptionExtensions lists the file extensions ParseDescription understands
var DescriptionExtensions = []string{".yaml", ".yml", ".toml", ".json"}

// IsDescriptionFile reports whether path has a scene description extension
func IsDescriptionFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range DescriptionExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// ParseDescription decodes a description in the format named by ext.
// Unknown fields are rejected.
func ParseDescription(data []byte, ext string) (*Description, error) {
	desc := &Description{}
	var err error

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		err = decoder.Decode(desc)
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(desc)
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		err = decoder.Decode(desc)
	default:
		return nil, fmt.Errorf("%w: unknown description format %q", ErrInvalidScene, ext)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	return desc, nil
}

// LoadDescription reads, decodes and builds a scene description file
func LoadDescription(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	desc, err := ParseDescription(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if desc.Name == "" {
		desc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	s, err := desc.Scene(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Scene builds a ready-to-render scene. Mesh paths are resolved against baseDir.
func (d *Description) Scene(baseDir string) (*Scene, error) {
	s := New(d.Name)

	cameraConfig, err := d.cameraConfig()
	if err != nil {
		return nil, err
	}
	s.CameraConfig = cameraConfig

	if d.Background != nil {
		if s.Background.Top, err = parseColor(d.Background.Top, s.Background.Top); err != nil {
			return nil, invalid("background top: %v", err)
		}
		if s.Background.Bottom, err = parseColor(d.Background.Bottom, s.Background.Bottom); err != nil {
			return nil, invalid("background bottom: %v", err)
		}
	}

	s.SamplingConfig = withSamplingDefaults(d.Sampling)

	ids, err := d.addMaterials(s)
	if err != nil {
		return nil, err
	}

	for i, obj := range d.Objects {
		if err := addObject(s, obj, ids, baseDir); err != nil {
			return nil, fmt.Errorf("object %d (%s): %w", i, obj.Type, err)
		}
	}

	if err := s.Build(); err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Description) cameraConfig() (geometry.CameraConfig, error) {
	config := geometry.CameraConfig{
		LookFrom:      core.NewVec3(0, 0, 0),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          90,
		AspectRatio:   d.Camera.AspectRatio,
		Aperture:      d.Camera.Aperture,
		FocusDistance: d.Camera.FocusDistance,
	}
	if d.Camera.VFov != 0 {
		config.VFov = d.Camera.VFov
	}

	var err error
	if config.LookFrom, err = parseVec3(d.Camera.LookFrom, config.LookFrom); err != nil {
		return config, invalid("camera look_from: %v", err)
	}
	if config.LookAt, err = parseVec3(d.Camera.LookAt, config.LookAt); err != nil {
		return config, invalid("camera look_at: %v", err)
	}
	if config.Up, err = parseVec3(d.Camera.Up, config.Up); err != nil {
		return config, invalid("camera up: %v", err)
	}
	if config.Aperture < 0 {
		return config, invalid("camera aperture %g is negative", config.Aperture)
	}
	return config, nil
}

func withSamplingDefaults(c SamplingConfig) SamplingConfig {
	if c.Width <= 0 {
		c.Width = 400
	}
	if c.Height <= 0 {
		c.Height = 225
	}
	if c.SamplesPerPixel <= 0 {
		c.SamplesPerPixel = 100
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 50
	}
	return c
}

func (d *Description) addMaterials(s *Scene) (map[string]material.ID, error) {
	ids := make(map[string]material.ID, len(d.Materials))
	// Sorted so handles are stable across runs
	for _, name := range slices.Sorted(maps.Keys(d.Materials)) {
		m := d.Materials[name]
		var mat material.Material
		switch strings.ToLower(m.Type) {
		case "lambertian":
			albedo, err := parseColor(m.Albedo, core.NewVec3(0.5, 0.5, 0.5))
			if err != nil {
				return nil, invalid("material %q albedo: %v", name, err)
			}
			mat = material.NewLambertian(albedo)
		case "metal":
			albedo, err := parseColor(m.Albedo, core.NewVec3(0.8, 0.8, 0.8))
			if err != nil {
				return nil, invalid("material %q albedo: %v", name, err)
			}
			mat = material.NewMetal(albedo, m.Fuzz)
		case "dielectric":
			if m.IOR <= 0 {
				return nil, invalid("material %q needs a positive ior, got %g", name, m.IOR)
			}
			mat = material.NewDielectric(m.IOR)
		default:
			return nil, invalid("material %q has unknown type %q", name, m.Type)
		}
		ids[name] = s.AddMaterial(mat)
	}
	return ids, nil
}

func addObject(s *Scene, obj ObjectDescription, ids map[string]material.ID, baseDir string) error {
	id, ok := ids[obj.Material]
	if !ok {
		return invalid("unknown material %q", obj.Material)
	}

	switch strings.ToLower(obj.Type) {
	case "sphere":
		center, err := parseVec3(obj.Center, core.Vec3{})
		if err != nil {
			return invalid("center: %v", err)
		}
		// Negative radii are allowed and invert the normals (hollow glass)
		if obj.Radius == 0 {
			return invalid("sphere radius must be non-zero")
		}
		s.AddSphere(center, obj.Radius, id)
	case "triangle":
		if len(obj.Vertices) != 3 {
			return invalid("triangle needs 3 vertices, got %d", len(obj.Vertices))
		}
		var v [3]core.Vec3
		for i, raw := range obj.Vertices {
			vertex, err := parseVec3(raw, core.Vec3{})
			if err != nil {
				return invalid("vertex %d: %v", i, err)
			}
			v[i] = vertex
		}
		s.AddTriangle(v[0], v[1], v[2], id)
	case "mesh":
		if obj.Path == "" {
			return invalid("mesh needs a path")
		}
		path := obj.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := loaders.LoadPLY(path)
		if err != nil {
			return err
		}
		scale := obj.Scale
		if scale == 0 {
			scale = 1
		}
		offset, err := parseVec3(obj.Offset, core.Vec3{})
		if err != nil {
			return invalid("offset: %v", err)
		}
		mesh, err := geometry.NewTriangleMesh(geometry.TransformVertices(data.Vertices, scale, offset), data.Faces, id)
		if err != nil {
			return invalid("%v", err)
		}
		s.AddShape(mesh)
	default:
		return invalid("unknown object type %q", obj.Type)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidScene, fmt.Sprintf(format, args...))
}

// parseVec3 converts a decoded [x, y, z] list, returning fallback when raw is absent
func parseVec3(raw any, fallback core.Vec3) (core.Vec3, error) {
	if raw == nil {
		return fallback, nil
	}
	list, ok := raw.([]any)
	if !ok || len(list) != 3 {
		return core.Vec3{}, fmt.Errorf("expected a list of 3 numbers, got %v", raw)
	}
	var xyz [3]float64
	for i, item := range list {
		f, err := toFloat(item)
		if err != nil {
			return core.Vec3{}, err
		}
		xyz[i] = f
	}
	return core.NewVec3(xyz[0], xyz[1], xyz[2]), nil
}

// parseColor accepts [r, g, b] in 0-1 or an SVG color name
func parseColor(raw any, fallback core.Vec3) (core.Vec3, error) {
	name, ok := raw.(string)
	if !ok {
		return parseVec3(raw, fallback)
	}
	c, ok := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return core.Vec3{}, fmt.Errorf("unknown color name %q", name)
	}
	return core.NewVec3(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255), nil
}

// toFloat normalizes the number types produced by the yaml, toml and json decoders
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %v", v)
	}
}

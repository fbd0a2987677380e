package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/geometry"
	"github.com/df07/go-tile-pathtracer/pkg/material"
)

var (
	// ErrUnknownScene is returned when a scene name or file cannot be resolved
	ErrUnknownScene = errors.New("unknown scene")
	// ErrInvalidScene is returned when a scene description fails validation
	ErrInvalidScene = errors.New("invalid scene")
)

// Scene contains all the elements needed for rendering.
// It must not be modified once a render has started.
type Scene struct {
	Name           string
	World          *geometry.List    // Objects in the scene
	Materials      *material.Palette // Materials referenced by the objects
	Camera         *geometry.Camera  // Built from CameraConfig by Build
	CameraConfig   geometry.CameraConfig
	Background     Background
	SamplingConfig SamplingConfig
}

// SamplingConfig contains the recommended rendering configuration for a scene
type SamplingConfig struct {
	Width           int `toml:"width" yaml:"width" json:"width"`
	Height          int `toml:"height" yaml:"height" json:"height"`
	SamplesPerPixel int `toml:"samples_per_pixel" yaml:"samples_per_pixel" json:"samples_per_pixel"`
	MaxDepth        int `toml:"max_depth" yaml:"max_depth" json:"max_depth"`

	// Minimum bounces before Russian Roulette can terminate a path; 0 disables it
	RussianRouletteMinBounces int `toml:"russian_roulette_min_bounces" yaml:"russian_roulette_min_bounces" json:"russian_roulette_min_bounces"`
}

// Background is the vertical sky gradient returned for rays that hit nothing
type Background struct {
	Top    core.Vec3 // Color straight up
	Bottom core.Vec3 // Color straight down
}

// DefaultBackground returns the white to sky blue gradient
func DefaultBackground() Background {
	return Background{
		Top:    core.NewVec3(0.5, 0.7, 1.0),
		Bottom: core.NewVec3(1.0, 1.0, 1.0),
	}
}

// Color blends Bottom and Top by the height of the ray's unit direction
func (b Background) Color(ray core.Ray) core.Vec3 {
	unitDirection := ray.Direction.Normalize()
	t := 0.5 * (unitDirection.Y + 1.0)
	return b.Bottom.Multiply(1.0 - t).Add(b.Top.Multiply(t))
}

// New creates an empty scene with the default background
func New(name string) *Scene {
	return &Scene{
		Name:       name,
		World:      geometry.NewList(),
		Materials:  material.NewPalette(),
		Background: DefaultBackground(),
	}
}

// AddMaterial stores a material in the scene palette and returns its handle
func (s *Scene) AddMaterial(m material.Material) material.ID {
	return s.Materials.Add(m)
}

// AddSphere adds a sphere using a material already in the palette
func (s *Scene) AddSphere(center core.Vec3, radius float64, id material.ID) *geometry.Sphere {
	sphere := geometry.NewSphere(center, radius, id)
	s.World.Add(sphere)
	return sphere
}

// AddTriangle adds a triangle using a material already in the palette
func (s *Scene) AddTriangle(v0, v1, v2 core.Vec3, id material.ID) *geometry.Triangle {
	triangle := geometry.NewTriangle(v0, v1, v2, id)
	s.World.Add(triangle)
	return triangle
}

// AddShape adds any shape, including nested lists such as triangle meshes
func (s *Scene) AddShape(shapes ...geometry.Shape) {
	s.World.Add(shapes...)
}

// Hit finds the nearest intersection with the scene's objects
func (s *Scene) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	return s.World.Hit(ray, tMin, tMax)
}

// Material resolves a material handle from a hit record
func (s *Scene) Material(id material.ID) material.Material {
	return s.Materials.Get(id)
}

// PrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) PrimitiveCount() int {
	return s.World.PrimitiveCount()
}

// Build validates material references and constructs the camera.
// A zero aspect ratio is derived from the sampling width and height.
func (s *Scene) Build() error {
	if err := s.checkMaterials(s.World); err != nil {
		return err
	}

	config := s.CameraConfig
	if config.AspectRatio <= 0 {
		if s.SamplingConfig.Width <= 0 || s.SamplingConfig.Height <= 0 {
			return fmt.Errorf("%w: scene %q has no aspect ratio and no image size", ErrInvalidScene, s.Name)
		}
		config.AspectRatio = float64(s.SamplingConfig.Width) / float64(s.SamplingConfig.Height)
	}
	if config.VFov <= 0 || config.VFov >= 180 {
		return fmt.Errorf("%w: scene %q has vertical field of view %g", ErrInvalidScene, s.Name, config.VFov)
	}
	if config.LookFrom == config.LookAt {
		return fmt.Errorf("%w: scene %q camera looks at its own position", ErrInvalidScene, s.Name)
	}

	s.CameraConfig = config
	s.Camera = geometry.NewCamera(config)
	return nil
}

func (s *Scene) checkMaterials(list *geometry.List) error {
	for _, shape := range list.Shapes() {
		var id material.ID
		switch obj := shape.(type) {
		case *geometry.Sphere:
			id = obj.Material
		case *geometry.Triangle:
			id = obj.Material
		case *geometry.List:
			if err := s.checkMaterials(obj); err != nil {
				return err
			}
			continue
		default:
			continue
		}
		if s.Materials.Get(id) == nil {
			return fmt.Errorf("%w: scene %q references missing material %d", ErrInvalidScene, s.Name, id)
		}
	}
	return nil
}

package scene

import (
	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/geometry"
	"github.com/df07/go-tile-pathtracer/pkg/material"
)

// NewDefaultScene creates the reference scene: a single triangle standing on a large ground sphere
func NewDefaultScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	// Default camera configuration
	defaultCameraConfig := geometry.CameraConfig{
		LookFrom:    core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        90.0, // Viewport height 2 at focal length 1
		AspectRatio: 16.0 / 9.0,
	}

	// Apply any overrides using the reusable merge function
	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := New("default")
	s.CameraConfig = cameraConfig
	s.SamplingConfig = SamplingConfig{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}

	triangleMaterial := s.AddMaterial(material.NewLambertian(core.NewVec3(0.7, 0.3, 0.3)))
	groundMaterial := s.AddMaterial(material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0)))

	s.AddTriangle(
		core.NewVec3(-0.5, 0, -1),
		core.NewVec3(0.5, 0, -1),
		core.NewVec3(0, 0.5, -1),
		triangleMaterial,
	)
	s.AddSphere(core.NewVec3(0, -100.5, -1), 100, groundMaterial)

	s.Camera = geometry.NewCamera(cameraConfig)
	return s
}

// NewMaterialsScene creates a row of three spheres showing each material on a ground sphere
func NewMaterialsScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		LookFrom:      core.NewVec3(-2, 2, 1),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          30.0,
		AspectRatio:   16.0 / 9.0,
		Aperture:      0.1,
		FocusDistance: 0.0, // Auto-calculate focus distance
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := New("materials")
	s.CameraConfig = cameraConfig
	s.SamplingConfig = SamplingConfig{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}

	ground := s.AddMaterial(material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0)))
	center := s.AddMaterial(material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5)))
	glass := s.AddMaterial(material.NewDielectric(1.5))
	gold := s.AddMaterial(material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.0))
	brushed := s.AddMaterial(material.NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.3))

	s.AddSphere(core.NewVec3(0, -100.5, -1), 100, ground)
	s.AddSphere(core.NewVec3(0, 0, -1), 0.5, center)

	// Hollow glass sphere: a negative radius flips the normals of the inner shell
	s.AddSphere(core.NewVec3(-1, 0, -1), 0.5, glass)
	s.AddSphere(core.NewVec3(-1, 0, -1), -0.45, glass)

	s.AddSphere(core.NewVec3(1, 0, -1), 0.5, gold)
	s.AddSphere(core.NewVec3(0.3, -0.35, -0.4), 0.15, brushed)

	s.Camera = geometry.NewCamera(cameraConfig)
	return s
}

package scene

import (
	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/geometry"
	"github.com/df07/go-tile-pathtracer/pkg/material"
)

// NewPyramidScene creates a scene built from triangle meshes: a glass pyramid,
// a metal pyramid and a diffuse floor
func NewPyramidScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	cameraConfig := setupPyramidCamera(cameraOverrides...)

	s := New("pyramid")
	s.CameraConfig = cameraConfig
	s.SamplingConfig = SamplingConfig{
		Width:                     600,
		Height:                    338,
		SamplesPerPixel:           100,
		MaxDepth:                  40,
		RussianRouletteMinBounces: 10,
	}

	addPyramidFloor(s)

	glass := s.AddMaterial(material.NewDielectric(1.5))
	copper := s.AddMaterial(material.NewMetal(core.NewVec3(0.85, 0.5, 0.3), 0.15))
	blue := s.AddMaterial(material.NewLambertian(core.NewVec3(0.2, 0.3, 0.7)))

	s.AddShape(newPyramid(core.NewVec3(-1.3, 0, 0), 1.6, 1.5, glass))
	s.AddShape(newPyramid(core.NewVec3(1.3, 0, -0.5), 1.4, 1.8, copper))
	s.AddSphere(core.NewVec3(0, 0.4, 1.2), 0.4, blue)

	s.Camera = geometry.NewCamera(cameraConfig)
	return s
}

// setupPyramidCamera configures the camera for the pyramid scene
func setupPyramidCamera(cameraOverrides ...geometry.CameraConfig) geometry.CameraConfig {
	defaultCameraConfig := geometry.CameraConfig{
		LookFrom:      core.NewVec3(0, 2, 6),
		LookAt:        core.NewVec3(0, 0.6, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          45.0,
		AspectRatio:   16.0 / 9.0,
		Aperture:      0.02, // Slight depth of field
		FocusDistance: 0.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	return cameraConfig
}

// addPyramidFloor adds a square floor made of two triangles
func addPyramidFloor(s *Scene) {
	floor := s.AddMaterial(material.NewLambertian(core.NewVec3(0.7, 0.7, 0.7)))
	size := 20.0
	vertices := []core.Vec3{
		core.NewVec3(-size, 0, -size),
		core.NewVec3(size, 0, -size),
		core.NewVec3(size, 0, size),
		core.NewVec3(-size, 0, size),
	}
	// Counter-clockwise seen from above so the normal points up
	faces := []int{0, 2, 1, 0, 3, 2}

	mesh, err := geometry.NewTriangleMesh(vertices, faces, floor)
	if err != nil {
		panic(err) // constant indices
	}
	s.AddShape(mesh)
}

// newPyramid builds a square-based pyramid centered on base with the given base width and height
func newPyramid(base core.Vec3, width, height float64, id material.ID) *geometry.List {
	half := width / 2
	vertices := []core.Vec3{
		core.NewVec3(-half, 0, -half),
		core.NewVec3(half, 0, -half),
		core.NewVec3(half, 0, half),
		core.NewVec3(-half, 0, half),
		core.NewVec3(0, height, 0),
	}
	faces := []int{
		// Sides, wound so normals point outward
		0, 4, 1,
		1, 4, 2,
		2, 4, 3,
		3, 4, 0,
		// Base, facing down
		0, 1, 2,
		0, 2, 3,
	}

	mesh, err := geometry.NewTriangleMesh(geometry.TransformVertices(vertices, 1, base), faces, id)
	if err != nil {
		panic(err) // constant indices
	}
	return mesh
}

package scene

import (
	"math"
	"math/rand"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/geometry"
	"github.com/df07/go-tile-pathtracer/pkg/material"
)

// sphereGridSeed fixes the layout so every render of the scene is identical
const sphereGridSeed = 42

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := core.DegreesToRadians(h)

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	lc := l + 0.3963377774*a + 0.2158037573*b
	mc := l - 0.1055613458*a - 0.0638541728*b
	sc := l - 0.0894841775*a - 1.2914855480*b

	lc = lc * lc * lc
	mc = mc * mc * mc
	sc = sc * sc * sc

	// LMS to linear RGB
	rgb := core.NewVec3(
		+4.0767416621*lc-3.3077115913*mc+0.2309699292*sc,
		-1.2684380046*lc+2.6097574011*mc-0.3413193965*sc,
		-0.0041960863*lc-0.7034186147*mc+1.7076147010*sc,
	)

	return rgb.Clamp(0, 1)
}

// NewSphereGridScene creates a grid of small randomly perturbed spheres with three large feature spheres
func NewSphereGridScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		LookFrom:      core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20.0,
		AspectRatio:   3.0 / 2.0,
		Aperture:      0.1,
		FocusDistance: 10.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := New("spheregrid")
	s.CameraConfig = cameraConfig
	s.SamplingConfig = SamplingConfig{
		Width:                     600,
		Height:                    400,
		SamplesPerPixel:           50,
		MaxDepth:                  50,
		RussianRouletteMinBounces: 12, // Metal and glass chains rarely contribute past this
	}

	ground := s.AddMaterial(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	s.AddSphere(core.NewVec3(0, -1000, 0), 1000, ground)

	random := rand.New(rand.NewSource(sphereGridSeed))
	glass := s.AddMaterial(material.NewDielectric(1.5))

	// Small spheres must stay clear of the large metal sphere
	keepOut := core.NewVec3(4, 0.2, 0)

	gridSize := 11
	for i := -gridSize; i < gridSize; i++ {
		for j := -gridSize; j < gridSize; j++ {
			center := core.NewVec3(float64(i)+0.9*random.Float64(), 0.2, float64(j)+0.9*random.Float64())
			if center.Subtract(keepOut).Length() <= 0.9 {
				continue
			}

			// Hue across X and chroma across Z
			hue := float64(i+gridSize) / float64(2*gridSize-1) * 360.0
			chroma := 0.05 + float64(j+gridSize)/float64(2*gridSize-1)*0.2
			color := oklchToRGB(0.65+0.1*math.Sin(float64(i+j)*0.5), chroma, hue)

			var id material.ID
			switch choose := random.Float64(); {
			case choose < 0.8:
				id = s.AddMaterial(material.NewLambertian(color.MultiplyVec(color)))
			case choose < 0.95:
				roughness := 0.5 * random.Float64()
				id = s.AddMaterial(material.NewMetal(color.Multiply(0.5).Add(core.NewVec3(0.5, 0.5, 0.5)), roughness))
			default:
				id = glass
			}
			s.AddSphere(center, 0.2, id)
		}
	}

	s.AddSphere(core.NewVec3(0, 1, 0), 1.0, glass)
	s.AddSphere(core.NewVec3(-4, 1, 0), 1.0, s.AddMaterial(material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1))))
	s.AddSphere(core.NewVec3(4, 1, 0), 1.0, s.AddMaterial(material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0)))

	s.Camera = geometry.NewCamera(cameraConfig)
	return s
}

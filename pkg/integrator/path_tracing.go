package integrator

import (
	"math"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/scene"
)

// PathTracingIntegrator implements unidirectional path tracing
type PathTracingIntegrator struct {
	config scene.SamplingConfig
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(config scene.SamplingConfig) *PathTracingIntegrator {
	return &PathTracingIntegrator{
		config: config,
	}
}

// RayColor computes the color for a camera ray with the configured bounce limit
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler) core.Vec3 {
	return pt.Estimate(ray, s, sampler, pt.config.MaxDepth)
}

// Estimate follows one path of at most depth segments. Each scatter multiplies
// the running throughput by the material attenuation; a path that escapes the
// scene picks up the background color, and an absorbed or exhausted path
// contributes nothing.
func (pt *PathTracingIntegrator) Estimate(ray core.Ray, s *scene.Scene, sampler core.Sampler, depth int) core.Vec3 {
	throughput := core.NewVec3(1, 1, 1)

	for bounce := 0; ; bounce++ {
		// If we've exceeded the ray bounce limit, no more light is gathered
		if depth-bounce <= 0 {
			return core.Vec3{}
		}

		hit, isHit := s.Hit(ray, core.ShadowAcneEpsilon, core.Infinity)
		if !isHit {
			return throughput.MultiplyVec(s.Background.Color(ray))
		}

		mat := s.Material(hit.Material)
		if mat == nil {
			return core.Vec3{}
		}

		scatter, didScatter := mat.Scatter(ray, *hit, sampler)
		if !didScatter {
			return core.Vec3{}
		}

		throughput = throughput.MultiplyVec(scatter.Attenuation)
		ray = scatter.Scattered

		survive, compensation := pt.applyRussianRoulette(bounce+1, throughput, sampler)
		if !survive {
			return core.Vec3{}
		}
		throughput = throughput.Multiply(compensation)
	}
}

// applyRussianRoulette decides whether a path continues after the given number of bounces.
// Returns (survives, compensationFactor).
func (pt *PathTracingIntegrator) applyRussianRoulette(bounces int, throughput core.Vec3, sampler core.Sampler) (bool, float64) {
	minBounces := pt.config.RussianRouletteMinBounces
	if minBounces <= 0 || bounces < minBounces {
		return true, 1.0
	}

	// Use luminance for perceptually accurate survival probability
	survivalProb := math.Min(0.95, math.Max(0.05, throughput.Luminance()))

	if sampler.Get1D() > survivalProb {
		return false, 0.0
	}

	return true, 1.0 / survivalProb
}

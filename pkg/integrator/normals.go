package integrator

import (
	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/scene"
)

// NormalsIntegrator shades each primary hit by its surface normal mapped into [0,1].
// Useful for checking geometry without waiting for paths to converge.
type NormalsIntegrator struct {
	config scene.SamplingConfig
}

// NewNormalsIntegrator creates a normal visualization integrator
func NewNormalsIntegrator(config scene.SamplingConfig) *NormalsIntegrator {
	return &NormalsIntegrator{config: config}
}

// RayColor returns 0.5*(n + 1) on a hit and the background otherwise
func (ni *NormalsIntegrator) RayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler) core.Vec3 {
	if ni.config.MaxDepth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := s.Hit(ray, 0, core.Infinity)
	if !isHit {
		return s.Background.Color(ray)
	}
	return hit.Normal.Add(core.NewVec3(1, 1, 1)).Multiply(0.5)
}

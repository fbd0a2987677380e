package integrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/scene"
)

// ErrUnknownIntegrator is returned by New for an unrecognized integrator name
var ErrUnknownIntegrator = errors.New("unknown integrator")

// Integrator defines the interface for light transport algorithms.
// Implementations are safe for concurrent use; all mutable state lives in the sampler.
type Integrator interface {
	// RayColor estimates the radiance carried back along a camera ray
	RayColor(ray core.Ray, scene *scene.Scene, sampler core.Sampler) core.Vec3
}

// Names lists the integrators New accepts
var Names = []string{"path", "normals"}

// New selects an integrator by name. An empty name selects path tracing.
func New(name string, config scene.SamplingConfig) (Integrator, error) {
	switch strings.ToLower(name) {
	case "", "path":
		return NewPathTracingIntegrator(config), nil
	case "normals":
		return NewNormalsIntegrator(config), nil
	default:
		return nil, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownIntegrator, name, strings.Join(Names, ", "))
	}
}

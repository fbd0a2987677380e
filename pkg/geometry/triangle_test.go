package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/material"
)

func TestTriangle_Hit(t *testing.T) {
	// Triangle in the XY plane
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), material.ID(1))

	tests := []struct {
		name      string
		ray       core.Ray
		tMin      float64
		tMax      float64
		shouldHit bool
		expectedT float64
	}{
		{
			name:      "Ray hits triangle center",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, -1), core.NewVec3(0, 0, 1)),
			tMin:      0.001,
			tMax:      10.0,
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Ray hits triangle edge",
			ray:       core.NewRay(core.NewVec3(0.5, 0, -1), core.NewVec3(0, 0, 1)),
			tMin:      0.001,
			tMax:      10.0,
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Unnormalized direction",
			ray:       core.NewRay(core.NewVec3(0.2, 0.2, 3), core.NewVec3(0, 0, -2)),
			tMin:      0.001,
			tMax:      10.0,
			shouldHit: true,
			expectedT: 1.5,
		},
		{
			name:      "u+v greater than one",
			ray:       core.NewRay(core.NewVec3(0.6, 0.6, -1), core.NewVec3(0, 0, 1)),
			tMin:      0.001,
			tMax:      10.0,
			shouldHit: false,
		},
		{
			name:      "u outside [0,1]",
			ray:       core.NewRay(core.NewVec3(-0.1, 0.5, -1), core.NewVec3(0, 0, 1)),
			tMin:      0.001,
			tMax:      10.0,
			shouldHit: false,
		},
		{
			name:      "v negative",
			ray:       core.NewRay(core.NewVec3(0.5, -0.1, -1), core.NewVec3(0, 0, 1)),
			tMin:      0.001,
			tMax:      10.0,
			shouldHit: false,
		},
		{
			name:      "Triangle behind ray",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, 1)),
			tMin:      0.001,
			tMax:      10.0,
			shouldHit: false,
		},
		{
			name:      "Beyond tMax",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, -5), core.NewVec3(0, 0, 1)),
			tMin:      0.001,
			tMax:      4.0,
			shouldHit: false,
		},
		{
			name:      "Below tMin",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, -1), core.NewVec3(0, 0, 1)),
			tMin:      2.0,
			tMax:      10.0,
			shouldHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := triangle.Hit(tt.ray, tt.tMin, tt.tMax)
			require.Equal(t, tt.shouldHit, isHit)
			if !tt.shouldHit {
				return
			}

			assert.InDelta(t, tt.expectedT, hit.T, 1e-9)
			// Hit point is the ray-parameterized point
			assert.True(t, hit.Point.Equals(tt.ray.At(hit.T), 1e-12))
			assert.InDelta(t, 0.0, hit.Point.Z, 1e-9)
			assert.Equal(t, material.ID(1), hit.Material)
		})
	}
}

func TestTriangle_ParallelRayNeverHits(t *testing.T) {
	triangles := []*Triangle{
		NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), 0),
		NewTriangle(core.NewVec3(-1, 0, -1), core.NewVec3(1, 0, -1), core.NewVec3(0, 2, -1), 0),
		NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(0, 3, 0), core.NewVec3(0, 0, 3), 0),
	}

	sampler := core.NewSeededSampler(5)
	for i, tri := range triangles {
		edge1 := tri.V1.Subtract(tri.V0)
		edge2 := tri.V2.Subtract(tri.V0)
		for j := 0; j < 50; j++ {
			// Any combination of the edges lies in the plane
			a, b := sampler.Get1D()*2-1, sampler.Get1D()*2-1
			dir := edge1.Multiply(a).Add(edge2.Multiply(b))
			if dir.NearZero() {
				continue
			}
			// Origins on, above and below the plane
			for _, lift := range []float64{0, 0.5, -0.5} {
				origin := tri.V0.Add(tri.Normal().Multiply(lift)).Subtract(dir)
				_, isHit := tri.Hit(core.NewRay(origin, dir), 0, core.Infinity)
				assert.False(t, isHit, "triangle %d: parallel ray %v should miss", i, dir)
			}
		}
	}
}

func TestTriangle_NormalOrientation(t *testing.T) {
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), 0)
	assert.True(t, triangle.Normal().Equals(core.NewVec3(0, 0, 1), 1e-12))

	// From the back side the reported normal flips to face the ray
	hit, isHit := triangle.Hit(core.NewRay(core.NewVec3(0.2, 0.2, -1), core.NewVec3(0, 0, 1)), 0, core.Infinity)
	require.True(t, isHit)
	assert.False(t, hit.FrontFace)
	assert.True(t, hit.Normal.Equals(core.NewVec3(0, 0, -1), 1e-12))

	hit, isHit = triangle.Hit(core.NewRay(core.NewVec3(0.2, 0.2, 1), core.NewVec3(0, 0, -1)), 0, core.Infinity)
	require.True(t, isHit)
	assert.True(t, hit.FrontFace)
	assert.True(t, hit.Normal.Equals(core.NewVec3(0, 0, 1), 1e-12))
}

func TestTriangle_DegenerateNeverHits(t *testing.T) {
	// Collinear vertices have zero area
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 0), core.NewVec3(2, 2, 0), 0)
	_, isHit := triangle.Hit(core.NewRay(core.NewVec3(1, 1, -1), core.NewVec3(0, 0, 1)), 0, core.Infinity)
	assert.False(t, isHit)
}

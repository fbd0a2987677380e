package geometry

import (
	"fmt"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/material"
)

// NewTriangleMesh builds a list of triangles from vertices and face indices.
// Each group of 3 indices forms one triangle; all triangles share materialID.
func NewTriangleMesh(vertices []core.Vec3, faces []int, materialID material.ID) (*List, error) {
	if len(faces)%3 != 0 {
		return nil, fmt.Errorf("face indices must be a multiple of 3, got %d", len(faces))
	}

	numTriangles := len(faces) / 3
	triangles := make([]Shape, 0, numTriangles)

	for i := 0; i < numTriangles; i++ {
		i0, i1, i2 := faces[i*3], faces[i*3+1], faces[i*3+2]
		for _, idx := range [3]int{i0, i1, i2} {
			if idx < 0 || idx >= len(vertices) {
				return nil, fmt.Errorf("face %d: vertex index %d out of range [0,%d)", i, idx, len(vertices))
			}
		}
		triangles = append(triangles, NewTriangle(vertices[i0], vertices[i1], vertices[i2], materialID))
	}

	return NewList(triangles...), nil
}

// TransformVertices scales then translates every vertex, returning a new slice
func TransformVertices(vertices []core.Vec3, scale float64, offset core.Vec3) []core.Vec3 {
	out := make([]core.Vec3, len(vertices))
	for i, v := range vertices {
		out[i] = v.Multiply(scale).Add(offset)
	}
	return out
}

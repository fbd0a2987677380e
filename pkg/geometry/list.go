package geometry

import (
	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/material"
)

// List is an ordered collection of shapes that reports the nearest hit among its members
type List struct {
	shapes []Shape
}

// NewList creates a list from the given shapes
func NewList(shapes ...Shape) *List {
	return &List{shapes: append([]Shape(nil), shapes...)}
}

// Add appends shapes to the list
func (l *List) Add(shapes ...Shape) {
	l.shapes = append(l.shapes, shapes...)
}

// Len returns the number of direct members
func (l *List) Len() int {
	return len(l.shapes)
}

// Shapes returns the direct members of the list
func (l *List) Shapes() []Shape {
	return l.shapes
}

// Hit scans every member once, narrowing the search interval to the closest hit so far.
// On equal t the earlier member wins.
func (l *List) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closestHit *material.HitRecord
	closestSoFar := tMax

	for _, shape := range l.shapes {
		hit, isHit := shape.Hit(ray, tMin, closestSoFar)
		if !isHit {
			continue
		}
		if closestHit == nil || hit.T < closestSoFar {
			closestHit = hit
			closestSoFar = hit.T
		}
	}

	return closestHit, closestHit != nil
}

// PrimitiveCount returns the number of non-list shapes, counting nested lists recursively
func (l *List) PrimitiveCount() int {
	count := 0
	for _, shape := range l.shapes {
		if nested, ok := shape.(*List); ok {
			count += nested.PrimitiveCount()
			continue
		}
		count++
	}
	return count
}

package material

// ID is a stable handle to a material stored in a Palette
type ID int

// Palette is an arena of materials shared read-only by every primitive of a scene.
// Primitives store the ID returned by Add instead of the material itself.
type Palette struct {
	materials []Material
}

// NewPalette creates an empty palette
func NewPalette() *Palette {
	return &Palette{}
}

// Add stores a material and returns its handle
func (p *Palette) Add(m Material) ID {
	p.materials = append(p.materials, m)
	return ID(len(p.materials) - 1)
}

// Get returns the material for a handle, or nil if the handle is unknown
func (p *Palette) Get(id ID) Material {
	if id < 0 || int(id) >= len(p.materials) {
		return nil
	}
	return p.materials[id]
}

// Len returns the number of materials in the palette
func (p *Palette) Len() int {
	return len(p.materials)
}

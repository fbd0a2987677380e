package loaders

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-tile-pathtracer/pkg/core"
)

const asciiQuad = `ply
format ascii 1.0
comment unit square
element vertex 4
property float x
property float y
property float z
property float nx
element face 1
property list uchar int vertex_indices
end_header
0 0 0 9
1 0 0 9
1 1 0 9
0 1 0 9
4 0 1 2 3
`

func TestReadPLY_ASCII(t *testing.T) {
	data, err := ReadPLY(strings.NewReader(asciiQuad))
	require.NoError(t, err)

	require.Len(t, data.Vertices, 4)
	assert.Equal(t, core.NewVec3(1, 1, 0), data.Vertices[2])

	// Quad fan-triangulated into two triangles
	assert.Equal(t, []int{0, 1, 2, 0, 2, 3}, data.Faces)
	assert.Equal(t, 2, data.TriangleCount())
}

// writeBinaryPLY encodes a mesh with float positions, an extra uchar vertex
// property and an extra face property to check that both get skipped
func writeBinaryPLY(t *testing.T, vertices []core.Vec3, faces [][]int32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("ply\nformat binary_little_endian 1.0\n")
	buf.WriteString("element vertex " + strconv.Itoa(len(vertices)) + "\n")
	buf.WriteString("property float x\nproperty float y\nproperty float z\nproperty uchar red\n")
	buf.WriteString("element face " + strconv.Itoa(len(faces)) + "\n")
	buf.WriteString("property list uchar int vertex_indices\nproperty ushort flags\n")
	buf.WriteString("end_header\n")

	for _, v := range vertices {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}))
		buf.WriteByte(200)
	}
	for _, f := range faces {
		buf.WriteByte(uint8(len(f)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(7)))
	}
	return buf.Bytes()
}

func TestReadPLY_BinaryLittleEndian(t *testing.T) {
	vertices := []core.Vec3{
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
		core.NewVec3(0, 0, 1.5),
	}
	faces := [][]int32{{0, 1, 2}, {0, 2, 3}, {1, 3, 2}}

	data, err := ReadPLY(bytes.NewReader(writeBinaryPLY(t, vertices, faces)))
	require.NoError(t, err)

	assert.Equal(t, vertices, data.Vertices)
	assert.Equal(t, []int{0, 1, 2, 0, 2, 3, 1, 3, 2}, data.Faces)
}

func TestLoadPLY_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.ply")
	require.NoError(t, os.WriteFile(path, []byte(asciiQuad), 0o644))

	data, err := LoadPLY(path)
	require.NoError(t, err)
	assert.Equal(t, 2, data.TriangleCount())

	_, err = LoadPLY(filepath.Join(t.TempDir(), "missing.ply"))
	assert.Error(t, err)
}

const oversizedListPLY = `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uint int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
4000000000 0 1 2
`

func TestLoadPLY_SceneMeshes(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "scenes", "meshes", "*.ply"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			data, err := LoadPLY(path)
			require.NoError(t, err)
			assert.NotEmpty(t, data.Vertices)
			assert.Positive(t, data.TriangleCount())
		})
	}
}

func TestLoadPLY_Tetrahedron(t *testing.T) {
	data, err := LoadPLY(filepath.Join("..", "..", "scenes", "meshes", "tetrahedron.ply"))
	require.NoError(t, err)

	assert.Len(t, data.Vertices, 4)
	assert.Equal(t, []int{0, 2, 1, 0, 1, 3, 1, 2, 3, 2, 0, 3}, data.Faces)
}

func TestReadPLY_Errors(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		unsupported bool
	}{
		{
			name:  "missing magic",
			input: "format ascii 1.0\nend_header\n",
		},
		{
			name:        "big endian",
			input:       "ply\nformat binary_big_endian 1.0\nelement vertex 0\nproperty float x\nend_header\n",
			unsupported: true,
		},
		{
			name:        "unknown property type",
			input:       "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n1\n",
			unsupported: true,
		},
		{
			name:  "truncated body",
			input: "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n1 1\n",
		},
		{
			name: "index out of range",
			input: "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
				"element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1 5\n",
		},
		{
			name: "degenerate face",
			input: "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
				"element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n2 0 1\n",
		},
		{
			name:        "oversized list count",
			input:       oversizedListPLY,
			unsupported: true,
		},
		{
			name:  "header count far beyond body",
			input: "ply\nformat ascii 1.0\nelement vertex 2000000000\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n",
		},
		{
			name:  "no end_header",
			input: "ply\nformat ascii 1.0\nelement vertex 1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPLY(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.unsupported {
				assert.ErrorIs(t, err, ErrUnsupportedPLY)
			}
		})
	}
}

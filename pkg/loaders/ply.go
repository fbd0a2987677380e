package loaders

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-tile-pathtracer/pkg/core"
)

// ErrUnsupportedPLY is returned for PLY files using a format or type this loader cannot read
var ErrUnsupportedPLY = errors.New("unsupported PLY file")

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "binary_little_endian" or "ascii"
	Version  string // Usually "1.0"
	Elements []PLYElement
}

// PLYElement is one element block declared in the header, in file order
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the vertex positions and triangle indices loaded from a PLY file
type PLYData struct {
	Vertices []core.Vec3 // Vertex positions (x, y, z)
	Faces    []int       // Triangle indices (3 per triangle)
}

// TriangleCount returns the number of triangles in the mesh
func (d *PLYData) TriangleCount() int {
	return len(d.Faces) / 3
}

// LoadPLY loads a PLY file and returns the vertex and face data
func LoadPLY(filename string) (*PLYData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	data, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return data, nil
}

// ReadPLY parses ascii or binary little-endian PLY data.
// Faces with more than three vertices are fan-triangulated.
func ReadPLY(r io.Reader) (*PLYData, error) {
	reader := bufio.NewReaderSize(r, 1024*1024)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values valueReader
	switch header.Format {
	case "binary_little_endian":
		values = &binaryReader{r: reader, order: binary.LittleEndian}
	case "ascii":
		scanner := bufio.NewScanner(reader)
		scanner.Split(bufio.ScanWords)
		values = &asciiReader{scanner: scanner}
	default:
		return nil, fmt.Errorf("%w: format %q", ErrUnsupportedPLY, header.Format)
	}

	data := &PLYData{}
	for _, element := range header.Elements {
		if err := readElement(values, element, data); err != nil {
			return nil, err
		}
	}

	for i, idx := range data.Faces {
		if idx < 0 || idx >= len(data.Vertices) {
			return nil, fmt.Errorf("face index %d at position %d out of range [0,%d)", idx, i, len(data.Vertices))
		}
	}

	return data, nil
}

// parsePLYHeader reads up to and including the end_header line
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}

	magic, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("missing ply magic number")
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header ended before end_header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line: %q", line)
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property declared before any element")
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			current := &header.Elements[len(header.Elements)-1]
			current.Properties = append(current.Properties, prop)
		default:
			return nil, fmt.Errorf("unknown header keyword %q", parts[0])
		}
	}

	if header.Format == "" {
		return nil, fmt.Errorf("missing format line")
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	prop := PLYProperty{}
	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop.IsList = true
		prop.ListType = parts[1]
		prop.DataType = parts[2]
		prop.Name = parts[3]
		if getTypeSize(prop.ListType) == 0 || getTypeSize(prop.DataType) == 0 {
			return PLYProperty{}, fmt.Errorf("%w: list type %s %s", ErrUnsupportedPLY, prop.ListType, prop.DataType)
		}
	} else {
		prop.Type = parts[0]
		prop.Name = parts[1]
		if getTypeSize(prop.Type) == 0 {
			return PLYProperty{}, fmt.Errorf("%w: property type %s", ErrUnsupportedPLY, prop.Type)
		}
	}

	return prop, nil
}

const (
	// maxPreallocRecords caps the capacity reserved from a header count;
	// larger elements grow as records are actually read.
	maxPreallocRecords = 1 << 16

	// maxListLength bounds a single list property such as a face polygon
	maxListLength = 255
)

// readElement reads every record of one element, keeping vertex positions and face indices
func readElement(values valueReader, element PLYElement, data *PLYData) error {
	switch element.Name {
	case "vertex":
		data.Vertices = make([]core.Vec3, 0, min(element.Count, maxPreallocRecords))
	case "face":
		data.Faces = make([]int, 0, min(element.Count, maxPreallocRecords)*3) // Assuming triangular faces
	}

	for i := 0; i < element.Count; i++ {
		var position [3]float64
		for _, prop := range element.Properties {
			if prop.IsList {
				indices, err := readList(values, prop)
				if err != nil {
					return fmt.Errorf("%s %d, property %s: %w", element.Name, i, prop.Name, err)
				}
				if element.Name == "face" && (prop.Name == "vertex_indices" || prop.Name == "vertex_index") {
					if len(indices) < 3 {
						return fmt.Errorf("face %d has only %d vertices", i, len(indices))
					}
					// Fan triangulation around the first vertex
					for k := 1; k+1 < len(indices); k++ {
						data.Faces = append(data.Faces, indices[0], indices[k], indices[k+1])
					}
				}
				continue
			}

			value, err := values.read(prop.Type)
			if err != nil {
				return fmt.Errorf("%s %d, property %s: %w", element.Name, i, prop.Name, err)
			}
			if element.Name == "vertex" {
				switch prop.Name {
				case "x":
					position[0] = value
				case "y":
					position[1] = value
				case "z":
					position[2] = value
				}
			}
		}

		if element.Name == "vertex" {
			data.Vertices = append(data.Vertices, core.NewVec3(position[0], position[1], position[2]))
		}
	}

	return nil
}

// readList reads a count-prefixed list property
func readList(values valueReader, prop PLYProperty) ([]int, error) {
	count, err := values.read(prop.ListType)
	if err != nil {
		return nil, fmt.Errorf("failed to read list count: %w", err)
	}
	if count < 0 || count != math.Trunc(count) {
		return nil, fmt.Errorf("invalid list count %v", count)
	}
	if count > maxListLength {
		return nil, fmt.Errorf("%w: list of %v items exceeds %d", ErrUnsupportedPLY, count, maxListLength)
	}

	items := make([]int, int(count))
	for i := range items {
		value, err := values.read(prop.DataType)
		if err != nil {
			return nil, fmt.Errorf("failed to read list item %d: %w", i, err)
		}
		items[i] = int(value)
	}
	return items, nil
}

// getTypeSize returns the size in bytes of a PLY data type, or 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}

// valueReader yields scalar PLY values converted to float64
type valueReader interface {
	read(dataType string) (float64, error)
}

type asciiReader struct {
	scanner *bufio.Scanner
}

func (a *asciiReader) read(dataType string) (float64, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(a.scanner.Text(), 64)
}

type binaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryReader) read(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("%w: type %s", ErrUnsupportedPLY, dataType)
	}
	buf := b.buf[:size]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	default: // double
		return math.Float64frombits(b.order.Uint64(buf)), nil
	}
}

// Package collada decodes the geometry subset of Collada (.dae) documents.
package collada

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Semantics of triangle and vertex inputs
const (
	SemanticVertex   = "VERTEX"
	SemanticPosition = "POSITION"
	SemanticNormal   = "NORMAL"
	SemanticTexCoord = "TEXCOORD"
)

// Collada is the top-level Collada object
type Collada struct {
	Geometries []Geometry `xml:"library_geometries>geometry"`
}

// Decode reads a Collada document from r
func Decode(r io.Reader) (*Collada, error) {
	var c Collada
	if err := xml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("collada: %w", err)
	}
	return &c, nil
}

// Geometry represents Collada's geometry
type Geometry struct {
	Mesh Mesh   `xml:"mesh"`
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// Mesh contains all the primitive data
type Mesh struct {
	Sources   []Source    `xml:"source"`
	Vertices  Vertices    `xml:"vertices"`
	Triangles []Triangles `xml:"triangles"`
}

// Source finds a source by a reference of the form "#id"
func (m *Mesh) Source(ref string) (*Source, error) {
	id := strings.TrimPrefix(ref, "#")
	for i := range m.Sources {
		if m.Sources[i].ID == id {
			return &m.Sources[i], nil
		}
	}
	return nil, fmt.Errorf("collada: source %q not found", ref)
}

// InputSource resolves the source of a triangle input. VERTEX inputs are
// followed through the vertices element to its POSITION source.
func (m *Mesh) InputSource(in Input) (*Source, error) {
	if in.Semantic != SemanticVertex {
		return m.Source(in.Source)
	}
	if strings.TrimPrefix(in.Source, "#") != m.Vertices.ID {
		return nil, fmt.Errorf("collada: vertices %q not found", in.Source)
	}
	for _, vin := range m.Vertices.Inputs {
		if vin.Semantic == SemanticPosition {
			return m.Source(vin.Source)
		}
	}
	return nil, fmt.Errorf("collada: vertices %q have no positions", m.Vertices.ID)
}

// Source links to other sources where data is present
type Source struct {
	ID       string   `xml:"id,attr"`
	Floats   Floats   `xml:"float_array"`
	Accessor Accessor `xml:"technique_common>accessor"`
}

// Stride returns the number of floats per element, 3 when unspecified
func (s *Source) Stride() int {
	if s.Accessor.Stride > 0 {
		return s.Accessor.Stride
	}
	return 3
}

// Element returns the floats of element i
func (s *Source) Element(i int) ([]float32, error) {
	stride := s.Stride()
	if i < 0 || (i+1)*stride > len(s.Floats.Data) {
		return nil, fmt.Errorf("collada: element %d out of range of source %q", i, s.ID)
	}
	return s.Floats.Data[i*stride : (i+1)*stride], nil
}

// Accessor describes how source floats are grouped
type Accessor struct {
	Count  int `xml:"count,attr"`
	Stride int `xml:"stride,attr"`
}

// Floats is the array of floats
type Floats struct {
	ID   string
	Data []float32
}

// UnmarshalXML unmarshals the array of floats
func (f *Floats) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "id":
			f.ID = attr.Value
		}
	}
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	for _, r := range strings.Fields(raw) {
		num, err := strconv.ParseFloat(r, 32)
		if err != nil {
			return err
		}
		f.Data = append(f.Data, float32(num))
	}
	return nil
}

// Vertices contains the list of vertices
type Vertices struct {
	ID     string  `xml:"id,attr"`
	Inputs []Input `xml:"input"`
}

// Triangles contain the list of triangles
type Triangles struct {
	Count    int     `xml:"count,attr"`
	Material string  `xml:"material,attr"`
	Inputs   []Input `xml:"input"`
	Index    []int
}

// Stride returns the number of indices per triangle corner
func (t *Triangles) Stride() int {
	var max uint
	for _, in := range t.Inputs {
		if in.Offset > max {
			max = in.Offset
		}
	}
	return int(max) + 1
}

// Input returns the input with the given semantic
func (t *Triangles) Input(semantic string) (Input, bool) {
	for _, in := range t.Inputs {
		if in.Semantic == semantic {
			return in, true
		}
	}
	return Input{}, false
}

// UnmarshalXML parses the index list
func (t *Triangles) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "count":
			num, err := strconv.Atoi(attr.Value)
			if err != nil {
				return err
			}
			t.Count = num
		case "material":
			t.Material = attr.Value
		}
	}

	for {
		token, err := d.Token()
		if err != nil {
			return err
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "input":
				var input Input
				if err := d.DecodeElement(&input, &el); err != nil {
					return err
				}
				t.Inputs = append(t.Inputs, input)
			case "p":
				var raw string
				if err := d.DecodeElement(&raw, &el); err != nil {
					return err
				}
				fields := strings.Fields(raw)
				t.Index = make([]int, 0, len(fields))
				for _, r := range fields {
					num, err := strconv.Atoi(r)
					if err != nil {
						return err
					}
					t.Index = append(t.Index, num)
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el == start.End() {
				return nil
			}
		}
	}
}

// Input is Collada'a input type
type Input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   uint   `xml:"offset,attr"`
}

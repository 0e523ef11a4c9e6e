package render

import "unsafe"

type Vertex struct {
	Position [2]float32
	Color    [3]float32
}

// VertexInputLayout describes Vertex to the pipeline: position at location 0,
// color at location 1.
func VertexInputLayout() VertexLayout {
	v := Vertex{}
	return VertexLayout{
		Stride: int(unsafe.Sizeof(v)),
		Attributes: []VertexAttribute{
			{
				Location: 0,
				Format:   FormatR32G32SFloat,
				Offset:   int(unsafe.Offsetof(v.Position)),
			},
			{
				Location: 1,
				Format:   FormatR32G32B32SFloat,
				Offset:   int(unsafe.Offsetof(v.Color)),
			},
		},
	}
}

// Mesh is the geometry uploaded once at init.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

// QuadMesh is a unit quad with one colored corner each. Triangles wind
// clockwise as seen on screen, which the pipeline treats as front facing.
func QuadMesh() Mesh {
	return Mesh{
		Vertices: []Vertex{
			{Position: [2]float32{-0.5, -0.5}, Color: [3]float32{1, 0, 0}},
			{Position: [2]float32{0.5, -0.5}, Color: [3]float32{0, 1, 0}},
			{Position: [2]float32{0.5, 0.5}, Color: [3]float32{0, 0, 1}},
			{Position: [2]float32{-0.5, 0.5}, Color: [3]float32{1, 1, 1}},
		},
		Indices: []uint16{0, 3, 2, 2, 1, 0},
	}
}

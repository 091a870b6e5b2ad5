package geometry

import "unsafe"

// FloatsPerVertex is the number of float32 values per interleaved Vertex.
const FloatsPerVertex = 9

// Vertex is one interleaved vertex of a textured mesh. Its layout matches pipeline.LayoutPositionColorUV.
// Size: 36 bytes, no padding.
type Vertex struct {
	Position [3]float32 // offset  0
	Color    [4]float32 // offset 12
	UV       [2]float32 // offset 28
}

// Size returns the size of the Vertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (v *Vertex) Size() int {
	return int(unsafe.Sizeof(*v))
}

// AppendTo appends the vertex in attribute order to dst.
func (v *Vertex) AppendTo(dst []float32) []float32 {
	dst = append(dst, v.Position[:]...)
	dst = append(dst, v.Color[:]...)
	return append(dst, v.UV[:]...)
}

// Mesh is CPU-side geometry ready for upload: interleaved vertices and optional indices. Meshes with more
// vertices than 16 bit indices address carry Indices32 instead of Indices.
type Mesh struct {
	Vertices  []float32
	Indices   []uint16
	Indices32 []uint32
	// Heights holds the per-vertex terrain height, row-major, for meshes built by Terrain.
	Heights []float32
}

// VertexCount returns the number of vertices in the mesh.
func (m Mesh) VertexCount() uint32 {
	return uint32(len(m.Vertices) / FloatsPerVertex)
}

// Indexed reports whether the mesh draws through an index buffer.
func (m Mesh) Indexed() bool {
	return len(m.Indices) > 0 || len(m.Indices32) > 0
}

func packVertices(vertices []Vertex) []float32 {
	out := make([]float32, 0, len(vertices)*FloatsPerVertex)
	for i := range vertices {
		out = vertices[i].AppendTo(out)
	}
	return out
}

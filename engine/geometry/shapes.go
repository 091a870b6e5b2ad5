// Package geometry builds the procedural meshes the demo draws: quads, cubes, the skybox cube and terrain grids.
package geometry

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-fps/common"
)

// QuadIndices are the two counter-clockwise triangles of a quad built by Quad.
var QuadIndices = []uint16{0, 1, 2, 1, 3, 2}

// Quad returns a size x size quad centered on the origin in the XY plane, facing +Z.
//
// Parameters:
//   - size: the edge length
//   - color: the vertex color of all four corners
//
// Returns:
//   - Mesh: 4 vertices and 6 indices
func Quad(size float32, color [4]float32) Mesh {
	h := size / 2
	vertices := []Vertex{
		{Position: [3]float32{-h, -h, 0}, Color: color, UV: [2]float32{0, 1}},
		{Position: [3]float32{h, -h, 0}, Color: color, UV: [2]float32{1, 1}},
		{Position: [3]float32{-h, h, 0}, Color: color, UV: [2]float32{0, 0}},
		{Position: [3]float32{h, h, 0}, Color: color, UV: [2]float32{1, 0}},
	}
	return Mesh{
		Vertices: packVertices(vertices),
		Indices:  append([]uint16(nil), QuadIndices...),
	}
}

// cubeFace is one face of an axis aligned cube: its outward normal and two in-plane axes with u x v = normal,
// so the corners (-u-v, +u-v, -u+v, +u+v) wind counter-clockwise seen from outside.
type cubeFace struct {
	normal, u, v common.Vec3
}

// cubeFaces are in cube texture layer order: +X, -X, +Y, -Y, +Z, -Z.
var cubeFaces = [6]cubeFace{
	{normal: common.Vec3{1, 0, 0}, u: common.Vec3{0, 0, -1}, v: common.Vec3{0, 1, 0}},
	{normal: common.Vec3{-1, 0, 0}, u: common.Vec3{0, 0, 1}, v: common.Vec3{0, 1, 0}},
	{normal: common.Vec3{0, 1, 0}, u: common.Vec3{1, 0, 0}, v: common.Vec3{0, 0, -1}},
	{normal: common.Vec3{0, -1, 0}, u: common.Vec3{1, 0, 0}, v: common.Vec3{0, 0, 1}},
	{normal: common.Vec3{0, 0, 1}, u: common.Vec3{1, 0, 0}, v: common.Vec3{0, 1, 0}},
	{normal: common.Vec3{0, 0, -1}, u: common.Vec3{-1, 0, 0}, v: common.Vec3{0, 1, 0}},
}

func (f cubeFace) corners(h float32) [4]common.Vec3 {
	c := f.normal.Scale(h)
	u := f.u.Scale(h)
	v := f.v.Scale(h)
	return [4]common.Vec3{
		c.Sub(u).Sub(v),
		c.Add(u).Sub(v),
		c.Sub(u).Add(v),
		c.Add(u).Add(v),
	}
}

// Cube returns an axis aligned cube of edge length size centered on the origin. Every face has its own four
// vertices so each face maps the full texture.
//
// Parameters:
//   - size: the edge length
//   - color: the vertex color
//
// Returns:
//   - Mesh: 24 vertices and 36 indices
func Cube(size float32, color [4]float32) Mesh {
	uvs := [4][2]float32{{0, 1}, {1, 1}, {0, 0}, {1, 0}}
	vertices := make([]Vertex, 0, 24)
	indices := make([]uint16, 0, 36)
	for i, face := range cubeFaces {
		for j, p := range face.corners(size / 2) {
			vertices = append(vertices, Vertex{Position: p, Color: color, UV: uvs[j]})
		}
		base := uint16(i * 4)
		for _, idx := range QuadIndices {
			indices = append(indices, base+idx)
		}
	}
	return Mesh{Vertices: packVertices(vertices), Indices: indices}
}

// SkyboxVertexCount is the number of vertices returned by SkyboxCube.
const SkyboxVertexCount = 36

// SkyboxCube returns the position-only triangle list of a unit cube (corners at ±1) for the skybox.
// It is drawn without culling from inside, so the winding is irrelevant.
//
// Returns:
//   - []float32: 36 vertices of 3 floats each
func SkyboxCube() []float32 {
	out := make([]float32, 0, SkyboxVertexCount*3)
	for _, face := range cubeFaces {
		corners := face.corners(1)
		for _, idx := range QuadIndices {
			out = append(out, corners[idx][:]...)
		}
	}
	return out
}

// Terrain returns a width x length grid of unit cells on the XZ plane, centered on the origin, with a random
// height in [0, heightScale) per vertex. Vertex colors shade from dark to light green with height.
//
// Parameters:
//   - width: cells along X
//   - length: cells along Z
//   - cellSize: the edge length of one cell
//   - heightScale: the maximum height
//   - rng: the random source; a fixed seed gives a repeatable terrain
//
// Returns:
//   - Mesh: (width+1)*(length+1) vertices, width*length*6 indices and the per-vertex heights; the indices
//     are 32 bit once the grid has more vertices than 16 bit indices address
//   - error: if the grid is empty
func Terrain(width, length int, cellSize, heightScale float32, rng *rand.Rand) (Mesh, error) {
	if width <= 0 || length <= 0 {
		return Mesh{}, fmt.Errorf("terrain grid %dx%d is empty", width, length)
	}
	columns, rows := width+1, length+1

	heights := make([]float32, columns*rows)
	vertices := make([]Vertex, 0, columns*rows)
	originX := -float32(width) * cellSize / 2
	originZ := -float32(length) * cellSize / 2
	for z := range rows {
		for x := range columns {
			h := rng.Float32() * heightScale
			heights[z*columns+x] = h
			shade := float32(0.3)
			if heightScale > 0 {
				shade += 0.5 * h / heightScale
			}
			vertices = append(vertices, Vertex{
				Position: [3]float32{originX + float32(x)*cellSize, h, originZ + float32(z)*cellSize},
				Color:    [4]float32{0.1, shade, 0.1, 1},
				UV:       [2]float32{float32(x) / float32(width), float32(z) / float32(length)},
			})
		}
	}

	m := Mesh{Vertices: packVertices(vertices), Heights: heights}
	if columns*rows > math.MaxUint16+1 {
		m.Indices32 = gridIndices[uint32](width, length)
	} else {
		m.Indices = gridIndices[uint16](width, length)
	}
	return m, nil
}

func gridIndices[T uint16 | uint32](width, length int) []T {
	columns := T(width + 1)
	indices := make([]T, 0, width*length*6)
	for z := range length {
		for x := range width {
			i0 := T(z)*columns + T(x)
			i1 := i0 + 1
			i2 := i0 + columns
			i3 := i2 + 1
			// Counter-clockwise seen from above (+Y).
			indices = append(indices, i0, i2, i1, i1, i2, i3)
		}
	}
	return indices
}

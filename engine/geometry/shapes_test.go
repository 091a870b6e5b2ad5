package geometry

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexSize(t *testing.T) {
	var v Vertex
	assert.Equal(t, 36, v.Size())
	assert.Equal(t, FloatsPerVertex*4, v.Size())
}

func TestQuad(t *testing.T) {
	m := Quad(2, [4]float32{1, 1, 1, 1})
	assert.Equal(t, uint32(4), m.VertexCount())
	assert.Len(t, m.Vertices, 4*FloatsPerVertex)
	assert.Equal(t, []uint16{0, 1, 2, 1, 3, 2}, m.Indices)
	assert.True(t, m.Indexed())

	// first vertex: bottom-left corner, white, uv (0, 1)
	assert.Equal(t, []float32{-1, -1, 0, 1, 1, 1, 1, 0, 1}, m.Vertices[:FloatsPerVertex])
}

func TestCubeWindsOutward(t *testing.T) {
	m := Cube(2, [4]float32{1, 0, 0, 1})
	require.Equal(t, uint32(24), m.VertexCount())
	require.Len(t, m.Indices, 36)

	pos := func(i uint16) common.Vec3 {
		o := int(i) * FloatsPerVertex
		return common.Vec3{m.Vertices[o], m.Vertices[o+1], m.Vertices[o+2]}
	}
	for tri := 0; tri < len(m.Indices); tri += 3 {
		a, b, c := pos(m.Indices[tri]), pos(m.Indices[tri+1]), pos(m.Indices[tri+2])
		normal := b.Sub(a).Cross(c.Sub(a))
		center := a.Add(b).Add(c).Scale(1.0 / 3)
		assert.Greater(t, normal.Dot(center), float32(0), "triangle %d faces inward", tri/3)
	}
}

func TestSkyboxCube(t *testing.T) {
	v := SkyboxCube()
	require.Len(t, v, SkyboxVertexCount*3)
	for _, f := range v {
		assert.True(t, f == 1 || f == -1)
	}
}

func TestTerrain(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	m, err := Terrain(4, 3, 1, 2, rng)
	require.NoError(t, err)
	assert.Equal(t, uint32(5*4), m.VertexCount())
	assert.Len(t, m.Indices, 4*3*6)
	assert.Len(t, m.Heights, 5*4)
	for _, h := range m.Heights {
		assert.GreaterOrEqual(t, h, float32(0))
		assert.Less(t, h, float32(2))
	}
	for _, idx := range m.Indices {
		assert.Less(t, uint32(idx), m.VertexCount())
	}

	again, err := Terrain(4, 3, 1, 2, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, m.Heights, again.Heights)
}

func TestTerrainLimits(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	_, err := Terrain(0, 10, 1, 1, rng)
	assert.Error(t, err)

	m, err := Terrain(255, 255, 1, 1, rng)
	require.NoError(t, err)
	assert.Len(t, m.Indices, 255*255*6)
	assert.Empty(t, m.Indices32)

	// One more row and column no longer fits 16 bit indices.
	m, err = Terrain(256, 256, 1, 1, rng)
	require.NoError(t, err)
	assert.Empty(t, m.Indices)
	require.Len(t, m.Indices32, 256*256*6)
	assert.True(t, m.Indexed())
	assert.Equal(t, uint32(257*257-1), slices.Max(m.Indices32))
}

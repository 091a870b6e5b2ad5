package shader

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carmen-Shannon/oxy-fps/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShader = `
struct Camera {
    view_projection: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> camera: Camera;

struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
}

// @vertex fn commented_out() {}

@vertex
fn main_vs(@location(0) position: vec3<f32>, @location(1) color: vec3<f32>) -> VertexOut {
    var output: VertexOut;
    output.position = camera.view_projection * vec4<f32>(position, 1.0);
    output.color = color;
    return output;
}

@fragment
fn main_fs(input: VertexOut) -> @location(0) vec4<f32> {
    return vec4<f32>(input.color, 1.0);
}
`

func TestNewShader(t *testing.T) {
	s, err := NewShader("wireframe.wgsl", testShader)
	require.NoError(t, err)
	assert.Equal(t, "main_vs", s.VertexEntryPoint())
	assert.Equal(t, "main_fs", s.FragmentEntryPoint())
	assert.Equal(t, []Binding{{Group: 0, Binding: 0, AddressSpace: "uniform", Name: "camera", Type: "Camera"}}, s.Bindings())
}

func TestNewShaderInvalidSource(t *testing.T) {
	_, err := NewShader("broken.wgsl", "fn main_vs( {")
	require.ErrorIs(t, err, ErrInvalidShader)
	assert.Contains(t, err.Error(), "broken.wgsl")
}

func TestNewShaderMissingEntryPoint(t *testing.T) {
	_, err := NewShader("wireframe.wgsl", testShader, WithVertexEntryPoint("vs_main"))
	require.ErrorIs(t, err, ErrMissingEntryPoint)
	assert.Contains(t, err.Error(), "vs_main")

	_, err = NewShader("wireframe.wgsl", testShader, WithVertexEntryPoint("commented_out"), WithValidation(false))
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{"shaders/wireframe.wgsl": {Data: []byte(testShader)}}

	s, err := Load(fsys, "shaders/wireframe.wgsl")
	require.NoError(t, err)
	assert.Equal(t, "shaders/wireframe.wgsl", s.Path())

	_, err = Load(fsys, "shaders/missing.wgsl")
	require.ErrorIs(t, err, ErrShaderNotFound)
	assert.Contains(t, err.Error(), "shaders/missing.wgsl")

	_, err = Load(fsys, "")
	assert.ErrorIs(t, err, ErrShaderNotFound)
}

func TestCreateModule(t *testing.T) {
	device := gputest.NewDevice()
	s, err := NewShader("wireframe.wgsl", testShader)
	require.NoError(t, err)

	_, err = s.CreateModule(device)
	require.NoError(t, err)
	require.Len(t, device.ShaderModules, 1)
	assert.Equal(t, "wireframe.wgsl", device.ShaderModules[0].Label())
	assert.Equal(t, testShader, device.ShaderModules[0].Source)
}

func TestStripComments(t *testing.T) {
	src := "a /* b /* nested */ c */ d // e\nf"
	assert.Equal(t, "a  d \nf", stripComments(src))
}

func TestWatcherDrain(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	assert.Empty(t, w.Drain())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unlit.wgsl"), []byte(testShader), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	var changed []string
	require.Eventually(t, func() bool {
		changed = append(changed, w.Drain()...)
		return len(changed) > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"unlit.wgsl"}, changed)
}

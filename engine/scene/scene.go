// Package scene composes a camera, an optional skybox, game objects and debug lines into one renderable unit.
package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/assets"
	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/camera"
	"github.com/Carmen-Shannon/oxy-fps/engine/debug_draw"
	"github.com/Carmen-Shannon/oxy-fps/engine/game_object"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/variant"
)

// LineSource feeds debug lines into the scene every frame, typically a physics world's debug drawer.
type LineSource interface {
	// DrawDebugLines emits this frame's lines into d.
	DrawDebugLines(d debug_draw.DebugDraw)
}

// Scene is the unit the engine loop drives: Update once per tick, Render once per frame inside the frame's
// render pass, Resize between frames.
type Scene interface {
	// Name returns the scene's name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Camera returns the scene camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// DebugDraw returns the debug line collector, nil until Initialize or when debug lines are disabled.
	//
	// Returns:
	//   - debug_draw.DebugDraw: the collector or nil
	DebugDraw() debug_draw.DebugDraw

	// Add registers obj, assigning an ID when it has none. After Initialize the object is initialized
	// immediately.
	//
	// Parameters:
	//   - obj: the object
	//
	// Returns:
	//   - uint64: the object's ID
	//   - error: the object's initialization failure; the object is not added
	Add(obj game_object.GameObject) (uint64, error)

	// Get returns the object with the given ID, or nil.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove unregisters and disposes the object with the given ID.
	//
	// Parameters:
	//   - id: the object ID
	Remove(id uint64)

	// Count returns the number of registered objects.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// Initialize loads the shaders and creates every GPU resource of the scene: camera uniforms, fallback
	// texture, skybox, objects and debug lines. On failure everything created so far is released.
	//
	// Parameters:
	//   - builders: the factories to build from
	//
	// Returns:
	//   - error: the first failure
	Initialize(builders variant.Builders) error

	// Update advances the scene by dt seconds: uploads the camera, pulls every enabled object's transform and
	// collects debug lines.
	//
	// Parameters:
	//   - dt: elapsed seconds since the previous update
	//
	// Returns:
	//   - error: the first upload failure
	Update(dt float32) error

	// Render records the skybox, the enabled objects and the debug lines, in that order.
	//
	// Parameters:
	//   - pass: the frame's active render pass
	//
	// Returns:
	//   - error: the first draw failure
	Render(pass gpu.RenderPass) error

	// DiscardFrame drops the debug lines collected by Update for a frame that could not be rendered.
	DiscardFrame()

	// Resize adapts the camera to a new surface size. A zero height is ignored.
	//
	// Parameters:
	//   - width, height: the framebuffer size in pixels
	Resize(width, height int)

	// ReloadShader rebuilds every pipeline built from the shader at sh.Path(). Pipelines that fail to rebuild
	// keep their previous shader.
	//
	// Parameters:
	//   - sh: the reloaded shader
	//
	// Returns:
	//   - error: the joined rebuild failures
	ReloadShader(sh shader.Shader) error

	// Dispose releases every GPU resource the scene created. Calls after the first are no-ops.
	Dispose()
}

type basicScene struct {
	mu   *sync.Mutex
	name string
	cam  camera.Camera

	registry map[uint64]game_object.GameObject
	nextID   uint64

	shaderFS      fs.FS
	shaderOptions []shader.ShaderBuilderOption
	unlitShader   shader.Shader

	skyboxFaces *resource.CubeFaces
	skyboxTex   *resource.Texture
	skybox      variant.Skybox

	debugLines  bool
	lineSources []LineSource
	debug       debug_draw.DebugDraw

	builders       variant.Builders
	defaultTexture *resource.Texture
	initialized    bool
}

var _ Scene = &basicScene{}

// NewBasicScene creates a Scene around cam. Shaders come from the embedded assets unless WithShaderFS is given.
//
// Parameters:
//   - name: the scene name
//   - cam: the camera; the scene creates and releases its uniforms
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the uninitialized scene
func NewBasicScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	s := &basicScene{
		mu:         &sync.Mutex{},
		name:       name,
		cam:        cam,
		registry:   make(map[uint64]game_object.GameObject),
		nextID:     1,
		shaderFS:   assets.Shaders,
		debugLines: true,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *basicScene) Name() string {
	return s.name
}

func (s *basicScene) Camera() camera.Camera {
	return s.cam
}

func (s *basicScene) DebugDraw() debug_draw.DebugDraw {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debug
}

func (s *basicScene) register(obj game_object.GameObject) uint64 {
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	}
	s.registry[obj.ID()] = obj
	return obj.ID()
}

func (s *basicScene) Add(obj game_object.GameObject) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		if err := obj.Initialize(s.objectResources()); err != nil {
			return 0, err
		}
	}
	return s.register(obj), nil
}

func (s *basicScene) Get(id uint64) game_object.GameObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry[id]
}

func (s *basicScene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj, ok := s.registry[id]; ok {
		obj.Dispose()
		delete(s.registry, id)
	}
}

func (s *basicScene) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registry)
}

// objects returns the registered objects in ID order so draws are recorded deterministically.
func (s *basicScene) objects() []game_object.GameObject {
	ids := slices.Sorted(maps.Keys(s.registry))
	out := make([]game_object.GameObject, len(ids))
	for i, id := range ids {
		out[i] = s.registry[id]
	}
	return out
}

func (s *basicScene) objectResources() game_object.Resources {
	vp, _ := s.cam.ViewProjectionBuffer()
	return game_object.Resources{
		Builders: s.builders,
		Shader:   s.unlitShader,
		Camera:   vp,
		Texture:  s.defaultTexture,
	}
}

func (s *basicScene) loadShader(path string) (shader.Shader, error) {
	return shader.Load(s.shaderFS, path, s.shaderOptions...)
}

func (s *basicScene) Initialize(builders variant.Builders) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return gpu.ErrAlreadyInitialized
	}
	s.builders = builders
	if err := s.initializeLocked(); err != nil {
		s.disposeLocked()
		return fmt.Errorf("failed to initialize scene %s: %w", s.name, err)
	}
	s.initialized = true
	common.Logger().Info("scene initialized", "name", s.name, "objects", len(s.registry), "skybox", s.skybox != nil)
	return nil
}

func (s *basicScene) initializeLocked() error {
	var err error
	if s.unlitShader, err = s.loadShader(assets.UnlitShader); err != nil {
		return err
	}
	if err := s.cam.InitializeGPU(s.builders.Factory); err != nil {
		return err
	}
	if s.defaultTexture, err = s.builders.Factory.CreateDefaultTexture(); err != nil {
		return err
	}

	if s.skyboxFaces != nil {
		sh, err := s.loadShader(assets.SkyboxShader)
		if err != nil {
			return err
		}
		if s.skyboxTex, err = s.builders.Factory.CreateCubeTexture(*s.skyboxFaces, common.SamplerStagingData{}, s.name+" skybox"); err != nil {
			return err
		}
		skyVP, err := s.cam.SkyboxViewProjectionBuffer()
		if err != nil {
			return err
		}
		s.skybox = variant.NewSkybox(s.builders, sh, skyVP, s.skyboxTex)
		if err := s.skybox.Initialize(); err != nil {
			return err
		}
	}

	res := s.objectResources()
	for _, obj := range s.objects() {
		if err := obj.Initialize(res); err != nil {
			return err
		}
	}

	if s.debugLines {
		sh, err := s.loadShader(assets.WireframeShader)
		if err != nil {
			return err
		}
		s.debug = debug_draw.NewDebugDraw(s.builders, sh, res.Camera)
		if err := s.debug.Initialize(); err != nil {
			return err
		}
	}
	return nil
}

func (s *basicScene) Update(dt float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return fmt.Errorf("scene %s: %w", s.name, variant.ErrNotInitialized)
	}
	if err := s.cam.Update(); err != nil {
		return fmt.Errorf("failed to update camera: %w", err)
	}
	for _, obj := range s.objects() {
		if !obj.Enabled() {
			continue
		}
		if err := obj.Update(); err != nil {
			return err
		}
	}
	if s.debug != nil {
		for _, src := range s.lineSources {
			src.DrawDebugLines(s.debug)
		}
	}
	return nil
}

func (s *basicScene) Render(pass gpu.RenderPass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return fmt.Errorf("scene %s: %w", s.name, variant.ErrNotInitialized)
	}
	if err := s.renderGeometry(pass); err != nil {
		if s.debug != nil {
			s.debug.Discard()
		}
		return err
	}
	if s.debug != nil {
		return s.debug.Flush(pass)
	}
	return nil
}

func (s *basicScene) renderGeometry(pass gpu.RenderPass) error {
	if s.skybox != nil {
		if err := s.skybox.Render(pass); err != nil {
			return err
		}
	}
	for _, obj := range s.objects() {
		if !obj.Enabled() {
			continue
		}
		if err := obj.Render(pass); err != nil {
			return err
		}
	}
	return nil
}

func (s *basicScene) DiscardFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debug != nil {
		s.debug.Discard()
	}
}

func (s *basicScene) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.cam.SetAspect(float32(width) / float32(height))
}

func (s *basicScene) ReloadShader(sh shader.Shader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return fmt.Errorf("scene %s: %w", s.name, variant.ErrNotInitialized)
	}

	var errs []error
	switch sh.Path() {
	case assets.UnlitShader:
		for _, obj := range s.objects() {
			if err := obj.Reload(sh); err != nil {
				errs = append(errs, err)
			}
		}
		s.unlitShader = sh
	case assets.SkyboxShader:
		if s.skybox != nil {
			errs = append(errs, s.skybox.Reload(sh))
		}
	case assets.WireframeShader:
		if s.debug != nil {
			errs = append(errs, s.debug.Reload(sh))
		}
	default:
		common.Logger().Debug("no pipeline uses shader", "scene", s.name, "path", sh.Path())
		return nil
	}
	err := errors.Join(errs...)
	if err != nil {
		common.Logger().Warn("shader reload failed", "scene", s.name, "path", sh.Path(), "error", err)
	} else {
		common.Logger().Info("shader reloaded", "scene", s.name, "path", sh.Path())
	}
	return err
}

func (s *basicScene) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposeLocked()
	s.initialized = false
}

func (s *basicScene) disposeLocked() {
	if s.debug != nil {
		s.debug.Dispose()
		s.debug = nil
	}
	for _, obj := range s.registry {
		obj.Dispose()
	}
	if s.skybox != nil {
		s.skybox.Dispose()
		s.skybox = nil
	}
	if s.skyboxTex != nil {
		s.skyboxTex.Release()
		s.skyboxTex = nil
	}
	if s.defaultTexture != nil {
		s.defaultTexture.Release()
		s.defaultTexture = nil
	}
	s.cam.Release()
}

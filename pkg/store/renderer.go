package store

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/skellyview/pkg/reactive"
)

// RendererStoreName is the registry name of the renderer store.
const RendererStoreName = "renderer"

// Renderer field names as reported in Change and Fields.
const (
	FieldRenderer = "renderer"
	FieldScene    = "scene"
	FieldCamera   = "camera"
)

// Handle is an opaque reference to an object owned by the rendering layer.
// Nil means absent.
type Handle any

// RendererHandles holds the current renderer, scene and camera handles.
// The store only remembers which objects are current; creating and
// disposing them is the rendering layer's job.
type RendererHandles struct {
	renderer *reactive.Signal[Handle]
	scene    *reactive.Signal[Handle]
	camera   *reactive.Signal[Handle]
}

// NewRendererHandles creates a renderer store with every handle absent.
func NewRendererHandles() *RendererHandles {
	return newRendererHandles(nil)
}

func newRendererHandles(emit emitFunc) *RendererHandles {
	r := &RendererHandles{
		renderer: reactive.NewSignal[Handle](nil).WithEquals(sameHandle),
		scene:    reactive.NewSignal[Handle](nil).WithEquals(sameHandle),
		camera:   reactive.NewSignal[Handle](nil).WithEquals(sameHandle),
	}
	bindField(r.renderer, FieldRenderer, emit, DescribeHandle)
	bindField(r.scene, FieldScene, emit, DescribeHandle)
	bindField(r.camera, FieldCamera, emit, DescribeHandle)
	return r
}

// sameHandle compares handles by identity. Handles whose dynamic type is not
// comparable are never considered equal.
func sameHandle(a, b Handle) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	// A comparable struct can still carry a slice or map in an interface
	// field, which makes == panic. Such handles count as changed.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// DescribeHandle returns a printable name for h, or nil when h is absent.
// Handles implementing fmt.Stringer describe themselves; others, and nil
// pointers, are named by their Go type.
func DescribeHandle(h Handle) any {
	if h == nil {
		return nil
	}
	if rv := reflect.ValueOf(h); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return fmt.Sprintf("%T", h)
	}
	if _, ok := h.(fmt.Stringer); ok {
		// fmt recovers panics raised by String.
		return fmt.Sprint(h)
	}
	return fmt.Sprintf("%T", h)
}

// Name implements Store.
func (r *RendererHandles) Name() string { return RendererStoreName }

// Renderer returns the current renderer handle.
func (r *RendererHandles) Renderer() Handle { return r.renderer.Get() }

// SetRenderer replaces the renderer handle.
func (r *RendererHandles) SetRenderer(h Handle) { r.renderer.Set(h) }

// Scene returns the current scene handle.
func (r *RendererHandles) Scene() Handle { return r.scene.Get() }

// SetScene replaces the scene handle.
func (r *RendererHandles) SetScene(h Handle) { r.scene.Set(h) }

// Camera returns the current camera handle.
func (r *RendererHandles) Camera() Handle { return r.camera.Get() }

// SetCamera replaces the camera handle.
func (r *RendererHandles) SetCamera(h Handle) { r.camera.Set(h) }

// Ready reports whether all three handles are present.
func (r *RendererHandles) Ready() bool {
	return r.Renderer() != nil && r.Scene() != nil && r.Camera() != nil
}

// OnRenderer calls fn after every change of the renderer handle.
func (r *RendererHandles) OnRenderer(fn func(Handle)) (unsubscribe func()) {
	return r.renderer.Subscribe(fn)
}

// OnScene calls fn after every change of the scene handle.
func (r *RendererHandles) OnScene(fn func(Handle)) (unsubscribe func()) {
	return r.scene.Subscribe(fn)
}

// OnCamera calls fn after every change of the camera handle.
func (r *RendererHandles) OnCamera(fn func(Handle)) (unsubscribe func()) {
	return r.camera.Subscribe(fn)
}

// RendererSnapshot describes the current handles. Each field holds the
// DescribeHandle form of the handle, or nil.
type RendererSnapshot struct {
	Renderer any `json:"renderer"`
	Scene    any `json:"scene"`
	Camera   any `json:"camera"`
}

// Snapshot returns a description of every handle.
func (r *RendererHandles) Snapshot() RendererSnapshot {
	return RendererSnapshot{
		Renderer: DescribeHandle(r.Renderer()),
		Scene:    DescribeHandle(r.Scene()),
		Camera:   DescribeHandle(r.Camera()),
	}
}

// Fields implements Store.
func (r *RendererHandles) Fields() map[string]any {
	s := r.Snapshot()
	return map[string]any{
		FieldRenderer: s.Renderer,
		FieldScene:    s.Scene,
		FieldCamera:   s.Camera,
	}
}

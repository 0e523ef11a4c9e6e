// Package platform provides the host window and clock the renderer runs
// against.
package platform

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/cgame/renderer/render"
	"github.com/cgame/renderer/vkng"
)

// Window is an SDL window created with Vulkan support.
type Window struct {
	*sdl.Window
}

// OpenWindow initializes SDL video and opens a resizable Vulkan window.
// Close releases both.
func OpenWindow(title string, width, height int) (*Window, error) {
	return openWindow(title, width, height, sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
}

// OpenHiddenWindow opens a Vulkan window that is never shown, for querying
// surface support without drawing.
func OpenHiddenWindow(title string) (*Window, error) {
	return openWindow(title, 64, 64, sdl.WINDOW_HIDDEN|sdl.WINDOW_VULKAN)
}

func openWindow(title string, width, height int, flags uint32) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl video")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(width), int32(height), flags)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	return &Window{Window: window}, nil
}

// NewLoader returns the Vulkan loader SDL resolved for this process.
func (w *Window) NewLoader() (*vkng.Loader, error) {
	return vkng.NewLoader(sdl.VulkanGetVkGetInstanceProcAddr())
}

func (w *Window) RequiredInstanceExtensions() ([]string, error) {
	extensions := w.Window.VulkanGetInstanceExtensions()
	if len(extensions) == 0 {
		return nil, errors.Newf("sdl reported no vulkan instance extensions: %s", sdl.GetError())
	}
	return extensions, nil
}

// DrawableSize reports the size in pixels. A minimized window reports zero.
func (w *Window) DrawableSize() (int, int) {
	if w.Minimized() {
		return 0, 0
	}
	width, height := w.Window.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *Window) Minimized() bool {
	return (w.Window.GetFlags() & sdl.WINDOW_MINIMIZED) != 0
}

func (w *Window) CreateSurface(instance render.Instance) (render.Surface, error) {
	return vkng.CreateSDLSurface(instance, w.Window)
}

func (w *Window) Close() {
	if w.Window != nil {
		_ = w.Window.Destroy()
	}
	sdl.Quit()
}

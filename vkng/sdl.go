package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/cgame/renderer/render"
)

// CreateSDLSurface creates a presentation surface for an SDL window created
// with the WINDOW_VULKAN flag.
func CreateSDLSurface(instance render.Instance, window *sdl.Window) (render.Surface, error) {
	i, ok := instance.(*Instance)
	if !ok {
		return nil, errors.AssertionFailedf("vkng: unexpected instance type %T", instance)
	}

	surface, err := vkng_sdl2.CreateSurface(i.driver.Instance(), i.surface, window)
	if err != nil {
		return nil, errors.Wrap(err, "create sdl surface")
	}
	return NewSurface(i, surface), nil
}

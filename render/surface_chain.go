package render

import (
	"github.com/cockroachdb/errors"
)

// ChooseSurfaceFormat prefers 8-bit BGRA sRGB with the sRGB nonlinear color
// space and otherwise takes the first format offered.
func ChooseSurfaceFormat(available []SurfaceFormat) SurfaceFormat {
	for _, format := range available {
		if format.Format == FormatB8G8R8A8SRGB && format.ColorSpace == ColorSpaceSRGBNonlinear {
			return format
		}
	}

	if len(available) == 0 {
		return SurfaceFormat{}
	}
	return available[0]
}

// ChoosePresentMode prefers mailbox. FIFO is always supported, so it is the
// fallback whether or not it was listed.
func ChoosePresentMode(available []PresentMode) PresentMode {
	for _, mode := range available {
		if mode == PresentModeMailbox {
			return mode
		}
	}
	return PresentModeFIFO
}

// ChooseExtent uses the surface's current extent when it has one, otherwise
// the window's drawable size clamped to the supported range.
func ChooseExtent(capabilities SurfaceCapabilities, width, height int) Extent2D {
	if capabilities.CurrentExtent.Width != UndefinedExtent {
		return capabilities.CurrentExtent
	}

	return Extent2D{
		Width:  clamp(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// ChooseImageCount asks for one image more than the minimum, bounded by the
// maximum when there is one (zero means unbounded).
func ChooseImageCount(capabilities SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// SwapchainImage groups a presentable image with the view and framebuffer
// built on it. The image belongs to the swapchain; the view and framebuffer
// belong to us.
type SwapchainImage struct {
	Image       Image
	View        ImageView
	Framebuffer Framebuffer
}

// SurfaceChain is the swapchain plus everything derived from its images.
type SurfaceChain struct {
	Swapchain   Swapchain
	Format      SurfaceFormat
	PresentMode PresentMode
	Extent      Extent2D

	images []SwapchainImage
}

// CreateSurfaceChain builds a swapchain for ctx's surface with one view and
// one framebuffer per image, all bound to renderPass.
func CreateSurfaceChain(ctx *GraphicsContext, window Window, renderPass RenderPass) (*SurfaceChain, error) {
	chain := &SurfaceChain{}
	if err := chain.build(ctx, window, renderPass); err != nil {
		return nil, err
	}
	return chain, nil
}

func (c *SurfaceChain) Len() int {
	return len(c.images)
}

// Image returns the i-th presentable image record.
func (c *SurfaceChain) Image(i int) SwapchainImage {
	return c.images[i]
}

func (c *SurfaceChain) Images() []Image {
	images := make([]Image, 0, len(c.images))
	for _, image := range c.images {
		images = append(images, image.Image)
	}
	return images
}

func (c *SurfaceChain) ImageViews() []ImageView {
	views := make([]ImageView, 0, len(c.images))
	for _, image := range c.images {
		views = append(views, image.View)
	}
	return views
}

func (c *SurfaceChain) Framebuffers() []Framebuffer {
	framebuffers := make([]Framebuffer, 0, len(c.images))
	for _, image := range c.images {
		framebuffers = append(framebuffers, image.Framebuffer)
	}
	return framebuffers
}

// Recreate rebuilds the chain in place against the same render pass. The
// caller must not have GPU work referencing the old chain; Recreate waits for
// the device to go idle before destroying anything.
func (c *SurfaceChain) Recreate(ctx *GraphicsContext, window Window, renderPass RenderPass) error {
	width, height := window.DrawableSize()
	if width == 0 || height == 0 {
		return ErrSurfaceUnavailable
	}

	if err := ctx.Device.WaitIdle(); err != nil {
		return errors.Wrap(err, "recreate surface chain: wait idle")
	}

	previous := c.Format
	c.Destroy()

	if err := c.build(ctx, window, renderPass); err != nil {
		return err
	}

	if c.Format != previous {
		return errors.Wrapf(ErrSurfaceFormatChanged, "format %d/%d became %d/%d",
			previous.Format, previous.ColorSpace, c.Format.Format, c.Format.ColorSpace)
	}
	return nil
}

// Destroy releases framebuffers, then image views, then the swapchain (which
// owns the images). Safe to call more than once.
func (c *SurfaceChain) Destroy() {
	for _, image := range c.images {
		if image.Framebuffer != nil {
			image.Framebuffer.Destroy()
		}
	}

	for _, image := range c.images {
		if image.View != nil {
			image.View.Destroy()
		}
	}
	c.images = nil

	if c.Swapchain != nil {
		c.Swapchain.Destroy()
		c.Swapchain = nil
	}
}

func (c *SurfaceChain) build(ctx *GraphicsContext, window Window, renderPass RenderPass) error {
	support, err := QuerySurfaceSupport(ctx.PhysicalDevice, ctx.Surface)
	if err != nil {
		return chainError(err, "query surface support")
	}

	width, height := window.DrawableSize()
	format := ChooseSurfaceFormat(support.Formats)
	presentMode := ChoosePresentMode(support.PresentModes)
	extent := ChooseExtent(support.Capabilities, width, height)

	options := SwapchainOptions{
		Surface:       ctx.Surface,
		MinImageCount: ChooseImageCount(support.Capabilities),
		Format:        format,
		Extent:        extent,
		PresentMode:   presentMode,
	}

	if !ctx.QueueFamilies.Shared() {
		options.Concurrent = true
		options.QueueFamilyIndices = []int{*ctx.QueueFamilies.Graphics, *ctx.QueueFamilies.Present}
	}

	swapchain, err := ctx.Device.CreateSwapchain(options)
	if err != nil {
		return chainError(err, "create swapchain")
	}
	c.Swapchain = swapchain
	c.Format = format
	c.PresentMode = presentMode
	c.Extent = extent

	err = c.createImages(ctx.Device, renderPass)
	if err != nil {
		c.Destroy()
		return err
	}
	return nil
}

func (c *SurfaceChain) createImages(device Device, renderPass RenderPass) error {
	images, err := c.Swapchain.Images()
	if err != nil {
		return chainError(err, "get swapchain images")
	}

	// A record is appended only once its view and framebuffer both exist, so
	// a partial chain still destroys cleanly.
	c.images = make([]SwapchainImage, 0, len(images))
	for i, image := range images {
		view, err := device.CreateImageView(image, c.Format.Format)
		if err != nil {
			return chainError(err, "create image view")
		}

		framebuffer, err := device.CreateFramebuffer(renderPass, view, c.Extent)
		if err != nil {
			view.Destroy()
			return errors.Wrapf(chainError(err, "create framebuffer"), "image %d", i)
		}

		c.images = append(c.images, SwapchainImage{
			Image:       image,
			View:        view,
			Framebuffer: framebuffer,
		})
	}

	return nil
}

package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/cgame/renderer/render"
)

type PhysicalDevice struct {
	instance *Instance
	handle   core1_0.PhysicalDevice
}

func (p *PhysicalDevice) Name() string {
	properties, err := p.instance.driver.GetPhysicalDeviceProperties(p.handle)
	if err != nil {
		return "unknown"
	}
	return properties.DeviceName
}

func (p *PhysicalDevice) QueueFamilies() []render.QueueFamily {
	properties := p.instance.driver.GetPhysicalDeviceQueueFamilyProperties(p.handle)

	families := make([]render.QueueFamily, 0, len(properties))
	for _, family := range properties {
		families = append(families, render.QueueFamily{
			Graphics: (family.QueueFlags & core1_0.QueueGraphics) != 0,
			Count:    family.QueueCount,
		})
	}
	return families
}

func (p *PhysicalDevice) SurfaceSupport(surface render.Surface, family int) (bool, error) {
	handle, err := surfaceHandle(surface)
	if err != nil {
		return false, err
	}

	supported, _, err := p.instance.surface.GetPhysicalDeviceSurfaceSupport(handle, p.handle, family)
	return supported, err
}

func (p *PhysicalDevice) Extensions() (map[string]struct{}, error) {
	extensions, _, err := p.instance.driver.EnumerateDeviceExtensionProperties(p.handle)
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(extensions))
	for name := range extensions {
		names[name] = struct{}{}
	}
	return names, nil
}

func (p *PhysicalDevice) SurfaceCapabilities(surface render.Surface) (render.SurfaceCapabilities, error) {
	handle, err := surfaceHandle(surface)
	if err != nil {
		return render.SurfaceCapabilities{}, err
	}

	capabilities, _, err := p.instance.surface.GetPhysicalDeviceSurfaceCapabilities(handle, p.handle)
	if err != nil {
		return render.SurfaceCapabilities{}, err
	}

	current := extent(capabilities.CurrentExtent)
	// vkngwrapper reports the 0xFFFFFFFF sentinel as -1.
	if capabilities.CurrentExtent.Width < 0 {
		current = render.Extent2D{Width: render.UndefinedExtent, Height: render.UndefinedExtent}
	}

	return render.SurfaceCapabilities{
		MinImageCount:  capabilities.MinImageCount,
		MaxImageCount:  capabilities.MaxImageCount,
		CurrentExtent:  current,
		MinImageExtent: extent(capabilities.MinImageExtent),
		MaxImageExtent: extent(capabilities.MaxImageExtent),
	}, nil
}

func (p *PhysicalDevice) SurfaceFormats(surface render.Surface) ([]render.SurfaceFormat, error) {
	handle, err := surfaceHandle(surface)
	if err != nil {
		return nil, err
	}

	available, _, err := p.instance.surface.GetPhysicalDeviceSurfaceFormats(handle, p.handle)
	if err != nil {
		return nil, err
	}

	formats := make([]render.SurfaceFormat, 0, len(available))
	for _, format := range available {
		formats = append(formats, render.SurfaceFormat{
			Format:     render.Format(format.Format),
			ColorSpace: render.ColorSpace(format.ColorSpace),
		})
	}
	return formats, nil
}

func (p *PhysicalDevice) PresentModes(surface render.Surface) ([]render.PresentMode, error) {
	handle, err := surfaceHandle(surface)
	if err != nil {
		return nil, err
	}

	available, _, err := p.instance.surface.GetPhysicalDeviceSurfacePresentModes(handle, p.handle)
	if err != nil {
		return nil, err
	}

	modes := make([]render.PresentMode, 0, len(available))
	for _, mode := range available {
		modes = append(modes, render.PresentMode(mode))
	}
	return modes, nil
}

func (p *PhysicalDevice) MemoryTypes() []render.MemoryType {
	properties := p.instance.driver.GetPhysicalDeviceMemoryProperties(p.handle)

	memoryTypes := make([]render.MemoryType, 0, len(properties.MemoryTypes))
	for _, memoryType := range properties.MemoryTypes {
		memoryTypes = append(memoryTypes, render.MemoryType{
			PropertyFlags: render.MemoryPropertyFlags(memoryType.PropertyFlags),
			HeapIndex:     memoryType.HeapIndex,
		})
	}
	return memoryTypes
}

func (p *PhysicalDevice) CreateDevice(options render.DeviceOptions) (render.Device, error) {
	queuePriority := float32(1.0)

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, queueFamily := range options.QueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	driver, _, err := p.instance.driver.CreateDevice(p.handle, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: options.Extensions,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create device on %s", p.Name())
	}

	return &Device{
		physical:  p,
		driver:    driver,
		swapchain: khr_swapchain.CreateExtensionDriverFromCoreDriver(driver),
	}, nil
}

func extent(e core1_0.Extent2D) render.Extent2D {
	return render.Extent2D{Width: e.Width, Height: e.Height}
}

func vkExtent(e render.Extent2D) core1_0.Extent2D {
	return core1_0.Extent2D{Width: e.Width, Height: e.Height}
}

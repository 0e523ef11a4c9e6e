package vkng

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/cgame/renderer/render"
)

// Device is a logical device plus its swapchain extension driver.
type Device struct {
	physical  *PhysicalDevice
	driver    core1_0.CoreDeviceDriver
	swapchain khr_swapchain.ExtensionDriver
}

func (d *Device) Queue(family int) render.Queue {
	return &Queue{device: d, handle: d.driver.GetQueue(family, 0)}
}

func (d *Device) WaitIdle() error {
	_, err := d.driver.DeviceWaitIdle()
	return err
}

func (d *Device) Destroy() {
	d.driver.DestroyDevice(nil)
}

func (d *Device) CreateSwapchain(options render.SwapchainOptions) (render.Swapchain, error) {
	surface, err := surfaceHandle(options.Surface)
	if err != nil {
		return nil, err
	}

	capabilities, _, err := d.physical.instance.surface.GetPhysicalDeviceSurfaceCapabilities(surface, d.physical.handle)
	if err != nil {
		return nil, errors.Wrap(err, "surface capabilities")
	}

	sharingMode := core1_0.SharingModeExclusive
	if options.Concurrent {
		sharingMode = core1_0.SharingModeConcurrent
	}

	swapchain, _, err := d.swapchain.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: surface,

		MinImageCount:    options.MinImageCount,
		ImageFormat:      core1_0.Format(options.Format.Format),
		ImageColorSpace:  khr_surface.ColorSpace(options.Format.ColorSpace),
		ImageExtent:      vkExtent(options.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: options.QueueFamilyIndices,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    khr_surface.PresentMode(options.PresentMode),
		Clipped:        true,
	})
	if err != nil {
		return nil, err
	}

	return &Swapchain{device: d, handle: swapchain}, nil
}

func (d *Device) CreateImageView(image render.Image, format render.Format) (render.ImageView, error) {
	handle, err := unwrap[core1_0.Image](image)
	if err != nil {
		return nil, err
	}

	imageView, _, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    handle,
		ViewType: core1_0.ImageViewType2D,
		Format:   core1_0.Format(format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, err
	}

	return newObject(imageView, func(v core1_0.ImageView) {
		d.driver.DestroyImageView(v, nil)
	}), nil
}

func (d *Device) CreateFramebuffer(renderPass render.RenderPass, view render.ImageView, extent render.Extent2D) (render.Framebuffer, error) {
	framebuffer, _, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass: must[core1_0.RenderPass](renderPass),
		Layers:     1,
		Attachments: []core1_0.ImageView{
			must[core1_0.ImageView](view),
		},
		Width:  extent.Width,
		Height: extent.Height,
	})
	if err != nil {
		return nil, err
	}

	return newObject(framebuffer, func(f core1_0.Framebuffer) {
		d.driver.DestroyFramebuffer(f, nil)
	}), nil
}

func (d *Device) CreateShaderModule(code []uint32) (render.ShaderModule, error) {
	shader, _, err := d.driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, err
	}

	return newObject(shader, func(s core1_0.ShaderModule) {
		d.driver.DestroyShaderModule(s, nil)
	}), nil
}

func (d *Device) CreateBuffer(size int, usage render.BufferUsageFlags) (render.Buffer, error) {
	buffer, _, err := d.driver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       core1_0.BufferUsageFlags(usage),
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, err
	}

	return &Buffer{device: d, handle: buffer}, nil
}

func (d *Device) AllocateMemory(size int, memoryTypeIndex int) (render.DeviceMemory, error) {
	memory, _, err := d.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return nil, err
	}

	return &DeviceMemory{device: d, handle: memory}, nil
}

func (d *Device) BindBufferMemory(buffer render.Buffer, memory render.DeviceMemory) error {
	b, ok := buffer.(*Buffer)
	if !ok {
		return errors.AssertionFailedf("vkng: unexpected buffer type %T", buffer)
	}
	m, ok := memory.(*DeviceMemory)
	if !ok {
		return errors.AssertionFailedf("vkng: unexpected memory type %T", memory)
	}

	_, err := d.driver.BindBufferMemory(b.handle, m.handle, 0)
	return err
}

func (d *Device) CreateDescriptorPool(count int) (render.DescriptorPool, error) {
	pool, _, err := d.driver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: count,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{
				Type:            core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: count,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &DescriptorPool{device: d, handle: pool}, nil
}

func (d *Device) UpdateUniformDescriptor(set render.DescriptorSet, buffer render.Buffer, size int) error {
	descriptorSet, err := unwrap[core1_0.DescriptorSet](set)
	if err != nil {
		return err
	}
	b, ok := buffer.(*Buffer)
	if !ok {
		return errors.AssertionFailedf("vkng: unexpected buffer type %T", buffer)
	}

	return d.driver.UpdateDescriptorSets([]core1_0.WriteDescriptorSet{
		{
			DstSet:          descriptorSet,
			DstBinding:      0,
			DstArrayElement: 0,

			DescriptorType: core1_0.DescriptorTypeUniformBuffer,

			BufferInfo: []core1_0.DescriptorBufferInfo{
				{
					Buffer: b.handle,
					Offset: 0,
					Range:  size,
				},
			},
		},
	}, nil)
}

func (d *Device) CreateCommandPool(queueFamily int) (render.CommandPool, error) {
	pool, _, err := d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: queueFamily,
	})
	if err != nil {
		return nil, err
	}

	return &CommandPool{device: d, handle: pool}, nil
}

func (d *Device) CreateSemaphore() (render.Semaphore, error) {
	semaphore, _, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, err
	}

	return newObject(semaphore, func(s core1_0.Semaphore) {
		d.driver.DestroySemaphore(s, nil)
	}), nil
}

func (d *Device) CreateFence(signaled bool) (render.Fence, error) {
	var flags core1_0.FenceCreateFlags
	if signaled {
		flags = core1_0.FenceCreateSignaled
	}

	fence, _, err := d.driver.CreateFence(nil, core1_0.FenceCreateInfo{
		Flags: flags,
	})
	if err != nil {
		return nil, err
	}

	return newObject(fence, func(f core1_0.Fence) {
		d.driver.DestroyFence(f, nil)
	}), nil
}

func (d *Device) WaitForFence(fence render.Fence) error {
	handle, err := unwrap[core1_0.Fence](fence)
	if err != nil {
		return err
	}

	_, err = d.driver.WaitForFences(true, common.NoTimeout, handle)
	return err
}

func (d *Device) ResetFence(fence render.Fence) error {
	handle, err := unwrap[core1_0.Fence](fence)
	if err != nil {
		return err
	}

	_, err = d.driver.ResetFences(handle)
	return err
}

// Buffer remembers its device so it can report its own requirements.
type Buffer struct {
	device *Device
	handle core1_0.Buffer
}

func (b *Buffer) MemoryRequirements() render.MemoryRequirements {
	requirements := b.device.driver.GetBufferMemoryRequirements(b.handle)
	return render.MemoryRequirements{
		Size:           requirements.Size,
		Alignment:      requirements.Alignment,
		MemoryTypeBits: requirements.MemoryTypeBits,
	}
}

func (b *Buffer) Destroy() {
	b.device.driver.DestroyBuffer(b.handle, nil)
}

type DeviceMemory struct {
	device *Device
	handle core1_0.DeviceMemory
}

// Map returns a byte slice aliasing the mapped range. It is only valid until
// Unmap.
func (m *DeviceMemory) Map(offset, size int) ([]byte, error) {
	ptr, _, err := m.device.driver.MapMemory(m.handle, offset, size, 0)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (m *DeviceMemory) Unmap() {
	m.device.driver.UnmapMemory(m.handle)
}

func (m *DeviceMemory) Free() {
	m.device.driver.FreeMemory(m.handle, nil)
}

type DescriptorPool struct {
	device *Device
	handle core1_0.DescriptorPool
}

func (p *DescriptorPool) AllocateSets(layout render.DescriptorSetLayout, count int) ([]render.DescriptorSet, error) {
	setLayout, err := unwrap[core1_0.DescriptorSetLayout](layout)
	if err != nil {
		return nil, err
	}

	layouts := make([]core1_0.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = setLayout
	}

	handles, _, err := p.device.driver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: p.handle,
		SetLayouts:     layouts,
	})
	if err != nil {
		return nil, err
	}

	sets := make([]render.DescriptorSet, 0, len(handles))
	for _, handle := range handles {
		sets = append(sets, handle)
	}
	return sets, nil
}

// Destroy also frees every set allocated from the pool.
func (p *DescriptorPool) Destroy() {
	p.device.driver.DestroyDescriptorPool(p.handle, nil)
}

type CommandPool struct {
	device *Device
	handle core1_0.CommandPool
}

func (p *CommandPool) AllocateCommandBuffers(count int) ([]render.CommandBuffer, error) {
	handles, _, err := p.device.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.handle,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, err
	}

	buffers := make([]render.CommandBuffer, 0, len(handles))
	for _, handle := range handles {
		buffers = append(buffers, &CommandBuffer{driver: p.device.driver, handle: handle})
	}
	return buffers, nil
}

// Destroy also frees every command buffer allocated from the pool.
func (p *CommandPool) Destroy() {
	p.device.driver.DestroyCommandPool(p.handle, nil)
}

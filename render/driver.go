package render

// The interfaces in this file are the narrow slice of Vulkan the renderer
// uses. The vkng package implements them over vkngwrapper; tests implement
// them in memory.

// Format mirrors VkFormat. Values match the Vulkan registry so adapters can
// convert with a plain type conversion.
type Format int32

const (
	FormatUndefined       Format = 0
	FormatB8G8R8A8UNorm   Format = 44
	FormatB8G8R8A8SRGB    Format = 50
	FormatR32G32SFloat    Format = 103
	FormatR32G32B32SFloat Format = 106
)

// ColorSpace mirrors VkColorSpaceKHR.
type ColorSpace int32

const (
	ColorSpaceSRGBNonlinear ColorSpace = 0
)

// PresentMode mirrors VkPresentModeKHR.
type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "Immediate"
	case PresentModeMailbox:
		return "Mailbox"
	case PresentModeFIFO:
		return "FIFO"
	case PresentModeFIFORelaxed:
		return "FIFORelaxed"
	}
	return "Unknown"
}

// MemoryPropertyFlags mirrors VkMemoryPropertyFlags.
type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal  MemoryPropertyFlags = 0x1
	MemoryPropertyHostVisible  MemoryPropertyFlags = 0x2
	MemoryPropertyHostCoherent MemoryPropertyFlags = 0x4
	MemoryPropertyHostCached   MemoryPropertyFlags = 0x8
)

// BufferUsageFlags mirrors VkBufferUsageFlags.
type BufferUsageFlags uint32

const (
	BufferUsageTransferSrc   BufferUsageFlags = 0x1
	BufferUsageTransferDst   BufferUsageFlags = 0x2
	BufferUsageUniformBuffer BufferUsageFlags = 0x10
	BufferUsageIndexBuffer   BufferUsageFlags = 0x40
	BufferUsageVertexBuffer  BufferUsageFlags = 0x80
)

// UndefinedExtent is the CurrentExtent width a surface reports when the
// swapchain extent is left to the application.
const UndefinedExtent = 0xFFFFFFFF

type Extent2D struct {
	Width  int
	Height int
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type SurfaceCapabilities struct {
	MinImageCount  int
	MaxImageCount  int
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

type QueueFamily struct {
	Graphics bool
	Count    int
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     int
}

type MemoryRequirements struct {
	Size           int
	Alignment      int
	MemoryTypeBits uint32
}

type VertexAttribute struct {
	Location int
	Format   Format
	Offset   int
}

// VertexLayout describes a single interleaved vertex binding.
type VertexLayout struct {
	Stride     int
	Attributes []VertexAttribute
}

// Handles. Each is an opaque driver object; Destroy releases it.

type Surface interface{ Destroy() }
type DebugMessenger interface{ Destroy() }
type Image interface{}
type ImageView interface{ Destroy() }
type Framebuffer interface{ Destroy() }
type RenderPass interface{ Destroy() }
type ShaderModule interface{ Destroy() }
type DescriptorSetLayout interface{ Destroy() }
type PipelineLayout interface{ Destroy() }
type GraphicsPipeline interface{ Destroy() }
type Semaphore interface{ Destroy() }
type Fence interface{ Destroy() }
type DescriptorSet interface{}

type DescriptorPool interface {
	AllocateSets(layout DescriptorSetLayout, count int) ([]DescriptorSet, error)
	Destroy()
}

type Buffer interface {
	MemoryRequirements() MemoryRequirements
	Destroy()
}

type DeviceMemory interface {
	Map(offset, size int) ([]byte, error)
	Unmap()
	Free()
}

type CommandPool interface {
	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
	Destroy()
}

// CommandBuffer records draw commands. Cmd* calls that cannot fail in the
// underlying API return nothing.
type CommandBuffer interface {
	Reset() error
	Begin() error
	End() error
	CmdBeginRenderPass(renderPass RenderPass, framebuffer Framebuffer, area Extent2D, clear [4]float32) error
	CmdBindPipeline(pipeline GraphicsPipeline)
	CmdSetViewport(extent Extent2D)
	CmdSetScissor(extent Extent2D)
	CmdBindVertexBuffer(buffer Buffer)
	CmdBindIndexBuffer(buffer Buffer)
	CmdBindDescriptorSet(layout PipelineLayout, set DescriptorSet)
	CmdDrawIndexed(indexCount int)
	CmdEndRenderPass()
}

type SubmitInfo struct {
	WaitSemaphore   Semaphore
	CommandBuffer   CommandBuffer
	SignalSemaphore Semaphore
}

type Queue interface {
	Submit(info SubmitInfo, fence Fence) error
}

// Swapchain reports a stale surface by returning an error marked ErrOutOfDate.
type Swapchain interface {
	Images() ([]Image, error)
	AcquireNextImage(signal Semaphore) (int, error)
	Present(queue Queue, wait Semaphore, imageIndex int) (suboptimal bool, err error)
	Destroy()
}

type SwapchainOptions struct {
	Surface            Surface
	MinImageCount      int
	Format             SurfaceFormat
	Extent             Extent2D
	PresentMode        PresentMode
	Concurrent         bool
	QueueFamilyIndices []int
}

type RenderPassOptions struct {
	ColorFormat Format
}

type GraphicsPipelineOptions struct {
	VertexShader   ShaderModule
	FragmentShader ShaderModule
	VertexLayout   VertexLayout
	Extent         Extent2D
	Layout         PipelineLayout
	RenderPass     RenderPass
}

type Device interface {
	Queue(family int) Queue
	WaitIdle() error

	CreateSwapchain(options SwapchainOptions) (Swapchain, error)
	CreateImageView(image Image, format Format) (ImageView, error)
	CreateFramebuffer(renderPass RenderPass, view ImageView, extent Extent2D) (Framebuffer, error)
	CreateRenderPass(options RenderPassOptions) (RenderPass, error)
	CreateShaderModule(code []uint32) (ShaderModule, error)
	CreateDescriptorSetLayout() (DescriptorSetLayout, error)
	CreatePipelineLayout(setLayout DescriptorSetLayout) (PipelineLayout, error)
	CreateGraphicsPipeline(options GraphicsPipelineOptions) (GraphicsPipeline, error)

	CreateBuffer(size int, usage BufferUsageFlags) (Buffer, error)
	AllocateMemory(size int, memoryTypeIndex int) (DeviceMemory, error)
	BindBufferMemory(buffer Buffer, memory DeviceMemory) error
	CreateDescriptorPool(count int) (DescriptorPool, error)
	UpdateUniformDescriptor(set DescriptorSet, buffer Buffer, size int) error

	CreateCommandPool(queueFamily int) (CommandPool, error)
	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)
	WaitForFence(fence Fence) error
	ResetFence(fence Fence) error

	Destroy()
}

type DeviceOptions struct {
	QueueFamilies []int
	Extensions    []string
}

type PhysicalDevice interface {
	Name() string
	QueueFamilies() []QueueFamily
	SurfaceSupport(surface Surface, family int) (bool, error)
	Extensions() (map[string]struct{}, error)
	SurfaceCapabilities(surface Surface) (SurfaceCapabilities, error)
	SurfaceFormats(surface Surface) ([]SurfaceFormat, error)
	PresentModes(surface Surface) ([]PresentMode, error)
	MemoryTypes() []MemoryType
	CreateDevice(options DeviceOptions) (Device, error)
}

// DebugMessage is one validation-layer report.
type DebugMessage struct {
	Severity string
	Type     string
	Message  string
	Error    bool
}

type Instance interface {
	PhysicalDevices() ([]PhysicalDevice, error)
	CreateDebugMessenger(callback func(DebugMessage)) (DebugMessenger, error)
	Destroy()
}

type InstanceOptions struct {
	ApplicationName      string
	Extensions           []string
	Layers               []string
	EnumeratePortability bool
	DebugCallback        func(DebugMessage)
}

// Loader is the global entry point: what the Vulkan loader offers before an
// instance exists.
type Loader interface {
	AvailableExtensions() (map[string]struct{}, error)
	AvailableLayers() (map[string]struct{}, error)
	CreateInstance(options InstanceOptions) (Instance, error)
}

// Window is the host window the surface is bound to.
type Window interface {
	RequiredInstanceExtensions() ([]string, error)
	DrawableSize() (width, height int)
	CreateSurface(instance Instance) (Surface, error)
}

// Clock supplies monotonically increasing elapsed seconds.
type Clock interface {
	Elapsed() float64
}

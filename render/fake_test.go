package render

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// fakeDriver is an in-memory Vulkan stand-in. It implements Loader and Window
// directly and hands out fakes for every other interface. Every driver call is
// appended to calls so tests can assert ordering.
type fakeDriver struct {
	calls    []string
	counts   map[string]int
	failures map[string]failure

	live           map[string]int
	doubleDestroys []string
	nextID         int

	windowExtensions []string
	extensions       map[string]struct{}
	layers           map[string]struct{}
	devices          []*fakePhysicalDevice

	drawable     Extent2D
	capabilities SurfaceCapabilities
	formats      []SurfaceFormat
	presentModes []PresentMode
	imageCount   int
	memoryTypes  []MemoryType

	acquireResults []error
	presentResults []presentResult

	files map[string][]byte

	instanceOptions  InstanceOptions
	deviceOptions    DeviceOptions
	swapchainOptions []SwapchainOptions
	debugCallback    func(DebugMessage)
	submits          []SubmitInfo
}

type failure struct {
	after int
	err   error
}

type presentResult struct {
	suboptimal bool
	err        error
}

func newFakeDriver() *fakeDriver {
	d := &fakeDriver{
		counts:           map[string]int{},
		failures:         map[string]failure{},
		live:             map[string]int{},
		windowExtensions: []string{"VK_KHR_surface"},
		extensions: map[string]struct{}{
			"VK_KHR_surface":    {},
			debugUtilsExtension: {},
		},
		layers: map[string]struct{}{
			"VK_LAYER_KHRONOS_validation": {},
		},
		drawable: Extent2D{Width: 800, Height: 600},
		capabilities: SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  3,
			CurrentExtent:  Extent2D{Width: 800, Height: 600},
			MinImageExtent: Extent2D{Width: 1, Height: 1},
			MaxImageExtent: Extent2D{Width: 4096, Height: 4096},
		},
		formats:      []SurfaceFormat{{Format: FormatB8G8R8A8SRGB, ColorSpace: ColorSpaceSRGBNonlinear}},
		presentModes: []PresentMode{PresentModeFIFO, PresentModeMailbox},
		imageCount:   3,
		memoryTypes: []MemoryType{
			{PropertyFlags: MemoryPropertyDeviceLocal},
			{PropertyFlags: MemoryPropertyHostVisible | MemoryPropertyHostCoherent},
		},
		files: map[string][]byte{
			"shaders/vert.spv": {0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0},
			"shaders/frag.spv": {0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0},
		},
	}
	d.devices = []*fakePhysicalDevice{d.newPhysicalDevice("fake gpu", []QueueFamily{{Graphics: true, Count: 1}}, map[int]bool{0: true})}
	return d
}

func (d *fakeDriver) newPhysicalDevice(name string, families []QueueFamily, present map[int]bool) *fakePhysicalDevice {
	return &fakePhysicalDevice{
		d:        d,
		name:     name,
		families: families,
		present:  present,
		extensions: map[string]struct{}{
			SwapchainExtensionName: {},
		},
	}
}

func (d *fakeDriver) config() RenderConfig {
	cfg := DefaultConfig()
	cfg.ReadFile = d.readFile
	return cfg
}

// readFile is called from several goroutines and so does not record.
func (d *fakeDriver) readFile(path string) ([]byte, error) {
	b, ok := d.files[path]
	if !ok {
		return nil, errors.Newf("open %s: no such file", path)
	}
	return b, nil
}

// failOn makes every call to op fail with err.
func (d *fakeDriver) failOn(op string, err error) {
	d.failAfter(op, 0, err)
}

// failAfter lets n calls to op succeed and fails the rest.
func (d *fakeDriver) failAfter(op string, n int, err error) {
	d.failures[op] = failure{after: n, err: err}
}

func (d *fakeDriver) record(op string) error {
	d.calls = append(d.calls, op)
	d.counts[op]++
	if f, ok := d.failures[op]; ok && d.counts[op] > f.after {
		return f.err
	}
	return nil
}

func (d *fakeDriver) count(op string) int {
	return d.counts[op]
}

// indexOf returns the position of the first call equal to op, or -1.
func (d *fakeDriver) indexOf(op string) int {
	for i, call := range d.calls {
		if call == op {
			return i
		}
	}
	return -1
}

// lastIndexOf returns the position of the last call equal to op, or -1.
func (d *fakeDriver) lastIndexOf(op string) int {
	for i := len(d.calls) - 1; i >= 0; i-- {
		if d.calls[i] == op {
			return i
		}
	}
	return -1
}

// callsWithPrefix filters the log, keeping order.
func (d *fakeDriver) callsWithPrefix(prefix string) []string {
	var out []string
	for _, call := range d.calls {
		if strings.HasPrefix(call, prefix) {
			out = append(out, call)
		}
	}
	return out
}

func (d *fakeDriver) liveObjects() int {
	total := 0
	for _, n := range d.live {
		total += n
	}
	return total
}

func (d *fakeDriver) newHandle(kind string) fakeHandle {
	d.nextID++
	d.live[kind]++
	return fakeHandle{d: d, kind: kind, id: d.nextID}
}

type fakeHandle struct {
	d         *fakeDriver
	kind      string
	id        int
	destroyed bool
}

func (h *fakeHandle) Destroy() {
	if h.destroyed {
		h.d.doubleDestroys = append(h.d.doubleDestroys, fmt.Sprintf("%s#%d", h.kind, h.id))
		return
	}
	h.destroyed = true
	h.d.live[h.kind]--
	h.d.calls = append(h.d.calls, "destroy:"+h.kind)
}

// Loader

func (d *fakeDriver) AvailableExtensions() (map[string]struct{}, error) {
	if err := d.record("loader:extensions"); err != nil {
		return nil, err
	}
	return d.extensions, nil
}

func (d *fakeDriver) AvailableLayers() (map[string]struct{}, error) {
	if err := d.record("loader:layers"); err != nil {
		return nil, err
	}
	return d.layers, nil
}

func (d *fakeDriver) CreateInstance(options InstanceOptions) (Instance, error) {
	if err := d.record("create:instance"); err != nil {
		return nil, err
	}
	d.instanceOptions = options
	return &fakeInstance{fakeHandle: d.newHandle("instance")}, nil
}

// Window

func (d *fakeDriver) RequiredInstanceExtensions() ([]string, error) {
	if err := d.record("window:extensions"); err != nil {
		return nil, err
	}
	return d.windowExtensions, nil
}

func (d *fakeDriver) DrawableSize() (int, int) {
	return d.drawable.Width, d.drawable.Height
}

func (d *fakeDriver) CreateSurface(Instance) (Surface, error) {
	if err := d.record("create:surface"); err != nil {
		return nil, err
	}
	h := d.newHandle("surface")
	return &h, nil
}

// resize changes both the drawable size and the surface's current extent.
func (d *fakeDriver) resize(width, height int) {
	d.drawable = Extent2D{Width: width, Height: height}
	d.capabilities.CurrentExtent = d.drawable
}

type fakeInstance struct {
	fakeHandle
}

func (i *fakeInstance) PhysicalDevices() ([]PhysicalDevice, error) {
	if err := i.d.record("instance:physicalDevices"); err != nil {
		return nil, err
	}
	devices := make([]PhysicalDevice, 0, len(i.d.devices))
	for _, device := range i.d.devices {
		devices = append(devices, device)
	}
	return devices, nil
}

func (i *fakeInstance) CreateDebugMessenger(callback func(DebugMessage)) (DebugMessenger, error) {
	if err := i.d.record("create:debugMessenger"); err != nil {
		return nil, err
	}
	i.d.debugCallback = callback
	h := i.d.newHandle("debugMessenger")
	return &h, nil
}

type fakePhysicalDevice struct {
	d          *fakeDriver
	name       string
	families   []QueueFamily
	present    map[int]bool
	extensions map[string]struct{}
	noFormats  bool
}

func (p *fakePhysicalDevice) Name() string                { return p.name }
func (p *fakePhysicalDevice) QueueFamilies() []QueueFamily { return p.families }
func (p *fakePhysicalDevice) MemoryTypes() []MemoryType    { return p.d.memoryTypes }

func (p *fakePhysicalDevice) SurfaceSupport(_ Surface, family int) (bool, error) {
	return p.present[family], nil
}

func (p *fakePhysicalDevice) Extensions() (map[string]struct{}, error) {
	return p.extensions, nil
}

func (p *fakePhysicalDevice) SurfaceCapabilities(Surface) (SurfaceCapabilities, error) {
	if err := p.d.record("surface:capabilities"); err != nil {
		return SurfaceCapabilities{}, err
	}
	return p.d.capabilities, nil
}

func (p *fakePhysicalDevice) SurfaceFormats(Surface) ([]SurfaceFormat, error) {
	if p.noFormats {
		return nil, nil
	}
	return p.d.formats, nil
}

func (p *fakePhysicalDevice) PresentModes(Surface) ([]PresentMode, error) {
	return p.d.presentModes, nil
}

func (p *fakePhysicalDevice) CreateDevice(options DeviceOptions) (Device, error) {
	if err := p.d.record("create:device"); err != nil {
		return nil, err
	}
	p.d.deviceOptions = options
	return &fakeDevice{fakeHandle: p.d.newHandle("device")}, nil
}

type fakeDevice struct {
	fakeHandle
}

func (dev *fakeDevice) Queue(family int) Queue {
	return &fakeQueue{d: dev.d, family: family}
}

func (dev *fakeDevice) WaitIdle() error {
	return dev.d.record("wait:idle")
}

func (dev *fakeDevice) CreateSwapchain(options SwapchainOptions) (Swapchain, error) {
	if err := dev.d.record("create:swapchain"); err != nil {
		return nil, err
	}
	dev.d.swapchainOptions = append(dev.d.swapchainOptions, options)
	return &fakeSwapchain{fakeHandle: dev.d.newHandle("swapchain"), imageCount: dev.d.imageCount}, nil
}

func (dev *fakeDevice) CreateImageView(Image, Format) (ImageView, error) {
	if err := dev.d.record("create:imageView"); err != nil {
		return nil, err
	}
	h := dev.d.newHandle("imageView")
	return &h, nil
}

func (dev *fakeDevice) CreateFramebuffer(RenderPass, ImageView, Extent2D) (Framebuffer, error) {
	if err := dev.d.record("create:framebuffer"); err != nil {
		return nil, err
	}
	h := dev.d.newHandle("framebuffer")
	return &h, nil
}

func (dev *fakeDevice) CreateRenderPass(RenderPassOptions) (RenderPass, error) {
	if err := dev.d.record("create:renderPass"); err != nil {
		return nil, err
	}
	h := dev.d.newHandle("renderPass")
	return &h, nil
}

func (dev *fakeDevice) CreateShaderModule([]uint32) (ShaderModule, error) {
	if err := dev.d.record("create:shaderModule"); err != nil {
		return nil, err
	}
	h := dev.d.newHandle("shaderModule")
	return &h, nil
}

func (dev *fakeDevice) CreateDescriptorSetLayout() (DescriptorSetLayout, error) {
	if err := dev.d.record("create:descriptorSetLayout"); err != nil {
		return nil, err
	}
	h := dev.d.newHandle("descriptorSetLayout")
	return &h, nil
}

func (dev *fakeDevice) CreatePipelineLayout(DescriptorSetLayout) (PipelineLayout, error) {
	if err := dev.d.record("create:pipelineLayout"); err != nil {
		return nil, err
	}
	h := dev.d.newHandle("pipelineLayout")
	return &h, nil
}

func (dev *fakeDevice) CreateGraphicsPipeline(GraphicsPipelineOptions) (GraphicsPipeline, error) {
	if err := dev.d.record("create:pipeline"); err != nil {
		return nil, err
	}
	h := dev.d.newHandle("pipeline")
	return &h, nil
}

func (dev *fakeDevice) CreateBuffer(size int, _ BufferUsageFlags) (Buffer, error) {
	if err := dev.d.record("create:buffer"); err != nil {
		return nil, err
	}
	return &fakeBuffer{fakeHandle: dev.d.newHandle("buffer"), size: size}, nil
}

func (dev *fakeDevice) AllocateMemory(size int, _ int) (DeviceMemory, error) {
	if err := dev.d.record("allocate:memory"); err != nil {
		return nil, err
	}
	return &fakeMemory{fakeHandle: dev.d.newHandle("memory"), data: make([]byte, size)}, nil
}

func (dev *fakeDevice) BindBufferMemory(Buffer, DeviceMemory) error {
	return dev.d.record("bind:bufferMemory")
}

func (dev *fakeDevice) CreateDescriptorPool(int) (DescriptorPool, error) {
	if err := dev.d.record("create:descriptorPool"); err != nil {
		return nil, err
	}
	return &fakeDescriptorPool{fakeHandle: dev.d.newHandle("descriptorPool")}, nil
}

func (dev *fakeDevice) UpdateUniformDescriptor(DescriptorSet, Buffer, int) error {
	return dev.d.record("update:descriptor")
}

func (dev *fakeDevice) CreateCommandPool(int) (CommandPool, error) {
	if err := dev.d.record("create:commandPool"); err != nil {
		return nil, err
	}
	return &fakeCommandPool{fakeHandle: dev.d.newHandle("commandPool")}, nil
}

func (dev *fakeDevice) CreateSemaphore() (Semaphore, error) {
	if err := dev.d.record("create:semaphore"); err != nil {
		return nil, err
	}
	h := dev.d.newHandle("semaphore")
	return &h, nil
}

func (dev *fakeDevice) CreateFence(signaled bool) (Fence, error) {
	if err := dev.d.record("create:fence"); err != nil {
		return nil, err
	}
	return &fakeFence{fakeHandle: dev.d.newHandle("fence"), signaled: signaled}, nil
}

// WaitForFence fails instead of blocking forever on a fence nothing will
// signal.
func (dev *fakeDevice) WaitForFence(fence Fence) error {
	if err := dev.d.record("wait:fence"); err != nil {
		return err
	}
	if !fence.(*fakeFence).signaled {
		return errors.New("deadlock: waiting on an unsignaled fence with no pending work")
	}
	return nil
}

func (dev *fakeDevice) ResetFence(fence Fence) error {
	if err := dev.d.record("reset:fence"); err != nil {
		return err
	}
	fence.(*fakeFence).signaled = false
	return nil
}

type fakeFence struct {
	fakeHandle
	signaled bool
}

type fakeQueue struct {
	d      *fakeDriver
	family int
}

// Submit completes immediately, signaling the fence.
func (q *fakeQueue) Submit(info SubmitInfo, fence Fence) error {
	if err := q.d.record("submit"); err != nil {
		return err
	}
	q.d.submits = append(q.d.submits, info)
	if fence != nil {
		fence.(*fakeFence).signaled = true
	}
	return nil
}

type fakeImage struct {
	index int
}

type fakeSwapchain struct {
	fakeHandle
	imageCount int
	next       int
}

func (s *fakeSwapchain) Images() ([]Image, error) {
	if err := s.d.record("swapchain:images"); err != nil {
		return nil, err
	}
	images := make([]Image, s.imageCount)
	for i := range images {
		images[i] = &fakeImage{index: i}
	}
	return images, nil
}

func (s *fakeSwapchain) AcquireNextImage(Semaphore) (int, error) {
	if err := s.d.record("acquire"); err != nil {
		return 0, err
	}
	if len(s.d.acquireResults) > 0 {
		err := s.d.acquireResults[0]
		s.d.acquireResults = s.d.acquireResults[1:]
		if err != nil {
			return 0, err
		}
	}
	index := s.next
	s.next = (s.next + 1) % s.imageCount
	return index, nil
}

func (s *fakeSwapchain) Present(Queue, Semaphore, int) (bool, error) {
	if err := s.d.record("present"); err != nil {
		return false, err
	}
	if len(s.d.presentResults) > 0 {
		result := s.d.presentResults[0]
		s.d.presentResults = s.d.presentResults[1:]
		return result.suboptimal, result.err
	}
	return false, nil
}

type fakeBuffer struct {
	fakeHandle
	size int
}

func (b *fakeBuffer) MemoryRequirements() MemoryRequirements {
	return MemoryRequirements{Size: b.size, Alignment: 4, MemoryTypeBits: 0b11}
}

type fakeMemory struct {
	fakeHandle
	data   []byte
	mapped bool
}

func (m *fakeMemory) Map(offset, size int) ([]byte, error) {
	if err := m.d.record("map:memory"); err != nil {
		return nil, err
	}
	if m.mapped {
		return nil, errors.New("memory already mapped")
	}
	m.mapped = true
	return m.data[offset : offset+size], nil
}

func (m *fakeMemory) Unmap() {
	m.d.calls = append(m.d.calls, "unmap:memory")
	m.mapped = false
}

func (m *fakeMemory) Free() {
	m.Destroy()
}

type fakeDescriptorPool struct {
	fakeHandle
}

func (p *fakeDescriptorPool) AllocateSets(_ DescriptorSetLayout, count int) ([]DescriptorSet, error) {
	if err := p.d.record("allocate:descriptorSets"); err != nil {
		return nil, err
	}
	sets := make([]DescriptorSet, count)
	for i := range sets {
		sets[i] = i
	}
	return sets, nil
}

type fakeCommandPool struct {
	fakeHandle
}

func (p *fakeCommandPool) AllocateCommandBuffers(count int) ([]CommandBuffer, error) {
	if err := p.d.record("allocate:commandBuffers"); err != nil {
		return nil, err
	}
	buffers := make([]CommandBuffer, count)
	for i := range buffers {
		buffers[i] = &fakeCommandBuffer{d: p.d, index: i}
	}
	return buffers, nil
}

type fakeCommandBuffer struct {
	d     *fakeDriver
	index int
}

func (c *fakeCommandBuffer) Reset() error { return c.d.record("cmd:reset") }
func (c *fakeCommandBuffer) Begin() error { return c.d.record("cmd:begin") }
func (c *fakeCommandBuffer) End() error   { return c.d.record("cmd:end") }

func (c *fakeCommandBuffer) CmdBeginRenderPass(RenderPass, Framebuffer, Extent2D, [4]float32) error {
	return c.d.record("cmd:beginRenderPass")
}

func (c *fakeCommandBuffer) CmdBindPipeline(GraphicsPipeline) { c.d.record("cmd:bindPipeline") }
func (c *fakeCommandBuffer) CmdSetViewport(Extent2D)          { c.d.record("cmd:setViewport") }
func (c *fakeCommandBuffer) CmdSetScissor(Extent2D)           { c.d.record("cmd:setScissor") }
func (c *fakeCommandBuffer) CmdBindVertexBuffer(Buffer)       { c.d.record("cmd:bindVertexBuffer") }
func (c *fakeCommandBuffer) CmdBindIndexBuffer(Buffer)        { c.d.record("cmd:bindIndexBuffer") }
func (c *fakeCommandBuffer) CmdDrawIndexed(int)               { c.d.record("cmd:drawIndexed") }
func (c *fakeCommandBuffer) CmdEndRenderPass()                { c.d.record("cmd:endRenderPass") }

func (c *fakeCommandBuffer) CmdBindDescriptorSet(PipelineLayout, DescriptorSet) {
	c.d.record("cmd:bindDescriptorSet")
}

type fakeClock struct {
	elapsed float64
}

func (c *fakeClock) Elapsed() float64 {
	c.elapsed += 1.0 / 60.0
	return c.elapsed
}

package render

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Status is the outcome of a Draw call that did not fail.
type Status int

const (
	// StatusOK means a frame was submitted and presented.
	StatusOK Status = iota
	// StatusRecreated means the surface chain was rebuilt. The frame was
	// either dropped (stale acquire) or already presented.
	StatusRecreated
	// StatusSkipped means the window has no drawable area; nothing was drawn.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRecreated:
		return "recreated"
	case StatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// FrameStats counts what Draw has done since Init.
type FrameStats struct {
	Drawn       int
	Dropped     int
	Recreations int
}

// RenderState owns every GPU object the renderer creates. It is driven from a
// single goroutine.
type RenderState struct {
	ID uuid.UUID

	cfg    RenderConfig
	logger *slog.Logger
	window Window

	ctx        *GraphicsContext
	renderPass RenderPass
	chain      *SurfaceChain
	pipeline   *Pipeline

	mesh         Mesh
	vertexBuffer *GpuBuffer
	indexBuffer  *GpuBuffer
	uniforms     []*GpuBuffer

	descriptorPool DescriptorPool
	descriptorSets []DescriptorSet
	commandPool    CommandPool
	frames         *FrameRing

	resized bool
	stale   bool
	fatal   error
	closed  bool
	stats   FrameStats

	teardown teardownStack
}

// Init creates the full render state for window. If any step fails, what was
// created is destroyed in reverse order and the error is returned.
func Init(loader Loader, window Window, cfg RenderConfig) (*RenderState, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid render config")
	}

	id := uuid.New()
	logger := cfg.logger().With("session", id.String())
	cfg.Logger = logger

	s := &RenderState{
		ID:     id,
		cfg:    cfg,
		logger: logger,
		window: window,
		mesh:   QuadMesh(),
	}
	s.teardown.logger = logger

	if err := s.init(loader); err != nil {
		s.teardown.unwind()
		s.closed = true
		return nil, err
	}
	return s, nil
}

func (s *RenderState) init(loader Loader) error {
	var err error

	s.ctx, err = CreateContext(loader, s.window, s.cfg)
	if err != nil {
		return err
	}
	s.teardown.push("graphics context", s.ctx.Destroy)

	support, err := QuerySurfaceSupport(s.ctx.PhysicalDevice, s.ctx.Surface)
	if err != nil {
		return chainError(err, "query surface support")
	}

	s.renderPass, err = CreateRenderPass(s.ctx.Device, ChooseSurfaceFormat(support.Formats).Format)
	if err != nil {
		return err
	}
	s.teardown.push("render pass", s.renderPass.Destroy)

	s.chain, err = CreateSurfaceChain(s.ctx, s.window, s.renderPass)
	if err != nil {
		return err
	}
	s.teardown.push("surface chain", s.chain.Destroy)
	s.logger.Info("surface chain created",
		"format", s.chain.Format.Format,
		"presentMode", s.chain.PresentMode.String(),
		"width", s.chain.Extent.Width,
		"height", s.chain.Extent.Height,
		"images", s.chain.Len())

	s.pipeline, err = CreateGraphicsPipeline(s.ctx.Device, s.chain.Extent, s.renderPass, VertexInputLayout(), s.cfg)
	if err != nil {
		return err
	}
	s.teardown.push("pipeline", s.pipeline.Destroy)

	err = s.createGeometryBuffers()
	if err != nil {
		return err
	}

	err = s.createUniformBuffers()
	if err != nil {
		return err
	}

	err = s.createDescriptorSets()
	if err != nil {
		return err
	}

	s.commandPool, err = s.ctx.Device.CreateCommandPool(*s.ctx.QueueFamilies.Graphics)
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}
	s.teardown.push("command pool", s.commandPool.Destroy)

	s.frames, err = NewFrameRing(s.ctx.Device, s.commandPool, s.cfg.FramesInFlight)
	if err != nil {
		return err
	}
	s.teardown.push("frame sync", s.frames.Destroy)

	return nil
}

func (s *RenderState) createGeometryBuffers() error {
	var err error
	hostVisible := MemoryPropertyHostVisible | MemoryPropertyHostCoherent

	s.vertexBuffer, err = CreateBuffer(s.ctx, binary.Size(s.mesh.Vertices), BufferUsageVertexBuffer, hostVisible)
	if err != nil {
		return errors.Wrap(err, "vertex buffer")
	}
	s.teardown.push("vertex buffer", s.vertexBuffer.Destroy)

	err = s.vertexBuffer.Write(s.mesh.Vertices)
	if err != nil {
		return errors.Wrap(err, "vertex buffer")
	}

	s.indexBuffer, err = CreateBuffer(s.ctx, binary.Size(s.mesh.Indices), BufferUsageIndexBuffer, hostVisible)
	if err != nil {
		return errors.Wrap(err, "index buffer")
	}
	s.teardown.push("index buffer", s.indexBuffer.Destroy)

	err = s.indexBuffer.Write(s.mesh.Indices)
	return errors.Wrap(err, "index buffer")
}

func (s *RenderState) createUniformBuffers() error {
	for i := 0; i < s.cfg.FramesInFlight; i++ {
		buffer, err := CreateBuffer(s.ctx, uniformPayloadSize, BufferUsageUniformBuffer, MemoryPropertyHostVisible|MemoryPropertyHostCoherent)
		if err != nil {
			return errors.Wrapf(err, "uniform buffer %d", i)
		}
		s.teardown.push(fmt.Sprintf("uniform buffer %d", i), buffer.Destroy)

		if err := buffer.Map(); err != nil {
			return errors.Wrapf(err, "uniform buffer %d", i)
		}
		s.uniforms = append(s.uniforms, buffer)
	}
	return nil
}

func (s *RenderState) createDescriptorSets() error {
	var err error
	count := s.cfg.FramesInFlight

	s.descriptorPool, err = s.ctx.Device.CreateDescriptorPool(count)
	if err != nil {
		return errors.Wrap(err, "create descriptor pool")
	}
	s.teardown.push("descriptor pool", s.descriptorPool.Destroy)

	s.descriptorSets, err = s.descriptorPool.AllocateSets(s.pipeline.DescriptorSetLayout, count)
	if err != nil {
		return errors.Wrap(err, "allocate descriptor sets")
	}

	for i, set := range s.descriptorSets {
		err = s.ctx.Device.UpdateUniformDescriptor(set, s.uniforms[i].Buffer, uniformPayloadSize)
		if err != nil {
			return errors.Wrapf(err, "update descriptor set %d", i)
		}
	}
	return nil
}

// NotifyResized tells the renderer the window size changed. The chain is
// rebuilt after the next present.
func (s *RenderState) NotifyResized() {
	s.resized = true
}

// RecreateSurfaceChain rebuilds the surface chain immediately instead of
// waiting for Draw to notice the surface went stale.
func (s *RenderState) RecreateSurfaceChain() (Status, error) {
	if s.closed {
		return StatusOK, ErrShutdown
	}
	if s.fatal != nil {
		return StatusOK, s.fatal
	}

	status, err := s.recreate("requested")
	if err != nil {
		s.fatal = err
	}
	return status, err
}

// CurrentFrame is the frame slot the next Draw will use.
func (s *RenderState) CurrentFrame() int {
	return s.frames.Index()
}

// Stats returns the frame counters.
func (s *RenderState) Stats() FrameStats {
	return s.stats
}

// Extent is the size of the current swapchain images.
func (s *RenderState) Extent() Extent2D {
	return s.chain.Extent
}

// Draw renders one frame. A stale surface is rebuilt and reported through the
// returned Status; any other failure is returned as an error and leaves the
// state unusable except for Shutdown.
func (s *RenderState) Draw(clock Clock) (Status, error) {
	if s.closed {
		return StatusOK, ErrShutdown
	}
	if s.fatal != nil {
		return StatusOK, s.fatal
	}

	status, err := s.draw(clock)
	if err != nil {
		s.fatal = err
		s.logger.Error("draw failed", "frame", s.frames.Index(), "error", err)
	}
	return status, err
}

func (s *RenderState) draw(clock Clock) (Status, error) {
	if s.stale {
		return s.recreate("surface unavailable")
	}

	frameIndex := s.frames.Index()
	slot := s.frames.Current()

	err := s.frames.Wait(frameIndex)
	if err != nil {
		return StatusOK, err
	}

	imageIndex, err := s.chain.Swapchain.AcquireNextImage(slot.ImageAvailable)
	if errors.Is(err, ErrOutOfDate) {
		s.stats.Dropped++
		s.logger.Debug("frame dropped", "frame", frameIndex, "reason", "acquire out of date")
		return s.recreate("acquire out of date")
	} else if err != nil {
		return StatusOK, errors.Wrap(err, "acquire next image")
	}

	// Only reset once work is certain to be submitted, so a dropped frame
	// never leaves the fence unsignaled.
	err = s.frames.Reset(frameIndex)
	if err != nil {
		return StatusOK, err
	}

	image := s.chain.Image(imageIndex)
	err = RecordFrame(slot.CommandBuffer, FrameCommands{
		RenderPass:    s.renderPass,
		Framebuffer:   image.Framebuffer,
		Extent:        s.chain.Extent,
		Pipeline:      s.pipeline,
		VertexBuffer:  s.vertexBuffer.Buffer,
		IndexBuffer:   s.indexBuffer.Buffer,
		IndexCount:    len(s.mesh.Indices),
		DescriptorSet: s.descriptorSets[frameIndex],
		ClearColor:    s.cfg.ClearColor,
	})
	if err != nil {
		return StatusOK, errors.Wrapf(err, "record frame %d", frameIndex)
	}

	ubo := ComputeUniforms(clock.Elapsed(), s.chain.Extent)
	err = s.uniforms[frameIndex].WriteMapped(&ubo)
	if err != nil {
		return StatusOK, errors.Wrapf(err, "update uniforms for frame %d", frameIndex)
	}

	err = s.ctx.GraphicsQueue.Submit(SubmitInfo{
		WaitSemaphore:   slot.ImageAvailable,
		CommandBuffer:   slot.CommandBuffer,
		SignalSemaphore: slot.RenderFinished,
	}, slot.InFlight)
	if err != nil {
		return StatusOK, errors.Wrap(err, "submit draw command buffer")
	}

	suboptimal, err := s.chain.Swapchain.Present(s.ctx.PresentQueue, slot.RenderFinished, imageIndex)
	outOfDate := errors.Is(err, ErrOutOfDate)
	if err != nil && !outOfDate {
		return StatusOK, errors.Wrap(err, "present")
	}

	s.frames.Advance()
	s.stats.Drawn++

	switch {
	case outOfDate:
		return s.recreate("present out of date")
	case suboptimal:
		return s.recreate("present suboptimal")
	case s.resized:
		return s.recreate("window resized")
	}
	return StatusOK, nil
}

func (s *RenderState) recreate(reason string) (Status, error) {
	s.resized = false

	err := s.chain.Recreate(s.ctx, s.window, s.renderPass)
	if errors.Is(err, ErrSurfaceUnavailable) {
		if !s.stale {
			s.logger.Debug("surface unavailable, pausing", "reason", reason)
		}
		s.stale = true
		return StatusSkipped, nil
	}
	if err != nil {
		return StatusOK, errors.Wrapf(err, "recreate surface chain (%s)", reason)
	}

	s.stale = false
	s.stats.Recreations++
	s.logger.Info("surface chain recreated",
		"reason", reason,
		"width", s.chain.Extent.Width,
		"height", s.chain.Extent.Height,
		"images", s.chain.Len())
	return StatusRecreated, nil
}

// Shutdown waits for the device to go idle and then destroys everything in
// reverse creation order. Calling it again does nothing.
func (s *RenderState) Shutdown() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.ctx.Device.WaitIdle()
	s.teardown.unwind()
	s.logger.Info("render state destroyed", "frames", s.stats.Drawn, "recreations", s.stats.Recreations)
	return errors.Wrap(err, "wait idle before teardown")
}

package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/cgame/renderer/render"
)

type CommandBuffer struct {
	driver core1_0.CoreDeviceDriver
	handle core1_0.CommandBuffer
}

func (c *CommandBuffer) Reset() error {
	_, err := c.driver.ResetCommandBuffer(c.handle, 0)
	return err
}

func (c *CommandBuffer) Begin() error {
	_, err := c.driver.BeginCommandBuffer(c.handle, core1_0.CommandBufferBeginInfo{})
	return err
}

func (c *CommandBuffer) End() error {
	_, err := c.driver.EndCommandBuffer(c.handle)
	return err
}

func (c *CommandBuffer) CmdBeginRenderPass(renderPass render.RenderPass, framebuffer render.Framebuffer, area render.Extent2D, clear [4]float32) error {
	pass, err := unwrap[core1_0.RenderPass](renderPass)
	if err != nil {
		return err
	}
	fb, err := unwrap[core1_0.Framebuffer](framebuffer)
	if err != nil {
		return err
	}

	return c.driver.CmdBeginRenderPass(c.handle, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  pass,
			Framebuffer: fb,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: vkExtent(area),
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat(clear),
			},
		})
}

func (c *CommandBuffer) CmdBindPipeline(pipeline render.GraphicsPipeline) {
	c.driver.CmdBindPipeline(c.handle, core1_0.PipelineBindPointGraphics, must[core1_0.Pipeline](pipeline))
}

func (c *CommandBuffer) CmdSetViewport(extent render.Extent2D) {
	c.driver.CmdSetViewport(c.handle, core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
}

func (c *CommandBuffer) CmdSetScissor(extent render.Extent2D) {
	c.driver.CmdSetScissor(c.handle, core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: vkExtent(extent),
	})
}

func (c *CommandBuffer) CmdBindVertexBuffer(buffer render.Buffer) {
	c.driver.CmdBindVertexBuffers(c.handle, 0, []core1_0.Buffer{bufferHandle(buffer)}, []int{0})
}

// CmdBindIndexBuffer binds buffer as 16-bit indices.
func (c *CommandBuffer) CmdBindIndexBuffer(buffer render.Buffer) {
	c.driver.CmdBindIndexBuffer(c.handle, bufferHandle(buffer), 0, core1_0.IndexTypeUInt16)
}

func (c *CommandBuffer) CmdBindDescriptorSet(layout render.PipelineLayout, set render.DescriptorSet) {
	c.driver.CmdBindDescriptorSets(c.handle, core1_0.PipelineBindPointGraphics, must[core1_0.PipelineLayout](layout), 0,
		[]core1_0.DescriptorSet{must[core1_0.DescriptorSet](set)}, nil)
}

func (c *CommandBuffer) CmdDrawIndexed(indexCount int) {
	c.driver.CmdDrawIndexed(c.handle, indexCount, 1, 0, 0, 0)
}

func (c *CommandBuffer) CmdEndRenderPass() {
	c.driver.CmdEndRenderPass(c.handle)
}

func bufferHandle(buffer render.Buffer) core1_0.Buffer {
	b, ok := buffer.(*Buffer)
	if !ok {
		panic(errors.AssertionFailedf("vkng: unexpected buffer type %T", buffer))
	}
	return b.handle
}

type Queue struct {
	device *Device
	handle core1_0.Queue
}

// Submit runs one command buffer after wait is signaled at the color output
// stage, then signals signal and fence.
func (q *Queue) Submit(info render.SubmitInfo, fence render.Fence) error {
	wait, err := unwrap[core1_0.Semaphore](info.WaitSemaphore)
	if err != nil {
		return err
	}
	signal, err := unwrap[core1_0.Semaphore](info.SignalSemaphore)
	if err != nil {
		return err
	}
	cmd, ok := info.CommandBuffer.(*CommandBuffer)
	if !ok {
		return errors.AssertionFailedf("vkng: unexpected command buffer type %T", info.CommandBuffer)
	}

	var fenceHandle *core1_0.Fence
	if fence != nil {
		f, err := unwrap[core1_0.Fence](fence)
		if err != nil {
			return err
		}
		fenceHandle = &f
	}

	_, err = q.device.driver.QueueSubmit(q.handle, fenceHandle, core1_0.SubmitInfo{
		WaitSemaphores:   []core1_0.Semaphore{wait},
		WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
		CommandBuffers:   []core1_0.CommandBuffer{cmd.handle},
		SignalSemaphores: []core1_0.Semaphore{signal},
	})
	return err
}

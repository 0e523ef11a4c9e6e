package render

import (
	"github.com/cockroachdb/errors"
)

// FrameCommands is everything recorded for one frame.
type FrameCommands struct {
	RenderPass    RenderPass
	Framebuffer   Framebuffer
	Extent        Extent2D
	Pipeline      *Pipeline
	VertexBuffer  Buffer
	IndexBuffer   Buffer
	IndexCount    int
	DescriptorSet DescriptorSet
	ClearColor    [4]float32
}

// RecordFrame resets cmd and records a single render pass that draws the
// indexed geometry into the framebuffer.
func RecordFrame(cmd CommandBuffer, frame FrameCommands) error {
	if err := cmd.Reset(); err != nil {
		return errors.Wrap(err, "reset command buffer")
	}

	if err := cmd.Begin(); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	err := cmd.CmdBeginRenderPass(frame.RenderPass, frame.Framebuffer, frame.Extent, frame.ClearColor)
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}

	cmd.CmdBindPipeline(frame.Pipeline.Handle)
	cmd.CmdSetViewport(frame.Extent)
	cmd.CmdSetScissor(frame.Extent)
	cmd.CmdBindVertexBuffer(frame.VertexBuffer)
	cmd.CmdBindIndexBuffer(frame.IndexBuffer)
	cmd.CmdBindDescriptorSet(frame.Pipeline.Layout, frame.DescriptorSet)
	cmd.CmdDrawIndexed(frame.IndexCount)
	cmd.CmdEndRenderPass()

	if err := cmd.End(); err != nil {
		return errors.Wrap(err, "end command buffer")
	}
	return nil
}

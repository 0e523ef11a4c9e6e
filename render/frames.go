package render

import (
	"github.com/cockroachdb/errors"
)

// FrameSlot is the command buffer and synchronization used by one frame in
// flight.
type FrameSlot struct {
	CommandBuffer  CommandBuffer
	ImageAvailable Semaphore
	RenderFinished Semaphore
	InFlight       Fence
}

// FrameRing cycles through a fixed number of frame slots so that at most
// len(slots) frames are in flight at once.
type FrameRing struct {
	device  Device
	slots   []FrameSlot
	current int
}

// NewFrameRing allocates n slots. Fences start signaled so the first wait on
// each slot returns immediately.
func NewFrameRing(device Device, pool CommandPool, n int) (*FrameRing, error) {
	ring := &FrameRing{device: device}

	buffers, err := pool.AllocateCommandBuffers(n)
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}

	for i := 0; i < n; i++ {
		slot := FrameSlot{CommandBuffer: buffers[i]}

		slot.ImageAvailable, err = device.CreateSemaphore()
		if err != nil {
			ring.Destroy()
			return nil, errors.Wrapf(err, "frame %d: create image available semaphore", i)
		}

		slot.RenderFinished, err = device.CreateSemaphore()
		if err != nil {
			slot.ImageAvailable.Destroy()
			ring.Destroy()
			return nil, errors.Wrapf(err, "frame %d: create render finished semaphore", i)
		}

		slot.InFlight, err = device.CreateFence(true)
		if err != nil {
			slot.ImageAvailable.Destroy()
			slot.RenderFinished.Destroy()
			ring.Destroy()
			return nil, errors.Wrapf(err, "frame %d: create in flight fence", i)
		}

		ring.slots = append(ring.slots, slot)
	}

	return ring, nil
}

func (r *FrameRing) Len() int {
	return len(r.slots)
}

// Index is the slot the next frame will use.
func (r *FrameRing) Index() int {
	return r.current
}

func (r *FrameRing) Current() *FrameSlot {
	return &r.slots[r.current]
}

func (r *FrameRing) Slot(index int) *FrameSlot {
	return &r.slots[index]
}

func (r *FrameRing) Advance() {
	r.current = (r.current + 1) % len(r.slots)
}

// Wait blocks until the GPU has finished the last submission that used slot
// index.
func (r *FrameRing) Wait(index int) error {
	if err := r.device.WaitForFence(r.slots[index].InFlight); err != nil {
		return errors.Wrapf(err, "wait for frame %d", index)
	}
	return nil
}

// Reset unsignals slot index's fence ahead of a new submission.
func (r *FrameRing) Reset(index int) error {
	if err := r.device.ResetFence(r.slots[index].InFlight); err != nil {
		return errors.Wrapf(err, "reset frame %d", index)
	}
	return nil
}

// WaitForSlot waits for slot index to be idle and resets its fence.
func (r *FrameRing) WaitForSlot(index int) error {
	if err := r.Wait(index); err != nil {
		return err
	}
	return r.Reset(index)
}

// Destroy releases the semaphores and fences. Command buffers go with their
// pool.
func (r *FrameRing) Destroy() {
	for _, slot := range r.slots {
		slot.InFlight.Destroy()
		slot.RenderFinished.Destroy()
		slot.ImageAvailable.Destroy()
	}
	r.slots = nil
}

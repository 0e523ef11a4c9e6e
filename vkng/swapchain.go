package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/cgame/renderer/render"
)

type Swapchain struct {
	device *Device
	handle khr_swapchain.Swapchain
}

func (s *Swapchain) Images() ([]render.Image, error) {
	images, _, err := s.device.swapchain.GetSwapchainImages(s.handle)
	if err != nil {
		return nil, err
	}

	result := make([]render.Image, 0, len(images))
	for _, image := range images {
		result = append(result, image)
	}
	return result, nil
}

func (s *Swapchain) AcquireNextImage(signal render.Semaphore) (int, error) {
	semaphore, err := unwrap[core1_0.Semaphore](signal)
	if err != nil {
		return 0, err
	}

	imageIndex, res, err := s.device.swapchain.AcquireNextImage(s.handle, common.NoTimeout, &semaphore, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return 0, render.Classify(errors.Wrap(outOfDateCause(err), "acquire next image"), render.ErrOutOfDate)
	} else if err != nil {
		return 0, err
	}
	return imageIndex, nil
}

func (s *Swapchain) Present(queue render.Queue, wait render.Semaphore, imageIndex int) (bool, error) {
	q, ok := queue.(*Queue)
	if !ok {
		return false, errors.AssertionFailedf("vkng: unexpected queue type %T", queue)
	}
	semaphore, err := unwrap[core1_0.Semaphore](wait)
	if err != nil {
		return false, err
	}

	res, err := s.device.swapchain.QueuePresent(q.handle, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{semaphore},
		Swapchains:     []khr_swapchain.Swapchain{s.handle},
		ImageIndices:   []int{imageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate {
		return false, render.Classify(errors.Wrap(outOfDateCause(err), "present"), render.ErrOutOfDate)
	} else if err != nil {
		return false, err
	}
	return res == khr_swapchain.VKSuboptimal, nil
}

func (s *Swapchain) Destroy() {
	s.device.swapchain.DestroySwapchain(s.handle, nil)
}

func outOfDateCause(err error) error {
	if err == nil {
		return render.ErrOutOfDate
	}
	return err
}

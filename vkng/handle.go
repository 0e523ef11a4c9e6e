// Package vkng implements the render driver interfaces on top of vkngwrapper.
package vkng

import (
	"github.com/cockroachdb/errors"
)

// object is a Vulkan handle released with a single driver call.
type object[T any] struct {
	handle  T
	destroy func()
}

func (o *object[T]) Destroy() {
	if o.destroy != nil {
		o.destroy()
		o.destroy = nil
	}
}

func newObject[T any](handle T, destroy func(T)) *object[T] {
	return &object[T]{
		handle:  handle,
		destroy: func() { destroy(handle) },
	}
}

// unwrap recovers the vkngwrapper handle from a value this package handed out.
func unwrap[T any](v any) (T, error) {
	switch o := v.(type) {
	case *object[T]:
		return o.handle, nil
	case T:
		return o, nil
	}
	var zero T
	return zero, errors.AssertionFailedf("vkng: unexpected handle type %T", v)
}

// must is unwrap for call sites that cannot return an error.
func must[T any](v any) T {
	h, err := unwrap[T](v)
	if err != nil {
		panic(err)
	}
	return h
}

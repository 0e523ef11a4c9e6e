package render

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformPayload is the per-frame transform block read by the vertex shader.
type UniformPayload struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

const uniformPayloadSize = int(unsafe.Sizeof(UniformPayload{}))

const (
	fieldOfView = math.Pi / 4.0
	nearPlane   = 0.1
	farPlane    = 10.0
)

// ComputeUniforms spins the model around Z by a quarter turn per second and
// looks at it from a fixed eye point.
func ComputeUniforms(elapsed float64, extent Extent2D) UniformPayload {
	ubo := UniformPayload{}
	ubo.Model = mgl32.HomogRotate3DZ(float32(elapsed * math.Pi / 2.0))
	ubo.View = mgl32.LookAtV(
		mgl32.Vec3{2, 2, 2},
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 0, 1},
	)

	aspectRatio := float32(1)
	if extent.Height > 0 {
		aspectRatio = float32(extent.Width) / float32(extent.Height)
	}

	ubo.Proj = mgl32.Perspective(fieldOfView, aspectRatio, nearPlane, farPlane)
	// GL clip space has Y up; Vulkan has it down.
	ubo.Proj[5] *= -1

	return ubo
}

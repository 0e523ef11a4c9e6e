package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestComputeUniformsRotation(t *testing.T) {
	extent := Extent2D{Width: 800, Height: 600}

	ubo := ComputeUniforms(0, extent)
	require.True(t, ubo.Model.ApproxEqual(mgl32.Ident4()))

	// One second is a quarter turn about Z.
	ubo = ComputeUniforms(1, extent)
	rotated := ubo.Model.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	want := mgl32.Vec4{0, 1, 0, 1}
	for i := range want {
		require.InDelta(t, want[i], rotated[i], 1e-5, "component %d of %v", i, rotated)
	}
}

func TestComputeUniformsProjection(t *testing.T) {
	ubo := ComputeUniforms(0, Extent2D{Width: 800, Height: 600})

	expected := mgl32.Perspective(math.Pi/4, 800.0/600.0, 0.1, 10)
	require.InDelta(t, -expected[5], ubo.Proj[5], 1e-6)
	require.InDelta(t, expected[0], ubo.Proj[0], 1e-6)
	require.Less(t, ubo.Proj[5], float32(0))
}

func TestComputeUniformsZeroHeight(t *testing.T) {
	ubo := ComputeUniforms(0, Extent2D{Width: 800, Height: 0})
	for _, v := range ubo.Proj {
		require.False(t, math.IsNaN(float64(v)))
		require.False(t, math.IsInf(float64(v), 0))
	}
}

func TestUniformPayloadSize(t *testing.T) {
	require.Equal(t, 3*16*4, uniformPayloadSize)
}

package render

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindMemoryType(t *testing.T) {
	types := []MemoryType{
		{PropertyFlags: MemoryPropertyDeviceLocal},
		{PropertyFlags: MemoryPropertyHostVisible},
		{PropertyFlags: MemoryPropertyHostVisible | MemoryPropertyHostCoherent},
		{PropertyFlags: MemoryPropertyHostVisible | MemoryPropertyHostCoherent | MemoryPropertyHostCached},
	}
	hostCoherent := MemoryPropertyHostVisible | MemoryPropertyHostCoherent

	cases := []struct {
		name       string
		typeBits   uint32
		properties MemoryPropertyFlags
		expected   int
		found      bool
	}{
		{name: "lowest match", typeBits: 0b1111, properties: hostCoherent, expected: 2, found: true},
		{name: "type bits exclude lower", typeBits: 0b1000, properties: hostCoherent, expected: 3, found: true},
		{name: "no property requirement", typeBits: 0b0110, properties: 0, expected: 1, found: true},
		{name: "device local", typeBits: 0b1111, properties: MemoryPropertyDeviceLocal, expected: 0, found: true},
		{name: "bits exclude all matches", typeBits: 0b0011, properties: hostCoherent},
		{name: "no bits", typeBits: 0, properties: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			index, err := FindMemoryType(types, tc.typeBits, tc.properties)
			if !tc.found {
				require.ErrorIs(t, err, ErrMemoryTypeNotFound)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, index)
		})
	}
}

func newTestContext(t *testing.T, d *fakeDriver) *GraphicsContext {
	t.Helper()
	ctx, err := CreateContext(d, d, d.config())
	require.NoError(t, err)
	t.Cleanup(ctx.Destroy)
	return ctx
}

func TestCreateBufferWrite(t *testing.T) {
	d := newFakeDriver()
	ctx := newTestContext(t, d)

	indices := []uint16{0, 1, 2, 2, 3, 0}
	buffer, err := CreateBuffer(ctx, binary.Size(indices), BufferUsageIndexBuffer, MemoryPropertyHostVisible|MemoryPropertyHostCoherent)
	require.NoError(t, err)
	require.Equal(t, 12, buffer.Size)

	require.NoError(t, buffer.Write(indices))
	require.False(t, buffer.Memory.(*fakeMemory).mapped)

	data := buffer.Memory.(*fakeMemory).data
	for i, index := range indices {
		require.Equal(t, index, binary.NativeEndian.Uint16(data[i*2:]))
	}

	buffer.Destroy()
	require.Zero(t, d.live["buffer"])
	require.Zero(t, d.live["memory"])
}

func TestCreateBufferNoMemoryType(t *testing.T) {
	d := newFakeDriver()
	d.memoryTypes = []MemoryType{{PropertyFlags: MemoryPropertyDeviceLocal}}
	ctx := newTestContext(t, d)

	_, err := CreateBuffer(ctx, 64, BufferUsageVertexBuffer, MemoryPropertyHostVisible)
	require.ErrorIs(t, err, ErrMemoryTypeNotFound)
	require.Zero(t, d.live["buffer"])
	require.Equal(t, 0, d.count("allocate:memory"))
}

func TestCreateBufferBindFailure(t *testing.T) {
	d := newFakeDriver()
	ctx := newTestContext(t, d)
	d.failOn("bind:bufferMemory", errBoom)

	_, err := CreateBuffer(ctx, 64, BufferUsageVertexBuffer, MemoryPropertyHostVisible)
	require.ErrorIs(t, err, errBoom)
	require.Zero(t, d.live["buffer"])
	require.Zero(t, d.live["memory"])
}

func TestBufferWriteOverflow(t *testing.T) {
	d := newFakeDriver()
	ctx := newTestContext(t, d)

	buffer, err := CreateBuffer(ctx, 4, BufferUsageVertexBuffer, MemoryPropertyHostVisible)
	require.NoError(t, err)
	defer buffer.Destroy()

	require.Error(t, buffer.Write([]uint32{1, 2}))
	require.Equal(t, 0, d.count("map:memory"))
}

func TestBufferPersistentMapping(t *testing.T) {
	d := newFakeDriver()
	ctx := newTestContext(t, d)

	buffer, err := CreateBuffer(ctx, 8, BufferUsageUniformBuffer, MemoryPropertyHostVisible|MemoryPropertyHostCoherent)
	require.NoError(t, err)

	require.Nil(t, buffer.Bytes())
	require.Error(t, buffer.WriteMapped(uint32(1)))

	require.NoError(t, buffer.Map())
	require.NoError(t, buffer.Map())
	require.Equal(t, 1, d.count("map:memory"))

	require.NoError(t, buffer.WriteMapped([2]float32{1.5, -2}))
	require.Len(t, buffer.Bytes(), 8)
	require.Error(t, buffer.WriteMapped([3]float32{}))

	buffer.Destroy()
	require.Equal(t, 1, len(d.callsWithPrefix("unmap:memory")))
	require.Nil(t, buffer.Bytes())
	require.Zero(t, d.live["memory"])
}

package render

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// FindMemoryType returns the lowest memory type index whose bit is set in
// typeBits and whose flags include all of properties.
func FindMemoryType(memoryTypes []MemoryType, typeBits uint32, properties MemoryPropertyFlags) (int, error) {
	for i, memoryType := range memoryTypes {
		typeBit := uint32(1) << uint(i)

		if (typeBits&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Wrapf(ErrMemoryTypeNotFound, "type bits %#x, properties %#x", typeBits, uint32(properties))
}

// GpuBuffer is a buffer bound to its own device memory allocation.
type GpuBuffer struct {
	Buffer Buffer
	Memory DeviceMemory
	Size   int

	mapped []byte
}

// CreateBuffer creates a buffer of size bytes and backs it with memory
// satisfying properties.
func CreateBuffer(ctx *GraphicsContext, size int, usage BufferUsageFlags, properties MemoryPropertyFlags) (*GpuBuffer, error) {
	buffer, err := ctx.Device.CreateBuffer(size, usage)
	if err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}

	requirements := buffer.MemoryRequirements()
	memoryTypeIndex, err := FindMemoryType(ctx.PhysicalDevice.MemoryTypes(), requirements.MemoryTypeBits, properties)
	if err != nil {
		buffer.Destroy()
		return nil, err
	}

	memory, err := ctx.Device.AllocateMemory(requirements.Size, memoryTypeIndex)
	if err != nil {
		buffer.Destroy()
		return nil, errors.Wrap(err, "allocate buffer memory")
	}

	if err := ctx.Device.BindBufferMemory(buffer, memory); err != nil {
		buffer.Destroy()
		memory.Free()
		return nil, errors.Wrap(err, "bind buffer memory")
	}

	return &GpuBuffer{Buffer: buffer, Memory: memory, Size: size}, nil
}

// Write maps the buffer, copies data into it in native byte order and unmaps
// it again. data must be a fixed-size value or slice of fixed-size values.
func (b *GpuBuffer) Write(data any) error {
	encoded, err := encode(data)
	if err != nil {
		return err
	}
	if len(encoded) > b.Size {
		return errors.Errorf("write of %d bytes overflows %d byte buffer", len(encoded), b.Size)
	}

	memory, err := b.Memory.Map(0, len(encoded))
	if err != nil {
		return errors.Wrap(err, "map buffer memory")
	}
	defer b.Memory.Unmap()

	copy(memory, encoded)
	return nil
}

// Map keeps the whole buffer mapped until Unmap or Destroy.
func (b *GpuBuffer) Map() error {
	if b.mapped != nil {
		return nil
	}

	memory, err := b.Memory.Map(0, b.Size)
	if err != nil {
		return errors.Wrap(err, "map buffer memory")
	}
	b.mapped = memory
	return nil
}

// Bytes returns the persistent mapping, or nil when the buffer is not mapped.
func (b *GpuBuffer) Bytes() []byte {
	return b.mapped
}

// WriteMapped copies data into the persistent mapping.
func (b *GpuBuffer) WriteMapped(data any) error {
	if b.mapped == nil {
		return errors.New("buffer is not mapped")
	}

	encoded, err := encode(data)
	if err != nil {
		return err
	}
	if len(encoded) > len(b.mapped) {
		return errors.Errorf("write of %d bytes overflows %d byte mapping", len(encoded), len(b.mapped))
	}

	copy(b.mapped, encoded)
	return nil
}

func (b *GpuBuffer) Unmap() {
	if b.mapped != nil {
		b.Memory.Unmap()
		b.mapped = nil
	}
}

func (b *GpuBuffer) Destroy() {
	b.Unmap()
	if b.Buffer != nil {
		b.Buffer.Destroy()
		b.Buffer = nil
	}
	if b.Memory != nil {
		b.Memory.Free()
		b.Memory = nil
	}
}

func encode(data any) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.NativeEndian, data); err != nil {
		return nil, errors.Wrap(err, "encode buffer data")
	}
	return buf.Bytes(), nil
}

package render

import (
	"context"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
)

// SwapchainExtensionName is the device extension every presenting device needs.
const SwapchainExtensionName = "VK_KHR_swapchain"

const DefaultFramesInFlight = 2

// RenderConfig carries everything Init needs that is not a live object. It is
// built once at startup and must not be modified after Init.
type RenderConfig struct {
	ApplicationName string

	EnableValidation bool
	ValidationLayers []string
	DeviceExtensions []string

	FramesInFlight int

	VertexShaderPath   string
	FragmentShaderPath string
	ClearColor         [4]float32

	// ReadFile loads shader binaries. Defaults to ReadBinaryFile.
	ReadFile func(path string) ([]byte, error)

	// Logger receives lifecycle and validation output. Nil discards it.
	Logger *slog.Logger
}

func DefaultConfig() RenderConfig {
	return RenderConfig{
		ApplicationName:    "Triangle",
		EnableValidation:   false,
		ValidationLayers:   []string{"VK_LAYER_KHRONOS_validation"},
		DeviceExtensions:   []string{SwapchainExtensionName},
		FramesInFlight:     DefaultFramesInFlight,
		VertexShaderPath:   "shaders/vert.spv",
		FragmentShaderPath: "shaders/frag.spv",
		ClearColor:         [4]float32{0, 0, 0, 1},
		ReadFile:           ReadBinaryFile,
	}
}

func (c RenderConfig) validate() error {
	if c.FramesInFlight < 1 {
		return errors.Errorf("frames in flight must be at least 1, got %d", c.FramesInFlight)
	}
	if c.VertexShaderPath == "" || c.FragmentShaderPath == "" {
		return errors.New("shader paths must be set")
	}
	return nil
}

func (c RenderConfig) readFile() func(string) ([]byte, error) {
	if c.ReadFile != nil {
		return c.ReadFile
	}
	return ReadBinaryFile
}

func (c RenderConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(discardHandler{})
}

// ReadBinaryFile loads an opaque byte buffer from disk.
func ReadBinaryFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return b, nil
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

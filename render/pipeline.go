package render

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// CreateRenderPass builds a single-subpass render pass with one color
// attachment in colorFormat that ends ready for presentation.
func CreateRenderPass(device Device, colorFormat Format) (RenderPass, error) {
	renderPass, err := device.CreateRenderPass(RenderPassOptions{
		ColorFormat: colorFormat,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	return renderPass, nil
}

// ShaderCode converts a SPIR-V binary to the 32-bit words the driver expects.
func ShaderCode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidShaderBinary, "length %d is not a positive multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return byteCode, nil
}

// Pipeline is everything a draw needs bound besides the render pass.
type Pipeline struct {
	DescriptorSetLayout DescriptorSetLayout
	Layout              PipelineLayout
	Handle              GraphicsPipeline
}

func (p *Pipeline) Destroy() {
	if p.Handle != nil {
		p.Handle.Destroy()
		p.Handle = nil
	}
	if p.Layout != nil {
		p.Layout.Destroy()
		p.Layout = nil
	}
	if p.DescriptorSetLayout != nil {
		p.DescriptorSetLayout.Destroy()
		p.DescriptorSetLayout = nil
	}
}

// CreateGraphicsPipeline loads the configured shaders and builds the pipeline
// for renderPass. Viewport and scissor are dynamic; extent only seeds them.
func CreateGraphicsPipeline(device Device, extent Extent2D, renderPass RenderPass, layout VertexLayout, cfg RenderConfig) (*Pipeline, error) {
	vertCode, fragCode, err := loadShaders(cfg)
	if err != nil {
		return nil, err
	}

	vertShader, err := device.CreateShaderModule(vertCode)
	if err != nil {
		return nil, errors.Wrap(err, "create vertex shader module")
	}
	defer vertShader.Destroy()

	fragShader, err := device.CreateShaderModule(fragCode)
	if err != nil {
		return nil, errors.Wrap(err, "create fragment shader module")
	}
	defer fragShader.Destroy()

	pipeline := &Pipeline{}

	pipeline.DescriptorSetLayout, err = device.CreateDescriptorSetLayout()
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor set layout")
	}

	pipeline.Layout, err = device.CreatePipelineLayout(pipeline.DescriptorSetLayout)
	if err != nil {
		pipeline.Destroy()
		return nil, errors.Wrap(err, "create pipeline layout")
	}

	pipeline.Handle, err = device.CreateGraphicsPipeline(GraphicsPipelineOptions{
		VertexShader:   vertShader,
		FragmentShader: fragShader,
		VertexLayout:   layout,
		Extent:         extent,
		Layout:         pipeline.Layout,
		RenderPass:     renderPass,
	})
	if err != nil {
		pipeline.Destroy()
		return nil, errors.Wrap(err, "create graphics pipeline")
	}

	return pipeline, nil
}

func loadShaders(cfg RenderConfig) (vert, frag []uint32, err error) {
	readFile := cfg.readFile()

	var group errgroup.Group
	group.Go(func() error {
		b, err := readFile(cfg.VertexShaderPath)
		if err != nil {
			return errors.Wrap(err, "load vertex shader")
		}
		vert, err = ShaderCode(b)
		return errors.Wrapf(err, "vertex shader %s", cfg.VertexShaderPath)
	})
	group.Go(func() error {
		b, err := readFile(cfg.FragmentShaderPath)
		if err != nil {
			return errors.Wrap(err, "load fragment shader")
		}
		frag, err = ShaderCode(b)
		return errors.Wrapf(err, "fragment shader %s", cfg.FragmentShaderPath)
	})

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return vert, frag, nil
}

package vkng

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/cgame/renderer/render"
)

// CreateRenderPass builds a single-subpass pass with one color attachment that
// is cleared on load and handed to presentation at the end.
func (d *Device) CreateRenderPass(options render.RenderPassOptions) (render.RenderPass, error) {
	renderPass, _, err := d.driver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         core1_0.Format(options.ColorFormat),
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return newObject(renderPass, func(r core1_0.RenderPass) {
		d.driver.DestroyRenderPass(r, nil)
	}), nil
}

// CreateDescriptorSetLayout declares a single uniform buffer at binding 0 for
// the vertex stage.
func (d *Device) CreateDescriptorSetLayout() (render.DescriptorSetLayout, error) {
	layout, _, err := d.driver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,

				StageFlags: core1_0.StageVertex,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return newObject(layout, func(l core1_0.DescriptorSetLayout) {
		d.driver.DestroyDescriptorSetLayout(l, nil)
	}), nil
}

func (d *Device) CreatePipelineLayout(setLayout render.DescriptorSetLayout) (render.PipelineLayout, error) {
	handle, err := unwrap[core1_0.DescriptorSetLayout](setLayout)
	if err != nil {
		return nil, err
	}

	layout, _, err := d.driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{handle},
	})
	if err != nil {
		return nil, err
	}

	return newObject(layout, func(l core1_0.PipelineLayout) {
		d.driver.DestroyPipelineLayout(l, nil)
	}), nil
}

// CreateGraphicsPipeline bakes the fixed-function state. Viewport and scissor
// are dynamic so the pipeline survives a surface chain rebuild; the extent in
// options only seeds the initial values.
func (d *Device) CreateGraphicsPipeline(options render.GraphicsPipelineOptions) (render.GraphicsPipeline, error) {
	vertexAttributes := make([]core1_0.VertexInputAttributeDescription, 0, len(options.VertexLayout.Attributes))
	for _, attribute := range options.VertexLayout.Attributes {
		vertexAttributes = append(vertexAttributes, core1_0.VertexInputAttributeDescription{
			Binding:  0,
			Location: attribute.Location,
			Format:   core1_0.Format(attribute.Format),
			Offset:   attribute.Offset,
		})
	}

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions: []core1_0.VertexInputBindingDescription{
			{
				Binding:   0,
				Stride:    options.VertexLayout.Stride,
				InputRate: core1_0.VertexInputRateVertex,
			},
		},
		VertexAttributeDescriptions: vertexAttributes,
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(options.Extent.Width),
				Height:   float32(options.Extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: vkExtent(options.Extent),
			},
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	dynamic := &core1_0.PipelineDynamicStateCreateInfo{
		DynamicStates: []core1_0.DynamicState{
			core1_0.DynamicStateViewport,
			core1_0.DynamicStateScissor,
		},
	}

	pipelines, _, err := d.driver.CreateGraphicsPipelines(nil, nil, core1_0.GraphicsPipelineCreateInfo{
		Stages: []core1_0.PipelineShaderStageCreateInfo{
			{
				Stage:  core1_0.StageVertex,
				Module: must[core1_0.ShaderModule](options.VertexShader),
				Name:   "main",
			},
			{
				Stage:  core1_0.StageFragment,
				Module: must[core1_0.ShaderModule](options.FragmentShader),
				Name:   "main",
			},
		},
		VertexInputState:   vertexInput,
		InputAssemblyState: inputAssembly,
		ViewportState:      viewport,
		RasterizationState: rasterization,
		MultisampleState:   multisample,
		ColorBlendState:    colorBlend,
		DynamicState:       dynamic,
		Layout:             must[core1_0.PipelineLayout](options.Layout),
		RenderPass:         must[core1_0.RenderPass](options.RenderPass),
		Subpass:            0,
		BasePipelineIndex:  -1,
	})
	if err != nil {
		return nil, err
	}

	return newObject(pipelines[0], func(p core1_0.Pipeline) {
		d.driver.DestroyPipeline(p, nil)
	}), nil
}

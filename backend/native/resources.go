package native

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/convolve"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// paramsSize is the byte size of the Params uniform block: five vec4.
const paramsSize = 5 * 16

// params mirrors the Params block in convolve.wgsl.
type params struct {
	weights [convolve.KernelSize]float32
	weight  float32
	flip    float32
	strip   bool
	dstW    int
	dstH    int
	srcW    int
	srcH    int
}

// encode packs p in std140 order. Kernel rows are padded to vec4.
func (p *params) encode(buf []byte) {
	put := func(i int, v float32) {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i := range buf {
		buf[i] = 0
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			put(row*4+col, p.weights[row*3+col])
		}
	}
	weight := p.weight
	if weight == 0 {
		weight = 1
	}
	put(12, weight)
	put(13, p.flip)
	if p.strip {
		put(14, 1)
	}
	put(16, float32(p.dstW))
	put(17, float32(p.dstH))
	put(18, float32(p.srcW))
	put(19, float32(p.srcH))
}

// pipelineKey selects a cached render pipeline.
type pipelineKey struct {
	format   gputypes.TextureFormat
	topology gputypes.PrimitiveTopology
}

// programResources holds the GPU objects shared by every draw.
type programResources struct {
	device     hal.Device
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	uniformBuf hal.Buffer
	pipelines  map[pipelineKey]hal.RenderPipeline
}

func newProgramResources(device hal.Device, precompile bool) (*programResources, error) {
	r := &programResources{device: device, pipelines: make(map[pipelineKey]hal.RenderPipeline)}

	shader, err := createShaderModule(device, precompile)
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}
	r.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "convolve_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		r.destroy()
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}
	r.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "convolve_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		r.destroy()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	uniformBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "convolve_params",
		Size:  paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		r.destroy()
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	r.uniformBuf = uniformBuf
	return r, nil
}

// pipeline returns the render pipeline for a target format and
// topology, creating it on first use.
func (r *programResources) pipeline(format gputypes.TextureFormat, topology gputypes.PrimitiveTopology) (hal.RenderPipeline, error) {
	key := pipelineKey{format: format, topology: topology}
	if p, ok := r.pipelines[key]; ok {
		return p, nil
	}
	p, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "convolve_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: format, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	r.pipelines[key] = p
	slogger().Debug("native: render pipeline created", "format", format, "topology", topology)
	return p, nil
}

// bindGroup binds the uniform buffer and a texture view.
func (r *programResources) bindGroup(view hal.TextureView) (hal.BindGroup, error) {
	return r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "convolve_bind_group",
		Layout: r.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: r.uniformBuf.NativeHandle(), Offset: 0, Size: paramsSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: view.NativeHandle(),
			}},
		},
	})
}

func (r *programResources) destroy() {
	for k, p := range r.pipelines {
		r.device.DestroyRenderPipeline(p)
		delete(r.pipelines, k)
	}
	if r.uniformBuf != nil {
		r.device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.bindLayout != nil {
		r.device.DestroyBindGroupLayout(r.bindLayout)
		r.bindLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

// topology maps a convolve primitive to a WebGPU topology.
func topology(p convolve.Primitive) (gputypes.PrimitiveTopology, bool) {
	switch p {
	case convolve.Triangles:
		return gputypes.PrimitiveTopologyTriangleList, true
	case convolve.TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, true
	}
	return 0, false
}

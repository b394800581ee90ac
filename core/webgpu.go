// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/devblok/alchemy/gfx"
)

// NewWebGPUDevice acquires an adapter compatible with the surface
// described by surfaceDescriptor and opens a logical device on it.
// Set forceFallbackAdapter to get a software rasterizer on machines
// without usable GPU drivers. The returned device owns the instance,
// surface, adapter and queue; Release frees them all.
func NewWebGPUDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (gfx.Device, error) {
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(surfaceDescriptor)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    surface,
	})
	if err != nil {
		surface.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: instance.RequestAdapter(): %v", gfx.ErrNoAdapter, err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, fmt.Errorf("adapter.RequestDevice(): %w", err)
	}

	info := gfx.AdapterInfo{
		Name:    "default adapter",
		Driver:  "wgpu-native",
		Backend: "WebGPU",
	}
	if forceFallbackAdapter {
		info.Name = "fallback adapter"
	}

	return &webgpuDevice{
		instance: instance,
		surface:  surface,
		adapter:  adapter,
		device:   device,
		queue:    &webgpuQueue{queue: device.GetQueue()},
		info:     info,
	}, nil
}

// webgpuDevice drives a single surface through the wgpu-native
// bindings. One instance exists per window.
type webgpuDevice struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *webgpuQueue
	info     gfx.AdapterInfo
}

func (d *webgpuDevice) Queue() gfx.Queue {
	return d.queue
}

func (d *webgpuDevice) AdapterInfo() gfx.AdapterInfo {
	return d.info
}

func (d *webgpuDevice) CreateSwapchain(cfg gfx.SwapchainConfig) (gfx.Swapchain, error) {
	capabilities := d.surface.GetCapabilities(d.adapter)
	if len(capabilities.AlphaModes) == 0 {
		return nil, fmt.Errorf("surface.GetCapabilities(): no alpha modes")
	}

	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       textureUsage(cfg.Usage),
		Format:      textureFormat(cfg.Format),
		Width:       cfg.Width,
		Height:      cfg.Height,
		PresentMode: presentMode(cfg.PresentMode),
		AlphaMode:   capabilities.AlphaModes[0],
	})

	return &webgpuSwapchain{surface: d.surface}, nil
}

func (d *webgpuDevice) CreateDepthTexture(width, height uint32) (gfx.Texture, error) {
	texture, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        textureFormat(DepthFormat),
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("device.CreateTexture(): %w", err)
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("texture.CreateView(): %w", err)
	}

	return &webgpuTexture{
		texture: texture,
		view:    &webgpuTextureView{view: view},
		width:   width,
		height:  height,
	}, nil
}

func (d *webgpuDevice) CreateUniformBuffer(label string, size uint64) (gfx.Buffer, error) {
	buffer, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label + " Buffer",
		Size:             size,
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("device.CreateBuffer(): %w", err)
	}
	return &webgpuBuffer{buffer: buffer, size: size}, nil
}

func (d *webgpuDevice) CreateUniformBindGroup(label string, binding uint32, buffer gfx.Buffer) (gfx.BindGroupLayout, gfx.BindGroup, error) {
	layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: label + " Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    binding,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeUniform,
			},
		}},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("device.CreateBindGroupLayout(): %w", err)
	}

	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: binding,
			Buffer:  buffer.(*webgpuBuffer).buffer,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}},
	})
	if err != nil {
		layout.Release()
		return nil, nil, fmt.Errorf("device.CreateBindGroup(): %w", err)
	}

	return &webgpuBindGroupLayout{layout: layout}, &webgpuBindGroup{group: group}, nil
}

func (d *webgpuDevice) CreateRenderPipeline(desc gfx.PipelineDescriptor) (gfx.Pipeline, error) {
	vertex, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Vertex.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Vertex.Code,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("device.CreateShaderModule(): %w", err)
	}
	defer vertex.Release()

	fragment, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Fragment.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Fragment.Code,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("device.CreateShaderModule(): %w", err)
	}
	defer fragment.Release()

	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for idx, layout := range desc.BindGroupLayouts {
		layouts[idx] = layout.(*webgpuBindGroupLayout).layout
	}

	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + " Layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("device.CreatePipelineLayout(): %w", err)
	}
	defer pipelineLayout.Release()

	pipeline, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vertex,
			EntryPoint: desc.Vertex.EntryPoint,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fragment,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets: []wgpu.ColorTargetState{{
				Format:    textureFormat(desc.ColorFormat),
				Blend:     &wgpu.BlendStateReplace,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  primitiveTopology(desc.Topology),
			FrontFace: frontFace(desc.FrontFace),
			CullMode:  cullMode(desc.CullMode),
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            textureFormat(desc.DepthFormat),
			DepthWriteEnabled: true,
			DepthCompare:      compareFunction(desc.DepthCompare),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("device.CreateRenderPipeline(): %w", err)
	}

	return &webgpuPipeline{pipeline: pipeline}, nil
}

func (d *webgpuDevice) CreateCommandEncoder() (gfx.CommandEncoder, error) {
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("device.CreateCommandEncoder(): %w", err)
	}
	return &webgpuCommandEncoder{encoder: encoder}, nil
}

func (d *webgpuDevice) Release() {
	d.device.Release()
	d.adapter.Release()
	d.surface.Release()
	d.instance.Release()
}

type webgpuQueue struct {
	queue *wgpu.Queue
}

func (q *webgpuQueue) WriteBuffer(buffer gfx.Buffer, offset uint64, data []byte) {
	q.queue.WriteBuffer(buffer.(*webgpuBuffer).buffer, offset, data)
}

func (q *webgpuQueue) Submit(commands gfx.CommandBuffer) {
	buffer := commands.(*webgpuCommandBuffer)
	q.queue.Submit(buffer.buffer)
	buffer.Release()
}

// webgpuSwapchain presents through the configured surface. The surface
// outlives the swapchain: releasing the swapchain keeps the last
// configuration in place until the next CreateSwapchain replaces it.
type webgpuSwapchain struct {
	surface *wgpu.Surface
}

func (s *webgpuSwapchain) Acquire() (gfx.Frame, error) {
	texture, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gfx.ErrSwapchainOutOfDate, err)
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("%w: %v", gfx.ErrSwapchainOutOfDate, err)
	}

	return &webgpuFrame{
		surface: s.surface,
		texture: texture,
		view:    &webgpuTextureView{view: view},
	}, nil
}

func (s *webgpuSwapchain) Release() {}

type webgpuFrame struct {
	surface *wgpu.Surface
	texture *wgpu.Texture
	view    *webgpuTextureView
}

func (f *webgpuFrame) View() gfx.TextureView {
	return f.view
}

func (f *webgpuFrame) Present() {
	f.surface.Present()
	f.Release()
}

func (f *webgpuFrame) Release() {
	f.view.Release()
	f.texture.Release()
}

type webgpuTexture struct {
	texture *wgpu.Texture
	view    *webgpuTextureView
	width   uint32
	height  uint32
}

func (t *webgpuTexture) View() gfx.TextureView {
	return t.view
}

func (t *webgpuTexture) Size() (uint32, uint32) {
	return t.width, t.height
}

func (t *webgpuTexture) Release() {
	t.view.Release()
	t.texture.Release()
}

type webgpuTextureView struct {
	view *wgpu.TextureView
}

func (v *webgpuTextureView) Release() {
	v.view.Release()
}

type webgpuBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

func (b *webgpuBuffer) Size() uint64 {
	return b.size
}

func (b *webgpuBuffer) Release() {
	b.buffer.Release()
}

type webgpuBindGroupLayout struct {
	layout *wgpu.BindGroupLayout
}

func (l *webgpuBindGroupLayout) Release() {
	l.layout.Release()
}

type webgpuBindGroup struct {
	group *wgpu.BindGroup
}

func (g *webgpuBindGroup) Release() {
	g.group.Release()
}

type webgpuPipeline struct {
	pipeline *wgpu.RenderPipeline
}

func (p *webgpuPipeline) Release() {
	p.pipeline.Release()
}

type webgpuCommandEncoder struct {
	encoder *wgpu.CommandEncoder
}

func (e *webgpuCommandEncoder) BeginRenderPass(desc gfx.RenderPassDescriptor) gfx.RenderPass {
	clear := desc.ClearColor
	pass := e.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    desc.Color.(*webgpuTextureView).view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: clear.R,
				G: clear.G,
				B: clear.B,
				A: clear.A,
			},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            desc.Depth.(*webgpuTextureView).view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: desc.ClearDepth,
		},
	})
	return &webgpuRenderPass{pass: pass}
}

func (e *webgpuCommandEncoder) Finish() (gfx.CommandBuffer, error) {
	buffer, err := e.encoder.Finish(nil)
	e.encoder.Release()
	if err != nil {
		return nil, fmt.Errorf("encoder.Finish(): %w", err)
	}
	return &webgpuCommandBuffer{buffer: buffer}, nil
}

type webgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *webgpuRenderPass) SetPipeline(pipeline gfx.Pipeline) {
	p.pass.SetPipeline(pipeline.(*webgpuPipeline).pipeline)
}

func (p *webgpuRenderPass) SetBindGroup(slot uint32, group gfx.BindGroup) {
	p.pass.SetBindGroup(slot, group.(*webgpuBindGroup).group, nil)
}

func (p *webgpuRenderPass) Draw(vertexCount, instanceCount uint32) {
	p.pass.Draw(vertexCount, instanceCount, 0, 0)
}

func (p *webgpuRenderPass) End() {
	p.pass.End()
	p.pass.Release()
}

type webgpuCommandBuffer struct {
	buffer *wgpu.CommandBuffer
}

func (b *webgpuCommandBuffer) Release() {
	b.buffer.Release()
}

func textureFormat(format gfx.TextureFormat) wgpu.TextureFormat {
	switch format {
	case gfx.TextureFormatBGRA8UnormSrgb:
		return wgpu.TextureFormatBGRA8UnormSrgb
	case gfx.TextureFormatDepth24Plus:
		return wgpu.TextureFormatDepth24Plus
	default:
		return wgpu.TextureFormatUndefined
	}
}

func textureUsage(usage gfx.TextureUsage) wgpu.TextureUsage {
	switch usage {
	case gfx.TextureUsageRenderAttachment:
		return wgpu.TextureUsageRenderAttachment
	default:
		return wgpu.TextureUsageRenderAttachment
	}
}

func presentMode(mode gfx.PresentMode) wgpu.PresentMode {
	switch mode {
	case gfx.PresentModeImmediate:
		return wgpu.PresentModeImmediate
	default:
		return wgpu.PresentModeFifo
	}
}

func primitiveTopology(topology gfx.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch topology {
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func frontFace(face gfx.FrontFace) wgpu.FrontFace {
	switch face {
	case gfx.FrontFaceCW:
		return wgpu.FrontFaceCW
	default:
		return wgpu.FrontFaceCCW
	}
}

func cullMode(mode gfx.CullMode) wgpu.CullMode {
	switch mode {
	case gfx.CullModeFront:
		return wgpu.CullModeFront
	case gfx.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func compareFunction(fn gfx.CompareFunction) wgpu.CompareFunction {
	switch fn {
	case gfx.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual
	case gfx.CompareFunctionAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionLess
	}
}

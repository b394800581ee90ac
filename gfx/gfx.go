// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines rendering related features that rendering
// backends must implement. The interfaces here are deliberately
// narrow: they cover exactly the device, swapchain and command
// recording surface the engine core drives, so that a backend can
// be swapped out (or faked in tests) without touching the core.
package gfx

import (
	"errors"
	"fmt"
)

// Package errors.
var (
	// ErrSwapchainOutOfDate signals that the swapchain no longer matches
	// the surface it presents to, typically after a window resize or a
	// device loss. The caller recovers by reconfiguring the swapchain
	// and retrying the frame.
	ErrSwapchainOutOfDate = errors.New("gfx: swapchain out of date")

	// ErrNoAdapter is returned when no hardware adapter compatible
	// with the presentation surface could be acquired.
	ErrNoAdapter = errors.New("gfx: no compatible adapter available")

	// ErrShaderMismatch is returned when a pipeline is built from
	// shaders of the wrong stage.
	ErrShaderMismatch = errors.New("gfx: shader stage mismatch")
)

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// TextureFormat identifies a pixel format for swapchain images,
// color targets and depth buffers.
type TextureFormat int

// Supported texture formats.
const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatBGRA8UnormSrgb
	TextureFormatDepth24Plus
)

// TextureUsage describes what a texture may be used for.
type TextureUsage int

// Supported texture usages.
const (
	TextureUsageRenderAttachment TextureUsage = iota
)

// PresentMode controls how finished frames reach the display.
type PresentMode int

// Supported present modes.
const (
	// PresentModeFifo waits for the vertical blank, capping the
	// frame rate to the display refresh rate.
	PresentModeFifo PresentMode = iota

	// PresentModeImmediate presents without waiting, may tear.
	PresentModeImmediate
)

// PrimitiveTopology selects how vertices are assembled.
type PrimitiveTopology int

// Supported topologies.
const (
	PrimitiveTopologyTriangleList PrimitiveTopology = iota
)

// FrontFace selects the winding order considered front-facing.
type FrontFace int

// Winding orders.
const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

// CullMode selects which faces are discarded before rasterisation.
type CullMode int

// Cull modes.
const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// CompareFunction is a depth comparison operator.
type CompareFunction int

// Comparison operators.
const (
	CompareFunctionLess CompareFunction = iota
	CompareFunctionLessEqual
	CompareFunctionAlways
)

// Color is a normalised RGBA color used for clears.
type Color struct {
	R, G, B, A float64
}

// SwapchainConfig carries everything needed to (re)build a swapchain
// against a surface. Width and Height are mutated on window resizes,
// the rest stays fixed for the lifetime of the context.
type SwapchainConfig struct {
	Format      TextureFormat
	Usage       TextureUsage
	PresentMode PresentMode
	Width       uint32
	Height      uint32
}

// ShaderSource is a single compiled shader stage handed to pipeline
// creation. EntryPoint names the function the stage starts in.
type ShaderSource struct {
	Label      string
	Code       string
	EntryPoint string
}

// PipelineDescriptor describes a complete fixed-function graphics
// pipeline. Backends must reject descriptors they cannot express.
type PipelineDescriptor struct {
	Label    string
	Vertex   ShaderSource
	Fragment ShaderSource

	// BindGroupLayouts lists the resource layouts referenced by the
	// pipeline layout, in bind slot order.
	BindGroupLayouts []BindGroupLayout

	ColorFormat  TextureFormat
	DepthFormat  TextureFormat
	Topology     PrimitiveTopology
	FrontFace    FrontFace
	CullMode     CullMode
	DepthCompare CompareFunction
}

// RenderPassDescriptor describes a single pass that clears its color
// and depth attachments before any draws are recorded into it.
type RenderPassDescriptor struct {
	Label      string
	Color      TextureView
	Depth      TextureView
	ClearColor Color
	ClearDepth float32
}

// AdapterInfo describes the physical device a backend selected.
type AdapterInfo struct {
	Name    string
	Driver  string
	Backend string
}

func (i AdapterInfo) String() string {
	return fmt.Sprintf("%s (%s)", i.Name, i.Backend)
}

// Device is the logical rendering device. It creates every other GPU
// object and is exclusively owned by whoever constructed it; it must
// not be driven from multiple goroutines without external locking.
type Device interface {
	Releasable

	// Queue returns the command submission queue of the device.
	Queue() Queue

	// AdapterInfo reports the physical adapter behind this device.
	AdapterInfo() AdapterInfo

	// CreateSwapchain builds a swapchain against the device's
	// presentation surface using the given configuration.
	CreateSwapchain(cfg SwapchainConfig) (Swapchain, error)

	// CreateDepthTexture builds a depth attachment of the given size.
	CreateDepthTexture(width, height uint32) (Texture, error)

	// CreateUniformBuffer allocates a GPU buffer suitable as a
	// uniform upload target.
	CreateUniformBuffer(label string, size uint64) (Buffer, error)

	// CreateUniformBindGroup builds a bind group layout with a single
	// uniform entry at the given binding, visible to the vertex
	// stage, and a bind group pointing the entry at buffer.
	CreateUniformBindGroup(label string, binding uint32, buffer Buffer) (BindGroupLayout, BindGroup, error)

	// CreateRenderPipeline compiles the shader stages and builds the
	// graphics pipeline described by desc.
	CreateRenderPipeline(desc PipelineDescriptor) (Pipeline, error)

	// CreateCommandEncoder opens a new command recording session.
	CreateCommandEncoder() (CommandEncoder, error)
}

// Queue is the submission channel of a Device.
type Queue interface {

	// WriteBuffer schedules an upload of data into buffer starting
	// at offset, overwriting previous contents.
	WriteBuffer(buffer Buffer, offset uint64, data []byte)

	// Submit hands one finished command buffer to the device.
	Submit(commands CommandBuffer)
}

// Swapchain is the rotating set of presentable images for a surface.
type Swapchain interface {
	Releasable

	// Acquire returns the next presentable frame. It reports
	// ErrSwapchainOutOfDate when the swapchain is stale or lost and
	// must be rebuilt before the next attempt.
	Acquire() (Frame, error)
}

// Frame is one acquired swapchain image. Exactly one of Present or
// Release must be called; the frame is unusable afterwards.
type Frame interface {
	Releasable

	// View returns the render attachment view of the frame image.
	View() TextureView

	// Present schedules the frame for display and releases it.
	Present()
}

// Texture is a GPU image together with its default view.
type Texture interface {
	Releasable

	// View returns the whole-texture view.
	View() TextureView

	// Size returns the texture dimensions in pixels.
	Size() (width, height uint32)
}

// TextureView is an opaque handle to a texture subresource.
type TextureView interface {
	Releasable
}

// Buffer is a GPU-resident linear allocation.
type Buffer interface {
	Releasable

	// Size returns the buffer capacity in bytes.
	Size() uint64
}

// BindGroupLayout is an opaque handle to a resource interface layout.
type BindGroupLayout interface {
	Releasable
}

// BindGroup is an opaque handle to a bound set of resources.
type BindGroup interface {
	Releasable
}

// Pipeline is an opaque handle to a compiled graphics pipeline.
type Pipeline interface {
	Releasable
}

// CommandEncoder records GPU commands for a single submission.
type CommandEncoder interface {

	// BeginRenderPass starts a clearing render pass against the
	// attachments in desc. Only one pass may be open at a time.
	BeginRenderPass(desc RenderPassDescriptor) RenderPass

	// Finish closes the encoder and returns the recorded commands.
	Finish() (CommandBuffer, error)
}

// RenderPass records draw state and draw calls between a
// BeginRenderPass and End pair.
type RenderPass interface {

	// SetPipeline binds the graphics pipeline for following draws.
	SetPipeline(pipeline Pipeline)

	// SetBindGroup binds a resource group at the given slot.
	SetBindGroup(slot uint32, group BindGroup)

	// Draw issues a non-indexed draw call.
	Draw(vertexCount, instanceCount uint32)

	// End closes the pass. No recording is allowed afterwards.
	End()
}

// CommandBuffer is an opaque handle to recorded, submittable work.
type CommandBuffer interface {
	Releasable
}

// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/devblok/alchemy/gfx"
)

// BasicEffect is the one fixed pipeline of the scaffold: no vertex
// input (the triangle is generated in the vertex stage), triangle-list
// topology, back-face culling, depth test enabled, one color target
// matching the swapchain format, and a single camera uniform bound at
// draw time.
//
// The camera object is shared with whoever created it; its lifetime
// must cover the effect's.
type BasicEffect struct {
	pipeline gfx.Pipeline
	camera   *UniformObject
}

// NewBasicEffect compiles the two shader stages and builds the fixed
// graphics pipeline against the context's current swapchain format and
// depth format. Malformed shaders or unsupported pipeline state are
// startup-configuration failures and come back as errors.
func NewBasicEffect(ctx *GraphicsContext, vertex, fragment *Shader, camera *UniformObject) (*BasicEffect, error) {
	if vertex.Type() != VertexShaderType || fragment.Type() != FragmentShaderType {
		return nil, fmt.Errorf("%w: want vertex+fragment, got %v+%v",
			gfx.ErrShaderMismatch, vertex.Type(), fragment.Type())
	}

	pipeline, err := ctx.Device().CreateRenderPipeline(gfx.PipelineDescriptor{
		Label:            "Render Pipeline",
		Vertex:           vertex.Source(),
		Fragment:         fragment.Source(),
		BindGroupLayouts: []gfx.BindGroupLayout{camera.Layout()},
		ColorFormat:      ctx.Config().Format,
		DepthFormat:      DepthFormat,
		Topology:         gfx.PrimitiveTopologyTriangleList,
		FrontFace:        gfx.FrontFaceCCW,
		CullMode:         gfx.CullModeBack,
		DepthCompare:     gfx.CompareFunctionLess,
	})
	if err != nil {
		return nil, fmt.Errorf("device.CreateRenderPipeline(): %w", err)
	}

	return &BasicEffect{
		pipeline: pipeline,
		camera:   camera,
	}, nil
}

// Record binds the pipeline and the camera bind group, then draws the
// three vertices of the single triangle. This is the entire draw
// contract of the effect.
func (e *BasicEffect) Record(pass gfx.RenderPass) {
	pass.SetPipeline(e.pipeline)
	pass.SetBindGroup(e.camera.Binding(), e.camera.BindGroup())
	pass.Draw(3, 1)
}

// Camera returns the shared camera uniform object.
func (e *BasicEffect) Camera() *UniformObject {
	return e.camera
}

// WriteCamera uploads a camera uniform value into the camera buffer
// at offset zero through the context's queue.
func (e *BasicEffect) WriteCamera(ctx *GraphicsContext, uniforms *CameraUniforms) {
	ctx.WriteUniform(e.camera.Buffer(), uniforms.Bytes())
}

// Release frees the pipeline. The camera object is shared and stays
// with its creator.
func (e *BasicEffect) Release() {
	e.pipeline.Release()
}

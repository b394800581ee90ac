// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core implements the rendering scaffold of the engine: the
// graphics context owning the device, swapchain and depth buffer, the
// single installable render effect, and the WebGPU backend both are
// driven through.
package core

import "github.com/devblok/alchemy/gfx"

// Fixed swapchain parameters. Only the dimensions of the swapchain
// ever change at runtime.
const (
	// RenderFormat is the pixel format of every swapchain image and
	// of the single color target of render pipelines.
	RenderFormat = gfx.TextureFormatBGRA8UnormSrgb

	// DepthFormat is the pixel format of the depth buffer.
	DepthFormat = gfx.TextureFormatDepth24Plus

	swapchainUsage       = gfx.TextureUsageRenderAttachment
	swapchainPresentMode = gfx.PresentModeFifo
)

// BackgroundColor is the clear color of the per-frame render pass.
var BackgroundColor = gfx.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0}

// Effect records draw commands into a render pass prepared by the
// graphics context. An effect owns its pipeline state; the context
// owns the pass lifecycle around it.
type Effect interface {

	// Record issues all pipeline binds, resource binds and draw
	// calls of the effect into an open render pass.
	Record(pass gfx.RenderPass)
}

// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/devblok/alchemy/gfx"
)

// GraphicsContext owns the logical device, its queue, the swapchain
// and the depth buffer, and drives one render pass per frame through
// the installed effect. The depth buffer always matches the swapchain
// dimensions; both are rebuilt together on Resize.
//
// A GraphicsContext is created once at startup and is not safe for
// concurrent use.
type GraphicsContext struct {
	device gfx.Device
	queue  gfx.Queue

	config    gfx.SwapchainConfig
	swapchain gfx.Swapchain
	depth     gfx.Texture

	effect Effect
}

// NewGraphicsContext builds a graphics context for a window surface of
// the given pixel size. The swapchain uses the fixed RenderFormat,
// render-attachment usage and vsync presentation; the depth buffer is
// created at the same dimensions. A device that cannot build either is
// a startup failure, surfaced as an error for the caller to die on.
func NewGraphicsContext(device gfx.Device, width, height uint32) (*GraphicsContext, error) {
	cfg := gfx.SwapchainConfig{
		Format:      RenderFormat,
		Usage:       swapchainUsage,
		PresentMode: swapchainPresentMode,
		Width:       width,
		Height:      height,
	}

	swapchain, err := device.CreateSwapchain(cfg)
	if err != nil {
		return nil, fmt.Errorf("device.CreateSwapchain(): %w", err)
	}

	depth, err := device.CreateDepthTexture(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("device.CreateDepthTexture(): %w", err)
	}

	return &GraphicsContext{
		device:    device,
		queue:     device.Queue(),
		config:    cfg,
		swapchain: swapchain,
		depth:     depth,
	}, nil
}

// Device returns the context's logical device.
func (c *GraphicsContext) Device() gfx.Device {
	return c.device
}

// Queue returns the context's submission queue.
func (c *GraphicsContext) Queue() gfx.Queue {
	return c.queue
}

// Config returns a copy of the current swapchain configuration.
func (c *GraphicsContext) Config() gfx.SwapchainConfig {
	return c.config
}

// InstallEffect places an effect into the single effect slot,
// silently replacing whatever was installed before.
func (c *GraphicsContext) InstallEffect(effect Effect) {
	c.effect = effect
}

// Effect returns the installed effect. Calling it before any
// InstallEffect is a contract violation and panics: rendering was
// started before setup finished.
func (c *GraphicsContext) Effect() Effect {
	if c.effect == nil {
		panic("core: no effect installed, call InstallEffect before rendering")
	}
	return c.effect
}

// Resize rebuilds the swapchain and the depth buffer for a new window
// size. Both are replaced in one step so no caller ever observes a
// swapchain and depth buffer of different dimensions. Must be called
// before the next RenderFrame whenever the window reports a new size.
func (c *GraphicsContext) Resize(width, height uint32) error {
	c.config.Width = width
	c.config.Height = height

	c.swapchain.Release()
	swapchain, err := c.device.CreateSwapchain(c.config)
	if err != nil {
		return fmt.Errorf("device.CreateSwapchain(): %w", err)
	}
	c.swapchain = swapchain

	c.depth.Release()
	depth, err := c.device.CreateDepthTexture(width, height)
	if err != nil {
		return fmt.Errorf("device.CreateDepthTexture(): %w", err)
	}
	c.depth = depth

	return nil
}

// WriteUniform uploads data into a GPU buffer at offset zero,
// overwriting prior contents. There is no partial update and no
// read-back path.
func (c *GraphicsContext) WriteUniform(buffer gfx.Buffer, data []byte) {
	c.queue.WriteBuffer(buffer, 0, data)
}

// RenderFrame acquires the next swapchain image, records one render
// pass that clears color to BackgroundColor and depth to the far
// plane, delegates drawing to the installed effect, and submits the
// recorded commands exactly once.
//
// When acquisition reports gfx.ErrSwapchainOutOfDate the frame is
// abandoned before anything is recorded; the caller must Resize and
// retry. RenderFrame never retries internally.
func (c *GraphicsContext) RenderFrame() error {
	frame, err := c.swapchain.Acquire()
	if err != nil {
		return fmt.Errorf("swapchain.Acquire(): %w", err)
	}

	encoder, err := c.device.CreateCommandEncoder()
	if err != nil {
		frame.Release()
		return fmt.Errorf("device.CreateCommandEncoder(): %w", err)
	}

	pass := encoder.BeginRenderPass(gfx.RenderPassDescriptor{
		Label:      "Render Pass",
		Color:      frame.View(),
		Depth:      c.depth.View(),
		ClearColor: BackgroundColor,
		ClearDepth: 1.0,
	})
	c.Effect().Record(pass)
	pass.End()

	commands, err := encoder.Finish()
	if err != nil {
		frame.Release()
		return fmt.Errorf("encoder.Finish(): %w", err)
	}

	c.queue.Submit(commands)
	frame.Present()

	return nil
}

// Release frees the depth buffer, the swapchain and the device.
func (c *GraphicsContext) Release() {
	c.depth.Release()
	c.swapchain.Release()
	c.device.Release()
}

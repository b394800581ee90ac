// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/devblok/alchemy/core"
	"github.com/devblok/alchemy/gfx"
)

type passthroughEffect struct {
	recorded int
}

func (e *passthroughEffect) Record(pass gfx.RenderPass) {
	e.recorded++
}

func newTestContext(t *testing.T, width, height uint32) (*core.GraphicsContext, *recordingDevice) {
	t.Helper()
	device := newRecordingDevice()
	ctx, err := core.NewGraphicsContext(device, width, height)
	if err != nil {
		t.Fatal(err)
	}
	return ctx, device
}

func TestNewGraphicsContext(t *testing.T) {
	ctx, device := newTestContext(t, 800, 600)

	cfg := ctx.Config()
	if cfg.Width != 800 || cfg.Height != 600 {
		t.Errorf("config dimensions are %dx%d, want 800x600", cfg.Width, cfg.Height)
	}
	if cfg.Format != core.RenderFormat {
		t.Error("swapchain format is not the fixed render format")
	}
	if cfg.PresentMode != gfx.PresentModeFifo {
		t.Error("swapchain is not using vsync presentation")
	}

	if got := device.currentSwapchain().config; got != cfg {
		t.Errorf("swapchain was configured with %+v, want %+v", got, cfg)
	}

	width, height := device.currentDepth().Size()
	if width != cfg.Width || height != cfg.Height {
		t.Errorf("depth buffer is %dx%d, swapchain is %dx%d", width, height, cfg.Width, cfg.Height)
	}
}

func TestInstallEffect(t *testing.T) {
	ctx, _ := newTestContext(t, 800, 600)

	first := &passthroughEffect{}
	ctx.InstallEffect(first)
	if ctx.Effect() != first {
		t.Error("installed effect is not the one returned")
	}

	second := &passthroughEffect{}
	ctx.InstallEffect(second)
	if ctx.Effect() != second {
		t.Error("installing again did not replace the effect")
	}
}

func TestEffectPanicsBeforeInstall(t *testing.T) {
	ctx, _ := newTestContext(t, 800, 600)

	defer func() {
		if recover() == nil {
			t.Error("Effect() did not panic with no effect installed")
		}
	}()
	ctx.Effect()
}

func TestResize(t *testing.T) {
	ctx, device := newTestContext(t, 800, 600)

	effect := &passthroughEffect{}
	ctx.InstallEffect(effect)

	oldSwapchain := device.currentSwapchain()
	oldDepth := device.currentDepth()

	if err := ctx.Resize(1024, 768); err != nil {
		t.Fatal(err)
	}

	if !oldSwapchain.released {
		t.Error("old swapchain was not released")
	}
	if !oldDepth.released {
		t.Error("old depth buffer was not released")
	}

	cfg := ctx.Config()
	if cfg.Width != 1024 || cfg.Height != 768 {
		t.Errorf("config dimensions are %dx%d, want 1024x768", cfg.Width, cfg.Height)
	}
	if got := device.currentSwapchain().config; got != cfg {
		t.Errorf("swapchain was reconfigured with %+v, want %+v", got, cfg)
	}
	width, height := device.currentDepth().Size()
	if width != 1024 || height != 768 {
		t.Errorf("depth buffer is %dx%d, want 1024x768", width, height)
	}
	if cfg.Format != core.RenderFormat || cfg.PresentMode != gfx.PresentModeFifo {
		t.Error("resize changed fixed swapchain parameters")
	}
	if ctx.Effect() != effect {
		t.Error("resize disturbed the installed effect")
	}
}

func TestRenderFrame(t *testing.T) {
	ctx, device := newTestContext(t, 800, 600)

	effect := &passthroughEffect{}
	ctx.InstallEffect(effect)

	if err := ctx.RenderFrame(); err != nil {
		t.Fatal(err)
	}

	if len(device.encoders) != 1 {
		t.Fatalf("%d encoders were opened, want 1", len(device.encoders))
	}
	encoder := device.encoders[0]
	if len(encoder.passes) != 1 {
		t.Fatalf("%d render passes were recorded, want 1", len(encoder.passes))
	}

	pass := encoder.passes[0]
	if pass.descriptor.ClearColor != core.BackgroundColor {
		t.Errorf("clear color is %+v, want %+v", pass.descriptor.ClearColor, core.BackgroundColor)
	}
	if pass.descriptor.ClearDepth != 1.0 {
		t.Errorf("clear depth is %f, want 1.0", pass.descriptor.ClearDepth)
	}
	if pass.descriptor.Depth != device.currentDepth().View() {
		t.Error("pass depth attachment is not the context depth buffer")
	}

	frame := device.currentSwapchain().frames[0]
	if pass.descriptor.Color != frame.View() {
		t.Error("pass color attachment is not the acquired frame")
	}

	if effect.recorded != 1 {
		t.Errorf("effect recorded %d times, want 1", effect.recorded)
	}
	if !pass.ended {
		t.Error("render pass was not ended")
	}
	if !encoder.finished {
		t.Error("encoder was not finished")
	}
	if len(device.queue.submits) != 1 {
		t.Errorf("%d command buffers were submitted, want 1", len(device.queue.submits))
	}
	if !frame.presented {
		t.Error("frame was not presented")
	}
	if frame.released {
		t.Error("presented frame must not also be released")
	}
}

func TestRenderFrameOutOfDate(t *testing.T) {
	ctx, device := newTestContext(t, 800, 600)
	ctx.InstallEffect(&passthroughEffect{})

	device.currentSwapchain().outOfDate = true

	err := ctx.RenderFrame()
	if !errors.Is(err, gfx.ErrSwapchainOutOfDate) {
		t.Fatalf("got %v, want a swapchain out of date error", err)
	}

	if len(device.encoders) != 0 {
		t.Error("an encoder was opened for an abandoned frame")
	}
	if len(device.queue.submits) != 0 {
		t.Error("commands were submitted for an abandoned frame")
	}

	// Recovery: rebuild the swapchain, then the next frame goes through.
	if err := ctx.Resize(800, 600); err != nil {
		t.Fatal(err)
	}
	if err := ctx.RenderFrame(); err != nil {
		t.Fatal(err)
	}
	if len(device.queue.submits) != 1 {
		t.Errorf("%d command buffers were submitted after recovery, want 1", len(device.queue.submits))
	}
}

func TestWriteUniform(t *testing.T) {
	ctx, device := newTestContext(t, 800, 600)

	buffer, err := ctx.Device().CreateUniformBuffer("Test", 64)
	if err != nil {
		t.Fatal(err)
	}

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	ctx.WriteUniform(buffer, data)

	if len(device.queue.writes) != 1 {
		t.Fatalf("%d writes were recorded, want 1", len(device.queue.writes))
	}
	write := device.queue.writes[0]
	if write.buffer != buffer {
		t.Error("write targeted the wrong buffer")
	}
	if write.offset != 0 {
		t.Errorf("write offset is %d, want 0", write.offset)
	}
	if !bytes.Equal(write.data, data) {
		t.Error("written bytes do not match up")
	}
}

func TestRelease(t *testing.T) {
	ctx, device := newTestContext(t, 800, 600)
	ctx.Release()

	if !device.currentSwapchain().released {
		t.Error("swapchain was not released")
	}
	if !device.currentDepth().released {
		t.Error("depth buffer was not released")
	}
	if !device.released {
		t.Error("device was not released")
	}
}

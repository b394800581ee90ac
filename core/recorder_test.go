// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"fmt"

	"github.com/devblok/alchemy/gfx"
)

// The recording backend implements the gfx interfaces in memory and
// keeps a trace of everything the engine core asks of it, so tests can
// assert on the exact command stream a frame produces.

type recordingDevice struct {
	queue *recordingQueue

	swapchains []*recordingSwapchain
	depths     []*recordingTexture
	buffers    []*recordingBuffer
	pipelines  []*recordingPipeline
	encoders   []*recordingEncoder

	released bool
}

func newRecordingDevice() *recordingDevice {
	return &recordingDevice{queue: &recordingQueue{}}
}

func (d *recordingDevice) Queue() gfx.Queue {
	return d.queue
}

func (d *recordingDevice) AdapterInfo() gfx.AdapterInfo {
	return gfx.AdapterInfo{Name: "recorder", Backend: "none"}
}

func (d *recordingDevice) CreateSwapchain(cfg gfx.SwapchainConfig) (gfx.Swapchain, error) {
	swapchain := &recordingSwapchain{config: cfg}
	d.swapchains = append(d.swapchains, swapchain)
	return swapchain, nil
}

func (d *recordingDevice) CreateDepthTexture(width, height uint32) (gfx.Texture, error) {
	depth := &recordingTexture{width: width, height: height}
	d.depths = append(d.depths, depth)
	return depth, nil
}

func (d *recordingDevice) CreateUniformBuffer(label string, size uint64) (gfx.Buffer, error) {
	buffer := &recordingBuffer{label: label, size: size}
	d.buffers = append(d.buffers, buffer)
	return buffer, nil
}

func (d *recordingDevice) CreateUniformBindGroup(label string, binding uint32, buffer gfx.Buffer) (gfx.BindGroupLayout, gfx.BindGroup, error) {
	return &recordingBindGroupLayout{label: label},
		&recordingBindGroup{binding: binding, buffer: buffer}, nil
}

func (d *recordingDevice) CreateRenderPipeline(desc gfx.PipelineDescriptor) (gfx.Pipeline, error) {
	pipeline := &recordingPipeline{descriptor: desc}
	d.pipelines = append(d.pipelines, pipeline)
	return pipeline, nil
}

func (d *recordingDevice) CreateCommandEncoder() (gfx.CommandEncoder, error) {
	encoder := &recordingEncoder{}
	d.encoders = append(d.encoders, encoder)
	return encoder, nil
}

func (d *recordingDevice) Release() {
	d.released = true
}

// currentSwapchain returns the most recently created swapchain.
func (d *recordingDevice) currentSwapchain() *recordingSwapchain {
	return d.swapchains[len(d.swapchains)-1]
}

// currentDepth returns the most recently created depth texture.
func (d *recordingDevice) currentDepth() *recordingTexture {
	return d.depths[len(d.depths)-1]
}

type bufferWrite struct {
	buffer gfx.Buffer
	offset uint64
	data   []byte
}

type recordingQueue struct {
	writes  []bufferWrite
	submits []gfx.CommandBuffer
}

func (q *recordingQueue) WriteBuffer(buffer gfx.Buffer, offset uint64, data []byte) {
	copied := make([]byte, len(data))
	copy(copied, data)
	q.writes = append(q.writes, bufferWrite{buffer: buffer, offset: offset, data: copied})
}

func (q *recordingQueue) Submit(commands gfx.CommandBuffer) {
	q.submits = append(q.submits, commands)
}

type recordingSwapchain struct {
	config    gfx.SwapchainConfig
	outOfDate bool
	frames    []*recordingFrame
	released  bool
}

func (s *recordingSwapchain) Acquire() (gfx.Frame, error) {
	if s.outOfDate {
		return nil, fmt.Errorf("%w: surface lost", gfx.ErrSwapchainOutOfDate)
	}
	frame := &recordingFrame{view: &recordingTextureView{}}
	s.frames = append(s.frames, frame)
	return frame, nil
}

func (s *recordingSwapchain) Release() {
	s.released = true
}

type recordingFrame struct {
	view      *recordingTextureView
	presented bool
	released  bool
}

func (f *recordingFrame) View() gfx.TextureView {
	return f.view
}

func (f *recordingFrame) Present() {
	f.presented = true
}

func (f *recordingFrame) Release() {
	f.released = true
}

type recordingTexture struct {
	width    uint32
	height   uint32
	view     recordingTextureView
	released bool
}

func (t *recordingTexture) View() gfx.TextureView {
	return &t.view
}

func (t *recordingTexture) Size() (uint32, uint32) {
	return t.width, t.height
}

func (t *recordingTexture) Release() {
	t.released = true
}

type recordingTextureView struct {
	released bool
}

func (v *recordingTextureView) Release() {
	v.released = true
}

type recordingBuffer struct {
	label    string
	size     uint64
	released bool
}

func (b *recordingBuffer) Size() uint64 {
	return b.size
}

func (b *recordingBuffer) Release() {
	b.released = true
}

type recordingBindGroupLayout struct {
	label    string
	released bool
}

func (l *recordingBindGroupLayout) Release() {
	l.released = true
}

type recordingBindGroup struct {
	binding  uint32
	buffer   gfx.Buffer
	released bool
}

func (g *recordingBindGroup) Release() {
	g.released = true
}

type recordingPipeline struct {
	descriptor gfx.PipelineDescriptor
	released   bool
}

func (p *recordingPipeline) Release() {
	p.released = true
}

type recordingEncoder struct {
	passes   []*recordingPass
	finished bool
}

func (e *recordingEncoder) BeginRenderPass(desc gfx.RenderPassDescriptor) gfx.RenderPass {
	pass := &recordingPass{descriptor: desc}
	e.passes = append(e.passes, pass)
	return pass
}

func (e *recordingEncoder) Finish() (gfx.CommandBuffer, error) {
	e.finished = true
	return &recordingCommandBuffer{encoder: e}, nil
}

type drawCall struct {
	vertexCount   uint32
	instanceCount uint32
}

type bindGroupCall struct {
	slot  uint32
	group gfx.BindGroup
}

type recordingPass struct {
	descriptor gfx.RenderPassDescriptor
	pipelines  []gfx.Pipeline
	bindGroups []bindGroupCall
	draws      []drawCall
	ended      bool
}

func (p *recordingPass) SetPipeline(pipeline gfx.Pipeline) {
	p.pipelines = append(p.pipelines, pipeline)
}

func (p *recordingPass) SetBindGroup(slot uint32, group gfx.BindGroup) {
	p.bindGroups = append(p.bindGroups, bindGroupCall{slot: slot, group: group})
}

func (p *recordingPass) Draw(vertexCount, instanceCount uint32) {
	p.draws = append(p.draws, drawCall{vertexCount: vertexCount, instanceCount: instanceCount})
}

func (p *recordingPass) End() {
	p.ended = true
}

type recordingCommandBuffer struct {
	encoder  *recordingEncoder
	released bool
}

func (b *recordingCommandBuffer) Release() {
	b.released = true
}

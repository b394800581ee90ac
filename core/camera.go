// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/alchemy/gfx"
)

// CameraBinding is the bind slot the camera uniform occupies in the
// pipeline layout. Fixed contract with the shaders.
const CameraBinding uint32 = 0

// CameraUniforms is the plain-old-data value uploaded into the camera
// buffer. Layout must match the uniform block in the vertex shader.
type CameraUniforms struct {
	ViewProj glm.Mat4
}

// CameraUniformSize is the byte size of one CameraUniforms value.
const CameraUniformSize = int(unsafe.Sizeof(CameraUniforms{}))

// NewCameraUniforms builds a perspective view-projection matrix from
// an eye position looking at center.
func NewCameraUniforms(eye, center, up glm.Vec3, fovy, aspect, near, far float32) CameraUniforms {
	proj := glm.Perspective(fovy, aspect, near, far)
	view := glm.LookAtV(eye, center, up)
	return CameraUniforms{ViewProj: proj.Mul4(view)}
}

// Bytes reslices the uniform value as its raw bytes for queue upload.
// The returned slice aliases the receiver.
func (u *CameraUniforms) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(u)), CameraUniformSize)
}

// UniformObject is a GPU-resident uniform resource: a backing buffer,
// the bind group layout describing it, the bind group binding it, and
// the slot the group is bound at. Ownership is shared between the
// creator and any effect it is handed to; the creator releases it
// after the last effect using it is gone.
type UniformObject struct {
	layout  gfx.BindGroupLayout
	group   gfx.BindGroup
	buffer  gfx.Buffer
	binding uint32
}

// NewUniformObject allocates the backing buffer and builds the layout
// and bind group for a single uniform of the given size.
func NewUniformObject(device gfx.Device, label string, binding uint32, size uint64) (*UniformObject, error) {
	buffer, err := device.CreateUniformBuffer(label, size)
	if err != nil {
		return nil, fmt.Errorf("device.CreateUniformBuffer(): %w", err)
	}

	layout, group, err := device.CreateUniformBindGroup(label, binding, buffer)
	if err != nil {
		buffer.Release()
		return nil, fmt.Errorf("device.CreateUniformBindGroup(): %w", err)
	}

	return &UniformObject{
		layout:  layout,
		group:   group,
		buffer:  buffer,
		binding: binding,
	}, nil
}

// NewCameraObject allocates the uniform object backing CameraUniforms.
func NewCameraObject(device gfx.Device) (*UniformObject, error) {
	return NewUniformObject(device, "Camera", CameraBinding, uint64(CameraUniformSize))
}

// Layout returns the bind group layout of the uniform.
func (o *UniformObject) Layout() gfx.BindGroupLayout {
	return o.layout
}

// BindGroup returns the bind group of the uniform.
func (o *UniformObject) BindGroup() gfx.BindGroup {
	return o.group
}

// Buffer returns the backing buffer of the uniform.
func (o *UniformObject) Buffer() gfx.Buffer {
	return o.buffer
}

// Binding returns the slot the bind group is bound at.
func (o *UniformObject) Binding() uint32 {
	return o.binding
}

// Release frees the bind group, layout and backing buffer.
func (o *UniformObject) Release() {
	o.group.Release()
	o.layout.Release()
	o.buffer.Release()
}

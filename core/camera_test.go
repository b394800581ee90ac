// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/alchemy/core"
)

func TestCameraUniformSize(t *testing.T) {
	// One mat4x4<f32>, as declared by the vertex shader uniform block.
	if core.CameraUniformSize != 64 {
		t.Errorf("uniform size is %d bytes, want 64", core.CameraUniformSize)
	}

	uniforms := core.NewCameraUniforms(
		glm.Vec3{0, 0, 2}, glm.Vec3{0, 0, 0}, glm.Vec3{0, 1, 0},
		glm.DegToRad(45), 800.0/600.0, 0.1, 10)
	if len(uniforms.Bytes()) != core.CameraUniformSize {
		t.Errorf("raw bytes are %d long, want %d", len(uniforms.Bytes()), core.CameraUniformSize)
	}
}

func TestNewCameraUniforms(t *testing.T) {
	narrow := core.NewCameraUniforms(
		glm.Vec3{0, 0, 2}, glm.Vec3{0, 0, 0}, glm.Vec3{0, 1, 0},
		glm.DegToRad(45), 800.0/600.0, 0.1, 10)
	wide := core.NewCameraUniforms(
		glm.Vec3{0, 0, 2}, glm.Vec3{0, 0, 0}, glm.Vec3{0, 1, 0},
		glm.DegToRad(45), 1024.0/768.0, 0.1, 10)
	if narrow.ViewProj != wide.ViewProj {
		// Same 4:3 ratio at both sizes, the matrix must not change.
		t.Error("same aspect ratio produced different view projections")
	}

	ultrawide := core.NewCameraUniforms(
		glm.Vec3{0, 0, 2}, glm.Vec3{0, 0, 0}, glm.Vec3{0, 1, 0},
		glm.DegToRad(45), 21.0/9.0, 0.1, 10)
	if narrow.ViewProj == ultrawide.ViewProj {
		t.Error("different aspect ratios produced the same view projection")
	}
}

func TestNewUniformObject(t *testing.T) {
	device := newRecordingDevice()

	uniform, err := core.NewUniformObject(device, "Test", 3, 128)
	if err != nil {
		t.Fatal(err)
	}
	if uniform.Binding() != 3 {
		t.Errorf("binding is %d, want 3", uniform.Binding())
	}
	if uniform.Buffer().Size() != 128 {
		t.Errorf("buffer size is %d, want 128", uniform.Buffer().Size())
	}
	if uniform.Layout() == nil || uniform.BindGroup() == nil {
		t.Error("layout or bind group was not created")
	}

	uniform.Release()
	if !device.buffers[0].released {
		t.Error("backing buffer was not released")
	}
}

func TestNewCameraObject(t *testing.T) {
	device := newRecordingDevice()

	camera, err := core.NewCameraObject(device)
	if err != nil {
		t.Fatal(err)
	}
	if camera.Binding() != core.CameraBinding {
		t.Errorf("camera binding is %d, want %d", camera.Binding(), core.CameraBinding)
	}
	if camera.Buffer().Size() != uint64(core.CameraUniformSize) {
		t.Errorf("camera buffer size is %d, want %d", camera.Buffer().Size(), core.CameraUniformSize)
	}
}

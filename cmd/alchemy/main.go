// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/go-gl/glfw/v3.3/glfw"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/cogentcore/webgpu/wgpuglfw"

	"github.com/devblok/alchemy/core"
	"github.com/devblok/alchemy/gfx"
	"github.com/devblok/alchemy/pack"
)

func init() {
	runtime.LockOSThread()
}

// Essential globals
var (
	window          *glfw.Window
	graphicsContext *core.GraphicsContext
	basicEffect     *core.BasicEffect

	defaultShaders packr.Box

	pendingWidth  uint32
	pendingHeight uint32
	resizePending bool
)

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
)

var configuration core.Configuration

func newWindow() *glfw.Window {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(
		int(configuration.Renderer.ScreenWidth),
		int(configuration.Renderer.ScreenHeight),
		"Alchemy", nil, nil)
	if err != nil {
		panic(err)
	}
	return window
}

// loadShaders resolves shader sources by precedence: a pack archive
// first, a shader directory second, the shaders embedded in the binary
// as the fallback.
func loadShaders() ([]*core.Shader, error) {
	if packFile := configuration.Renderer.ShaderPack; packFile != "" {
		f, err := os.Open(packFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		archive, err := pack.Open(f)
		if err != nil {
			return nil, err
		}
		return core.LoadShaderPack(archive)
	}
	if dir := configuration.Renderer.ShaderDirectory; dir != "" {
		return core.LoadShaderDirectory(dir)
	}
	return core.LoadShaderBox(defaultShaders)
}

func cameraUniforms(width, height uint32) core.CameraUniforms {
	return core.NewCameraUniforms(
		glm.Vec3{0, 0, 2},
		glm.Vec3{0, 0, 0},
		glm.Vec3{0, 1, 0},
		glm.DegToRad(45),
		float32(width)/float32(height),
		0.1, 10,
	)
}

// applyResize rebuilds the swapchain and depth buffer for the latest
// reported framebuffer size and refreshes the camera aspect ratio.
func applyResize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	if err := graphicsContext.Resize(width, height); err != nil {
		log.Fatal("Resize error: " + err.Error())
	}
	uniforms := cameraUniforms(width, height)
	basicEffect.WriteCamera(graphicsContext, &uniforms)
}

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded")
	}
	configuration = core.ConfigurationFromEnv()
	defaultShaders = packr.NewBox("../../assets")

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	window = newWindow()

	device, err := core.NewWebGPUDevice(
		wgpuglfw.GetSurfaceDescriptor(window),
		configuration.Renderer.ForceFallbackAdapter,
	)
	if err != nil {
		panic(err)
	}
	log.Info("Rendering on " + device.AdapterInfo().String())

	width, height := window.GetFramebufferSize()
	graphicsContext, err = core.NewGraphicsContext(device, uint32(width), uint32(height))
	if err != nil {
		panic(err)
	}
	defer graphicsContext.Release()

	shaders, err := loadShaders()
	if err != nil {
		panic(err)
	}
	vertex, err := core.ShaderOfType(shaders, core.VertexShaderType)
	if err != nil {
		panic(err)
	}
	fragment, err := core.ShaderOfType(shaders, core.FragmentShaderType)
	if err != nil {
		panic(err)
	}

	camera, err := core.NewCameraObject(graphicsContext.Device())
	if err != nil {
		panic(err)
	}
	defer camera.Release()

	basicEffect, err = core.NewBasicEffect(graphicsContext, vertex, fragment, camera)
	if err != nil {
		panic(err)
	}
	defer basicEffect.Release()
	graphicsContext.InstallEffect(basicEffect)

	uniforms := cameraUniforms(uint32(width), uint32(height))
	basicEffect.WriteCamera(graphicsContext, &uniforms)

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		pendingWidth = uint32(width)
		pendingHeight = uint32(height)
		resizePending = true
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	timeService := core.NewTime(configuration.Time)
	defer timeService.Stop()

	/* Event and draw loop. GLFW requires both on the main thread. */
EventLoop:
	for !window.ShouldClose() {
		select {
		case <-timeService.EventTicker().C:
			glfw.PollEvents()
		case <-timeService.FpsTicker().C:
			if resizePending {
				resizePending = false
				applyResize(pendingWidth, pendingHeight)
			}
			if err := graphicsContext.RenderFrame(); err != nil {
				if !errors.Is(err, gfx.ErrSwapchainOutOfDate) {
					log.Println("Draw error: " + err.Error())
					continue EventLoop
				}
				width, height := window.GetFramebufferSize()
				applyResize(uint32(width), uint32(height))
				if err := graphicsContext.RenderFrame(); err != nil {
					log.Println("Draw error: " + err.Error())
				}
			}
		}
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic(err)
		}
	}
}

// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"

	"github.com/gobuffalo/envy"
)

// Configuration defines a global engine configuration setting.
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
}

// TimeConfiguration is used to configure time services.
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out.
	// To unlimit, set to 0.
	FramesPerSecond int

	// EventPollDelay is the interval between window event polls,
	// in milliseconds.
	EventPollDelay int
}

// RendererConfiguration is used to configure the graphics context.
type RendererConfiguration struct {
	ScreenWidth  uint32
	ScreenHeight uint32

	// ShaderDirectory is searched for *.vert.wgsl / *.frag.wgsl
	// sources. Takes precedence over the embedded defaults.
	ShaderDirectory string

	// ShaderPack points at a pack archive to load shaders from.
	// Takes precedence over ShaderDirectory.
	ShaderPack string

	// ForceFallbackAdapter makes the backend pick a software
	// adapter, for machines without usable GPU drivers.
	ForceFallbackAdapter bool
}

// Environment keys understood by ConfigurationFromEnv.
const (
	EnvScreenWidth     = "ALCHEMY_WIDTH"
	EnvScreenHeight    = "ALCHEMY_HEIGHT"
	EnvFramesPerSecond = "ALCHEMY_FPS"
	EnvEventPollDelay  = "ALCHEMY_EVENT_POLL_MS"
	EnvShaderDirectory = "ALCHEMY_SHADER_DIR"
	EnvShaderPack      = "ALCHEMY_SHADER_PACK"
	EnvFallbackAdapter = "ALCHEMY_FALLBACK_ADAPTER"
)

// ConfigurationFromEnv assembles a Configuration from the process
// environment, falling back to defaults for anything unset or
// unparsable.
func ConfigurationFromEnv() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: envInt(EnvFramesPerSecond, 60),
			EventPollDelay:  envInt(EnvEventPollDelay, 50),
		},
		Renderer: RendererConfiguration{
			ScreenWidth:          uint32(envInt(EnvScreenWidth, 800)),
			ScreenHeight:         uint32(envInt(EnvScreenHeight, 600)),
			ShaderDirectory:      envy.Get(EnvShaderDirectory, ""),
			ShaderPack:           envy.Get(EnvShaderPack, ""),
			ForceFallbackAdapter: envBool(EnvFallbackAdapter, false),
		},
	}
}

func envInt(key string, fallback int) int {
	value, err := strconv.Atoi(envy.Get(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(envy.Get(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return value
}

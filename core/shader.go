// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobuffalo/packr"

	"github.com/devblok/alchemy/gfx"
	"github.com/devblok/alchemy/pack"
)

// ShaderType represents the pipeline stage a shader runs in.
type ShaderType int

// Identifies shader objects with their types.
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (t ShaderType) String() string {
	switch t {
	case VertexShaderType:
		return "vertex"
	case FragmentShaderType:
		return "fragment"
	default:
		return "unknown"
	}
}

const (
	shaderSuffix = ".wgsl"

	// shaderEntryPoint is the fixed entry function name every shader
	// stage must export. Contract with the asset pipeline.
	shaderEntryPoint = "main"
)

// Shader is one compiled shader stage ready for pipeline creation.
type Shader struct {
	name       string
	shaderType ShaderType
	code       string
}

// NewShader wraps shader code under a name and stage type.
func NewShader(name string, shaderType ShaderType, code []byte) *Shader {
	return &Shader{
		name:       name,
		shaderType: shaderType,
		code:       string(code),
	}
}

// Name returns the shader's base name.
func (s *Shader) Name() string {
	return s.name
}

// Type returns the stage the shader runs in.
func (s *Shader) Type() ShaderType {
	return s.shaderType
}

// Source returns the stage description handed to pipeline creation.
func (s *Shader) Source() gfx.ShaderSource {
	return gfx.ShaderSource{
		Label:      s.name,
		Code:       s.code,
		EntryPoint: shaderEntryPoint,
	}
}

// shaderNameInfo parses a shader file name into its base name and
// stage type. The naming contract is two dots exactly: the first node
// is the shader name, the second its stage, and the .wgsl extension
// marks it as a shader at all. Anything else is skipped.
func shaderNameInfo(fileName string) (string, ShaderType) {
	if !strings.HasSuffix(fileName, shaderSuffix) {
		return "", UnknownShaderType
	}
	nodes := strings.Split(strings.TrimSuffix(fileName, shaderSuffix), ".")
	if len(nodes) != 2 {
		return "", UnknownShaderType
	}
	switch nodes[1] {
	case "vert":
		return nodes[0], VertexShaderType
	case "frag":
		return nodes[0], FragmentShaderType
	default:
		return "", UnknownShaderType
	}
}

// LoadShaderDirectory walks dir and loads every file matching the
// shader naming contract. Files that do not match are ignored rather
// than rejected, so shader sources can live next to other assets.
func LoadShaderDirectory(dir string) ([]*Shader, error) {
	var shaders []*Shader
	err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() {
			return nil
		}
		name, shaderType := shaderNameInfo(f.Name())
		if shaderType == UnknownShaderType {
			return nil
		}
		code, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		shaders = append(shaders, NewShader(name, shaderType, code))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("shader directory walk: %w", err)
	}
	return shaders, nil
}

// LoadShaderPack loads every shader entry of a pack archive. Entry
// names follow the same contract as file names on disk.
func LoadShaderPack(archive *pack.Archive) ([]*Shader, error) {
	var shaders []*Shader
	for _, entry := range archive.Names() {
		name, shaderType := shaderNameInfo(entry)
		if shaderType == UnknownShaderType {
			continue
		}
		code, err := archive.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("shader pack entry %q: %w", entry, err)
		}
		shaders = append(shaders, NewShader(name, shaderType, code))
	}
	return shaders, nil
}

// LoadShaderBox loads every shader entry of an embedded packr box.
// Used for the default shaders compiled into the binary.
func LoadShaderBox(box packr.Box) ([]*Shader, error) {
	var shaders []*Shader
	for _, entry := range box.List() {
		name, shaderType := shaderNameInfo(entry)
		if shaderType == UnknownShaderType {
			continue
		}
		code, err := box.MustBytes(entry)
		if err != nil {
			return nil, fmt.Errorf("shader box entry %q: %w", entry, err)
		}
		shaders = append(shaders, NewShader(name, shaderType, code))
	}
	return shaders, nil
}

// ShaderOfType returns the first shader of the wanted stage.
func ShaderOfType(shaders []*Shader, shaderType ShaderType) (*Shader, error) {
	for _, s := range shaders {
		if s.Type() == shaderType {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no %v shader present", shaderType)
}

package native

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/convolve.wgsl
var convolveShaderSource string

// ShaderSource returns the WGSL source of the convolution program.
func ShaderSource() string { return convolveShaderSource }

// compileSPIRV compiles WGSL to SPIR-V words with naga.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile shader: SPIR-V size %d is not word aligned", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// createShaderModule builds the convolution module, from SPIR-V when
// precompile is set and from WGSL otherwise.
func createShaderModule(device hal.Device, precompile bool) (hal.ShaderModule, error) {
	src := hal.ShaderSource{WGSL: convolveShaderSource}
	if precompile {
		words, err := compileSPIRV(convolveShaderSource)
		if err != nil {
			return nil, err
		}
		src = hal.ShaderSource{SPIRV: words}
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "convolve_shader",
		Source: src,
	})
}

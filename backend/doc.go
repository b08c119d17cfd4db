// Package backend provides a pluggable registry of convolve devices.
//
// Each backend opens a Device: a convolve.Device bundled with the shader
// program that exposes the kernel, kernel weight and flip uniforms, plus
// display readback.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime:
//
//	import (
//		_ "github.com/gogpu/convolve/backend/native"
//		_ "github.com/gogpu/convolve/backend/software"
//	)
//
// # Backend Selection
//
// Use OpenDefault() to get the best available backend, or Open() to
// request a specific backend by name:
//
//	dev, err := backend.OpenDefault(backend.Config{Width: 640, Height: 480})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
//	p, err := convolve.New(dev, dev.Program(), src, convolve.DefaultCatalog())
//
// # Available Backends
//
// - "native": WebGPU HAL device on Vulkan via gogpu/wgpu
// - "software": CPU reference device (always available)
package backend

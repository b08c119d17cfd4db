// Package convolve applies chains of 3x3 convolution kernels to an image on
// the GPU and presents the result.
//
// # Overview
//
// A Pipeline owns the uploaded source texture and exactly two offscreen
// render targets. Each call to Draw runs the kernels enabled by a Selection
// bitmask in ascending catalog order. Pass n samples the output of pass n-1
// and writes into target n%2, so the chain can be arbitrarily long without
// allocating more memory and no pass ever samples the texture it draws to.
// The final texture is presented to the display framebuffer through the
// identity kernel.
//
// # Quick Start
//
//	dev, err := software.New(software.Config{Width: w, Height: h})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	catalog := convolve.DefaultCatalog()
//	p, err := convolve.New(dev, dev.Program(), convolve.FromImage(img), catalog)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	mask, _ := catalog.Select("gaussianBlur", "unsharpen")
//	p.Draw(mask, 6)
//	out := dev.ReadDisplay()
//
// # Kernels
//
// A Kernel holds nine row-major weights and a normalization weight that
// the shader divides by. The normalization weight is the weight sum when
// positive and 1 otherwise. A Catalog is an ordered list of kernels whose
// order defines Selection bit positions. DefaultCatalog provides normal,
// gaussianBlur, unsharpen and emboss.
//
// # Devices
//
// Device is a GL-style state machine: bind a framebuffer, bind a texture,
// set uniforms, draw, then query an error code. Two implementations ship
// with the module:
//
//   - backend/native drives a WebGPU HAL device (Vulkan, or any host that
//     exposes a hal.Device)
//   - backend/software is a CPU reference that produces identical frames
//     and is used in tests
//
// # Errors
//
// Construction errors are returned from New and leave nothing allocated.
// Per-frame failures never stop a frame: missing kernels, incomplete
// framebuffers and device error codes are sent to a DiagnosticSink and the
// frame continues to the compositor. The default sink logs warnings
// through the package logger, which is silent until SetLogger is called.
//
// # Packed grids
//
// The grid subpackage decodes bit-packed boolean grids produced by an
// external simulation and rasterizes them into source images.
package convolve

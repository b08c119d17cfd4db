package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/convolve"
	"github.com/gogpu/convolve/internal/glstate"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// errSubmit marks failures after the command buffer left the CPU. They
// lose the device.
var errSubmit = errors.New("native: submit failed")

// drawTarget is the color attachment of one pass.
type drawTarget struct {
	tex    *texture // nil for an external surface
	view   hal.TextureView
	format gputypes.TextureFormat
	width  int
	height int
}

// drawTarget resolves fb, or the display when fb is nil. It fails when the
// display is gone.
func (d *Device) drawTarget(fb *glstate.Framebuffer[*texture]) (drawTarget, bool) {
	if fb == nil {
		if d.surface != nil {
			return drawTarget{nil, d.surface, d.surfaceFormat, d.surfaceWidth, d.surfaceHeight}, true
		}
		if d.display == nil {
			return drawTarget{}, false
		}
		return drawTarget{d.display, d.display.view, d.display.format, d.display.width, d.display.height}, true
	}
	c := fb.Color().Payload
	return drawTarget{c, c.view, c.format, c.width, c.height}, true
}

// encodePass records one render pass sampling src into dst and submits it.
func (d *Device) encodePass(dst drawTarget, src *texture, topo gputypes.PrimitiveTopology, p *params) error {
	pipeline, err := d.res.pipeline(dst.format, topo)
	if err != nil {
		return err
	}
	bindGroup, err := src.bindGroup()
	if err != nil {
		return err
	}

	var buf [paramsSize]byte
	p.encode(buf[:])
	d.queue.WriteBuffer(d.res.uniformBuf, 0, buf[:])

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: d.label("pass_encoder"),
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(d.label("pass")); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: d.label("pass"),
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       dst.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(quadVertices(p.strip), 1, 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)
	if err := d.submit(cmdBuf); err != nil {
		return err
	}
	if dst.tex != nil {
		dst.tex.usage = gputypes.TextureUsageRenderAttachment
	}
	return nil
}

// quadVertices is the vertex count of the full-target quad.
func quadVertices(strip bool) uint32 {
	if strip {
		return 4
	}
	return 6
}

// submit submits cmdBuf and waits for it to complete.
func (d *Device) submit(cmdBuf hal.CommandBuffer) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("%w: %w", errSubmit, err)
	}
	ok, err := d.device.Wait(fence, 1, d.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("%w: wait: %w", errSubmit, err)
	}
	if !ok {
		return fmt.Errorf("%w: wait timed out after %v", errSubmit, d.cfg.Timeout)
	}
	return nil
}

// fail queues the error code for a failed pass. Submission failures lose
// the device; anything earlier is an allocation failure.
func (d *Device) fail(err error) {
	if errors.Is(err, errSubmit) {
		slogger().Error("native: pass failed", "error", err)
		d.LoseContext()
		return
	}
	slogger().Warn("native: pass not encoded", "error", err)
	d.Push(convolve.OutOfMemory)
}

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// texture is a HAL texture with its default view. It is the payload of
// texture handles and backs the display. The bind group that samples it
// is created on first use and lives as long as the texture.
type texture struct {
	dev    *Device
	tex    hal.Texture
	view   hal.TextureView
	bind   hal.BindGroup
	format gputypes.TextureFormat
	usage  gputypes.TextureUsage // last usage, for readback barriers
	width  int
	height int
	live   bool
}

func (t *texture) Size() (int, int) { return t.width, t.height }

func (d *Device) newTexture(name string, width, height int, format gputypes.TextureFormat) (*texture, error) {
	size := hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1} //nolint:gosec // validated by callers
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         d.label(name),
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage: gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         d.label(name + "_view"),
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view: %w", err)
	}
	return &texture{
		dev:    d,
		tex:    tex,
		view:   view,
		format: format,
		usage:  gputypes.TextureUsageRenderAttachment,
		width:  width,
		height: height,
		live:   true,
	}, nil
}

// bindGroup returns the bind group sampling t.
func (t *texture) bindGroup() (hal.BindGroup, error) {
	if t.bind != nil {
		return t.bind, nil
	}
	bg, err := t.dev.res.bindGroup(t.view)
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	t.bind = bg
	return bg, nil
}

func (t *texture) destroy() {
	if !t.live {
		return
	}
	t.live = false
	if t.bind != nil {
		t.dev.device.DestroyBindGroup(t.bind)
		t.bind = nil
	}
	t.dev.device.DestroyTextureView(t.view)
	t.dev.device.DestroyTexture(t.tex)
}

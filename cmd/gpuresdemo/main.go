// Command gpuresdemo streams an animated quad through the gpures buffer layer
// for a few frames and logs what the device saw.
//
// The default noop backend runs headless anywhere. Other backends record the
// same uploads and barriers but skip the render pass, since the demo sets no
// pipeline.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"

	// Register backends via init().
	_ "github.com/gogpu/wgpu/hal/noop"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/barrier"
	"github.com/gogpu/gpures/buffer"
	"github.com/gogpu/gpures/geometry"
	"github.com/gogpu/gpures/program"
	"github.com/gogpu/gpures/resource"
	"github.com/gogpu/gpures/stream"
	"github.com/gogpu/gpures/uniform"
)

const quadShader = `
struct Frame {
    world: mat4x4<f32>,
    tint: vec4<f32>,
    time: f32,
};
@group(0) @binding(0) var<uniform> frame: Frame;

@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return frame.world * vec4<f32>(pos, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return frame.tint;
}
`

func main() {
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		backend    = flag.String("backend", "noop", "hal backend: auto, noop, vulkan (overrides the config file)")
		frames     = flag.Int("frames", 4, "number of frames to run")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "gpuresdemo",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}
	gpures.SetLogger(slog.New(logger))

	cfg := gpures.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = gpures.LoadConfig(*configPath); err != nil {
			logger.Fatal("load config", "err", err)
		}
	}
	if *backend != "" {
		cfg.Backend = *backend
	}

	if err := run(cfg, *frames, logger); err != nil {
		logger.Fatal("demo failed", "err", err)
	}
}

func run(cfg gpures.Config, frames int, logger *log.Logger) error {
	ctx, err := gpures.Open(cfg)
	if err != nil {
		return err
	}
	defer ctx.Close()

	q, err := newQuad(ctx.Uploader())
	if err != nil {
		return err
	}
	defer q.close()

	target, err := newTarget(ctx.Allocator(), 256, 256)
	if err != nil {
		return err
	}
	defer target.close()

	flags := program.NewFlags("TANGENTS", "FOG")
	modules := ctx.ModuleCache("quad", func(m program.Mask) string {
		return flags.Prelude(m) + quadShader
	})
	if _, err := modules.Get(flags.Mask("TANGENTS")); err != nil {
		return err
	}

	block := uniform.NewBlock("Frame",
		uniform.Member{Name: "world", Kind: uniform.KindMat4},
		uniform.Member{Name: "tint", Kind: uniform.KindVec4},
		uniform.Member{Name: "time", Kind: uniform.KindFloat},
	)
	ubuf, err := ctx.UniformBuffer(block)
	if err != nil {
		return err
	}
	defer ubuf.Free()
	if err := block.Set("tint", uniform.Vec4(f32.Vec4{1, 0.5, 0, 1})); err != nil {
		return err
	}

	draw := ctx.Config().Backend == "noop"
	step := geometry.RotateZ(math.Pi / 8)
	world := geometry.Identity

	for i := 0; i < frames; i++ {
		f, err := ctx.BeginFrame()
		if err != nil {
			return err
		}

		if i > 0 {
			geometry.Transform(q.bufs(), step, 0, -1)
			q.vertices.Update(0, q.vertices.Count())
			world = geometry.Mul(step, world)
		}
		if err := block.Set("world", uniform.Mat4(world)); err != nil {
			return err
		}
		if err := block.Set("time", uniform.Float(float32(f.Number))); err != nil {
			return err
		}
		if _, err := block.Upload(ctx.Queue(), &ubuf); err != nil {
			return err
		}

		cmd, err := encodeFrame(ctx.Device(), target, q.draw(), draw)
		if err != nil {
			return err
		}
		idx, err := ctx.EndFrame(cmd)
		if err != nil {
			return err
		}

		lo, hi, _ := geometry.Bounds(q.bufs(), 0, -1)
		logger.Info("frame",
			"n", f.Number,
			"slot", f.Slot,
			"submission", idx,
			"bounds", fmt.Sprintf("%.2f..%.2f", lo, hi))
	}

	logger.Info("done", "stats", ctx.Stats().String(), "programs", modules.Stats().Len)
	return nil
}

// quad is four vertices with position, normal, uv and tangent, drawn as
// two triangles.
type quad struct {
	vertices *stream.VertexView
	indices  *stream.IndexView
	index    *buffer.Ref
}

func newQuad(up *stream.Uploader) (*quad, error) {
	layout := buffer.NewLayout(
		buffer.Field{Semantic: buffer.Position, Format: gputypes.VertexFormatFloat32x3},
		buffer.Field{Semantic: buffer.Normal, Format: gputypes.VertexFormatSnorm16x4},
		buffer.Field{Semantic: buffer.TexCoord0, Format: gputypes.VertexFormatFloat16x2},
		buffer.Field{Semantic: buffer.Tangent, Format: gputypes.VertexFormatSnorm8x4},
	)

	// Uploads read the CPU bytes at flush time, so the data written below
	// is what the first frame sees.
	q := &quad{vertices: stream.NewVertexViewCount(up, layout, 4, stream.Dynamic)}
	bufs := q.bufs()
	corners := [4][2]float32{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}}
	for i, c := range corners {
		geometry.SetAttribute(bufs, i, buffer.Position, false, f32.Vec4{c[0], c[1], 0, 1})
		geometry.SetAttribute(bufs, i, buffer.Normal, false, f32.Vec4{0, 0, 1, 0})
		geometry.SetAttribute(bufs, i, buffer.TexCoord0, false, f32.Vec4{c[0] + 0.5, 0.5 - c[1], 0, 0})
	}
	tris := []uint32{0, 1, 2, 2, 3, 0}
	if !geometry.Tangents(tris, bufs) {
		q.vertices.Close()
		return nil, fmt.Errorf("gpuresdemo: tangent generation failed")
	}

	q.index = buffer.Share(buffer.New(buffer.NewFixedWidthIndex(len(tris), 2)))
	q.index.Buffer().SetIndexRange(0, tris)
	q.indices = stream.NewIndexView(up, q.index.Weak(), stream.Static, 0, len(tris))
	return q, nil
}

func (q *quad) bufs() []*buffer.ByteBuffer {
	return []*buffer.ByteBuffer{q.vertices.Owned().Buffer()}
}

func (q *quad) draw() stream.DrawRequest {
	return stream.DrawRequest{Index: q.indices, Vertices: []*stream.VertexView{q.vertices}}
}

func (q *quad) close() {
	q.indices.Close()
	q.vertices.Close()
	q.index.Release()
}

// target is an offscreen color attachment read back through CopySrc.
type target struct {
	tex  resource.Texture
	view resource.TextureView
}

func newTarget(alloc *resource.Allocator, w, h uint32) (*target, error) {
	tex, err := alloc.CreateTexture(hal.TextureDescriptor{
		Label:  "target",
		Size:   hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, err
	}
	view, err := alloc.CreateTextureView(&tex, hal.TextureViewDescriptor{Label: "target-view"})
	if err != nil {
		tex.Free()
		return nil, err
	}
	return &target{tex: tex, view: view}, nil
}

func (t *target) close() {
	t.view.Free()
	t.tex.Free()
}

// encodeFrame moves the target into RenderAttachment, optionally draws the
// quad, and hands the target back in CopySrc.
func encodeFrame(device hal.Device, t *target, req stream.DrawRequest, draw bool) (hal.CommandBuffer, error) {
	enc, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "frame"})
	if err != nil {
		return nil, err
	}
	if err := enc.BeginEncoding("frame"); err != nil {
		return nil, err
	}

	color := barrier.New(t.tex.Get(), gputypes.TextureUsageCopySrc, gputypes.TextureUsageCopySrc)
	barrier.TransitionAll(enc, []barrier.Request{{Transition: color, State: gputypes.TextureUsageRenderAttachment}})

	if draw {
		pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "quad",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       t.view.Get(),
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{A: 1},
			}},
		})
		req.Draw(pass, 1)
		pass.End()
	}

	barrier.EndAll(enc, []*barrier.ScopedTransition{color})
	return enc.EndEncoding()
}

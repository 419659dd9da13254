package viz

import (
	"image"
	"image/color"
	"math"
	"time"

	"cityviz/internal/config"
	"cityviz/internal/scene"

	"github.com/fogleman/gg"
)

// variantPalette maps an agent's cosmetic variant to a body color.
var variantPalette = [][3]float64{
	{0.91, 0.30, 0.24}, // red
	{0.20, 0.60, 0.86}, // blue
	{0.95, 0.77, 0.06}, // yellow
	{0.61, 0.35, 0.71}, // purple
	{0.90, 0.49, 0.13}, // orange
	{0.18, 0.80, 0.44}, // green
}

// Painter renders the scene top-down to an image: roads, obstacles,
// destinations, signal glow discs and agents with heading ticks. It is the
// debug-grade stand-in for the 3D renderer host and exercises the same
// per-frame contract (translation, rotation, frame, lighting).
type Painter struct {
	cfg config.PreviewConfig
}

// NewPainter creates a painter with the given output size and scale.
func NewPainter(cfg config.PreviewConfig) *Painter {
	return &Painter{cfg: cfg}
}

// Render draws one frame of the scene at the given time.
func (p *Painter) Render(sc SceneSource, now time.Time) image.Image {
	dc := gg.NewContext(p.cfg.Width, p.cfg.Height)

	// Night-sky background; static layers; dynamic layers on top.
	dc.SetRGB(0.08, 0.09, 0.12)
	dc.Clear()

	static := sc.Static()
	for _, road := range static.Roads {
		p.tile(dc, road.X, road.Z, 0.22, 0.22, 0.24)
	}
	for _, dest := range static.Destinations {
		p.tile(dc, dest.X, dest.Z, 0.16, 0.32, 0.42)
	}
	for _, obs := range static.Obstacles {
		if obs.IsTree {
			x, y := p.toScreen(obs.X, obs.Z)
			dc.SetRGB(0.13, 0.42, 0.22)
			dc.DrawCircle(x, y, p.cfg.Scale*0.35)
			dc.Fill()
			continue
		}
		p.tile(dc, obs.X, obs.Z, 0.35, 0.30, 0.28)
	}

	frame := BuildFrame(sc, now)

	// Signal glow first so agents draw over it.
	for _, sig := range frame.Signals {
		x, y := p.toScreen(sig.Position.X, sig.Position.Z)
		if sig.Green {
			// Soft radial falloff approximating the dynamic light's reach.
			grad := gg.NewRadialGradient(x, y, 0, x, y, p.cfg.Scale*3)
			grad.AddColorStop(0, color.NRGBA{R: 51, G: 242, B: 76, A: 128})
			grad.AddColorStop(1, color.NRGBA{R: 51, G: 242, B: 76, A: 0})
			dc.SetFillStyle(grad)
			dc.DrawCircle(x, y, p.cfg.Scale*3)
			dc.Fill()
			dc.SetRGB(0.2, 0.95, 0.3)
		} else {
			dc.SetRGB(0.85, 0.2, 0.2)
		}
		dc.DrawCircle(x, y, p.cfg.Scale*0.25)
		dc.Fill()
	}

	for _, a := range frame.Agents {
		p.drawAgent(dc, a)
	}

	return dc.Image()
}

// drawAgent paints one agent: a body disc in its variant color, scaled up
// slightly by the gait bounce, with a tick showing its displayed heading.
func (p *Painter) drawAgent(dc *gg.Context, a scene.AgentTransform) {
	x, y := p.toScreen(a.Translation.X, a.Translation.Z)

	c := variantPalette[a.Variant%len(variantPalette)]
	r := p.cfg.Scale * 0.38
	// The vertical hop reads as a small size pulse from above.
	r += a.Translation.Y * p.cfg.Scale * 0.2

	// Blend the lighting diffuse into the body color so signal proximity is
	// visible in the preview too.
	l := a.Lighting.Diffuse
	dc.SetRGB(c[0]*l[0]+0.1, c[1]*l[1]+0.1, c[2]*l[2]+0.1)
	dc.DrawCircle(x, y, r)
	dc.Fill()

	// Heading tick. Screen y grows downward, world angles are CCW.
	tx := x + math.Cos(a.Rotation)*r*1.4
	ty := y - math.Sin(a.Rotation)*r*1.4
	dc.SetRGB(0.95, 0.95, 0.95)
	dc.SetLineWidth(2)
	dc.DrawLine(x, y, tx, ty)
	dc.Stroke()
}

// tile fills one grid cell.
func (p *Painter) tile(dc *gg.Context, wx, wz, r, g, b float64) {
	x, y := p.toScreen(wx, wz)
	s := p.cfg.Scale
	dc.SetRGB(r, g, b)
	dc.DrawRectangle(x-s/2, y-s/2, s, s)
	dc.Fill()
}

// toScreen maps world XZ to pixel coordinates, with the world's +Z pointing
// up the image.
func (p *Painter) toScreen(wx, wz float64) (float64, float64) {
	x := wx*p.cfg.Scale + p.cfg.Scale
	y := float64(p.cfg.Height) - (wz*p.cfg.Scale + p.cfg.Scale)
	return x, y
}

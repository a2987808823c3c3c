package api

import (
	"image/color"
	"net/http"

	"github.com/fogleman/gg"

	"spriteworld/internal/world"
)

// Debug frame palette
var (
	frameBackground = color.RGBA{12, 12, 28, 255}
	frameGridColor  = color.RGBA{30, 30, 45, 255}
	spriteIdle      = color.RGBA{80, 160, 255, 255}
	spriteTouching  = color.RGBA{255, 90, 90, 255}
	spriteImmovable = color.RGBA{150, 150, 150, 255}
)

// handleDebugFrame renders the current collider layout as a PNG.
// Intended for eyeballing the simulation without a viewer client.
func (h *routerHandlers) handleDebugFrame(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()

	width := int(snap.Bounds.HalfW * 2)
	height := int(snap.Bounds.HalfH * 2)
	if width <= 0 || height <= 0 {
		width, height = 1280, 720
	}

	dc := gg.NewContext(width, height)

	// World coordinates map to pixels with the bounds' top-left at the
	// image origin.
	offX := snap.Bounds.Center.X - snap.Bounds.HalfW
	offY := snap.Bounds.Center.Y - snap.Bounds.HalfH

	drawFrameBackground(dc, width, height)

	for _, s := range snap.Sprites {
		drawSpriteSnapshot(dc, s, offX, offY)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := dc.EncodePNG(w); err != nil {
		// Headers are already out, nothing sensible left to do.
		return
	}
}

func drawFrameBackground(dc *gg.Context, width, height int) {
	dc.SetColor(frameBackground)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	dc.SetColor(frameGridColor)
	dc.SetLineWidth(1)

	gridSize := 100.0
	for x := 0.0; x < float64(width); x += gridSize {
		dc.DrawLine(x, 0, x, float64(height))
		dc.Stroke()
	}
	for y := 0.0; y < float64(height); y += gridSize {
		dc.DrawLine(0, y, float64(width), y)
		dc.Stroke()
	}
}

func drawSpriteSnapshot(dc *gg.Context, s world.SpriteSnapshot, offX, offY float64) {
	px := s.Pos.X - offX
	py := s.Pos.Y - offY

	scale := s.Scale
	if scale == 0 {
		scale = 1
	}

	switch {
	case s.Immovable:
		dc.SetColor(spriteImmovable)
	case s.Touching.Any():
		dc.SetColor(spriteTouching)
	default:
		dc.SetColor(spriteIdle)
	}

	switch s.Shape {
	case "circle":
		dc.DrawCircle(px, py, s.Radius*scale)
		dc.Stroke()
	case "point":
		dc.DrawCircle(px, py, 2)
		dc.Fill()
	default:
		w := s.W * scale
		h := s.H * scale
		dc.DrawRectangle(px-w/2, py-h/2, w, h)
		dc.Stroke()
	}

	// Velocity vector, scaled down so fast sprites stay readable
	if s.Vel.X != 0 || s.Vel.Y != 0 {
		dc.SetLineWidth(1)
		dc.DrawLine(px, py, px+s.Vel.X*0.2, py+s.Vel.Y*0.2)
		dc.Stroke()
	}
}

package insar

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PreviewRenderer rasterizes a deformation grid into a quick-look PNG with
// a diverging color ramp and a min/max legend. NaN cells render as light
// gray so data gaps stay visible.
type PreviewRenderer struct {
	Grid    *RasterGrid
	NoData  color.NRGBA
	Legend  bool
	MinClip *float64 // optional ramp clipping; nil uses the grid minimum
	MaxClip *float64
}

// NewPreviewRenderer creates a renderer with default settings.
func NewPreviewRenderer(g *RasterGrid) *PreviewRenderer {
	return &PreviewRenderer{
		Grid:   g,
		NoData: color.NRGBA{220, 220, 220, 255},
		Legend: true,
	}
}

// Render produces the preview image, one pixel per grid cell plus a legend
// strip along the top when enabled.
func (r *PreviewRenderer) Render() *image.RGBA {
	g := r.Grid
	min, max := r.valueRange()

	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			v := g.At(row, col)
			if math.IsNaN(v) {
				img.Set(col, row, r.NoData)
				continue
			}
			img.Set(col, row, rampColor(v, min, max))
		}
	}

	if r.Legend {
		drawText(img, 4, 12, legendLabel(min, max), color.RGBA{0, 0, 0, 255})
	}
	return img
}

// SavePNG renders the preview and writes it to path.
func (r *PreviewRenderer) SavePNG(path string) error {
	img := r.Render()

	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	if err := png.Encode(f, img); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func (r *PreviewRenderer) valueRange() (min, max float64) {
	if r.MinClip != nil && r.MaxClip != nil {
		return *r.MinClip, *r.MaxClip
	}
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range r.Grid.Data {
		if math.IsNaN(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min > max {
		// all NaN
		return 0, 0
	}
	if r.MinClip != nil {
		min = *r.MinClip
	}
	if r.MaxClip != nil {
		max = *r.MaxClip
	}
	return min, max
}

// rampColor maps v in [min,max] onto a blue-white-red diverging ramp:
// subsidence cold, uplift warm, the conventional deformation palette.
func rampColor(v, min, max float64) color.NRGBA {
	if max <= min {
		return color.NRGBA{255, 255, 255, 255}
	}
	t := (v - min) / (max - min)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	if t < 0.5 {
		// blue -> white
		f := t * 2
		return color.NRGBA{
			R: uint8(255 * f),
			G: uint8(255 * f),
			B: 255,
			A: 255,
		}
	}
	// white -> red
	f := (t - 0.5) * 2
	return color.NRGBA{
		R: 255,
		G: uint8(255 * (1 - f)),
		B: uint8(255 * (1 - f)),
		A: 255,
	}
}

func legendLabel(min, max float64) string {
	return "min " + formatCoord(min) + "  max " + formatCoord(max)
}

// drawText renders text onto an image at the specified position.
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

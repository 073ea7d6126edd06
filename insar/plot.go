package insar

import (
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// CloudPlotter renders a point cloud as a 2D scatter plot, each point
// colored by its deformation value on the same diverging ramp the raster
// preview uses. Output is SVG or rasterized PNG.
type CloudPlotter struct {
	Cloud       *PointCloud
	Padding     float64           // padding in ground units
	GridSpacing float64           // grid line spacing in ground units; 0 disables
	PointRadius float64           // marker radius in ground units
	Resolution  canvas.Resolution // resolution for PNG output
}

// NewCloudPlotter creates a plotter with spacing scaled to the cloud's
// extent.
func NewCloudPlotter(pc *PointCloud) *CloudPlotter {
	bound := pc.Bounds()
	extent := math.Max(bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1])
	if extent <= 0 {
		extent = 1000
	}

	return &CloudPlotter{
		Cloud:       pc,
		Padding:     extent * 0.05,
		GridSpacing: extent / 10,
		PointRadius: extent / 400,
		Resolution:  canvas.DPMM(0.1),
	}
}

// canvasRenderer is the interface both the svg and rasterizer renderers
// implement.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the scatter plot as an SVG to the provided writer.
func (p *CloudPlotter) RenderToSVG(w io.Writer) error {
	width, height, err := p.extent()
	if err != nil {
		return err
	}

	svgRenderer := svg.New(w, width, height, nil)
	p.renderToCanvas(svgRenderer, width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the scatter plot as a PNG to the provided writer.
func (p *CloudPlotter) RenderToPNG(w io.Writer) error {
	width, height, err := p.extent()
	if err != nil {
		return err
	}

	rast := rasterizer.New(width, height, p.Resolution, canvas.DefaultColorSpace)
	p.renderToCanvas(rast, width, height)
	return png.Encode(w, rast)
}

func (p *CloudPlotter) extent() (width, height float64, err error) {
	if len(p.Cloud.Points) == 0 {
		return 0, 0, fmt.Errorf("empty point cloud")
	}
	bound := p.Cloud.Bounds()
	width = (bound.Max[0] - bound.Min[0]) + 2*p.Padding
	height = (bound.Max[1] - bound.Min[1]) + 2*p.Padding
	return width, height, nil
}

func (p *CloudPlotter) renderToCanvas(renderer canvasRenderer, width, height float64) {
	bound := p.Cloud.Bounds()
	minZ, maxZ := p.Cloud.ZRange()

	// White background
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	toCanvas := func(x, y float64) (float64, float64) {
		return (x - bound.Min[0]) + p.Padding, (y - bound.Min[1]) + p.Padding
	}

	// Grid lines
	if p.GridSpacing > 0 {
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		gridStyle.StrokeWidth = p.PointRadius / 2
		gridStyle.Dashes = []float64{p.GridSpacing / 20, p.GridSpacing / 20}

		for x := math.Floor(bound.Min[0]/p.GridSpacing) * p.GridSpacing; x <= bound.Max[0]; x += p.GridSpacing {
			gridPath := &canvas.Path{}
			x1, y1 := toCanvas(x, bound.Min[1])
			x2, y2 := toCanvas(x, bound.Max[1])
			gridPath.MoveTo(x1, y1)
			gridPath.LineTo(x2, y2)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
		for y := math.Floor(bound.Min[1]/p.GridSpacing) * p.GridSpacing; y <= bound.Max[1]; y += p.GridSpacing {
			gridPath := &canvas.Path{}
			x1, y1 := toCanvas(bound.Min[0], y)
			x2, y2 := toCanvas(bound.Max[0], y)
			gridPath.MoveTo(x1, y1)
			gridPath.LineTo(x2, y2)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
	}

	// Points, colored by deformation
	for _, pt := range p.Cloud.Points {
		c := rampColor(pt.Z, minZ, maxZ)

		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: nrgbaToRGBA(c)}
		style.Stroke = canvas.Paint{Color: canvas.Transparent}

		cx, cy := toCanvas(pt.X, pt.Y)
		marker := canvas.Circle(p.PointRadius)
		marker = marker.Translate(cx, cy)
		renderer.RenderPath(marker, style, canvas.Identity)
	}
}

// nrgbaToRGBA converts color.NRGBA to premultiplied color.RGBA, which the
// canvas library expects.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

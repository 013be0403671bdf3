package graph

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/iafilius/HPAScaleGraphs/src/logging"
)

const titleBandPx = 36

var (
	utilColor    = chart.ColorBlue
	replicaColor = chart.ColorGreen
	gridColor    = drawing.Color{R: 220, G: 220, B: 220, A: 255}
	frameColor   = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	textColor    = color.RGBA{R: 51, G: 51, B: 51, A: 255}
)

// Render draws every panel and stacks them top to bottom into one image.
func Render(fig Figure) (image.Image, error) {
	if len(fig.Panels) == 0 {
		return nil, ErrNoSeries
	}
	out := image.NewRGBA(image.Rect(0, 0, fig.Width, fig.Height()))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	if fig.Title != "" {
		drawCentered(out, fig.Width/2, titleBandPx/2+5, fig.Title)
	}
	for i, p := range fig.Panels {
		var img image.Image
		if p.Empty() {
			img = renderEmptyPanel(fig, p)
		} else {
			var err error
			if img, err = renderPanel(fig, p); err != nil {
				return nil, fmt.Errorf("render panel %d (%s): %w", i, p.Label, err)
			}
		}
		off := image.Pt(0, fig.titleBand()+i*fig.PanelHeight)
		b := img.Bounds()
		draw.Draw(out, image.Rectangle{Min: off, Max: off.Add(b.Size())}, img, b.Min, draw.Src)
	}
	return out, nil
}

// Encode renders fig and writes it to w as PNG.
func Encode(w io.Writer, fig Figure) error {
	img, err := Render(fig)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	return nil
}

// WritePNG renders fig and writes it to path, replacing any existing file. Nothing is
// written when rendering fails.
func WritePNG(fig Figure, path string) error {
	defer logging.TimeTrack(time.Now(), "render "+path)
	var buf bytes.Buffer
	if err := Encode(&buf, fig); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logging.Infof("[render] wrote %s (%d panel(s), %dx%d)", path, len(fig.Panels), fig.Width, fig.Height())
	return nil
}

func renderPanel(fig Figure, p Panel) (image.Image, error) {
	ch := panelChart(fig, p)
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

func panelChart(fig Figure, p Panel) chart.Chart {
	var xName string
	if p.ShowXAxisName {
		xName = fig.XLabel
	}
	ch := chart.Chart{
		Title:      p.Title,
		Width:      fig.Width,
		Height:     fig.PanelHeight,
		// the left axis name is drawn outside the measured tick labels, so the left padding holds it
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 40, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           xName,
			Ticks:          toTicks(fig.XTicks),
			Range:          &chart.ContinuousRange{Min: fig.XRange.Min, Max: fig.XRange.Max},
			GridMajorStyle: chart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		// go-chart draws YAxisSecondary on the left and YAxis on the right, so utilization
		// goes on the secondary axis and replicas on the primary one.
		// YAxisSecondary.Ticks stays empty: when set, go-chart takes the secondary range
		// from the primary axis ticks. The range supplies the ticks instead.
		YAxisSecondary: chart.YAxis{
			AxisType: chart.YAxisSecondary,
			Name:     p.YLabel,
			Style:    chart.Style{FontColor: utilColor},
			Range:    newTickedRange(p.YRange, p.YTicks),
		},
		YAxis: chart.YAxis{
			Name:           p.Y2Label,
			Style:          chart.Style{FontColor: replicaColor},
			Ticks:          toTicks(p.Y2Ticks),
			Range:          &chart.ContinuousRange{Min: p.Y2Range.Min, Max: p.Y2Range.Max},
			GridMajorStyle: chart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
	}
	for _, c := range p.Curves {
		ch.Series = append(ch.Series, toSeries(c))
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch
}

// tickedRange is a fixed continuous range that also provides its own ticks.
type tickedRange struct {
	chart.ContinuousRange
	ticks []chart.Tick
}

func newTickedRange(r Range, ticks []float64) *tickedRange {
	return &tickedRange{ContinuousRange: chart.ContinuousRange{Min: r.Min, Max: r.Max}, ticks: toTicks(ticks)}
}

// GetTicks implements chart.TicksProvider.
func (r *tickedRange) GetTicks(chart.Renderer, chart.Style, chart.ValueFormatter) []chart.Tick {
	return r.ticks
}

func toSeries(c Curve) chart.ContinuousSeries {
	st := chart.Style{StrokeColor: utilColor, StrokeWidth: 2}
	axis := chart.YAxisSecondary
	if c.Axis == AxisSecondary {
		st.StrokeColor = replicaColor
		axis = chart.YAxisPrimary
	}
	if c.Dashed {
		st.StrokeDashArray = []float64{6, 4}
	}
	if c.Len() == 1 { // a lone sample has no segment to stroke
		st.DotWidth = 4
		st.DotColor = st.StrokeColor
	}
	return chart.ContinuousSeries{Name: c.Name, XValues: c.X, YValues: c.Y, YAxis: axis, Style: st}
}

func toTicks(vs []float64) []chart.Tick {
	ticks := make([]chart.Tick, len(vs))
	for i, v := range vs {
		ticks[i] = chart.Tick{Value: v, Label: formatTick(v)}
	}
	return ticks
}

// renderEmptyPanel draws a framed placeholder so a series without samples still occupies its slot.
func renderEmptyPanel(fig Figure, p Panel) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, fig.Width, fig.PanelHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	frame := image.Rect(60, 40, fig.Width-60, fig.PanelHeight-40)
	strokeRect(img, frame, frameColor)
	if p.Title != "" {
		drawCentered(img, fig.Width/2, 24, p.Title)
	}
	drawCentered(img, fig.Width/2, fig.PanelHeight/2, "no data: "+p.Label)
	if p.ShowXAxisName && fig.XLabel != "" {
		drawCentered(img, fig.Width/2, fig.PanelHeight-16, fig.XLabel)
	}
	return img
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// drawCentered writes text with its baseline at y, horizontally centered on cx.
func drawCentered(img *image.RGBA, cx, y int, text string) {
	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: img, Src: image.NewUniform(textColor), Face: face}
	w := dr.MeasureString(text).Ceil()
	dr.Dot = fixed.Point26_6{X: fixed.I(cx - w/2), Y: fixed.I(y)}
	dr.DrawString(text)
}

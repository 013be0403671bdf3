// Package graph lays out autoscaler series as dual-axis panels and renders them to PNG.
//
// Compose builds a Figure description without drawing anything: one panel per series,
// stacked vertically, all sharing one time axis. Render and WritePNG turn that description
// into a raster image using go-chart.
package graph

import (
	"errors"

	"github.com/iafilius/HPAScaleGraphs/src/series"
)

// ErrNoSeries is returned when Compose is called without any series.
var ErrNoSeries = errors.New("no series to compose")

const (
	DefaultWidth        = 1200
	DefaultPanelHeight  = 600
	DefaultXLabel       = "Time (seconds)"
	DefaultUtilLabel    = "CPU Utilization (%)"
	DefaultReplicaLabel = "Replicas"

	timeTickCount  = 8
	valueTickCount = 6
)

// AxisSide selects which y axis a curve is plotted against.
type AxisSide int

const (
	AxisPrimary AxisSide = iota
	AxisSecondary
)

// Range is a closed numeric interval.
type Range struct {
	Min, Max float64
}

// Curve is one plotted line.
type Curve struct {
	Name   string
	Axis   AxisSide
	Dashed bool
	X, Y   []float64
}

// Len returns the number of points on the curve.
func (c Curve) Len() int { return len(c.X) }

// Panel is one dual-axis plot bound to exactly one series. Curves is empty for an empty series.
type Panel struct {
	Label  string
	Title  string
	Curves []Curve

	YLabel  string
	YRange  Range
	YTicks  []float64
	Y2Label string
	Y2Range Range
	Y2Ticks []float64

	// ShowXAxisName is set on the bottom panel only; upper panels share its axis.
	ShowXAxisName bool
}

// Empty reports whether the panel has nothing to draw.
func (p Panel) Empty() bool { return len(p.Curves) == 0 }

// Figure is a vertical stack of panels sharing XRange and XTicks.
type Figure struct {
	Title       string
	XLabel      string
	XRange      Range
	XTicks      []float64
	Width       int
	PanelHeight int
	Panels      []Panel
}

// Height is the total raster height including the title band.
func (f Figure) Height() int {
	return f.titleBand() + len(f.Panels)*f.PanelHeight
}

func (f Figure) titleBand() int {
	if f.Title == "" {
		return 0
	}
	return titleBandPx
}

// ComposeOptions controls labels and size. Zero values select defaults.
type ComposeOptions struct {
	Title string
	// Titles are per-panel titles in series order. Missing entries fall back to the series label;
	// present-but-empty entries stay empty.
	Titles       []string
	XLabel       string
	UtilLabel    string
	ReplicaLabel string
	Width        int
	PanelHeight  int
}

// Compose lays out one panel per series in input order.
func Compose(list []series.Series, opts ComposeOptions) (Figure, error) {
	if len(list) == 0 {
		return Figure{}, ErrNoSeries
	}
	w, h := clampDimensions(orDefault(opts.Width, DefaultWidth), orDefault(opts.PanelHeight, DefaultPanelHeight))
	fig := Figure{
		Title:       opts.Title,
		XLabel:      orDefaultString(opts.XLabel, DefaultXLabel),
		Width:       w,
		PanelHeight: h,
		Panels:      make([]Panel, 0, len(list)),
	}

	// Shared time axis: wide enough for the longest series, at least one interval.
	span := 0
	for _, s := range list {
		span = max(span, s.Duration(), s.Interval)
	}
	fig.XTicks = timeTicks(float64(span), timeTickCount)
	fig.XRange = Range{Min: fig.XTicks[0], Max: fig.XTicks[len(fig.XTicks)-1]}

	utilLabel := orDefaultString(opts.UtilLabel, DefaultUtilLabel)
	repLabel := orDefaultString(opts.ReplicaLabel, DefaultReplicaLabel)
	for i, s := range list {
		title := s.Label
		if i < len(opts.Titles) {
			title = opts.Titles[i]
		}
		fig.Panels = append(fig.Panels, composePanel(s, title, utilLabel, repLabel))
	}
	fig.Panels[len(fig.Panels)-1].ShowXAxisName = true
	return fig, nil
}

func composePanel(s series.Series, title, utilLabel, repLabel string) Panel {
	sum := s.Summarize()
	p := Panel{
		Label:   s.Label,
		Title:   title,
		YLabel:  utilLabel,
		Y2Label: repLabel,
		YTicks:  zeroAnchoredTicks(float64(sum.MaxUtil), valueTickCount),
		Y2Ticks: integerTicks(sum.MaxReplicas, valueTickCount),
	}
	p.YRange = Range{Min: p.YTicks[0], Max: p.YTicks[len(p.YTicks)-1]}
	p.Y2Range = Range{Min: p.Y2Ticks[0], Max: p.Y2Ticks[len(p.Y2Ticks)-1]}
	if s.Len() == 0 {
		return p
	}
	xs, util, reps := s.Columns()
	p.Curves = []Curve{
		{Name: utilLabel, Axis: AxisPrimary, X: xs, Y: util},
		{Name: repLabel, Axis: AxisSecondary, Dashed: true, X: xs, Y: reps},
	}
	return p
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

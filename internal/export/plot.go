// Package export renders recorded runs to image files with gonum/plot.
package export

import (
	"bufio"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/pendsim/internal/analysis"
	"github.com/san-kum/pendsim/internal/dynamo"
)

var (
	lineColor     = color.RGBA{R: 0x00, G: 0x8f, B: 0xd5, A: 0xff}
	reversalColor = color.RGBA{R: 0xe0, G: 0x40, B: 0x40, A: 0xff}
)

func limitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Padding = vg.Points(8)
	p.Y.Padding = vg.Points(8)
	p.X.Tick.Marker = limitedTicker(8, "%.2f")
	p.Y.Tick.Marker = limitedTicker(8, "%.2f")
	p.Add(plotter.NewGrid())
}

// Trajectory plots one field against time and marks every drive reversal.
func Trajectory(snaps []dynamo.Snapshot, field analysis.Field) (*plot.Plot, error) {
	if len(snaps) == 0 {
		return nil, fmt.Errorf("export: no snapshots")
	}

	p := plot.New()
	p.Title.Text = field.Name
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = field.Name
	stylePlot(p)

	pts := make(plotter.XYs, len(snaps))
	reversals := make(plotter.XYs, 0)
	for i, s := range snaps {
		pts[i].X = s.Time
		pts[i].Y = field.Value(s)
		if i > 0 && s.DriveDirection != snaps[i-1].DriveDirection {
			reversals = append(reversals, plotter.XY{X: pts[i].X, Y: pts[i].Y})
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.2)
	line.LineStyle.Color = lineColor
	p.Add(line)

	if len(reversals) > 0 {
		scatter, err := plotter.NewScatter(reversals)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Color = reversalColor
		scatter.GlyphStyle.Radius = vg.Points(3)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add("reversal", scatter)
	}

	return p, nil
}

func Phase(portrait *analysis.PhasePortrait2D) (*plot.Plot, error) {
	if portrait == nil || len(portrait.Points) == 0 {
		return nil, fmt.Errorf("export: empty phase portrait")
	}

	p := plot.New()
	p.Title.Text = "phase portrait"
	p.X.Label.Text = portrait.XLabel
	p.Y.Label.Text = portrait.YLabel
	stylePlot(p)

	pts := make(plotter.XYs, len(portrait.Points))
	for i, pt := range portrait.Points {
		pts[i].X, pts[i].Y = pt.X, pt.Y
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = lineColor
	p.Add(line)
	return p, nil
}

// Save writes p to filename. The extension picks the format: .png is
// rendered at the given DPI, anything else is handed to plot.Save.
func Save(p *plot.Plot, widthIn, heightIn float64, dpi int, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	w := vg.Length(widthIn) * vg.Inch
	h := vg.Length(heightIn) * vg.Inch

	if !strings.EqualFold(filepath.Ext(filename), ".png") {
		return p.Save(w, h, filename)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(w, h),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

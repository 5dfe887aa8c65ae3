package analysis

import (
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pendsim/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D is a trajectory projected onto two snapshot fields.
type PhasePortrait2D struct {
	XLabel, YLabel string
	Points         []Point
}

// PhasePortrait projects recorded snapshots onto angle error and angular
// velocity.
func PhasePortrait(snaps []dynamo.Snapshot) *PhasePortrait2D {
	x, _ := FieldByName("angle_error")
	y, _ := FieldByName("angular_velocity")
	return Project(snaps, x, y)
}

func Project(snaps []dynamo.Snapshot, x, y Field) *PhasePortrait2D {
	portrait := &PhasePortrait2D{
		XLabel: x.Name,
		YLabel: y.Name,
		Points: make([]Point, 0, len(snaps)),
	}
	for _, s := range snaps {
		portrait.Points = append(portrait.Points, Point{X: x.Value(s), Y: y.Value(s)})
	}
	return portrait
}

// axis maps a data range onto cells, padded by a tenth on each side.
type axis struct {
	lo, span float64
	cells    int
}

func newAxis(values []float64, cells int) axis {
	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	return axis{lo: lo, span: span * 1.2, cells: cells}
}

// cell returns the index for v, or -1 when v falls outside the grid.
func (a axis) cell(v float64) int {
	i := int((v - a.lo) / a.span * float64(a.cells-1))
	if i < 0 || i >= a.cells {
		return -1
	}
	return i
}

// PhasePortraitToASCII draws the points on a width×height grid with the
// zero axes where they are in range. Rows run top to bottom.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 {
		return ""
	}

	xs := make([]float64, len(portrait.Points))
	ys := make([]float64, len(portrait.Points))
	for i, p := range portrait.Points {
		xs[i], ys[i] = p.X, p.Y
	}
	ax, ay := newAxis(xs, width), newAxis(ys, height)

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}

	if zc := ax.cell(0); zc >= 0 {
		for r := range grid {
			grid[r][zc] = '│'
		}
	}
	if zr := ay.cell(0); zr >= 0 {
		row := grid[height-1-zr]
		for c := range row {
			if row[c] == '│' {
				row[c] = '┼'
			} else {
				row[c] = '─'
			}
		}
	}

	for i := range xs {
		c, r := ax.cell(xs[i]), ay.cell(ys[i])
		if c >= 0 && r >= 0 {
			grid[height-1-r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PoincareSection keeps the rod state each time the cart passes a
// position moving in the positive direction.
type PoincareSection struct {
	Points []Point
}

func CartCrossings(snaps []dynamo.Snapshot, position float64) *PoincareSection {
	section := &PoincareSection{Points: make([]Point, 0)}
	for i := 1; i < len(snaps); i++ {
		prev, curr := snaps[i-1].CartPosition, snaps[i].CartPosition
		if prev < position && curr >= position {
			section.Points = append(section.Points, Point{
				X: snaps[i].AngleError(),
				Y: snaps[i].AngularVelocity,
			})
		}
	}
	return section
}

func PoincareSectionToASCII(section *PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "No crossings detected"
	}
	return PhasePortraitToASCII(&PhasePortrait2D{Points: section.Points}, width, height)
}

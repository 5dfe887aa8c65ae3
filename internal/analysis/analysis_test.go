package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/pendsim/internal/dynamo"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})

	if s.Mean != 2.5 {
		t.Errorf("expected mean 2.5, got %f", s.Mean)
	}
	if s.Min != 1 || s.Max != 4 {
		t.Errorf("unexpected range [%f, %f]", s.Min, s.Max)
	}
	if math.Abs(s.RMS-math.Sqrt(7.5)) > 1e-12 {
		t.Errorf("expected rms %f, got %f", math.Sqrt(7.5), s.RMS)
	}
	if math.Abs(s.StdDev-math.Sqrt(5.0/3.0)) > 1e-12 {
		t.Errorf("expected sample stddev %f, got %f", math.Sqrt(5.0/3.0), s.StdDev)
	}

	if (Summarize(nil) != Summary{}) {
		t.Error("empty input should give zero summary")
	}
	if one := Summarize([]float64{7}); one.StdDev != 0 || one.Mean != 7 {
		t.Errorf("single sample summary wrong: %+v", one)
	}
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		n    int
		dt   float64
		freq float64
	}{
		{"power of two", 256, 1.0 / 64, 4},
		{"odd length", 300, 0.01, 5},
		{"low", 1000, 0.016, 0.625},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]float64, tt.n)
			for i := range data {
				data[i] = 3 + math.Sin(2*math.Pi*tt.freq*float64(i)*tt.dt)
			}

			got, mag := DominantFrequency(data, tt.dt)
			resolution := 1 / (float64(tt.n) * tt.dt)
			if math.Abs(got-tt.freq) > resolution {
				t.Errorf("expected %f Hz, got %f", tt.freq, got)
			}
			if mag <= 0 {
				t.Error("expected positive magnitude")
			}
		})
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	f, m := DominantFrequency([]float64{2, 2, 2, 2, 2, 2}, 0.1)
	if f != 0 || m != 0 {
		t.Errorf("flat series should have no dominant frequency, got %f (%f)", f, m)
	}
	if f, _ := DominantFrequency([]float64{1}, 0.1); f != 0 {
		t.Error("single sample should give zero")
	}
}

func sweepSnapshots(n int, dt, period float64) []dynamo.Snapshot {
	snaps := make([]dynamo.Snapshot, n)
	for i := range snaps {
		tm := float64(i) * dt
		snaps[i] = dynamo.Snapshot{
			Tick:            uint64(i),
			Time:            tm,
			CartPosition:    400 + 300*math.Sin(2*math.Pi*tm/period),
			Angle:           math.Pi + 0.01*math.Cos(2*math.Pi*tm/period),
			AngularVelocity: -0.01 * math.Sin(2*math.Pi*tm/period),
		}
	}
	return snaps
}

func TestAnalyzeFindsSweepPeriod(t *testing.T) {
	snaps := sweepSnapshots(1250, 0.016, 4)
	r := Analyze(snaps, 0.016)

	if math.Abs(r.SweepPeriod-4) > 0.2 {
		t.Errorf("expected sweep period ~4s, got %f", r.SweepPeriod)
	}
	if len(r.Fields) != len(Fields) {
		t.Errorf("expected %d field summaries, got %d", len(Fields), len(r.Fields))
	}
	if cart := r.Fields["cart_position"]; math.Abs(cart.Max-700) > 1 {
		t.Errorf("expected cart max ~700, got %f", cart.Max)
	}
}

func TestFieldByName(t *testing.T) {
	if _, ok := FieldByName("angle_error"); !ok {
		t.Error("angle_error should exist")
	}
	if _, ok := FieldByName("mass"); ok {
		t.Error("mass should not exist")
	}
}

func TestPhasePortrait(t *testing.T) {
	snaps := sweepSnapshots(200, 0.016, 1)
	p := PhasePortrait(snaps)

	if len(p.Points) != len(snaps) {
		t.Fatalf("expected %d points, got %d", len(snaps), len(p.Points))
	}
	if p.XLabel != "angle_error" || p.YLabel != "angular_velocity" {
		t.Errorf("unexpected labels %s/%s", p.XLabel, p.YLabel)
	}

	art := PhasePortraitToASCII(p, 40, 12)
	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	if len(lines) != 12 {
		t.Errorf("expected 12 rows, got %d", len(lines))
	}
	if !strings.ContainsRune(art, '•') {
		t.Error("expected plotted points")
	}
	if PhasePortraitToASCII(&PhasePortrait2D{}, 10, 10) != "" {
		t.Error("empty portrait should render nothing")
	}
}

func TestCartCrossings(t *testing.T) {
	snaps := []dynamo.Snapshot{
		{CartPosition: 390}, {CartPosition: 405, Angle: math.Pi - 0.1},
		{CartPosition: 420}, {CartPosition: 395}, {CartPosition: 400, AngularVelocity: 2},
	}
	section := CartCrossings(snaps, 400)

	if len(section.Points) != 2 {
		t.Fatalf("expected 2 crossings, got %d", len(section.Points))
	}
	if math.Abs(section.Points[0].X-0.1) > 1e-12 {
		t.Errorf("expected angle error 0.1, got %f", section.Points[0].X)
	}
	if section.Points[1].Y != 2 {
		t.Errorf("expected angular velocity 2, got %f", section.Points[1].Y)
	}
	if PoincareSectionToASCII(&PoincareSection{}, 10, 5) != "No crossings detected" {
		t.Error("expected empty section message")
	}
}

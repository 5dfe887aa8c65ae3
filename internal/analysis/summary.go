package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pendsim/internal/dynamo"
)

type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	RMS    float64
}

func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(data, nil)
	if len(data) == 1 {
		std = 0
	}
	return Summary{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		RMS:    floats.Norm(data, 2) / math.Sqrt(float64(len(data))),
	}
}

// Field selects one value from a snapshot.
type Field struct {
	Name  string
	Value func(dynamo.Snapshot) float64
}

var Fields = []Field{
	{"angle_error", func(s dynamo.Snapshot) float64 { return s.AngleError() }},
	{"angular_velocity", func(s dynamo.Snapshot) float64 { return s.AngularVelocity }},
	{"cart_position", func(s dynamo.Snapshot) float64 { return s.CartPosition }},
	{"cart_velocity", func(s dynamo.Snapshot) float64 { return s.CartVelocity }},
	{"integral_error", func(s dynamo.Snapshot) float64 { return s.IntegralError }},
}

func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func Series(snaps []dynamo.Snapshot, f Field) []float64 {
	out := make([]float64, len(snaps))
	for i, s := range snaps {
		out[i] = f.Value(s)
	}
	return out
}

// Report summarises a recorded run.
type Report struct {
	Fields         map[string]Summary
	SweepFrequency float64
	SweepPeriod    float64
}

// Analyze summarises every field and estimates the cart sweep period from the
// cart position spectrum.
func Analyze(snaps []dynamo.Snapshot, dt float64) Report {
	r := Report{Fields: make(map[string]Summary, len(Fields))}
	for _, f := range Fields {
		r.Fields[f.Name] = Summarize(Series(snaps, f))
	}

	cart, _ := FieldByName("cart_position")
	r.SweepFrequency, _ = DominantFrequency(Series(snaps, cart), dt)
	if r.SweepFrequency > 0 {
		r.SweepPeriod = 1 / r.SweepFrequency
	}
	return r
}

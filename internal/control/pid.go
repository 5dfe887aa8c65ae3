package control

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/pendsim/internal/dynamo"
)

type GainName string

const (
	GainKp              GainName = "kp"
	GainKi              GainName = "ki"
	GainKd              GainName = "kd"
	GainConvergenceRate GainName = "convergence_rate"
)

// GainNames lists the gains in slider order.
var GainNames = []GainName{GainKp, GainKi, GainKd, GainConvergenceRate}

func ParseGainName(s string) (GainName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kp":
		return GainKp, nil
	case "ki":
		return GainKi, nil
	case "kd":
		return GainKd, nil
	case "convergence_rate", "rate", "convergencerate":
		return GainConvergenceRate, nil
	default:
		return "", fmt.Errorf("%w: %q", dynamo.ErrUnknownGain, s)
	}
}

// Gains are the effective controller coefficients. Kp, Ki and Kd hold the
// values the control law multiplies by, already scaled by the convergence
// rate that was current when each one was last set.
type Gains struct {
	Kp              float64
	Ki              float64
	Kd              float64
	ConvergenceRate float64
}

func DefaultGains() Gains {
	return Gains{
		Kp:              50,
		Ki:              1,
		Kd:              5,
		ConvergenceRate: 5,
	}
}

// Set applies a raw slider value. In PID mode kp, ki and kd become
// raw*ConvergenceRate; in PD mode they take the raw value. Changing the
// convergence rate leaves the stored gains alone until they are set again.
func (g *Gains) Set(name GainName, raw float64, mode dynamo.Mode) error {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return &dynamo.ConfigurationError{Field: string(name), Value: raw, Reason: "must be finite"}
	}

	scale := 1.0
	if mode == dynamo.ModePID {
		scale = g.ConvergenceRate
	}

	switch name {
	case GainKp:
		g.Kp = raw * scale
	case GainKi:
		if mode == dynamo.ModePD {
			return fmt.Errorf("%w: ki in %s mode", dynamo.ErrGainUnavailable, mode)
		}
		g.Ki = raw * scale
	case GainKd:
		g.Kd = raw * scale
	case GainConvergenceRate:
		g.ConvergenceRate = raw
	default:
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownGain, name)
	}
	return nil
}

// Validate rejects gains that would turn the control output into NaN.
func (g Gains) Validate() error {
	for _, p := range []struct {
		name  GainName
		value float64
	}{
		{GainKp, g.Kp}, {GainKi, g.Ki}, {GainKd, g.Kd}, {GainConvergenceRate, g.ConvergenceRate},
	} {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return &dynamo.ConfigurationError{Field: string(p.name), Value: p.value, Reason: "must be finite"}
		}
	}
	return nil
}

// Params returns the gains for display and live tuning.
func (g Gains) Params() map[string]float64 {
	return map[string]float64{
		string(GainKp):              g.Kp,
		string(GainKi):              g.Ki,
		string(GainKd):              g.Kd,
		string(GainConvergenceRate): g.ConvergenceRate,
	}
}

// Controller computes the cart motion that keeps the rod at π and applies the
// track edge policy.
type Controller struct {
	Mode dynamo.Mode

	dt                float64
	lower, upper      float64
	edgeTimeThreshold float64
}

func New(c dynamo.Constants, mode dynamo.Mode) *Controller {
	lower, upper := c.Bounds()
	return &Controller{
		Mode:              mode,
		dt:                c.Dt,
		lower:             lower,
		upper:             upper,
		edgeTimeThreshold: c.EdgeTimeThreshold,
	}
}

// Force returns the control force for the current angle, updating the
// integral in PID mode. The integral is not clamped.
func (c *Controller) Force(s *dynamo.State, g Gains) float64 {
	angleError := math.Pi - s.Angle

	if c.Mode == dynamo.ModePD {
		return g.Kp*angleError - g.Kd*s.AngularVelocity
	}

	s.IntegralError += angleError * c.dt
	return g.Kp*angleError + g.Ki*s.IntegralError - g.Kd*s.AngularVelocity
}

// Compute moves the cart for the next tick. The force is scaled by the
// drive direction, so after a reversal the correction is inverted too.
func (c *Controller) Compute(s *dynamo.State, g Gains) (velocity, position float64) {
	force := c.Force(s, g)

	s.CartVelocity = force * c.dt * float64(s.DriveDirection)
	s.CartPosition += s.CartVelocity

	c.ApplyEdge(s)
	return s.CartVelocity, s.CartPosition
}

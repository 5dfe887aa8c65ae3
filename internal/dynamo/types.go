package dynamo

import (
	"fmt"
	"math"
	"strings"
)

// Constants are the physical and timing parameters of one run. They do not
// change while a simulation is stepping.
type Constants struct {
	Gravity           float64
	RodLength         float64
	CartWidth         float64
	TrackWidth        float64
	Damping           float64
	Dt                float64
	EdgeTimeThreshold float64
}

func DefaultConstants() Constants {
	return Constants{
		Gravity:           9.81,
		RodLength:         150,
		CartWidth:         80,
		TrackWidth:        800,
		Damping:           0.02,
		Dt:                0.016,
		EdgeTimeThreshold: 2,
	}
}

// Bounds returns the range the cart pivot may occupy on the track.
func (c Constants) Bounds() (lower, upper float64) {
	return c.CartWidth / 2, c.TrackWidth - c.CartWidth/2
}

// Validate rejects constants that would make the step produce NaN or Inf.
func (c Constants) Validate() error {
	positive := []struct {
		field string
		value float64
	}{
		{"dt", c.Dt},
		{"rod_length", c.RodLength},
		{"cart_width", c.CartWidth},
		{"track_width", c.TrackWidth},
		{"edge_time_threshold", c.EdgeTimeThreshold},
	}
	for _, p := range positive {
		if !isFinite(p.value) || p.value <= 0 {
			return &ConfigurationError{Field: p.field, Value: p.value, Reason: "must be positive and finite"}
		}
	}
	if c.TrackWidth <= c.CartWidth {
		return &ConfigurationError{Field: "track_width", Value: c.TrackWidth, Reason: "must exceed cart_width"}
	}
	if !isFinite(c.Damping) || c.Damping < 0 {
		return &ConfigurationError{Field: "damping", Value: c.Damping, Reason: "must be non-negative and finite"}
	}
	if !isFinite(c.Gravity) {
		return &ConfigurationError{Field: "gravity", Value: c.Gravity, Reason: "must be finite"}
	}
	return nil
}

type Mode int

const (
	ModePID Mode = iota
	ModePD
)

func (m Mode) String() string {
	switch m {
	case ModePID:
		return "pid"
	case ModePD:
		return "pd"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pid", "":
		return ModePID, nil
	case "pd":
		return ModePD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Phase is the edge state machine of the controller.
type Phase int

const (
	Tracking Phase = iota
	AtEdge
)

func (p Phase) String() string {
	if p == AtEdge {
		return "at_edge"
	}
	return "tracking"
}

// State is the complete mutable simulation aggregate. A State is owned by a
// single driver and mutated only between or during ticks on that driver.
type State struct {
	CartPosition         float64
	PreviousCartPosition float64
	CartVelocity         float64
	CartAcceleration     float64

	// Angle is measured from the downward vertical and is never wrapped.
	Angle           float64
	AngularVelocity float64

	// IntegralError accumulates without bound in PID mode.
	IntegralError float64

	AtEdge         bool
	EdgeTimer      float64
	DriveDirection int

	Tick uint64
	Time float64
}

// NewState returns the reset state: cart centred, pendulum upright and at rest.
func NewState(c Constants) State {
	center := c.TrackWidth / 2
	return State{
		CartPosition:         center,
		PreviousCartPosition: center,
		Angle:                math.Pi,
		DriveDirection:       1,
	}
}

func (s State) Phase() Phase {
	if s.AtEdge {
		return AtEdge
	}
	return Tracking
}

func (s State) IsValid() bool {
	for _, v := range []float64{s.CartPosition, s.PreviousCartPosition, s.CartVelocity, s.Angle, s.AngularVelocity, s.IntegralError, s.EdgeTimer} {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

func (s State) Snapshot() Snapshot {
	return Snapshot{
		Tick:            s.Tick,
		Time:            s.Time,
		CartPosition:    s.CartPosition,
		Angle:           s.Angle,
		AngularVelocity: s.AngularVelocity,
		CartVelocity:    s.CartVelocity,
		DriveDirection:  s.DriveDirection,
		AtEdge:          s.AtEdge,
		EdgeTimer:       s.EdgeTimer,
		IntegralError:   s.IntegralError,
	}
}

// Snapshot is the read-only view handed to renderers and recorders.
type Snapshot struct {
	Tick            uint64  `json:"tick" db:"tick"`
	Time            float64 `json:"time" db:"time"`
	CartPosition    float64 `json:"cart_position" db:"cart_position"`
	Angle           float64 `json:"angle" db:"angle"`
	AngularVelocity float64 `json:"angular_velocity" db:"angular_velocity"`
	CartVelocity    float64 `json:"cart_velocity" db:"cart_velocity"`
	DriveDirection  int     `json:"drive_direction" db:"drive_direction"`
	AtEdge          bool    `json:"at_edge" db:"at_edge"`
	EdgeTimer       float64 `json:"edge_timer" db:"edge_timer"`
	IntegralError   float64 `json:"integral_error" db:"integral_error"`
}

// AngleError is the signed distance from upright, wrapped to (-π, π].
func (s Snapshot) AngleError() float64 {
	return WrapAngle(math.Pi - s.Angle)
}

// WrapAngle reduces a to (-π, π].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

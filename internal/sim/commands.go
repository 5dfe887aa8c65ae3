package sim

import (
	"fmt"

	"github.com/san-kum/pendsim/internal/control"
	"github.com/san-kum/pendsim/internal/dynamo"
)

// Command is a configuration change delivered by the UI layer. Commands are
// applied between ticks, never during one.
type Command interface {
	apply(s *Simulator) error
}

type SetGain struct {
	Name  control.GainName
	Value float64
}

type ManualOverride struct {
	Delta float64
}

type PlaceCart struct {
	Position float64
}

type Reset struct{}

type SetMode struct {
	Mode dynamo.Mode
}

func (c SetGain) apply(s *Simulator) error {
	return s.SetGain(c.Name, c.Value)
}

func (c ManualOverride) apply(s *Simulator) error {
	control.Nudge(&s.state, c.Delta)
	return nil
}

func (c PlaceCart) apply(s *Simulator) error {
	control.Place(&s.state, c.Position)
	return nil
}

func (Reset) apply(s *Simulator) error {
	s.Reset()
	return nil
}

func (c SetMode) apply(s *Simulator) error {
	return s.SetMode(c.Mode)
}

// Apply executes cmd against the simulator.
func (s *Simulator) Apply(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("sim: nil command")
	}
	return cmd.apply(s)
}

// ApplyAll stops at the first failing command.
func (s *Simulator) ApplyAll(cmds ...Command) error {
	for i, cmd := range cmds {
		if err := s.Apply(cmd); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
	}
	return nil
}

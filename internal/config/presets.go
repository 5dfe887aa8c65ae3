package config

import "sort"

// Presets are partial overrides applied on top of DefaultConfig.
var Presets = map[string]func(*Config){
	"default": func(*Config) {},
	"gentle": func(c *Config) {
		c.Gains = GainsConfig{Kp: 20, Ki: 0.5, Kd: 4, ConvergenceRate: 2}
		c.Kicks = KicksConfig{Count: 4, Magnitude: 5, MinGap: 3}
	},
	"stiff": func(c *Config) {
		c.Gains = GainsConfig{Kp: 400, Ki: 10, Kd: 40, ConvergenceRate: 10}
		c.Kicks = KicksConfig{Count: 8, Magnitude: 10, MinGap: 1}
	},
	"pd": func(c *Config) {
		c.Mode = "pd"
		c.Gains = GainsConfig{Kp: 250, Kd: 25, ConvergenceRate: 5}
		c.Kicks = KicksConfig{Count: 6, Magnitude: 5, MinGap: 2}
	},
	"sweep": func(c *Config) {
		c.Duration = 60
		c.Physics.TrackWidth = 400
		c.Physics.EdgeTimeThreshold = 0.5
		c.Gains = GainsConfig{Kp: 250, Ki: 5, Kd: 25, ConvergenceRate: 5}
	},
}

// GetPreset returns a fresh config for name, or nil if it is unknown.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

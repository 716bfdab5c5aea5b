// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
)

// Config is the content of the ledctl YAML file.
type Config struct {
	// Driver is one of gpio, pca9633, sysfs, gpioline or screen.
	Driver   string          `yaml:"driver"`
	Timer    TimerSection    `yaml:"timer"`
	I2C      I2CSection      `yaml:"i2c"`
	Sysfs    SysfsSection    `yaml:"sysfs"`
	GPIOLine GPIOLineSection `yaml:"gpioline"`
	Fixtures []FixtureConfig `yaml:"fixtures"`
}

// TimerSection overrides the shared PWM timer.
type TimerSection struct {
	Speed      string `yaml:"speed"`
	Timer      int    `yaml:"timer"`
	Resolution int    `yaml:"resolution"`
	// FrequencyHz defaults to 4000.
	FrequencyHz int `yaml:"frequency_hz"`
}

type I2CSection struct {
	// Bus is passed to i2creg.Open, empty selects the first bus.
	Bus      string `yaml:"bus"`
	Address  uint16 `yaml:"address"`
	Totem    bool   `yaml:"totem_pole"`
	Inverted bool   `yaml:"inverted"`
}

type SysfsSection struct {
	Base string `yaml:"base"`
	Chip *int   `yaml:"chip"`
}

type GPIOLineSection struct {
	Chip string `yaml:"chip"`
}

// FixtureConfig describes one LED or RGB LED. An RGB LED lists its red, green
// and blue channels and pins in that order.
type FixtureConfig struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Channels []int  `yaml:"channels"`
	Pins     []int  `yaml:"pins"`
}

const (
	kindLED = "led"
	kindRGB = "rgb"
)

var drivers = []string{"gpio", "pca9633", "sysfs", "gpioline", "screen"}

// Load reads and validates the configuration at path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading %s", path)
	}
	cfg, err := Parse(b)
	if err != nil {
		return Config{}, errors.Wrapf(err, "loading %s", path)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration, applies the defaults and validates it.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding YAML")
	}
	cfg.setDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) setDefaults() {
	if c.Driver == "" {
		c.Driver = "gpio"
	}
	if c.I2C.Address == 0 {
		c.I2C.Address = 0x62
	}
	for i := range c.Fixtures {
		if c.Fixtures[i].Kind == "" {
			c.Fixtures[i].Kind = kindLED
		}
	}
}

// Validate checks the fields that cannot be checked by the peripheral itself.
func (c *Config) Validate() error {
	if !contains(drivers, c.Driver) {
		return errors.Errorf("driver %q is not one of %s", c.Driver, strings.Join(drivers, "|"))
	}
	if _, err := c.Timer.TimerConfig(); err != nil {
		return err
	}
	seen := map[string]bool{}
	for i, f := range c.Fixtures {
		if f.Name == "" {
			return errors.Errorf("fixtures[%d]: name is required", i)
		}
		if seen[f.Name] {
			return errors.Errorf("fixtures[%d]: duplicate name %q", i, f.Name)
		}
		seen[f.Name] = true
		if err := f.Validate(); err != nil {
			return errors.Wrapf(err, "fixtures[%d] %q", i, f.Name)
		}
	}
	return nil
}

// Validate checks the kind and the number of channels and pins.
func (f *FixtureConfig) Validate() error {
	n := 1
	switch f.Kind {
	case kindLED:
	case kindRGB:
		n = 3
	default:
		return errors.Errorf("kind %q is not led|rgb", f.Kind)
	}
	if len(f.Channels) != n || len(f.Pins) != n {
		return errors.Errorf("%s needs %d channels and %d pins, got %d and %d", f.Kind, n, n, len(f.Channels), len(f.Pins))
	}
	for _, ch := range f.Channels {
		if ch < 0 || ch >= int(ledc.NumChannels) {
			return errors.Errorf("channel %d out of range", ch)
		}
	}
	return nil
}

// TimerConfig returns the timer to program, starting from
// ledc.DefaultTimerConfig.
func (t *TimerSection) TimerConfig() (ledc.TimerConfig, error) {
	tc := ledc.DefaultTimerConfig()
	switch t.Speed {
	case "", "low":
	case "high":
		tc.SpeedMode = ledc.HighSpeed
	default:
		return tc, errors.Errorf("timer.speed %q is not low|high", t.Speed)
	}
	if t.Timer < 0 || t.Timer >= int(ledc.NumTimers) {
		return tc, errors.Errorf("timer.timer %d out of range", t.Timer)
	}
	tc.Timer = ledc.Timer(t.Timer)
	if t.Resolution != 0 {
		if t.Resolution < 0 || t.Resolution > int(ledc.MaxResolution) {
			return tc, errors.Errorf("timer.resolution %d out of range", t.Resolution)
		}
		tc.Resolution = ledc.Resolution(t.Resolution)
	}
	if t.FrequencyHz < 0 {
		return tc, errors.Errorf("timer.frequency_hz %d is negative", t.FrequencyHz)
	}
	if t.FrequencyHz != 0 {
		tc.Frequency = physic.Frequency(t.FrequencyHz) * physic.Hertz
	}
	return tc, nil
}

// ParseColor parses "#RRGGBB", "0xRRGGBB", "RRGGBB" or the short "#RGB" form
// into a packed 0xRRGGBB value.
func ParseColor(s string) (uint32, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "#"), "0x")
	if len(h) != 3 && len(h) != 6 {
		return 0, errors.Errorf("color %q is not #RRGGBB", s)
	}
	c, err := colorful.Hex("#" + h)
	if err != nil {
		return 0, errors.Wrapf(err, "color %q", s)
	}
	r, g, b := c.RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b), nil
}

func contains(l []string, s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

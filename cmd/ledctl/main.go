// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ledctl sets the brightness of a LED or the color of a RGB LED.
//
// Fixtures are read from a YAML file or given with --pins and --channels:
//
//	ledctl --driver screen --pins 1,2,3 --channels 0,1,2 --color '#ff8000'
//	ledctl --config ledctl.yaml --fixture status --color 0x00ff00 --brightness 64
//	ledctl --config ledctl.yaml --off
package main

import (
	"fmt"
	"image/color"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/ledfixtures/gpioline"
	"github.com/GermanBionicSystems/ledfixtures/gpiopwm"
	"github.com/GermanBionicSystems/ledfixtures/ledc"
	"github.com/GermanBionicSystems/ledfixtures/pca9633"
	"github.com/GermanBionicSystems/ledfixtures/screen1d"
	"github.com/GermanBionicSystems/ledfixtures/sysfspwm"
)

var maskAny = errors.WithStack

func main() {
	var levelFlag, configPath, driverFlag, fixtureName, colorFlag string
	var brightness uint8
	var pins, channels []int
	var off bool

	pflag.StringVarP(&levelFlag, "level", "l", "info", "Set log level")
	pflag.StringVarP(&configPath, "config", "c", "", "YAML file describing the driver and fixtures")
	pflag.StringVarP(&driverFlag, "driver", "d", "", "Override the driver (gpio|pca9633|sysfs|gpioline|screen)")
	pflag.StringVarP(&fixtureName, "fixture", "f", "", "Fixture to drive, defaults to the only one")
	pflag.StringVar(&colorFlag, "color", "#ffffff", "Color of a RGB LED (#RRGGBB or 0xRRGGBB)")
	pflag.Uint8VarP(&brightness, "brightness", "b", 255, "Brightness 0-255")
	pflag.IntSliceVar(&pins, "pins", nil, "Pins of a fixture given on the command line (1 for a LED, 3 for a RGB LED)")
	pflag.IntSliceVar(&channels, "channels", nil, "Channels matching --pins, defaults to 0, 1, 2")
	pflag.BoolVar(&off, "off", false, "Turn every fixture off")
	pflag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: colorable.NewColorableStderr()}).With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(levelFlag)
	if err != nil {
		Exitf("Invalid log level '%s': %v\n", levelFlag, err)
	}
	logger = logger.Level(lvl)

	cfg, err := loadConfig(configPath, pins, channels)
	if err != nil {
		Exitf("Failed to load configuration: %v\n", err)
	}
	if driverFlag != "" {
		cfg.Driver = driverFlag
		if err := cfg.Validate(); err != nil {
			Exitf("Invalid configuration: %v\n", err)
		}
	}
	rgb, err := ParseColor(colorFlag)
	if err != nil {
		Exitf("%v\n", err)
	}

	drv, closer, err := openDriver(&cfg)
	if err != nil {
		Exitf("Failed to open driver %s: %v\n", cfg.Driver, err)
	}
	if err := run(drv, &cfg, &logger, fixtureName, rgb, brightness, off); err != nil {
		_ = closer()
		Exitf("%v\n", err)
	}
	if err := closer(); err != nil {
		logger.Warn().Err(err).Msg("failed to release driver")
	}
}

// run sets up the fixtures of cfg on drv, then applies the requested state.
func run(drv ledc.Driver, cfg *Config, logger *zerolog.Logger, name string, rgb uint32, brightness uint8, off bool) error {
	tc, err := cfg.Timer.TimerConfig()
	if err != nil {
		return err
	}
	c := ledc.New(drv, &ledc.Opts{Timer: tc, Logger: logger})
	if err := c.SetupTimer(); err != nil {
		return errors.Wrap(err, "setting up timer")
	}
	fs, err := setupFixtures(c, cfg.Fixtures)
	if err != nil {
		return err
	}
	if off {
		return fs.off()
	}
	if name == "" {
		n := fs.names()
		if len(n) != 1 {
			return errors.Errorf("--fixture is required, have %v", n)
		}
		name = n[0]
	}
	return fs.set(name, rgb, brightness)
}

// loadConfig reads path, or builds a single fixture from the command line
// when path is empty.
func loadConfig(path string, pins, channels []int) (Config, error) {
	if path != "" {
		if len(pins) != 0 {
			return Config{}, errors.New("--pins cannot be combined with --config")
		}
		return Load(path)
	}
	if len(pins) == 0 {
		return Config{}, errors.New("either --config or --pins is required")
	}
	f := FixtureConfig{Name: "cli", Kind: kindLED, Pins: pins, Channels: channels}
	if len(pins) == 3 {
		f.Kind = kindRGB
	}
	if len(f.Channels) == 0 {
		for i := range pins {
			f.Channels = append(f.Channels, i)
		}
	}
	cfg := Config{Fixtures: []FixtureConfig{f}}
	cfg.setDefaults()
	return cfg, cfg.Validate()
}

// openDriver returns the backend selected by cfg and the function releasing
// it.
func openDriver(cfg *Config) (ledc.Driver, func() error, error) {
	nop := func() error { return nil }
	switch cfg.Driver {
	case "gpio":
		if _, err := host.Init(); err != nil {
			return nil, nil, maskAny(err)
		}
		return gpiopwm.New(&gpiopwm.Opts{SourceClock: ledc.APBFrequency}), nop, nil
	case "pca9633":
		if _, err := host.Init(); err != nil {
			return nil, nil, maskAny(err)
		}
		bus, err := i2creg.Open(cfg.I2C.Bus)
		if err != nil {
			return nil, nil, maskAny(err)
		}
		opts := &pca9633.Opts{Invert: cfg.I2C.Inverted}
		if cfg.I2C.Totem {
			opts.Structure = pca9633.STRUCT_TOTEMPOLE
		}
		dev, err := pca9633.New(bus, cfg.I2C.Address, opts)
		if err != nil {
			_ = bus.Close()
			return nil, nil, maskAny(err)
		}
		return dev, bus.Close, nil
	case "sysfs":
		opts := &sysfspwm.Opts{Base: cfg.Sysfs.Base, Chip: -1}
		if cfg.Sysfs.Chip != nil {
			opts.Chip = *cfg.Sysfs.Chip
		}
		dev, err := sysfspwm.New(opts)
		if err != nil {
			return nil, nil, maskAny(err)
		}
		return dev, nop, nil
	case "gpioline":
		dev := gpioline.New(&gpioline.Opts{Chip: cfg.GPIOLine.Chip, Consumer: "ledctl"})
		return dev, dev.Close, nil
	case "screen":
		dev := screen1d.New(&screen1d.Opts{Tint: tints(cfg.Fixtures)})
		return dev, dev.Halt, nil
	}
	return nil, nil, errors.Errorf("unknown driver %q", cfg.Driver)
}

// tints colors the pins of RGB fixtures for the terminal emulator.
func tints(fixtures []FixtureConfig) func(pin int) color.NRGBA {
	m := map[int]color.NRGBA{}
	for _, f := range fixtures {
		if f.Kind != kindRGB {
			continue
		}
		t := screen1d.RGBTint(f.Pins[0], f.Pins[1], f.Pins[2])
		for _, p := range f.Pins {
			m[p] = t(p)
		}
	}
	return func(pin int) color.NRGBA {
		if c, ok := m[pin]; ok {
			return c
		}
		return color.NRGBA{255, 255, 255, 255}
	}
}

// Exitf prints the given error message and exits with code 1.
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"sort"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
)

// fixtureSet holds the fixtures set up on one controller.
type fixtureSet struct {
	leds map[string]*ledc.LED
	rgbs map[string]*ledc.RGBLED
}

// setupFixtures sets up every fixture in order and stops at the first
// failure.
func setupFixtures(c *ledc.Controller, cfgs []FixtureConfig) (*fixtureSet, error) {
	fs := &fixtureSet{leds: map[string]*ledc.LED{}, rgbs: map[string]*ledc.RGBLED{}}
	for _, f := range cfgs {
		switch f.Kind {
		case kindRGB:
			l, err := c.SetupRGBLED(ledc.RGBLEDConfig{
				Name:  f.Name,
				Red:   ledc.ChannelPin{Channel: ledc.Channel(f.Channels[0]), Pin: f.Pins[0]},
				Green: ledc.ChannelPin{Channel: ledc.Channel(f.Channels[1]), Pin: f.Pins[1]},
				Blue:  ledc.ChannelPin{Channel: ledc.Channel(f.Channels[2]), Pin: f.Pins[2]},
			})
			if err != nil {
				return fs, errors.Wrapf(err, "setting up %s", f.Name)
			}
			fs.rgbs[f.Name] = l
		default:
			l, err := c.SetupLED(ledc.LEDConfig{Name: f.Name, Channel: ledc.Channel(f.Channels[0]), Pin: f.Pins[0]})
			if err != nil {
				return fs, errors.Wrapf(err, "setting up %s", f.Name)
			}
			fs.leds[f.Name] = l
		}
	}
	return fs, nil
}

// names returns the fixture names, sorted.
func (fs *fixtureSet) names() []string {
	out := make([]string, 0, len(fs.leds)+len(fs.rgbs))
	for n := range fs.leds {
		out = append(out, n)
	}
	for n := range fs.rgbs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// set drives the named fixture. rgb is ignored for single LEDs.
func (fs *fixtureSet) set(name string, rgb uint32, brightness uint8) error {
	if l, ok := fs.leds[name]; ok {
		return maskAny(l.SetBrightness(brightness))
	}
	if l, ok := fs.rgbs[name]; ok {
		o := l.Apply(rgb, brightness)
		if o.Err != nil {
			if d := o.Desynchronized(); len(d) != 0 {
				return errors.Wrapf(o.Err, "%s left %v on the previous color", name, d)
			}
			return maskAny(o.Err)
		}
		return nil
	}
	return errors.Errorf("unknown fixture %q, have %v", name, fs.names())
}

// off turns every fixture off, continuing past failures.
func (fs *fixtureSet) off() error {
	var ae aerr.AggregateError
	for _, n := range fs.names() {
		if err := fs.set(n, 0, 0); err != nil {
			ae.Add(errors.Wrapf(err, "turning %s off", n))
		}
	}
	return ae.AsError()
}

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledc

import "fmt"

// LEDConfig describes a single dimmable LED.
type LEDConfig struct {
	// Name is used in log entries. Optional.
	Name    string
	Channel Channel
	Pin     int
}

// ChannelPin is one channel of a fixture and the pin it drives.
type ChannelPin struct {
	Channel Channel
	Pin     int
}

// RGBLEDConfig describes a three channel RGB LED. The three channels must be
// distinct.
type RGBLEDConfig struct {
	// Name is used in log entries. Optional.
	Name  string
	Red   ChannelPin
	Green ChannelPin
	Blue  ChannelPin
}

// LED is a dimmable LED on one channel.
type LED struct {
	c    *Controller
	name string
	cp   ChannelPin
}

// SetupLED configures the channel of a single LED.
func (c *Controller) SetupLED(cfg LEDConfig) (*LED, error) {
	log := c.opLog("setupLED", cfg.Name)
	log.Info().Int("pin", cfg.Pin).Msgf("setting up LED on pin %d", cfg.Pin)
	if err := c.SetupChannel(cfg.Channel, cfg.Pin); err != nil {
		log.Error().Err(err).Str("status", Name(err)).Msg("failed to set up LED")
		return nil, err
	}
	return &LED{c: c, name: cfg.Name, cp: ChannelPin{Channel: cfg.Channel, Pin: cfg.Pin}}, nil
}

func (l *LED) String() string {
	if l.name != "" {
		return l.name
	}
	return fmt.Sprintf("LED{%s, pin %d}", l.cp.Channel, l.cp.Pin)
}

// Channel returns the channel and pin of the LED.
func (l *LED) Channel() ChannelPin {
	return l.cp
}

// SetBrightness stages and commits the duty for brightness. When the commit
// fails, the new duty stays staged on the channel and the LED keeps the
// previous one.
func (l *LED) SetBrightness(brightness uint8) error {
	c := l.c
	log := c.opLog("setLED", l.name)
	duty := DutyFromBrightness(brightness, c.timer.Resolution)

	log.Debug().Uint32("duty", duty).Msg("setting LED duty")
	if err := c.d.SetDuty(c.timer.SpeedMode, l.cp.Channel, duty); err != nil {
		log.Warn().Err(err).Str("status", Name(err)).Msg("failed to set LED duty")
		return err
	}
	log.Debug().Msg("updating LED duty")
	if err := c.d.UpdateDuty(c.timer.SpeedMode, l.cp.Channel); err != nil {
		log.Warn().Err(err).Str("status", Name(err)).Msg("failed to update LED duty")
		return err
	}
	log.Info().Uint8("brightness", brightness).Msg("LED brightness set")
	return nil
}

// RGBLED is a three channel LED. Its channels are updated together: all
// three duties are staged before any is committed.
type RGBLED struct {
	c    *Controller
	name string
	cps  [3]ChannelPin
}

var rgbNames = [3]string{"red", "green", "blue"}

// SetupRGBLED configures the red, green and blue channels, in that order.
//
// It stops at the first failure and returns it. Channels configured before
// the failure stay configured, see Controller.Configured; the caller is
// expected to run the whole setup again.
func (c *Controller) SetupRGBLED(cfg RGBLEDConfig) (*RGBLED, error) {
	log := c.opLog("setupRGBLED", cfg.Name)
	log.Info().Int("red_pin", cfg.Red.Pin).Int("green_pin", cfg.Green.Pin).Int("blue_pin", cfg.Blue.Pin).
		Msgf("setting up RGB LED on pins R: %d, G: %d, B: %d", cfg.Red.Pin, cfg.Green.Pin, cfg.Blue.Pin)
	cps := [3]ChannelPin{cfg.Red, cfg.Green, cfg.Blue}
	for i, cp := range cps {
		if err := c.SetupChannel(cp.Channel, cp.Pin); err != nil {
			log.Error().Err(err).Str("status", Name(err)).Msgf("failed to set up %s channel", rgbNames[i])
			return nil, err
		}
	}
	return &RGBLED{c: c, name: cfg.Name, cps: cps}, nil
}

func (l *RGBLED) String() string {
	if l.name != "" {
		return l.name
	}
	return fmt.Sprintf("RGBLED{R %s, G %s, B %s}", l.cps[0].Channel, l.cps[1].Channel, l.cps[2].Channel)
}

// Channels returns the red, green and blue channels.
func (l *RGBLED) Channels() (red, green, blue ChannelPin) {
	return l.cps[0], l.cps[1], l.cps[2]
}

// ChannelOutcome is what happened to one channel during an RGBLED update.
type ChannelOutcome struct {
	Channel Channel
	// Duty is the value computed for the channel.
	Duty uint32
	// Staged is true once SetDuty succeeded.
	Staged bool
	// Committed is true once UpdateDuty succeeded.
	Committed bool
	// Err is the failure of this channel, if it is the one that failed.
	Err error
}

// RGBOutcome is the per channel result of RGBLED.Apply.
type RGBOutcome struct {
	// Channels holds the red, green and blue outcomes, in that order.
	Channels [3]ChannelOutcome
	// Err is the first failure, nil on success.
	Err error
}

// Desynchronized returns the channels that did not get the new duty
// committed. It is empty on success.
func (o *RGBOutcome) Desynchronized() []Channel {
	var out []Channel
	for _, c := range o.Channels {
		if !c.Committed {
			out = append(out, c.Channel)
		}
	}
	return out
}

// SetColor shows the packed 0xRRGGBB color at brightness. It returns the
// first failure; use Apply to see which channels were updated.
func (l *RGBLED) SetColor(rgb uint32, brightness uint8) error {
	o := l.Apply(rgb, brightness)
	return o.Err
}

// Apply shows the packed 0xRRGGBB color at brightness.
//
// The duties are staged on red, green and blue, then committed on red,
// green and blue. The sequence stops at the first failure without undoing
// what was already staged or committed. Between the first and the last
// commit the LED shows a mix of the old and the new color.
func (l *RGBLED) Apply(rgb uint32, brightness uint8) RGBOutcome {
	c := l.c
	log := c.opLog("setRGBLED", l.name)
	var o RGBOutcome
	r, g, b := SplitRGB(rgb)
	for i, comp := range [3]uint8{r, g, b} {
		o.Channels[i] = ChannelOutcome{
			Channel: l.cps[i].Channel,
			Duty:    DutyFromColorChannel(comp, brightness, c.timer.Resolution),
		}
	}

	log.Debug().Uint32("red", o.Channels[0].Duty).Uint32("green", o.Channels[1].Duty).Uint32("blue", o.Channels[2].Duty).
		Msg("setting RGB LED duty")
	for i := range o.Channels {
		ch := &o.Channels[i]
		if err := c.d.SetDuty(c.timer.SpeedMode, ch.Channel, ch.Duty); err != nil {
			log.Warn().Err(err).Str("status", Name(err)).Msgf("failed to set duty on %s channel", rgbNames[i])
			ch.Err = err
			o.Err = err
			return o
		}
		ch.Staged = true
	}

	log.Debug().Msg("updating RGB LED duty")
	for i := range o.Channels {
		ch := &o.Channels[i]
		if err := c.d.UpdateDuty(c.timer.SpeedMode, ch.Channel); err != nil {
			log.Warn().Err(err).Str("status", Name(err)).Msgf("failed to update duty on %s channel", rgbNames[i])
			ch.Err = err
			o.Err = err
			return o
		}
		ch.Committed = true
	}

	log.Info().Str("color", fmt.Sprintf("%06X", rgb&0xFFFFFF)).Uint8("brightness", brightness).Msg("RGB LED color set")
	return o
}

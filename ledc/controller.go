// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledc

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Opts represents the options available for a Controller.
type Opts struct {
	// Timer is the shared timer. The zero value selects DefaultTimerConfig.
	Timer TimerConfig
	// Logger receives one entry per step. Nil disables logging.
	Logger *zerolog.Logger

	_ struct{}
}

// Controller owns the shared timer of a PWM peripheral and configures its
// channels. Fixtures created from a Controller use its timer and speed mode.
type Controller struct {
	d     Driver
	timer TimerConfig
	log   zerolog.Logger

	// configured maps a channel to its pin once ConfigureChannel succeeded.
	configured map[Channel]int
}

// New returns a Controller driving d. opts may be nil.
//
// New does not touch the hardware; call SetupTimer before setting up any
// fixture.
func New(d Driver, opts *Opts) *Controller {
	c := &Controller{
		d:          d,
		timer:      DefaultTimerConfig(),
		log:        zerolog.Nop(),
		configured: map[Channel]int{},
	}
	if opts != nil {
		if opts.Timer != (TimerConfig{}) {
			c.timer = opts.Timer
		}
		if opts.Logger != nil {
			c.log = *opts.Logger
		}
	}
	return c
}

func (c *Controller) String() string {
	return fmt.Sprintf("ledc{%s, timer%d, %d bits, %s}", c.timer.SpeedMode, c.timer.Timer, c.timer.Resolution, c.timer.Frequency)
}

// TimerConfig returns the shared timer configuration.
func (c *Controller) TimerConfig() TimerConfig {
	return c.timer
}

// MaxDuty returns the duty of a fully lit channel.
func (c *Controller) MaxDuty() uint32 {
	return c.timer.Resolution.MaxDuty()
}

// SetupTimer configures the shared timer. Calling it again reconfigures the
// timer.
func (c *Controller) SetupTimer() error {
	log := c.opLog("setupTimer", "")
	cfg := c.timer
	if err := c.d.ConfigureTimer(&cfg); err != nil {
		log.Error().Err(err).Str("status", Name(err)).Msg("failed to set up PWM timer")
		return err
	}
	log.Debug().Str("freq", cfg.Frequency.String()).Uint8("bits", uint8(cfg.Resolution)).Msg("PWM timer configured")
	return nil
}

// SetupChannel binds ch to pin under the shared timer with the interrupt
// disabled and duty and phase at zero. Pin validity is left to the Driver.
func (c *Controller) SetupChannel(ch Channel, pin int) error {
	log := c.opLog("setupChannel", "")
	cfg := ChannelConfig{
		Pin:       pin,
		SpeedMode: c.timer.SpeedMode,
		Channel:   ch,
		Interrupt: IntrDisable,
		Timer:     c.timer.Timer,
	}
	log.Debug().Int("pin", pin).Str("channel", ch.String()).Msg("setting up PWM channel")
	if err := c.d.ConfigureChannel(&cfg); err != nil {
		log.Error().Err(err).Str("status", Name(err)).Int("pin", pin).Msg("failed to set up PWM channel")
		delete(c.configured, ch)
		return err
	}
	c.configured[ch] = pin
	return nil
}

// Configured reports whether the last SetupChannel of ch through this
// Controller succeeded, and the pin it was bound to. A fixture whose setup
// failed leaves the channels configured before the failure in place. Channels
// released by the Driver itself, e.g. on Close, are not tracked.
func (c *Controller) Configured(ch Channel) (int, bool) {
	pin, ok := c.configured[ch]
	return pin, ok
}

func (c *Controller) opLog(op, fixture string) zerolog.Logger {
	ctx := c.log.With().Str("op", op)
	if fixture != "" {
		ctx = ctx.Str("fixture", fixture)
	}
	return ctx.Logger()
}

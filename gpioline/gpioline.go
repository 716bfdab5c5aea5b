// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpioline implements an on/off ledc.Driver on top of the Linux GPIO
// character device, for LEDs wired to lines without PWM support.
//
// A committed duty greater than zero drives the line high, zero drives it
// low. The pin of a channel is the line offset on the chip.
package gpioline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
)

// DefaultChip is the GPIO character device used when Opts.Chip is empty.
const DefaultChip = "/dev/gpiochip0"

// Line is a requested output line.
type Line interface {
	SetValue(v int) error
	Close() error
}

// Opts represents the options available for this driver.
type Opts struct {
	// Chip defaults to DefaultChip.
	Chip string
	// Consumer labels the requested lines. Defaults to "ledfixtures".
	Consumer string
	// Open requests the line at the given offset as an output driven low.
	// Defaults to the GPIO character device of Chip.
	Open func(offset int) (Line, error)

	_ struct{}
}

type channelKey struct {
	mode ledc.SpeedMode
	ch   ledc.Channel
}

// held is a requested line and the offset it was requested at.
type held struct {
	pin int
	l   Line
}

// Dev is a set of GPIO lines driven as LEDC channels.
type Dev struct {
	mu     sync.Mutex
	chip   string
	open   func(offset int) (Line, error)
	closer func() error
	bank   ledc.Bank
	lines  map[channelKey]*held
}

// New returns a Dev. opts may be nil. The chip is opened on the first
// ConfigureChannel.
func New(opts *Opts) *Dev {
	d := &Dev{chip: DefaultChip, lines: map[channelKey]*held{}}
	consumer := "ledfixtures"
	if opts != nil {
		if opts.Chip != "" {
			d.chip = opts.Chip
		}
		if opts.Consumer != "" {
			consumer = opts.Consumer
		}
		d.open = opts.Open
	}
	if d.open == nil {
		d.open, d.closer = cdevOpener(d.chip, consumer)
	}
	return d
}

func (d *Dev) String() string {
	return "gpioline(" + d.chip + ")"
}

// Level returns the line value for duty.
func Level(duty uint32) int {
	if duty > 0 {
		return 1
	}
	return 0
}

// ConfigureTimer implements ledc.Driver. Lines have no timer, the
// configuration is only validated and recorded.
func (d *Dev) ConfigureTimer(cfg *ledc.TimerConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bank.ConfigureTimer(cfg)
}

// ConfigureChannel implements ledc.Driver.
//
// Rebinding a channel to another pin releases the line it held.
func (d *Dev) ConfigureChannel(cfg *ledc.ChannelConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.bank.ConfigureChannel(cfg)
	if err != nil {
		return err
	}
	k := channelKey{cfg.SpeedMode, cfg.Channel}
	h := d.lines[k]
	if h != nil && h.pin != cfg.Pin {
		_ = h.l.Close()
		delete(d.lines, k)
		h = nil
	}
	if h == nil {
		l, err := d.open(cfg.Pin)
		if err != nil {
			d.bank.Forget(cfg.SpeedMode, cfg.Channel)
			return ledc.Fail(fmt.Errorf("gpioline: line %d: %w", cfg.Pin, err))
		}
		h = &held{pin: cfg.Pin, l: l}
	}
	if err := h.l.SetValue(Level(s.Committed)); err != nil {
		_ = h.l.Close()
		delete(d.lines, k)
		d.bank.Forget(cfg.SpeedMode, cfg.Channel)
		return ledc.Fail(fmt.Errorf("gpioline: line %d: %w", cfg.Pin, err))
	}
	d.lines[k] = h
	return nil
}

// SetDuty implements ledc.Driver.
func (d *Dev) SetDuty(mode ledc.SpeedMode, ch ledc.Channel, duty uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.bank.SetDuty(mode, ch, duty)
	return err
}

// UpdateDuty implements ledc.Driver.
func (d *Dev) UpdateDuty(mode ledc.SpeedMode, ch ledc.Channel) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.bank.UpdateDuty(mode, ch)
	if err != nil {
		return err
	}
	if err := d.lines[channelKey{mode, ch}].l.SetValue(Level(s.Staged)); err != nil {
		return ledc.Fail(fmt.Errorf("gpioline: %w", err))
	}
	s.Commit()
	return nil
}

// Halt implements conn.Resource.
//
// It drives every line low.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for _, h := range d.lines {
		errs = append(errs, h.l.SetValue(0))
	}
	return errors.Join(errs...)
}

// Close releases the lines and the chip. The lines are left as they are, use
// Halt first to turn the LEDs off.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for k, h := range d.lines {
		errs = append(errs, h.l.Close())
		delete(d.lines, k)
		d.bank.Forget(k.mode, k.ch)
	}
	if d.closer != nil {
		errs = append(errs, d.closer())
	}
	return errors.Join(errs...)
}

var _ ledc.Driver = &Dev{}

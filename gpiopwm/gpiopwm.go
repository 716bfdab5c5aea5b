// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpiopwm implements ledc.Driver on top of GPIO pins that support
// hardware PWM, as exposed by the periph.io host drivers.
//
// Every channel drives one gpio.PinOut. A staged duty is converted to a
// gpio.Duty and pushed with PWM() when it is committed. Use host.Init()
// before New so the pins are registered.
package gpiopwm

import (
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
)

// Opts represents the options available for this driver.
type Opts struct {
	// ByNumber returns the pin with the given GPIO number, nil if there is
	// none. Defaults to looking the number up in gpioreg.
	ByNumber func(n int) gpio.PinIO
	// SourceClock bounds frequency*2^resolution of the timers. Zero disables
	// the check.
	SourceClock physic.Frequency

	_ struct{}
}

type channelKey struct {
	mode ledc.SpeedMode
	ch   ledc.Channel
}

// Dev is a set of PWM capable GPIO pins driven as LEDC channels.
type Dev struct {
	mu       sync.Mutex
	bank     ledc.Bank
	byNumber func(n int) gpio.PinIO
	pins     map[channelKey]gpio.PinOut
}

// New returns a Dev. opts may be nil.
func New(opts *Opts) *Dev {
	d := &Dev{
		byNumber: func(n int) gpio.PinIO { return gpioreg.ByName(strconv.Itoa(n)) },
		pins:     map[channelKey]gpio.PinOut{},
	}
	if opts != nil {
		if opts.ByNumber != nil {
			d.byNumber = opts.ByNumber
		}
		d.bank.SourceClock = opts.SourceClock
	}
	return d
}

func (d *Dev) String() string {
	return "gpiopwm"
}

// ConfigureTimer implements ledc.Driver.
func (d *Dev) ConfigureTimer(cfg *ledc.TimerConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bank.ConfigureTimer(cfg)
}

// ConfigureChannel implements ledc.Driver.
//
// It returns ledc.ErrInvalidArg when cfg.Pin is not a known GPIO.
func (d *Dev) ConfigureChannel(cfg *ledc.ChannelConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cfg == nil {
		return ledc.ErrInvalidArg
	}
	p := d.byNumber(cfg.Pin)
	if p == nil {
		return ledc.ErrInvalidArg
	}
	s, err := d.bank.ConfigureChannel(cfg)
	if err != nil {
		return err
	}
	if err := p.PWM(toDuty(s.Committed, s.MaxDuty()), s.Timer.Frequency); err != nil {
		d.bank.Forget(cfg.SpeedMode, cfg.Channel)
		return ledc.Fail(err)
	}
	d.pins[channelKey{cfg.SpeedMode, cfg.Channel}] = p
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
	p := d.pins[channelKey{mode, ch}]
	if err := p.PWM(toDuty(s.Staged, s.MaxDuty()), s.Timer.Frequency); err != nil {
		return ledc.Fail(err)
	}
	s.Commit()
	return nil
}

// Halt implements conn.Resource.
//
// It drives every configured pin low.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for _, p := range d.pins {
		if err := p.Out(gpio.Low); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// toDuty scales a duty counter value to a gpio.Duty.
func toDuty(duty, top uint32) gpio.Duty {
	if top == 0 {
		return 0
	}
	return gpio.Duty(uint64(duty) * uint64(gpio.DutyMax) / uint64(top))
}

var _ ledc.Driver = &Dev{}

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ledctest is meant to be used to test drivers and fixtures using the
// ledc package.
package ledctest

import (
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
)

// Op is the Driver method that was called.
type Op int

const (
	OpConfigureTimer Op = iota
	OpConfigureChannel
	OpSetDuty
	OpUpdateDuty
)

func (o Op) String() string {
	switch o {
	case OpConfigureTimer:
		return "ConfigureTimer"
	case OpConfigureChannel:
		return "ConfigureChannel"
	case OpSetDuty:
		return "SetDuty"
	case OpUpdateDuty:
		return "UpdateDuty"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// IO is one recorded Driver call.
type IO struct {
	Op      Op
	Mode    ledc.SpeedMode
	Channel ledc.Channel
	// Pin is set for OpConfigureChannel.
	Pin int
	// Duty is set for OpSetDuty and OpConfigureChannel.
	Duty uint32
	// Timer is set for OpConfigureTimer.
	Timer ledc.TimerConfig
	// Err is what the call returned.
	Err error
}

// Record implements ledc.Driver and records every call.
//
// It keeps the staged and committed duty of each channel the way the
// peripheral does, so tests can check what a LED would show.
type Record struct {
	sync.Mutex
	Ops []IO
	// FailAt makes the Nth call (1 based) return Err. Zero disables it.
	FailAt int
	// Err is returned by the FailAt call. Defaults to ledc.ErrFail.
	Err error
	// FailOn, when set, is called before each call; a non-nil return is
	// returned by the call instead of doing it.
	FailOn func(io IO) error

	bank ledc.Bank
}

func (r *Record) String() string {
	return "record"
}

// ConfigureTimer implements ledc.Driver.
func (r *Record) ConfigureTimer(cfg *ledc.TimerConfig) error {
	r.Lock()
	defer r.Unlock()
	io := IO{Op: OpConfigureTimer, Mode: cfg.SpeedMode, Timer: *cfg}
	return r.do(io, func() error {
		return r.bank.ConfigureTimer(cfg)
	})
}

// ConfigureChannel implements ledc.Driver.
func (r *Record) ConfigureChannel(cfg *ledc.ChannelConfig) error {
	r.Lock()
	defer r.Unlock()
	io := IO{Op: OpConfigureChannel, Mode: cfg.SpeedMode, Channel: cfg.Channel, Pin: cfg.Pin, Duty: cfg.Duty}
	return r.do(io, func() error {
		_, err := r.bank.ConfigureChannel(cfg)
		return err
	})
}

// SetDuty implements ledc.Driver.
func (r *Record) SetDuty(mode ledc.SpeedMode, ch ledc.Channel, duty uint32) error {
	r.Lock()
	defer r.Unlock()
	io := IO{Op: OpSetDuty, Mode: mode, Channel: ch, Duty: duty}
	return r.do(io, func() error {
		_, err := r.bank.SetDuty(mode, ch, duty)
		return err
	})
}

// UpdateDuty implements ledc.Driver.
func (r *Record) UpdateDuty(mode ledc.SpeedMode, ch ledc.Channel) error {
	r.Lock()
	defer r.Unlock()
	io := IO{Op: OpUpdateDuty, Mode: mode, Channel: ch}
	return r.do(io, func() error {
		s, err := r.bank.UpdateDuty(mode, ch)
		if err != nil {
			return err
		}
		s.Commit()
		return nil
	})
}

// Configured returns the configuration of a channel, if configured.
func (r *Record) Configured(mode ledc.SpeedMode, ch ledc.Channel) (ledc.ChannelConfig, bool) {
	r.Lock()
	defer r.Unlock()
	s, ok := r.bank.Channel(mode, ch)
	if !ok {
		return ledc.ChannelConfig{}, false
	}
	return s.Config, true
}

// Staged returns the staged duty of a channel.
func (r *Record) Staged(mode ledc.SpeedMode, ch ledc.Channel) (uint32, bool) {
	r.Lock()
	defer r.Unlock()
	s, ok := r.bank.Channel(mode, ch)
	if !ok {
		return 0, false
	}
	return s.Staged, true
}

// Committed returns the duty a channel is outputting.
func (r *Record) Committed(mode ledc.SpeedMode, ch ledc.Channel) (uint32, bool) {
	r.Lock()
	defer r.Unlock()
	s, ok := r.bank.Channel(mode, ch)
	if !ok {
		return 0, false
	}
	return s.Committed, true
}

// Count returns the number of calls recorded so far, failed ones included.
func (r *Record) Count() int {
	r.Lock()
	defer r.Unlock()
	return len(r.Ops)
}

func (r *Record) do(io IO, f func() error) error {
	var err error
	if r.FailAt != 0 && len(r.Ops)+1 == r.FailAt {
		err = r.Err
		if err == nil {
			err = ledc.ErrFail
		}
	} else if r.FailOn != nil {
		err = r.FailOn(io)
	}
	if err == nil {
		err = f()
	}
	io.Err = err
	r.Ops = append(r.Ops, io)
	return err
}

var _ ledc.Driver = &Record{}

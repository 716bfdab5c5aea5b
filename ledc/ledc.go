// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ledc drives LED fixtures from a PWM peripheral modelled after the
// ESP32 LED Control (LEDC) block: one shared timer, a handful of channels
// bound to GPIO pins, and a two step duty update where a duty value is first
// staged and then committed.
//
// A Controller owns the timer configuration and talks to the hardware through
// a Driver. Fixtures are built on top of it: an LED uses one channel, an
// RGBLED uses three. Brightness and color requests are converted to duty
// values in float32 and truncated, so they match the ESP-IDF LED firmware.
//
// Nothing in this package is safe for concurrent use. Callers that share a
// Controller between goroutines must serialize access themselves.
//
// # Datasheet
//
// https://www.espressif.com/sites/default/files/documentation/esp32_technical_reference_manual_en.pdf
package ledc

import (
	"strconv"

	"periph.io/x/conn/v3/physic"
)

// SpeedMode selects the LEDC channel group.
type SpeedMode uint8

const (
	HighSpeed SpeedMode = iota
	LowSpeed
	numSpeedModes
)

func (m SpeedMode) String() string {
	switch m {
	case HighSpeed:
		return "HighSpeed"
	case LowSpeed:
		return "LowSpeed"
	default:
		return "SpeedMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Timer identifies one of the timers of a speed mode group.
type Timer uint8

const (
	Timer0 Timer = iota
	Timer1
	Timer2
	Timer3
	NumTimers
)

// Channel identifies one PWM output of a speed mode group.
type Channel uint8

const (
	Channel0 Channel = iota
	Channel1
	Channel2
	Channel3
	Channel4
	Channel5
	Channel6
	Channel7
	NumChannels
)

func (c Channel) String() string {
	return "CH" + strconv.Itoa(int(c))
}

// Resolution is the duty resolution of a timer, in bits.
type Resolution uint8

const (
	Bits8  Resolution = 8
	Bits10 Resolution = 10
	Bits12 Resolution = 12
	Bits13 Resolution = 13
	Bits16 Resolution = 16
	// MaxResolution is the widest duty counter supported.
	MaxResolution Resolution = 20
)

// MaxDuty returns the duty value that keeps the output high for the whole
// period, 2^bits-1.
func (r Resolution) MaxDuty() uint32 {
	if r == 0 || r > MaxResolution {
		return 0
	}
	return 1<<r - 1
}

// ClockSource selects the clock feeding a timer.
type ClockSource uint8

const (
	// ClockAuto lets the driver pick a source that can produce the requested
	// frequency at the requested resolution.
	ClockAuto ClockSource = iota
	ClockAPB
	ClockRefTick
	ClockRC8M
)

// Interrupt selects the channel interrupt.
type Interrupt uint8

const (
	IntrDisable Interrupt = iota
	IntrFadeEnd
)

// APBFrequency is the clock used by ClockAuto and ClockAPB.
const APBFrequency = 80 * physic.MegaHertz

// TimerConfig is the configuration of the shared PWM timer.
type TimerConfig struct {
	SpeedMode  SpeedMode
	Timer      Timer
	Resolution Resolution
	Frequency  physic.Frequency
	Clock      ClockSource
}

// DefaultTimerConfig returns the timer used by every fixture: low speed
// group, timer 0, 13 bits and 4kHz with automatic clock selection.
func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		SpeedMode:  LowSpeed,
		Timer:      Timer0,
		Resolution: Bits13,
		Frequency:  4 * physic.KiloHertz,
		Clock:      ClockAuto,
	}
}

// ChannelConfig binds a channel to a pin and a timer.
type ChannelConfig struct {
	Pin       int
	SpeedMode SpeedMode
	Channel   Channel
	Interrupt Interrupt
	Timer     Timer
	// Duty is the initial duty.
	Duty uint32
	// HPoint is the counter value at which the output goes high.
	HPoint uint32
}

// Driver is the PWM peripheral. It mirrors the four LEDC primitives used by
// the fixtures. Every method returns nil on success or the driver's error,
// which the fixtures hand back to their caller unchanged.
type Driver interface {
	// ConfigureTimer programs a timer.
	ConfigureTimer(cfg *TimerConfig) error
	// ConfigureChannel binds a channel to a pin under an already configured
	// timer.
	ConfigureChannel(cfg *ChannelConfig) error
	// SetDuty stages a duty value on a channel. It takes effect on UpdateDuty.
	SetDuty(mode SpeedMode, ch Channel, duty uint32) error
	// UpdateDuty commits the staged duty value of a channel.
	UpdateDuty(mode SpeedMode, ch Channel) error
}

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledc

import "periph.io/x/conn/v3/physic"

// Bank keeps track of what a Driver has been told: the configured timers, the
// channels bound to them and the staged and committed duty of each channel.
// It performs the argument checks of the LEDC peripheral so Driver
// implementations only have to deal with their hardware.
//
// The zero value is ready to use.
type Bank struct {
	// SourceClock bounds frequency*2^resolution for ClockAuto and ClockAPB
	// timers. Zero disables the check.
	SourceClock physic.Frequency

	timers   map[timerKey]TimerConfig
	channels map[channelKey]*ChannelState
}

// ChannelState is the state of one configured channel.
type ChannelState struct {
	Config    ChannelConfig
	Timer     TimerConfig
	Staged    uint32
	Committed uint32
}

// MaxDuty returns the largest duty accepted by the channel.
func (s *ChannelState) MaxDuty() uint32 {
	return s.Timer.Resolution.MaxDuty()
}

// Commit marks the staged duty as committed. Call it once the hardware
// accepted the value.
func (s *ChannelState) Commit() {
	s.Committed = s.Staged
}

type timerKey struct {
	mode  SpeedMode
	timer Timer
}

type channelKey struct {
	mode SpeedMode
	ch   Channel
}

// ConfigureTimer validates cfg and records it.
func (b *Bank) ConfigureTimer(cfg *TimerConfig) error {
	if cfg == nil || cfg.SpeedMode >= numSpeedModes || cfg.Timer >= NumTimers {
		return ErrInvalidArg
	}
	if cfg.Resolution == 0 || cfg.Resolution > MaxResolution || cfg.Frequency <= 0 {
		return ErrInvalidArg
	}
	if b.SourceClock > 0 && (cfg.Clock == ClockAuto || cfg.Clock == ClockAPB) {
		// The divider must be at least 1.
		if b.SourceClock/physic.Frequency(uint64(1)<<cfg.Resolution) < cfg.Frequency {
			return ErrFail
		}
	}
	if b.timers == nil {
		b.timers = map[timerKey]TimerConfig{}
	}
	b.timers[timerKey{cfg.SpeedMode, cfg.Timer}] = *cfg
	for k, s := range b.channels {
		if k.mode == cfg.SpeedMode && s.Config.Timer == cfg.Timer {
			s.Timer = *cfg
		}
	}
	return nil
}

// Timer returns the configuration of a timer, if configured.
func (b *Bank) Timer(mode SpeedMode, t Timer) (TimerConfig, bool) {
	cfg, ok := b.timers[timerKey{mode, t}]
	return cfg, ok
}

// ConfigureChannel validates cfg against its timer and records it. The
// initial duty is both staged and committed.
func (b *Bank) ConfigureChannel(cfg *ChannelConfig) (*ChannelState, error) {
	if cfg == nil || cfg.SpeedMode >= numSpeedModes || cfg.Channel >= NumChannels || cfg.Pin < 0 {
		return nil, ErrInvalidArg
	}
	if cfg.Timer >= NumTimers || cfg.Interrupt > IntrFadeEnd {
		return nil, ErrInvalidArg
	}
	t, ok := b.timers[timerKey{cfg.SpeedMode, cfg.Timer}]
	if !ok {
		return nil, ErrInvalidState
	}
	if top := t.Resolution.MaxDuty(); cfg.Duty > top || cfg.HPoint > top {
		return nil, ErrInvalidArg
	}
	if b.channels == nil {
		b.channels = map[channelKey]*ChannelState{}
	}
	s := &ChannelState{Config: *cfg, Timer: t, Staged: cfg.Duty, Committed: cfg.Duty}
	b.channels[channelKey{cfg.SpeedMode, cfg.Channel}] = s
	return s, nil
}

// Channel returns the state of a configured channel.
func (b *Bank) Channel(mode SpeedMode, ch Channel) (*ChannelState, bool) {
	s, ok := b.channels[channelKey{mode, ch}]
	return s, ok
}

// Forget drops a channel, for a Driver whose hardware refused the
// configuration after ConfigureChannel accepted it.
func (b *Bank) Forget(mode SpeedMode, ch Channel) {
	delete(b.channels, channelKey{mode, ch})
}

// Channels returns the number of configured channels.
func (b *Bank) Channels() int {
	return len(b.channels)
}

// SetDuty stages duty on a configured channel.
func (b *Bank) SetDuty(mode SpeedMode, ch Channel, duty uint32) (*ChannelState, error) {
	s, err := b.lookup(mode, ch)
	if err != nil {
		return nil, err
	}
	if duty > s.MaxDuty() {
		return nil, ErrInvalidArg
	}
	s.Staged = duty
	return s, nil
}

// UpdateDuty returns the state of a configured channel so the caller can push
// its staged duty to the hardware and then Commit it.
func (b *Bank) UpdateDuty(mode SpeedMode, ch Channel) (*ChannelState, error) {
	return b.lookup(mode, ch)
}

func (b *Bank) lookup(mode SpeedMode, ch Channel) (*ChannelState, error) {
	if mode >= numSpeedModes || ch >= NumChannels {
		return nil, ErrInvalidArg
	}
	s, ok := b.channels[channelKey{mode, ch}]
	if !ok {
		return nil, ErrInvalidState
	}
	return s, nil
}

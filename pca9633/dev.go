// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// The PCA9633 is a four-channel LED PWM controller. This package exposes it
// as a ledc.Driver so LED and RGB LED fixtures can be wired to its outputs.
//
// The chip runs its own ~97kHz PWM with 8 bit registers. The timer
// frequency is therefore ignored and the timer resolution only sets the scale
// of the duty values, which are reduced to 8 bits when committed. The pin of
// a channel is the output number, 0 to 3.
//
// # Datasheet
//
// https://www.nxp.com/docs/en/data-sheet/PCA9633.pdf
package pca9633

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
)

type LEDStructure byte

const (
	// LEDs are connected in OpenDrain format
	STRUCT_OPENDRAIN LEDStructure = iota
	// LEDs are connected in TotemPole format.
	STRUCT_TOTEMPOLE
)

type LEDMode byte

const (
	MODE_FULL_OFF LEDMode = iota
	MODE_FULL_ON
	// The brightness of the LED is controlled by the PWM setting.
	MODE_PWM
	// The brightness of the LED is controlled by the PWM setting AND the group
	// PWM/blinking options.
	MODE_PWM_PLUS_GROUP
)

// NumOutputs is the number of LED outputs of the chip.
const NumOutputs = 4

const (
	// Register offsets from the datasheet
	_DEV_MODE1 byte = iota
	_DEV_MODE2
	_PWM0
	_PWM1
	_PWM2
	_PWM3
	_GRPPWM
	_GRPFREQ
	_LED_MODE
)

const (
	_DEV_MODE_TOTEM    byte = 0x08
	_DEV_MODE_INVERT   byte = 0x10
	_DEV_MODE2_DEFAULT byte = 0x05
	_DEV_MODE1_DEFAULT byte = 0x81
)

// Opts represents the options available for this device.
type Opts struct {
	Structure LEDStructure
	// Invert the outputs, for common anode LEDs driven without a transistor.
	Invert bool

	_ struct{}
}

type channelKey struct {
	mode ledc.SpeedMode
	ch   ledc.Channel
}

// Dev represents a PCA9633 LED PWM Controller.
type Dev struct {
	mu    sync.Mutex
	d     *i2c.Dev
	modes []LEDMode
	// bit settings for device mode register 2
	devMode2 byte

	bank    ledc.Bank
	outputs map[channelKey]int
}

// New returns an initialized PCA9633 device with all outputs off. opts may be
// nil.
func New(bus i2c.Bus, address uint16, opts *Opts) (*Dev, error) {
	dev := &Dev{d: &i2c.Dev{Bus: bus, Addr: address},
		modes:    make([]LEDMode, NumOutputs),
		devMode2: _DEV_MODE2_DEFAULT,
		outputs:  map[channelKey]int{},
	}
	if opts != nil {
		if opts.Structure == STRUCT_TOTEMPOLE {
			dev.devMode2 |= _DEV_MODE_TOTEM
		}
		if opts.Invert {
			dev.devMode2 |= _DEV_MODE_INVERT
		}
	}
	return dev, dev.init()
}

func (dev *Dev) init() error {
	// We have to write 0 to bit 4 to turn on the PWM oscillator...
	err := dev.d.Tx([]byte{_DEV_MODE1, _DEV_MODE1_DEFAULT}, nil)
	if err == nil {
		err = dev.d.Tx([]byte{_DEV_MODE2, dev.devMode2}, nil)
		if err == nil {
			err = dev.d.Tx([]byte{_LED_MODE, 0}, nil)
		}
	}
	return wrap(err)
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("pca9633: %w", err)
}

// ConfigureTimer implements ledc.Driver.
func (dev *Dev) ConfigureTimer(cfg *ledc.TimerConfig) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.bank.ConfigureTimer(cfg)
}

// ConfigureChannel implements ledc.Driver.
//
// It writes the initial duty to the output and switches it to MODE_PWM.
func (dev *Dev) ConfigureChannel(cfg *ledc.ChannelConfig) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if cfg == nil || cfg.Pin < 0 || cfg.Pin >= NumOutputs {
		return ledc.ErrInvalidArg
	}
	s, err := dev.bank.ConfigureChannel(cfg)
	if err != nil {
		return err
	}
	if err := dev.writePWM(cfg.Pin, s.Committed, s.MaxDuty()); err != nil {
		dev.bank.Forget(cfg.SpeedMode, cfg.Channel)
		return ledc.Fail(err)
	}
	modes := make([]LEDMode, len(dev.modes))
	copy(modes, dev.modes)
	modes[cfg.Pin] = MODE_PWM
	if err := dev.setModes(modes...); err != nil {
		dev.bank.Forget(cfg.SpeedMode, cfg.Channel)
		return ledc.Fail(err)
	}
	dev.outputs[channelKey{cfg.SpeedMode, cfg.Channel}] = cfg.Pin
	return nil
}

// SetDuty implements ledc.Driver. Nothing is sent to the chip until
// UpdateDuty.
func (dev *Dev) SetDuty(mode ledc.SpeedMode, ch ledc.Channel, duty uint32) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	_, err := dev.bank.SetDuty(mode, ch, duty)
	return err
}

// UpdateDuty implements ledc.Driver.
func (dev *Dev) UpdateDuty(mode ledc.SpeedMode, ch ledc.Channel) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	s, err := dev.bank.UpdateDuty(mode, ch)
	if err != nil {
		return err
	}
	if err := dev.writePWM(dev.outputs[channelKey{mode, ch}], s.Staged, s.MaxDuty()); err != nil {
		return ledc.Fail(err)
	}
	s.Commit()
	return nil
}

// writePWM writes duty, scaled from [0, top] to 8 bits, to an output.
func (dev *Dev) writePWM(output int, duty, top uint32) error {
	var v byte
	if top != 0 {
		v = byte(uint64(duty) * 0xff / uint64(top))
	}
	return wrap(dev.d.Tx([]byte{_PWM0 + byte(output), v}, nil))
}

// Halt stops all LED display by setting them all to MODE_FULL_OFF. Implements
// conn.Resource
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.setModes(MODE_FULL_OFF, MODE_FULL_OFF, MODE_FULL_OFF, MODE_FULL_OFF)
}

// SetInvert allows you to easily invert the meaning of the PWM values. This
// is useful if you're driving LEDs with a transistor or other device that
// inverts the output.
func (dev *Dev) SetInvert(invert bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	m := dev.devMode2 &^ _DEV_MODE_INVERT
	if invert {
		m |= _DEV_MODE_INVERT
	}
	if err := dev.d.Tx([]byte{_DEV_MODE2, m}, nil); err != nil {
		return wrap(err)
	}
	dev.devMode2 = m
	return nil
}

// SetModes sets the output mode of LEDs. The value for modes should be
// one of the LEDMode constants.
func (dev *Dev) SetModes(modes ...LEDMode) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.setModes(modes...)
}

// setModes writes LEDOUT when modes differ from the cached ones. The cache is
// only updated once the chip acknowledged the write.
func (dev *Dev) setModes(modes ...LEDMode) error {
	if len(modes) > NumOutputs {
		return wrap(ledc.ErrInvalidArg)
	}
	next := make([]LEDMode, NumOutputs)
	copy(next, dev.modes)
	copy(next, modes)
	var changed bool
	for i := 0; i < NumOutputs; i++ {
		changed = changed || (next[i] != dev.modes[i])
	}
	if !changed {
		return nil
	}
	var mode byte
	for i := 0; i < NumOutputs; i++ {
		mode |= (byte(next[i]) << (i * 2))
	}
	if err := dev.d.Tx([]byte{_LED_MODE, mode}, nil); err != nil {
		return wrap(err)
	}
	dev.modes = next
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("PCA9633::%#v", dev.d)
}

var _ ledc.Driver = &Dev{}

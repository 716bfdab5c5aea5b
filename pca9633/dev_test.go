// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pca9633

import (
	"bytes"
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
)

var recordingData = map[string][]i2ctest.IO{
	"TestRGBLED": {
		// New
		{Addr: 0x62, W: []uint8{0x0, 0x81}},
		{Addr: 0x62, W: []uint8{0x1, 0xd}},
		{Addr: 0x62, W: []uint8{0x8, 0x0}},
		// SetupRGBLED
		{Addr: 0x62, W: []uint8{0x2, 0x0}},
		{Addr: 0x62, W: []uint8{0x8, 0x2}},
		{Addr: 0x62, W: []uint8{0x3, 0x0}},
		{Addr: 0x62, W: []uint8{0x8, 0xa}},
		{Addr: 0x62, W: []uint8{0x4, 0x0}},
		{Addr: 0x62, W: []uint8{0x8, 0x2a}},
		// SetColor(0xFF8000, 255)
		{Addr: 0x62, W: []uint8{0x2, 0xff}},
		{Addr: 0x62, W: []uint8{0x3, 0x7f}},
		{Addr: 0x62, W: []uint8{0x4, 0x0}},
		// SetInvert
		{Addr: 0x62, W: []uint8{0x1, 0x1d}},
		{Addr: 0x62, W: []uint8{0x1, 0xd}},
		// Halt
		{Addr: 0x62, W: []uint8{0x8, 0x0}}},
	"TestLED": {
		{Addr: 0x60, W: []uint8{0x0, 0x81}},
		{Addr: 0x60, W: []uint8{0x1, 0x15}},
		{Addr: 0x60, W: []uint8{0x8, 0x0}},
		{Addr: 0x60, W: []uint8{0x5, 0x0}},
		{Addr: 0x60, W: []uint8{0x8, 0x80}},
		{Addr: 0x60, W: []uint8{0x5, 0x7f}}},
}

func TestRGBLED(t *testing.T) {
	bus := &i2ctest.Playback{Ops: recordingData["TestRGBLED"]}
	dev, err := New(bus, 0x62, &Opts{Structure: STRUCT_TOTEMPOLE})
	if err != nil {
		t.Fatal(err)
	}
	c := ledc.New(dev, nil)
	if err := c.SetupTimer(); err != nil {
		t.Fatal(err)
	}
	led, err := c.SetupRGBLED(ledc.RGBLEDConfig{
		Red:   ledc.ChannelPin{Channel: ledc.Channel0, Pin: 0},
		Green: ledc.ChannelPin{Channel: ledc.Channel1, Pin: 1},
		Blue:  ledc.ChannelPin{Channel: ledc.Channel2, Pin: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := led.SetColor(0xFF8000, 255); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetInvert(true); err != nil {
		t.Error(err)
	}
	if err := dev.SetInvert(false); err != nil {
		t.Error(err)
	}
	if s := dev.String(); len(s) == 0 {
		t.Error("empty string")
	}
	if err := dev.Halt(); err != nil {
		t.Error(err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestLED(t *testing.T) {
	bus := &i2ctest.Playback{Ops: recordingData["TestLED"]}
	dev, err := New(bus, 0x60, &Opts{Invert: true})
	if err != nil {
		t.Fatal(err)
	}
	c := ledc.New(dev, nil)
	if err := c.SetupTimer(); err != nil {
		t.Fatal(err)
	}
	led, err := c.SetupLED(ledc.LEDConfig{Channel: ledc.Channel5, Pin: 3})
	if err != nil {
		t.Fatal(err)
	}
	// 4111/8191 of 255 is 127.98.
	if err := led.SetBrightness(128); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestBadOutput(t *testing.T) {
	bus := &i2ctest.Playback{Ops: recordingData["TestLED"][:3]}
	dev, err := New(bus, 0x60, &Opts{Invert: true})
	if err != nil {
		t.Fatal(err)
	}
	c := ledc.New(dev, nil)
	if err := c.SetupTimer(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetupLED(ledc.LEDConfig{Channel: ledc.Channel0, Pin: NumOutputs}); err != ledc.ErrInvalidArg {
		t.Fatalf("err=%v", err)
	}
}

func TestBusError(t *testing.T) {
	bus := &i2ctest.Playback{Ops: recordingData["TestLED"][:3], DontPanic: true}
	dev, err := New(bus, 0x60, &Opts{Invert: true})
	if err != nil {
		t.Fatal(err)
	}
	c := ledc.New(dev, nil)
	if err := c.SetupTimer(); err != nil {
		t.Fatal(err)
	}
	_, err = c.SetupLED(ledc.LEDConfig{Channel: ledc.Channel0, Pin: 1})
	if !errors.Is(err, ledc.ErrFail) {
		t.Fatalf("err=%v", err)
	}
	if err := dev.SetDuty(ledc.LowSpeed, ledc.Channel0, 1); !errors.Is(err, ledc.ErrInvalidState) {
		t.Errorf("refused channel still configured: %v", err)
	}
}

func TestNewError(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	if _, err := New(bus, 0x60, nil); err == nil {
		t.Fatal("expected error")
	}
}

var errNACK = errors.New("nack")

// flakyBus fails the first write matching fail, then replays Ops.
type flakyBus struct {
	*i2ctest.Playback
	fail []byte
}

func (b *flakyBus) Tx(addr uint16, w, r []byte) error {
	if b.fail != nil && bytes.Equal(w, b.fail) {
		b.fail = nil
		return errNACK
	}
	return b.Playback.Tx(addr, w, r)
}

func TestModeRetryAfterNACK(t *testing.T) {
	bus := &flakyBus{
		Playback: &i2ctest.Playback{Ops: []i2ctest.IO{
			{Addr: 0x60, W: []uint8{0x0, 0x81}},
			{Addr: 0x60, W: []uint8{0x1, 0x5}},
			{Addr: 0x60, W: []uint8{0x8, 0x0}},
			// First SetupLED, LEDOUT is refused.
			{Addr: 0x60, W: []uint8{0x2, 0x0}},
			// Retry writes LEDOUT again.
			{Addr: 0x60, W: []uint8{0x2, 0x0}},
			{Addr: 0x60, W: []uint8{0x8, 0x2}},
			{Addr: 0x60, W: []uint8{0x2, 0xff}},
		}},
		fail: []byte{0x8, 0x2},
	}
	dev, err := New(bus, 0x60, nil)
	if err != nil {
		t.Fatal(err)
	}
	c := ledc.New(dev, nil)
	if err := c.SetupTimer(); err != nil {
		t.Fatal(err)
	}
	cfg := ledc.LEDConfig{Channel: ledc.Channel0, Pin: 0}
	if _, err := c.SetupLED(cfg); !errors.Is(err, ledc.ErrFail) || !errors.Is(err, errNACK) {
		t.Fatalf("err=%v", err)
	}
	led, err := c.SetupLED(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := led.SetBrightness(255); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestInvertRetryAfterNACK(t *testing.T) {
	bus := &flakyBus{
		Playback: &i2ctest.Playback{Ops: []i2ctest.IO{
			{Addr: 0x60, W: []uint8{0x0, 0x81}},
			{Addr: 0x60, W: []uint8{0x1, 0x5}},
			{Addr: 0x60, W: []uint8{0x8, 0x0}},
			{Addr: 0x60, W: []uint8{0x1, 0x15}},
		}},
		fail: []byte{0x1, 0x15},
	}
	dev, err := New(bus, 0x60, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.SetInvert(true); !errors.Is(err, errNACK) {
		t.Fatalf("err=%v", err)
	}
	if err := dev.SetInvert(true); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

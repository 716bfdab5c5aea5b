// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen1d implements a ledc.Driver that renders the channels to the
// terminal (stdout) using ANSI color codes.
//
// Useful while you are waiting for your LEDs to come by mail. Each configured
// channel is drawn as one block, tinted with the color assigned to its pin and
// scaled by the committed duty.
package screen1d

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sort"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
)

// Opts represents the options available for this display.
type Opts struct {
	// W defaults to colorable stdout.
	W       io.Writer
	Palette *ansi256.Palette
	// Tint returns the color of the LED on the given pin at full duty. It
	// defaults to white.
	Tint func(pin int) color.NRGBA

	_ struct{}
}

type channelKey struct {
	mode ledc.SpeedMode
	ch   ledc.Channel
}

// Dev is a LEDC emulator that outputs to the console.
type Dev struct {
	mu      sync.Mutex
	w       io.Writer
	palette ansi256.Palette
	tint    func(pin int) color.NRGBA

	bank ledc.Bank
	keys []channelKey
	buf  bytes.Buffer
}

// New returns a Dev that displays at the console. opts may be nil.
func New(opts *Opts) *Dev {
	d := &Dev{palette: *ansi256.Default, tint: white}
	if opts != nil {
		d.w = opts.W
		if opts.Palette != nil {
			d.palette = *opts.Palette
		}
		if opts.Tint != nil {
			d.tint = opts.Tint
		}
	}
	if d.w == nil {
		d.w = colorable.NewColorableStdout()
	}
	return d
}

// RGBTint returns a Tint that colors red, green and blue pins accordingly and
// any other pin white.
func RGBTint(red, green, blue int) func(pin int) color.NRGBA {
	return func(pin int) color.NRGBA {
		switch pin {
		case red:
			return color.NRGBA{R: 255, A: 255}
		case green:
			return color.NRGBA{G: 255, A: 255}
		case blue:
			return color.NRGBA{B: 255, A: 255}
		}
		return white(pin)
	}
}

func white(int) color.NRGBA {
	return color.NRGBA{255, 255, 255, 255}
}

func (d *Dev) String() string {
	return "Screen1D"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so it is not corrupted.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// ConfigureTimer implements ledc.Driver.
func (d *Dev) ConfigureTimer(cfg *ledc.TimerConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bank.ConfigureTimer(cfg)
}

// ConfigureChannel implements ledc.Driver.
func (d *Dev) ConfigureChannel(cfg *ledc.ChannelConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.bank.ConfigureChannel(cfg); err != nil {
		return err
	}
	k := channelKey{cfg.SpeedMode, cfg.Channel}
	i := sort.Search(len(d.keys), func(i int) bool { return !less(d.keys[i], k) })
	if i == len(d.keys) || d.keys[i] != k {
		d.keys = append(d.keys, channelKey{})
		copy(d.keys[i+1:], d.keys[i:])
		d.keys[i] = k
	}
	if err := d.refresh(); err != nil {
		d.bank.Forget(k.mode, k.ch)
		d.keys = append(d.keys[:i], d.keys[i+1:]...)
		return err
	}
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
	s.Commit()
	return d.refresh()
}

func less(a, b channelKey) bool {
	if a.mode != b.mode {
		return a.mode < b.mode
	}
	return a.ch < b.ch
}

// shade scales c by duty/top.
func shade(c color.NRGBA, duty, top uint32) color.NRGBA {
	if top == 0 {
		return color.NRGBA{A: 255}
	}
	f := func(v uint8) uint8 { return uint8(uint64(v) * uint64(duty) / uint64(top)) }
	return color.NRGBA{f(c.R), f(c.G), f(c.B), 255}
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for _, k := range d.keys {
		s, ok := d.bank.Channel(k.mode, k.ch)
		if !ok {
			continue
		}
		c := shade(d.tint(s.Config.Pin), s.Committed, s.MaxDuty())
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, err := d.buf.WriteTo(d.w)
	if err != nil {
		return ledc.Fail(err)
	}
	return nil
}

var _ ledc.Driver = &Dev{}
var _ fmt.Stringer = &Dev{}

// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package screen1d

import (
	"bytes"
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/maruel/ansi256"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
)

func frame(c ...color.NRGBA) string {
	s := "\r\033[0m"
	for _, v := range c {
		s += ansi256.Default.Block(v)
	}
	return s + "\033[0m "
}

func TestRGBLED(t *testing.T) {
	buf := &bytes.Buffer{}
	d := New(&Opts{W: buf, Tint: RGBTint(1, 2, 3)})
	c := ledc.New(d, nil)
	if err := c.SetupTimer(); err != nil {
		t.Fatal(err)
	}
	// Configured out of order to check the rendering order.
	led, err := c.SetupRGBLED(ledc.RGBLEDConfig{
		Red:   ledc.ChannelPin{Channel: ledc.Channel2, Pin: 1},
		Green: ledc.ChannelPin{Channel: ledc.Channel0, Pin: 2},
		Blue:  ledc.ChannelPin{Channel: ledc.Channel1, Pin: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	black := color.NRGBA{A: 255}
	if !strings.HasSuffix(buf.String(), frame(black, black, black)) {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if err := led.SetColor(0xFF8000, 255); err != nil {
		t.Fatal(err)
	}
	want := frame(color.NRGBA{G: 127, A: 255}, black, color.NRGBA{R: 255, A: 255})
	if !strings.HasSuffix(buf.String(), want) {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\n\033[0m") {
		t.Fatal("Halt() did not reset the colors")
	}
	if s := d.String(); s != "Screen1D" {
		t.Fatal(s)
	}
}

func TestLEDWhite(t *testing.T) {
	buf := &bytes.Buffer{}
	d := New(&Opts{W: buf})
	c := ledc.New(d, nil)
	if err := c.SetupTimer(); err != nil {
		t.Fatal(err)
	}
	led, err := c.SetupLED(ledc.LEDConfig{Channel: ledc.Channel4, Pin: 9})
	if err != nil {
		t.Fatal(err)
	}
	if err := led.SetBrightness(255); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), frame(color.NRGBA{255, 255, 255, 255})) {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestStaged(t *testing.T) {
	buf := &bytes.Buffer{}
	d := New(&Opts{W: buf})
	tc := ledc.DefaultTimerConfig()
	if err := d.ConfigureTimer(&tc); err != nil {
		t.Fatal(err)
	}
	if err := d.ConfigureChannel(&ledc.ChannelConfig{Pin: 4, SpeedMode: ledc.LowSpeed}); err != nil {
		t.Fatal(err)
	}
	n := buf.Len()
	if err := d.SetDuty(ledc.LowSpeed, ledc.Channel0, 100); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != n {
		t.Fatal("SetDuty rendered a frame")
	}
	if err := d.UpdateDuty(ledc.LowSpeed, ledc.Channel0); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == n {
		t.Fatal("UpdateDuty did not render")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestWriteError(t *testing.T) {
	d := New(&Opts{W: failWriter{}})
	c := ledc.New(d, nil)
	if err := c.SetupTimer(); err != nil {
		t.Fatal(err)
	}
	if err := c.SetupChannel(ledc.Channel0, 1); !errors.Is(err, ledc.ErrFail) {
		t.Fatalf("err=%v", err)
	}
}

func TestShade(t *testing.T) {
	c := color.NRGBA{200, 100, 50, 255}
	if got := shade(c, 0, 8191); got != (color.NRGBA{A: 255}) {
		t.Fatal(got)
	}
	if got := shade(c, 8191, 8191); got != c {
		t.Fatal(got)
	}
	if got := shade(c, 5, 0); got != (color.NRGBA{A: 255}) {
		t.Fatal(got)
	}
}

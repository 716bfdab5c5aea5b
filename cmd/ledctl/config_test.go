// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
)

const sample = `
driver: pca9633
i2c:
  address: 0x60
  totem_pole: true
timer:
  resolution: 8
  frequency_hz: 1000
fixtures:
  - name: status
    kind: rgb
    channels: [0, 1, 2]
    pins: [0, 1, 2]
  - name: power
    channels: [3]
    pins: [3]
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Driver != "pca9633" || cfg.I2C.Address != 0x60 || !cfg.I2C.Totem {
		t.Errorf("unexpected %+v", cfg)
	}
	if len(cfg.Fixtures) != 2 || cfg.Fixtures[1].Kind != kindLED {
		t.Fatalf("unexpected fixtures %+v", cfg.Fixtures)
	}
	tc, err := cfg.Timer.TimerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if tc.Resolution != ledc.Bits8 || tc.Frequency != physic.KiloHertz || tc.SpeedMode != ledc.LowSpeed {
		t.Errorf("unexpected timer %+v", tc)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("fixtures: [{name: a, channels: [0], pins: [5]}]"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Driver != "gpio" || cfg.I2C.Address != 0x62 {
		t.Errorf("unexpected %+v", cfg)
	}
	tc, err := cfg.Timer.TimerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if tc != ledc.DefaultTimerConfig() {
		t.Errorf("timer %+v", tc)
	}
}

func TestParseErrors(t *testing.T) {
	data := []struct {
		name string
		in   string
		want string
	}{
		{"yaml", "driver: [", "decoding YAML"},
		{"driver", "driver: spi", "driver \"spi\""},
		{"speed", "timer: {speed: medium}", "timer.speed"},
		{"timer", "timer: {timer: 4}", "timer.timer"},
		{"resolution", "timer: {resolution: 21}", "timer.resolution"},
		{"frequency", "timer: {frequency_hz: -1}", "timer.frequency_hz"},
		{"noname", "fixtures: [{channels: [0], pins: [1]}]", "name is required"},
		{"dup", "fixtures: [{name: a, channels: [0], pins: [1]}, {name: a, channels: [1], pins: [2]}]", "duplicate"},
		{"kind", "fixtures: [{name: a, kind: rgbw, channels: [0], pins: [1]}]", "not led|rgb"},
		{"count", "fixtures: [{name: a, kind: rgb, channels: [0], pins: [1]}]", "needs 3 channels"},
		{"channel", "fixtures: [{name: a, channels: [8], pins: [1]}]", "channel 8 out of range"},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			_, err := Parse([]byte(line.in))
			if err == nil || !strings.Contains(err.Error(), line.want) {
				t.Fatalf("err=%v want %q", err, line.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ledctl.yaml")
	if err := os.WriteFile(p, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p + ".missing"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseColor(t *testing.T) {
	data := []struct {
		in   string
		want uint32
	}{
		{"#ff8000", 0xFF8000},
		{"0xFF8000", 0xFF8000},
		{"00ff00", 0x00FF00},
		{"#f80", 0xFF8800},
		{"#000000", 0},
	}
	for _, line := range data {
		got, err := ParseColor(line.in)
		if err != nil {
			t.Fatalf("%s: %v", line.in, err)
		}
		if got != line.want {
			t.Errorf("%s: got %06X want %06X", line.in, got, line.want)
		}
	}
	for _, bad := range []string{"", "#ff80", "#gg0000", "#ff800000"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestLoadConfigFromFlags(t *testing.T) {
	cfg, err := loadConfig("", []int{25, 26, 27}, nil)
	if err != nil {
		t.Fatal(err)
	}
	f := cfg.Fixtures[0]
	if f.Kind != kindRGB || len(f.Channels) != 3 || f.Channels[2] != 2 {
		t.Errorf("unexpected fixture %+v", f)
	}
	if _, err := loadConfig("", nil, nil); err == nil {
		t.Error("expected error without pins")
	}
	if _, err := loadConfig("x.yaml", []int{1}, nil); err == nil {
		t.Error("expected error with both")
	}
	if _, err := loadConfig("", []int{1, 2}, nil); err == nil {
		t.Error("expected error with 2 pins")
	}
}

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sysfspwm implements ledc.Driver on top of the Linux PWM class,
// /sys/class/pwm.
//
// The pin of a channel is the PWM output index on the selected pwmchip. The
// output is exported on first use, its period is derived from the timer
// frequency and the committed duty is written to duty_cycle in nanoseconds.
//
// On a Raspberry Pi, enable the outputs with `dtoverlay=pwm-2chan` or
// equivalent.
package sysfspwm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
)

// DefaultBase is where the kernel exposes the PWM chips.
const DefaultBase = "/sys/class/pwm"

// Opts represents the options available for this driver.
type Opts struct {
	// Base defaults to DefaultBase.
	Base string
	// Chip selects pwmchipN. A negative value picks the first chip with at
	// least one output.
	Chip int

	_ struct{}
}

type channelKey struct {
	mode ledc.SpeedMode
	ch   ledc.Channel
}

type output struct {
	path     string
	periodNS uint64
}

// Dev is a pwmchip driven as LEDC channels.
type Dev struct {
	mu       sync.Mutex
	chipPath string
	npwm     int
	bank     ledc.Bank
	outputs  map[channelKey]*output
}

// openFlags is used to open attributes. Some sysfs attributes reject O_TRUNC.
var openFlags = os.O_WRONLY

// writeFile performs one attribute write.
var writeFile = writeOnce

// New opens a pwmchip. opts may be nil, in which case the first chip with
// outputs under DefaultBase is used.
func New(opts *Opts) (*Dev, error) {
	base, chip := DefaultBase, -1
	if opts != nil {
		if opts.Base != "" {
			base = opts.Base
		}
		chip = opts.Chip
	}
	var chipPath string
	var n int
	var err error
	if chip < 0 {
		chipPath, n, err = findChip(base)
	} else {
		chipPath = filepath.Join(base, "pwmchip"+strconv.Itoa(chip))
		n, err = readInt(filepath.Join(chipPath, "npwm"))
	}
	if err != nil {
		return nil, fmt.Errorf("sysfspwm: %w", err)
	}
	return &Dev{chipPath: chipPath, npwm: n, outputs: map[channelKey]*output{}}, nil
}

func findChip(base string) (string, int, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", 0, err
	}
	// pwmchipN entries are commonly symlinks, not directories.
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "pwmchip") {
			continue
		}
		p := filepath.Join(base, e.Name())
		if n, err := readInt(filepath.Join(p, "npwm")); err == nil && n > 0 {
			return p, n, nil
		}
	}
	return "", 0, fmt.Errorf("no pwmchip found in %s", base)
}

func (d *Dev) String() string {
	return "sysfspwm(" + d.chipPath + ")"
}

// ConfigureTimer implements ledc.Driver. The period is written to the
// outputs on the next UpdateDuty.
func (d *Dev) ConfigureTimer(cfg *ledc.TimerConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bank.ConfigureTimer(cfg)
}

// ConfigureChannel implements ledc.Driver.
//
// It returns ledc.ErrInvalidArg when cfg.Pin is not an output of the chip.
func (d *Dev) ConfigureChannel(cfg *ledc.ChannelConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cfg == nil || cfg.Pin < 0 || cfg.Pin >= d.npwm {
		return ledc.ErrInvalidArg
	}
	s, err := d.bank.ConfigureChannel(cfg)
	if err != nil {
		return err
	}
	o := &output{path: filepath.Join(d.chipPath, "pwm"+strconv.Itoa(cfg.Pin))}
	err = d.export(o, cfg.Pin)
	if err == nil {
		err = o.write(s.Committed, s)
	}
	if err != nil {
		d.bank.Forget(cfg.SpeedMode, cfg.Channel)
		return ledc.Fail(err)
	}
	d.outputs[channelKey{cfg.SpeedMode, cfg.Channel}] = o
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
	if err := d.outputs[channelKey{mode, ch}].write(s.Staged, s); err != nil {
		return ledc.Fail(err)
	}
	s.Commit()
	return nil
}

// Halt implements conn.Resource.
//
// It disables every configured output.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for _, o := range d.outputs {
		if err := writeAttr(filepath.Join(o.path, "enable"), "0"); err != nil && first == nil {
			first = fmt.Errorf("sysfspwm: %w", err)
		}
	}
	return first
}

func (d *Dev) export(o *output, n int) error {
	if _, err := os.Stat(o.path); err == nil {
		return nil
	}
	if err := writeAttr(filepath.Join(d.chipPath, "export"), strconv.Itoa(n)); err != nil {
		// Exported by someone else in the meantime.
		if _, statErr := os.Stat(o.path); statErr == nil {
			return nil
		}
		return fmt.Errorf("sysfspwm: export pwm%d: %w", n, err)
	}
	deadline := time.Now().Add(500 * time.Millisecond)
	for {
		_, err := os.Stat(o.path)
		if err == nil {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("sysfspwm: pwm%d not created after export: %w", n, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// write sets the output to duty, reprogramming the period first when the
// timer frequency changed.
func (o *output) write(duty uint32, s *ledc.ChannelState) error {
	period := uint64(s.Timer.Frequency.Period().Nanoseconds())
	if period == 0 {
		period = 1
	}
	if period != o.periodNS {
		// The kernel refuses a period shorter than the current duty_cycle,
		// which may have been left by a previous process.
		if err := o.attr("enable", "0"); err != nil {
			return err
		}
		if err := o.attr("duty_cycle", "0"); err != nil {
			return err
		}
		if err := o.attr("period", strconv.FormatUint(period, 10)); err != nil {
			return err
		}
		o.periodNS = period
	}
	if err := o.attr("duty_cycle", strconv.FormatUint(dutyNS(duty, s.MaxDuty(), period), 10)); err != nil {
		return err
	}
	return o.attr("enable", "1")
}

func (o *output) attr(name, value string) error {
	if err := writeAttr(filepath.Join(o.path, name), value); err != nil {
		return fmt.Errorf("sysfspwm: %w", err)
	}
	return nil
}

// dutyNS scales a duty counter value to nanoseconds of period.
func dutyNS(duty, top uint32, period uint64) uint64 {
	if top == 0 {
		return 0
	}
	return uint64(duty) * period / uint64(top)
}

// writeAttr writes value to a sysfs attribute. Right after an export udev may
// still be adjusting permissions, so EACCES, EPERM and ENOENT are retried
// briefly.
func writeAttr(path, value string) error {
	deadline := time.Now().Add(2 * time.Second)
	for {
		err := writeFile(path, value)
		if err == nil || !time.Now().Before(deadline) || !retryable(err) {
			return err
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func writeOnce(path, value string) error {
	f, err := os.OpenFile(path, openFlags, 0)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(value)
	return errors.Join(werr, f.Close())
}

func retryable(err error) bool {
	return errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.ENOENT)
}

func readInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(b)))
}

var _ ledc.Driver = &Dev{}

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build linux

package gpioline

import (
	"github.com/warthog618/go-gpiocdev"
)

// cdevOpener returns a function requesting lines of the chip at path, and
// one releasing the chip.
func cdevOpener(path, consumer string) (func(offset int) (Line, error), func() error) {
	var chip *gpiocdev.Chip
	open := func(offset int) (Line, error) {
		if chip == nil {
			c, err := gpiocdev.NewChip(path, gpiocdev.WithConsumer(consumer))
			if err != nil {
				return nil, err
			}
			chip = c
		}
		l, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	closer := func() error {
		if chip == nil {
			return nil
		}
		err := chip.Close()
		chip = nil
		return err
	}
	return open, closer
}

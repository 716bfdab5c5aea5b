// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux

package gpioline

import "errors"

func cdevOpener(path, consumer string) (func(offset int) (Line, error), func() error) {
	return func(int) (Line, error) {
		return nil, errors.New("gpio character device unsupported on this platform")
	}, nil
}

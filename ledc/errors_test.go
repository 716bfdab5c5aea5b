// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledc

import (
	"errors"
	"fmt"
	"testing"
)

func TestPeripheralError(t *testing.T) {
	if s := ErrInvalidArg.Error(); s != "ledc: ESP_ERR_INVALID_ARG" {
		t.Errorf("Error()=%q", s)
	}
	other := &PeripheralError{Code: 0x102, Name: "ESP_ERR_INVALID_ARG"}
	if !errors.Is(other, ErrInvalidArg) {
		t.Error("same code should match")
	}
	if errors.Is(ErrInvalidState, ErrInvalidArg) {
		t.Error("different codes should not match")
	}
	wrapped := fmt.Errorf("board: %w", ErrInvalidState)
	if !errors.Is(wrapped, ErrInvalidState) {
		t.Error("wrapped error lost its code")
	}
}

func TestFail(t *testing.T) {
	cause := errors.New("i2c: nack")
	err := Fail(cause)
	if !errors.Is(err, ErrFail) {
		t.Errorf("%v is not ErrFail", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("%v does not unwrap to the cause", err)
	}
	if s := err.Error(); s != "ledc: ESP_FAIL: i2c: nack" {
		t.Errorf("Error()=%q", s)
	}
}

func TestCodeName(t *testing.T) {
	data := []struct {
		err  error
		code int32
		name string
	}{
		{nil, 0, "ESP_OK"},
		{ErrFail, -1, "ESP_FAIL"},
		{ErrInvalidArg, 0x102, "ESP_ERR_INVALID_ARG"},
		{ErrInvalidState, 0x103, "ESP_ERR_INVALID_STATE"},
		{ErrNotSupported, 0x106, "ESP_ERR_NOT_SUPPORTED"},
		{fmt.Errorf("x: %w", ErrTimeout), 0x107, "ESP_ERR_TIMEOUT"},
		{errors.New("plain"), -1, "ESP_FAIL"},
	}
	for i, line := range data {
		if c := Code(line.err); c != line.code {
			t.Errorf("#%d: Code()=%#x want %#x", i, c, line.code)
		}
		if n := Name(line.err); n != line.name {
			t.Errorf("#%d: Name()=%q want %q", i, n, line.name)
		}
	}
}

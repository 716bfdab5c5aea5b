// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledc

import "errors"

// PeripheralError is a status code reported by a Driver. Two errors are
// equivalent for errors.Is when their codes match.
type PeripheralError struct {
	Code int32
	Name string
	// Err is the underlying cause, if any.
	Err error
}

// Status codes, named after the ESP-IDF error table.
var (
	ErrFail         = &PeripheralError{Code: -1, Name: "ESP_FAIL"}
	ErrNoMem        = &PeripheralError{Code: 0x101, Name: "ESP_ERR_NO_MEM"}
	ErrInvalidArg   = &PeripheralError{Code: 0x102, Name: "ESP_ERR_INVALID_ARG"}
	ErrInvalidState = &PeripheralError{Code: 0x103, Name: "ESP_ERR_INVALID_STATE"}
	ErrNotFound     = &PeripheralError{Code: 0x105, Name: "ESP_ERR_NOT_FOUND"}
	ErrNotSupported = &PeripheralError{Code: 0x106, Name: "ESP_ERR_NOT_SUPPORTED"}
	ErrTimeout      = &PeripheralError{Code: 0x107, Name: "ESP_ERR_TIMEOUT"}
)

func (e *PeripheralError) Error() string {
	if e.Err != nil {
		return "ledc: " + e.Name + ": " + e.Err.Error()
	}
	return "ledc: " + e.Name
}

func (e *PeripheralError) Unwrap() error {
	return e.Err
}

func (e *PeripheralError) Is(target error) bool {
	t, ok := target.(*PeripheralError)
	return ok && t.Code == e.Code
}

// Fail returns an ESP_FAIL status carrying err as its cause. Backends use it
// for bus or file errors that have no better code.
func Fail(err error) error {
	return &PeripheralError{Code: ErrFail.Code, Name: ErrFail.Name, Err: err}
}

// Code returns the status code of err: 0 for nil, the code of a
// PeripheralError, and ErrFail's code for anything else.
func Code(err error) int32 {
	if err == nil {
		return 0
	}
	var pe *PeripheralError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrFail.Code
}

// Name returns the status name of err, "ESP_OK" for nil.
func Name(err error) string {
	if err == nil {
		return "ESP_OK"
	}
	var pe *PeripheralError
	if errors.As(err, &pe) {
		return pe.Name
	}
	return ErrFail.Name
}

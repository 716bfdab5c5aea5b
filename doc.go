// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ledfixtures is a container for LED fixture drivers.
//
// The ledc package holds the PWM peripheral model and the LED and RGB LED
// fixtures. The other packages are backends implementing ledc.Driver:
// gpiopwm, pca9633, sysfspwm, gpioline and screen1d. cmd/ledctl drives
// fixtures from the command line.
package ledfixtures

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledc_test

import (
	"fmt"
	"log"
	"os"

	"github.com/rs/zerolog"

	"github.com/GermanBionicSystems/ledfixtures/ledc"
	"github.com/GermanBionicSystems/ledfixtures/ledc/ledctest"
)

func Example() {
	// Use a real backend like gpiopwm or pca9633 on hardware.
	drv := &ledctest.Record{}
	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	c := ledc.New(drv, &ledc.Opts{Logger: &logger})
	if err := c.SetupTimer(); err != nil {
		log.Fatal(err)
	}
	rgb, err := c.SetupRGBLED(ledc.RGBLEDConfig{
		Name:  "status",
		Red:   ledc.ChannelPin{Channel: ledc.Channel0, Pin: 1},
		Green: ledc.ChannelPin{Channel: ledc.Channel1, Pin: 2},
		Blue:  ledc.ChannelPin{Channel: ledc.Channel2, Pin: 3},
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := rgb.SetColor(0xFF8000, 255); err != nil {
		log.Fatal(err)
	}
	for _, ch := range []ledc.Channel{ledc.Channel0, ledc.Channel1, ledc.Channel2} {
		d, _ := drv.Committed(ledc.LowSpeed, ch)
		fmt.Printf("%s: %d\n", ch, d)
	}
	// Output:
	// CH0: 8191
	// CH1: 4111
	// CH2: 0
}

func ExampleDutyFromBrightness() {
	for _, b := range []uint8{0, 64, 128, 255} {
		fmt.Println(b, ledc.DutyFromBrightness(b, ledc.Bits13))
	}
	// Output:
	// 0 0
	// 64 2055
	// 128 4111
	// 255 8191
}

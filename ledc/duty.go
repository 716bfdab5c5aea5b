// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledc

import "image/color"

// DutyFromBrightness converts an 8 bit brightness to a duty value at the
// given resolution. The result is truncated, not rounded, so 128 maps to
// 4111 at 13 bits.
func DutyFromBrightness(brightness uint8, res Resolution) uint32 {
	return uint32(float32(brightness) / 255 * float32(res.MaxDuty()))
}

// DutyFromColorChannel converts one 8 bit color component, scaled by an 8 bit
// brightness, to a duty value at the given resolution.
//
// The component is scaled by brightness/255 and then by max/255, in float32,
// and truncated.
func DutyFromColorChannel(component, brightness uint8, res Resolution) uint32 {
	factor := float32(brightness) / 255
	return uint32(float32(component) * factor * float32(res.MaxDuty()) / 255)
}

// SplitRGB returns the components of a packed 0xRRGGBB color. Bits above the
// low 24 are ignored.
func SplitRGB(rgb uint32) (r, g, b uint8) {
	return uint8(rgb >> 16), uint8(rgb >> 8), uint8(rgb)
}

// PackRGB returns c as a packed 0xRRGGBB color. Alpha is dropped without
// premultiplying.
func PackRGB(c color.Color) uint32 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return uint32(n.R)<<16 | uint32(n.G)<<8 | uint32(n.B)
}

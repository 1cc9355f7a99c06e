// Package frame encodes temperatures into the display's wire format:
// three bytes, [temperature, 0x00, 0x00], temperature in whole degrees
// Celsius clamped to 0..100.
package frame

import "math"

const (
	Size           = 3
	MinTemperature = 0
	MaxTemperature = 100
)

// Frame is a single write to the display. It is a value type and is never
// modified after Encode returns it.
type Frame [Size]byte

// Encode rounds temp to the nearest integer, halves away from zero, and
// clamps it into the displayable range. NaN encodes as 0.
func Encode(temp float64) Frame {
	return Frame{byte(Clamp(temp)), 0x00, 0x00}
}

// Clamp returns the integer temperature Encode would put on the wire.
func Clamp(temp float64) int {
	if math.IsNaN(temp) {
		return MinTemperature
	}

	rounded := math.Round(temp)
	if rounded < MinTemperature {
		return MinTemperature
	}
	if rounded > MaxTemperature {
		return MaxTemperature
	}

	return int(rounded)
}

// Temperature returns the encoded temperature byte.
func (f Frame) Temperature() int {
	return int(f[0])
}

// Bytes returns a copy of the frame suitable for an endpoint write.
func (f Frame) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, f[:])

	return b
}

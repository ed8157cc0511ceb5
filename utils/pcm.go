// SPDX-License-Identifier: EPL-2.0

package utils

// FullScale returns the magnitude of the most negative value of signed PCM
// at the given bit depth. Unknown depths are treated as 16-bit.
func FullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128
	case 24:
		return 8388608
	case 32:
		return 2147483648
	default:
		return 32768
	}
}

// PCMToFloat scales a signed PCM value to [-1, 1).
func PCMToFloat(v, bitDepth int) float32 {
	return float32(v) / FullScale(bitDepth)
}

// FloatToPCM converts a sample to signed PCM at the given bit depth,
// clamping to [-1, 1] first. Positive full scale maps to the largest
// representable value so 1.0 never wraps.
func FloatToPCM(x float32, bitDepth int) int {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	scale := FullScale(bitDepth)
	if x >= 0 {
		return int(float64(x) * (float64(scale) - 1))
	}
	return int(float64(x) * float64(scale))
}

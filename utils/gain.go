// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// DBToLinear converts a gain in decibels to a linear amplitude factor.
func DBToLinear(db float64) float32 {
	return float32(math.Pow(10, db/20))
}

// LinearToDB converts a linear amplitude factor to decibels. Silence maps to
// negative infinity; the sign of g is ignored.
func LinearToDB(g float32) float64 {
	return 20 * math.Log10(math.Abs(float64(g)))
}

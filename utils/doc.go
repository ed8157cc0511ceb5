// SPDX-License-Identifier: EPL-2.0

// Package utils holds small sample and gain conversions shared by the
// decoders, the WAV writer and the configuration layer.
package utils

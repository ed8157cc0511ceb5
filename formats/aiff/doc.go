// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes uncompressed AIFF files with
// github.com/go-audio/aiff.
//
// # Supported Formats
//
//   - 8, 16, 24 and 32 bit big-endian PCM
//   - any channel count and sample rate
//
// AIFF-C compression is not supported.
//
// # Decoding
//
//	f, _ := os.Open("bass.aiff")
//	src, err := aiff.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//
// Samples are scaled by the full scale of their bit depth into [-1, 1).
//
// # Error Handling
//
//   - ErrNotAiffFile: the input has no valid FORM/AIFF header
//   - ErrUnsupportedBitDepth: the bit depth is not 8, 16, 24 or 32
//   - ErrUnsupportedAiffLayout: the header declares no channels
package aiff

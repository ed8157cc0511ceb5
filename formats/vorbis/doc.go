// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files with
// github.com/jfreymuth/oggvorbis.
//
// # Output Format
//
// Samples come out already in float32 at the stream's own rate and
// channel count; no conversion happens in this package.
//
// # Decoding
//
//	f, _ := os.Open("pad.ogg")
//	src, err := vorbis.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	mono, _ := audio.NewChannelSelector(src, audio.Downmix)
//
// Every read returns whole frames.
//
// # Error Handling
//
// Errors from the Ogg container or the Vorbis headers are returned
// wrapped. The end of the stream is io.EOF.
package vorbis

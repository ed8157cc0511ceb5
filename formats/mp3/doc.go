// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III files with
// github.com/hajimehoshi/go-mp3.
//
// # Output Format
//
// The decoder always yields two interleaved channels, even for mono
// files, at the file's own sample rate. Samples are 16-bit and scaled to
// [-1, 1).
//
// # Decoding
//
//	f, _ := os.Open("vocals.mp3")
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	left, _ := audio.NewChannelSelector(src, 0)
//
// Reads are not tied to MP3 frames: a sample split across two reads of
// the underlying decoder is carried over to the next ReadSamples call.
//
// # Error Handling
//
// Errors from go-mp3 (bad sync words, truncated headers) are returned
// wrapped. The end of the stream is io.EOF.
package mp3

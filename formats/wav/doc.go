// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes integer PCM WAV files on top of
// github.com/go-audio/wav.
//
// # Decoding
//
// Decoder accepts 8, 16, 24 and 32 bit PCM with any channel count and
// returns an audio.Source of interleaved float32 samples:
//
//	f, _ := os.Open("drums.wav")
//	src, err := wav.Decoder{}.Decode(f)
//
// The underlying decoder seeks. Readers that cannot seek are buffered in
// memory.
//
// # Writing
//
// Writer streams mono captures to disk block by block, which is how output
// ports are recorded during an offline render:
//
//	f, _ := os.Create("main.wav")
//	w, _ := wav.NewWriter(f, 48000, 24)
//	for block := range blocks {
//	    _ = w.Write(block)
//	}
//	_ = w.Close() // patches the header sizes
//	_ = f.Close()
//
// Samples are clamped to [-1, 1] on the way out; integer PCM has no room
// for anything louder. Writer supports 16 and 24 bit output. Close does
// not close the underlying file.
//
// # Error Handling
//
//   - ErrNotWavFile: no RIFF/WAVE header, or a file without samples
//   - ErrUnsupportedEncoding: a format tag other than integer PCM
//   - ErrUnsupportedBitDepth: a bit depth this package cannot convert
//   - ErrWriterClosed: Write after Close
//
// Check them with errors.Is; they are returned wrapped with detail.
package wav

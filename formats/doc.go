// SPDX-License-Identifier: EPL-2.0

// Package formats picks a decoder for an audio file by its extension.
//
// # Supported Formats
//
// The default registry knows:
//   - wav, wave: integer PCM, 8 to 32 bit (formats/wav)
//   - mp3: MPEG-1/2 Layer III (formats/mp3)
//   - ogg, oga: Ogg Vorbis (formats/vorbis)
//   - aif, aiff: uncompressed AIFF (formats/aiff)
//
// Extensions are matched without case, with or without the leading dot.
//
// # Opening Files
//
//	src, err := formats.Open("takes/vocals.wav")
//	if err != nil {
//	    return err
//	}
//	defer src.Close() // also closes the file
//
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// # Custom Registries
//
// Applications can add their own decoders. Anything with a
// Decode(io.Reader) (audio.Source, error) method will do:
//
//	reg := formats.Default()
//	reg.Register(myflac.Decoder{}, "flac")
//	src, err := reg.Open("room.flac")
//
// A Registry is safe for concurrent use; Extensions lists what it knows.
//
// # Error Handling
//
// Open returns ErrUnknownFormat for an extension nobody registered. File
// and decoder errors are wrapped, so the sentinels of the format packages
// (wav.ErrNotWavFile, aiff.ErrNotAiffFile, ...) and os.ErrNotExist work
// with errors.Is.
package formats

// SPDX-License-Identifier: EPL-2.0

// Package audio shapes decoded files into the mono streams that feed the
// input ports of a routing matrix.
//
// # Source Interface
//
// Every decoder in formats/ returns a Source:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Close() error
//	}
//
// Samples are interleaved float32 in [-1, 1]. ReadSamples counts values,
// not frames, and a read may stop in the middle of a frame. The last read
// may return data together with io.EOF.
//
// # Channel Selection
//
// A port carries one channel. ChannelSelector picks one channel of a file
// or, with Downmix, averages all of them:
//
//	left, err := audio.NewChannelSelector(src, 0)
//	mono, err := audio.NewChannelSelector(src, audio.Downmix)
//
// A partial frame left over by the source is held until the rest of it
// arrives, so channels never drift. Mono sources pass straight through.
//
// # Resampling
//
// Resampler brings a mono stream to the graph's sample rate with cubic
// (Catmull-Rom) interpolation. Equal rates are passed through unchanged;
// when downsampling a one-pole low-pass runs ahead of the interpolation:
//
//	rs, err := audio.NewResampler(mono, 48000)
//
// The output holds ceil(n * rate / sourceRate) samples for n input
// samples.
//
// # Feeding Ports
//
// Feed hands out blocks of exactly the requested size, padding with
// silence once the source runs dry:
//
//	feed, _ := audio.NewFeed(rs)
//	block := make([]float32, 256)
//	for {
//	    n, err := feed.Fill(block)
//	    if err == io.EOF {
//	        break
//	    }
//	    // block[:n] came from the file, block[n:] is silence
//	}
//
// # Building a Pipeline
//
// The stages compose in a fixed order, each one closing the one below it:
//
//	src, _ := formats.Open("guitar.ogg")       // interleaved, file rate
//	sel, _ := audio.NewChannelSelector(src, 1) // mono, file rate
//	rs, _ := audio.NewResampler(sel, 48000)    // mono, graph rate
//	feed, _ := audio.NewFeed(rs)               // fixed-size blocks
//	defer feed.Close()                         // closes the file too
//
// # Error Handling
//
// Constructors reject inputs they cannot serve:
//   - ErrNotMono: Resampler and Feed need a single channel
//   - ErrChannelRange: the selected channel does not exist
//   - ErrInvalidRate: the target sample rate is not positive
//
// Errors from the source are passed through wrapped; check them with
// errors.Is.
//
// # Performance
//
// ChannelSelector, Resampler and Feed do not allocate once their scratch
// buffers have grown to the largest read, so they are safe to call from a
// playback callback.
package audio

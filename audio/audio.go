// SPDX-License-Identifier: EPL-2.0

package audio

type Source interface {
	// SampleRate of the stream in Hz.
	SampleRate() int
	// Channels per frame (1 = mono).
	Channels() int
	// ReadSamples fills dst with interleaved samples in [-1, 1] and returns
	// the number of values written, not frames. The final read may return
	// data together with io.EOF.
	ReadSamples(dst []float32) (n int, err error)
	// Close releases the underlying decoder.
	Close() error
}

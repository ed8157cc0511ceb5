// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Downmix selects the average of all channels.
const Downmix = -1

// ChannelSelector turns an interleaved Source into a mono one, either by
// picking a single channel or by averaging all of them.
type ChannelSelector struct {
	src     Source
	channel int
	tmp     []float32
	keep    int // values of a partial frame held at the start of tmp
}

func NewChannelSelector(src Source, channel int) (*ChannelSelector, error) {
	if channel != Downmix && (channel < 0 || channel >= src.Channels()) {
		return nil, fmt.Errorf("%w: %d of %d", ErrChannelRange, channel, src.Channels())
	}
	return &ChannelSelector{
		src:     src,
		channel: channel,
		tmp:     make([]float32, 4096),
	}, nil
}

func (s *ChannelSelector) SampleRate() int { return s.src.SampleRate() }
func (s *ChannelSelector) Channels() int   { return 1 }

func (s *ChannelSelector) Close() error {
	if err := s.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *ChannelSelector) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	channels := s.src.Channels()
	if channels == 1 {
		return s.src.ReadSamples(dst)
	}

	need := len(dst) * channels
	if cap(s.tmp) < need {
		tmp := make([]float32, need)
		copy(tmp, s.tmp[:s.keep])
		s.tmp = tmp
	}
	s.tmp = s.tmp[:need]

	total := s.keep
	var err error
	for total < channels && err == nil {
		var n int
		n, err = s.src.ReadSamples(s.tmp[total:])
		total += n
		if n == 0 {
			break
		}
	}
	frames := total / channels
	s.mix(dst[:frames], channels)
	s.keep = copy(s.tmp, s.tmp[frames*channels:total])
	return frames, err
}

func (s *ChannelSelector) mix(dst []float32, channels int) {
	if s.channel != Downmix {
		for f := range dst {
			dst[f] = s.tmp[f*channels+s.channel]
		}
		return
	}

	if channels == 2 {
		for f := range dst {
			dst[f] = (s.tmp[2*f] + s.tmp[2*f+1]) * 0.5
		}
		return
	}
	inv := 1 / float32(channels)
	for f := range dst {
		var sum float32
		for _, v := range s.tmp[f*channels : (f+1)*channels] {
			sum += v
		}
		dst[f] = sum * inv
	}
}

// SPDX-License-Identifier: EPL-2.0

package audmatrix

import (
	"errors"
	"fmt"

	"github.com/ik5/audmatrix/audio"
	"github.com/ik5/audmatrix/formats"
)

// OpenFeed decodes path, picks channel (audio.Downmix averages all of
// them) and resamples the result to rate. Closing the feed closes the file.
func OpenFeed(path string, channel, rate int) (*audio.Feed, error) {
	src, err := formats.Open(path)
	if err != nil {
		return nil, err
	}

	sel, err := audio.NewChannelSelector(src, channel)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%s: %w", path, err), src.Close())
	}

	res, err := audio.NewResampler(sel, rate)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%s: %w", path, err), sel.Close())
	}

	feed, err := audio.NewFeed(res)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%s: %w", path, err), res.Close())
	}
	return feed, nil
}

// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrNotMono      = errors.New("source must be mono")
	ErrChannelRange = errors.New("channel index out of range")
	ErrInvalidRate  = errors.New("sample rate must be positive")
)

// SPDX-License-Identifier: EPL-2.0

package config

import (
	"fmt"
	"slices"

	"github.com/ik5/audmatrix/audio"
)

// Validate fills defaults and checks the configuration is consistent
func Validate(cfg *Config) error {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.BitDepth == 0 {
		cfg.BitDepth = DefaultBitDepth
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendRender
	}
	if cfg.ShutdownTimeoutS <= 0 {
		cfg.ShutdownTimeoutS = DefaultShutdownTimeout
	}

	if cfg.SampleRate < 0 {
		return invalid("sample_rate must be > 0, got %d", cfg.SampleRate)
	}
	if cfg.BlockSize < 0 {
		return invalid("block_size must be > 0, got %d", cfg.BlockSize)
	}
	if cfg.BitDepth != 16 && cfg.BitDepth != 24 {
		return invalid("bit_depth must be 16 or 24, got %d", cfg.BitDepth)
	}

	switch cfg.Backend {
	case BackendRender, BackendPortAudio, BackendOto:
	default:
		return invalid("unknown backend %q", cfg.Backend)
	}

	names := make(map[string]string)
	for _, group := range []struct {
		kind  string
		ports []Port
	}{{"inputs", cfg.Inputs}, {"outputs", cfg.Outputs}} {
		for i, p := range group.ports {
			if p.Name == "" {
				return invalid("%s[%d]: name is required", group.kind, i)
			}
			if prev, dup := names[p.Name]; dup {
				return invalid("%s[%d]: name %q already used in %s", group.kind, i, p.Name, prev)
			}
			names[p.Name] = group.kind
		}
	}

	if err := validateBindings(cfg); err != nil {
		return err
	}

	for i, r := range cfg.Routes {
		if names[r.From] != "inputs" {
			return invalid("routes[%d]: %q is not an input", i, r.From)
		}
		if names[r.To] != "outputs" {
			return invalid("routes[%d]: %q is not an output", i, r.To)
		}
		if r.Gain != nil && r.GainDB != nil {
			return invalid("routes[%d]: set gain or gain_db, not both", i)
		}
	}

	return nil
}

func validateBindings(cfg *Config) error {
	switch cfg.Backend {
	case BackendRender, BackendOto:
		for i, p := range cfg.Inputs {
			if p.File == "" {
				return invalid("inputs[%d] %q: file is required for the %s backend", i, p.Name, cfg.Backend)
			}
			if ch := p.ChannelOr(audio.Downmix); ch < audio.Downmix {
				return invalid("inputs[%d] %q: channel must be >= -1, got %d", i, p.Name, ch)
			}
		}
		if cfg.Backend == BackendOto {
			return uniqueChannels("outputs", cfg.Outputs)
		}
	case BackendPortAudio:
		if err := uniqueChannels("inputs", cfg.Inputs); err != nil {
			return err
		}
		return uniqueChannels("outputs", cfg.Outputs)
	}
	return nil
}

// uniqueChannels checks device channel assignments. A port without an
// explicit channel takes its position in the list.
func uniqueChannels(kind string, ports []Port) error {
	seen := make(map[int]string)
	for i, p := range ports {
		ch := p.ChannelOr(i)
		if ch < 0 {
			return invalid("%s[%d] %q: device channel must be >= 0, got %d", kind, i, p.Name, ch)
		}
		if other, dup := seen[ch]; dup {
			return invalid("%s[%d] %q: device channel %d already used by %q", kind, i, p.Name, ch, other)
		}
		seen[ch] = p.Name
	}
	return nil
}

// DeviceChannels lays out ports by device channel, as the live backends
// expect: index c names the port on channel c, "" marks a gap.
func DeviceChannels(ports []Port) []string {
	var out []string
	for i, p := range ports {
		ch := p.ChannelOr(i)
		for len(out) <= ch {
			out = append(out, "")
		}
		out[ch] = p.Name
	}
	return out
}

// Compatible reports whether next can be applied to a session started
// with cur without restarting the backend.
func Compatible(cur, next *Config) error {
	switch {
	case cur.Backend != next.Backend:
		return invalid("backend changed from %s to %s", cur.Backend, next.Backend)
	case cur.SampleRate != next.SampleRate:
		return invalid("sample_rate changed from %d to %d", cur.SampleRate, next.SampleRate)
	case cur.BlockSize != next.BlockSize:
		return invalid("block_size changed from %d to %d", cur.BlockSize, next.BlockSize)
	}

	if next.Backend == BackendPortAudio || next.Backend == BackendOto {
		if !slices.Equal(DeviceChannels(cur.Outputs), DeviceChannels(next.Outputs)) {
			return invalid("output device channels changed")
		}
	}
	if next.Backend == BackendPortAudio {
		if !slices.Equal(DeviceChannels(cur.Inputs), DeviceChannels(next.Inputs)) {
			return invalid("input device channels changed")
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	cfg, err := Load("testdata/session.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SampleRate != 44100 || cfg.BlockSize != 128 || cfg.BitDepth != 24 {
		t.Errorf("format = %d/%d/%d", cfg.SampleRate, cfg.BlockSize, cfg.BitDepth)
	}
	if cfg.ShutdownTimeoutS != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeoutS = %d, want default", cfg.ShutdownTimeoutS)
	}
	if len(cfg.Inputs) != 2 || len(cfg.Outputs) != 2 || len(cfg.Routes) != 3 {
		t.Fatalf("loaded %d inputs, %d outputs, %d routes", len(cfg.Inputs), len(cfg.Outputs), len(cfg.Routes))
	}
	if got := cfg.Inputs[1].ChannelOr(-1); got != 1 {
		t.Errorf("guitar channel = %d, want 1", got)
	}

	gains := []float32{cfg.Routes[0].Linear(), cfg.Routes[1].Linear(), cfg.Routes[2].Linear()}
	if gains[0] != 1 || gains[1] != 0.5 {
		t.Errorf("gains = %v", gains)
	}
	if math.Abs(float64(gains[2])-0.501187) > 1e-4 {
		t.Errorf("-6 dB gain = %v, want ~0.501", gains[2])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load("testdata/nope.yaml"); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("inputs: [{name: a, file: a.wav}]\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.SampleRate != DefaultSampleRate || cfg.BlockSize != DefaultBlockSize ||
		cfg.BitDepth != DefaultBitDepth || cfg.Backend != BackendRender {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"bad bit depth", "bit_depth: 12"},
		{"negative rate", "sample_rate: -1"},
		{"unknown backend", "backend: alsa"},
		{"unnamed port", "outputs: [{file: o.wav}]"},
		{"duplicate name", "inputs: [{name: a, file: a.wav}]\noutputs: [{name: a}]"},
		{"render input without file", "inputs: [{name: a}]"},
		{"channel below downmix", "inputs: [{name: a, file: a.wav, channel: -2}]"},
		{"route from output", "outputs: [{name: o}]\nroutes: [{from: o, to: o}]"},
		{"route to input", "inputs: [{name: a, file: a.wav}]\nroutes: [{from: a, to: a}]"},
		{"both gains", "inputs: [{name: a, file: a.wav}]\noutputs: [{name: o}]\nroutes: [{from: a, to: o, gain: 1, gain_db: 0}]"},
		{"device channel taken", "backend: portaudio\ninputs: [{name: a, channel: 0}, {name: b, channel: 0}]"},
		{"negative device channel", "backend: oto\noutputs: [{name: o, channel: -1}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestParse_BadYAML(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("inputs: [unterminated"))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("Parse() error = %v, want a YAML error", err)
	}
}

func TestDeviceChannels(t *testing.T) {
	t.Parallel()

	ch := func(n int) *int { return &n }
	ports := []Port{{Name: "left"}, {Name: "right", Channel: ch(3)}, {Name: "sub", Channel: ch(2)}}

	got := DeviceChannels(ports)
	want := []string{"left", "", "sub", "right"}
	if !slices.Equal(got, want) {
		t.Errorf("DeviceChannels() = %q, want %q", got, want)
	}
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		return &Config{
			Backend:    BackendOto,
			SampleRate: 48000,
			BlockSize:  256,
			Outputs:    []Port{{Name: "l"}, {Name: "r"}},
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"same", func(*Config) {}, true},
		{"new input", func(c *Config) { c.Inputs = []Port{{Name: "x", File: "x.wav"}} }, true},
		{"rate", func(c *Config) { c.SampleRate = 44100 }, false},
		{"block", func(c *Config) { c.BlockSize = 64 }, false},
		{"backend", func(c *Config) { c.Backend = BackendRender }, false},
		{"outputs swapped", func(c *Config) { c.Outputs[0], c.Outputs[1] = c.Outputs[1], c.Outputs[0] }, false},
		{"output added", func(c *Config) { c.Outputs = append(c.Outputs, Port{Name: "c"}) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			next := base()
			tt.modify(next)
			err := Compatible(base(), next)
			if tt.ok && err != nil {
				t.Errorf("Compatible() error = %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalid) {
				t.Errorf("Compatible() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestCompatible_RenderIgnoresLayout(t *testing.T) {
	t.Parallel()

	cur := &Config{Backend: BackendRender, SampleRate: 48000, BlockSize: 256, Outputs: []Port{{Name: "a"}}}
	next := &Config{Backend: BackendRender, SampleRate: 48000, BlockSize: 256, Outputs: []Port{{Name: "b"}}}
	if err := Compatible(cur, next); err != nil {
		t.Errorf("Compatible() error = %v", err)
	}
}

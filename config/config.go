// SPDX-License-Identifier: EPL-2.0

// Package config loads a routing session from YAML and applies it to a
// matrix.Graph.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ik5/audmatrix/utils"
	"gopkg.in/yaml.v3"
)

const (
	BackendRender    = "render"
	BackendPortAudio = "portaudio"
	BackendOto       = "oto"
)

const (
	DefaultSampleRate      = 48000
	DefaultBlockSize       = 256
	DefaultBitDepth        = 16
	DefaultShutdownTimeout = 5
)

var ErrInvalid = errors.New("invalid configuration")

// Config describes one routing session.
type Config struct {
	SampleRate       int     `yaml:"sample_rate"`
	BlockSize        int     `yaml:"block_size"`
	BitDepth         int     `yaml:"bit_depth"` // of rendered WAV files: 16 or 24
	Backend          string  `yaml:"backend"`   // render, portaudio, oto
	ShutdownTimeoutS int     `yaml:"shutdown_timeout_s"`
	Inputs           []Port  `yaml:"inputs"`
	Outputs          []Port  `yaml:"outputs"`
	Routes           []Route `yaml:"routes"`
}

// Port binds a named matrix port to a file or a device channel.
type Port struct {
	Name string `yaml:"name"`
	// File is decoded into an input port, or receives an output port's
	// capture when rendering.
	File string `yaml:"file,omitempty"`
	// Channel is the channel of File to read (-1 averages all of them),
	// or the device channel for live backends.
	Channel *int `yaml:"channel,omitempty"`
}

// ChannelOr returns the configured channel, or def when none was given.
func (p Port) ChannelOr(def int) int {
	if p.Channel == nil {
		return def
	}
	return *p.Channel
}

// Route connects two ports with a gain, given either linearly or in dB.
// With neither set the gain is unity.
type Route struct {
	From   string   `yaml:"from"`
	To     string   `yaml:"to"`
	Gain   *float32 `yaml:"gain,omitempty"`
	GainDB *float64 `yaml:"gain_db,omitempty"`
}

// Linear returns the route's gain as a linear factor.
func (r Route) Linear() float32 {
	switch {
	case r.Gain != nil:
		return *r.Gain
	case r.GainDB != nil:
		return utils.DBToLinear(*r.GainDB)
	default:
		return 1
	}
}

func (r Route) String() string {
	return fmt.Sprintf("%s -> %s", r.From, r.To)
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

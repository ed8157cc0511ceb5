// SPDX-License-Identifier: EPL-2.0

// Package audmatrix renders routing sessions offline.
//
// A session is described by a config.Config: named input and output ports,
// and routes between them with a linear gain. Render decodes every input
// file, brings it to the session rate, pushes it block by block through a
// matrix.Graph driven by the in-memory backend and writes each output port
// to a WAV file.
//
//	cfg, err := config.Load("session.yaml")
//	if err != nil {
//		return err
//	}
//	sum, err := audmatrix.Render(ctx, cfg, logger)
//
// The live backends (backend/portaudio, backend/oto) drive the same graph
// from a device callback; cmd/audmatrix wires them up.
//
// # Sessions
//
// A session file names the ports and the routes between them. Gains are
// linear unless given in dB:
//
//	sample_rate: 48000
//	block_size: 256
//	bit_depth: 24
//	backend: render
//
//	inputs:
//	  - name: vocals
//	    file: vocals.wav
//	  - name: guitar
//	    file: guitar.ogg
//	    channel: 1      # -1 or unset averages every channel
//
//	outputs:
//	  - name: main
//	    file: main.wav
//
//	routes:
//	  - from: vocals
//	    to: main
//	  - from: guitar
//	    to: main
//	    gain_db: -6
//
// # Rendering
//
// Render reads every input through OpenFeed: the file is decoded, one
// channel is picked, and the result is resampled to the session rate. It
// then mixes block by block until the longest input is drained; the last
// block is trimmed so outputs are exactly as long as that input. Outputs
// are written in parallel. The returned Summary carries a session id, the
// block and frame counts and the written files.
//
// Render stops at the next block boundary when ctx is cancelled; nothing
// is written in that case.
//
// # Packages
//
//   - matrix: the routing graph and its real-time Process loop
//   - audio: sources, channel selection, resampling and block feeds
//   - formats: decoders for WAV, MP3, Ogg Vorbis and AIFF, and a WAV writer
//   - config: YAML sessions, validation and live reconciliation
//   - backend/memory, backend/portaudio, backend/oto: audio backends
package audmatrix

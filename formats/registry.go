// SPDX-License-Identifier: EPL-2.0

package formats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/ik5/audmatrix/audio"
	"github.com/ik5/audmatrix/formats/aiff"
	"github.com/ik5/audmatrix/formats/mp3"
	"github.com/ik5/audmatrix/formats/vorbis"
	"github.com/ik5/audmatrix/formats/wav"
)

var ErrUnknownFormat = errors.New("no decoder for file extension")

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (audio.Source, error)
}

// Registry maps lower-case file extensions, without the dot, to decoders.
type Registry struct {
	mtx    sync.RWMutex
	codecs map[string]Decoder
}

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// Default returns a registry with every decoder this module ships.
func Default() *Registry {
	r := NewRegistry()
	r.Register(wav.Decoder{}, "wav", "wave")
	r.Register(mp3.Decoder{}, "mp3")
	r.Register(vorbis.Decoder{}, "ogg", "oga")
	r.Register(aiff.Decoder{}, "aif", "aiff")
	return r
}

func (r *Registry) Register(d Decoder, exts ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, ext := range exts {
		r.codecs[normalize(ext)] = d
	}
}

func (r *Registry) Get(ext string) (Decoder, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	d, ok := r.codecs[normalize(ext)]
	return d, ok
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	exts := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Open picks a decoder by the extension of path and decodes the file.
// Closing the returned Source closes the file.
func (r *Registry) Open(path string) (audio.Source, error) {
	d, ok := r.Get(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	src, err := d.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &fileSource{Source: src, f: f}, nil
}

// Open decodes path with the Default registry.
func Open(path string) (audio.Source, error) {
	return Default().Open(path)
}

type fileSource struct {
	audio.Source
	f *os.File
}

func (s *fileSource) Close() error {
	return errors.Join(s.Source.Close(), s.f.Close())
}

func normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

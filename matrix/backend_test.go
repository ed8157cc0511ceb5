// SPDX-License-Identifier: EPL-2.0

package matrix

import "errors"

var errFakeBackend = errors.New("fake backend failure")

// fakeBackend keeps one buffer per token. It is only used from a single
// goroutine in the internal tests.
type fakeBackend struct {
	bufs         map[PortToken][]float32
	next         PortToken
	unregistered []PortToken
	failRegister bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{bufs: make(map[PortToken][]float32)}
}

func (f *fakeBackend) RegisterPort(name string, dir Direction) (PortToken, error) {
	if f.failRegister {
		return 0, errFakeBackend
	}
	tok := f.next
	f.next++
	f.bufs[tok] = make([]float32, 64)
	return tok, nil
}

func (f *fakeBackend) BlockBuffer(tok PortToken, frames int) []float32 {
	buf, ok := f.bufs[tok]
	if !ok || frames > len(buf) {
		return nil
	}
	return buf[:frames]
}

func (f *fakeBackend) UnregisterPort(tok PortToken) error {
	if _, ok := f.bufs[tok]; !ok {
		return errFakeBackend
	}
	delete(f.bufs, tok)
	f.unregistered = append(f.unregistered, tok)
	return nil
}

// fill sets every sample of a token's buffer to v.
func (f *fakeBackend) fill(tok PortToken, v float32) {
	for i := range f.bufs[tok] {
		f.bufs[tok][i] = v
	}
}

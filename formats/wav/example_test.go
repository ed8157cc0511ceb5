// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"fmt"
	"os"

	"github.com/ik5/audmatrix/formats/wav"
)

// Example_writeAndDecode streams a capture to disk and reads it back.
func Example_writeAndDecode() {
	f, err := os.CreateTemp("", "capture-*.wav")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.Remove(f.Name())
	defer f.Close()

	w, _ := wav.NewWriter(f, 48000, 16)
	_ = w.Write([]float32{0, 0.5, -0.5, 0.25})
	_ = w.Close()

	_, _ = f.Seek(0, 0)
	src, err := wav.Decoder{}.Decode(f)
	if err != nil {
		fmt.Println(err)
		return
	}

	buf := make([]float32, 8)
	n, _ := src.ReadSamples(buf)
	fmt.Println(src.SampleRate(), src.Channels(), buf[:n])
	// Output: 48000 1 [0 0.49996948 -0.5 0.24996948]
}

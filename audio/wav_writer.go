// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

import "io"

// WavWriter streams PCM into a seekable destination as a WAV file. The
// header goes out before the first data write with a zero data size and
// is rewritten with the real size on Close, so the writer never needs to
// know the stream length up front.
type WavWriter struct {
	Format WavFormat

	dst      io.WriteSeeker
	dataSize int64
	started  bool
}

// NewWavWriter builds a writer emitting format-shaped PCM into w.
func NewWavWriter(w io.WriteSeeker, format WavFormat) *WavWriter {
	return &WavWriter{Format: format, dst: w}
}

// Write appends raw PCM to the data chunk, emitting the header first if
// this is the initial write.
func (w *WavWriter) Write(pcm []byte) (int, error) {
	if !w.started {
		h := w.Format.header(0)
		if _, err := w.dst.Write(h[:]); err != nil {
			return 0, err
		}
		w.started = true
	}
	n, err := w.dst.Write(pcm)
	w.dataSize += int64(n)
	return n, err
}

// Close seeks back to the start and rewrites the header with the final
// data size. The underlying WriteSeeker is left open; it belongs to the
// caller.
func (w *WavWriter) Close() error {
	if !w.started {
		h := w.Format.header(0)
		_, err := w.dst.Write(h[:])
		return err
	}
	if _, err := w.dst.Seek(0, io.SeekStart); err != nil {
		return err
	}
	h := w.Format.header(w.dataSize)
	_, err := w.dst.Write(h[:])
	return err
}

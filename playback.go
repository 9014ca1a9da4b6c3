// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import (
	"fmt"
	"io"

	"github.com/sipdial/rtpengine/audio"
)

// WavSource decodes a 16-bit mono 8kHz WAV file into µ-law PCM on demand,
// so a WAV prompt can serve as a `readfrom` source for a playback session
// alongside the primary raw headerless µ-law file contract. It is
// read in samples_per_packet-sized pulls by the session's send loop, the
// same shape as reading directly from a raw µ-law file.
type WavSource struct {
	dec     *audio.WavReader
	oddByte []byte
}

// NewWavSource parses the WAV headers from r and returns a source ready
// to be read. Only 16-bit mono PCM at 8 kHz is supported, matching the
// engine's single negotiated clock rate.
func NewWavSource(r io.Reader) (*WavSource, error) {
	dec := audio.NewWavReader(r)
	if err := dec.ReadHeaders(); err != nil {
		return nil, fmt.Errorf("wav source: %w", err)
	}
	if dec.BitsPerSample != 16 {
		return nil, fmt.Errorf("wav source: only 16-bit PCM supported, got %d", dec.BitsPerSample)
	}
	if dec.NumChannels != 1 {
		return nil, fmt.Errorf("wav source: only mono supported, got %d channels", dec.NumChannels)
	}
	if dec.SampleRate != 8000 {
		return nil, fmt.Errorf("wav source: only 8kHz supported, got %d", dec.SampleRate)
	}
	return &WavSource{dec: dec}, nil
}

// Read fills b with up to len(b) µ-law encoded samples decoded from the
// underlying WAV PCM data. Short reads (including at end of file) are
// returned as-is; the caller's playback loop already handles partial
// reads and EOF.
func (w *WavSource) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	pcm := make([]byte, len(b)*2)
	offset := copy(pcm, w.oddByte)
	w.oddByte = nil

	n, err := w.dec.Read(pcm[offset:])
	total := offset + n
	if total < 2 {
		return 0, err
	}

	usable := total - total%2
	if total%2 == 1 {
		w.oddByte = append(w.oddByte, pcm[usable])
	}

	encoded, encErr := audio.EncodeUlawTo(b, pcm[:usable])
	if encErr != nil {
		return 0, encErr
	}
	return encoded, err
}

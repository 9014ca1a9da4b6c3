// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

import (
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

// WavReader pulls raw PCM out of a WAV stream, skipping every chunk that
// is not "fmt " or "data". After ReadHeaders the format fields describe
// what the data chunk carries.
type WavReader struct {
	SampleRate    uint32
	NumChannels   uint16
	BitsPerSample uint16
	DataSize      int

	parser *riff.Parser
	data   *riff.Chunk
}

// NewWavReader wraps r; call ReadHeaders before the first Read.
func NewWavReader(r io.Reader) *WavReader {
	return &WavReader{parser: riff.New(r)}
}

// ReadHeaders consumes the RIFF headers and the fmt chunk, then seeks
// forward to the data chunk so Read can stream PCM out of it.
func (r *WavReader) ReadHeaders() error {
	if err := r.parser.ParseHeaders(); err != nil {
		return fmt.Errorf("wav: parsing riff headers: %w", err)
	}

	if err := r.nextChunk(riff.FmtID); err != nil {
		return err
	}
	r.SampleRate = r.parser.SampleRate
	r.NumChannels = r.parser.NumChannels
	r.BitsPerSample = r.parser.BitsPerSample

	return r.seekData()
}

// nextChunk drains chunks until one with the wanted ID, which for FmtID
// is also decoded into the parser's format fields.
func (r *WavReader) nextChunk(id [4]byte) error {
	for {
		chunk, err := r.parser.NextChunk()
		if err != nil {
			return fmt.Errorf("wav: seeking chunk %q: %w", id[:], err)
		}
		if chunk.ID != id {
			chunk.Drain()
			continue
		}
		if id == riff.FmtID {
			return chunk.DecodeWavHeader(r.parser)
		}
		r.data = chunk
		r.DataSize = chunk.Size
		return nil
	}
}

func (r *WavReader) seekData() error {
	if r.data != nil {
		return nil
	}
	return r.nextChunk(riff.DataFormatID)
}

// Read streams raw PCM from the data chunk.
func (r *WavReader) Read(buf []byte) (int, error) {
	if err := r.seekData(); err != nil {
		return 0, err
	}
	return r.data.Read(buf)
}

// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

import "encoding/binary"

// wavHeaderSize is the canonical RIFF/WAVE header length: "RIFF" chunk,
// 16-byte "fmt " subchunk, "data" subchunk header.
const wavHeaderSize = 44

// WavFormat describes the PCM layout of a WAV file's data chunk.
type WavFormat struct {
	SampleRate    int
	BitsPerSample int
	NumChannels   int
}

// WavFormatVoip is the format every call-facing WAV in this engine uses
// for a single stream: 16-bit linear PCM at the RTP clock rate.
var WavFormatVoip = WavFormat{SampleRate: 8000, BitsPerSample: 16, NumChannels: 1}

func (f WavFormat) blockAlign() int {
	return f.BitsPerSample * f.NumChannels / 8
}

// header lays out the 44-byte RIFF/WAVE header for a data chunk of
// dataSize bytes. Format tag is always 1 (uncompressed PCM).
func (f WavFormat) header(dataSize int64) [wavHeaderSize]byte {
	var h [wavHeaderSize]byte

	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(dataSize+wavHeaderSize-8))
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1)
	binary.LittleEndian.PutUint16(h[22:24], uint16(f.NumChannels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(f.SampleRate*f.blockAlign()))
	binary.LittleEndian.PutUint16(h[32:34], uint16(f.blockAlign()))
	binary.LittleEndian.PutUint16(h[34:36], uint16(f.BitsPerSample))

	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataSize))
	return h
}

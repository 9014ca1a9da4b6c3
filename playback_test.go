// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestWav(samples []int16) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	dataSize := len(samples) * 2
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], uint32(36+dataSize))
	buf.Write(sz[:])
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.LittleEndian.PutUint32(sz[:], 16)
	buf.Write(sz[:])
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], 1) // PCM
	buf.Write(u16[:])
	binary.LittleEndian.PutUint16(u16[:], 1) // mono
	buf.Write(u16[:])
	binary.LittleEndian.PutUint32(sz[:], 8000) // sample rate
	buf.Write(sz[:])
	binary.LittleEndian.PutUint32(sz[:], 8000*2) // byte rate
	buf.Write(sz[:])
	binary.LittleEndian.PutUint16(u16[:], 2) // block align
	buf.Write(u16[:])
	binary.LittleEndian.PutUint16(u16[:], 16) // bits per sample
	buf.Write(u16[:])

	buf.WriteString("data")
	binary.LittleEndian.PutUint32(sz[:], uint32(dataSize))
	buf.Write(sz[:])
	for _, s := range samples {
		binary.LittleEndian.PutUint16(u16[:], uint16(s))
		buf.Write(u16[:])
	}
	return buf.Bytes()
}

func TestWavSourceDecodesToUlaw(t *testing.T) {
	samples := make([]int16, 320)
	for i := range samples {
		samples[i] = int16(i * 100)
	}
	wav := buildTestWav(samples)

	src, err := NewWavSource(bytes.NewReader(wav))
	require.NoError(t, err)

	out := make([]byte, 160)
	total := 0
	for total < 160 {
		n, err := src.Read(out[total:])
		total += n
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
	}
	assert.Equal(t, 160, total)
}

func TestWavSourceRejectsStereo(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], 36)
	buf.Write(sz[:])
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.LittleEndian.PutUint32(sz[:], 16)
	buf.Write(sz[:])
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], 1)
	buf.Write(u16[:])
	binary.LittleEndian.PutUint16(u16[:], 2) // stereo
	buf.Write(u16[:])
	binary.LittleEndian.PutUint32(sz[:], 8000)
	buf.Write(sz[:])
	binary.LittleEndian.PutUint32(sz[:], 8000*4)
	buf.Write(sz[:])
	binary.LittleEndian.PutUint16(u16[:], 4)
	buf.Write(u16[:])
	binary.LittleEndian.PutUint16(u16[:], 16)
	buf.Write(u16[:])
	buf.WriteString("data")
	binary.LittleEndian.PutUint32(sz[:], 0)
	buf.Write(sz[:])

	_, err := NewWavSource(bytes.NewReader(buf.Bytes()))
	assert.Error(t, err)
}

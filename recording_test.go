// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sipdial/rtpengine/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wavBuffer struct {
	buf []byte
	pos int
}

func (b *wavBuffer) Write(p []byte) (int, error) {
	need := b.pos + len(p)
	if need > len(b.buf) {
		b.buf = append(b.buf, make([]byte, need-len(b.buf))...)
	}
	copy(b.buf[b.pos:], p)
	b.pos = need
	return len(p), nil
}

func (b *wavBuffer) Seek(offset int64, whence int) (int64, error) {
	b.pos = int(offset)
	return offset, nil
}

func TestRecordingInterleavesBothDirections(t *testing.T) {
	dst := &wavBuffer{}
	rec, err := NewRecordingWav(media.CodecPCMU, media.CodecPCMU, dst)
	require.NoError(t, err)

	inbound := bytes.Repeat([]byte{0xFF}, 10) // ulaw silence
	outbound := bytes.Repeat([]byte{0xFF}, 10)

	n, err := rec.InboundWriter().Write(inbound)
	require.NoError(t, err)
	assert.Equal(t, len(inbound), n)

	n, err = rec.OutboundWriter().Write(outbound)
	require.NoError(t, err)
	assert.Equal(t, len(outbound), n)

	require.NoError(t, rec.Close())

	out := dst.buf
	require.Greater(t, len(out), 44)
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.EqualValues(t, 2, binary.LittleEndian.Uint16(out[22:24]), "stereo capture")

	// 10 payload bytes per direction expand to 20 PCM bytes per channel,
	// interleaved into 40 data bytes.
	assert.EqualValues(t, 40, binary.LittleEndian.Uint32(out[40:44]))
}

func TestRecordingPadsOneSidedCapture(t *testing.T) {
	dst := &wavBuffer{}
	rec, err := NewRecordingWav(media.CodecPCMU, media.CodecPCMU, dst)
	require.NoError(t, err)

	_, err = rec.InboundWriter().Write(bytes.Repeat([]byte{0xFF}, 8))
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	// The silent outbound channel is padded so the data chunk still holds
	// complete stereo frames.
	assert.EqualValues(t, 32, binary.LittleEndian.Uint32(dst.buf[40:44]))
}

func TestRecordingPauseDropsPayload(t *testing.T) {
	dst := &wavBuffer{}
	rec, err := NewRecordingWav(media.CodecPCMU, media.CodecPCMU, dst)
	require.NoError(t, err)

	rec.Pause(true)
	_, err = rec.InboundWriter().Write(bytes.Repeat([]byte{0xFF}, 8))
	require.NoError(t, err)
	rec.Pause(false)
	require.NoError(t, rec.Close())

	assert.EqualValues(t, 0, binary.LittleEndian.Uint32(dst.buf[40:44]))
}

func TestRecordTapLazyFileOpen(t *testing.T) {
	path := t.TempDir() + "/capture.raw"
	tap := &recordTap{path: path}

	logger := zerolog.Nop()
	require.NoError(t, tap.capture(logger, []byte{1, 2, 3}, 1, 160))
	require.NoError(t, tap.capture(logger, []byte{4, 5}, 2, 320))
	tap.close()

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, got, "recording output is raw concatenated payloads")
}

func TestRecordTapFileOpenFailureIsFatal(t *testing.T) {
	tap := &recordTap{path: "/nonexistent-dir/capture.raw"}
	err := tap.capture(zerolog.Nop(), []byte{1}, 1, 160)
	assert.Error(t, err)
}

func TestRecordTapCallbackReceivesSeqAndTimestamp(t *testing.T) {
	var gotSeq uint16
	var gotTs uint32
	var gotPayload []byte
	tap := &recordTap{fn: func(payload []byte, seq uint16, timestamp uint32) {
		gotPayload, gotSeq, gotTs = payload, seq, timestamp
	}}

	require.NoError(t, tap.capture(zerolog.Nop(), []byte{9}, 42, 6720))
	assert.Equal(t, []byte{9}, gotPayload)
	assert.EqualValues(t, 42, gotSeq)
	assert.EqualValues(t, 6720, gotTs)
}

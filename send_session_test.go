// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sipdial/rtpengine/dtmf"
	"github.com/sipdial/rtpengine/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCallHooks struct {
	byeN int
}

func (f *fakeCallHooks) Bye() { f.byeN++ }

func openerFor(data []byte) FileOpener {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func TestFileSourceStopsAfterExactPasses(t *testing.T) {
	src := newFileSource(openerFor([]byte("abcdef")), 1)

	buf := make([]byte, 3)
	n, ok := src.read(buf)
	require.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("abc"), buf)

	n, ok = src.read(buf)
	require.True(t, ok)
	assert.Equal(t, []byte("def"), buf)

	_, ok = src.read(buf)
	assert.False(t, ok, "source must stop once its single pass is exhausted")
}

func TestFileSourceRepeatsConfiguredPassCount(t *testing.T) {
	src := newFileSource(openerFor([]byte("ab")), 2)

	buf := make([]byte, 2)
	for i := 0; i < 2; i++ {
		n, ok := src.read(buf)
		require.True(t, ok)
		assert.Equal(t, 2, n)
		assert.Equal(t, []byte("ab"), buf)
	}
	_, ok := src.read(buf)
	assert.False(t, ok, "source must stop once both passes are consumed")
}

func TestFileSourceNonPositiveRepeatPlaysForever(t *testing.T) {
	src := newFileSource(openerFor([]byte("xy")), 0)

	buf := make([]byte, 2)
	for i := 0; i < 10; i++ {
		_, ok := src.read(buf)
		require.True(t, ok, "repeat<=0 must never exhaust")
	}
}

func udpPair(t *testing.T) (local, remote *net.UDPConn) {
	t.Helper()
	var err error
	local, err = net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	remote, err = net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	return local, remote
}

// TestPlaybackSessionPlaysFileThenInvokesDone exercises scenario 3 of the
// testable properties: a 480-byte PCMU file at (0,160,20ms) with
// repeat=1 yields exactly 3 packets, payload size 160, seq monotone, ts
// incrementing 160, and then the done callback fires.
func TestPlaybackSessionPlaysFileThenInvokesDone(t *testing.T) {
	local, remote := udpPair(t)
	defer remote.Close()

	file := bytes.Repeat([]byte{0x7F}, 480)
	call := &fakeCallHooks{}
	done := make(chan struct{})

	sess := NewPlaybackSession(local, remote.LocalAddr().(*net.UDPAddr), call,
		WithRtpParams(media.RtpParams{DefaultPayloadType: 0, SamplesPerPacket: 160, PacketInterval: 20 * time.Millisecond}),
		WithPlaybackFile(openerFor(file), 1),
		WithDone(func() { close(done) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Start(ctx)
	defer sess.Close()

	var parser media.Parser
	var prevSeq uint16
	var prevTs uint32
	buf := make([]byte, 1500)
	for i := 0; i < 3; i++ {
		remote.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := remote.ReadFromUDP(buf)
		require.NoError(t, err)
		pkt, err := parser.Parse(buf[:n])
		require.NoError(t, err)
		assert.Len(t, pkt.Payload, 160)
		if i > 0 {
			assert.Equal(t, prevSeq+1, pkt.Header.SequenceNumber)
			assert.Equal(t, prevTs+160, pkt.Header.Timestamp)
		}
		prevSeq = pkt.Header.SequenceNumber
		prevTs = pkt.Header.Timestamp
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("done callback was not invoked after playback exhaustion")
	}
	assert.Equal(t, 0, call.byeN, "custom done callback must replace the default call.Bye()")
}

// TestPlaybackSessionDTMFPreemptsAudio exercises scenario 4: a queued
// RFC 2833 digit is sent instead of ordinary payload, sharing one
// timestamp across its burst and ending with a 3x repeat.
func TestPlaybackSessionDTMFPreemptsAudio(t *testing.T) {
	local, remote := udpPair(t)
	defer remote.Close()
	defer local.Close()

	call := &fakeCallHooks{}
	rfc2833 := uint8(101)

	sess := NewPlaybackSession(local, remote.LocalAddr().(*net.UDPAddr), call,
		WithRtpParams(media.RtpParams{DefaultPayloadType: 0, SamplesPerPacket: 160, PacketInterval: 5 * time.Millisecond}),
		WithPlaybackCallback(func(seq uint16) ([]byte, PayloadOverride, bool) {
			return bytes.Repeat([]byte{0x7F}, 160), PayloadOverride{}, true
		}),
		WithDTMF(&rfc2833, nil),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Start(ctx)
	defer sess.Close()

	sess.DTMF().SendDigit(dtmf.Symbol5, 15, nil)

	var parser media.Parser
	var firstTs uint32
	sawDTMF := false
	endCount := 0
	buf := make([]byte, 1500)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && endCount < 3 {
		remote.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, _, err := remote.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		pkt, err := parser.Parse(buf[:n])
		require.NoError(t, err)
		if pkt.Header.PayloadType != rfc2833 {
			continue
		}
		sawDTMF = true
		if !pkt.Header.Marker {
			t.Fatalf("rfc2833 packet must set the marker bit")
		}
		if firstTs == 0 {
			firstTs = pkt.Header.Timestamp
		} else {
			assert.Equal(t, firstTs, pkt.Header.Timestamp, "every packet of one event shares a timestamp")
		}
		ev, err := dtmf.DecodeRfc2833(pkt.Payload)
		require.NoError(t, err)
		if ev.EndOfEvent {
			endCount++
		}
	}
	assert.True(t, sawDTMF, "expected at least one rfc2833 packet")
	assert.Equal(t, 3, endCount, "end-of-event packet must be sent exactly 3 times")
}

// TestPlaybackSessionSendTapFeedsRecording wires a stereo Recording's
// outbound channel into the send path and checks the finished WAV holds
// the whole played file, expanded to PCM and padded to stereo frames.
func TestPlaybackSessionSendTapFeedsRecording(t *testing.T) {
	local, remote := udpPair(t)
	defer remote.Close()

	dst := &wavBuffer{}
	rec, err := NewRecordingWav(media.CodecPCMU, media.CodecPCMU, dst)
	require.NoError(t, err)

	file := bytes.Repeat([]byte{0xFF}, 480)
	done := make(chan struct{})
	sess := NewPlaybackSession(local, remote.LocalAddr().(*net.UDPAddr), &fakeCallHooks{},
		WithRtpParams(media.RtpParams{DefaultPayloadType: 0, SamplesPerPacket: 160, PacketInterval: 5 * time.Millisecond}),
		WithPlaybackFile(openerFor(file), 1),
		WithSendTap(rec.OutboundWriter()),
		WithDone(func() { close(done) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Start(ctx)
	defer sess.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
	}
	require.NoError(t, rec.Close())

	// 480 payload bytes expand to 960 PCM bytes on the right channel; the
	// silent left channel is padded, giving 1920 data bytes.
	require.Greater(t, len(dst.buf), 44)
	assert.EqualValues(t, 1920, binary.LittleEndian.Uint32(dst.buf[40:44]))
}

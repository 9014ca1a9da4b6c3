// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package media

import (
	"github.com/pion/rtp"
)

// Framer builds outbound RTP datagrams and writes them to a socket. It
// always emits the minimal 12-byte header: version 2, no padding, no
// extension, CC=0.
type Framer struct {
	// SSRC is constant for the lifetime of the session the Framer belongs
	// to; the outbound stream identity never changes mid-session.
	SSRC uint32
	// Dst receives the framed datagrams. When nil, Send is a no-op that
	// still returns the marshaled length, covering the "call on hold"
	// case where the remote address is unknown and sends are skipped at
	// the caller.
	Dst RtpWriter
}

// RtpWriter is the minimal sink a Framer writes datagrams to. *net.UDPConn
// and any net.PacketConn wrapper that rejects writes with ErrWriteTo can
// satisfy it via a small adapter at the call site.
type RtpWriter interface {
	Write(b []byte) (int, error)
}

// NewFramer builds a Framer with the given SSRC writing to dst.
func NewFramer(ssrc uint32, dst RtpWriter) *Framer {
	return &Framer{SSRC: ssrc, Dst: dst}
}

// Build constructs the 12-byte RTP header followed by payload:
// byte 0 = 0x80, byte 1 = (payloadType&0x7F)|(marker<<7), then seq,
// timestamp, SSRC, all big-endian.
func (f *Framer) Build(payloadType uint8, marker bool, seq uint16, timestamp uint32, payload []byte) ([]byte, error) {
	pkt := rtp.Packet{
		Header: rtp.Header{
			Version:        RTPVersion,
			Marker:         marker,
			PayloadType:    payloadType & 0x7F,
			SequenceNumber: seq,
			Timestamp:      timestamp,
			SSRC:           f.SSRC,
		},
		Payload: payload,
	}
	return pkt.Marshal()
}

// Send frames and writes the datagram repeat times (repeat defaults to 1
// if <= 0). All copies carry an identical header and payload, the
// redundancy used for DTMF end-packets (repeat=3).
func (f *Framer) Send(payloadType uint8, marker bool, seq uint16, timestamp uint32, payload []byte, repeat int) (int, error) {
	buf, err := f.Build(payloadType, marker, seq, timestamp, payload)
	if err != nil {
		return 0, err
	}
	if repeat <= 0 {
		repeat = 1
	}
	if f.Dst == nil {
		return len(buf), nil
	}
	var n int
	for i := 0; i < repeat; i++ {
		written, err := f.Dst.Write(buf)
		if err != nil {
			return n, err
		}
		n += written
	}
	return n, nil
}

// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package media

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrPacketTooShort is returned for datagrams shorter than the fixed
	// 12-byte header, or whose declared CSRC/extension/padding lengths run
	// past the end of the buffer. Callers treat it as a silent drop.
	ErrPacketTooShort = errors.New("rtp: packet shorter than header")
	// ErrVersionMismatch is returned for datagrams whose version field is
	// not 2. Callers treat it as a silent drop.
	ErrVersionMismatch = errors.New("rtp: version mismatch")
)

// Parser decodes inbound datagrams into RtpPacket values. It holds no
// state of its own; sequence filtering against a session's last-seen
// sequence number is the caller's responsibility (see SessionState.Accept).
//
// Parsing is done by hand rather than through a borrowed unmarshaller so
// that CSRC list, extension header, and padding are all preserved in the
// decoded view exactly as the wire had them, without the buffer-aliasing
// tradeoffs a reusable unmarshal buffer forces on a marshal library.
type Parser struct{}

// Parse decodes one UDP datagram. It returns ErrPacketTooShort or
// ErrVersionMismatch for malformed input; both are meant to be handled by
// the caller as a silent drop per the wire contract.
func (Parser) Parse(buf []byte) (*RtpPacket, error) {
	if len(buf) < HeaderSize {
		return nil, ErrPacketTooShort
	}
	if buf[0]>>6 != RTPVersion {
		return nil, ErrVersionMismatch
	}

	b0 := buf[0]
	b1 := buf[1]

	h := RtpHeader{
		Version:        RTPVersion,
		Padding:        b0&0x20 != 0,
		Extension:      b0&0x10 != 0,
		CSRCCount:      b0 & 0x0F,
		Marker:         b1&0x80 != 0,
		PayloadType:    b1 & 0x7F,
		SequenceNumber: binary.BigEndian.Uint16(buf[2:4]),
		Timestamp:      binary.BigEndian.Uint32(buf[4:8]),
		SSRC:           binary.BigEndian.Uint32(buf[8:12]),
	}

	offset := HeaderSize
	csrcLen := int(h.CSRCCount) * 4
	if offset+csrcLen > len(buf) {
		return nil, ErrPacketTooShort
	}
	if h.CSRCCount > 0 {
		h.CSRC = make([]uint32, h.CSRCCount)
		for i := 0; i < int(h.CSRCCount); i++ {
			h.CSRC[i] = binary.BigEndian.Uint32(buf[offset : offset+4])
			offset += 4
		}
	}

	if h.Extension {
		if offset+4 > len(buf) {
			return nil, ErrPacketTooShort
		}
		h.ExtensionProfile = binary.BigEndian.Uint16(buf[offset : offset+2])
		extLen := int(binary.BigEndian.Uint16(buf[offset+2:offset+4])) * 4
		offset += 4
		if offset+extLen > len(buf) {
			return nil, ErrPacketTooShort
		}
		h.ExtensionPayload = buf[offset : offset+extLen]
		offset += extLen
	}

	end := len(buf)
	if h.Padding {
		if end == 0 {
			return nil, ErrPacketTooShort
		}
		h.PaddingSize = buf[end-1]
		end -= int(h.PaddingSize)
		if end < offset {
			return nil, ErrPacketTooShort
		}
	}

	return &RtpPacket{
		Header:  h,
		Raw:     buf,
		Payload: buf[offset:end],
	}, nil
}

// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package dtmf

import (
	"encoding/binary"
	"fmt"
)

// Rfc2833Payload is the 4-byte RFC 2833/4733 telephony-event payload:
// event code, end-of-event flag and volume, and the event duration
// in RTP timestamp units.
type Rfc2833Payload struct {
	EventCode  uint8
	EndOfEvent bool
	Volume     uint8
	Duration   uint16
}

// Encode lays out the payload exactly as wire format demands.
func (p Rfc2833Payload) Encode() []byte {
	buf := make([]byte, 4)
	buf[0] = p.EventCode
	b1 := p.Volume & 0x3F
	if p.EndOfEvent {
		b1 |= 0x80
	}
	buf[1] = b1
	binary.BigEndian.PutUint16(buf[2:4], p.Duration)
	return buf
}

// DecodeRfc2833 parses a 4-byte telephony-event payload.
func DecodeRfc2833(payload []byte) (Rfc2833Payload, error) {
	if len(payload) < 4 {
		return Rfc2833Payload{}, fmt.Errorf("dtmf: rfc2833 payload too short")
	}
	return Rfc2833Payload{
		EventCode:  payload[0],
		EndOfEvent: payload[1]&0x80 != 0,
		Volume:     payload[1] & 0x3F,
		Duration:   binary.BigEndian.Uint16(payload[2:4]),
	}, nil
}

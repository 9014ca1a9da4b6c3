// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package media

import "time"

// Codec describes the static properties of a negotiated RTP payload type
// needed for packetization: how many samples make up one packet and at
// what wall-clock cadence packets are sent.
type Codec struct {
	PayloadType uint8
	SampleRate  uint32
	SampleDur   time.Duration
}

// SamplesPerPacket returns the number of samples (and therefore the RTP
// timestamp increment) carried by one packet of this codec.
func (c Codec) SamplesPerPacket() uint32 {
	return uint32(float64(c.SampleRate) * c.SampleDur.Seconds())
}

var (
	// CodecPCMU is G.711 mu-law at 8000 Hz, 160 samples per 20ms packet.
	CodecPCMU = Codec{PayloadType: 0, SampleRate: 8000, SampleDur: 20 * time.Millisecond}
	// CodecPCMA is G.711 A-law at 8000 Hz, 160 samples per 20ms packet.
	CodecPCMA = Codec{PayloadType: 8, SampleRate: 8000, SampleDur: 20 * time.Millisecond}
)

// RtpParams is the tuple (default_payload_type, samples_per_packet, packet_interval)
// signaling hands to a session factory. For PCMU/8000 the canonical value
// is (0, 160, 20ms).
type RtpParams struct {
	DefaultPayloadType uint8
	SamplesPerPacket   uint32
	PacketInterval     time.Duration
}

// DefaultRtpParams returns the canonical PCMU/8000 parameters.
func DefaultRtpParams() RtpParams {
	return RtpParams{
		DefaultPayloadType: CodecPCMU.PayloadType,
		SamplesPerPacket:   CodecPCMU.SamplesPerPacket(),
		PacketInterval:     CodecPCMU.SampleDur,
	}
}

// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package media

// RTPVersion is the only version this engine emits or accepts.
const RTPVersion = 2

// HeaderSize is the fixed RTP header length before any CSRC/extension.
const HeaderSize = 12

// RtpHeader is the decoded view over an inbound or to-be-built RTP header,
// as laid out by RFC 3550 section 5.1.
type RtpHeader struct {
	Version        uint8
	Padding        bool
	Extension      bool
	CSRCCount      uint8
	Marker         bool
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	CSRC           []uint32

	ExtensionProfile uint16
	ExtensionPayload []byte

	PaddingSize uint8
}

// RtpPacket is the raw datagram together with the decoded header and a
// slice over the payload with header, CSRCs, extension, and padding
// removed.
type RtpPacket struct {
	Header  RtpHeader
	Raw     []byte
	Payload []byte
}

// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

import "fmt"

// Static RTP payload type assignments for the two G.711 variants this
// engine negotiates.
const (
	PayloadTypeUlaw = 0
	PayloadTypeAlaw = 8
)

// PCMDecoder translates RTP payload frames of one negotiated codec into
// 16-bit little-endian linear PCM, e.g. for writing a WAV recording of
// a µ-law stream. Both G.711 variants expand 1:2, so the destination
// buffer always needs twice the payload length.
type PCMDecoder struct {
	translate func(lpcm, frames []byte) (int, error)
}

// NewPCMDecoder returns a decoder for payloadType, or an error when the
// payload type is not a codec this engine can expand.
func NewPCMDecoder(payloadType uint8) (*PCMDecoder, error) {
	switch payloadType {
	case PayloadTypeUlaw:
		return &PCMDecoder{translate: DecodeUlawTo}, nil
	case PayloadTypeAlaw:
		return &PCMDecoder{translate: DecodeAlawTo}, nil
	}
	return nil, fmt.Errorf("audio: no pcm decoder for payload type %d", payloadType)
}

// Translate expands frames into lpcm, returning the number of PCM bytes
// written.
func (d *PCMDecoder) Translate(lpcm, frames []byte) (int, error) {
	return d.translate(lpcm, frames)
}

// PCMEncoder is the inverse of PCMDecoder: it compands linear PCM into
// RTP payload frames of the negotiated codec, e.g. when feeding a WAV
// prompt into a µ-law stream.
type PCMEncoder struct {
	translate func(frames, lpcm []byte) (int, error)
}

// NewPCMEncoder returns an encoder for payloadType, or an error when the
// payload type is not a codec this engine can compand.
func NewPCMEncoder(payloadType uint8) (*PCMEncoder, error) {
	switch payloadType {
	case PayloadTypeUlaw:
		return &PCMEncoder{translate: EncodeUlawTo}, nil
	case PayloadTypeAlaw:
		return &PCMEncoder{translate: EncodeAlawTo}, nil
	}
	return nil, fmt.Errorf("audio: no pcm encoder for payload type %d", payloadType)
}

// Translate compands lpcm into frames, returning the number of payload
// bytes written.
func (e *PCMEncoder) Translate(frames, lpcm []byte) (int, error) {
	return e.translate(frames, lpcm)
}

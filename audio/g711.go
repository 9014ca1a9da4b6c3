// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

// Package audio holds the PCM plumbing around the RTP payload path:
// G.711 frame companding, payload-to-linear translation, and the WAV
// container used for prompts and call recordings.
package audio

import (
	"io"

	"github.com/zaf/g711"
)

// compandTo encodes 16-bit little-endian linear PCM into one companded
// byte per sample. dst must hold len(lpcm)/2 bytes.
func compandTo(dst, lpcm []byte, frame func(int16) uint8) (int, error) {
	if len(lpcm) > len(dst)*2 {
		return 0, io.ErrShortBuffer
	}
	n := 0
	for j := 0; j+1 < len(lpcm); j += 2 {
		dst[n] = frame(int16(lpcm[j]) | int16(lpcm[j+1])<<8)
		n++
	}
	return n, nil
}

// expandTo decodes companded samples into 16-bit little-endian linear
// PCM. dst must hold 2*len(enc) bytes.
func expandTo(dst, enc []byte, frame func(uint8) int16) (int, error) {
	if len(dst) < 2*len(enc) {
		return 0, io.ErrShortBuffer
	}
	n := 0
	for i := 0; i < len(enc); i++ {
		s := frame(enc[i])
		dst[n] = byte(s)
		dst[n+1] = byte(s >> 8)
		n += 2
	}
	return n, nil
}

// EncodeUlawTo compands linear PCM into µ-law, one byte per sample.
func EncodeUlawTo(ulaw, lpcm []byte) (int, error) {
	return compandTo(ulaw, lpcm, g711.EncodeUlawFrame)
}

// DecodeUlawTo expands µ-law samples into linear PCM.
func DecodeUlawTo(lpcm, ulaw []byte) (int, error) {
	return expandTo(lpcm, ulaw, g711.DecodeUlawFrame)
}

// EncodeAlawTo compands linear PCM into A-law, one byte per sample.
func EncodeAlawTo(alaw, lpcm []byte) (int, error) {
	return compandTo(alaw, lpcm, g711.EncodeAlawFrame)
}

// DecodeAlawTo expands A-law samples into linear PCM.
func DecodeAlawTo(lpcm, alaw []byte) (int, error) {
	return expandTo(lpcm, alaw, g711.DecodeAlawFrame)
}

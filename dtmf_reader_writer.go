// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sipdial/rtpengine/dtmf"
)

// DTMFWriter enqueues outbound digits onto a session's DTMF engine; the
// session's own send tick (or, in echo mode, its receive tick) drains the
// queue; it is not sent synchronously by this call.
type DTMFWriter struct {
	engine      *dtmf.Engine
	rfc2833Type *uint8
	audioType   *uint8
}

// NewDTMFWriter builds a writer against engine. At least one of
// rfc2833Type/audioType must be non-nil for a digit to be sent; an
// event with neither fails via its callback the next time the session
// consults the engine.
func NewDTMFWriter(engine *dtmf.Engine, rfc2833Type, audioType *uint8) *DTMFWriter {
	return &DTMFWriter{engine: engine, rfc2833Type: rfc2833Type, audioType: audioType}
}

// SendDigit enqueues sym for durationMs milliseconds. onFinal, if set, is
// invoked once the digit completes or fails.
func (w *DTMFWriter) SendDigit(sym dtmf.Symbol, durationMs uint32, onFinal dtmf.FinalCallback) {
	ev := dtmf.NewEvent(sym, durationMs)
	ev.RFC2833Type = w.rfc2833Type
	ev.AudioType = w.audioType
	ev.OnFinal = onFinal
	w.engine.Enqueue(ev)
}

// DTMFReader detects inbound RFC 2833 telephony-events on the receive
// path and surfaces completed digits. Feed runs on the session's receive
// path; ReadDTMF may be called from any goroutine.
type DTMFReader struct {
	rfc2833Type uint8

	mu          sync.Mutex
	lastCode    uint8
	lastSet     bool
	lastDur     uint16
	detected    dtmf.Symbol
	detectedSet bool
}

// NewDTMFReader builds a reader that recognizes telephony-event packets
// carrying payload type rfc2833Type.
func NewDTMFReader(rfc2833Type uint8) *DTMFReader {
	return &DTMFReader{rfc2833Type: rfc2833Type}
}

// Feed processes one inbound packet's payload type and raw payload,
// updating the detected-digit state when it decodes an end-of-event
// telephony-event packet matching the in-progress one.
func (r *DTMFReader) Feed(payloadType uint8, payload []byte) {
	if payloadType != r.rfc2833Type {
		return
	}

	ev, err := dtmf.DecodeRfc2833(payload)
	if err != nil {
		log.Debug().Err(err).Msg("failed to decode inbound rfc2833 payload")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.EndOfEvent {
		if !r.lastSet || r.lastCode != ev.EventCode {
			return
		}
		if ev.Duration <= r.lastDur {
			// End packet no longer than the last progress update: ignored.
			// Repeats of a processed end packet stop at the lastSet check.
			return
		}

		sym, err := dtmf.SymbolFromEventCode(ev.EventCode)
		if err != nil {
			log.Debug().Err(err).Msg("unrecognized rfc2833 event code")
			r.lastSet = false
			return
		}
		r.detected = sym
		r.detectedSet = true
		r.lastSet = false
		return
	}

	if r.lastSet && r.lastCode == ev.EventCode {
		r.lastDur = ev.Duration
		return
	}
	r.lastCode = ev.EventCode
	r.lastDur = ev.Duration
	r.lastSet = true
}

// ReadDTMF returns the most recently completed digit, if any, clearing it
// on read.
func (r *DTMFReader) ReadDTMF() (dtmf.Symbol, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sym, ok := r.detected, r.detectedSet
	r.detectedSet = false
	return sym, ok
}

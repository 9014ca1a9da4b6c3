// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package media

import "sync/atomic"

// SessionState tracks the per-socket-pair inbound bookkeeping a session
// needs across receive events: last seen sequence/timestamp, the
// inferred timestamp slope, and the liveness flag the inactivity
// watchdog polls. The DTMF queue and tone state live in the dtmf
// package's Engine, composed alongside this by the session controller.
type SessionState struct {
	// hasRecv is false until the first inbound packet is seen.
	hasRecv bool
	rseq    uint16
	rtstamp uint32

	// ltdiff is the inferred per-packet timestamp slope, (Δtimestamp)/(Δseq),
	// recomputed on every accepted inbound packet once a prior sample
	// exists.
	ltdiff  uint32
	ltKnown bool

	// didit is the liveness flag shared with the inactivity watchdog,
	// which polls it from its own goroutine.
	didit atomic.Bool
}

// NewSessionState returns a zero-valued SessionState ready to accept
// its first inbound packet.
func NewSessionState() *SessionState {
	return &SessionState{}
}

// Accept applies the inbound sequence filter: a received packet
// is dropped if prevSeq >= seq and prevSeq - seq < 60000 (modular u16
// arithmetic), which guards against reorder while still accepting a
// legitimate wraparound. It returns false when the packet should be
// dropped; true (with rseq/ltdiff/didit updated) when it is accepted.
func (s *SessionState) Accept(seq uint16, timestamp uint32) bool {
	if s.hasRecv {
		prevSeq := s.rseq
		if prevSeq >= seq && prevSeq-seq < 60000 {
			return false
		}

		dseq := uint32(seq - prevSeq)
		if dseq != 0 {
			dts := timestamp - s.rtstamp
			s.ltdiff = dts / dseq
			s.ltKnown = true
		}
	}

	s.hasRecv = true
	s.rseq = seq
	s.rtstamp = timestamp
	s.didit.Store(true)
	return true
}

// Ltdiff returns the inferred per-packet timestamp slope and whether it
// has been observed yet (it is unknown until a second inbound packet
// arrives).
func (s *SessionState) Ltdiff() (uint32, bool) {
	return s.ltdiff, s.ltKnown
}

// Didit reports and clears the inactivity-watchdog flag:
// the watchdog fires every 10s and, if the flag is clear, tears the call
// down; otherwise it clears it and continues.
func (s *SessionState) Didit() bool {
	return s.didit.Swap(false)
}

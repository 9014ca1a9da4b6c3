// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package dtmf

import "time"

// FinalStatus is the terminal outcome reported to an event's callback.
type FinalStatus string

const (
	StatusOK   FinalStatus = "OK"
	StatusFail FinalStatus = "FAIL"
)

// FinalCallback is invoked exactly once per event: on successful
// completion (OK) or on failure (FAIL, reason).
type FinalCallback func(status FinalStatus, reason string)

// Event is one queued DTMF digit. RFC2833Type and AudioType are
// pointers so "not negotiated" is distinguishable from payload type 0.
// Silent marks a null event carrying only AudioType, meaning "emit
// silence" instead of a synthesized tone.
type Event struct {
	Symbol     Symbol
	Silent     bool
	Volume     uint8
	DurationMs uint32

	RFC2833Type *uint8
	AudioType   *uint8
	OnFinal     FinalCallback

	touched        bool
	startTimestamp uint32
	startWallclock time.Time
	generator      *Generator
}

// NewEvent builds an Event for sym with the default volume of 10.
func NewEvent(sym Symbol, durationMs uint32) *Event {
	return &Event{Symbol: sym, Volume: 10, DurationMs: durationMs}
}

// NewSilentEvent builds a null event that emits silence on the audio
// path for durationMs.
func NewSilentEvent(durationMs uint32) *Event {
	return &Event{Silent: true, Volume: 10, DurationMs: durationMs}
}

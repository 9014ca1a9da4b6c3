// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package media

import "math/rand"

// Sequencer generates the outbound sequence number: random on first
// use, then incremented by 1 modulo 2^16 per packet, including during a
// DTMF burst. It carries no wrap-tracking or jitter bookkeeping; inbound
// loss detection is SessionState's concern, not this type's.
type Sequencer struct {
	seq     uint16
	started bool
}

// Next returns the next outbound sequence number, randomizing on first
// call and incrementing modulo 2^16 thereafter.
func (s *Sequencer) Next() uint16 {
	if !s.started {
		s.seq = uint16(rand.Uint32())
		s.started = true
		return s.seq
	}
	s.seq++
	return s.seq
}

// Current returns the last sequence number handed out without advancing.
func (s *Sequencer) Current() uint16 {
	return s.seq
}

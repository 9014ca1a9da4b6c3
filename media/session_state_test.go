// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStateAcceptsMonotoneSequence(t *testing.T) {
	s := NewSessionState()
	assert.True(t, s.Accept(100, 1000))
	assert.True(t, s.Accept(101, 1160))
	assert.True(t, s.Accept(102, 1320))

	ltdiff, known := s.Ltdiff()
	assert.True(t, known)
	assert.EqualValues(t, 160, ltdiff)
}

func TestSessionStateDropsReorderAndDuplicate(t *testing.T) {
	s := NewSessionState()
	assert.True(t, s.Accept(100, 1000))
	assert.True(t, s.Accept(105, 1800))

	// Reorder: seq 103 arrives after 105.
	assert.False(t, s.Accept(103, 1480))
	// Duplicate.
	assert.False(t, s.Accept(105, 1800))
}

func TestSessionStateAcceptsWraparound(t *testing.T) {
	s := NewSessionState()
	assert.True(t, s.Accept(0xFFFF, 1000))
	// prevSeq=0xFFFF, seq=0x0000: prevSeq - seq == 0xFFFF which is NOT
	// < 60000, so this must be accepted as a legitimate wrap, not a
	// reorder.
	assert.True(t, s.Accept(0x0000, 1160))
}

func TestSessionStateDiditClearsOnRead(t *testing.T) {
	s := NewSessionState()
	assert.False(t, s.Didit())
	s.Accept(1, 100)
	assert.True(t, s.Didit())
	assert.False(t, s.Didit())
}

func TestSequencerRandomizesThenIncrements(t *testing.T) {
	var seq Sequencer
	first := seq.Next()
	second := seq.Next()
	assert.Equal(t, first+1, second)
	assert.Equal(t, second, seq.Current())
}

// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package dtmf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressTableIsMonotoneNonDecreasing(t *testing.T) {
	for v := 1; v < len(compressTable); v++ {
		assert.GreaterOrEqual(t, compressTable[v], compressTable[v-1])
	}
}

func TestGeneratorProducesNonSilentSamples(t *testing.T) {
	g, err := NewGenerator(Symbol1, 10)
	require.NoError(t, err)

	out := g.Generate(160)
	require.Len(t, out, 160)

	allSilence := true
	for _, b := range out {
		if b != silenceByte {
			allSilence = false
			break
		}
	}
	assert.False(t, allSilence, "tone samples must not all be the silence sentinel")
}

func TestGeneratorRejectsUnknownSymbol(t *testing.T) {
	_, err := NewGenerator(Symbol('Z'), 10)
	assert.Error(t, err)
}

func TestSilenceIsAllSentinel(t *testing.T) {
	out := Silence(160)
	require.Len(t, out, 160)
	for _, b := range out {
		assert.EqualValues(t, silenceByte, b)
	}
}

func TestGeneratorContinuesPhaseAcrossCalls(t *testing.T) {
	g, err := NewGenerator(SymbolStar, 50)
	require.NoError(t, err)

	first := g.Generate(80)
	second := g.Generate(80)

	// Continuity: two consecutive blocks from the same generator should
	// not be identical to two independent blocks restarted from phase 0,
	// since the oscillator phase is carried across calls.
	fresh, err := NewGenerator(SymbolStar, 50)
	require.NoError(t, err)
	freshSecondAsFirst := fresh.Generate(80)

	assert.Equal(t, first, freshSecondAsFirst)
	assert.NotEqual(t, first, second)
}

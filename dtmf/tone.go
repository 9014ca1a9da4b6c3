// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package dtmf

import "math"

// This generator is deliberately independent of the µ-law codec used
// elsewhere for PCM frame translation (see the audio package, backed by
// zaf/g711): its compression table is built from its own inverse table,
// not the fixed table a general-purpose G.711 library ships.
const (
	toneTableSize = 256
	sampleRate    = 8000
	silenceByte   = 0x80
)

var cosTable [toneTableSize]int32

func init() {
	for i := range cosTable {
		cosTable[i] = int32(math.Round(math.Cos(2*math.Pi*float64(i)/float64(toneTableSize)) * 16383))
	}
}

var expandTable [128]int32
var compressTable [32768]byte

func init() {
	for j := 0; j < 128; j++ {
		expandTable[j] = int32(math.Floor((math.Pow(256, float64(j)/127) - 1) / 255 * 32767))
	}

	j := 0
	for v := 0; v < len(compressTable); v++ {
		for j < 127 && abs32(expandTable[j+1]-int32(v)) < abs32(expandTable[j]-int32(v)) {
			j++
		}
		compressTable[v] = byte(j)
	}
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

// compress maps a signed linear sample to its 8-bit µ-law code: positive
// values emit 255-compress[val], negative values emit 127-compress[-val].
func compress(val int32) byte {
	if val >= 0 {
		if val > 32767 {
			val = 32767
		}
		return 255 - compressTable[val]
	}
	neg := -val
	if neg > 32767 {
		neg = 32767
	}
	return 127 - compressTable[neg]
}

// oscillator is a Bresenham-style fractional phase accumulator against
// the 256-entry cosine table, advanced one sample at a time so that
// successive calls across packet boundaries continue the same waveform.
type oscillator struct {
	i, d, g, e int
}

func newOscillator(freqHz int) oscillator {
	return oscillator{
		d: freqHz * toneTableSize / sampleRate,
		g: (freqHz * toneTableSize) % sampleRate,
		e: sampleRate / 2,
	}
}

func (o *oscillator) sample() int32 {
	o.e -= o.g
	if o.e < 0 {
		o.e += sampleRate
		o.i++
	}
	o.i = (o.i + o.d) % toneTableSize
	return cosTable[o.i]
}

// Generator synthesizes successive µ-law-encoded blocks of a DTMF
// dual-sinusoid tone, holding its phase accumulators across calls so
// consecutive packets of the same event continue the waveform without a
// discontinuity at the boundary.
type Generator struct {
	low, high oscillator
	volume    uint8
}

// NewGenerator builds a tone generator for sym at the given volume (0-100,
// percent of full scale).
func NewGenerator(sym Symbol, volume uint8) (*Generator, error) {
	lowHz, highHz, err := sym.Frequencies()
	if err != nil {
		return nil, err
	}
	return &Generator{
		low:    newOscillator(lowHz),
		high:   newOscillator(highHz),
		volume: volume,
	}, nil
}

// Generate writes n µ-law-encoded samples of the dual-sinusoid tone.
func (g *Generator) Generate(n int) []byte {
	out := make([]byte, n)
	vol := int32(g.volume)
	for i := 0; i < n; i++ {
		lo := g.low.sample() * vol / 100
		hi := g.high.sample() * vol / 100
		out[i] = compress(lo + hi)
	}
	return out
}

// Silence returns n bytes of the µ-law silence sentinel, for a null event
// with only audio_type set.
func Silence(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = silenceByte
	}
	return out
}

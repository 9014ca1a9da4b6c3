// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

// Package dtmf implements RFC 2833/4733 telephony-event multiplexing and
// the µ-law dual-sinusoid tone generator used to synthesize DTMF digits
// as ordinary audio payload when the peer has not negotiated the
// telephony-event payload type.
package dtmf

import "fmt"

// Symbol is one of the sixteen DTMF digits: the ten decimal digits, the
// two telephony keys, and the four rarely-used column-D keys.
type Symbol rune

const (
	Symbol0     Symbol = '0'
	Symbol1     Symbol = '1'
	Symbol2     Symbol = '2'
	Symbol3     Symbol = '3'
	Symbol4     Symbol = '4'
	Symbol5     Symbol = '5'
	Symbol6     Symbol = '6'
	Symbol7     Symbol = '7'
	Symbol8     Symbol = '8'
	Symbol9     Symbol = '9'
	SymbolStar  Symbol = '*'
	SymbolPound Symbol = '#'
	SymbolA     Symbol = 'A'
	SymbolB     Symbol = 'B'
	SymbolC     Symbol = 'C'
	SymbolD     Symbol = 'D'
)

// frequencies is the canonical (low_hz, high_hz) pair for each symbol.
var frequencies = map[Symbol][2]int{
	Symbol1: {697, 1209}, Symbol2: {697, 1336}, Symbol3: {697, 1477}, SymbolA: {697, 1633},
	Symbol4: {770, 1209}, Symbol5: {770, 1336}, Symbol6: {770, 1477}, SymbolB: {770, 1633},
	Symbol7: {852, 1209}, Symbol8: {852, 1336}, Symbol9: {852, 1477}, SymbolC: {852, 1633},

	SymbolStar: {941, 1209}, Symbol0: {941, 1336}, SymbolPound: {941, 1477}, SymbolD: {941, 1633},
}

// Frequencies returns the canonical (low, high) Hz pair for a symbol.
func (s Symbol) Frequencies() (low, high int, err error) {
	f, ok := frequencies[s]
	if !ok {
		return 0, 0, fmt.Errorf("dtmf: unknown symbol %q", rune(s))
	}
	return f[0], f[1], nil
}

// eventCodes maps symbols to their RFC 4733 telephony-event codes:
// 0-9 -> 0..9, * -> 10, # -> 11, A-D -> 12..15.
var eventCodes = map[Symbol]uint8{
	Symbol0: 0, Symbol1: 1, Symbol2: 2, Symbol3: 3, Symbol4: 4,
	Symbol5: 5, Symbol6: 6, Symbol7: 7, Symbol8: 8, Symbol9: 9,
	SymbolStar: 10, SymbolPound: 11,
	SymbolA: 12, SymbolB: 13, SymbolC: 14, SymbolD: 15,
}

var eventCodesRev = func() map[uint8]Symbol {
	m := make(map[uint8]Symbol, len(eventCodes))
	for s, c := range eventCodes {
		m[c] = s
	}
	return m
}()

// EventCode returns the RFC 4733 event code for a symbol.
func (s Symbol) EventCode() (uint8, error) {
	c, ok := eventCodes[s]
	if !ok {
		return 0, fmt.Errorf("dtmf: unknown symbol %q", rune(s))
	}
	return c, nil
}

// SymbolFromEventCode is the inverse of Symbol.EventCode.
func SymbolFromEventCode(code uint8) (Symbol, error) {
	s, ok := eventCodesRev[code]
	if !ok {
		return 0, fmt.Errorf("dtmf: unknown event code %d", code)
	}
	return s, nil
}

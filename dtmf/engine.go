// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package dtmf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

const (
	stateIdle   = "idle"
	stateActive = "active"
	stateEnding = "ending"
)

// DecisionKind distinguishes what an Engine.Consult call decided to emit.
type DecisionKind int

const (
	// DecisionNone means the queue is empty; emit the regular payload.
	DecisionNone DecisionKind = iota
	// DecisionRFC2833 means emit a telephony-event packet; Timestamp must
	// override the caller's nominal outbound timestamp.
	DecisionRFC2833
	// DecisionAudio means emit a synthesized-tone (or silence) audio
	// packet; the caller's normal timestamp progression is unaffected.
	DecisionAudio
)

// Decision is what the Session Controller should frame and send for this
// tick.
type Decision struct {
	Kind        DecisionKind
	Payload     []byte
	Timestamp   uint32 // only meaningful when Kind == DecisionRFC2833
	PayloadType uint8
	Marker      bool
	Repeat      int
}

// Engine is a per-session FIFO of pending DTMF events, consulted once per
// send opportunity. The head event's lifecycle (idle -> active ->
// ending) is mirrored in a looplab/fsm state machine; the decisions rest
// on the event's touched flag (stamped exactly once) and on popping the
// event from the queue when it ends (ends exactly once). Enqueue may be
// called from any goroutine; Consult belongs to the session's send path.
type Engine struct {
	mu    sync.Mutex
	queue []*Event
	fsm   *fsm.FSM
	now   func() time.Time
}

// NewEngine returns an empty Engine. now defaults to time.Now.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Enqueue appends ev to the pending queue.
func (e *Engine) Enqueue(ev *Event) {
	e.mu.Lock()
	e.queue = append(e.queue, ev)
	e.mu.Unlock()
}

// Pending reports the number of queued (including in-flight) events.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) headFSM() *fsm.FSM {
	if e.fsm == nil {
		e.fsm = fsm.NewFSM(
			stateIdle,
			fsm.Events{
				{Name: "touch", Src: []string{stateIdle}, Dst: stateActive},
				{Name: "end", Src: []string{stateActive}, Dst: stateEnding},
			},
			fsm.Callbacks{},
		)
	}
	return e.fsm
}

// Consult is the per-tick decision procedure: inspect the head
// event, stamp it on first touch, and choose between an RFC 2833 packet,
// a synthesized audio packet, or failing the whole queue when the peer
// negotiated neither payload type.
func (e *Engine) Consult(nowTimestamp uint32, tdiff uint32, samplesPerPacket int) (Decision, bool) {
	// Final callbacks run after the lock drops so they may re-enqueue.
	var finals []func()
	defer func() {
		for _, fn := range finals {
			fn()
		}
	}()
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) == 0 {
		return Decision{}, false
	}

	head := e.queue[0]
	fm := e.headFSM()

	if !head.touched {
		head.touched = true
		head.startTimestamp = nowTimestamp
		head.startWallclock = e.now()
		_ = fm.Event(context.Background(), "touch")
	}

	elapsedMs := uint32(e.now().Sub(head.startWallclock).Milliseconds())
	eventEnd := elapsedMs >= head.DurationMs
	eventTdiff := uint16((nowTimestamp - head.startTimestamp) + tdiff)

	switch {
	case head.RFC2833Type != nil:
		code, err := head.Symbol.EventCode()
		if err != nil {
			finals = e.failAll(fmt.Sprintf("unknown dtmf symbol: %v", err))
			return Decision{}, false
		}

		repeat := 1
		if eventEnd {
			repeat = 3
			if fm.Can("end") {
				_ = fm.Event(context.Background(), "end")
			}
		}

		payload := Rfc2833Payload{
			EventCode:  code,
			EndOfEvent: eventEnd,
			Volume:     head.Volume,
			Duration:   eventTdiff,
		}.Encode()

		d := Decision{
			Kind:        DecisionRFC2833,
			Payload:     payload,
			Timestamp:   head.startTimestamp,
			PayloadType: *head.RFC2833Type,
			Marker:      true,
			Repeat:      repeat,
		}
		if eventEnd {
			finals = e.popHead(StatusOK, "")
		}
		return d, true

	case head.AudioType != nil:
		var payload []byte
		if head.Silent {
			payload = Silence(samplesPerPacket)
		} else {
			if head.generator == nil {
				gen, err := NewGenerator(head.Symbol, head.Volume)
				if err != nil {
					finals = e.failAll(fmt.Sprintf("unknown dtmf symbol: %v", err))
					return Decision{}, false
				}
				head.generator = gen
			}
			payload = head.generator.Generate(samplesPerPacket)
		}

		d := Decision{
			Kind:        DecisionAudio,
			Payload:     payload,
			PayloadType: *head.AudioType,
			Marker:      false,
			Repeat:      1,
		}
		if eventEnd {
			finals = e.popHead(StatusOK, "")
		}
		return d, true

	default:
		finals = e.failAll("neither rfc2833 nor audio are supported by peer")
		return Decision{}, false
	}
}

// popHead removes the head event and hands back its final callback, to
// be run once the engine lock is released.
func (e *Engine) popHead(status FinalStatus, reason string) []func() {
	head := e.queue[0]
	e.queue = e.queue[1:]
	e.fsm = nil
	if head.OnFinal == nil {
		return nil
	}
	return []func(){func() { head.OnFinal(status, reason) }}
}

// failAll fails the head event and every queued successor: a DTMF event
// with neither payload type negotiated fails the whole queue, not just
// itself, and the session continues. The callbacks are handed back to
// run once the engine lock is released.
func (e *Engine) failAll(reason string) []func() {
	var finals []func()
	for _, ev := range e.queue {
		if ev.OnFinal != nil {
			ev := ev
			finals = append(finals, func() { ev.OnFinal(StatusFail, reason) })
		}
	}
	e.queue = nil
	e.fsm = nil
	return finals
}

// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import (
	"context"
	"io"
	"net"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sipdial/rtpengine/dtmf"
	"github.com/sipdial/rtpengine/media"
	"github.com/sipdial/rtpengine/metrics"
)

// echoFrame is one buffered inbound packet awaiting its turn to be
// echoed back, carrying the header fields it must be re-sent with
// unchanged.
type echoFrame struct {
	seq         uint16
	timestamp   uint32
	payloadType uint8
	payload     []byte
}

// EchoSessionOption configures an EchoSession at construction time.
type EchoSessionOption func(*EchoSession)

// WithEchoRecorder sets a writer that receives every accepted inbound
// payload, e.g. a Recording channel.
func WithEchoRecorder(w io.Writer) EchoSessionOption {
	return func(s *EchoSession) { s.record = &recordTap{w: w} }
}

// WithEchoRecorderFunc invokes fn with every accepted inbound payload
// together with its RTP sequence number and timestamp.
func WithEchoRecorderFunc(fn RecordFunc) EchoSessionOption {
	return func(s *EchoSession) { s.record = &recordTap{fn: fn} }
}

// WithEchoRecordFile appends every accepted inbound payload to the file
// at path, opened lazily on the first packet. The output is the raw
// concatenated payloads with no container. A file error tears the
// session down.
func WithEchoRecordFile(path string) EchoSessionOption {
	return func(s *EchoSession) { s.record = &recordTap{path: path} }
}

// WithEchoMetrics attaches a metrics registry. A nil registry (the
// default) disables instrumentation.
func WithEchoMetrics(reg *metrics.Registry) EchoSessionOption {
	return func(s *EchoSession) { s.metrics = reg }
}

// WithEchoDTMF wires a DTMF engine so that inbound-triggered sends can be
// overridden by pending digits.
func WithEchoDTMF(rfc2833Type, audioType *uint8) EchoSessionOption {
	return func(s *EchoSession) {
		s.dtmfEngine = dtmf.NewEngine()
		s.dtmfRFC2833Type = rfc2833Type
		s.dtmfAudioType = audioType
	}
}

// WithEchoRtpParams overrides the negotiated codec's RTP parameters, used
// for DTMF audio-fallback packet sizing. Defaults to media.DefaultRtpParams.
func WithEchoRtpParams(params media.RtpParams) EchoSessionOption {
	return func(s *EchoSession) { s.params = params }
}

// EchoSession is the echo-mode session controller: inbound audio is
// buffered delay packets deep and echoed back to the sender, with pending DTMF digits
// preempting the echo on any given receive opportunity and a 10s
// inactivity watchdog tearing the call down.
type EchoSession struct {
	// ID names this session in logs.
	ID string

	conn  *net.UDPConn
	sink  *udpSink
	call  CallHooks
	delay int

	parser media.Parser
	framer *media.Framer
	state  *media.SessionState
	buffer []echoFrame
	params media.RtpParams

	dtmfEngine      *dtmf.Engine
	dtmfRFC2833Type *uint8
	dtmfAudioType   *uint8

	record  *recordTap
	metrics *metrics.Registry
	log     zerolog.Logger

	cleanup *cleanupStack
	wd      *watchdog
	closed  atomic.Bool
}

// NewEchoSession builds an echo session on conn, sending to raddr (nil
// meaning held). delay<0 makes the session receive-only; delay==0 echoes
// immediately; delay>0 holds that many packets before the oldest is
// flushed.
func NewEchoSession(conn *net.UDPConn, raddr *net.UDPAddr, delay int, call CallHooks, opts ...EchoSessionOption) *EchoSession {
	sink := newUDPSink(conn, raddr)
	id := uuid.NewString()
	s := &EchoSession{
		ID:      id,
		conn:    conn,
		sink:    sink,
		call:    call,
		delay:   delay,
		state:   media.NewSessionState(),
		params:  media.DefaultRtpParams(),
		cleanup: &cleanupStack{},
		log:     log.With().Str("caller", "EchoSession").Str("session_id", id).Logger(),
	}
	s.framer = media.NewFramer(rand32(), sink)
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetRemote updates the destination address, e.g. when a held call
// resumes or re-INVITEs to a new address.
func (s *EchoSession) SetRemote(addr *net.UDPAddr) {
	s.sink.setRemote(addr)
}

// DTMF returns a writer for sending digits into this session, or nil if
// WithEchoDTMF was not supplied.
func (s *EchoSession) DTMF() *DTMFWriter {
	if s.dtmfEngine == nil {
		return nil
	}
	return NewDTMFWriter(s.dtmfEngine, s.dtmfRFC2833Type, s.dtmfAudioType)
}

// Start runs the receive loop until ctx is cancelled, the call hangs up,
// or the socket closes. It blocks; run it in its own goroutine.
func (s *EchoSession) Start(ctx context.Context) error {
	s.metrics.SessionStarted()
	s.cleanup.Add(func() { s.metrics.SessionEnded() })
	s.wd = startWatchdog(s.state, func() {
		s.log.Info().Msg("echo session inactivity timeout")
		s.metrics.Teardown("inactivity")
		s.call.Bye()
		s.Close()
	})
	s.cleanup.Add(s.wd.Cancel)
	s.cleanup.Add(func() { s.conn.Close() })
	if s.record != nil {
		s.cleanup.Add(s.record.close)
	}

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	buf := make([]byte, 1500)
	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			s.fatal(err, "io_error")
			return err
		}
		s.handlePacket(buf[:n])
	}
}

func (s *EchoSession) handlePacket(raw []byte) {
	pkt, err := s.parser.Parse(raw)
	if err != nil {
		s.metrics.PacketDropped()
		return
	}
	if !s.state.Accept(pkt.Header.SequenceNumber, pkt.Header.Timestamp) {
		s.metrics.PacketDropped()
		return
	}
	s.metrics.PacketReceived()

	if s.record != nil {
		if err := s.record.capture(s.log, pkt.Payload, pkt.Header.SequenceNumber, pkt.Header.Timestamp); err != nil {
			s.fatal(err, "record_error")
			return
		}
	}

	if s.tryDTMF(pkt) {
		return
	}

	if s.delay < 0 {
		return
	}

	s.buffer = append(s.buffer, echoFrame{
		seq:         pkt.Header.SequenceNumber,
		timestamp:   pkt.Header.Timestamp,
		payloadType: pkt.Header.PayloadType,
		payload:     append([]byte(nil), pkt.Payload...),
	})
	for len(s.buffer) > s.delay {
		front := s.buffer[0]
		s.buffer = s.buffer[1:]
		s.sendEcho(front)
	}
}

// tryDTMF consults the DTMF engine, if any, using this arriving packet's
// own timestamp as the nominal clock and its per-packet timestamp delta
// as the engine's tdiff. It reports whether a DTMF packet was sent in
// place of the ordinary echo.
func (s *EchoSession) tryDTMF(pkt *media.RtpPacket) bool {
	if s.dtmfEngine == nil || s.dtmfEngine.Pending() == 0 {
		return false
	}
	ltdiff, known := s.state.Ltdiff()
	if !known {
		return false
	}
	decision, ok := s.dtmfEngine.Consult(pkt.Header.Timestamp, ltdiff, int(s.params.SamplesPerPacket))
	if !ok || decision.Kind == dtmf.DecisionNone {
		return false
	}

	timestamp := pkt.Header.Timestamp
	if decision.Kind == dtmf.DecisionRFC2833 {
		timestamp = decision.Timestamp
	}
	if s.sink.remote() == nil {
		return true
	}
	repeat := decision.Repeat
	if repeat <= 0 {
		repeat = 1
	}
	if _, err := s.framer.Send(decision.PayloadType, decision.Marker, pkt.Header.SequenceNumber, timestamp, decision.Payload, repeat); err != nil {
		s.fatal(err, "io_error")
		return true
	}
	for i := 0; i < repeat; i++ {
		s.metrics.PacketSent()
	}
	return true
}

func (s *EchoSession) sendEcho(f echoFrame) {
	if s.sink.remote() == nil {
		return
	}
	_, err := s.framer.Send(f.payloadType, false, f.seq, f.timestamp, f.payload, 1)
	if err != nil {
		s.fatal(err, "io_error")
		return
	}
	s.metrics.PacketSent()
}

// fatal aborts the session: socket and record errors are unrecoverable,
// so the call is torn down and the cleanup stack runs.
func (s *EchoSession) fatal(err error, reason string) {
	s.log.Error().Err(err).Msg("echo session aborted")
	s.metrics.Teardown(reason)
	s.call.Bye()
	s.Close()
}

// Close releases the session's resources. Safe to call more than once.
func (s *EchoSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.cleanup.Run()
	return nil
}

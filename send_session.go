// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sipdial/rtpengine/dtmf"
	"github.com/sipdial/rtpengine/media"
	"github.com/sipdial/rtpengine/metrics"
)

// PayloadOverride is the optional second half of a payload callback's
// return value, modeling the "bytes or a record overriding pt/marker/ts"
// sum type: a callback that only needs to supply payload leaves every
// field zero.
type PayloadOverride struct {
	PayloadType *uint8
	Marker      bool
	Timestamp   *uint32
}

// PayloadCallback supplies one packet's payload for outbound sequence
// number seq. A nil/empty payload, or ok=false, ends the session
// through the done callback.
type PayloadCallback func(seq uint16) ([]byte, PayloadOverride, bool)

// FileOpener (re)opens a playback source from the beginning. The send
// loop calls it again whenever a file-backed PlaybackSession repeats,
// so repeats restart from the beginning of the file.
type FileOpener func() (io.ReadCloser, error)

// fileSource pulls fixed-size packets out of a reopenable byte stream,
// preserving the repeat contract exactly: a configured repeat<=0 plays
// forever (stored as the -1 sentinel, whose decrement is
// skipped entirely); a configured repeat>0 plays that many full passes,
// decrementing once per EOF, and stops the instant it reaches 0.
type fileSource struct {
	open   FileOpener
	cur    io.ReadCloser
	repeat int
}

func newFileSource(open FileOpener, repeat int) *fileSource {
	if repeat <= 0 {
		repeat = -1
	}
	return &fileSource{open: open, repeat: repeat}
}

// read fills buf completely, reopening across EOF/repeat boundaries. It
// reports false once the source is exhausted, ending the session. A pass
// that yields no bytes at all counts as exhaustion regardless of the
// repeat count, so an empty or stopped source cannot spin forever.
func (f *fileSource) read(buf []byte) (int, bool) {
	total := 0
	fresh := false
	for total < len(buf) {
		if f.cur == nil {
			if f.repeat == 0 {
				return total, false
			}
			r, err := f.open()
			if err != nil {
				return total, false
			}
			f.cur = r
			fresh = true
		}

		n, err := f.cur.Read(buf[total:])
		total += n
		if n > 0 {
			fresh = false
		}
		if err != nil {
			f.cur.Close()
			f.cur = nil
			if fresh {
				return total, false
			}
			if f.repeat > 0 {
				f.repeat--
			}
			if f.repeat == 0 {
				return total, false
			}
		}
	}
	return total, true
}

func (f *fileSource) Close() error {
	if f.cur != nil {
		return f.cur.Close()
	}
	return nil
}

// PlaybackSessionOption configures a PlaybackSession at construction time.
type PlaybackSessionOption func(*PlaybackSession)

// WithRecorder sets a writer that receives every accepted inbound
// payload, independent of the outbound playback path.
func WithRecorder(w io.Writer) PlaybackSessionOption {
	return func(s *PlaybackSession) { s.record = &recordTap{w: w} }
}

// WithRecorderFunc invokes fn with every accepted inbound payload
// together with its RTP sequence number and timestamp.
func WithRecorderFunc(fn RecordFunc) PlaybackSessionOption {
	return func(s *PlaybackSession) { s.record = &recordTap{fn: fn} }
}

// WithRecordFile appends every accepted inbound payload to the file at
// path, opened lazily on the first packet. The output is the raw
// concatenated payloads with no container. A file error tears the
// session down.
func WithRecordFile(path string) PlaybackSessionOption {
	return func(s *PlaybackSession) { s.record = &recordTap{path: path} }
}

// WithSendTap mirrors every ordinary outbound audio payload into w,
// e.g. a Recording's outbound channel. DTMF bursts are not mirrored.
func WithSendTap(w io.Writer) PlaybackSessionOption {
	return func(s *PlaybackSession) { s.sendTap = w }
}

// WithMetrics attaches a metrics registry. A nil registry (the default)
// disables instrumentation.
func WithMetrics(reg *metrics.Registry) PlaybackSessionOption {
	return func(s *PlaybackSession) { s.metrics = reg }
}

// WithDTMF wires a DTMF engine for outbound digit insertion and inbound
// telephony-event detection.
func WithDTMF(rfc2833Type, audioType *uint8) PlaybackSessionOption {
	return func(s *PlaybackSession) {
		s.dtmfEngine = dtmf.NewEngine()
		s.dtmfRFC2833Type = rfc2833Type
		s.dtmfAudioType = audioType
	}
}

// WithRtpParams overrides the negotiated codec's RTP parameters,
// including the send-timer period. Defaults to media.DefaultRtpParams.
func WithRtpParams(params media.RtpParams) PlaybackSessionOption {
	return func(s *PlaybackSession) { s.params = params }
}

// WithPlaybackFile reads outbound packets from a reopenable byte
// stream, repeating per the configured count (repeat<=0 forever,
// repeat>0 that many passes). Mutually exclusive with WithPlaybackCallback; the callback
// wins if both are supplied.
func WithPlaybackFile(open FileOpener, repeat int) PlaybackSessionOption {
	return func(s *PlaybackSession) { s.source = newFileSource(open, repeat) }
}

// WithPlaybackCallback supplies outbound payload from cb instead of a
// file.
func WithPlaybackCallback(cb PayloadCallback) PlaybackSessionOption {
	return func(s *PlaybackSession) { s.callback = cb }
}

// WithDone overrides the default done callback (call.Bye()), invoked
// exactly once when playback is exhausted or a callback signals end.
func WithDone(fn func()) PlaybackSessionOption {
	return func(s *PlaybackSession) { s.doneCB = fn }
}

// PlaybackSession is the send/receive session controller: a periodic
// send timer drives packetized playback from a file or callback, independent of a
// symmetric (non-echoing) receive path, with pending DTMF digits
// preempting regular payload on any given tick and a 10s inactivity
// watchdog tearing the call down.
type PlaybackSession struct {
	// ID names this session in logs.
	ID string

	conn *net.UDPConn
	sink *udpSink
	call CallHooks

	parser media.Parser
	framer *media.Framer
	state  *media.SessionState
	seq    media.Sequencer
	params media.RtpParams

	dtmfEngine      *dtmf.Engine
	dtmfRFC2833Type *uint8
	dtmfAudioType   *uint8
	dtmfReader      *DTMFReader

	record  *recordTap
	sendTap io.Writer

	source   *fileSource
	callback PayloadCallback
	doneCB   func()
	doneOnce sync.Once

	metrics *metrics.Registry
	log     zerolog.Logger

	cleanup *cleanupStack
	wd      *watchdog
	ticker  *time.Ticker
	quit    chan struct{}
	closed  atomic.Bool
}

// NewPlaybackSession builds a send/receive session on conn, sending to
// raddr (nil meaning held).
func NewPlaybackSession(conn *net.UDPConn, raddr *net.UDPAddr, call CallHooks, opts ...PlaybackSessionOption) *PlaybackSession {
	sink := newUDPSink(conn, raddr)
	id := uuid.NewString()
	s := &PlaybackSession{
		ID:      id,
		conn:    conn,
		sink:    sink,
		call:    call,
		state:   media.NewSessionState(),
		params:  media.DefaultRtpParams(),
		cleanup: &cleanupStack{},
		quit:    make(chan struct{}),
		log:     log.With().Str("caller", "PlaybackSession").Str("session_id", id).Logger(),
	}
	s.framer = media.NewFramer(rand32(), sink)
	for _, o := range opts {
		o(s)
	}
	if s.dtmfRFC2833Type != nil {
		s.dtmfReader = NewDTMFReader(*s.dtmfRFC2833Type)
	}
	return s
}

// SetRemote updates the destination address, e.g. when a held call
// resumes or re-INVITEs to a new address.
func (s *PlaybackSession) SetRemote(addr *net.UDPAddr) {
	s.sink.setRemote(addr)
}

// DTMF returns a writer for sending digits into this session, or nil if
// WithDTMF was not supplied.
func (s *PlaybackSession) DTMF() *DTMFWriter {
	if s.dtmfEngine == nil {
		return nil
	}
	return NewDTMFWriter(s.dtmfEngine, s.dtmfRFC2833Type, s.dtmfAudioType)
}

// ReadDTMF returns the most recently detected inbound digit, if any,
// clearing it on read. It always reports false if WithDTMF was not
// supplied with a non-nil rfc2833Type.
func (s *PlaybackSession) ReadDTMF() (dtmf.Symbol, bool) {
	if s.dtmfReader == nil {
		return 0, false
	}
	return s.dtmfReader.ReadDTMF()
}

// Start runs the receive loop and the send timer until ctx is
// cancelled, playback is exhausted, or the socket closes. It blocks;
// run it in its own goroutine.
func (s *PlaybackSession) Start(ctx context.Context) error {
	s.metrics.SessionStarted()
	s.cleanup.Add(func() { s.metrics.SessionEnded() })
	s.wd = startWatchdog(s.state, func() {
		s.log.Info().Msg("playback session inactivity timeout")
		s.metrics.Teardown("inactivity")
		s.call.Bye()
		s.Close()
	})
	s.cleanup.Add(s.wd.Cancel)
	s.cleanup.Add(func() { s.conn.Close() })
	if s.source != nil {
		s.cleanup.Add(func() { s.source.Close() })
	}
	if s.record != nil {
		s.cleanup.Add(s.record.close)
	}

	go func() {
		<-ctx.Done()
		s.Close()
	}()
	go s.receiveLoop()

	s.sendLoop(ctx)
	return nil
}

func (s *PlaybackSession) receiveLoop() {
	buf := make([]byte, 1500)
	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.log.Error().Err(err).Msg("playback session read failed")
			s.metrics.Teardown("io_error")
			s.call.Bye()
			s.Close()
			return
		}
		s.handleInbound(buf[:n])
	}
}

func (s *PlaybackSession) handleInbound(raw []byte) {
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
			s.log.Error().Err(err).Msg("playback session aborted")
			s.metrics.Teardown("record_error")
			s.call.Bye()
			s.Close()
			return
		}
	}

	if s.dtmfReader != nil {
		s.dtmfReader.Feed(pkt.Header.PayloadType, pkt.Payload)
	}
}

// sendLoop drives the periodic send timer, firing immediately on entry
// and thereafter every params.PacketInterval until the context is
// cancelled or playback ends.
func (s *PlaybackSession) sendLoop(ctx context.Context) {
	s.ticker = time.NewTicker(s.params.PacketInterval)
	s.cleanup.Add(s.ticker.Stop)

	if !s.tick() {
		s.Close()
		return
	}
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.quit:
			return
		case <-s.ticker.C:
			if !s.tick() {
				s.Close()
				return
			}
		}
	}
}

// tick is one send opportunity: advance wseq and the
// nominal outbound timestamp, let a pending DTMF digit preempt the
// ordinary payload, and otherwise pull one packet from the callback or
// file source. It returns false once playback is exhausted.
func (s *PlaybackSession) tick() bool {
	seq := s.seq.Next()
	timestamp := s.params.SamplesPerPacket * uint32(seq)

	if s.dtmfEngine != nil && s.dtmfEngine.Pending() > 0 {
		d, ok := s.dtmfEngine.Consult(timestamp, s.params.SamplesPerPacket, int(s.params.SamplesPerPacket))
		if ok && d.Kind != dtmf.DecisionNone {
			ts := timestamp
			if d.Kind == dtmf.DecisionRFC2833 {
				ts = d.Timestamp
			}
			return s.sendFramed(d.PayloadType, d.Marker, seq, ts, d.Payload, d.Repeat)
		}
	}

	payload, override, ok := s.nextPayload(seq)
	if !ok || len(payload) == 0 {
		s.finish()
		return false
	}

	pt := s.params.DefaultPayloadType
	if override.PayloadType != nil {
		pt = *override.PayloadType
	}
	ts := timestamp
	if override.Timestamp != nil {
		ts = *override.Timestamp
	}

	if !s.sendFramed(pt, override.Marker, seq, ts, payload, 1) {
		return false
	}
	if s.sendTap != nil {
		if _, err := s.sendTap.Write(payload); err != nil {
			s.log.Debug().Err(err).Msg("playback session send tap write failed")
		}
	}
	return true
}

func (s *PlaybackSession) nextPayload(seq uint16) ([]byte, PayloadOverride, bool) {
	if s.callback != nil {
		return s.callback(seq)
	}
	if s.source != nil {
		buf := make([]byte, s.params.SamplesPerPacket)
		n, ok := s.source.read(buf)
		if !ok {
			return nil, PayloadOverride{}, false
		}
		return buf[:n], PayloadOverride{}, true
	}
	return nil, PayloadOverride{}, false
}

// sendFramed frames and sends one packet, reporting false on a socket
// failure, which is fatal to the session per the error policy.
func (s *PlaybackSession) sendFramed(pt uint8, marker bool, seq uint16, ts uint32, payload []byte, repeat int) bool {
	if s.sink.remote() == nil {
		return true
	}
	if repeat <= 0 {
		repeat = 1
	}
	if _, err := s.framer.Send(pt, marker, seq, ts, payload, repeat); err != nil {
		s.log.Error().Err(err).Msg("playback session send failed")
		s.metrics.Teardown("io_error")
		s.call.Bye()
		return false
	}
	for i := 0; i < repeat; i++ {
		s.metrics.PacketSent()
	}
	return true
}

// finish invokes the done callback exactly once: the custom one supplied
// via WithDone, or call.Bye() by default.
func (s *PlaybackSession) finish() {
	s.doneOnce.Do(func() {
		s.metrics.Teardown("send_exhausted")
		if s.doneCB != nil {
			s.doneCB()
		} else {
			s.call.Bye()
		}
	})
}

// Close releases the session's resources. Safe to call more than once.
func (s *PlaybackSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.quit)
	s.cleanup.Run()
	return nil
}

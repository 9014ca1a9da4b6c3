// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sipdial/rtpengine/audio"
	"github.com/sipdial/rtpengine/media"
)

// RecordFunc is the callback form of a session's record destination: it
// is invoked with every accepted inbound payload together with the RTP
// sequence number and timestamp it arrived under.
type RecordFunc func(payload []byte, seq uint16, timestamp uint32)

// recordTap resolves the three record destinations a session accepts: a
// callback, an arbitrary writer, or a file path opened lazily on the
// first accepted packet. A file error is fatal to the session; a plain
// writer error is logged and skipped.
type recordTap struct {
	fn   RecordFunc
	w    io.Writer
	path string
	file *os.File
}

func (t *recordTap) capture(logger zerolog.Logger, payload []byte, seq uint16, timestamp uint32) error {
	switch {
	case t.fn != nil:
		t.fn(payload, seq, timestamp)
	case t.w != nil:
		if _, err := t.w.Write(payload); err != nil {
			logger.Debug().Err(err).Msg("recorder write failed")
		}
	case t.path != "":
		if t.file == nil {
			f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("opening record file: %w", err)
			}
			t.file = f
		}
		if _, err := t.file.Write(payload); err != nil {
			return fmt.Errorf("writing record file: %w", err)
		}
	}
	return nil
}

func (t *recordTap) close() {
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
}

const (
	recordChannelIn  = 0
	recordChannelOut = 1
)

// Recording captures both directions of a call into one stereo WAV:
// inbound payload on the left channel, outbound on the right. Feed it by
// passing InboundWriter to WithRecorder/WithEchoRecorder and
// OutboundWriter to WithSendTap; either side may stay silent, Close pads
// the shorter channel so the file stays in sync.
type Recording struct {
	// ID names this recording in logs, the way paired monitor captures
	// are tied together by one generated identifier.
	ID string

	wav *audio.WavWriter
	dec [2]*audio.PCMDecoder

	mu      sync.Mutex
	pending [2][]byte
	paused  atomic.Bool
	log     zerolog.Logger
}

// NewRecordingWav builds a stereo recorder writing WAV into w. inCodec
// and outCodec are the negotiated codecs of the receive and send paths;
// both are expanded to 16-bit linear PCM at 8 kHz.
func NewRecordingWav(inCodec, outCodec media.Codec, w io.WriteSeeker) (*Recording, error) {
	decIn, err := audio.NewPCMDecoder(inCodec.PayloadType)
	if err != nil {
		return nil, fmt.Errorf("recording inbound codec: %w", err)
	}
	decOut, err := audio.NewPCMDecoder(outCodec.PayloadType)
	if err != nil {
		return nil, fmt.Errorf("recording outbound codec: %w", err)
	}

	id := uuid.NewString()
	format := audio.WavFormatVoip
	format.NumChannels = 2
	return &Recording{
		ID:  id,
		wav: audio.NewWavWriter(w, format),
		dec: [2]*audio.PCMDecoder{decIn, decOut},
		log: log.With().Str("caller", "Recording").Str("recording_id", id).Logger(),
	}, nil
}

// InboundWriter returns the left-channel sink, fed with received RTP
// payloads.
func (r *Recording) InboundWriter() io.Writer {
	return recordingChannel{rec: r, ch: recordChannelIn}
}

// OutboundWriter returns the right-channel sink, fed with transmitted
// RTP payloads.
func (r *Recording) OutboundWriter() io.Writer {
	return recordingChannel{rec: r, ch: recordChannelOut}
}

// Pause toggles capture. Payload arriving while paused is dropped, not
// buffered.
func (r *Recording) Pause(toggle bool) {
	r.paused.Store(toggle)
}

type recordingChannel struct {
	rec *Recording
	ch  int
}

func (c recordingChannel) Write(payload []byte) (int, error) {
	return c.rec.push(c.ch, payload)
}

func (r *Recording) push(ch int, payload []byte) (int, error) {
	if r.paused.Load() {
		return len(payload), nil
	}

	pcm := make([]byte, 2*len(payload))
	n, err := r.dec[ch].Translate(pcm, payload)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[ch] = append(r.pending[ch], pcm[:n]...)
	return len(payload), r.flushLocked()
}

// flushLocked interleaves as many complete stereo frames as both
// channels can supply and hands them to the WAV writer.
func (r *Recording) flushLocked() error {
	frames := min(len(r.pending[0]), len(r.pending[1])) / 2
	if frames == 0 {
		return nil
	}

	buf := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		copy(buf[i*4:], r.pending[0][i*2:i*2+2])
		copy(buf[i*4+2:], r.pending[1][i*2:i*2+2])
	}
	r.pending[0] = r.pending[0][frames*2:]
	r.pending[1] = r.pending[1][frames*2:]

	_, err := r.wav.Write(buf)
	return err
}

// Close pads the shorter channel with silence to drain whatever is left,
// finalizes the WAV header, and logs the capture size.
func (r *Recording) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d := len(r.pending[0]) - len(r.pending[1]); d > 0 {
		r.pending[1] = append(r.pending[1], make([]byte, d)...)
	} else if d < 0 {
		r.pending[0] = append(r.pending[0], make([]byte, -d)...)
	}
	if err := r.flushLocked(); err != nil {
		return err
	}

	err := r.wav.Close()
	r.log.Debug().Err(err).Msg("recording closed")
	return err
}

// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import (
	"io"
	"sync/atomic"
)

// UlawSilence is the G.711 µ-law code for a zero sample, used to fill
// muted playback so the stream keeps its cadence.
const UlawSilence = 0xFF

// PlaybackControl toggles a playback source while the session keeps
// running: Mute replaces payload with silence without breaking the
// packet cadence, Stop ends the source as if the file were exhausted.
// Both are safe from any goroutine.
type PlaybackControl struct {
	muted atomic.Bool
	stop  atomic.Bool
	fill  byte
}

// Mute toggles silence-filling of everything read from the source.
func (c *PlaybackControl) Mute(mute bool) {
	c.muted.Store(mute)
}

// Stop ends the playback source with io.EOF. The session then runs its
// normal exhaustion path: repeat bookkeeping, done callback, teardown.
func (c *PlaybackControl) Stop() {
	c.stop.Store(true)
}

// controlledReader applies a PlaybackControl to one opened source.
type controlledReader struct {
	src io.ReadCloser
	ctl *PlaybackControl
}

func (r *controlledReader) Read(b []byte) (int, error) {
	if r.ctl.stop.Load() {
		return 0, io.EOF
	}
	n, err := r.src.Read(b)
	if r.ctl.muted.Load() {
		for i := range b[:n] {
			b[i] = r.ctl.fill
		}
	}
	return n, err
}

func (r *controlledReader) Close() error {
	return r.src.Close()
}

// ControlledOpener wraps a playback FileOpener so the returned control
// can mute or stop the stream mid-session. fill is the byte muted
// payload is replaced with; for µ-law sources use UlawSilence.
func ControlledOpener(open FileOpener, fill byte) (FileOpener, *PlaybackControl) {
	ctl := &PlaybackControl{fill: fill}
	wrapped := func() (io.ReadCloser, error) {
		src, err := open()
		if err != nil {
			return nil, err
		}
		return &controlledReader{src: src, ctl: ctl}, nil
	}
	return wrapped, ctl
}

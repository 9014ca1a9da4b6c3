// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import (
	"sync"
	"time"

	"github.com/sipdial/rtpengine/media"
)

// inactivityTimeout is the fixed 10s silence window after which a session
// tears its call down.
const inactivityTimeout = 10 * time.Second

// watchdog fires onExpire once if state.Didit() reports no inbound
// traffic since the previous tick, otherwise it resets and keeps
// watching. It self-cancels after firing.
type watchdog struct {
	timer *time.Timer
	stop  chan struct{}
	once  sync.Once
}

func startWatchdog(state *media.SessionState, onExpire func()) *watchdog {
	return startWatchdogInterval(state, inactivityTimeout, onExpire)
}

func startWatchdogInterval(state *media.SessionState, interval time.Duration, onExpire func()) *watchdog {
	w := &watchdog{
		timer: time.NewTimer(interval),
		stop:  make(chan struct{}),
	}
	go w.run(state, interval, onExpire)
	return w
}

func (w *watchdog) run(state *media.SessionState, interval time.Duration, onExpire func()) {
	for {
		select {
		case <-w.timer.C:
			if !state.Didit() {
				onExpire()
				return
			}
			w.timer.Reset(interval)
		case <-w.stop:
			return
		}
	}
}

// Cancel stops the watchdog. Safe to call more than once and safe to
// call after the watchdog has already fired.
func (w *watchdog) Cancel() {
	w.once.Do(func() {
		w.timer.Stop()
		close(w.stop)
	})
}

// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import "sync"

// cleanupStack runs registered cleanups exactly once, in LIFO order, the
// reverse of the order a session's resources were acquired (for a
// playback session: stop the send ticker, close files, close the
// socket, cancel the inactivity watchdog).
type cleanupStack struct {
	mu   sync.Mutex
	fns  []func()
	done bool
}

// Add registers fn to run on the next Run. If Run already fired, fn runs
// immediately instead, so late registration after teardown can't leak a
// resource.
func (c *cleanupStack) Add(fn func()) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		fn()
		return
	}
	c.fns = append(c.fns, fn)
	c.mu.Unlock()
}

// Run executes every registered cleanup in LIFO order. It is idempotent;
// only the first call has any effect.
func (c *cleanupStack) Run() {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.done = true
	fns := c.fns
	c.fns = nil
	c.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

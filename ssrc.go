// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import "math/rand"

// rand32 picks a random SSRC for a session's outbound stream identity.
func rand32() uint32 {
	return rand.Uint32()
}

// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

// Package rtpengine terminates RTP media for SIP calls: per-call echo
// and playback/record sessions over UDP, RFC 2833 telephony-event
// multiplexing with a µ-law tone fallback, stereo WAV call recording,
// and inactivity-driven teardown. Signaling, SDP negotiation, and the
// SIP dialog itself stay outside; sessions consume only the negotiated
// sockets, remote addresses, and a narrow CallHooks surface.
package rtpengine

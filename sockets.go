// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtpengine

import (
	"net"
	"sync/atomic"
)

// NewSocketPair opens a UDP socket bound to laddr, serving as both the
// receive socket and (absent a distinct send socket) the send socket, per
// the send socket when signaling does not supply a distinct one.
func NewSocketPair(laddr *net.UDPAddr) (*net.UDPConn, error) {
	return net.ListenUDP("udp", laddr)
}

// udpSink adapts a UDP socket and a possibly-nil remote address (nil
// meaning the call is on hold) into the media.RtpWriter
// a Framer writes frames through.
type udpSink struct {
	conn  *net.UDPConn
	raddr atomic.Pointer[net.UDPAddr]
}

func newUDPSink(conn *net.UDPConn, raddr *net.UDPAddr) *udpSink {
	s := &udpSink{conn: conn}
	s.setRemote(raddr)
	return s
}

func (s *udpSink) setRemote(addr *net.UDPAddr) {
	s.raddr.Store(addr)
}

func (s *udpSink) remote() *net.UDPAddr {
	return s.raddr.Load()
}

// Write implements media.RtpWriter. A nil remote address is a no-op
// success so a Framer built against this sink is always safe to call;
// callers still check remote() themselves to decide whether to build and
// count a frame at all.
func (s *udpSink) Write(b []byte) (int, error) {
	addr := s.raddr.Load()
	if addr == nil {
		return len(b), nil
	}
	return s.conn.WriteToUDP(b, addr)
}

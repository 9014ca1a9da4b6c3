// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufWriter struct {
	writes [][]byte
}

func (b *bufWriter) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	b.writes = append(b.writes, cp)
	return len(p), nil
}

func TestFramerBuildsMinimalHeader(t *testing.T) {
	f := NewFramer(0xAABBCCDD, nil)
	buf, err := f.Build(CodecPCMU.PayloadType, false, 7, 1600, []byte{1, 2, 3})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(buf), HeaderSize)
	assert.EqualValues(t, 0x80, buf[0])
	assert.EqualValues(t, CodecPCMU.PayloadType, buf[1])
}

func TestFramerSendRepeatsIdenticalDatagrams(t *testing.T) {
	w := &bufWriter{}
	f := NewFramer(1, w)

	n, err := f.Send(0, true, 5, 100, []byte("abc"), 3)
	require.NoError(t, err)
	require.Len(t, w.writes, 3)
	assert.Equal(t, w.writes[0], w.writes[1])
	assert.Equal(t, w.writes[1], w.writes[2])
	assert.Equal(t, len(w.writes[0])*3, n)
}

func TestFramerSendDefaultsRepeatToOne(t *testing.T) {
	w := &bufWriter{}
	f := NewFramer(1, w)

	_, err := f.Send(0, false, 1, 1, []byte("x"), 0)
	require.NoError(t, err)
	assert.Len(t, w.writes, 1)
}

package gbplink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// busProbe drives a Session the way the Game Boy master does: it bit-bangs
// sampled clock transitions and records the serial-out levels a real peer
// would see.
//
// With CPOL=1/CPHA=1 the peer samples the printer's line on the rising
// edge. In dual-edge mode that level is the one returned by the preceding
// falling-edge call; in rising-only mode it is the level returned by the
// previous rising-edge call, mirrored in lineOut.
type busProbe struct {
	t  *testing.T
	gs *Session

	lineOut bool
}

func newBusProbe(t *testing.T, opts ...SessionOption) *busProbe {
	t.Helper()

	cfg, err := NewSessionConfig(opts...)
	require.NoError(t, err)

	gs, err := NewSession(cfg)
	require.NoError(t, err)

	return &busProbe{t: t, gs: gs}
}

// sendBit clocks one bit into the session and returns the level the peer
// samples for this bit position.
func (p *busProbe) sendBit(bit bool) bool {
	if p.gs.cfg.edgeMode == EdgeModeRisingOnly {
		sampled := p.lineOut
		p.lineOut = p.gs.OnRisingEdge(bit)

		return sampled
	}

	out := p.gs.OnBusEdge(false, bit)
	p.gs.OnBusEdge(true, bit)

	return out
}

// sendByte clocks one byte MSB first and returns the byte the peer samples.
func (p *busProbe) sendByte(b byte) byte {
	var resp byte
	for i := 7; i >= 0; i-- {
		if p.sendBit(b&(1<<i) != 0) {
			resp |= 1 << i
		}
	}

	return resp
}

// exchange clocks every frame byte through the link and returns the
// peer-sampled response bytes, one per frame byte.
func (p *busProbe) exchange(frame []byte) []byte {
	resp := make([]byte, len(frame))
	for i, b := range frame {
		resp[i] = p.sendByte(b)
	}

	return resp
}

// frameBytes builds a complete wire frame for one packet. checksumDelta is
// added to the correct checksum; zero produces a valid frame.
func frameBytes(cmd Command, compression byte, payload []byte, checksumDelta uint16) []byte {
	frame := []byte{
		SyncByteFirst, SyncByteSecond,
		byte(cmd), compression,
		byte(len(payload)), byte(len(payload) >> 8),
	}
	frame = append(frame, payload...)

	var checksum uint16
	for _, b := range frame[2:] {
		checksum += uint16(b)
	}
	checksum += checksumDelta

	return append(frame, byte(checksum), byte(checksum>>8), 0x00, 0x00)
}

// statusFrom extracts the device ID and status word the printer shifted out
// during the two trailing dummy bytes.
func statusFrom(resp []byte) StatusWord {
	n := len(resp)

	return StatusWord(resp[n-2])<<8 | StatusWord(resp[n-1])
}

// sendPacket clocks a well-formed packet and returns the answered status
// word.
func (p *busProbe) sendPacket(cmd Command, payload []byte) StatusWord {
	return statusFrom(p.exchange(frameBytes(cmd, 0x00, payload, 0)))
}

// sendCorrupt clocks a packet with an off-by-one checksum and returns the
// answered status word.
func (p *busProbe) sendCorrupt(cmd Command, payload []byte) StatusWord {
	return statusFrom(p.exchange(frameBytes(cmd, 0x00, payload, 1)))
}

// drainPayload reads every buffered payload byte out of the session.
func (p *busProbe) drainPayload() []byte {
	var out []byte
	for {
		b, ok := p.gs.ReadPayloadByte()
		if !ok {
			return out
		}
		out = append(out, b)
	}
}

// takeFlags is a shorthand for TakeReceivedFlags.
func (p *busProbe) takeFlags() ReceivedFlags {
	return p.gs.TakeReceivedFlags()
}

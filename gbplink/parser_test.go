package gbplink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var edgeModes = []struct {
	name string
	mode EdgeMode
}{
	{"dual-edge", EdgeModeDualEdge},
	{"rising-only", EdgeModeRisingOnly},
}

func TestSession_InitPacket(t *testing.T) {
	for _, em := range edgeModes {
		t.Run(em.name, func(t *testing.T) {
			p := newBusProbe(t, WithEdgeMode(em.mode))

			resp := p.exchange(frameBytes(CommandInit, 0x00, nil, 0))

			// The line stays low until the response word; the device ID and
			// status byte ride the two trailing dummy bytes.
			assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0x81, 0x00}, resp)

			flags := p.takeFlags()
			assert.True(t, flags.Init)
			assert.True(t, flags.Notify)
			assert.False(t, flags.Data)
			assert.False(t, flags.Print)
			assert.Zero(t, p.gs.PayloadLen())

			// Flags are read-and-clear.
			flags = p.takeFlags()
			assert.Equal(t, ReceivedFlags{}, flags)
		})
	}
}

func TestSession_DataPacket(t *testing.T) {
	for _, em := range edgeModes {
		t.Run(em.name, func(t *testing.T) {
			p := newBusProbe(t, WithEdgeMode(em.mode))

			payload := make([]byte, 16)
			for i := range payload {
				payload[i] = byte(i * 3)
			}

			status := p.sendPacket(CommandData, payload)
			assert.Equal(t, DeviceID, status.DeviceID())
			assert.False(t, status.UnprocessedData(),
				"the response goes out before the post-response sequencing")

			flags := p.takeFlags()
			assert.True(t, flags.Data)
			assert.False(t, flags.DataEnd)
			assert.True(t, flags.Notify)

			// Buffered bytes appear in wire order and raise unprocessed-data.
			assert.True(t, p.gs.Status().UnprocessedData())
			assert.Equal(t, len(payload), p.gs.PayloadLen())
			assert.Equal(t, payload, p.drainPayload())
			assert.False(t, p.gs.Status().UnprocessedData(),
				"draining the buffer must clear unprocessed-data")
		})
	}
}

func TestSession_DataEndPacket(t *testing.T) {
	p := newBusProbe(t)

	p.sendPacket(CommandData, nil)

	flags := p.takeFlags()
	assert.True(t, flags.DataEnd)
	assert.False(t, flags.Data, "zero-length DATA is the end-of-data marker")

	assert.Zero(t, p.gs.PayloadLen())
	assert.False(t, p.gs.Status().UnprocessedData())
}

func TestSession_PrintPacket(t *testing.T) {
	p := newBusProbe(t)

	p.sendPacket(CommandPrint, []byte{0x01, 0x23, 0xE4, 0x7F})

	flags := p.takeFlags()
	assert.True(t, flags.Print)

	inst := p.gs.PrintInstruction()
	assert.Equal(t, 1, inst.Sheets())
	assert.Equal(t, 2, inst.LinefeedsBefore())
	assert.Equal(t, 3, inst.LinefeedsAfter())
	assert.Equal(t, byte(0xE4), inst.Palette())
	assert.Equal(t, byte(0x7F), inst.Density())

	// The instruction bytes never reach the payload buffer.
	assert.Zero(t, p.gs.PayloadLen())
}

func TestSession_PrintPacket_ClampsOversizedLength(t *testing.T) {
	p := newBusProbe(t)

	// A malformed PRINT declaring 8 payload bytes: the parser consumes only
	// the instruction-sized prefix and falls out of framing for the rest.
	p.exchange(frameBytes(CommandPrint, 0x00, []byte{1, 2, 3, 4, 5, 6, 7, 8}, 0))

	flags := p.takeFlags()
	assert.True(t, flags.Print)

	inst := p.gs.PrintInstruction()
	assert.Equal(t, PrintInstruction{1, 2, 3, 4}, inst)

	// The next well-formed packet re-synchronizes cleanly.
	p.sendPacket(CommandInit, nil)
	flags = p.takeFlags()
	assert.True(t, flags.Init)
}

func TestSession_UnknownCommand(t *testing.T) {
	p := newBusProbe(t)

	status := p.sendPacket(Command(0x09), nil)
	assert.Equal(t, DeviceID, status.DeviceID())

	flags := p.takeFlags()
	assert.True(t, flags.Notify, "unrecognized packets still notify")
	assert.False(t, flags.Init)
	assert.False(t, flags.Print)
	assert.False(t, flags.Data)
	assert.False(t, flags.DataEnd)
	assert.False(t, flags.Break)
	assert.False(t, flags.Inquiry)

	assert.Zero(t, p.gs.GetMetrics().ChecksumErrCount.Load())
}

func TestSession_UnknownCommand_DropsDeclaredLength(t *testing.T) {
	p := newBusProbe(t)

	// Unknown command declaring 3 payload bytes but carrying none: the
	// parser expects the checksum immediately, and its running sum uses the
	// dropped length, so the peer's checksum no longer matches.
	frame := []byte{
		SyncByteFirst, SyncByteSecond,
		0x09, 0x00,
		0x03, 0x00,
	}
	checksum := uint16(0x09 + 0x03)
	frame = append(frame, byte(checksum), byte(checksum>>8), 0x00, 0x00)

	p.exchange(frame)

	flags := p.takeFlags()
	assert.True(t, flags.Notify)
	assert.Equal(t, uint64(1), p.gs.GetMetrics().ChecksumErrCount.Load())
}

func TestSession_ChecksumMismatch_EnforcementOn(t *testing.T) {
	p := newBusProbe(t, WithChecksumEnforcement(true))

	status := p.sendCorrupt(CommandData, []byte{0xAA, 0xBB})
	assert.True(t, status.ChecksumError(),
		"the response of the corrupted packet must carry the error flag")

	flags := p.takeFlags()
	assert.True(t, flags.Data, "the received flag is raised even on mismatch")

	assert.Zero(t, p.gs.PayloadLen(), "staged payload must be discarded")

	// The flag is sticky: the peer is expected to recover the session, so a
	// following clean packet is still rejected.
	status = p.sendPacket(CommandData, []byte{0xCC})
	assert.True(t, status.ChecksumError())
	assert.Zero(t, p.gs.PayloadLen())

	// Recovery clears the flag and payloads commit again.
	p.gs.Reset()
	status = p.sendPacket(CommandData, []byte{0xDD})
	assert.False(t, status.ChecksumError())
	assert.Equal(t, []byte{0xDD}, p.drainPayload())

	assert.Equal(t, uint64(1), p.gs.GetMetrics().ChecksumErrCount.Load())
}

func TestSession_ChecksumMismatch_EnforcementOff(t *testing.T) {
	p := newBusProbe(t)

	status := p.sendCorrupt(CommandData, []byte{0xAA, 0xBB})
	assert.False(t, status.ChecksumError(), "without enforcement the response stays clean")

	flags := p.takeFlags()
	assert.True(t, flags.Data)

	// The payload is kept as received; the mismatch is only counted.
	assert.Equal(t, []byte{0xAA, 0xBB}, p.drainPayload())
	assert.Equal(t, uint64(1), p.gs.GetMetrics().ChecksumErrCount.Load())
}

func TestSession_BackToBackPackets(t *testing.T) {
	p := newBusProbe(t)

	first := []byte{0x10, 0x11, 0x12, 0x13}
	second := []byte{0x20, 0x21, 0x22, 0x23}

	p.sendPacket(CommandData, first)
	p.sendPacket(CommandData, second)

	// Payloads queue in arrival order across packets.
	assert.Equal(t, append(append([]byte{}, first...), second...), p.drainPayload())

	assert.Equal(t, uint64(2), p.gs.GetMetrics().PacketCount.Load())
	assert.Equal(t, uint64(2), p.gs.GetMetrics().SyncCount.Load(),
		"each packet re-acquires the sync marker")
}

func TestSession_PayloadOverflowDrops(t *testing.T) {
	p := newBusProbe(t, WithPayloadCapacity(4))

	p.sendPacket(CommandData, []byte{1, 2, 3, 4, 5, 6})

	// Overflow drops the excess bytes and keeps the oldest ones.
	assert.Equal(t, []byte{1, 2, 3, 4}, p.drainPayload())
	assert.Equal(t, uint64(4), p.gs.GetMetrics().PayloadByteCount.Load())
	assert.Equal(t, uint64(2), p.gs.GetMetrics().PayloadDropCount.Load())
}

func TestSession_DefensiveStageRecovery(t *testing.T) {
	p := newBusProbe(t)

	p.gs.sh.arm(shiftMode8Bits, 0)
	p.gs.stage = parseStage(99)

	p.gs.processWord()

	assert.Equal(t, stageHeaderCommand, p.gs.stage)
	assert.True(t, p.gs.sh.complete(), "the engine must be parked, not left mid-word")

	// A full packet still parses after the recovery.
	p.sendPacket(CommandInit, nil)
	assert.True(t, p.takeFlags().Init)
}

func TestParseStage_String(t *testing.T) {
	assert.Equal(t, "header-command", stageHeaderCommand.String())
	assert.Equal(t, "header-length", stageHeaderLength.String())
	assert.Equal(t, "payload", stagePayload.String())
	assert.Equal(t, "checksum", stageChecksum.String())
	assert.Equal(t, "dummy", stageDummy.String())
	assert.Equal(t, "invalid", parseStage(99).String())
}

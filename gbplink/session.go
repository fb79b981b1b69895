package gbplink

import (
	"github.com/retroemu/go-gbplink/internal/ring"
	"github.com/retroemu/go-gbplink/logger"
)

// ReceivedFlags is a read-and-clear snapshot of the per-packet-type received
// indicators and the generic notify flag.
type ReceivedFlags struct {
	Init    bool // INIT packet completed
	Print   bool // PRINT packet completed; see Session.PrintInstruction
	Data    bool // DATA packet with a nonzero declared length completed
	DataEnd bool // zero-length DATA packet (end-of-data marker) completed
	Break   bool // BREAK packet completed
	Inquiry bool // INQUIRY packet completed

	// Notify reports that any packet completed, recognized or not.
	Notify bool
}

// Session is one Game Boy Printer link session: the bit-level synchronizer
// and word transceiver, the packet parser, the status sequencer, and the
// timeout supervisor, bound to one payload buffer.
//
// Timing follows the SIO chart of the Game Boy Programming Manual v1.0,
// page 30: CPOL=1, CPHA=1. The clock idles high, levels change on the
// falling edge, and bits are sampled on the rising edge, MSB first.
//
// A Session is single-owner. OnBusEdge, OnRisingEdge, and OnElapsed mutate
// shared state and must be serialized by the caller: interrupt masking on a
// microcontroller, a mutex elsewhere (Dispatcher provides the latter).
// Payload and flag reads from another goroutine need the same serialization.
// The edge and timeout paths never allocate, block, or log.
type Session struct {
	cfg    *SessionConfig
	logger logger.Logger

	// sh is the bit engine; all other state advances only on its word
	// completions.
	sh shifter

	// Packet parsing state.
	stage        parseStage
	command      Command
	compression  byte
	length       uint16
	payloadIndex uint16
	checksum     uint16
	checksumCalc uint16

	// status is the response word transmitted during the Dummy stage.
	status StatusWord

	// Sequencer countdowns, in packets.
	busyCountdown    int
	untransCountdown int
	dataBudget       int

	flags       ReceivedFlags
	instruction PrintInstruction

	// timeRemaining is the inactivity budget left; zero disarms the
	// supervisor until the next completed word.
	timeRemaining uint32

	payload *ring.Buffer

	metrics SessionMetrics
}

// NewSession creates a link session from cfg.
func NewSession(cfg *SessionConfig) (*Session, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	gs := &Session{
		cfg:     cfg,
		logger:  cfg.logger,
		stage:   stageHeaderCommand,
		status:  newStatusWord(),
		payload: cfg.newPayloadBuffer(),
	}
	gs.sh.reset()

	return gs, nil
}

// OnBusEdge is the two-edge-variant bus callback, invoked on every clock
// transition with the clock and data line levels. It returns the level to
// drive on the serial-out line until the next invocation. Bits are captured
// on the rising edge; the next output bit is prepared on the falling edge.
func (gs *Session) OnBusEdge(clockHigh, dataHigh bool) bool {
	if !gs.sh.synced {
		// Pre-sync, only rising edges carry data.
		if !clockHigh {
			return false
		}
		if !gs.sh.scanBit(dataHigh) {
			return false
		}
		gs.syncAcquired()

		return false
	}

	if !gs.sh.complete() {
		if clockHigh {
			gs.sh.captureBit(dataHigh)
			if !gs.sh.complete() {
				return gs.sh.driveHigh
			}
		} else {
			gs.sh.prepareDriveBit()

			return gs.sh.driveHigh
		}
	}

	gs.processWord()

	return gs.sh.driveHigh
}

// OnRisingEdge is the rising-only-variant bus callback, invoked once per
// bit with the data line level sampled at the rising edge. It returns the
// level to drive on the serial-out line; the output bit for the next rising
// edge is prepared in the same invocation.
func (gs *Session) OnRisingEdge(dataHigh bool) bool {
	if !gs.sh.synced {
		if !gs.sh.scanBit(dataHigh) {
			return false
		}
		gs.syncAcquired()

		return false
	}

	if !gs.sh.complete() {
		gs.sh.captureBit(dataHigh)
		// Latch the next bit now so the line is valid at the next rising
		// edge.
		gs.sh.prepareDriveBit()
		if !gs.sh.complete() {
			return gs.sh.driveHigh
		}
	}

	gs.processWord()
	// First bit of the word the parser just armed.
	gs.sh.prepareDriveBit()

	return gs.sh.driveHigh
}

// syncAcquired arms the first header word after the scanner matched.
func (gs *Session) syncAcquired() {
	gs.stage = stageHeaderCommand
	gs.sh.arm(shiftMode16BitsBE, 0)
	gs.metrics.incSyncCount()
}

// OnElapsed is the supervisor callback, invoked periodically with the time
// elapsed since the previous invocation, in the units of the configured
// inactivity budget. It reports whether a full reset was forced.
//
// A pending BREAK forces the reset immediately, bypassing the countdown,
// and keeps forcing it until the caller takes the received flags. The
// countdown arms only once a word has completed; an idle session never
// resets.
func (gs *Session) OnElapsed(elapsed uint32) bool {
	if gs.flags.Break {
		gs.metrics.incBreakResetCount()
		gs.Reset()

		return true
	}

	if gs.timeRemaining > 0 {
		if gs.timeRemaining > elapsed {
			gs.timeRemaining -= elapsed
		} else {
			gs.timeRemaining = 0
		}

		if gs.timeRemaining == 0 {
			gs.metrics.incTimeoutResetCount()
			gs.Reset()

			return true
		}
	}

	return false
}

// Reset forces the session back to the unsynchronized idle state: the bit
// engine is cleared, all eight status flags are cleared (the device ID byte
// is preserved), the payload buffer is emptied including staged bytes, and
// the parser is re-armed at HeaderCmd. Received flags, sequencer countdowns,
// and bytes already drained by the caller are not touched. Idempotent.
func (gs *Session) Reset() {
	gs.sh.reset()
	gs.stage = stageHeaderCommand
	gs.status.clearFlags()
	gs.payload.Reset()
}

// TakeReceivedFlags returns the received-packet indicators accumulated since
// the last call and clears them. Clearing the Break flag also cancels a
// pending break-forced reset in OnElapsed.
func (gs *Session) TakeReceivedFlags() ReceivedFlags {
	f := gs.flags
	gs.flags = ReceivedFlags{}

	return f
}

// PrintInstruction returns a copy of the 4-byte print instruction captured
// by the most recent PRINT packet.
func (gs *Session) PrintInstruction() PrintInstruction { return gs.instruction }

// Status returns the current status word.
func (gs *Session) Status() StatusWord { return gs.status }

// --- Printer condition overrides ---
//
// The four flags below model physical printer conditions the sequencer never
// writes; an emulator raises them to surface fault states to the peer. They
// are cleared by Reset, a BREAK packet, or an explicit call with false.

// SetLowBattery raises or clears the low-battery status flag.
func (gs *Session) SetLowBattery(v bool) { gs.status.setFlag(StatusLowBattery, v) }

// SetOtherError raises or clears the catch-all error status flag.
func (gs *Session) SetOtherError(v bool) { gs.status.setFlag(StatusOtherError, v) }

// SetPaperJam raises or clears the paper-jam status flag.
func (gs *Session) SetPaperJam(v bool) { gs.status.setFlag(StatusPaperJam, v) }

// SetPacketError raises or clears the packet-error status flag.
func (gs *Session) SetPacketError(v bool) { gs.status.setFlag(StatusPacketError, v) }

// --- Payload access ---

// PayloadLen returns the number of buffered payload bytes.
func (gs *Session) PayloadLen() int { return gs.payload.Len() }

// ReadPayloadByte removes and returns the oldest buffered payload byte,
// clearing the unprocessed-data status flag when the buffer empties. The
// second return is false when nothing is buffered.
func (gs *Session) ReadPayloadByte() (byte, bool) {
	v, ok := gs.payload.Dequeue()
	if gs.payload.IsEmpty() {
		gs.status.setFlag(StatusUnprocessedData, false)
	}

	return v, ok
}

// PeekPayloadByte returns the buffered payload byte at the given offset from
// the oldest one without removing it.
func (gs *Session) PeekPayloadByte(offset int) (byte, bool) {
	return gs.payload.Peek(offset)
}

// OutputLevel returns the level currently driven on the serial-out line.
func (gs *Session) OutputLevel() bool { return gs.sh.driveHigh }

// GetMetrics returns the session metrics.
func (gs *Session) GetMetrics() *SessionMetrics { return &gs.metrics }

// GetLogger returns the session logger.
func (gs *Session) GetLogger() logger.Logger { return gs.logger }

package gbplink

// parseStage identifies the packet word the parser expects next.
type parseStage uint8

const (
	stageHeaderCommand parseStage = iota
	stageHeaderLength
	stagePayload
	stageChecksum
	stageDummy
)

// String returns the stage name.
func (s parseStage) String() string {
	switch s {
	case stageHeaderCommand:
		return "header-command"
	case stageHeaderLength:
		return "header-length"
	case stagePayload:
		return "payload"
	case stageChecksum:
		return "checksum"
	case stageDummy:
		return "dummy"
	default:
		return "invalid"
	}
}

// processWord consumes one completed transceiver word, advances the packet
// stage machine, and arms the transceiver for the next expected word. It runs
// only on word completion; every call first re-arms the inactivity budget.
func (gs *Session) processWord() {
	gs.timeRemaining = gs.cfg.inactivityBudget

	if gs.cfg.rawTrace {
		gs.traceWord()
	}

	switch gs.stage {
	case stageHeaderCommand:
		gs.command = Command(gs.sh.byteAt(1))
		gs.compression = gs.sh.byteAt(0)
		gs.checksumCalc = 0
		gs.stage = stageHeaderLength
		gs.sh.arm(shiftMode16BitsLE, 0)

	case stageHeaderLength:
		// Length and checksum arrive little-endian on the wire.
		gs.length = gs.sh.word()
		gs.payloadIndex = 0

		switch gs.command {
		case CommandData:
			if gs.length != 0 {
				gs.stage = stagePayload
				gs.sh.arm(shiftMode8Bits, 0)
			} else {
				gs.stage = stageChecksum
				gs.sh.arm(shiftMode16BitsLE, 0)
			}
		case CommandPrint:
			if gs.length > PrintInstructionSize {
				gs.length = PrintInstructionSize
			}
			gs.stage = stagePayload
			gs.sh.arm(shiftMode8Bits, 0)
		default:
			// Payload-less and unrecognized commands expect the checksum
			// next; any declared length is dropped.
			gs.length = 0
			gs.stage = stageChecksum
			gs.sh.arm(shiftMode16BitsLE, 0)
		}

	case stagePayload:
		b := gs.sh.byteAt(0)

		switch gs.command {
		case CommandData:
			if !gs.cfg.rawTrace {
				gs.enqueuePayload(b)
			}
		case CommandPrint:
			gs.instruction[gs.payloadIndex] = b
		default:
			// Payload of any other command is discarded.
		}

		gs.checksumCalc += uint16(b)
		gs.payloadIndex++

		if gs.payloadIndex >= gs.length {
			gs.stage = stageChecksum
			gs.sh.arm(shiftMode16BitsLE, 0)
		} else {
			gs.sh.arm(shiftMode8Bits, 0)
		}

	case stageChecksum:
		gs.checksum = gs.sh.word()

		gs.checksumCalc += uint16(gs.command)
		gs.checksumCalc += uint16(gs.compression)
		gs.checksumCalc += gs.length >> 8
		gs.checksumCalc += gs.length & 0x00FF

		if gs.checksum != gs.checksumCalc {
			gs.metrics.incChecksumErrCount()
			if gs.cfg.checksumEnforcement {
				// Surfacing the flag makes the peer retry the packet.
				gs.status.setFlag(StatusChecksumError, true)
			}
		}

		gs.sequenceChecksumPhase()

		// Start sending the device ID and status byte.
		gs.stage = stageDummy
		gs.sh.arm(shiftMode16BitsBE, uint16(gs.status))

	case stageDummy:
		gs.sequenceDummyPhase()
		gs.markReceived()

		if gs.cfg.checksumEnforcement {
			if gs.status.ChecksumError() {
				// Drop the staged bytes; the peer resends the packet.
				gs.payload.Discard()
			} else {
				gs.payload.Commit()
			}
		}

		gs.metrics.incPacketCount()
		gs.stage = stageHeaderCommand
		gs.sh.arm(shiftModeReset, 0)
		gs.flags.Notify = true

	default:
		// Should not be reachable; park the engine rather than fault.
		gs.stage = stageHeaderCommand
		gs.sh.arm(shiftModeReset, 0)
	}
}

// markReceived raises the received flag matching the parsed command. DATA
// splits on the declared length: zero length is the end-of-data marker.
func (gs *Session) markReceived() {
	switch gs.command {
	case CommandInit:
		gs.flags.Init = true
	case CommandPrint:
		gs.flags.Print = true
	case CommandData:
		if gs.length > 0 {
			gs.flags.Data = true
		} else {
			gs.flags.DataEnd = true
		}
	case CommandBreak:
		gs.flags.Break = true
	case CommandInquiry:
		gs.flags.Inquiry = true
	}
}

// enqueuePayload appends one byte to the payload buffer, staging it while
// checksum enforcement may still discard the packet.
func (gs *Session) enqueuePayload(b byte) {
	var ok bool
	if gs.cfg.checksumEnforcement {
		ok = gs.payload.Stage(b)
	} else {
		ok = gs.payload.Enqueue(b)
	}

	if ok {
		gs.metrics.incPayloadByteCount()
	} else {
		gs.metrics.incPayloadDropCount()
	}
}

// traceWord appends the wire image of the word that just completed to the
// payload buffer: the two sync bytes ahead of the header word, the receive
// bytes in wire order for every stage but Dummy, and the transmitted device
// ID/status pair for Dummy. Payload-stage bytes flow through here instead of
// the normal append, so they are never duplicated.
func (gs *Session) traceWord() {
	if gs.stage == stageHeaderCommand {
		gs.enqueuePayload(SyncByteFirst)
		gs.enqueuePayload(SyncByteSecond)
	}

	switch gs.sh.mode {
	case shiftMode8Bits:
		gs.enqueuePayload(gs.sh.byteAt(0))
	case shiftMode16BitsBE, shiftMode16BitsLE:
		if gs.stage == stageDummy {
			gs.enqueuePayload(byte(gs.sh.tx >> 8))
			gs.enqueuePayload(byte(gs.sh.tx))
		} else {
			gs.enqueuePayload(gs.sh.byteAt(1))
			gs.enqueuePayload(gs.sh.byteAt(0))
		}
	}
}

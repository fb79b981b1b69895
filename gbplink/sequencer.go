package gbplink

// Fixed packet-count values driving the status flags. Countdowns tick on
// packets rather than wall time, so a synchronously polling peer always
// observes the same flag sequence.
const (
	// initDataBudget is the number of DATA packets accepted after INIT before
	// the buffer-full flag is raised.
	initDataBudget = 6

	// dataUntransCount is the number of packets the unprocessed-data state
	// survives after a DATA packet before draining.
	dataUntransCount = 3
)

// sequenceChecksumPhase is the first status-sequencing phase, run at
// Checksum-word completion just before the status word is armed for
// transmit, so its effects appear in the current packet's response.
//
// BREAK clears every flag and then falls through into the INQUIRY countdown
// handling, consuming one countdown tick of its own.
func (gs *Session) sequenceChecksumPhase() {
	switch gs.command {
	case CommandInit:
		gs.dataBudget = initDataBudget
		gs.untransCountdown = 0
		gs.busyCountdown = 0
		gs.status.setFlag(StatusPrintBufferFull, false)

	case CommandPrint:
		gs.busyCountdown = gs.cfg.busyPacketCount

	case CommandData:
		gs.untransCountdown = dataUntransCount

	case CommandBreak:
		gs.status.clearFlags()

		fallthrough

	case CommandInquiry:
		if gs.untransCountdown > 0 {
			gs.untransCountdown--
			if gs.untransCountdown == 0 {
				gs.status.setFlag(StatusUnprocessedData, false)
				if gs.busyCountdown > 0 {
					gs.status.setFlag(StatusPrinterBusy, true)
					gs.status.setFlag(StatusPrintBufferFull, true)
				}
			}
		} else if gs.busyCountdown > 0 {
			gs.busyCountdown--
			if gs.busyCountdown == 0 {
				gs.status.setFlag(StatusPrinterBusy, false)
			}
		}
	}
}

// sequenceDummyPhase is the second status-sequencing phase, run at
// Dummy-word completion after the response went out on the wire; its effects
// appear in the next packet's response.
func (gs *Session) sequenceDummyPhase() {
	switch gs.command {
	case CommandData:
		if gs.dataBudget > 0 {
			gs.dataBudget--
			if gs.dataBudget == 0 {
				gs.status.setFlag(StatusPrintBufferFull, true)
			}
		}

		gs.status.setFlag(StatusUnprocessedData, true)
		if gs.length == 0 {
			// Zero-length DATA is the end-of-data marker; nothing buffered.
			gs.status.setFlag(StatusUnprocessedData, false)
		}

	case CommandInquiry:
		if gs.untransCountdown == 0 && gs.busyCountdown == 0 {
			gs.status.setFlag(StatusPrintBufferFull, false)
		}
	}
}

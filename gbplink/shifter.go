package gbplink

// shiftMode selects the width and byte order of one transceiver word.
type shiftMode uint8

const (
	// shiftModeReset parks the engine between packets: no active bits, output
	// line forced low, and the synchronized flag cleared so the next packet is
	// re-acquired from its own sync marker.
	shiftModeReset shiftMode = iota
	shiftMode8Bits
	shiftMode16BitsBE
	shiftMode16BitsLE
)

// shifter is the bit-level engine: the pre-sync marker scanner plus the
// pseudo full-duplex word transceiver. One bit is captured and one bit is
// driven per qualifying clock edge, MSB first. The link clock idles high and
// the peer samples on the rising edge, so the two-edge variant captures on
// rising and prepares the drive level on falling.
//
// The engine is a plain register record; the owning Session serializes all
// access to it.
type shifter struct {
	driveHigh bool   // level currently driven on the serial-out line
	synced    bool   // sync marker seen; word framing is trusted
	scan      uint16 // pre-sync marker scan register
	cursor    uint16 // single-bit mask walking MSB to LSB; zero = no transfer
	mode      shiftMode
	rx        uint16
	tx        uint16
}

// arm prepares the next word transfer: clears the receive word, sets the
// cursor to the top bit of the mode's width, and loads the transmit word.
// Little-endian mode byte-swaps the transmit word at load so callers always
// pass values in natural order.
func (s *shifter) arm(mode shiftMode, tx uint16) {
	s.rx = 0
	s.mode = mode

	switch mode {
	case shiftMode8Bits:
		s.cursor = 1 << 7
		s.tx = tx
	case shiftMode16BitsBE:
		s.cursor = 1 << 15
		s.tx = tx
	case shiftMode16BitsLE:
		s.cursor = 1 << 15
		s.tx = tx>>8 | tx<<8
	default:
		// Reset mode, and anything unrecognized, parks the engine.
		s.cursor = 0
		s.driveHigh = false
		s.tx = 0xFFFF
		s.synced = false
	}
}

// scanBit shifts one pre-sync data bit into the scan register (new bit at
// the low end) and reports whether the sync marker has just been matched.
// On match the register is cleared and the engine marked synchronized; the
// caller is responsible for arming the first header word.
func (s *shifter) scanBit(high bool) bool {
	if high {
		s.scan |= 1
	}
	if s.scan != SyncWord {
		s.scan <<= 1
		return false
	}

	s.scan = 0
	s.synced = true

	return true
}

// captureBit clocks one received bit in at the cursor position and advances
// the cursor toward the LSB.
func (s *shifter) captureBit(high bool) {
	if high {
		s.rx |= s.cursor
	}
	s.cursor >>= 1
}

// prepareDriveBit latches the transmit bit selected by the cursor onto the
// output line.
func (s *shifter) prepareDriveBit() {
	s.driveHigh = s.cursor&s.tx != 0
}

// complete reports whether the armed word has been fully transferred.
func (s *shifter) complete() bool { return s.cursor == 0 }

// word returns the completed receive word in the mode's natural order:
// little-endian mode un-swaps the wire order, 8-bit mode masks to the low
// byte, reset mode yields zero.
func (s *shifter) word() uint16 {
	switch s.mode {
	case shiftMode8Bits:
		return s.rx & 0x00FF
	case shiftMode16BitsBE:
		return s.rx
	case shiftMode16BitsLE:
		return s.rx>>8 | s.rx<<8
	default:
		return 0
	}
}

// byteAt returns a raw receive byte without any byte-order transform:
// position 0 is the low byte, position 1 the high byte.
func (s *shifter) byteAt(pos int) byte {
	switch pos {
	case 0:
		return byte(s.rx)
	case 1:
		return byte(s.rx >> 8)
	default:
		return 0
	}
}

// reset returns the engine to the unsynchronized idle state.
func (s *shifter) reset() {
	s.driveHigh = false
	s.synced = false
	s.scan = 0
	s.cursor = 0
	s.mode = shiftModeReset
	s.rx = 0
	s.tx = 0
}

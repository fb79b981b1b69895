package gbplink

import (
	"fmt"
	"strings"
)

// StatusWord is the 16-bit response word transmitted back to the peer during
// the Dummy stage of every packet: the fixed device ID in the high byte and
// eight independent status flags in the low byte.
type StatusWord uint16

// Status flag masks (low byte of the status word), wire bit 7 down to 0.
const (
	StatusLowBattery      StatusWord = 1 << 7
	StatusOtherError      StatusWord = 1 << 6
	StatusPaperJam        StatusWord = 1 << 5
	StatusPacketError     StatusWord = 1 << 4
	StatusUnprocessedData StatusWord = 1 << 3
	StatusPrintBufferFull StatusWord = 1 << 2
	StatusPrinterBusy     StatusWord = 1 << 1
	StatusChecksumError   StatusWord = 1 << 0
)

// statusFlagMask covers all eight flag bits.
const statusFlagMask StatusWord = 0x00FF

// newStatusWord returns a status word carrying the device ID and no flags.
func newStatusWord() StatusWord {
	return StatusWord(DeviceID) << 8
}

// DeviceID returns the device identifier byte (high byte).
func (w StatusWord) DeviceID() byte { return byte(w >> 8) }

// Flags returns the raw flag byte (low byte).
func (w StatusWord) Flags() byte { return byte(w) }

// LowBattery reports the low-battery flag.
func (w StatusWord) LowBattery() bool { return w&StatusLowBattery != 0 }

// OtherError reports the catch-all error flag.
func (w StatusWord) OtherError() bool { return w&StatusOtherError != 0 }

// PaperJam reports the paper-jam flag.
func (w StatusWord) PaperJam() bool { return w&StatusPaperJam != 0 }

// PacketError reports the packet-error flag.
func (w StatusWord) PacketError() bool { return w&StatusPacketError != 0 }

// UnprocessedData reports whether received data is still buffered.
func (w StatusWord) UnprocessedData() bool { return w&StatusUnprocessedData != 0 }

// PrintBufferFull reports the print-buffer-full flag.
func (w StatusWord) PrintBufferFull() bool { return w&StatusPrintBufferFull != 0 }

// PrinterBusy reports the printer-busy flag.
func (w StatusWord) PrinterBusy() bool { return w&StatusPrinterBusy != 0 }

// ChecksumError reports the checksum-error flag.
func (w StatusWord) ChecksumError() bool { return w&StatusChecksumError != 0 }

// setFlag sets or clears one flag bit in place.
func (w *StatusWord) setFlag(mask StatusWord, v bool) {
	if v {
		*w |= mask
	} else {
		*w &^= mask
	}
}

// clearFlags clears all eight flag bits, preserving the device ID byte.
func (w *StatusWord) clearFlags() {
	*w &^= statusFlagMask
}

var statusFlagNames = []struct {
	mask StatusWord
	name string
}{
	{StatusLowBattery, "LOW_BATTERY"},
	{StatusOtherError, "OTHER_ERROR"},
	{StatusPaperJam, "PAPER_JAM"},
	{StatusPacketError, "PACKET_ERROR"},
	{StatusUnprocessedData, "UNPROCESSED_DATA"},
	{StatusPrintBufferFull, "BUFFER_FULL"},
	{StatusPrinterBusy, "BUSY"},
	{StatusChecksumError, "CHECKSUM_ERROR"},
}

// String renders the device ID and the names of the set flags.
func (w StatusWord) String() string {
	flags := make([]string, 0, len(statusFlagNames))
	for _, f := range statusFlagNames {
		if w&f.mask != 0 {
			flags = append(flags, f.name)
		}
	}

	return fmt.Sprintf("device=0x%02X flags=[%s]", w.DeviceID(), strings.Join(flags, "|"))
}

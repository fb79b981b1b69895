package gbplink

import "fmt"

// SyncWord is the 16-bit packet marker every packet begins with, transmitted
// MSB-first as the wire bytes 0x88, 0x33.
const SyncWord uint16 = 0x8833

// SyncWord wire bytes.
const (
	SyncByteFirst  byte = 0x88
	SyncByteSecond byte = 0x33
)

// DeviceID is the fixed identifier the printer reports in the high byte of
// every status word.
const DeviceID byte = 0x81

// Command identifies the packet type carried in the first header byte.
type Command byte

// Game Boy Printer command bytes.
const (
	CommandInit    Command = 0x01 // reset printer state and start a new job
	CommandPrint   Command = 0x02 // print the buffered bands
	CommandData    Command = 0x04 // one band of tile data; zero length marks end of data
	CommandBreak   Command = 0x08 // abort the current job
	CommandInquiry Command = 0x0F // poll printer status
)

// String returns the command mnemonic, or the hex value for unknown bytes.
func (c Command) String() string {
	switch c {
	case CommandInit:
		return "INIT"
	case CommandPrint:
		return "PRINT"
	case CommandData:
		return "DATA"
	case CommandBreak:
		return "BREAK"
	case CommandInquiry:
		return "INQUIRY"
	default:
		return fmt.Sprintf("0x%02X", byte(c))
	}
}

// PrintInstructionSize is the payload length of a well-formed PRINT packet.
// Longer declared lengths are clamped to this before the payload stage.
const PrintInstructionSize = 4

// PrintInstruction payload byte offsets.
const (
	printInstructSheets    = 0
	printInstructLinefeeds = 1
	printInstructPalette   = 2
	printInstructDensity   = 3
)

// PrintInstruction is the 4-byte payload of a PRINT packet.
type PrintInstruction [PrintInstructionSize]byte

// Sheets returns the number of sheets to print. Zero requests line feeds
// only, with no printing.
func (pi PrintInstruction) Sheets() int { return int(pi[printInstructSheets]) }

// LinefeedsBefore returns the number of line feeds before printing
// (high nibble of the linefeed byte).
func (pi PrintInstruction) LinefeedsBefore() int {
	return int(pi[printInstructLinefeeds] >> 4)
}

// LinefeedsAfter returns the number of line feeds after printing
// (low nibble of the linefeed byte).
func (pi PrintInstruction) LinefeedsAfter() int {
	return int(pi[printInstructLinefeeds] & 0x0F)
}

// Palette returns the raw 2-bit-per-shade palette byte.
func (pi PrintInstruction) Palette() byte { return pi[printInstructPalette] }

// Density returns the burn density byte (0x40 is the nominal middle setting).
func (pi PrintInstruction) Density() byte { return pi[printInstructDensity] }

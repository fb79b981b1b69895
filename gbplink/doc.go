// Package gbplink implements the passive (printer) side of the Game Boy
// Printer link protocol: bit-level synchronization and word shifting, packet
// parsing, status-flag sequencing, and inactivity supervision, driven one
// sampled clock transition at a time.
//
// The package models the printer as seen from the link cable and never
// touches hardware. The caller samples the serial clock and serial-in lines
// (GPIO interrupts, a logic-analyzer stream, an emulator core) and feeds
// transitions to a [Session], which returns the level to present on the
// serial-out line.
//
// # Protocol Overview
//
// The Game Boy drives the link as an SPI master at roughly 8 kHz with
// CPOL=1, CPHA=1, MSB first: the clock idles high, the printer samples
// serial-in on the rising edge and updates serial-out on the falling edge.
// Every exchange is initiated by the Game Boy; the printer only answers.
// A packet on the wire is
//
//	0x88 0x33 | command | compression | length | payload | checksum | 0x00 0x00
//
// with length and checksum transmitted low byte first, and the printer
// shifting out its device ID (0x81) followed by its status byte while the
// two trailing dummy bytes clock through. Commands:
//
//   - INIT (0x01): reset job state and begin a print job
//   - PRINT (0x02): print buffered tile data; carries a 4-byte instruction
//   - DATA (0x04): tile data transfer; zero length marks the end of data
//   - BREAK (0x08): abort the job
//   - INQUIRY (0x0F): poll printer status
//
// The checksum is the 16-bit sum of the command, compression, length, and
// payload bytes.
//
// # Driving a Session
//
// A Session has three entry points, all non-blocking and allocation free:
//
//   - [Session.OnBusEdge] for callers that observe both clock edges
//   - [Session.OnRisingEdge] for callers that observe rising edges only
//   - [Session.OnElapsed] for the periodic inactivity supervisor
//
// The entry points share state and must be serialized by the caller; on a
// microcontroller that usually means masking the edge interrupt around the
// supervisor tick. Completed packets are consumed from the main loop via
// [Session.TakeReceivedFlags], [Session.ReadPayloadByte], and
// [Session.PrintInstruction].
//
// # Host Integration
//
// [Dispatcher] wraps a Session for hosts where edges arrive on a goroutine
// rather than in an interrupt: it serializes edge feeding against a poll
// loop, drives the supervisor from wall time, and fans completed packets
// out to registered handlers.
//
// Usage Example:
//
//	cfg, _ := gbplink.NewSessionConfig(
//	    gbplink.WithEdgeMode(gbplink.EdgeModeRisingOnly),
//	    gbplink.WithChecksumEnforcement(true),
//	)
//	session, _ := gbplink.NewSession(cfg)
//
//	// Edge context: rising edge of the link clock.
//	out := session.OnRisingEdge(serialInHigh())
//	setSerialOut(out)
//
//	// Main loop, every few milliseconds.
//	if session.OnElapsed(elapsedMs) {
//	    // session timed out or honored a BREAK, peer must resync
//	}
//	flags := session.TakeReceivedFlags()
//	if flags.Print {
//	    inst := session.PrintInstruction()
//	    render(inst, drain(session))
//	}
package gbplink

package gbplink

import (
	"sync/atomic"
)

// SessionMetrics contains atomic metrics for a link session.
// Metrics can be used as the value of a prometheus CounterFunc.
type SessionMetrics struct {
	// PacketCount indicates the number of packets fully parsed.
	PacketCount atomic.Uint64
	// SyncCount indicates the number of sync marker acquisitions.
	SyncCount atomic.Uint64

	// PayloadByteCount indicates the number of bytes appended to the payload
	// buffer, raw-trace bytes included.
	PayloadByteCount atomic.Uint64
	// PayloadDropCount indicates the number of bytes dropped because the
	// payload buffer was full.
	PayloadDropCount atomic.Uint64

	// ChecksumErrCount indicates the number of checksum mismatches observed,
	// counted whether or not enforcement is enabled.
	ChecksumErrCount atomic.Uint64

	// TimeoutResetCount indicates the number of resets forced by inactivity.
	TimeoutResetCount atomic.Uint64
	// BreakResetCount indicates the number of resets forced by BREAK packets.
	BreakResetCount atomic.Uint64
}

func (m *SessionMetrics) incPacketCount() {
	m.PacketCount.Add(1)
}

func (m *SessionMetrics) incSyncCount() {
	m.SyncCount.Add(1)
}

func (m *SessionMetrics) incPayloadByteCount() {
	m.PayloadByteCount.Add(1)
}

func (m *SessionMetrics) incPayloadDropCount() {
	m.PayloadDropCount.Add(1)
}

func (m *SessionMetrics) incChecksumErrCount() {
	m.ChecksumErrCount.Add(1)
}

func (m *SessionMetrics) incTimeoutResetCount() {
	m.TimeoutResetCount.Add(1)
}

func (m *SessionMetrics) incBreakResetCount() {
	m.BreakResetCount.Add(1)
}

package gbplink

import (
	"errors"
	"fmt"

	"github.com/retroemu/go-gbplink/internal/ring"
	"github.com/retroemu/go-gbplink/logger"
)

// EdgeMode selects how the caller samples the link clock.
type EdgeMode uint8

const (
	// EdgeModeDualEdge expects OnBusEdge on every clock transition: bits are
	// captured on the rising edge and the output level is prepared on the
	// falling edge. This is the default.
	EdgeModeDualEdge EdgeMode = iota

	// EdgeModeRisingOnly expects OnRisingEdge on rising edges only; capture
	// and output preparation happen in the same invocation.
	EdgeModeRisingOnly
)

// String returns the edge mode name.
func (m EdgeMode) String() string {
	switch m {
	case EdgeModeDualEdge:
		return "dual-edge"
	case EdgeModeRisingOnly:
		return "rising-only"
	default:
		return "invalid"
	}
}

// Session defaults.
const (
	// DefaultBusyPacketCount is the number of INQUIRY polls the printer-busy
	// state survives after a PRINT packet. A physical printer needs roughly
	// 68 polls per print; emulation keeps the window short.
	DefaultBusyPacketCount = 3

	// DefaultInactivityBudget is the session timeout budget, in the same
	// units as the elapsed values passed to OnElapsed (milliseconds for a
	// millisecond tick source).
	DefaultInactivityBudget uint32 = 5000

	// DefaultPayloadCapacity holds two full 640-byte bands of tile data.
	DefaultPayloadCapacity = 1280
)

// Validation limits.
const (
	MaxBusyPacketCount = 255 // well above the ~68 polls of a physical printer
)

// SessionConfig holds all configuration for a link session.
type SessionConfig struct {
	edgeMode EdgeMode

	// Feature toggles.
	checksumEnforcement bool
	rawTrace            bool

	// busyPacketCount is the INQUIRY count loaded into the busy countdown by
	// a PRINT packet.
	busyPacketCount int

	// inactivityBudget re-arms the session timeout on every completed word.
	inactivityBudget uint32

	payloadCapacity int
	payloadStorage  []byte

	logger logger.Logger
}

// NewSessionConfig creates a session configuration with defaults applied,
// then applies opts in order; see the With* functions.
func NewSessionConfig(opts ...SessionOption) (*SessionConfig, error) {
	cfg := &SessionConfig{
		edgeMode:         EdgeModeDualEdge,
		busyPacketCount:  DefaultBusyPacketCount,
		inactivityBudget: DefaultInactivityBudget,
		payloadCapacity:  DefaultPayloadCapacity,
		logger:           logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// newPayloadBuffer builds the payload ring over caller-owned storage when
// provided, otherwise over freshly allocated storage.
func (cfg *SessionConfig) newPayloadBuffer() *ring.Buffer {
	if cfg.payloadStorage != nil {
		return ring.NewWithStorage(cfg.payloadStorage)
	}

	return ring.New(cfg.payloadCapacity)
}

// --- Getters ---

// EdgeMode returns the configured clock sampling mode.
func (cfg *SessionConfig) EdgeMode() EdgeMode { return cfg.edgeMode }

// ChecksumEnforcement returns whether checksum enforcement is enabled.
func (cfg *SessionConfig) ChecksumEnforcement() bool { return cfg.checksumEnforcement }

// RawTrace returns whether raw wire tracing is enabled.
func (cfg *SessionConfig) RawTrace() bool { return cfg.rawTrace }

// BusyPacketCount returns the configured busy countdown load value.
func (cfg *SessionConfig) BusyPacketCount() int { return cfg.busyPacketCount }

// InactivityBudget returns the session timeout budget.
func (cfg *SessionConfig) InactivityBudget() uint32 { return cfg.inactivityBudget }

// PayloadCapacity returns the effective payload buffer capacity in bytes.
func (cfg *SessionConfig) PayloadCapacity() int {
	if cfg.payloadStorage != nil {
		return len(cfg.payloadStorage)
	}

	return cfg.payloadCapacity
}

// GetLogger returns the configured logger.
func (cfg *SessionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- SessionOption ---

// SessionOption is a functional option for configuring a SessionConfig.
type SessionOption interface {
	apply(*SessionConfig) error
}

type sessionOptFunc func(*SessionConfig) error

func (f sessionOptFunc) apply(cfg *SessionConfig) error { return f(cfg) }

// WithEdgeMode sets the clock sampling mode. The default is dual-edge.
func WithEdgeMode(m EdgeMode) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if m != EdgeModeDualEdge && m != EdgeModeRisingOnly {
			return fmt.Errorf("gbplink: invalid edge mode %d", m)
		}
		cfg.edgeMode = m

		return nil
	})
}

// WithChecksumEnforcement enables or disables checksum enforcement. When
// enabled, a mismatch raises the checksum-error status flag and the packet's
// payload is discarded instead of committed; the peer is expected to resend.
// Disabled by default; mismatches are still counted in the metrics.
func WithChecksumEnforcement(enabled bool) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		cfg.checksumEnforcement = enabled

		return nil
	})
}

// WithRawTrace enables or disables raw wire tracing. When enabled, the
// payload buffer receives the byte-exact wire image of every packet,
// including the sync marker and the transmitted status response, instead of
// the decoded payload alone. Disabled by default.
func WithRawTrace(enabled bool) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		cfg.rawTrace = enabled

		return nil
	})
}

// WithBusyPacketCount sets how many INQUIRY polls the busy state survives
// after PRINT. Must be in [0, 255].
func WithBusyPacketCount(n int) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if n < 0 || n > MaxBusyPacketCount {
			return fmt.Errorf("gbplink: busy packet count %d out of range [0, %d]", n, MaxBusyPacketCount)
		}
		cfg.busyPacketCount = n

		return nil
	})
}

// WithInactivityBudget sets the session timeout budget, in the units of the
// elapsed values passed to OnElapsed. Must be positive.
func WithInactivityBudget(n uint32) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if n == 0 {
			return errors.New("gbplink: inactivity budget must be positive")
		}
		cfg.inactivityBudget = n

		return nil
	})
}

// WithPayloadCapacity sets the payload buffer capacity in bytes. Must be
// positive. Ignored when caller-owned storage is supplied.
func WithPayloadCapacity(n int) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if n < 1 {
			return errors.New("gbplink: payload capacity must be >= 1")
		}
		cfg.payloadCapacity = n

		return nil
	})
}

// WithPayloadStorage supplies caller-owned backing storage for the payload
// buffer. The session takes exclusive ownership of buf's contents; the
// buffer capacity becomes len(buf).
func WithPayloadStorage(buf []byte) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if len(buf) == 0 {
			return errors.New("gbplink: payload storage must not be empty")
		}
		cfg.payloadStorage = buf

		return nil
	})
}

// WithLogger sets the logger for the session.
func WithLogger(l logger.Logger) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if l == nil {
			return errors.New("gbplink: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}

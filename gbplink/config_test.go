package gbplink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retroemu/go-gbplink/logger"
)

func TestNewSessionConfig_Defaults(t *testing.T) {
	cfg, err := NewSessionConfig()
	require.NoError(t, err)

	assert.Equal(t, EdgeModeDualEdge, cfg.EdgeMode())
	assert.False(t, cfg.ChecksumEnforcement())
	assert.False(t, cfg.RawTrace())
	assert.Equal(t, DefaultBusyPacketCount, cfg.BusyPacketCount())
	assert.Equal(t, DefaultInactivityBudget, cfg.InactivityBudget())
	assert.Equal(t, DefaultPayloadCapacity, cfg.PayloadCapacity())
	assert.NotNil(t, cfg.GetLogger())
}

func TestNewSessionConfig_Options(t *testing.T) {
	mockLogger := logger.NewMockLogger()

	cfg, err := NewSessionConfig(
		WithEdgeMode(EdgeModeRisingOnly),
		WithChecksumEnforcement(true),
		WithRawTrace(true),
		WithBusyPacketCount(68),
		WithInactivityBudget(100),
		WithPayloadCapacity(640),
		WithLogger(mockLogger),
	)
	require.NoError(t, err)

	assert.Equal(t, EdgeModeRisingOnly, cfg.EdgeMode())
	assert.True(t, cfg.ChecksumEnforcement())
	assert.True(t, cfg.RawTrace())
	assert.Equal(t, 68, cfg.BusyPacketCount())
	assert.Equal(t, uint32(100), cfg.InactivityBudget())
	assert.Equal(t, 640, cfg.PayloadCapacity())
	assert.Same(t, mockLogger, cfg.GetLogger())
}

func TestNewSessionConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		opt  SessionOption
	}{
		{"invalid edge mode", WithEdgeMode(EdgeMode(99))},
		{"negative busy count", WithBusyPacketCount(-1)},
		{"oversized busy count", WithBusyPacketCount(MaxBusyPacketCount + 1)},
		{"zero inactivity budget", WithInactivityBudget(0)},
		{"zero payload capacity", WithPayloadCapacity(0)},
		{"empty payload storage", WithPayloadStorage(nil)},
		{"nil logger", WithLogger(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewSessionConfig(tt.opt)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestNewSessionConfig_BusyPacketCountBounds(t *testing.T) {
	cfg, err := NewSessionConfig(WithBusyPacketCount(0))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.BusyPacketCount())

	cfg, err = NewSessionConfig(WithBusyPacketCount(MaxBusyPacketCount))
	require.NoError(t, err)
	assert.Equal(t, MaxBusyPacketCount, cfg.BusyPacketCount())
}

func TestSessionConfig_PayloadStorage(t *testing.T) {
	storage := make([]byte, 64)

	cfg, err := NewSessionConfig(
		WithPayloadCapacity(1024),
		WithPayloadStorage(storage),
	)
	require.NoError(t, err)

	// Caller-owned storage decides the effective capacity.
	assert.Equal(t, 64, cfg.PayloadCapacity())

	buf := cfg.newPayloadBuffer()
	assert.Equal(t, 64, buf.Cap())
}

func TestEdgeMode_String(t *testing.T) {
	assert.Equal(t, "dual-edge", EdgeModeDualEdge.String())
	assert.Equal(t, "rising-only", EdgeModeRisingOnly.String())
	assert.Equal(t, "invalid", EdgeMode(42).String())
}

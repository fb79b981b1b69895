package gbplink

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/retroemu/go-gbplink/internal/pool"
	"github.com/retroemu/go-gbplink/internal/util"
	"github.com/retroemu/go-gbplink/logger"
)

// DefaultPollInterval is the poll period used when NewDispatcher receives a
// non-positive interval. At the link's peak rate a 640-byte band arrives in
// roughly 100ms, so 5ms keeps the payload buffer well below half full.
const DefaultPollInterval = 5 * time.Millisecond

// dispatcherStopTimeout bounds the wait for the poll goroutine on Stop.
const dispatcherStopTimeout = 5 * time.Second

// PacketHandler processes one completed packet event. Handlers run on the
// Dispatcher's poll goroutine; a handler that blocks stalls polling and can
// push the session into an inactivity reset.
type PacketHandler func(ev *PacketEvent)

// PacketEvent is the host-side record of one received packet, assembled by
// the Dispatcher after the packet completed on the wire.
type PacketEvent struct {
	// Command is the packet type the event reports.
	Command Command

	// EndOfData marks the zero-length DATA packet that closes a transfer.
	EndOfData bool

	// Payload holds the drained tile bytes of a DATA event. The slice is
	// handed over to the handlers and never reused by the Dispatcher.
	Payload []byte

	// Instruction is the captured print instruction of a PRINT event.
	Instruction PrintInstruction

	// Status is the session status word at poll time.
	Status StatusWord
}

// Dispatcher runs the host side of a link session: it serializes bus
// feeding against a periodic poll loop, drives the session's timeout
// supervisor with measured wall time, drains completed packets, and fans
// them out to registered handlers.
//
// Feed and the poll loop share one mutex, satisfying the session's
// single-writer requirement. Use it when edges arrive on a goroutine (a
// serial probe reader, a test harness); on a microcontroller where edges
// arrive in interrupts, drive the Session directly instead.
//
// The inactivity budget of the session is interpreted in milliseconds by
// this loop.
//
// Raw-trace sessions are not drained by the Dispatcher; read those through
// the session's payload accessors.
type Dispatcher struct {
	session *Session
	logger  logger.Logger

	interval time.Duration

	// mu serializes Feed against the poll loop.
	mu sync.Mutex

	handlers  *xsync.MapOf[uint64, PacketHandler]
	handlerID atomic.Uint64

	running  atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
	lastPoll time.Time

	// scratch collects drained payload bytes between events.
	scratch []byte
}

// NewDispatcher creates a Dispatcher polling gs every interval. A
// non-positive interval selects DefaultPollInterval.
func NewDispatcher(gs *Session, interval time.Duration) (*Dispatcher, error) {
	if gs == nil {
		return nil, ErrNilSession
	}

	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Dispatcher{
		session:  gs,
		logger:   gs.GetLogger(),
		interval: interval,
		handlers: xsync.NewMapOf[uint64, PacketHandler](),
		scratch:  make([]byte, 0, gs.cfg.PayloadCapacity()),
	}, nil
}

// AddHandler registers a packet handler and returns its registration id.
func (d *Dispatcher) AddHandler(h PacketHandler) uint64 {
	id := d.handlerID.Add(1)
	d.handlers.Store(id, h)

	return id
}

// RemoveHandler unregisters the handler with the given registration id.
func (d *Dispatcher) RemoveHandler(id uint64) {
	d.handlers.Delete(id)
}

// Start launches the poll loop. The loop stops when ctx is canceled or Stop
// is called. It returns ErrDispatcherStarted when already running.
func (d *Dispatcher) Start(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrDispatcherStarted
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.lastPoll = time.Now()

	go d.pollLoop(ctx)

	d.logger.Debug("dispatcher started", "interval", d.interval)

	return nil
}

// Stop terminates the poll loop and waits for it to exit. It returns
// ErrDispatcherStopped when the Dispatcher is not running.
func (d *Dispatcher) Stop() error {
	if !d.running.CompareAndSwap(true, false) {
		return ErrDispatcherStopped
	}

	d.cancel()

	timer := pool.GetTimer(dispatcherStopTimeout)
	defer pool.PutTimer(timer)

	select {
	case <-d.done:
	case <-timer.C:
		return fmt.Errorf("gbplink: dispatcher stop timed out after %s", dispatcherStopTimeout)
	}

	d.logger.Debug("dispatcher stopped")

	return nil
}

// Feed injects one sampled bus transition and returns the level to drive on
// the serial-out line. It selects the session's configured edge variant: in
// rising-only mode falling transitions are ignored and the current output
// level is returned unchanged.
func (d *Dispatcher) Feed(clockHigh, dataHigh bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session.cfg.edgeMode == EdgeModeRisingOnly {
		if !clockHigh {
			return d.session.OutputLevel()
		}

		return d.session.OnRisingEdge(dataHigh)
	}

	return d.session.OnBusEdge(clockHigh, dataHigh)
}

// WithSession runs fn with the serialization lock held, for session calls
// outside the packet-event flow (condition overrides, payload peeks). fn
// must not call back into the Dispatcher.
func (d *Dispatcher) WithSession(fn func(gs *Session)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fn(d.session)
}

func (d *Dispatcher) pollLoop(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.poll()
		}
	}
}

// poll advances the supervisor, collects completed packets under the lock,
// and dispatches them outside it.
func (d *Dispatcher) poll() {
	d.mu.Lock()

	now := time.Now()
	deltaMs := uint32(now.Sub(d.lastPoll) / time.Millisecond)
	// Sub-millisecond remainders carry into the next poll.
	d.lastPoll = d.lastPoll.Add(time.Duration(deltaMs) * time.Millisecond)

	reset := d.session.OnElapsed(deltaMs)
	flags := d.session.TakeReceivedFlags()
	events := d.collectEvents(flags)

	d.mu.Unlock()

	if reset {
		d.logger.Debug("forced session reset", "break", flags.Break)
	}

	for _, ev := range events {
		d.logger.Debug("dispatch packet event",
			"command", ev.Command, "payload_len", len(ev.Payload))

		d.handlers.Range(func(_ uint64, h PacketHandler) bool {
			d.callHandler(ev, h)

			return true
		})
	}
}

// collectEvents builds the event list for one poll, in wire-plausible
// order. Caller holds the lock. Packets with unrecognized commands raise no
// event.
func (d *Dispatcher) collectEvents(flags ReceivedFlags) []*PacketEvent {
	if !flags.Notify {
		return nil
	}

	status := d.session.Status()
	events := make([]*PacketEvent, 0, 4)

	if flags.Init {
		events = append(events, &PacketEvent{Command: CommandInit, Status: status})
	}

	if flags.Data {
		events = append(events, &PacketEvent{
			Command: CommandData,
			Payload: d.drainPayload(),
			Status:  status,
		})
	}

	if flags.DataEnd {
		events = append(events, &PacketEvent{
			Command:   CommandData,
			EndOfData: true,
			Status:    status,
		})
	}

	if flags.Print {
		events = append(events, &PacketEvent{
			Command:     CommandPrint,
			Instruction: d.session.PrintInstruction(),
			Status:      status,
		})
	}

	if flags.Inquiry {
		events = append(events, &PacketEvent{Command: CommandInquiry, Status: status})
	}

	if flags.Break {
		events = append(events, &PacketEvent{Command: CommandBreak, Status: status})
	}

	return events
}

// drainPayload empties the session payload buffer and returns a copy owned
// by the caller. Caller holds the lock.
func (d *Dispatcher) drainPayload() []byte {
	if d.session.cfg.rawTrace {
		return nil
	}

	d.scratch = d.scratch[:0]
	for {
		b, ok := d.session.ReadPayloadByte()
		if !ok {
			break
		}
		d.scratch = append(d.scratch, b)
	}

	if len(d.scratch) == 0 {
		return nil
	}

	return util.CloneSlice(d.scratch, 0)
}

// callHandler invokes one handler with panic protection.
func (d *Dispatcher) callHandler(ev *PacketEvent, h PacketHandler) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in packet handler", "command", ev.Command, "panic", r)
		}
	}()

	h(ev)
}

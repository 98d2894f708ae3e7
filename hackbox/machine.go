// Package hackbox is the operating state machine of the radio hack box. It
// consumes button events and dispatches to exactly one radio phase at a
// time: record, replay, scan (discovery + key capture) or attack.
package hackbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mame82/radiohackbox/config"
	"github.com/mame82/radiohackbox/display"
	"github.com/mame82/radiohackbox/engine"
	"github.com/mame82/radiohackbox/helper"
	"github.com/mame82/radiohackbox/hid"
	"github.com/mame82/radiohackbox/input"
	"github.com/mame82/radiohackbox/keyboard"
	"github.com/mame82/radiohackbox/radio"
	"github.com/mame82/radiohackbox/store"
)

const eventQueueSize = 32

// pressed is an event stamped with the time the pump picked it up, the
// gesture window is measured between presses, not between dispatches.
type pressed struct {
	ev input.Event
	at time.Time
}

type Machine struct {
	hw    *Hardware
	cfg   *config.Config
	codec keyboard.Codec
	clock engine.Clock
	log   *slog.Logger

	discoverer *engine.Discoverer
	capturer   *engine.Capturer
	replayer   *engine.Replayer
	attacker   *engine.Attacker
	frames     *store.FrameStore

	// fed by pump, read at safe points only
	queue       chan pressed
	deferred    []pressed
	inputClosed bool
	stop        chan struct{}
	stopOnce    sync.Once

	recordingID string

	// guards everything below
	mu           sync.Mutex
	state        State
	cancelEngine context.CancelFunc
	done         bool
	// target keyboard, the zero address means none. A session is only held
	// together with the address it was captured from.
	addr    radio.Addr
	session keyboard.Session
}

// New wires the radio phases to hw. The machine starts in Discovering, the
// box looks for a keyboard right after power on. With a configured target
// address it starts capturing that keyboard instead. A nil clock means wall
// time.
func New(hw *Hardware, cfg *config.Config, codec keyboard.Codec, clock engine.Clock, log *slog.Logger) *Machine {
	if clock == nil {
		clock = engine.RealClock()
	}
	m := &Machine{
		hw:    hw,
		cfg:   cfg,
		codec: codec,
		clock: clock,
		log:   log,
		discoverer: &engine.Discoverer{
			Radio:    hw.Radio,
			Channels: cfg.Scan.Channels,
			Dwell:    cfg.Scan.Dwell.Duration,
			Prefix:   cfg.Scan.Prefix,
			Range:    cfg.Scan.AddressRange,
			Clock:    clock,
			Log:      log,
		},
		capturer: &engine.Capturer{
			Radio:         hw.Radio,
			MinFrames:     cfg.Capture.MinFrames,
			QuietInterval: cfg.Capture.QuietInterval.Duration,
			Clock:         clock,
			Log:           log,
		},
		replayer: &engine.Replayer{
			Radio: hw.Radio,
			Log:   log,
		},
		attacker: &engine.Attacker{
			Radio:       hw.Radio,
			Payload:     cfg.Attack.Payload,
			OpenMod:     hid.HID_MOD_KEY_RIGHT_GUI,
			OpenKey:     hid.HID_KEY_R,
			SettleDelay: cfg.Attack.SettleDelay.Duration,
			Clock:       clock,
			Log:         log,
		},
		frames: store.New(),
		queue:  make(chan pressed, eventQueueSize),
		stop:   make(chan struct{}),
		state:  Discovering,
	}
	if !cfg.Scan.Target.IsZero() {
		m.addr = cfg.Scan.Target
		m.state = Capturing
	}
	go m.pump(hw.Input.Events())
	return m
}

// pump moves events from the source to the queue. ABORT takes effect right
// away, everything else waits for the machine.
func (m *Machine) pump(src <-chan input.Event) {
	defer close(m.queue)
	for ev := range src {
		if ev == input.Abort {
			m.abortEngine()
		}
		select {
		case m.queue <- pressed{ev, time.Now()}:
		case <-m.stop:
			return
		}
	}
}

func (m *Machine) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// KeySession returns the target address and the key session captured for
// it, the session is nil until a capture succeeded.
func (m *Machine) KeySession() (radio.Addr, keyboard.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addr, m.session
}

func (m *Machine) setTarget(addr radio.Addr, session keyboard.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addr, m.session = addr, session
}

func (m *Machine) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()

	m.log.Debug("State", "from", prev, "to", s)
	if v, ok := m.viewOf(s); ok {
		m.show(v.color, m.cfg.UI.AppName, v.text)
	}
}

func (m *Machine) show(c display.Color, line1, line2 string) {
	if err := m.hw.Display.SetColor(c); err != nil {
		m.log.Warn("display", "err", err)
	}
	if err := m.hw.Display.Show(line1, line2); err != nil {
		m.log.Warn("display", "err", err)
	}
}

// Run consumes events and ticks until the box is shut down, the input source
// is closed or ctx is done.
func (m *Machine) Run(ctx context.Context) error {
	defer m.stopOnce.Do(func() { close(m.stop) })

	if v, ok := m.viewOf(m.CurrentState()); ok {
		m.show(v.color, m.cfg.UI.AppName, v.text)
	}

	for !m.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}

		for !m.Done() {
			p, ok := m.poll()
			if !ok {
				break
			}
			m.dispatch(ctx, p)
		}
		if m.Done() {
			break
		}

		if m.CurrentState() == Idle {
			if m.inputClosed {
				m.log.Info("input closed, leaving run loop")
				return nil
			}
			// nothing to do until the next button press
			select {
			case <-ctx.Done():
				return ctx.Err()
			case p, ok := <-m.queue:
				if !ok {
					m.inputClosed = true
					continue
				}
				m.dispatch(ctx, p)
			}
			continue
		}

		m.Tick(ctx)
	}
	return nil
}

// poll returns the next pending event without blocking, deferred events first.
func (m *Machine) poll() (pressed, bool) {
	if len(m.deferred) > 0 {
		p := m.deferred[0]
		m.deferred = m.deferred[1:]
		return p, true
	}
	if m.inputClosed {
		return pressed{}, false
	}
	select {
	case p, ok := <-m.queue:
		if !ok {
			m.inputClosed = true
			return pressed{}, false
		}
		return p, true
	default:
		return pressed{}, false
	}
}

// HandleInputEvent dispatches ev as if it was pressed right now.
func (m *Machine) HandleInputEvent(ctx context.Context, ev input.Event) {
	m.dispatch(ctx, pressed{ev, time.Now()})
}

func (m *Machine) dispatch(ctx context.Context, p pressed) {
	m.log.Debug("Event", "event", p.ev, "state", m.CurrentState())

	switch p.ev {
	case input.ShutdownGesture:
		m.enterShutdown()
	case input.ScanStart:
		if m.awaitGesture(ctx, p.at) {
			m.enterShutdown()
			return
		}
		if m.CurrentState() == Idle {
			m.setState(Discovering)
		}
	case input.RecordToggle:
		switch m.CurrentState() {
		case Idle:
			m.startRecording()
		case Recording:
			m.log.Info("Stop RECORD mode", "session", m.recordingID, "frames", m.frames.Len())
			m.setState(Idle)
		}
	case input.ReplayStart:
		if m.CurrentState() == Idle {
			m.setState(Replaying)
		}
	case input.AttackStart:
		if m.CurrentState() == Idle {
			m.setState(Attacking)
		}
	case input.Abort:
		// running phases are cancelled by the pump already
		if m.CurrentState() == Recording {
			m.setState(Idle)
		}
	}
}

// awaitGesture reports whether RECORD was pressed within the gesture window
// after the SCAN press at scanAt. Only the part of the window that has not
// passed yet is waited for. Other events, and a RECORD pressed too late, are
// kept for normal dispatch.
func (m *Machine) awaitGesture(ctx context.Context, scanAt time.Time) bool {
	deadline := scanAt.Add(m.cfg.UI.GestureWindow.Duration)

	// events deferred earlier were pressed after this SCAN
	for i, p := range m.deferred {
		if p.at.After(deadline) {
			return false
		}
		if p.ev == input.RecordToggle {
			m.deferred = append(m.deferred[:i], m.deferred[i+1:]...)
			return true
		}
	}

	for !m.inputClosed {
		p, ok, waited := m.nextBefore(ctx, deadline)
		if !waited {
			return false
		}
		if !ok {
			m.inputClosed = true
			return false
		}
		if p.at.After(deadline) {
			m.deferred = append(m.deferred, p)
			return false
		}
		if p.ev == input.RecordToggle {
			return true
		}
		m.deferred = append(m.deferred, p)
	}
	return false
}

// nextBefore takes the next queued event, waiting until deadline at most.
// Events already queued are returned even if deadline has passed, their
// press time decides. waited is false on timeout or ctx end.
func (m *Machine) nextBefore(ctx context.Context, deadline time.Time) (p pressed, ok, waited bool) {
	select {
	case p, ok = <-m.queue:
		return p, ok, true
	default:
	}

	wait := time.Until(deadline)
	if wait <= 0 {
		return pressed{}, false, false
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case p, ok = <-m.queue:
		return p, ok, true
	case <-t.C:
	case <-ctx.Done():
	}
	return pressed{}, false, false
}

func (m *Machine) enterShutdown() {
	if m.CurrentState() != ShuttingDown {
		m.setState(ShuttingDown)
	}
}

func (m *Machine) startRecording() {
	m.frames.Clear()
	m.recordingID = uuid.NewString()

	// without a known keyboard the radio stays in whatever mode it is in
	addr, _ := m.KeySession()
	if !addr.IsZero() {
		if err := m.hw.Radio.EnterSnifferMode(addr); err != nil {
			m.fail("recording", err)
			return
		}
	}
	m.log.Info("Start RECORD mode", "session", m.recordingID, "address", addr.String())
	m.setState(Recording)
}

// Tick runs one step of the current state. Recording receives a single
// frame, the other radio phases run to completion.
func (m *Machine) Tick(ctx context.Context) {
	switch m.CurrentState() {
	case Recording:
		m.record(ctx)
	case Replaying:
		m.replay(ctx)
	case Discovering:
		m.discover(ctx)
	case Capturing:
		m.capture(ctx)
	case Attacking:
		m.attack(ctx)
	case ShuttingDown:
		m.shutdown(ctx)
	}
}

// engineContext returns a context that ABORT cancels.
func (m *Machine) engineContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ectx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancelEngine = cancel
	m.mu.Unlock()
	return ectx, func() {
		m.mu.Lock()
		m.cancelEngine = nil
		m.mu.Unlock()
		cancel()
	}
}

func (m *Machine) abortEngine() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelEngine != nil {
		m.log.Warn("aborting", "state", m.state)
		m.cancelEngine()
	}
}

// fail drops back to Idle, a failed phase has no result.
func (m *Machine) fail(phase string, err error) {
	if errors.Is(err, context.Canceled) {
		m.log.Warn(phase+" aborted", "err", err)
	} else {
		m.log.Error(phase+" failed", "err", err)
	}
	m.setState(Idle)
}

// hold keeps the display content visible for the operator.
func (m *Machine) hold(ctx context.Context, d config.Duration) {
	if err := m.clock.Sleep(ctx, d.Duration); err != nil {
		m.log.Debug("display hold cut short", "err", err)
	}
}

func (m *Machine) record(ctx context.Context) {
	ectx, done := m.engineContext(ctx)
	defer done()

	f, err := m.hw.Radio.ReceiveFrame(ectx)
	if err != nil {
		m.fail("recording", err)
		return
	}
	if f.Valid {
		m.frames.Append(f)
		m.log.Info("Received payload", "payload", helper.Hex(f.Data), "session", m.recordingID)
	}
}

func (m *Machine) replay(ctx context.Context) {
	ectx, done := m.engineContext(ctx)
	defer done()

	if _, err := m.replayer.Replay(ectx, m.frames.Frames()); err != nil {
		m.fail("replay", err)
		return
	}
	m.hold(ctx, m.cfg.UI.ModeHold)
	m.setState(Idle)
}

func (m *Machine) discover(ctx context.Context) {
	ectx, done := m.engineContext(ctx)
	defer done()

	m.log.Info("Start SCAN mode")
	addr, err := m.discoverer.Discover(ectx)
	if err != nil {
		m.fail("scan", err)
		return
	}

	// a new keyboard invalidates the old key
	m.setTarget(addr, nil)
	m.show(display.Blue, "Found keyboard", addr.String())
	m.log.Info("Found keyboard with address", "address", addr.String())
	m.setState(Capturing)
}

func (m *Machine) capture(ctx context.Context) {
	ectx, done := m.engineContext(ctx)
	defer done()

	addr, _ := m.KeySession()
	raw, err := m.capturer.Capture(ectx, addr)
	if err != nil {
		m.failCapture(err)
		return
	}
	session, err := m.codec.DecodeKeySession(raw)
	if err != nil {
		m.failCapture(err)
		return
	}
	m.setTarget(addr, session)

	m.show(display.Blue, "Found keyboard", "Got crypto key!")
	m.log.Info("Got crypto key!", "address", addr.String(), "key_session", uuid.NewString())

	m.hold(ctx, m.cfg.UI.CaptureHold)
	m.setState(Idle)
}

// failCapture forgets the keyboard, an address is never kept without its key.
func (m *Machine) failCapture(err error) {
	m.setTarget(radio.Addr{}, nil)
	m.fail("capture", err)
}

func (m *Machine) attack(ctx context.Context) {
	ectx, done := m.engineContext(ctx)
	defer done()

	m.log.Info("Start ATTACK mode")
	_, session := m.KeySession()
	if _, err := m.attacker.Attack(ectx, session); err != nil {
		m.fail("attack", err)
		return
	}
	m.hold(ctx, m.cfg.UI.ModeHold)
	m.setState(Idle)
}

// shutdown is terminal, the hardware is released afterwards.
func (m *Machine) shutdown(ctx context.Context) {
	m.hold(ctx, m.cfg.UI.ModeHold)
	if err := m.hw.Power.PowerOff(ctx); err != nil {
		m.log.Error("shutdown failed", "err", err)
	}
	m.show(display.Off, m.cfg.UI.AppName, "3, 2, 1, gone.")
	if err := m.hw.Close(); err != nil {
		m.log.Warn("release hardware", "err", err)
	}
	m.mu.Lock()
	m.done = true
	m.mu.Unlock()
	m.stopOnce.Do(func() { close(m.stop) })
}

// Done reports whether the machine reached its terminal state.
func (m *Machine) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

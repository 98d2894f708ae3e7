package hackbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mame82/radiohackbox/config"
	"github.com/mame82/radiohackbox/display"
	"github.com/mame82/radiohackbox/input"
	"github.com/mame82/radiohackbox/keyboard"
	"github.com/mame82/radiohackbox/logging"
	"github.com/mame82/radiohackbox/radio"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.slept = append(c.slept, d)
	c.mu.Unlock()
	c.advance(d)
	return ctx.Err()
}

// fakeRadio hands out rx in order, moving the clock by Step per receive. An
// exhausted script blocks until the context is done.
type fakeRadio struct {
	mu    sync.Mutex
	clock *fakeClock
	Step  time.Duration
	rx    []radio.Frame

	tx          [][]byte
	sniffed     []radio.Addr
	promiscuous int
	closed      bool

	blocked   chan struct{}
	blockOnce sync.Once
}

func (r *fakeRadio) SetChannel(radio.Channel) error { return nil }

func (r *fakeRadio) EnterPromiscuousMode([]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promiscuous++
	return nil
}

func (r *fakeRadio) EnterSnifferMode(addr radio.Addr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sniffed = append(r.sniffed, addr)
	return nil
}

func (r *fakeRadio) ReceiveFrame(ctx context.Context) (radio.Frame, error) {
	r.mu.Lock()
	if len(r.rx) > 0 {
		f := r.rx[0]
		r.rx = r.rx[1:]
		r.mu.Unlock()
		r.clock.advance(r.Step)
		return f, nil
	}
	r.mu.Unlock()

	r.blockOnce.Do(func() { close(r.blocked) })
	<-ctx.Done()
	return radio.Frame{}, ctx.Err()
}

func (r *fakeRadio) TransmitFrame(_ context.Context, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tx = append(r.tx, append([]byte(nil), payload...))
	return nil
}

func (r *fakeRadio) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type recDisplay struct {
	mu     sync.Mutex
	colors []display.Color
	shown  [][2]string
	closed bool
}

func (d *recDisplay) SetColor(c display.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.colors = append(d.colors, c)
	return nil
}

func (d *recDisplay) Show(line1, line2 string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, [2]string{line1, line2})
	return nil
}

func (d *recDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *recDisplay) last() [2]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.shown) == 0 {
		return [2]string{}
	}
	return d.shown[len(d.shown)-1]
}

type fakePower struct {
	calls int
	err   error
}

func (p *fakePower) PowerOff(context.Context) error {
	p.calls++
	return p.err
}

type rig struct {
	m     *Machine
	hw    *Hardware
	src   *input.Chan
	radio *fakeRadio
	disp  *recDisplay
	power *fakePower
	clock *fakeClock
}

// newRig returns a machine in Idle whose radio hands out rx.
func newRig(t *testing.T, rx ...radio.Frame) *rig {
	t.Helper()

	clock := &fakeClock{now: time.Unix(0, 0)}
	r := &rig{
		src:   input.NewChan(16),
		radio: &fakeRadio{clock: clock, Step: time.Second, rx: rx, blocked: make(chan struct{})},
		disp:  &recDisplay{},
		power: &fakePower{},
		clock: clock,
	}
	r.hw = &Hardware{Radio: r.radio, Display: r.disp, Input: r.src, Power: r.power}

	cfg := config.Default()
	cfg.Attack.Payload = "ab"
	r.m = New(r.hw, cfg, keyboard.XORCodec{}, clock, logging.Discard())
	r.m.state = Idle

	t.Cleanup(func() { r.hw.Close() })
	return r
}

func mustFrame(t *testing.T, data ...byte) radio.Frame {
	t.Helper()
	f, err := radio.NewFrame(data)
	require.NoError(t, err)
	return f
}

// nextPressed waits for the pump to deliver the next event.
func nextPressed(t *testing.T, m *Machine) pressed {
	t.Helper()
	select {
	case p, ok := <-m.queue:
		require.True(t, ok, "queue closed")
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no event queued")
	}
	return pressed{}
}

func nextQueued(t *testing.T, m *Machine) input.Event {
	t.Helper()
	return nextPressed(t, m).ev
}

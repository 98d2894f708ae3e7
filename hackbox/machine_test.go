package hackbox

import (
	"context"
	"testing"
	"time"

	"github.com/mame82/radiohackbox/config"
	"github.com/mame82/radiohackbox/display"
	"github.com/mame82/radiohackbox/hid"
	"github.com/mame82/radiohackbox/input"
	"github.com/mame82/radiohackbox/keyboard"
	"github.com/mame82/radiohackbox/logging"
	"github.com/mame82/radiohackbox/radio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialStateIsDiscovering(t *testing.T) {
	src := input.NewChan(1)
	defer src.Close()
	hw := &Hardware{Radio: &fakeRadio{}, Display: &recDisplay{}, Input: src, Power: &fakePower{}}

	m := New(hw, config.Default(), keyboard.XORCodec{}, nil, logging.Discard())
	assert.Equal(t, Discovering, m.CurrentState())
}

func TestRecordReplayDedupes(t *testing.T) {
	ctx := context.Background()
	f1 := mustFrame(t, 0x01, 0x02)
	f2 := mustFrame(t, 0x03)
	r := newRig(t, f1, f2, f1)
	r.m.frames.Append(mustFrame(t, 0xee))

	r.m.HandleInputEvent(ctx, input.RecordToggle)
	require.Equal(t, Recording, r.m.CurrentState())
	assert.Zero(t, r.m.frames.Len())
	assert.Equal(t, [2]string{"Radio Hack Box", "Recording ..."}, r.disp.last())
	assert.Empty(t, r.radio.sniffed, "no keyboard known yet")

	for i := 0; i < 3; i++ {
		r.m.Tick(ctx)
	}
	assert.Equal(t, 3, r.m.frames.Len())

	r.m.HandleInputEvent(ctx, input.RecordToggle)
	require.Equal(t, Idle, r.m.CurrentState())

	r.m.HandleInputEvent(ctx, input.ReplayStart)
	require.Equal(t, Replaying, r.m.CurrentState())
	r.m.Tick(ctx)

	assert.Equal(t, Idle, r.m.CurrentState())
	assert.Equal(t, [][]byte{{0x01, 0x02}, {0x03}}, r.radio.tx)
	assert.Contains(t, r.clock.slept, 500*time.Millisecond)
	assert.Equal(t, [2]string{"Radio Hack Box", "SySS GmbH - 2016"}, r.disp.last())
}

func TestRecordSniffsKnownKeyboard(t *testing.T) {
	r := newRig(t)
	addr := radio.Addr{0x35, 0x04, 0x03, 0x02, 0x01}
	r.m.addr = addr

	r.m.HandleInputEvent(context.Background(), input.RecordToggle)
	require.Equal(t, Recording, r.m.CurrentState())
	assert.Equal(t, []radio.Addr{addr}, r.radio.sniffed)
}

func TestIgnoredOutsideIdle(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	r.m.HandleInputEvent(ctx, input.RecordToggle)
	require.Equal(t, Recording, r.m.CurrentState())

	r.m.HandleInputEvent(ctx, input.ReplayStart)
	r.m.HandleInputEvent(ctx, input.AttackStart)
	assert.Equal(t, Recording, r.m.CurrentState())

	r.m.HandleInputEvent(ctx, input.Abort)
	assert.Equal(t, Idle, r.m.CurrentState())
}

func TestScanCaptureAttack(t *testing.T) {
	ctx := context.Background()
	key := []byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17}
	r := newRig(t,
		// discovery, leading (stored order) address bytes 0x20 then 0x35
		mustFrame(t, 0xaa, 0xbb, 0xcc, 0xdd, 0x20, 0x00),
		mustFrame(t, 0x01, 0x02, 0x03, 0x04, 0x35, 0x00, 0x00),
		// capture, t=3s..6s
		mustFrame(t, 0xc1, 0, 0, 0, 0, 0, 0, 0),
		mustFrame(t, 0xc2, 0, 0, 0, 0, 0, 0, 0),
		mustFrame(t, 0xc3, 0, 0, 0, 0, 0, 0, 0),
		mustFrame(t, key...),
		radio.Frame{},
		radio.Frame{},
		// drained
		radio.Frame{},
	)
	r.m.state = Discovering

	r.m.Tick(ctx)
	require.Equal(t, Capturing, r.m.CurrentState())
	assert.Equal(t, [2]string{"Found keyboard", "01:02:03:04:35"}, r.disp.last())
	addr, session := r.m.KeySession()
	assert.Equal(t, radio.Addr{0x35, 0x04, 0x03, 0x02, 0x01}, addr)
	assert.Nil(t, session)

	r.m.Tick(ctx)
	require.Equal(t, Idle, r.m.CurrentState())
	assert.Equal(t, []radio.Addr{addr}, r.radio.sniffed)
	assert.Contains(t, r.disp.shown, [2]string{"Found keyboard", "Got crypto key!"})
	assert.Contains(t, r.clock.slept, 3*time.Second)

	_, session = r.m.KeySession()
	require.NotNil(t, session)
	assert.Equal(t, key, session.EncodeKey(hid.HID_MOD_NONE, hid.HID_KEY_NONE))

	r.m.HandleInputEvent(ctx, input.AttackStart)
	require.Equal(t, Attacking, r.m.CurrentState())
	assert.Equal(t, [2]string{"Radio Hack Box", "Attacking ..."}, r.disp.last())
	r.m.Tick(ctx)

	assert.Equal(t, Idle, r.m.CurrentState())
	// open batch + "ab" + ENTER, press and release each
	require.Len(t, r.radio.tx, 3+2+2+2)
	assert.Equal(t, session.EncodeKey(hid.HID_MOD_KEY_RIGHT_GUI, hid.HID_KEY_R), r.radio.tx[1])
	assert.Equal(t, session.EncodeKey(hid.HID_MOD_NONE, hid.HID_KEY_ENTER), r.radio.tx[7])
}

func TestAttackWithoutKey(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	r.m.HandleInputEvent(ctx, input.AttackStart)
	r.m.Tick(ctx)
	assert.Equal(t, Idle, r.m.CurrentState())
	assert.Empty(t, r.radio.tx)
}

func TestCaptureUnusableKey(t *testing.T) {
	ctx := context.Background()
	r := newRig(t,
		mustFrame(t, 0x01),
		mustFrame(t, 0x02),
		mustFrame(t, 0x03),
		// too short for a key stream
		mustFrame(t, 0x04),
		radio.Frame{}, radio.Frame{}, radio.Frame{},
	)
	r.m.addr = radio.Addr{0x35, 1, 2, 3, 4}
	r.m.state = Capturing

	r.m.Tick(ctx)
	assert.Equal(t, Idle, r.m.CurrentState())
	addr, session := r.m.KeySession()
	assert.Nil(t, session)
	// no address without its key
	assert.True(t, addr.IsZero())

	// recording no longer targets the forgotten keyboard
	r.m.HandleInputEvent(ctx, input.RecordToggle)
	assert.Equal(t, []radio.Addr{{0x35, 1, 2, 3, 4}}, r.radio.sniffed)
}

func TestConfiguredTargetStartsCapture(t *testing.T) {
	src := input.NewChan(1)
	defer src.Close()
	hw := &Hardware{Radio: &fakeRadio{}, Display: &recDisplay{}, Input: src, Power: &fakePower{}}
	cfg := config.Default()
	cfg.Scan.Target = radio.Addr{0x35, 0x04, 0x03, 0x02, 0x01}

	m := New(hw, cfg, keyboard.XORCodec{}, nil, logging.Discard())
	assert.Equal(t, Capturing, m.CurrentState())
	addr, session := m.KeySession()
	assert.Equal(t, cfg.Scan.Target, addr)
	assert.Nil(t, session)
}

func TestTargetReadableWhileRunning(t *testing.T) {
	r := newRig(t, mustFrame(t, 0x01, 0x02, 0x03, 0x04, 0x35, 0x00))
	r.m.state = Discovering
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- r.m.Run(ctx) }()

	// capture waits for traffic that never comes
	require.Eventually(t, func() bool {
		addr, _ := r.m.KeySession()
		return !addr.IsZero() && r.m.CurrentState() == Capturing && !r.m.Done()
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not terminate")
	}
	addr, session := r.m.KeySession()
	assert.True(t, addr.IsZero())
	assert.Nil(t, session)
	assert.False(t, r.m.Done())
}

func TestShutdownGestureWithinWindow(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	require.True(t, r.src.Send(input.RecordToggle))
	r.m.HandleInputEvent(ctx, input.ScanStart)
	require.Equal(t, ShuttingDown, r.m.CurrentState())
	assert.Equal(t, [2]string{"Radio Hack Box", "Shutdown ..."}, r.disp.last())

	r.m.Tick(ctx)
	assert.True(t, r.m.Done())
	assert.Equal(t, 1, r.power.calls)
	assert.Equal(t, [2]string{"Radio Hack Box", "3, 2, 1, gone."}, r.disp.last())
	assert.True(t, r.radio.closed)
	assert.True(t, r.disp.closed)
}

func TestShutdownGestureFromRecording(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	r.m.HandleInputEvent(ctx, input.RecordToggle)
	require.Equal(t, Recording, r.m.CurrentState())

	require.True(t, r.src.Send(input.RecordToggle))
	r.m.HandleInputEvent(ctx, input.ScanStart)
	assert.Equal(t, ShuttingDown, r.m.CurrentState())
}

func TestShutdownGestureDefersOtherEvents(t *testing.T) {
	r := newRig(t)

	require.True(t, r.src.Send(input.ReplayStart))
	require.True(t, r.src.Send(input.RecordToggle))
	r.m.HandleInputEvent(context.Background(), input.ScanStart)

	assert.Equal(t, ShuttingDown, r.m.CurrentState())
	require.Len(t, r.m.deferred, 1)
	assert.Equal(t, input.ReplayStart, r.m.deferred[0].ev)
}

func TestGestureUsesPressTime(t *testing.T) {
	scanAt := time.Now()
	tests := []struct {
		name     string
		scanAt   time.Time
		recordAt time.Time
		want     State
	}{
		// both dequeued long after they were pressed, 0.5 s apart
		{"within window", scanAt.Add(-3 * time.Second), scanAt.Add(-2500 * time.Millisecond), ShuttingDown},
		// both queued while the box was busy, 1.5 s apart
		{"after window", scanAt, scanAt.Add(1500 * time.Millisecond), Discovering},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			r.m.queue <- pressed{input.RecordToggle, tt.recordAt}

			r.m.dispatch(context.Background(), pressed{input.ScanStart, tt.scanAt})
			assert.Equal(t, tt.want, r.m.CurrentState())
		})
	}
}

func TestLateRecordQueuedBehindScan(t *testing.T) {
	r := newRig(t)
	r.m.cfg.UI.GestureWindow.Duration = 20 * time.Millisecond

	require.True(t, r.src.Send(input.ScanStart))
	time.Sleep(100 * time.Millisecond)
	require.True(t, r.src.Send(input.RecordToggle))
	// both pending before the machine gets to them
	require.Eventually(t, func() bool { return len(r.m.queue) == 2 }, 2*time.Second, time.Millisecond)

	ctx := context.Background()
	r.m.dispatch(ctx, nextPressed(t, r.m))
	require.Equal(t, Discovering, r.m.CurrentState())
	assert.Zero(t, r.power.calls)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	r.m.Tick(cancelled)
	require.Equal(t, Idle, r.m.CurrentState())

	p, ok := r.m.poll()
	require.True(t, ok)
	assert.Equal(t, input.RecordToggle, p.ev)
	r.m.dispatch(ctx, p)
	assert.Equal(t, Recording, r.m.CurrentState())
}

func TestScanThenRecordAfterWindow(t *testing.T) {
	r := newRig(t)
	r.m.cfg.UI.GestureWindow.Duration = 20 * time.Millisecond

	r.m.HandleInputEvent(context.Background(), input.ScanStart)
	require.Equal(t, Discovering, r.m.CurrentState())
	assert.Equal(t, [2]string{"Radio Hack Box", "Scanning ..."}, r.disp.last())

	// late RECORD is a plain event
	require.True(t, r.src.Send(input.RecordToggle))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.m.Tick(ctx)
	require.Equal(t, Idle, r.m.CurrentState())

	r.m.HandleInputEvent(context.Background(), nextQueued(t, r.m))
	assert.Equal(t, Recording, r.m.CurrentState())
	assert.Zero(t, r.power.calls)
}

func TestAbortCancelsScan(t *testing.T) {
	r := newRig(t)
	r.m.state = Discovering

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.m.Tick(context.Background())
	}()

	select {
	case <-r.radio.blocked:
	case <-time.After(2 * time.Second):
		t.Fatal("scan never waited for traffic")
	}
	require.True(t, r.src.Send(input.Abort))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("abort did not cancel the scan")
	}
	assert.Equal(t, Idle, r.m.CurrentState())
	assert.Equal(t, [2]string{"Radio Hack Box", "SySS GmbH - 2016"}, r.disp.last())

	// the queued ABORT is a no-op in Idle
	r.m.HandleInputEvent(context.Background(), nextQueued(t, r.m))
	assert.Equal(t, Idle, r.m.CurrentState())
}

func TestRunShutdown(t *testing.T) {
	r := newRig(t)

	errc := make(chan error, 1)
	go func() { errc <- r.m.Run(context.Background()) }()
	require.True(t, r.src.Send(input.ShutdownGesture))

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not terminate")
	}
	assert.Equal(t, 1, r.power.calls)
	assert.True(t, r.m.Done())
}

func TestRunStopsWhenInputCloses(t *testing.T) {
	r := newRig(t)

	errc := make(chan error, 1)
	go func() { errc <- r.m.Run(context.Background()) }()
	require.NoError(t, r.src.Close())

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not terminate")
	}
	assert.Zero(t, r.power.calls)
}

func TestRunContextCancelled(t *testing.T) {
	r := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- r.m.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not terminate")
	}
}

func TestStateViews(t *testing.T) {
	r := newRig(t)
	for _, tt := range []struct {
		state State
		color display.Color
		text  string
	}{
		{Idle, display.Off, "SySS GmbH - 2016"},
		{Recording, display.Red, "Recording ..."},
		{Replaying, display.Green, "Replaying ..."},
		{Discovering, display.Blue, "Scanning ..."},
		{Attacking, display.Green, "Attacking ..."},
		{ShuttingDown, display.Off, "Shutdown ..."},
	} {
		t.Run(tt.state.String(), func(t *testing.T) {
			v, ok := r.m.viewOf(tt.state)
			require.True(t, ok)
			assert.Equal(t, tt.color, v.color)
			assert.Equal(t, tt.text, v.text)
		})
	}

	_, ok := r.m.viewOf(Capturing)
	assert.False(t, ok)
}

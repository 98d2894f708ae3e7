package engine

import (
	"context"
	"errors"
	"time"

	"github.com/mame82/radiohackbox/hid"
	"github.com/mame82/radiohackbox/logging"
	"github.com/mame82/radiohackbox/radio"
)

var testLog = logging.Discard()

var errUnmapped = errors.New("unmapped rune")

type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	onStep func()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

// rxStep is one scripted receive: the clock is moved to At before the frame
// is handed out.
type rxStep struct {
	At    time.Duration
	Frame radio.Frame
}

// scriptRadio replays a receive script against a fake clock. Once the script
// is exhausted every poll moves the clock by Idle and yields nothing.
type scriptRadio struct {
	clock *fakeClock
	steps []rxStep
	Idle  time.Duration
	// cancel is invoked after MaxPolls receive calls
	MaxPolls int
	cancel   context.CancelFunc

	polls       int
	promiscuous [][]byte
	sniffed     []radio.Addr
	tuned       []radio.Channel
	tx          [][]byte
	txErrAt     int
	txErr       error
	rxErr       error
}

func (s *scriptRadio) SetChannel(ch radio.Channel) error {
	s.tuned = append(s.tuned, ch)
	return nil
}

func (s *scriptRadio) EnterPromiscuousMode(prefix []byte) error {
	s.promiscuous = append(s.promiscuous, prefix)
	return nil
}

func (s *scriptRadio) EnterSnifferMode(addr radio.Addr) error {
	s.sniffed = append(s.sniffed, addr)
	return nil
}

func (s *scriptRadio) Close() error { return nil }

func (s *scriptRadio) ReceiveFrame(ctx context.Context) (radio.Frame, error) {
	s.polls++
	if s.MaxPolls > 0 && s.polls >= s.MaxPolls && s.cancel != nil {
		s.cancel()
	}
	if s.rxErr != nil {
		return radio.Frame{}, s.rxErr
	}
	if len(s.steps) > 0 {
		st := s.steps[0]
		s.steps = s.steps[1:]
		s.clock.now = time.Unix(0, 0).Add(st.At)
		return st.Frame, nil
	}
	s.clock.now = s.clock.now.Add(s.Idle)
	return radio.Frame{}, nil
}

func (s *scriptRadio) TransmitFrame(ctx context.Context, payload []byte) error {
	if s.txErr != nil && len(s.tx) == s.txErrAt {
		return s.txErr
	}
	c := make([]byte, len(payload))
	copy(c, payload)
	s.tx = append(s.tx, c)
	return nil
}

func mustFrame(b ...byte) radio.Frame {
	f, err := radio.NewFrame(b)
	if err != nil {
		panic(err)
	}
	return f
}

// stubSession encodes reports as readable markers: [mod, key] per report.
type stubSession struct{}

func (stubSession) EncodeKey(mod hid.HIDMod, key hid.HIDKey) []byte {
	return []byte{byte(mod), byte(key)}
}

func (s stubSession) EncodeKeystroke(key hid.HIDKey) [][]byte {
	return [][]byte{s.EncodeKey(0, key), s.EncodeKey(0, 0)}
}

func (s stubSession) EncodeText(text string) ([][]byte, error) {
	var res [][]byte
	for _, r := range text {
		kc, ok := hid.LookupUS(r)
		if !ok {
			return nil, errUnmapped
		}
		res = append(res, s.EncodeKey(kc.Mod, kc.Key), s.EncodeKey(0, 0))
	}
	return res, nil
}

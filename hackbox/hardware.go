package hackbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mame82/radiohackbox/display"
	"github.com/mame82/radiohackbox/engine"
	"github.com/mame82/radiohackbox/input"
	"github.com/mame82/radiohackbox/radio"
)

var ErrInit = errors.New("hardware initialization failed")

// PowerSwitch turns the whole box off.
type PowerSwitch interface {
	PowerOff(ctx context.Context) error
}

// Hardware owns the peripherals for the lifetime of the process. Close
// releases all of them and is safe to call more than once.
type Hardware struct {
	Radio   radio.Transceiver
	Display display.Display
	Input   input.Source
	Power   PowerSwitch

	closeOnce sync.Once
	closeErr  error
}

// Opener acquires the individual peripherals.
type Opener struct {
	Display func() (display.Display, error)
	Radio   func() (radio.Transceiver, error)
	Input   func() (input.Source, error)
	Power   PowerSwitch
}

// Acquire opens the display first, so that a failure of the radio or the
// input can still be reported on it. Everything opened so far is released
// again on error.
func Acquire(o Opener) (hw *Hardware, err error) {
	hw = &Hardware{Power: o.Power}
	defer func() {
		if err == nil {
			return
		}
		if hw.Display != nil {
			hw.Display.SetColor(display.Red)
			hw.Display.Show("Error: 0xDEAD", "Please RTFM!")
		}
		hw.Close()
		hw = nil
	}()

	if hw.Display, err = o.Display(); err != nil {
		hw.Display = nil
		return hw, fmt.Errorf("%w: display: %w", ErrInit, err)
	}
	if hw.Radio, err = o.Radio(); err != nil {
		hw.Radio = nil
		return hw, fmt.Errorf("%w: radio: %w", ErrInit, err)
	}
	if hw.Input, err = o.Input(); err != nil {
		hw.Input = nil
		return hw, fmt.Errorf("%w: input: %w", ErrInit, err)
	}
	if hw.Power == nil {
		return hw, fmt.Errorf("%w: no power switch", ErrInit)
	}
	return hw, nil
}

func (h *Hardware) Close() error {
	h.closeOnce.Do(func() {
		var errs []error
		if h.Input != nil {
			errs = append(errs, h.Input.Close())
		}
		if h.Radio != nil {
			errs = append(errs, h.Radio.Close())
		}
		if h.Display != nil {
			errs = append(errs, h.Display.Close())
		}
		h.closeErr = errors.Join(errs...)
	})
	return h.closeErr
}

// Blink flashes all LEDs count times, the box's "I'm alive" signal.
func (h *Hardware) Blink(ctx context.Context, clock engine.Clock, count int, delay time.Duration) error {
	for i := 0; i < count; i++ {
		if err := h.Display.SetColor(display.White); err != nil {
			return err
		}
		if err := clock.Sleep(ctx, delay); err != nil {
			return err
		}
		if err := h.Display.SetColor(display.Off); err != nil {
			return err
		}
		if err := clock.Sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

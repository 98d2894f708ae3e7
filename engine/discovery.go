// Package engine implements the radio phases of the hack box: device
// discovery, key material capture, replay and keystroke injection.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mame82/radiohackbox/helper"
	"github.com/mame82/radiohackbox/radio"
)

// Discoverer sweeps the configured channels in promiscuous mode until a
// frame from a likely target keyboard shows up.
type Discoverer struct {
	Radio    radio.Transceiver
	Channels []radio.Channel
	Dwell    time.Duration
	Prefix   []byte
	// Range the first (stored order) address byte has to fall into; the
	// vendor's address space, empirically
	Range radio.ByteRange
	Clock Clock
	Log   *slog.Logger
}

// Discover blocks until a candidate address is accepted or ctx is done.
// First fit: the first address inside Range wins, nothing else is compared.
// Without matching traffic this never returns on its own.
func (d *Discoverer) Discover(ctx context.Context) (addr radio.Addr, err error) {
	if len(d.Channels) == 0 {
		return addr, fmt.Errorf("discover: no channels configured")
	}

	if err = d.Radio.EnterPromiscuousMode(d.Prefix); err != nil {
		return addr, fmt.Errorf("enter promiscuous mode: %w", err)
	}

	chIdx := 0
	if err = d.Radio.SetChannel(d.Channels[chIdx]); err != nil {
		return addr, fmt.Errorf("set channel: %w", err)
	}
	lastTune := d.Clock.Now()

	for {
		if err = ctx.Err(); err != nil {
			return addr, err
		}

		// sweep, a single channel never gets re-tuned
		if len(d.Channels) > 1 && d.Clock.Now().Sub(lastTune) > d.Dwell {
			chIdx = (chIdx + 1) % len(d.Channels)
			if err = d.Radio.SetChannel(d.Channels[chIdx]); err != nil {
				return addr, fmt.Errorf("set channel: %w", err)
			}
			lastTune = d.Clock.Now()
		}

		f, eRx := d.Radio.ReceiveFrame(ctx)
		if eRx != nil {
			return addr, fmt.Errorf("receive: %w", eRx)
		}
		if !f.Valid || f.Len() < radio.AddrLen {
			continue
		}

		candidate, payload, _ := f.Split()
		d.Log.Debug("ESB candidate", "address", candidate.String(), "channel", d.Channels[chIdx], "payload", helper.Hex(payload))
		if d.Range.Contains(candidate[0]) {
			d.Log.Info("Found keyboard", "address", candidate.String(), "channel", d.Channels[chIdx])
			return candidate, nil
		}
	}
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mame82/radiohackbox/helper"
	"github.com/mame82/radiohackbox/radio"
)

// Capturer listens to a known keyboard until the key bearing frame has most
// likely been seen.
type Capturer struct {
	Radio         radio.Transceiver
	MinFrames     int
	QuietInterval time.Duration
	Clock         Clock
	Log           *slog.Logger
}

// CaptureComplete is the stop heuristic: a burst of at least minFrames valid
// frames followed by quiet for at least the quiet interval.
func CaptureComplete(count, minFrames int, sinceLast, quiet time.Duration) bool {
	return count >= minFrames && sinceLast >= quiet
}

// Capture puts the radio in sniffer mode on addr and returns the payload of
// the last valid frame received before the device went quiet. In the target
// protocol this is the key release frame, which carries the key material.
func (c *Capturer) Capture(ctx context.Context, addr radio.Addr) (payload []byte, err error) {
	if err = c.Radio.EnterSnifferMode(addr); err != nil {
		return nil, fmt.Errorf("enter sniffer mode: %w", err)
	}

	var (
		count   int
		lastKey time.Time
	)
	for {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		f, eRx := c.Radio.ReceiveFrame(ctx)
		if eRx != nil {
			return nil, fmt.Errorf("receive: %w", eRx)
		}
		if f.Valid {
			lastKey = c.Clock.Now()
			count++
			payload = f.Data
			c.Log.Info("Received payload", "payload", helper.Hex(f.Data), "count", count)
		}

		if count > 0 && CaptureComplete(count, c.MinFrames, c.Clock.Now().Sub(lastKey), c.QuietInterval) {
			break
		}
	}

	// drain a trailing frame, result is not used
	if _, eDrain := c.Radio.ReceiveFrame(ctx); eDrain != nil {
		c.Log.Debug("drain receive failed", "err", eDrain)
	}

	res := make([]byte, len(payload))
	copy(res, payload)
	return res, nil
}

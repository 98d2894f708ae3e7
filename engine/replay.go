package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mame82/radiohackbox/helper"
	"github.com/mame82/radiohackbox/radio"
	"github.com/mame82/radiohackbox/store"
)

type Replayer struct {
	Radio radio.Transceiver
	Log   *slog.Logger
}

// Replay removes retransmissions from frames and sends each remaining frame
// once, in recorded order. It returns the number of frames sent.
func (r *Replayer) Replay(ctx context.Context, frames []radio.Frame) (sent int, err error) {
	unique := store.Dedupe(frames)
	r.Log.Info("Start replay", "recorded", len(frames), "unique", len(unique))

	for _, f := range unique {
		if err = ctx.Err(); err != nil {
			return sent, err
		}
		if err = r.Radio.TransmitFrame(ctx, f.Data); err != nil {
			return sent, fmt.Errorf("replay frame %d: %w", sent, err)
		}
		sent++
		r.Log.Info("Sent payload", "payload", helper.Hex(f.Data))
	}
	return sent, nil
}

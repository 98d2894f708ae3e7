package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// LinkTypeESB is the pcap DLT used for dumped frames (DLT_USER0). Every record
// carries a 2 byte pseudo header: direction and channel.
const LinkTypeESB = layers.LinkType(147)

const (
	TapDirRX byte = 0x00
	TapDirTX byte = 0x01
)

const tapHeaderLen = 2

// Tap decorates a Transceiver and writes every valid received frame and every
// transmitted payload to a pcap stream.
type Tap struct {
	Transceiver

	mu      sync.Mutex
	out     io.Writer
	w       *pcapgo.Writer
	channel Channel
	now     func() time.Time
}

func NewTap(tr Transceiver, out io.Writer) (*Tap, error) {
	w := pcapgo.NewWriter(out)
	if err := w.WriteFileHeader(MaxFrameLen+tapHeaderLen, LinkTypeESB); err != nil {
		return nil, fmt.Errorf("pcap header: %w", err)
	}
	return &Tap{Transceiver: tr, out: out, w: w, now: time.Now}, nil
}

// Close closes the radio and, if it is one, the pcap output.
func (t *Tap) Close() error {
	err := t.Transceiver.Close()
	if c, ok := t.out.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}

func (t *Tap) SetChannel(ch Channel) error {
	if err := t.Transceiver.SetChannel(ch); err != nil {
		return err
	}
	t.mu.Lock()
	t.channel = ch
	t.mu.Unlock()
	return nil
}

func (t *Tap) ReceiveFrame(ctx context.Context) (Frame, error) {
	f, err := t.Transceiver.ReceiveFrame(ctx)
	if err == nil && f.Valid {
		if eW := t.write(TapDirRX, f.Data); eW != nil {
			return f, eW
		}
	}
	return f, err
}

func (t *Tap) TransmitFrame(ctx context.Context, payload []byte) error {
	if err := t.Transceiver.TransmitFrame(ctx, payload); err != nil {
		return err
	}
	return t.write(TapDirTX, payload)
}

func (t *Tap) write(dir byte, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := make([]byte, 0, tapHeaderLen+len(data))
	rec = append(rec, dir, byte(t.channel))
	rec = append(rec, data...)
	ci := gopacket.CaptureInfo{
		Timestamp:     t.now(),
		CaptureLength: len(rec),
		Length:        len(rec),
	}
	if err := t.w.WritePacket(ci, rec); err != nil {
		return fmt.Errorf("pcap write: %w", err)
	}
	return nil
}

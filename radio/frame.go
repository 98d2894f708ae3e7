package radio

import (
	"bytes"
	"errors"
	"fmt"
)

// MaxFrameLen is the maximum ESB payload length of an nRF24.
const MaxFrameLen = 32

// MaxChannel is the highest RF channel the nRF24 can be tuned to (2400 + 125 MHz).
const MaxChannel Channel = 125

var ErrFrameSize = errors.New("frame size out of range")

type Channel byte

func (c Channel) Valid() bool {
	return c <= MaxChannel
}

// Frame is a single received or captured ESB frame. Frames are treated as
// immutable once captured.
type Frame struct {
	Data  []byte
	Valid bool
}

// NewFrame copies data into a valid frame, enforcing the 1..32 byte size.
func NewFrame(data []byte) (Frame, error) {
	if len(data) < 1 || len(data) > MaxFrameLen {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrFrameSize, len(data))
	}
	c := make([]byte, len(data))
	copy(c, data)
	return Frame{Data: c, Valid: true}, nil
}

// Equal compares the frame content byte by byte.
func (f Frame) Equal(o Frame) bool {
	return bytes.Equal(f.Data, o.Data)
}

func (f Frame) Len() int {
	return len(f.Data)
}

// Split divides a promiscuous mode frame into the device address (stored
// order) and the remaining payload.
func (f Frame) Split() (addr Addr, payload []byte, err error) {
	addr, err = AddrFromAir(f.Data)
	if err != nil {
		return
	}
	payload = f.Data[AddrLen:]
	return
}

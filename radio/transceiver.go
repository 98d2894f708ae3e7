package radio

import (
	"context"
	"errors"
)

var (
	ErrDeviceNotFound = errors.New("nRF24 dongle not found")
	ErrTransport      = errors.New("radio transport failure")
)

// Transceiver is the low level radio used by the engines. Calls are never
// retried internally; failures are returned wrapping ErrTransport.
type Transceiver interface {
	SetChannel(ch Channel) error
	// EnterPromiscuousMode reports every ESB frame whose address starts with
	// prefix (empty prefix: any address).
	EnterPromiscuousMode(prefix []byte) error
	// EnterSnifferMode locks onto addr, without sending acknowledgements.
	EnterSnifferMode(addr Addr) error
	// ReceiveFrame polls for a single frame. A frame with Valid == false means
	// nothing was received during the poll.
	ReceiveFrame(ctx context.Context) (Frame, error)
	TransmitFrame(ctx context.Context, payload []byte) error
	Close() error
}

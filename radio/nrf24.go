package radio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/gousb"
)

const NRF24_DEFAULT_TIMEOUT = time.Millisecond * 2500

// USB IDs of a CrazyRadio PA / nRF24LU1+ running the nrf-research-firmware
const (
	NRF24_VID gousb.ID = 0x1915
	NRF24_PID gousb.ID = 0x0102
)

type NRF24_COMMAND byte

/*
#define TRANSMIT_PAYLOAD               0x04
#define ENTER_SNIFFER_MODE             0x05
#define ENTER_PROMISCUOUS_MODE         0x06
#define ENTER_TONE_TEST_MODE           0x07
#define TRANSMIT_ACK_PAYLOAD           0x08
#define SET_CHANNEL                    0x09
#define GET_CHANNEL                    0x0A
#define ENABLE_LNA                     0x0B
#define TRANSMIT_PAYLOAD_GENERIC       0x0C
#define ENTER_PROMISCUOUS_MODE_GENERIC 0x0D
#define RECEIVE_PACKET                 0x12
*/

const (
	TRANSMIT_PAYLOAD               NRF24_COMMAND = 0x04
	ENTER_SNIFFER_MODE             NRF24_COMMAND = 0x05
	ENTER_PROMISCUOUS_MODE         NRF24_COMMAND = 0x06
	ENTER_TONE_TEST_MODE           NRF24_COMMAND = 0x07
	TRANSMIT_ACK_PAYLOAD           NRF24_COMMAND = 0x08
	SET_CHANNEL                    NRF24_COMMAND = 0x09
	GET_CHANNEL                    NRF24_COMMAND = 0x0A
	ENABLE_LNA_PA                  NRF24_COMMAND = 0x0B
	TRANSMIT_PAYLOAD_GENERIC       NRF24_COMMAND = 0x0C
	ENTER_PROMISCUOUS_MODE_GENERIC NRF24_COMMAND = 0x0D
	RECEIVE_PAYLOAD                NRF24_COMMAND = 0x12
)

// firmware answer to RECEIVE_PAYLOAD if nothing was received
const rxNothing = 0xff

type rxMode int

const (
	modeUnset rxMode = iota
	modePromiscuous
	modeSniffer
)

// NRF24 drives the nRF24LU1+ research firmware over USB.
type NRF24 struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	iface  *gousb.Interface
	epOut  *gousb.OutEndpoint
	epIn   *gousb.InEndpoint

	mu   sync.Mutex
	mode rxMode

	// TX parameters handed to TRANSMIT_PAYLOAD
	RetransmitDelay byte
	RetransmitCount byte

	log *slog.Logger
}

func NewNRF24(log *slog.Logger) (res *NRF24, err error) {
	res = &NRF24{
		ctx:             gousb.NewContext(),
		RetransmitDelay: 4,
		RetransmitCount: 15,
		log:             log,
	}
	defer func() {
		if err != nil {
			res.Close()
			res = nil
		}
	}()

	res.device, err = res.ctx.OpenDeviceWithVIDPID(NRF24_VID, NRF24_PID)
	if err != nil {
		return res, fmt.Errorf("open dongle: %w", err)
	}
	if res.device == nil {
		return res, ErrDeviceNotFound
	}

	// reset device
	if err = res.device.Reset(); err != nil {
		return res, fmt.Errorf("reset dongle: %w", err)
	}
	if err = res.device.SetAutoDetach(true); err != nil {
		return res, fmt.Errorf("auto detach: %w", err)
	}

	res.config, err = res.device.Config(1)
	if err != nil {
		return res, fmt.Errorf("usb config: %w", err)
	}

	// claim interface (idx 0, alt 0)
	res.iface, err = res.config.Interface(0, 0)
	if err != nil {
		return res, fmt.Errorf("claim interface: %w", err)
	}

	res.epIn, err = res.iface.InEndpoint(1)
	if err != nil {
		return res, fmt.Errorf("in endpoint: %w", err)
	}
	res.epOut, err = res.iface.OutEndpoint(1)
	if err != nil {
		return res, fmt.Errorf("out endpoint: %w", err)
	}

	log.Debug("nRF24 dongle opened", "in", res.epIn.String(), "out", res.epOut.String())
	return res, nil
}

func (d *NRF24) Close() error {
	if d.iface != nil {
		d.iface.Close()
	}
	if d.config != nil {
		d.config.Close()
	}
	if d.device != nil {
		d.device.Close()
	}
	if d.ctx != nil {
		return d.ctx.Close()
	}
	return nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// command sends a firmware command and returns the dongle's response.
func (d *NRF24) command(ctx context.Context, command NRF24_COMMAND, data []byte) (resp []byte, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := withTimeout(ctx, NRF24_DEFAULT_TIMEOUT)
	defer cancel()

	dataRaw := append([]byte{byte(command)}, data...)
	for len(dataRaw) > 0 {
		n, eW := d.epOut.WriteContext(ctx, dataRaw)
		if eW != nil {
			return nil, fmt.Errorf("%w: write command %#02x: %v", ErrTransport, byte(command), eW)
		}
		dataRaw = dataRaw[n:]
	}

	buf := make([]byte, 64)
	n, err := d.epIn.ReadContext(ctx, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: read response %#02x: %v", ErrTransport, byte(command), err)
	}
	return buf[:n], nil
}

func (d *NRF24) SetChannel(ch Channel) error {
	if !ch.Valid() {
		ch = MaxChannel
	}
	_, err := d.command(context.Background(), SET_CHANNEL, []byte{byte(ch)})
	return err
}

func (d *NRF24) GetChannel() (ch Channel, err error) {
	resp, err := d.command(context.Background(), GET_CHANNEL, nil)
	if err != nil {
		return 0, err
	}
	if len(resp) != 1 {
		return 0, fmt.Errorf("%w: reading current channel", ErrTransport)
	}
	return Channel(resp[0]), nil
}

// EnableLNA enables the amplifier of the CrazyRadio PA
func (d *NRF24) EnableLNA() error {
	_, err := d.command(context.Background(), ENABLE_LNA_PA, nil)
	return err
}

func (d *NRF24) EnterPromiscuousMode(prefix []byte) error {
	data := append([]byte{byte(len(prefix))}, prefix...)
	if _, err := d.command(context.Background(), ENTER_PROMISCUOUS_MODE, data); err != nil {
		return err
	}
	d.mode = modePromiscuous
	return nil
}

// EnterSnifferMode puts the radio into ESB mode w/o auto ACKs, listening on
// addr. The address is sent in stored (reversed) order.
func (d *NRF24) EnterSnifferMode(addr Addr) error {
	data := append([]byte{AddrLen}, addr.Bytes()...)
	if _, err := d.command(context.Background(), ENTER_SNIFFER_MODE, data); err != nil {
		return err
	}
	d.mode = modeSniffer
	return nil
}

func (d *NRF24) ReceiveFrame(ctx context.Context) (Frame, error) {
	resp, err := d.command(ctx, RECEIVE_PAYLOAD, nil)
	if err != nil {
		return Frame{}, err
	}
	return decodeRxResponse(d.mode, resp), nil
}

// decodeRxResponse interprets the RECEIVE_PAYLOAD answer. In sniffer mode the
// first byte is the rx status (0x00 received), in promiscuous mode the raw
// address + payload is returned.
func decodeRxResponse(mode rxMode, resp []byte) Frame {
	if len(resp) == 0 {
		return Frame{}
	}
	switch mode {
	case modeSniffer:
		if resp[0] != 0x00 || len(resp) < 2 {
			return Frame{}
		}
		f, err := NewFrame(resp[1:])
		if err != nil {
			return Frame{}
		}
		return f
	default:
		if len(resp) == 1 && resp[0] == rxNothing {
			return Frame{}
		}
		f, err := NewFrame(resp)
		if err != nil {
			return Frame{}
		}
		return f
	}
}

func (d *NRF24) TransmitFrame(ctx context.Context, payload []byte) error {
	if len(payload) < 1 || len(payload) > MaxFrameLen {
		return fmt.Errorf("%w: %d bytes", ErrFrameSize, len(payload))
	}
	data := []byte{byte(len(payload)), d.RetransmitDelay, d.RetransmitCount}
	data = append(data, payload...)

	resp, err := d.command(ctx, TRANSMIT_PAYLOAD, data)
	if err != nil {
		return err
	}
	if len(resp) == 0 || resp[0] == 0 {
		return fmt.Errorf("%w: payload not acknowledged", ErrTransport)
	}
	return nil
}

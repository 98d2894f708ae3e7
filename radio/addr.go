package radio

import (
	"errors"

	"github.com/mame82/radiohackbox/helper"
)

const AddrLen = 5

var ErrInvalidAddr = errors.New("invalid nRF24 address")

// Addr is a 5 byte ESB device address.
//
// CAUTION: the byte order is reversed compared to what sniffer tools (and the
// air interface in promiscuous mode) report. The first byte of an Addr is the
// last byte seen on air. The research firmware expects this order when
// entering sniffer mode.
type Addr [AddrLen]byte

// AddrFromAir converts the leading 5 bytes of a promiscuous mode frame into an
// Addr, reversing the byte order.
func AddrFromAir(raw []byte) (a Addr, err error) {
	if len(raw) < AddrLen {
		return a, ErrInvalidAddr
	}
	for i := 0; i < AddrLen; i++ {
		a[i] = raw[AddrLen-1-i]
	}
	return a, nil
}

// Air returns the address in on-air (sniffer tool) order.
func (a Addr) Air() []byte {
	res := make([]byte, AddrLen)
	for i := 0; i < AddrLen; i++ {
		res[i] = a[AddrLen-1-i]
	}
	return res
}

// Bytes returns the address in stored (firmware) order.
func (a Addr) Bytes() []byte {
	res := make([]byte, AddrLen)
	copy(res, a[:])
	return res
}

func (a Addr) IsZero() bool {
	return a == Addr{}
}

// String prints the address the way sniffer tools show it.
func (a Addr) String() string {
	return helper.Hex(a.Air())
}

// ParseAddr parses an address given in sniffer tool order, e.g. "e2:c7:94:f2:35".
func ParseAddr(s string) (a Addr, err error) {
	raw, err := helper.ParseSeparatedHex(s)
	if err != nil || len(raw) != AddrLen {
		return a, ErrInvalidAddr
	}
	return AddrFromAir(raw)
}

// UnmarshalText accepts the sniffer tool notation of ParseAddr.
func (a *Addr) UnmarshalText(text []byte) (err error) {
	*a, err = ParseAddr(string(text))
	return err
}

// ByteRange is a half open range [Low, High) applied to the first stored
// address byte.
type ByteRange struct {
	Low  byte `toml:"low"`
	High byte `toml:"high"`
}

func (r ByteRange) Contains(b byte) bool {
	return b >= r.Low && b < r.High
}

func (r ByteRange) Empty() bool {
	return r.High <= r.Low
}

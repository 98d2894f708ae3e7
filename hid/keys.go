package hid

import "fmt"

type HIDKey byte
type HIDMod byte

const (
	HID_KEY_NONE       HIDKey = 0x00
	HID_KEY_A          HIDKey = 0x04
	HID_KEY_R          HIDKey = 0x15 // Keyboard r and R
	HID_KEY_Z          HIDKey = 0x1d // Keyboard z and Z
	HID_KEY_1          HIDKey = 0x1e // Keyboard 1 and !
	HID_KEY_2          HIDKey = 0x1f // Keyboard 2 and @
	HID_KEY_3          HIDKey = 0x20 // Keyboard 3 and #
	HID_KEY_4          HIDKey = 0x21 // Keyboard 4 and $
	HID_KEY_5          HIDKey = 0x22 // Keyboard 5 and %
	HID_KEY_6          HIDKey = 0x23 // Keyboard 6 and ^
	HID_KEY_7          HIDKey = 0x24 // Keyboard 7 and &
	HID_KEY_8          HIDKey = 0x25 // Keyboard 8 and *
	HID_KEY_9          HIDKey = 0x26 // Keyboard 9 and (
	HID_KEY_0          HIDKey = 0x27 // Keyboard 0 and )
	HID_KEY_ENTER      HIDKey = 0x28 // Keyboard Return (ENTER)
	HID_KEY_ESC        HIDKey = 0x29
	HID_KEY_BACKSPACE  HIDKey = 0x2a
	HID_KEY_TAB        HIDKey = 0x2b
	HID_KEY_SPACE      HIDKey = 0x2c
	HID_KEY_MINUS      HIDKey = 0x2d // Keyboard - and _
	HID_KEY_EQUAL      HIDKey = 0x2e // Keyboard = and +
	HID_KEY_LEFTBRACE  HIDKey = 0x2f // Keyboard [ and {
	HID_KEY_RIGHTBRACE HIDKey = 0x30 // Keyboard ] and }
	HID_KEY_BACKSLASH  HIDKey = 0x31 // Keyboard \ and |
	HID_KEY_SEMICOLON  HIDKey = 0x33 // Keyboard ; and :
	HID_KEY_APOSTROPHE HIDKey = 0x34 // Keyboard ' and "
	HID_KEY_GRAVE      HIDKey = 0x35 // Keyboard ` and ~
	HID_KEY_COMMA      HIDKey = 0x36 // Keyboard , and <
	HID_KEY_DOT        HIDKey = 0x37 // Keyboard . and >
	HID_KEY_SLASH      HIDKey = 0x38 // Keyboard / and ?
)

const (
	HID_MOD_NONE              HIDMod = 0x00
	HID_MOD_KEY_LEFT_CONTROL  HIDMod = 0x01
	HID_MOD_KEY_LEFT_SHIFT    HIDMod = 0x02
	HID_MOD_KEY_LEFT_ALT      HIDMod = 0x04
	HID_MOD_KEY_LEFT_GUI      HIDMod = 0x08
	HID_MOD_KEY_RIGHT_CONTROL HIDMod = 0x10
	HID_MOD_KEY_RIGHT_SHIFT   HIDMod = 0x20
	HID_MOD_KEY_RIGHT_ALT     HIDMod = 0x40
	HID_MOD_KEY_RIGHT_GUI     HIDMod = 0x80
)

func (c HIDMod) String() string {
	switch c {
	case HID_MOD_NONE:
		return "MOD_NONE"
	case HID_MOD_KEY_LEFT_CONTROL:
		return "MOD_LEFT_CONTROL"
	case HID_MOD_KEY_LEFT_SHIFT:
		return "MOD_LEFT_SHIFT"
	case HID_MOD_KEY_LEFT_ALT:
		return "MOD_LEFT_ALT"
	case HID_MOD_KEY_LEFT_GUI:
		return "MOD_LEFT_GUI"
	case HID_MOD_KEY_RIGHT_CONTROL:
		return "MOD_RIGHT_CONTROL"
	case HID_MOD_KEY_RIGHT_SHIFT:
		return "MOD_RIGHT_SHIFT"
	case HID_MOD_KEY_RIGHT_ALT:
		return "MOD_RIGHT_ALT"
	case HID_MOD_KEY_RIGHT_GUI:
		return "MOD_RIGHT_GUI"
	default:
		return fmt.Sprintf("MOD_COMBINED %#04x", byte(c))
	}
}

func (c HIDKey) String() string {
	switch {
	case c == HID_KEY_NONE:
		return "KEY_NONE"
	case c >= HID_KEY_A && c <= HID_KEY_Z:
		return "KEY_" + string(rune('A'+byte(c-HID_KEY_A)))
	case c >= HID_KEY_1 && c <= HID_KEY_9:
		return "KEY_" + string(rune('1'+byte(c-HID_KEY_1)))
	case c == HID_KEY_0:
		return "KEY_0"
	case c == HID_KEY_ENTER:
		return "KEY_ENTER"
	case c == HID_KEY_ESC:
		return "KEY_ESC"
	case c == HID_KEY_BACKSPACE:
		return "KEY_BACKSPACE"
	case c == HID_KEY_TAB:
		return "KEY_TAB"
	case c == HID_KEY_SPACE:
		return "KEY_SPACE"
	default:
		return fmt.Sprintf("KEY %#04x", byte(c))
	}
}

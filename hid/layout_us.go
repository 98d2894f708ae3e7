package hid

// KeyCombo is a single key press: modifier byte plus one key usage.
type KeyCombo struct {
	Mod HIDMod
	Key HIDKey
}

// punctuation on the US layout, unshifted and shifted
var usSymbols = map[rune]KeyCombo{
	' ':  {HID_MOD_NONE, HID_KEY_SPACE},
	'\n': {HID_MOD_NONE, HID_KEY_ENTER},
	'\t': {HID_MOD_NONE, HID_KEY_TAB},
	'-':  {HID_MOD_NONE, HID_KEY_MINUS},
	'_':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_MINUS},
	'=':  {HID_MOD_NONE, HID_KEY_EQUAL},
	'+':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_EQUAL},
	'[':  {HID_MOD_NONE, HID_KEY_LEFTBRACE},
	'{':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_LEFTBRACE},
	']':  {HID_MOD_NONE, HID_KEY_RIGHTBRACE},
	'}':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_RIGHTBRACE},
	'\\': {HID_MOD_NONE, HID_KEY_BACKSLASH},
	'|':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_BACKSLASH},
	';':  {HID_MOD_NONE, HID_KEY_SEMICOLON},
	':':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_SEMICOLON},
	'\'': {HID_MOD_NONE, HID_KEY_APOSTROPHE},
	'"':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_APOSTROPHE},
	'`':  {HID_MOD_NONE, HID_KEY_GRAVE},
	'~':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_GRAVE},
	',':  {HID_MOD_NONE, HID_KEY_COMMA},
	'<':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_COMMA},
	'.':  {HID_MOD_NONE, HID_KEY_DOT},
	'>':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_DOT},
	'/':  {HID_MOD_NONE, HID_KEY_SLASH},
	'?':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_SLASH},
	'!':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_1},
	'@':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_2},
	'#':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_3},
	'$':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_4},
	'%':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_5},
	'^':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_6},
	'&':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_7},
	'*':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_8},
	'(':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_9},
	')':  {HID_MOD_KEY_LEFT_SHIFT, HID_KEY_0},
}

// LookupUS translates a rune into the key combo producing it on a US layout.
func LookupUS(r rune) (KeyCombo, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return KeyCombo{HID_MOD_NONE, HID_KEY_A + HIDKey(r-'a')}, true
	case r >= 'A' && r <= 'Z':
		return KeyCombo{HID_MOD_KEY_LEFT_SHIFT, HID_KEY_A + HIDKey(r-'A')}, true
	case r >= '1' && r <= '9':
		return KeyCombo{HID_MOD_NONE, HID_KEY_1 + HIDKey(r-'1')}, true
	case r == '0':
		return KeyCombo{HID_MOD_NONE, HID_KEY_0}, true
	}
	kc, ok := usSymbols[r]
	return kc, ok
}

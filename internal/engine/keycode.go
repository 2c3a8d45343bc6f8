package engine

// KeysymToRune converts an X11 keysym to a rune, for hosts (cmd/daemon) that
// speak X11 keysyms rather than the engine's native KeyCode space directly.
// Exported (unlike the teacher's private keysymToRune) because cmd/daemon's
// logging wants it too.
func KeysymToRune(keysym uint32) rune {
	// ASCII printable characters (0x20 - 0x7E)
	if keysym >= 0x0020 && keysym <= 0x007e {
		return rune(keysym)
	}

	// Latin-1 supplement (0xA0 - 0xFF)
	if keysym >= 0x00a0 && keysym <= 0x00ff {
		return rune(keysym)
	}

	// Unicode keysyms (0x01000000 + unicode codepoint)
	if keysym >= 0x01000000 {
		return rune(keysym - 0x01000000)
	}

	return 0
}

// KeysymToKeyCode maps an X11 keysym + shift state to the engine's
// scheme-neutral KeyCode space: lowercase letters/digits/punctuation, with
// caps tracked by the returned bool rather than folded into the code point,
// plus the handful of control keysyms OnKey's gates switch on.
func KeysymToKeyCode(keysym uint32, shift bool) (KeyCode, bool) {
	switch keysym {
	case KeysymBackspace:
		return KeyBackspace, false
	case KeysymTab:
		return KeyTab, false
	case KeysymReturn:
		return KeyReturn, false
	case KeysymEscape:
		return KeyEscape, false
	case KeysymDelete:
		return KeyDelete, false
	}

	r := KeysymToRune(keysym)
	if r == 0 {
		return 0, false
	}
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A'), true
	}
	return r, shift
}

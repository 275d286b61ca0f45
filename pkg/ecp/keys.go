package ecp

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
)

// KeyType selects the key endpoint.
type KeyType string

// Key types
const (
	KeyPress KeyType = "keypress"
	KeyDown  KeyType = "keydown"
	KeyUp    KeyType = "keyup"
)

// ParseKeyType validates a key type name.
func ParseKeyType(s string) (KeyType, error) {
	switch KeyType(s) {
	case KeyPress, KeyDown, KeyUp:
		return KeyType(s), nil
	default:
		return "", core.ErrSequenceFormat.WithMessage(
			fmt.Sprintf("unknown key type %q (want keypress, keydown or keyup)", s))
	}
}

// LiteralPrefix marks a single-character key code.
const LiteralPrefix = "LIT_"

// buttons maps button names to ECP key codes.
var buttons = map[string]string{
	"up":           "Up",
	"down":         "Down",
	"right":        "Right",
	"left":         "Left",
	"back":         "Back",
	"select":       "Select",
	"replay":       "InstantReplay",
	"play":         "Play",
	"stop":         "Play",
	"rewind":       "Rev",
	"fast forward": "Fwd",
	"options":      "Info",
	"home":         "Home",
}

// ecpKeys are codes accepted verbatim.
var ecpKeys = map[string]bool{
	"Home": true, "Rev": true, "Fwd": true, "Play": true, "Select": true,
	"Left": true, "Right": true, "Down": true, "Up": true, "Back": true,
	"InstantReplay": true, "Info": true, "Backspace": true, "Search": true,
	"Enter": true,
}

// Buttons returns the supported button names, sorted.
func Buttons() []string {
	names := make([]string, 0, len(buttons))
	for name := range buttons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KeyCode resolves a button name, an ECP key code or a LIT_ code.
func KeyCode(key string) (string, error) {
	if code, ok := buttons[strings.ToLower(key)]; ok {
		return code, nil
	}
	if ecpKeys[key] || strings.HasPrefix(key, LiteralPrefix) && len(key) > len(LiteralPrefix) {
		return key, nil
	}
	return "", core.ErrUnknownKey.WithMessage(fmt.Sprintf("unknown button %q", key))
}

// LiteralCode returns the LIT_ code typing r.
func LiteralCode(r rune) string {
	return LiteralPrefix + url.PathEscape(string(r))
}

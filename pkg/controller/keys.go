package controller

import (
	"github.com/gdamore/tcell/v2"
)

// Letter keys arrive as tcell.KeyRune; they get their own Key values above the range
// tcell uses so that they fit in the same event maps as special keys.
const (
	KeyD tcell.Key = iota + 1000
	KeyE
	KeyF
	KeyN
	KeyQ
	KeyShiftA
	KeyShiftD
	KeyShiftU
	KeySpace
	KeySlash
	Key1
	Key2
	Key3
)

var runeKeys = map[rune]tcell.Key{
	'd': KeyD,
	'e': KeyE,
	'f': KeyF,
	'n': KeyN,
	'q': KeyQ,
	'A': KeyShiftA,
	'D': KeyShiftD,
	'U': KeyShiftU,
	' ': KeySpace,
	'/': KeySlash,
	'1': Key1,
	'2': Key2,
	'3': Key3,
}

var keyNames = map[tcell.Key]string{
	KeyD:      "d",
	KeyE:      "e",
	KeyF:      "f",
	KeyN:      "n",
	KeyQ:      "q",
	KeyShiftA: "A",
	KeyShiftD: "D",
	KeyShiftU: "U",
	KeySpace:  "space",
	KeySlash:  "/",
	Key1:      "1",
	Key2:      "2",
	Key3:      "3",
}

// AsKey maps a key event to the Key used in the event maps.
func AsKey(evt *tcell.EventKey) tcell.Key {
	if evt.Key() != tcell.KeyRune {
		return evt.Key()
	}

	if key, ok := runeKeys[evt.Rune()]; ok {
		return key
	}

	return evt.Key()
}

// KeyName returns the label shown for key in the shortcut headers.
func KeyName(key tcell.Key) string {
	if name, ok := keyNames[key]; ok {
		return name
	}

	if name, ok := tcell.KeyNames[key]; ok {
		return name
	}

	return "?"
}

package keysource

import (
	gdhotkey "golang.design/x/hotkey"

	"pushtalk/internal/hotkey"
)

// keyCodes maps parsed key tokens onto the platform hotkey library's
// portable key constants.
var keyCodes = map[hotkey.KeyCode]gdhotkey.Key{
	'a': gdhotkey.KeyA, 'b': gdhotkey.KeyB, 'c': gdhotkey.KeyC,
	'd': gdhotkey.KeyD, 'e': gdhotkey.KeyE, 'f': gdhotkey.KeyF,
	'g': gdhotkey.KeyG, 'h': gdhotkey.KeyH, 'i': gdhotkey.KeyI,
	'j': gdhotkey.KeyJ, 'k': gdhotkey.KeyK, 'l': gdhotkey.KeyL,
	'm': gdhotkey.KeyM, 'n': gdhotkey.KeyN, 'o': gdhotkey.KeyO,
	'p': gdhotkey.KeyP, 'q': gdhotkey.KeyQ, 'r': gdhotkey.KeyR,
	's': gdhotkey.KeyS, 't': gdhotkey.KeyT, 'u': gdhotkey.KeyU,
	'v': gdhotkey.KeyV, 'w': gdhotkey.KeyW, 'x': gdhotkey.KeyX,
	'y': gdhotkey.KeyY, 'z': gdhotkey.KeyZ,

	'0': gdhotkey.Key0, '1': gdhotkey.Key1, '2': gdhotkey.Key2,
	'3': gdhotkey.Key3, '4': gdhotkey.Key4, '5': gdhotkey.Key5,
	'6': gdhotkey.Key6, '7': gdhotkey.Key7, '8': gdhotkey.Key8,
	'9': gdhotkey.Key9,

	hotkey.KeyF1: gdhotkey.KeyF1, hotkey.KeyF2: gdhotkey.KeyF2,
	hotkey.KeyF3: gdhotkey.KeyF3, hotkey.KeyF4: gdhotkey.KeyF4,
	hotkey.KeyF5: gdhotkey.KeyF5, hotkey.KeyF6: gdhotkey.KeyF6,
	hotkey.KeyF7: gdhotkey.KeyF7, hotkey.KeyF8: gdhotkey.KeyF8,
	hotkey.KeyF9: gdhotkey.KeyF9, hotkey.KeyF10: gdhotkey.KeyF10,
	hotkey.KeyF11: gdhotkey.KeyF11, hotkey.KeyF12: gdhotkey.KeyF12,
	hotkey.KeyF13: gdhotkey.KeyF13, hotkey.KeyF14: gdhotkey.KeyF14,
	hotkey.KeyF15: gdhotkey.KeyF15, hotkey.KeyF16: gdhotkey.KeyF16,
	hotkey.KeyF17: gdhotkey.KeyF17, hotkey.KeyF18: gdhotkey.KeyF18,
	hotkey.KeyF19: gdhotkey.KeyF19, hotkey.KeyF20: gdhotkey.KeyF20,

	hotkey.KeySpace:  gdhotkey.KeySpace,
	hotkey.KeyReturn: gdhotkey.KeyReturn,
	hotkey.KeyTab:    gdhotkey.KeyTab,
	hotkey.KeyEscape: gdhotkey.KeyEscape,
	hotkey.KeyDelete: gdhotkey.KeyDelete,
	hotkey.KeyUp:     gdhotkey.KeyUp,
	hotkey.KeyDown:   gdhotkey.KeyDown,
	hotkey.KeyLeft:   gdhotkey.KeyLeft,
	hotkey.KeyRight:  gdhotkey.KeyRight,
}

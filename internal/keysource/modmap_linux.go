//go:build linux

package keysource

import (
	"fmt"

	gdhotkey "golang.design/x/hotkey"

	"pushtalk/internal/hotkey"
)

func platformModifier(mod hotkey.Modifier) (gdhotkey.Modifier, error) {
	switch mod {
	case hotkey.ModCommand:
		return gdhotkey.Mod4, nil // super
	case hotkey.ModOption:
		return gdhotkey.Mod1, nil // alt
	case hotkey.ModControl:
		return gdhotkey.ModCtrl, nil
	case hotkey.ModShift:
		return gdhotkey.ModShift, nil
	default:
		return 0, fmt.Errorf("%w: modifier %s", ErrUnsupportedGesture, mod)
	}
}

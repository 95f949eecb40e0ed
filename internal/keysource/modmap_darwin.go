//go:build darwin

package keysource

import (
	"fmt"

	gdhotkey "golang.design/x/hotkey"

	"pushtalk/internal/hotkey"
)

func platformModifier(mod hotkey.Modifier) (gdhotkey.Modifier, error) {
	switch mod {
	case hotkey.ModCommand:
		return gdhotkey.ModCmd, nil
	case hotkey.ModOption:
		return gdhotkey.ModOption, nil
	case hotkey.ModControl:
		return gdhotkey.ModCtrl, nil
	case hotkey.ModShift:
		return gdhotkey.ModShift, nil
	default:
		return 0, fmt.Errorf("%w: modifier %s", ErrUnsupportedGesture, mod)
	}
}

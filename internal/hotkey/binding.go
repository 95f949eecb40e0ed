package hotkey

import (
	"fmt"
	"strings"
	"time"
)

// Named literal key codes. Letters and digits map to their rune value;
// function keys and specials get codes above the rune range.
const (
	KeyF1 KeyCode = 0x1000 + iota
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
	KeySpace
	KeyReturn
	KeyTab
	KeyEscape
	KeyDelete
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

var namedKeys = map[string]KeyCode{
	"f1": KeyF1, "f2": KeyF2, "f3": KeyF3, "f4": KeyF4, "f5": KeyF5,
	"f6": KeyF6, "f7": KeyF7, "f8": KeyF8, "f9": KeyF9, "f10": KeyF10,
	"f11": KeyF11, "f12": KeyF12, "f13": KeyF13, "f14": KeyF14, "f15": KeyF15,
	"f16": KeyF16, "f17": KeyF17, "f18": KeyF18, "f19": KeyF19, "f20": KeyF20,
	"space": KeySpace, "return": KeyReturn, "enter": KeyReturn,
	"tab": KeyTab, "escape": KeyEscape, "esc": KeyEscape,
	"delete": KeyDelete, "backspace": KeyDelete,
	"up": KeyUp, "down": KeyDown, "left": KeyLeft, "right": KeyRight,
}

var modifierTokens = map[string]Modifier{
	"cmd": ModCommand, "command": ModCommand,
	"opt": ModOption, "option": ModOption, "alt": ModOption,
	"ctrl": ModControl, "control": ModControl,
	"shift": ModShift,
	"fn":    ModFn,
}

// ParseKeySpec resolves a single key token. Modifier tokens accept left/right
// qualification via "left"/"l" or "right"/"r" prefixes ("leftcmd", "ralt").
func ParseKeySpec(token string) (KeySpec, error) {
	name := strings.ToLower(strings.TrimSpace(token))
	if name == "" {
		return KeySpec{}, fmt.Errorf("empty key token")
	}

	if mod, side, ok := parseModifierToken(name); ok {
		if mod == ModFn && side != SideAny {
			return KeySpec{}, fmt.Errorf("fn key has no left/right variant")
		}
		return KeySpec{Modifier: mod, Side: side, Name: name}, nil
	}

	if code, ok := namedKeys[name]; ok {
		return KeySpec{Code: code, Name: name}, nil
	}
	if len(name) == 1 {
		r := rune(name[0])
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return KeySpec{Code: KeyCode(r), Name: name}, nil
		}
	}

	return KeySpec{}, fmt.Errorf("unknown key %q", token)
}

func parseModifierToken(name string) (Modifier, Side, bool) {
	side := SideAny
	rest := name
	switch {
	case strings.HasPrefix(name, "left"):
		side, rest = SideLeft, name[len("left"):]
	case strings.HasPrefix(name, "right"):
		side, rest = SideRight, name[len("right"):]
	case len(name) > 1 && name[0] == 'l':
		if _, ok := modifierTokens[name[1:]]; ok {
			side, rest = SideLeft, name[1:]
		}
	case len(name) > 1 && name[0] == 'r':
		if _, ok := modifierTokens[name[1:]]; ok {
			side, rest = SideRight, name[1:]
		}
	}
	mod, ok := modifierTokens[rest]
	if !ok {
		return ModNone, SideAny, false
	}
	return mod, side, true
}

// Gesture is a validated activation gesture. The zero value never matches,
// which is how an invalid binding degrades: the matcher stays inert instead
// of panicking, and the parse error is reported once at load time.
type Gesture struct {
	valid     bool
	doubleTap bool
	key       KeySpec
	interval  time.Duration
	mods      []Modifier
}

// Disabled returns a gesture that never matches.
func Disabled() Gesture { return Gesture{} }

// Valid reports whether the gesture can ever match.
func (g Gesture) Valid() bool { return g.valid }

// DoubleTap reports whether the gesture is a double-tap rather than a chord.
func (g Gesture) DoubleTap() bool { return g.doubleTap }

// Key returns the tracked key.
func (g Gesture) Key() KeySpec { return g.key }

// Interval returns the double-tap window.
func (g Gesture) Interval() time.Duration { return g.interval }

// Modifiers returns the required chord modifiers.
func (g Gesture) Modifiers() []Modifier { return g.mods }

func (g Gesture) String() string {
	if !g.valid {
		return "disabled"
	}
	if g.doubleTap {
		return fmt.Sprintf("double-tap %s within %s", g.key.Name, g.interval)
	}
	parts := make([]string, 0, len(g.mods)+1)
	for _, m := range g.mods {
		parts = append(parts, m.String())
	}
	parts = append(parts, g.key.Name)
	return strings.Join(parts, "-")
}

// DoubleTapGesture builds a double-tap gesture on the given key token.
func DoubleTapGesture(key string, interval time.Duration) (Gesture, error) {
	spec, err := ParseKeySpec(key)
	if err != nil {
		return Gesture{}, fmt.Errorf("double-tap key: %w", err)
	}
	if interval <= 0 {
		return Gesture{}, fmt.Errorf("double-tap interval must be positive, got %s", interval)
	}
	return Gesture{valid: true, doubleTap: true, key: spec, interval: interval}, nil
}

// ShortcutGesture parses a dash-separated chord binding such as
// "cmd-shift-d". The last token is the key, every preceding token a
// modifier; any unknown token invalidates the whole binding.
func ShortcutGesture(binding string) (Gesture, error) {
	tokens := strings.Split(strings.TrimSpace(binding), "-")
	if len(tokens) == 0 || tokens[0] == "" {
		return Gesture{}, fmt.Errorf("empty shortcut binding")
	}

	keyToken := tokens[len(tokens)-1]
	spec, err := ParseKeySpec(keyToken)
	if err != nil {
		return Gesture{}, fmt.Errorf("shortcut %q: %w", binding, err)
	}
	if spec.IsModifier() {
		return Gesture{}, fmt.Errorf("shortcut %q: last token must be a literal key", binding)
	}

	mods := make([]Modifier, 0, len(tokens)-1)
	for _, token := range tokens[:len(tokens)-1] {
		mod, _, ok := parseModifierToken(strings.ToLower(strings.TrimSpace(token)))
		if !ok {
			return Gesture{}, fmt.Errorf("shortcut %q: unknown modifier %q", binding, token)
		}
		mods = append(mods, mod)
	}

	return Gesture{valid: true, key: spec, mods: mods}, nil
}

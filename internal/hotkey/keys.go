package hotkey

import "time"

// Modifier identifies a modifier key independent of its physical side.
type Modifier uint8

const (
	ModNone Modifier = iota
	ModCommand
	ModOption
	ModControl
	ModShift
	ModFn
)

func (m Modifier) String() string {
	switch m {
	case ModCommand:
		return "cmd"
	case ModOption:
		return "option"
	case ModControl:
		return "ctrl"
	case ModShift:
		return "shift"
	case ModFn:
		return "fn"
	default:
		return "none"
	}
}

// Side qualifies a modifier to one physical side of the keyboard.
type Side uint8

const (
	SideAny Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "any"
	}
}

// KeyCode is a platform-neutral key identity. Event sources resolve their
// native codes through the same token table used by binding parsing.
type KeyCode uint16

// ModifierSet is a bitmask of currently held modifiers with per-side bits.
// The fn key carries no side information on any supported platform.
type ModifierSet uint16

const (
	bitCommandLeft ModifierSet = 1 << iota
	bitCommandRight
	bitOptionLeft
	bitOptionRight
	bitControlLeft
	bitControlRight
	bitShiftLeft
	bitShiftRight
	bitFn
)

func sideBits(mod Modifier) (left, right ModifierSet) {
	switch mod {
	case ModCommand:
		return bitCommandLeft, bitCommandRight
	case ModOption:
		return bitOptionLeft, bitOptionRight
	case ModControl:
		return bitControlLeft, bitControlRight
	case ModShift:
		return bitShiftLeft, bitShiftRight
	case ModFn:
		return bitFn, bitFn
	default:
		return 0, 0
	}
}

// Has reports whether the set contains the modifier. With SideAny either
// physical side satisfies the check; with an explicit side only that side's
// bit counts, so a left-qualified binding never fires on the right key.
func (s ModifierSet) Has(mod Modifier, side Side) bool {
	left, right := sideBits(mod)
	switch side {
	case SideLeft:
		return s&left != 0
	case SideRight:
		return s&right != 0
	default:
		return s&(left|right) != 0
	}
}

// With returns the set with the modifier pressed on the given side.
// SideAny is recorded as the left bit.
func (s ModifierSet) With(mod Modifier, side Side) ModifierSet {
	left, right := sideBits(mod)
	if side == SideRight {
		return s | right
	}
	return s | left
}

// Without returns the set with the modifier released on the given side.
// SideAny clears both sides.
func (s ModifierSet) Without(mod Modifier, side Side) ModifierSet {
	left, right := sideBits(mod)
	switch side {
	case SideLeft:
		return s &^ left
	case SideRight:
		return s &^ right
	default:
		return s &^ (left | right)
	}
}

// KeySpec identifies the key a gesture tracks: either a named modifier,
// optionally side-qualified, or a literal key.
type KeySpec struct {
	Modifier Modifier // ModNone when the target is a literal key
	Side     Side
	Code     KeyCode // meaningful only for literal keys
	Name     string  // canonical token, for logging
}

// IsModifier reports whether the spec names a modifier key.
func (k KeySpec) IsModifier() bool { return k.Modifier != ModNone }

// Edge is the transition type of a key event.
type Edge uint8

const (
	EdgeDown Edge = iota + 1
	EdgeUp
	// EdgeFlagsChanged is emitted by taps that report modifier state changes
	// without a discrete down/up for the modifier itself.
	EdgeFlagsChanged
)

// KeyTransition is one low-level key or modifier event as delivered by an
// event source. Held reflects the modifier state after the event.
type KeyTransition struct {
	Code     KeyCode
	Modifier Modifier // ModNone for literal key events
	Side     Side
	Edge     Edge
	Held     ModifierSet
	When     time.Time
}

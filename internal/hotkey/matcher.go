package hotkey

import "time"

// Match is the outcome of feeding one event to the matcher. Consumed is set
// only for a successful chord match, where the event must be swallowed so
// other applications never see the shortcut.
type Match struct {
	Activated bool
	Consumed  bool
}

// Matcher decides when the configured activation gesture occurred. It is a
// pure state machine over KeyTransition events: no I/O, no clock of its own.
// It is not safe for concurrent use; feed it from a single goroutine.
type Matcher struct {
	gesture Gesture

	keyDown     bool
	lastRelease time.Time
	primed      bool
}

// NewMatcher builds a matcher for the gesture. A disabled gesture yields a
// matcher that never activates.
func NewMatcher(g Gesture) *Matcher {
	return &Matcher{gesture: g}
}

// Gesture returns the gesture this matcher tracks.
func (m *Matcher) Gesture() Gesture { return m.gesture }

// Reset clears any in-progress double-tap.
func (m *Matcher) Reset() {
	m.keyDown = false
	m.primed = false
	m.lastRelease = time.Time{}
}

// OnEvent consumes one key transition and reports whether the gesture
// completed.
func (m *Matcher) OnEvent(ev KeyTransition) Match {
	if !m.gesture.Valid() {
		return Match{}
	}
	if m.gesture.DoubleTap() {
		if m.gesture.Key().IsModifier() {
			return m.onModifierEvent(ev)
		}
		return m.onLiteralEvent(ev)
	}
	return m.onChordEvent(ev)
}

// onModifierEvent tracks the pressed state of the target modifier from the
// held-set carried on every event, so it works with taps that only report
// flag changes as well as ones that emit discrete modifier down/up edges.
func (m *Matcher) onModifierEvent(ev KeyTransition) Match {
	key := m.gesture.Key()
	pressed := ev.Held.Has(key.Modifier, key.Side)

	switch {
	case pressed && !m.keyDown:
		m.keyDown = true
	case !pressed && m.keyDown:
		m.keyDown = false
		return m.onRelease(ev.When)
	}
	return Match{}
}

func (m *Matcher) onLiteralEvent(ev KeyTransition) Match {
	if ev.Modifier != ModNone || ev.Code != m.gesture.Key().Code {
		return Match{}
	}
	switch ev.Edge {
	case EdgeDown:
		m.keyDown = true
	case EdgeUp:
		if !m.keyDown {
			return Match{}
		}
		m.keyDown = false
		return m.onRelease(ev.When)
	}
	return Match{}
}

// onRelease applies the double-tap timing rule. A release pairing with the
// stored one activates and consumes the stored timestamp, so a third tap
// starts a fresh window rather than chaining. A release outside the window
// becomes the new baseline.
func (m *Matcher) onRelease(now time.Time) Match {
	if m.primed && now.Sub(m.lastRelease) <= m.gesture.Interval() {
		m.primed = false
		m.lastRelease = time.Time{}
		return Match{Activated: true}
	}
	m.primed = true
	m.lastRelease = now
	return Match{}
}

// onChordEvent matches the shortcut on key-down. Required modifiers are an
// "at least" set: extra held modifiers do not block the match.
func (m *Matcher) onChordEvent(ev KeyTransition) Match {
	if ev.Edge != EdgeDown || ev.Modifier != ModNone || ev.Code != m.gesture.Key().Code {
		return Match{}
	}
	for _, mod := range m.gesture.Modifiers() {
		if !ev.Held.Has(mod, SideAny) {
			return Match{}
		}
	}
	return Match{Activated: true, Consumed: true}
}

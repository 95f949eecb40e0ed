// Package keysource adapts OS-global hotkey registrations into the key
// transition stream the matcher consumes. The matcher itself never touches
// the OS; this is the only place platform key handling lives.
package keysource

import (
	"errors"
	"fmt"
	"time"

	gdhotkey "golang.design/x/hotkey"
	"go.uber.org/zap"

	"pushtalk/internal/hotkey"
)

// ErrUnsupportedGesture is returned for gestures this backend cannot
// observe, such as double-tapping a bare modifier, which needs a raw event
// tap rather than a hotkey registration.
var ErrUnsupportedGesture = errors.New("gesture not supported by the hotkey backend")

// Source registers the gesture's key with the OS and translates its
// down/up events into KeyTransitions. Registered chords are consumed by the
// OS, so other applications never see them.
type Source struct {
	hk   *gdhotkey.Hotkey
	held hotkey.ModifierSet
	out  chan hotkey.KeyTransition
	stop chan struct{}
	done chan struct{}
	log  *zap.SugaredLogger
}

// New builds and registers a source for the gesture.
func New(g hotkey.Gesture, log *zap.SugaredLogger) (*Source, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: gesture is disabled", ErrUnsupportedGesture)
	}
	if g.DoubleTap() && g.Key().IsModifier() {
		return nil, fmt.Errorf("%w: double-tap on modifier %q needs a platform event tap", ErrUnsupportedGesture, g.Key().Name)
	}

	key, ok := keyCodes[g.Key().Code]
	if !ok {
		return nil, fmt.Errorf("%w: key %q has no platform mapping", ErrUnsupportedGesture, g.Key().Name)
	}

	var mods []gdhotkey.Modifier
	var held hotkey.ModifierSet
	for _, mod := range g.Modifiers() {
		platform, err := platformModifier(mod)
		if err != nil {
			return nil, err
		}
		mods = append(mods, platform)
		held = held.With(mod, hotkey.SideAny)
	}

	hk := gdhotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("failed to register hotkey %s: %w", g.String(), err)
	}
	log.Infow("hotkey registered", "gesture", g.String())

	s := &Source{
		hk:   hk,
		held: held,
		out:  make(chan hotkey.KeyTransition, 16),
		stop: make(chan struct{}),
		done: make(chan struct{}),
		log:  log,
	}
	go s.run(g.Key().Code)
	return s, nil
}

func (s *Source) Events() <-chan hotkey.KeyTransition { return s.out }

func (s *Source) run(code hotkey.KeyCode) {
	defer close(s.done)
	defer close(s.out)

	for {
		select {
		case <-s.stop:
			return
		case <-s.hk.Keydown():
			s.emit(hotkey.KeyTransition{
				Code: code,
				Edge: hotkey.EdgeDown,
				Held: s.held,
				When: time.Now(),
			})
		case <-s.hk.Keyup():
			s.emit(hotkey.KeyTransition{
				Code: code,
				Edge: hotkey.EdgeUp,
				Held: s.held,
				When: time.Now(),
			})
		}
	}
}

func (s *Source) emit(ev hotkey.KeyTransition) {
	select {
	case s.out <- ev:
	default:
		s.log.Warnw("key event dropped, consumer too slow")
	}
}

// Close unregisters the hotkey and closes the event stream.
func (s *Source) Close() error {
	close(s.stop)
	err := s.hk.Unregister()
	<-s.done
	return err
}

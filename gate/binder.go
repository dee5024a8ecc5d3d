package gate

import (
	"context"
	"sync"

	"github.com/ivq-cli/ivq/locator"
	"github.com/ivq-cli/ivq/log"
	"github.com/ivq-cli/ivq/media"
	"github.com/ivq-cli/ivq/util"
)

// Binder attaches a Session to media elements as they come and go. At most
// one bind runs at a time; requests arriving while one is in flight are
// dropped, not queued — the watchdog will offer the element again.
type Binder struct {
	session *Session

	mu       sync.Mutex
	inFlight bool
	el       media.Element
	key      string
}

// NewBinder creates a binder for the session.
func NewBinder(session *Session) *Binder {
	return &Binder{session: session}
}

// Current returns the element and session key of the active binding.
func (b *Binder) Current() (media.Element, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.el, b.key
}

// ForceReload re-registers the current binding from scratch, e.g. after the
// backend URL changed under us. A no-op when nothing is bound.
func (b *Binder) ForceReload() {
	el, _ := b.Current()
	if el == nil {
		return
	}
	if err := b.Bind(el, true); err != nil {
		log.Errorf("forced reload failed: %v", err)
	}
}

// Bind registers the element with the session and wires its playback
// notifications into the gating handlers. Binding the already-bound element
// under an unchanged session key is a no-op and issues no registration
// unless force is set.
func (b *Binder) Bind(el media.Element, force bool) error {
	b.mu.Lock()
	if b.inFlight {
		b.mu.Unlock()
		log.Debugf("bind already in flight, dropping request")
		return nil
	}
	b.inFlight = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.inFlight = false
		b.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), locator.WaitTimeout())
	defer cancel()
	if err := locator.EnsureMetadata(ctx, el); err != nil {
		log.Warnf("element never reported metadata: %v", err)
		return err
	}

	sessionKey := SessionKey(el)

	b.mu.Lock()
	same := !force && b.el == el && b.key == sessionKey && b.key != ""
	prev := b.el
	b.mu.Unlock()

	if same {
		return nil
	}

	if prev != nil && prev != el {
		prev.StopObserve()
	}

	if err := b.session.Register(el, sessionKey); err != nil {
		// Binding state stays unset so the watchdog keeps retrying.
		return err
	}

	err := el.Observe(func(property string, data interface{}) {
		switch property {
		case "time-pos":
			if t, ok := asSeconds(data); ok {
				b.session.HandleTimeUpdate(t)
			}
		case "seeking":
			if seeking, ok := data.(bool); ok && seeking {
				if t, err := el.CurrentTime(); err == nil {
					b.session.HandleSeeking(t)
				}
			}
		}
	})
	if err != nil {
		// A registered session without notifications would play ungated.
		// Pause the element and leave the binding unset so the next sweep
		// attempts the attach again.
		util.Ignore(el.Pause)
		return err
	}

	b.mu.Lock()
	b.el = el
	b.key = sessionKey
	b.mu.Unlock()

	return nil
}

// asSeconds coerces a property payload into a position. Decoded JSON numbers
// arrive as float64, synthetic sources may emit ints.
func asSeconds(data interface{}) (float64, bool) {
	switch v := data.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

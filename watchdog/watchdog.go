// Package watchdog keeps the gating engine attached to the page's best media
// element as players appear, disappear or swap their source out from under us.
package watchdog

import (
	"sync"
	"time"

	"github.com/ivq-cli/ivq/gate"
	"github.com/ivq-cli/ivq/key"
	"github.com/ivq-cli/ivq/locator"
	"github.com/ivq-cli/ivq/log"
	"github.com/ivq-cli/ivq/media"
	"github.com/spf13/viper"
)

// Watchdog periodically compares the page's best element against the current
// binding and requests a rebind whenever the element or its session key
// changed. Sweeps never bind directly — they hand the candidate to Rebind,
// which is expected to tolerate concurrent and duplicate calls.
type Watchdog struct {
	// Page is scanned for candidate elements on every sweep.
	Page media.Page

	// Current reports the active binding.
	Current func() (media.Element, string)

	// Rebind offers a candidate element to the binder.
	Rebind func(media.Element)

	mu   sync.Mutex
	stop chan struct{}
}

// Interval returns the configured sweep cadence.
func Interval() time.Duration {
	ms := viper.GetInt(key.WatchdogInterval)
	if ms <= 0 {
		ms = 1500
	}
	return time.Duration(ms) * time.Millisecond
}

// Start launches the sweep loop. A second Start without Stop is a no-op.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stop != nil {
		return
	}
	w.stop = make(chan struct{})

	go w.loop(w.stop, Interval())
	log.Debugf("watchdog started")
}

// Stop terminates the sweep loop.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stop == nil {
		return
	}
	close(w.stop)
	w.stop = nil
}

func (w *Watchdog) loop(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep runs one detection pass.
func (w *Watchdog) Sweep() {
	candidate, ok := locator.FindBest(w.Page).Get()
	if !ok {
		return
	}

	current, currentKey := w.Current()
	if candidate == current && gate.SessionKey(candidate) == currentKey {
		return
	}

	log.Infof("media element changed, rebinding")
	w.Rebind(candidate)
}

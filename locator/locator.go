// Package locator selects the most relevant media element on a page and waits for it to become usable.
//
// Pages can hold several elements at once (thumbnails, secondary players,
// idle instances); the locator picks the one with the largest rendered area
// and offers suspend-until-found and suspend-until-metadata-ready operations
// mirroring how the gating engine consumes a host page.
package locator

import (
	"context"
	"math"
	"time"

	"github.com/ivq-cli/ivq/key"
	"github.com/ivq-cli/ivq/log"
	"github.com/ivq-cli/ivq/media"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// scanInterval is the cadence of appearance and metadata polling. It stands
// in for DOM mutation callbacks: the page is re-queried instead of observed.
const scanInterval = 250 * time.Millisecond

// FindBest returns the largest-by-rendered-area element on the page.
// Zero-area elements are discarded; when every candidate is zero-area the
// first element found wins, and an empty page yields none.
func FindBest(page media.Page) mo.Option[media.Element] {
	videos := page.Videos()
	if len(videos) == 0 {
		return mo.None[media.Element]()
	}

	var (
		best     media.Element
		bestArea float64
	)
	for _, el := range videos {
		w, h := el.Rect()
		if area := w * h; area > bestArea {
			best, bestArea = el, area
		}
	}

	if best == nil {
		return mo.Some(videos[0])
	}
	return mo.Some(best)
}

// WaitTimeout returns the configured discovery timeout.
func WaitTimeout() time.Duration {
	seconds := viper.GetInt(key.LocatorWaitTimeout)
	if seconds <= 0 {
		seconds = 20
	}
	return time.Duration(seconds) * time.Second
}

// WaitFor resolves as soon as a candidate element exists, polling the page
// until one appears. It resolves to none when the timeout (or the context)
// expires first.
func WaitFor(ctx context.Context, page media.Page, timeout time.Duration) mo.Option[media.Element] {
	if el := FindBest(page); el.IsPresent() {
		return el
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return mo.None[media.Element]()
		case <-deadline.C:
			log.Warnf("no media element appeared within %s", timeout)
			return mo.None[media.Element]()
		case <-ticker.C:
			if el := FindBest(page); el.IsPresent() {
				return el
			}
		}
	}
}

// EnsureMetadata suspends until the element reports a finite positive
// duration, resolving immediately when it already does.
func EnsureMetadata(ctx context.Context, el media.Element) error {
	if ready(el) {
		return nil
	}

	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ready(el) {
				return nil
			}
		}
	}
}

func ready(el media.Element) bool {
	d, err := el.Duration()
	return err == nil && d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}

package locator

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ivq-cli/ivq/media"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFindBest(t *testing.T) {
	Convey("FindBest", t, func() {
		Convey("Empty page yields none", func() {
			So(FindBest(&media.StaticPage{}).IsAbsent(), ShouldBeTrue)
		})

		Convey("Largest rendered area wins", func() {
			small := media.NewMemory("small", 100).SetRect(320, 180)
			big := media.NewMemory("big", 100).SetRect(1920, 1080)
			page := &media.StaticPage{Elements: []media.Element{small, big}}

			el, ok := FindBest(page).Get()
			So(ok, ShouldBeTrue)
			So(el.Src(), ShouldEqual, "big")
		})

		Convey("Zero-area elements are discarded", func() {
			hidden := media.NewMemory("hidden", 100).SetRect(0, 0)
			visible := media.NewMemory("visible", 100).SetRect(640, 360)
			page := &media.StaticPage{Elements: []media.Element{hidden, visible}}

			el, _ := FindBest(page).Get()
			So(el.Src(), ShouldEqual, "visible")
		})

		Convey("All zero-area falls back to the first element", func() {
			first := media.NewMemory("first", 100).SetRect(0, 0)
			second := media.NewMemory("second", 100).SetRect(0, 0)
			page := &media.StaticPage{Elements: []media.Element{first, second}}

			el, _ := FindBest(page).Get()
			So(el.Src(), ShouldEqual, "first")
		})
	})
}

type mutablePage struct {
	mu       sync.Mutex
	elements []media.Element
}

func (p *mutablePage) Videos() []media.Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elements
}

func (p *mutablePage) add(el media.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements = append(p.elements, el)
}

func TestWaitFor(t *testing.T) {
	Convey("WaitFor", t, func() {
		Convey("Resolves immediately when an element exists", func() {
			page := &media.StaticPage{Elements: []media.Element{media.NewMemory("a", 100)}}

			started := time.Now()
			el := WaitFor(context.Background(), page, time.Second)
			So(el.IsPresent(), ShouldBeTrue)
			So(time.Since(started), ShouldBeLessThan, scanInterval)
		})

		Convey("Resolves once an element appears", func() {
			page := &mutablePage{}
			go func() {
				time.Sleep(scanInterval + 50*time.Millisecond)
				page.add(media.NewMemory("late", 100))
			}()

			el := WaitFor(context.Background(), page, 5*time.Second)
			So(el.IsPresent(), ShouldBeTrue)
		})

		Convey("Times out on a barren page", func() {
			el := WaitFor(context.Background(), &media.StaticPage{}, 2*scanInterval)
			So(el.IsAbsent(), ShouldBeTrue)
		})

		Convey("Honors context cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			el := WaitFor(ctx, &media.StaticPage{}, time.Minute)
			So(el.IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestEnsureMetadata(t *testing.T) {
	Convey("EnsureMetadata", t, func() {
		Convey("Returns immediately for a ready element", func() {
			So(EnsureMetadata(context.Background(), media.NewMemory("a", 100)), ShouldBeNil)
		})

		Convey("Gives up when the context expires", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*scanInterval)
			defer cancel()

			err := EnsureMetadata(ctx, media.NewMemory("a", 0))
			So(err, ShouldNotBeNil)
		})

		Convey("Treats a non-finite duration as not ready", func() {
			for _, duration := range []float64{math.Inf(1), math.NaN()} {
				ctx, cancel := context.WithTimeout(context.Background(), 2*scanInterval)
				So(EnsureMetadata(ctx, media.NewMemory("a", duration)), ShouldNotBeNil)
				cancel()
			}
		})
	})
}

package gate

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ivq-cli/ivq/api"
	"github.com/ivq-cli/ivq/key"
	"github.com/ivq-cli/ivq/media"
	"github.com/ivq-cli/ivq/segment"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	viper.Set(key.GateRewatchDelay, 0)
	viper.Set(key.GateSaveProgress, false)
}

// backend is a minimal in-process quiz backend with three equal segments of
// 100 seconds each, the last two locked.
type backend struct {
	server  *httptest.Server
	uploads int64
	failing atomic.Bool
	slow    atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newBackend() *backend {
	b := &backend{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/video/upload", func(w http.ResponseWriter, r *http.Request) {
		if b.failing.Load() {
			http.Error(w, `{"detail": "backend down"}`, http.StatusInternalServerError)
			return
		}
		if b.slow.Load() {
			b.entered <- struct{}{}
			<-b.release
		}
		atomic.AddInt64(&b.uploads, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"video_id": "vid-1", "segments_count": 3})
	})

	mux.HandleFunc("/video/vid-1/segments", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "seg-a", "index": 0, "start_time": "00:00", "end_time": "01:40", "topic_title": "a", "is_locked": false},
			{"id": "seg-b", "index": 1, "start_time": "01:40", "end_time": "03:20", "topic_title": "b", "is_locked": true},
			{"id": "seg-c", "index": 2, "start_time": "03:20", "end_time": "05:00", "topic_title": "c", "is_locked": true},
		})
	})

	b.server = httptest.NewServer(mux)
	return b
}

func (b *backend) client() *api.Client {
	return api.NewClient(b.server.URL, "client-test")
}

// recordingRunner captures quiz invocations instead of running a flow.
type recordingRunner struct {
	runs chan *segment.Segment
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{runs: make(chan *segment.Segment, 8)}
}

func (r *recordingRunner) Run(_ *Session, seg *segment.Segment) {
	r.runs <- seg
}

func (r *recordingRunner) next(timeout time.Duration) *segment.Segment {
	select {
	case seg := <-r.runs:
		return seg
	case <-time.After(timeout):
		return nil
	}
}

// failingObserve is an element whose observer attach never succeeds.
type failingObserve struct {
	*media.Memory
}

func (f *failingObserve) Observe(media.EventCallback) error {
	return errors.New("observer refused")
}

// rewindRacer hands a time-pos notification at the pre-seek position to the
// session just before each seek lands, mimicking an update already in flight
// while the player rewinds.
type rewindRacer struct {
	*media.Memory
	race func(position float64)
}

func (r *rewindRacer) Seek(seconds float64) error {
	if r.race != nil {
		if position, err := r.Memory.CurrentTime(); err == nil {
			r.race(position)
		}
	}
	return r.Memory.Seek(seconds)
}

func readySession(b *backend, el *media.Memory) (*Session, *recordingRunner) {
	runner := newRecordingRunner()
	session := NewSession(b.client(), runner)
	So(session.Register(el, SessionKey(el)), ShouldBeNil)
	return session, runner
}

func TestRegister(t *testing.T) {
	Convey("Given a backend with the second segment locked", t, func() {
		b := newBackend()
		defer b.server.Close()
		el := media.NewMemory("mem://lecture", 300)

		Convey("Registration reaches the ready state", func() {
			session, _ := readySession(b, el)

			So(session.State(), ShouldEqual, StateReady)
			So(session.VideoID(), ShouldEqual, "vid-1")
			So(len(session.Segments()), ShouldEqual, 3)

			Convey("And the frontier sits just before the first locked segment", func() {
				So(session.Frontier(), ShouldEqual, 0)
			})
		})

		Convey("A failing backend fails the session closed", func() {
			b.failing.Store(true)
			session := NewSession(b.client(), newRecordingRunner())
			el.Resume()

			err := session.Register(el, SessionKey(el))

			So(err, ShouldNotBeNil)
			So(session.State(), ShouldEqual, StateErrored)
			So(el.Paused(), ShouldBeTrue)
		})
	})
}

func TestInitialFrontier(t *testing.T) {
	Convey("Given lock flag layouts", t, func() {
		seg := func(index int, locked bool) *segment.Segment {
			return &segment.Segment{ID: fmt.Sprint(index), Index: index, Locked: locked}
		}

		Convey("First locked segment bounds the frontier", func() {
			So(initialFrontier([]*segment.Segment{seg(0, false), seg(1, true)}), ShouldEqual, 0)
			So(initialFrontier([]*segment.Segment{seg(0, false), seg(1, false), seg(2, true)}), ShouldEqual, 1)
		})

		Convey("A locked first segment still leaves it watchable", func() {
			So(initialFrontier([]*segment.Segment{seg(0, true), seg(1, true)}), ShouldEqual, 0)
		})

		Convey("Nothing locked opens the whole video", func() {
			So(initialFrontier([]*segment.Segment{seg(0, false), seg(1, false)}), ShouldEqual, 1)
		})

		Convey("No segments, no frontier", func() {
			So(initialFrontier(nil), ShouldEqual, -1)
		})
	})
}

func TestFallbackDuration(t *testing.T) {
	Convey("Given an element without usable metadata", t, func() {
		var reported float64
		mux := http.NewServeMux()
		mux.HandleFunc("/video/upload", func(w http.ResponseWriter, r *http.Request) {
			var in struct {
				DurationSeconds float64 `json:"duration_seconds"`
			}
			_ = json.NewDecoder(r.Body).Decode(&in)
			reported = in.DurationSeconds
			_ = json.NewEncoder(w).Encode(map[string]any{"video_id": "vid-1"})
		})
		mux.HandleFunc("/video/vid-1/segments", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode([]map[string]any{})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		el := media.NewMemory("mem://broken", 0)
		session := NewSession(api.NewClient(server.URL, "client-test"), newRecordingRunner())

		Convey("Registration reports the fallback duration", func() {
			So(session.Register(el, SessionKey(el)), ShouldBeNil)
			So(reported, ShouldEqual, 600)

			Convey("And an empty segment sequence leaves the engine inert", func() {
				So(session.Frontier(), ShouldEqual, -1)
				session.HandleTimeUpdate(42)
				So(session.State(), ShouldEqual, StateReady)
			})
		})
	})
}

func TestHandleTimeUpdate(t *testing.T) {
	Convey("Given a ready session with frontier 0", t, func() {
		b := newBackend()
		defer b.server.Close()
		el := media.NewMemory("mem://lecture", 300)
		session, runner := readySession(b, el)

		Convey("Positions inside the frontier segment pass through", func() {
			el.Advance(50)
			session.HandleTimeUpdate(50)

			position, _ := el.CurrentTime()
			So(position, ShouldEqual, 50)
			So(runner.next(50*time.Millisecond), ShouldBeNil)
		})

		Convey("Positions past the frontier are corrected back", func() {
			el.Advance(150)
			session.HandleTimeUpdate(150)

			position, _ := el.CurrentTime()
			So(position, ShouldEqual, 99.75)
		})

		Convey("Correction never lands before the frontier segment's start", func() {
			target, ok := session.correctionTarget()
			So(ok, ShouldBeTrue)
			So(target, ShouldBeGreaterThanOrEqualTo, 0)
		})

		Convey("Reaching the frontier segment's end fires its quiz", func() {
			el.Advance(99.9)
			session.HandleTimeUpdate(99.9)

			seg := runner.next(time.Second)
			So(seg, ShouldNotBeNil)
			So(seg.ID, ShouldEqual, "seg-a")
			So(el.Paused(), ShouldBeTrue)
			So(session.State(), ShouldEqual, StateQuizLocked)

			Convey("And a second notification does not start a second quiz", func() {
				session.HandleTimeUpdate(99.95)
				So(runner.next(50*time.Millisecond), ShouldBeNil)
			})
		})

		Convey("Just before the trigger window nothing fires", func() {
			session.HandleTimeUpdate(99.7)
			So(runner.next(50*time.Millisecond), ShouldBeNil)
		})

		Convey("A passed segment never re-triggers", func() {
			seg, _ := segment.ByIndex(session.Segments(), 0).Get()
			session.ApplyVerdict(session.Generation(), seg, &api.Verdict{Correct: true})

			session.HandleTimeUpdate(99.9)
			So(runner.next(50*time.Millisecond), ShouldBeNil)
		})
	})
}

func TestHandleSeeking(t *testing.T) {
	Convey("Given a ready session with frontier 0", t, func() {
		b := newBackend()
		defer b.server.Close()
		el := media.NewMemory("mem://lecture", 300)
		session, _ := readySession(b, el)

		Convey("Seeks past the frontier's end snap back in front of the gate", func() {
			el.EmitSeeking(250)
			session.HandleSeeking(250)

			position, _ := el.CurrentTime()
			So(position, ShouldEqual, 99.75)
		})

		Convey("Seeks within the allowed range stay put", func() {
			el.EmitSeeking(80)
			session.HandleSeeking(80)

			position, _ := el.CurrentTime()
			So(position, ShouldEqual, 80)
		})

		Convey("The containment epsilon tolerates boundary jitter", func() {
			el.EmitSeeking(100.04)
			session.HandleSeeking(100.04)

			position, _ := el.CurrentTime()
			So(position, ShouldEqual, 100.04)
		})
	})
}

func TestApplyVerdict(t *testing.T) {
	Convey("Given a quiz-locked session", t, func() {
		b := newBackend()
		defer b.server.Close()
		el := media.NewMemory("mem://lecture", 300)
		session, runner := readySession(b, el)

		el.Advance(99.9)
		session.HandleTimeUpdate(99.9)
		seg := runner.next(time.Second)
		So(seg, ShouldNotBeNil)

		Convey("A correct verdict advances the frontier and resumes", func() {
			session.ApplyVerdict(session.Generation(), seg, &api.Verdict{Correct: true})

			So(session.Passed(seg.ID), ShouldBeTrue)
			So(session.Frontier(), ShouldEqual, 1)
			So(session.State(), ShouldEqual, StateReady)
			So(el.Paused(), ShouldBeFalse)
		})

		Convey("The frontier never advances past the last segment", func() {
			for index := 0; index < 3; index++ {
				s, _ := segment.ByIndex(session.Segments(), index).Get()
				session.ApplyVerdict(session.Generation(), s, &api.Verdict{Correct: true})
			}

			So(session.Frontier(), ShouldEqual, 2)
		})

		Convey("The frontier never regresses", func() {
			session.ApplyVerdict(session.Generation(), seg, &api.Verdict{Correct: true})
			So(session.Frontier(), ShouldEqual, 1)

			// Passing an earlier segment again leaves the frontier alone.
			session.AcquireQuiz(seg)
			session.ApplyVerdict(session.Generation(), seg, &api.Verdict{Correct: true})
			So(session.Frontier(), ShouldEqual, 1)
		})

		Convey("An incorrect verdict rewinds to the segment start and resumes", func() {
			session.ApplyVerdict(session.Generation(), seg, &api.Verdict{Correct: false})

			position, _ := el.CurrentTime()
			So(position, ShouldEqual, seg.StartSeconds)
			So(session.Passed(seg.ID), ShouldBeFalse)
			So(session.Frontier(), ShouldEqual, 0)
			So(session.State(), ShouldEqual, StateReady)
			So(el.Paused(), ShouldBeFalse)
		})

		Convey("A verdict from a superseded registration is discarded", func() {
			stale := session.Generation()
			So(session.Register(el, SessionKey(el)), ShouldBeNil)

			session.ApplyVerdict(stale, seg, &api.Verdict{Correct: true})

			So(session.Passed(seg.ID), ShouldBeFalse)
			So(session.Frontier(), ShouldEqual, 0)
		})
	})

	Convey("Given a quiz locked on an element whose rewinds race", t, func() {
		b := newBackend()
		defer b.server.Close()
		runner := newRecordingRunner()
		session := NewSession(b.client(), runner)
		el := &rewindRacer{Memory: media.NewMemory("mem://lecture", 300)}
		el.race = func(position float64) { session.HandleTimeUpdate(position) }
		So(session.Register(el, SessionKey(el)), ShouldBeNil)

		el.Advance(99.9)
		session.HandleTimeUpdate(99.9)
		seg := runner.next(time.Second)
		So(seg, ShouldNotBeNil)

		Convey("A notification landing mid-rewind cannot start a second quiz", func() {
			session.ApplyVerdict(session.Generation(), seg, &api.Verdict{Correct: false})

			So(runner.next(50*time.Millisecond), ShouldBeNil)
			position, _ := el.CurrentTime()
			So(position, ShouldEqual, seg.StartSeconds)
			So(session.State(), ShouldEqual, StateReady)
			So(el.Paused(), ShouldBeFalse)
		})
	})
}

func TestQuizSlot(t *testing.T) {
	Convey("Given a ready session", t, func() {
		b := newBackend()
		defer b.server.Close()
		el := media.NewMemory("mem://lecture", 300)
		session, _ := readySession(b, el)

		first, _ := segment.ByIndex(session.Segments(), 0).Get()
		second, _ := segment.ByIndex(session.Segments(), 1).Get()

		Convey("Only one quiz can hold the slot", func() {
			So(session.AcquireQuiz(first), ShouldBeTrue)
			So(el.Paused(), ShouldBeTrue)
			So(session.AcquireQuiz(second), ShouldBeFalse)

			Convey("Releasing frees it without resuming playback", func() {
				session.ReleaseQuiz(first)
				So(session.State(), ShouldEqual, StateReady)
				So(el.Paused(), ShouldBeTrue)
				So(session.AcquireQuiz(second), ShouldBeTrue)
			})

			Convey("A release for another segment is ignored", func() {
				session.ReleaseQuiz(second)
				So(session.State(), ShouldEqual, StateQuizLocked)
			})
		})

		Convey("The quiz cache serves rewatches", func() {
			_, ok := session.CachedQuiz(first.ID)
			So(ok, ShouldBeFalse)

			session.StoreQuiz(first.ID, &api.Quiz{SegmentID: first.ID})
			quiz, ok := session.CachedQuiz(first.ID)
			So(ok, ShouldBeTrue)
			So(quiz.SegmentID, ShouldEqual, first.ID)

			Convey("And re-registration clears it", func() {
				So(session.Register(el, SessionKey(el)), ShouldBeNil)
				_, ok := session.CachedQuiz(first.ID)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestBinder(t *testing.T) {
	Convey("Given a binder over a fresh session", t, func() {
		b := newBackend()
		defer b.server.Close()
		el := media.NewMemory("mem://lecture", 300)
		session := NewSession(b.client(), newRecordingRunner())
		binder := NewBinder(session)

		Convey("Binding registers and wires playback notifications", func() {
			So(binder.Bind(el, false), ShouldBeNil)

			bound, sessionKey := binder.Current()
			So(bound, ShouldEqual, el)
			So(sessionKey, ShouldEqual, "mem://lecture|300")
			So(atomic.LoadInt64(&b.uploads), ShouldEqual, 1)

			Convey("Past-frontier positions delivered by the element get corrected", func() {
				el.Advance(150)

				position, _ := el.CurrentTime()
				So(position, ShouldEqual, 99.75)
			})

			Convey("Past-frontier seeks delivered by the element get corrected", func() {
				el.EmitSeeking(250)

				position, _ := el.CurrentTime()
				So(position, ShouldEqual, 99.75)
			})

			Convey("Rebinding the same element under the same key is a no-op", func() {
				So(binder.Bind(el, false), ShouldBeNil)
				So(atomic.LoadInt64(&b.uploads), ShouldEqual, 1)
			})

			Convey("A forced rebind registers again", func() {
				So(binder.Bind(el, true), ShouldBeNil)
				So(atomic.LoadInt64(&b.uploads), ShouldEqual, 2)
			})

			Convey("A different element replaces the binding", func() {
				other := media.NewMemory("mem://other", 120)
				So(binder.Bind(other, false), ShouldBeNil)

				bound, _ := binder.Current()
				So(bound, ShouldEqual, other)
				So(atomic.LoadInt64(&b.uploads), ShouldEqual, 2)
			})
		})

		Convey("A failed registration leaves the binding unset", func() {
			b.failing.Store(true)

			So(binder.Bind(el, false), ShouldNotBeNil)

			bound, sessionKey := binder.Current()
			So(bound, ShouldBeNil)
			So(sessionKey, ShouldBeEmpty)
		})

		Convey("A failed observer attach pauses the element and leaves the binding unset", func() {
			broken := &failingObserve{Memory: media.NewMemory("mem://lecture", 300)}
			broken.Resume()

			So(binder.Bind(broken, false), ShouldNotBeNil)

			bound, sessionKey := binder.Current()
			So(bound, ShouldBeNil)
			So(sessionKey, ShouldBeEmpty)
			So(broken.Paused(), ShouldBeTrue)

			Convey("So a later bind of the same element registers again", func() {
				So(atomic.LoadInt64(&b.uploads), ShouldEqual, 1)
				So(binder.Bind(broken, false), ShouldNotBeNil)
				So(atomic.LoadInt64(&b.uploads), ShouldEqual, 2)
			})
		})

		Convey("A bind arriving while another is in flight is dropped", func() {
			b.slow.Store(true)
			done := make(chan error, 1)
			go func() { done <- binder.Bind(el, false) }()
			<-b.entered

			So(binder.Bind(el, false), ShouldBeNil)

			b.slow.Store(false)
			close(b.release)
			So(<-done, ShouldBeNil)
			So(atomic.LoadInt64(&b.uploads), ShouldEqual, 1)

			bound, _ := binder.Current()
			So(bound, ShouldEqual, el)
		})
	})
}

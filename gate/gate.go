// Package gate implements the playback gating engine.
//
// A Session tracks one bound media element and the progress gate over its
// segment sequence: how far the viewer may play (the frontier), which
// segments were passed, and which quiz is currently holding playback. All
// state transitions funnel through the session so that position corrections,
// quiz triggering and verdict application stay consistent under concurrent
// player notifications.
package gate

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ivq-cli/ivq/api"
	"github.com/ivq-cli/ivq/constant"
	"github.com/ivq-cli/ivq/history"
	"github.com/ivq-cli/ivq/key"
	"github.com/ivq-cli/ivq/log"
	"github.com/ivq-cli/ivq/media"
	"github.com/ivq-cli/ivq/segment"
	"github.com/ivq-cli/ivq/util"
	"github.com/spf13/viper"
)

const (
	// triggerEpsilon is how close to a segment's end the playhead has to be
	// before its quiz fires.
	triggerEpsilon = 0.2

	// correctionBack is how far before the frontier's end corrected playback
	// resumes, so the viewer lands just ahead of the gate instead of on it.
	correctionBack = 0.25
)

// State is the lifecycle phase of a Session.
type State int

const (
	StateUninitialized State = iota
	StateRegistering
	StateReady
	StateQuizLocked
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRegistering:
		return "registering"
	case StateReady:
		return "ready"
	case StateQuizLocked:
		return "quiz locked"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// QuizRunner drives the interactive quiz flow for one segment. Run is invoked
// on its own goroutine with the quiz lock already held; the runner reports
// back through ApplyVerdict or ReleaseQuiz.
type QuizRunner interface {
	Run(session *Session, seg *segment.Segment)
}

// SessionKey derives the identity of a playback session from the element's
// source and rounded duration, so that replacing the element with an
// equivalent one does not force re-registration.
func SessionKey(el media.Element) string {
	duration, err := el.Duration()
	if err != nil || math.IsNaN(duration) || math.IsInf(duration, 0) {
		duration = 0
	}
	return fmt.Sprintf("%s|%d", el.Src(), int(math.Round(duration)))
}

// Session is the gating state machine for one bound media element.
type Session struct {
	mu      sync.Mutex
	api     *api.Client
	quizzes QuizRunner

	el       media.Element
	state    State
	key      string
	videoID  string
	segments []*segment.Segment
	frontier int
	passed   map[string]struct{}
	cache    map[string]*api.Quiz
	active   *segment.Segment

	// generation increments on every registration; asynchronous resumptions
	// carry the generation they started under and are discarded when it no
	// longer matches.
	generation uint64
}

// NewSession creates an empty session bound to nothing.
func NewSession(client *api.Client, quizzes QuizRunner) *Session {
	return &Session{
		api:      client,
		quizzes:  quizzes,
		frontier: -1,
		passed:   make(map[string]struct{}),
		cache:    make(map[string]*api.Quiz),
	}
}

// Register atomically rebinds the session to an element, announces its video
// to the backend and loads the segment sequence. On any failure the element
// is paused and the session enters StateErrored: playback never proceeds
// ungated.
func (s *Session) Register(el media.Element, sessionKey string) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.el = el
	s.key = sessionKey
	s.state = StateRegistering
	s.videoID = ""
	s.segments = nil
	s.frontier = -1
	s.passed = make(map[string]struct{})
	s.cache = make(map[string]*api.Quiz)
	s.active = nil
	s.mu.Unlock()

	duration, err := el.Duration()
	if err != nil || math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		duration = constant.FallbackDuration
	}

	videoID, err := s.api.RegisterVideo(el.Src(), duration)
	if err != nil {
		s.failClosed(gen, el, err)
		return err
	}

	segments, err := s.api.Segments(videoID)
	if err != nil {
		s.failClosed(gen, el, err)
		return err
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return nil
	}
	s.videoID = videoID
	s.segments = segments
	s.frontier = initialFrontier(segments)
	s.state = StateReady
	frontier := s.frontier
	s.mu.Unlock()

	log.Infof("session ready: video %s, %d segments, frontier %d", videoID, len(segments), frontier)
	return nil
}

// failClosed pauses playback and marks the session errored, unless a newer
// registration already superseded this one.
func (s *Session) failClosed(gen uint64, el media.Element, cause error) {
	log.Errorf("session registration failed: %v", cause)

	s.mu.Lock()
	stale := s.generation != gen
	if !stale {
		s.state = StateErrored
	}
	s.mu.Unlock()

	if !stale {
		util.Ignore(el.Pause)
	}
}

// initialFrontier derives the starting frontier from the backend's lock
// flags: the segment just before the first locked one, the last segment when
// nothing is locked, -1 for an empty sequence.
func initialFrontier(segments []*segment.Segment) int {
	if len(segments) == 0 {
		return -1
	}
	for _, seg := range segments {
		if seg.Locked {
			return util.Max(0, seg.Index-1)
		}
	}
	return segment.LastIndex(segments)
}

// HandleTimeUpdate reacts to a playback position notification: positions past
// the frontier are corrected back, and reaching the end of an unpassed
// segment fires its quiz.
func (s *Session) HandleTimeUpdate(t float64) {
	s.mu.Lock()

	if !s.gating() {
		s.mu.Unlock()
		return
	}

	seg, ok := segment.Containing(s.segments, t).Get()
	if !ok {
		s.mu.Unlock()
		return
	}

	if seg.Index > s.frontier {
		target, ok := s.correctionTarget()
		el := s.el
		s.mu.Unlock()
		if ok {
			log.Debugf("position %.2f is past the frontier, correcting to %.2f", t, target)
			util.Ignore(func() error { return el.Seek(target) })
		}
		return
	}

	_, passed := s.passed[seg.ID]
	if passed || s.active != nil || t < seg.EndSeconds-triggerEpsilon {
		s.mu.Unlock()
		return
	}

	s.active = seg
	s.state = StateQuizLocked
	el, runner := s.el, s.quizzes
	s.mu.Unlock()

	log.Infof("segment %d reached its end, starting quiz", seg.Index)
	util.Ignore(el.Pause)
	go runner.Run(s, seg)
}

// HandleSeeking reacts to an explicit position jump, snapping positions past
// the frontier's end back in front of the gate.
func (s *Session) HandleSeeking(t float64) {
	s.mu.Lock()

	if !s.gating() {
		s.mu.Unlock()
		return
	}

	frontierSeg, ok := segment.ByIndex(s.segments, s.frontier).Get()
	if !ok || t <= frontierSeg.EndSeconds+segment.EndEpsilon {
		s.mu.Unlock()
		return
	}

	target, ok := s.correctionTarget()
	el := s.el
	s.mu.Unlock()

	if ok {
		log.Debugf("seek to %.2f crossed the frontier, correcting to %.2f", t, target)
		util.Ignore(func() error { return el.Seek(target) })
	}
}

// gating reports whether notifications should be acted on. Callers hold the lock.
func (s *Session) gating() bool {
	if s.state != StateReady && s.state != StateQuizLocked {
		return false
	}
	return len(s.segments) > 0 && s.el != nil
}

// correctionTarget computes where corrected playback lands: just before the
// frontier segment's end, never before its start. Callers hold the lock.
func (s *Session) correctionTarget() (float64, bool) {
	frontierSeg, ok := segment.ByIndex(s.segments, s.frontier).Get()
	if !ok {
		return 0, false
	}
	return math.Max(frontierSeg.StartSeconds, frontierSeg.EndSeconds-correctionBack), true
}

// AcquireQuiz claims the single quiz slot for a segment, pausing playback.
// It reports false when another quiz already holds the slot.
func (s *Session) AcquireQuiz(seg *segment.Segment) bool {
	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		return false
	}
	s.active = seg
	s.state = StateQuizLocked
	el := s.el
	s.mu.Unlock()

	if el != nil {
		util.Ignore(el.Pause)
	}
	return true
}

// ReleaseQuiz frees the quiz slot without a verdict, e.g. when the quiz
// could not be fetched. Playback stays paused.
func (s *Session) ReleaseQuiz(seg *segment.Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(seg)
}

func (s *Session) releaseLocked(seg *segment.Segment) {
	if s.active == nil || s.active.ID != seg.ID {
		return
	}
	s.active = nil
	if s.state == StateQuizLocked {
		s.state = StateReady
	}
}

// CachedQuiz returns the previously fetched quiz for a segment, if any.
func (s *Session) CachedQuiz(segmentID string) (*api.Quiz, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.cache[segmentID]
	return quiz, ok
}

// StoreQuiz caches a fetched quiz so a rewatch does not refetch it.
func (s *Session) StoreQuiz(segmentID string, quiz *api.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[segmentID] = quiz
}

// Generation returns the current registration generation. Quiz runners
// capture it before any blocking work and pass it back with their verdict.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// ApplyVerdict applies a grading result to the session. A correct verdict
// marks the segment passed, advances the frontier and resumes playback. An
// incorrect one keeps the quiz slot held through the rewatch delay, then
// rewinds to the segment's start and resumes. Verdicts from a superseded
// generation are discarded.
func (s *Session) ApplyVerdict(gen uint64, seg *segment.Segment, verdict *api.Verdict) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		log.Debugf("discarding verdict for segment %d from a stale session", seg.Index)
		return
	}

	if verdict.Correct {
		s.passed[seg.ID] = struct{}{}
		last := segment.LastIndex(s.segments)
		s.frontier = util.Min(last, util.Max(s.frontier, seg.Index+1))
		s.releaseLocked(seg)
		el := s.el
		frontier := s.frontier
		record := s.recordLocked()
		s.mu.Unlock()

		log.Infof("segment %d passed, frontier now %d", seg.Index, frontier)
		s.persist(record)
		util.Ignore(el.Resume)
		return
	}
	el := s.el
	record := s.recordLocked()
	s.mu.Unlock()

	s.persist(record)

	// The slot stays held through the delay so a racing notification cannot
	// start a second quiz before the rewind lands.
	time.Sleep(rewatchDelay())

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	el = s.el
	s.mu.Unlock()

	log.Infof("segment %d failed, rewatching from %.2f", seg.Index, seg.StartSeconds)

	// Rewind before releasing the slot; a notification landing in between
	// would still see the pre-rewind position and start a second quiz.
	util.Ignore(func() error { return el.Seek(seg.StartSeconds) })

	s.mu.Lock()
	if s.generation == gen {
		s.releaseLocked(seg)
	}
	s.mu.Unlock()

	util.Ignore(el.Resume)
}

// recordLocked snapshots the session into a history record. Callers hold the
// lock. Returns nil when there is nothing worth persisting yet.
func (s *Session) recordLocked() *history.SavedVideo {
	if s.videoID == "" || s.el == nil {
		return nil
	}

	passed := make([]string, 0, len(s.passed))
	for id := range s.passed {
		passed = append(passed, id)
	}

	position, _ := s.el.CurrentTime()
	return &history.SavedVideo{
		VideoID:        s.videoID,
		Source:         s.el.Src(),
		Frontier:       s.frontier,
		PassedSegments: passed,
		LastPosition:   position,
		SegmentCount:   len(s.segments),
	}
}

func (s *Session) persist(record *history.SavedVideo) {
	if record == nil || !viper.GetBool(key.GateSaveProgress) {
		return
	}
	if err := history.Save(record); err != nil {
		log.Warnf("failed to persist gating progress: %v", err)
	}
}

func rewatchDelay() time.Duration {
	ms := viper.GetInt(key.GateRewatchDelay)
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Frontier returns the furthest segment index the viewer may currently play.
func (s *Session) Frontier() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frontier
}

// Passed reports whether a segment's quiz has been passed this session.
func (s *Session) Passed(segmentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.passed[segmentID]
	return ok
}

// Segments returns the segment sequence of the current registration.
func (s *Session) Segments() []*segment.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.segments
}

// VideoID returns the backend identifier of the registered video.
func (s *Session) VideoID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoID
}
